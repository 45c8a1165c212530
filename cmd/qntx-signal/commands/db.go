package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/qntx-signal/am"
	"github.com/teranos/qntx-signal/db"
	"github.com/teranos/qntx-signal/display"
	"github.com/teranos/qntx-signal/errors"
	"github.com/teranos/qntx-signal/sym"
)

// DbCmd represents the db (database) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: sym.Short("db"),
	Long: sym.DB + ` db: Manage the ingest database

The database is optional. When database.enabled is set (or run --persist is
passed) every artifact is also inserted into the bit_mask and raw_data
tables, and each run is recorded in the ingest_runs ledger.

Examples:
  qntx-signal db migrate              # Create or upgrade the schema
  qntx-signal db stats                # Show table sizes and recent runs
  qntx-signal db stats --limit 5      # Show the last 5 runs`,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE:  runDbMigrate,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show table sizes and recent runs",
	RunE:  runDbStats,
}

var (
	dbPathFlag     string
	statsLimitFlag int
)

func init() {
	DbCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "Database path (overrides database.path)")
	dbStatsCmd.Flags().IntVar(&statsLimitFlag, "limit", 10, "Number of recent runs to show")

	DbCmd.AddCommand(dbMigrateCmd)
	DbCmd.AddCommand(dbStatsCmd)
}

func runDbMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	database, err := openDatabase(cfg, dbPathFlag)
	if err != nil {
		return err
	}
	defer database.Close()

	pterm.Success.Println("Database schema is up to date")
	return nil
}

type runStats struct {
	db.Run
	Failures map[string]int `json:"failures,omitempty"`
}

type dbStats struct {
	Path        string     `json:"path"`
	BitMaskRows int        `json:"bit_mask_rows"`
	RawDataRows int        `json:"raw_data_rows"`
	Runs        []runStats `json:"runs"`
}

func runDbStats(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	database, err := openDatabase(cfg, dbPathFlag)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	stats := dbStats{Path: cfg.GetDatabasePath()}
	if dbPathFlag != "" {
		stats.Path = dbPathFlag
	}
	if err := database.QueryRowContext(ctx, `SELECT COUNT(*) FROM bit_mask`).Scan(&stats.BitMaskRows); err != nil {
		return errors.Wrap(err, "count bit_mask")
	}
	if err := database.QueryRowContext(ctx, `SELECT COUNT(*) FROM raw_data`).Scan(&stats.RawDataRows); err != nil {
		return errors.Wrap(err, "count raw_data")
	}

	runs, err := db.RecentRuns(ctx, database, statsLimitFlag)
	if err != nil {
		return err
	}
	for _, r := range runs {
		counts, err := db.FailureCounts(ctx, database, r.ID)
		if err != nil {
			return err
		}
		stats.Runs = append(stats.Runs, runStats{Run: r, Failures: counts})
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(stats)
	}

	pterm.DefaultSection.Println(sym.DB + " Database Statistics")
	fmt.Printf("Database Path:  %s\n", stats.Path)
	fmt.Printf("bit_mask rows:  %d\n", stats.BitMaskRows)
	fmt.Printf("raw_data rows:  %d\n", stats.RawDataRows)
	fmt.Println()

	if len(stats.Runs) == 0 {
		pterm.Info.Println("No runs recorded yet")
		return nil
	}

	data := pterm.TableData{{"Run", "Month", "Status", "Days", "Files OK", "Failed", "Started", "Duration"}}
	for _, r := range stats.Runs {
		duration := "-"
		if r.FinishedAt != nil {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		data = append(data, []string{
			shortID(r.ID),
			r.Year + "/" + r.Month,
			r.Status,
			pterm.Sprint(r.Days),
			pterm.Sprint(r.FilesOK),
			pterm.Sprint(r.FilesFailed),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			duration,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
