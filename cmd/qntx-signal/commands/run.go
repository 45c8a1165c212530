package commands

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/qntx-signal/am"
	"github.com/teranos/qntx-signal/display"
	"github.com/teranos/qntx-signal/errors"
	ixsignal "github.com/teranos/qntx-signal/ixgest/signal"
	"github.com/teranos/qntx-signal/logger"
	"github.com/teranos/qntx-signal/sym"
)

// RunCmd ingests one month of controller logs
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: sym.Short("run"),
	Long: `Decode every raw controller log of one month and write the per
intersection-day bit_mask.csv and raw_data.csv artifacts.

Days are processed in parallel; intersections within a day and files within
an intersection run in name order. A file that cannot be decoded is logged
and skipped. The run never aborts for a single file, intersection or day.

Examples:
  qntx-signal run --year 2022 --month 11
  qntx-signal run --year 2022 --month 11 --workers 4 --persist
  qntx-signal run --year 2022 --month 11 --decoder "wine C:/tools/decode.exe"
  qntx-signal run --year 2022 --month 11 --dry-run --json`,
	RunE: runRun,
}

var (
	runYear    string
	runMonth   string
	runWorkers int
	runInput   string
	runDecoder string
	runPersist bool
	runDBPath  string
	runDryRun  bool
)

func init() {
	RunCmd.Flags().StringVar(&runYear, "year", "", "Year directory to process (overrides batch.year)")
	RunCmd.Flags().StringVar(&runMonth, "month", "", "Month directory to process (overrides batch.month)")
	RunCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0, "Concurrent day workers, 0 = one per CPU (overrides batch.workers)")
	RunCmd.Flags().StringVar(&runInput, "input", "", "Input root holding year/month/day/intersection (overrides paths.input)")
	RunCmd.Flags().StringVar(&runDecoder, "decoder", "", "Decoder command; input and output paths are appended (overrides decoder.command)")
	RunCmd.Flags().BoolVar(&runPersist, "persist", false, "Also insert artifacts into the database (overrides database.enabled)")
	RunCmd.Flags().StringVar(&runDBPath, "db", "", "Database path (overrides database.path)")
	RunCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "List the days, intersections and files that would be processed")
}

// applyRunFlags overlays explicitly set flags onto cfg.
func applyRunFlags(cmd *cobra.Command, cfg *am.Config) {
	flags := cmd.Flags()
	if flags.Changed("year") {
		cfg.Batch.Year = runYear
	}
	if flags.Changed("month") {
		cfg.Batch.Month = runMonth
	}
	if flags.Changed("workers") {
		cfg.Batch.Workers = runWorkers
	}
	if flags.Changed("input") {
		cfg.Paths.Input = runInput
	}
	if flags.Changed("decoder") {
		cfg.Decoder.Command = runDecoder
	}
	if flags.Changed("persist") {
		cfg.Database.Enabled = runPersist
	}
	if flags.Changed("db") {
		cfg.Database.Path = runDBPath
	}
}

// absRoots resolves the four roots so raw file paths always carry the
// city/year/month/day/intersection/file segments.
func absRoots(cfg *am.Config) (input string, roots ixsignal.Roots, err error) {
	paths := []*string{&cfg.Paths.Input, &cfg.Paths.Converted, &cfg.Paths.BitMask, &cfg.Paths.RawData}
	for _, p := range paths {
		abs, err := filepath.Abs(*p)
		if err != nil {
			return "", roots, errors.Wrapf(err, "resolve %s", *p)
		}
		*p = abs
	}
	roots = ixsignal.Roots{
		Converted: cfg.Paths.Converted,
		BitMask:   cfg.Paths.BitMask,
		RawData:   cfg.Paths.RawData,
	}
	return cfg.Paths.Input, roots, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	loaded, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	cfg := *loaded
	applyRunFlags(cmd, &cfg)

	// A dry run only walks the input tree, so it needs no decoder.
	validate := cfg.ValidateForRun
	if runDryRun {
		validate = cfg.ValidateSelection
	}
	if err := validate(); err != nil {
		return err
	}

	input, roots, err := absRoots(&cfg)
	if err != nil {
		return err
	}

	var decoder ixsignal.Decoder
	if !runDryRun {
		decoder, err = ixsignal.NewExecDecoder(cfg.Decoder.Command, ixsignal.ExecOptions{
			Timeout:              time.Duration(cfg.Decoder.TimeoutSeconds) * time.Second,
			MaxLaunchesPerSecond: cfg.Decoder.MaxLaunchesPerSecond,
		}, logger.ComponentLogger("signal.decoder"))
		if err != nil {
			return errors.Wrap(errors.ErrInvalidConfig, err.Error())
		}
	}

	var (
		store  ixsignal.Store
		ledger ixsignal.Ledger
	)
	if cfg.Database.Enabled && !runDryRun {
		database, err := openDatabase(&cfg, "")
		if err != nil {
			return err
		}
		defer database.Close()
		sqlStore := ixsignal.NewSQLStore(database)
		store, ledger = sqlStore, sqlStore
	}

	agg := ixsignal.NewAggregator(ixsignal.AggregatorConfig{
		Roots:       roots,
		HeaderLines: cfg.GetHeaderLines(),
		SkipMarker:  cfg.GetSkipMarker(),
	}, decoder, store, logger.ComponentLogger("signal"))

	batch := ixsignal.NewBatch(ixsignal.BatchConfig{
		InputRoot: input,
		Year:      cfg.Batch.Year,
		Month:     cfg.Batch.Month,
		Workers:   cfg.Batch.Workers,
	}, agg, logger.ComponentLogger("signal.batch"))

	jsonOutput := display.ShouldOutputJSON(cmd)

	if runDryRun {
		plans, err := batch.Plan()
		if err != nil {
			return err
		}
		if jsonOutput {
			return display.OutputJSON(plans)
		}
		renderPlan(batch.MonthDir(), plans)
		return nil
	}

	if ledger != nil {
		batch.WithLedger(ledger)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var progress *CLIProgress
	if !jsonOutput {
		days, err := ixsignal.DiscoverDays(input, cfg.Batch.Year, cfg.Batch.Month)
		if err != nil {
			return err
		}
		progress = NewCLIProgress(len(days))
		batch.WithObserver(progress)
	}

	res, err := batch.Run(ctx)
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		if err := display.OutputJSON(runOutput{Result: res, Totals: res.Totals()}); err != nil {
			return err
		}
	} else {
		renderSummary(res)
	}

	if res.Cancelled {
		return errors.WithHint(ErrRunCancelled, "artifacts already written are complete; re-run to finish the month")
	}
	return nil
}

type runOutput struct {
	Result *ixsignal.BatchResult `json:"result"`
	Totals ixsignal.Totals       `json:"totals"`
}

// maxListedFailures caps the failure table in the human summary.
const maxListedFailures = 20

func renderSummary(res *ixsignal.BatchResult) {
	t := res.Totals()

	pterm.DefaultSection.Printf("%s Run %s  %s/%s", sym.IX, res.RunID, res.Year, res.Month)
	_ = pterm.DefaultTable.WithData(pterm.TableData{
		{"Days", pterm.Sprint(t.Days)},
		{"Intersections", pterm.Sprint(t.Intersections)},
		{"Artifacts written", pterm.Green(t.Artifacts)},
		{"Files decoded", pterm.Green(t.FilesOK)},
		{"Files failed", failedCount(t.FilesFailed)},
		{"Event rows", pterm.Sprint(t.Rows)},
		{"Workers", pterm.Sprint(res.Workers)},
		{"Duration", res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond).String()},
	}).Render()

	if len(t.ByCode) > 0 {
		data := pterm.TableData{{"Code", "Count"}}
		for _, code := range t.Codes() {
			data = append(data, []string{string(code), pterm.Sprint(t.ByCode[code])})
		}
		pterm.Println()
		_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()

		diags := res.Diagnostics()
		data = pterm.TableData{{"Day", "Intersection", "File", "Code", "Message"}}
		for i, d := range diags {
			if i == maxListedFailures {
				break
			}
			data = append(data, []string{d.Day, d.Intersection, d.File, string(d.Code), d.Message})
		}
		pterm.Println()
		_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		if len(diags) > maxListedFailures {
			pterm.Info.Printf("%d more failures; use --json for the full list\n", len(diags)-maxListedFailures)
		}
	}

	switch {
	case res.Cancelled:
		pterm.Warning.Println("Run cancelled before all days finished")
	case len(t.ByCode) > 0:
		pterm.Warning.Println("Run finished with failures")
	default:
		pterm.Success.Println("Run complete!")
	}
}

func failedCount(n int) string {
	if n == 0 {
		return pterm.Sprint(n)
	}
	return pterm.Red(n)
}

func renderPlan(monthDir string, plans []ixsignal.DayPlan) {
	pterm.DefaultSection.Printf("Dry run  %s", monthDir)

	data := pterm.TableData{{"Day", "Intersection", "Files"}}
	var files, skipped int
	for _, p := range plans {
		for _, in := range p.Intersections {
			data = append(data, []string{p.Day, in.Intersection, pterm.Sprint(in.Files)})
			files += in.Files
		}
		skipped += len(p.Skipped)
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()

	pterm.Info.Printf("%d days, %d files, %d skipped directories\n", len(plans), files, skipped)
}
