package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/teranos/qntx-signal/errors"
)

// Run is one row of the ingest_runs ledger.
type Run struct {
	ID            string     `json:"id"`
	Year          string     `json:"year"`
	Month         string     `json:"month"`
	Status        string     `json:"status"`
	Days          int        `json:"days"`
	Intersections int        `json:"intersections"`
	FilesOK       int        `json:"files_ok"`
	FilesFailed   int        `json:"files_failed"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// Failure is one row of ingest_failures.
type Failure struct {
	Day          string
	Intersection string
	File         string
	ErrorCode    string
	Message      string
}

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusPartial   = "partial"
	RunStatusCancelled = "cancelled"
)

// StartRun inserts a running ledger row.
func StartRun(ctx context.Context, db *sql.DB, run Run) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, year, month, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Year, run.Month, RunStatusRunning, run.StartedAt.UTC())
	if err != nil {
		return errors.Wrapf(err, "record start of run %s", run.ID)
	}
	return nil
}

// FinishRun stores the final counts and failures of a run in one transaction.
func FinishRun(ctx context.Context, db *sql.DB, run Run, failures []Failure) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "begin finish of run %s", run.ID)
	}
	defer tx.Rollback()

	finished := time.Now().UTC()
	if run.FinishedAt != nil {
		finished = run.FinishedAt.UTC()
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE ingest_runs
		 SET status = ?, days = ?, intersections = ?, files_ok = ?, files_failed = ?, finished_at = ?
		 WHERE id = ?`,
		run.Status, run.Days, run.Intersections, run.FilesOK, run.FilesFailed, finished, run.ID)
	if err != nil {
		return errors.Wrapf(err, "update run %s", run.ID)
	}

	for _, f := range failures {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO ingest_failures (run_id, day, intersection, file, error_code, message) VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, f.Day, f.Intersection, f.File, f.ErrorCode, f.Message)
		if err != nil {
			return errors.Wrapf(err, "record failure for run %s", run.ID)
		}
	}

	return errors.Wrapf(tx.Commit(), "commit finish of run %s", run.ID)
}

// RecentRuns returns up to limit runs, newest first.
func RecentRuns(ctx context.Context, db *sql.DB, limit int) ([]Run, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, year, month, status, days, intersections, files_ok, files_failed, started_at, finished_at
		 FROM ingest_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Year, &r.Month, &r.Status, &r.Days, &r.Intersections,
			&r.FilesOK, &r.FilesFailed, &r.StartedAt, &finished); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, errors.Wrap(rows.Err(), "iterate runs")
}

// FailureCounts groups a run's failures by error code.
func FailureCounts(ctx context.Context, db *sql.DB, runID string) (map[string]int, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT error_code, COUNT(*) FROM ingest_failures WHERE run_id = ? GROUP BY error_code`, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "query failures for %s", runID)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var code string
		var n int
		if err := rows.Scan(&code, &n); err != nil {
			return nil, errors.Wrap(err, "scan failure count")
		}
		counts[code] = n
	}
	return counts, errors.Wrap(rows.Err(), "iterate failure counts")
}
