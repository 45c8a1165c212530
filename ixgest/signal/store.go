package signal

import (
	"context"
	"database/sql"

	"github.com/teranos/qntx-signal/db"
	"github.com/teranos/qntx-signal/errors"
)

// Store receives finished artifacts after their files are written.
type Store interface {
	Persist(ctx context.Context, runID string, a *Artifact) error
}

// Ledger records batch runs.
type Ledger interface {
	StartRun(ctx context.Context, res *BatchResult) error
	FinishRun(ctx context.Context, res *BatchResult) error
}

// SQLStore bulk-inserts artifacts into the bit_mask and raw_data tables and
// keeps the ingest_runs ledger.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open, migrated database.
func NewSQLStore(database *sql.DB) *SQLStore {
	return &SQLStore{db: database}
}

// Persist inserts both tables. Each table is one transaction; a failure
// rolls that table back and is returned without retry.
func (s *SQLStore) Persist(ctx context.Context, runID string, a *Artifact) error {
	bitMask := db.Dataset{Columns: []string{"signalid", "timestamp", "flag", "run_id"}}
	for _, row := range a.BitMaskRows() {
		bitMask.Rows = append(bitMask.Rows, []any{row[0], row[1], row[2], runID})
	}
	if _, err := db.BulkInsert(ctx, s.db, "bit_mask", bitMask); err != nil {
		return errors.Wrapf(err, "persist bit mask for %s", a.Key)
	}

	raw := db.Dataset{Columns: []string{"signalid", "timestamp", "eventcode", "eventparam", "run_id"}}
	for _, row := range a.RawDataRows() {
		raw.Rows = append(raw.Rows, []any{row[0], row[1], row[2], row[3], runID})
	}
	if _, err := db.BulkInsert(ctx, s.db, "raw_data", raw); err != nil {
		return errors.Wrapf(err, "persist raw data for %s", a.Key)
	}
	return nil
}

// StartRun inserts a running ledger row.
func (s *SQLStore) StartRun(ctx context.Context, res *BatchResult) error {
	return db.StartRun(ctx, s.db, db.Run{
		ID:        res.RunID,
		Year:      res.Year,
		Month:     res.Month,
		StartedAt: res.StartedAt,
	})
}

// FinishRun stores final counts and every diagnostic.
func (s *SQLStore) FinishRun(ctx context.Context, res *BatchResult) error {
	totals := res.Totals()
	finished := res.FinishedAt

	var failures []db.Failure
	for _, d := range res.Diagnostics() {
		failures = append(failures, db.Failure{
			Day:          d.Day,
			Intersection: d.Intersection,
			File:         d.File,
			ErrorCode:    string(d.Code),
			Message:      d.Message,
		})
	}

	return db.FinishRun(ctx, s.db, db.Run{
		ID:            res.RunID,
		Status:        runStatus(res, totals),
		Days:          totals.Days,
		Intersections: totals.Intersections,
		FilesOK:       totals.FilesOK,
		FilesFailed:   totals.FilesFailed,
		FinishedAt:    &finished,
	}, failures)
}

func runStatus(res *BatchResult, t Totals) string {
	switch {
	case res.Cancelled:
		return db.RunStatusCancelled
	case len(t.ByCode) > 0:
		return db.RunStatusPartial
	default:
		return db.RunStatusCompleted
	}
}
