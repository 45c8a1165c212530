package db

import (
	"context"
	"database/sql"
	"regexp"
	"strings"

	"github.com/teranos/qntx-signal/errors"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Dataset is a named-column table ready for insertion.
type Dataset struct {
	Columns []string
	Rows    [][]any
}

// BulkInsert writes every row of ds into table inside a single transaction.
// Any failure rolls the whole dataset back; nothing is retried.
// Returns the number of rows inserted.
func BulkInsert(ctx context.Context, db *sql.DB, table string, ds Dataset) (int64, error) {
	if !identifier.MatchString(table) {
		return 0, errors.Wrapf(ErrUnsafeIdentifier, "table %q", table)
	}
	if len(ds.Columns) == 0 {
		return 0, errors.Newf("dataset for %s has no columns", table)
	}
	for _, col := range ds.Columns {
		if !identifier.MatchString(col) {
			return 0, errors.Wrapf(ErrUnsafeIdentifier, "column %q", col)
		}
	}
	if len(ds.Rows) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		if IsDatabaseClosed(err) {
			return 0, errors.Wrap(ErrDatabaseClosed, err.Error())
		}
		return 0, errors.Wrapf(err, "begin insert into %s", table)
	}

	n, err := insertRows(ctx, tx, table, ds)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			err = errors.WithSecondaryError(err, rbErr)
		}
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrapf(err, "commit insert into %s", table)
	}
	return n, nil
}

func insertRows(ctx context.Context, tx *sql.Tx, table string, ds Dataset) (int64, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ds.Columns)), ", ")
	query := "INSERT INTO " + table + " (" + strings.Join(ds.Columns, ", ") + ") VALUES (" + placeholders + ")"

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, errors.Wrapf(err, "prepare insert into %s", table)
	}
	defer stmt.Close()

	var n int64
	for i, row := range ds.Rows {
		if len(row) != len(ds.Columns) {
			return 0, errors.Newf("%s row %d has %d values, want %d", table, i, len(row), len(ds.Columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, errors.Wrapf(err, "insert %s row %d", table, i)
		}
		n++
	}
	return n, nil
}
