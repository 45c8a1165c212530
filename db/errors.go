package db

import (
	"strings"

	"github.com/teranos/qntx-signal/errors"
)

// ErrDatabaseClosed is returned when operations are attempted on a closed database.
var ErrDatabaseClosed = errors.New("database is closed")

// ErrUnsafeIdentifier is returned when a table or column name is not a plain
// SQL identifier. Names are interpolated into statements, so only
// [A-Za-z_][A-Za-z0-9_]* is accepted.
var ErrUnsafeIdentifier = errors.New("unsafe sql identifier")

// IsDatabaseClosed checks if an error indicates the database connection is closed.
// The string fallback covers raw driver errors we cannot wrap at the source.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}
