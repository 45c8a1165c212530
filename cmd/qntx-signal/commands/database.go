package commands

import (
	"database/sql"

	"github.com/teranos/qntx-signal/am"
	"github.com/teranos/qntx-signal/db"
	"github.com/teranos/qntx-signal/errors"
	"github.com/teranos/qntx-signal/logger"
	"github.com/teranos/qntx-signal/sym"
)

// openDatabase opens and migrates the database at dbPath, or at the
// configured path when dbPath is empty.
func openDatabase(cfg *am.Config, dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		dbPath = cfg.GetDatabasePath()
	}

	database, err := db.OpenWithMigrations(dbPath, logger.WithSymbol(sym.DB))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", dbPath)
	}
	return database, nil
}
