package db

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/teranos/classdb/errors"
)

// SQLiteBusyTimeoutMS is how long a connection waits on a locked database.
const SQLiteBusyTimeoutMS = 5000

// DSN builds the go-sqlite3 data source name for path.
// The options are applied on every pooled connection.
func DSN(path string) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_foreign_keys", "on")
	params.Set("_busy_timeout", fmt.Sprint(SQLiteBusyTimeoutMS))
	return path + "?" + params.Encode()
}

// Open opens a SQLite database at the specified path in WAL mode.
// WAL lets a pinned read transaction keep its snapshot while writers commit.
// If logger is provided, logs database operations; otherwise operates silently.
func Open(path string, logger *zap.SugaredLogger) (*sql.DB, error) {
	if path == "" {
		return nil, errors.Wrap(errors.ErrInvalidRequest, "database path is empty")
	}
	if logger != nil {
		logger.Debugw("Opening database", "path", path)
	}

	db, err := sql.Open("sqlite3", DSN(path))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database %s", path)
	}

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to open database %s", path)
	}
	if journalMode != "wal" {
		db.Close()
		return nil, errors.Newf("database %s refused WAL mode (journal_mode=%s)", path, journalMode)
	}

	if logger != nil {
		logger.Infow("Database opened successfully",
			"path", path,
			"wal_mode", true,
		)
	}

	return db, nil
}

// OpenWithMigrations opens the database and applies every pending migration.
func OpenWithMigrations(path string, logger *zap.SugaredLogger) (*sql.DB, error) {
	db, err := Open(path, logger)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, logger); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to migrate database %s", path)
	}
	return db, nil
}
