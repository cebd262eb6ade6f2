package db

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/classdb/errors"
)

//go:embed sqlite/migrations/*.sql
var migrations embed.FS

const migrationsDir = "sqlite/migrations"

// migration is one embedded schema change, identified by its numeric prefix.
type migration struct {
	version  string
	filename string
}

// listMigrations returns the embedded migrations in apply order.
func listMigrations() ([]migration, error) {
	entries, err := migrations.ReadDir(migrationsDir)
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}

	var out []migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		out = append(out, migration{
			version:  strings.SplitN(entry.Name(), "_", 2)[0],
			filename: entry.Name(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].filename < out[j].filename })
	return out, nil
}

// Migrate runs all pending migrations, each in its own transaction.
// 000 creates schema_migrations and records itself.
func Migrate(db *sql.DB, logger *zap.SugaredLogger) error {
	pending, err := listMigrations()
	if err != nil {
		return err
	}

	for _, m := range pending {
		applied, err := isApplied(db, m)
		if err != nil {
			return err
		}
		if applied {
			if logger != nil {
				logger.Debugw("Skipping migration (already applied)", "migration", m.filename)
			}
			continue
		}

		if logger != nil {
			logger.Infow("Applying migration", "migration", m.filename, "version", m.version)
		}
		if err := apply(db, m); err != nil {
			return err
		}
	}

	if logger != nil {
		logger.Infow("Migrations complete", "total_migrations", len(pending))
	}
	return nil
}

func isApplied(db *sql.DB, m migration) (bool, error) {
	var exists bool
	err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)", m.version).Scan(&exists)
	if err == nil {
		return exists, nil
	}
	if IsDatabaseClosed(err) {
		return false, errors.Wrap(ErrDatabaseClosed, "check migrations")
	}
	// schema_migrations is created by 000; any other version implies a broken schema
	if m.version != "000" {
		return false, errors.Wrapf(err, "schema_migrations missing before %s", m.filename)
	}
	return false, nil
}

func apply(db *sql.DB, m migration) error {
	sqlBytes, err := migrations.ReadFile(path.Join(migrationsDir, m.filename))
	if err != nil {
		return errors.Wrapf(err, "read %s", m.filename)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrapf(err, "begin tx for %s", m.filename)
	}
	if _, err := tx.Exec(string(sqlBytes)); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "execute %s", m.filename)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "record %s", m.filename)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "commit %s", m.filename)
	}
	return nil
}
