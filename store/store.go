// Package store persists classification records in SQLite and answers
// ranked searches over them.
//
// Writes go through a Writer, one transaction committed on Close. Searches
// go through a Reader, a read transaction pinned at creation: it sees every
// write committed before it was opened and nothing after.
package store

import (
	"context"
	"database/sql"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/classdb/db"
	"github.com/teranos/classdb/errors"
	"github.com/teranos/classdb/logger"
	"github.com/teranos/classdb/prediction"
	"github.com/teranos/classdb/query"
)

// Writer upserts and removes records. It is owned by one caller at a time.
type Writer interface {
	// Add stores r, replacing any record with the same upsert key.
	Add(ctx context.Context, r prediction.Record) error
	// Remove deletes every record of item and reports whether any existed.
	Remove(ctx context.Context, item string) (bool, error)
	// Close commits the writes. It is safe to call more than once.
	Close() error
	// Rollback discards the writes.
	Rollback() error
}

// Reader searches a point-in-time snapshot. It is safe for concurrent use.
type Reader interface {
	Search(ctx context.Context, text string, params query.Params) ([]prediction.Record, error)
	Close() error
}

// Store is the SQLite classification store.
type Store struct {
	db     *sql.DB
	owned  bool
	logger *zap.SugaredLogger

	// readerMu serializes snapshot acquisition
	readerMu sync.Mutex
}

// Open opens (creating and migrating if needed) the store at path.
func Open(path string) (*Store, error) {
	log := logger.ComponentLogger("store")
	conn, err := db.OpenWithMigrations(path, log)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open classification store")
	}
	s := New(conn)
	s.owned = true
	return s, nil
}

// New wraps an already migrated database. The caller keeps ownership of conn.
func New(conn *sql.DB) *Store {
	return &Store{
		db:     conn,
		logger: logger.ComponentLogger("store"),
	}
}

func (s *Store) available() error {
	if s == nil || s.db == nil {
		return errors.Wrap(errors.ErrServiceUnavailable, "classification store is not configured")
	}
	return nil
}

// Writer begins a write transaction. ctx bounds the writer's lifetime.
func (s *Store) Writer(ctx context.Context) (Writer, error) {
	if err := s.available(); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		if db.IsDatabaseClosed(err) {
			return nil, errors.Wrap(db.ErrDatabaseClosed, "failed to begin write")
		}
		return nil, errors.Wrap(err, "failed to begin write")
	}
	return &sqlWriter{tx: tx, logger: s.logger}, nil
}

// Reader opens a snapshot of everything committed so far.
// ctx bounds the reader's lifetime, not just its creation.
func (s *Store) Reader(ctx context.Context) (Reader, error) {
	if err := s.available(); err != nil {
		return nil, err
	}

	s.readerMu.Lock()
	defer s.readerMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open reader")
	}

	// SQLite starts the read transaction lazily; the first read pins the snapshot.
	var n int
	if err := tx.QueryRowContext(ctx, pinSnapshotQuery).Scan(&n); err != nil {
		tx.Rollback()
		return nil, errors.Wrap(err, "failed to pin reader snapshot")
	}

	return &sqlReader{tx: tx, logger: s.logger}, nil
}

// Remove deletes every record of item in its own transaction.
func (s *Store) Remove(ctx context.Context, item string) (bool, error) {
	w, err := s.Writer(ctx)
	if err != nil {
		return false, err
	}
	removed, err := w.Remove(ctx, item)
	if err != nil {
		w.Rollback()
		return false, err
	}
	if err := w.Close(); err != nil {
		return false, err
	}
	return removed, nil
}

// Count returns how many records are stored.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := s.available(); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, countQuery).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count records")
	}
	return n, nil
}

// Close releases the database if the store opened it.
func (s *Store) Close() error {
	if s == nil || s.db == nil || !s.owned {
		return nil
	}
	return s.db.Close()
}
