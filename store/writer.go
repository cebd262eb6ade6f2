package store

import (
	"context"
	"database/sql"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/classdb/db"
	"github.com/teranos/classdb/errors"
	"github.com/teranos/classdb/prediction"
)

type sqlWriter struct {
	tx     *sql.Tx
	logger *zap.SugaredLogger
	done   bool
	writes int
	closed error
}

// termsColumn stores tokens padded with spaces so "% tok %" matches whole tokens.
func termsColumn(tokens []string) string {
	return " " + strings.Join(tokens, " ") + " "
}

func (w *sqlWriter) Add(ctx context.Context, r prediction.Record) error {
	if w.done {
		return errors.Wrap(db.ErrDatabaseClosed, "writer is closed")
	}
	if !prediction.ValidScore(r.Score) {
		return errors.NewInvalidRequestError("score %v for %s is outside [0,1]", r.Score, r.Identifier)
	}

	key := r.Key()
	if _, err := w.tx.ExecContext(ctx, deleteByKeyQuery, key); err != nil {
		return errors.WithDetailf(errors.Wrap(err, "failed to replace record"), "item: %s", r.Item)
	}
	_, err := w.tx.ExecContext(ctx, insertQuery,
		key,
		r.Item,
		r.Classifier,
		r.Criterion,
		r.Class,
		r.Score,
		prediction.SortableScore(r.Score),
		r.Contents(),
		termsColumn(r.Terms()),
	)
	if err != nil {
		return errors.WithDetailf(errors.Wrap(err, "failed to insert record"), "item: %s", r.Item)
	}
	w.writes++
	return nil
}

func (w *sqlWriter) Remove(ctx context.Context, item string) (bool, error) {
	if w.done {
		return false, errors.Wrap(db.ErrDatabaseClosed, "writer is closed")
	}

	keys, err := w.keysOf(ctx, item)
	if err != nil {
		return false, err
	}

	switch len(keys) {
	case 0:
		return false, nil
	case 1:
		_, err = w.tx.ExecContext(ctx, deleteByKeyQuery, keys[0])
	default:
		_, err = w.tx.ExecContext(ctx, deleteByItemQuery, item)
	}
	if err != nil {
		return false, errors.WithDetailf(errors.Wrap(err, "failed to remove records"), "item: %s", item)
	}
	w.writes++
	return true, nil
}

func (w *sqlWriter) keysOf(ctx context.Context, item string) ([]string, error) {
	rows, err := w.tx.QueryContext(ctx, selectKeysByItemQuery, item)
	if err != nil {
		return nil, errors.WithDetailf(errors.Wrap(err, "failed to look up records"), "item: %s", item)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, errors.Wrap(err, "failed to scan record key")
		}
		keys = append(keys, k)
	}
	return keys, errors.Wrap(rows.Err(), "failed to look up records")
}

func (w *sqlWriter) Close() error {
	if w.done {
		return w.closed
	}
	w.done = true
	if err := w.tx.Commit(); err != nil {
		w.closed = errors.Wrap(err, "failed to commit writes")
		w.logger.Warnw("Commit failed, writes discarded", "writes", w.writes, "error", err)
		return w.closed
	}
	w.logger.Debugw("Writer committed", "writes", w.writes)
	return nil
}

func (w *sqlWriter) Rollback() error {
	if w.done {
		return nil
	}
	w.done = true
	if err := w.tx.Rollback(); err != nil {
		return errors.Wrap(err, "failed to roll back writes")
	}
	return nil
}
