package store

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/classdb/db"
	"github.com/teranos/classdb/errors"
	"github.com/teranos/classdb/prediction"
	"github.com/teranos/classdb/query"
)

type sqlReader struct {
	// mu serializes use of the pinned transaction
	mu     sync.Mutex
	tx     *sql.Tx
	closed bool
	logger *zap.SugaredLogger
}

// Search returns the records matching text, by descending score.
// Failures wrap errors.ErrQueryFailed.
func (r *sqlReader) Search(ctx context.Context, text string, params query.Params) ([]prediction.Record, error) {
	start := time.Now()
	records, err := r.search(ctx, text, params)
	observeSearch(start, err)
	if err != nil {
		return nil, errors.QueryFailed(err, text)
	}
	return records, nil
}

func (r *sqlReader) search(ctx context.Context, text string, params query.Params) ([]prediction.Record, error) {
	node, err := query.Parse(text)
	if err != nil {
		return nil, err
	}
	if params.NumberOfResults() == 0 {
		return []prediction.Record{}, nil
	}

	where, args := compile(node)
	stmt := searchSelect + " WHERE " + where + " AND prob > ? " + searchOrder
	args = append(args, float64(params.Threshold()))
	if params.Bounded() && !params.OnlyBest() {
		stmt += " LIMIT ?"
		args = append(args, params.NumberOfResults())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errors.Wrap(db.ErrDatabaseClosed, "reader is closed")
	}

	rows, err := r.tx.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to run search")
	}
	defer rows.Close()

	records := []prediction.Record{}
	for rows.Next() {
		var rec prediction.Record
		if err := rows.Scan(&rec.Item, &rec.Classifier, &rec.Criterion, &rec.Class, &rec.Score); err != nil {
			return nil, errors.Wrap(err, "failed to scan record")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read search results")
	}

	if params.OnlyBest() {
		records = BestOf(records)
		if params.Bounded() && len(records) > params.NumberOfResults() {
			records = records[:params.NumberOfResults()]
		}
	}

	r.logger.Debugw("Search complete", "query", text, "params", params.String(), "count", len(records))
	return records, nil
}

func (r *sqlReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return errors.Wrap(r.tx.Rollback(), "failed to release reader")
}
