// Package indexer runs items through the configured classifier endpoints and
// stores the resulting predictions.
package indexer

import (
	"context"
	"iter"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/classdb/classifier"
	"github.com/teranos/classdb/endpoint"
	"github.com/teranos/classdb/errors"
	"github.com/teranos/classdb/logger"
	"github.com/teranos/classdb/store"
)

// Storage is the part of the store the indexer writes to.
type Storage interface {
	Writer(ctx context.Context) (store.Writer, error)
	Remove(ctx context.Context, item string) (bool, error)
}

// Indexer classifies items and writes their predictions.
type Indexer struct {
	storage Storage
	lookup  classifier.Lookup
	emitter ProgressEmitter
	logger  *zap.SugaredLogger

	mu               sync.RWMutex
	enabled          bool
	estimateProgress bool
	// nil until Configure runs
	endpoints []endpoint.Descriptor
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithEmitter sends task progress to e.
func WithEmitter(e ProgressEmitter) Option {
	return func(ix *Indexer) { ix.emitter = e }
}

// WithEstimateProgress collects batch items up front so progress is a fraction.
func WithEstimateProgress(on bool) Option {
	return func(ix *Indexer) { ix.estimateProgress = on }
}

// New creates an enabled indexer. It indexes nothing until Configure is called.
func New(storage Storage, lookup classifier.Lookup, opts ...Option) *Indexer {
	ix := &Indexer{
		storage: storage,
		lookup:  lookup,
		emitter: nopEmitter{},
		logger:  logger.ComponentLogger("indexer"),
		enabled: true,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Configure installs the endpoints in dependency order. On a cycle it logs a
// warning, installs no endpoints and returns the error.
func (ix *Indexer) Configure(descriptors []endpoint.Descriptor) error {
	sorted, err := endpoint.SortByDependencies(descriptors)
	if err != nil {
		ix.logger.Warnw("Invalid classifier endpoint configuration, nothing will be indexed",
			logger.FieldError, err)
		sorted = []endpoint.Descriptor{}
	}

	ix.mu.Lock()
	ix.endpoints = sorted
	ix.mu.Unlock()

	if err == nil {
		order := make([]string, len(sorted))
		for i, d := range sorted {
			order[i] = d.String()
		}
		ix.logger.Debugw("Classifier endpoints configured", logger.FieldEndpoints, order)
	}
	return err
}

// Endpoints returns the installed endpoints in execution order.
func (ix *Indexer) Endpoints() []endpoint.Descriptor {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return slices.Clone(ix.endpoints)
}

// SetEstimateProgress switches progress estimation for later batches.
func (ix *Indexer) SetEstimateProgress(on bool) {
	ix.mu.Lock()
	ix.estimateProgress = on
	ix.mu.Unlock()
}

func (ix *Indexer) Enable() {
	ix.mu.Lock()
	ix.enabled = true
	ix.mu.Unlock()
}

func (ix *Indexer) Disable() {
	ix.mu.Lock()
	ix.enabled = false
	ix.mu.Unlock()
}

func (ix *Indexer) IsEnabled() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.enabled
}

// snapshot returns what a task needs, or ok=false if it should do nothing.
func (ix *Indexer) snapshot() (endpoints []endpoint.Descriptor, estimate bool, ok bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if !ix.enabled {
		return nil, false, false
	}
	if ix.endpoints == nil || ix.storage == nil || ix.lookup == nil {
		ix.logger.Warnw("Indexer is not ready")
		return nil, false, false
	}
	return ix.endpoints, ix.estimateProgress, true
}

// Index classifies and stores one item in its own write transaction.
func (ix *Indexer) Index(ctx context.Context, item string) Report {
	task := newTask()
	ix.run(ctx, task, func(yield func(string) bool) { yield(item) }, false)
	return task.Wait()
}

// IndexBatch indexes items in the background through one shared writer.
func (ix *Indexer) IndexBatch(ctx context.Context, items iter.Seq[string]) *Task {
	task := newTask()
	go ix.run(ctx, task, items, true)
	return task
}

func (ix *Indexer) run(ctx context.Context, task *Task, items iter.Seq[string], batch bool) {
	endpoints, estimate, ok := ix.snapshot()
	if !ok {
		task.finish(Report{})
		return
	}

	ctx = logger.WithJobID(ctx, task.JobID)
	log := logger.FromContext(ctx, ix.logger)
	start := time.Now()

	var report Report
	defer func() {
		report.Elapsed = time.Since(start)
		taskDuration.Observe(report.Elapsed.Seconds())
		if batch {
			log.Infow("Batch indexed",
				logger.FieldIndexed, report.Indexed,
				logger.FieldErrors, report.Errors,
				logger.FieldDurationMS, report.ElapsedMs())
		}
		ix.emitter.EmitComplete(report.summary())
		task.finish(report)
	}()

	var all []string
	if batch && estimate {
		all = slices.Collect(items)
		items = slices.Values(all)
		task.setProgress(0)
	} else if batch {
		task.setProgress(Indeterminate)
	}

	ix.emitter.EmitStage("open", "Opening writer")
	w, err := ix.storage.Writer(ctx)
	if errors.IsServiceUnavailableError(err) {
		log.Warnw("Classification database is not ready", logger.FieldError, err)
		return
	}
	if err != nil {
		log.Warnw("Failed to open writer", logger.FieldError, err)
		ix.emitter.EmitError("open", err)
		report.Errors = 1
		return
	}

	ix.emitter.EmitStage("index", "Classifying items")
	done := 0
	for item := range items {
		if ctx.Err() != nil {
			log.Warnw("Indexing canceled", logger.FieldCount, done, logger.FieldError, ctx.Err())
			ix.emitter.EmitError("index", ctx.Err())
			break
		}

		log.Infow("Classifying and indexing", logger.FieldItem, item)
		report = report.merge(indexItem(ctx, log, item, ix.lookup, endpoints, w))
		itemsIndexed.Inc()
		done++

		if all != nil {
			p := float32(done) / float32(len(all))
			task.setProgress(p)
			ix.emitter.EmitProgress(p, map[string]interface{}{logger.FieldItem: item})
		} else if batch {
			ix.emitter.EmitProgress(Indeterminate, map[string]interface{}{logger.FieldItem: item})
		}
	}

	ix.emitter.EmitStage("commit", "Committing writes")
	if err := w.Close(); err != nil {
		log.Warnw("Failed to commit writes", logger.FieldError, err)
		ix.emitter.EmitError("commit", err)
		// nothing reached the store
		report.Indexed = 0
		report.Errors++
	}
}

// Unindex removes every record of item and reports whether any existed.
func (ix *Indexer) Unindex(ctx context.Context, item string) bool {
	if ix.storage == nil {
		ix.logger.Warnw("Indexer is not ready")
		return false
	}
	removed, err := ix.storage.Remove(ctx, item)
	if err != nil {
		ix.logger.Warnw("Failed to unindex", logger.FieldItem, item, logger.FieldError, err)
		return false
	}
	return removed
}
