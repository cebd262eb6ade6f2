// Package provider answers classification queries for a hosting system:
// loosely typed parameters in, plain scored results out, never an error.
package provider

import (
	"context"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/classdb/logger"
	"github.com/teranos/classdb/query"
	"github.com/teranos/classdb/store"
)

// Name identifies this provider to the host.
const Name = "classdb"

// Parameter keys understood by Query.
const (
	ParamThreshold = "threshold"
	ParamNResults  = "nresults"
	ParamOnlyBest  = "onlybest"
)

// Result is one matching prediction. Extra["id"] holds its prediction URI.
type Result struct {
	URI   string            `json:"uri"`
	Score float64           `json:"score"`
	Extra map[string]string `json:"extra"`
}

// Searcher opens snapshots to search.
type Searcher interface {
	Reader(ctx context.Context) (store.Reader, error)
}

// Provider turns host queries into store searches.
type Provider struct {
	searcher Searcher
	defaults query.Params
	logger   *zap.SugaredLogger

	mu      sync.RWMutex
	enabled bool
}

// Option configures a Provider.
type Option func(*Provider)

// WithDefaults sets the parameters used when the caller gives none.
func WithDefaults(p query.Params) Option {
	return func(pr *Provider) { pr.defaults = p }
}

// New creates an enabled provider. Without WithDefaults, results are
// unbounded, unfiltered and reduced to the best per (item, criterion).
func New(s Searcher, opts ...Option) *Provider {
	defaults, _ := query.NewParams(query.Unbounded, 0, true)
	p := &Provider{
		searcher: s,
		defaults: defaults,
		logger:   logger.ComponentLogger("provider"),
		enabled:  true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string { return Name }

func (p *Provider) Enable() {
	p.mu.Lock()
	p.enabled = true
	p.mu.Unlock()
}

func (p *Provider) Disable() {
	p.mu.Lock()
	p.enabled = false
	p.mu.Unlock()
}

func (p *Provider) IsEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}

// Params merges raw parameters over the defaults. Malformed values are
// skipped with a warning.
func (p *Provider) Params(raw map[string]string) query.Params {
	b := query.BuilderFrom(p.defaults)

	if v, ok := raw[ParamThreshold]; ok {
		t, err := strconv.ParseFloat(v, 32)
		if err == nil && t >= 0 && t <= 1 {
			b.Threshold(float32(t))
		} else {
			p.logger.Warnw("Ignoring malformed parameter", "param", ParamThreshold, "value", v)
		}
	}
	if v, ok := raw[ParamNResults]; ok {
		n, err := strconv.Atoi(v)
		if err == nil && n >= query.Unbounded {
			b.NumberOfResults(n)
		} else {
			p.logger.Warnw("Ignoring malformed parameter", "param", ParamNResults, "value", v)
		}
	}
	if v, ok := raw[ParamOnlyBest]; ok {
		ob, err := strconv.ParseBool(v)
		if err == nil {
			b.OnlyBest(ob)
		} else {
			p.logger.Warnw("Ignoring malformed parameter", "param", ParamOnlyBest, "value", v)
		}
	}

	params, err := b.Build()
	if err != nil {
		// unreachable: every value was range-checked above
		return p.defaults
	}
	return params
}

// Query searches for text. Any failure yields an empty result and a warning.
func (p *Provider) Query(ctx context.Context, text string, raw map[string]string) []Result {
	results := []Result{}
	if !p.IsEnabled() {
		p.logger.Debugw("Provider disabled, ignoring query", logger.FieldQuery, text)
		return results
	}
	if p.searcher == nil {
		p.logger.Warnw("Classification database is not ready")
		return results
	}

	params := p.Params(raw)
	log := logger.FromContext(ctx, p.logger)
	log.Debugw("Classification query", logger.FieldQuery, text, logger.FieldParams, params.String())

	reader, err := p.searcher.Reader(ctx)
	if err != nil {
		log.Warnw("Classification query failed", logger.FieldQuery, text, logger.FieldError, err)
		return results
	}
	defer reader.Close()

	records, err := reader.Search(ctx, text, params)
	if err != nil {
		log.Warnw("Classification query failed", logger.FieldQuery, text, logger.FieldError, err)
		return results
	}

	for _, r := range records {
		results = append(results, Result{
			URI:   r.Item,
			Score: r.Score,
			Extra: map[string]string{"id": r.URI()},
		})
	}
	return results
}
