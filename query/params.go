// Package query holds the options and the query language used to search
// the classification store.
package query

import (
	"fmt"
	"math"

	"github.com/teranos/classdb/errors"
)

// Unbounded as NumberOfResults lifts the result cap.
const Unbounded = -1

// Params controls one search. It is immutable; build it with NewParams or
// a Builder so its ranges are always valid.
type Params struct {
	numberOfResults int
	threshold       float32
	onlyBest        bool
}

// NewParams validates numberOfResults >= -1 and threshold in [0,1].
func NewParams(numberOfResults int, threshold float32, onlyBest bool) (Params, error) {
	if numberOfResults < Unbounded {
		return Params{}, errors.NewInvalidRequestError("number of results %d must be >= -1", numberOfResults)
	}
	if math.IsNaN(float64(threshold)) || threshold < 0 || threshold > 1 {
		return Params{}, errors.NewInvalidRequestError("threshold %v must be within [0,1]", threshold)
	}
	return Params{numberOfResults: numberOfResults, threshold: threshold, onlyBest: onlyBest}, nil
}

// Default returns unbounded results, threshold 0, best-only disabled.
func Default() Params {
	return Params{numberOfResults: Unbounded}
}

// NumberOfResults is the result cap, or Unbounded.
func (p Params) NumberOfResults() int { return p.numberOfResults }

// Threshold is the exclusive lower bound on scores.
func (p Params) Threshold() float32 { return p.threshold }

// OnlyBest keeps one record per (item, criterion).
func (p Params) OnlyBest() bool { return p.onlyBest }

// Bounded reports whether a numeric cap applies.
func (p Params) Bounded() bool { return p.numberOfResults != Unbounded }

func (p Params) String() string {
	return fmt.Sprintf("Params{nresults=%d, threshold=%v, onlyBest=%t}", p.numberOfResults, p.threshold, p.onlyBest)
}

// Builder collects options and validates them once in Build.
type Builder struct {
	numberOfResults int
	threshold       float32
	onlyBest        bool
}

// NewBuilder starts from the defaults of Default.
func NewBuilder() *Builder {
	return &Builder{numberOfResults: Unbounded}
}

// BuilderFrom starts from the options of p.
func BuilderFrom(p Params) *Builder {
	return &Builder{numberOfResults: p.numberOfResults, threshold: p.threshold, onlyBest: p.onlyBest}
}

func (b *Builder) NumberOfResults(n int) *Builder {
	b.numberOfResults = n
	return b
}

func (b *Builder) Threshold(t float32) *Builder {
	b.threshold = t
	return b
}

func (b *Builder) OnlyBest(onlyBest bool) *Builder {
	b.onlyBest = onlyBest
	return b
}

// Build validates the collected options.
func (b *Builder) Build() (Params, error) {
	return NewParams(b.numberOfResults, b.threshold, b.onlyBest)
}
