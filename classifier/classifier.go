// Package classifier defines the collaborators that turn an item into
// scored predictions, and the ways classdb finds them by name.
package classifier

import (
	"context"
	"math"
	"sort"
)

// Result is one scored prediction. PredictionURI has the form
// class://<classifier>/<criterion>/<class>.
type Result struct {
	PredictionURI string
	Score         float64
}

// Classifier predicts classes of an item for one criterion at a time.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, criterion, item string) ([]Result, error)
}

// Lookup finds a classifier by name.
type Lookup interface {
	Get(name string) (Classifier, error)
}

// Resolver is the slow path behind a Cache.
type Resolver interface {
	Resolve(name string) (Classifier, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(name string) (Classifier, error)

func (f ResolverFunc) Resolve(name string) (Classifier, error) { return f(name) }

// sortResults orders results by descending score, then URI. NaN sorts last.
func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		ni, nj := math.IsNaN(results[i].Score), math.IsNaN(results[j].Score)
		if ni != nj {
			return nj
		}
		if !ni && results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].PredictionURI < results[j].PredictionURI
	})
}
