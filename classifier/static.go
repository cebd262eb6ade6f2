package classifier

import (
	"context"
	"os"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/classdb/errors"
	"github.com/teranos/classdb/prediction"
)

// Static answers from a fixed table of predictions per (criterion, item).
type Static struct {
	name string

	mu    sync.RWMutex
	table map[string]map[string][]Result
}

// NewStatic creates an empty static classifier.
func NewStatic(name string) *Static {
	return &Static{
		name:  name,
		table: make(map[string]map[string][]Result),
	}
}

func (s *Static) Name() string { return s.name }

// Set replaces the results returned for (criterion, item).
func (s *Static) Set(criterion, item string, results ...Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byItem, ok := s.table[criterion]
	if !ok {
		byItem = make(map[string][]Result)
		s.table[criterion] = byItem
	}
	byItem[item] = append([]Result(nil), results...)
}

// Predict appends one prediction of class for (criterion, item).
func (s *Static) Predict(criterion, item, class string, score float64) {
	id := prediction.Identifier{Classifier: s.name, Criterion: criterion, Class: class}

	s.mu.Lock()
	defer s.mu.Unlock()

	byItem, ok := s.table[criterion]
	if !ok {
		byItem = make(map[string][]Result)
		s.table[criterion] = byItem
	}
	byItem[item] = append(byItem[item], Result{PredictionURI: id.URI(), Score: score})
}

// Classify returns a copy of the stored results. Unknown pairs yield none.
func (s *Static) Classify(ctx context.Context, criterion, item string) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := s.table[criterion][item]
	return append([]Result(nil), results...), nil
}

// Fixture is the TOML layout of a static classifier file:
//
//	[[classifier]]
//	name = "convnet"
//
//	  [[classifier.prediction]]
//	  item = "file://dataset/1.dcm"
//	  criterion = "liver"
//	  class = "true"
//	  score = 0.9
type Fixture struct {
	Classifiers []FixtureClassifier `toml:"classifier"`
}

type FixtureClassifier struct {
	Name        string              `toml:"name"`
	Predictions []FixturePrediction `toml:"prediction"`
}

type FixturePrediction struct {
	Item      string  `toml:"item"`
	Criterion string  `toml:"criterion"`
	Class     string  `toml:"class"`
	Score     float64 `toml:"score"`
}

// ParseFixture decodes a fixture into static classifiers in file order.
func ParseFixture(data []byte) ([]*Static, error) {
	var f Fixture
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "failed to parse classifier fixture")
	}

	statics := make([]*Static, 0, len(f.Classifiers))
	for i, fc := range f.Classifiers {
		if fc.Name == "" {
			return nil, errors.NewInvalidRequestError("fixture classifier %d has no name", i)
		}
		s := NewStatic(fc.Name)
		for _, p := range fc.Predictions {
			s.Predict(p.Criterion, p.Item, p.Class, p.Score)
		}
		statics = append(statics, s)
	}
	return statics, nil
}

// LoadFixture reads and parses a fixture file.
func LoadFixture(path string) ([]*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithDetailf(errors.Wrap(err, "failed to read classifier fixture"), "path: %s", path)
	}
	statics, err := ParseFixture(data)
	if err != nil {
		return nil, errors.WithDetailf(err, "path: %s", path)
	}
	return statics, nil
}
