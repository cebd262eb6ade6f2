package prediction

import (
	"math"
	"strings"
	"unicode"

	"github.com/teranos/classdb/errors"
)

// Predicted classes with structural, not free-text, query semantics.
const (
	ClassTrue  = "true"
	ClassFalse = "false"
)

// Record is one stored classification of Item.
type Record struct {
	Item string
	Identifier
	Score float64
}

// NewRecord builds a record, rejecting scores outside [0,1].
func NewRecord(item string, id Identifier, score float64) (Record, error) {
	if item == "" {
		return Record{}, errors.NewInvalidRequestError("record for %s has no item", id)
	}
	if !ValidScore(score) {
		return Record{}, errors.NewInvalidRequestError("score %v for %s is outside [0,1]", score, id)
	}
	return Record{Item: item, Identifier: id, Score: score}, nil
}

// ValidScore reports whether score lies in [0,1]. NaN is not valid.
func ValidScore(score float64) bool {
	return score >= 0 && score <= 1
}

// Key is the upsert key: at most one record exists per key.
func (r Record) Key() string {
	return r.Item + "\x00" + r.Identifier.URI()
}

// EndpointField is the "<classifier>/<criterion>" name of the record's endpoint.
func (r Record) EndpointField() string {
	return r.Classifier + "/" + r.Criterion
}

// Contents is the free-text representation of r.
// Boolean predictions are found through criterion:true / criterion:false,
// so "false" records leave the criterion out and neither carries the class.
func (r Record) Contents() string {
	parts := []string{r.Item, r.Classifier}
	switch r.Class {
	case ClassTrue:
		parts = append(parts, r.Criterion, r.EndpointField())
	case ClassFalse:
	default:
		parts = append(parts, r.Criterion, r.EndpointField(), r.Class)
	}
	return strings.Join(parts, " ")
}

// Terms returns the analyzed tokens of Contents.
func (r Record) Terms() []string {
	return Analyze(r.Contents())
}

// Analyze splits text into lowercase runs of letters. Everything else,
// digits included, separates tokens.
func Analyze(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(c rune) bool {
		return !unicode.IsLetter(c)
	})
}

// SortableScore maps a float64 to an int64 with the same ordering, over the
// whole float domain, so scores can be ranked as integers.
func SortableScore(score float64) int64 {
	bits := int64(math.Float64bits(score))
	return bits ^ ((bits >> 63) & math.MaxInt64)
}

// ScoreFromSortable inverts SortableScore.
func ScoreFromSortable(sortable int64) float64 {
	bits := sortable ^ ((sortable >> 63) & math.MaxInt64)
	return math.Float64frombits(uint64(bits))
}
