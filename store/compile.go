package store

import (
	"strings"
	"unicode/utf8"

	"github.com/teranos/classdb/prediction"
	"github.com/teranos/classdb/query"
)

// whereBuilder turns a parsed query into a SQL condition and its arguments.
type whereBuilder struct {
	args []interface{}
}

func compile(node query.Node) (string, []interface{}) {
	wb := &whereBuilder{}
	return wb.build(node), wb.args
}

func (wb *whereBuilder) arg(v interface{}) string {
	wb.args = append(wb.args, v)
	return "?"
}

func (wb *whereBuilder) build(node query.Node) string {
	switch n := node.(type) {
	case query.MatchAll:
		return "1=1"
	case query.Or:
		return wb.join(n.Clauses, " OR ")
	case query.And:
		return wb.join(n.Clauses, " AND ")
	case query.Not:
		return "NOT (" + wb.build(n.Clause) + ")"
	case query.Field:
		return wb.field(n)
	case query.Term:
		return wb.term(n.Value)
	default:
		// unreachable for nodes produced by query.Parse
		return "1=0"
	}
}

func (wb *whereBuilder) join(nodes []query.Node, sep string) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = wb.build(n)
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// match compares one column against a field value.
func (wb *whereBuilder) match(column string, v query.Value) string {
	switch {
	case v.Any():
		return "1=1"
	case v.Prefix:
		// substr keeps the comparison case-sensitive, unlike LIKE
		n := wb.arg(utf8.RuneCountInString(v.Text))
		return "substr(" + column + ", 1, " + n + ") = " + wb.arg(v.Text)
	default:
		return column + " = " + wb.arg(v.Text)
	}
}

func (wb *whereBuilder) field(f query.Field) string {
	switch f.Name {
	case query.FieldURI:
		return wb.match("item", f.Value)
	case query.FieldClassifier:
		return wb.match("classifier", f.Value)
	case query.FieldCriterion:
		return wb.match("criterion", f.Value)
	case query.FieldPrediction:
		return wb.match("prediction", f.Value)
	}

	if classifier, criterion, ok := query.Endpoint(f.Name); ok {
		return "(classifier = " + wb.arg(classifier) +
			" AND criterion = " + wb.arg(criterion) +
			" AND " + wb.match("prediction", f.Value) + ")"
	}
	return "(criterion = " + wb.arg(f.Name) + " AND " + wb.match("prediction", f.Value) + ")"
}

// term matches a bare term either as "<criterion>:true" or as free text.
func (wb *whereBuilder) term(v query.Value) string {
	structural := "(" + wb.match("criterion", query.Value{Text: v.Text, Prefix: v.Prefix}) +
		" AND prediction = " + wb.arg(prediction.ClassTrue) + ")"

	tokens := prediction.Analyze(v.Text)
	if len(tokens) == 0 {
		return structural
	}
	return "(" + structural + " OR " + wb.freeText(tokens, v.Prefix) + ")"
}

// freeText matches a run of consecutive tokens in the terms column.
// With prefix set, the last token only needs to start the stored token.
func (wb *whereBuilder) freeText(tokens []string, prefix bool) string {
	pattern := "% " + escapeLikePattern(strings.Join(tokens, " "))
	if prefix {
		pattern += "%"
	} else {
		pattern += " %"
	}
	return "terms LIKE " + wb.arg(pattern) + ` ESCAPE '\'`
}

// escapeLikePattern escapes special characters in LIKE patterns for SQL ESCAPE clause
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
