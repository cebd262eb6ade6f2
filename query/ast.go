package query

import (
	"strconv"
	"strings"
)

// Reserved field names with exact-match semantics on one stored column.
const (
	FieldURI        = "uri"
	FieldClassifier = "classifier"
	FieldCriterion  = "criterion"
	FieldPrediction = "prediction"
)

// Node is a parsed query expression.
type Node interface {
	String() string
	node()
}

// Value is the right side of a field clause, or a bare term.
type Value struct {
	// Text is the unescaped value; for a prefix match, the part before '*'.
	Text string
	// Phrase is set for double-quoted values.
	Phrase bool
	// Prefix is set when an unquoted value ended in an unescaped '*'.
	// A lone '*' is a Prefix with empty Text and matches anything.
	Prefix bool
}

// Any reports whether v matches every value.
func (v Value) Any() bool {
	return v.Prefix && v.Text == ""
}

func (v Value) String() string {
	switch {
	case v.Phrase:
		return strconv.Quote(v.Text)
	case v.Prefix:
		return v.Text + "*"
	default:
		return v.Text
	}
}

// Or matches when any clause matches.
type Or struct{ Clauses []Node }

// And matches when every clause matches.
type And struct{ Clauses []Node }

// Not matches when Clause does not.
type Not struct{ Clause Node }

// Field is a field:value clause.
type Field struct {
	Name  string
	Value Value
}

// Term is a bare term or phrase without a field.
type Term struct{ Value Value }

// MatchAll is the bare '*' query.
type MatchAll struct{}

func (Or) node()       {}
func (And) node()      {}
func (Not) node()      {}
func (Field) node()    {}
func (Term) node()     {}
func (MatchAll) node() {}

func (n Or) String() string  { return join(n.Clauses, " OR ") }
func (n And) String() string { return join(n.Clauses, " AND ") }
func (n Not) String() string { return "NOT " + n.Clause.String() }

func (n Field) String() string {
	return n.Name + ":" + n.Value.String()
}

func (n Term) String() string   { return n.Value.String() }
func (MatchAll) String() string { return "*" }

func join(nodes []Node, sep string) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// Endpoint splits a "<classifier>/<criterion>" field name at its last slash.
// ok is false when name has no slash or either side is empty.
func Endpoint(name string) (classifier, criterion string, ok bool) {
	i := strings.LastIndexByte(name, '/')
	if i <= 0 || i == len(name)-1 {
		return "", "", false
	}
	return name[:i], name[i+1:], true
}

// IsReserved reports whether name is one of the exact-match column fields.
func IsReserved(name string) bool {
	switch name {
	case FieldURI, FieldClassifier, FieldCriterion, FieldPrediction:
		return true
	}
	return false
}
