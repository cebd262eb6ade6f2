package query

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/classdb/errors"
)

// ParseError describes why query text could not be parsed.
type ParseError struct {
	Query       string   // Full query text
	Message     string   // Human-readable message
	Position    int      // Byte offset of the offending token, -1 if unknown
	Token       string   // Offending token text (optional)
	Suggestions []string // Possible fixes
}

// Error implements error interface
func (e *ParseError) Error() string {
	msg := e.Message
	if e.Token != "" {
		msg += fmt.Sprintf(" near %q", e.Token)
	}
	if e.Position >= 0 {
		msg += fmt.Sprintf(" (at offset %d)", e.Position)
	}
	if len(e.Suggestions) > 0 {
		msg += ". Suggestions: " + strings.Join(e.Suggestions, ", ")
	}
	return msg
}

// FormatTerminal renders the error for a terminal, pointing at the offset.
func (e *ParseError) FormatTerminal() string {
	var b strings.Builder
	b.WriteString(pterm.Red(e.Message))
	if e.Position >= 0 && e.Position <= len(e.Query) {
		b.WriteString("\n\n  ")
		b.WriteString(e.Query)
		b.WriteString("\n  ")
		b.WriteString(strings.Repeat(" ", e.Position))
		b.WriteString(pterm.Yellow("^"))
	}
	if len(e.Suggestions) > 0 {
		b.WriteString("\n\n")
		b.WriteString(pterm.Green("Suggestions:"))
		for _, s := range e.Suggestions {
			b.WriteString("\n  - ")
			b.WriteString(s)
		}
	}
	return b.String()
}

// newParseError builds a ParseError marked as an invalid request.
func newParseError(query string, tok token, message string, suggestions ...string) error {
	pe := &ParseError{
		Query:       query,
		Message:     message,
		Position:    tok.pos,
		Token:       tok.raw,
		Suggestions: suggestions,
	}
	return errors.Mark(pe, errors.ErrInvalidRequest)
}
