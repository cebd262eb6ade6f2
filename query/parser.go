package query

import (
	"net/url"
	"strings"
)

// Parse parses query text.
//
// Clauses written side by side combine with OR; AND binds tighter than OR.
// A field applied to a parenthesized group distributes over it:
// liver:(false OR true) is liver:false OR liver:true.
// Errors are *ParseError values marked as errors.ErrInvalidRequest.
func Parse(text string) (Node, error) {
	tokens, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{input: text, tokens: tokens}

	if p.peek().kind == tokEOF {
		return nil, newParseError(text, p.peek(), "empty query", "use * to match everything")
	}

	node, err := p.parseOr("")
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		if tok.kind == tokRParen {
			return nil, newParseError(text, tok, "unbalanced parenthesis", "remove the extra ')'")
		}
		return nil, newParseError(text, tok, "unexpected token")
	}
	return node, nil
}

type parser struct {
	input  string
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func startsClause(k tokenKind) bool {
	switch k {
	case tokTerm, tokPhrase, tokLParen, tokNot:
		return true
	}
	return false
}

// parseOr parses a disjunction. field, when set, is the field a
// parenthesized value group distributes over.
func (p *parser) parseOr(field string) (Node, error) {
	first, err := p.parseAnd(field)
	if err != nil {
		return nil, err
	}
	clauses := []Node{first}

	for {
		tok := p.peek()
		switch {
		case tok.kind == tokOr:
			p.next()
		case startsClause(tok.kind):
		default:
			if len(clauses) == 1 {
				return clauses[0], nil
			}
			return Or{Clauses: clauses}, nil
		}

		clause, err := p.parseAnd(field)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
}

func (p *parser) parseAnd(field string) (Node, error) {
	first, err := p.parseUnary(field)
	if err != nil {
		return nil, err
	}
	clauses := []Node{first}

	for p.peek().kind == tokAnd {
		p.next()
		clause, err := p.parseUnary(field)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}

	if len(clauses) == 1 {
		return clauses[0], nil
	}
	return And{Clauses: clauses}, nil
}

func (p *parser) parseUnary(field string) (Node, error) {
	if p.peek().kind == tokNot {
		p.next()
		clause, err := p.parseUnary(field)
		if err != nil {
			return nil, err
		}
		return Not{Clause: clause}, nil
	}
	return p.parsePrimary(field)
}

func (p *parser) parsePrimary(field string) (Node, error) {
	tok := p.peek()

	switch tok.kind {
	case tokLParen:
		p.next()
		return p.parseGroup(field, tok)

	case tokPhrase:
		p.next()
		v := Value{Text: tok.text, Phrase: true}
		if field != "" {
			return Field{Name: field, Value: v}, nil
		}
		return Term{Value: v}, nil

	case tokTerm:
		p.next()
		if p.peek().kind == tokColon {
			if field != "" {
				return nil, newParseError(p.input, tok, "field "+fieldName(tok.text)+" nested inside field "+field,
					"move the field out of the group")
			}
			colon := p.next()
			return p.parseFieldValue(fieldName(tok.text), tok, colon)
		}
		v := Value{Text: tok.text, Prefix: tok.prefix}
		if field != "" {
			return Field{Name: field, Value: v}, nil
		}
		if v.Any() {
			return MatchAll{}, nil
		}
		return Term{Value: v}, nil

	case tokColon:
		return nil, newParseError(p.input, tok, "missing field name before ':'")

	case tokEOF:
		return nil, newParseError(p.input, tok, "query ends where a term was expected", "remove the trailing operator")

	default:
		return nil, newParseError(p.input, tok, "expected a term")
	}
}

func (p *parser) parseGroup(field string, open token) (Node, error) {
	node, err := p.parseOr(field)
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokRParen {
		return nil, newParseError(p.input, open, "unbalanced parenthesis", "close the group with ')'")
	}
	p.next()
	return node, nil
}

func (p *parser) parseFieldValue(name string, nameTok, colon token) (Node, error) {
	if name == "" {
		return nil, newParseError(p.input, nameTok, "empty field name")
	}

	tok := p.peek()
	switch tok.kind {
	case tokLParen:
		p.next()
		return p.parseGroup(name, tok)
	case tokTerm:
		p.next()
		return Field{Name: name, Value: Value{Text: tok.text, Prefix: tok.prefix}}, nil
	case tokPhrase:
		p.next()
		return Field{Name: name, Value: Value{Text: tok.text, Phrase: true}}, nil
	default:
		return nil, newParseError(p.input, colon, "missing value for field "+name,
			name+":*", name+":true")
	}
}

// fieldName URL-unescapes a field so criteria with reserved characters can
// be written escaped. Malformed escapes are kept as written.
func fieldName(text string) string {
	if !strings.Contains(text, "%") {
		return text
	}
	if unescaped, err := url.PathUnescape(text); err == nil {
		return unescaped
	}
	return text
}
