package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokTerm
	tokPhrase
	tokColon
	tokLParen
	tokRParen
	tokAnd
	tokOr
	tokNot
)

type token struct {
	kind   tokenKind
	text   string // unescaped
	raw    string // as written
	pos    int
	prefix bool // unquoted term ending in an unescaped '*'
}

// lex splits query text into tokens.
// Right after a ':' the next term is a value and keeps any further colons,
// so uri:file://dataset/1.dcm reads as one field clause.
func lex(input string) ([]token, error) {
	var tokens []token
	valueMode := false
	i := 0

	for {
		for i < len(input) {
			r, size := utf8.DecodeRuneInString(input[i:])
			if !unicode.IsSpace(r) {
				break
			}
			i += size
			valueMode = false
		}
		if i >= len(input) {
			tokens = append(tokens, token{kind: tokEOF, pos: i})
			return tokens, nil
		}

		start := i
		c := input[i]
		switch {
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, raw: "(", pos: start})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, raw: ")", pos: start})
			i++
		case c == ':':
			tokens = append(tokens, token{kind: tokColon, raw: ":", pos: start})
			i++
			valueMode = true
			continue
		case c == '"':
			text, end, ok := readPhrase(input, i)
			if !ok {
				return nil, newParseError(input, token{raw: input[start:], pos: start},
					"unterminated quoted phrase", `close the phrase with '"'`)
			}
			tokens = append(tokens, token{kind: tokPhrase, text: text, raw: input[start:end], pos: start})
			i = end
		case strings.HasPrefix(input[i:], "&&"):
			tokens = append(tokens, token{kind: tokAnd, raw: "&&", pos: start})
			i += 2
		case strings.HasPrefix(input[i:], "||"):
			tokens = append(tokens, token{kind: tokOr, raw: "||", pos: start})
			i += 2
		case (c == '-' || c == '!') && !valueMode && i+1 < len(input) && !isSpaceByte(input[i+1]):
			tokens = append(tokens, token{kind: tokNot, raw: string(c), pos: start})
			i++
		default:
			tok, end := readTerm(input, i, valueMode)
			i = end
			switch {
			case !valueMode && tok.raw == "OR":
				tok.kind = tokOr
			case !valueMode && tok.raw == "AND":
				tok.kind = tokAnd
			case !valueMode && tok.raw == "NOT":
				tok.kind = tokNot
			}
			tokens = append(tokens, tok)
		}
		valueMode = false
	}
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// readPhrase reads a double-quoted phrase starting at input[i] == '"'.
func readPhrase(input string, i int) (text string, end int, ok bool) {
	var b strings.Builder
	for j := i + 1; j < len(input); j++ {
		switch input[j] {
		case '\\':
			if j+1 < len(input) {
				j++
				b.WriteByte(input[j])
			}
		case '"':
			return b.String(), j + 1, true
		default:
			b.WriteByte(input[j])
		}
	}
	return "", len(input), false
}

// readTerm reads an unquoted term. Outside value mode an unescaped ':' ends it.
func readTerm(input string, i int, valueMode bool) (token, int) {
	start := i
	var b strings.Builder
	trailingStar := false

	for i < len(input) {
		c := input[i]
		if isSpaceByte(c) || c == '(' || c == ')' || c == '"' || (c == ':' && !valueMode) {
			break
		}
		if c == '\\' && i+1 < len(input) {
			r, size := utf8.DecodeRuneInString(input[i+1:])
			b.WriteRune(r)
			i += 1 + size
			trailingStar = false
			continue
		}
		trailingStar = c == '*'
		b.WriteByte(c)
		i++
	}

	text := b.String()
	tok := token{kind: tokTerm, text: text, raw: input[start:i], pos: start}
	if trailingStar {
		tok.prefix = true
		tok.text = strings.TrimSuffix(text, "*")
	}
	return tok, i
}
