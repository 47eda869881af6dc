package sailfish

import (
	"strings"
	"unicode/utf8"
)

// DefaultDelimiter is the delimiter character used when a Config doesn't
// specify one.
const DefaultDelimiter = '%'

// horizontalWhitespace lists the characters trimmed from the trailing
// edge of a code/buffered-code token body, and skipped after the flag
// byte before the body starts.
const horizontalWhitespace = " \t\n\v\f\r"

// ParseStream is a stateful cursor over a template's source. It produces
// tokens lazily and is consumed as it goes; it cannot be restarted.
//
// Grounded on pongo2's lexer struct (lexer.go): next/backup/peek/
// accept/acceptRun cursor primitives, generalized from Django's fixed
// {{ }}/{% %}/{# #} delimiters to a single configurable delimiter
// character.
type ParseStream struct {
	name      string
	source    string
	delim     rune
	openDelim string
	closeDelim string
	pos       int
}

// NewParseStream builds a cursor over source using the open/close pair
// derived from delim ("<D" / "D>").
func NewParseStream(name, source string, delim rune) *ParseStream {
	if delim == 0 {
		delim = DefaultDelimiter
	}
	return &ParseStream{
		name:       name,
		source:     source,
		delim:      delim,
		openDelim:  "<" + string(delim),
		closeDelim: string(delim) + ">",
	}
}

// Offset returns the cursor's current byte offset into the source.
func (p *ParseStream) Offset() int {
	return p.pos
}

// Next produces the next token, or (nil, nil) when the source is
// exhausted. Errors short-circuit: callers must stop consuming on the
// first non-nil error.
func (p *ParseStream) Next() (*Token, error) {
	if p.pos >= len(p.source) {
		return nil, nil
	}

	rest := p.source[p.pos:]
	if strings.HasPrefix(rest, p.openDelim) {
		afterOpen := rest[len(p.openDelim):]
		if strings.HasPrefix(afterOpen, string(p.delim)) {
			// <DD escapes to a literal "<D" text token.
			tok := &Token{Content: p.openDelim, Offset: p.pos, Kind: KindText}
			p.pos += len(p.openDelim) + utf8.RuneLen(p.delim)
			return tok, nil
		}
		return p.tokenizeCode()
	}

	return p.tokenizeText()
}

// ToSlice drains the stream into a slice, stopping at the first error.
func (p *ParseStream) ToSlice() ([]Token, error) {
	var out []Token
	for {
		tok, err := p.Next()
		if err != nil {
			return nil, err
		}
		if tok == nil {
			return out, nil
		}
		out = append(out, *tok)
	}
}

func (p *ParseStream) tokenizeText() (*Token, error) {
	offset := p.pos
	end := strings.Index(p.source[p.pos:], p.openDelim)
	if end < 0 {
		end = len(p.source) - p.pos
	}
	content := p.source[p.pos : p.pos+end]
	p.pos += end
	return &Token{Content: content, Offset: offset, Kind: KindText}, nil
}

func (p *ParseStream) tokenizeCode() (*Token, error) {
	blockStart := p.pos
	start := p.pos + len(p.openDelim)

	kind := KindCode
	escape := false
	if start < len(p.source) {
		switch p.source[start] {
		case '#':
			kind = KindComment
			start++
		case '=':
			kind = KindBufferedCode
			escape = true
			start++
		case '-':
			kind = KindBufferedCode
			escape = false
			start++
		case '+':
			kind = KindNestedTemplate
			start++
		}
	}

	for start < len(p.source) && strings.IndexByte(horizontalWhitespace, p.source[start]) >= 0 {
		start++
	}

	if kind == KindComment {
		rel := strings.Index(p.source[start:], p.closeDelim)
		if rel < 0 {
			return nil, ParseErrorAt("unterminated comment block", blockStart)
		}
		body := strings.TrimRight(p.source[start:start+rel], horizontalWhitespace)
		p.pos = start + rel + len(p.closeDelim)
		return &Token{Content: body, Offset: start, Kind: KindComment}, nil
	}

	rel, ok := findBlockEnd(p.source[start:], p.closeDelim)
	if !ok {
		return nil, ParseErrorAt("unterminated code block", blockStart)
	}
	body := strings.TrimRight(p.source[start:start+rel], horizontalWhitespace)
	p.pos = start + rel + len(p.closeDelim)
	return &Token{Content: body, Offset: start, Kind: kind, Escape: escape}, nil
}

// findBlockEnd scans haystack for the first occurrence of closeDelim that
// lies outside any Go string literal, raw string literal, rune literal,
// or line/block comment.
func findBlockEnd(haystack, closeDelim string) (int, bool) {
	i := 0
	for i < len(haystack) {
		if strings.HasPrefix(haystack[i:], closeDelim) {
			return i, true
		}
		switch haystack[i] {
		case '/':
			if i+1 < len(haystack) && haystack[i+1] == '/' {
				if nl := strings.IndexByte(haystack[i:], '\n'); nl >= 0 {
					i += nl + 1
				} else {
					i = len(haystack)
				}
				continue
			}
			if i+1 < len(haystack) && haystack[i+1] == '*' {
				if end := strings.Index(haystack[i+2:], "*/"); end >= 0 {
					i += 2 + end + 2
				} else {
					i = len(haystack)
				}
				continue
			}
			i++
		case '"':
			end, ok := skipQuoted(haystack[i:], '"')
			if !ok {
				return 0, false
			}
			i += end
		case '\'':
			end, ok := skipQuoted(haystack[i:], '\'')
			if !ok {
				return 0, false
			}
			i += end
		case '`':
			if end := strings.IndexByte(haystack[i+1:], '`'); end >= 0 {
				i += 1 + end + 1
			} else {
				return 0, false
			}
		default:
			i++
		}
	}
	return 0, false
}

// skipQuoted scans a double-quoted string or rune literal starting at
// haystack[0] (which must be quote), honoring backslash escapes. Returns
// the byte index just past the closing quote.
func skipQuoted(haystack string, quote byte) (int, bool) {
	i := 1
	for i < len(haystack) {
		switch haystack[i] {
		case '\\':
			i += 2
		case quote:
			return i + 1, true
		default:
			i++
		}
	}
	return 0, false
}

// Tokenize is the convenience entry point: tokenize a whole template
// source with the given delimiter.
func Tokenize(name, source string, delim rune) ([]Token, error) {
	return NewParseStream(name, source, delim).ToSlice()
}
