package sailfish

import (
	"strconv"
	"strings"
)

// Translator turns a token stream into a CompiledBlock: Go source text
// plus the SourceMap recording which spans were copied verbatim from the
// template. Grounded on original_source/sailfish-compiler/src/translator.rs's
// SourceBuilder: one pass over the tokens, one emission function per
// Kind, a running byte offset doubling as the next SourceMap entry's
// "new" position.
//
// Unlike the source this mirrors, the assembled text is handed to go/ast
// via CompiledBlock.Parse rather than syn::parse_str -- see ast.go.
type Translator struct {
	// Escape is the compile-time default for <%= %> tokens (Config.Escape).
	// <%- %> tokens are always raw regardless of this setting.
	Escape bool
}

// NewTranslator builds a Translator using escape as the compile-time
// default for buffered-code escaping.
func NewTranslator(escape bool) *Translator {
	return &Translator{Escape: escape}
}

// Translate assembles tokens into a CompiledBlock. Consecutive Text
// tokens (with any interleaved, now-discarded Comment tokens) are
// coalesced into a single RenderText call, mirroring the source
// compiler's literal-coalescing optimization happening at emission time
// rather than as a later AST pass.
func (t *Translator) Translate(tokens []Token) (*CompiledBlock, error) {
	var b strings.Builder
	sm := &SourceMap{}
	b.WriteString("{\n")

	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		switch tok.Kind {
		case KindCode:
			t.writeCode(&b, sm, tok)
			i++

		case KindComment:
			i++

		case KindBufferedCode:
			t.writeBufferedCode(&b, sm, tok, false)
			i++

		case KindNestedTemplate:
			t.writeBufferedCode(&b, sm, tok, true)
			i++

		case KindText:
			offset := tok.Offset
			var lit strings.Builder
			lit.WriteString(tok.Content)
			j := i + 1
			for j < len(tokens) && (tokens[j].Kind == KindText || tokens[j].Kind == KindComment) {
				if tokens[j].Kind == KindText {
					lit.WriteString(tokens[j].Content)
				}
				j++
			}
			t.writeText(&b, sm, offset, lit.String())
			i = j
		}
	}

	b.WriteString("}\n")
	return &CompiledBlock{Source: b.String(), SourceMap: sm}, nil
}

func (t *Translator) writeCode(b *strings.Builder, sm *SourceMap, tok Token) {
	sm.Push(tok.Offset, b.Len(), len(tok.Content))
	b.WriteString(tok.Content)
	b.WriteString("\n")
}

// writeText emits a RenderText call for a coalesced run of literal text.
// Per the source compiler, the SourceMap entry for a literal run is a
// single 1-byte anchor at its start, not a span covering the whole
// (possibly reformatted/escaped) literal.
func (t *Translator) writeText(b *strings.Builder, sm *SourceMap, offset int, content string) {
	if content == "" {
		return
	}
	sm.Push(offset, b.Len(), 1)
	b.WriteString(runtimeAlias)
	b.WriteString(".RenderText(")
	b.WriteString(bufVar)
	b.WriteString(", ")
	b.WriteString(strconv.Quote(content))
	b.WriteString(")\n")
}

// writeBufferedCode emits a Render/RenderEscaped/RenderOnce call for a
// BufferedCode or NestedTemplate token, nesting every filter in the
// suffix's chain around the base expression in source order: "e | f | g"
// becomes sailfishrt.G(sailfishrt.F((e))), so f runs before g just as a
// reader of the pipe chain would expect.
func (t *Translator) writeBufferedCode(b *strings.Builder, sm *SourceMap, tok Token, nested bool) {
	exprSrc, chain := parseFilterSuffix(tok.Content)
	escape := !nested && tok.Escape && t.Escape

	fn := "Render"
	switch {
	case nested:
		fn = "RenderOnce"
	case escape:
		fn = "RenderEscaped"
	}

	b.WriteString("if err := ")
	b.WriteString(runtimeAlias)
	b.WriteString(".")
	b.WriteString(fn)
	b.WriteString("(")
	b.WriteString(bufVar)
	b.WriteString(", ")

	filtered, innerOffset := nestFilterChain(exprSrc, chain)
	sm.Push(tok.Offset, b.Len()+innerOffset+1, len(exprSrc))
	b.WriteString(filtered)

	b.WriteString("); err != nil {\nreturn err\n}\n")
}

// nestFilterChain wraps "(exprSrc)" in chain's filter calls, applied
// innermost (chain[0]) to outermost (chain[len-1]), and reports the byte
// offset within the returned string where "(exprSrc)" itself starts --
// used to keep the SourceMap entry anchored to the base expression rather
// than to whichever filter call ends up outermost.
func nestFilterChain(exprSrc string, chain []*FilterCall) (string, int) {
	cur := "(" + exprSrc + ")"
	innerOffset := 0
	for _, fc := range chain {
		var prefix strings.Builder
		prefix.WriteString(runtimeAlias)
		prefix.WriteString(".")
		prefix.WriteString(filterFuncName(fc.Name))
		prefix.WriteString("(")

		var suffix strings.Builder
		for _, arg := range fc.Args {
			suffix.WriteString(", ")
			suffix.WriteString(arg)
		}
		suffix.WriteString(")")

		cur = prefix.String() + cur + suffix.String()
		innerOffset += prefix.Len()
	}
	return cur, innerOffset
}

// FilterCall is a parsed "| name" or "| name(args...)" suffix.
type FilterCall struct {
	Name string
	Args []string
}

// builtinFilterNames matches the catalog implemented in runtime/filters.go.
var builtinFilterNames = map[string]bool{
	"disp": true, "dbg": true, "upper": true, "lower": true,
	"trim": true, "truncate": true, "json": true,
}

func filterFuncName(name string) string {
	if name == "json" {
		return "JSON"
	}
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// parseFilterSuffix splits body into its base expression and an ordered
// chain of trailing filter calls, recursing on every top-level "|" (not
// "||") outside of parens/brackets/braces and string/rune/raw-string
// literals -- "e | trim | upper" peels "trim" off right after the base
// expression, then recurses into "upper" rather than stopping at the
// first filter found. If any segment after a pipe doesn't parse as `name`
// or `name(args)`, or name isn't a known filter, the whole body is
// treated as a plain expression with no filter at all (a bitwise-or
// chain, say, is never partially filtered).
func parseFilterSuffix(body string) (string, []*FilterCall) {
	idx := findFirstTopLevelPipe(body)
	if idx < 0 {
		return strings.TrimSpace(body), nil
	}

	expr := strings.TrimSpace(body[:idx])
	chain, ok := parseFilterChain(body[idx+1:])
	if !ok {
		return strings.TrimSpace(body), nil
	}
	return expr, chain
}

// parseFilterChain parses "name(args) | name2(args2) | ..." into an
// ordered slice of filter calls, left to right.
func parseFilterChain(rest string) ([]*FilterCall, bool) {
	var chain []*FilterCall
	for {
		idx := findFirstTopLevelPipe(rest)
		segment := rest
		if idx >= 0 {
			segment = rest[:idx]
		}

		name, args, ok := parseFilterCallText(strings.TrimSpace(segment))
		if !ok || !builtinFilterNames[name] {
			return nil, false
		}
		chain = append(chain, &FilterCall{Name: name, Args: args})

		if idx < 0 {
			return chain, true
		}
		rest = rest[idx+1:]
	}
}

// scanTopLevelPipes walks body, calling visit at every top-level single
// "|" (not "||", and not inside parens/brackets/braces or a
// string/rune/raw-string literal). Scanning stops as soon as visit
// returns false.
func scanTopLevelPipes(body string, visit func(i int) bool) {
	depth := 0
	i := 0
	for i < len(body) {
		c := body[i]
		switch c {
		case '(', '[', '{':
			depth++
			i++
		case ')', ']', '}':
			depth--
			i++
		case '"':
			if n, ok := skipQuoted(body[i:], '"'); ok {
				i += n
			} else {
				i = len(body)
			}
		case '\'':
			if n, ok := skipQuoted(body[i:], '\''); ok {
				i += n
			} else {
				i = len(body)
			}
		case '`':
			if end := strings.IndexByte(body[i+1:], '`'); end >= 0 {
				i += end + 2
			} else {
				i = len(body)
			}
		case '|':
			if depth == 0 {
				prevOr := i > 0 && body[i-1] == '|'
				nextOr := i+1 < len(body) && body[i+1] == '|'
				if !prevOr && !nextOr {
					if !visit(i) {
						return
					}
				}
				if nextOr {
					i++
				}
			}
			i++
		default:
			i++
		}
	}
}

// findTopLevelPipe returns the index of the last top-level single "|" in
// body, or -1 if there is none.
func findTopLevelPipe(body string) int {
	last := -1
	scanTopLevelPipes(body, func(i int) bool {
		last = i
		return true
	})
	return last
}

// findFirstTopLevelPipe returns the index of the first top-level single
// "|" in body, or -1 if there is none.
func findFirstTopLevelPipe(body string) int {
	first := -1
	scanTopLevelPipes(body, func(i int) bool {
		first = i
		return false
	})
	return first
}

func parseFilterCallText(rest string) (name string, args []string, ok bool) {
	end := 0
	for end < len(rest) && isIdentByte(rest[end], end == 0) {
		end++
	}
	if end == 0 {
		return "", nil, false
	}
	name = rest[:end]

	remainder := strings.TrimSpace(rest[end:])
	if remainder == "" {
		return name, nil, true
	}
	if remainder[0] != '(' || remainder[len(remainder)-1] != ')' {
		return "", nil, false
	}
	inner := remainder[1 : len(remainder)-1]
	if strings.TrimSpace(inner) == "" {
		return name, nil, true
	}
	return name, splitTopLevelCommas(inner), true
}

func isIdentByte(c byte, first bool) bool {
	isLetter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	if first {
		return isLetter
	}
	return isLetter || (c >= '0' && c <= '9')
}

func splitTopLevelCommas(s string) []string {
	var out []string
	depth := 0
	start := 0
	i := 0
	for i < len(s) {
		switch s[i] {
		case '(', '[', '{':
			depth++
			i++
		case ')', ']', '}':
			depth--
			i++
		case '"':
			if n, ok := skipQuoted(s[i:], '"'); ok {
				i += n
			} else {
				i = len(s)
			}
		case '\'':
			if n, ok := skipQuoted(s[i:], '\''); ok {
				i += n
			} else {
				i = len(s)
			}
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
			i++
		default:
			i++
		}
	}
	out = append(out, strings.TrimSpace(s[start:]))
	return out
}
