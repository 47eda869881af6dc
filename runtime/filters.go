package runtime

import (
	"encoding/json"
	"fmt"
	"strings"
)

// The functions below are the built-in filter catalog: disp, dbg, upper,
// lower, trim, truncate(n), json. The translator emits
// a call to one of these (qualified with the runtime alias) in place of
// "expr | name" / "expr | name(args)". Grounded on pongo2's
// filters_builtin.go catalog (filterUpper/filterLower/filterTrim/
// filterTruncatechars), adapted from Value-in/Value-out to
// interface{}-in/string-out since filter results here feed directly back
// into Render/RenderEscaped rather than another interpreted Value.

// toString renders v through the same catalog Render/RenderEscaped use,
// so a filter sees the same textual form <%= v %> would have produced.
func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	scratch := New()
	if err := Render(scratch, v); err != nil {
		return ""
	}
	return scratch.String()
}

// Disp is the identity filter: its only effect is forcing a value through
// the catalog's string form before any filter chained after it runs.
func Disp(v interface{}) string {
	return toString(v)
}

// Dbg renders v's Go-syntax debug form via "%#v": a string comes back
// quoted and escaped, a composite value comes back as a literal Go
// expression -- unlike Disp, which always renders v's plain display form
// and never quotes a string.
func Dbg(v interface{}) string {
	return fmt.Sprintf("%#v", v)
}

// Upper uppercases v's textual form.
func Upper(v interface{}) string {
	return strings.ToUpper(toString(v))
}

// Lower lowercases v's textual form.
func Lower(v interface{}) string {
	return strings.ToLower(toString(v))
}

// Trim strips leading and trailing whitespace from v's textual form.
func Trim(v interface{}) string {
	return strings.TrimSpace(toString(v))
}

// Truncate shortens v's textual form to at most n runes, appending "..."
// when it actually cut anything off. Rune-aware rather than byte-aware --
// slicing by byte count risks splitting a multi-byte rune and handing
// invalid UTF-8 to Buffer, which is an invariant violation there.
func Truncate(v interface{}, n int) string {
	s := toString(v)
	if n < 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// JSON marshals v to its JSON text form. A marshal failure (e.g. v
// contains a channel or function) renders as an empty string rather than
// aborting the whole render: the filter signature stays single-return,
// matching every other filter here, since the translator splices a
// filter's result directly into an outer Render(buf, ...) call and Go
// won't accept a multi-value call as one of several arguments there.
func JSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
