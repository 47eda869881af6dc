package runtime

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Renderable is the polymorphic rendering contract: a value that knows
// how to append its own textual form into a Buffer, raw or HTML-escaped.
// A generated template type that wants custom rendering behavior (rather
// than falling through the built-in catalog below) implements this
// directly. Grounded on pongo2's Value polymorphic dispatch (value.go's
// IsString/IsInteger/IsFloat family) -- reused here as the shape for an
// interface-plus-type-switch dispatch instead of reflect.Value kind
// checks.
type Renderable interface {
	Render(buf *Buffer) error
	RenderEscaped(buf *Buffer) error
}

// Char is the Go stand-in for a distinct "character" catalog entry. Go's
// rune is just int32, indistinguishable at runtime from any other
// 32-bit integer, so Char exists to let <%= %> tell "this is one
// HTML-aware character" apart from "this is a plain integer".
type Char rune

// Render appends c's single UTF-8 scalar form, unescaped.
func (c Char) Render(buf *Buffer) error {
	buf.Push(rune(c))
	return nil
}

// RenderEscaped appends c's entity form if c is one of the five
// HTML-special characters, else its raw UTF-8 form.
func (c Char) RenderEscaped(buf *Buffer) error {
	if ent, ok := htmlEntityRune(rune(c)); ok {
		buf.PushString(ent)
		return nil
	}
	buf.Push(rune(c))
	return nil
}

// Render appends v's textual form into buf with no escaping. v either
// implements Renderable directly, or is one of the built-in catalog types
// (strings, characters, booleans, integers, floats, or a pointer to any
// of those).
func Render(buf *Buffer, v interface{}) error {
	if r, ok := v.(Renderable); ok {
		return renderGuarded(buf, r.Render)
	}
	return renderCatalog(buf, v, false)
}

// RenderEscaped appends v's textual form into buf, HTML-escaping it.
func RenderEscaped(buf *Buffer, v interface{}) error {
	if r, ok := v.(Renderable); ok {
		return renderGuarded(buf, r.RenderEscaped)
	}
	return renderCatalog(buf, v, true)
}

// renderGuarded runs a Renderable method and checks buf.Len() against its
// length beforehand: every built-in catalog path only ever appends, and a
// well-behaved Renderable must too, so a shorter buffer afterward means an
// external implementation reached into buf and truncated it mid-render.
func renderGuarded(buf *Buffer, renderTo func(*Buffer) error) error {
	before := buf.Len()
	if err := renderTo(buf); err != nil {
		return err
	}
	if buf.Len() < before {
		return ErrBufSizeError()
	}
	return nil
}

// RenderText emits literal template text verbatim. The translator only
// ever calls this with a string literal, so it never fails.
func RenderText(buf *Buffer, s string) {
	buf.PushString(s)
}

// RenderOnce renders a <%+ expr %> nested-template expression: v's
// rendered form is appended raw, same as Render, but v must be a
// TemplateOnce -- the derive-front-end capability tier this
// describes for "a sub-template expression whose render_once() result is
// rendered raw".
func RenderOnce(buf *Buffer, v TemplateOnce) error {
	return v.RenderOnceTo(buf)
}

func renderCatalog(buf *Buffer, v interface{}, escape bool) error {
	switch x := v.(type) {
	case string:
		return renderString(buf, x, escape)
	case []byte:
		return renderString(buf, string(x), escape)
	case bool:
		return renderBool(buf, x, escape)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, uintptr:
		return renderString(buf, formatInt(x), escape)
	case float32:
		return renderFloat(buf, float64(x), 32, escape)
	case float64:
		return renderFloat(buf, x, 64, escape)
	case fmt.Stringer:
		return renderString(buf, x.String(), escape)
	case error:
		return renderString(buf, x.Error(), escape)
	case nil:
		return nil
	default:
		// Transparent wrappers (pointer-to-catalog-type, the Go analogue
		// of a heap box or interior-mutability guard): a non-nil pointer to
		// any catalog type delegates to its pointee.
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Ptr && !rv.IsNil() {
			return renderCatalog(buf, rv.Elem().Interface(), escape)
		}
		return fmt.Errorf("sailfish/runtime: %T does not implement Renderable and has no built-in catalog entry", v)
	}
}

func renderString(buf *Buffer, s string, escape bool) error {
	if escape {
		return EscapeInto(buf, s)
	}
	buf.PushString(s)
	return nil
}

func renderBool(buf *Buffer, v bool, escape bool) error {
	if v {
		return renderString(buf, "true", escape)
	}
	return renderString(buf, "false", escape)
}

// formatInt uses strconv's itoa-family routines rather than fmt.Sprintf,
// avoiding reflection on the hot integer-rendering path.
func formatInt(v interface{}) string {
	switch x := v.(type) {
	case int:
		return strconv.Itoa(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case uintptr:
		return strconv.FormatUint(uint64(x), 10)
	default:
		return fmt.Sprintf("%d", x)
	}
}

// renderFloat formats v as the shortest round-trip decimal for finite
// values, or "NaN"/"inf"/"-inf" for the non-finite cases.
func renderFloat(buf *Buffer, v float64, bitSize int, escape bool) error {
	var s string
	switch {
	case math.IsNaN(v):
		s = "NaN"
	case math.IsInf(v, 1):
		s = "inf"
	case math.IsInf(v, -1):
		s = "-inf"
	default:
		s = strconv.FormatFloat(v, 'g', -1, bitSize)
	}
	return renderString(buf, s, escape)
}
