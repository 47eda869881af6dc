// Package runtime is the companion render runtime: the only package the
// code sailfish compiles templates into depends on at render time. It has
// no dependency on the compiler -- generated code imports only this
// package (aliased "sailfishrt" by the translator).
package runtime

import (
	"unicode/utf8"
	"unsafe"
)

// maxCapacity caps allocation requests at half the platform's max int, so
// Reserve asserts against it rather than silently wrapping into an
// impossible allocation request.
const maxCapacity = int(^uint(0)>>1) / 2

// Buffer is a growable, append-only byte arena optimized for the template
// emission pattern: many small appends, one final consume. pongo2 has no
// owned-arena equivalent, rendering instead through io.Writer.
//
// Invariants: Len() <= Cap(); bytes [0, Len()) are initialized, and are
// valid UTF-8 at every observable boundary except between Advance/SetLen
// and the next observation. Buffer is single-owner and not safe for
// concurrent use without external synchronization.
type Buffer struct {
	buf []byte
}

// New returns an empty Buffer. Its zero value is also ready to use.
func New() *Buffer {
	return &Buffer{}
}

// WithCapacity returns an empty Buffer pre-sized to hold at least n bytes
// without reallocating. n <= 0 allocates nothing.
func WithCapacity(n int) *Buffer {
	if n <= 0 {
		return &Buffer{}
	}
	return &Buffer{buf: make([]byte, 0, n)}
}

// FromString adopts s's contents as the Buffer's initial contents. Go
// strings are immutable, so this is a one-time copy: there is no Go
// equivalent of taking ownership of another string's backing storage.
func FromString(s string) *Buffer {
	return &Buffer{buf: []byte(s)}
}

// Len returns the number of initialized bytes.
func (b *Buffer) Len() int { return len(b.buf) }

// Cap returns the buffer's current capacity.
func (b *Buffer) Cap() int { return cap(b.buf) }

// IsEmpty reports whether Len() == 0.
func (b *Buffer) IsEmpty() bool { return len(b.buf) == 0 }

// String returns a UTF-8 view of the initialized bytes without copying.
// Callers must not observe it across a subsequent Advance/SetLen call
// that has not yet restored UTF-8 validity.
func (b *Buffer) String() string {
	if len(b.buf) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b.buf), len(b.buf))
}

// Bytes exposes the initialized byte slice directly, e.g. for a Renderable
// implementation that wants to avoid an intermediate string.
func (b *Buffer) Bytes() []byte { return b.buf }

// Reserve ensures at least n unused bytes of capacity, growing the
// backing array if necessary. Growth policy: new capacity is
// max(current_capacity*2, current_capacity+n). Panics rather than
// returning an error on an impossible request -- there is no recoverable
// path from an allocation failure here.
func (b *Buffer) Reserve(n int) {
	if n <= 0 {
		return
	}
	if n > maxCapacity {
		panic("runtime: reserve request exceeds platform_max/2")
	}
	if cap(b.buf)-len(b.buf) >= n {
		return
	}
	newCap := cap(b.buf) * 2
	if alt := cap(b.buf) + n; alt > newCap {
		newCap = alt
	}
	if newCap < len(b.buf)+n {
		newCap = len(b.buf) + n
	}
	grown := make([]byte, len(b.buf), newCap)
	copy(grown, b.buf)
	b.buf = grown
}

// PushString appends s, growing the buffer if needed.
func (b *Buffer) PushString(s string) {
	b.Reserve(len(s))
	b.buf = append(b.buf, s...)
}

// Push appends a single UTF-8 scalar value.
func (b *Buffer) Push(r rune) {
	var tmp [utf8.UTFMax]byte
	n := utf8.EncodeRune(tmp[:], r)
	b.Reserve(n)
	b.buf = append(b.buf, tmp[:n]...)
}

// Advance performs an unchecked length increase: the caller guarantees
// that bytes [Len(), Len()+n) are already initialized and form valid
// UTF-8 once combined with the existing contents.
func (b *Buffer) Advance(n int) {
	b.buf = b.buf[:len(b.buf)+n]
}

// SetLen performs an unchecked length override, used only by the
// optimizer's loop-hoisting rollback to undo the one extra trailing
// literal copy a hoisted loop emits.
func (b *Buffer) SetLen(n int) {
	b.buf = b.buf[:n]
}

// Clear empties the buffer without releasing its capacity.
func (b *Buffer) Clear() {
	b.buf = b.buf[:0]
}

// IntoString consumes the buffer, returning its contents as a string. The
// buffer must not be used afterward.
func (b *Buffer) IntoString() string {
	s := b.String()
	b.buf = nil
	return s
}
