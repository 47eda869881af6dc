package sailfish

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
)

// ErrorKind classifies a CompileError, matching the compile-time error
// kinds produced by each pipeline stage.
type ErrorKind int

const (
	KindParseError ErrorKind = iota
	KindGoSyntaxError
	KindAnalyzeError
	KindConfigError
	KindIOError
	KindFmtError
	KindUnimplemented
	KindOther
)

func (k ErrorKind) String() string {
	switch k {
	case KindParseError:
		return "parse error"
	case KindGoSyntaxError:
		return "go syntax error"
	case KindAnalyzeError:
		return "analyze error"
	case KindConfigError:
		return "config error"
	case KindIOError:
		return "io error"
	case KindFmtError:
		return "fmt error"
	case KindUnimplemented:
		return "unimplemented"
	default:
		return "error"
	}
}

// CompileError is the error type returned from every compiler stage. It
// carries a juju/errors cause chain (pushed with Chain, mirroring the
// source's chain_err pattern), plus enough positional context to print a
// two-line source excerpt with a caret under the offending column.
type CompileError struct {
	Kind      ErrorKind
	Filename  string
	Source    string
	Offset    int
	HasOffset bool
	cause     error
}

func newCompileError(kind ErrorKind, cause error) *CompileError {
	return &CompileError{Kind: kind, Offset: -1, cause: cause}
}

// ParseErrorAt builds an unterminated-block/comment error at a byte offset
// into the template source (the offset of the unterminated open).
func ParseErrorAt(msg string, offset int) *CompileError {
	e := newCompileError(KindParseError, errors.New(msg))
	e.Offset = offset
	e.HasOffset = true
	return e
}

// GoSyntaxErrorAt wraps a go/parser error, with offset already remapped
// from generated-code position back to template position via SourceMap.
func GoSyntaxErrorAt(inner error, offset int) *CompileError {
	e := newCompileError(KindGoSyntaxError, errors.Annotate(inner, "generated code failed to parse"))
	if offset >= 0 {
		e.Offset = offset
		e.HasOffset = true
	}
	return e
}

// AnalyzeErrorf builds an include-resolution / analysis failure.
func AnalyzeErrorf(format string, args ...interface{}) *CompileError {
	return newCompileError(KindAnalyzeError, errors.Errorf(format, args...))
}

// ConfigErrorf builds a bad-config-file error.
func ConfigErrorf(format string, args ...interface{}) *CompileError {
	return newCompileError(KindConfigError, errors.Errorf(format, args...))
}

// WrapIOError wraps a filesystem error.
func WrapIOError(err error) *CompileError {
	return newCompileError(KindIOError, errors.Trace(err))
}

// WrapFmtError wraps a formatting error bubbled up from code generation.
func WrapFmtError(err error) *CompileError {
	return newCompileError(KindFmtError, errors.Trace(err))
}

// Unimplemented marks a feature that is recognized but not yet supported.
func Unimplemented(msg string) *CompileError {
	return newCompileError(KindUnimplemented, errors.New(msg))
}

// OtherError builds a catch-all compiler error.
func OtherError(msg string) *CompileError {
	return newCompileError(KindOther, errors.New(msg))
}

// Chain pushes a new cause frame on top of err, mirroring the source's
// ResultExt::chain_err: the new frame becomes the outermost (displayed)
// cause, while file/source/offset travel forward unchanged if err already
// carried them.
func Chain(err error, kind ErrorKind, msg string) *CompileError {
	wrapped := errors.Annotate(err, msg)

	next := &CompileError{Kind: kind, Offset: -1, cause: wrapped}
	if ce, ok := err.(*CompileError); ok {
		next.Filename = ce.Filename
		next.Source = ce.Source
		next.Offset = ce.Offset
		next.HasOffset = ce.HasOffset
	}
	return next
}

// WithFile attaches the offending template's filename.
func (e *CompileError) WithFile(name string) *CompileError {
	e.Filename = name
	return e
}

// WithSource attaches the offending template's full source, needed to
// render the excerpt-with-caret in Display.
func (e *CompileError) WithSource(src string) *CompileError {
	e.Source = src
	return e
}

func (e *CompileError) Error() string {
	return e.cause.Error()
}

func (e *CompileError) Unwrap() error {
	return errors.Cause(e.cause)
}

// Display renders the full chain of causes, the offending file, and a
// two-line source excerpt with a caret under the offending column.
func (e *CompileError) Display() string {
	var b strings.Builder

	fmt.Fprintln(&b, e.cause.Error())
	if stack := errors.ErrorStack(e.cause); stack != "" {
		for _, frame := range strings.Split(stack, "\n") {
			frame = strings.TrimSpace(frame)
			if frame == "" || frame == e.cause.Error() {
				continue
			}
			fmt.Fprintf(&b, "caused by: %s\n", frame)
		}
	}
	b.WriteByte('\n')

	if e.Filename != "" {
		fmt.Fprintf(&b, "file: %s\n", e.Filename)
	}

	if e.HasOffset && e.Source != "" {
		line, col, text := lineColAt(e.Source, e.Offset)
		fmt.Fprintf(&b, "position: line %d, column %d\n\n", line, col)
		lpad := len(fmt.Sprintf("%d", line))
		fmt.Fprintf(&b, "%*s |\n", lpad, "")
		fmt.Fprintf(&b, "%d | %s\n", line, text)
		fmt.Fprintf(&b, "%*s | %*s^\n", lpad, "", col-1, "")
	}

	return b.String()
}

// lineColAt walks line lengths to turn a byte offset into a 1-based
// (line, column) pair, plus the text of that line.
func lineColAt(source string, offset int) (line, col int, text string) {
	line, col = 1, 1
	current := 0
	lines := strings.Split(source, "\n")
	for _, l := range lines {
		end := current + len(l) + 1
		if offset < end {
			col = offset - current + 1
			text = l
			return
		}
		line++
		current = end
	}
	if len(lines) > 0 {
		text = lines[len(lines)-1]
	}
	return
}
