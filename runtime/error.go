package runtime

import "fmt"

// RenderErrorKind classifies a RenderError.
type RenderErrorKind int

const (
	// ErrMsg is a user-raised error, e.g. from a filter or a Renderable
	// implementation.
	ErrMsg RenderErrorKind = iota
	// ErrFmt wraps a formatting error bubbled up from a Renderable
	// implementation.
	ErrFmt
	// ErrBufSize marks a Renderable/filter that shrank the buffer
	// mid-render.
	ErrBufSize
)

func (k RenderErrorKind) String() string {
	switch k {
	case ErrMsg:
		return "msg"
	case ErrFmt:
		return "fmt"
	case ErrBufSize:
		return "buffer shrank mid-render"
	default:
		return "error"
	}
}

// RenderError is the error type returned from the runtime render API
// (Render()/RenderTo() and friends) and from Renderable implementations.
type RenderError struct {
	Kind RenderErrorKind
	msg  string
	err  error
}

func (e *RenderError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *RenderError) Unwrap() error { return e.err }

// NewMsgError builds a user-raised RenderError.
func NewMsgError(msg string) *RenderError {
	return &RenderError{Kind: ErrMsg, msg: msg}
}

// NewMsgErrorf builds a user-raised RenderError with a formatted message.
func NewMsgErrorf(format string, args ...interface{}) *RenderError {
	return &RenderError{Kind: ErrMsg, msg: fmt.Sprintf(format, args...)}
}

// WrapFmtError wraps a formatting error bubbled up from a Renderable
// implementation.
func WrapFmtError(err error) *RenderError {
	return &RenderError{Kind: ErrFmt, msg: "formatting error", err: err}
}

// ErrBufSizeError reports that a buffer shrank unexpectedly mid-render.
func ErrBufSizeError() *RenderError {
	return &RenderError{Kind: ErrBufSize, msg: "buffer shrank mid-render"}
}
