package runtime

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderErrorKindString(t *testing.T) {
	assert.Equal(t, "msg", ErrMsg.String())
	assert.Equal(t, "fmt", ErrFmt.String())
	assert.Equal(t, "buffer shrank mid-render", ErrBufSize.String())
}

func TestNewMsgError(t *testing.T) {
	err := NewMsgError("bad value")
	assert.Equal(t, ErrMsg, err.Kind)
	assert.Equal(t, "bad value", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestNewMsgErrorf(t *testing.T) {
	err := NewMsgErrorf("bad value: %d", 42)
	assert.Equal(t, "bad value: 42", err.Error())
}

func TestWrapFmtError(t *testing.T) {
	cause := errors.New("underlying")
	err := WrapFmtError(cause)
	assert.Equal(t, ErrFmt, err.Kind)
	assert.Equal(t, "formatting error: underlying", err.Error())
	assert.Same(t, cause, err.Unwrap())
}

func TestErrBufSizeError(t *testing.T) {
	err := ErrBufSizeError()
	assert.Equal(t, ErrBufSize, err.Kind)
	assert.Equal(t, "buffer shrank mid-render", err.Error())
}
