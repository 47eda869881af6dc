package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispPassesStringsThrough(t *testing.T) {
	assert.Equal(t, "raw", Disp("raw"))
}

func TestDispRendersNonStrings(t *testing.T) {
	assert.Equal(t, "42", Disp(42))
	assert.Equal(t, "true", Disp(true))
}

func TestDbgQuotesStringsUnlikeDisp(t *testing.T) {
	assert.Equal(t, `"hello"`, Dbg("hello"))
	assert.Equal(t, "hello", Disp("hello"))
}

func TestDbgRendersCompositeValuesAsGoSyntax(t *testing.T) {
	assert.Equal(t, "7", Dbg(7))
	assert.Equal(t, "[]int{1, 2, 3}", Dbg([]int{1, 2, 3}))
}

func TestUpperLower(t *testing.T) {
	assert.Equal(t, "HELLO", Upper("hello"))
	assert.Equal(t, "hello", Lower("HELLO"))
	assert.Equal(t, "41", Upper(41))
}

func TestTrim(t *testing.T) {
	assert.Equal(t, "middle", Trim("  middle  \t\n"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hel...", Truncate("hello", 3))
	assert.Equal(t, "hello", Truncate("hello", 100))
	assert.Equal(t, "hello", Truncate("hello", 5))
	assert.Equal(t, "hello", Truncate("hello", -1))
}

func TestTruncateIsRuneAwareNotByteAware(t *testing.T) {
	assert.Equal(t, "魑...", Truncate("魑魅魍魎", 1))
	assert.Equal(t, "魑魅魍魎", Truncate("魑魅魍魎", 4))
}

type unmarshalable struct {
	C chan int
}

func TestJSONMarshalsValue(t *testing.T) {
	assert.Equal(t, `"hi"`, JSON("hi"))
	assert.Equal(t, `42`, JSON(42))
	assert.Equal(t, `[1,2,3]`, JSON([]int{1, 2, 3}))
}

func TestJSONSwallowsMarshalErrors(t *testing.T) {
	assert.Equal(t, "", JSON(unmarshalable{C: make(chan int)}))
}
