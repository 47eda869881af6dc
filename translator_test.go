package sailfish

import (
	"strings"
	"testing"
)

func translate(t *testing.T, src string, escape bool) string {
	t.Helper()
	toks, err := Tokenize("t", src, 0)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	tr := NewTranslator(escape)
	block, err := tr.Translate(toks)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	return block.Source
}

func TestTranslateTextCoalescesAcrossComment(t *testing.T) {
	out := translate(t, "a<%# c %>b", true)
	if strings.Count(out, "RenderText") != 1 {
		t.Fatalf("expected one coalesced RenderText call, got: %s", out)
	}
	if !strings.Contains(out, `"ab"`) {
		t.Fatalf("expected literal \"ab\", got: %s", out)
	}
}

func TestTranslateBufferedCodeEscaped(t *testing.T) {
	out := translate(t, "<%= name %>", true)
	if !strings.Contains(out, "RenderEscaped(") {
		t.Fatalf("expected RenderEscaped call, got: %s", out)
	}
}

func TestTranslateBufferedCodeRawAlwaysUnescaped(t *testing.T) {
	out := translate(t, "<%- name %>", true)
	if !strings.Contains(out, "sailfishrt.Render(") || strings.Contains(out, "RenderEscaped(") {
		t.Fatalf("expected raw Render call regardless of escape default, got: %s", out)
	}
}

func TestTranslateGlobalEscapeOff(t *testing.T) {
	out := translate(t, "<%= name %>", false)
	if strings.Contains(out, "RenderEscaped(") {
		t.Fatalf("expected Render, not RenderEscaped, when escape default is off: %s", out)
	}
}

func TestTranslateNestedTemplate(t *testing.T) {
	out := translate(t, "<%+ header() %>", true)
	if !strings.Contains(out, "RenderOnce(") {
		t.Fatalf("expected RenderOnce call, got: %s", out)
	}
}

func TestTranslateFilterSuffix(t *testing.T) {
	out := translate(t, "<%= name | upper %>", true)
	if !strings.Contains(out, "sailfishrt.Upper(") {
		t.Fatalf("expected filter call to Upper, got: %s", out)
	}
}

func TestTranslateFilterWithArgs(t *testing.T) {
	out := translate(t, "<%= name | truncate(10) %>", true)
	if !strings.Contains(out, "sailfishrt.Truncate(") || !strings.Contains(out, "10") {
		t.Fatalf("expected filter call with arg, got: %s", out)
	}
}

func TestTranslateChainedFiltersNestInSourceOrder(t *testing.T) {
	out := translate(t, `<%= " hi " | trim | upper %>`, true)
	if !strings.Contains(out, `sailfishrt.Upper(sailfishrt.Trim((" hi ")))`) {
		t.Fatalf("expected trim nested inside upper, got: %s", out)
	}
}

func TestTranslateUnknownFilterNameIsLeftAsExpression(t *testing.T) {
	// "x | y" where y isn't a registered filter name is just a bitwise-or
	// expression, not a filter call.
	out := translate(t, "<%= x | y %>", true)
	if strings.Contains(out, "sailfishrt.Y(") {
		t.Fatalf("unexpected filter dispatch for unknown name: %s", out)
	}
}

func TestTranslateCodeBlockCopiedVerbatim(t *testing.T) {
	out := translate(t, "<% for _, x := range xs { %><%= x %><% } %>", true)
	if !strings.Contains(out, "for _, x := range xs {") {
		t.Fatalf("expected code copied verbatim, got: %s", out)
	}
}

func TestFindTopLevelPipeIgnoresPipeInString(t *testing.T) {
	idx := findTopLevelPipe(`"a|b" | upper`)
	expect := strings.Index(`"a|b" | upper`, "| upper")
	if idx != expect {
		t.Fatalf("expected pipe at %d, got %d", expect, idx)
	}
}

func TestFindTopLevelPipeSkipsLogicalOr(t *testing.T) {
	idx := findTopLevelPipe("a || b")
	if idx != -1 {
		t.Fatalf("expected no top-level single pipe, got %d", idx)
	}
}

func TestSplitTopLevelCommasRespectsNesting(t *testing.T) {
	parts := splitTopLevelCommas("f(1, 2), 3")
	if len(parts) != 2 || parts[0] != "f(1, 2)" || parts[1] != "3" {
		t.Fatalf("unexpected split: %+v", parts)
	}
}
