package sailfish

import (
	"go/format"
	"go/token"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func optimizeSource(t *testing.T, src string, rmWhitespace, rmNewline bool) string {
	t.Helper()
	toks, err := Tokenize("t", src, 0)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	tr := NewTranslator(true)
	block, err := tr.Translate(toks)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	fset := token.NewFileSet()
	ast, err := block.Parse(fset)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	opt := NewOptimizer(rmWhitespace, rmNewline)
	if err := opt.Optimize(ast); err != nil {
		t.Fatalf("optimize: %v", err)
	}
	var buf strings.Builder
	if err := format.Node(&buf, fset, ast); err != nil {
		t.Fatalf("format: %v", err)
	}
	return buf.String()
}

func TestOptimizerCollapsesWhitespaceWhenEnabled(t *testing.T) {
	src := "  <% if true { %>  \n  hi  \n  <% } %>"
	out := optimizeSource(t, src, true, false)
	if strings.Contains(out, "  hi  ") {
		t.Fatalf("expected interior whitespace collapsed, got: %s", out)
	}
	if !strings.Contains(out, "hi") {
		t.Fatalf("expected literal text preserved, got: %s", out)
	}
}

func TestOptimizerLeavesWhitespaceWhenDisabled(t *testing.T) {
	src := "<% if true { %>  hi  <% } %>"
	out := optimizeSource(t, src, false, false)
	if !strings.Contains(out, "  hi  ") {
		t.Fatalf("expected whitespace preserved, got: %s", out)
	}
}

func TestOptimizerStripsNewlines(t *testing.T) {
	src := "a\nb\nc"
	out := optimizeSource(t, src, false, true)
	if strings.Contains(out, `"a\nb\nc"`) {
		t.Fatalf("expected newlines stripped from literal, got: %s", out)
	}
	if !strings.Contains(out, `"abc"`) {
		t.Fatalf("expected concatenated literal without newlines, got: %s", out)
	}
}

func TestOptimizerHoistsLoopLiteralsAndGuardsRollback(t *testing.T) {
	src := `<% for _, x := range xs { %>-<%= x %>-<% } %>`
	out := optimizeSource(t, src, false, false)

	if !strings.Contains(out, "__sfhoisted") {
		t.Fatalf("expected a hoisting guard flag to be introduced, got: %s", out)
	}
	if !strings.Contains(out, "SetLen(") {
		t.Fatalf("expected a guarded buffer rollback after the loop, got: %s", out)
	}
	// The loop body's trailing literal from one iteration should be
	// merged with the next iteration's leading literal.
	if !strings.Contains(out, `"--"`) {
		t.Fatalf("expected merged inter-iteration literal \"--\", got: %s", out)
	}
}

// TestOptimizerHoistedLoopMatchesUnhoistedOutput builds the generated
// statements for a hoisted loop into a standalone program and actually runs
// it, rather than pattern-matching the generated source -- the hoisting
// rewrite is only correct if the rendered bytes match what the unoptimized
// per-iteration writes would have produced, for both a loop that never
// runs and one that runs several times.
func TestOptimizerHoistedLoopMatchesUnhoistedOutput(t *testing.T) {
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not available in this environment")
	}

	src := `<% for _, x := range xs { %>-<%= x %>-<% } %>`
	toks, err := Tokenize("t", src, 0)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	tr := NewTranslator(true)
	block, err := tr.Translate(toks)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	fset := token.NewFileSet()
	stmts, err := block.Parse(fset)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	opt := NewOptimizer(false, false)
	if err := opt.Optimize(stmts); err != nil {
		t.Fatalf("optimize: %v", err)
	}
	var body strings.Builder
	if err := format.Node(&body, fset, stmts); err != nil {
		t.Fatalf("format: %v", err)
	}

	moduleRoot, err := filepath.Abs(".")
	if err != nil {
		t.Fatalf("abs: %v", err)
	}

	dir := t.TempDir()
	goMod := "module sailfishopttest\n\ngo 1.20\n\n" +
		"require github.com/sailfish-go/sailfish v0.0.0\n\n" +
		"replace github.com/sailfish-go/sailfish => " + moduleRoot + "\n"
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte(goMod), 0o644); err != nil {
		t.Fatalf("write go.mod: %v", err)
	}

	main := "package main\n\n" +
		"import (\n" +
		"\t\"fmt\"\n\n" +
		"\tsailfishrt \"github.com/sailfish-go/sailfish/runtime\"\n" +
		")\n\n" +
		"func render(xs []int) string {\n" +
		"\t__sfbuf := sailfishrt.New()\n" +
		"\tif err := func() error {\n" +
		"\t" + body.String() + "\n" +
		"\treturn nil\n" +
		"\t}(); err != nil {\n" +
		"\t\tpanic(err)\n" +
		"\t}\n" +
		"\treturn __sfbuf.String()\n" +
		"}\n\n" +
		"func main() {\n" +
		"\tfmt.Print(render(nil))\n" +
		"\tfmt.Print(\"|\")\n" +
		"\tfmt.Print(render([]int{1, 2, 3}))\n" +
		"}\n"
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte(main), 0o644); err != nil {
		t.Fatalf("write main.go: %v", err)
	}

	cmd := exec.Command("go", "run", ".")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("go run failed: %v\n%s", err, out)
	}

	const want = "|-1--2--3-"
	if got := string(out); got != want {
		t.Fatalf("unexpected rendered output: got %q, want %q", got, want)
	}
}

func TestOptimizerDoesNotHoistLoopWithBreak(t *testing.T) {
	src := `<% for _, x := range xs { %>-<% if x == 0 { break } %>-<% } %>`
	out := optimizeSource(t, src, false, false)
	if strings.Contains(out, "__sfhoisted") {
		t.Fatalf("expected no hoisting for a loop with its own break, got: %s", out)
	}
}

func TestCollapseLiteralWhitespaceSingleLineUnchanged(t *testing.T) {
	if got := collapseLiteralWhitespace("  hi  "); got != "  hi  " {
		t.Fatalf("expected single-line literal unchanged, got %q", got)
	}
}

func TestCollapseLiteralWhitespaceMultiLine(t *testing.T) {
	got := collapseLiteralWhitespace("  first  \n   \n  last  ")
	if got != "  first\nlast  " {
		t.Fatalf("unexpected collapse result: %q", got)
	}
}
