package sailfish

import (
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"strconv"
)

// unquoteGoString unquotes a Go string/raw-string literal's source text
// (including its surrounding quotes) into its value.
func unquoteGoString(lit string) (string, error) {
	return strconv.Unquote(lit)
}

// runtimeImportPath and runtimeAlias name the generated code's one
// import: the companion render runtime. bufVar names the buffer
// parameter every generated statement appends into.
const (
	runtimeImportPath = "github.com/sailfish-go/sailfish/runtime"
	runtimeAlias      = "sailfishrt"
	bufVar            = "__sfbuf"
)

// genWrapPrefix is prepended to a CompiledBlock's Source before handing
// it to go/parser: a throwaway package and function declaration, so that
// a bare "{ ... }" statement list parses the same way the source
// compiler parses a bare statement block with its own parser. This is
// the Go-native equivalent of assembling source text and running it
// through the host language's own parser to get a real syntax tree
// rather than inventing a parallel statement representation.
const genWrapPrefix = "package sfgen\n\nfunc __sfgen() {\n"
const genWrapSuffix = "\n}\n"

// CompiledBlock is the translator's output: a textual Go statement block
// together with the SourceMap recording which spans of it were copied
// verbatim from the template.
type CompiledBlock struct {
	Source    string
	SourceMap *SourceMap
}

// Parse validates Source as Go syntax and returns the real *ast.BlockStmt
// the resolver and optimizer walk. Syntax errors are remapped from the
// wrapped-source offset back through the SourceMap to a template offset.
//
// fset is shared across every CompiledBlock parsed during one Compile
// call (the top-level template and every include it pulls in), so that
// positions stay meaningful once the resolver splices statements parsed
// from different files into one tree -- required for go/format to print
// the final, include-expanded block correctly. A nil fset parses in
// isolation (useful for tests and for the filename-remap path) and
// allocates its own.
func (c *CompiledBlock) Parse(fset *token.FileSet) (*ast.BlockStmt, error) {
	if fset == nil {
		fset = token.NewFileSet()
	}
	wrapped := genWrapPrefix + c.Source + genWrapSuffix

	file, err := parser.ParseFile(fset, "generated.go", wrapped, parser.AllErrors)
	if err != nil {
		return nil, GoSyntaxErrorAt(err, c.remapParseError(fset, err))
	}

	fn, ok := file.Decls[0].(*ast.FuncDecl)
	if !ok || fn.Body == nil {
		return nil, GoSyntaxErrorAt(err, -1)
	}
	return fn.Body, nil
}

// remapParseError turns the first error in a go/scanner.ErrorList into a
// template-source offset, or -1 if it can't be placed.
func (c *CompiledBlock) remapParseError(fset *token.FileSet, err error) int {
	list, ok := err.(scanner.ErrorList)
	if !ok || len(list) == 0 {
		return -1
	}
	genOffset := list[0].Pos.Offset - len(genWrapPrefix)
	if genOffset < 0 {
		return -1
	}
	if orig, ok := c.SourceMap.ReverseLookup(genOffset); ok {
		return orig
	}
	return -1
}

// sentinelCall reports whether call is one of the generated render
// sentinels (RenderText/Render/RenderEscaped/RenderOnce qualified with
// runtimeAlias), returning the callee's method name.
func sentinelCall(call *ast.CallExpr) (name string, ok bool) {
	sel, isSel := call.Fun.(*ast.SelectorExpr)
	if !isSel {
		return "", false
	}
	ident, isIdent := sel.X.(*ast.Ident)
	if !isIdent || ident.Name != runtimeAlias {
		return "", false
	}
	switch sel.Sel.Name {
	case "RenderText", "Render", "RenderEscaped", "RenderOnce":
		return sel.Sel.Name, true
	default:
		return "", false
	}
}

// literalTextOf returns the string literal argument of a
// sailfishrt.RenderText(buf, "...") call, and whether call is such a call.
func literalTextOf(call *ast.CallExpr) (string, bool) {
	name, ok := sentinelCall(call)
	if !ok || name != "RenderText" || len(call.Args) != 2 {
		return "", false
	}
	lit, ok := call.Args[1].(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	s, err := unquoteGoString(lit.Value)
	if err != nil {
		return "", false
	}
	return s, true
}

// exprStmtCall extracts the *ast.CallExpr from a statement, if that
// statement is a bare call or an "if err := CALL; err != nil { ... }"
// guard -- the two shapes the translator emits.
func exprStmtCall(stmt ast.Stmt) (*ast.CallExpr, bool) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		call, ok := s.X.(*ast.CallExpr)
		return call, ok
	case *ast.IfStmt:
		assign, ok := s.Init.(*ast.AssignStmt)
		if !ok || len(assign.Rhs) != 1 {
			return nil, false
		}
		call, ok := assign.Rhs[0].(*ast.CallExpr)
		return call, ok
	default:
		return nil, false
	}
}

// includeCall reports whether call is an include("path") call and
// returns its string-literal argument.
func includeCall(call *ast.CallExpr) (string, bool) {
	ident, ok := call.Fun.(*ast.Ident)
	if !ok || ident.Name != "include" || len(call.Args) != 1 {
		return "", false
	}
	lit, ok := call.Args[0].(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	s, err := unquoteGoString(lit.Value)
	if err != nil {
		return "", false
	}
	return s, true
}
