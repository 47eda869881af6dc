package sailfish

import (
	"go/ast"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// HostSourceExt marks an include() path that names Go source to splice in
// verbatim (path passthrough) rather than another template to translate
// and inline.
const HostSourceExt = ".go"

// IncludeHandler resolves an absolute template path into a fully
// translated child block, invoked by the Resolver for each include("path")
// call it finds.
type IncludeHandler func(resolvedPath string) (*CompiledBlock, error)

// Resolver recursively inlines include("path") calls found in a
// CompiledBlock's AST, tracking the transitive dependency set in
// first-occurrence order. pongo2 has no macro-expansion analogue for
// this, but its template-loading shape (TemplateLoader.Abs /
// LocalFilesystemLoader, from template_sets.go and virtfs.go) supplies
// the path-resolution idiom this adapts.
type Resolver struct {
	// Roots is the template-root list used to resolve a "/"-prefixed
	// include path, tried in order.
	Roots []string

	Handler IncludeHandler

	// FSet is the token.FileSet every included CompiledBlock is parsed
	// against, so positions stay meaningful once child statements are
	// spliced into the parent tree. See ast.go's CompiledBlock.Parse.
	FSet *token.FileSet

	deps    []string
	depSeen map[string]bool
	stack   []string
}

// NewResolver builds a Resolver rooted at roots, invoking handler to
// translate each included file. Included blocks are parsed against fset,
// the same FileSet the caller parsed the top-level block with.
func NewResolver(roots []string, handler IncludeHandler, fset *token.FileSet) *Resolver {
	return &Resolver{
		Roots:   roots,
		Handler: handler,
		FSet:    fset,
		depSeen: make(map[string]bool),
	}
}

// Deps returns the transitive dependency set, in first-occurrence order.
func (r *Resolver) Deps() []string {
	return r.deps
}

// Resolve walks block in place, replacing every include("path") call it
// finds (as a standalone expression statement — the only shape from
// which a statement block can syntactically replace an expression) with
// the included file's translated statements, recursing into included
// blocks and into every nested statement block (if/for/range/switch
// bodies) of the original.
func (r *Resolver) Resolve(currentFile string, block *ast.BlockStmt) error {
	r.stack = append(r.stack, currentFile)
	defer func() { r.stack = r.stack[:len(r.stack)-1] }()
	return r.resolveList(currentFile, &block.List)
}

func (r *Resolver) resolveList(currentFile string, list *[]ast.Stmt) error {
	out := make([]ast.Stmt, 0, len(*list))
	for _, stmt := range *list {
		path, lit, isInclude := includeStmtCall(stmt)
		if !isInclude {
			if err := r.descend(currentFile, stmt); err != nil {
				return err
			}
			out = append(out, stmt)
			continue
		}

		resolved := r.resolvePath(currentFile, path)

		if strings.HasSuffix(path, HostSourceExt) {
			lit.Value = strconv.Quote(resolved)
			out = append(out, stmt)
			continue
		}

		child, err := r.Handler(resolved)
		if err != nil {
			return r.wrapIncludeError(path, err)
		}

		childAST, err := child.Parse(r.FSet)
		if err != nil {
			return r.wrapIncludeError(path, err)
		}

		r.stack = append(r.stack, resolved)
		if err := r.resolveList(resolved, &childAST.List); err != nil {
			r.stack = r.stack[:len(r.stack)-1]
			return err
		}
		r.stack = r.stack[:len(r.stack)-1]

		if !r.depSeen[resolved] {
			r.depSeen[resolved] = true
			r.deps = append(r.deps, resolved)
		}

		out = append(out, childAST.List...)
	}
	*list = out
	return nil
}

// descend recurses into the nested statement blocks a statement may
// carry, mutating them in place.
func (r *Resolver) descend(currentFile string, stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		return r.resolveList(currentFile, &s.List)
	case *ast.IfStmt:
		if err := r.resolveList(currentFile, &s.Body.List); err != nil {
			return err
		}
		if s.Else != nil {
			return r.descend(currentFile, s.Else)
		}
	case *ast.ForStmt:
		return r.resolveList(currentFile, &s.Body.List)
	case *ast.RangeStmt:
		return r.resolveList(currentFile, &s.Body.List)
	case *ast.SwitchStmt:
		for _, c := range s.Body.List {
			if cc, ok := c.(*ast.CaseClause); ok {
				if err := r.resolveList(currentFile, &cc.Body); err != nil {
					return err
				}
			}
		}
	case *ast.TypeSwitchStmt:
		for _, c := range s.Body.List {
			if cc, ok := c.(*ast.CaseClause); ok {
				if err := r.resolveList(currentFile, &cc.Body); err != nil {
					return err
				}
			}
		}
	case *ast.SelectStmt:
		for _, c := range s.Body.List {
			if cc, ok := c.(*ast.CommClause); ok {
				if err := r.resolveList(currentFile, &cc.Body); err != nil {
					return err
				}
			}
		}
	case *ast.LabeledStmt:
		return r.descend(currentFile, s.Stmt)
	}
	return nil
}

// resolvePath resolves an include path: a "/"-prefixed path resolves
// against the template-root list (the first root holding the file wins,
// falling back to the first root when none does); otherwise it resolves
// relative to currentFile's directory.
func (r *Resolver) resolvePath(currentFile, path string) string {
	if strings.HasPrefix(path, "/") {
		rel := strings.TrimPrefix(path, "/")
		for _, root := range r.Roots {
			candidate := filepath.Join(root, rel)
			if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
				return candidate
			}
		}
		if len(r.Roots) > 0 {
			return filepath.Join(r.Roots[0], rel)
		}
		return path
	}
	return filepath.Join(filepath.Dir(currentFile), path)
}

func (r *Resolver) wrapIncludeError(path string, err error) error {
	return Chain(err, KindAnalyzeError, "failed to include "+path)
}

// includeStmtCall reports whether stmt is a bare `include("path")`
// expression statement, returning the path and the *ast.BasicLit so a
// host-source passthrough can rewrite it in place.
func includeStmtCall(stmt ast.Stmt) (path string, lit *ast.BasicLit, ok bool) {
	exprStmt, isExpr := stmt.(*ast.ExprStmt)
	if !isExpr {
		return "", nil, false
	}
	call, isCall := exprStmt.X.(*ast.CallExpr)
	if !isCall {
		return "", nil, false
	}
	ident, isIdent := call.Fun.(*ast.Ident)
	if !isIdent || ident.Name != "include" || len(call.Args) != 1 {
		return "", nil, false
	}
	basicLit, isLit := call.Args[0].(*ast.BasicLit)
	if !isLit || basicLit.Kind != token.STRING {
		return "", nil, false
	}
	s, err := strconv.Unquote(basicLit.Value)
	if err != nil {
		return "", nil, false
	}
	return s, basicLit, true
}
