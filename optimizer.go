package sailfish

import (
	"fmt"
	"go/ast"
	"go/token"
	"strconv"
	"strings"
)

// Optimizer performs literal whitespace/newline normalization and loop
// hoisting, run bottom-up over a resolved *ast.BlockStmt. pongo2 has no
// compile-time optimizer of its own; this applies pongo2's recursive
// AST-walking idiom (the same shape as Resolver.descend) to a transform
// pongo2 never does.
type Optimizer struct {
	// RMWhitespace enables per-literal whitespace collapsing.
	RMWhitespace bool
	// RMNewline strips every CR/LF from literals.
	RMNewline bool

	flagCounter int
}

// NewOptimizer builds an Optimizer with the given Config.RMWhitespace /
// Config.RMNewline settings.
func NewOptimizer(rmWhitespace, rmNewline bool) *Optimizer {
	return &Optimizer{RMWhitespace: rmWhitespace, RMNewline: rmNewline}
}

// Optimize rewrites block in place.
func (o *Optimizer) Optimize(block *ast.BlockStmt) error {
	return o.rewriteList(&block.List)
}

// rewriteList recurses into every nested statement list first (so inner
// loops hoist before the transform is considered at this level), then
// normalizes literals, then applies loop hoisting across the list.
func (o *Optimizer) rewriteList(list *[]ast.Stmt) error {
	for _, stmt := range *list {
		if err := o.descendInto(stmt); err != nil {
			return err
		}
	}

	if o.RMWhitespace || o.RMNewline {
		o.normalizeLiterals(*list)
	}

	out := make([]ast.Stmt, 0, len(*list))
	for _, stmt := range *list {
		out = o.hoistOne(out, stmt)
	}
	*list = out
	return nil
}

// descendInto walks the nested statement blocks a statement may carry,
// mirroring Resolver.descend.
func (o *Optimizer) descendInto(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		return o.rewriteList(&s.List)
	case *ast.IfStmt:
		if err := o.rewriteList(&s.Body.List); err != nil {
			return err
		}
		if s.Else != nil {
			return o.descendInto(s.Else)
		}
	case *ast.ForStmt:
		return o.rewriteList(&s.Body.List)
	case *ast.RangeStmt:
		return o.rewriteList(&s.Body.List)
	case *ast.SwitchStmt:
		for _, c := range s.Body.List {
			if cc, ok := c.(*ast.CaseClause); ok {
				if err := o.rewriteList(&cc.Body); err != nil {
					return err
				}
			}
		}
	case *ast.TypeSwitchStmt:
		for _, c := range s.Body.List {
			if cc, ok := c.(*ast.CaseClause); ok {
				if err := o.rewriteList(&cc.Body); err != nil {
					return err
				}
			}
		}
	case *ast.SelectStmt:
		for _, c := range s.Body.List {
			if cc, ok := c.(*ast.CommClause); ok {
				if err := o.rewriteList(&cc.Body); err != nil {
					return err
				}
			}
		}
	case *ast.LabeledStmt:
		return o.descendInto(s.Stmt)
	}
	return nil
}

// normalizeLiterals rewrites every RenderText(buf, "...") literal in list
// in place, applying rm_whitespace and/or rm_newline.
func (o *Optimizer) normalizeLiterals(list []ast.Stmt) {
	for _, stmt := range list {
		lit, ok := renderTextLit(stmt)
		if !ok {
			continue
		}
		s, err := unquoteGoString(lit.Value)
		if err != nil {
			continue
		}
		if o.RMWhitespace {
			s = collapseLiteralWhitespace(s)
		}
		if o.RMNewline {
			s = strings.NewReplacer("\r", "", "\n", "").Replace(s)
		}
		lit.Value = strconv.Quote(s)
	}
}

// collapseLiteralWhitespace applies a per-line rule: first line
// right-trimmed, middle lines fully trimmed (dropped if then empty), last
// line left-trimmed, rejoined with a single "\n". A single-line literal is
// returned unchanged.
func collapseLiteralWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= 1 {
		return s
	}

	last := len(lines) - 1
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		switch i {
		case 0:
			out = append(out, strings.TrimRight(line, horizontalWhitespace))
		case last:
			out = append(out, strings.TrimLeft(line, horizontalWhitespace))
		default:
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return strings.Join(out, "\n")
}

// hoistOne appends stmt (or its hoisted expansion) to out. Loop hoisting
// only applies to *ast.ForStmt / *ast.RangeStmt whose body has at least
// two statements, no break/continue at its own depth, and whose first and
// last statements are both RenderText(buf, LIT) calls.
func (o *Optimizer) hoistOne(out []ast.Stmt, stmt ast.Stmt) []ast.Stmt {
	body, ok := loopBody(stmt)
	if !ok || len(body.List) < 2 || hasOwnBreakOrContinue(body) {
		return append(out, stmt)
	}

	firstCall, ok1 := exprStmtCall(body.List[0])
	lastCall, ok2 := exprStmtCall(body.List[len(body.List)-1])
	if !ok1 || !ok2 {
		return append(out, stmt)
	}
	sf, okf := literalTextOf(firstCall)
	sl, okl := literalTextOf(lastCall)
	if !okf || !okl {
		return append(out, stmt)
	}

	// Middle statements survive untouched; the last one becomes the
	// concatenation of this iteration's trailing literal and the next
	// iteration's leading literal, deferring that leading literal's write
	// to the following iteration instead of repeating it.
	middle := append([]ast.Stmt{}, body.List[1:len(body.List)-1]...)

	// The opening literal can only be merged into whatever precedes the
	// loop once we know the loop actually runs -- which isn't knowable
	// before entering it (a for/range's trip count is a runtime fact). So
	// it stays inside the body, written only on the first iteration
	// (guarded by flag, which starts false and flips true on entry); every
	// later iteration instead inherits it from the previous iteration's
	// trailing sl+sf write. That trailing write runs once too many times
	// -- after the last iteration there's no next iteration to consume it
	// -- so it's trimmed by the guarded rollback below, which now only
	// fires when flag is true, i.e. the loop executed at least once. A
	// zero-iteration loop then leaves flag false, skips the rollback, and
	// never wrote sf in the first place: the net output is exactly
	// whatever preceded the loop, unchanged.
	flag := o.nextFlag()
	newBody := make([]ast.Stmt, 0, len(middle)+2)
	newBody = append(newBody, ifNotStmt(flag, renderTextStmt(sf)))
	newBody = append(newBody, setBoolStmt(flag, true))
	newBody = append(newBody, middle...)
	newBody = append(newBody, renderTextStmt(sl+sf))
	body.List = newBody

	out = append(out, declBoolStmt(flag))
	out = append(out, stmt)
	out = append(out, guardedRollbackStmt(flag, len(sf)))
	return out
}

func (o *Optimizer) nextFlag() string {
	o.flagCounter++
	return fmt.Sprintf("__sfhoisted%d", o.flagCounter)
}

// loopBody returns stmt's body if stmt is a for-loop or range-loop.
func loopBody(stmt ast.Stmt) (*ast.BlockStmt, bool) {
	switch s := stmt.(type) {
	case *ast.ForStmt:
		return s.Body, true
	case *ast.RangeStmt:
		return s.Body, true
	default:
		return nil, false
	}
}

// hasOwnBreakOrContinue reports whether body contains a break or continue
// statement belonging to body's own loop -- it does not recurse into
// nested loops/switches/selects, since those own their break/continue.
func hasOwnBreakOrContinue(body *ast.BlockStmt) bool {
	for _, stmt := range body.List {
		if stmtHasOwnBreakOrContinue(stmt) {
			return true
		}
	}
	return false
}

func stmtHasOwnBreakOrContinue(stmt ast.Stmt) bool {
	switch s := stmt.(type) {
	case *ast.BranchStmt:
		return s.Tok == token.BREAK || s.Tok == token.CONTINUE
	case *ast.BlockStmt:
		return hasOwnBreakOrContinue(s)
	case *ast.IfStmt:
		if hasOwnBreakOrContinue(s.Body) {
			return true
		}
		if s.Else != nil {
			return stmtHasOwnBreakOrContinue(s.Else)
		}
		return false
	case *ast.LabeledStmt:
		return stmtHasOwnBreakOrContinue(s.Stmt)
	default:
		// ForStmt, RangeStmt, SwitchStmt, TypeSwitchStmt, SelectStmt own
		// their own break/continue scope; do not recurse into them.
		return false
	}
}

// renderTextLit returns the *ast.BasicLit argument of a
// RenderText(buf, "...") statement, for in-place literal rewriting.
func renderTextLit(stmt ast.Stmt) (*ast.BasicLit, bool) {
	call, ok := exprStmtCall(stmt)
	if !ok {
		return nil, false
	}
	name, ok := sentinelCall(call)
	if !ok || name != "RenderText" || len(call.Args) != 2 {
		return nil, false
	}
	lit, ok := call.Args[1].(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return nil, false
	}
	return lit, true
}

// renderTextStmt builds a sailfishrt.RenderText(buf, s) expression
// statement directly as an *ast.CallExpr, matching the shape the
// translator itself emits.
func renderTextStmt(s string) ast.Stmt {
	return &ast.ExprStmt{X: runtimeCall("RenderText", ast.NewIdent(bufVar), &ast.BasicLit{
		Kind:  token.STRING,
		Value: strconv.Quote(s),
	})}
}

func runtimeCall(method string, args ...ast.Expr) *ast.CallExpr {
	return &ast.CallExpr{
		Fun:  &ast.SelectorExpr{X: ast.NewIdent(runtimeAlias), Sel: ast.NewIdent(method)},
		Args: args,
	}
}

// declBoolStmt emits "name := false".
func declBoolStmt(name string) ast.Stmt {
	return &ast.AssignStmt{
		Lhs: []ast.Expr{ast.NewIdent(name)},
		Tok: token.DEFINE,
		Rhs: []ast.Expr{ast.NewIdent("false")},
	}
}

// setBoolStmt emits "name = true" (or "= false").
func setBoolStmt(name string, value bool) ast.Stmt {
	lit := "false"
	if value {
		lit = "true"
	}
	return &ast.AssignStmt{
		Lhs: []ast.Expr{ast.NewIdent(name)},
		Tok: token.ASSIGN,
		Rhs: []ast.Expr{ast.NewIdent(lit)},
	}
}

// ifNotStmt emits "if !flag { then }".
func ifNotStmt(flag string, then ast.Stmt) ast.Stmt {
	return &ast.IfStmt{
		Cond: &ast.UnaryExpr{Op: token.NOT, X: ast.NewIdent(flag)},
		Body: &ast.BlockStmt{List: []ast.Stmt{then}},
	}
}

// guardedRollbackStmt emits:
//
//	if flag {
//	    __sfbuf.SetLen(__sfbuf.Len() - n)
//	}
func guardedRollbackStmt(flag string, n int) ast.Stmt {
	rollback := &ast.ExprStmt{X: &ast.CallExpr{
		Fun: &ast.SelectorExpr{X: ast.NewIdent(bufVar), Sel: ast.NewIdent("SetLen")},
		Args: []ast.Expr{
			&ast.BinaryExpr{
				X:  &ast.CallExpr{Fun: &ast.SelectorExpr{X: ast.NewIdent(bufVar), Sel: ast.NewIdent("Len")}},
				Op: token.SUB,
				Y:  &ast.BasicLit{Kind: token.INT, Value: strconv.Itoa(n)},
			},
		},
	}}
	return &ast.IfStmt{
		Cond: ast.NewIdent(flag),
		Body: &ast.BlockStmt{List: []ast.Stmt{rollback}},
	}
}
