package jsgen

import (
	"strings"

	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// block emits b. When ret is set the trailing expression is returned.
func (g *generator) block(b *syntax.BlockStmt, ret bool) {
	if b == nil || len(b.Stmts) == 0 {
		g.e.write("{}")
		return
	}
	g.e.write("{")
	g.e.indent++
	g.stmts(b.Stmts, ret)
	g.e.indent--
	g.e.newline()
	g.e.write("}")
}

func (g *generator) stmts(list []syntax.Stmt, ret bool) {
	last := len(list) - 1
	for last >= 0 {
		if _, ok := list[last].(*syntax.EmptyStmt); !ok {
			break
		}
		last--
	}
	for i, s := range list {
		if _, ok := s.(*syntax.EmptyStmt); ok {
			continue
		}
		g.e.newline()
		g.stmt(s, ret && i == last)
	}
}

func (g *generator) stmt(s syntax.Stmt, tail bool) {
	g.e.mark(s.Pos(), "")
	switch s := s.(type) {
	case *syntax.ExprStmt:
		if tail && !s.Semi {
			g.ret(s.X)
			return
		}
		g.stmtExpr(s.X)
	case *syntax.LetStmt:
		g.letStmt(s)
	case *syntax.AssignStmt:
		g.assign(s)
	case *syntax.ReturnStmt:
		if s.Result == nil {
			g.e.write("return;")
			return
		}
		g.ret(s.Result)
	case *syntax.IfStmt:
		g.ifStmt(s, tail)
	case *syntax.WhileStmt:
		g.e.write("while")
		g.e.sp()
		g.e.write("(")
		g.expr(s.Cond)
		g.e.write(")")
		g.e.sp()
		g.block(s.Body, false)
	case *syntax.LoopStmt:
		g.e.write("while")
		g.e.sp()
		g.e.write("(true)")
		g.e.sp()
		g.block(s.Body, false)
	case *syntax.ForStmt:
		g.forStmt(s)
	case *syntax.BranchStmt:
		if s.Tok == syntax.Continue {
			g.e.write("continue;")
		} else {
			g.e.write("break;")
		}
	case *syntax.BlockStmt:
		g.block(s, tail)
	case *syntax.BadStmt:
		g.e.write(";")
	}
}

// ret emits a statement returning the value of x. Block-like
// expressions are lowered to statements that return from each branch.
func (g *generator) ret(x syntax.Expr) {
	switch x := unparen(x).(type) {
	case *syntax.MatchExpr:
		g.matchStmt(x, true)
		return
	case *syntax.BlockExpr:
		g.block(x.Block, true)
		return
	case *syntax.MacroCall:
		if x.Name.Value == "panic" || x.Name.Value == "unreachable" || x.Name.Value == "todo" {
			g.throw(x.Args)
			return
		}
	case *syntax.CallExpr:
		if b := g.builtinOf(x.Fun); b != nil && b.Kind() == types.BuiltinPanic {
			g.throw(x.Args)
			return
		}
	}
	g.e.write("return ")
	g.expr(x)
	g.e.write(";")
}

// stmtExpr emits an expression evaluated for its effect.
func (g *generator) stmtExpr(x syntax.Expr) {
	switch x := unparen(x).(type) {
	case *syntax.MatchExpr:
		g.matchStmt(x, false)
		return
	case *syntax.BlockExpr:
		g.block(x.Block, false)
		return
	case *syntax.Ternary:
		if isBlockLike(x.Then) || isBlockLike(x.Else) {
			g.e.write("if")
			g.e.sp()
			g.e.write("(")
			g.expr(x.Cond)
			g.e.write(")")
			g.e.sp()
			g.branchStmt(x.Then)
			g.e.write(" else ")
			g.branchStmt(x.Else)
			return
		}
	case *syntax.MacroCall:
		if x.Name.Value == "panic" || x.Name.Value == "unreachable" || x.Name.Value == "todo" {
			g.throw(x.Args)
			return
		}
	case *syntax.CallExpr:
		if b := g.builtinOf(x.Fun); b != nil && b.Kind() == types.BuiltinPanic {
			g.throw(x.Args)
			return
		}
	}
	g.expr(x)
	g.e.write(";")
}

func isBlockLike(x syntax.Expr) bool {
	switch unparen(x).(type) {
	case *syntax.BlockExpr, *syntax.MatchExpr:
		return true
	}
	return false
}

func (g *generator) branchStmt(x syntax.Expr) {
	if b, ok := unparen(x).(*syntax.BlockExpr); ok {
		g.block(b.Block, false)
		return
	}
	g.e.write("{")
	g.e.indent++
	g.e.newline()
	g.stmtExpr(x)
	g.e.indent--
	g.e.newline()
	g.e.write("}")
}

// throw emits a statement raising an error built from a panic message.
func (g *generator) throw(args []syntax.Expr) {
	g.e.write("throw new Error(")
	if len(args) == 0 {
		g.e.write(quoteJS("explicit panic"))
	} else {
		g.format(args)
	}
	g.e.write(");")
}

func (g *generator) ifStmt(s *syntax.IfStmt, ret bool) {
	g.e.write("if")
	g.e.sp()
	g.e.write("(")
	g.expr(s.Cond)
	g.e.write(")")
	g.e.sp()
	g.block(s.Then, ret)
	switch els := s.Else.(type) {
	case *syntax.IfStmt:
		g.e.write(" else ")
		g.ifStmt(els, ret)
	case *syntax.BlockStmt:
		g.e.write(" else")
		g.e.sp()
		g.block(els, ret)
	}
}

func (g *generator) letStmt(s *syntax.LetStmt) {
	kw := "const "
	if s.Mut || s.Value == nil || patMut(s.Pat) {
		kw = "let "
	}
	switch p := s.Pat.(type) {
	case *syntax.WildcardPat:
		if s.Value != nil {
			g.stmtExpr(s.Value)
		}
		return
	case *syntax.IdentPat, *syntax.TuplePat:
		g.e.write(kw)
		g.bindingPattern(p)
		if s.Value == nil {
			g.e.write(";")
			return
		}
		g.e.sp()
		g.e.write("=")
		g.e.sp()
		g.expr(s.Value)
		g.e.write(";")
		return
	}
	// Refutable or structured patterns bind through a temporary.
	subject := g.tmp("v")
	g.e.write("const " + subject)
	g.e.sp()
	g.e.write("=")
	g.e.sp()
	g.expr(s.Value)
	g.e.write(";")
	var binds []binding
	g.patternBinds(s.Pat, subject, g.info.TypeOf(s.Value), &binds)
	for _, b := range binds {
		g.e.newline()
		g.e.write(kw + b.name)
		g.e.sp()
		g.e.write("=")
		g.e.sp()
		g.e.write(b.value + ";")
	}
}

func patMut(p syntax.Pattern) bool {
	switch p := p.(type) {
	case *syntax.IdentPat:
		return p.Mut
	case *syntax.TuplePat:
		for _, e := range p.Elems {
			if patMut(e) {
				return true
			}
		}
	}
	return false
}

// bindingPattern emits an irrefutable pattern as a declaration target.
func (g *generator) bindingPattern(p syntax.Pattern) {
	switch p := p.(type) {
	case *syntax.IdentPat:
		g.e.mark(p.Name.Pos(), p.Name.Value)
		g.e.write(g.ident(p.Name.Value))
	case *syntax.TuplePat:
		g.e.write("[")
		for i, e := range p.Elems {
			if i > 0 {
				g.e.write(",")
				g.e.sp()
			}
			g.bindingPattern(e)
		}
		g.e.write("]")
	case *syntax.RefPat:
		g.bindingPattern(p.Pat)
	case *syntax.WildcardPat:
		g.e.write(g.tmp("_"))
	default:
		g.e.write(g.tmp("_"))
	}
}

func (g *generator) assign(s *syntax.AssignStmt) {
	lhs := g.capture(func() { g.expr(derefTarget(s.Lhs)) })
	if op, ok := intDivAssign(s.Op); ok && types.IsInteger(types.DefaultType(g.info.TypeOf(s.Lhs))) {
		g.e.write(lhs)
		g.e.sp()
		g.e.write("=")
		g.e.sp()
		g.e.write("Math.trunc(" + lhs + " " + op + " ")
		g.operand(s.Rhs, syntax.Mul, true)
		g.e.write(");")
		return
	}
	g.e.write(lhs)
	g.e.sp()
	g.e.write(s.Op.String())
	g.e.sp()
	g.expr(s.Rhs)
	g.e.write(";")
}

func intDivAssign(op syntax.Token) (string, bool) {
	if op == syntax.DivAssign {
		return "/", true
	}
	return "", false
}

// derefTarget strips an explicit dereference from an assignment target.
func derefTarget(e syntax.Expr) syntax.Expr {
	if op, ok := e.(*syntax.Operation); ok && op.Op == syntax.Mul && op.Y == nil {
		return op.X
	}
	return e
}

// forStmt lowers ranges to counted loops and, for V8, iterates arrays
// with a cached length.
func (g *generator) forStmt(s *syntax.ForStmt) {
	if r, ok := unparen(s.Iter).(*syntax.RangeExpr); ok && r.Lo != nil && r.Hi != nil {
		name := g.loopVar(s.Pat)
		cmp := "<"
		if r.Inclusive {
			cmp = "<="
		}
		g.e.write("for")
		g.e.sp()
		g.e.write("(let " + name)
		g.e.sp()
		g.e.write("=")
		g.e.sp()
		g.expr(r.Lo)
		g.e.write(";")
		g.e.sp()
		g.e.write(name)
		g.e.sp()
		g.e.write(cmp)
		g.e.sp()
		g.operand(r.Hi, syntax.Lss, true)
		g.e.write(";")
		g.e.sp()
		g.e.write(name + "++)")
		g.e.sp()
		g.block(s.Body, false)
		return
	}

	iterType := g.info.TypeOf(s.Iter)
	if g.cfg.V8 && types.IsSequence(types.Deref(iterType)) {
		g.cachedLoop(s)
		return
	}
	g.e.write("for")
	g.e.sp()
	g.e.write("(const ")
	g.bindingPattern(s.Pat)
	g.e.write(" of ")
	g.expr(s.Iter)
	g.e.write(")")
	g.e.sp()
	g.block(s.Body, false)
}

func (g *generator) loopVar(p syntax.Pattern) string {
	if id, ok := p.(*syntax.IdentPat); ok {
		return g.ident(id.Name.Value)
	}
	return g.tmp("i")
}

// cachedLoop emits
//
//	for (let $i = 0, $xs_length = xs.length; $i < $xs_length; $i++) {
//	  const x = xs[$i];
//	  ...
//	}
func (g *generator) cachedLoop(s *syntax.ForStmt) {
	arr := ""
	if n, ok := unparen(s.Iter).(*syntax.Name); ok {
		arr = g.ident(n.Value)
	} else {
		arr = g.tmp("a")
		g.e.write("const " + arr)
		g.e.sp()
		g.e.write("=")
		g.e.sp()
		g.expr(s.Iter)
		g.e.write(";")
		g.e.newline()
	}
	idx := g.tmp("i")
	length := "$" + strings.TrimPrefix(arr, "$") + "_length"
	g.e.write("for")
	g.e.sp()
	g.e.write("(let " + idx)
	g.e.sp()
	g.e.write("=")
	g.e.sp()
	g.e.write("0,")
	g.e.sp()
	g.e.write(length)
	g.e.sp()
	g.e.write("=")
	g.e.sp()
	g.e.write(arr + ".length;")
	g.e.sp()
	g.e.write(idx)
	g.e.sp()
	g.e.write("<")
	g.e.sp()
	g.e.write(length + ";")
	g.e.sp()
	g.e.write(idx + "++)")
	g.e.sp()
	g.e.write("{")
	g.e.indent++
	g.e.newline()
	g.e.write("const ")
	g.bindingPattern(s.Pat)
	g.e.sp()
	g.e.write("=")
	g.e.sp()
	g.e.write(arr + "[" + idx + "];")
	if s.Body != nil {
		g.stmts(s.Body.Stmts, false)
	}
	g.e.indent--
	g.e.newline()
	g.e.write("}")
}

// ----------------------------------------------------------------------------
// Match

// matchStmt lowers a match to a labeled block of guarded tests. With ret
// set every arm returns its value; otherwise arms leave the block.
func (g *generator) matchStmt(m *syntax.MatchExpr, ret bool) {
	label := g.tmp("m")
	subject := ""
	if n, ok := unparen(m.X).(*syntax.Name); ok {
		subject = g.capture(func() { g.name(n) })
	}
	g.e.write(strings.TrimPrefix(label, "$") + ":")
	g.e.sp()
	g.e.write("{")
	g.e.indent++
	if subject == "" {
		subject = label
		g.e.newline()
		g.e.write("const " + subject)
		g.e.sp()
		g.e.write("=")
		g.e.sp()
		g.expr(m.X)
		g.e.write(";")
	}
	st := g.info.TypeOf(m.X)
	for _, arm := range m.Arms {
		cond := g.patternCond(arm.Pat, subject, st)
		var binds []binding
		g.patternBinds(arm.Pat, subject, st, &binds)
		g.e.newline()
		g.e.mark(arm.Pos(), "")
		open := cond != "" || arm.Guard != nil
		if cond != "" {
			g.e.write("if")
			g.e.sp()
			g.e.write("(" + cond + ")")
			g.e.sp()
		}
		g.e.write("{")
		g.e.indent++
		for _, b := range binds {
			g.e.newline()
			g.e.write("const " + b.name)
			g.e.sp()
			g.e.write("=")
			g.e.sp()
			g.e.write(b.value + ";")
		}
		if arm.Guard != nil {
			g.e.newline()
			g.e.write("if")
			g.e.sp()
			g.e.write("(")
			g.expr(arm.Guard)
			g.e.write(")")
			g.e.sp()
			g.e.write("{")
			g.e.indent++
		}
		g.armBody(arm.Body, ret, strings.TrimPrefix(label, "$"))
		if arm.Guard != nil {
			g.e.indent--
			g.e.newline()
			g.e.write("}")
		}
		g.e.indent--
		g.e.newline()
		g.e.write("}")
		if !open {
			break // irrefutable arm
		}
	}
	g.e.indent--
	g.e.newline()
	g.e.write("}")
}

func (g *generator) armBody(body syntax.Expr, ret bool, label string) {
	if ret {
		g.e.newline()
		g.ret(body)
		return
	}
	if b, ok := unparen(body).(*syntax.BlockExpr); ok {
		if b.Block != nil {
			g.stmts(b.Block.Stmts, false)
		}
	} else {
		g.e.newline()
		g.stmtExpr(body)
	}
	g.e.newline()
	g.e.write("break " + label + ";")
}
