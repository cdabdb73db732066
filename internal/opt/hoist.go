package opt

import (
	"github.com/windjammer-lang/wj/internal/resolve"
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// hoistInvariants moves loop-invariant let bindings above their loop.
// A binding is invariant when it is declared at the top level of the
// loop body, is immutable, computes a pure non-trivial value and reads
// no binding that the loop writes or declares. Its name must be
// declared once in the function so that hoisting cannot shadow another
// binding.
func hoistInvariants(u *Unit) int {
	info := u.Info()
	changed := 0
	for _, fn := range funcs(u.File) {
		if fn.Body == nil {
			continue
		}
		decls := make(map[string]int)
		syntax.Inspect(fn.Body, func(n syntax.Node) {
			if p, ok := n.(*syntax.IdentPat); ok {
				decls[p.Name.Value]++
			}
		})
		for _, p := range fn.Params {
			decls[p.Name.Value]++
		}
		h := &hoister{info: info, decls: decls}
		blocks(fn.Body, func(b *syntax.BlockStmt) {
			changed += h.block(b)
		})
	}
	return changed
}

type hoister struct {
	info  *resolve.Info
	decls map[string]int
}

// block hoists out of the loops that are direct statements of b. blocks
// visits inner blocks first, so bindings hoisted out of an inner loop
// can move again out of an outer one.
func (h *hoister) block(b *syntax.BlockStmt) int {
	changed := 0
	var out []syntax.Stmt
	for _, s := range b.Stmts {
		var body *syntax.BlockStmt
		switch s := s.(type) {
		case *syntax.ForStmt:
			body = s.Body
		case *syntax.WhileStmt:
			body = s.Body
		case *syntax.LoopStmt:
			body = s.Body
		}
		if body != nil {
			hoisted := h.loop(s, body)
			out = append(out, hoisted...)
			changed += len(hoisted)
		}
		out = append(out, s)
	}
	b.Stmts = out
	return changed
}

func (h *hoister) loop(loop syntax.Stmt, body *syntax.BlockStmt) []syntax.Stmt {
	writes := h.writes(loop)
	var hoisted []syntax.Stmt
	keep := body.Stmts[:0]
	for _, s := range body.Stmts {
		if let, ok := s.(*syntax.LetStmt); ok && h.invariant(let, writes) {
			hoisted = append(hoisted, let)
			delete(writes, h.info.Defs[let.Name()].(*types.Var))
			continue
		}
		keep = append(keep, s)
	}
	body.Stmts = keep
	return hoisted
}

func (h *hoister) invariant(s *syntax.LetStmt, writes map[*types.Var]bool) bool {
	name := s.Name()
	if name == nil || s.Mut || s.Value == nil || h.decls[name.Value] != 1 {
		return false
	}
	if _, ok := h.info.Defs[name].(*types.Var); !ok {
		return false
	}
	if !pure(s.Value) || !nontrivial(s.Value) {
		return false
	}
	ok := true
	syntax.Inspect(s.Value, func(n syntax.Node) {
		switch n := n.(type) {
		case *syntax.ClosureExpr:
			ok = false
		case *syntax.Name:
			if v, isVar := h.info.Uses[n].(*types.Var); isVar && writes[v] {
				ok = false
			}
		}
	})
	return ok
}

// nontrivial reports whether e computes something worth hoisting.
func nontrivial(e syntax.Expr) bool {
	switch e := unparen(e).(type) {
	case *syntax.Operation:
		return e.Y != nil || e.Op == syntax.Sub || e.Op == syntax.Not
	case *syntax.CastExpr:
		return true
	case *syntax.FieldExpr:
		return nontrivial(e.X)
	}
	return false
}

// writes returns the bindings the loop assigns, mutates, passes to a
// call or declares, including its own pattern variables.
func (h *hoister) writes(loop syntax.Stmt) map[*types.Var]bool {
	w := make(map[*types.Var]bool)
	root := func(e syntax.Expr) {
		for {
			switch x := unparen(e).(type) {
			case *syntax.FieldExpr:
				e = x.X
				continue
			case *syntax.IndexExpr:
				e = x.X
				continue
			case *syntax.Operation:
				if x.Y == nil && x.Op == syntax.Mul {
					e = x.X
					continue
				}
			case *syntax.Name:
				if v, ok := h.info.Uses[x].(*types.Var); ok {
					w[v] = true
				}
			}
			return
		}
	}
	syntax.Inspect(loop, func(n syntax.Node) {
		switch n := n.(type) {
		case *syntax.AssignStmt:
			root(n.Lhs)
		case *syntax.MethodCallExpr:
			root(n.X)
			for _, a := range n.Args {
				root(a)
			}
		case *syntax.CallExpr:
			// The callee may take any argument by exclusive borrow.
			for _, a := range n.Args {
				root(a)
			}
		case *syntax.Operation:
			if n.Y == nil && n.Op == syntax.And && n.Mut {
				root(n.X)
			}
		case *syntax.IdentPat:
			if v, ok := h.info.Defs[n.Name].(*types.Var); ok {
				w[v] = true
			}
		}
	})
	return w
}
