package opt

import "github.com/windjammer-lang/wj/internal/syntax"

// lowerPatterns rewrites two-armed matches over bool into conditional
// expressions:
//
//	match c { true => a, false => b }  =>  if c { a } else { b }
func lowerPatterns(u *Unit) int {
	changed := 0
	rewrite(u.File, func(e syntax.Expr) syntax.Expr {
		m, ok := e.(*syntax.MatchExpr)
		if !ok || len(m.Arms) != 2 {
			return nil
		}
		then, els := boolArms(m.Arms[0], m.Arms[1])
		if then == nil {
			return nil
		}
		changed++
		t := syntax.NewTernary(m.X, then, els)
		t.SetPos(m.Pos(), m.End())
		return t
	})
	return changed
}

// boolArms returns the bodies taken on true and on false, or nils when
// the arms are not a plain true/false split.
func boolArms(a, b *syntax.MatchArm) (then, els syntax.Expr) {
	if a.Guard != nil || b.Guard != nil {
		return nil, nil
	}
	av, aok := boolPat(a.Pat)
	bv, bok := boolPat(b.Pat)
	if !aok || !bok {
		return nil, nil
	}
	switch {
	case av == "true" && (bv == "false" || bv == "_"):
		return a.Body, b.Body
	case av == "false" && (bv == "true" || bv == "_"):
		return b.Body, a.Body
	}
	return nil, nil
}

func boolPat(p syntax.Pattern) (string, bool) {
	switch p := p.(type) {
	case *syntax.WildcardPat:
		return "_", true
	case *syntax.LitPat:
		if p.Lit.Kind == syntax.BoolLit && !p.Neg {
			return p.Lit.Value, true
		}
	}
	return "", false
}

// hoistReturns turns a statement if whose branches each only return a
// value into a single return of a conditional expression:
//
//	if c { return a } else { return b }  =>  return if c { a } else { b }
func hoistReturns(u *Unit) int {
	changed := 0
	for _, fn := range funcs(u.File) {
		if fn.Body == nil {
			continue
		}
		blocks(fn.Body, func(b *syntax.BlockStmt) {
			for i, s := range b.Stmts {
				if r := returnIf(s); r != nil {
					b.Stmts[i] = r
					changed++
				}
			}
		})
	}
	return changed
}

func returnIf(s syntax.Stmt) *syntax.ReturnStmt {
	is, ok := s.(*syntax.IfStmt)
	if !ok {
		return nil
	}
	then := onlyReturn(is.Then)
	els, _ := is.Else.(*syntax.BlockStmt)
	if then == nil || els == nil {
		return nil
	}
	other := onlyReturn(els)
	if other == nil {
		return nil
	}
	r := syntax.NewReturn(is.Pos(), syntax.NewTernary(is.Cond, then, other))
	r.SetPos(is.Pos(), is.End())
	return r
}

// onlyReturn returns the value of a block holding a single return with
// a result.
func onlyReturn(b *syntax.BlockStmt) syntax.Expr {
	if b == nil || len(b.Stmts) != 1 {
		return nil
	}
	r, ok := b.Stmts[0].(*syntax.ReturnStmt)
	if !ok {
		return nil
	}
	return r.Result
}
