package opt

import "github.com/windjammer-lang/wj/internal/syntax"

// insertClones wraps every clone site found by the ownership analysis
// in a .clone() call. The analysis of the rewritten tree finds no site:
// the clone reads its receiver instead of moving it.
func insertClones(u *Unit) int {
	sites := u.Analysis().Clones
	if len(sites) == 0 {
		return 0
	}
	changed := 0
	rewrite(u.File, func(e syntax.Expr) syntax.Expr {
		if !sites[e] {
			return nil
		}
		changed++
		return syntax.NewMethodCall(e, "clone")
	})
	return changed
}

// collapseBorrows simplifies &*x and &mut *x to x, and *&x to x.
func collapseBorrows(u *Unit) int {
	changed := 0
	rewrite(u.File, func(e syntax.Expr) syntax.Expr {
		op, ok := e.(*syntax.Operation)
		if !ok || op.Y != nil {
			return nil
		}
		inner, ok := unparen(op.X).(*syntax.Operation)
		if !ok || inner.Y != nil {
			return nil
		}
		switch {
		case op.Op == syntax.And && inner.Op == syntax.Mul,
			op.Op == syntax.Mul && inner.Op == syntax.And && !inner.Mut:
			changed++
			return inner.X
		}
		return nil
	})
	return changed
}
