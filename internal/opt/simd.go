package opt

import (
	"github.com/windjammer-lang/wj/internal/resolve"
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// hintSIMD flags counted loops whose body only performs element-wise
// numeric stores: for i in lo..hi { a[i] = b[i] * k; ... }.
func hintSIMD(u *Unit) int {
	info := u.Info()
	changed := 0
	syntax.Inspect(u.File, func(n syntax.Node) {
		s, ok := n.(*syntax.ForStmt)
		if !ok {
			return
		}
		want := vectorizable(s, info)
		if s.SIMD != want {
			s.SIMD = want
			changed++
		}
	})
	return changed
}

func vectorizable(s *syntax.ForStmt, info *resolve.Info) bool {
	r, ok := s.Iter.(*syntax.RangeExpr)
	if !ok || r.Lo == nil || r.Hi == nil {
		return false
	}
	pat, ok := s.Pat.(*syntax.IdentPat)
	if !ok || s.Body == nil || len(s.Body.Stmts) == 0 {
		return false
	}
	index := pat.Name.Value
	for _, st := range s.Body.Stmts {
		a, ok := st.(*syntax.AssignStmt)
		if !ok {
			return false
		}
		lhs, ok := a.Lhs.(*syntax.IndexExpr)
		if !ok || !isName(lhs.Index, index) || !types.IsNumeric(types.Deref(info.TypeOf(lhs))) {
			return false
		}
		if !elementwise(a.Rhs, index) {
			return false
		}
	}
	return true
}

// elementwise reports whether e is built from literals, names and
// elements at the loop index with arithmetic operators only.
func elementwise(e syntax.Expr, index string) bool {
	switch e := e.(type) {
	case *syntax.BasicLit:
		return e.Kind == syntax.IntLit || e.Kind == syntax.FloatLit
	case *syntax.Name:
		return true
	case *syntax.ParenExpr:
		return elementwise(e.X, index)
	case *syntax.IndexExpr:
		return isName(e.Index, index) && elementwise(e.X, index)
	case *syntax.FieldExpr:
		return elementwise(e.X, index)
	case *syntax.Operation:
		if e.Y == nil {
			return e.Op == syntax.Sub && elementwise(e.X, index)
		}
		return e.Op.IsArithmetic() && elementwise(e.X, index) && elementwise(e.Y, index)
	}
	return false
}

func isName(e syntax.Expr, name string) bool {
	n, ok := unparen(e).(*syntax.Name)
	return ok && n.Value == name
}
