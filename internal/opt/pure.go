package opt

import "github.com/windjammer-lang/wj/internal/syntax"

// pure reports whether evaluating e has no side effects and cannot
// panic. Calls are never pure.
func pure(e syntax.Expr) bool {
	switch e := e.(type) {
	case nil:
		return true
	case *syntax.BasicLit, *syntax.Name, *syntax.PathExpr, *syntax.ClosureExpr:
		return true
	case *syntax.ParenExpr:
		return pure(e.X)
	case *syntax.Operation:
		if e.Y == nil {
			return pure(e.X)
		}
		if e.Op == syntax.Div || e.Op == syntax.Rem {
			lit, ok := unparen(e.Y).(*syntax.BasicLit)
			if !ok || lit.Kind != syntax.IntLit && lit.Kind != syntax.FloatLit || isZero(lit) {
				return false
			}
		}
		return pure(e.X) && pure(e.Y)
	case *syntax.FieldExpr:
		return pure(e.X)
	case *syntax.CastExpr:
		return pure(e.X)
	case *syntax.RangeExpr:
		return pure(e.Lo) && pure(e.Hi)
	case *syntax.TupleLit:
		return allPure(e.Elems)
	case *syntax.ArrayLit:
		return allPure(e.Elems)
	case *syntax.StructLit:
		for _, f := range e.Fields {
			if !pure(f.Value) {
				return false
			}
		}
		return pure(e.Base)
	case *syntax.MacroCall:
		return e.Name.Value == "vec" && allPure(e.Args)
	}
	return false
}

func allPure(list []syntax.Expr) bool {
	for _, e := range list {
		if !pure(e) {
			return false
		}
	}
	return true
}

func isZero(lit *syntax.BasicLit) bool {
	switch lit.Value {
	case "0", "0.0", "0.", "-0", "-0.0":
		return true
	}
	return false
}

// terminates reports whether control never continues past s.
func terminates(s syntax.Stmt) bool {
	switch s := s.(type) {
	case *syntax.ReturnStmt, *syntax.BranchStmt:
		return true
	case *syntax.ExprStmt:
		return panics(s.X)
	}
	return false
}

// panics reports whether e unconditionally aborts: panic, todo,
// unimplemented and unreachable.
func panics(e syntax.Expr) bool {
	var name string
	switch e := unparen(e).(type) {
	case *syntax.MacroCall:
		name = e.Name.Value
	case *syntax.CallExpr:
		if n, ok := e.Fun.(*syntax.Name); ok && n.Value == "panic" {
			return true
		}
	}
	switch name {
	case "panic", "todo", "unimplemented", "unreachable":
		return true
	}
	return false
}
