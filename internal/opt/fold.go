package opt

import (
	"math"
	"strconv"

	"github.com/windjammer-lang/wj/internal/syntax"
)

// foldConstants evaluates integer and boolean operations over literal
// operands and simplifies short-circuit operators with one literal
// side. Operations that would overflow or divide by zero are kept so
// they fail at run time as written.
func foldConstants(u *Unit) int {
	changed := 0
	rewrite(u.File, func(e syntax.Expr) syntax.Expr {
		r := fold(e)
		if r == nil {
			return nil
		}
		changed++
		return r
	})
	return changed
}

// fold returns the folded form of e, or nil if e does not fold.
func fold(e syntax.Expr) syntax.Expr {
	switch e := e.(type) {
	case *syntax.ParenExpr:
		if lit, ok := e.X.(*syntax.BasicLit); ok {
			return lit
		}
	case *syntax.Operation:
		if e.Y == nil {
			return foldUnary(e)
		}
		return foldBinary(e)
	case *syntax.Ternary:
		b, ok := boolLit(e.Cond)
		if !ok {
			return nil
		}
		if b && e.Then != nil {
			return e.Then
		}
		if !b && e.Else != nil {
			return e.Else
		}
	}
	return nil
}

func foldUnary(e *syntax.Operation) syntax.Expr {
	switch e.Op {
	case syntax.Sub:
		if x, ok := intLit(e.X); ok && x != math.MinInt64 {
			return intResult(e, -x)
		}
	case syntax.Not:
		if b, ok := boolLit(e.X); ok {
			return boolResult(e, !b)
		}
	}
	return nil
}

func foldBinary(e *syntax.Operation) syntax.Expr {
	switch e.Op {
	case syntax.AndAnd, syntax.OrOr:
		return foldLogical(e)
	}

	if x, ok := intLit(e.X); ok {
		if y, ok := intLit(e.Y); ok {
			return foldInts(e, x, y)
		}
		return nil
	}
	if x, ok := boolLit(e.X); ok {
		if y, ok := boolLit(e.Y); ok {
			switch e.Op {
			case syntax.Eql:
				return boolResult(e, x == y)
			case syntax.Neq:
				return boolResult(e, x != y)
			}
		}
		return nil
	}
	if x, ok := stringLit(e.X); ok {
		if y, ok := stringLit(e.Y); ok {
			switch e.Op {
			case syntax.Eql:
				return boolResult(e, x == y)
			case syntax.Neq:
				return boolResult(e, x != y)
			}
		}
	}
	return nil
}

// foldLogical applies true && x -> x, false && x -> false,
// true || x -> true, false || x -> x, and the same with a literal right
// operand when dropping it is safe.
func foldLogical(e *syntax.Operation) syntax.Expr {
	and := e.Op == syntax.AndAnd
	if x, ok := boolLit(e.X); ok {
		if x == and {
			return e.Y
		}
		return boolResult(e, x)
	}
	if y, ok := boolLit(e.Y); ok && y == and {
		return e.X
	}
	return nil
}

func foldInts(e *syntax.Operation, x, y int64) syntax.Expr {
	switch e.Op {
	case syntax.Add:
		if r := x + y; (r > x) == (y > 0) || y == 0 {
			return intResult(e, r)
		}
	case syntax.Sub:
		if r := x - y; (r < x) == (y > 0) || y == 0 {
			return intResult(e, r)
		}
	case syntax.Mul:
		if x == 0 || y == 0 {
			return intResult(e, 0)
		}
		r := x * y
		if r/y == x && !(x == -1 && y == math.MinInt64) && !(y == -1 && x == math.MinInt64) {
			return intResult(e, r)
		}
	case syntax.Div:
		if y != 0 && !(x == math.MinInt64 && y == -1) {
			return intResult(e, x/y)
		}
	case syntax.Rem:
		if y != 0 && !(x == math.MinInt64 && y == -1) {
			return intResult(e, x%y)
		}
	case syntax.Eql:
		return boolResult(e, x == y)
	case syntax.Neq:
		return boolResult(e, x != y)
	case syntax.Lss:
		return boolResult(e, x < y)
	case syntax.Leq:
		return boolResult(e, x <= y)
	case syntax.Gtr:
		return boolResult(e, x > y)
	case syntax.Geq:
		return boolResult(e, x >= y)
	}
	return nil
}

func intLit(e syntax.Expr) (int64, bool) {
	lit, ok := unparen(e).(*syntax.BasicLit)
	if !ok || lit.Kind != syntax.IntLit {
		return 0, false
	}
	v, err := strconv.ParseInt(lit.Value, 10, 64)
	return v, err == nil
}

func boolLit(e syntax.Expr) (bool, bool) {
	lit, ok := unparen(e).(*syntax.BasicLit)
	if !ok || lit.Kind != syntax.BoolLit {
		return false, false
	}
	return lit.Value == "true", true
}

func stringLit(e syntax.Expr) (string, bool) {
	lit, ok := unparen(e).(*syntax.BasicLit)
	if !ok || lit.Kind != syntax.StringLit {
		return "", false
	}
	return lit.Value, true
}

func intResult(at syntax.Expr, v int64) *syntax.BasicLit {
	lit := syntax.NewIntLit(at.Pos(), strconv.FormatInt(v, 10))
	lit.SetPos(at.Pos(), at.End())
	return lit
}

func boolResult(at syntax.Expr, v bool) *syntax.BasicLit {
	lit := syntax.NewBoolLit(at.Pos(), v)
	lit.SetPos(at.Pos(), at.End())
	return lit
}
