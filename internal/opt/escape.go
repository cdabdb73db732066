package opt

import (
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// markEscapes flags let bindings whose value never leaves the function.
func markEscapes(u *Unit) int {
	info, res := u.Info(), u.Analysis()
	changed := 0
	syntax.Inspect(u.File, func(n syntax.Node) {
		s, ok := n.(*syntax.LetStmt)
		if !ok || s.Name() == nil {
			return
		}
		v, ok := info.Defs[s.Name()].(*types.Var)
		if !ok {
			return
		}
		want := !res.FactsOf(v).Escapes
		if s.NoEscape != want {
			s.NoEscape = want
			changed++
		}
	})
	return changed
}
