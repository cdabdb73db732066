package opt

import (
	"github.com/windjammer-lang/wj/internal/resolve"
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// eliminateDeadCode removes statements after an unconditional return,
// break, continue or panic, branches of if statements on a literal
// condition, and let bindings that are never used and whose value is
// pure.
func eliminateDeadCode(u *Unit) int {
	info := u.Info()
	uses := make(map[*types.Var]int)
	for _, obj := range info.Uses {
		if v, ok := obj.(*types.Var); ok {
			uses[v]++
		}
	}

	changed := 0
	for _, fn := range funcs(u.File) {
		if fn.Body == nil {
			continue
		}
		for {
			n := 0
			blocks(fn.Body, func(b *syntax.BlockStmt) {
				n += deadBlock(b, info, uses)
			})
			if n == 0 {
				break
			}
			changed += n
		}
	}
	return changed
}

func deadBlock(b *syntax.BlockStmt, info *resolve.Info, uses map[*types.Var]int) int {
	changed := 0
	out := b.Stmts[:0]
	for i, s := range b.Stmts {
		last := i == len(b.Stmts)-1
		switch s := s.(type) {
		case *syntax.LetStmt:
			if unusedLet(s, info, uses) {
				forget(s.Value, info, uses)
				changed++
				continue
			}
		case *syntax.IfStmt:
			if c, ok := boolLit(s.Cond); ok && !last {
				changed++
				if c {
					out = append(out, s.Then)
				} else if s.Else != nil {
					out = append(out, s.Else)
				}
				continue
			}
		case *syntax.WhileStmt:
			if c, ok := boolLit(s.Cond); ok && !c {
				changed++
				continue
			}
		}
		out = append(out, s)
		if terminates(s) && !last {
			changed += len(b.Stmts) - i - 1
			for _, dead := range b.Stmts[i+1:] {
				forget(dead, info, uses)
			}
			break
		}
	}
	b.Stmts = out
	return changed
}

// unusedLet reports whether s binds only names that are never used and
// evaluates a pure value.
func unusedLet(s *syntax.LetStmt, info *resolve.Info, uses map[*types.Var]int) bool {
	if !pure(s.Value) {
		return false
	}
	switch p := s.Pat.(type) {
	case *syntax.WildcardPat:
		return true
	case *syntax.IdentPat:
		v, ok := info.Defs[p.Name].(*types.Var)
		return ok && uses[v] == 0
	}
	return false
}

// forget drops the uses made by a removed subtree so that bindings it
// referenced can become unused in turn.
func forget(n syntax.Node, info *resolve.Info, uses map[*types.Var]int) {
	if n == nil {
		return
	}
	syntax.Inspect(n, func(n syntax.Node) {
		if name, ok := n.(*syntax.Name); ok {
			if v, ok := info.Uses[name].(*types.Var); ok {
				uses[v]--
			}
		}
	})
}
