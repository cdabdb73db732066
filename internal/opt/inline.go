package opt

import (
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// flagInline marks small functions called from exactly one site as
// inline candidates. Inlining itself is left to the target compiler.
func flagInline(u *Unit) int {
	info := u.Info()
	threshold := u.Cfg.InlineThreshold
	if threshold <= 0 {
		threshold = DefaultInlineThreshold
	}

	calls := make(map[*types.FuncObj]int)
	syntax.Inspect(u.File, func(n syntax.Node) {
		var callee *syntax.Name
		switch n := n.(type) {
		case *syntax.CallExpr:
			switch fun := unparen(n.Fun).(type) {
			case *syntax.Name:
				callee = fun
			case *syntax.PathExpr:
				callee = fun.Segments[len(fun.Segments)-1]
			}
		case *syntax.MethodCallExpr:
			callee = n.Name
		}
		if callee == nil {
			return
		}
		if f, ok := info.Uses[callee].(*types.FuncObj); ok {
			calls[f]++
		}
	})

	changed := 0
	for _, fn := range funcs(u.File) {
		obj := info.Funcs[fn]
		want := fn.Body != nil &&
			fn.Name.Value != "main" &&
			obj != nil && calls[obj] == 1 &&
			size(fn.Body) <= threshold &&
			!recursive(fn, obj, info.Uses)
		if fn.Inline != want {
			fn.Inline = want
			changed++
		}
	}
	return changed
}

// size counts the nodes of n.
func size(n syntax.Node) int {
	count := 0
	syntax.Inspect(n, func(syntax.Node) { count++ })
	return count
}

func recursive(fn *syntax.FuncDecl, obj *types.FuncObj, uses map[*syntax.Name]types.Object) bool {
	found := false
	syntax.Inspect(fn.Body, func(n syntax.Node) {
		if name, ok := n.(*syntax.Name); ok && uses[name] == obj {
			found = true
		}
	})
	return found
}
