package opt

import "github.com/windjammer-lang/wj/internal/syntax"

// formatArg maps print-like macros to the index of their format string.
var formatArg = map[string]int{
	"print":    0,
	"println":  0,
	"eprint":   0,
	"eprintln": 0,
	"format":   0,
	"panic":    0,
	"write":    1,
	"writeln":  1,
}

// formatString returns the format string literal of a print-like call,
// or nil.
func formatString(n syntax.Node) *syntax.BasicLit {
	var name string
	var args []syntax.Expr
	switch n := n.(type) {
	case *syntax.MacroCall:
		name, args = n.Name.Value, n.Args
	case *syntax.CallExpr:
		if fn, ok := n.Fun.(*syntax.Name); ok {
			name, args = fn.Value, n.Args
		}
	}
	i, ok := formatArg[name]
	if !ok || i >= len(args) {
		return nil
	}
	lit, _ := args[i].(*syntax.BasicLit)
	return lit
}

// internStrings assigns an interned id to every string literal whose
// value occurs more than once. Format strings, patterns, interpolated
// strings and constant initializers keep their literals.
func internStrings(u *Unit) int {
	skip := make(map[*syntax.BasicLit]bool)
	var lits []*syntax.BasicLit
	syntax.Walk(u.File, func(n syntax.Node) bool {
		switch n := n.(type) {
		case syntax.Pattern, *syntax.ConstDecl, *syntax.Attribute, *syntax.InterpString:
			return false
		case *syntax.BasicLit:
			if n.Kind == syntax.StringLit && !skip[n] {
				lits = append(lits, n)
			}
		default:
			if f := formatString(n); f != nil {
				skip[f] = true
			}
		}
		return true
	})

	count := make(map[string]int)
	for _, l := range lits {
		count[l.Value]++
	}
	ids := make(map[string]int)
	u.Interned = u.Interned[:0]
	changed := 0
	for _, l := range lits {
		id := -1
		if count[l.Value] > 1 {
			var ok bool
			if id, ok = ids[l.Value]; !ok {
				id = len(u.Interned)
				ids[l.Value] = id
				u.Interned = append(u.Interned, l.Value)
			}
		}
		if l.InternID != id {
			l.InternID = id
			changed++
		}
	}
	return changed
}
