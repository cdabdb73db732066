package opt

import (
	"strings"

	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// jsReserved lists the identifiers a short name must never take.
var jsReserved = map[string]bool{
	"do": true, "if": true, "in": true, "as": true, "is": true, "of": true,
	"for": true, "let": true, "new": true, "try": true, "var": true,
	"int": true, "NaN": true, "fn": true, "mod": true, "use": true,
	"enum": true, "case": true, "else": true, "null": true, "this": true,
	"true": true, "void": true, "with": true, "self": true,
}

// minifyLocals renames the locals of each function to the shortest
// free names in declaration order. It runs only for minified
// JavaScript and is idempotent.
func minifyLocals(u *Unit) int {
	if !u.Cfg.JavaScript || !u.Cfg.Minify {
		return 0
	}
	info := u.Info()
	global := make(map[string]bool)
	for _, d := range u.File.Items {
		if name := itemName(d); name != "" {
			global[name] = true
		}
	}
	changed := 0
	for _, fn := range funcs(u.File) {
		if fn.Body == nil {
			continue
		}
		var order []*types.Var
		seen := make(map[*types.Var]bool)
		taken := make(map[string]bool)
		for name := range global {
			taken[name] = true
		}
		for _, h := range holeNames(fn) {
			taken[h] = true
		}
		syntax.Inspect(fn, func(n syntax.Node) {
			name, ok := n.(*syntax.Name)
			if !ok {
				return
			}
			if v, ok := info.Defs[name].(*types.Var); ok && renamable(v) && !taken[v.Name()] {
				if !seen[v] {
					seen[v] = true
					order = append(order, v)
				}
				return
			}
			if _, ok := info.Defs[name]; ok {
				taken[name.Value] = true
				return
			}
			if obj := info.Uses[name]; obj != nil {
				if v, ok := obj.(*types.Var); !ok || !seen[v] {
					taken[name.Value] = true
				}
			}
		})
		names := make(map[*types.Var]string, len(order))
		next := 0
		for _, v := range order {
			var short string
			for {
				short = shortName(next)
				next++
				if !taken[short] && !jsReserved[short] {
					break
				}
			}
			names[v] = short
		}
		syntax.Inspect(fn, func(n syntax.Node) {
			name, ok := n.(*syntax.Name)
			if !ok {
				return
			}
			obj := info.Defs[name]
			if obj == nil {
				obj = info.Uses[name]
			}
			v, ok := obj.(*types.Var)
			if !ok {
				return
			}
			if short, ok := names[v]; ok && name.Value != short {
				name.Value = short
				changed++
			}
		})
	}
	return changed
}

// renamable reports whether v is a local whose name no other code
// refers to by spelling.
func renamable(v *types.Var) bool {
	switch v.Kind() {
	case types.FieldVar, types.ConstVar:
		return false
	}
	if v.Name() == "self" {
		return false
	}
	// The shorthand field pattern Point { x } binds the field name.
	_, short := v.Decl().(*syntax.FieldPat)
	return !short
}

// shortName returns the i-th name of the sequence a, b, ..., z, aa, ab...
func shortName(i int) string {
	var b []byte
	for {
		b = append(b, byte('a'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for l, r := 0, len(b)-1; l < r; l, r = l+1, r-1 {
		b[l], b[r] = b[r], b[l]
	}
	return string(b)
}

// holeNames returns the identifiers referenced by {name} holes of the
// format strings in fn.
func holeNames(fn *syntax.FuncDecl) []string {
	var out []string
	syntax.Inspect(fn, func(n syntax.Node) {
		lit := formatString(n)
		if lit == nil {
			return
		}
		s := lit.Value
		for i := 0; i < len(s); i++ {
			if s[i] != '{' {
				continue
			}
			if i+1 < len(s) && s[i+1] == '{' {
				i++
				continue
			}
			end := strings.IndexAny(s[i:], ":}")
			if end < 0 {
				break
			}
			if name := s[i+1 : i+end]; name != "" && !isDigits(name) {
				out = append(out, name)
			}
			i += end
		}
	})
	return out
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
