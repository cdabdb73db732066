package opt

import "github.com/windjammer-lang/wj/internal/syntax"

// rootAttrs mark items kept regardless of references.
var rootAttrs = []string{"test", "expose", "export", "wasm_bindgen", "entry"}

// shakeTree drops items unreachable from the roots: main, public items
// and items carrying a root attribute. Impl blocks live as long as their
// type; methods of inherent impls are dropped when never referenced.
// Use declarations are always kept.
func shakeTree(u *Unit) int {
	if !u.Cfg.TreeShake {
		return 0
	}
	file := u.File

	live := make(map[syntax.Decl]bool)
	liveMethods := make(map[*syntax.FuncDecl]bool)
	names := make(map[string]bool)
	var work []syntax.Node

	mark := func(n syntax.Node) {
		work = append(work, n)
	}
	for _, d := range file.Items {
		if isRoot(d) {
			live[d] = true
			mark(d)
		}
	}

	for {
		for len(work) > 0 {
			n := work[len(work)-1]
			work = work[:len(work)-1]
			referenced(n, names)
		}
		grew := false
		for _, d := range file.Items {
			switch d := d.(type) {
			case *syntax.ImplDecl:
				if !names[typeName(d.Type)] {
					continue
				}
				if !live[d] {
					live[d] = true
					grew = true
					mark(d.Trait)
					mark(d.Type)
				}
				for _, m := range d.Methods {
					if liveMethods[m] || d.Trait == nil && !names[m.Name.Value] {
						continue
					}
					liveMethods[m] = true
					grew = true
					mark(m)
				}
			default:
				if name := itemName(d); !live[d] && name != "" && names[name] {
					live[d] = true
					grew = true
					mark(d)
				}
			}
		}
		if !grew {
			break
		}
	}

	changed := 0
	items := file.Items[:0]
	for _, d := range file.Items {
		if _, ok := d.(*syntax.UseDecl); ok || live[d] {
			if impl, ok := d.(*syntax.ImplDecl); ok {
				methods := impl.Methods[:0]
				for _, m := range impl.Methods {
					if liveMethods[m] {
						methods = append(methods, m)
					} else {
						changed++
					}
				}
				impl.Methods = methods
			}
			items = append(items, d)
			continue
		}
		changed++
	}
	file.Items = items
	return changed
}

func isRoot(d syntax.Decl) bool {
	var attrs []*syntax.Attribute
	switch d := d.(type) {
	case *syntax.FuncDecl:
		if d.Name.Value == "main" || d.Pub {
			return true
		}
		attrs = d.Attrs
	case *syntax.StructDecl:
		if d.Pub {
			return true
		}
		attrs = d.Attrs
	case *syntax.EnumDecl:
		if d.Pub {
			return true
		}
		attrs = d.Attrs
	case *syntax.TraitDecl:
		if d.Pub {
			return true
		}
		attrs = d.Attrs
	case *syntax.ConstDecl:
		if d.Pub {
			return true
		}
		attrs = d.Attrs
	case *syntax.TypeAliasDecl:
		return d.Pub
	}
	for _, a := range rootAttrs {
		if syntax.HasAttr(attrs, a) {
			return true
		}
	}
	return false
}

func itemName(d syntax.Decl) string {
	switch d := d.(type) {
	case *syntax.FuncDecl:
		return d.Name.Value
	case *syntax.StructDecl:
		return d.Name.Value
	case *syntax.EnumDecl:
		return d.Name.Value
	case *syntax.TraitDecl:
		return d.Name.Value
	case *syntax.ConstDecl:
		return d.Name.Value
	case *syntax.TypeAliasDecl:
		return d.Name.Value
	}
	return ""
}

func typeName(t syntax.Type) string {
	switch t := t.(type) {
	case *syntax.NamedType:
		return t.Name()
	case *syntax.RefType:
		return typeName(t.Elem)
	}
	return ""
}

// referenced adds every identifier and type name mentioned by n.
func referenced(n syntax.Node, names map[string]bool) {
	if n == nil {
		return
	}
	syntax.Inspect(n, func(n syntax.Node) {
		switch n := n.(type) {
		case *syntax.Name:
			names[n.Value] = true
		case *syntax.NamedType:
			for _, p := range n.Path {
				names[p] = true
			}
		case *syntax.MethodCallExpr:
			// Walk skips the method name.
			names[n.Name.Value] = true
		case *syntax.PathExpr:
			for _, s := range n.Segments {
				names[s.Value] = true
			}
		}
	})
}
