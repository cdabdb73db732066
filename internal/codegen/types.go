package codegen

import (
	"fmt"
	"strings"

	"github.com/windjammer-lang/wj/internal/analysis"
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// libraryNames maps WJ spellings of library types to Rust.
var libraryNames = map[string]string{
	"Map": "HashMap",
	"Set": "HashSet",
}

// rustName returns the Rust spelling of a single-segment type name.
func (g *generator) rustName(name string) string {
	if n, ok := libraryNames[name]; ok {
		g.need(n)
		return n
	}
	if tn, ok := types.Universe.Lookup(name).(*types.TypeName); ok {
		if b, ok := tn.Type().(*types.Basic); ok {
			return b.RustName()
		}
	}
	g.need(name)
	return name
}

// syntaxType renders a written type.
func (g *generator) syntaxType(t syntax.Type) string {
	switch t := t.(type) {
	case nil:
		return "_"
	case *syntax.NamedType:
		var name string
		if len(t.Path) == 1 {
			name = g.rustName(t.Path[0])
		} else {
			name = strings.Join(t.Path, "::")
		}
		if t.Dyn {
			name = "dyn " + name
		}
		if len(t.Args) == 0 && len(t.Assoc) == 0 {
			return name
		}
		args := make([]string, 0, len(t.Args)+len(t.Assoc))
		for _, a := range t.Args {
			args = append(args, g.syntaxType(a))
		}
		for _, a := range t.Assoc {
			args = append(args, a.Name+" = "+g.syntaxType(a.Type))
		}
		return name + "<" + strings.Join(args, ", ") + ">"
	case *syntax.RefType:
		elem := g.syntaxType(t.Elem)
		if elem == "String" {
			elem = "str"
		}
		if t.Mut {
			return "&mut " + elem
		}
		return "&" + elem
	case *syntax.TupleType:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = g.syntaxType(e)
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *syntax.ArrayType:
		elem := g.syntaxType(t.Elem)
		if t.Len == nil {
			return "Vec<" + elem + ">"
		}
		return "[" + elem + "; " + g.capture(func() { g.expr(t.Len) }) + "]"
	case *syntax.FuncType:
		params := make([]string, len(t.Params))
		for i, p := range t.Params {
			params[i] = g.syntaxType(p)
		}
		s := "fn(" + strings.Join(params, ", ") + ")"
		if t.Result != nil {
			s += " -> " + g.syntaxType(t.Result)
		}
		return s
	case *syntax.InferType:
		return "_"
	}
	return "_"
}

// rustType renders a resolved type. Implicit type parameters take their
// emitted generic name, or their concrete type, from the current
// signature.
func (g *generator) rustType(t types.Type) string {
	switch t := t.(type) {
	case nil:
		return "_"
	case *types.Basic:
		b := types.DefaultType(t).(*types.Basic)
		return b.RustName()
	case *types.Array:
		if t.IsVec() {
			return "Vec<" + g.rustType(t.Elem()) + ">"
		}
		return fmt.Sprintf("[%s; %d]", g.rustType(t.Elem()), t.Len())
	case *types.Tuple:
		parts := make([]string, len(t.Elems()))
		for i, e := range t.Elems() {
			parts[i] = g.rustType(e)
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *types.Ref:
		elem := g.rustType(t.Elem())
		if elem == "String" {
			elem = "str"
		}
		if t.Mut() {
			return "&mut " + elem
		}
		return "&" + elem
	case *types.Func:
		params := make([]string, len(t.Params()))
		for i, p := range t.Params() {
			params[i] = g.rustType(p.Type())
		}
		s := "fn(" + strings.Join(params, ", ") + ")"
		if r := t.Result(); r != nil && !types.IsUnit(r) {
			s += " -> " + g.rustType(r)
		}
		return s
	case *types.TypeParam:
		if g.sig != nil {
			if c, ok := g.sig.Concrete[t.Name()]; ok {
				return g.rustType(c)
			}
			return g.sig.Generic(t.Name())
		}
		if t.Implicit() {
			return "_"
		}
		return t.Name()
	case *types.Named:
		name := g.rustName(t.Obj().Name())
		args := t.TypeArgs()
		if len(args) == 0 {
			return name
		}
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = g.rustType(a)
		}
		return name + "<" + strings.Join(parts, ", ") + ">"
	}
	return "_"
}

// knownType reports whether t is determined well enough to be written
// in the output.
func knownType(t types.Type) bool {
	switch t := t.(type) {
	case nil:
		return false
	case *types.Basic:
		return !types.IsInvalid(t)
	case *types.Array:
		return knownType(t.Elem())
	case *types.Ref:
		return knownType(t.Elem())
	case *types.Tuple:
		for _, e := range t.Elems() {
			if !knownType(e) {
				return false
			}
		}
		return true
	case *types.Named:
		for _, a := range t.TypeArgs() {
			if !knownType(a) {
				return false
			}
		}
		return true
	}
	return true
}

// paramType renders the type of a non-self parameter in the form its
// mode asks for: &T for shared borrows (&str and &[T] for strings and
// vectors), &mut T for exclusive borrows and T otherwise.
func (g *generator) paramType(p *syntax.Param, ap *analysis.Param) string {
	if _, ok := p.Type.(*syntax.RefType); ok {
		return g.syntaxType(p.Type)
	}
	var t types.Type
	if ap != nil {
		t = ap.Var.Type()
	}
	base := g.rustType(t)
	if p.Type != nil {
		base = g.syntaxType(p.Type)
	}
	mode := analysis.Owned
	if ap != nil {
		mode = ap.Mode
	} else {
		switch p.Mode {
		case syntax.ModeRef:
			mode = analysis.Shared
		case syntax.ModeMutRef:
			mode = analysis.Exclusive
		}
	}
	switch mode {
	case analysis.Shared:
		return "&" + borrowed(base, t)
	case analysis.Exclusive:
		return "&mut " + base
	}
	return base
}

// borrowed returns the borrowed form of an owned type: str for String
// and a slice for vectors.
func borrowed(base string, t types.Type) string {
	if base == "String" {
		return "str"
	}
	if _, ok := vecElem(t); ok && strings.HasPrefix(base, "Vec<") && strings.HasSuffix(base, ">") {
		return "[" + base[len("Vec<"):len(base)-1] + "]"
	}
	return base
}

// vecElem returns the element type of a growable vector type.
func vecElem(t types.Type) (types.Type, bool) {
	switch t := t.(type) {
	case *types.Array:
		if t.IsVec() {
			return t.Elem(), true
		}
	case *types.Named:
		if types.IsLibrary(t, "Vec") {
			return t.TypeArg(0), true
		}
	}
	return nil, false
}

// selfParam renders the receiver of a method.
func selfParam(p *syntax.Param, ap *analysis.Param) string {
	if ap != nil && !ap.Written {
		switch ap.Mode {
		case analysis.Exclusive:
			return "&mut self"
		case analysis.Owned, analysis.Copy:
			if ap.Mut {
				return "mut self"
			}
			return "self"
		}
		return "&self"
	}
	switch p.Mode {
	case syntax.ModeMutRef:
		return "&mut self"
	case syntax.ModeMut:
		return "mut self"
	case syntax.ModeNone:
		if ap != nil && ap.Mode.ByValue() {
			return "self"
		}
	}
	return "&self"
}

// isMap reports whether t is one of the hash or tree maps.
func isMap(t types.Type) bool {
	for _, name := range []string{"HashMap", "Map", "BTreeMap"} {
		if types.IsLibrary(t, name) {
			return true
		}
	}
	return false
}
