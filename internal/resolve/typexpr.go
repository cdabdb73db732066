package resolve

import (
	"fmt"
	"strconv"

	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// typExpr resolves a written type.
func (r *resolver) typExpr(t syntax.Type) types.Type {
	switch t := t.(type) {
	case nil:
		return types.Typ[types.Invalid]
	case *syntax.NamedType:
		return r.namedType(t)
	case *syntax.RefType:
		return types.NewRef(r.typExpr(t.Elem), t.Mut)
	case *syntax.TupleType:
		elems := make([]types.Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = r.typExpr(e)
		}
		return types.NewTuple(elems...)
	case *syntax.ArrayType:
		elem := r.typExpr(t.Elem)
		if t.Len == nil {
			return types.NewSlice(elem)
		}
		r.expr(t.Len)
		if lit, ok := t.Len.(*syntax.BasicLit); ok && lit.Kind == syntax.IntLit {
			if n, err := strconv.ParseInt(lit.Value, 10, 64); err == nil {
				return types.NewArray(n, elem)
			}
		}
		return types.NewSlice(elem)
	case *syntax.FuncType:
		params := make([]*types.Var, len(t.Params))
		for i, p := range t.Params {
			params[i] = types.NewParam(p.Pos(), "", r.typExpr(p))
		}
		var result types.Type = types.Typ[types.Unit]
		if t.Result != nil {
			result = r.typExpr(t.Result)
		}
		return types.NewFunc(nil, params, result)
	case *syntax.InferType:
		return types.Typ[types.Invalid]
	}
	return types.Typ[types.Invalid]
}

func (r *resolver) namedType(t *syntax.NamedType) types.Type {
	if len(t.Path) == 0 || t.Path[0] == "_" {
		return types.Typ[types.Invalid]
	}
	args := make([]types.Type, len(t.Args))
	for i, a := range t.Args {
		args[i] = r.typExpr(a)
	}
	for _, a := range t.Assoc {
		r.typExpr(a.Type)
	}

	name := t.Name()
	if len(t.Path) > 1 {
		return r.qualifiedType(t, args)
	}
	obj, _ := r.scope.LookupParent(name)
	switch obj := obj.(type) {
	case *types.TypeName:
		typ := obj.Type()
		if typ == nil {
			return types.Typ[types.Invalid]
		}
		if n, ok := typ.(*types.Named); ok && len(args) > 0 {
			return n.Instantiate(args...)
		}
		return typ
	case nil:
		r.unknownType(t, name)
	default:
		r.bag.Errorf(diag.UnknownType, t.Span(), "expected type, found %s `%s`", objectKind(obj), name)
	}
	return types.Typ[types.Invalid]
}

// qualifiedType resolves std::collections::HashMap<K, V>, Self::Item and
// module::Type. Only predeclared std types resolve to a type; the rest
// are left to the native compiler.
func (r *resolver) qualifiedType(t *syntax.NamedType, args []types.Type) types.Type {
	head := t.Path[0]
	last := t.Name()
	switch head {
	case "std", "core", "alloc":
		if tn, ok := types.Universe.Lookup(last).(*types.TypeName); ok {
			if n, ok := tn.Type().(*types.Named); ok && len(args) > 0 {
				return n.Instantiate(args...)
			}
			return tn.Type()
		}
		return types.Typ[types.Invalid]
	case "crate", "super", "self", "Self":
		return types.Typ[types.Invalid]
	}
	obj, _ := r.scope.LookupParent(head)
	switch obj.(type) {
	case *types.Module, *types.TypeName:
		return types.Typ[types.Invalid]
	case nil:
		if r.modules[head] {
			return types.Typ[types.Invalid]
		}
		r.bag.Errorf(diag.UnknownType, t.Span(), "failed to resolve: use of undeclared type or module `%s`", head)
	}
	return types.Typ[types.Invalid]
}

// bound resolves one trait bound.
func (r *resolver) bound(b syntax.Type) {
	nt, ok := b.(*syntax.NamedType)
	if !ok {
		r.typExpr(b)
		return
	}
	for _, a := range nt.Args {
		r.typExpr(a)
	}
	for _, a := range nt.Assoc {
		r.typExpr(a.Type)
	}
	name := nt.Name()
	if len(nt.Path) > 1 || name == "?Sized" || name == "'static" {
		return
	}
	obj, _ := r.scope.LookupParent(name)
	if tn, ok := obj.(*types.TypeName); ok && tn.IsTrait() {
		return
	}
	if obj == nil {
		r.unknownType(b, name)
		return
	}
	r.bag.Errorf(diag.UnknownType, b.Span(), "expected trait, found %s `%s`", objectKind(obj), name)
}

func (r *resolver) unknownType(at syntax.Node, name string) {
	dg := r.bag.Errorf(diag.UnknownType, at.Span(), "cannot find type `%s` in this scope", name)
	if s := closest(name, r.typeNames()); s != "" {
		dg.Help = fmt.Sprintf("did you mean `%s`?", s)
	}
}

// typeNames returns the type names visible from the current scope.
func (r *resolver) typeNames() []string {
	var out []string
	for s := r.scope; s != nil; s = s.Parent() {
		for _, name := range s.Names() {
			if _, ok := s.Lookup(name).(*types.TypeName); ok {
				out = append(out, name)
			}
		}
	}
	return out
}

func objectKind(obj types.Object) string {
	switch obj := obj.(type) {
	case *types.Var:
		if obj.Kind() == types.ConstVar {
			return "constant"
		}
		return "local variable"
	case *types.FuncObj:
		return "function"
	case *types.Module:
		return "module"
	case *types.Builtin:
		return "builtin"
	case *types.TypeName:
		if obj.IsTrait() {
			return "trait"
		}
		return "type"
	}
	return "item"
}
