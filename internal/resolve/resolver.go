package resolve

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/stdlib"
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// resolver holds the state of one Resolve call.
type resolver struct {
	conf    *Config
	info    *Info
	bag     *diag.Bag
	pkg     *types.Package
	scope   *types.Scope // current scope
	modules map[string]bool

	// Per-function state.
	fn       *types.FuncObj
	result   types.Type // written result type; nil when inferred
	ret      types.Type // first returned type when the result is inferred
	selfType types.Type // type of Self in impls and traits

	// Declarations in source order, collected by the first phase.
	funcs  []*syntax.FuncDecl
	consts []*syntax.ConstDecl

	inferred map[*types.FuncObj]bool // functions without a written result
	done     map[*types.FuncObj]bool // bodies resolved or in progress
}

// resolveFile resolves a file in phases: collect item names, resolve type
// declarations, impls and signatures, then function bodies.
func (r *resolver) resolveFile(file *syntax.File) {
	name := strings.TrimSuffix(filepath.Base(file.Filename), filepath.Ext(file.Filename))
	if name == "" || name == "." {
		name = "main"
	}
	r.pkg = types.NewPackage(name)
	r.info.Pkg = r.pkg
	r.scope = r.pkg.Scope()
	r.inferred = make(map[*types.FuncObj]bool)
	r.done = make(map[*types.FuncObj]bool)

	// Phase 1: declare items and imports.
	for _, d := range file.Items {
		r.collectDecl(d)
	}

	// Phase 2: resolve type declarations.
	for _, d := range file.Items {
		switch d := d.(type) {
		case *syntax.StructDecl:
			r.structDecl(d)
		case *syntax.EnumDecl:
			r.enumDecl(d)
		case *syntax.TypeAliasDecl:
			r.aliasDecl(d)
		}
	}

	// Phase 3: traits, impls and signatures.
	for _, d := range file.Items {
		switch d := d.(type) {
		case *syntax.TraitDecl:
			r.traitDecl(d)
		case *syntax.ImplDecl:
			r.implDecl(d)
		case *syntax.FuncDecl:
			r.funcSignature(d, r.info.Funcs[d], nil, r.pkg.Scope())
		}
	}
	for _, d := range r.consts {
		r.constDecl(d)
	}

	// Phase 4: bodies.
	for _, d := range r.funcs {
		r.funcBody(d)
	}
}

// collectDecl declares the name of a top-level item.
func (r *resolver) collectDecl(d syntax.Decl) {
	switch d := d.(type) {
	case *syntax.StructDecl:
		r.declareType(d.Name, d, types.NewStruct(nil), d.Generics)
	case *syntax.EnumDecl:
		r.declareType(d.Name, d, types.NewEnum(nil), d.Generics)
	case *syntax.TraitDecl:
		r.declareType(d.Name, d, types.NewTrait(nil), d.Generics)
	case *syntax.TypeAliasDecl:
		obj := types.NewTypeName(d.Name.Pos(), d.Name.Value, types.Typ[types.Invalid])
		obj.SetDecl(d)
		r.declare(r.scope, d.Name, obj)
	case *syntax.FuncDecl:
		obj := types.NewFuncObj(d.Name.Pos(), d.Name.Value, d)
		r.info.Funcs[d] = obj
		r.declare(r.scope, d.Name, obj)
		r.funcs = append(r.funcs, d)
	case *syntax.ConstDecl:
		v := types.NewConst(d.Name.Pos(), d.Name.Value, types.Typ[types.Invalid])
		v.SetDecl(d)
		v.SetMutable(d.Static && d.Mut)
		r.declareVar(d.Name, v)
		r.consts = append(r.consts, d)
	case *syntax.UseDecl:
		r.useDecl(d)
	}
}

// declareType declares a named type with a placeholder underlying type;
// phase 2 replaces it.
func (r *resolver) declareType(name *syntax.Name, d syntax.Decl, underlying types.Type, generics []*syntax.GenericParam) *types.Named {
	obj := types.NewTypeName(name.Pos(), name.Value, nil)
	obj.SetDecl(d)
	n := types.NewNamed(obj, underlying)
	if len(generics) > 0 {
		params := make([]*types.TypeParam, len(generics))
		for i, g := range generics {
			params[i] = types.NewTypeParam(g.Name.Value, i, boundNames(g.Bounds), false)
		}
		n.SetTypeParams(params)
	}
	r.declare(r.scope, name, obj)
	return n
}

// useDecl resolves a use import and declares its last segment or alias.
func (r *resolver) useDecl(d *syntax.UseDecl) {
	if len(d.Path) == 0 {
		return
	}
	path := d.PathString()
	name := d.Path[len(d.Path)-1]
	if d.Alias != nil {
		name = d.Alias
	}
	head := d.Path[0].Value

	switch {
	case head == "std":
		m, member, native, ok := stdlib.Resolve(path)
		if !ok {
			dg := r.bag.Errorf(diag.UnknownModule, d.Span(), "unresolved import `%s`", path)
			if s := closest(path, stdlib.Paths()); s != "" {
				dg.Help = fmt.Sprintf("did you mean `%s`?", s)
			}
			return
		}
		r.addImport(path)
		if native && member {
			// std::collections::HashMap and friends are predeclared;
			// aliases bind the same type under the new name.
			if obj := types.Universe.Lookup(name.Value); obj != nil && d.Alias == nil {
				r.info.Defs[name] = obj
				return
			}
			if tn, ok := types.Universe.Lookup(d.Path[len(d.Path)-1].Value).(*types.TypeName); ok {
				r.declare(r.scope, name, types.NewTypeName(name.Pos(), name.Value, tn.Type()))
				return
			}
		}
		mod := types.NewModule(name.Pos(), name.Value, path, m != nil, member)
		r.pkg.AddImport(mod)
		r.declare(r.scope, name, mod)
	case head == "crate" || head == "super" || head == "self" || r.modules[head]:
		r.addImport(path)
		member := len(d.Path) > 2 || len(d.Path) == 2 && r.modules[head]
		mod := types.NewModule(name.Pos(), name.Value, path, false, member)
		r.pkg.AddImport(mod)
		r.declare(r.scope, name, mod)
	default:
		dg := r.bag.Errorf(diag.UnknownModule, d.Span(), "unresolved import `%s`", path)
		dg.Help = fmt.Sprintf("no module `%s` in this project or the standard library", head)
	}
}

func (r *resolver) addImport(path string) {
	for _, p := range r.info.Imports {
		if p == path {
			return
		}
	}
	r.info.Imports = append(r.info.Imports, path)
}

// structDecl resolves field types.
func (r *resolver) structDecl(d *syntax.StructDecl) {
	n := r.namedOf(d.Name)
	if n == nil {
		return
	}
	r.withGenerics(n, func() {
		fields := make([]*types.Var, 0, len(d.Fields))
		seen := make(map[string]bool)
		for _, f := range d.Fields {
			if seen[f.Name.Value] {
				r.bag.Errorf(diag.Redeclared, f.Name.Span(), "field `%s` is already declared", f.Name.Value)
				continue
			}
			seen[f.Name.Value] = true
			v := types.NewField(f.Name.Pos(), f.Name.Value, r.typExpr(f.Type))
			v.SetDecl(f)
			r.info.Defs[f.Name] = v
			fields = append(fields, v)
		}
		n.SetUnderlying(types.NewStruct(fields))
	})
}

// enumDecl resolves variant payloads.
func (r *resolver) enumDecl(d *syntax.EnumDecl) {
	n := r.namedOf(d.Name)
	if n == nil {
		return
	}
	r.withGenerics(n, func() {
		variants := make([]*types.Variant, 0, len(d.Variants))
		for _, sv := range d.Variants {
			v := &types.Variant{Name: sv.Name.Value, Tuple: len(sv.Tuple) > 0}
			for i, t := range sv.Tuple {
				v.Fields = append(v.Fields, types.NewField(sv.Name.Pos(), fmt.Sprint(i), r.typExpr(t)))
			}
			for _, f := range sv.Fields {
				fv := types.NewField(f.Name.Pos(), f.Name.Value, r.typExpr(f.Type))
				fv.SetDecl(f)
				r.info.Defs[f.Name] = fv
				v.Fields = append(v.Fields, fv)
			}
			variants = append(variants, v)
			r.info.Defs[sv.Name] = types.NewVariantObj(sv.Name.Pos(), n, v)
		}
		n.SetUnderlying(types.NewEnum(variants))
	})
}

func (r *resolver) aliasDecl(d *syntax.TypeAliasDecl) {
	tn, ok := r.pkg.Scope().Lookup(d.Name.Value).(*types.TypeName)
	if !ok {
		return
	}
	r.openScope(d, types.BlockScope, "type "+d.Name.Value)
	r.declareGenerics(d.Generics, nil)
	tn.SetType(r.typExpr(d.Type))
	r.closeScope()
}

// traitDecl resolves the method signatures of a trait. Self is a type
// parameter bounded by the trait.
func (r *resolver) traitDecl(d *syntax.TraitDecl) {
	n := r.namedOf(d.Name)
	if n == nil {
		return
	}
	scope := r.openScope(d, types.BlockScope, "trait "+d.Name.Value)
	r.declareGenerics(d.Generics, n.TypeParams())
	self := types.NewTypeParam("Self", -1, []string{d.Name.Value}, false)
	scope.Insert(types.NewTypeName(d.Pos(), "Self", self))
	saved := r.selfType
	r.selfType = self

	var methods []*types.FuncObj
	for _, m := range d.Methods {
		obj := types.NewFuncObj(m.Name.Pos(), m.Name.Value, m)
		r.info.Funcs[m] = obj
		r.info.Defs[m.Name] = obj
		r.funcSignature(m, obj, nil, scope)
		methods = append(methods, obj)
		if m.Body != nil {
			r.funcs = append(r.funcs, m)
		}
	}
	n.SetUnderlying(types.NewTrait(methods))

	r.selfType = saved
	r.closeScope()
}

// implDecl resolves an impl block and attaches its methods to the target
// type.
func (r *resolver) implDecl(d *syntax.ImplDecl) {
	scope := r.openScope(d, types.BlockScope, "impl")
	r.declareGenerics(d.Generics, nil)
	target := r.typExpr(d.Type)
	n, _ := target.(*types.Named)
	if n != nil && n.Origin() != n {
		n = n.Origin()
	}
	scope.Insert(types.NewTypeName(d.Pos(), "Self", target))
	saved := r.selfType
	r.selfType = target

	if d.Trait != nil {
		trait := r.traitRef(d.Trait)
		if trait != "" && n != nil {
			n.AddImpl(trait)
		}
	}
	for _, m := range d.Methods {
		obj := types.NewFuncObj(m.Name.Pos(), m.Name.Value, m)
		r.info.Funcs[m] = obj
		r.info.Defs[m.Name] = obj
		if n != nil {
			if d.Trait == nil && n.LookupMethod(m.Name.Value) != nil && !n.IsLibrary() {
				r.bag.Errorf(diag.Redeclared, m.Name.Span(), "duplicate definitions with name `%s`", m.Name.Value)
			}
			obj.SetRecv(n)
			if !n.IsLibrary() {
				n.AddMethod(obj)
			}
		}
		r.funcSignature(m, obj, n, scope)
		if m.Body != nil {
			r.funcs = append(r.funcs, m)
		}
	}

	r.selfType = saved
	r.closeScope()
}

// traitRef resolves the trait named by an impl header and returns its
// name, or "" after reporting an unknown trait.
func (r *resolver) traitRef(t syntax.Type) string {
	nt, ok := t.(*syntax.NamedType)
	if !ok {
		return ""
	}
	for _, a := range nt.Args {
		r.typExpr(a)
	}
	name := nt.Name()
	obj, _ := r.scope.LookupParent(name)
	tn, ok := obj.(*types.TypeName)
	if !ok || !tn.IsTrait() {
		if len(nt.Path) > 1 {
			// std::fmt::Display and similar qualified std traits.
			if types.IsStdTrait(name) {
				return name
			}
		}
		r.unknownType(t, name)
		return ""
	}
	return name
}

// funcSignature resolves parameter and result types and records the
// function scope. Untyped parameters get their own implicit type
// parameter for the inference stage.
func (r *resolver) funcSignature(d *syntax.FuncDecl, obj *types.FuncObj, recv *types.Named, parent *types.Scope) {
	if obj == nil {
		return
	}
	saved := r.scope
	r.scope = parent
	r.openScope(d, types.FuncScope, "fn "+d.Name.Value)
	r.declareGenerics(d.Generics, nil)
	for _, w := range d.Where {
		r.typExpr(w.Type)
		for _, b := range w.Bounds {
			r.bound(b)
		}
	}

	var recvVar *types.Var
	var params []*types.Var
	for i, p := range d.Params {
		if p.IsSelf {
			var t types.Type = types.Typ[types.Invalid]
			if r.selfType != nil {
				t = r.selfType
			}
			recvVar = types.NewParam(p.Name.Pos(), "self", t)
			recvVar.SetKind(types.SelfVar)
			recvVar.SetDecl(p)
			recvVar.SetMutable(p.Mode == syntax.ModeMut || p.Mode == syntax.ModeMutRef)
			r.declareVar(p.Name, recvVar)
			continue
		}
		var t types.Type
		if p.Type != nil {
			t = r.typExpr(p.Type)
		} else {
			t = types.NewTypeParam("_"+p.Name.Value, i, nil, true)
		}
		v := types.NewParam(p.Name.Pos(), p.Name.Value, t)
		v.SetDecl(p)
		v.SetMutable(p.Mode == syntax.ModeMut || p.Mode == syntax.ModeMutRef)
		r.declareVar(p.Name, v)
		params = append(params, v)
	}

	var result types.Type
	if d.Result != nil {
		result = r.typExpr(d.Result)
	} else {
		result = types.Typ[types.Unit]
		if d.Body != nil && d.Name.Value != "main" {
			// Callers see an invalid result until the body is resolved.
			result = types.Typ[types.Invalid]
			r.inferred[obj] = true
		}
	}
	obj.SetSignature(types.NewFunc(recvVar, params, result))
	r.closeScope()
	r.scope = saved
}

// funcBody resolves a function body inside the scope its signature opened.
func (r *resolver) funcBody(d *syntax.FuncDecl) {
	obj := r.info.Funcs[d]
	scope := r.info.Scopes[d]
	if obj == nil || scope == nil || d.Body == nil || r.done[obj] {
		return
	}
	r.done[obj] = true
	saved, savedFn, savedResult, savedRet, savedSelf := r.scope, r.fn, r.result, r.ret, r.selfType
	defer func() {
		r.scope, r.fn, r.result, r.ret, r.selfType = saved, savedFn, savedResult, savedRet, savedSelf
	}()

	r.scope = scope
	r.fn = obj
	r.result = nil
	r.ret = nil
	sig := obj.Signature()
	if !r.inferred[obj] {
		r.result = sig.Result()
	}
	if recv := sig.Recv(); recv != nil {
		r.selfType = recv.Type()
	} else if tn, ok := scope.Parent().Lookup("Self").(*types.TypeName); ok {
		r.selfType = tn.Type()
	}

	t := r.block(d.Body)
	tail := d.Body.TailExpr()
	if r.inferred[obj] {
		var res types.Type = types.Typ[types.Unit]
		switch {
		case tail != nil && !types.IsInvalid(t):
			res = types.DefaultType(t)
		case tail == nil && !types.IsInvalid(t) && !types.IsUnit(t):
			// A trailing if with an else branch yields its arms' value.
			res = types.DefaultType(t)
		case r.ret != nil:
			res = r.ret
		}
		obj.SetSignature(types.NewFunc(sig.Recv(), sig.Params(), res))
		return
	}
	if tail != nil && !types.IsUnit(r.result) && !compatible(t, r.result) {
		r.mismatch(tail, r.result, t)
	}
}

// ensureBody resolves the body of a function whose result is inferred
// before its first call is typed.
func (r *resolver) ensureBody(obj *types.FuncObj) {
	if d := obj.Decl(); d != nil && r.inferred[obj] && !r.done[obj] {
		r.funcBody(d)
	}
}

func (r *resolver) constDecl(d *syntax.ConstDecl) {
	v, ok := r.info.Defs[d.Name].(*types.Var)
	if !ok {
		return
	}
	var declared types.Type
	if d.Type != nil {
		declared = r.typExpr(d.Type)
	}
	var vt types.Type = types.Typ[types.Invalid]
	if d.Value != nil {
		vt = r.expr(d.Value)
	}
	if declared != nil && d.Value != nil && !compatible(vt, declared) {
		r.mismatch(d.Value, declared, vt)
	}
	if declared == nil {
		declared = types.DefaultType(vt)
	}
	v.SetType(declared)
}

// ----------------------------------------------------------------------------
// Scopes and objects

func (r *resolver) openScope(n syntax.Node, kind types.ScopeKind, comment string) *types.Scope {
	s := types.NewScope(r.scope, kind, n.Pos(), n.End(), comment)
	r.info.Scopes[n] = s
	r.scope = s
	return s
}

func (r *resolver) closeScope() {
	r.scope = r.scope.Parent()
}

// declare inserts obj into s and records the definition. A second item
// with the same name in the same scope is an error.
func (r *resolver) declare(s *types.Scope, name *syntax.Name, obj types.Object) {
	if alt := s.Insert(obj); alt != nil {
		dg := r.bag.Errorf(diag.Redeclared, name.Span(), "the name `%s` is defined multiple times", name.Value)
		if alt.Pos().IsValid() {
			dg.Help = fmt.Sprintf("previous definition of `%s` at %s", name.Value, alt.Pos())
		}
		return
	}
	r.info.Defs[name] = obj
}

// declareVar binds a variable in the current scope. Let bindings and
// patterns shadow earlier bindings of the same name; parameters may not
// repeat.
func (r *resolver) declareVar(name *syntax.Name, v *types.Var) {
	v.SetID(len(r.info.Vars))
	r.info.Vars = append(r.info.Vars, v)
	switch v.Kind() {
	case types.ParamVar, types.SelfVar, types.ConstVar:
		r.declare(r.scope, name, v)
	default:
		r.scope.Shadow(v)
		r.info.Defs[name] = v
	}
}

// declareGenerics declares generic parameters as type names. params, when
// given, are the already-created parameters of a declared type.
func (r *resolver) declareGenerics(generics []*syntax.GenericParam, params []*types.TypeParam) {
	for i, g := range generics {
		for _, b := range g.Bounds {
			r.bound(b)
		}
		var tp *types.TypeParam
		if i < len(params) {
			tp = params[i]
		} else {
			tp = types.NewTypeParam(g.Name.Value, i, boundNames(g.Bounds), false)
		}
		r.declare(r.scope, g.Name, types.NewTypeName(g.Name.Pos(), g.Name.Value, tp))
	}
}

// withGenerics runs f in a scope holding the type parameters of n.
func (r *resolver) withGenerics(n *types.Named, f func()) {
	d := n.Obj().Decl()
	r.openScope(d, types.BlockScope, "type "+n.Obj().Name())
	for _, tp := range n.TypeParams() {
		r.scope.Insert(types.NewTypeName(d.Pos(), tp.Name(), tp))
	}
	f()
	r.closeScope()
}

func (r *resolver) namedOf(name *syntax.Name) *types.Named {
	tn, ok := r.info.Defs[name].(*types.TypeName)
	if !ok {
		return nil
	}
	n, _ := tn.Type().(*types.Named)
	return n
}

func (r *resolver) recordUse(name *syntax.Name, obj types.Object) {
	r.info.Uses[name] = obj
}

func (r *resolver) mismatch(at syntax.Node, want, got types.Type) {
	r.bag.Errorf(diag.TypeMismatch, at.Span(), "mismatched types: expected `%s`, found `%s`", want, types.DefaultType(got))
}

// boundNames returns the trait names of a bound list, without type
// arguments.
func boundNames(bounds []syntax.Type) []string {
	var out []string
	for _, b := range bounds {
		if nt, ok := b.(*syntax.NamedType); ok {
			out = append(out, nt.Name())
		}
	}
	return out
}
