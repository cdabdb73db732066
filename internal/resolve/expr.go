package resolve

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/stdlib"
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

var invalid = types.Typ[types.Invalid]

// expr resolves e and records its type.
func (r *resolver) expr(e syntax.Expr) types.Type {
	if e == nil {
		return invalid
	}
	t := r.exprInternal(e)
	if t == nil {
		t = invalid
	}
	r.info.Types[e] = t
	return t
}

func (r *resolver) exprs(list []syntax.Expr) []types.Type {
	out := make([]types.Type, len(list))
	for i, e := range list {
		out[i] = r.expr(e)
	}
	return out
}

func (r *resolver) exprInternal(e syntax.Expr) types.Type {
	switch e := e.(type) {
	case *syntax.BasicLit:
		return litType(e)

	case *syntax.InterpString:
		for _, p := range e.Parts {
			r.expr(p)
		}
		return types.Typ[types.String]

	case *syntax.Name:
		return r.ident(e, false)

	case *syntax.ParenExpr:
		return r.expr(e.X)

	case *syntax.Operation:
		return r.operation(e)

	case *syntax.CallExpr:
		return r.call(e)

	case *syntax.MethodCallExpr:
		return r.methodCall(e)

	case *syntax.MacroCall:
		return r.macroCall(e)

	case *syntax.FieldExpr:
		return r.field(e)

	case *syntax.IndexExpr:
		x := types.Deref(r.expr(e.X))
		if _, ok := e.Index.(*syntax.RangeExpr); ok {
			r.expr(e.Index)
			return x
		}
		r.expr(e.Index)
		return types.ElemType(x)

	case *syntax.Ternary:
		cond := r.expr(e.Cond)
		r.checkCond(e.Cond, cond)
		then := r.expr(e.Then)
		if e.Else == nil {
			return types.Typ[types.Unit]
		}
		els := r.expr(e.Else)
		if types.IsInvalid(then) || types.IsUntyped(then) && !types.IsInvalid(els) {
			return els
		}
		return then

	case *syntax.BlockExpr:
		return r.block(e.Block)

	case *syntax.ClosureExpr:
		return r.closure(e)

	case *syntax.MatchExpr:
		return r.match(e)

	case *syntax.StructLit:
		return r.structLit(e)

	case *syntax.ArrayLit:
		elems := r.exprs(e.Elems)
		var elem types.Type = invalid
		for _, t := range elems {
			if !types.IsInvalid(t) {
				elem = types.DefaultType(t)
				break
			}
		}
		return types.NewSlice(elem)

	case *syntax.TupleLit:
		elems := r.exprs(e.Elems)
		for i, t := range elems {
			elems[i] = types.DefaultType(t)
		}
		return types.NewTuple(elems...)

	case *syntax.RangeExpr:
		var elem types.Type = types.Typ[types.Int]
		if e.Lo != nil {
			if t := r.expr(e.Lo); !types.IsInvalid(t) && !types.IsUntyped(t) {
				elem = t
			}
		}
		if e.Hi != nil {
			if t := r.expr(e.Hi); !types.IsInvalid(t) && !types.IsUntyped(t) {
				elem = t
			}
		}
		return types.NewSlice(elem)

	case *syntax.CastExpr:
		r.expr(e.X)
		return r.typExpr(e.Type)

	case *syntax.TryExpr:
		x := types.Deref(r.expr(e.X))
		if n, ok := x.(*types.Named); ok && (types.IsLibrary(n, "Option") || types.IsLibrary(n, "Result")) {
			return n.TypeArg(0)
		}
		return invalid

	case *syntax.AwaitExpr:
		return r.expr(e.X)

	case *syntax.PathExpr:
		return r.pathValue(e)

	case *syntax.BadExpr:
		return invalid
	}
	return invalid
}

func litType(e *syntax.BasicLit) types.Type {
	switch e.Kind {
	case syntax.IntLit:
		return types.Typ[types.UntypedInt]
	case syntax.FloatLit:
		return types.Typ[types.UntypedFloat]
	case syntax.StringLit, syntax.InterpLit:
		return types.Typ[types.String]
	case syntax.CharLit:
		return types.Typ[types.Char]
	case syntax.BoolLit:
		return types.Typ[types.Bool]
	}
	return invalid
}

// ident resolves a name in value position.
func (r *resolver) ident(n *syntax.Name, call bool) types.Type {
	obj, _ := r.scope.LookupParent(n.Value)
	if obj == nil {
		r.unresolved(n, call)
		return invalid
	}
	r.recordUse(n, obj)
	return objType(obj)
}

func objType(obj types.Object) types.Type {
	switch obj := obj.(type) {
	case *types.Var:
		return obj.Type()
	case *types.FuncObj:
		if sig := obj.Signature(); sig != nil {
			return sig
		}
	case *types.TypeName:
		return obj.Type()
	case *types.Builtin:
		if obj.Kind() == types.BuiltinNone {
			return types.NewOption(invalid)
		}
	case *types.VariantObj:
		return obj.Enum()
	}
	return invalid
}

// unresolved reports a name with no binding and suggests the nearest
// visible name.
func (r *resolver) unresolved(n *syntax.Name, call bool) {
	var dg *diag.Diagnostic
	if call {
		dg = r.bag.Errorf(diag.UnknownFunction, n.Span(), "cannot find function `%s` in this scope", n.Value)
	} else {
		dg = r.bag.Errorf(diag.UnknownName, n.Span(), "cannot find value `%s` in this scope", n.Value)
	}
	if s := closest(n.Value, r.scope.VisibleNames()); s != "" {
		dg.Help = fmt.Sprintf("did you mean `%s`?", s)
	}
	r.info.Unresolved = append(r.info.Unresolved, n)
}

func (r *resolver) operation(e *syntax.Operation) types.Type {
	if e.Y == nil {
		x := r.expr(e.X)
		switch e.Op {
		case syntax.And:
			return types.NewRef(x, e.Mut)
		case syntax.Mul:
			if ref, ok := x.(*types.Ref); ok {
				return ref.Elem()
			}
			if n, ok := x.(*types.Named); ok && (types.IsLibrary(n, "Box") || types.IsLibrary(n, "Rc") || types.IsLibrary(n, "Arc")) {
				return n.TypeArg(0)
			}
		}
		return x
	}

	x := types.Deref(r.expr(e.X))
	y := types.Deref(r.expr(e.Y))
	if e.Op.IsComparison() || e.Op.IsLogical() {
		return types.Typ[types.Bool]
	}
	switch {
	case types.IsInvalid(x):
		return y
	case types.IsString(x) && e.Op == syntax.Add:
		return types.Typ[types.String]
	case types.IsUntyped(x) && !types.IsInvalid(y):
		if types.IsUntyped(y) && types.IsFloat(y) {
			return y
		}
		if !types.IsUntyped(y) {
			return y
		}
	}
	return x
}

// checkCond reports a concrete non-bool condition.
func (r *resolver) checkCond(at syntax.Expr, t types.Type) {
	t = types.Deref(t)
	if _, ok := t.(*types.Basic); !ok || types.IsInvalid(t) || types.IsBoolean(t) {
		return
	}
	r.mismatch(at, types.Typ[types.Bool], types.DefaultType(t))
}

func (r *resolver) call(e *syntax.CallExpr) types.Type {
	switch fun := e.Fun.(type) {
	case *syntax.Name:
		obj, _ := r.scope.LookupParent(fun.Value)
		if obj == nil {
			r.unresolved(fun, true)
			r.exprs(e.Args)
			r.info.Types[fun] = invalid
			return invalid
		}
		r.recordUse(fun, obj)
		r.info.Types[fun] = objType(obj)
		args := r.exprs(e.Args)
		switch obj := obj.(type) {
		case *types.Builtin:
			return builtinResult(obj, args)
		case *types.FuncObj:
			r.ensureBody(obj)
			return r.callFunc(e, e.Args, obj.Signature(), args, false)
		case *types.Var:
			if sig, ok := types.Deref(obj.Type()).(*types.Func); ok {
				return r.callFunc(e, e.Args, sig, args, false)
			}
		case *types.Module:
			if obj.IsMember() {
				return r.stdFuncResult(obj.Path())
			}
		}
		return invalid

	case *syntax.PathExpr:
		args := r.exprs(e.Args)
		return r.pathCall(e, fun, args)
	}

	ft := r.expr(e.Fun)
	args := r.exprs(e.Args)
	if sig, ok := types.Deref(ft).(*types.Func); ok {
		return r.callFunc(e, e.Args, sig, args, false)
	}
	return invalid
}

func builtinResult(b *types.Builtin, args []types.Type) types.Type {
	arg := func(i int) types.Type {
		if i < len(args) {
			return types.DefaultType(args[i])
		}
		return invalid
	}
	switch b.Kind() {
	case types.BuiltinSome:
		return types.NewOption(arg(0))
	case types.BuiltinNone:
		return types.NewOption(invalid)
	case types.BuiltinOk:
		return types.LibraryType("Result").Instantiate(arg(0), invalid)
	case types.BuiltinErr:
		return types.LibraryType("Result").Instantiate(invalid, arg(0))
	}
	return types.Typ[types.Unit]
}

// callFunc checks a call against sig and returns its result type. A
// generic result is replaced by the argument bound to the same parameter.
func (r *resolver) callFunc(at syntax.Node, argx []syntax.Expr, sig *types.Func, args []types.Type, method bool) types.Type {
	if sig == nil {
		return invalid
	}
	if n := sig.NumParams(); n != len(args) {
		what := "function"
		if method {
			what = "method"
		}
		r.bag.Errorf(diag.TypeMismatch, at.Span(), "this %s takes %d %s but %d %s supplied",
			what, n, plural(n, "argument", "arguments"), len(args), plural(len(args), "was", "were"))
		return resultOf(sig, args)
	}
	for i, p := range sig.Params() {
		pt := p.Type()
		if hasTypeParam(pt) {
			continue
		}
		if !compatible(args[i], pt) {
			r.mismatch(argx[i], pt, types.DefaultType(args[i]))
		}
	}
	return resultOf(sig, args)
}

func resultOf(sig *types.Func, args []types.Type) types.Type {
	res := sig.Result()
	if tp, ok := res.(*types.TypeParam); ok {
		for i, p := range sig.Params() {
			if i < len(args) && types.Identical(p.Type(), tp) {
				return types.DefaultType(args[i])
			}
		}
	}
	return res
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// pathCall resolves Type::assoc(args), Enum::Variant(args) and
// module::func(args).
func (r *resolver) pathCall(e *syntax.CallExpr, p *syntax.PathExpr, args []types.Type) types.Type {
	for _, t := range p.TypeArgs {
		r.typExpr(t)
	}
	head := p.Segments[0]
	obj := r.pathHead(p)
	if obj == nil || len(p.Segments) < 2 {
		r.info.Types[p] = invalid
		return invalid
	}
	member := p.Segments[len(p.Segments)-1].Value
	var t types.Type = invalid
	switch obj := obj.(type) {
	case *types.Module:
		if obj.IsStd() && len(p.Segments) == 2 {
			m, _ := stdlib.Lookup(obj.Path())
			if m.Func(member) == nil {
				dg := r.bag.Errorf(diag.UnknownFunction, p.Span(), "cannot find function `%s` in module `%s`", member, head.Value)
				names := make([]string, 0, len(m.Funcs))
				for n := range m.Funcs {
					names = append(names, n)
				}
				sort.Strings(names)
				if s := closest(member, names); s != "" {
					dg.Help = fmt.Sprintf("did you mean `%s::%s`?", head.Value, s)
				}
				break
			}
			t = r.stdFuncResult(obj.Path() + "::" + member)
		}
	case *types.TypeName:
		t = r.assocCall(e, p, obj.Type(), member, args)
	}
	r.info.Types[p] = t
	return t
}

// pathHead resolves the first segment of a path expression.
func (r *resolver) pathHead(p *syntax.PathExpr) types.Object {
	head := p.Segments[0]
	if head.Value == "std" || head.Value == "crate" || head.Value == "super" || head.Value == "self" || r.modules[head.Value] {
		for _, s := range p.Segments[1:] {
			r.info.Types[s] = invalid
		}
		return nil
	}
	obj, _ := r.scope.LookupParent(head.Value)
	if obj == nil {
		if isUpper(head.Value) {
			r.unknownType(head, head.Value)
		} else {
			r.bag.Errorf(diag.UnknownModule, head.Span(), "failed to resolve: use of undeclared module `%s`", head.Value)
		}
		r.info.Unresolved = append(r.info.Unresolved, head)
		return nil
	}
	r.recordUse(head, obj)
	return obj
}

// assocCall types a call of an associated function or tuple variant of typ.
func (r *resolver) assocCall(e *syntax.CallExpr, p *syntax.PathExpr, typ types.Type, member string, args []types.Type) types.Type {
	n, ok := typ.(*types.Named)
	if !ok {
		// String::from, String::new, i64::from, f64::max and friends.
		return typ
	}
	if n.IsLibrary() {
		switch n.Obj().Name() {
		case "Box", "Rc", "Arc", "RefCell", "Cell", "Mutex", "RwLock":
			if member == "new" && len(args) == 1 {
				return n.Instantiate(types.DefaultType(args[0]))
			}
		case "Vec":
			if member == "from" && len(args) == 1 {
				if elem := types.ElemType(args[0]); !types.IsInvalid(elem) {
					return types.NewVec(elem)
				}
			}
		}
		return n
	}
	if en, ok := n.Underlying().(*types.Enum); ok {
		if v := en.Variant(member); v != nil {
			if len(v.Fields) != len(args) {
				r.bag.Errorf(diag.TypeMismatch, e.Span(), "variant `%s::%s` takes %d fields but %d were supplied", n.Obj().Name(), member, len(v.Fields), len(args))
			}
			return n
		}
	}
	if m := n.LookupMethod(member); m != nil {
		r.recordUse(p.Segments[len(p.Segments)-1], m)
		r.ensureBody(m)
		res := r.callFunc(e, e.Args, m.Signature(), args, false)
		if isSelf(res) {
			return n
		}
		return res
	}
	if _, ok := n.Underlying().(*types.Enum); ok && !derivesDefault(member) {
		r.bag.Errorf(diag.UnknownName, p.Segments[len(p.Segments)-1].Span(),
			"no variant or associated item named `%s` found for enum `%s`", member, n.Obj().Name())
		return invalid
	}
	if derivesDefault(member) {
		return n
	}
	return invalid
}

// derivesDefault reports associated functions the native compiler
// provides through derives and blanket impls.
func derivesDefault(member string) bool {
	switch member {
	case "default", "from", "into", "clone":
		return true
	}
	return false
}

func isSelf(t types.Type) bool {
	tp, ok := t.(*types.TypeParam)
	return ok && tp.Name() == "Self"
}

// pathValue types a path in value position: Enum::Variant, Type::CONST
// or module::item.
func (r *resolver) pathValue(p *syntax.PathExpr) types.Type {
	for _, t := range p.TypeArgs {
		r.typExpr(t)
	}
	obj := r.pathHead(p)
	if obj == nil || len(p.Segments) < 2 {
		return invalid
	}
	member := p.Segments[len(p.Segments)-1]
	tn, ok := obj.(*types.TypeName)
	if !ok {
		return invalid
	}
	n, ok := tn.Type().(*types.Named)
	if !ok {
		// i64::MAX, f64::consts::PI
		return tn.Type()
	}
	if en, ok := n.Underlying().(*types.Enum); ok && len(p.Segments) == 2 {
		if en.Variant(member.Value) != nil {
			return n
		}
		if m := n.LookupMethod(member.Value); m != nil {
			return m.Signature()
		}
		dg := r.bag.Errorf(diag.UnknownName, member.Span(), "no variant named `%s` found for enum `%s`", member.Value, n.Obj().Name())
		names := make([]string, len(en.Variants()))
		for i, v := range en.Variants() {
			names[i] = v.Name
		}
		if s := closest(member.Value, names); s != "" {
			dg.Help = fmt.Sprintf("did you mean `%s::%s`?", n.Obj().Name(), s)
		}
		return invalid
	}
	if m := n.LookupMethod(member.Value); m != nil {
		return m.Signature()
	}
	return invalid
}

// stdFuncResult returns the result type of the stdlib function at path.
func (r *resolver) stdFuncResult(path string) types.Type {
	i := strings.LastIndex(path, "::")
	if i < 0 {
		return invalid
	}
	m, ok := stdlib.Lookup(path[:i])
	if !ok {
		return invalid
	}
	f := m.Func(path[i+2:])
	if f == nil {
		return invalid
	}
	return r.parseTypeString(f.Result)
}

// parseTypeString resolves a stdlib result type spelled in WJ syntax.
func (r *resolver) parseTypeString(s string) types.Type {
	if s == "" {
		return types.Typ[types.Unit]
	}
	t, err := syntax.ParseType(s)
	if err != nil {
		return invalid
	}
	saved := r.scope
	r.scope = types.Universe
	defer func() { r.scope = saved }()
	return r.typExpr(t)
}

func (r *resolver) methodCall(e *syntax.MethodCallExpr) types.Type {
	recv := r.expr(e.X)
	args := r.exprs(e.Args)
	base := types.Deref(recv)
	name := e.Name.Value

	if n, ok := base.(*types.Named); ok && !n.IsLibrary() {
		if m := n.LookupMethod(name); m != nil {
			r.recordUse(e.Name, m)
			r.ensureBody(m)
			res := r.callFunc(e, e.Args, m.Signature(), args, true)
			if isSelf(res) {
				return n
			}
			return res
		}
	}
	return methodResult(base, name, args)
}

// methodResult types calls of the builtin methods of strings,
// collections and options.
func methodResult(base types.Type, name string, args []types.Type) types.Type {
	elem := types.ElemType(base)
	switch name {
	case "get", "first", "last", "pop", "pop_back", "pop_front", "get_mut", "max", "min":
		if n, ok := base.(*types.Named); ok && (types.IsLibrary(n, "Option") || !n.IsLibrary()) {
			break
		}
		if types.IsInvalid(elem) {
			return invalid
		}
		if name == "max" || name == "min" {
			if types.IsNumeric(base) {
				return base
			}
		}
		return types.NewOption(elem)
	case "remove":
		if types.IsSequence(base) {
			return elem
		}
		if !types.IsInvalid(elem) {
			return types.NewOption(elem)
		}
	case "iter", "into_iter", "iter_mut", "drain":
		if !types.IsInvalid(elem) {
			return types.NewSlice(elem)
		}
	case "chars":
		return types.NewSlice(types.Typ[types.Char])
	case "keys":
		if n, ok := base.(*types.Named); ok && n.IsLibrary() {
			return types.NewSlice(n.TypeArg(0))
		}
	case "values":
		if n, ok := base.(*types.Named); ok && n.IsLibrary() {
			return types.NewSlice(n.TypeArg(1))
		}
	case "unwrap", "expect", "unwrap_or", "unwrap_or_default", "unwrap_or_else":
		if n, ok := base.(*types.Named); ok && (types.IsLibrary(n, "Option") || types.IsLibrary(n, "Result")) {
			return n.TypeArg(0)
		}
		return invalid
	}
	m, ok := stdlib.LookupMethod(name)
	if !ok {
		return invalid
	}
	switch m.Result {
	case "int":
		return types.Typ[types.Int]
	case "bool":
		return types.Typ[types.Bool]
	case "string":
		return types.Typ[types.String]
	case "float":
		return types.Typ[types.Float]
	case "self":
		return types.DefaultType(base)
	case "elem":
		return elem
	case "[string]":
		return types.NewSlice(types.Typ[types.String])
	}
	return invalid
}

func (r *resolver) macroCall(e *syntax.MacroCall) types.Type {
	args := r.exprs(e.Args)
	switch e.Name.Value {
	case "format":
		return types.Typ[types.String]
	case "vec":
		if len(args) > 0 {
			return types.NewSlice(types.DefaultType(args[0]))
		}
		return types.NewSlice(invalid)
	case "matches":
		return types.Typ[types.Bool]
	case "todo", "unimplemented", "unreachable", "panic":
		return invalid
	}
	return types.Typ[types.Unit]
}

func (r *resolver) field(e *syntax.FieldExpr) types.Type {
	x := types.Deref(r.expr(e.X))
	switch t := x.(type) {
	case *types.Named:
		if st, ok := t.Underlying().(*types.Struct); ok {
			if f := st.FieldByName(e.Sel.Value); f != nil {
				r.recordUse(e.Sel, f)
				return substitute(f.Type(), t)
			}
		}
	case *types.Tuple:
		if i, err := strconv.Atoi(e.Sel.Value); err == nil && i < len(t.Elems()) {
			return t.Elems()[i]
		}
	}
	return invalid
}

// substitute replaces a bare type parameter of a generic struct with the
// matching type argument of inst.
func substitute(t types.Type, inst *types.Named) types.Type {
	tp, ok := t.(*types.TypeParam)
	if !ok || len(inst.TypeArgs()) == 0 {
		return t
	}
	for i, p := range inst.TypeParams() {
		if p == tp {
			return inst.TypeArg(i)
		}
	}
	return t
}

func (r *resolver) closure(e *syntax.ClosureExpr) types.Type {
	r.openScope(e, types.ClosureScope, "closure")
	defer r.closeScope()
	params := make([]*types.Var, len(e.Params))
	for i, p := range e.Params {
		var t types.Type = invalid
		if p.Type != nil {
			t = r.typExpr(p.Type)
		}
		v := types.NewParam(p.Name.Pos(), p.Name.Value, t)
		v.SetDecl(p)
		v.SetMutable(p.Mode == syntax.ModeMut)
		r.declareVar(p.Name, v)
		params[i] = v
	}
	savedResult := r.result
	r.result = nil
	body := r.expr(e.Body)
	r.result = savedResult
	return types.NewFunc(nil, params, types.DefaultType(body))
}

func (r *resolver) match(e *syntax.MatchExpr) types.Type {
	x := r.expr(e.X)
	var result types.Type = invalid
	for _, arm := range e.Arms {
		r.openScope(arm, types.BlockScope, "match arm")
		r.bindPattern(arm.Pat, x)
		if arm.Guard != nil {
			r.expr(arm.Guard)
		}
		t := r.expr(arm.Body)
		if types.IsInvalid(result) || types.IsUntyped(result) && !types.IsInvalid(t) {
			result = t
		}
		r.closeScope()
	}
	return result
}

func (r *resolver) structLit(e *syntax.StructLit) types.Type {
	var n *types.Named
	var fields []*types.Var
	what := ""
	switch t := e.Type.(type) {
	case *syntax.Name:
		obj, _ := r.scope.LookupParent(t.Value)
		tn, ok := obj.(*types.TypeName)
		if !ok {
			if obj == nil {
				r.unknownType(t, t.Value)
				r.info.Unresolved = append(r.info.Unresolved, t)
			} else {
				r.bag.Errorf(diag.UnknownType, t.Span(), "expected struct, found %s `%s`", objectKind(obj), t.Value)
			}
			for _, f := range e.Fields {
				r.expr(f.Value)
			}
			return invalid
		}
		r.recordUse(t, tn)
		n, _ = tn.Type().(*types.Named)
		if n != nil {
			if st, ok := n.Underlying().(*types.Struct); ok {
				fields = st.Fields()
				what = "struct `" + t.Value + "`"
			}
		}
	case *syntax.PathExpr:
		obj := r.pathHead(t)
		if tn, ok := obj.(*types.TypeName); ok {
			n, _ = tn.Type().(*types.Named)
			if n != nil {
				if en, ok := n.Underlying().(*types.Enum); ok {
					if v := en.Variant(t.Segments[len(t.Segments)-1].Value); v != nil {
						fields = v.Fields
						what = "variant `" + t.String() + "`"
					}
				}
			}
		}
		r.info.Types[t] = invalid
	}

	set := make(map[string]bool)
	for _, f := range e.Fields {
		vt := r.expr(f.Value)
		if what == "" {
			continue
		}
		decl := fieldByName(fields, f.Name.Value)
		if decl == nil {
			dg := r.bag.Errorf(diag.MissingField, f.Name.Span(), "%s has no field named `%s`", what, f.Name.Value)
			if s := closest(f.Name.Value, fieldNames(fields)); s != "" {
				dg.Help = fmt.Sprintf("did you mean `%s`?", s)
			}
			continue
		}
		r.info.Defs[f.Name] = decl
		set[f.Name.Value] = true
		if ft := decl.Type(); !hasTypeParam(ft) && !compatible(vt, ft) {
			r.mismatch(f.Value, ft, types.DefaultType(vt))
		}
	}
	if e.Base != nil {
		r.expr(e.Base)
	} else if what != "" {
		var missing []string
		for _, f := range fields {
			if !set[f.Name()] {
				missing = append(missing, "`"+f.Name()+"`")
			}
		}
		if len(missing) > 0 {
			r.bag.Errorf(diag.MissingField, e.Span(), "missing %s %s in initializer of %s",
				plural(len(missing), "field", "fields"), joinAnd(missing), what)
		}
	}
	if n == nil {
		return invalid
	}
	return n
}

func fieldByName(fields []*types.Var, name string) *types.Var {
	for _, f := range fields {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

func fieldNames(fields []*types.Var) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name()
	}
	return out
}

func joinAnd(list []string) string {
	if len(list) <= 1 {
		return strings.Join(list, "")
	}
	return strings.Join(list[:len(list)-1], ", ") + " and " + list[len(list)-1]
}

// compatible reports whether a value of type v may be used where t is
// expected. Strings and string slices are interchangeable at this level;
// the backend inserts the conversion.
func compatible(v, t types.Type) bool {
	v, t = types.Deref(v), types.Deref(t)
	if types.IsString(v) && types.IsString(t) {
		return true
	}
	if _, ok := v.(*types.Func); ok {
		return true
	}
	if _, ok := t.(*types.Func); ok {
		return true
	}
	if hasTypeParam(v) || hasTypeParam(t) {
		return true
	}
	return types.AssignableTo(v, t)
}

// hasTypeParam reports whether t mentions a type parameter or an
// invalid type anywhere.
func hasTypeParam(t types.Type) bool {
	switch t := t.(type) {
	case *types.TypeParam:
		return true
	case *types.Basic:
		return t.Kind() == types.Invalid
	case *types.Ref:
		return hasTypeParam(t.Elem())
	case *types.Array:
		return hasTypeParam(t.Elem())
	case *types.Tuple:
		for _, e := range t.Elems() {
			if hasTypeParam(e) {
				return true
			}
		}
	case *types.Named:
		for _, a := range t.TypeArgs() {
			if hasTypeParam(a) {
				return true
			}
		}
	}
	return false
}

func isUpper(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}
