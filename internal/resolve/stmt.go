package resolve

import (
	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// block resolves b in a new scope and returns the type of its value: the
// tail expression, a trailing if with an else branch, or ().
func (r *resolver) block(b *syntax.BlockStmt) types.Type {
	if b == nil {
		return types.Typ[types.Unit]
	}
	r.openScope(b, types.BlockScope, "block")
	defer r.closeScope()
	var t types.Type = types.Typ[types.Unit]
	for i, s := range b.Stmts {
		r.stmt(s)
		if i != len(b.Stmts)-1 {
			continue
		}
		switch s := s.(type) {
		case *syntax.ExprStmt:
			if !s.Semi {
				t = r.info.TypeOf(s.X)
			}
		case *syntax.IfStmt:
			if s.Else != nil {
				t = r.ifType(s)
			}
		}
	}
	return t
}

// ifType returns the value type of an if statement in tail position.
func (r *resolver) ifType(s *syntax.IfStmt) types.Type {
	if tail := s.Then.TailExpr(); tail != nil {
		if t := r.info.TypeOf(tail); !types.IsInvalid(t) {
			return t
		}
	}
	switch e := s.Else.(type) {
	case *syntax.BlockStmt:
		if tail := e.TailExpr(); tail != nil {
			return r.info.TypeOf(tail)
		}
	case *syntax.IfStmt:
		if e.Else != nil {
			return r.ifType(e)
		}
	}
	return types.Typ[types.Unit]
}

func (r *resolver) stmt(s syntax.Stmt) {
	switch s := s.(type) {
	case *syntax.LetStmt:
		var declared types.Type
		if s.Type != nil {
			declared = r.typExpr(s.Type)
		}
		var vt types.Type = invalid
		if s.Value != nil {
			vt = r.expr(s.Value)
		}
		if declared != nil && s.Value != nil && !compatible(vt, declared) {
			r.mismatch(s.Value, declared, types.DefaultType(vt))
		}
		t := declared
		if t == nil {
			t = types.DefaultType(vt)
		}
		r.bindPattern(s.Pat, t)

	case *syntax.AssignStmt:
		lt := r.expr(s.Lhs)
		rt := r.expr(s.Rhs)
		if s.Op == syntax.Assign && !compatible(rt, lt) {
			r.mismatch(s.Rhs, lt, types.DefaultType(rt))
		}

	case *syntax.ExprStmt:
		r.expr(s.X)

	case *syntax.ReturnStmt:
		var t types.Type = types.Typ[types.Unit]
		if s.Result != nil {
			t = r.expr(s.Result)
		}
		if r.result == nil {
			if r.ret == nil && !types.IsInvalid(t) {
				r.ret = types.DefaultType(t)
			}
			return
		}
		if !compatible(t, r.result) {
			at := syntax.Node(s)
			if s.Result != nil {
				at = s.Result
			}
			r.mismatch(at, r.result, types.DefaultType(t))
		}

	case *syntax.IfStmt:
		r.checkCond(s.Cond, r.expr(s.Cond))
		r.block(s.Then)
		if s.Else != nil {
			r.stmt(s.Else)
		}

	case *syntax.WhileStmt:
		r.checkCond(s.Cond, r.expr(s.Cond))
		r.block(s.Body)

	case *syntax.LoopStmt:
		r.block(s.Body)

	case *syntax.ForStmt:
		it := r.expr(s.Iter)
		r.openScope(s, types.BlockScope, "for")
		r.bindPattern(s.Pat, iterElem(it))
		r.block(s.Body)
		r.closeScope()

	case *syntax.BlockStmt:
		r.block(s)

	case *syntax.BranchStmt, *syntax.EmptyStmt, *syntax.BadStmt:
	}
}

// iterElem returns the element type produced by iterating over t.
func iterElem(t types.Type) types.Type {
	t = types.Deref(t)
	if n, ok := t.(*types.Named); ok {
		switch {
		case types.IsLibrary(n, "HashMap"), types.IsLibrary(n, "Map"), types.IsLibrary(n, "BTreeMap"):
			return types.NewTuple(n.TypeArg(0), n.TypeArg(1))
		case n.IsLibrary():
			return n.TypeArg(0)
		}
		return invalid
	}
	return types.ElemType(t)
}

// bindPattern declares the bindings of p, matched against a value of
// type t.
func (r *resolver) bindPattern(p syntax.Pattern, t types.Type) {
	switch p := p.(type) {
	case *syntax.IdentPat:
		v := types.NewVar(p.Name.Pos(), p.Name.Value, t)
		v.SetDecl(p)
		v.SetMutable(p.Mut)
		r.declareVar(p.Name, v)

	case *syntax.WildcardPat:

	case *syntax.LitPat:
		r.expr(p.Lit)

	case *syntax.RangePat:
		if p.Lo != nil {
			r.expr(p.Lo.Lit)
		}
		if p.Hi != nil {
			r.expr(p.Hi.Lit)
		}

	case *syntax.TuplePat:
		var elems []types.Type
		if tup, ok := types.Deref(t).(*types.Tuple); ok {
			elems = tup.Elems()
		}
		for i, e := range p.Elems {
			var et types.Type = invalid
			if i < len(elems) {
				et = elems[i]
			}
			r.bindPattern(e, et)
		}

	case *syntax.RefPat:
		r.bindPattern(p.Pat, types.Deref(t))

	case *syntax.OrPat:
		for _, alt := range p.Alts {
			r.bindPattern(alt, t)
		}

	case *syntax.VariantPat:
		r.variantPat(p, t)
	}
}

// variantPat binds the payload of Some(x), Ok(x), Enum::Variant(a, b),
// Enum::Variant { f, .. } and Struct { f } patterns.
func (r *resolver) variantPat(p *syntax.VariantPat, t types.Type) {
	var fields []*types.Var
	base := types.Deref(t)
	last := p.Path[len(p.Path)-1]

	if len(p.Path) == 1 {
		obj, _ := r.scope.LookupParent(last.Value)
		switch obj := obj.(type) {
		case *types.Builtin:
			r.recordUse(last, obj)
			n, _ := base.(*types.Named)
			payload := func(i int) []*types.Var {
				if n == nil {
					return []*types.Var{types.NewField(last.Pos(), "0", invalid)}
				}
				return []*types.Var{types.NewField(last.Pos(), "0", n.TypeArg(i))}
			}
			switch obj.Kind() {
			case types.BuiltinSome, types.BuiltinOk:
				fields = payload(0)
			case types.BuiltinErr:
				fields = payload(1)
			}
		case *types.TypeName:
			r.recordUse(last, obj)
			if n, ok := obj.Type().(*types.Named); ok {
				if st, ok := n.Underlying().(*types.Struct); ok {
					fields = st.Fields()
				}
			}
		case *types.Var:
			// A constant used as a pattern.
			r.recordUse(last, obj)
			return
		case nil:
			// A bare variant of the scrutinee's enum.
			if v := enumVariant(base, last.Value); v != nil {
				fields = v.Fields
				break
			}
			r.bag.Errorf(diag.UnknownName, last.Span(), "cannot find unit struct, unit variant or constant `%s` in this scope", last.Value)
			r.info.Unresolved = append(r.info.Unresolved, last)
		}
	} else {
		head := p.Path[0]
		obj, _ := r.scope.LookupParent(head.Value)
		tn, ok := obj.(*types.TypeName)
		switch {
		case obj == nil:
			r.unknownType(head, head.Value)
			r.info.Unresolved = append(r.info.Unresolved, head)
		case ok:
			r.recordUse(head, tn)
			if n, ok := tn.Type().(*types.Named); ok {
				if en, ok := n.Underlying().(*types.Enum); ok {
					v := en.Variant(last.Value)
					if v == nil {
						r.bag.Errorf(diag.UnknownName, last.Span(), "no variant named `%s` found for enum `%s`", last.Value, n.Obj().Name())
					} else {
						fields = v.Fields
						if inst, ok := base.(*types.Named); ok && inst.Origin() == n.Origin() {
							fields = instFields(fields, inst)
						}
					}
				}
			}
		}
	}

	for i, e := range p.Elems {
		var ft types.Type = invalid
		if i < len(fields) {
			ft = fields[i].Type()
		}
		r.bindPattern(e, ft)
	}
	for _, f := range p.Fields {
		var ft types.Type = invalid
		if decl := fieldByName(fields, f.Name.Value); decl != nil {
			ft = decl.Type()
		} else if len(fields) > 0 {
			r.bag.Errorf(diag.MissingField, f.Name.Span(), "pattern refers to unknown field `%s`", f.Name.Value)
		}
		if f.Pat == nil {
			v := types.NewVar(f.Name.Pos(), f.Name.Value, ft)
			v.SetDecl(f)
			r.declareVar(f.Name, v)
			continue
		}
		r.bindPattern(f.Pat, ft)
	}
}

// instFields substitutes the type arguments of inst into variant fields.
func instFields(fields []*types.Var, inst *types.Named) []*types.Var {
	if len(inst.TypeArgs()) == 0 {
		return fields
	}
	out := make([]*types.Var, len(fields))
	for i, f := range fields {
		out[i] = types.NewField(f.Pos(), f.Name(), substitute(f.Type(), inst))
	}
	return out
}

func enumVariant(t types.Type, name string) *types.Variant {
	n, ok := t.(*types.Named)
	if !ok {
		return nil
	}
	en, ok := n.Underlying().(*types.Enum)
	if !ok {
		return nil
	}
	return en.Variant(name)
}
