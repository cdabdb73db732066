// Package infer derives trait bounds for generic functions from the
// operations their bodies apply to values of generic type.
//
// Untyped parameters are implicit type parameters. Implicit parameters
// that meet through a binary operator or a return are merged into one
// generic; a group that meets a concrete type becomes that type. The
// surviving groups are named T, U, V, W, T1, ... in declaration order.
//
// Bounds are recorded on the analysis signatures, unioned with the
// bounds written in source.
package infer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/windjammer-lang/wj/internal/analysis"
	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/resolve"
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// Bounds maps a generic parameter name to its sorted trait bounds.
type Bounds map[string][]string

// Result holds the inferred bounds of every generic function, keyed by
// the qualified function name (add, Point::dist). Written bounds are not
// included; the signatures carry the union.
type Result struct {
	Inferred map[string]Bounds
}

// Infer runs trait-bound inference over every analyzed signature and
// reports ambiguous method resolutions to bag.
func Infer(file *syntax.File, info *resolve.Info, res *analysis.Result, bag *diag.Bag) *Result {
	out := &Result{Inferred: make(map[string]Bounds)}
	traits := userTraits(file)
	for _, s := range res.Sigs.All() {
		in := &inferrer{info: info, res: res, sig: s, traits: traits, bag: bag, g: newGroups()}
		in.run()
		if len(in.inferred) > 0 {
			out.Inferred[s.Name] = in.inferred
		}
	}
	return out
}

// userTraits maps each method name declared by a trait of file to the
// traits declaring it.
func userTraits(file *syntax.File) map[string][]string {
	m := make(map[string][]string)
	for _, d := range file.Items {
		t, ok := d.(*syntax.TraitDecl)
		if !ok {
			continue
		}
		for _, f := range t.Methods {
			m[f.Name.Value] = append(m[f.Name.Value], t.Name.Value)
		}
	}
	return m
}

type inferrer struct {
	info   *resolve.Info
	res    *analysis.Result
	sig    *analysis.Signature
	traits map[string][]string
	bag    *diag.Bag

	g        *groups
	written  []*types.TypeParam // written generics in order
	implicit []*types.TypeParam // implicit parameters in order
	inferred Bounds
}

func (in *inferrer) run() {
	d := in.sig.Decl
	in.collect()
	if len(in.written) == 0 && len(in.implicit) == 0 {
		return
	}
	for _, g := range d.Generics {
		for _, b := range g.Bounds {
			in.sig.AddBound(g.Name.Value, syntax.String(b))
		}
	}
	for _, w := range d.Where {
		if nt, ok := w.Type.(*syntax.NamedType); ok && len(nt.Path) == 1 && in.isWritten(nt.Name()) {
			for _, b := range w.Bounds {
				in.sig.AddBound(nt.Name(), syntax.String(b))
			}
		}
	}
	if d.Body == nil {
		in.name()
		return
	}
	in.unify(d.Body)
	in.name()
	in.constrain(d.Body)
	for e := range in.res.Clones {
		if tp := in.tpOf(e); tp != nil {
			in.require(tp, "Clone")
		}
	}
}

// collect finds the generics owned by the function: written generics
// and implicit parameters.
func (in *inferrer) collect() {
	for _, g := range in.sig.Decl.Generics {
		tn, ok := in.info.Defs[g.Name].(*types.TypeName)
		if !ok {
			continue
		}
		if tp, ok := tn.Type().(*types.TypeParam); ok {
			in.written = append(in.written, tp)
			in.g.add(tp)
		}
	}
	for _, p := range in.sig.Params {
		if tp, ok := p.Var.Type().(*types.TypeParam); ok && tp.Implicit() {
			in.implicit = append(in.implicit, tp)
			in.g.add(tp)
		}
	}
}

func (in *inferrer) isWritten(name string) bool {
	for _, tp := range in.written {
		if tp.Name() == name {
			return true
		}
	}
	return false
}

// tpOf returns the function-owned type parameter that is the type of e,
// looking through references.
func (in *inferrer) tpOf(e syntax.Expr) *types.TypeParam {
	tp, ok := types.Deref(in.info.TypeOf(e)).(*types.TypeParam)
	if !ok || !in.g.has(tp) {
		return nil
	}
	return tp
}

// concrete returns the concrete type of e, or nil for generic and
// undetermined types.
func (in *inferrer) concrete(e syntax.Expr) types.Type {
	t := types.Deref(in.info.TypeOf(e))
	b, ok := t.(*types.Basic)
	if !ok || types.IsInvalid(b) || types.IsUnit(b) {
		return nil
	}
	return types.DefaultType(b)
}

// meet relates the types of two expressions that must agree.
func (in *inferrer) meet(x, y syntax.Expr) {
	tx, ty := in.tpOf(x), in.tpOf(y)
	switch {
	case tx != nil && ty != nil:
		in.g.union(tx, ty)
	case tx != nil:
		if c := in.concrete(y); c != nil {
			in.g.pin(tx, c)
		}
	case ty != nil:
		if c := in.concrete(x); c != nil {
			in.g.pin(ty, c)
		}
	}
}

// unify groups the implicit parameters.
func (in *inferrer) unify(body *syntax.BlockStmt) {
	var rets []syntax.Expr
	syntax.Inspect(body, func(n syntax.Node) {
		switch n := n.(type) {
		case *syntax.Operation:
			if n.Y != nil && (n.Op.IsArithmetic() || n.Op.IsComparison()) {
				in.meet(n.X, n.Y)
			}
		case *syntax.AssignStmt:
			if n.Op != syntax.Assign {
				in.meet(n.Lhs, n.Rhs)
			}
		case *syntax.ReturnStmt:
			if n.Result != nil {
				rets = append(rets, n.Result)
			}
		case *syntax.CallExpr:
			in.callArgs(n)
		}
	})
	rets = append(rets, tailValues(body)...)

	var result types.Type
	if in.sig.Decl.Result != nil {
		result = in.sig.Func.Signature().Result()
	}
	for i, r := range rets {
		tp := in.tpOf(r)
		if tp == nil {
			continue
		}
		switch rt := result.(type) {
		case *types.TypeParam:
			if in.g.has(rt) {
				in.g.union(tp, rt)
			}
		case *types.Basic:
			if !types.IsInvalid(rt) && !types.IsUnit(rt) {
				in.g.pin(tp, rt)
			}
		case nil:
			for _, o := range rets[:i] {
				in.meet(o, r)
			}
		}
	}
}

// tailValues returns the expressions that yield the value of b: its
// tail expression, or the arm tails of a trailing if with an else.
func tailValues(b *syntax.BlockStmt) []syntax.Expr {
	if b == nil || len(b.Stmts) == 0 {
		return nil
	}
	if tail := b.TailExpr(); tail != nil {
		return []syntax.Expr{tail}
	}
	s, ok := b.Stmts[len(b.Stmts)-1].(*syntax.IfStmt)
	if !ok || s.Else == nil {
		return nil
	}
	out := tailValues(s.Then)
	switch e := s.Else.(type) {
	case *syntax.BlockStmt:
		out = append(out, tailValues(e)...)
	case *syntax.IfStmt:
		out = append(out, tailValues(&syntax.BlockStmt{Stmts: []syntax.Stmt{e}})...)
	}
	return out
}

// callArgs pins implicit parameters passed to concretely typed
// parameters of user functions.
func (in *inferrer) callArgs(e *syntax.CallExpr) {
	name, ok := e.Fun.(*syntax.Name)
	if !ok {
		return
	}
	f, ok := in.info.ObjectOf(name).(*types.FuncObj)
	if !ok || f.Signature() == nil {
		return
	}
	params := f.Signature().Params()
	for i, a := range e.Args {
		if i >= len(params) {
			break
		}
		tp := in.tpOf(a)
		if tp == nil {
			continue
		}
		if b, ok := params[i].Type().(*types.Basic); ok && !types.IsInvalid(b) {
			in.g.pin(tp, b)
		}
	}
}

// genericName yields T, U, V, W, T1, T2, ...
func genericName(i int) string {
	const first = "TUVW"
	if i < len(first) {
		return first[i : i+1]
	}
	return fmt.Sprintf("T%d", i-len(first)+1)
}

// name assigns emitted names to the implicit groups and records the
// concrete ones.
func (in *inferrer) name() {
	s := in.sig
	s.Rename = make(map[string]string)
	s.Concrete = make(map[string]types.Type)
	s.TypeParams = s.TypeParams[:0]
	for _, tp := range in.written {
		s.TypeParams = append(s.TypeParams, tp.Name())
	}

	taken := func(n string) bool {
		return in.isWritten(n) || in.info.Named(n) != nil
	}
	next := 0
	roots := make(map[*types.TypeParam]string)
	for _, tp := range in.implicit {
		if c := in.g.concreteOf(tp); c != nil {
			s.Concrete[tp.Name()] = c
			continue
		}
		r := in.g.find(tp)
		n, ok := roots[r]
		if !ok {
			for n = genericName(next); taken(n); n = genericName(next) {
				next++
			}
			next++
			roots[r] = n
			s.TypeParams = append(s.TypeParams, n)
		}
		s.Rename[tp.Name()] = n
	}
}

// generic returns the emitted name of tp, or "" when its group is
// concrete.
func (in *inferrer) generic(tp *types.TypeParam) string {
	if !tp.Implicit() {
		return tp.Name()
	}
	if in.g.concreteOf(tp) != nil {
		return ""
	}
	return in.sig.Generic(tp.Name())
}

func (in *inferrer) require(tp *types.TypeParam, trait string) {
	n := in.generic(tp)
	if n == "" {
		return
	}
	trait = strings.ReplaceAll(trait, "$T", n)
	in.sig.AddBound(n, trait)
	if in.inferred == nil {
		in.inferred = make(Bounds)
	}
	for _, b := range in.inferred[n] {
		if b == trait {
			return
		}
	}
	in.inferred[n] = append(in.inferred[n], trait)
	sort.Strings(in.inferred[n])
}

var arithTraits = map[syntax.Token]string{
	syntax.Add: "Add",
	syntax.Sub: "Sub",
	syntax.Mul: "Mul",
	syntax.Div: "Div",
	syntax.Rem: "Rem",
}

// constrain collects the bounds required by the body.
func (in *inferrer) constrain(body *syntax.BlockStmt) {
	syntax.Inspect(body, func(n syntax.Node) {
		switch n := n.(type) {
		case *syntax.Operation:
			in.operation(n)
		case *syntax.AssignStmt:
			if n.Op != syntax.Assign {
				if tp := in.tpOf(n.Lhs); tp != nil {
					in.require(tp, arithTraits[n.Op.BinaryOp()]+"Assign")
				}
			}
		case *syntax.IndexExpr:
			if tp := in.tpOf(n.X); tp != nil {
				in.require(tp, "Index<usize>")
			}
		case *syntax.ForStmt:
			if tp := in.tpOf(n.Iter); tp != nil {
				in.require(tp, "IntoIterator")
			}
		case *syntax.MethodCallExpr:
			in.methodCall(n)
		case *syntax.MacroCall:
			in.format(n.Name.Value, n.Args)
		case *syntax.CallExpr:
			if name, ok := n.Fun.(*syntax.Name); ok {
				if _, ok := in.info.ObjectOf(name).(*types.Builtin); ok {
					in.format(name.Value, n.Args)
				}
			}
		case *syntax.InterpString:
			for _, p := range n.Parts {
				if _, ok := p.(*syntax.BasicLit); ok {
					continue
				}
				if tp := in.tpOf(p); tp != nil {
					in.require(tp, "Display")
				}
			}
		}
	})
}

func (in *inferrer) operation(e *syntax.Operation) {
	tp := in.tpOf(e.X)
	if tp == nil {
		return
	}
	if e.Y == nil {
		switch e.Op {
		case syntax.Sub:
			in.require(tp, "Neg<Output = $T>")
		case syntax.Not:
			in.require(tp, "Not<Output = $T>")
		}
		return
	}
	switch e.Op {
	case syntax.Lss, syntax.Leq, syntax.Gtr, syntax.Geq:
		in.require(tp, "PartialOrd")
	case syntax.Eql, syntax.Neq:
		in.require(tp, "PartialEq")
	default:
		if t, ok := arithTraits[e.Op]; ok {
			in.require(tp, t+"<Output = $T>")
		}
	}
}

// methodCall requires the single trait that declares the method. A
// method declared by several traits is ambiguous unless a written bound
// names one of them.
func (in *inferrer) methodCall(e *syntax.MethodCallExpr) {
	tp := in.tpOf(e.X)
	if tp == nil {
		return
	}
	name := e.Name.Value
	cands := types.StdTraitsWithMethod(name)
	for _, t := range in.traits[name] {
		if !contains(cands, t) {
			cands = append(cands, t)
		}
	}
	sort.Strings(cands)
	switch len(cands) {
	case 0:
		return
	case 1:
		in.require(tp, cands[0])
		return
	}
	for _, b := range in.sig.Bounds[in.generic(tp)] {
		if contains(cands, b) {
			return
		}
	}
	if in.bag == nil {
		return
	}
	d := in.bag.Errorf(diag.AmbiguousMethod, e.Name.Span(),
		"multiple applicable items in scope: `%s` is defined in traits %s", name, quoteList(cands))
	for i, c := range cands {
		d.Notes = append(d.Notes, fmt.Sprintf("candidate #%d is defined in trait `%s`", i+1, c))
	}
	d.Help = fmt.Sprintf("add a bound to disambiguate: `%s: %s`", in.generic(tp), cands[0])
}

var formatMacros = map[string]int{
	"print":    0,
	"println":  0,
	"eprint":   0,
	"eprintln": 0,
	"format":   0,
	"panic":    0,
	"write":    1,
	"writeln":  1,
}

// format requires Display or Debug for each argument formatted by a
// print-like macro or builtin.
func (in *inferrer) format(name string, args []syntax.Expr) {
	at, ok := formatMacros[name]
	if !ok || at >= len(args) {
		return
	}
	lit, ok := args[at].(*syntax.BasicLit)
	if !ok || lit.Kind != syntax.StringLit {
		return
	}
	rest := args[at+1:]
	next := 0
	for _, ph := range placeholders(lit.Value) {
		trait := "Display"
		if ph.debug {
			trait = "Debug"
		}
		var tp *types.TypeParam
		switch {
		case ph.name != "":
			tp = in.paramNamed(ph.name)
		case ph.index >= 0:
			if ph.index < len(rest) {
				tp = in.tpOf(rest[ph.index])
			}
		default:
			if next < len(rest) {
				tp = in.tpOf(rest[next])
			}
			next++
		}
		if tp != nil {
			in.require(tp, trait)
		}
	}
}

// paramNamed returns the generic type of the parameter called name, for
// inline format arguments such as {x}.
func (in *inferrer) paramNamed(name string) *types.TypeParam {
	for _, p := range in.sig.Params {
		if p.Name != name {
			continue
		}
		if tp, ok := types.Deref(p.Var.Type()).(*types.TypeParam); ok && in.g.has(tp) {
			return tp
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func quoteList(list []string) string {
	q := make([]string, len(list))
	for i, s := range list {
		q[i] = "`" + s + "`"
	}
	if len(q) == 2 {
		return q[0] + " and " + q[1]
	}
	return strings.Join(q[:len(q)-1], ", ") + " and " + q[len(q)-1]
}
