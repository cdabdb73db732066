// Package analysis infers ownership for WJ programs. For every parameter
// it computes the weakest mode the function body needs (shared borrow,
// exclusive borrow or ownership), tracks moves of local bindings to find
// the uses that need an inserted clone, and computes which bindings
// escape their function.
//
// The analysis runs to a fixed point over the call graph: a parameter
// passed to a callee's owned parameter becomes owned itself.
package analysis

import (
	"sort"

	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/resolve"
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// UsageFacts summarizes how a binding is used by the body that declares
// it.
type UsageFacts struct {
	Reads         int
	Writes        int
	Moved         bool // moved out at least once
	BorrowedImmut bool
	BorrowedMut   bool
	Escapes       bool // returned, stored through an escaping path or captured by an escaping closure
	NeedsMut      bool // mutated through a method or field; emitted as let mut
	ByRef         bool // bound to a reference into a borrowed value

	moves int
}

// Result holds the output of the analysis.
type Result struct {
	Sigs  *SignatureTable
	Facts map[*types.Var]*UsageFacts

	// Clones holds the expressions whose value must be cloned: moves
	// followed by a later use, moves out of borrowed values and moves
	// repeated by a loop.
	Clones map[syntax.Expr]bool

	// BorrowedIter holds for loops that iterate a place by reference.
	BorrowedIter map[*syntax.ForStmt]bool

	// BorrowedMatch holds match expressions whose scrutinee is a
	// non-Copy place matched by reference.
	BorrowedMatch map[*syntax.MatchExpr]bool

	// MoveClosures holds closures that escape and must capture by value.
	MoveClosures map[*syntax.ClosureExpr]bool
}

// FactsOf returns the facts of v. The result is never nil.
func (r *Result) FactsOf(v *types.Var) *UsageFacts {
	if f := r.Facts[v]; f != nil {
		return f
	}
	return &UsageFacts{}
}

// NeedsMut reports whether the local binding v must be declared mut.
func (r *Result) NeedsMut(v *types.Var) bool {
	return v.Mutable() || r.FactsOf(v).NeedsMut
}

// CloneSites returns the clone sites in source order.
func (r *Result) CloneSites() []syntax.Expr {
	out := make([]syntax.Expr, 0, len(r.Clones))
	for e := range r.Clones {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pos().Before(out[j].Pos()) })
	return out
}

// Param returns the analyzed parameter bound to v, or nil.
func (r *Result) Param(v *types.Var) *Param {
	for _, s := range r.Sigs.All() {
		if s.Recv != nil && s.Recv.Var == v {
			return s.Recv
		}
		for _, p := range s.Params {
			if p.Var == v {
				return p
			}
		}
	}
	return nil
}

type analyzer struct {
	info *resolve.Info
	sigs *SignatureTable
	res  *Result
	bag  *diag.Bag // nil outside the reporting round
}

// Analyze infers ownership for every function of file. Diagnostics are
// reported once, after the parameter modes have reached their fixed
// point.
func Analyze(file *syntax.File, info *resolve.Info, bag *diag.Bag) *Result {
	a := &analyzer{info: info, sigs: NewSignatureTable()}
	a.collect(file)

	rounds := 2*len(a.sigs.modes()) + 1
	for i := 0; i < rounds; i++ {
		before := a.sigs.modes()
		a.round(nil)
		if equalModes(before, a.sigs.modes()) {
			break
		}
	}
	a.round(bag)
	return a.res
}

// round analyzes every body once against the current signature table.
func (a *analyzer) round(bag *diag.Bag) {
	a.bag = bag
	a.res = &Result{
		Sigs:          a.sigs,
		Facts:         make(map[*types.Var]*UsageFacts),
		Clones:        make(map[syntax.Expr]bool),
		BorrowedIter:  make(map[*syntax.ForStmt]bool),
		BorrowedMatch: make(map[*syntax.MatchExpr]bool),
		MoveClosures:  make(map[*syntax.ClosureExpr]bool),
	}
	for _, s := range a.sigs.All() {
		if s.Decl.Body != nil {
			newWalker(a, s).run()
		}
	}
	for _, f := range a.res.Facts {
		f.Moved = f.moves > 0
	}
}

func equalModes(x, y []Mode) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// collect builds the initial signature of every function and method.
func (a *analyzer) collect(file *syntax.File) {
	for _, d := range file.Items {
		switch d := d.(type) {
		case *syntax.FuncDecl:
			a.addFunc(d, "")
		case *syntax.ImplDecl:
			recv := ""
			if nt, ok := d.Type.(*syntax.NamedType); ok {
				recv = nt.Name()
			}
			for _, m := range d.Methods {
				a.addFunc(m, recv)
			}
		case *syntax.TraitDecl:
			for _, m := range d.Methods {
				if m.Body != nil {
					a.addFunc(m, d.Name.Value)
				}
			}
		}
	}
}

func (a *analyzer) addFunc(d *syntax.FuncDecl, recv string) {
	obj := a.info.Funcs[d]
	if obj == nil {
		return
	}
	name := d.Name.Value
	if recv != "" {
		name = recv + "::" + name
	}
	s := &Signature{Func: obj, Decl: d, Name: name}
	for _, p := range d.Params {
		v, _ := a.info.Defs[p.Name].(*types.Var)
		if v == nil {
			v = types.NewParam(p.Pos(), p.Name.Value, types.Typ[types.Invalid])
		}
		ap := &Param{Name: p.Name.Value, Var: v, Self: p.IsSelf}
		initialMode(ap, p, v.Type())
		if p.IsSelf {
			s.Recv = ap
			continue
		}
		s.Params = append(s.Params, ap)
	}
	a.sigs.add(s)
}

// initialMode sets the starting mode of a parameter: the written mode if
// there is one, Copy for Copy types and Shared otherwise.
func initialMode(ap *Param, p *syntax.Param, t types.Type) {
	switch p.Mode {
	case syntax.ModeRef:
		ap.Mode, ap.Written = Shared, true
		return
	case syntax.ModeMutRef:
		ap.Mode, ap.Written = Exclusive, true
		return
	case syntax.ModeMut:
		ap.Mode, ap.Written, ap.Mut = Owned, true, true
		return
	}
	if r, ok := p.Type.(*syntax.RefType); ok {
		ap.Written = true
		if r.Mut {
			ap.Mode = Exclusive
		} else {
			ap.Mode = Shared
		}
		return
	}
	if types.IsCopy(t) {
		ap.Mode = Copy
		return
	}
	ap.Mode = Shared
}

func (a *analyzer) errorf(code string, at syntax.Node, format string, args ...interface{}) *diag.Diagnostic {
	if a.bag == nil {
		return &diag.Diagnostic{}
	}
	return a.bag.Errorf(code, at.Span(), format, args...)
}

func (a *analyzer) facts(v *types.Var) *UsageFacts {
	f := a.res.Facts[v]
	if f == nil {
		f = &UsageFacts{}
		a.res.Facts[v] = f
	}
	return f
}

// cloneable reports whether a value of type t can be duplicated with
// clone. Type parameters qualify since inference adds the Clone bound,
// and so do types that could not be determined.
func cloneable(t types.Type) bool {
	if _, ok := t.(*types.TypeParam); ok || types.IsInvalid(t) {
		return true
	}
	return types.IsClone(t)
}
