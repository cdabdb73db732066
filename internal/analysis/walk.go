package analysis

import (
	"fmt"

	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/stdlib"
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// use is how an expression's value is consumed.
type use uint8

const (
	useRead use = iota // shared borrow, or copy of a Copy value
	useMut             // exclusive borrow
	useMove            // by value
)

// flowState is the per-path state of a body: the bindings currently
// moved out, each with the expression that moved it, and the deferred
// bindings that may already hold a value.
type flowState struct {
	moved  map[*types.Var]syntax.Expr
	inited map[*types.Var]bool
}

func (s flowState) copy() flowState {
	c := flowState{moved: make(map[*types.Var]syntax.Expr, len(s.moved)), inited: make(map[*types.Var]bool, len(s.inited))}
	for v, e := range s.moved {
		c.moved[v] = e
	}
	for v := range s.inited {
		c.inited[v] = true
	}
	return c
}

// union merges o into s: a binding moved or initialized on any path is
// maybe-moved or maybe-initialized after the join.
func (s flowState) union(o flowState) {
	for v, e := range o.moved {
		if _, ok := s.moved[v]; !ok {
			s.moved[v] = e
		}
	}
	for v := range o.inited {
		s.inited[v] = true
	}
}

// walker analyzes one function body.
type walker struct {
	a        *analyzer
	sig      *Signature
	params   map[*types.Var]*Param
	state    flowState
	loop     int                 // loop and closure nesting depth
	depth    map[*types.Var]int  // loop depth at declaration
	deferred map[*types.Var]bool // declared without an initializer
	flow     *flowGraph
}

func newWalker(a *analyzer, s *Signature) *walker {
	w := &walker{
		a:        a,
		sig:      s,
		params:   make(map[*types.Var]*Param),
		state:    flowState{moved: make(map[*types.Var]syntax.Expr), inited: make(map[*types.Var]bool)},
		depth:    make(map[*types.Var]int),
		deferred: make(map[*types.Var]bool),
		flow:     newFlowGraph(),
	}
	if s.Recv != nil {
		w.params[s.Recv.Var] = s.Recv
	}
	for _, p := range s.Params {
		w.params[p.Var] = p
	}
	for v := range w.params {
		w.flow.root(v)
		a.facts(v)
	}
	return w
}

func (w *walker) run() {
	body := w.sig.Decl.Body
	w.block(body, useMove)
	var tail []*types.Var
	w.blockSources(body, &tail)
	w.flow.escape(tail)
	w.flow.solve(w.a.res)
}

// ----------------------------------------------------------------------------
// Control flow

func (w *walker) branches(alts ...func()) {
	start := w.state.copy()
	var out flowState
	for i, f := range alts {
		w.state = start.copy()
		f()
		if i == 0 {
			out = w.state
			continue
		}
		out.union(w.state)
	}
	if out.moved != nil {
		w.state = out
	}
}

// inLoop runs f one loop level deeper. The body may run zero times, so
// the state after the loop is the union of both outcomes.
func (w *walker) inLoop(f func()) {
	start := w.state.copy()
	w.loop++
	f()
	w.loop--
	w.state.union(start)
}

func (w *walker) block(b *syntax.BlockStmt, u use) {
	if b == nil {
		return
	}
	for i, s := range b.Stmts {
		if i == len(b.Stmts)-1 {
			w.tail(s, u)
			continue
		}
		w.stmt(s)
	}
}

// tail analyzes the last statement of a block, whose value is used as u.
func (w *walker) tail(s syntax.Stmt, u use) {
	switch s := s.(type) {
	case *syntax.ExprStmt:
		if !s.Semi {
			w.expr(s.X, u)
			return
		}
	case *syntax.IfStmt:
		w.ifStmt(s, u)
		return
	}
	w.stmt(s)
}

func (w *walker) stmt(s syntax.Stmt) {
	switch s := s.(type) {
	case *syntax.LetStmt:
		w.let(s)
	case *syntax.AssignStmt:
		w.assign(s)
	case *syntax.ExprStmt:
		w.expr(s.X, useRead)
	case *syntax.ReturnStmt:
		if s.Result != nil {
			w.expr(s.Result, useMove)
			w.flow.escape(w.sources(s.Result))
		}
	case *syntax.IfStmt:
		w.ifStmt(s, useRead)
	case *syntax.WhileStmt:
		w.inLoop(func() {
			w.expr(s.Cond, useRead)
			w.block(s.Body, useRead)
		})
	case *syntax.LoopStmt:
		w.inLoop(func() { w.block(s.Body, useRead) })
	case *syntax.ForStmt:
		w.forStmt(s)
	case *syntax.BlockStmt:
		w.block(s, useRead)
	}
}

func (w *walker) ifStmt(s *syntax.IfStmt, u use) {
	w.expr(s.Cond, useRead)
	then := func() { w.block(s.Then, u) }
	els := func() {}
	switch e := s.Else.(type) {
	case *syntax.BlockStmt:
		els = func() { w.block(e, u) }
	case *syntax.IfStmt:
		els = func() { w.ifStmt(e, u) }
	}
	w.branches(then, els)
}

func (w *walker) let(s *syntax.LetStmt) {
	var src []*types.Var
	if s.Value != nil {
		w.expr(s.Value, useMove)
		src = w.sources(s.Value)
	}
	for _, v := range w.bind(s.Pat, false) {
		if s.Value == nil {
			w.deferred[v] = true
		}
		w.flow.assign(v, src)
	}
}

// bind records the bindings introduced by p at the current loop depth.
func (w *walker) bind(p syntax.Pattern, byRef bool) []*types.Var {
	var out []*types.Var
	add := func(n *syntax.Name, ref bool) {
		v, _ := w.a.info.Defs[n].(*types.Var)
		if v == nil {
			return
		}
		w.depth[v] = w.loop
		f := w.a.facts(v)
		f.ByRef = byRef || ref
		out = append(out, v)
	}
	syntax.Walk(p, func(n syntax.Node) bool {
		switch n := n.(type) {
		case *syntax.IdentPat:
			add(n.Name, n.Ref)
			return false
		case *syntax.FieldPat:
			if n.Pat == nil {
				add(n.Name, false)
				return false
			}
			syntax.Walk(n.Pat, func(m syntax.Node) bool {
				if ip, ok := m.(*syntax.IdentPat); ok {
					add(ip.Name, ip.Ref)
					return false
				}
				return true
			})
			return false
		case *syntax.LitPat, *syntax.RangePat:
			return false
		}
		return true
	})
	return out
}

func (w *walker) assign(s *syntax.AssignStmt) {
	rhsUse := useMove
	if s.Op != syntax.Assign {
		rhsUse = useRead
	}
	w.expr(s.Rhs, rhsUse)

	switch lhs := unparen(s.Lhs).(type) {
	case *syntax.Name:
		v := w.a.info.VarOf(lhs)
		if v == nil {
			return
		}
		w.assignVar(v, s)
		if s.Op == syntax.Assign {
			delete(w.state.moved, v)
			w.flow.assign(v, w.sources(s.Rhs))
		}
	default:
		w.expr(s.Lhs, useMut)
		if root := w.root(s.Lhs); root != nil {
			w.flow.assign(root, w.sources(s.Rhs))
		}
	}
}

// assignVar checks a direct assignment of a binding.
func (w *walker) assignVar(v *types.Var, s *syntax.AssignStmt) {
	f := w.a.facts(v)
	f.Writes++
	if p := w.params[v]; p != nil {
		switch {
		case p.Written && p.Mode == Shared:
			w.a.errorf(diag.ImmutableAssign, s, "cannot assign to immutable argument `%s`", v.Name())
		case p.Written && p.Mode == Exclusive:
			// Assigns through the reference.
		case p.Mode == Copy:
			p.Mut = true
		default:
			w.promote(p, Owned)
			p.Mut = true
		}
		return
	}
	if v.Kind() != types.LocalVar || v.Mutable() {
		return
	}
	if w.deferred[v] && w.depth[v] == w.loop && s.Op == syntax.Assign && !w.state.inited[v] {
		w.state.inited[v] = true
		return
	}
	dg := w.a.errorf(diag.ImmutableAssign, s, "cannot assign twice to immutable variable `%s`", v.Name())
	dg.Help = fmt.Sprintf("consider making this binding mutable: `mut %s`", v.Name())
}

func (w *walker) forStmt(s *syntax.ForStmt) {
	iter := unparen(s.Iter)
	byRef := false
	switch it := iter.(type) {
	case *syntax.RangeExpr:
		w.expr(it, useRead)
	case *syntax.Name, *syntax.FieldExpr, *syntax.IndexExpr:
		// Places are iterated by reference.
		w.a.res.BorrowedIter[s] = true
		byRef = true
		w.expr(it, useRead)
	case *syntax.MethodCallExpr:
		switch it.Name.Value {
		case "iter", "iter_mut", "keys", "values":
			byRef = true
		}
		w.expr(it, useMove)
	default:
		w.expr(it, useMove)
	}
	w.inLoop(func() {
		w.bind(s.Pat, byRef)
		w.block(s.Body, useRead)
	})
}

// ----------------------------------------------------------------------------
// Expressions

func (w *walker) exprs(list []syntax.Expr, u use) {
	for _, e := range list {
		w.expr(e, u)
	}
}

func (w *walker) expr(e syntax.Expr, u use) {
	switch e := e.(type) {
	case nil, *syntax.BasicLit, *syntax.BadExpr, *syntax.PathExpr:

	case *syntax.Name:
		if v := w.a.info.VarOf(e); v != nil && v.Kind() != types.ConstVar && v.Kind() != types.FieldVar {
			w.useVar(v, e, u)
		}

	case *syntax.ParenExpr:
		w.expr(e.X, u)

	case *syntax.InterpString:
		w.exprs(e.Parts, useRead)

	case *syntax.Operation:
		w.operation(e, u)

	case *syntax.CallExpr:
		w.call(e)

	case *syntax.MethodCallExpr:
		w.methodCall(e)

	case *syntax.FieldExpr:
		w.place(e, e.X, u)

	case *syntax.IndexExpr:
		w.expr(e.Index, useRead)
		if _, ok := unparen(e.Index).(*syntax.RangeExpr); ok {
			// Slicing borrows.
			w.expr(e.X, useRead)
			return
		}
		w.place(e, e.X, u)

	case *syntax.Ternary:
		w.expr(e.Cond, useRead)
		then := func() { w.expr(e.Then, u) }
		els := func() {}
		if e.Else != nil {
			els = func() { w.expr(e.Else, u) }
		}
		w.branches(then, els)

	case *syntax.BlockExpr:
		w.block(e.Block, u)

	case *syntax.ClosureExpr:
		w.closure(e)

	case *syntax.MatchExpr:
		w.match(e, u)

	case *syntax.StructLit:
		for _, f := range e.Fields {
			w.expr(f.Value, useMove)
		}
		w.expr(e.Base, useMove)

	case *syntax.ArrayLit:
		w.exprs(e.Elems, useMove)

	case *syntax.TupleLit:
		w.exprs(e.Elems, useMove)

	case *syntax.RangeExpr:
		w.expr(e.Lo, useRead)
		w.expr(e.Hi, useRead)

	case *syntax.CastExpr:
		w.expr(e.X, useRead)

	case *syntax.TryExpr:
		w.expr(e.X, useMove)

	case *syntax.AwaitExpr:
		w.expr(e.X, useMove)

	case *syntax.MacroCall:
		if e.Name.Value == "vec" {
			w.exprs(e.Args, useMove)
			return
		}
		w.exprs(e.Args, useRead)
	}
}

func (w *walker) operation(e *syntax.Operation, u use) {
	if e.Y == nil {
		switch e.Op {
		case syntax.And:
			if e.Mut {
				w.expr(e.X, useMut)
			} else {
				w.expr(e.X, useRead)
			}
		case syntax.Mul:
			if u == useMut {
				w.expr(e.X, useMut)
			} else {
				w.expr(e.X, useRead)
			}
		default:
			w.expr(e.X, w.operand(e.X))
		}
		return
	}
	switch {
	case e.Op.IsArithmetic():
		if types.IsString(types.Deref(w.a.info.TypeOf(e.X))) {
			// String + &str consumes the left operand only.
			w.expr(e.X, useMove)
			w.expr(e.Y, useRead)
			return
		}
		w.expr(e.X, w.operand(e.X))
		w.expr(e.Y, w.operand(e.Y))
	default:
		w.expr(e.X, useRead)
		w.expr(e.Y, useRead)
	}
}

// operand returns the use of an arithmetic operand: the operator traits
// take their operands by value.
func (w *walker) operand(x syntax.Expr) use {
	if types.IsCopy(w.a.info.TypeOf(x)) {
		return useRead
	}
	return useMove
}

// place analyzes a field or element access. Moving a non-Copy value out
// of a place clones it; otherwise the base is borrowed the way the
// access is.
func (w *walker) place(e, base syntax.Expr, u use) {
	t := w.a.info.TypeOf(e)
	if u == useMove && !types.IsCopy(t) && cloneable(t) {
		w.clone(e)
		u = useRead
	}
	if u == useMut {
		w.expr(base, useMut)
		return
	}
	w.expr(base, useRead)
}

func (w *walker) clone(e syntax.Expr) {
	w.a.res.Clones[e] = true
}

func (w *walker) closure(e *syntax.ClosureExpr) {
	w.inLoop(func() {
		for _, p := range e.Params {
			if v, ok := w.a.info.Defs[p.Name].(*types.Var); ok {
				w.depth[v] = w.loop
				w.a.facts(v)
			}
		}
		w.expr(e.Body, useMove)
	})
	cv := w.flow.closure(e)
	w.flow.assign(cv, w.captures(e))
}

// captures returns the bindings a closure body refers to that are
// declared outside of it.
func (w *walker) captures(e *syntax.ClosureExpr) []*types.Var {
	var out []*types.Var
	seen := make(map[*types.Var]bool)
	syntax.Walk(e.Body, func(n syntax.Node) bool {
		name, ok := n.(*syntax.Name)
		if !ok {
			return true
		}
		v, _ := w.a.info.Uses[name].(*types.Var)
		if v == nil || seen[v] || v.Kind() == types.ConstVar {
			return true
		}
		if !v.Pos().Before(e.Pos()) {
			return true
		}
		seen[v] = true
		out = append(out, v)
		return true
	})
	return out
}

func (w *walker) match(e *syntax.MatchExpr, u use) {
	x := unparen(e.X)
	byRef := false
	if isPlace(x) && !types.IsCopy(w.a.info.TypeOf(x)) {
		byRef = true
		w.a.res.BorrowedMatch[e] = true
		w.expr(x, useRead)
	} else {
		w.expr(x, useMove)
	}
	alts := make([]func(), len(e.Arms))
	for i, arm := range e.Arms {
		alts[i] = func() {
			w.bind(arm.Pat, byRef)
			if arm.Guard != nil {
				w.expr(arm.Guard, useRead)
			}
			w.expr(arm.Body, u)
		}
	}
	if len(alts) > 0 {
		w.branches(alts...)
	}
}

// ----------------------------------------------------------------------------
// Calls

// borrow is one argument slot of a call that names a binding directly.
type borrow struct {
	v    *types.Var
	mode Mode
	at   syntax.Expr
}

func (w *walker) call(e *syntax.CallExpr) {
	switch fun := unparen(e.Fun).(type) {
	case *syntax.Name:
		switch obj := w.a.info.ObjectOf(fun).(type) {
		case *types.FuncObj:
			w.userCall(w.a.sigs.Lookup(obj), nil, e.Args)
			return
		case *types.Builtin:
			switch obj.Kind() {
			case types.BuiltinSome, types.BuiltinOk, types.BuiltinErr, types.BuiltinDrop:
				w.exprs(e.Args, useMove)
			default:
				w.exprs(e.Args, useRead)
			}
			return
		case *types.Module:
			w.exprs(e.Args, useRead)
			return
		}
	case *syntax.PathExpr:
		last := fun.Segments[len(fun.Segments)-1]
		if f, ok := w.a.info.Uses[last].(*types.FuncObj); ok {
			w.userCall(w.a.sigs.Lookup(f), nil, e.Args)
			return
		}
		if m, ok := w.a.info.Uses[fun.Segments[0]].(*types.Module); ok && m.IsStd() {
			w.exprs(e.Args, useRead)
			return
		}
		// Variant constructors, Box::new, String::from and friends.
		w.exprs(e.Args, useMove)
		return
	}
	w.expr(e.Fun, useRead)
	w.exprs(e.Args, useMove)
}

// userCall analyzes a call of an analyzed function. A nil signature
// passes every argument by value.
func (w *walker) userCall(sig *Signature, recv syntax.Expr, args []syntax.Expr) {
	var borrows []borrow
	if recv != nil {
		m := Shared
		if sig != nil && sig.Recv != nil {
			m = sig.Recv.Mode
		}
		w.arg(recv, m, &borrows)
	}
	for i, a := range args {
		m := Owned
		if sig != nil {
			if p := sig.Param(i); p != nil {
				m = p.Mode
			}
		}
		w.arg(a, m, &borrows)
	}
	w.checkBorrows(borrows)
}

func (w *walker) arg(a syntax.Expr, m Mode, borrows *[]borrow) {
	switch m {
	case Shared:
		w.expr(a, useRead)
	case Exclusive:
		w.expr(a, useMut)
	case Owned:
		w.expr(a, useMove)
		w.flow.escape(w.sources(a))
	default:
		w.expr(a, useMove)
	}
	if v := w.boundName(a); v != nil {
		*borrows = append(*borrows, borrow{v: v, mode: m, at: a})
	}
}

// boundName returns the binding named by x or &x, or nil.
func (w *walker) boundName(x syntax.Expr) *types.Var {
	switch x := unparen(x).(type) {
	case *syntax.Name:
		return w.a.info.VarOf(x)
	case *syntax.Operation:
		if x.Op == syntax.And && x.Y == nil {
			if n, ok := unparen(x.X).(*syntax.Name); ok {
				return w.a.info.VarOf(n)
			}
		}
	}
	return nil
}

// checkBorrows reports a binding borrowed mutably by one argument of a
// call while another argument borrows it too.
func (w *walker) checkBorrows(list []borrow) {
	for i, b := range list {
		if b.mode != Exclusive {
			continue
		}
		for j, o := range list {
			if i == j || o.v != b.v {
				continue
			}
			switch {
			case o.mode == Exclusive && j < i:
				w.a.errorf(diag.BorrowConflict, b.at, "cannot borrow `%s` as mutable more than once at a time", b.v.Name())
			case o.mode == Shared && !types.IsCopy(o.v.Type()):
				w.a.errorf(diag.BorrowConflict, b.at, "cannot borrow `%s` as mutable because it is also borrowed as immutable", b.v.Name())
			default:
				continue
			}
			return
		}
	}
}

func (w *walker) methodCall(e *syntax.MethodCallExpr) {
	if f, ok := w.a.info.Uses[e.Name].(*types.FuncObj); ok {
		w.userCall(w.a.sigs.Lookup(f), e.X, e.Args)
		return
	}
	name := e.Name.Value
	var borrows []borrow
	mode := Shared
	switch stdlib.MethodRecv(name) {
	case stdlib.RecvExclusive:
		mode = Exclusive
		w.expr(e.X, useMut)
	case stdlib.RecvOwned:
		mode = Owned
		w.expr(e.X, useMove)
	default:
		w.expr(e.X, useRead)
	}
	if v := w.boundName(e.X); v != nil {
		borrows = append(borrows, borrow{v: v, mode: mode, at: e.X})
	}
	m, _ := stdlib.LookupMethod(name)
	owns := m != nil && m.Owns
	root := w.root(e.X)
	for _, a := range e.Args {
		if owns {
			w.expr(a, useMove)
			if root != nil {
				w.flow.assign(root, w.sources(a))
			}
		} else {
			w.expr(a, useRead)
		}
		if v := w.boundName(a); v != nil {
			am := Shared
			if owns {
				am = Owned
			}
			borrows = append(borrows, borrow{v: v, mode: am, at: a})
		}
	}
	w.checkBorrows(borrows)
}

// ----------------------------------------------------------------------------
// Bindings

// useVar records one use of v at name.
func (w *walker) useVar(v *types.Var, at *syntax.Name, u use) {
	f := w.a.facts(v)
	if site, ok := w.state.moved[v]; ok {
		w.useAfterMove(v, at, site)
	}
	p := w.params[v]
	copyable := types.IsCopy(v.Type())
	if u == useMove && copyable {
		u = useRead
	}
	switch u {
	case useRead:
		f.Reads++
		if !copyable {
			f.BorrowedImmut = true
		}
	case useMut:
		f.Writes++
		f.BorrowedMut = true
		switch {
		case p == nil:
			f.NeedsMut = true
		case p.Written && p.Mode == Shared:
			w.a.errorf(diag.ImmutableAssign, at, "cannot borrow `%s` as mutable, as it is behind a `&` reference", v.Name())
		case p.Mode == Copy && p.Self:
			p.Mode = Exclusive
		case p.Mode == Copy || p.Mode == Owned:
			p.Mut = true
		default:
			w.promote(p, Exclusive)
		}
	case useMove:
		w.move(v, at, p, f)
	}
}

func (w *walker) move(v *types.Var, at *syntax.Name, p *Param, f *UsageFacts) {
	borrowed := f.ByRef || p != nil && p.Written && p.Mode != Owned
	if borrowed {
		if cloneable(v.Type()) {
			w.clone(at)
		}
		f.Reads++
		return
	}
	if p != nil {
		w.promote(p, Owned)
	}
	if w.depth[v] < w.loop {
		// Moved on every iteration of an enclosing loop or every call
		// of an enclosing closure.
		if cloneable(v.Type()) {
			w.clone(at)
			f.Reads++
			return
		}
		dg := w.a.errorf(diag.MovedValue, at, "use of moved value: `%s`", v.Name())
		dg.Notes = append(dg.Notes, "value moved here, in previous iteration of loop")
		return
	}
	f.moves++
	w.state.moved[v] = at
}

// useAfterMove resolves a use of v after it was moved at site: the move
// becomes a clone when v's type allows it.
func (w *walker) useAfterMove(v *types.Var, at *syntax.Name, site syntax.Expr) {
	delete(w.state.moved, v)
	if cloneable(v.Type()) {
		w.clone(site)
		w.a.facts(v).moves--
		return
	}
	dg := w.a.errorf(diag.MovedValue, at, "use of moved value: `%s`", v.Name())
	dg.Notes = append(dg.Notes, fmt.Sprintf("value moved at %s", site.Pos()))
	dg.Help = fmt.Sprintf("`%s` has type `%s`, which does not implement the `Clone` trait", v.Name(), v.Type())
}

func (w *walker) promote(p *Param, m Mode) {
	if p.Written || p.Mode == Copy {
		return
	}
	p.Mode = p.Mode.Join(m)
}

// root returns the binding at the base of a place expression.
func (w *walker) root(e syntax.Expr) *types.Var {
	for {
		switch x := e.(type) {
		case *syntax.Name:
			return w.a.info.VarOf(x)
		case *syntax.FieldExpr:
			e = x.X
		case *syntax.IndexExpr:
			e = x.X
		case *syntax.ParenExpr:
			e = x.X
		case *syntax.MethodCallExpr:
			// get_mut, iter_mut, entry and friends return borrows of
			// their receiver.
			e = x.X
		case *syntax.Operation:
			if x.Y != nil {
				return nil
			}
			e = x.X
		default:
			return nil
		}
	}
}

func isPlace(e syntax.Expr) bool {
	switch e.(type) {
	case *syntax.Name, *syntax.FieldExpr, *syntax.IndexExpr:
		return true
	}
	return false
}

func unparen(e syntax.Expr) syntax.Expr {
	for {
		p, ok := e.(*syntax.ParenExpr)
		if !ok {
			return e
		}
		e = p.X
	}
}
