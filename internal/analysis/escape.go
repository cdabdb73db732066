package analysis

import (
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// flowGraph records which bindings' values may flow into which others.
// A binding escapes when its value reaches a return, an owning argument,
// a parameter (a store through self or a &mut argument) or an escaping
// closure.
type flowGraph struct {
	srcs     map[*types.Var][]*types.Var // dst -> values stored into dst
	sinks    map[*types.Var]bool         // stores into these escape
	escaped  map[*types.Var]bool
	closures map[*syntax.ClosureExpr]*types.Var
	order    []*syntax.ClosureExpr
}

func newFlowGraph() *flowGraph {
	return &flowGraph{
		srcs:     make(map[*types.Var][]*types.Var),
		sinks:    make(map[*types.Var]bool),
		escaped:  make(map[*types.Var]bool),
		closures: make(map[*syntax.ClosureExpr]*types.Var),
	}
}

// root marks v as a sink.
func (g *flowGraph) root(v *types.Var) {
	g.sinks[v] = true
}

func (g *flowGraph) assign(dst *types.Var, src []*types.Var) {
	if dst == nil {
		return
	}
	g.srcs[dst] = append(g.srcs[dst], src...)
}

func (g *flowGraph) escape(src []*types.Var) {
	for _, v := range src {
		g.escaped[v] = true
	}
}

// closure returns the node standing for the value of closure e.
func (g *flowGraph) closure(e *syntax.ClosureExpr) *types.Var {
	if v, ok := g.closures[e]; ok {
		return v
	}
	v := types.NewVar(e.Pos(), "|closure|", nil)
	g.closures[e] = v
	g.order = append(g.order, e)
	return v
}

// solve propagates escapes backwards along the flow edges and records
// the result.
func (g *flowGraph) solve(res *Result) {
	var work []*types.Var
	for v := range g.escaped {
		work = append(work, v)
	}
	for s := range g.sinks {
		for _, v := range g.srcs[s] {
			if !g.escaped[v] {
				g.escaped[v] = true
				work = append(work, v)
			}
		}
	}
	for len(work) > 0 {
		v := work[len(work)-1]
		work = work[:len(work)-1]
		for _, src := range g.srcs[v] {
			if !g.escaped[src] {
				g.escaped[src] = true
				work = append(work, src)
			}
		}
	}

	synthetic := make(map[*types.Var]bool, len(g.closures))
	for _, e := range g.order {
		v := g.closures[e]
		synthetic[v] = true
		if g.escaped[v] {
			res.MoveClosures[e] = true
		}
	}
	for v := range g.escaped {
		if synthetic[v] {
			continue
		}
		if f := res.Facts[v]; f != nil {
			f.Escapes = true
		} else {
			res.Facts[v] = &UsageFacts{Escapes: true}
		}
	}
}

// sources returns the bindings whose values may be part of the value
// of e. Fresh values (calls, clones, arithmetic) have none.
func (w *walker) sources(e syntax.Expr) []*types.Var {
	var out []*types.Var
	w.collectSources(e, &out)
	return out
}

func (w *walker) collectSources(e syntax.Expr, out *[]*types.Var) {
	switch e := e.(type) {
	case *syntax.Name:
		if w.a.res.Clones[e] {
			return
		}
		if v := w.a.info.VarOf(e); v != nil && v.Kind() != types.ConstVar {
			*out = append(*out, v)
		}
	case *syntax.ParenExpr:
		w.collectSources(e.X, out)
	case *syntax.Operation:
		if e.Y == nil && (e.Op == syntax.And || e.Op == syntax.Mul) {
			w.collectSources(e.X, out)
		}
	case *syntax.FieldExpr:
		if !w.a.res.Clones[e] {
			w.collectSources(e.X, out)
		}
	case *syntax.IndexExpr:
		if !w.a.res.Clones[e] {
			w.collectSources(e.X, out)
		}
	case *syntax.BlockExpr:
		w.blockSources(e.Block, out)
	case *syntax.Ternary:
		w.collectSources(e.Then, out)
		w.collectSources(e.Else, out)
	case *syntax.MatchExpr:
		for _, arm := range e.Arms {
			w.collectSources(arm.Body, out)
		}
	case *syntax.StructLit:
		for _, f := range e.Fields {
			w.collectSources(f.Value, out)
		}
		w.collectSources(e.Base, out)
	case *syntax.ArrayLit:
		for _, x := range e.Elems {
			w.collectSources(x, out)
		}
	case *syntax.TupleLit:
		for _, x := range e.Elems {
			w.collectSources(x, out)
		}
	case *syntax.MacroCall:
		if e.Name.Value == "vec" {
			for _, x := range e.Args {
				w.collectSources(x, out)
			}
		}
	case *syntax.CallExpr:
		if w.wraps(e) {
			for _, x := range e.Args {
				w.collectSources(x, out)
			}
		}
	case *syntax.ClosureExpr:
		*out = append(*out, w.flow.closure(e))
	case *syntax.TryExpr:
		w.collectSources(e.X, out)
	case *syntax.AwaitExpr:
		w.collectSources(e.X, out)
	}
}

// blockSources collects the sources of a block's value.
func (w *walker) blockSources(b *syntax.BlockStmt, out *[]*types.Var) {
	if b == nil || len(b.Stmts) == 0 {
		return
	}
	switch s := b.Stmts[len(b.Stmts)-1].(type) {
	case *syntax.ExprStmt:
		if !s.Semi {
			w.collectSources(s.X, out)
		}
	case *syntax.IfStmt:
		w.ifSources(s, out)
	}
}

func (w *walker) ifSources(s *syntax.IfStmt, out *[]*types.Var) {
	w.blockSources(s.Then, out)
	switch e := s.Else.(type) {
	case *syntax.BlockStmt:
		w.blockSources(e, out)
	case *syntax.IfStmt:
		w.ifSources(e, out)
	}
}

// wraps reports whether a call stores its arguments in its result:
// Some, Ok, Err, variant constructors and Box::new.
func (w *walker) wraps(e *syntax.CallExpr) bool {
	switch fun := unparen(e.Fun).(type) {
	case *syntax.Name:
		if b, ok := w.a.info.ObjectOf(fun).(*types.Builtin); ok {
			return b.IsConstructor()
		}
	case *syntax.PathExpr:
		last := fun.Segments[len(fun.Segments)-1]
		if _, ok := w.a.info.Uses[last].(*types.FuncObj); ok {
			return false
		}
		if m, ok := w.a.info.Uses[fun.Segments[0]].(*types.Module); ok && m.IsStd() {
			return false
		}
		return true
	}
	return false
}
