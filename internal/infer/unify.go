package infer

import "github.com/windjammer-lang/wj/internal/types"

// groups is a union-find over the type parameters of one function. A
// group may be pinned to a concrete type when one of its members meets a
// literal of that type.
type groups struct {
	parent   map[*types.TypeParam]*types.TypeParam
	concrete map[*types.TypeParam]types.Type // keyed by root
}

func newGroups() *groups {
	return &groups{
		parent:   make(map[*types.TypeParam]*types.TypeParam),
		concrete: make(map[*types.TypeParam]types.Type),
	}
}

func (g *groups) add(p *types.TypeParam) {
	if _, ok := g.parent[p]; !ok {
		g.parent[p] = p
	}
}

func (g *groups) has(p *types.TypeParam) bool {
	_, ok := g.parent[p]
	return ok
}

func (g *groups) find(p *types.TypeParam) *types.TypeParam {
	for g.parent[p] != p {
		g.parent[p] = g.parent[g.parent[p]]
		p = g.parent[p]
	}
	return p
}

// union merges the groups of p and q. Only implicit parameters are
// merged; a written generic keeps its identity.
func (g *groups) union(p, q *types.TypeParam) {
	if !p.Implicit() || !q.Implicit() {
		return
	}
	rp, rq := g.find(p), g.find(q)
	if rp == rq {
		return
	}
	// Keep the parameter declared first as the root so that naming
	// follows declaration order.
	if rq.Index() < rp.Index() {
		rp, rq = rq, rp
	}
	g.parent[rq] = rp
	if c, ok := g.concrete[rq]; ok {
		if _, pinned := g.concrete[rp]; !pinned {
			g.concrete[rp] = c
		}
		delete(g.concrete, rq)
	}
}

// pin records that the group of p is the concrete type t. The first
// pin wins.
func (g *groups) pin(p *types.TypeParam, t types.Type) {
	if !p.Implicit() {
		return
	}
	r := g.find(p)
	if _, ok := g.concrete[r]; !ok {
		g.concrete[r] = t
	}
}

// concreteOf returns the concrete type of p's group, or nil.
func (g *groups) concreteOf(p *types.TypeParam) types.Type {
	return g.concrete[g.find(p)]
}
