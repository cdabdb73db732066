package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/windjammer-lang/wj/internal/syntax"
)

// ScopeKind classifies scopes.
type ScopeKind uint8

const (
	UniverseScope ScopeKind = iota
	ModuleScope
	FuncScope
	BlockScope
	ClosureScope
)

// Scope represents a lexical scope.
// Scopes form a tree starting from the Universe scope.
type Scope struct {
	parent   *Scope
	children []*Scope
	elems    map[string]Object
	kind     ScopeKind
	pos, end syntax.Pos
	comment  string // debugging comment (e.g., "fn foo", "block")
}

// NewScope creates a new scope with the given parent.
func NewScope(parent *Scope, kind ScopeKind, pos, end syntax.Pos, comment string) *Scope {
	s := &Scope{
		parent:  parent,
		elems:   make(map[string]Object),
		kind:    kind,
		pos:     pos,
		end:     end,
		comment: comment,
	}
	if parent != nil {
		parent.children = append(parent.children, s)
	}
	return s
}

// Parent returns the parent scope, or nil for the Universe scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Children returns the list of child scopes.
func (s *Scope) Children() []*Scope {
	return s.children
}

// Kind returns the scope kind.
func (s *Scope) Kind() ScopeKind {
	return s.kind
}

// Pos returns the start position of the scope in source.
func (s *Scope) Pos() syntax.Pos {
	return s.pos
}

// End returns the end position of the scope in source.
func (s *Scope) End() syntax.Pos {
	return s.end
}

// Comment returns the scope's comment (for debugging).
func (s *Scope) Comment() string {
	return s.comment
}

// Lookup returns the object with the given name in the current scope.
// Returns nil if not found in this scope (does not search parent scopes).
func (s *Scope) Lookup(name string) Object {
	return s.elems[name]
}

// LookupParent returns the object with the given name by searching
// from the current scope up through all parent scopes.
// Returns the object and the scope in which it was found.
// Returns (nil, nil) if not found.
func (s *Scope) LookupParent(name string) (Object, *Scope) {
	for scope := s; scope != nil; scope = scope.parent {
		if obj := scope.elems[name]; obj != nil {
			return obj, scope
		}
	}
	return nil, nil
}

// Insert inserts an object into the scope.
// If an object with the same name already exists, returns the existing object.
// Otherwise, returns nil.
func (s *Scope) Insert(obj Object) Object {
	name := obj.Name()
	if existing := s.elems[name]; existing != nil {
		return existing
	}
	s.elems[name] = obj
	obj.setParent(s)
	return nil
}

// Shadow inserts obj, replacing any object of the same name. Let
// bindings may shadow earlier bindings in the same block.
func (s *Scope) Shadow(obj Object) {
	s.elems[obj.Name()] = obj
	obj.setParent(s)
}

// Names returns the names of all objects in the scope, sorted alphabetically.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.elems))
	for name := range s.elems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VisibleNames returns the names visible from s, innermost first and
// without duplicates. The universe is excluded.
func (s *Scope) VisibleNames() []string {
	seen := make(map[string]bool)
	var out []string
	for scope := s; scope != nil && scope.kind != UniverseScope; scope = scope.parent {
		for _, n := range scope.Names() {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

// NumObjects returns the number of objects in the scope.
func (s *Scope) NumObjects() int {
	return len(s.elems)
}

// Func returns the innermost enclosing function scope, or nil.
func (s *Scope) Func() *Scope {
	for scope := s; scope != nil; scope = scope.parent {
		if scope.kind == FuncScope {
			return scope
		}
	}
	return nil
}

// String returns a string representation of the scope for debugging.
func (s *Scope) String() string {
	var buf strings.Builder
	s.writeTo(&buf, 0)
	return buf.String()
}

func (s *Scope) writeTo(buf *strings.Builder, indent int) {
	prefix := strings.Repeat("  ", indent)
	fmt.Fprintf(buf, "%sscope %s {\n", prefix, s.comment)
	for _, name := range s.Names() {
		obj := s.elems[name]
		fmt.Fprintf(buf, "%s  %s: %s\n", prefix, name, obj.Type())
	}
	for _, child := range s.children {
		child.writeTo(buf, indent+1)
	}
	fmt.Fprintf(buf, "%s}\n", prefix)
}
