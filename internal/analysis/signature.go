package analysis

import (
	"sort"
	"strings"

	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// Param is the analyzed form of one parameter.
type Param struct {
	Name    string
	Var     *types.Var
	Self    bool
	Mode    Mode
	Written bool // the mode was written in source and is not inferred
	Mut     bool // an owned parameter that is reassigned or mutated
}

// Signature is the analyzed signature of a function or method.
type Signature struct {
	Func *types.FuncObj
	Decl *syntax.FuncDecl
	Name string // add, or Point::dist for methods

	// Recv is the self parameter of a method, or nil.
	Recv   *Param
	Params []*Param

	// TypeParams lists the emitted generic parameters: the written ones
	// followed by the implicit ones as renamed by trait-bound inference
	// (T, U, ...).
	TypeParams []string

	// Rename maps an implicit parameter's internal name (_x) to its
	// emitted generic name.
	Rename map[string]string

	// Bounds maps each generic parameter name to its sorted trait
	// bounds: written bounds unioned with inferred ones.
	Bounds map[string][]string

	// Concrete maps implicit parameters unified with a concrete type to
	// that type.
	Concrete map[string]types.Type
}

// Param returns the i'th non-self parameter, or nil.
func (s *Signature) Param(i int) *Param {
	if i < 0 || i >= len(s.Params) {
		return nil
	}
	return s.Params[i]
}

// Generic returns the emitted name for a type parameter name.
func (s *Signature) Generic(name string) string {
	if n, ok := s.Rename[name]; ok {
		return n
	}
	return name
}

// AddBound records trait as a bound of the generic parameter name.
func (s *Signature) AddBound(name, trait string) {
	if s.Bounds == nil {
		s.Bounds = make(map[string][]string)
	}
	for _, b := range s.Bounds[name] {
		if b == trait {
			return
		}
	}
	s.Bounds[name] = append(s.Bounds[name], trait)
	sort.Strings(s.Bounds[name])
}

// WhereClause renders the bounds as a deterministic where clause body,
// for example "T: Add<Output = T> + Display, U: Clone".
func (s *Signature) WhereClause() string {
	names := make([]string, 0, len(s.Bounds))
	for n, bs := range s.Bounds {
		if len(bs) > 0 {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n + ": " + strings.Join(s.Bounds[n], " + ")
	}
	return strings.Join(parts, ", ")
}

// SignatureTable holds the signatures of every function of a file.
type SignatureTable struct {
	sigs  map[*types.FuncObj]*Signature
	order []*Signature
}

// NewSignatureTable returns an empty table.
func NewSignatureTable() *SignatureTable {
	return &SignatureTable{sigs: make(map[*types.FuncObj]*Signature)}
}

func (t *SignatureTable) add(s *Signature) {
	t.sigs[s.Func] = s
	t.order = append(t.order, s)
}

// Lookup returns the signature of f, or nil when f was not analyzed.
func (t *SignatureTable) Lookup(f *types.FuncObj) *Signature {
	if t == nil || f == nil {
		return nil
	}
	return t.sigs[f]
}

// Of returns the signature of a declaration, or nil.
func (t *SignatureTable) Of(d *syntax.FuncDecl) *Signature {
	for _, s := range t.order {
		if s.Decl == d {
			return s
		}
	}
	return nil
}

// ByName returns the signature with the given qualified name.
func (t *SignatureTable) ByName(name string) *Signature {
	for _, s := range t.order {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// All returns the signatures in declaration order.
func (t *SignatureTable) All() []*Signature {
	return t.order
}

// modes returns a snapshot of every parameter mode, used to detect the
// fixed point.
func (t *SignatureTable) modes() []Mode {
	var out []Mode
	for _, s := range t.order {
		if s.Recv != nil {
			out = append(out, s.Recv.Mode)
		}
		for _, p := range s.Params {
			out = append(out, p.Mode)
		}
	}
	return out
}
