package types

import "sort"

// Package represents one compilation unit: a source file and the names
// it declares and imports.
type Package struct {
	name    string
	scope   *Scope
	imports map[string]*Module // by full path
}

// NewPackage creates a new package with the given name.
func NewPackage(name string) *Package {
	return &Package{
		name:    name,
		scope:   NewScope(Universe, ModuleScope, NoPos, NoPos, "module "+name),
		imports: make(map[string]*Module),
	}
}

// Name returns the package name.
func (p *Package) Name() string {
	return p.name
}

// Scope returns the package-level scope.
func (p *Package) Scope() *Scope {
	return p.scope
}

// AddImport records an imported module.
func (p *Package) AddImport(m *Module) {
	p.imports[m.Path()] = m
}

// Imports returns the imported modules sorted by path.
func (p *Package) Imports() []*Module {
	out := make([]*Module, 0, len(p.imports))
	for _, m := range p.imports {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path() < out[j].Path() })
	return out
}

// String returns the package name.
func (p *Package) String() string {
	return p.name
}
