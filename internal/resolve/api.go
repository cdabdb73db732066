// Package resolve implements name resolution for WJ programs. It builds
// the scope tree, binds every identifier to exactly one object, resolves
// use imports against the stdlib table and computes a best-effort type
// for each expression.
package resolve

import (
	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// Config specifies the configuration for resolution.
type Config struct {
	// Modules lists the sibling source modules of a project; use of
	// these names is accepted without a stdlib entry.
	Modules []string

	// Sizes provides type size information.
	// If nil, DefaultSizes is used.
	Sizes *types.Sizes
}

// Info holds the results of resolution.
type Info struct {
	Pkg *types.Package

	// Defs maps defining identifiers (parameters, pattern bindings and
	// item names) to their objects.
	Defs map[*syntax.Name]types.Object

	// Uses maps referencing identifiers to the objects they denote.
	Uses map[*syntax.Name]types.Object

	// Scopes maps FuncDecl, BlockStmt, ClosureExpr, MatchArm and
	// ForStmt nodes to their scopes.
	Scopes map[syntax.Node]*types.Scope

	// Types maps expressions to their types.
	Types map[syntax.Expr]types.Type

	// Funcs maps function and method declarations to their objects.
	Funcs map[*syntax.FuncDecl]*types.FuncObj

	// Vars holds every binding indexed by binding id.
	Vars []*types.Var

	// Imports lists the full import paths in source order.
	Imports []string

	// Unresolved lists identifiers that did not resolve.
	Unresolved []*syntax.Name
}

// ObjectOf returns the object denoted by name, or nil.
func (info *Info) ObjectOf(name *syntax.Name) types.Object {
	if obj := info.Uses[name]; obj != nil {
		return obj
	}
	return info.Defs[name]
}

// VarOf returns the binding denoted by name, or nil.
func (info *Info) VarOf(name *syntax.Name) *types.Var {
	v, _ := info.ObjectOf(name).(*types.Var)
	return v
}

// TypeOf returns the type of e, or Typ[Invalid].
func (info *Info) TypeOf(e syntax.Expr) types.Type {
	if t, ok := info.Types[e]; ok && t != nil {
		return t
	}
	return types.Typ[types.Invalid]
}

// Named returns the declared type with the given name, or nil.
func (info *Info) Named(name string) *types.Named {
	tn, ok := info.Pkg.Scope().Lookup(name).(*types.TypeName)
	if !ok {
		return nil
	}
	n, _ := tn.Type().(*types.Named)
	return n
}

// Func returns the package-level function with the given name, or nil.
func (info *Info) Func(name string) *types.FuncObj {
	f, _ := info.Pkg.Scope().Lookup(name).(*types.FuncObj)
	return f
}

// Resolve resolves file and reports problems to bag. It never fails:
// unresolved names are bound to nothing and typed as invalid so later
// stages can continue.
func Resolve(file *syntax.File, conf *Config, bag *diag.Bag) *Info {
	if conf == nil {
		conf = &Config{}
	}
	if conf.Sizes == nil {
		conf.Sizes = types.DefaultSizes
	}
	info := &Info{
		Defs:   make(map[*syntax.Name]types.Object),
		Uses:   make(map[*syntax.Name]types.Object),
		Scopes: make(map[syntax.Node]*types.Scope),
		Types:  make(map[syntax.Expr]types.Type),
		Funcs:  make(map[*syntax.FuncDecl]*types.FuncObj),
	}
	r := &resolver{
		conf:    conf,
		info:    info,
		bag:     bag,
		modules: make(map[string]bool),
	}
	for _, m := range conf.Modules {
		r.modules[m] = true
	}
	r.resolveFile(file)
	return info
}
