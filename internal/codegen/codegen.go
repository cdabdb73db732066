// Package codegen translates analyzed WJ programs into Rust source.
//
// The generator reads the tree together with its resolution and
// ownership analysis: parameter modes choose between T, &T and &mut T,
// inferred bounds become generic constraints, and usage facts decide
// where bindings are declared mut or dereferenced. Output is
// deterministic: identical inputs produce byte-identical text.
package codegen

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/windjammer-lang/wj/internal/analysis"
	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/resolve"
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// Target selects the flavor of the Rust output.
type Target uint8

const (
	Rust Target = iota
	Wasm        // Rust with wasm-bindgen exports
)

// Config controls code generation.
type Config struct {
	Target Target

	// Interned holds the interned string literals by id.
	Interned []string

	// Comments enables explanatory comments such as vectorization hints.
	Comments bool

	// Child marks a file that is a module of a larger crate rather than
	// the crate root; sibling imports are then spelled crate::name.
	Child bool

	// Modules lists the sibling source modules of the project.
	Modules []string
}

// Output is the generated Rust source of one file.
type Output struct {
	Code string

	// Renames maps WJ identifiers that collide with Rust keywords to
	// their emitted spelling.
	Renames map[string]string

	// Uses lists the Rust paths imported by the generated header.
	Uses []string
}

type generator struct {
	e    emitter
	cfg  Config
	file *syntax.File
	info *resolve.Info
	res  *analysis.Result

	sig      *analysis.Signature // function being generated
	result   types.Type          // its result type, nil for unit
	declared map[string]bool     // item names of the file
	enums    map[string][]string // variant name -> enums declaring it
	traits   map[string]*syntax.TraitDecl
	renames  map[string]string
	imp      *imports
	json     bool

	paramVars map[*types.Var]*analysis.Param
	async    bool // the program calls async stdlib functions
}

// Generate produces the Rust source of file. The resolution and
// analysis must describe file itself, not an earlier version of it.
func Generate(file *syntax.File, info *resolve.Info, res *analysis.Result, cfg Config) (*Output, error) {
	if file == nil || info == nil || res == nil {
		return nil, diag.Internalf("codegen", "missing input")
	}
	g := &generator{
		cfg:      cfg,
		file:     file,
		info:     info,
		res:      res,
		declared: make(map[string]bool),
		enums:    make(map[string][]string),
		traits:   make(map[string]*syntax.TraitDecl),
		renames:  make(map[string]string),
		imp:      newImports(),

		paramVars: make(map[*types.Var]*analysis.Param),
	}
	for _, sig := range res.Sigs.All() {
		if sig.Recv != nil {
			g.paramVars[sig.Recv.Var] = sig.Recv
		}
		for _, p := range sig.Params {
			g.paramVars[p.Var] = p
		}
	}
	g.scan()

	var body bytes.Buffer
	g.e.w = &body
	g.consts()
	first := body.Len() == 0
	for _, d := range file.Items {
		if u, ok := d.(*syntax.UseDecl); ok {
			g.useDecl(u)
			continue
		}
		if !first {
			g.e.emitLine()
		}
		first = false
		g.decl(d)
		g.e.emitLine()
	}
	if g.e.err != nil {
		return nil, diag.Internalf("codegen", "%v", g.e.err)
	}

	var out bytes.Buffer
	if cfg.Target == Wasm {
		g.imp.line("use wasm_bindgen::prelude::*;")
	}
	lines := g.imp.lines()
	for _, l := range lines {
		out.WriteString(l)
		out.WriteByte('\n')
	}
	if len(lines) > 0 && body.Len() > 0 {
		out.WriteByte('\n')
	}
	out.Write(body.Bytes())

	return &Output{Code: out.String(), Renames: g.renames, Uses: g.imp.paths()}, nil
}

// scan records the item names, enum variants and traits of the file and
// whether it imports std::json.
func (g *generator) scan() {
	for _, d := range g.file.Items {
		switch d := d.(type) {
		case *syntax.StructDecl:
			g.declared[d.Name.Value] = true
		case *syntax.EnumDecl:
			g.declared[d.Name.Value] = true
			for _, v := range d.Variants {
				g.enums[v.Name.Value] = append(g.enums[v.Name.Value], d.Name.Value)
			}
		case *syntax.TraitDecl:
			g.declared[d.Name.Value] = true
			g.traits[d.Name.Value] = d
		case *syntax.TypeAliasDecl:
			g.declared[d.Name.Value] = true
		}
	}
	for _, p := range g.info.Imports {
		if p == "std::json" || strings.HasPrefix(p, "std::json::") {
			g.json = true
		}
		switch {
		case p == "std::http", p == "std::async", p == "std::db",
			strings.HasPrefix(p, "std::http::"), strings.HasPrefix(p, "std::async::"), strings.HasPrefix(p, "std::db::"):
			g.async = true
		}
	}
}

// need records an unqualified use of a std name unless the file
// declares a type of the same name.
func (g *generator) need(name string) {
	if i := strings.IndexByte(name, '<'); i >= 0 {
		name = name[:i]
	}
	if !g.declared[name] {
		g.imp.need(name)
	}
}

func (g *generator) capture(f func()) string {
	return g.e.capture(f)
}

// consts emits the interned string literals.
func (g *generator) consts() {
	for i, s := range g.cfg.Interned {
		g.e.emit("const %s: &str = %s;\n", internName(i), quote(s))
	}
}

func internName(id int) string {
	return "STR_" + strconv.Itoa(id)
}
