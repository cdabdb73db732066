package jsgen

import (
	"strconv"
	"strings"

	"github.com/windjammer-lang/wj/internal/resolve"
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// jsReserved holds JavaScript reserved words and restricted globals that
// are valid WJ identifiers.
var jsReserved = map[string]bool{
	"arguments": true, "case": true, "catch": true, "class": true,
	"debugger": true, "default": true, "delete": true, "do": true,
	"eval": true, "export": true, "extends": true, "finally": true,
	"function": true, "implements": true, "import": true, "instanceof": true,
	"interface": true, "new": true, "null": true, "package": true,
	"private": true, "protected": true, "public": true, "super": true,
	"switch": true, "this": true, "throw": true, "try": true, "typeof": true,
	"undefined": true, "var": true, "void": true, "with": true, "yield": true,
	"NaN": true, "Infinity": true,
}

type structInfo struct {
	decl   *syntax.StructDecl
	fields []string
}

type enumInfo struct {
	decl     *syntax.EnumDecl
	variants map[string]*syntax.Variant
}

// generator holds the state of one translation.
type generator struct {
	e    *emitter
	cfg  Config
	file *syntax.File
	info *resolve.Info

	structs  map[string]*structInfo
	enums    map[string]*enumInfo
	variants map[string][]string // variant name -> enums declaring it
	traits   map[string]*syntax.TraitDecl
	impls    map[string][]*syntax.ImplDecl // type name -> impls
	items    map[string]syntax.Decl        // top-level names
	chunk    map[*syntax.FuncDecl]string   // functions placed in a chunk
	exposes  map[string]string             // federation id -> item name
	exported map[string]bool               // names other modules import

	renames map[string]string
	helpers map[string]bool
	temp    int // counter for generated temporaries

	fnResult bool   // the current function yields a value
	self     string // type whose methods are being emitted
	inChunk  bool   // emitting a chunk module
}

func newGenerator(file *syntax.File, info *resolve.Info, cfg Config) *generator {
	g := &generator{
		cfg:      cfg,
		file:     file,
		info:     info,
		structs:  make(map[string]*structInfo),
		enums:    make(map[string]*enumInfo),
		variants: make(map[string][]string),
		traits:   make(map[string]*syntax.TraitDecl),
		impls:    make(map[string][]*syntax.ImplDecl),
		items:    make(map[string]syntax.Decl),
		chunk:    make(map[*syntax.FuncDecl]string),
		exposes:  make(map[string]string),
		exported: make(map[string]bool),
		renames:  make(map[string]string),
		helpers:  make(map[string]bool),
	}
	g.e = g.newEmitter()
	return g
}

func (g *generator) newEmitter() *emitter {
	return &emitter{buf: new(strings.Builder), compact: g.cfg.Minify}
}

// scan indexes the declarations of the file.
func (g *generator) scan() {
	for _, d := range g.file.Items {
		switch d := d.(type) {
		case *syntax.FuncDecl:
			g.items[d.Name.Value] = d
			if name, ok := attrString(d.Attrs, "chunk"); ok {
				g.chunk[d] = name
			}
			if id, ok := attrString(d.Attrs, "expose"); ok {
				g.exposes[id] = d.Name.Value
			}
		case *syntax.StructDecl:
			g.items[d.Name.Value] = d
			si := &structInfo{decl: d}
			for _, f := range d.Fields {
				si.fields = append(si.fields, f.Name.Value)
			}
			g.structs[d.Name.Value] = si
		case *syntax.EnumDecl:
			g.items[d.Name.Value] = d
			ei := &enumInfo{decl: d, variants: make(map[string]*syntax.Variant)}
			for _, v := range d.Variants {
				ei.variants[v.Name.Value] = v
				g.variants[v.Name.Value] = append(g.variants[v.Name.Value], d.Name.Value)
			}
			g.enums[d.Name.Value] = ei
		case *syntax.TraitDecl:
			g.traits[d.Name.Value] = d
		case *syntax.ImplDecl:
			name := typeName(d.Type)
			g.impls[name] = append(g.impls[name], d)
		case *syntax.ConstDecl:
			g.items[d.Name.Value] = d
		}
	}
	if fc := g.cfg.Federation; fc != nil {
		for id, item := range fc.Exposes {
			g.exposes[id] = item
		}
	}
	for _, item := range g.exposes {
		g.exported[item] = true
	}
}

// typeName returns the last path segment of a named type.
func typeName(t syntax.Type) string {
	switch t := t.(type) {
	case *syntax.NamedType:
		if len(t.Path) > 0 {
			return t.Path[len(t.Path)-1]
		}
	case *syntax.RefType:
		return typeName(t.Elem)
	}
	return ""
}

// attrString returns the unquoted first argument of the named attribute.
func attrString(list []*syntax.Attribute, name string) (string, bool) {
	for _, a := range list {
		if a.Name != name {
			continue
		}
		if len(a.Args) == 0 {
			return "", true
		}
		arg := strings.TrimSpace(a.Args[0])
		if s, err := strconv.Unquote(arg); err == nil {
			return s, true
		}
		return arg, true
	}
	return "", false
}

func hasAttr(list []*syntax.Attribute, name string) bool {
	_, ok := attrString(list, name)
	return ok
}

// ident returns the JavaScript spelling of a WJ identifier.
func (g *generator) ident(name string) string {
	if !jsReserved[name] {
		return name
	}
	out := name + "_"
	g.renames[name] = out
	return out
}

// tmp returns a fresh temporary name.
func (g *generator) tmp(prefix string) string {
	g.temp++
	return "$" + prefix + strconv.Itoa(g.temp-1)
}

// need records a runtime helper used by the generated code.
func (g *generator) need(helper string) {
	g.helpers[helper] = true
}

// resultOf reports whether the function declared by d yields a value.
func (g *generator) resultOf(d *syntax.FuncDecl) bool {
	if d.Name.Value == "main" && d.Result == nil {
		return false
	}
	if d.Result != nil {
		if tt, ok := d.Result.(*syntax.TupleType); ok && len(tt.Elems) == 0 {
			return false
		}
		return true
	}
	if fn := g.info.Funcs[d]; fn != nil {
		if sig := fn.Signature(); sig != nil && sig.Result() != nil {
			return !types.IsUnit(sig.Result())
		}
	}
	return false
}

// usesAwait reports whether n awaits, directly or through an async
// stdlib call.
func (g *generator) usesAwait(n syntax.Node) bool {
	found := false
	syntax.Walk(n, func(n syntax.Node) bool {
		if found {
			return false
		}
		switch n := n.(type) {
		case *syntax.AwaitExpr:
			found = true
		case *syntax.ClosureExpr:
			return false
		case *syntax.CallExpr:
			if f := g.stdFunc(n.Fun); f != nil && f.Async {
				found = true
			}
		}
		return !found
	})
	return found
}

// usesTry reports whether n contains a ? operator outside closures.
func usesTry(n syntax.Node) bool {
	found := false
	syntax.Walk(n, func(n syntax.Node) bool {
		switch n.(type) {
		case *syntax.TryExpr:
			found = true
		case *syntax.ClosureExpr:
			return false
		}
		return !found
	})
	return found
}

// enumOf returns the enum declaring the variant named by path, using
// the scrutinee type when the path is a bare variant name.
func (g *generator) enumOf(path []*syntax.Name, subject types.Type) *enumInfo {
	if len(path) > 1 {
		head := path[len(path)-2].Value
		if head == "Self" {
			if n, ok := types.Deref(subject).(*types.Named); ok {
				head = n.Obj().Name()
			}
		}
		return g.enums[head]
	}
	if n, ok := types.Deref(subject).(*types.Named); ok {
		if ei := g.enums[n.Obj().Name()]; ei != nil {
			return ei
		}
	}
	if list := g.variants[path[0].Value]; len(list) == 1 {
		return g.enums[list[0]]
	}
	return nil
}
