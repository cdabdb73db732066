package jsgen

import (
	"sort"
	"strconv"
	"strings"

	"github.com/windjammer-lang/wj/internal/syntax"
)

// entryItems emits the declarations placed in the entry module.
func (g *generator) entryItems() {
	first := true
	sep := func() {
		if !first {
			g.e.blank()
		}
		first = false
	}
	for _, d := range g.file.Items {
		switch d := d.(type) {
		case *syntax.UseDecl:
			g.useDecl(d)
		case *syntax.FuncDecl:
			sep()
			if name, ok := g.chunk[d]; ok {
				g.chunkStub(d, name)
			} else {
				g.funcDecl(d, g.isExported(d.Pub, d.Name.Value))
			}
			g.e.newline()
		case *syntax.StructDecl:
			sep()
			g.structDecl(d)
			g.e.newline()
		case *syntax.EnumDecl:
			sep()
			g.enumDecl(d)
			g.e.newline()
		case *syntax.ImplDecl:
			if g.structs[typeName(d.Type)] != nil || g.enums[typeName(d.Type)] != nil {
				continue // emitted with the class
			}
			if g.externalImpl(d, first) {
				first = false
			}
		case *syntax.ConstDecl:
			sep()
			g.constDecl(d)
			g.e.newline()
		}
	}
}

func (g *generator) isExported(pub bool, name string) bool {
	return pub || g.exported[name]
}

func (g *generator) exportKw(export bool) {
	if export {
		g.e.write("export ")
	}
}

// useDecl turns an import of a sibling module into an ES import.
// Stdlib and native imports have no JavaScript counterpart.
func (g *generator) useDecl(d *syntax.UseDecl) {
	if len(d.Path) == 0 {
		return
	}
	head := d.Path[0].Value
	if head == "std" {
		return
	}
	if head == "crate" || head == "super" || head == "self" {
		if len(d.Path) < 2 {
			return
		}
		d = &syntax.UseDecl{Path: d.Path[1:], Alias: d.Alias}
		head = d.Path[0].Value
	}
	if !g.sibling(head) || len(d.Path) < 2 {
		return
	}
	item := d.Path[len(d.Path)-1].Value
	mod := make([]string, len(d.Path)-1)
	for i, n := range d.Path[:len(d.Path)-1] {
		mod[i] = n.Value
	}
	spec := g.ident(item)
	if d.Alias != nil {
		spec += " as " + g.ident(d.Alias.Value)
	}
	g.e.mark(d.Pos(), "")
	g.e.write("import {")
	g.e.sp()
	g.e.write(spec)
	g.e.sp()
	g.e.write("} from " + quoteJS("./"+strings.Join(mod, "/")+".js") + ";")
	g.e.newline()
}

func (g *generator) sibling(name string) bool {
	for _, m := range g.cfg.Modules {
		if m == name {
			return true
		}
	}
	return false
}

// ----------------------------------------------------------------------------
// Functions

func (g *generator) funcDecl(d *syntax.FuncDecl, export bool) {
	g.exportKw(export)
	if d.Async || g.usesAwait(d) {
		g.e.write("async ")
	}
	g.e.mark(d.Name.Pos(), d.Name.Value)
	g.e.write("function " + g.ident(d.Name.Value))
	g.funcRest(d)
}

// method emits d inside a class body.
func (g *generator) method(d *syntax.FuncDecl) {
	if !isMethod(d) {
		g.e.write("static ")
	}
	if d.Async || g.usesAwait(d) {
		g.e.write("async ")
	}
	g.e.mark(d.Name.Pos(), d.Name.Value)
	g.e.write(d.Name.Value)
	g.funcRest(d)
}

func isMethod(d *syntax.FuncDecl) bool {
	return len(d.Params) > 0 && d.Params[0].IsSelf
}

// funcRest emits the parameter list and body of d.
func (g *generator) funcRest(d *syntax.FuncDecl) {
	g.e.write("(" + g.paramList(d.Params) + ")")
	g.e.sp()
	saved, temp := g.fnResult, g.temp
	g.fnResult = g.resultOf(d)
	g.temp = 0
	if usesTry(d.Body) {
		g.tryBody(d.Body)
	} else {
		g.block(d.Body, g.fnResult)
	}
	g.fnResult, g.temp = saved, temp
}

func (g *generator) paramList(list []*syntax.Param) string {
	var names []string
	for _, p := range list {
		if p.IsSelf {
			continue
		}
		names = append(names, g.ident(p.Name.Value))
	}
	sep := ", "
	if g.e.compact {
		sep = ","
	}
	return strings.Join(names, sep)
}

// tryBody wraps a body using the ? operator so that a propagated error
// becomes the function's result.
func (g *generator) tryBody(b *syntax.BlockStmt) {
	g.need(helperTry)
	g.e.write("{")
	g.e.indent++
	g.e.newline()
	g.e.write("try")
	g.e.sp()
	g.block(b, g.fnResult)
	g.e.write(" catch")
	g.e.sp()
	g.e.write("($e)")
	g.e.sp()
	g.e.write("{")
	g.e.indent++
	g.e.newline()
	g.e.write("if")
	g.e.sp()
	g.e.write("($e instanceof __WjErr) return $e;")
	g.e.newline()
	g.e.write("throw $e;")
	g.e.indent--
	g.e.newline()
	g.e.write("}")
	g.e.indent--
	g.e.newline()
	g.e.write("}")
}

// ----------------------------------------------------------------------------
// Types

// structDecl emits a class whose constructor assigns every field in
// declaration order, so all instances share one hidden class.
func (g *generator) structDecl(d *syntax.StructDecl) {
	g.exportKw(g.isExported(d.Pub, d.Name.Value))
	g.e.mark(d.Name.Pos(), d.Name.Value)
	g.e.write("class " + d.Name.Value)
	g.e.sp()
	g.e.write("{")
	g.e.indent++
	fields := g.structs[d.Name.Value].fields
	if len(fields) > 0 {
		g.e.newline()
		g.constructor(fields)
	}
	g.classMethods(d.Name.Value, len(fields) > 0)
	g.e.indent--
	if len(fields) > 0 || len(g.impls[d.Name.Value]) > 0 {
		g.e.newline()
	}
	g.e.write("}")
}

func (g *generator) constructor(fields []string) {
	params := make([]string, len(fields))
	for i, f := range fields {
		params[i] = g.ident(f)
	}
	sep := ", "
	if g.e.compact {
		sep = ","
	}
	g.e.write("constructor(" + strings.Join(params, sep) + ")")
	g.e.sp()
	g.e.write("{")
	g.e.indent++
	for i, f := range fields {
		g.e.newline()
		g.e.write("this." + f)
		g.e.sp()
		g.e.write("=")
		g.e.sp()
		g.e.write(params[i] + ";")
	}
	g.e.indent--
	g.e.newline()
	g.e.write("}")
}

// classMethods emits the methods of every impl of name, followed by the
// default methods of implemented traits that the impl leaves out.
func (g *generator) classMethods(name string, after bool) {
	g.self = name
	defer func() { g.self = "" }()
	for _, impl := range g.impls[name] {
		defined := make(map[string]bool)
		for _, m := range impl.Methods {
			defined[m.Name.Value] = true
			if m.Body == nil {
				continue
			}
			g.classMember(after, func() { g.method(m) })
			after = true
		}
		if tr := g.traits[typeName(impl.Trait)]; tr != nil && impl.Trait != nil {
			for _, m := range tr.Methods {
				if m.Body == nil || defined[m.Name.Value] {
					continue
				}
				g.classMember(after, func() { g.method(m) })
				after = true
			}
		}
	}
}

func (g *generator) classMember(after bool, f func()) {
	if after {
		g.e.blank()
	}
	g.e.newline()
	f()
}

// enumDecl emits a class of tagged values. Unit variants are frozen
// singletons; variants with payloads are factory functions.
func (g *generator) enumDecl(d *syntax.EnumDecl) {
	name := d.Name.Value
	g.exportKw(g.isExported(d.Pub, name))
	g.e.mark(d.Name.Pos(), name)
	g.e.write("class " + name)
	g.e.sp()
	g.e.write("{")
	g.e.indent++
	g.e.newline()
	g.constructor([]string{"tag", "values"})
	g.classMethods(name, true)
	g.e.indent--
	g.e.newline()
	g.e.write("}")
	for _, v := range d.Variants {
		g.e.newline()
		g.e.mark(v.Name.Pos(), v.Name.Value)
		g.e.write(name + "." + v.Name.Value)
		g.e.sp()
		g.e.write("=")
		g.e.sp()
		n := len(v.Tuple) + len(v.Fields)
		if n == 0 {
			g.e.write("Object.freeze(new " + name + "(" + quoteJS(v.Name.Value) + ",")
			g.e.sp()
			g.e.write("[]));")
			continue
		}
		params := make([]string, 0, n)
		for i := range v.Tuple {
			params = append(params, "$"+strconv.Itoa(i))
		}
		for _, f := range v.Fields {
			params = append(params, g.ident(f.Name.Value))
		}
		sep := ", "
		if g.e.compact {
			sep = ","
		}
		list := strings.Join(params, sep)
		g.e.write("(" + list + ")")
		g.e.sp()
		g.e.write("=>")
		g.e.sp()
		g.e.write("new " + name + "(" + quoteJS(v.Name.Value) + ",")
		g.e.sp()
		g.e.write("[" + list + "]);")
	}
	g.e.newline()
	g.e.write("Object.freeze(" + name + ");")
}

// externalImpl attaches the methods of an impl for a type declared in
// another module. Impls of builtin types have no JavaScript form.
func (g *generator) externalImpl(d *syntax.ImplDecl, first bool) bool {
	name := typeName(d.Type)
	if name == "" || name == "Self" || g.info.Named(name) == nil || g.info.Named(name).IsLibrary() {
		return false
	}
	g.self = name
	defer func() { g.self = "" }()
	var inst, static []*syntax.FuncDecl
	for _, m := range d.Methods {
		if m.Body == nil {
			continue
		}
		if isMethod(m) {
			inst = append(inst, m)
		} else {
			static = append(static, m)
		}
	}
	wrote := false
	for _, group := range []struct {
		target string
		list   []*syntax.FuncDecl
	}{{name + ".prototype", inst}, {name, static}} {
		if len(group.list) == 0 {
			continue
		}
		if !first || wrote {
			g.e.blank()
		}
		wrote = true
		g.e.write("Object.assign(" + group.target + ",")
		g.e.sp()
		g.e.write("{")
		g.e.indent++
		for i, m := range group.list {
			if i > 0 {
				g.e.write(",")
			}
			g.e.newline()
			if m.Async || g.usesAwait(m) {
				g.e.write("async ")
			}
			g.e.mark(m.Name.Pos(), m.Name.Value)
			g.e.write(m.Name.Value)
			g.funcRest(m)
		}
		g.e.indent--
		g.e.newline()
		g.e.write("});")
		g.e.newline()
	}
	return wrote
}

func (g *generator) constDecl(d *syntax.ConstDecl) {
	g.exportKw(g.isExported(d.Pub, d.Name.Value))
	kw := "const "
	if d.Static && d.Mut {
		kw = "let "
	}
	g.e.mark(d.Name.Pos(), d.Name.Value)
	g.e.write(kw + g.ident(d.Name.Value))
	g.e.sp()
	g.e.write("=")
	g.e.sp()
	g.expr(d.Value)
	g.e.write(";")
}

// sortedKeys returns the keys of m in order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
