package jsgen

import (
	"sort"
	"strings"

	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// helperIdent maps run-time helpers to the names they declare.
var helperIdent = map[string]string{
	helperErr:   "__WjErr",
	helperTry:   "__wj_try",
	helperEq:    "__wj_eq",
	helperRange: "__wj_range",
}

// chunkNames returns the declared chunks in order.
func (g *generator) chunkNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, name := range g.chunk {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// chunkFuncs returns the functions placed in chunk name, in source order.
func (g *generator) chunkFuncs(name string) []*syntax.FuncDecl {
	var list []*syntax.FuncDecl
	for _, d := range g.file.Items {
		if fd, ok := d.(*syntax.FuncDecl); ok && g.chunk[fd] == name {
			list = append(list, fd)
		}
	}
	return list
}

// chunkDeps returns the top-level items referenced by the functions of
// a chunk that live outside it.
func (g *generator) chunkDeps(name string) []string {
	own := make(map[string]bool)
	for _, fd := range g.chunkFuncs(name) {
		own[fd.Name.Value] = true
	}
	deps := make(map[string]bool)
	for _, fd := range g.chunkFuncs(name) {
		syntax.Walk(fd, func(n syntax.Node) bool {
			id, ok := n.(*syntax.Name)
			if !ok || own[id.Value] || g.items[id.Value] == nil || g.info.Defs[id] != nil {
				return true
			}
			if g.topLevel(id) {
				deps[id.Value] = true
			}
			return true
		})
	}
	out := make([]string, 0, len(deps))
	for d := range deps {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// topLevel reports whether id refers to a declaration of the file rather
// than a local, field or method of the same name.
func (g *generator) topLevel(id *syntax.Name) bool {
	switch obj := g.info.Uses[id].(type) {
	case *types.FuncObj:
		return obj.Decl() != nil && g.items[id.Value] == syntax.Decl(obj.Decl())
	case *types.TypeName:
		return true
	case *types.Var:
		return obj.Kind() == types.ConstVar && !obj.IsField()
	}
	return false
}

// chunkStub emits an entry-module function that loads the chunk holding
// d and forwards the call.
func (g *generator) chunkStub(d *syntax.FuncDecl, chunk string) {
	g.exportKw(g.isExported(d.Pub, d.Name.Value))
	g.e.mark(d.Name.Pos(), d.Name.Value)
	g.e.write("async function " + g.ident(d.Name.Value) + "(" + g.paramList(d.Params) + ")")
	g.e.sp()
	g.e.write("{")
	g.e.indent++
	g.e.newline()
	g.e.write("const $chunk")
	g.e.sp()
	g.e.write("=")
	g.e.sp()
	g.e.write("await __wj_load_chunk(" + quoteJS(chunk) + ");")
	g.e.newline()
	g.e.write("return $chunk." + g.ident(d.Name.Value) + "(" + g.paramList(d.Params) + ");")
	g.e.indent--
	g.e.newline()
	g.e.write("}")
}

// chunkModule generates the module of one chunk. It imports what it
// uses from the entry module.
func (g *generator) chunkModule(name string) string {
	saved, helpers := g.e, g.helpers
	g.e = g.newEmitter()
	g.helpers = make(map[string]bool)
	g.inChunk = true
	for i, fd := range g.chunkFuncs(name) {
		if i > 0 {
			g.e.blank()
		}
		g.funcDecl(fd, true)
		g.e.newline()
	}
	body := g.e.buf.String()
	used := g.helpers
	g.e, g.helpers = saved, helpers
	g.inChunk = false

	var imports []string
	for h := range used {
		for _, dep := range helperDeps[h] {
			used[dep] = true
		}
	}
	for h := range used {
		g.helpers[h] = true
		imports = append(imports, helperIdent[h])
	}
	for _, dep := range g.chunkDeps(name) {
		imports = append(imports, g.ident(dep))
	}
	sort.Strings(imports)

	var b strings.Builder
	b.WriteString("// Windjammer chunk: " + name + "\n")
	if len(imports) > 0 {
		b.WriteString("import { " + strings.Join(imports, ", ") + " } from " + quoteJS("./"+g.cfg.name()+".js") + ";\n\n")
	}
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteByte('\n')
	}
	return b.String()
}
