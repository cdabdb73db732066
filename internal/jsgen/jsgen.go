// Package jsgen translates WJ programs into ES modules.
//
// Besides the entry module the generator can produce a version 3 source
// map, one module per declared chunk, a module federation container and
// the modern/legacy bundle pair used for differential loading.
package jsgen

import (
	"path"
	"sort"
	"strings"

	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/resolve"
	"github.com/windjammer-lang/wj/internal/syntax"
)

// Config controls JavaScript generation.
type Config struct {
	// Name is the base name of the entry module, default "main".
	Name string

	// Source is the source file name recorded in the source map.
	Source string

	// Content is the source text, embedded as sourcesContent when set.
	Content string

	Minify bool // compact output and minified runtime helpers
	V8     bool // length-cached loops and stable object shapes

	SourceMaps MapMode

	// Polyfills, when set, selects the prelude bundled at the top of the
	// entry module.
	Polyfills *PolyfillConfig

	// Differential emits the modern and legacy bundles and their HTML
	// loader next to the entry module.
	Differential bool

	// Interned holds the interned string literals by id.
	Interned []string

	// Modules lists the sibling source modules of the project.
	Modules []string

	Federation *FederationConfig
}

func (c Config) name() string {
	if c.Name == "" {
		return "main"
	}
	return c.Name
}

// File is a generated file, named relative to the output directory.
type File struct {
	Name    string
	Content string
}

// Output is the result of one translation.
type Output struct {
	// Code is the entry module, including its trailing source map
	// comment.
	Code string

	// Map is the source map of the entry module, nil when disabled.
	Map *SourceMap

	// Files lists every file to write, the entry module first.
	Files []File

	// Renames maps WJ identifiers that are reserved in JavaScript to
	// their emitted spelling.
	Renames map[string]string
}

// File returns the generated file with the given name.
func (o *Output) File(name string) (File, bool) {
	for _, f := range o.Files {
		if f.Name == name {
			return f, true
		}
	}
	return File{}, false
}

// Generate produces the JavaScript of file. info must describe file
// itself.
func Generate(file *syntax.File, info *resolve.Info, cfg Config) (*Output, error) {
	if file == nil || info == nil {
		return nil, diag.Internalf("jsgen", "missing input")
	}
	g := newGenerator(file, info, cfg)
	g.scan()
	for _, name := range g.chunkNames() {
		for _, dep := range g.chunkDeps(name) {
			g.exported[dep] = true
		}
	}

	g.interned()
	g.entryItems()
	if fd, ok := g.items["main"].(*syntax.FuncDecl); ok && len(fd.Params) == 0 && g.chunk[fd] == "" {
		g.e.blank()
		g.e.write("main();")
		g.e.newline()
	}

	var chunks []File
	for _, name := range g.chunkNames() {
		chunks = append(chunks, File{Name: name + ".js", Content: g.chunkModule(name)})
	}
	// Chunks import their run-time helpers from the entry module.
	var shared []string
	if len(chunks) > 0 {
		for h := range g.helpers {
			shared = append(shared, helperIdent[h])
		}
	}
	sort.Strings(shared)

	body := g.e.buf.String()
	if len(shared) > 0 {
		body += "export { " + strings.Join(shared, ", ") + " };\n"
	}

	var head strings.Builder
	if cfg.Polyfills != nil {
		head.WriteString(Polyfills(*cfg.Polyfills))
	}
	if cfg.Federation != nil && (len(cfg.Federation.Remotes) > 0 || len(cfg.Federation.Shared) > 0) {
		head.WriteString(g.federationPrelude())
	}
	if len(chunks) > 0 {
		loader := chunkLoader
		if cfg.Minify {
			loader = Minify(loader, MinifyOptions{RemoveWhitespace: true, RemoveComments: true})
		}
		head.WriteString(loader + "\n")
	}
	head.WriteString(g.runtime())
	if head.Len() > 0 && body != "" {
		head.WriteString("\n")
	}
	prefix := head.String()
	code := prefix + body

	name := cfg.name()
	out := &Output{Renames: g.renames}
	var mapFile *File
	if cfg.SourceMaps != MapNone {
		source := cfg.Source
		if source == "" {
			source = name + ".wj"
		}
		sm := NewSourceMap(name+".js", path.Base(source), cfg.Content)
		sm.SetMappings(g.mappings(sm, strings.Count(prefix, "\n")))
		data, err := sm.JSON()
		if err != nil {
			return nil, diag.Internalf("jsgen", "source map: %v", err)
		}
		if !strings.HasSuffix(code, "\n") {
			code += "\n"
		}
		switch cfg.SourceMaps {
		case MapExternal:
			code += "//# sourceMappingURL=" + name + ".js.map\n"
		case MapInline, MapBoth:
			url, err := sm.DataURL()
			if err != nil {
				return nil, diag.Internalf("jsgen", "source map: %v", err)
			}
			code += "//# sourceMappingURL=" + url + "\n"
		}
		if cfg.SourceMaps.external() {
			mapFile = &File{Name: name + ".js.map", Content: string(data)}
		}
		out.Map = sm
	}

	out.Code = code
	out.Files = append(out.Files, File{Name: name + ".js", Content: code})
	if mapFile != nil {
		out.Files = append(out.Files, *mapFile)
	}
	out.Files = append(out.Files, chunks...)
	if cfg.Federation != nil && len(g.exposes) > 0 {
		out.Files = append(out.Files, File{Name: cfg.Federation.filename(), Content: g.remoteEntry()})
	}
	if cfg.Differential {
		out.Files = append(out.Files, Differential(prefix+body, name)...)
	}
	return out, nil
}

// interned declares the interned string literals of the entry module.
func (g *generator) interned() {
	for i, s := range g.cfg.Interned {
		g.e.write("const " + internName(i))
		g.e.sp()
		g.e.write("=")
		g.e.sp()
		g.e.write(quoteJS(s) + ";")
		g.e.newline()
		if i == len(g.cfg.Interned)-1 {
			g.e.blank()
		}
	}
}

// mappings converts the recorded positions into source map entries,
// shifting generated lines by offset.
func (g *generator) mappings(sm *SourceMap, offset int) []Mapping {
	index := make(map[string]int)
	list := make([]Mapping, 0, len(g.e.maps))
	for _, m := range g.e.maps {
		name := -1
		if m.name != "" {
			name = sm.name(m.name, index)
		}
		list = append(list, Mapping{
			GenLine: m.genLine + offset,
			GenCol:  m.genCol,
			SrcLine: m.srcLine,
			SrcCol:  m.srcCol,
			Name:    name,
		})
	}
	return list
}
