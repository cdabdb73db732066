// Package eject converts a WJ project into a standalone Cargo project.
//
// Ejection is all-or-nothing: every source file is compiled in memory
// first, and nothing is written when any of them reports an error.
package eject

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/windjammer-lang/wj/internal/config"
	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/driver"
	"github.com/windjammer-lang/wj/internal/stdlib"
	"github.com/windjammer-lang/wj/internal/syntax"
)

// ErrCompilation is returned when a source file reported errors. The
// diagnostics are in the result's bag.
var ErrCompilation = errors.New("ejection aborted: compilation failed")

// Ext is the extension of WJ source files.
const Ext = ".wj"

// Options controls ejection.
type Options struct {
	Wasm       bool // emit a wasm-bindgen cdylib
	TreeShake  bool
	Format     bool // run rustfmt over the generated files
	NoComments bool // omit header and explanatory comments
	NoCargo    bool // do not write Cargo.toml

	// Jobs bounds the number of files compiled at once. Zero means
	// GOMAXPROCS.
	Jobs int

	// Config is the project configuration; its dependencies are added to
	// Cargo.toml.
	Config *config.Config

	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Source is one input file.
type Source struct {
	Path string // slash-separated, relative to the project root
	Src  []byte
}

// File is one generated file.
type File struct {
	Path    string // slash-separated, relative to the output directory
	Content []byte
}

// Result describes an ejection.
type Result struct {
	Files  []File
	Crates []stdlib.Crate

	// Bin reports whether the crate is a binary.
	Bin bool

	// Bag holds the diagnostics of all files, in file path order.
	Bag *diag.Bag

	// Sources maps file names, as used in diagnostics, to their text.
	Sources map[string][]byte

	// Functions counts the free functions handed to the back end.
	Functions int
}

// File returns the generated file with the given path.
func (r *Result) File(p string) (File, bool) {
	for _, f := range r.Files {
		if f.Path == p {
			return f, true
		}
	}
	return File{}, false
}

// Eject compiles the project at in, a directory or a single file, and
// writes the Cargo project to out.
func Eject(ctx context.Context, in, out string, opts Options) (*Result, error) {
	sources, err := Collect(in)
	if err != nil {
		return nil, err
	}
	res, err := Plan(ctx, sources, opts)
	if err != nil {
		return res, err
	}
	if err := Write(out, res.Files); err != nil {
		return res, err
	}
	opts.logger().Info("ejected", "files", len(res.Files), "output", out)
	return res, nil
}

// Collect reads the WJ sources under root in path order. Hidden
// directories and build output are skipped.
func Collect(root string) ([]Source, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		src, err := os.ReadFile(root)
		if err != nil {
			return nil, err
		}
		return []Source{{Path: filepath.Base(root), Src: src}}, nil
	}

	var out []Source
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if p != root && (strings.HasPrefix(name, ".") || name == "target" || name == "build") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(p) != Ext {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		src, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		out = append(out, Source{Path: filepath.ToSlash(rel), Src: src})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no %s files in %s", Ext, root)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Plan compiles sources and returns the files of the Cargo project
// without writing them.
func Plan(ctx context.Context, sources []Source, opts Options) (*Result, error) {
	log := opts.logger()
	sources = append([]Source(nil), sources...)
	sort.Slice(sources, func(i, j int) bool { return sources[i].Path < sources[j].Path })

	res := &Result{Bag: diag.NewBag(), Sources: make(map[string][]byte)}
	for _, s := range sources {
		res.Sources[s.Path] = s.Src
	}
	root := findRoot(sources)
	res.Bin = root >= 0 && hasMain(sources[root]) && !opts.Wasm
	mods := topModules(sources, root)

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	ctxs := make([]*driver.Context, len(sources))
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, s := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			target := driver.Rust
			if opts.Wasm {
				target = driver.Wasm
			}
			c, err := driver.Compile(s.Path, s.Src, driver.Options{
				Target:    target,
				TreeShake: opts.TreeShake,
				Comments:  !opts.NoComments,
				Child:     i != root,
				Modules:   siblings(mods, moduleName(s.Path)),
				Logger:    log,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", s.Path, err)
			}
			ctxs[i] = c
			log.Debug("compiled", "file", s.Path, "done", done.Add(1), "total", len(sources))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	var imports []string
	for _, c := range ctxs {
		res.Bag.Merge(c.Bag)
		imports = append(imports, c.Imports()...)
		res.Functions += c.Functions()
	}
	if res.Bag.HasErrors() {
		return res, ErrCompilation
	}
	res.Crates = stdlib.Crates(imports)

	lay := newLayout(sources, root, res.Bin, opts)
	for i, c := range ctxs {
		lay.add(sources[i].Path, i == root, c.Code())
	}
	files := lay.files()

	if opts.Format {
		formatFiles(ctx, files, log)
	}
	if !opts.NoCargo {
		pkg := packageInfo(opts.Config)
		deps := dependencies(res.Crates, opts.Config, opts.Wasm)
		cargo, err := cargoManifest(pkg, "", res.Bin, opts.Wasm, deps, opts.Config)
		if err != nil {
			return res, fmt.Errorf("encode Cargo.toml: %w", err)
		}
		files = append(files,
			File{Path: "Cargo.toml", Content: cargo},
			File{Path: ".gitignore", Content: []byte(gitignore)},
			File{Path: "README.md", Content: []byte(readme(pkg, res.Bin))},
		)
	}
	res.Files = files
	return res, nil
}

// findRoot returns the index of the crate root: main.wj, else the first
// file defining main, else lib.wj, else the only file. It returns -1
// when the root is synthesized.
func findRoot(sources []Source) int {
	for i, s := range sources {
		if s.Path == "main"+Ext {
			return i
		}
	}
	for i, s := range sources {
		if hasMain(s) {
			return i
		}
	}
	for i, s := range sources {
		if s.Path == "lib"+Ext {
			return i
		}
	}
	if len(sources) == 1 {
		return 0
	}
	return -1
}

// hasMain reports whether s declares a main function. Parse errors are
// ignored; they are reported by the compilation proper.
func hasMain(s Source) bool {
	file, _ := syntax.Parse(s.Path, bytes.NewReader(s.Src))
	if file == nil {
		return false
	}
	for _, d := range file.Items {
		if fd, ok := d.(*syntax.FuncDecl); ok && fd.Name != nil && fd.Name.Value == "main" {
			return true
		}
	}
	return false
}

// moduleName returns the Rust module path of a source file, such as
// util or net::http.
func moduleName(p string) string {
	p = strings.TrimSuffix(p, Ext)
	return strings.ReplaceAll(p, "/", "::")
}

// topModules returns the names of the crate's top-level modules.
func topModules(sources []Source, root int) []string {
	seen := make(map[string]bool)
	var out []string
	for i, s := range sources {
		if i == root {
			continue
		}
		top, _, _ := strings.Cut(strings.TrimSuffix(s.Path, Ext), "/")
		if !seen[top] {
			seen[top] = true
			out = append(out, top)
		}
	}
	return out
}

func siblings(mods []string, self string) []string {
	out := make([]string, 0, len(mods))
	for _, m := range mods {
		if m != self {
			out = append(out, m)
		}
	}
	return out
}

// layout places generated modules in the src tree and adds the module
// declarations that tie them together.
type layout struct {
	bin      bool
	comments bool
	rootPath string
	code     map[string]string          // src path -> code
	from     map[string]string          // src path -> WJ source path
	children map[string]map[string]bool // src path of a parent -> child modules
	order    []string
}

func newLayout(sources []Source, root int, bin bool, opts Options) *layout {
	l := &layout{
		bin:      bin,
		comments: !opts.NoComments,
		code:     make(map[string]string),
		from:     make(map[string]string),
		children: make(map[string]map[string]bool),
	}
	l.rootPath = "src/lib.rs"
	if bin {
		l.rootPath = "src/main.rs"
	}
	l.touch(l.rootPath)
	for i, s := range sources {
		if i == root {
			continue
		}
		parts := strings.Split(strings.TrimSuffix(s.Path, Ext), "/")
		parent := l.rootPath
		for j, part := range parts {
			l.child(parent, part)
			if j == len(parts)-1 {
				break
			}
			parent = "src/" + strings.Join(parts[:j+1], "/") + "/mod.rs"
			l.touch(parent)
		}
	}
	return l
}

func (l *layout) touch(p string) {
	if _, ok := l.code[p]; !ok {
		l.code[p] = ""
		l.order = append(l.order, p)
	}
}

func (l *layout) child(parent, name string) {
	if name == "mod" || name == "main" && parent == l.rootPath || name == "lib" && parent == l.rootPath {
		return
	}
	if l.children[parent] == nil {
		l.children[parent] = make(map[string]bool)
	}
	l.children[parent][name] = true
}

// add records the generated code of the source file at p.
func (l *layout) add(p string, root bool, code string) {
	dst := l.rootPath
	if !root {
		dst = "src/" + strings.TrimSuffix(p, Ext) + ".rs"
	}
	l.touch(dst)
	l.code[dst] = code
	l.from[dst] = p
}

// files returns the generated sources with their module declarations,
// sorted by path.
func (l *layout) files() []File {
	paths := append([]string(nil), l.order...)
	sort.Strings(paths)
	out := make([]File, 0, len(paths))
	for _, p := range paths {
		var b strings.Builder
		if l.comments {
			src := l.from[p]
			if src == "" {
				src = "the project layout"
			}
			b.WriteString("// Generated by the Windjammer ejector from " + src + ".\n")
			b.WriteString("// This is a one-way conversion; edit this file directly.\n\n")
		}
		if kids := l.children[p]; len(kids) > 0 {
			names := make([]string, 0, len(kids))
			for k := range kids {
				names = append(names, k)
			}
			sort.Strings(names)
			kw := "pub mod "
			if p == l.rootPath && l.bin {
				kw = "mod "
			}
			for _, n := range names {
				b.WriteString(kw + n + ";\n")
			}
			if l.code[p] != "" {
				b.WriteByte('\n')
			}
		}
		b.WriteString(l.code[p])
		out = append(out, File{Path: p, Content: []byte(b.String())})
	}
	return out
}

func formatFiles(ctx context.Context, files []File, log *slog.Logger) {
	for i, f := range files {
		if path.Ext(f.Path) != ".rs" {
			continue
		}
		code, err := driver.FormatRust(ctx, string(f.Content))
		if errors.Is(err, driver.ErrNoRustfmt) {
			log.Warn("skipping formatting", "err", err)
			return
		}
		if err != nil {
			log.Warn("formatting failed", "file", f.Path, "err", err)
			continue
		}
		files[i].Content = []byte(code)
	}
}

// Write writes files under dir, creating directories as needed.
func Write(dir string, files []File) error {
	for _, f := range files {
		p := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, f.Content, 0o644); err != nil {
			return err
		}
	}
	return nil
}
