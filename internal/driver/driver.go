// Package driver runs the compilation pipeline over one source file.
//
// A Context carries everything a compilation produces, stage by stage:
// the syntax tree, the resolution and ownership tables, the inferred
// bounds, the optimized unit and the generated output. Diagnostics of
// every stage are collected in the context's bag.
package driver

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/windjammer-lang/wj/internal/analysis"
	"github.com/windjammer-lang/wj/internal/codegen"
	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/infer"
	"github.com/windjammer-lang/wj/internal/jsgen"
	"github.com/windjammer-lang/wj/internal/opt"
	"github.com/windjammer-lang/wj/internal/resolve"
	"github.com/windjammer-lang/wj/internal/syntax"
)

// Target is the output language of a build.
type Target uint8

const (
	Rust Target = iota
	JavaScript
	Wasm
)

func (t Target) String() string {
	switch t {
	case JavaScript:
		return "javascript"
	case Wasm:
		return "wasm"
	}
	return "rust"
}

// ParseTarget parses a --target value.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(s) {
	case "", "rust", "rs":
		return Rust, nil
	case "javascript", "js":
		return JavaScript, nil
	case "wasm", "webassembly":
		return Wasm, nil
	}
	return Rust, fmt.Errorf("unknown target %q (want rust, javascript or wasm)", s)
}

// Options controls one compilation.
type Options struct {
	Target Target

	TreeShake bool
	Minify    bool // JavaScript only
	V8        bool // JavaScript only

	SourceMaps   jsgen.MapMode
	Polyfills    *jsgen.PolyfillConfig
	Differential bool
	Federation   *jsgen.FederationConfig

	// Comments enables explanatory comments in Rust output.
	Comments bool

	// Child marks a module of a larger crate; Modules lists its
	// siblings.
	Child   bool
	Modules []string

	// EmitOnError generates output even when errors were reported.
	EmitOnError bool

	// Opt carries the optimizer's debugging knobs. Its target fields
	// are set from the options above.
	Opt opt.Config

	Logger *slog.Logger
}

// Timing is the wall time spent in one stage.
type Timing struct {
	Stage   string
	Elapsed time.Duration
}

// Context is the state of one compilation.
type Context struct {
	Filename string
	Source   []byte
	Opts     Options

	// Bag collects the diagnostics of every stage.
	Bag *diag.Bag

	Tokens   []syntax.TokenInfo
	File     *syntax.File
	Info     *resolve.Info
	Analysis *analysis.Result
	Bounds   *infer.Result

	// Unit is the optimized program, nil when the optimizer was
	// skipped.
	Unit    *opt.Unit
	Stats   []opt.PassStats
	Timings []Timing

	Rust *codegen.Output
	JS   *jsgen.Output

	log     *slog.Logger
	current string // stage being run
}

// New returns a context for compiling src, read from filename.
func New(filename string, src []byte, opts Options) *Context {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Context{
		Filename: filename,
		Source:   src,
		Opts:     opts,
		Bag:      diag.NewBag(),
		log:      log.With("file", filename),
	}
}

// Compile runs the whole pipeline over src. Diagnostics are left in the
// context's bag; the error is non-nil only for internal failures.
func Compile(filename string, src []byte, opts Options) (*Context, error) {
	c := New(filename, src, opts)
	return c, c.Run()
}

// CompileFile reads and compiles the file at path.
func CompileFile(path string, opts Options) (*Context, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(path, src, opts)
}

// Run executes the stages in order. Stages after inference are skipped
// when errors were reported, unless Opts.EmitOnError is set.
func (c *Context) Run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = diag.Internalf(c.current, "%v", r)
		}
	}()

	for _, s := range []struct {
		name string
		fn   func() error
	}{
		{"lex", c.lex},
		{"parse", c.parse},
		{"resolve", c.resolve},
		{"analyze", c.analyze},
		{"infer", c.infer},
	} {
		if err := c.stage(s.name, s.fn); err != nil {
			return err
		}
	}
	if c.Bag.HasErrors() && !c.Opts.EmitOnError {
		c.log.Debug("stopping after analysis", "errors", c.Bag.ErrorCount())
		return nil
	}
	if !c.Bag.HasErrors() {
		if err := c.stage("optimize", c.optimize); err != nil {
			return err
		}
	}
	gen := c.generate
	if c.Bag.HasErrors() {
		gen = c.generateBroken
	}
	err = c.stage("codegen", gen)
	if err != nil && c.Bag.HasErrors() {
		// Best-effort output of a broken program.
		c.log.Warn("no output for erroneous input", "err", err)
		return nil
	}
	return err
}

func (c *Context) stage(name string, fn func() error) error {
	c.current = name
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	c.Timings = append(c.Timings, Timing{Stage: name, Elapsed: elapsed})
	c.log.Debug("stage", "stage", name, "elapsed", elapsed, "diagnostics", c.Bag.Len())
	return err
}

func (c *Context) lex() error {
	toks, errs := syntax.Lex(c.Filename, c.Source)
	for _, e := range errs {
		c.Bag.AddSyntax(e)
	}
	c.Tokens = toks
	return nil
}

// parse reports parse errors only; the lexical errors the parser sees
// again were reported by lex.
func (c *Context) parse() error {
	file, errs := syntax.Parse(c.Filename, bytes.NewReader(c.Source))
	for _, e := range errs {
		var lerr *syntax.LexError
		if errors.As(e, &lerr) {
			continue
		}
		c.Bag.AddSyntax(e)
	}
	c.File = file
	return nil
}

func (c *Context) resolveConfig() *resolve.Config {
	return &resolve.Config{Modules: c.Opts.Modules}
}

func (c *Context) resolve() error {
	c.Info = resolve.Resolve(c.File, c.resolveConfig(), c.Bag)
	return nil
}

func (c *Context) analyze() error {
	c.Analysis = analysis.Analyze(c.File, c.Info, c.Bag)
	return nil
}

func (c *Context) infer() error {
	c.Bounds = infer.Infer(c.File, c.Info, c.Analysis, c.Bag)
	return nil
}

func (c *Context) optimize() error {
	oc := c.Opts.Opt
	oc.TreeShake = c.Opts.TreeShake
	oc.JavaScript = c.Opts.Target == JavaScript
	oc.Minify = oc.JavaScript && c.Opts.Minify
	if oc.Logger == nil {
		oc.Logger = c.log
	}
	u, stats, err := opt.Optimize(c.File, c.resolveConfig(), oc, c.Bag)
	c.Stats = stats
	if err != nil {
		return err
	}
	c.Unit = u
	return nil
}

// final returns the tree handed to the back ends together with its
// tables. The optimized tree is re-analyzed; its diagnostics were
// already reported for the source tree.
func (c *Context) final() (*syntax.File, *resolve.Info, *analysis.Result) {
	if c.Unit == nil {
		return c.File, c.Info, c.Analysis
	}
	info, res := c.Unit.Info(), c.Unit.Analysis()
	infer.Infer(c.Unit.File, info, res, diag.NewBag())
	return c.Unit.File, info, res
}

func (c *Context) generate() error {
	file, info, res := c.final()
	var interned []string
	if c.Unit != nil {
		interned = c.Unit.Interned
	}

	if c.Opts.Target == JavaScript {
		cfg := jsgen.Config{
			Name:         c.Name(),
			Source:       c.Filename,
			Minify:       c.Opts.Minify,
			V8:           c.Opts.V8,
			SourceMaps:   c.Opts.SourceMaps,
			Polyfills:    c.Opts.Polyfills,
			Differential: c.Opts.Differential,
			Interned:     interned,
			Modules:      c.Opts.Modules,
			Federation:   c.Opts.Federation,
		}
		if cfg.SourceMaps != jsgen.MapNone {
			cfg.Content = string(c.Source)
		}
		out, err := jsgen.Generate(file, info, cfg)
		if err != nil {
			return err
		}
		c.JS = out
		return nil
	}

	cfg := codegen.Config{
		Target:   codegen.Rust,
		Interned: interned,
		Comments: c.Opts.Comments,
		Child:    c.Opts.Child,
		Modules:  c.Opts.Modules,
	}
	if c.Opts.Target == Wasm {
		cfg.Target = codegen.Wasm
	}
	out, err := codegen.Generate(file, info, res, cfg)
	if err != nil {
		return err
	}
	c.Rust = out
	return nil
}

// generateBroken runs the back ends over a tree that failed to check.
// Their tables are incomplete there, so a panic is reported as a failed
// emission rather than an internal error.
func (c *Context) generateBroken() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("emit: %v", r)
		}
	}()
	return c.generate()
}

// Name returns the base name of the source file without its extension.
func (c *Context) Name() string {
	base := filepath.Base(c.Filename)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." {
		return "main"
	}
	return base
}

// Code returns the generated entry source, or "" when nothing was
// generated.
func (c *Context) Code() string {
	switch {
	case c.Rust != nil:
		return c.Rust.Code
	case c.JS != nil:
		return c.JS.Code
	}
	return ""
}

// HasMain reports whether the program defines a main function.
func (c *Context) HasMain() bool {
	if c.File == nil {
		return false
	}
	for _, d := range c.File.Items {
		if fd, ok := d.(*syntax.FuncDecl); ok && fd.Name.Value == "main" {
			return true
		}
	}
	return false
}

// Imports returns the stdlib modules the program uses.
func (c *Context) Imports() []string {
	if c.Info == nil {
		return nil
	}
	return c.Info.Imports
}

// Functions returns the number of free functions in the tree handed to
// the back ends.
func (c *Context) Functions() int {
	file := c.File
	if c.Unit != nil {
		file = c.Unit.File
	}
	if file == nil {
		return 0
	}
	n := 0
	for _, d := range file.Items {
		if _, ok := d.(*syntax.FuncDecl); ok {
			n++
		}
	}
	return n
}
