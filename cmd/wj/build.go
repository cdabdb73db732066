package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/windjammer-lang/wj/internal/config"
	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/driver"
	"github.com/windjammer-lang/wj/internal/eject"
	"github.com/windjammer-lang/wj/internal/jsgen"
	"github.com/windjammer-lang/wj/internal/opt"
	"github.com/windjammer-lang/wj/internal/syntax"
)

func runBuild(args []string) int {
	fs, common := newFlagSet("build")
	target := fs.String("target", "", "Output target: rust, javascript or wasm")
	output := fs.String("output", "", "Output directory")
	fs.StringVar(output, "o", "", "Output directory (shorthand)")
	minify := fs.Bool("minify", false, "Minify JavaScript output")
	treeShake := fs.Bool("tree-shake", false, "Drop items unreachable from main and exports")
	sourceMaps := &optionalValue{bare: "external"}
	fs.Var(sourceMaps, "source-maps", "Emit source maps: external, inline or both")
	polyfills := &optionalValue{bare: "es2015"}
	fs.Var(polyfills, "polyfills", "Bundle polyfills for an edition: es5, es2015, es2017 or es2020")
	v8 := fs.Bool("v8-optimize", false, "Emit V8-friendly JavaScript")
	differential := fs.Bool("differential", false, "Emit modern and legacy bundles with an HTML loader")
	passStats := fs.Bool("emit-pass-stats", false, "Print optimizer pass statistics")
	emitOnError := fs.Bool("emit-on-error", false, "Write output even when errors were reported")
	emitAST := &optionalValue{bare: "text"}
	fs.Var(emitAST, "emit-ast", "Print the AST as text or json and stop")
	emitTokens := fs.Bool("emit-tokens", false, "Print the token stream and stop")
	format := fs.Bool("format", false, "Run rustfmt over Rust output")
	dumpBefore := fs.String("dump-before", "", "Dump the AST before pass (name or \"*\")")
	dumpAfter := fs.String("dump-after", "", "Dump the AST after pass (name or \"*\")")
	dumpFunc := fs.String("dump-func", "", "Only dump a specific function")
	verify := fs.Bool("verify", false, "Re-resolve the AST after each pass")

	pos, err := parseArgs(fs, args)
	if err != nil {
		return flagExit(err)
	}
	if len(pos) != 1 {
		fmt.Fprintln(os.Stderr, "error: expected exactly one input file")
		fmt.Fprintln(os.Stderr, "usage: wj build [options] <file.wj>")
		return exitUsage
	}
	input := pos[0]
	log := common.setup()

	cfg, cfgPath, err := config.LoadDir(filepath.Dir(input))
	if err != nil {
		return reportError(err)
	}
	if cfgPath != "" {
		log.Info("loaded configuration", "path", cfgPath)
	}
	set := setFlags(fs)
	b := cfg.Build
	if !set["target"] && *target == "" {
		*target = b.Target
	}
	if !set["output"] && !set["o"] {
		*output = b.Output
	}
	if !set["minify"] {
		*minify = b.Minify
	}
	if !set["tree-shake"] {
		*treeShake = b.TreeShake
	}
	if !sourceMaps.set && b.SourceMaps != "" {
		sourceMaps.Set(b.SourceMaps)
	}
	if !polyfills.set && b.Polyfills {
		polyfills.Set("true")
	}
	if !set["v8-optimize"] {
		*v8 = b.V8Optimize
	}
	if *output == "" {
		*output = "build"
	}

	tgt, err := driver.ParseTarget(*target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitUsage
	}
	mapMode, err := jsgen.ParseMapMode(sourceMaps.value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitUsage
	}
	var poly *jsgen.PolyfillConfig
	if polyfills.set && polyfills.value != "false" {
		edition, err := jsgen.ParseTarget(polyfills.value)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return exitUsage
		}
		pc := jsgen.DefaultPolyfills()
		pc.Target = edition
		pc.Symbol = edition == jsgen.ES5
		poly = &pc
	}

	src, err := os.ReadFile(input)
	if err != nil {
		return reportError(err)
	}
	if *emitTokens {
		return printTokens(os.Stdout, input, src)
	}
	if emitAST.set {
		return printAST(os.Stdout, input, src, emitAST.value)
	}

	opts := driver.Options{
		Target:       tgt,
		TreeShake:    *treeShake,
		Minify:       *minify,
		V8:           *v8,
		SourceMaps:   mapMode,
		Polyfills:    poly,
		Differential: *differential,
		Federation:   federation(cfg),
		Comments:     true,
		EmitOnError:  *emitOnError,
		Opt: opt.Config{
			DumpBefore: *dumpBefore,
			DumpAfter:  *dumpAfter,
			DumpFunc:   *dumpFunc,
			Verify:     *verify,
			Dump:       os.Stderr,
		},
		Logger: log,
	}
	c, err := driver.Compile(input, src, opts)
	if c != nil && c.Bag.Len() > 0 {
		diag.FprintAll(os.Stderr, c.Bag, src)
	}
	if err != nil {
		return reportError(err)
	}
	if *passStats {
		printPassStats(os.Stderr, c.Stats)
	}
	if c.Bag.HasErrors() && !*emitOnError {
		return exitCompile
	}

	files, err := buildOutputs(c, cfg, *format)
	if err != nil {
		return reportError(err)
	}
	if err := writeOutputs(*output, files); err != nil {
		return reportError(err)
	}
	if c.Bag.HasErrors() {
		return exitCompile
	}
	fmt.Printf("%s %s -> %s (%s)\n", color.New(color.FgGreen, color.Bold).Sprint("Compiled"), input, *output, tgt)
	return exitOK
}

// federation converts the [javascript.federation] table of wj.toml.
func federation(cfg *config.Config) *jsgen.FederationConfig {
	f := cfg.JavaScript.Federation
	if f == nil {
		return nil
	}
	fc := &jsgen.FederationConfig{
		Name:     f.Name,
		Filename: f.Filename,
		Exposes:  f.Exposes,
		Shared:   f.Shared,
	}
	for _, name := range sortedKeys(f.Remotes) {
		fc.Remotes = append(fc.Remotes, jsgen.Remote{Name: name, URL: f.Remotes[name]})
	}
	return fc
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// buildOutputs returns the files of a build: the generated JavaScript
// modules, or the Rust source with its Cargo manifest.
func buildOutputs(c *driver.Context, cfg *config.Config, format bool) ([]jsgen.File, error) {
	if c.JS != nil {
		return c.JS.Files, nil
	}
	if c.Rust == nil {
		return nil, nil
	}
	code := c.Rust.Code
	if format {
		out, err := driver.FormatRust(context.Background(), code)
		switch {
		case errors.Is(err, driver.ErrNoRustfmt):
			fmt.Fprintf(os.Stderr, "warning: %v; output left unformatted\n", err)
		case err != nil:
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		default:
			code = out
		}
	}
	name := c.Name() + ".rs"
	manifest, err := eject.Manifest(c.Imports(), name, c.HasMain(), c.Opts.Target == driver.Wasm, cfg)
	if err != nil {
		return nil, fmt.Errorf("encode Cargo.toml: %w", err)
	}
	return []jsgen.File{
		{Name: name, Content: code},
		{Name: "Cargo.toml", Content: string(manifest)},
	}, nil
}

func writeOutputs(dir string, files []jsgen.File) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, f := range files {
		p := filepath.Join(dir, filepath.FromSlash(f.Name))
		if err := os.WriteFile(p, []byte(f.Content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// printTokens lexes src and prints every token with its position.
func printTokens(w io.Writer, filename string, src []byte) int {
	toks, errs := syntax.Lex(filename, src)
	fmt.Fprintf(w, "%-20s %-12s %s\n", "POSITION", "TOKEN", "LITERAL")
	fmt.Fprintf(w, "%-20s %-12s %s\n", strings.Repeat("-", 20), strings.Repeat("-", 12), strings.Repeat("-", 20))
	for _, t := range toks {
		fmt.Fprintf(w, "%-20s %-12s %s\n", t.Span.Start, t.Tok, formatLiteral(t.Lit))
	}
	if len(errs) == 0 {
		return exitOK
	}
	bag := diag.NewBag()
	for _, e := range errs {
		bag.AddSyntax(e)
	}
	diag.FprintAll(os.Stderr, bag, src)
	return exitCompile
}

// printAST parses src and prints its AST as WJ source or JSON.
func printAST(w io.Writer, filename string, src []byte, format string) int {
	file, errs := syntax.Parse(filename, strings.NewReader(string(src)))
	if len(errs) > 0 {
		bag := diag.NewBag()
		for _, e := range errs {
			bag.AddSyntax(e)
		}
		diag.FprintAll(os.Stderr, bag, src)
	}
	switch format {
	case "json":
		if err := syntax.FprintJSON(w, file); err != nil {
			return reportError(err)
		}
	case "text", "":
		syntax.Fprint(w, file)
	default:
		fmt.Fprintf(os.Stderr, "error: unknown AST format %q (want text or json)\n", format)
		return exitUsage
	}
	if len(errs) > 0 {
		return exitCompile
	}
	return exitOK
}

// formatLiteral formats a literal for display, escaping special characters.
func formatLiteral(lit string) string {
	if lit == "" {
		return "\"\""
	}
	var b strings.Builder
	b.WriteRune('"')
	for _, r := range lit {
		switch r {
		case '\n':
			b.WriteString("\\n")
		case '\t':
			b.WriteString("\\t")
		case '\r':
			b.WriteString("\\r")
		case '\\':
			b.WriteString("\\\\")
		case '"':
			b.WriteString("\\\"")
		default:
			b.WriteRune(r)
		}
	}
	b.WriteRune('"')
	return b.String()
}

func printPassStats(w io.Writer, stats []opt.PassStats) {
	fmt.Fprintf(w, "%-10s %8s %12s\n", "PASS", "CHANGED", "ELAPSED")
	total := 0
	for _, s := range stats {
		fmt.Fprintf(w, "%-10s %8d %12s\n", s.Name, s.ChangedNodes, s.Elapsed)
		total += s.ChangedNodes
	}
	fmt.Fprintf(w, "%-10s %8d\n", "total", total)
}
