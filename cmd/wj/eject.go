package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/windjammer-lang/wj/internal/config"
	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/eject"
)

func runEject(args []string) int {
	fs, common := newFlagSet("eject")
	format := fs.Bool("format", false, "Run rustfmt over the generated files")
	noComments := fs.Bool("no-comments", false, "Omit header comments")
	noCargo := fs.Bool("no-cargo", false, "Do not write Cargo.toml")
	wasm := fs.Bool("wasm", false, "Eject a wasm-bindgen library")
	treeShake := fs.Bool("tree-shake", false, "Drop unreachable items")
	jobs := fs.Int("j", 0, "Number of files compiled in parallel (0 = all CPUs)")

	pos, err := parseArgs(fs, args)
	if err != nil {
		return flagExit(err)
	}
	if len(pos) != 2 {
		fmt.Fprintln(os.Stderr, "error: expected an input and an output directory")
		fmt.Fprintln(os.Stderr, "usage: wj eject [options] <input> <output-dir>")
		return exitUsage
	}
	in, out := pos[0], pos[1]
	log := common.setup()

	dir := in
	if info, err := os.Stat(in); err == nil && !info.IsDir() {
		dir = filepath.Dir(in)
	}
	cfg, _, err := config.LoadDir(dir)
	if err != nil {
		return reportError(err)
	}

	res, err := eject.Eject(context.Background(), in, out, eject.Options{
		Wasm:       *wasm,
		TreeShake:  *treeShake,
		Format:     *format,
		NoComments: *noComments,
		NoCargo:    *noCargo,
		Jobs:       *jobs,
		Config:     cfg,
		Logger:     log,
	})
	if res != nil && res.Bag.Len() > 0 {
		printDiagnostics(res)
	}
	if errors.Is(err, eject.ErrCompilation) {
		fmt.Fprintf(os.Stderr, "%s nothing was written to %s\n", color.New(color.FgRed, color.Bold).Sprint("error:"), out)
		return exitCompile
	}
	if err != nil {
		return reportError(err)
	}
	fmt.Printf("%s %d files to %s\n", color.New(color.FgGreen, color.Bold).Sprint("Ejected"), len(res.Files), out)
	for _, f := range res.Files {
		fmt.Printf("  %s\n", f.Path)
	}
	return exitOK
}

// printDiagnostics prints the diagnostics of every file with the source
// line they point at.
func printDiagnostics(res *eject.Result) {
	for _, d := range res.Bag.Sorted() {
		diag.Fprint(os.Stderr, d, res.Sources[d.Span.Start.Filename()])
	}
	if n := res.Bag.ErrorCount(); n > 0 {
		fmt.Fprintf(os.Stderr, "%s\n", color.New(color.FgRed, color.Bold).Sprintf("aborting due to %d previous error(s)", n))
	}
}
