package opt

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/windjammer-lang/wj/internal/syntax"
)

// Pass describes a single AST optimization pass. Fn returns the number
// of nodes it changed.
type Pass struct {
	Name string
	Fn   func(u *Unit) int
}

// PassStats records the work done by one pass, summed over all
// iterations of the pipeline.
type PassStats struct {
	Name         string
	ChangedNodes int
	Elapsed      time.Duration
}

// Config controls pass execution behavior.
type Config struct {
	DumpBefore string    // dump the AST before this pass ("*" for all)
	DumpAfter  string    // dump the AST after this pass ("*" for all)
	Verify     bool      // re-resolve the AST after each pass
	DumpFunc   string    // restrict dumps to this function name
	Dump       io.Writer // dump destination; os.Stderr if nil

	TreeShake  bool // drop items unreachable from the roots
	JavaScript bool // the output target is JavaScript
	Minify     bool // rename locals for minified JavaScript output

	// MaxIterations bounds the fixed-point iteration of the pipeline.
	// Zero means DefaultMaxIterations.
	MaxIterations int

	// InlineThreshold is the largest body, in AST nodes, flagged as an
	// inline candidate. Zero means DefaultInlineThreshold.
	InlineThreshold int

	Logger *slog.Logger
}

const (
	DefaultMaxIterations   = 3
	DefaultInlineThreshold = 40
)

// Run executes the given passes on u in order, once, and returns their
// statistics.
func Run(u *Unit, passes []Pass, cfg Config) ([]PassStats, error) {
	stats := make([]PassStats, 0, len(passes))
	for _, p := range passes {
		if shouldDump(cfg.DumpBefore, p.Name) {
			dump(cfg, "before "+p.Name, u.File)
		}

		start := time.Now()
		n := p.Fn(u)
		elapsed := time.Since(start)
		if n > 0 {
			u.invalidate()
		}
		stats = append(stats, PassStats{Name: p.Name, ChangedNodes: n, Elapsed: elapsed})
		if err := u.err; err != nil {
			u.err = nil
			return stats, fmt.Errorf("%s: %w", p.Name, err)
		}

		if cfg.Verify {
			if err := u.verify(); err != nil {
				return stats, fmt.Errorf("verify after %s: %w", p.Name, err)
			}
		}

		if shouldDump(cfg.DumpAfter, p.Name) {
			dump(cfg, "after "+p.Name, u.File)
		}
	}
	return stats, nil
}

func shouldDump(pattern, name string) bool {
	return pattern == "*" || pattern == name
}

func matchFunc(filter, name string) bool {
	return filter == "" || filter == name
}

func dump(cfg Config, title string, file *syntax.File) {
	w := cfg.Dump
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "--- %s ---\n", title)
	for _, d := range file.Items {
		if cfg.DumpFunc != "" {
			f, ok := d.(*syntax.FuncDecl)
			if !ok || !matchFunc(cfg.DumpFunc, f.Name.Value) {
				continue
			}
		}
		syntax.Fprint(w, d)
		fmt.Fprintln(w)
	}
}

func (cfg Config) logger() *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	return slog.Default()
}
