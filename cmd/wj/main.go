// Package main implements the wj command, the Windjammer compiler.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/fatih/color"

	"github.com/windjammer-lang/wj/internal/diag"
)

// Version information
const Version = "0.1.0-dev"

// Exit codes
const (
	exitOK       = 0
	exitCompile  = 1
	exitUsage    = 2
	exitInternal = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage(os.Stderr)
		return exitUsage
	}
	switch cmd, rest := args[0], args[1:]; cmd {
	case "build":
		return runBuild(rest)
	case "eject":
		return runEject(rest)
	case "explain":
		return runExplain(rest)
	case "docs":
		return runDocs(rest)
	case "repl":
		return runREPL(rest)
	case "version", "-version", "--version":
		fmt.Printf("wj version %s\n", Version)
		fmt.Printf("go version %s\n", runtime.Version())
		return exitOK
	case "help", "-h", "-help", "--help":
		usage(os.Stdout)
		return exitOK
	default:
		fmt.Fprintf(os.Stderr, "wj: unknown command %q\n\n", cmd)
		usage(os.Stderr)
		return exitUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Windjammer Compiler %s\n\n", Version)
	fmt.Fprintf(w, "Usage: wj <command> [options]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  build <file.wj>        compile to Rust, JavaScript or WebAssembly\n")
	fmt.Fprintf(w, "  eject <in> <out>       convert a project into a standalone Cargo project\n")
	fmt.Fprintf(w, "  explain <code>         describe an error code\n")
	fmt.Fprintf(w, "  docs                   render the error catalog\n")
	fmt.Fprintf(w, "  repl                   compile items and statements interactively\n")
	fmt.Fprintf(w, "  version                print version information\n\n")
	fmt.Fprintf(w, "Run 'wj <command> -h' for the options of a command.\n")
}

// commonFlags are accepted by every command.
type commonFlags struct {
	verbose     bool
	veryVerbose bool
	noColor     bool
}

func newFlagSet(name string) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet("wj "+name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	c := &commonFlags{}
	fs.BoolVar(&c.verbose, "v", false, "Log progress")
	fs.BoolVar(&c.veryVerbose, "vv", false, "Log stage timings and pass statistics")
	fs.BoolVar(&c.noColor, "no-color", false, "Disable colored output")
	return fs, c
}

// setup configures color and the default logger.
func (c *commonFlags) setup() *slog.Logger {
	if c.noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
	level := logLevel(os.Getenv("RUST_LOG"))
	switch {
	case c.veryVerbose:
		level = slog.LevelDebug
	case c.verbose:
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	return log
}

// logLevel maps a RUST_LOG value such as "debug" or "wj=info" to a
// level. The default is warn.
func logLevel(env string) slog.Level {
	if i := strings.LastIndexByte(env, '='); i >= 0 {
		env = env[i+1:]
	}
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "trace", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	}
	return slog.LevelWarn
}

// parseArgs parses flags interleaved with positional arguments and
// returns the positional ones.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return pos, nil
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}

// flagExit converts a flag parsing error into an exit code.
func flagExit(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	return exitUsage
}

// setFlags returns the names of the flags given on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// optionalValue is a string flag that may be given without a value, as
// in --source-maps or --source-maps=inline.
type optionalValue struct {
	value string
	bare  string // value of the bare flag
	set   bool
}

func (o *optionalValue) String() string { return o.value }

func (o *optionalValue) Set(s string) error {
	o.set = true
	if s == "true" {
		s = o.bare
	}
	o.value = s
	return nil
}

func (o *optionalValue) IsBoolFlag() bool { return true }

// reportError prints err and returns its exit code: 3 for internal
// compiler errors, 1 otherwise.
func reportError(err error) int {
	if diag.IsICE(err) {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), err)
		fmt.Fprintln(os.Stderr, "  = note: this is a bug in the compiler; please report it")
		return exitInternal
	}
	fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), err)
	return exitCompile
}
