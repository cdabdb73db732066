package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/driver"
)

const replFile = "<repl>"

var replCommands = []string{":help", ":items", ":clear", ":quit"}

func runREPL(args []string) int {
	fs, common := newFlagSet("repl")
	target := fs.String("target", "rust", "Output target: rust or javascript")
	if _, err := parseArgs(fs, args); err != nil {
		return flagExit(err)
	}
	log := common.setup()
	tgt, err := driver.ParseTarget(*target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitUsage
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(s string) []string {
		var out []string
		for _, c := range replCommands {
			if strings.HasPrefix(c, s) {
				out = append(out, c)
			}
		}
		return out
	})

	history := historyPath()
	if history != "" {
		if f, err := os.Open(history); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	fmt.Printf("Windjammer REPL %s (target %s). Type :help for help.\n", Version, tgt)
	s := &session{target: tgt}
	for {
		input, err := readInput(line)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Error("reading input", "err", err)
			}
			break
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)
		if !s.eval(input, os.Stdout, os.Stderr) {
			break
		}
	}
	fmt.Println()

	if history != "" {
		if f, err := os.Create(history); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}
	return exitOK
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".wj_history")
}

// readInput reads one entry, continuing over lines until braces,
// brackets and parentheses balance.
func readInput(line *liner.State) (string, error) {
	var b strings.Builder
	prompt := "wj> "
	for {
		s, err := line.Prompt(prompt)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
		if nesting(b.String()) <= 0 {
			return b.String(), nil
		}
		b.WriteByte('\n')
		prompt = "...  "
	}
}

// nesting returns the number of unclosed delimiters in s, ignoring
// string literals.
func nesting(s string) int {
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		}
	}
	return depth
}

// session holds the items entered so far. Statements are compiled inside
// a main function that follows the items.
type session struct {
	target driver.Target
	items  []string
}

var itemPrefixes = []string{"fn ", "pub ", "struct ", "enum ", "trait ", "impl ", "impl<", "use ", "const ", "static ", "type ", "async fn ", "@", "#["}

func isItem(input string) bool {
	for _, p := range itemPrefixes {
		if strings.HasPrefix(input, p) {
			return true
		}
	}
	return false
}

// eval handles one entry and reports whether the session goes on.
func (s *session) eval(input string, out, errOut io.Writer) bool {
	input = strings.TrimSpace(input)
	switch input {
	case ":quit", ":q", "exit":
		return false
	case ":help":
		fmt.Fprintln(out, "Enter items (fn, struct, enum, ...) to add them to the session,")
		fmt.Fprintln(out, "or statements to compile them inside main.")
		fmt.Fprintln(out, "  :items   list the session's items")
		fmt.Fprintln(out, "  :clear   forget all items")
		fmt.Fprintln(out, "  :quit    leave the REPL")
		return true
	case ":items":
		for _, it := range s.items {
			fmt.Fprintln(out, it)
		}
		return true
	case ":clear":
		s.items = nil
		return true
	}
	if strings.HasPrefix(input, ":") {
		fmt.Fprintf(errOut, "unknown command %s; try :help\n", input)
		return true
	}

	item := isItem(input)
	var src strings.Builder
	for _, it := range s.items {
		src.WriteString(it + "\n")
	}
	if item {
		src.WriteString(input + "\n")
	} else {
		src.WriteString("fn main() {\n" + input + "\n}\n")
	}

	c, err := driver.Compile(replFile, []byte(src.String()), driver.Options{Target: s.target})
	if c != nil && c.Bag.Len() > 0 {
		diag.FprintAll(errOut, c.Bag, c.Source)
	}
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return true
	}
	if c.Bag.HasErrors() {
		return true
	}
	if item {
		s.items = append(s.items, input)
	}
	fmt.Fprint(out, c.Code())
	return true
}
