package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/windjammer-lang/wj/internal/diag"
)

func runExplain(args []string) int {
	fs, common := newFlagSet("explain")
	list := fs.Bool("list", false, "List every error code")
	search := fs.String("search", "", "Search the catalog")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return flagExit(err)
	}
	common.setup()
	cat := diag.Registry()

	switch {
	case *list:
		for _, category := range cat.Categories {
			entries := cat.ByCategory(category)
			if len(entries) == 0 {
				continue
			}
			fmt.Printf("%s:\n", category)
			for _, e := range entries {
				fmt.Printf("  %s  %s\n", e.Code, e.Title)
			}
		}
		return exitOK
	case *search != "":
		found := cat.Search(*search)
		if len(found) == 0 {
			fmt.Printf("no error codes match %q\n", *search)
			return exitCompile
		}
		for _, e := range found {
			fmt.Printf("%s  %s\n", e.Code, e.Title)
		}
		return exitOK
	}

	if len(pos) != 1 {
		fmt.Fprintln(os.Stderr, "usage: wj explain <code> | --list | --search <query>")
		return exitUsage
	}
	code := strings.ToUpper(pos[0])
	if !strings.HasPrefix(code, "WJ") {
		// Also accept native codes such as E0384.
		if e, ok := cat.MapNativeCode(code); ok {
			code = e.Code
		}
	}
	if !cat.Explain(os.Stdout, code) {
		fmt.Fprintf(os.Stderr, "error: unknown error code %s\n", pos[0])
		fmt.Fprintln(os.Stderr, "Run 'wj explain --list' to see all codes.")
		return exitCompile
	}
	return exitOK
}

func runDocs(args []string) int {
	fs, common := newFlagSet("docs")
	format := fs.String("format", "markdown", "Output format: markdown, html or json")
	output := fs.String("o", "", "Output file (default stdout)")
	if _, err := parseArgs(fs, args); err != nil {
		return flagExit(err)
	}
	common.setup()

	var w io.Writer = os.Stdout
	var f *os.File
	if *output != "" {
		var err error
		f, err = os.Create(*output)
		if err != nil {
			return reportError(err)
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)

	cat := diag.Registry()
	var err error
	switch strings.ToLower(*format) {
	case "markdown", "md":
		err = cat.WriteMarkdown(bw)
	case "html":
		err = cat.WriteHTML(bw)
	case "json":
		err = cat.WriteJSON(bw)
	default:
		fmt.Fprintf(os.Stderr, "error: unknown format %q (want markdown, html or json)\n", *format)
		return exitUsage
	}
	if err == nil {
		err = bw.Flush()
	}
	if err != nil {
		return reportError(err)
	}
	if f != nil {
		fmt.Fprintf(os.Stderr, "wrote %s\n", *output)
	}
	return exitOK
}
