package diag

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	noteColor    = color.New(color.FgCyan, color.Bold)
	boldColor    = color.New(color.Bold)
	helpColor    = color.New(color.FgGreen)

	yellowBold = color.New(color.FgYellow, color.Bold)
	greenBold  = color.New(color.FgGreen, color.Bold)
	cyanBold   = color.New(color.FgCyan, color.Bold)
	faint      = color.New(color.Faint)
)

func severityColor(s Severity) *color.Color {
	switch s {
	case Warning:
		return warningColor
	case Note:
		return noteColor
	}
	return errorColor
}

// Fprint writes d in the compiler's report format:
//
//	main.wj:3:5: error [WJ0004]: Cannot modify immutable variable
//	  x = 20
//	  ^^^^^^ cannot assign twice to immutable variable `x`
//	  = help: Declare the variable as mutable: let mut x = 42
//
// src is the text of the file d points into; when nil the snippet is
// omitted. Colors follow color.NoColor.
func Fprint(w io.Writer, d *Diagnostic, src []byte) {
	sc := severityColor(d.Severity)
	title := d.Title()
	fmt.Fprintf(w, "%s: %s %s\n",
		boldColor.Sprint(d.Span.Start.String()),
		sc.Sprintf("%s [%s]:", d.Severity, d.Code),
		boldColor.Sprint(title))

	msg := d.Message
	if msg == title {
		msg = ""
	}
	line, ok := sourceLine(src, int(d.Span.Start.Line()))
	if ok {
		col := int(d.Span.Start.Col())
		if col < 1 {
			col = 1
		}
		if col > len(line)+1 {
			col = len(line) + 1
		}
		prefix := line[:col-1]
		n := 1
		if d.Span.End.Line() == d.Span.Start.Line() && d.Span.Len() > 0 {
			n = runewidth.StringWidth(line[col-1 : min(len(line), col-1+d.Span.Len())])
			if n < 1 {
				n = 1
			}
		}
		fmt.Fprintf(w, "  %s\n", line)
		caret := sc.Sprint(strings.Repeat("^", n))
		if msg != "" {
			caret += " " + sc.Sprint(msg)
		}
		fmt.Fprintf(w, "  %s%s\n", padding(prefix), caret)
	} else if msg != "" {
		fmt.Fprintf(w, "  %s\n", msg)
	}
	for _, note := range d.Notes {
		fmt.Fprintf(w, "  = %s %s\n", noteColor.Sprint("note:"), note)
	}
	if help := d.HelpText(); help != "" {
		fmt.Fprintf(w, "  = %s %s\n", helpColor.Sprint("help:"), help)
	}
}

// FprintAll writes every diagnostic of b in position order followed by a
// summary line when errors were reported.
func FprintAll(w io.Writer, b *Bag, src []byte) {
	for _, d := range b.Sorted() {
		Fprint(w, d, src)
	}
	if n := b.ErrorCount(); n > 0 {
		plural := "s"
		if n == 1 {
			plural = ""
		}
		fmt.Fprintf(w, "%s\n", errorColor.Sprintf("aborting due to %d previous error%s", n, plural))
	}
}

// sourceLine returns the 1-based line n of src without its newline.
func sourceLine(src []byte, n int) (string, bool) {
	if src == nil || n < 1 {
		return "", false
	}
	for i := 1; i < n; i++ {
		j := bytes.IndexByte(src, '\n')
		if j < 0 {
			return "", false
		}
		src = src[j+1:]
	}
	if j := bytes.IndexByte(src, '\n'); j >= 0 {
		src = src[:j]
	}
	return strings.TrimRight(string(src), "\r"), true
}

// padding returns whitespace as wide as prefix, keeping tabs so the caret
// lines up under tab-indented source.
func padding(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return b.String()
}
