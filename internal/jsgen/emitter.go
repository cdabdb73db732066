package jsgen

import (
	"strings"
	"unicode/utf16"

	"fortio.org/safecast"

	"github.com/windjammer-lang/wj/internal/syntax"
)

// emitter accumulates JavaScript text and tracks the generated line and
// column so that source positions can be recorded as they are emitted.
// Columns count UTF-16 code units as source map consumers expect.
type emitter struct {
	buf     *strings.Builder
	line    int
	col     int
	indent  int
	compact bool // no indentation, newlines or optional spaces

	maps []mapping
}

type mapping struct {
	genLine, genCol int
	srcLine, srcCol int
	name            string
}

func (e *emitter) write(s string) {
	e.buf.WriteString(s)
	for _, r := range s {
		if r == '\n' {
			e.line++
			e.col = 0
			continue
		}
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		e.col += n
	}
}

// sp writes a space unless the output is compact.
func (e *emitter) sp() {
	if !e.compact {
		e.write(" ")
	}
}

// newline ends the current line and indents the next one.
func (e *emitter) newline() {
	if e.compact {
		return
	}
	e.write("\n" + strings.Repeat("  ", e.indent))
}

// blank writes an empty line between items.
func (e *emitter) blank() {
	if !e.compact {
		e.write("\n")
	}
}

// mark records that the text written next comes from pos.
func (e *emitter) mark(pos syntax.Pos, name string) {
	if !pos.IsValid() {
		return
	}
	line, err1 := safecast.Convert[int](pos.Line())
	col, err2 := safecast.Convert[int](pos.Col())
	if err1 != nil || err2 != nil {
		return
	}
	if n := len(e.maps); n > 0 {
		last := e.maps[n-1]
		if last.genLine == e.line && last.genCol == e.col {
			return
		}
	}
	e.maps = append(e.maps, mapping{genLine: e.line, genCol: e.col, srcLine: line - 1, srcCol: col - 1, name: name})
}

// capture runs f and returns what it wrote. Mappings recorded by f are
// discarded because the captured text may be placed anywhere.
func (e *emitter) capture(f func()) string {
	saved, line, col, maps := e.buf, e.line, e.col, len(e.maps)
	e.buf = new(strings.Builder)
	f()
	s := e.buf.String()
	e.buf, e.line, e.col = saved, line, col
	e.maps = e.maps[:maps]
	return s
}
