package codegen

import (
	"fmt"
	"io"
	"strings"
)

// emitter wraps an io.Writer with helpers for emitting indented Rust
// source text.
type emitter struct {
	w      io.Writer
	err    error // first write error
	indent int
}

func (e *emitter) write(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s)
}

// emit writes a formatted string without a trailing newline.
func (e *emitter) emit(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

// newline ends the current line and indents the next one.
func (e *emitter) newline() {
	e.write("\n" + strings.Repeat("    ", e.indent))
}

// emitLine writes a blank line.
func (e *emitter) emitLine() {
	e.write("\n")
}

// capture runs f with the output redirected and returns what f wrote.
func (e *emitter) capture(f func()) string {
	var sb strings.Builder
	saved := e.w
	e.w = &sb
	f()
	e.w = saved
	return sb.String()
}
