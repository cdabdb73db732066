package syntax

import "fmt"

// Pos represents a position in a source file.
// The zero value is an invalid position.
type Pos struct {
	filename string // source file name
	line     uint32 // 1-based line number
	col      uint32 // 1-based column number (byte offset in line)
	offset   uint32 // 0-based byte offset in the file
}

// NewPos creates a new Pos with the given filename, line, and column.
// Line and column numbers are 1-based.
func NewPos(filename string, line, col uint32) Pos {
	return Pos{filename: filename, line: line, col: col}
}

// NewPosOffset is like NewPos but also records the byte offset.
func NewPosOffset(filename string, line, col, offset uint32) Pos {
	return Pos{filename: filename, line: line, col: col, offset: offset}
}

// String returns a string representation of the position in the format
// "filename:line:col" or "line:col" if filename is empty.
func (p Pos) String() string {
	if p.filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.filename, p.line, p.col)
	}
	return fmt.Sprintf("%d:%d", p.line, p.col)
}

// IsValid reports whether the position is valid.
// A position is valid if line > 0.
func (p Pos) IsValid() bool {
	return p.line > 0
}

// Line returns the 1-based line number.
func (p Pos) Line() uint32 {
	return p.line
}

// Col returns the 1-based column number (byte offset in line).
func (p Pos) Col() uint32 {
	return p.col
}

// Offset returns the 0-based byte offset in the file.
func (p Pos) Offset() uint32 {
	return p.offset
}

// Filename returns the source file name.
func (p Pos) Filename() string {
	return p.filename
}

// Before reports whether p comes strictly before q in the same file.
func (p Pos) Before(q Pos) bool {
	if p.line != q.line {
		return p.line < q.line
	}
	return p.col < q.col
}

// Span is a half-open range [Start, End) of source text.
type Span struct {
	Start Pos
	End   Pos
}

// MakeSpan returns the span from start to end.
func MakeSpan(start, end Pos) Span {
	return Span{Start: start, End: end}
}

// Len returns the span length in bytes.
func (s Span) Len() int {
	if s.End.offset < s.Start.offset {
		return 0
	}
	return int(s.End.offset - s.Start.offset)
}

func (s Span) String() string {
	return s.Start.String()
}
