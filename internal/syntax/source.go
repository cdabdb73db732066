package syntax

import (
	"io"
	"math"
	"unicode"
	"unicode/utf8"

	"fortio.org/safecast"
)

// source is a character reader with position tracking.
// It reads UTF-8 encoded source files and provides character-by-character access.
type source struct {
	// Input
	buf []byte // source buffer (entire file read into memory)

	// Position tracking
	filename string // source file name
	line     uint32 // current line number (1-based)
	col      uint32 // current column number (1-based, byte offset)
	base     uint32 // byte offset of buf[0] in the enclosing file

	// Current state
	ch     rune // current character, -1 for EOF
	offs   int  // byte offset in buf just past ch
	chOffs int  // byte offset of ch in buf

	// Error handling
	errh func(e *LexError)
}

// newSource creates a new source from an io.Reader.
// The entire content is read into memory.
// The errh function is called for each error; if nil, errors are silently ignored.
func newSource(filename string, src io.Reader, errh func(e *LexError)) *source {
	return newSourceAt(filename, src, 1, 1, 0, errh)
}

// newSourceAt is like newSource but starts position tracking at line:col
// and byte offset base. It is used to scan text embedded in a literal.
func newSourceAt(filename string, src io.Reader, line, col, base uint32, errh func(e *LexError)) *source {
	s := &source{
		filename: filename,
		line:     line,
		col:      col - 1, // incremented by the first nextch()
		base:     base,
		ch:       -1, // sentinel: "before first char"
		errh:     errh,
	}

	var err error
	s.buf, err = io.ReadAll(src)
	if err != nil {
		s.errorAt(IllegalChar, s.pos(), "error reading source file: "+err.Error())
		s.ch = -1
		return s
	}

	s.nextch()
	return s
}

// nextch reads the next character from the source and updates position.
// Sets s.ch to -1 at EOF.
//
// (line, col) always refers to the position of s.ch after nextch() returns.
func (s *source) nextch() {
	if s.ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}

	s.chOffs = s.offs
	if s.offs >= len(s.buf) {
		s.ch = -1
		return
	}

	r, width := utf8.DecodeRune(s.buf[s.offs:])
	if r == utf8.RuneError && width == 1 {
		s.errorAt(IllegalChar, s.pos(), "invalid UTF-8 encoding")
	}

	s.ch = r
	s.offs += width
}

// peek returns the character after s.ch without consuming anything.
func (s *source) peek() rune {
	if s.offs >= len(s.buf) {
		return -1
	}
	r, _ := utf8.DecodeRune(s.buf[s.offs:])
	return r
}

// rest returns the unread input starting at s.ch.
func (s *source) rest() []byte {
	return s.buf[s.chOffs:]
}

// pos returns the current position (position of current character).
func (s *source) pos() Pos {
	return NewPosOffset(s.filename, s.line, s.col, s.base+u32(s.chOffs))
}

// u32 narrows a byte offset, saturating for inputs beyond 4 GiB.
func u32(n int) uint32 {
	v, err := safecast.Convert[uint32](n)
	if err != nil {
		return math.MaxUint32
	}
	return v
}

// errorAt reports a lexical error spanning start to the current position.
func (s *source) errorAt(kind LexErrorKind, start Pos, msg string) {
	if s.errh != nil {
		s.errh(&LexError{Kind: kind, Span: MakeSpan(start, s.pos()), Msg: msg})
	}
}

// Character classification helpers

// isIdentStart approximates Unicode XID_Start plus '_'.
func isIdentStart(r rune) bool {
	if r < utf8.RuneSelf {
		return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || r == '_'
	}
	return unicode.IsLetter(r) || unicode.Is(unicode.Nl, r) || unicode.Is(unicode.Other_ID_Start, r)
}

// isIdentContinue approximates Unicode XID_Continue.
func isIdentContinue(r rune) bool {
	if r < utf8.RuneSelf {
		return isIdentStart(r) || isDigit(r)
	}
	return isIdentStart(r) || unicode.In(r, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc) ||
		unicode.Is(unicode.Other_ID_Continue, r)
}

// isDigit reports whether r is a decimal digit (0-9).
func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

// isHexDigit reports whether r is a hexadecimal digit (0-9, a-f, A-F).
func isHexDigit(r rune) bool {
	return isDigit(r) || 'a' <= lower(r) && lower(r) <= 'f'
}

// isOctalDigit reports whether r is an octal digit (0-7).
func isOctalDigit(r rune) bool {
	return '0' <= r && r <= '7'
}

// isBinaryDigit reports whether r is a binary digit (0 or 1).
func isBinaryDigit(r rune) bool {
	return r == '0' || r == '1'
}

// lower returns the lowercase version of r if r is an ASCII letter.
// ('a' - 'A') is 0x20; OR-ing it in lowercases ASCII letters only.
func lower(r rune) rune {
	return ('a' - 'A') | r
}

// isWhitespace reports whether r is a whitespace character other than newline.
// Newline is handled separately because it may trigger semicolon insertion.
func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\f' || r == '\v'
}

// isOperatorStart reports whether r can start an operator or delimiter.
func isOperatorStart(r rune) bool {
	switch r {
	case '+', '-', '*', '/', '%', '&', '|', '^', '<', '>', '=', '!', ':', '?', '@', '#',
		'(', ')', '[', ']', '{', '}', ',', ';', '.':
		return true
	}
	return false
}
