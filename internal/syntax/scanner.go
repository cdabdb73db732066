package syntax

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Scanner performs lexical analysis on WJ source code.
type Scanner struct {
	source // embedded character reader

	// Current token info
	tok    Token   // token type
	lit    string  // token literal (identifier name, literal text)
	kind   LitKind // literal kind (only valid when tok == _Literal)
	tokPos Pos     // token start position
	tokEnd Pos     // position just past the token

	// ASI (Automatic Semicolon Insertion) state
	nlsemi   bool   // whether to insert semicolon at newline
	nest     []rune // open ( [ { delimiters; ASI is off inside ( and [
	implicit bool   // current _Semi was inserted, not written

	// Configuration
	asiEnabled bool

	// eofInLiteral is set when a string or comment ran into EOF.
	// The parser uses it to suppress follow-on errors at EOF.
	eofInLiteral bool

	prev   Token // previous token, for `x.0.1` tuple access
	litBuf strings.Builder
}

// NewScanner creates a new Scanner for the given source.
// The errh function is called for each lexical error; if nil, errors are silently ignored.
func NewScanner(filename string, src io.Reader, errh func(e *LexError)) *Scanner {
	return &Scanner{
		source:     *newSource(filename, src, errh),
		asiEnabled: true,
	}
}

// newScannerAt creates a scanner over text embedded at pos in filename.
func newScannerAt(pos Pos, src string, errh func(e *LexError)) *Scanner {
	return &Scanner{
		source:     *newSourceAt(pos.filename, strings.NewReader(src), pos.line, pos.col, pos.offset, errh),
		asiEnabled: false,
	}
}

// SetASIEnabled enables or disables automatic semicolon insertion.
func (s *Scanner) SetASIEnabled(enabled bool) {
	s.asiEnabled = enabled
}

// Next advances to the next token.
func (s *Scanner) Next() {
	nlsemi := s.nlsemi
	s.nlsemi = false
	s.implicit = false
	s.prev = s.tok

redo:
	s.skipWhitespace()

	// Comments. A block comment spanning a newline acts as a newline.
	if s.ch == '/' && (s.peek() == '/' || s.peek() == '*') {
		start := s.pos()
		s.nextch()
		if s.ch == '/' {
			s.skipLineComment()
		} else if s.skipBlockComment(start) && nlsemi && s.asiActive() {
			s.setImplicitSemi(start, "newline")
			return
		}
		goto redo
	}

	// ASI: insert semicolon before newline or EOF if needed.
	if nlsemi && s.asiActive() && (s.ch == '\n' || s.ch < 0) {
		if s.ch < 0 || !s.continuesOnNextLine() {
			lit := "EOF"
			if s.ch == '\n' {
				lit = "newline"
			}
			s.setImplicitSemi(s.pos(), lit)
			if s.ch == '\n' {
				s.nextch()
			}
			return
		}
	}

	if s.ch == '\n' {
		s.nextch()
		goto redo
	}

	s.tokPos = s.pos()

	switch {
	case s.ch < 0:
		s.tok = _EOF
		s.lit = ""

	case isIdentStart(s.ch):
		s.scanIdent()

	case isDigit(s.ch):
		s.scanNumber()

	case s.ch == '"':
		s.scanString()

	case s.ch == '\'':
		s.scanChar()

	case isOperatorStart(s.ch):
		s.scanOperator()

	default:
		s.lit = string(s.ch)
		s.tok = _Error
		s.nextch()
		s.errorAt(IllegalChar, s.tokPos, fmt.Sprintf("illegal character %q", []rune(s.lit)[0]))
	}

	s.tokEnd = s.pos()
	s.nlsemi = s.shouldInsertSemi()
}

func (s *Scanner) setImplicitSemi(pos Pos, lit string) {
	s.tokPos = pos
	s.tokEnd = pos
	s.tok = _Semi
	s.lit = lit
	s.implicit = true
}

// Token returns the current token type.
func (s *Scanner) Token() Token {
	return s.tok
}

// Literal returns the current token's literal value.
func (s *Scanner) Literal() string {
	return s.lit
}

// LitKind returns the current literal's kind (only valid when Token() == _Literal).
func (s *Scanner) LitKind() LitKind {
	return s.kind
}

// Pos returns the current token's start position.
func (s *Scanner) Pos() Pos {
	return s.tokPos
}

// End returns the position just past the current token.
func (s *Scanner) End() Pos {
	return s.tokEnd
}

// Implicit reports whether the current semicolon was inserted at a newline.
func (s *Scanner) Implicit() bool {
	return s.implicit
}

// asiActive reports whether newlines are significant at the current nesting.
func (s *Scanner) asiActive() bool {
	if !s.asiEnabled {
		return false
	}
	return len(s.nest) == 0 || s.nest[len(s.nest)-1] == '{'
}

// continuesOnNextLine reports whether the next line starts with `else` or a
// method-chain `.`, in which case no semicolon is inserted.
func (s *Scanner) continuesOnNextLine() bool {
	rest := bytes.TrimLeft(s.rest(), " \t\r\n")
	if bytes.HasPrefix(rest, []byte("else")) {
		return len(rest) == 4 || !isIdentContinue(rune(rest[4]))
	}
	return len(rest) >= 2 && rest[0] == '.' && rest[1] != '.'
}

func (s *Scanner) skipWhitespace() {
	for isWhitespace(s.ch) {
		s.nextch()
	}
}

// shouldInsertSemi reports whether a semicolon should be inserted
// after the current token when followed by a newline.
func (s *Scanner) shouldInsertSemi() bool {
	switch s.tok {
	case _Name, _Literal:
		return true
	case _Break, _Continue, _Return, _Self, _SelfType, _Await:
		return true
	case _Rparen, _Rbrack, _Rbrace, _Question:
		return true
	}
	return false
}

func (s *Scanner) startLit() {
	s.litBuf.Reset()
	s.litBuf.WriteRune(s.ch)
}

func (s *Scanner) continueLit() {
	s.litBuf.WriteRune(s.ch)
}

func (s *Scanner) stopLit() string {
	return s.litBuf.String()
}

// scanIdent scans an identifier, keyword, or boolean literal.
func (s *Scanner) scanIdent() {
	s.startLit()
	s.nextch()
	for isIdentContinue(s.ch) {
		s.continueLit()
		s.nextch()
	}
	s.lit = s.stopLit()

	if s.lit == "true" || s.lit == "false" {
		s.tok = _Literal
		s.kind = BoolLit
		return
	}
	s.tok = LookupKeyword(s.lit)
}

// scanNumber scans a number literal. The literal keeps its source text;
// the value is validated here so later stages can parse it without errors.
func (s *Scanner) scanNumber() {
	s.litBuf.Reset()
	s.kind = IntLit
	base := 10

	if s.ch == '0' {
		switch lower(s.peek()) {
		case 'x':
			base = 16
		case 'o':
			base = 8
		case 'b':
			base = 2
		}
	}

	if base != 10 {
		s.continueLit() // 0
		s.nextch()
		s.continueLit() // x, o, b
		s.nextch()
		for isIdentContinue(s.ch) {
			s.continueLit()
			s.nextch()
		}
	} else {
		s.scanDecimalDigits()
		// A tuple index such as t.0.1 never has a fraction.
		if s.prev != _Dot && !s.scanFraction() {
			s.lit = s.litBuf.String()
			s.tok = _Literal
			return
		}
		if isIdentContinue(s.ch) {
			for isIdentContinue(s.ch) {
				s.continueLit()
				s.nextch()
			}
			s.lit = s.litBuf.String()
			s.tok = _Literal
			s.errorAt(InvalidNumericLiteral, s.tokPos, fmt.Sprintf("invalid numeric literal %q", s.lit))
			return
		}
	}

	s.lit = s.litBuf.String()
	s.tok = _Literal
	if _, err := NumericValue(s.lit, s.kind); err != nil {
		s.errorAt(InvalidNumericLiteral, s.tokPos, err.Error())
	}
}

func (s *Scanner) scanDecimalDigits() {
	for isDigit(s.ch) || s.ch == '_' {
		s.continueLit()
		s.nextch()
	}
}

// scanFraction scans the fractional part and exponent of a float.
// A '.' belongs to the number only when a digit follows, so 1..5 and
// 1.max(2) scan as an integer followed by punctuation. It reports false
// if it already reported an error.
func (s *Scanner) scanFraction() bool {
	if s.ch == '.' && isDigit(s.peek()) {
		s.kind = FloatLit
		s.continueLit()
		s.nextch()
		s.scanDecimalDigits()
	}

	if lower(s.ch) == 'e' {
		next := s.peek()
		if !isDigit(next) && next != '+' && next != '-' {
			return true
		}
		s.kind = FloatLit
		s.continueLit()
		s.nextch()
		if s.ch == '+' || s.ch == '-' {
			s.continueLit()
			s.nextch()
		}
		if !isDigit(s.ch) {
			s.errorAt(InvalidNumericLiteral, s.tokPos, "exponent has no digits")
			return false
		}
		s.scanDecimalDigits()
	}
	return true
}

// NumericValue parses the source text of an int or float literal and
// returns its canonical decimal form.
func NumericValue(text string, kind LitKind) (string, error) {
	clean := strings.ReplaceAll(text, "_", "")
	if kind == FloatLit {
		f, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			return "", fmt.Errorf("invalid float literal %q", text)
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	}

	base := 10
	digits := clean
	if len(clean) >= 2 && clean[0] == '0' {
		switch lower(rune(clean[1])) {
		case 'x':
			base, digits = 16, clean[2:]
		case 'o':
			base, digits = 8, clean[2:]
		case 'b':
			base, digits = 2, clean[2:]
		}
	}
	if digits == "" {
		return "", fmt.Errorf("numeric literal %q has no digits", text)
	}
	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return "", fmt.Errorf("integer literal %q overflows 64 bits", text)
		}
		return "", fmt.Errorf("invalid digit in base-%d literal %q", base, text)
	}
	return strconv.FormatUint(v, 10), nil
}

// scanString scans a string literal.
// A literal without ${...} yields its decoded content as StringLit.
// A literal with interpolation yields the raw text between the quotes
// as InterpLit; the parser splits it.
func (s *Scanner) scanString() {
	start := s.pos()
	s.nextch() // skip opening "
	var decoded, raw strings.Builder
	interp := false

	for {
		switch {
		case s.ch == '"':
			s.nextch()
			s.tok = _Literal
			if interp {
				s.lit = raw.String()
				s.kind = InterpLit
			} else {
				s.lit = decoded.String()
				s.kind = StringLit
			}
			return

		case s.ch < 0:
			s.eofInLiteral = true
			s.errorAt(UnterminatedString, start, "string literal not terminated")
			s.tok = _Literal
			s.lit = decoded.String()
			s.kind = StringLit
			return

		case s.ch == '\\':
			raw.WriteRune(s.ch)
			escStart := s.pos()
			s.nextch()
			raw.WriteRune(s.ch)
			if r, ok := s.scanEscape(escStart, &raw); ok {
				decoded.WriteRune(r)
			}

		case s.ch == '$' && s.peek() == '{':
			interp = true
			if !s.scanInterpExpr(start, &raw) {
				return
			}

		default:
			decoded.WriteRune(s.ch)
			raw.WriteRune(s.ch)
			s.nextch()
		}
	}
}

// scanInterpExpr copies a ${...} segment into raw, honoring nested braces
// and string literals. It reports false if the input ended first.
func (s *Scanner) scanInterpExpr(start Pos, raw *strings.Builder) bool {
	depth := 0
	for {
		if s.ch < 0 {
			s.eofInLiteral = true
			s.errorAt(UnterminatedString, start, "string literal not terminated")
			s.tok = _Literal
			s.lit = raw.String()
			s.kind = InterpLit
			return false
		}
		ch := s.ch
		raw.WriteRune(ch)
		s.nextch()
		switch ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return true
			}
		case '"':
			for s.ch >= 0 && s.ch != '"' {
				if s.ch == '\\' {
					raw.WriteRune(s.ch)
					s.nextch()
				}
				if s.ch >= 0 {
					raw.WriteRune(s.ch)
					s.nextch()
				}
			}
			if s.ch == '"' {
				raw.WriteRune(s.ch)
				s.nextch()
			}
		}
	}
}

// scanChar scans a character literal; the literal is the decoded rune.
func (s *Scanner) scanChar() {
	start := s.pos()
	s.nextch() // skip '
	s.tok = _Literal
	s.kind = CharLit

	var r rune
	ok := true
	switch {
	case s.ch == '\\':
		s.nextch()
		var discard strings.Builder
		r, ok = s.scanEscape(start, &discard)
	case s.ch == '\'' || s.ch == '\n' || s.ch < 0:
		s.errorAt(IllegalChar, start, "empty character literal")
		ok = false
	default:
		r = s.ch
		s.nextch()
	}

	if s.ch != '\'' {
		if s.ch < 0 {
			s.eofInLiteral = true
		}
		s.errorAt(UnterminatedString, start, "character literal not terminated")
		s.lit = string(r)
		return
	}
	s.nextch()
	if !ok {
		r = 0
	}
	s.lit = string(r)
}

// scanEscape decodes the escape whose first character (after '\') is s.ch.
// The raw text of multi-character escapes is appended to raw.
func (s *Scanner) scanEscape(start Pos, raw *strings.Builder) (rune, bool) {
	switch s.ch {
	case 'n':
		s.nextch()
		return '\n', true
	case 't':
		s.nextch()
		return '\t', true
	case 'r':
		s.nextch()
		return '\r', true
	case '\\':
		s.nextch()
		return '\\', true
	case '"':
		s.nextch()
		return '"', true
	case '\'':
		s.nextch()
		return '\'', true
	case '$':
		s.nextch()
		return '$', true
	case '0':
		s.nextch()
		return 0, true
	case 'u':
		s.nextch()
		return s.scanUnicodeEscape(start, raw)
	default:
		if s.ch < 0 {
			return 0, false
		}
		s.errorAt(InvalidEscape, start, fmt.Sprintf("unknown escape sequence: \\%c", s.ch))
		s.nextch()
		return 0, false
	}
}

// scanUnicodeEscape scans the {XXXX} part of a \u{XXXX} escape.
func (s *Scanner) scanUnicodeEscape(start Pos, raw *strings.Builder) (rune, bool) {
	if s.ch != '{' {
		s.errorAt(InvalidEscape, start, "expected { after \\u")
		return 0, false
	}
	raw.WriteRune(s.ch)
	s.nextch()
	var val rune
	n := 0
	for isHexDigit(s.ch) {
		raw.WriteRune(s.ch)
		val = val*16 + hexValue(s.ch)
		n++
		s.nextch()
	}
	if s.ch != '}' || n == 0 || n > 6 || val > 0x10FFFF {
		s.errorAt(InvalidEscape, start, "invalid unicode escape")
		return 0, false
	}
	raw.WriteRune(s.ch)
	s.nextch()
	return val, true
}

// hexValue returns the numeric value of a hex digit.
func hexValue(r rune) rune {
	switch {
	case '0' <= r && r <= '9':
		return r - '0'
	case 'a' <= lower(r) && lower(r) <= 'f':
		return lower(r) - 'a' + 10
	}
	return 0
}

// scanOperator scans an operator or delimiter.
func (s *Scanner) scanOperator() {
	ch := s.ch
	s.nextch()

	// two-character lookups share a small helper
	pick := func(next rune, two, one Token) {
		if s.ch == next {
			s.nextch()
			s.tok = two
		} else {
			s.tok = one
		}
	}

	switch ch {
	case '+':
		pick('=', _AddAssign, _Add)
	case '-':
		switch s.ch {
		case '=':
			s.nextch()
			s.tok = _SubAssign
		case '>':
			s.nextch()
			s.tok = _Arrow
		default:
			s.tok = _Sub
		}
	case '*':
		pick('=', _MulAssign, _Mul)
	case '/':
		pick('=', _DivAssign, _Div)
	case '%':
		pick('=', _RemAssign, _Rem)
	case '&':
		pick('&', _AndAnd, _And)
	case '|':
		pick('|', _OrOr, _Or)
	case '^':
		s.tok = _Xor
	case '<':
		switch s.ch {
		case '=':
			s.nextch()
			s.tok = _Leq
		case '<':
			s.nextch()
			s.tok = _Shl
		default:
			s.tok = _Lss
		}
	case '>':
		switch s.ch {
		case '=':
			s.nextch()
			s.tok = _Geq
		case '>':
			s.nextch()
			s.tok = _Shr
		default:
			s.tok = _Gtr
		}
	case '=':
		switch s.ch {
		case '=':
			s.nextch()
			s.tok = _Eql
		case '>':
			s.nextch()
			s.tok = _FatArrow
		default:
			s.tok = _Assign
		}
	case '!':
		pick('=', _Neq, _Not)
	case ':':
		pick(':', _ColonColon, _Colon)
	case '?':
		s.tok = _Question
	case '@':
		s.tok = _At
	case '#':
		s.tok = _Hash
	case '.':
		if s.ch == '.' {
			s.nextch()
			pick('=', _DotDotEq, _DotDot)
		} else {
			s.tok = _Dot
		}
	case '(', '[', '{':
		s.nest = append(s.nest, ch)
		switch ch {
		case '(':
			s.tok = _Lparen
		case '[':
			s.tok = _Lbrack
		default:
			s.tok = _Lbrace
		}
	case ')', ']', '}':
		if len(s.nest) > 0 {
			s.nest = s.nest[:len(s.nest)-1]
		}
		switch ch {
		case ')':
			s.tok = _Rparen
		case ']':
			s.tok = _Rbrack
		default:
			s.tok = _Rbrace
		}
	case ',':
		s.tok = _Comma
	case ';':
		s.tok = _Semi
	}
	s.lit = s.tok.String()
}

// skipLineComment skips a line comment; s.ch is the second '/'.
func (s *Scanner) skipLineComment() {
	s.nextch()
	for s.ch != '\n' && s.ch >= 0 {
		s.nextch()
	}
}

// skipBlockComment skips a nested block comment; s.ch is the '*' after '/'.
// It reports whether the comment contained a newline.
func (s *Scanner) skipBlockComment(start Pos) bool {
	s.nextch()
	depth := 1
	newline := false
	for depth > 0 {
		switch {
		case s.ch < 0:
			s.eofInLiteral = true
			s.errorAt(UnterminatedComment, start, "block comment not terminated")
			return newline
		case s.ch == '/' && s.peek() == '*':
			s.nextch()
			s.nextch()
			depth++
		case s.ch == '*' && s.peek() == '/':
			s.nextch()
			s.nextch()
			depth--
		default:
			if s.ch == '\n' {
				newline = true
			}
			s.nextch()
		}
	}
	return newline
}
