package syntax

import (
	"strings"
	"testing"
)

// scanAll returns tokens and literals up to EOF with ASI enabled.
func scanAll(t *testing.T, src string) ([]Token, []string, []*LexError) {
	t.Helper()
	var errs []*LexError
	s := NewScanner("test.wj", strings.NewReader(src), func(e *LexError) { errs = append(errs, e) })
	var toks []Token
	var lits []string
	for i := 0; i < 10000; i++ {
		s.Next()
		if s.Token() == _EOF {
			break
		}
		toks = append(toks, s.Token())
		lits = append(lits, s.Literal())
	}
	return toks, lits, errs
}

func TestScanTokens(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		tokens []Token
		lits   []string
	}{
		{"ident", "foo", []Token{_Name, _Semi}, []string{"foo", "EOF"}},
		{"ident_unicode", "größe", []Token{_Name, _Semi}, []string{"größe", "EOF"}},
		{"predecl_int", "int", []Token{_Name, _Semi}, []string{"int", "EOF"}},
		{"bool_true", "true", []Token{_Literal, _Semi}, []string{"true", "EOF"}},

		{"int_dec", "123", []Token{_Literal, _Semi}, []string{"123", "EOF"}},
		{"int_underscore", "1_000", []Token{_Literal, _Semi}, []string{"1_000", "EOF"}},
		{"int_hex", "0xFF", []Token{_Literal, _Semi}, []string{"0xFF", "EOF"}},
		{"int_oct", "0o17", []Token{_Literal, _Semi}, []string{"0o17", "EOF"}},
		{"int_bin", "0b1010", []Token{_Literal, _Semi}, []string{"0b1010", "EOF"}},
		{"float_simple", "3.14", []Token{_Literal, _Semi}, []string{"3.14", "EOF"}},
		{"float_exp", "2.5e-3", []Token{_Literal, _Semi}, []string{"2.5e-3", "EOF"}},
		{"range_not_float", "1..5", []Token{_Literal, _DotDot, _Literal, _Semi}, []string{"1", "..", "5", "EOF"}},
		{"method_on_int", "1.max", []Token{_Literal, _Dot, _Name, _Semi}, []string{"1", ".", "max", "EOF"}},
		{"tuple_index", "t.0.1", []Token{_Name, _Dot, _Literal, _Dot, _Literal, _Semi}, []string{"t", ".", "0", ".", "1", "EOF"}},

		{"string", `"hi"`, []Token{_Literal, _Semi}, []string{"hi", "EOF"}},
		{"string_escapes", `"a\n\t\\\"b"`, []Token{_Literal, _Semi}, []string{"a\n\t\\\"b", "EOF"}},
		{"string_unicode", `"\u{1F600}"`, []Token{_Literal, _Semi}, []string{"\U0001F600", "EOF"}},
		{"string_dollar", `"\${x}"`, []Token{_Literal, _Semi}, []string{"${x}", "EOF"}},
		{"interp", `"a ${b} c"`, []Token{_Literal, _Semi}, []string{"a ${b} c", "EOF"}},
		{"char", `'x'`, []Token{_Literal, _Semi}, []string{"x", "EOF"}},

		{"path", "a::b", []Token{_Name, _ColonColon, _Name, _Semi}, []string{"a", "::", "b", "EOF"}},
		{"arrows", "-> =>", []Token{_Arrow, _FatArrow}, []string{"->", "=>"}},
		{"ranges", ".. ..=", []Token{_DotDot, _DotDotEq}, []string{"..", "..="}},
		{"compound", "+= -= *= /= %=", []Token{_AddAssign, _SubAssign, _MulAssign, _DivAssign, _RemAssign}, []string{"+=", "-=", "*=", "/=", "%="}},
		{"logic", "&& || == != <= >=", []Token{_AndAnd, _OrOr, _Eql, _Neq, _Leq, _Geq}, []string{"&&", "||", "==", "!=", "<=", ">="}},
		{"attr", "@test", []Token{_At, _Name, _Semi}, []string{"@", "test", "EOF"}},
		{"hash_attr", "#[x]", []Token{_Hash, _Lbrack, _Name, _Rbrack, _Semi}, []string{"#", "[", "x", "]", "EOF"}},
		{"question", "x?", []Token{_Name, _Question, _Semi}, []string{"x", "?", "EOF"}},

		{"keywords", "fn let mut", []Token{_Fn, _Let, _Mut}, []string{"fn", "let", "mut"}},
		{"line_comment", "a // note\nb", []Token{_Name, _Semi, _Name, _Semi}, []string{"a", "newline", "b", "EOF"}},
		{"nested_comment", "a /* x /* y */ z */ b", []Token{_Name, _Name, _Semi}, []string{"a", "b", "EOF"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, lits, errs := scanAll(t, tt.src)
			if len(errs) > 0 {
				t.Fatalf("unexpected errors: %v", errs)
			}
			if len(toks) != len(tt.tokens) {
				t.Fatalf("got %d tokens %v, want %d %v", len(toks), toks, len(tt.tokens), tt.tokens)
			}
			for i := range toks {
				if toks[i] != tt.tokens[i] {
					t.Errorf("token[%d] = %s, want %s", i, toks[i], tt.tokens[i])
				}
				if lits[i] != tt.lits[i] {
					t.Errorf("lit[%d] = %q, want %q", i, lits[i], tt.lits[i])
				}
			}
		})
	}
}

func TestScanLitKind(t *testing.T) {
	tests := []struct {
		src  string
		kind LitKind
	}{
		{"42", IntLit},
		{"0x2A", IntLit},
		{"4.2", FloatLit},
		{"1e3", FloatLit},
		{`"s"`, StringLit},
		{`"${x}"`, InterpLit},
		{`'c'`, CharLit},
		{"false", BoolLit},
	}
	for _, tt := range tests {
		s := NewScanner("test.wj", strings.NewReader(tt.src), nil)
		s.Next()
		if s.Token() != _Literal || s.LitKind() != tt.kind {
			t.Errorf("%s: got %s/%s, want LITERAL/%s", tt.src, s.Token(), s.LitKind(), tt.kind)
		}
	}
}

func TestASI(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		tokens []Token
	}{
		{"ident_newline", "foo\nbar", []Token{_Name, _Semi, _Name, _Semi}},
		{"rparen_newline", "f()\ng", []Token{_Name, _Lparen, _Rparen, _Semi, _Name, _Semi}},
		{"rbrace_newline", "{}\nx", []Token{_Lbrace, _Rbrace, _Semi, _Name, _Semi}},
		{"question_newline", "x?\ny", []Token{_Name, _Question, _Semi, _Name, _Semi}},
		{"operator_continues", "a +\nb", []Token{_Name, _Add, _Name, _Semi}},
		{"inside_parens", "f(a,\nb)", []Token{_Name, _Lparen, _Name, _Comma, _Name, _Rparen, _Semi}},
		{"inside_brackets", "[1\n2]", []Token{_Lbrack, _Literal, _Literal, _Rbrack, _Semi}},
		{"inside_braces", "{a\nb}", []Token{_Lbrace, _Name, _Semi, _Name, _Rbrace, _Semi}},
		{"else_continues", "}\nelse {", []Token{_Rbrace, _Else, _Lbrace}},
		{"method_chain", "x\n.f()", []Token{_Name, _Dot, _Name, _Lparen, _Rparen, _Semi}},
		{"range_not_chain", "x\n..y", []Token{_Name, _Semi, _DotDot, _Name, _Semi}},
		{"block_comment_newline", "a /*\n*/ b", []Token{_Name, _Semi, _Name, _Semi}},
		{"elsewhere_ident", "x\nelsewhere", []Token{_Name, _Semi, _Name, _Semi}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, _, _ := scanAll(t, tt.src)
			if len(toks) != len(tt.tokens) {
				t.Fatalf("got %v, want %v", toks, tt.tokens)
			}
			for i := range toks {
				if toks[i] != tt.tokens[i] {
					t.Errorf("token[%d] = %s, want %s", i, toks[i], tt.tokens[i])
				}
			}
		})
	}
}

func TestASIDisabled(t *testing.T) {
	s := NewScanner("test.wj", strings.NewReader("a\nb\n"), nil)
	s.SetASIEnabled(false)
	var toks []Token
	for s.Next(); s.Token() != _EOF; s.Next() {
		toks = append(toks, s.Token())
	}
	if len(toks) != 2 || toks[0] != _Name || toks[1] != _Name {
		t.Errorf("got %v, want [NAME NAME]", toks)
	}
}

func TestPosition(t *testing.T) {
	src := "fn main() {\n    let x = 1\n}"
	s := NewScanner("test.wj", strings.NewReader(src), nil)
	want := []struct {
		tok       Token
		line, col uint32
	}{
		{_Fn, 1, 1},
		{_Name, 1, 4},
		{_Lparen, 1, 8},
		{_Rparen, 1, 9},
		{_Lbrace, 1, 11},
		{_Let, 2, 5},
		{_Name, 2, 9},
		{_Assign, 2, 11},
		{_Literal, 2, 13},
		{_Semi, 2, 14},
		{_Rbrace, 3, 1},
	}
	for i, w := range want {
		s.Next()
		if s.Token() != w.tok || s.Pos().Line() != w.line || s.Pos().Col() != w.col {
			t.Errorf("token %d: got %s at %d:%d, want %s at %d:%d",
				i, s.Token(), s.Pos().Line(), s.Pos().Col(), w.tok, w.line, w.col)
		}
	}
}

func TestScanErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind LexErrorKind
	}{
		{"unterminated_string", `"abc`, UnterminatedString},
		{"unterminated_interp", `"a ${b`, UnterminatedString},
		{"unterminated_comment", "/* never closed", UnterminatedComment},
		{"unterminated_nested_comment", "/* a /* b */", UnterminatedComment},
		{"illegal_char", "a $ b", IllegalChar},
		{"bad_suffix", "12abc", InvalidNumericLiteral},
		{"bad_hex", "0xZZ", InvalidNumericLiteral},
		{"bad_binary", "0b102", InvalidNumericLiteral},
		{"empty_exponent", "1e+", InvalidNumericLiteral},
		{"bad_escape", `"\q"`, InvalidEscape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, errs := scanAll(t, tt.src)
			if len(errs) != 1 {
				t.Fatalf("got %d errors %v, want 1", len(errs), errs)
			}
			if errs[0].Kind != tt.kind {
				t.Errorf("kind = %v, want %v", errs[0].Kind, tt.kind)
			}
		})
	}
}

func TestScanRecoversAfterIllegalChar(t *testing.T) {
	toks, lits, errs := scanAll(t, "a ` b")
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
	want := []Token{_Name, _Error, _Name, _Semi}
	if len(toks) != len(want) {
		t.Fatalf("got %v (%q), want %v", toks, lits, want)
	}
	for i := range want {
		if toks[i] != want[i] {
			t.Errorf("token[%d] = %s, want %s", i, toks[i], want[i])
		}
	}
}

func TestNumericValue(t *testing.T) {
	tests := []struct {
		text string
		kind LitKind
		want string
	}{
		{"1_000", IntLit, "1000"},
		{"0xFF", IntLit, "255"},
		{"0o17", IntLit, "15"},
		{"0b1010", IntLit, "10"},
		{"007", IntLit, "7"},
		{"1_0.5", FloatLit, "10.5"},
	}
	for _, tt := range tests {
		got, err := NumericValue(tt.text, tt.kind)
		if err != nil {
			t.Errorf("NumericValue(%q): %v", tt.text, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NumericValue(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestLex(t *testing.T) {
	toks, errs := Lex("test.wj", []byte("let x = 1\nx"))
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	want := []Token{_Let, _Name, _Assign, _Literal, _Name, _EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Tok != w {
			t.Errorf("token[%d] = %s, want %s", i, toks[i].Tok, w)
		}
	}
	if toks[3].Kind != IntLit || toks[3].Lit != "1" {
		t.Errorf("literal = %v, want int 1", toks[3])
	}
	if toks[4].Span.Start.Line() != 2 {
		t.Errorf("x at line %d, want 2", toks[4].Span.Start.Line())
	}
}

func FuzzScanner(f *testing.F) {
	seeds := []string{
		"fn main() {}",
		`let s = "hello ${name}"`,
		"x = 0x1F + 0b1010",
		"/* a /* b */ c */",
		"match x { 1..=5 => a, _ => b }",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, src string) {
		s := NewScanner("fuzz", strings.NewReader(src), nil)
		for i := 0; i < 100000; i++ {
			s.Next()
			if s.Token().IsEOF() {
				return
			}
		}
		t.Fatal("scanner did not reach EOF")
	})
}
