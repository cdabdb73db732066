package syntax

import "testing"

func TestTokenString(t *testing.T) {
	tests := []struct {
		tok  Token
		want string
	}{
		{_EOF, "EOF"},
		{_Name, "NAME"},
		{_Assign, "="},
		{_AddAssign, "+="},
		{_Arrow, "->"},
		{_FatArrow, "=>"},
		{_DotDotEq, "..="},
		{_ColonColon, "::"},
		{_Lbrace, "{"},
		{_Fn, "fn"},
		{_SelfType, "Self"},
		{_While, "while"},
	}
	for _, tt := range tests {
		if got := tt.tok.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.tok, got, tt.want)
		}
	}
}

func TestTokenPrecedence(t *testing.T) {
	order := [][]Token{
		{_OrOr},
		{_AndAnd},
		{_Or},
		{_Xor},
		{_And},
		{_Eql, _Neq},
		{_Lss, _Leq, _Gtr, _Geq},
		{_Shl, _Shr},
		{_Add, _Sub},
		{_Mul, _Div, _Rem},
	}
	for i, level := range order {
		for _, tok := range level {
			if got := tok.Precedence(); got != i+1 {
				t.Errorf("%s.Precedence() = %d, want %d", tok, got, i+1)
			}
		}
	}
	for _, tok := range []Token{_Assign, _Not, _Lparen, _Fn, _Question} {
		if got := tok.Precedence(); got != 0 {
			t.Errorf("%s.Precedence() = %d, want 0", tok, got)
		}
	}
}

func TestTokenPredicates(t *testing.T) {
	if !_Match.IsKeyword() || _Name.IsKeyword() {
		t.Error("IsKeyword misclassifies match or NAME")
	}
	if !_RemAssign.IsAssign() || _Eql.IsAssign() {
		t.Error("IsAssign misclassifies %= or ==")
	}
	if !_Geq.IsComparison() || _Add.IsComparison() {
		t.Error("IsComparison misclassifies >= or +")
	}
	if _AddAssign.BinaryOp() != _Add || _Add.CompoundAssign() != _AddAssign {
		t.Error("BinaryOp/CompoundAssign do not invert")
	}
}

func TestLookupKeyword(t *testing.T) {
	tests := []struct {
		name string
		want Token
	}{
		{"fn", _Fn},
		{"let", _Let},
		{"Self", _SelfType},
		{"self", _Self},
		{"int", _Name},
		{"println", _Name},
	}
	for _, tt := range tests {
		if got := LookupKeyword(tt.name); got != tt.want {
			t.Errorf("LookupKeyword(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}
