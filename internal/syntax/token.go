// Package syntax implements lexical analysis for the Windjammer (WJ) language.
package syntax

import "fmt"

// Token represents the type of a lexical token.
type Token uint

const (
	// Special tokens
	_EOF   Token = iota // end of file
	_Error              // illegal character; the scanner already reported it

	// Literals
	_Name    // identifier: foo, bar, Rectangle
	_Literal // literal value (used with LitKind)

	// Assignment
	_Assign    // =
	_AddAssign // +=
	_SubAssign // -=
	_MulAssign // *=
	_DivAssign // /=
	_RemAssign // %=

	// Logical operators
	_OrOr   // ||
	_AndAnd // &&

	// Comparison operators
	_Eql // ==
	_Neq // !=
	_Lss // <
	_Leq // <=
	_Gtr // >
	_Geq // >=

	// Bitwise operators
	_Or  // |
	_Xor // ^
	_And // &
	_Shl // <<
	_Shr // >>

	// Arithmetic operators
	_Add // +
	_Sub // -
	_Mul // *
	_Div // /
	_Rem // %

	// Unary and postfix operators
	_Not      // !
	_Question // ?

	// Punctuation
	_Arrow      // ->
	_FatArrow   // =>
	_DotDot     // ..
	_DotDotEq   // ..=
	_ColonColon // ::
	_At         // @
	_Hash       // #

	// Delimiters
	_Lparen // (
	_Rparen // )
	_Lbrack // [
	_Rbrack // ]
	_Lbrace // {
	_Rbrace // }
	_Comma  // ,
	_Semi   // ;
	_Colon  // :
	_Dot    // .

	// Keywords
	_As
	_Async
	_Await
	_Break
	_Const
	_Continue
	_Dyn
	_Else
	_Enum
	_Fn
	_For
	_If
	_Impl
	_In
	_Let
	_Loop
	_Match
	_Mut
	_Pub
	_Return
	_Self
	_SelfType
	_Static
	_Struct
	_Trait
	_Type
	_Use
	_Where
	_While

	tokenCount
)

// tokenNames maps tokens to their string representation.
var tokenNames = [...]string{
	_EOF:   "EOF",
	_Error: "ERROR",

	_Name:    "NAME",
	_Literal: "LITERAL",

	_Assign:    "=",
	_AddAssign: "+=",
	_SubAssign: "-=",
	_MulAssign: "*=",
	_DivAssign: "/=",
	_RemAssign: "%=",

	_OrOr:   "||",
	_AndAnd: "&&",

	_Eql: "==",
	_Neq: "!=",
	_Lss: "<",
	_Leq: "<=",
	_Gtr: ">",
	_Geq: ">=",

	_Or:  "|",
	_Xor: "^",
	_And: "&",
	_Shl: "<<",
	_Shr: ">>",

	_Add: "+",
	_Sub: "-",
	_Mul: "*",
	_Div: "/",
	_Rem: "%",

	_Not:      "!",
	_Question: "?",

	_Arrow:      "->",
	_FatArrow:   "=>",
	_DotDot:     "..",
	_DotDotEq:   "..=",
	_ColonColon: "::",
	_At:         "@",
	_Hash:       "#",

	_Lparen: "(",
	_Rparen: ")",
	_Lbrack: "[",
	_Rbrack: "]",
	_Lbrace: "{",
	_Rbrace: "}",
	_Comma:  ",",
	_Semi:   ";",
	_Colon:  ":",
	_Dot:    ".",

	_As:       "as",
	_Async:    "async",
	_Await:    "await",
	_Break:    "break",
	_Const:    "const",
	_Continue: "continue",
	_Dyn:      "dyn",
	_Else:     "else",
	_Enum:     "enum",
	_Fn:       "fn",
	_For:      "for",
	_If:       "if",
	_Impl:     "impl",
	_In:       "in",
	_Let:      "let",
	_Loop:     "loop",
	_Match:    "match",
	_Mut:      "mut",
	_Pub:      "pub",
	_Return:   "return",
	_Self:     "self",
	_SelfType: "Self",
	_Static:   "static",
	_Struct:   "struct",
	_Trait:    "trait",
	_Type:     "type",
	_Use:      "use",
	_Where:    "where",
	_While:    "while",
}

// String returns the string representation of the token.
func (t Token) String() string {
	if t < tokenCount {
		return tokenNames[t]
	}
	return fmt.Sprintf("token(%d)", t)
}

// Precedence returns the operator precedence for binary operators.
// Returns 0 for non-operators.
// Precedence levels (higher = binds tighter):
//
//	1: ||
//	2: &&
//	3: |
//	4: ^
//	5: &
//	6: == !=
//	7: < <= > >=
//	8: << >>
//	9: + -
//	10: * / %
func (t Token) Precedence() int {
	switch t {
	case _OrOr:
		return 1
	case _AndAnd:
		return 2
	case _Or:
		return 3
	case _Xor:
		return 4
	case _And:
		return 5
	case _Eql, _Neq:
		return 6
	case _Lss, _Leq, _Gtr, _Geq:
		return 7
	case _Shl, _Shr:
		return 8
	case _Add, _Sub:
		return 9
	case _Mul, _Div, _Rem:
		return 10
	}
	return 0
}

// IsKeyword reports whether t is a keyword token.
func (t Token) IsKeyword() bool {
	return t >= _As && t <= _While
}

// IsLiteral reports whether t is a literal token.
func (t Token) IsLiteral() bool {
	return t == _Literal
}

// IsOperator reports whether t is an operator token.
func (t Token) IsOperator() bool {
	return t >= _Assign && t <= _Question
}

// IsEOF reports whether t is the EOF token.
func (t Token) IsEOF() bool {
	return t == _EOF
}

// IsAssign reports whether t is = or a compound assignment operator.
func (t Token) IsAssign() bool {
	return t >= _Assign && t <= _RemAssign
}

// IsComparison reports whether t compares its operands.
func (t Token) IsComparison() bool {
	return t >= _Eql && t <= _Geq
}

// IsArithmetic reports whether t is + - * / or %.
func (t Token) IsArithmetic() bool {
	return t >= _Add && t <= _Rem
}

// IsLogical reports whether t is && or ||.
func (t Token) IsLogical() bool {
	return t == _AndAnd || t == _OrOr
}

// BinaryOp returns the binary operator of a compound assignment
// (+= yields +). For other tokens it returns t unchanged.
func (t Token) BinaryOp() Token {
	switch t {
	case _AddAssign:
		return _Add
	case _SubAssign:
		return _Sub
	case _MulAssign:
		return _Mul
	case _DivAssign:
		return _Div
	case _RemAssign:
		return _Rem
	}
	return t
}

// CompoundAssign returns the compound assignment for an arithmetic
// operator (+ yields +=), or 0 if none exists.
func (t Token) CompoundAssign() Token {
	switch t {
	case _Add:
		return _AddAssign
	case _Sub:
		return _SubAssign
	case _Mul:
		return _MulAssign
	case _Div:
		return _DivAssign
	case _Rem:
		return _RemAssign
	}
	return 0
}

// Exported operator tokens for later compiler stages.
const (
	Assign = _Assign

	AddAssign = _AddAssign
	SubAssign = _SubAssign
	MulAssign = _MulAssign
	DivAssign = _DivAssign
	RemAssign = _RemAssign

	OrOr   = _OrOr
	AndAnd = _AndAnd
	Eql    = _Eql
	Neq    = _Neq
	Lss    = _Lss
	Leq    = _Leq
	Gtr    = _Gtr
	Geq    = _Geq
	Or     = _Or
	Xor    = _Xor
	And    = _And
	Shl    = _Shl
	Shr    = _Shr
	Add    = _Add
	Sub    = _Sub
	Mul    = _Mul
	Div    = _Div
	Rem    = _Rem
	Not    = _Not

	Break    = _Break
	Continue = _Continue
)

// LitKind represents the kind of a literal token.
type LitKind uint8

const (
	IntLit    LitKind = iota // 123, 0x1F, 0o77, 0b1010, 1_000
	FloatLit                 // 3.14, 1e10, 2.5e-3
	StringLit                // "hello", "line\n"
	CharLit                  // 'a', '\u{1F600}'
	BoolLit                  // true, false
	InterpLit                // "Hello ${name}" (raw text between the quotes)
)

// litKindNames maps literal kinds to their string representation.
var litKindNames = [...]string{
	IntLit:    "int",
	FloatLit:  "float",
	StringLit: "string",
	CharLit:   "char",
	BoolLit:   "bool",
	InterpLit: "interp",
}

// String returns the string representation of the literal kind.
func (k LitKind) String() string {
	if k <= InterpLit {
		return litKindNames[k]
	}
	return fmt.Sprintf("LitKind(%d)", k)
}

// keywords maps keyword strings to their tokens.
var keywords = map[string]Token{
	"as":       _As,
	"async":    _Async,
	"await":    _Await,
	"break":    _Break,
	"const":    _Const,
	"continue": _Continue,
	"dyn":      _Dyn,
	"else":     _Else,
	"enum":     _Enum,
	"fn":       _Fn,
	"for":      _For,
	"if":       _If,
	"impl":     _Impl,
	"in":       _In,
	"let":      _Let,
	"loop":     _Loop,
	"match":    _Match,
	"mut":      _Mut,
	"pub":      _Pub,
	"return":   _Return,
	"self":     _Self,
	"Self":     _SelfType,
	"static":   _Static,
	"struct":   _Struct,
	"trait":    _Trait,
	"type":     _Type,
	"use":      _Use,
	"where":    _Where,
	"while":    _While,
}

// LookupKeyword returns the token for the given identifier string.
// If the identifier is a keyword, returns the keyword token.
// Otherwise, returns _Name.
func LookupKeyword(ident string) Token {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return _Name
}

// IsKeywordName reports whether ident is reserved in WJ source.
func IsKeywordName(ident string) bool {
	_, ok := keywords[ident]
	return ok || ident == "true" || ident == "false"
}
