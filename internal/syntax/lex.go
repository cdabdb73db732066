package syntax

import (
	"bytes"
	"fmt"
)

// TokenInfo is one token of a lexed file.
type TokenInfo struct {
	Tok  Token
	Lit  string
	Kind LitKind // valid when Tok is a literal
	Span Span
}

func (t TokenInfo) String() string {
	switch t.Tok {
	case _Name:
		return "NAME(" + t.Lit + ")"
	case _Literal:
		return fmt.Sprintf("%s(%q)", t.Kind, t.Lit)
	case _Error:
		return fmt.Sprintf("ERROR(%q)", t.Lit)
	}
	return t.Tok.String()
}

// IsSemi reports whether the token is a semicolon.
func (t TokenInfo) IsSemi() bool { return t.Tok == _Semi }

// Lex scans src and returns every token up to and including EOF, together
// with the lexical errors encountered. Newlines are not significant in the
// result: no semicolons are inserted. Lex never fails; illegal characters
// appear as error tokens.
func Lex(filename string, src []byte) ([]TokenInfo, []*LexError) {
	var errs []*LexError
	s := NewScanner(filename, bytes.NewReader(src), func(e *LexError) {
		errs = append(errs, e)
	})
	s.SetASIEnabled(false)

	var toks []TokenInfo
	for {
		s.Next()
		info := TokenInfo{Tok: s.Token(), Lit: s.Literal(), Span: MakeSpan(s.Pos(), s.End())}
		if info.Tok == _Literal {
			info.Kind = s.LitKind()
		}
		toks = append(toks, info)
		if s.Token() == _EOF {
			return toks, errs
		}
	}
}
