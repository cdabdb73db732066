package diag

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/windjammer-lang/wj/internal/syntax"
)

func init() {
	color.NoColor = true
}

func span(line, col, n uint32) syntax.Span {
	off := (line-1)*100 + col - 1
	return syntax.MakeSpan(
		syntax.NewPosOffset("main.wj", line, col, off),
		syntax.NewPosOffset("main.wj", line, col+n, off+n))
}

func TestBagCounts(t *testing.T) {
	b := NewBag()
	b.Errorf(UnknownName, span(1, 1, 1), "cannot find value `x` in this scope")
	b.Warnf(TypeMismatch, span(2, 1, 1), "unused")
	b.Add(&Diagnostic{Code: MissingField, Severity: Note, Span: span(3, 1, 1)})

	if got := b.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
	if got := b.ErrorCount(); got != 1 {
		t.Errorf("ErrorCount() = %d, want 1", got)
	}
	if !b.HasErrors() {
		t.Error("HasErrors() = false")
	}
	if !b.Has(UnknownName) || b.Has(UnknownModule) {
		t.Error("Has() reports wrong codes")
	}
	if got := len(b.WithCode(TypeMismatch)); got != 1 {
		t.Errorf("WithCode(WJ0003) = %d diagnostics, want 1", got)
	}
}

func TestBagSortedIsStable(t *testing.T) {
	b := NewBag()
	b.Errorf(UnknownName, span(3, 1, 1), "c")
	b.Errorf(UnknownName, span(1, 5, 1), "a1")
	b.Errorf(UnknownType, span(1, 5, 1), "a2")
	b.Errorf(UnknownName, span(1, 2, 1), "first")

	var got []string
	for _, d := range b.Sorted() {
		got = append(got, d.Message)
	}
	want := "first a1 a2 c"
	if s := strings.Join(got, " "); s != want {
		t.Errorf("Sorted() = %q, want %q", s, want)
	}
}

func TestBagMerge(t *testing.T) {
	a, b := NewBag(), NewBag()
	a.Errorf(UnknownName, span(1, 1, 1), "x")
	b.Errorf(UnknownType, span(1, 1, 1), "y")
	b.Warnf(UnknownType, span(1, 1, 1), "z")
	a.Merge(b)
	a.Merge(nil)
	if a.Len() != 3 || a.ErrorCount() != 2 {
		t.Errorf("after Merge: Len=%d ErrorCount=%d, want 3 and 2", a.Len(), a.ErrorCount())
	}
}

func TestFromSyntax(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{&syntax.LexError{Kind: syntax.UnterminatedString}, UnterminatedLit},
		{&syntax.LexError{Kind: syntax.UnterminatedComment}, UnterminatedLit},
		{&syntax.LexError{Kind: syntax.IllegalChar}, IllegalChar},
		{&syntax.LexError{Kind: syntax.InvalidEscape}, IllegalChar},
		{&syntax.LexError{Kind: syntax.InvalidNumericLiteral}, InvalidNumber},
		{&syntax.ParseError{Kind: syntax.UnexpectedToken}, UnexpectedToken},
		{&syntax.ParseError{Kind: syntax.ExpectedExpression}, UnexpectedToken},
		{&syntax.ParseError{Kind: syntax.UnclosedDelimiter}, UnclosedDelimiter},
		{fmt.Errorf("wrapped: %w", &syntax.ParseError{Kind: syntax.UnclosedDelimiter}), UnclosedDelimiter},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			d := FromSyntax(tt.err)
			if d == nil {
				t.Fatal("FromSyntax returned nil")
			}
			if d.Code != tt.code || d.Severity != Error {
				t.Errorf("got %s %s, want error %s", d.Severity, d.Code, tt.code)
			}
		})
	}
	if d := FromSyntax(errors.New("io")); d != nil {
		t.Errorf("FromSyntax(plain error) = %v, want nil", d)
	}
}

func TestUnterminatedStringSingleDiagnostic(t *testing.T) {
	_, errs := syntax.Parse("main.wj", strings.NewReader(`fn main() { let s = "abc`))
	b := NewBag()
	for _, err := range errs {
		b.AddSyntax(err)
	}
	if b.Len() != 1 || !b.Has(UnterminatedLit) {
		for _, d := range b.Sorted() {
			t.Log(d)
		}
		t.Fatalf("got %d diagnostics, want exactly one %s", b.Len(), UnterminatedLit)
	}
}

func TestICE(t *testing.T) {
	err := fmt.Errorf("verify after dce: %w", Internalf("opt", "unresolved %s", "x"))
	if !IsICE(err) {
		t.Fatal("IsICE() = false for wrapped ICE")
	}
	var ice *ICE
	if !errors.As(err, &ice) || ice.Stage != "opt" {
		t.Fatalf("errors.As: %+v", ice)
	}
	want := "internal compiler error in opt: unresolved x"
	if ice.Error() != want {
		t.Errorf("Error() = %q, want %q", ice.Error(), want)
	}
	if IsICE(errors.New("x")) {
		t.Error("IsICE() = true for plain error")
	}
}

func TestFprint(t *testing.T) {
	src := []byte("fn main() {\n    let x = 10\n    x = 20\n}\n")
	d := &Diagnostic{
		Code:     ImmutableAssign,
		Severity: Error,
		Span:     span(3, 5, 6),
		Message:  "cannot assign twice to immutable variable `x`",
	}
	var buf bytes.Buffer
	Fprint(&buf, d, src)

	want := "main.wj:3:5: error [WJ0004]: Cannot modify immutable variable\n" +
		"      x = 20\n" +
		"      ^^^^^^ cannot assign twice to immutable variable `x`\n" +
		"  = help: Declare the variable as mutable: let mut x = 42\n"
	if buf.String() != want {
		t.Errorf("Fprint output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestFprintWithoutSource(t *testing.T) {
	d := &Diagnostic{Code: "WJ9999", Severity: Warning, Span: span(1, 1, 1), Message: "odd", Notes: []string{"n1"}, Help: "do it"}
	var buf bytes.Buffer
	Fprint(&buf, d, nil)
	want := "main.wj:1:1: warning [WJ9999]: odd\n  = note: n1\n  = help: do it\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestFprintTabsAndEOF(t *testing.T) {
	src := []byte("\tlet s = \"abc")
	d := &Diagnostic{Code: UnterminatedLit, Severity: Error, Span: span(1, 10, 0), Message: "unterminated string literal"}
	var buf bytes.Buffer
	Fprint(&buf, d, src)
	lines := strings.Split(buf.String(), "\n")
	if len(lines) < 3 {
		t.Fatalf("short output: %q", buf.String())
	}
	if lines[2] != "  \t        ^ unterminated string literal" {
		t.Errorf("caret line = %q", lines[2])
	}
}

func TestFprintAllSummary(t *testing.T) {
	b := NewBag()
	b.Errorf(UnknownName, span(1, 1, 1), "a")
	b.Errorf(UnknownName, span(2, 1, 1), "b")
	var buf bytes.Buffer
	FprintAll(&buf, b, nil)
	if !strings.HasSuffix(buf.String(), "aborting due to 2 previous errors\n") {
		t.Errorf("missing summary:\n%s", buf.String())
	}
}

func TestDiagnosticString(t *testing.T) {
	d := &Diagnostic{Code: UnknownName, Severity: Error, Span: span(2, 3, 1), Message: "cannot find value `y`"}
	want := "main.wj:2:3: error [WJ0001]: Variable not found: cannot find value `y`"
	if d.String() != want {
		t.Errorf("String() = %q, want %q", d.String(), want)
	}
}
