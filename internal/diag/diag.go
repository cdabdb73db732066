// Package diag implements compiler diagnostics: typed diagnostic values,
// the per-file collector, terminal rendering and the error catalog.
package diag

import (
	"errors"
	"fmt"
	"sort"

	"github.com/windjammer-lang/wj/internal/syntax"
)

// Catalog codes reported by the compiler.
const (
	UnknownName        = "WJ0001"
	UnknownFunction    = "WJ0002"
	TypeMismatch       = "WJ0003"
	ImmutableAssign    = "WJ0004"
	UnknownType        = "WJ0005"
	UnknownModule      = "WJ0006"
	MovedValue         = "WJ0007"
	BorrowConflict     = "WJ0008"
	MissingField       = "WJ0009"
	NonExhaustiveMatch = "WJ0010"
	UnexpectedToken    = "WJ0011"
	UnclosedDelimiter  = "WJ0012"
	UnterminatedLit    = "WJ0013"
	IllegalChar        = "WJ0014"
	InvalidNumber      = "WJ0015"
	InternalError      = "WJ0016"
	AmbiguousMethod    = "WJ0017"
	Redeclared         = "WJ0018"
)

// Severity of a diagnostic.
type Severity uint8

const (
	Error Severity = iota
	Warning
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	}
	return fmt.Sprintf("Severity(%d)", s)
}

// Diagnostic is one user-visible problem.
type Diagnostic struct {
	Code     string
	Severity Severity
	Span     syntax.Span
	Message  string   // specific to this occurrence; shown beside the caret
	Notes    []string // additional "= note:" lines
	Help     string   // overrides the catalog's first solution when set
}

// Pos returns the start position of the diagnostic.
func (d *Diagnostic) Pos() syntax.Pos { return d.Span.Start }

// Title returns the catalog title for the code, or the message when the
// code is not catalogued.
func (d *Diagnostic) Title() string {
	if e, ok := Registry().Get(d.Code); ok {
		return e.Title
	}
	return d.Message
}

// HelpText returns the help line: the explicit Help, or the first catalog
// solution.
func (d *Diagnostic) HelpText() string {
	if d.Help != "" {
		return d.Help
	}
	if e, ok := Registry().Get(d.Code); ok && len(e.Solutions) > 0 {
		return e.Solutions[0]
	}
	return ""
}

// String formats the diagnostic header on one line.
func (d *Diagnostic) String() string {
	s := fmt.Sprintf("%s: %s [%s]: %s", d.Span.Start, d.Severity, d.Code, d.Title())
	if d.Message != "" && d.Message != d.Title() {
		s += ": " + d.Message
	}
	return s
}

// Bag collects the diagnostics of one file in report order.
type Bag struct {
	diags  []*Diagnostic
	errors int
}

// NewBag returns an empty collector.
func NewBag() *Bag { return &Bag{} }

// Add appends d.
func (b *Bag) Add(d *Diagnostic) {
	b.diags = append(b.diags, d)
	if d.Severity == Error {
		b.errors++
	}
}

// Errorf reports an error with the given code at span.
func (b *Bag) Errorf(code string, span syntax.Span, format string, args ...interface{}) *Diagnostic {
	d := &Diagnostic{Code: code, Severity: Error, Span: span, Message: fmt.Sprintf(format, args...)}
	b.Add(d)
	return d
}

// Warnf reports a warning with the given code at span.
func (b *Bag) Warnf(code string, span syntax.Span, format string, args ...interface{}) *Diagnostic {
	d := &Diagnostic{Code: code, Severity: Warning, Span: span, Message: fmt.Sprintf(format, args...)}
	b.Add(d)
	return d
}

// AddSyntax converts a lexer or parser error and adds it.
func (b *Bag) AddSyntax(err error) {
	if d := FromSyntax(err); d != nil {
		b.Add(d)
	}
}

// Merge appends every diagnostic of o.
func (b *Bag) Merge(o *Bag) {
	if o == nil {
		return
	}
	for _, d := range o.diags {
		b.Add(d)
	}
}

// HasErrors reports whether an error-severity diagnostic was added.
func (b *Bag) HasErrors() bool { return b.errors > 0 }

// ErrorCount returns the number of error-severity diagnostics.
func (b *Bag) ErrorCount() int { return b.errors }

// Len returns the number of diagnostics.
func (b *Bag) Len() int { return len(b.diags) }

// Has reports whether a diagnostic with the given code was added.
func (b *Bag) Has(code string) bool {
	for _, d := range b.diags {
		if d.Code == code {
			return true
		}
	}
	return false
}

// WithCode returns the diagnostics carrying code, in report order.
func (b *Bag) WithCode(code string) []*Diagnostic {
	var out []*Diagnostic
	for _, d := range b.diags {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// Sorted returns the diagnostics ordered by file and position. Reports at
// the same position keep their relative order.
func (b *Bag) Sorted() []*Diagnostic {
	out := make([]*Diagnostic, len(b.diags))
	copy(out, b.diags)
	sort.SliceStable(out, func(i, j int) bool {
		p, q := out[i].Span.Start, out[j].Span.Start
		if p.Filename() != q.Filename() {
			return p.Filename() < q.Filename()
		}
		return p.Before(q)
	})
	return out
}

// ICE is an internal compiler error: a broken invariant rather than a
// problem with the user's program.
type ICE struct {
	Stage   string
	Message string
}

func (e *ICE) Error() string {
	return fmt.Sprintf("internal compiler error in %s: %s", e.Stage, e.Message)
}

// Internalf returns an ICE for stage.
func Internalf(stage, format string, args ...interface{}) *ICE {
	return &ICE{Stage: stage, Message: fmt.Sprintf(format, args...)}
}

// IsICE reports whether err wraps an *ICE.
func IsICE(err error) bool {
	var ice *ICE
	return errors.As(err, &ice)
}

// FromSyntax converts a *syntax.LexError or *syntax.ParseError into a
// diagnostic. Other errors yield nil.
func FromSyntax(err error) *Diagnostic {
	var lerr *syntax.LexError
	if errors.As(err, &lerr) {
		code := IllegalChar
		switch lerr.Kind {
		case syntax.UnterminatedString, syntax.UnterminatedComment:
			code = UnterminatedLit
		case syntax.InvalidNumericLiteral:
			code = InvalidNumber
		}
		return &Diagnostic{Code: code, Severity: Error, Span: lerr.Span, Message: lerr.Msg}
	}
	var perr *syntax.ParseError
	if errors.As(err, &perr) {
		code := UnexpectedToken
		if perr.Kind == syntax.UnclosedDelimiter {
			code = UnclosedDelimiter
		}
		return &Diagnostic{Code: code, Severity: Error, Span: perr.Span, Message: perr.Msg}
	}
	return nil
}
