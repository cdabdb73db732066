package syntax

import "fmt"

// LexErrorKind classifies lexical errors.
type LexErrorKind uint8

const (
	UnterminatedString LexErrorKind = iota
	UnterminatedComment
	IllegalChar
	InvalidNumericLiteral
	InvalidEscape
)

var lexErrorNames = [...]string{
	UnterminatedString:    "UnterminatedString",
	UnterminatedComment:   "UnterminatedComment",
	IllegalChar:           "IllegalChar",
	InvalidNumericLiteral: "InvalidNumericLiteral",
	InvalidEscape:         "InvalidEscape",
}

func (k LexErrorKind) String() string {
	if int(k) < len(lexErrorNames) {
		return lexErrorNames[k]
	}
	return fmt.Sprintf("LexErrorKind(%d)", k)
}

// LexError is a lexical error with the span of the offending text.
type LexError struct {
	Kind LexErrorKind
	Span Span
	Msg  string
}

func (e *LexError) Error() string {
	return e.Span.Start.String() + ": " + e.Msg
}

// ParseErrorKind classifies syntax errors.
type ParseErrorKind uint8

const (
	UnexpectedToken ParseErrorKind = iota
	ExpectedToken
	UnclosedDelimiter
	ExpectedItem
	ExpectedStatement
	ExpectedExpression
	ExpectedType
	ExpectedPattern
)

var parseErrorNames = [...]string{
	UnexpectedToken:    "UnexpectedToken",
	ExpectedToken:      "ExpectedToken",
	UnclosedDelimiter:  "UnclosedDelimiter",
	ExpectedItem:       "ExpectedItem",
	ExpectedStatement:  "ExpectedStatement",
	ExpectedExpression: "ExpectedExpression",
	ExpectedType:       "ExpectedType",
	ExpectedPattern:    "ExpectedPattern",
}

func (k ParseErrorKind) String() string {
	if int(k) < len(parseErrorNames) {
		return parseErrorNames[k]
	}
	return fmt.Sprintf("ParseErrorKind(%d)", k)
}

// ParseError represents a syntax error.
type ParseError struct {
	Kind ParseErrorKind
	Span Span
	Msg  string
}

func (e *ParseError) Error() string {
	return e.Span.Start.String() + ": " + e.Msg
}

// ErrorHandler receives every *LexError and *ParseError in source order.
type ErrorHandler func(err error)
