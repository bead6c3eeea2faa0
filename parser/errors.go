package parser

import (
	"errors"
	"fmt"

	"github.com/shibukawa/ucl/tokenizer"
)

// Sentinel errors
var (
	ErrUnexpectedToken      = errors.New("unexpected token")
	ErrDuplicateKey         = errors.New("duplicate key")
	ErrMaxDepthExceeded     = errors.New("maximum nesting depth exceeded")
	ErrInvalidConcatenation = errors.New("invalid string concatenation")
	ErrKeyRejected          = errors.New("key rejected by validation hook")
	ErrValueRejected        = errors.New("value rejected by validation hook")
)

// Error is a fatal parse failure. There is no recovery: the in-flight
// document is abandoned and the error surfaces to the caller.
type Error struct {
	Err         error
	Span        tokenizer.Span
	Detail      string
	Suggestions []string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v at %s", e.Err, e.Span.Start)
	}
	return fmt.Sprintf("%v: %s at %s", e.Err, e.Detail, e.Span.Start)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Position returns the start of the offending region.
func (e *Error) Position() tokenizer.Position {
	return e.Span.Start
}

// ErrorSpan returns the offending region.
func (e *Error) ErrorSpan() tokenizer.Span {
	return e.Span
}

// ErrorSuggestions returns fix hints for the failure.
func (e *Error) ErrorSuggestions() []string {
	return e.Suggestions
}

func parseErr(sentinel error, span tokenizer.Span, detail string, suggestions ...string) error {
	return &Error{Err: sentinel, Span: span, Detail: detail, Suggestions: suggestions}
}

func unexpected(tok tokenizer.Token, expected string) error {
	return &Error{
		Err:    ErrUnexpectedToken,
		Span:   tok.Span,
		Detail: fmt.Sprintf("%s, expected %s", describe(tok), expected),
	}
}

func describe(tok tokenizer.Token) string {
	switch tok.Type {
	case tokenizer.EOF:
		return "end of input"
	case tokenizer.STRING:
		return "string literal"
	case tokenizer.KEY:
		return fmt.Sprintf("%q", tok.Text)
	default:
		if tok.Text != "" {
			return fmt.Sprintf("%q", tok.Text)
		}
		return tok.Type.String()
	}
}
