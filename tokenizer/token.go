package tokenizer

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrUnexpectedCharacter  = errors.New("unexpected character")
	ErrUnterminatedString   = errors.New("unterminated string literal")
	ErrInvalidEscape        = errors.New("invalid escape sequence")
	ErrInvalidUnicodeEscape = errors.New("invalid unicode escape")
	ErrUnterminatedComment  = errors.New("unterminated block comment")
	ErrInvalidNumber        = errors.New("invalid number format")
	ErrInvalidHeredoc       = errors.New("invalid heredoc")
	ErrInvalidUTF8          = errors.New("invalid UTF-8 sequence")
	ErrInvalidBareWord      = errors.New("invalid character in unquoted value")
	ErrResourceLimit        = errors.New("resource limit exceeded")
)

// Position is a (line, column, byte offset) triple. Line and Column are
// 1-based, Offset is a 0-based byte offset into the input.
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// Span is a half-open [Start, End) region of the input.
type Span struct {
	Start Position
	End   Position
}

// TokenType represents the type of a token
type TokenType int

const (
	EOF          TokenType = iota
	OBJECT_START           // {
	OBJECT_END             // }
	ARRAY_START            // [
	ARRAY_END              // ]
	COMMA                  // ,
	SEMICOLON              // ;
	EQUALS                 // =
	COLON                  // :
	PLUS                   // +
	COMMENT                // # ..., // ..., /* ... */
	STRING                 // quoted, triple-quoted or heredoc literal
	INTEGER                // 42, 0xff, 1kb
	FLOAT                  // 3.14, 1e9, inf, nan
	TIME                   // 100ms, 2h (seconds as float64)
	BOOLEAN                // true, false
	NULL                   // null
	KEY                    // bare identifier / unquoted word
)

// String returns the string representation of TokenType
func (t TokenType) String() string {
	switch t {
	case EOF:
		return "EOF"
	case OBJECT_START:
		return "OBJECT_START"
	case OBJECT_END:
		return "OBJECT_END"
	case ARRAY_START:
		return "ARRAY_START"
	case ARRAY_END:
		return "ARRAY_END"
	case COMMA:
		return "COMMA"
	case SEMICOLON:
		return "SEMICOLON"
	case EQUALS:
		return "EQUALS"
	case COLON:
		return "COLON"
	case PLUS:
		return "PLUS"
	case COMMENT:
		return "COMMENT"
	case STRING:
		return "STRING"
	case INTEGER:
		return "INTEGER"
	case FLOAT:
		return "FLOAT"
	case TIME:
		return "TIME"
	case BOOLEAN:
		return "BOOLEAN"
	case NULL:
		return "NULL"
	case KEY:
		return "KEY"
	default:
		return "UNKNOWN"
	}
}

// StringFormat identifies which literal form produced a STRING token.
type StringFormat int

const (
	FormatJSON     StringFormat = iota // "double quoted"
	FormatSingle                       // 'single quoted'
	FormatHeredoc                      // <<TAG ... TAG and """..."""
	FormatUnquoted                     // bare word used as a value
)

func (f StringFormat) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatSingle:
		return "single"
	case FormatHeredoc:
		return "heredoc"
	case FormatUnquoted:
		return "unquoted"
	default:
		return "unknown"
	}
}

// Token is one lexical unit of a UCL document.
//
// Text holds the decoded payload for STRING, COMMENT and KEY tokens and the
// original lexeme for literal tokens (so the parser can render numeric and
// boolean keys back to text). When no escape processing rewrote the content,
// Text is a sub-slice of the input and stays valid for the input's lifetime.
type Token struct {
	Type TokenType
	Text string

	Int   int64   // INTEGER
	Float float64 // FLOAT, and seconds for TIME
	Bool  bool    // BOOLEAN

	Format      StringFormat // STRING only
	NeedsExpand bool         // STRING contains '$'

	// Suffix is set on INTEGER/FLOAT tokens whose trailing letters did not
	// match the built-in time/size tables. The parser resolves it through
	// user suffix handlers or rejects the token.
	Suffix string

	// NewlineBefore reports whether at least one line break was crossed
	// between the previous token and this one.
	NewlineBefore bool

	Span Span
}

// Pos returns the start position of the token.
func (t Token) Pos() Position {
	return t.Span.Start
}

// Error is a lexical error carrying the exact source region that caused it.
type Error struct {
	Err         error // sentinel classifying the failure
	Span        Span
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
func (e *Error) Position() Position {
	return e.Span.Start
}

// ErrorSpan returns the offending region.
func (e *Error) ErrorSpan() Span {
	return e.Span
}

// ErrorSuggestions returns fix hints for the failure.
func (e *Error) ErrorSuggestions() []string {
	return e.Suggestions
}
