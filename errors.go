package ucl

import (
	"errors"
	"fmt"

	"github.com/shibukawa/ucl/tokenizer"
)

// Stage names the pipeline stage an error came from.
type Stage int

const (
	StageLex Stage = iota
	StageParse
	StageExpand
	StageDecode
)

func (s Stage) String() string {
	switch s {
	case StageLex:
		return "lex"
	case StageParse:
		return "parse"
	case StageExpand:
		return "expand"
	case StageDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is the top-level error surface: every failure from the lexer, the
// parser, the variable expander or the decoder is wrapped into one,
// keeping the original error reachable through Unwrap.
type Error struct {
	Stage Stage
	Pos   tokenizer.Position
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ucl %s error: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Position returns where the failure occurred.
func (e *Error) Position() tokenizer.Position {
	return e.Pos
}

// Span returns the source region of the underlying error when it carries
// one, and a zero-width span at Pos otherwise.
func (e *Error) Span() tokenizer.Span {
	var s interface{ ErrorSpan() tokenizer.Span }
	if errors.As(e.Err, &s) {
		return s.ErrorSpan()
	}
	return tokenizer.Span{Start: e.Pos, End: e.Pos}
}

// Suggestions returns fix hints attached to the underlying error, if any.
func (e *Error) Suggestions() []string {
	var s interface{ ErrorSuggestions() []string }
	if errors.As(e.Err, &s) {
		return s.ErrorSuggestions()
	}
	return nil
}
