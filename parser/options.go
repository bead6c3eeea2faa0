package parser

import "github.com/shibukawa/ucl/tokenizer"

// DuplicateKeyPolicy selects what happens when a key is assigned twice in
// the same object and the values cannot be deep-merged.
type DuplicateKeyPolicy int

const (
	// DuplicateImplicitArray replaces the previous value with an array
	// holding every value in source order.
	DuplicateImplicitArray DuplicateKeyPolicy = iota
	// DuplicateError reports the repeated key as a parse error.
	DuplicateError
	// DuplicateOverride keeps only the latest value.
	DuplicateOverride
)

func (p DuplicateKeyPolicy) String() string {
	switch p {
	case DuplicateImplicitArray:
		return "implicit-array"
	case DuplicateError:
		return "error"
	case DuplicateOverride:
		return "override"
	default:
		return "unknown"
	}
}

// Options are options for the parser.
type Options struct {
	// MaxDepth bounds object/array nesting. Zero means no bound.
	MaxDepth int

	// DuplicateKeys selects the duplicate-key policy. When both the old
	// and the new value are objects they deep-merge regardless.
	DuplicateKeys DuplicateKeyPolicy

	// PreserveKeyOrder is accepted for configuration compatibility.
	// Objects are always insertion-ordered.
	PreserveKeyOrder bool

	// Tokenizer configures the lexer driven by this parser.
	Tokenizer tokenizer.Options
}

// DefaultOptions returns the options used when none are supplied.
func DefaultOptions() Options {
	return Options{
		MaxDepth:         128,
		DuplicateKeys:    DuplicateImplicitArray,
		PreserveKeyOrder: true,
		Tokenizer:        tokenizer.DefaultOptions(),
	}
}
