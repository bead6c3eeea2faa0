package tokenizer

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func lexString(t *testing.T, input string, options ...Options) Token {
	t.Helper()

	tokens := lexAll(t, input, options...)
	assert.Equal(t, 2, len(tokens))
	assert.Equal(t, STRING, tokens[0].Type)

	return tokens[0]
}

func TestJSONStrings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: `"hello"`, expected: "hello"},
		{name: "empty", input: `""`, expected: ""},
		{name: "simple escapes", input: `"a\nb\tc\\d\"e"`, expected: "a\nb\tc\\d\"e"},
		{name: "solidus and control escapes", input: `"\/\b\f\r"`, expected: "/\b\f\r"},
		{name: "hex escape", input: `"\x41\x42"`, expected: "AB"},
		{name: "unicode escape", input: `"\u00e9"`, expected: "é"},
		{name: "braced unicode escape", input: `"\u{1F600}"`, expected: "😀"},
		{name: "mixed text and unicode", input: `"a\u{1F600}b"`, expected: "a😀b"},
		{name: "literal tab allowed", input: "\"a\tb\"", expected: "a\tb"},
		{name: "multibyte passthrough", input: `"日本語"`, expected: "日本語"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := lexString(t, tt.input)
			assert.Equal(t, tt.expected, tok.Text)
			assert.Equal(t, FormatJSON, tok.Format)
		})
	}
}

func TestJSONStringErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected error
	}{
		{name: "unterminated", input: `"abc`, expected: ErrUnterminatedString},
		{name: "unterminated at escape", input: `"abc\`, expected: ErrUnterminatedString},
		{name: "unknown escape", input: `"\q"`, expected: ErrInvalidEscape},
		{name: "short unicode escape", input: `"\u12"`, expected: ErrInvalidUnicodeEscape},
		{name: "surrogate", input: `"\uD800"`, expected: ErrInvalidUnicodeEscape},
		{name: "out of range code point", input: `"\u{110000}"`, expected: ErrInvalidUnicodeEscape},
		{name: "empty braced escape", input: `"\u{}"`, expected: ErrInvalidUnicodeEscape},
		{name: "too many digits", input: `"\u{1234567}"`, expected: ErrInvalidUnicodeEscape},
		{name: "raw newline", input: "\"a\nb\"", expected: ErrUnexpectedCharacter},
		{name: "raw control char", input: "\"a\x01b\"", expected: ErrUnexpectedCharacter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := lexErr(t, tt.input)
			assert.True(t, errors.Is(err, tt.expected))
		})
	}
}

func TestSingleQuotedStrings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: `'hello'`, expected: "hello"},
		{name: "escaped quote", input: `'it\'s'`, expected: "it's"},
		{name: "backslash preserved", input: `'a\nb'`, expected: `a\nb`},
		{name: "windows path", input: `'C:\temp\new'`, expected: `C:\temp\new`},
		{name: "line continuation", input: "'a\\\nb'", expected: "ab"},
		{name: "crlf continuation", input: "'a\\\r\nb'", expected: "ab"},
		{name: "dollar is literal", input: `'$HOME'`, expected: "$HOME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := lexString(t, tt.input)
			assert.Equal(t, tt.expected, tok.Text)
			assert.Equal(t, FormatSingle, tok.Format)
			assert.False(t, tok.NeedsExpand)
		})
	}
}

func TestTripleQuotedStrings(t *testing.T) {
	tok := lexString(t, "\"\"\"line1\nline2\"\"\"")
	assert.Equal(t, "line1\nline2", tok.Text)
	assert.Equal(t, FormatHeredoc, tok.Format)

	// Escapes are not processed.
	tok = lexString(t, `"""a\nb"""`)
	assert.Equal(t, `a\nb`, tok.Text)

	err := lexErr(t, `"""never closed`)
	assert.True(t, errors.Is(err, ErrUnterminatedString))
}

func TestHeredocs(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "basic",
			input:    "<<EOF\nhello\nEOF\n",
			expected: "hello\n",
		},
		{
			name:     "multi line",
			input:    "<<EOF\nline1\nline2\nEOF\n",
			expected: "line1\nline2\n",
		},
		{
			name:     "empty body",
			input:    "<<EOF\nEOF\n",
			expected: "",
		},
		{
			name:     "indented tag is content",
			input:    "<<EOF\nhello\n  EOF\nEOF\n",
			expected: "hello\n  EOF\n",
		},
		{
			name:     "tag at end of input",
			input:    "<<EOF\nhello\nEOF",
			expected: "hello\n",
		},
		{
			name:     "underscore tag",
			input:    "<<_SQL_\nselect 1\n_SQL_\n",
			expected: "select 1\n",
		},
		{
			name:     "crlf body",
			input:    "<<EOF\r\nhello\r\nEOF\r\n",
			expected: "hello\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := lexString(t, tt.input)
			assert.Equal(t, tt.expected, tok.Text)
			assert.Equal(t, FormatHeredoc, tok.Format)
		})
	}
}

func TestHeredocErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "lowercase tag", input: "<<eof\nhello\neof\n"},
		{name: "missing terminator", input: "<<EOF\nhello\n"},
		{name: "indented terminator only", input: "<<EOF\nhello\n  EOF\n"},
		{name: "junk after tag", input: "<<EOF extra\nhello\nEOF\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := lexErr(t, tt.input)
			assert.True(t, errors.Is(err, ErrInvalidHeredoc))
		})
	}
}

func TestHeredocErrorPointsAtOpening(t *testing.T) {
	_, err := New("body = <<EOF\nhello\n").AllTokens()
	assert.Error(t, err)

	var lexError *Error
	assert.True(t, errors.As(err, &lexError))
	assert.Equal(t, 1, lexError.Span.Start.Line)
	assert.Equal(t, 8, lexError.Span.Start.Column)
}

func TestHeredocLeavesTrailingNewline(t *testing.T) {
	// The terminator's own line break stays in the input, so the token
	// after the heredoc is still marked as starting a new line.
	tokens := lexAll(t, "a = <<EOF\nx\nEOF\nb = 2")
	assert.Equal(t, []TokenType{KEY, EQUALS, STRING, KEY, EQUALS, INTEGER, EOF}, types(tokens))
	assert.True(t, tokens[3].NewlineBefore)
}

func TestNeedsExpand(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "double quoted with variable", input: `"$HOME"`, expected: true},
		{name: "double quoted without", input: `"plain"`, expected: false},
		{name: "single quoted never expands", input: `'$HOME'`, expected: false},
		{name: "triple quoted with variable", input: `"""v=${V}"""`, expected: true},
		{name: "heredoc with variable", input: "<<EOF\n$PATH\nEOF\n", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := lexString(t, tt.input)
			assert.Equal(t, tt.expected, tok.NeedsExpand)
		})
	}
}

func TestBareWordNeedsExpand(t *testing.T) {
	tokens := lexAll(t, "dir = $HOME/data")
	assert.Equal(t, KEY, tokens[2].Type)
	assert.True(t, tokens[2].NeedsExpand)
}
