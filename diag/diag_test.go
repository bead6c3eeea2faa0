package diag

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/ucl"
	"github.com/shibukawa/ucl/parser"
	"github.com/shibukawa/ucl/tokenizer"
)

func spanAt(line, col, width int) tokenizer.Span {
	return tokenizer.Span{
		Start: tokenizer.Position{Line: line, Column: col},
		End:   tokenizer.Position{Line: line, Column: col + width},
	}
}

func TestRender(t *testing.T) {
	src := "a = 1\nb = }\nc = 3"

	out := Render(src, Report{
		Span:  spanAt(2, 5, 1),
		Cause: "unexpected token '}'",
	})

	expected := strings.Join([]string{
		"error: unexpected token '}'",
		"  --> line 2, column 5",
		" 1 | a = 1",
		" 2 | b = }",
		"   |     ^",
		" 3 | c = 3",
		"",
	}, "\n")

	assert.Equal(t, expected, out)
}

func TestRenderContextWindow(t *testing.T) {
	src := "l1\nl2\nl3\nl4\nl5\nl6\nl7"

	opts := DefaultOptions()
	opts.ContextLines = 1

	out := Render(src, Report{Span: spanAt(4, 1, 2), Cause: "boom"}, opts)

	assert.True(t, strings.Contains(out, " 3 | l3"))
	assert.True(t, strings.Contains(out, " 4 | l4"))
	assert.True(t, strings.Contains(out, " 5 | l5"))
	assert.False(t, strings.Contains(out, "l2"))
	assert.False(t, strings.Contains(out, "l6"))
	assert.True(t, strings.Contains(out, "   | ^^"))
}

func TestRenderSuggestionsAndHelp(t *testing.T) {
	out := Render("x = 01", Report{
		Span:        spanAt(1, 5, 2),
		Cause:       "invalid number format: leading zeros are not allowed",
		Suggestions: []string{"remove the leading zeros"},
		Help:        "octal values use the 0o prefix",
	})

	assert.True(t, strings.Contains(out, "hint: remove the leading zeros"))
	assert.True(t, strings.Contains(out, "help: octal values use the 0o prefix"))
}

func TestRenderMultiLineSpan(t *testing.T) {
	src := "a = \"open\nmore"

	out := Render(src, Report{
		Span: tokenizer.Span{
			Start: tokenizer.Position{Line: 1, Column: 5},
			End:   tokenizer.Position{Line: 2, Column: 3},
		},
		Cause: "unterminated string literal",
	})

	// underlined from the opening quote to the end of the first line
	assert.True(t, strings.Contains(out, "   |     ^^^^^\n"))
}

func TestRenderEdgeLines(t *testing.T) {
	// a span on line 1 must not underflow the context window
	out := Render("only", Report{Span: spanAt(1, 1, 4), Cause: "x"})
	assert.True(t, strings.Contains(out, " 1 | only"))
	assert.True(t, strings.Contains(out, "   | ^^^^"))
}

func TestRenderFromParseError(t *testing.T) {
	src := "ok = 1\nbad = }"

	_, err := parser.ParseString(src)
	assert.Error(t, err)

	var uclErr *ucl.Error
	assert.True(t, errors.As(err, &uclErr))

	out := Render(src, Report{
		Span:        uclErr.Span(),
		Cause:       uclErr.Error(),
		Suggestions: uclErr.Suggestions(),
	})

	assert.True(t, strings.Contains(out, "--> line 2, column 7"))
	assert.True(t, strings.Contains(out, " 2 | bad = }"))
}
