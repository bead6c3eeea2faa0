// Package diag renders human-readable error reports: a source snippet
// around the failing span, a caret underline, the cause and optional fix
// suggestions.
package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/shibukawa/ucl/tokenizer"
)

// Options are options for the report renderer.
type Options struct {
	// ContextLines is the number of lines shown before and after the
	// failing line.
	ContextLines int

	// Color enables ANSI colors in the report.
	Color bool
}

// DefaultOptions returns the renderer defaults.
func DefaultOptions() Options {
	return Options{ContextLines: 2}
}

// Report is one renderable diagnostic.
type Report struct {
	Span        tokenizer.Span
	Cause       string
	Suggestions []string
	Help        string
}

// Render produces a multi-line report for the given source. Multi-line
// spans are underlined from the start column to the end of the first
// line.
func Render(src string, r Report, options ...Options) string {
	opts := DefaultOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	lines := strings.Split(src, "\n")

	errLabel := "error"
	hintLabel := "hint"
	helpLabel := "help"

	if opts.Color {
		errLabel = color.New(color.Bold, color.FgRed).Sprint(errLabel)
		hintLabel = color.New(color.Bold, color.FgYellow).Sprint(hintLabel)
		helpLabel = color.New(color.Bold, color.FgCyan).Sprint(helpLabel)
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "%s: %s\n", errLabel, r.Cause)
	fmt.Fprintf(&sb, "  --> line %d, column %d\n", r.Span.Start.Line, r.Span.Start.Column)

	first := r.Span.Start.Line - opts.ContextLines
	if first < 1 {
		first = 1
	}
	last := r.Span.Start.Line + opts.ContextLines
	if last > len(lines) {
		last = len(lines)
	}

	width := len(fmt.Sprint(last))

	for n := first; n <= last; n++ {
		text := strings.TrimSuffix(lines[n-1], "\r")
		fmt.Fprintf(&sb, " %*d | %s\n", width, n, text)

		if n != r.Span.Start.Line {
			continue
		}

		underline := underlineFor(text, r.Span)
		if opts.Color {
			underline = color.New(color.Bold, color.FgRed).Sprint(underline)
		}
		fmt.Fprintf(&sb, " %s | %s\n", strings.Repeat(" ", width), underline)
	}

	for _, s := range r.Suggestions {
		fmt.Fprintf(&sb, "%s: %s\n", hintLabel, s)
	}
	if r.Help != "" {
		fmt.Fprintf(&sb, "%s: %s\n", helpLabel, r.Help)
	}

	return sb.String()
}

// underlineFor builds the caret line under the failing region of one
// source line. Columns are rune-based, matching the tokenizer.
func underlineFor(line string, span tokenizer.Span) string {
	startCol := span.Start.Column
	if startCol < 1 {
		startCol = 1
	}

	lineRunes := len([]rune(line))

	endCol := span.End.Column
	if span.End.Line != span.Start.Line || endCol <= startCol {
		// multi-line or empty span: underline to end of line
		endCol = lineRunes + 1
	}
	if endCol == startCol {
		endCol = startCol + 1
	}

	var sb strings.Builder
	for i := 1; i < startCol; i++ {
		sb.WriteByte(' ')
	}
	for i := startCol; i < endCol; i++ {
		sb.WriteByte('^')
	}

	return sb.String()
}
