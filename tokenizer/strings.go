package tokenizer

import (
	"fmt"
	"strings"
)

const escapeHint = `valid escapes are \n \r \t \\ \" \/ \b \f \xHH \uXXXX \u{...}`

func (t *Tokenizer) stringTooLong(start Position, n int) error {
	return t.limitErr(Span{Start: start, End: t.pos()}, "string length %d exceeds %d", n, t.opts.MaxStringLength)
}

// scanJSONString scans a double-quoted literal with JSON escape rules.
// When the content needs no rewriting the token borrows from the input.
func (t *Tokenizer) scanJSONString(start Position) (Token, error) {
	t.advance() // opening quote

	contentStart := t.offset

	var (
		sb        strings.Builder
		hasEscape bool
		hasDollar bool
	)

	for {
		switch {
		case t.current == eof:
			return Token{}, &Error{
				Err:  ErrUnterminatedString,
				Span: Span{Start: start, End: t.pos()},
			}
		case t.current == '"':
			text := t.input[contentStart:t.offset]
			if hasEscape {
				text = sb.String()
			}
			if t.opts.MaxStringLength > 0 && len(text) > t.opts.MaxStringLength {
				return Token{}, t.stringTooLong(start, len(text))
			}
			t.advance()
			return Token{
				Type:        STRING,
				Text:        text,
				Format:      FormatJSON,
				NeedsExpand: hasDollar,
				Span:        Span{Start: start, End: t.pos()},
			}, nil
		case t.current == '\\':
			if !hasEscape {
				sb.WriteString(t.input[contentStart:t.offset])
				hasEscape = true
			}
			r, err := t.decodeEscape()
			if err != nil {
				return Token{}, err
			}
			sb.WriteRune(r)
		case t.current < 0x20 && t.current != '\t':
			return Token{}, &Error{
				Err:         ErrUnexpectedCharacter,
				Span:        Span{Start: t.pos(), End: Position{Line: t.line, Column: t.column + 1, Offset: t.offset + 1}},
				Detail:      fmt.Sprintf("unescaped control character %q in string", t.current),
				Suggestions: []string{"escape the character", "use a heredoc for multi-line content"},
			}
		default:
			if err := t.checkRune(); err != nil {
				return Token{}, err
			}
			if t.current == '$' {
				hasDollar = true
			}
			if hasEscape {
				sb.WriteRune(t.current)
			}
			t.advance()
		}
	}
}

// decodeEscape decodes one escape sequence. The look-ahead is on the
// backslash when called and past the sequence when it returns.
func (t *Tokenizer) decodeEscape() (rune, error) {
	escStart := t.pos()
	t.advance() // backslash

	switch t.current {
	case 'n':
		t.advance()
		return '\n', nil
	case 'r':
		t.advance()
		return '\r', nil
	case 't':
		t.advance()
		return '\t', nil
	case '\\':
		t.advance()
		return '\\', nil
	case '"':
		t.advance()
		return '"', nil
	case '/':
		t.advance()
		return '/', nil
	case 'b':
		t.advance()
		return '\b', nil
	case 'f':
		t.advance()
		return '\f', nil
	case 'x':
		t.advance()
		v, err := t.readHex(escStart, 2)
		if err != nil {
			return 0, err
		}
		return rune(v), nil
	case 'u':
		t.advance()
		if t.current == '{' {
			return t.decodeBracedUnicode(escStart)
		}
		v, err := t.readHex(escStart, 4)
		if err != nil {
			return 0, err
		}
		return t.checkCodePoint(escStart, v)
	case eof:
		return 0, &Error{
			Err:  ErrUnterminatedString,
			Span: Span{Start: escStart, End: t.pos()},
		}
	default:
		r := t.current
		t.advance()
		return 0, &Error{
			Err:         ErrInvalidEscape,
			Span:        Span{Start: escStart, End: t.pos()},
			Detail:      fmt.Sprintf("\\%c", r),
			Suggestions: []string{escapeHint},
		}
	}
}

func (t *Tokenizer) decodeBracedUnicode(escStart Position) (rune, error) {
	t.advance() // '{'

	v := 0
	digits := 0

	for isHexDigit(t.current) {
		v = v*16 + hexValue(t.current)
		digits++
		if digits > 6 {
			return 0, &Error{
				Err:    ErrInvalidUnicodeEscape,
				Span:   Span{Start: escStart, End: t.pos()},
				Detail: "more than 6 hex digits",
			}
		}
		t.advance()
	}

	if digits == 0 || t.current != '}' {
		return 0, &Error{
			Err:         ErrInvalidUnicodeEscape,
			Span:        Span{Start: escStart, End: t.pos()},
			Detail:      "expected \\u{1-6 hex digits}",
			Suggestions: []string{escapeHint},
		}
	}
	t.advance() // '}'

	return t.checkCodePoint(escStart, v)
}

func (t *Tokenizer) checkCodePoint(escStart Position, v int) (rune, error) {
	if v >= 0xD800 && v <= 0xDFFF {
		return 0, &Error{
			Err:    ErrInvalidUnicodeEscape,
			Span:   Span{Start: escStart, End: t.pos()},
			Detail: fmt.Sprintf("surrogate code point U+%04X", v),
		}
	}
	if v > 0x10FFFF {
		return 0, &Error{
			Err:    ErrInvalidUnicodeEscape,
			Span:   Span{Start: escStart, End: t.pos()},
			Detail: fmt.Sprintf("code point U+%X is beyond U+10FFFF", v),
		}
	}
	return rune(v), nil
}

func (t *Tokenizer) readHex(escStart Position, n int) (int, error) {
	v := 0
	for range n {
		if !isHexDigit(t.current) {
			return 0, &Error{
				Err:         ErrInvalidUnicodeEscape,
				Span:        Span{Start: escStart, End: t.pos()},
				Detail:      fmt.Sprintf("expected %d hex digits", n),
				Suggestions: []string{escapeHint},
			}
		}
		v = v*16 + hexValue(t.current)
		t.advance()
	}
	return v, nil
}

func hexValue(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	default:
		return int(r-'A') + 10
	}
}

// scanSingleString scans a single-quoted literal. Only \' and
// backslash-newline (line continuation, dropped) are processed; every
// other backslash pair is preserved as written. Never expanded.
func (t *Tokenizer) scanSingleString(start Position) (Token, error) {
	t.advance() // opening quote

	contentStart := t.offset

	var (
		sb        strings.Builder
		hasEscape bool
	)

	promote := func(upto int) {
		if !hasEscape {
			sb.WriteString(t.input[contentStart:upto])
			hasEscape = true
		}
	}

	for {
		switch t.current {
		case eof:
			return Token{}, &Error{
				Err:  ErrUnterminatedString,
				Span: Span{Start: start, End: t.pos()},
			}
		case '\'':
			text := t.input[contentStart:t.offset]
			if hasEscape {
				text = sb.String()
			}
			if t.opts.MaxStringLength > 0 && len(text) > t.opts.MaxStringLength {
				return Token{}, t.stringTooLong(start, len(text))
			}
			t.advance()
			return Token{
				Type:   STRING,
				Text:   text,
				Format: FormatSingle,
				Span:   Span{Start: start, End: t.pos()},
			}, nil
		case '\\':
			backslash := t.offset
			t.advance()
			switch t.current {
			case '\'':
				promote(backslash)
				sb.WriteByte('\'')
				t.advance()
			case '\n':
				promote(backslash)
				t.advance()
			case '\r':
				promote(backslash)
				t.advance()
				if t.current == '\n' {
					t.advance()
				}
			case eof:
				// closing quote missing; report on next iteration
				promote(backslash)
				sb.WriteByte('\\')
			default:
				if hasEscape {
					sb.WriteByte('\\')
					sb.WriteRune(t.current)
				}
				t.advance()
			}
		default:
			if err := t.checkRune(); err != nil {
				return Token{}, err
			}
			if hasEscape {
				sb.WriteRune(t.current)
			}
			t.advance()
		}
	}
}

// scanTripleString scans """...""". Content is raw; escapes are not
// processed and the token always borrows from the input.
func (t *Tokenizer) scanTripleString(start Position) (Token, error) {
	t.advance()
	t.advance()
	t.advance()

	contentStart := t.offset
	hasDollar := false

	for {
		if t.current == eof {
			return Token{}, &Error{
				Err:  ErrUnterminatedString,
				Span: Span{Start: start, End: t.pos()},
			}
		}
		if t.current == '"' && t.peekAfter(0) == '"' && t.peekAfter(1) == '"' {
			text := t.input[contentStart:t.offset]
			if t.opts.MaxStringLength > 0 && len(text) > t.opts.MaxStringLength {
				return Token{}, t.stringTooLong(start, len(text))
			}
			t.advance()
			t.advance()
			t.advance()
			return Token{
				Type:        STRING,
				Text:        text,
				Format:      FormatHeredoc,
				NeedsExpand: hasDollar,
				Span:        Span{Start: start, End: t.pos()},
			}, nil
		}
		if err := t.checkRune(); err != nil {
			return Token{}, err
		}
		if t.current == '$' {
			hasDollar = true
		}
		t.advance()
	}
}

// scanHeredoc scans <<TAG ... TAG. The terminator must occupy an entire
// line with no surrounding whitespace. The trailing line break after the
// terminator is left in the input so the parser still sees the newline.
func (t *Tokenizer) scanHeredoc(start Position) (Token, error) {
	t.advance() // '<'
	t.advance() // '<'

	tagStart := t.offset
	if !(t.current >= 'A' && t.current <= 'Z') && t.current != '_' {
		return Token{}, &Error{
			Err:         ErrInvalidHeredoc,
			Span:        Span{Start: start, End: t.pos()},
			Detail:      "tag must start with an uppercase letter or underscore",
			Suggestions: []string{"use a tag matching [A-Z_][A-Z0-9_]*"},
		}
	}
	for (t.current >= 'A' && t.current <= 'Z') || (t.current >= '0' && t.current <= '9') || t.current == '_' {
		t.advance()
	}
	tag := t.input[tagStart:t.offset]
	if len(tag) > 64 {
		return Token{}, &Error{
			Err:    ErrInvalidHeredoc,
			Span:   Span{Start: start, End: t.pos()},
			Detail: fmt.Sprintf("tag is %d characters, maximum is 64", len(tag)),
		}
	}

	for t.current == ' ' || t.current == '\t' {
		t.advance()
	}
	if t.current != '\n' && t.current != '\r' {
		return Token{}, &Error{
			Err:         ErrInvalidHeredoc,
			Span:        Span{Start: start, End: t.pos()},
			Detail:      "unexpected characters on heredoc opening line",
			Suggestions: []string{"the heredoc body starts on the next line"},
		}
	}
	t.consumeLineBreak()

	contentStart := t.offset
	lineStart := t.offset
	hasDollar := false

	// reported at the opening <<TAG
	openEnd := Position{Line: start.Line, Column: start.Column + 2 + len(tag), Offset: start.Offset + 2 + len(tag)}
	unterminated := &Error{
		Err:         ErrInvalidHeredoc,
		Span:        Span{Start: start, End: openEnd},
		Detail:      fmt.Sprintf("terminator %q not found", tag),
		Suggestions: []string{"the terminator must occupy a whole line with no leading or trailing whitespace"},
	}

	emit := func() (Token, error) {
		text := t.input[contentStart:lineStart]
		if t.opts.MaxStringLength > 0 && len(text) > t.opts.MaxStringLength {
			return Token{}, t.stringTooLong(start, len(text))
		}
		return Token{
			Type:        STRING,
			Text:        text,
			Format:      FormatHeredoc,
			NeedsExpand: hasDollar,
			Span:        Span{Start: start, End: t.pos()},
		}, nil
	}

	for {
		switch t.current {
		case eof:
			if t.input[lineStart:t.offset] == tag {
				return emit()
			}
			return Token{}, unterminated
		case '\n', '\r':
			if t.input[lineStart:t.offset] == tag {
				return emit()
			}
			t.consumeLineBreak()
			lineStart = t.offset
		case '$':
			hasDollar = true
			t.advance()
		default:
			if err := t.checkRune(); err != nil {
				return Token{}, err
			}
			t.advance()
		}
	}
}

func (t *Tokenizer) consumeLineBreak() {
	if t.current == '\r' {
		t.advance()
		if t.current == '\n' {
			t.advance()
		}
		return
	}
	if t.current == '\n' {
		t.advance()
	}
}
