package tokenizer

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const eof rune = -1

// Options are options for the tokenizer. Zero limits mean "no limit".
type Options struct {
	SaveComments      bool // emit COMMENT tokens instead of skipping them
	AllowTimeSuffixes bool // 100ms, 2h, ...
	AllowSizeSuffixes bool // 1kb, 16m, ...
	SizeSuffixBinary  bool // single-letter suffixes use 1024 powers
	StrictUnicode     bool // reject ill-formed UTF-8 and non-Unicode escapes

	MaxStringLength  int
	MaxNestingDepth  int
	MaxTokens        int
	MaxCommentLength int
}

// DefaultOptions returns the limits used when no options are supplied.
func DefaultOptions() Options {
	return Options{
		AllowTimeSuffixes: true,
		AllowSizeSuffixes: true,
		MaxStringLength:   1 << 20,
		MaxNestingDepth:   128,
		MaxTokens:         1 << 20,
		MaxCommentLength:  1 << 16,
	}
}

// Tokenizer scans a UCL document into tokens. It keeps one character of
// look-ahead and supports snapshot/restore for bounded backtracking.
// A Tokenizer is single-use: it owns its scanning state for one parse.
type Tokenizer struct {
	input string
	opts  Options

	current rune // look-ahead character, eof at end of input
	width   int  // byte width of current
	offset  int  // byte offset of current
	line    int
	column  int
	prevCR  bool // last consumed character was a bare '\r'

	tokenCount  int
	depth       int
	newlineSeen bool
	prevEnd     Position
}

// Snapshot is an opaque record of tokenizer state. Restoring one rewinds
// the scan position; resource counters are never decremented on restore.
type Snapshot struct {
	current     rune
	width       int
	offset      int
	line        int
	column      int
	prevCR      bool
	depth       int
	newlineSeen bool
	prevEnd     Position
}

// New creates a new Tokenizer over input.
func New(input string, options ...Options) *Tokenizer {
	opts := DefaultOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	t := &Tokenizer{
		input:  input,
		opts:   opts,
		line:   1,
		column: 1,
	}
	t.decode()

	return t
}

// decode refreshes the look-ahead from the current offset.
func (t *Tokenizer) decode() {
	if t.offset >= len(t.input) {
		t.current = eof
		t.width = 0
		return
	}
	t.current, t.width = utf8.DecodeRuneInString(t.input[t.offset:])
}

// advance moves past the current character. A lone '\r', a lone '\n' and
// the pair "\r\n" each count as a single line break.
func (t *Tokenizer) advance() {
	switch t.current {
	case eof:
		return
	case '\n':
		if t.prevCR {
			t.prevCR = false
		} else {
			t.line++
		}
		t.column = 1
	case '\r':
		t.line++
		t.column = 1
		t.prevCR = true
	default:
		t.column++
		t.prevCR = false
	}

	t.offset += t.width
	t.decode()
}

func (t *Tokenizer) pos() Position {
	return Position{Line: t.line, Column: t.column, Offset: t.offset}
}

// peekByte returns the byte n positions past the current character's first
// byte, or 0 at end of input. Used only for ASCII look-ahead.
func (t *Tokenizer) peekAfter(n int) byte {
	i := t.offset + t.width + n
	if i >= len(t.input) {
		return 0
	}
	return t.input[i]
}

// Snapshot captures the scan state for later Restore.
func (t *Tokenizer) Snapshot() Snapshot {
	return Snapshot{
		current:     t.current,
		width:       t.width,
		offset:      t.offset,
		line:        t.line,
		column:      t.column,
		prevCR:      t.prevCR,
		depth:       t.depth,
		newlineSeen: t.newlineSeen,
		prevEnd:     t.prevEnd,
	}
}

// Restore rewinds the tokenizer to a previous Snapshot. The token counter
// is intentionally left alone: re-lexed tokens consume new token slots.
func (t *Tokenizer) Restore(s Snapshot) {
	t.current = s.current
	t.width = s.width
	t.offset = s.offset
	t.line = s.line
	t.column = s.column
	t.prevCR = s.prevCR
	t.depth = s.depth
	t.newlineSeen = s.newlineSeen
	t.prevEnd = s.prevEnd
}

// Depth returns the current bracket nesting depth.
func (t *Tokenizer) Depth() int {
	return t.depth
}

// Input returns the source text the tokenizer scans. The parser uses it to
// reproduce whitespace gaps between inline value tokens.
func (t *Tokenizer) Input() string {
	return t.input
}

// Next returns the next token. EOF is reported as a token, not an error.
func (t *Tokenizer) Next() (Token, error) {
	for {
		tok, err := t.scan()
		if err != nil {
			return Token{}, err
		}
		if tok.Type == COMMENT && !t.opts.SaveComments {
			if tok.NewlineBefore {
				t.newlineSeen = true
			}
			continue
		}

		t.tokenCount++
		if t.opts.MaxTokens > 0 && t.tokenCount > t.opts.MaxTokens {
			return Token{}, t.limitErr(tok.Span, "token count exceeds %d", t.opts.MaxTokens)
		}

		t.prevEnd = tok.Span.End

		return tok, nil
	}
}

// Tokens returns an iterator over the remaining tokens. Iteration stops
// after EOF or the first error.
func (t *Tokenizer) Tokens() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		for {
			tok, err := t.Next()
			if err != nil {
				yield(Token{}, err)
				return
			}
			if !yield(tok, nil) {
				return
			}
			if tok.Type == EOF {
				return
			}
		}
	}
}

// AllTokens collects every remaining token (for debugging and tooling).
func (t *Tokenizer) AllTokens() ([]Token, error) {
	tokens := make([]Token, 0, 64)

	for {
		tok, err := t.Next()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}

// RecoverToTokenBoundary skips input until a plausible token start. It is a
// best-effort aid for test tooling; the parser never calls it.
func (t *Tokenizer) RecoverToTokenBoundary() {
	for t.current != eof && !isWhitespace(t.current) && !isValueEnd(t.current) {
		t.advance()
	}
	for isWhitespace(t.current) {
		if t.current == '\n' || t.current == '\r' {
			t.newlineSeen = true
		}
		t.advance()
	}
}

func (t *Tokenizer) scan() (Token, error) {
	if err := t.skipWhitespace(); err != nil {
		return Token{}, err
	}

	start := t.pos()
	nl := t.newlineSeen
	t.newlineSeen = false

	// scanAt may set newlineSeen again: a block comment spanning lines
	// counts as a line break for the token that follows it.
	tok, err := t.scanAt(start)
	if err != nil {
		return Token{}, err
	}

	tok.NewlineBefore = nl

	return tok, nil
}

func (t *Tokenizer) skipWhitespace() error {
	for {
		if t.current == '\n' || t.current == '\r' {
			t.newlineSeen = true
			t.advance()
			continue
		}
		if isWhitespace(t.current) {
			t.advance()
			continue
		}
		if t.opts.StrictUnicode && t.current == utf8.RuneError && t.width == 1 {
			p := t.pos()
			return t.utf8Err(p)
		}
		return nil
	}
}

func (t *Tokenizer) scanAt(start Position) (Token, error) {
	switch t.current {
	case eof:
		return t.structural(EOF, start), nil
	case '{':
		t.depth++
		if t.opts.MaxNestingDepth > 0 && t.depth > t.opts.MaxNestingDepth {
			return Token{}, t.limitErr(Span{Start: start, End: t.pos()}, "nesting depth exceeds %d", t.opts.MaxNestingDepth)
		}
		t.advance()
		return t.structural(OBJECT_START, start), nil
	case '}':
		if t.depth > 0 {
			t.depth--
		}
		t.advance()
		return t.structural(OBJECT_END, start), nil
	case '[':
		t.depth++
		if t.opts.MaxNestingDepth > 0 && t.depth > t.opts.MaxNestingDepth {
			return Token{}, t.limitErr(Span{Start: start, End: t.pos()}, "nesting depth exceeds %d", t.opts.MaxNestingDepth)
		}
		t.advance()
		return t.structural(ARRAY_START, start), nil
	case ']':
		if t.depth > 0 {
			t.depth--
		}
		t.advance()
		return t.structural(ARRAY_END, start), nil
	case ',':
		t.advance()
		return t.structural(COMMA, start), nil
	case ';':
		t.advance()
		return t.structural(SEMICOLON, start), nil
	case '=':
		t.advance()
		return t.structural(EQUALS, start), nil
	case ':':
		t.advance()
		return t.structural(COLON, start), nil
	case '#':
		return t.scanLineComment(start)
	case '/':
		switch t.peekAfter(0) {
		case '/':
			return t.scanLineComment(start)
		case '*':
			return t.scanBlockComment(start)
		}
		// filesystem paths: /var/log/app
		return t.scanBareWord(start)
	case '"':
		if t.peekAfter(0) == '"' && t.peekAfter(1) == '"' {
			return t.scanTripleString(start)
		}
		return t.scanJSONString(start)
	case '\'':
		return t.scanSingleString(start)
	case '<':
		if t.peekAfter(0) == '<' {
			return t.scanHeredoc(start)
		}
		return Token{}, t.charErr(start, t.current)
	case '+':
		next := t.peekAfter(0)
		if next >= '0' && next <= '9' || next == '.' || next == 'i' {
			return t.scanNumber(start)
		}
		t.advance()
		return t.structural(PLUS, start), nil
	case '-':
		return t.scanNumber(start)
	case '.':
		next := t.peekAfter(0)
		if next >= '0' && next <= '9' {
			return t.scanNumber(start)
		}
		// relative paths and dotfiles: ./cache, .profile
		return t.scanBareWord(start)
	}

	if isDigit(t.current) {
		return t.scanNumber(start)
	}
	if isKeyStart(t.current) {
		return t.scanBareWord(start)
	}

	return Token{}, t.charErr(start, t.current)
}

func (t *Tokenizer) structural(typ TokenType, start Position) Token {
	return Token{
		Type: typ,
		Text: t.input[start.Offset:t.offset],
		Span: Span{Start: start, End: t.pos()},
	}
}

func (t *Tokenizer) charErr(start Position, r rune) error {
	end := start
	end.Column++
	end.Offset += utf8.RuneLen(r)
	return &Error{
		Err:    ErrUnexpectedCharacter,
		Span:   Span{Start: start, End: end},
		Detail: fmt.Sprintf("%q", r),
	}
}

func (t *Tokenizer) limitErr(span Span, format string, args ...any) error {
	return &Error{
		Err:    ErrResourceLimit,
		Span:   span,
		Detail: fmt.Sprintf(format, args...),
	}
}

func (t *Tokenizer) utf8Err(p Position) error {
	end := p
	end.Column++
	end.Offset++
	return &Error{
		Err:    ErrInvalidUTF8,
		Span:   Span{Start: p, End: end},
		Detail: fmt.Sprintf("0x%02x", t.input[p.Offset]),
	}
}

// checkRune validates the current look-ahead in strict mode.
func (t *Tokenizer) checkRune() error {
	if t.opts.StrictUnicode && t.current == utf8.RuneError && t.width == 1 {
		return t.utf8Err(t.pos())
	}
	return nil
}

// ---------------------------------------------------------------------------
// Comments

func (t *Tokenizer) scanLineComment(start Position) (Token, error) {
	// consume '#' or '//'
	if t.current == '/' {
		t.advance()
	}
	t.advance()

	for t.current != eof && t.current != '\n' && t.current != '\r' {
		if err := t.checkRune(); err != nil {
			return Token{}, err
		}
		t.advance()
	}

	text := t.input[start.Offset:t.offset]
	if t.opts.MaxCommentLength > 0 && len(text) > t.opts.MaxCommentLength {
		return Token{}, t.limitErr(Span{Start: start, End: t.pos()}, "comment length exceeds %d", t.opts.MaxCommentLength)
	}

	return Token{
		Type: COMMENT,
		Text: text,
		Span: Span{Start: start, End: t.pos()},
	}, nil
}

// scanBlockComment scans /* ... */ honoring nesting. Quoted strings inside
// the comment are skipped so markers inside literals do not count.
func (t *Tokenizer) scanBlockComment(start Position) (Token, error) {
	t.advance() // '/'
	t.advance() // '*'

	depth := 1

	for depth > 0 {
		switch t.current {
		case eof:
			return Token{}, &Error{
				Err:  ErrUnterminatedComment,
				Span: Span{Start: start, End: t.pos()},
			}
		case '/':
			if t.peekAfter(0) == '*' {
				depth++
				t.advance()
			}
			t.advance()
		case '*':
			if t.peekAfter(0) == '/' {
				depth--
				t.advance()
			}
			t.advance()
		case '"', '\'':
			quote := t.current
			t.advance()
			for t.current != eof && t.current != quote {
				if t.current == '\\' {
					t.advance()
				}
				if t.current != eof {
					t.advance()
				}
			}
			if t.current != eof {
				t.advance()
			}
		default:
			if err := t.checkRune(); err != nil {
				return Token{}, err
			}
			t.advance()
		}
	}

	text := t.input[start.Offset:t.offset]
	if t.opts.MaxCommentLength > 0 && len(text) > t.opts.MaxCommentLength {
		return Token{}, t.limitErr(Span{Start: start, End: t.pos()}, "comment length exceeds %d", t.opts.MaxCommentLength)
	}
	if strings.ContainsAny(text, "\r\n") {
		t.newlineSeen = true
	}

	return Token{
		Type: COMMENT,
		Text: text,
		Span: Span{Start: start, End: t.pos()},
	}, nil
}

// ---------------------------------------------------------------------------
// Bare words

// scanBareWord scans an identifier. It also serves the dotted-identifier
// fallback, where the run may begin with a digit.
func (t *Tokenizer) scanBareWord(start Position) (Token, error) {
	for isKeyContinue(t.current) {
		if err := t.checkRune(); err != nil {
			return Token{}, err
		}
		t.advance()
	}

	// An unquoted value jammed against a structural character is always a
	// mistake ("hello{world"), as is one running into a comment marker.
	switch t.current {
	case '{', '}', '[', ']', '#':
		return Token{}, &Error{
			Err:         ErrInvalidBareWord,
			Span:        Span{Start: t.pos(), End: Position{Line: t.line, Column: t.column + 1, Offset: t.offset + 1}},
			Detail:      fmt.Sprintf("%q directly after unquoted value", t.current),
			Suggestions: []string{"add whitespace before the character", "quote the value"},
		}
	}

	word := t.input[start.Offset:t.offset]
	if t.opts.MaxStringLength > 0 && len(word) > t.opts.MaxStringLength {
		return Token{}, t.limitErr(Span{Start: start, End: t.pos()}, "string length exceeds %d", t.opts.MaxStringLength)
	}

	span := Span{Start: start, End: t.pos()}

	switch word {
	case "true":
		return Token{Type: BOOLEAN, Text: word, Bool: true, Span: span}, nil
	case "false":
		return Token{Type: BOOLEAN, Text: word, Span: span}, nil
	case "null":
		return Token{Type: NULL, Text: word, Span: span}, nil
	case "inf", "infinity":
		return Token{Type: FLOAT, Text: word, Float: math.Inf(1), Span: span}, nil
	case "nan":
		return Token{Type: FLOAT, Text: word, Float: math.NaN(), Span: span}, nil
	}

	return Token{
		Type:        KEY,
		Text:        word,
		NeedsExpand: strings.ContainsRune(word, '$'),
		Span:        span,
	}, nil
}

// ---------------------------------------------------------------------------
// Numbers

var timeSuffixes = map[string]float64{
	"ms":  0.001,
	"s":   1,
	"min": 60,
	"h":   3600,
	"d":   86400,
	"w":   604800,
	"y":   31536000,
}

// sizeSuffix returns the multiplier for a size suffix. Two-letter forms are
// always binary; single letters follow the binary option.
func (t *Tokenizer) sizeSuffix(suffix string) (int64, bool) {
	var power int

	base := int64(1000)
	if t.opts.SizeSuffixBinary {
		base = 1024
	}

	switch strings.ToLower(suffix) {
	case "b":
		return 1, true
	case "k":
		power = 1
	case "m":
		power = 2
	case "g":
		power = 3
	case "t":
		power = 4
	case "kb":
		base, power = 1024, 1
	case "mb":
		base, power = 1024, 2
	case "gb":
		base, power = 1024, 3
	case "tb":
		base, power = 1024, 4
	default:
		return 0, false
	}

	mult := int64(1)
	for range power {
		mult *= base
	}

	return mult, true
}

func (t *Tokenizer) numberErr(start Position, detail string, suggestions ...string) error {
	return &Error{
		Err:         ErrInvalidNumber,
		Span:        Span{Start: start, End: t.pos()},
		Detail:      detail,
		Suggestions: suggestions,
	}
}

// scanNumber scans signed integers, floats, based integers, signed
// infinities and suffixed values. When a run of digits grows a second dot
// (127.0.0.1) the snapshot taken at entry rewinds the scan and the run is
// re-read as a bare word.
func (t *Tokenizer) scanNumber(start Position) (Token, error) {
	snap := t.Snapshot()

	negative := false

	switch t.current {
	case '-':
		negative = true
		t.advance()
	case '+':
		t.advance()
	}

	// Signed special literals: -inf, +infinity. "nan" takes no sign.
	if t.current == 'i' || t.current == 'n' {
		wordStart := t.offset
		for t.current >= 'a' && t.current <= 'z' {
			t.advance()
		}
		word := t.input[wordStart:t.offset]
		switch word {
		case "inf", "infinity":
			sign := 1
			if negative {
				sign = -1
			}
			return Token{Type: FLOAT, Text: t.input[start.Offset:t.offset], Float: math.Inf(sign), Span: Span{Start: start, End: t.pos()}}, nil
		}
		return Token{}, t.numberErr(start, fmt.Sprintf("unexpected word %q after sign", word))
	}

	// Based integers: 0x.., 0b.., 0o..
	if t.current == '0' {
		switch t.peekAfter(0) {
		case 'x', 'X':
			return t.scanBasedInteger(start, negative, 16, isHexDigit)
		case 'b', 'B':
			return t.scanBasedInteger(start, negative, 2, func(r rune) bool { return r == '0' || r == '1' })
		case 'o', 'O':
			return t.scanBasedInteger(start, negative, 8, func(r rune) bool { return r >= '0' && r <= '7' })
		}
	}

	bodyStart := t.offset
	isFloat := false

	intDigits := 0
	leadingZero := t.current == '0'

	for isDigit(t.current) {
		intDigits++
		t.advance()
	}

	if leadingZero && intDigits > 1 {
		return Token{}, t.numberErr(start, "leading zeros are not allowed", "remove the leading zeros")
	}

	if t.current == '.' {
		if !isDigit(rune(t.peekAfter(0))) {
			return Token{}, t.numberErr(start, "trailing dot", "add digits after the decimal point")
		}

		isFloat = true
		t.advance() // '.'
		for isDigit(t.current) {
			t.advance()
		}

		// A second dot means this never was a number: 127.0.0.1,
		// version strings, dotted hostnames. Rewind and re-lex.
		if t.current == '.' {
			t.Restore(snap)
			return t.scanBareWord(start)
		}
	}

	if intDigits == 0 && !isFloat {
		return Token{}, t.numberErr(start, "digits required")
	}

	if t.current == 'e' || t.current == 'E' {
		isFloat = true
		t.advance()
		if t.current == '+' || t.current == '-' {
			t.advance()
		}
		if !isDigit(t.current) {
			return Token{}, t.numberErr(start, "empty exponent", "add digits after the exponent marker")
		}
		for isDigit(t.current) {
			t.advance()
		}
	}

	body := t.input[bodyStart:t.offset]

	// Trailing letters form a suffix candidate.
	suffixStart := t.offset
	for (t.current >= 'a' && t.current <= 'z') || (t.current >= 'A' && t.current <= 'Z') {
		t.advance()
	}
	suffix := t.input[suffixStart:t.offset]

	if isKeyContinue(t.current) {
		return Token{}, t.numberErr(start, fmt.Sprintf("unexpected character %q in number", t.current))
	}

	lexeme := t.input[start.Offset:t.offset]
	span := Span{Start: start, End: t.pos()}

	return t.finishNumber(start, span, lexeme, body, suffix, negative, isFloat)
}

func (t *Tokenizer) finishNumber(start Position, span Span, lexeme, body, suffix string, negative, isFloat bool) (Token, error) {
	signedBody := body
	if negative {
		signedBody = "-" + body
	}

	var (
		intVal   int64
		floatVal float64
	)

	if isFloat {
		v, err := strconv.ParseFloat(signedBody, 64)
		if err != nil {
			return Token{}, t.numberErr(start, body)
		}
		floatVal = v
	} else {
		v, err := strconv.ParseInt(signedBody, 10, 64)
		if err != nil {
			// Out of int64 range: fall back to float, as JSON readers do.
			f, ferr := strconv.ParseFloat(signedBody, 64)
			if ferr != nil {
				return Token{}, t.numberErr(start, body)
			}
			isFloat = true
			floatVal = f
		} else {
			intVal = v
			floatVal = float64(v)
		}
	}

	if suffix == "" {
		if isFloat {
			return Token{Type: FLOAT, Text: lexeme, Float: floatVal, Span: span}, nil
		}
		return Token{Type: INTEGER, Text: lexeme, Int: intVal, Float: floatVal, Span: span}, nil
	}

	if t.opts.AllowTimeSuffixes {
		if mult, ok := timeSuffixes[suffix]; ok {
			return Token{Type: TIME, Text: lexeme, Float: floatVal * mult, Span: span}, nil
		}
	}

	if t.opts.AllowSizeSuffixes {
		if mult, ok := t.sizeSuffix(suffix); ok {
			if isFloat {
				return Token{}, t.numberErr(start, fmt.Sprintf("size suffix %q on a float value", suffix), "use an integer value with size suffixes")
			}
			product, ok := mulInt64(intVal, mult)
			if !ok {
				return Token{}, t.numberErr(start, fmt.Sprintf("%s%s overflows a 64-bit integer", body, suffix))
			}
			return Token{Type: INTEGER, Text: lexeme, Int: product, Float: float64(product), Span: span}, nil
		}
	}

	// Unknown suffix: hand it to the parser for user suffix handlers.
	typ := INTEGER
	if isFloat {
		typ = FLOAT
	}

	return Token{Type: typ, Text: lexeme, Int: intVal, Float: floatVal, Suffix: suffix, Span: span}, nil
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	product := a * b
	if product/b != a {
		return 0, false
	}
	return product, true
}

func (t *Tokenizer) scanBasedInteger(start Position, negative bool, base int, valid func(rune) bool) (Token, error) {
	t.advance() // '0'
	t.advance() // 'x' / 'b' / 'o'

	digitsStart := t.offset
	for valid(t.current) {
		t.advance()
	}
	digits := t.input[digitsStart:t.offset]

	if digits == "" {
		return Token{}, t.numberErr(start, fmt.Sprintf("missing digits after base-%d prefix", base))
	}
	if isKeyContinue(t.current) {
		return Token{}, t.numberErr(start, fmt.Sprintf("invalid digit %q for base %d", t.current, base))
	}

	if negative {
		digits = "-" + digits
	}

	v, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		return Token{}, t.numberErr(start, fmt.Sprintf("base-%d value out of range", base))
	}

	return Token{
		Type:  INTEGER,
		Text:  t.input[start.Offset:t.offset],
		Int:   v,
		Float: float64(v),
		Span:  Span{Start: start, End: t.pos()},
	}, nil
}
