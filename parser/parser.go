// Package parser builds UCL configuration trees. It drives the tokenizer
// with a single token of look-ahead, expands variable references as string
// tokens are consumed, and dispatches user hooks at well-defined points.
package parser

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shibukawa/ucl"
	"github.com/shibukawa/ucl/expand"
	"github.com/shibukawa/ucl/tokenizer"
)

// Parser consumes tokens and builds a ucl.Value. A Parser is single-use
// and must not be shared across goroutines while a parse is in flight;
// parsers over independent inputs may run in parallel.
type Parser struct {
	input string
	lex   *tokenizer.Tokenizer
	opts  Options

	tok    tokenizer.Token // look-ahead buffer
	hasTok bool
	depth  int
	ctx    *expand.Context

	varHandlers expand.ChainHandler
	suffixHooks []hookEntry[SuffixHandler]
	stringHooks []hookEntry[StringProcessor]
	validators  []hookEntry[Validator]
}

// New creates a Parser over input.
func New(input string, options ...Options) *Parser {
	opts := DefaultOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	// Give the lexer headroom so the parser reports depth overruns at the
	// offending bracket instead of the lexer tripping one token earlier.
	tokOpts := opts.Tokenizer
	if tokOpts.MaxNestingDepth > 0 && opts.MaxDepth > 0 && tokOpts.MaxNestingDepth <= opts.MaxDepth {
		tokOpts.MaxNestingDepth = opts.MaxDepth + 1
	}

	return &Parser{
		input: input,
		lex:   tokenizer.New(input, tokOpts),
		opts:  opts,
		ctx:   &expand.Context{},
	}
}

// Parse parses a complete document.
func Parse(input []byte, options ...Options) (ucl.Value, error) {
	return New(string(input), options...).ParseDocument()
}

// ParseString parses a complete document from a string.
func ParseString(input string, options ...Options) (ucl.Value, error) {
	return New(input, options...).ParseDocument()
}

// Unmarshal parses input and decodes the resulting tree into target.
func Unmarshal(input []byte, target any, options ...Options) error {
	v, err := Parse(input, options...)
	if err != nil {
		return err
	}
	return ucl.Decode(v, target)
}

// ParseDocument parses the whole input. A document whose first token is
// '{' or '[' has that container as its root; anything else is read as an
// implicit top-level object. Empty input yields an empty object.
func (p *Parser) ParseDocument() (ucl.Value, error) {
	v, err := p.parseDocument()
	if err != nil {
		return nil, p.wrap(err)
	}
	return v, nil
}

// ParseValue parses a single value (for targeted inputs).
func (p *Parser) ParseValue() (ucl.Value, error) {
	v, err := p.parseValue()
	if err != nil {
		return nil, p.wrap(err)
	}
	return v, nil
}

// ParseObject parses a single explicit object.
func (p *Parser) ParseObject() (ucl.Value, error) {
	tok, err := p.next()
	if err == nil && tok.Type != tokenizer.OBJECT_START {
		err = unexpected(tok, "'{'")
	}
	if err != nil {
		return nil, p.wrap(err)
	}
	v, err := p.parseObjectBody(tok)
	if err != nil {
		return nil, p.wrap(err)
	}
	return v, nil
}

// ParseArray parses a single explicit array.
func (p *Parser) ParseArray() (ucl.Value, error) {
	tok, err := p.next()
	if err == nil && tok.Type != tokenizer.ARRAY_START {
		err = unexpected(tok, "'['")
	}
	if err != nil {
		return nil, p.wrap(err)
	}
	v, err := p.parseArrayBody(tok)
	if err != nil {
		return nil, p.wrap(err)
	}
	return v, nil
}

// wrap classifies an internal error into the top-level error surface.
func (p *Parser) wrap(err error) error {
	var uclErr *ucl.Error
	if errors.As(err, &uclErr) {
		return err
	}

	stage := ucl.StageParse

	var pos tokenizer.Position

	var parseError *Error

	var lexError *tokenizer.Error

	var expError *expand.Error

	switch {
	case errors.As(err, &parseError):
		pos = parseError.Position()
	case errors.As(err, &lexError):
		stage = ucl.StageLex
		pos = lexError.Position()
	case errors.As(err, &expError):
		stage = ucl.StageExpand
		pos = expError.Position()
	}

	return &ucl.Error{Stage: stage, Pos: pos, Err: err}
}

// ---------------------------------------------------------------------------
// Token plumbing

func (p *Parser) next() (tokenizer.Token, error) {
	if p.hasTok {
		p.hasTok = false
		return p.tok, nil
	}
	nl := false
	for {
		tok, err := p.lex.Next()
		if err != nil {
			return tokenizer.Token{}, err
		}
		if tok.Type == tokenizer.COMMENT {
			nl = nl || tok.NewlineBefore
			continue
		}
		tok.NewlineBefore = tok.NewlineBefore || nl
		return tok, nil
	}
}

func (p *Parser) peek() (tokenizer.Token, error) {
	if !p.hasTok {
		tok, err := p.next()
		if err != nil {
			return tokenizer.Token{}, err
		}
		p.tok = tok
		p.hasTok = true
	}
	return p.tok, nil
}

// peekSecond looks one token past the peek buffer using a lexer snapshot.
// Errors during the extra look-ahead are deferred: the same token will be
// lexed again and fail in place.
func (p *Parser) peekSecond() tokenizer.Token {
	snap := p.lex.Snapshot()
	defer p.lex.Restore(snap)

	for {
		tok, err := p.lex.Next()
		if err != nil {
			return tokenizer.Token{Type: tokenizer.EOF}
		}
		if tok.Type == tokenizer.COMMENT {
			continue
		}
		return tok
	}
}

func (p *Parser) enterNesting(open tokenizer.Token) error {
	p.depth++
	if p.opts.MaxDepth > 0 && p.depth > p.opts.MaxDepth {
		return parseErr(ErrMaxDepthExceeded, open.Span,
			fmt.Sprintf("nesting depth %d exceeds %d", p.depth, p.opts.MaxDepth))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Document structure

func (p *Parser) parseDocument() (ucl.Value, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}

	var root ucl.Value

	switch tok.Type {
	case tokenizer.EOF:
		return ucl.NewObject(), nil
	case tokenizer.OBJECT_START:
		p.hasTok = false
		root, err = p.parseObjectBody(tok)
	case tokenizer.ARRAY_START:
		p.hasTok = false
		root, err = p.parseArrayBody(tok)
	default:
		obj := ucl.NewObject()
		if err := p.parseMembers(obj, true); err != nil {
			return nil, err
		}
		return obj, nil
	}

	if err != nil {
		return nil, err
	}

	return root, p.expectEOF()
}

func (p *Parser) expectEOF() error {
	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		switch tok.Type {
		case tokenizer.COMMA, tokenizer.SEMICOLON:
			p.hasTok = false
		case tokenizer.EOF:
			return nil
		default:
			return unexpected(tok, "end of input")
		}
	}
}

// parseObjectBody parses members after a consumed '{' up to the matching
// '}'.
func (p *Parser) parseObjectBody(open tokenizer.Token) (ucl.Value, error) {
	if err := p.enterNesting(open); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()

	obj := ucl.NewObject()
	if err := p.parseMembers(obj, false); err != nil {
		return nil, err
	}

	return obj, nil
}

// parseMembers runs the per-container state machine. In implicit mode the
// container is the unbraced top-level object and EOF closes it.
func (p *Parser) parseMembers(obj *ucl.Object, implicit bool) error {
	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}

		switch tok.Type {
		case tokenizer.COMMA, tokenizer.SEMICOLON:
			// empty members and trailing separators are fine
			p.hasTok = false
			continue
		case tokenizer.OBJECT_END:
			if implicit {
				return unexpected(tok, "a key")
			}
			p.hasTok = false
			return nil
		case tokenizer.EOF:
			if implicit {
				return nil
			}
			return unexpected(tok, "'}'")
		}

		if err := p.parseMember(obj); err != nil {
			return err
		}
	}
}

// parseMember parses one key (or section key path) and its value.
func (p *Parser) parseMember(obj *ucl.Object) error {
	keyTok, err := p.next()
	if err != nil {
		return err
	}

	key, err := p.keyText(keyTok)
	if err != nil {
		return err
	}

	if keyTok.Type == tokenizer.KEY && keyTok.Text == "section" {
		done, err := p.parseSection(obj, keyTok, key)
		if done || err != nil {
			return err
		}
	}

	tok, err := p.peek()
	if err != nil {
		return err
	}

	p.ctx.Path = append(p.ctx.Path, key)
	defer func() { p.ctx.Path = p.ctx.Path[:len(p.ctx.Path)-1] }()

	var value ucl.Value

	switch tok.Type {
	case tokenizer.EQUALS, tokenizer.COLON:
		p.hasTok = false
		value, err = p.parseValue()
	case tokenizer.OBJECT_START:
		p.hasTok = false
		value, err = p.parseObjectBody(tok)
	case tokenizer.ARRAY_START:
		p.hasTok = false
		value, err = p.parseArrayBody(tok)
	case tokenizer.KEY, tokenizer.STRING:
		if tok.NewlineBefore {
			return unexpected(tok, fmt.Sprintf("a value for key %q on the same line", key))
		}
		if p.peekSecond().Type == tokenizer.OBJECT_START {
			// NGINX-nested: the token is an intermediate key
			inner := ucl.NewObject()
			if err := p.parseMember(inner); err != nil {
				return err
			}
			value = inner
		} else {
			first, _ := p.next()
			value, err = p.parseInline(first)
		}
	case tokenizer.INTEGER, tokenizer.FLOAT, tokenizer.TIME, tokenizer.BOOLEAN, tokenizer.NULL:
		if tok.NewlineBefore {
			return unexpected(tok, fmt.Sprintf("a value for key %q on the same line", key))
		}
		first, _ := p.next()
		value, err = p.parseInline(first)
	default:
		return unexpected(tok, fmt.Sprintf("a value for key %q", key))
	}

	if err != nil {
		return err
	}

	return p.insert(obj, keyTok.Span, key, value)
}

// parseSection handles the multi-key section form:
// "section foo bar { X }" nests right-to-left into
// {section: {foo: {bar: X}}}. Returns done=false when what follows is not
// a key path ending in '{'; the scan rewinds and "section" becomes an
// ordinary key.
func (p *Parser) parseSection(obj *ucl.Object, keyTok tokenizer.Token, key string) (bool, error) {
	snap := p.lex.Snapshot()
	savedTok, savedHas := p.tok, p.hasTok

	rewind := func() {
		p.lex.Restore(snap)
		p.tok, p.hasTok = savedTok, savedHas
	}

	var path []string

	for {
		tok, err := p.peek()
		if err != nil {
			return false, err
		}
		if (tok.Type != tokenizer.KEY && tok.Type != tokenizer.STRING) || tok.NewlineBefore {
			break
		}
		// A single trailing identifier may be the NGINX-nested form, which
		// the ordinary key path already handles.
		if len(path) == 0 && p.peekSecond().Type == tokenizer.OBJECT_START {
			break
		}
		p.hasTok = false

		elem, err := p.keyText(tok)
		if err != nil {
			return false, err
		}
		path = append(path, elem)
	}

	if len(path) == 0 {
		return false, nil
	}

	open, err := p.peek()
	if err != nil {
		return false, err
	}
	if open.Type != tokenizer.OBJECT_START {
		// "section one two" is an ordinary key with an inline value
		rewind()
		return false, nil
	}
	p.hasTok = false

	value, err := p.parseObjectBody(open)
	if err != nil {
		return false, err
	}

	for i := len(path) - 1; i >= 0; i-- {
		wrapper := ucl.NewObject()
		wrapper.Set(path[i], value)
		value = wrapper
	}

	return true, p.insert(obj, keyTok.Span, key, value)
}

// keyText renders a key token to its textual key. Quoted strings, boolean
// literals, integers and floats are all legal keys.
func (p *Parser) keyText(tok tokenizer.Token) (string, error) {
	var key string

	switch tok.Type {
	case tokenizer.KEY, tokenizer.BOOLEAN, tokenizer.NULL, tokenizer.INTEGER, tokenizer.FLOAT:
		key = tok.Text
	case tokenizer.STRING:
		key = tok.Text
	default:
		return "", unexpected(tok, "a key")
	}

	p.ctx.Pos = tok.Pos()

	key, err := p.applyKeyValidators(key)
	if err != nil {
		return "", parseErr(ErrKeyRejected, tok.Span, err.Error())
	}

	return key, nil
}

// ---------------------------------------------------------------------------
// Values

// parseValue parses one explicit value (after '=' or ':', or an array
// element).
func (p *Parser) parseValue() (ucl.Value, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}

	switch tok.Type {
	case tokenizer.OBJECT_START:
		return p.parseObjectBody(tok)
	case tokenizer.ARRAY_START:
		return p.parseArrayBody(tok)
	case tokenizer.STRING:
		text, err := p.expandToken(tok)
		if err != nil {
			return nil, err
		}
		text, _, err = p.concatTail(text, tok.Span.End)
		if err != nil {
			return nil, err
		}
		return p.makeString(text)
	case tokenizer.INTEGER, tokenizer.FLOAT, tokenizer.TIME, tokenizer.BOOLEAN, tokenizer.NULL, tokenizer.KEY:
		return p.singleValue(tok)
	default:
		return nil, unexpected(tok, "a value")
	}
}

// parseArrayBody parses elements after a consumed '[' up to the matching
// ']'.
func (p *Parser) parseArrayBody(open tokenizer.Token) (ucl.Value, error) {
	if err := p.enterNesting(open); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()

	arr := ucl.Array{}

	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}

		switch tok.Type {
		case tokenizer.COMMA, tokenizer.SEMICOLON:
			p.hasTok = false
			continue
		case tokenizer.ARRAY_END:
			p.hasTok = false
			return arr, nil
		case tokenizer.EOF:
			return nil, unexpected(tok, "']'")
		}

		elem, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		elem, err = p.applyValueValidators(elem)
		if err != nil {
			return nil, parseErr(ErrValueRejected, tok.Span, err.Error())
		}
		arr = append(arr, elem)
	}
}

// concatTail consumes "+ <string>" repetitions on the same line and
// appends their expanded text. A newline before '+' ends the chain; a
// newline after '+' is an error. It reports the end of the last operand
// so inline collection keeps its whitespace gaps accurate.
func (p *Parser) concatTail(text string, end tokenizer.Position) (string, tokenizer.Position, error) {
	for {
		tok, err := p.peek()
		if err != nil {
			return "", end, err
		}
		if tok.Type != tokenizer.PLUS || tok.NewlineBefore {
			return text, end, nil
		}
		p.hasTok = false

		operand, err := p.next()
		if err != nil {
			return "", end, err
		}
		if operand.NewlineBefore {
			return "", end, parseErr(ErrInvalidConcatenation, operand.Span,
				"newline terminates string concatenation",
				"put the right-hand string on the same line as '+'")
		}
		if operand.Type != tokenizer.STRING {
			return "", end, parseErr(ErrInvalidConcatenation, operand.Span,
				"both sides of '+' must be quoted strings")
		}

		part, err := p.expandToken(operand)
		if err != nil {
			return "", end, err
		}
		text += part
		end = operand.Span.End
	}
}

// parseInline collects an implicit value: subsequent tokens on the same
// line up to a terminator. A single token keeps its type; continuation
// joins every lexeme with the original whitespace into one string.
func (p *Parser) parseInline(first tokenizer.Token) (ucl.Value, error) {
	firstText, err := p.tokenPayload(first)
	if err != nil {
		return nil, err
	}

	type part struct {
		tok  tokenizer.Token
		text string
	}

	parts := []part{{tok: first, text: firstText}}

	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.NewlineBefore {
			break
		}

		if tok.Type == tokenizer.PLUS {
			last := &parts[len(parts)-1]
			if last.tok.Type != tokenizer.STRING {
				return nil, parseErr(ErrInvalidConcatenation, tok.Span,
					"both sides of '+' must be quoted strings")
			}
			joined, end, err := p.concatTail(last.text, last.tok.Span.End)
			if err != nil {
				return nil, err
			}
			last.text = joined
			last.tok.Span.End = end
			continue
		}

		switch tok.Type {
		case tokenizer.KEY, tokenizer.STRING, tokenizer.INTEGER, tokenizer.FLOAT,
			tokenizer.TIME, tokenizer.BOOLEAN, tokenizer.NULL:
			p.hasTok = false
			text, err := p.tokenPayload(tok)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part{tok: tok, text: text})
		default:
			// terminator (',', ';', '}', EOF) or the enclosing context's
			// problem
			goto done
		}
	}

done:
	if len(parts) == 1 {
		return p.singleValueWithText(parts[0].tok, parts[0].text)
	}

	var sb strings.Builder
	for i, pt := range parts {
		if i > 0 {
			gap := p.input[parts[i-1].tok.Span.End.Offset:pt.tok.Span.Start.Offset]
			sb.WriteString(gap)
		}
		sb.WriteString(pt.text)
	}

	return p.makeString(sb.String())
}

// tokenPayload returns the text a token contributes to an inline value.
// String tokens are expanded at the moment they are consumed.
func (p *Parser) tokenPayload(tok tokenizer.Token) (string, error) {
	if tok.Type == tokenizer.STRING || (tok.Type == tokenizer.KEY && tok.NeedsExpand) {
		return p.expandToken(tok)
	}
	return tok.Text, nil
}

// singleValue types a standalone scalar token.
func (p *Parser) singleValue(tok tokenizer.Token) (ucl.Value, error) {
	text, err := p.tokenPayload(tok)
	if err != nil {
		return nil, err
	}
	return p.singleValueWithText(tok, text)
}

func (p *Parser) singleValueWithText(tok tokenizer.Token, text string) (ucl.Value, error) {
	switch tok.Type {
	case tokenizer.STRING:
		return p.makeString(text)
	case tokenizer.INTEGER, tokenizer.FLOAT:
		return p.resolveSuffix(tok)
	case tokenizer.TIME:
		return ucl.Float(tok.Float), nil
	case tokenizer.BOOLEAN:
		return ucl.Bool(tok.Bool), nil
	case tokenizer.NULL:
		return ucl.Null{}, nil
	case tokenizer.KEY:
		// Standalone bare words remap reserved keywords, case-insensitively.
		switch strings.ToLower(tok.Text) {
		case "true", "yes", "on":
			return ucl.Bool(true), nil
		case "false", "no", "off":
			return ucl.Bool(false), nil
		case "null":
			return ucl.Null{}, nil
		case "inf", "infinity":
			return ucl.Float(math.Inf(1)), nil
		case "nan":
			return ucl.Float(math.NaN()), nil
		}
		return p.makeString(text)
	default:
		return nil, unexpected(tok, "a value")
	}
}

// makeString runs the string post-processing hooks and builds the value.
func (p *Parser) makeString(text string) (ucl.Value, error) {
	out, err := p.applyStringHooks(text)
	if err != nil {
		return nil, err
	}
	return ucl.String(out), nil
}

// resolveSuffix types a numeric token, consulting user suffix handlers
// for suffixes the built-in tables rejected.
func (p *Parser) resolveSuffix(tok tokenizer.Token) (ucl.Value, error) {
	if tok.Suffix == "" {
		if tok.Type == tokenizer.INTEGER {
			return ucl.Integer(tok.Int), nil
		}
		return ucl.Float(tok.Float), nil
	}

	for _, e := range p.suffixHooks {
		mult, ok := e.hook.ParseSuffix(tok.Suffix)
		if !ok {
			continue
		}
		product := tok.Float * mult
		if tok.Type == tokenizer.INTEGER && product == math.Trunc(product) &&
			product >= math.MinInt64 && product <= math.MaxInt64 {
			return ucl.Integer(int64(product)), nil
		}
		return ucl.Float(product), nil
	}

	return nil, &Error{
		Err:         tokenizer.ErrInvalidNumber,
		Span:        tok.Span,
		Detail:      fmt.Sprintf("unknown suffix %q", tok.Suffix),
		Suggestions: []string{"register a number suffix handler", "quote the value to keep it as a string"},
	}
}

// expandToken expands variable references in a token's payload.
func (p *Parser) expandToken(tok tokenizer.Token) (string, error) {
	if !tok.NeedsExpand {
		return tok.Text, nil
	}

	p.ctx.Pos = tok.Pos()

	var handler expand.Handler
	if len(p.varHandlers) > 0 {
		handler = p.varHandlers
	}

	return expand.Expand(tok.Text, handler, p.ctx)
}

// ---------------------------------------------------------------------------
// Insertion and merging

// insert applies the value validators and the duplicate-key policy, then
// stores the value.
func (p *Parser) insert(obj *ucl.Object, keySpan tokenizer.Span, key string, value ucl.Value) error {
	p.ctx.Pos = keySpan.Start

	value, err := p.applyValueValidators(value)
	if err != nil {
		return parseErr(ErrValueRejected, keySpan, err.Error())
	}

	existing, ok := obj.Get(key)
	if !ok {
		obj.Set(key, value)
		return nil
	}

	// Two objects under the same key always deep-merge.
	if dst, ok := existing.(*ucl.Object); ok {
		if src, ok := value.(*ucl.Object); ok {
			return p.merge(dst, src, keySpan)
		}
	}

	switch p.opts.DuplicateKeys {
	case DuplicateError:
		return parseErr(ErrDuplicateKey, keySpan, fmt.Sprintf("%q", key),
			"use the implicit-array duplicate key policy to collect repeated keys")
	case DuplicateOverride:
		obj.Set(key, value)
		return nil
	default: // DuplicateImplicitArray
		if arr, ok := existing.(ucl.Array); ok {
			obj.Set(key, append(arr, value))
		} else {
			obj.Set(key, ucl.Array{existing, value})
		}
		return nil
	}
}

// merge deep-merges src into dst, re-applying the duplicate policy per
// key.
func (p *Parser) merge(dst, src *ucl.Object, keySpan tokenizer.Span) error {
	for k, v := range src.Items() {
		existing, ok := dst.Get(k)
		if !ok {
			dst.Set(k, v)
			continue
		}

		if do, ok := existing.(*ucl.Object); ok {
			if so, ok := v.(*ucl.Object); ok {
				if err := p.merge(do, so, keySpan); err != nil {
					return err
				}
				continue
			}
		}

		switch p.opts.DuplicateKeys {
		case DuplicateError:
			return parseErr(ErrDuplicateKey, keySpan, fmt.Sprintf("%q", k),
				"use the implicit-array duplicate key policy to collect repeated keys")
		case DuplicateOverride:
			dst.Set(k, v)
		default:
			if arr, ok := existing.(ucl.Array); ok {
				dst.Set(k, append(arr, v))
			} else {
				dst.Set(k, ucl.Array{existing, v})
			}
		}
	}
	return nil
}
