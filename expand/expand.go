// Package expand resolves $VAR, ${VAR} and ${VAR:-default} references
// inside UCL string values.
package expand

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shibukawa/ucl/tokenizer"
)

// Sentinel errors
var (
	ErrExpansionCycle     = errors.New("variable expansion cycle")
	ErrMalformedReference = errors.New("malformed variable reference")
)

// Error is an expansion failure with the position of the string being
// expanded and, for cycles, the chain of names that closed the loop.
type Error struct {
	Err    error
	Pos    tokenizer.Position
	Name   string
	Cycle  []string
	Detail string
}

func (e *Error) Error() string {
	switch {
	case len(e.Cycle) > 0:
		return fmt.Sprintf("%v: %s at %s", e.Err, strings.Join(e.Cycle, " -> "), e.Pos)
	case e.Detail != "":
		return fmt.Sprintf("%v: %s at %s", e.Err, e.Detail, e.Pos)
	default:
		return fmt.Sprintf("%v at %s", e.Err, e.Pos)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Position returns where the failing string value starts.
func (e *Error) Position() tokenizer.Position {
	return e.Pos
}

// Context carries the state handlers may inspect during one expansion.
// Stack holds the names currently being expanded, outermost first; it is
// how cycles are detected, so it must be empty between top-level calls.
type Context struct {
	Pos   tokenizer.Position
	Path  []string // object keys from the root to the insertion point
	Stack []string
}

func (c *Context) push(name string) error {
	for _, n := range c.Stack {
		if n == name {
			cycle := append(append([]string{}, c.Stack...), name)
			return &Error{Err: ErrExpansionCycle, Pos: c.Pos, Name: name, Cycle: cycle}
		}
	}
	c.Stack = append(c.Stack, name)
	return nil
}

func (c *Context) pop() {
	c.Stack = c.Stack[:len(c.Stack)-1]
}

// Expand rewrites every variable reference in s using h. Unknown
// references without a fallback are preserved verbatim; "$$" becomes a
// literal "$". A nil handler resolves nothing.
func Expand(s string, h Handler, ctx *Context) (string, error) {
	if ctx == nil {
		ctx = &Context{}
	}
	if !strings.ContainsRune(s, '$') {
		return s, nil
	}

	var sb strings.Builder
	sb.Grow(len(s))

	i := 0
	for i < len(s) {
		c := s[i]
		if c != '$' {
			sb.WriteByte(c)
			i++
			continue
		}

		// "$$" is a literal dollar
		if i+1 < len(s) && s[i+1] == '$' {
			sb.WriteByte('$')
			i += 2
			continue
		}

		if i+1 < len(s) && s[i+1] == '{' {
			n, err := expandBraced(s[i:], &sb, h, ctx)
			if err != nil {
				return "", err
			}
			i += n
			continue
		}

		// $IDENT, greedy
		j := i + 1
		for j < len(s) && isIdent(s[j], j > i+1) {
			j++
		}
		if j == i+1 {
			// '$' not followed by an identifier start is literal
			sb.WriteByte('$')
			i++
			continue
		}

		name := s[i+1 : j]
		resolved, ok, err := resolve(name, h, ctx)
		if err != nil {
			return "", err
		}
		if ok {
			sb.WriteString(resolved)
		} else {
			sb.WriteString(s[i:j]) // preserve verbatim
		}
		i = j
	}

	return sb.String(), nil
}

// expandBraced handles ${NAME} and ${NAME:-default} at the start of s and
// returns how many bytes of s it consumed.
func expandBraced(s string, sb *strings.Builder, h Handler, ctx *Context) (int, error) {
	// s starts with "${"
	j := 2
	for j < len(s) && isIdent(s[j], j > 2) {
		j++
	}
	name := s[2:j]

	if name == "" {
		if j < len(s) && s[j] == '}' {
			return 0, &Error{Err: ErrMalformedReference, Pos: ctx.Pos, Detail: "empty ${}"}
		}
		return 0, &Error{Err: ErrMalformedReference, Pos: ctx.Pos, Detail: "invalid character after ${"}
	}

	if j >= len(s) {
		return 0, &Error{Err: ErrMalformedReference, Pos: ctx.Pos, Name: name, Detail: "unclosed ${"}
	}

	switch s[j] {
	case '}':
		resolved, ok, err := resolve(name, h, ctx)
		if err != nil {
			return 0, err
		}
		if ok {
			sb.WriteString(resolved)
		} else {
			sb.WriteString(s[:j+1]) // preserve verbatim
		}
		return j + 1, nil
	case ':':
		if j+1 >= len(s) || s[j+1] != '-' {
			return 0, &Error{Err: ErrMalformedReference, Pos: ctx.Pos, Name: name, Detail: "expected ':-' before fallback"}
		}

		// The fallback runs to the matching close brace.
		depth := 1
		k := j + 2
		for k < len(s) && depth > 0 {
			switch s[k] {
			case '{':
				depth++
			case '}':
				depth--
			}
			k++
		}
		if depth != 0 {
			return 0, &Error{Err: ErrMalformedReference, Pos: ctx.Pos, Name: name, Detail: "unclosed ${"}
		}
		fallback := s[j+2 : k-1]

		resolved, ok, err := resolve(name, h, ctx)
		if err != nil {
			return 0, err
		}
		if ok {
			sb.WriteString(resolved)
			return k, nil
		}

		// Fallback text is expanded lazily, only on a miss.
		expanded, err := Expand(fallback, h, ctx)
		if err != nil {
			return 0, err
		}
		sb.WriteString(expanded)
		return k, nil
	default:
		return 0, &Error{Err: ErrMalformedReference, Pos: ctx.Pos, Name: name, Detail: fmt.Sprintf("invalid character %q inside ${}", s[j])}
	}
}

// resolve looks a name up and recursively expands the result with the name
// on the cycle stack.
func resolve(name string, h Handler, ctx *Context) (string, bool, error) {
	if h == nil {
		return "", false, nil
	}

	value, ok := h.Resolve(name, ctx)
	if !ok {
		return "", false, nil
	}

	if err := ctx.push(name); err != nil {
		return "", false, err
	}
	defer ctx.pop()

	expanded, err := Expand(value, h, ctx)
	if err != nil {
		return "", false, err
	}

	return expanded, true, nil
}

func isIdent(c byte, continuation bool) bool {
	if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' {
		return true
	}
	return continuation && c >= '0' && c <= '9'
}
