package expand

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestExpand(t *testing.T) {
	h := MapHandler{
		"HOST": "example.com",
		"PORT": "8080",
		"URL":  "https://$HOST:$PORT",
		"A_1":  "one",
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "no references", input: "plain text", expected: "plain text"},
		{name: "bare reference", input: "host is $HOST", expected: "host is example.com"},
		{name: "braced reference", input: "https://${HOST}/api", expected: "https://example.com/api"},
		{name: "adjacent text", input: "${HOST}${PORT}", expected: "example.com8080"},
		{name: "greedy bare name", input: "$HOSTNAME", expected: "$HOSTNAME"},
		{name: "braced disambiguates", input: "${HOST}NAME", expected: "example.comNAME"},
		{name: "digits in name", input: "$A_1", expected: "one"},
		{name: "unknown preserved", input: "$MISSING stays", expected: "$MISSING stays"},
		{name: "unknown braced preserved", input: "${MISSING} stays", expected: "${MISSING} stays"},
		{name: "escaped dollar", input: "cost: $$5", expected: "cost: $5"},
		{name: "lone dollar", input: "a $ b", expected: "a $ b"},
		{name: "trailing dollar", input: "end$", expected: "end$"},
		{name: "dollar before digit", input: "$1", expected: "$1"},
		{name: "nested resolution", input: "$URL", expected: "https://example.com:8080"},
		{name: "fallback ignored on hit", input: "${HOST:-localhost}", expected: "example.com"},
		{name: "fallback used on miss", input: "${MISSING:-localhost}", expected: "localhost"},
		{name: "empty fallback", input: "${MISSING:-}", expected: ""},
		{name: "fallback with reference", input: "${MISSING:-$HOST}", expected: "example.com"},
		{name: "fallback with braces", input: "${MISSING:-${PORT:-80}}", expected: "8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.input, h, nil)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExpandNilHandler(t *testing.T) {
	got, err := Expand("$HOME and ${USER:-guest}", nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, "$HOME and guest", got)
}

func TestMalformedReferences(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty braces", input: "${}"},
		{name: "unclosed brace", input: "${HOME"},
		{name: "bad fallback marker", input: "${HOME:=x}"},
		{name: "invalid name character", input: "${HO ME}"},
		{name: "unclosed fallback", input: "${A:-${B}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Expand(tt.input, MapHandler{}, nil)
			assert.True(t, errors.Is(err, ErrMalformedReference))
		})
	}
}

func TestExpansionCycle(t *testing.T) {
	h := MapHandler{
		"A": "$B",
		"B": "$C",
		"C": "$A",
	}

	_, err := Expand("$A", h, nil)
	assert.True(t, errors.Is(err, ErrExpansionCycle))

	var expErr *Error
	assert.True(t, errors.As(err, &expErr))
	assert.Equal(t, []string{"A", "B", "C", "A"}, expErr.Cycle)
}

func TestSelfCycle(t *testing.T) {
	_, err := Expand("$SELF", MapHandler{"SELF": "$SELF"}, nil)
	assert.True(t, errors.Is(err, ErrExpansionCycle))
}

func TestCycleOnlyWhenReached(t *testing.T) {
	h := MapHandler{"A": "$B", "B": "$A", "OK": "fine"}

	// the cyclic pair is never resolved
	got, err := Expand("$OK", h, nil)
	assert.NoError(t, err)
	assert.Equal(t, "fine", got)
}

func TestFallbackCycleIsLazy(t *testing.T) {
	// the fallback would cycle, but the primary name resolves
	h := MapHandler{"A": "${A:-x}", "HIT": "value"}

	got, err := Expand("${HIT:-$A}", h, nil)
	assert.NoError(t, err)
	assert.Equal(t, "value", got)
}

func TestChainHandler(t *testing.T) {
	first := MapHandler{"NAME": "from-first"}
	second := MapHandler{"NAME": "from-second", "OTHER": "other"}

	h := ChainHandler{first, second}

	got, err := Expand("$NAME $OTHER $NONE", h, nil)
	assert.NoError(t, err)
	assert.Equal(t, "from-first other $NONE", got)
}

func TestFuncHandler(t *testing.T) {
	h := FuncHandler(func(name string, ctx *Context) (string, bool) {
		if name == "DOUBLE" {
			return "xx", true
		}
		return "", false
	})

	got, err := Expand("$DOUBLE $SINGLE", h, nil)
	assert.NoError(t, err)
	assert.Equal(t, "xx $SINGLE", got)
}

func TestEnvHandler(t *testing.T) {
	t.Setenv("UCL_EXPAND_TEST", "from-env")

	got, err := Expand("$UCL_EXPAND_TEST", EnvHandler{}, nil)
	assert.NoError(t, err)
	assert.Equal(t, "from-env", got)
}

func TestContextPathVisibleToHandlers(t *testing.T) {
	var seen []string
	h := FuncHandler(func(name string, ctx *Context) (string, bool) {
		seen = append(seen, ctx.Path...)
		return "v", true
	})

	ctx := &Context{Path: []string{"server", "listen"}}
	_, err := Expand("$X", h, ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"server", "listen"}, seen)
}
