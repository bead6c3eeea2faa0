package expand

import "os"

// Handler maps a variable name to its replacement text. Returning false
// leaves the reference alone (or selects its fallback).
type Handler interface {
	Resolve(name string, ctx *Context) (string, bool)
}

// MapHandler resolves variables from a fixed map.
type MapHandler map[string]string

func (m MapHandler) Resolve(name string, _ *Context) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// EnvHandler resolves variables from the process environment.
type EnvHandler struct{}

func (EnvHandler) Resolve(name string, _ *Context) (string, bool) {
	return os.LookupEnv(name)
}

// ChainHandler tries each handler in registration order; the first one
// that returns a value wins.
type ChainHandler []Handler

func (c ChainHandler) Resolve(name string, ctx *Context) (string, bool) {
	for _, h := range c {
		if v, ok := h.Resolve(name, ctx); ok {
			return v, true
		}
	}
	return "", false
}

// FuncHandler adapts a plain function to the Handler interface.
type FuncHandler func(name string, ctx *Context) (string, bool)

func (f FuncHandler) Resolve(name string, ctx *Context) (string, bool) {
	return f(name, ctx)
}
