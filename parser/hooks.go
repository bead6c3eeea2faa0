package parser

import (
	"slices"

	"github.com/shibukawa/ucl"
	"github.com/shibukawa/ucl/expand"
)

// SuffixHandler resolves numeric suffixes the built-in time/size tables
// rejected. Returning false passes the suffix to the next handler.
type SuffixHandler interface {
	ParseSuffix(suffix string) (multiplier float64, ok bool)
}

// StringProcessor transforms final string values before they enter the
// tree.
type StringProcessor interface {
	ProcessString(s string, ctx *expand.Context) (string, error)
}

// Validator inspects keys and fully constructed values before insertion.
// Either method may substitute its input or reject it with an error.
type Validator interface {
	ValidateKey(key string, ctx *expand.Context) (string, error)
	ValidateValue(v ucl.Value, ctx *expand.Context) (ucl.Value, error)
}

type hookEntry[T any] struct {
	hook     T
	priority int
}

// insertHook keeps the vector sorted by descending priority; equal
// priorities stay in registration order.
func insertHook[T any](hooks []hookEntry[T], h T, priority int) []hookEntry[T] {
	hooks = append(hooks, hookEntry[T]{hook: h, priority: priority})
	slices.SortStableFunc(hooks, func(a, b hookEntry[T]) int {
		return b.priority - a.priority
	})
	return hooks
}

// AddSuffixHandler registers a numeric suffix handler.
func (p *Parser) AddSuffixHandler(h SuffixHandler, priority int) {
	p.suffixHooks = insertHook(p.suffixHooks, h, priority)
}

// AddStringProcessor registers a string post-processor.
func (p *Parser) AddStringProcessor(h StringProcessor, priority int) {
	p.stringHooks = insertHook(p.stringHooks, h, priority)
}

// AddValidator registers a key/value validation hook.
func (p *Parser) AddValidator(h Validator, priority int) {
	p.validators = insertHook(p.validators, h, priority)
}

// AddVariableHandler appends a variable handler. Handlers are consulted
// in registration order; the first that resolves a name wins.
func (p *Parser) AddVariableHandler(h expand.Handler) {
	p.varHandlers = append(p.varHandlers, h)
}

func (p *Parser) applyStringHooks(s string) (string, error) {
	for _, e := range p.stringHooks {
		out, err := e.hook.ProcessString(s, p.ctx)
		if err != nil {
			return "", err
		}
		s = out
	}
	return s, nil
}

func (p *Parser) applyKeyValidators(key string) (string, error) {
	for _, e := range p.validators {
		out, err := e.hook.ValidateKey(key, p.ctx)
		if err != nil {
			return "", err
		}
		key = out
	}
	return key, nil
}

func (p *Parser) applyValueValidators(v ucl.Value) (ucl.Value, error) {
	for _, e := range p.validators {
		out, err := e.hook.ValidateValue(v, p.ctx)
		if err != nil {
			return nil, err
		}
		v = out
	}
	return v, nil
}
