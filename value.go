// Package ucl holds the shared data model of the UCL parser: the typed
// configuration tree, the top-level error classification and the decoder
// that maps trees onto user structures.
package ucl

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the concrete type behind a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInteger
	KindFloat
	KindBool
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "boolean"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value is one node of a configuration tree.
type Value interface {
	Kind() Kind
}

type String string

func (String) Kind() Kind { return KindString }

type Integer int64

func (Integer) Kind() Kind { return KindInteger }

type Float float64

func (Float) Kind() Kind { return KindFloat }

type Bool bool

func (Bool) Kind() Kind { return KindBool }

type Null struct{}

func (Null) Kind() Kind { return KindNull }

type Array []Value

func (Array) Kind() Kind { return KindArray }

// Object is an insertion-ordered map from unique keys to values.
type Object struct {
	keys   []string
	values map[string]Value
}

func (*Object) Kind() Kind { return KindObject }

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{values: map[string]Value{}}
}

// Len returns the number of keys.
func (o *Object) Len() int {
	return len(o.keys)
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Set stores v under key. A new key is appended; an existing key keeps its
// original position.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Keys returns the keys in insertion order. The slice is shared; callers
// must not modify it.
func (o *Object) Keys() []string {
	return o.keys
}

// Items iterates entries in insertion order.
func (o *Object) Items() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, k := range o.keys {
			if !yield(k, o.values[k]) {
				return
			}
		}
	}
}

// ToAny converts a tree to plain Go values (map[string]any, []any,
// string, int64, float64, bool, nil). Object key order is lost.
func ToAny(v Value) any {
	switch t := v.(type) {
	case String:
		return string(t)
	case Integer:
		return int64(t)
	case Float:
		return float64(t)
	case Bool:
		return bool(t)
	case Null, nil:
		return nil
	case Array:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = ToAny(e)
		}
		return out
	case *Object:
		out := make(map[string]any, t.Len())
		for k, e := range t.Items() {
			out[k] = ToAny(e)
		}
		return out
	default:
		return nil
	}
}

// String renders the tree in a compact JSON-like form, mainly for tests
// and debugging output.
func Format(v Value) string {
	var sb strings.Builder
	format(&sb, v)
	return sb.String()
}

func format(sb *strings.Builder, v Value) {
	switch t := v.(type) {
	case String:
		sb.WriteString(strconv.Quote(string(t)))
	case Integer:
		sb.WriteString(strconv.FormatInt(int64(t), 10))
	case Float:
		switch {
		case math.IsInf(float64(t), 1):
			sb.WriteString("inf")
		case math.IsInf(float64(t), -1):
			sb.WriteString("-inf")
		case math.IsNaN(float64(t)):
			sb.WriteString("nan")
		default:
			sb.WriteString(strconv.FormatFloat(float64(t), 'g', -1, 64))
		}
	case Bool:
		sb.WriteString(strconv.FormatBool(bool(t)))
	case Null, nil:
		sb.WriteString("null")
	case Array:
		sb.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				sb.WriteByte(',')
			}
			format(sb, e)
		}
		sb.WriteByte(']')
	case *Object:
		sb.WriteByte('{')
		first := true
		for k, e := range t.Items() {
			if !first {
				sb.WriteByte(',')
			}
			first = false
			fmt.Fprintf(sb, "%s:", strconv.Quote(k))
			format(sb, e)
		}
		sb.WriteByte('}')
	}
}
