package ucl

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Sentinel errors - decoder
var (
	ErrDecodeTarget    = errors.New("decode target must be a non-nil pointer")
	ErrTypeMismatch    = errors.New("cannot decode value into target type")
	ErrUnsupportedType = errors.New("unsupported decode target type")
	ErrIntegerOverflow = errors.New("integer value overflows target type")
)

// Decode maps a configuration tree onto the value pointed to by target.
//
// Struct fields are matched through `ucl:"name"` tags, falling back to the
// lowercased field name. A tag of "-" skips the field. Slices accept both
// arrays and single values (a single value decodes as a one-element
// slice), matching how repeated keys collapse and expand in UCL.
func Decode(v Value, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &Error{Stage: StageDecode, Err: ErrDecodeTarget}
	}

	if err := decodeValue(v, rv.Elem()); err != nil {
		return &Error{Stage: StageDecode, Err: err}
	}

	return nil
}

func decodeValue(v Value, rv reflect.Value) error {
	// Unwrap pointers, allocating along the way. Null clears the pointer.
	for rv.Kind() == reflect.Pointer {
		if v == nil || v.Kind() == KindNull {
			rv.SetZero()
			return nil
		}
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		rv = rv.Elem()
	}

	if rv.Kind() == reflect.Interface && rv.NumMethod() == 0 {
		if v == nil || v.Kind() == KindNull {
			rv.SetZero()
			return nil
		}
		rv.Set(reflect.ValueOf(ToAny(v)))
		return nil
	}

	if v == nil || v.Kind() == KindNull {
		rv.SetZero()
		return nil
	}

	// A single value decodes into a slice as its only element.
	if rv.Kind() == reflect.Slice && v.Kind() != KindArray {
		return decodeArray(Array{v}, rv)
	}

	switch t := v.(type) {
	case String:
		if rv.Kind() != reflect.String {
			return mismatch(v, rv)
		}
		rv.SetString(string(t))
		return nil
	case Bool:
		if rv.Kind() != reflect.Bool {
			return mismatch(v, rv)
		}
		rv.SetBool(bool(t))
		return nil
	case Integer:
		return decodeInteger(int64(t), v, rv)
	case Float:
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			rv.SetFloat(float64(t))
			return nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if float64(t) == math.Trunc(float64(t)) {
				return decodeInteger(int64(t), v, rv)
			}
		}
		return mismatch(v, rv)
	case Array:
		return decodeArray(t, rv)
	case *Object:
		return decodeObject(t, rv)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, rv.Type())
	}
}

func decodeInteger(n int64, v Value, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.OverflowInt(n) {
			return fmt.Errorf("%w: %d into %s", ErrIntegerOverflow, n, rv.Type())
		}
		rv.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n < 0 || rv.OverflowUint(uint64(n)) {
			return fmt.Errorf("%w: %d into %s", ErrIntegerOverflow, n, rv.Type())
		}
		rv.SetUint(uint64(n))
		return nil
	case reflect.Float32, reflect.Float64:
		rv.SetFloat(float64(n))
		return nil
	default:
		return mismatch(v, rv)
	}
}

func decodeArray(a Array, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Slice:
		out := reflect.MakeSlice(rv.Type(), len(a), len(a))
		for i, e := range a {
			if err := decodeValue(e, out.Index(i)); err != nil {
				return err
			}
		}
		rv.Set(out)
		return nil
	case reflect.Array:
		if rv.Len() < len(a) {
			return fmt.Errorf("%w: %d elements into [%d]%s", ErrTypeMismatch, len(a), rv.Len(), rv.Type().Elem())
		}
		for i, e := range a {
			if err := decodeValue(e, rv.Index(i)); err != nil {
				return err
			}
		}
		return nil
	default:
		return mismatch(a, rv)
	}
}

func decodeObject(o *Object, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return mismatch(o, rv)
		}
		out := reflect.MakeMapWithSize(rv.Type(), o.Len())
		for k, e := range o.Items() {
			elem := reflect.New(rv.Type().Elem()).Elem()
			if err := decodeValue(e, elem); err != nil {
				return err
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(rv.Type().Key()), elem)
		}
		rv.Set(out)
		return nil
	case reflect.Struct:
		return decodeStruct(o, rv)
	default:
		return mismatch(o, rv)
	}
}

func decodeStruct(o *Object, rv reflect.Value) error {
	t := rv.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name := fieldName(field)
		if name == "" {
			continue
		}

		e, ok := o.Get(name)
		if !ok {
			continue
		}

		if err := decodeValue(e, rv.Field(i)); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}
	return nil
}

func fieldName(field reflect.StructField) string {
	tag, ok := field.Tag.Lookup("ucl")
	if !ok {
		return strings.ToLower(field.Name)
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return strings.ToLower(field.Name)
	}
	return name
}

func mismatch(v Value, rv reflect.Value) error {
	return fmt.Errorf("%w: %s into %s", ErrTypeMismatch, v.Kind(), rv.Type())
}
