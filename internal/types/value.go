package types

import (
	"reflect"
	"time"
)

// Range is an inclusive (start, end) pair rendered as BETWEEN.
type Range struct {
	Start any
	End   any
}

// To builds a Range. Two strings that both parse as dates become a
// time.Time range.
func To(start, end any) Range {
	s, sok := start.(string)
	e, eok := end.(string)
	if sok && eok {
		if ts, err := time.Parse(time.DateOnly, s); err == nil {
			if te, err := time.Parse(time.DateOnly, e); err == nil {
				return Range{Start: ts, End: te}
			}
		}
	}
	return Range{Start: start, End: end}
}

// ValueKind is the SQL shape a bound value takes.
type ValueKind uint8

const (
	ValueScalar ValueKind = iota
	ValueNull
	ValueRange
	ValueList
)

func (k ValueKind) String() string {
	switch k {
	case ValueNull:
		return "null"
	case ValueRange:
		return "range"
	case ValueList:
		return "list"
	default:
		return "scalar"
	}
}

// Classify decides how v is rendered. Strings and byte slices are scalar
// even though they are sequences.
func Classify(v any) ValueKind {
	switch v.(type) {
	case nil:
		return ValueNull
	case Range, *Range:
		return ValueRange
	case string, []byte:
		return ValueScalar
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return ValueList
	case reflect.Pointer, reflect.Interface, reflect.Map:
		if rv.IsNil() {
			return ValueNull
		}
	}
	return ValueScalar
}

// RangeOf returns v as a Range; ok is false when v is not one.
func RangeOf(v any) (Range, bool) {
	switch r := v.(type) {
	case Range:
		return r, true
	case *Range:
		if r != nil {
			return *r, true
		}
	}
	return Range{}, false
}

// Elements flattens a slice or array value into its items.
func Elements(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
