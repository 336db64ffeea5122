package mapstate

import (
	"encoding/json"
	"math"
	"reflect"
)

// Sanitize returns a deep copy of v built only from plain values: nil,
// bool, finite float64, string, []any and map[string]any. Numbers of any
// kind become float64. Functions, channels, structs, complex numbers,
// non-finite floats, maps with non-string keys and back-references that
// would form a cycle are dropped. A value that is dropped at the top level
// yields nil.
func Sanitize(v any) any {
	out, _ := sanitize(reflect.ValueOf(v), map[uintptr]bool{})
	return out
}

func sanitize(rv reflect.Value, path map[uintptr]bool) (any, bool) {
	if !rv.IsValid() {
		return nil, true
	}
	if rv.Type() == reflect.TypeOf(json.Number("")) {
		f, err := json.Number(rv.String()).Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		return f, true
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return nil, true
		}
		return sanitize(rv.Elem(), path)
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, true
		}
		p := rv.Pointer()
		if path[p] {
			return nil, false
		}
		path[p] = true
		defer delete(path, p)
		return sanitize(rv.Elem(), path)
	case reflect.Bool:
		return rv.Bool(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		return f, true
	case reflect.String:
		return rv.String(), true
	case reflect.Slice:
		if rv.IsNil() {
			return nil, true
		}
		if rv.Len() > 0 {
			p := rv.Pointer()
			if path[p] {
				return nil, false
			}
			path[p] = true
			defer delete(path, p)
		}
		return sanitizeList(rv, path), true
	case reflect.Array:
		return sanitizeList(rv, path), true
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		if rv.IsNil() {
			return nil, true
		}
		p := rv.Pointer()
		if path[p] {
			return nil, false
		}
		path[p] = true
		defer delete(path, p)
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			if v, ok := sanitize(iter.Value(), path); ok {
				out[iter.Key().String()] = v
			}
		}
		return out, true
	default:
		// func, chan, struct, complex, unsafe pointer
		return nil, false
	}
}

func sanitizeList(rv reflect.Value, path map[uintptr]bool) []any {
	out := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		if v, ok := sanitize(rv.Index(i), path); ok {
			out = append(out, v)
		}
	}
	return out
}
