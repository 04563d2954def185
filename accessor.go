package vgrid

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/tidwall/gjson"
)

// Value adapts a plain getter into an Accessor that never fails.
func Value[T any](fn func(rec T) any) Accessor[T] {
	return func(rec T) (any, error) { return fn(rec), nil }
}

// Field returns an accessor that walks a dot-separated path through structs
// (exported field names) and string-keyed maps, dereferencing pointers and
// interfaces on the way. A path that does not resolve yields ErrMissingValue.
func Field[T any](path string) Accessor[T] {
	parts := strings.Split(path, ".")
	return func(rec T) (any, error) {
		v := reflect.ValueOf(rec)
		for _, part := range parts {
			v = indirect(v)
			if !v.IsValid() {
				return nil, fmt.Errorf("%w: %s", ErrMissingValue, path)
			}
			switch v.Kind() {
			case reflect.Struct:
				v = v.FieldByName(part)
			case reflect.Map:
				if v.Type().Key().Kind() != reflect.String {
					return nil, fmt.Errorf("%w: %s", ErrMissingValue, path)
				}
				v = v.MapIndex(reflect.ValueOf(part).Convert(v.Type().Key()))
			default:
				return nil, fmt.Errorf("%w: %s", ErrMissingValue, path)
			}
			if !v.IsValid() {
				return nil, fmt.Errorf("%w: %s", ErrMissingValue, path)
			}
		}
		v = indirect(v)
		if !v.IsValid() || !v.CanInterface() {
			return nil, fmt.Errorf("%w: %s", ErrMissingValue, path)
		}
		return v.Interface(), nil
	}
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// JSONField returns an accessor over raw JSON records using a gjson path
// such as "address.city" or "tags.0". Numbers come back as float64,
// strings as string, booleans as bool; objects and arrays as their raw text.
func JSONField(path string) Accessor[[]byte] {
	return func(rec []byte) (any, error) {
		res := gjson.GetBytes(rec, path)
		if !res.Exists() {
			return nil, fmt.Errorf("%w: %s", ErrMissingValue, path)
		}
		switch res.Type {
		case gjson.Null:
			return nil, fmt.Errorf("%w: %s", ErrMissingValue, path)
		case gjson.Number:
			return res.Float(), nil
		case gjson.String:
			return res.String(), nil
		case gjson.True, gjson.False:
			return res.Bool(), nil
		default:
			return res.Raw, nil
		}
	}
}

// safeAccess evaluates an accessor, converting panics into errors so a
// single malformed record cannot take down the pipeline.
func safeAccess[T any](acc Accessor[T], rec T) (v any, err error) {
	if acc == nil {
		return nil, ErrMissingValue
	}
	defer func() {
		if r := recover(); r != nil {
			if anErr, ok := r.(error); ok {
				err = fmt.Errorf("accessor panic: %w", anErr)
			} else {
				err = fmt.Errorf("accessor panic: %v", r)
			}
		}
	}()
	return acc(rec)
}
