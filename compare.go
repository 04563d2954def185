package vgrid

import (
	"cmp"
	"fmt"
	"reflect"
	"time"
)

// CompareFunc orders two present (non-missing) values: negative if a < b,
// zero if equal, positive if a > b.
type CompareFunc func(a, b any) int

// CompareValues compares two values, handling numeric kinds natively so that
// int and float columns sort by magnitude, and falling back to comparing
// string representations for anything else.
func CompareValues(a, b any) int {
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}

	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if !av.IsValid() || !bv.IsValid() {
		return cmp.Compare(boolRank(av.IsValid()), boolRank(bv.IsValid()))
	}

	switch {
	case isNumberKind(av.Kind()) && isNumberKind(bv.Kind()):
		af, _ := toFloat64(numberOf(av))
		bf, _ := toFloat64(numberOf(bv))
		if isIntKind(av.Kind()) && isIntKind(bv.Kind()) {
			return cmp.Compare(av.Int(), bv.Int())
		}
		if isUintKind(av.Kind()) && isUintKind(bv.Kind()) {
			return cmp.Compare(av.Uint(), bv.Uint())
		}
		return cmp.Compare(af, bf)
	case av.Kind() == reflect.String && bv.Kind() == reflect.String:
		return cmp.Compare(av.String(), bv.String())
	case av.Kind() == reflect.Bool && bv.Kind() == reflect.Bool:
		return cmp.Compare(boolRank(av.Bool()), boolRank(bv.Bool()))
	default:
		return cmp.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isIntKind(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUintKind(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isNumberKind(k reflect.Kind) bool {
	return isIntKind(k) || isUintKind(k) || k == reflect.Float32 || k == reflect.Float64
}

// numberOf normalises named numeric types to their builtin kind.
func numberOf(v reflect.Value) any {
	switch {
	case isIntKind(v.Kind()):
		return v.Int()
	case isUintKind(v.Kind()):
		return v.Uint()
	default:
		return v.Float()
	}
}
