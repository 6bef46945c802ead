// =============================================================================
// Receipt Normalizer - Raw Node Accessors
// =============================================================================
//
// The upstream payload is decoded into plain Go values (map[string]any,
// []any, string, float64, json.Number, bool, nil). Nothing outside this
// package reads a raw node directly; every field goes through one of the
// accessors below, each of which checks the shape before using it and
// reports absence instead of failing.
//
// =============================================================================

package extract

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Lookup walks nested objects by key. It returns nil when any step is
// missing or is not an object.
func Lookup(node any, path ...string) any {
	cur := node
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[key]
		if !ok {
			return nil
		}
	}
	return cur
}

// Map returns node as an object.
func Map(node any) (map[string]any, bool) {
	m, ok := node.(map[string]any)
	return m, ok
}

// Slice returns node as an array.
func Slice(node any) []any {
	s, _ := node.([]any)
	return s
}

// String returns a trimmed, non-empty string. Numbers are rendered in their
// shortest form so that identifiers such as order numbers survive either
// encoding.
func String(node any) (string, bool) {
	var s string
	switch v := node.(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", false
		}
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	default:
		return "", false
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// StringPtr is String returning a pointer, nil when absent.
func StringPtr(node any) *string {
	s, ok := String(node)
	if !ok {
		return nil
	}
	return &s
}

// Number returns a finite number. Only real numeric values are accepted;
// numeric strings are left to the coercing extractors that want them.
func Number(node any) (float64, bool) {
	var f float64
	switch v := node.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Coerce is Number that also accepts numeric strings.
func Coerce(node any) (float64, bool) {
	if f, ok := Number(node); ok {
		return f, true
	}
	s, ok := node.(string)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Int is Number truncated toward zero. Values outside the int range are
// absent.
func Int(node any) (int, bool) {
	f, ok := Number(node)
	if !ok || f < math.MinInt || f >= -float64(math.MinInt) {
		return 0, false
	}
	return int(f), true
}

// Bool returns a boolean value.
func Bool(node any) (bool, bool) {
	b, ok := node.(bool)
	return b, ok
}
