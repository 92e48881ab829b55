package operation

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Values holds the parameters of an operation. Loaders produce plain Go
// values: string, bool, int64, float64, []any and map[string]any.
type Values map[string]any

// Has reports whether key is present with a non-nil value.
func (v Values) Has(key string) bool {
	val, ok := v[key]
	return ok && val != nil
}

// String returns the value at key as a string. Scalars are formatted; a
// missing key yields def.
func (v Values) String(key, def string) string {
	val, ok := v[key]
	if !ok || val == nil {
		return def
	}
	switch t := val.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// Int returns the value at key as an int.
func (v Values) Int(key string, def int) (int, error) {
	val, ok := v[key]
	if !ok || val == nil {
		return def, nil
	}
	switch t := val.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case int32:
		return int(t), nil
	case uint64:
		return int(t), nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("value '%s' must be a whole number, got %v", key, t)
		}
		return int(t), nil
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, fmt.Errorf("value '%s' must be a number: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("value '%s' must be a number, got %T", key, val)
	}
}

// Bool returns the value at key as a bool.
func (v Values) Bool(key string, def bool) (bool, error) {
	val, ok := v[key]
	if !ok || val == nil {
		return def, nil
	}
	switch t := val.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(t)
		if err != nil {
			return false, fmt.Errorf("value '%s' must be a bool: %w", key, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("value '%s' must be a bool, got %T", key, val)
	}
}

// Strings returns the value at key as a list of strings. A single scalar is
// returned as a one-element list.
func (v Values) Strings(key string) []string {
	val, ok := v[key]
	if !ok || val == nil {
		return nil
	}
	switch t := val.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, len(t))
		for i, item := range t {
			out[i] = fmt.Sprint(item)
		}
		return out
	default:
		return []string{v.String(key, "")}
	}
}

// Keys returns the value keys in sorted order.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
