package policy

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// intField reads key as an integer. Integral numbers, booleans and numeric
// strings coerce; fractional floats truncate toward zero and saturate at the
// int range.
func intField(raw map[string]any, key string, def int) (int, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return def, nil
	}

	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case int32:
		return int(n), nil
	case uint64:
		if n > math.MaxInt {
			return 0, &ValidationError{Field: key, Value: v, Reason: "integer out of range"}
		}
		return int(n), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, &ValidationError{Field: key, Value: v, Reason: "not a finite number"}
		}
		// float64(math.MaxInt) rounds up to 2^63, so the bound is exclusive.
		if n >= float64(math.MaxInt) {
			return math.MaxInt, nil
		}
		if n <= float64(math.MinInt) {
			return math.MinInt, nil
		}
		return int(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, &ValidationError{Field: key, Value: v, Reason: "not an integer"}
		}
		return i, nil
	default:
		return 0, &ValidationError{Field: key, Value: v, Reason: fmt.Sprintf("cannot use %T as integer", v)}
	}
}

// boolField reads key as a boolean. Numbers are true when non-zero and
// strings must parse with strconv.ParseBool.
func boolField(raw map[string]any, key string, def bool) (bool, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return def, nil
	}

	switch b := v.(type) {
	case bool:
		return b, nil
	case int:
		return b != 0, nil
	case int64:
		return b != 0, nil
	case float64:
		return b != 0, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, &ValidationError{Field: key, Value: v, Reason: "not a boolean"}
		}
		return parsed, nil
	default:
		return false, &ValidationError{Field: key, Value: v, Reason: fmt.Sprintf("cannot use %T as boolean", v)}
	}
}

// stringsField reads key as a list of strings. A single string is a
// one-element list; list items must be scalars and are rendered with fmt.
func stringsField(raw map[string]any, key string) ([]string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}

	switch list := v.(type) {
	case []string:
		return append([]string{}, list...), nil
	case string:
		if list == "" {
			return nil, nil
		}
		return []string{list}, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			switch item.(type) {
			case string, bool, int, int64, float64:
				out = append(out, fmt.Sprint(item))
			default:
				return nil, &ValidationError{Field: key, Value: v, Reason: fmt.Sprintf("list item %T is not a scalar", item)}
			}
		}
		return out, nil
	default:
		return nil, &ValidationError{Field: key, Value: v, Reason: fmt.Sprintf("cannot use %T as string list", v)}
	}
}
