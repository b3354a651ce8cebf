package query

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Value is a sealed interface for rule values.
// Only String, Number, Bool, List and *RuleGroup (a sub-query) implement it.
// A nil Value is treated as the empty string.
type Value interface {
	value() // Sealed - only these types implement it
}

// String is a text value.
type String string

func (String) value() {}

// Number is a numeric value. JSON numbers decode to Number.
type Number float64

func (Number) value() {}

// Bool is a boolean value, used by checkbox and switch editors.
type Bool bool

func (Bool) value() {}

// List is a multi-value input: a list editor or a between pair.
type List []Value

func (List) value() {}

// Strings builds a List of String values.
func Strings(vals ...string) List {
	out := make(List, len(vals))
	for i, v := range vals {
		out[i] = String(v)
	}
	return out
}

// ValueOf converts a plain Go value (as produced by encoding/json, yaml.v3
// or literal code) into a Value.
func ValueOf(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return String(""), nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Number(val), nil
	case int32:
		return Number(val), nil
	case int64:
		return Number(val), nil
	case float32:
		return Number(val), nil
	case float64:
		return Number(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %q: %w", val, err)
		}
		return Number(f), nil
	case []string:
		return Strings(val...), nil
	case []Value:
		return List(val), nil
	case []any:
		out := make(List, len(val))
		for i, elem := range val {
			ev, err := ValueOf(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = ev
		}
		return out, nil
	case map[string]any:
		if _, ok := val["rules"]; !ok {
			return nil, fmt.Errorf("object value must be a rule group")
		}
		data, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		var g RuleGroup
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, err
		}
		return &g, nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

// MustValueOf is like ValueOf but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustValueOf(v any) Value {
	val, err := ValueOf(v)
	if err != nil {
		panic(err)
	}
	return val
}

// ValueString renders a value the way a comma-joined text input would.
func ValueString(v Value) string {
	switch val := v.(type) {
	case nil:
		return ""
	case String:
		return string(val)
	case Number:
		return strconv.FormatFloat(float64(val), 'f', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(val))
	case List:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = ValueString(elem)
		}
		return strings.Join(parts, ",")
	case *RuleGroup:
		return val.ID
	default:
		return ""
	}
}

// ValuesEqual reports whether two values are equal. Sub-queries compare
// by identity.
func ValuesEqual(a, b Value) bool {
	if a == nil {
		a = String("")
	}
	if b == nil {
		b = String("")
	}
	switch av := a.(type) {
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !ValuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *RuleGroup:
		bv, ok := b.(*RuleGroup)
		return ok && av == bv
	default:
		return a == b
	}
}
