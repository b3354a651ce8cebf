package query

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ruleJSON is the wire shape of a Rule.
type ruleJSON struct {
	ID          string          `json:"id,omitempty"`
	Field       string          `json:"field"`
	Operator    string          `json:"operator"`
	ValueSource ValueSource     `json:"valueSource,omitempty"`
	Value       json.RawMessage `json:"value"`
	Disabled    bool            `json:"disabled,omitempty"`
	Muted       bool            `json:"muted,omitempty"`
	Match       *Match          `json:"match,omitempty"`
}

// groupJSON is the wire shape of a RuleGroup. A nil Combinator marks IC form.
type groupJSON struct {
	ID         string            `json:"id,omitempty"`
	Combinator *string           `json:"combinator,omitempty"`
	Not        bool              `json:"not"`
	Rules      []json.RawMessage `json:"rules"`
	Disabled   bool              `json:"disabled,omitempty"`
	Muted      bool              `json:"muted,omitempty"`
}

// MarshalJSON implements json.Marshaler for Rule.
func (r *Rule) MarshalJSON() ([]byte, error) {
	val, err := marshalValue(r.Value)
	if err != nil {
		return nil, fmt.Errorf("rule %q value: %w", r.ID, err)
	}
	return json.Marshal(ruleJSON{
		ID:          r.ID,
		Field:       r.Field,
		Operator:    r.Operator,
		ValueSource: r.ValueSource,
		Value:       val,
		Disabled:    r.Disabled,
		Muted:       r.Muted,
		Match:       r.Match,
	})
}

// UnmarshalJSON implements json.Unmarshaler for Rule.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var raw ruleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	val, err := unmarshalValue(raw.Value)
	if err != nil {
		return fmt.Errorf("rule %q value: %w", raw.ID, err)
	}
	*r = Rule{
		ID:          raw.ID,
		Field:       raw.Field,
		Operator:    raw.Operator,
		Value:       val,
		ValueSource: raw.ValueSource,
		Disabled:    raw.Disabled,
		Muted:       raw.Muted,
		Match:       raw.Match,
	}
	return nil
}

// MarshalJSON implements json.Marshaler for RuleGroup.
func (g *RuleGroup) MarshalJSON() ([]byte, error) {
	out := groupJSON{
		ID:       g.ID,
		Not:      g.Not,
		Rules:    make([]json.RawMessage, len(g.Rules)),
		Disabled: g.Disabled,
		Muted:    g.Muted,
	}
	if !g.IsIC() {
		c := string(g.Combinator)
		out.Combinator = &c
	}
	for i, e := range g.Rules {
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}
		out.Rules[i] = data
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler for RuleGroup.
// String elements decode as Combinator, objects with a "rules" key as
// *RuleGroup, and any other object as *Rule.
func (g *RuleGroup) UnmarshalJSON(data []byte) error {
	var raw groupJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rules := make([]Element, len(raw.Rules))
	for i, msg := range raw.Rules {
		e, err := unmarshalElement(msg)
		if err != nil {
			return fmt.Errorf("rules[%d]: %w", i, err)
		}
		rules[i] = e
	}
	*g = RuleGroup{
		ID:       raw.ID,
		Not:      raw.Not,
		Rules:    rules,
		Disabled: raw.Disabled,
		Muted:    raw.Muted,
	}
	if raw.Combinator != nil {
		g.Combinator = Combinator(*raw.Combinator)
	}
	return nil
}

// MarshalJSON implements json.Marshaler for Combinator.
func (c Combinator) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(c))
}

// Parse decodes a tree from JSON.
func Parse(data []byte) (*RuleGroup, error) {
	var g RuleGroup
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	return &g, nil
}

func unmarshalElement(data []byte) (Element, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty element")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return Combinator(s), nil
	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(data, &probe); err != nil {
			return nil, err
		}
		if _, ok := probe["rules"]; ok {
			var g RuleGroup
			if err := json.Unmarshal(data, &g); err != nil {
				return nil, err
			}
			return &g, nil
		}
		var r Rule
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return &r, nil
	default:
		return nil, fmt.Errorf("element must be a string, rule or group")
	}
}

func marshalValue(v Value) (json.RawMessage, error) {
	switch val := v.(type) {
	case nil:
		return json.RawMessage(`""`), nil
	case List:
		parts := make([]json.RawMessage, len(val))
		for i, elem := range val {
			b, err := marshalValue(elem)
			if err != nil {
				return nil, err
			}
			parts[i] = b
		}
		return json.Marshal(parts)
	case String:
		return json.Marshal(string(val))
	case Number:
		return json.Marshal(float64(val))
	case Bool:
		return json.Marshal(bool(val))
	case *RuleGroup:
		return json.Marshal(val)
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

func unmarshalValue(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return String(""), nil
	}
	if data[0] == '{' {
		var g RuleGroup
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, err
		}
		return &g, nil
	}
	if data[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		out := make(List, len(raw))
		for i, elem := range raw {
			v, err := unmarshalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return ValueOf(v)
}
