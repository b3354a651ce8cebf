package engine

import (
	"strings"

	"github.com/roach88/querybuilder/internal/options"
	"github.com/roach88/querybuilder/internal/query"
	"github.com/roach88/querybuilder/internal/treepath"
)

// Prop names an updatable property.
type Prop string

const (
	PropField       Prop = "field"
	PropOperator    Prop = "operator"
	PropValue       Prop = "value"
	PropValueSource Prop = "valueSource"
	PropMatch       Prop = "match"
	PropCombinator  Prop = "combinator"
	PropNot         Prop = "not"
	PropDisabled    Prop = "disabled"
	PropMuted       Prop = "muted"
)

// Defaulter supplies the values a rule is reset to when its field,
// operator or value source changes. *factory.Resolver implements it.
type Defaulter interface {
	DefaultOperator(field string) string
	DefaultValueSource(field, operator string) query.ValueSource
	DefaultValue(r *query.Rule) query.Value
	DefaultMatch(field string) *query.Match
}

// placeholderDefaults resets to the placeholder operator and empty values.
type placeholderDefaults struct{}

func (placeholderDefaults) DefaultOperator(string) string { return options.PlaceholderName }

func (placeholderDefaults) DefaultValueSource(string, string) query.ValueSource { return "" }

func (placeholderDefaults) DefaultValue(*query.Rule) query.Value { return query.String("") }

func (placeholderDefaults) DefaultMatch(string) *query.Match { return nil }

// UpdateOptions configures Update.
type UpdateOptions struct {
	// ResetOnFieldChange resets operator, value source, value and match
	// when the field changes.
	ResetOnFieldChange bool

	// ResetOnOperatorChange resets the value when the operator changes.
	ResetOnOperatorChange bool

	// Defaults supplies reset values. Nil resets to placeholders.
	Defaults Defaulter
}

// Update sets prop to value on the element at p.
//
// p may address a rule, a group, or the combinator element at an odd
// index of an IC group (prop must then be PropCombinator). value may be a
// query.Value or a plain Go value accepted by query.ValueOf for
// PropValue, a string for the string props, a bool for the bool props,
// and a query.Match, *query.Match or nil for PropMatch.
//
// Whenever the resulting rule has a between or notBetween operator its
// value is normalized to a two-element list.
func Update(tree *query.RuleGroup, prop Prop, value any, p treepath.Path, opts UpdateOptions) (*query.RuleGroup, error) {
	el := treepath.ElementAt(tree, p)
	if el == nil {
		return tree, reject("update", ErrCodeInvalidPath, p, "path does not resolve")
	}
	defaults := opts.Defaults
	if defaults == nil {
		defaults = placeholderDefaults{}
	}

	switch e := el.(type) {
	case query.Combinator:
		return updateCombinatorElement(tree, e, prop, value, p)
	case *query.RuleGroup:
		return updateGroup(tree, e, prop, value, p)
	case *query.Rule:
		return updateRule(tree, e, prop, value, p, opts, defaults)
	}
	return tree, reject("update", ErrCodeInvalidPath, p, "path does not resolve")
}

func updateCombinatorElement(tree *query.RuleGroup, cur query.Combinator, prop Prop, value any, p treepath.Path) (*query.RuleGroup, error) {
	if prop != PropCombinator {
		return tree, reject("update", ErrCodeInvalidProp, p, "combinator elements only accept %q", PropCombinator)
	}
	c, err := combinatorArg(value, p)
	if err != nil {
		return tree, err
	}
	if c == cur {
		return tree, nil
	}
	next, _ := replaceElement(tree, p, c)
	return next, nil
}

func updateGroup(tree *query.RuleGroup, g *query.RuleGroup, prop Prop, value any, p treepath.Path) (*query.RuleGroup, error) {
	c := g.Copy()
	switch prop {
	case PropCombinator:
		if g.IsIC() {
			return tree, reject("update", ErrCodeIndependentCombinators, p,
				"group uses independent combinators; update the combinator element instead")
		}
		comb, err := combinatorArg(value, p)
		if err != nil {
			return tree, err
		}
		c.Combinator = comb
	case PropNot:
		b, err := boolArg(prop, value, p)
		if err != nil {
			return tree, err
		}
		c.Not = b
	case PropDisabled:
		b, err := boolArg(prop, value, p)
		if err != nil {
			return tree, err
		}
		c.Disabled = b
	case PropMuted:
		b, err := boolArg(prop, value, p)
		if err != nil {
			return tree, err
		}
		c.Muted = b
	default:
		return tree, reject("update", ErrCodeInvalidProp, p, "groups have no property %q", prop)
	}
	if c.Combinator == g.Combinator && c.Not == g.Not && c.Disabled == g.Disabled && c.Muted == g.Muted {
		return tree, nil
	}
	if p.IsRoot() {
		return c, nil
	}
	next, _ := replaceElement(tree, p, c)
	return next, nil
}

func updateRule(tree *query.RuleGroup, r *query.Rule, prop Prop, value any, p treepath.Path, opts UpdateOptions, d Defaulter) (*query.RuleGroup, error) {
	c := r.Copy()
	changed := false
	switch prop {
	case PropField, PropOperator, PropValueSource:
		s, ok := value.(string)
		if !ok {
			if vs, isVS := value.(query.ValueSource); isVS {
				s, ok = string(vs), true
			}
		}
		if !ok {
			return tree, reject("update", ErrCodeInvalidValue, p, "%s must be a string, got %T", prop, value)
		}
		switch prop {
		case PropField:
			if s == r.Field {
				return tree, nil
			}
			c.Field = s
			if opts.ResetOnFieldChange {
				c.Operator = d.DefaultOperator(s)
				c.ValueSource = d.DefaultValueSource(s, c.Operator)
				c.Match = d.DefaultMatch(s)
				c.Value = d.DefaultValue(c)
			}
		case PropOperator:
			if s == r.Operator {
				return tree, nil
			}
			c.Operator = s
			if opts.ResetOnOperatorChange {
				c.Value = d.DefaultValue(c)
			}
		case PropValueSource:
			if query.ValueSource(s) == r.ValueSource {
				return tree, nil
			}
			c.ValueSource = query.ValueSource(s)
			c.Value = d.DefaultValue(c)
		}
		changed = true
	case PropValue:
		v, err := query.ValueOf(value)
		if err != nil {
			return tree, reject("update", ErrCodeInvalidValue, p, "%v", err)
		}
		c.Value = v
	case PropMatch:
		switch m := value.(type) {
		case nil:
			c.Match = nil
		case query.Match:
			c.Match = &m
		case *query.Match:
			if m != nil {
				mm := *m
				c.Match = &mm
			} else {
				c.Match = nil
			}
		default:
			return tree, reject("update", ErrCodeInvalidValue, p, "match must be a query.Match, got %T", value)
		}
		changed = !matchEqual(r.Match, c.Match)
	case PropDisabled:
		b, err := boolArg(prop, value, p)
		if err != nil {
			return tree, err
		}
		c.Disabled = b
		changed = b != r.Disabled
	case PropMuted:
		b, err := boolArg(prop, value, p)
		if err != nil {
			return tree, err
		}
		c.Muted = b
		changed = b != r.Muted
	default:
		return tree, reject("update", ErrCodeInvalidProp, p, "rules have no property %q", prop)
	}

	if c.IsBetween() {
		c.Value = betweenPair(c.Value)
	}
	if !changed && !query.ValuesEqual(c.Value, r.Value) {
		changed = true
	}
	if !changed {
		return tree, nil
	}
	next, _ := replaceElement(tree, p, c)
	return next, nil
}

// betweenPair coerces v to a two-element list. Lists are truncated or
// padded by repeating their only element, comma-joined strings are split,
// and any other scalar is duplicated.
func betweenPair(v query.Value) query.List {
	switch val := v.(type) {
	case query.List:
		switch len(val) {
		case 0:
			return query.Strings("", "")
		case 1:
			return query.List{val[0], val[0]}
		case 2:
			return val
		default:
			return query.List{val[0], val[1]}
		}
	case query.String:
		if parts := strings.Split(string(val), ","); len(parts) > 1 {
			return query.Strings(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
		}
		return query.List{val, val}
	case query.Number, query.Bool:
		return query.List{val, val}
	default:
		return query.Strings("", "")
	}
}

func matchEqual(a, b *query.Match) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func combinatorArg(value any, p treepath.Path) (query.Combinator, error) {
	var c query.Combinator
	switch v := value.(type) {
	case string:
		c = query.Combinator(v)
	case query.Combinator:
		c = v
	default:
		return "", reject("update", ErrCodeInvalidValue, p, "combinator must be a string, got %T", value)
	}
	if c == "" {
		return "", reject("update", ErrCodeInvalidValue, p, "combinator must not be empty")
	}
	return c, nil
}

func boolArg(prop Prop, value any, p treepath.Path) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		if qb, isQB := value.(query.Bool); isQB {
			return bool(qb), nil
		}
		return false, reject("update", ErrCodeInvalidValue, p, "%s must be a bool, got %T", prop, value)
	}
	return b, nil
}
