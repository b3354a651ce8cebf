package factory

import (
	"github.com/roach88/querybuilder/internal/options"
	"github.com/roach88/querybuilder/internal/query"
)

// DefaultField returns the field a new rule starts with.
func (r *Resolver) DefaultField() string {
	if r.cfg.Overrides.GetDefaultField != nil {
		if f := r.cfg.Overrides.GetDefaultField(r.fields); f != "" {
			return f
		}
	}
	if name := options.DefaultName(r.fields); name != "" {
		return name
	}
	return options.PlaceholderName
}

// DefaultOperator returns the operator a rule on field starts with.
func (r *Resolver) DefaultOperator(field string) string {
	if r.cfg.Overrides.GetDefaultOperator != nil {
		if op := r.cfg.Overrides.GetDefaultOperator(field); op != "" {
			return op
		}
	}
	if f, ok := r.Field(field); ok && f.DefaultOperator != "" {
		return f.DefaultOperator
	}
	if name := options.DefaultName(r.Operators(field)); name != "" {
		return name
	}
	return options.PlaceholderName
}

// DefaultValueSource returns the first value source when the field and
// operator offer a choice, and "" otherwise.
func (r *Resolver) DefaultValueSource(field, operator string) query.ValueSource {
	vs := r.ValueSources(field, operator)
	if len(vs) > 1 {
		return vs[0]
	}
	return ""
}

// DefaultCombinator returns the first combinator.
func (r *Resolver) DefaultCombinator() query.Combinator {
	if name := options.DefaultName(r.combinators); name != "" {
		return query.Combinator(name)
	}
	return query.And
}

// DefaultMatch returns the match config for a field with match modes,
// or nil.
func (r *Resolver) DefaultMatch(field string) *query.Match {
	modes := r.MatchModes(field)
	if len(modes) == 0 {
		return nil
	}
	return &query.Match{Mode: modes[0], Threshold: 1}
}

// DefaultValue computes the starting value for rule. The first step that
// applies wins:
//  1. placeholder field or operator: ""
//  2. field with match modes: an empty sub-query
//  3. GetDefaultValue override
//  4. the field's DefaultValue
//  5. value source "field": the first comparable field
//  6. select/radio: the first value ([v, v] for between operators)
//  7. multiselect: an empty list, or "" without ListsAsArrays
//  8. checkbox: false
//  9. ""
func (r *Resolver) DefaultValue(rule *query.Rule) query.Value {
	if options.IsPlaceholder(rule.Field) || options.IsPlaceholder(rule.Operator) {
		return query.String("")
	}
	field, _ := r.Field(rule.Field)
	if len(r.MatchModes(rule.Field)) > 0 {
		return r.emptySubQuery()
	}
	if r.cfg.Overrides.GetDefaultValue != nil {
		if v := r.cfg.Overrides.GetDefaultValue(rule, field); v != nil {
			return v
		}
	}
	if field.DefaultValue != nil {
		return field.DefaultValue
	}
	if rule.ValueSource == query.ValueSourceField {
		if fs := r.ComparableFields(rule.Field); len(fs) > 0 {
			return query.String(fs[0].Name)
		}
		return query.String("")
	}

	editor := r.ValueEditorType(rule.Field, rule.Operator)
	values := r.Values(rule.Field, rule.Operator)
	if values.Len() > 0 {
		switch editor {
		case options.EditorMultiSelect:
			if r.cfg.ListsAsArrays {
				return query.List{}
			}
			return query.String("")
		case options.EditorSelect, options.EditorRadio:
			first := options.DefaultName(values)
			if first == "" || options.IsPlaceholder(first) {
				return query.String("")
			}
			if query.IsBetweenOperator(rule.Operator) {
				if r.cfg.ListsAsArrays {
					return query.Strings(first, first)
				}
				return query.String(first + "," + first)
			}
			return query.String(first)
		}
	}
	if editor == options.EditorCheckbox {
		return query.Bool(false)
	}
	return query.String("")
}

func (r *Resolver) emptySubQuery() *query.RuleGroup {
	return &query.RuleGroup{
		ID:         r.newID(),
		Combinator: r.DefaultCombinator(),
		Rules:      []query.Element{},
	}
}
