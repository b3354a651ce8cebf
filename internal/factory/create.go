package factory

import "github.com/roach88/querybuilder/internal/query"

// CreateRule builds a rule with a fresh id and default field, operator,
// value source, value and match config.
func (r *Resolver) CreateRule() *query.Rule {
	field := r.DefaultField()
	operator := r.DefaultOperator(field)
	rule := &query.Rule{
		ID:          r.newID(),
		Field:       field,
		Operator:    operator,
		ValueSource: r.DefaultValueSource(field, operator),
		Match:       r.DefaultMatch(field),
	}
	rule.Value = r.DefaultValue(rule)
	return rule
}

// CreateRuleGroup builds an empty group in IC or standard form, seeded
// with one rule when AddRuleToNewGroups is set.
func (r *Resolver) CreateRuleGroup(independentCombinators bool) *query.RuleGroup {
	g := &query.RuleGroup{
		ID:    r.newID(),
		Rules: []query.Element{},
	}
	if !independentCombinators {
		g.Combinator = r.DefaultCombinator()
	}
	if r.cfg.AddRuleToNewGroups {
		g.Rules = append(g.Rules, r.CreateRule())
	}
	return g
}
