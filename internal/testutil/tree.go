package testutil

import "github.com/roach88/querybuilder/internal/query"

// R builds a rule. value is converted with query.MustValueOf.
func R(id, field, operator string, value any) *query.Rule {
	return &query.Rule{
		ID:       id,
		Field:    field,
		Operator: operator,
		Value:    query.MustValueOf(value),
	}
}

// G builds a standard group with the given combinator.
func G(id string, combinator query.Combinator, nodes ...query.Node) *query.RuleGroup {
	rules := make([]query.Element, len(nodes))
	for i, n := range nodes {
		rules[i] = n
	}
	return &query.RuleGroup{ID: id, Combinator: combinator, Rules: rules}
}

// IC builds an independent-combinator group. Plain strings in elems become
// combinators; everything else must be a query.Node.
func IC(id string, elems ...any) *query.RuleGroup {
	rules := make([]query.Element, len(elems))
	for i, e := range elems {
		switch el := e.(type) {
		case string:
			rules[i] = query.Combinator(el)
		case query.Element:
			rules[i] = el
		default:
			panic("testutil.IC: unsupported element")
		}
	}
	return &query.RuleGroup{ID: id, Rules: rules}
}

// ABC returns the root "and" group with rules A, B and C used across tests.
func ABC() *query.RuleGroup {
	return G("root", query.And,
		R("A", "a", "=", "1"),
		R("B", "b", "=", "2"),
		R("C", "c", "=", "3"),
	)
}
