package options

import "github.com/roach88/querybuilder/internal/query"

// DefaultCombinators is used when no combinator list is configured.
func DefaultCombinators() List[Option] {
	return Flat(
		Option{Name: string(query.And), Label: "AND"},
		Option{Name: string(query.Or), Label: "OR"},
	)
}

// DefaultOperators is used for fields that declare no operators.
func DefaultOperators() List[Option] {
	return Flat(
		Option{Name: "=", Label: "="},
		Option{Name: "!=", Label: "!="},
		Option{Name: "<", Label: "<"},
		Option{Name: ">", Label: ">"},
		Option{Name: "<=", Label: "<="},
		Option{Name: ">=", Label: ">="},
		Option{Name: "contains", Label: "contains"},
		Option{Name: "beginsWith", Label: "begins with"},
		Option{Name: "endsWith", Label: "ends with"},
		Option{Name: "doesNotContain", Label: "does not contain"},
		Option{Name: "doesNotBeginWith", Label: "does not begin with"},
		Option{Name: "doesNotEndWith", Label: "does not end with"},
		Option{Name: "null", Label: "is null"},
		Option{Name: "notNull", Label: "is not null"},
		Option{Name: "in", Label: "in"},
		Option{Name: "notIn", Label: "not in"},
		Option{Name: query.OperatorBetween, Label: "between"},
		Option{Name: query.OperatorNotBetween, Label: "not between"},
	)
}

// DefaultMatchModes lists every match mode in display order.
func DefaultMatchModes() []query.MatchMode {
	return []query.MatchMode{
		query.MatchAll,
		query.MatchSome,
		query.MatchNone,
		query.MatchAtLeast,
		query.MatchAtMost,
		query.MatchExactly,
	}
}
