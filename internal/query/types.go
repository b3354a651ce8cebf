package query

import "slices"

// Element is a sealed interface for the members of RuleGroup.Rules.
// Only *Rule, *RuleGroup and Combinator implement it.
type Element interface {
	element() // Sealed - only these types implement it
}

// Node is an addressable tree element: a *Rule or a *RuleGroup.
type Node interface {
	Element
	NodeID() string
	IsDisabled() bool
}

// Combinator is the logical joiner between siblings. Inside an IC group it
// appears as an element of Rules at every odd index.
type Combinator string

func (Combinator) element() {}

// Well-known combinator and operator names.
const (
	And Combinator = "and"
	Or  Combinator = "or"
	Xor Combinator = "xor"

	OperatorBetween    = "between"
	OperatorNotBetween = "notBetween"
)

// ValueSource says whether a rule's value is a literal or another field name.
type ValueSource string

const (
	ValueSourceValue ValueSource = "value"
	ValueSourceField ValueSource = "field"
)

// MatchMode selects how a sub-query is matched against a collection.
type MatchMode string

const (
	MatchAll     MatchMode = "all"
	MatchSome    MatchMode = "some"
	MatchNone    MatchMode = "none"
	MatchAtLeast MatchMode = "atLeast"
	MatchAtMost  MatchMode = "atMost"
	MatchExactly MatchMode = "exactly"
)

// NeedsThreshold reports whether the mode is counted ("at least N of").
func (m MatchMode) NeedsThreshold() bool {
	return m == MatchAtLeast || m == MatchAtMost || m == MatchExactly
}

// Match configures a rule whose value is a sub-query.
type Match struct {
	Mode      MatchMode `json:"mode"`
	Threshold int       `json:"threshold,omitempty"`
}

// Rule is a single field/operator/value condition.
type Rule struct {
	ID          string
	Field       string
	Operator    string
	Value       Value
	ValueSource ValueSource
	Disabled    bool
	Muted       bool
	Match       *Match
}

func (*Rule) element() {}

// NodeID returns the rule id.
func (r *Rule) NodeID() string { return r.ID }

// IsDisabled reports the rule's own disabled flag.
func (r *Rule) IsDisabled() bool { return r.Disabled }

// IsBetween reports whether the operator takes a two-element value.
func (r *Rule) IsBetween() bool {
	return IsBetweenOperator(r.Operator)
}

// Copy returns a shallow copy of the rule.
func (r *Rule) Copy() *Rule {
	c := *r
	if r.Match != nil {
		m := *r.Match
		c.Match = &m
	}
	return &c
}

// RuleGroup is a group of rules joined by combinators.
// Combinator is empty for groups in independent-combinator form.
type RuleGroup struct {
	ID         string
	Combinator Combinator
	Not        bool
	Rules      []Element
	Disabled   bool
	Muted      bool
}

func (*RuleGroup) element() {}
func (*RuleGroup) value()   {}

// NodeID returns the group id.
func (g *RuleGroup) NodeID() string { return g.ID }

// IsDisabled reports the group's own disabled flag.
func (g *RuleGroup) IsDisabled() bool { return g.Disabled }

// IsIC reports whether the group is in independent-combinator form.
func (g *RuleGroup) IsIC() bool { return g.Combinator == "" }

// Copy returns a copy of the group with its own Rules slice. The elements
// themselves are shared.
func (g *RuleGroup) Copy() *RuleGroup {
	c := *g
	c.Rules = slices.Clone(g.Rules)
	return &c
}

// Nodes returns the rules and groups of g, skipping combinators.
func (g *RuleGroup) Nodes() []Node {
	nodes := make([]Node, 0, len(g.Rules))
	for _, e := range g.Rules {
		if n, ok := e.(Node); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Combinators returns the combinator strings between siblings. For a
// standard group this is the group combinator repeated once per gap.
func (g *RuleGroup) Combinators() []Combinator {
	if !g.IsIC() {
		n := len(g.Rules) - 1
		if n < 0 {
			n = 0
		}
		out := make([]Combinator, n)
		for i := range out {
			out[i] = g.Combinator
		}
		return out
	}
	var out []Combinator
	for _, e := range g.Rules {
		if c, ok := e.(Combinator); ok {
			out = append(out, c)
		}
	}
	return out
}

// IsBetweenOperator reports whether op is between or notBetween.
func IsBetweenOperator(op string) bool {
	return op == OperatorBetween || op == OperatorNotBetween
}

// Attr returns the string form of a named node attribute. Unknown names
// and attributes that do not apply to the node yield "".
func Attr(n Node, name string) string {
	switch node := n.(type) {
	case *Rule:
		switch name {
		case "id":
			return node.ID
		case "field":
			return node.Field
		case "operator":
			return node.Operator
		case "valueSource":
			return string(node.ValueSource)
		case "value":
			return ValueString(node.Value)
		}
	case *RuleGroup:
		switch name {
		case "id":
			return node.ID
		case "combinator":
			return string(node.Combinator)
		}
	}
	return ""
}
