package engine

import "github.com/roach88/querybuilder/internal/query"

// ConvertOptions configures ConvertFromIC.
type ConvertOptions struct {
	// DefaultCombinator is used for groups with fewer than two nodes.
	DefaultCombinator query.Combinator

	// IDGenerator names the groups created to keep precedence.
	IDGenerator query.IDGenerator
}

// ConvertToIC rewrites every standard group in tree to independent
// combinator form by placing the group's combinator between each pair of
// siblings. Groups already in IC form are kept.
func ConvertToIC(tree *query.RuleGroup) *query.RuleGroup {
	c := &query.RuleGroup{
		ID:       tree.ID,
		Not:      tree.Not,
		Disabled: tree.Disabled,
		Muted:    tree.Muted,
		Rules:    make([]query.Element, 0, max(2*len(tree.Rules)-1, 0)),
	}
	for i, e := range tree.Rules {
		if i > 0 && !tree.IsIC() {
			c.Rules = append(c.Rules, tree.Combinator)
		}
		if g, ok := e.(*query.RuleGroup); ok {
			e = ConvertToIC(g)
		}
		c.Rules = append(c.Rules, e)
	}
	return c
}

// combinatorRank orders combinators by binding strength. Unknown
// combinators bind loosest.
var combinatorRank = map[query.Combinator]int{
	query.Or:  1,
	query.Xor: 2,
	query.And: 3,
}

// ConvertFromIC rewrites every IC group in tree to standard form.
//
// When all combinators of a group agree it becomes a group with that
// combinator. Otherwise the group is split at its loosest-binding
// combinator ("or" before "xor" before "and") and each run of more than
// one node becomes a new nested group, so "A and B or C" becomes
// "(A and B) or C".
func ConvertFromIC(tree *query.RuleGroup, opts ConvertOptions) *query.RuleGroup {
	return convertFromIC(tree, opts.DefaultCombinator, opts.IDGenerator.Or())
}

func convertFromIC(g *query.RuleGroup, def query.Combinator, gen query.IDGenerator) *query.RuleGroup {
	c := g.Copy()
	for i, e := range c.Rules {
		if child, ok := e.(*query.RuleGroup); ok {
			c.Rules[i] = convertFromIC(child, def, gen)
		}
	}
	if !g.IsIC() {
		return c
	}

	nodes := c.Nodes()
	combs := c.Combinators()
	c.Rules = make([]query.Element, len(nodes))
	for i, n := range nodes {
		c.Rules[i] = n
	}
	if len(combs) == 0 {
		c.Combinator = orDefault("", def)
		return c
	}

	loosest := combs[0]
	uniform := true
	for _, cb := range combs[1:] {
		if cb != loosest {
			uniform = false
		}
		if combinatorRank[cb] < combinatorRank[loosest] {
			loosest = cb
		}
	}
	c.Combinator = loosest
	if uniform {
		return c
	}

	// Split into runs separated by the loosest combinator.
	var out []query.Element
	run := []query.Element{nodes[0]}
	flush := func() {
		if len(run) == 1 {
			out = append(out, run[0])
			return
		}
		sub := &query.RuleGroup{ID: gen(), Rules: run}
		out = append(out, convertFromIC(sub, def, gen))
	}
	for i, cb := range combs {
		if cb == loosest {
			flush()
			run = []query.Element{nodes[i+1]}
			continue
		}
		run = append(run, cb, nodes[i+1])
	}
	flush()
	c.Rules = out
	return c
}
