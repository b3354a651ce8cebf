package engine

import (
	"github.com/roach88/querybuilder/internal/query"
	"github.com/roach88/querybuilder/internal/treepath"
)

// Remove excises the node at p from its parent.
//
// In IC groups the combinator before the node goes with it, or the one
// after it when the node is first, so the group stays odd-length.
func Remove(tree *query.RuleGroup, p treepath.Path) (*query.RuleGroup, error) {
	if _, err := resolveNode("remove", tree, p); err != nil {
		return tree, err
	}
	idx := p.Last()
	next, _ := withGroup(tree, p.Parent(), func(g *query.RuleGroup) bool {
		from, to := idx, idx+1
		if g.IsIC() {
			if idx > 0 {
				from = idx - 1
			} else if len(g.Rules) > 1 {
				to = 2
			}
		}
		g.Rules = removeRange(g.Rules, from, to)
		return true
	})
	return next, nil
}
