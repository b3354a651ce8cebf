package engine

import (
	"github.com/roach88/querybuilder/internal/query"
	"github.com/roach88/querybuilder/internal/treepath"
)

// AddOptions configures Add.
type AddOptions struct {
	// CombinatorPreceding is placed before the new node in IC groups.
	// When empty, the last combinator of the group is reused, then
	// DefaultCombinator.
	CombinatorPreceding query.Combinator

	// DefaultCombinator falls back to "and" when empty.
	DefaultCombinator query.Combinator

	// IDGenerator assigns ids to nodes that lack one.
	IDGenerator query.IDGenerator
}

// Add appends node to the group at parentPath.
//
// In an IC group that already has children a combinator is appended
// before the node, keeping the node/combinator alternation.
func Add(tree *query.RuleGroup, node query.Node, parentPath treepath.Path, opts AddOptions) (*query.RuleGroup, error) {
	if _, err := resolveGroup("add", tree, parentPath); err != nil {
		return tree, err
	}
	node = query.EnsureIDs(node, opts.IDGenerator)
	next, _ := withGroup(tree, parentPath, func(g *query.RuleGroup) bool {
		if g.IsIC() && len(g.Rules) > 0 {
			g.Rules = append(g.Rules, precedingCombinator(g, len(g.Rules), opts.CombinatorPreceding, opts.DefaultCombinator))
		}
		g.Rules = append(g.Rules, node)
		return true
	})
	return next, nil
}

// precedingCombinator picks the combinator to place before a node
// inserted at raw index idx of an IC group: the explicit one, else the
// combinator nearest before idx, else the default.
func precedingCombinator(g *query.RuleGroup, idx int, explicit, fallback query.Combinator) query.Combinator {
	if explicit != "" {
		return explicit
	}
	for i := min(idx, len(g.Rules)) - 1; i >= 0; i-- {
		if c, ok := g.Rules[i].(query.Combinator); ok {
			return c
		}
	}
	return orDefault("", fallback)
}
