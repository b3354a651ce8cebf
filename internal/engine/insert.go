package engine

import (
	"github.com/roach88/querybuilder/internal/query"
	"github.com/roach88/querybuilder/internal/treepath"
)

// InsertOptions configures Insert.
type InsertOptions struct {
	// CombinatorPreceding and CombinatorSucceeding pick the combinators
	// around the new node in IC groups.
	CombinatorPreceding  query.Combinator
	CombinatorSucceeding query.Combinator

	// DefaultCombinator falls back to "and" when empty.
	DefaultCombinator query.Combinator

	// Replace overwrites the node at p instead of inserting before it.
	Replace bool

	IDGenerator query.IDGenerator
}

// Insert places node at p, shifting later siblings right.
//
// In a standard group p's last index may range over [0, len(rules)]. In
// an IC group any raw index is accepted and mapped to the gap it falls
// in: index 2k and 2k-1 both mean "before the k-th node", so dropping on
// a combinator slot inserts right after the node before it.
func Insert(tree *query.RuleGroup, node query.Node, p treepath.Path, opts InsertOptions) (*query.RuleGroup, error) {
	if p.IsRoot() {
		return tree, reject("insert", ErrCodeRootPath, p, "cannot insert at the root")
	}
	parent, rerr := resolveGroup("insert", tree, p.Parent())
	if rerr != nil {
		return tree, rerr
	}
	idx := p.Last()
	if idx < 0 || idx > len(parent.Rules) || (opts.Replace && idx == len(parent.Rules)) {
		return tree, reject("insert", ErrCodeInvalidPath, p, "index %d out of range", idx)
	}
	if opts.Replace && parent.IsIC() && idx%2 == 1 {
		return tree, reject("insert", ErrCodeInvalidPath, p, "cannot replace a combinator with a node")
	}

	node = query.EnsureIDs(node, opts.IDGenerator)
	next, _ := withGroup(tree, p.Parent(), func(g *query.RuleGroup) bool {
		switch {
		case opts.Replace:
			g.Rules[idx] = node
		case !g.IsIC():
			g.Rules = insertAt(g.Rules, idx, query.Element(node))
		default:
			g.Rules = insertIC(g, node, (idx+1)/2, opts)
		}
		return true
	})
	return next, nil
}

// insertIC inserts node before the ord-th node of an IC group.
func insertIC(g *query.RuleGroup, node query.Node, ord int, opts InsertOptions) []query.Element {
	if len(g.Rules) == 0 {
		return []query.Element{node}
	}
	if ord == 0 {
		succ := opts.CombinatorSucceeding
		if succ == "" {
			succ = precedingCombinator(g, 2, "", opts.DefaultCombinator)
		}
		return insertAt(g.Rules, 0, query.Element(node), query.Element(succ))
	}
	// Raw index just after node ord-1; the combinator that sat there (if
	// any) now follows the new node.
	at := 2*ord - 1
	prec := opts.CombinatorPreceding
	if prec == "" {
		prec = precedingCombinator(g, at+1, "", opts.DefaultCombinator)
	}
	return insertAt(g.Rules, at, query.Element(prec), query.Element(node))
}
