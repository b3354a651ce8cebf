package engine

import (
	"github.com/roach88/querybuilder/internal/query"
	"github.com/roach88/querybuilder/internal/treepath"
)

// withGroup returns a copy of tree in which the group at p has been
// passed through fn. Only the groups on the path are copied. fn receives
// a private copy of the target group and reports whether it changed it;
// when it did not, or p does not resolve to a group, tree is returned.
func withGroup(tree *query.RuleGroup, p treepath.Path, fn func(g *query.RuleGroup) bool) (*query.RuleGroup, bool) {
	if len(p) == 0 {
		c := tree.Copy()
		if !fn(c) {
			return tree, false
		}
		return c, true
	}
	idx := p[0]
	if idx < 0 || idx >= len(tree.Rules) {
		return tree, false
	}
	child, ok := tree.Rules[idx].(*query.RuleGroup)
	if !ok {
		return tree, false
	}
	next, ok := withGroup(child, p[1:], fn)
	if !ok {
		return tree, false
	}
	c := tree.Copy()
	c.Rules[idx] = next
	return c, true
}

// replaceElement swaps the element at p (which must not be the root).
func replaceElement(tree *query.RuleGroup, p treepath.Path, e query.Element) (*query.RuleGroup, bool) {
	idx := p.Last()
	return withGroup(tree, p.Parent(), func(g *query.RuleGroup) bool {
		if idx < 0 || idx >= len(g.Rules) {
			return false
		}
		g.Rules[idx] = e
		return true
	})
}

// insertAt inserts values into a slice at idx and returns a new slice.
func insertAt[T any](src []T, idx int, values ...T) []T {
	out := make([]T, 0, len(src)+len(values))
	out = append(out, src[:idx]...)
	out = append(out, values...)
	out = append(out, src[idx:]...)
	return out
}

// removeRange removes the half-open interval [from,to) from a slice.
func removeRange[T any](src []T, from, to int) []T {
	out := make([]T, 0, len(src)-(to-from))
	out = append(out, src[:from]...)
	out = append(out, src[to:]...)
	return out
}

// removalWidth is how many elements leave a group when one node does.
func removalWidth(g *query.RuleGroup) int {
	if g.IsIC() {
		return 2
	}
	return 1
}

// resolveGroup finds the group at p or explains why it cannot.
func resolveGroup(op string, tree *query.RuleGroup, p treepath.Path) (*query.RuleGroup, *RejectError) {
	switch n := treepath.Find(tree, p).(type) {
	case *query.RuleGroup:
		return n, nil
	case *query.Rule:
		return nil, reject(op, ErrCodeNotAGroup, p, "rule %q is not a group", n.ID)
	default:
		return nil, reject(op, ErrCodeInvalidPath, p, "path does not resolve")
	}
}

// resolveNode finds the non-root node at p.
func resolveNode(op string, tree *query.RuleGroup, p treepath.Path) (query.Node, *RejectError) {
	if p.IsRoot() {
		return nil, reject(op, ErrCodeRootPath, p, "cannot %s the root", op)
	}
	n := treepath.Find(tree, p)
	if n == nil {
		return nil, reject(op, ErrCodeInvalidPath, p, "path does not resolve")
	}
	return n, nil
}

func orDefault(c, fallback query.Combinator) query.Combinator {
	if c != "" {
		return c
	}
	if fallback != "" {
		return fallback
	}
	return query.And
}
