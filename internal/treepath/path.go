package treepath

import (
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/querybuilder/internal/query"
)

// Path is the integer-index address of a node.
type Path []int

// Root is the path of the tree root.
var Root = Path{}

// Of builds a path from indices.
func Of(indices ...int) Path {
	return Path(slices.Clone(indices))
}

// IsRoot reports whether p addresses the root.
func (p Path) IsRoot() bool { return len(p) == 0 }

// Parent returns p without its last index. The root's parent is the root.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Root
	}
	return slices.Clone(p[:len(p)-1])
}

// Last returns the final index, or -1 for the root.
func (p Path) Last() int {
	if len(p) == 0 {
		return -1
	}
	return p[len(p)-1]
}

// Child returns a new path addressing the i-th element under p.
func (p Path) Child(i int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, i)
}

// Sibling returns p with its last index replaced by i.
func (p Path) Sibling(i int) Path {
	return p.Parent().Child(i)
}

// Equal reports whether p and q address the same location.
func (p Path) Equal(q Path) bool { return slices.Equal(p, q) }

// IsAncestorOf reports whether p is a strict prefix of q.
func (p Path) IsAncestorOf(q Path) bool {
	return len(p) < len(q) && slices.Equal(p, q[:len(p)])
}

// Covers reports whether p equals q or is an ancestor of it.
func (p Path) Covers(q Path) bool {
	return p.Equal(q) || p.IsAncestorOf(q)
}

// String formats p as "[0,1,2]".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Equal reports whether a and b address the same location.
func Equal(a, b Path) bool { return a.Equal(b) }

// IsAncestor reports whether a is a strict ancestor of b.
func IsAncestor(a, b Path) bool { return a.IsAncestorOf(b) }

// CommonAncestor returns the longest shared prefix of a and b.
func CommonAncestor(a, b Path) Path {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return slices.Clone(a[:n])
}

// ShiftAfterRemoval rewrites p for a tree in which the element at removed
// has been spliced out together with width-1 neighbouring elements (width
// is 1 for standard groups and 2 for IC groups). Any index greater than
// the removed index at that depth decrements by width. ok is false when p
// addressed the removed node or something inside it.
func ShiftAfterRemoval(p, removed Path, width int) (Path, bool) {
	if len(removed) == 0 {
		return p, len(p) == 0
	}
	if removed.Covers(p) {
		return nil, false
	}
	depth := len(removed) - 1
	if len(p) <= depth || !slices.Equal(p[:depth], removed[:depth]) {
		return p, true
	}
	if p[depth] > removed[depth] {
		out := slices.Clone(p)
		out[depth] -= width
		if out[depth] < 0 {
			out[depth] = 0
		}
		return out, true
	}
	return p, true
}

// Find returns the node at p, or nil if any prefix of p fails to resolve
// to a group or an index is out of range. Paths that land on a
// combinator element also yield nil.
func Find(tree *query.RuleGroup, p Path) query.Node {
	if tree == nil {
		return nil
	}
	var current query.Node = tree
	for _, idx := range p {
		g, ok := current.(*query.RuleGroup)
		if !ok || idx < 0 || idx >= len(g.Rules) {
			return nil
		}
		n, ok := g.Rules[idx].(query.Node)
		if !ok {
			return nil
		}
		current = n
	}
	return current
}

// FindGroup is Find restricted to groups.
func FindGroup(tree *query.RuleGroup, p Path) *query.RuleGroup {
	g, _ := Find(tree, p).(*query.RuleGroup)
	return g
}

// ElementAt returns the raw element at p, including combinator elements.
func ElementAt(tree *query.RuleGroup, p Path) query.Element {
	if len(p) == 0 {
		if tree == nil {
			return nil
		}
		return tree
	}
	parent := FindGroup(tree, p.Parent())
	if parent == nil || p.Last() < 0 || p.Last() >= len(parent.Rules) {
		return nil
	}
	return parent.Rules[p.Last()]
}

// PathOfID returns the path of the node with the given id.
func PathOfID(tree *query.RuleGroup, id string) (Path, bool) {
	if tree == nil {
		return nil, false
	}
	if tree.ID == id {
		return Root, true
	}
	for i, e := range tree.Rules {
		switch n := e.(type) {
		case *query.Rule:
			if n.ID == id {
				return Path{i}, true
			}
		case *query.RuleGroup:
			if sub, ok := PathOfID(n, id); ok {
				return append(Path{i}, sub...), true
			}
		}
	}
	return nil, false
}

// IsDisabled reports whether any node along p, root and target included,
// has its disabled flag set.
func IsDisabled(tree *query.RuleGroup, p Path) bool {
	if tree == nil {
		return false
	}
	if tree.Disabled {
		return true
	}
	var current query.Node = tree
	for _, idx := range p {
		g, ok := current.(*query.RuleGroup)
		if !ok || idx < 0 || idx >= len(g.Rules) {
			return false
		}
		n, ok := g.Rules[idx].(query.Node)
		if !ok {
			return false
		}
		if n.IsDisabled() {
			return true
		}
		current = n
	}
	return false
}

// Walk visits every node in depth-first order. Returning false from fn
// skips the node's children.
func Walk(tree *query.RuleGroup, fn func(p Path, n query.Node) bool) {
	if tree == nil {
		return
	}
	walk(tree, Root, fn)
}

func walk(n query.Node, p Path, fn func(Path, query.Node) bool) {
	if !fn(p, n) {
		return
	}
	g, ok := n.(*query.RuleGroup)
	if !ok {
		return
	}
	for i, e := range g.Rules {
		if child, ok := e.(query.Node); ok {
			walk(child, p.Child(i), fn)
		}
	}
}
