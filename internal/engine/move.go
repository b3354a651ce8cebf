package engine

import (
	"github.com/roach88/querybuilder/internal/query"
	"github.com/roach88/querybuilder/internal/treepath"
)

// Direction is a relative move within the source's own parent.
type Direction int

const (
	// DirNone means the Target carries an explicit path.
	DirNone Direction = iota
	DirUp
	DirDown
)

// String returns "up", "down" or "".
func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	default:
		return ""
	}
}

// Target is a move destination: an explicit path or a direction.
type Target struct {
	Path treepath.Path
	Dir  Direction
}

// Up and Down swap a node with its previous or next sibling.
var (
	Up   = Target{Dir: DirUp}
	Down = Target{Dir: DirDown}
)

// To returns an explicit-path target.
func To(p treepath.Path) Target { return Target{Path: p} }

// String formats the target for logs.
func (t Target) String() string {
	if t.Dir != DirNone {
		return t.Dir.String()
	}
	return t.Path.String()
}

// MoveOptions configures Move.
type MoveOptions struct {
	// Clone leaves the source in place and inserts a deep copy with fresh
	// ids. Ignored for Up and Down.
	Clone bool

	IDGenerator       query.IDGenerator
	DefaultCombinator query.Combinator
}

// Move relocates the node at from.
//
// For an explicit destination the path is read against the tree as it is
// before the move. When the source is removed first, any destination
// index after it at the same depth shifts down by one (two in IC groups)
// so the node lands in the slot the caller pointed at. The same shift is
// applied to a clone whose destination shares the source's parent.
//
// Rejections: the root as source (ROOT_PATH), destination equal to
// source (SAME_PATH), destination inside the source (ANCESTOR), and a
// move that would put the node back where it was (NO_OP).
func Move(tree *query.RuleGroup, from treepath.Path, to Target, opts MoveOptions) (*query.RuleGroup, error) {
	n, rerr := resolveNode("move", tree, from)
	if rerr != nil {
		return tree, rerr
	}
	if to.Dir != DirNone {
		return Shift(tree, from, to.Dir)
	}
	dst := to.Path
	if dst.IsRoot() {
		return tree, reject("move", ErrCodeRootPath, dst, "cannot move to the root")
	}
	if rerr := checkUnrelated("move", from, dst, false); rerr != nil {
		return tree, rerr
	}
	if _, rerr := resolveGroup("move", tree, dst.Parent()); rerr != nil {
		return tree, rerr
	}

	srcParent := treepath.FindGroup(tree, from.Parent())
	width := removalWidth(srcParent)
	insOpts := InsertOptions{DefaultCombinator: opts.DefaultCombinator, IDGenerator: opts.IDGenerator}

	if opts.Clone {
		adj := dst
		if dst.Parent().Equal(from.Parent()) && dst.Last() > from.Last() {
			adj = dst.Sibling(max(dst.Last()-width, 0))
		}
		next, err := Insert(tree, query.Clone(n, opts.IDGenerator), adj, insOpts)
		if err != nil {
			return tree, retag(err, "move")
		}
		return next, nil
	}

	adj, _ := treepath.ShiftAfterRemoval(dst, from, width)
	if adj.Parent().Equal(from.Parent()) && slotOrdinal(srcParent, adj.Last()) == nodeOrdinal(srcParent, from.Last()) {
		return tree, reject("move", ErrCodeNoOp, from, "destination %s is the current position", dst)
	}
	removed, err := Remove(tree, from)
	if err != nil {
		return tree, retag(err, "move")
	}
	next, err := Insert(removed, n, adj, insOpts)
	if err != nil {
		return tree, retag(err, "move")
	}
	return next, nil
}

// Shift swaps the node at p with its previous (DirUp) or next (DirDown)
// node sibling. In IC groups the combinators stay where they are.
func Shift(tree *query.RuleGroup, p treepath.Path, dir Direction) (*query.RuleGroup, error) {
	if _, rerr := resolveNode("move", tree, p); rerr != nil {
		return tree, rerr
	}
	parent := treepath.FindGroup(tree, p.Parent())
	step := removalWidth(parent)
	idx := p.Last()
	other := idx + step
	if dir == DirUp {
		other = idx - step
	}
	if other < 0 || other >= len(parent.Rules) {
		where := "last"
		if dir == DirUp {
			where = "first"
		}
		return tree, reject("move", ErrCodeNoOp, p, "node is already %s", where)
	}
	next, _ := withGroup(tree, p.Parent(), func(g *query.RuleGroup) bool {
		g.Rules[idx], g.Rules[other] = g.Rules[other], g.Rules[idx]
		return true
	})
	return next, nil
}

// nodeOrdinal is the position of the node at raw index idx among the
// group's nodes.
func nodeOrdinal(g *query.RuleGroup, idx int) int {
	if g.IsIC() {
		return idx / 2
	}
	return idx
}

// slotOrdinal is the node position an insertion at raw index idx lands
// on, after Insert's IC gap mapping.
func slotOrdinal(g *query.RuleGroup, idx int) int {
	if g.IsIC() {
		return (idx + 1) / 2
	}
	return idx
}

// retag reports a failure of a composed step under the caller's name.
func retag(err error, op string) error {
	if re, ok := err.(*RejectError); ok {
		c := *re
		c.Op = op
		return &c
	}
	return err
}
