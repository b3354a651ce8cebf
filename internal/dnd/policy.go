// Package dnd decides whether a drag-and-drop gesture may land and turns
// an accepted drop into engine operations.
//
// The pointer and keyboard plumbing lives in the rendering layer. By the
// time a drop reaches this package it is reduced to the dragged item, the
// hovered target and a Mode picked from the held modifier keys.
package dnd

import (
	"errors"

	"github.com/roach88/querybuilder/internal/query"
	"github.com/roach88/querybuilder/internal/treepath"
)

// Kind is the kind of element under the pointer.
type Kind string

const (
	// KindRule drops after the hovered rule.
	KindRule Kind = "rule"
	// KindGroup drops into the hovered group as its first child.
	KindGroup Kind = "ruleGroup"
	// KindInlineCombinator drops into the gap the combinator sits in.
	KindInlineCombinator Kind = "inlineCombinator"
)

// Mode is the effect of a drop.
type Mode string

const (
	ModeMove  Mode = "move"
	ModeCopy  Mode = "copy"
	ModeGroup Mode = "group"
)

// Dragging is the item being dragged.
type Dragging struct {
	Path      treepath.Path
	BuilderID string
	// Node is the dragged node. Apply reads it from the source builder
	// when nil.
	Node query.Node
}

// Hovering is the drop target under the pointer.
//
// For KindInlineCombinator, Path is the slot: the parent group's path
// plus the raw index an insertion there would use.
type Hovering struct {
	Path      treepath.Path
	BuilderID string
	Kind      Kind
	Disabled  bool
	// Node is the hovered rule or group, for predicates. Nil for
	// combinators.
	Node query.Node
}

// Policy tunes CanDrop.
type Policy struct {
	// RequireSameInstance refuses drops between different builders.
	RequireSameInstance bool

	// IndependentCombinators is the combinator form of the hovered
	// builder. It decides how sibling slots are counted.
	IndependentCombinators bool

	// Allow is an extra predicate consulted after the built-in rules.
	Allow func(d Dragging, h Hovering, mode Mode) bool
}

// Reasons a drop is refused.
var (
	ErrNothingDragged  = errors.New("nothing is being dragged")
	ErrOtherInstance   = errors.New("drop target belongs to another builder")
	ErrTargetDisabled  = errors.New("drop target is disabled")
	ErrSamePath        = errors.New("drop target is the dragged item")
	ErrIntoDescendant  = errors.New("drop target is inside the dragged item")
	ErrAroundAncestor  = errors.New("drop target contains the dragged item")
	ErrCurrentPosition = errors.New("drop target is the item's current position")
	ErrVetoed          = errors.New("drop refused by predicate")
	ErrGroupOnGap      = errors.New("cannot group with a combinator slot")
)

// Check returns nil when d may be dropped on h in the given mode, or the
// reason it may not.
//
// Drops across builders skip the path rules: the two paths address
// different trees.
func Check(d *Dragging, h Hovering, mode Mode, p Policy) error {
	if d == nil {
		return ErrNothingDragged
	}
	if h.Disabled {
		return ErrTargetDisabled
	}
	if mode == ModeGroup && h.Kind == KindInlineCombinator {
		return ErrGroupOnGap
	}
	if d.BuilderID != h.BuilderID {
		if p.RequireSameInstance {
			return ErrOtherInstance
		}
		return allow(d, h, mode, p)
	}
	if h.Kind != KindInlineCombinator && h.Path.Equal(d.Path) {
		return ErrSamePath
	}
	if d.Path.IsAncestorOf(h.Path) {
		return ErrIntoDescendant
	}
	if mode == ModeGroup {
		if h.Path.IsAncestorOf(d.Path) {
			return ErrAroundAncestor
		}
	} else if isCurrentPosition(d.Path, Destination(h, mode), p.IndependentCombinators) {
		return ErrCurrentPosition
	}
	return allow(d, h, mode, p)
}

// CanDrop reports whether Check accepts the drop.
func CanDrop(d *Dragging, h Hovering, mode Mode, p Policy) bool {
	return Check(d, h, mode, p) == nil
}

func allow(d *Dragging, h Hovering, mode Mode, p Policy) error {
	if p.Allow != nil && !p.Allow(*d, h, mode) {
		return ErrVetoed
	}
	return nil
}

// Destination computes where a drop on h lands, as a path read against
// the tree before the drop.
func Destination(h Hovering, mode Mode) treepath.Path {
	switch {
	case mode == ModeGroup:
		return treepath.Of(h.Path...)
	case h.Kind == KindGroup:
		return h.Path.Child(0)
	case h.Kind == KindInlineCombinator:
		return treepath.Of(h.Path...)
	default:
		return h.Path.Sibling(h.Path.Last() + 1)
	}
}

// isCurrentPosition reports whether inserting at dst, in the parent of
// src, would put src back in its own slot: directly before or directly
// after itself.
func isCurrentPosition(src, dst treepath.Path, ic bool) bool {
	if src.IsRoot() || dst.IsRoot() || !dst.Parent().Equal(src.Parent()) {
		return false
	}
	from, to := src.Last(), dst.Last()
	if ic {
		from, to = from/2, (to+1)/2
	}
	return to == from || to == from+1
}
