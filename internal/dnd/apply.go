package dnd

import (
	"errors"
	"fmt"

	"github.com/roach88/querybuilder/internal/engine"
	"github.com/roach88/querybuilder/internal/query"
	"github.com/roach88/querybuilder/internal/treepath"
)

// Instance is the part of a query builder a drop acts on.
type Instance interface {
	ID() string
	Query() *query.RuleGroup
	MoveRule(from treepath.Path, to engine.Target, clone bool)
	GroupRule(source, target treepath.Path, clone bool)
	OnRuleRemove(p treepath.Path)
	CanRemove(p treepath.Path) error
	Dispatch(tree *query.RuleGroup)
}

// Resolver finds a live builder by id.
type Resolver func(id string) (Instance, bool)

// ErrUnknownBuilder is returned when the hovered builder is not live.
var ErrUnknownBuilder = errors.New("unknown builder")

// Apply carries out an accepted drop of d on h.
//
// Within one builder the drop becomes a MoveRule (clone for ModeCopy) or
// a GroupRule. Across builders the node is inserted into the other
// builder's tree, which is dispatched as a whole, and then removed from
// source unless mode is ModeCopy. A move the source would refuse to
// remove is rejected before either tree changes. A group drop across builders first
// appends the node to the other root and groups it from there.
func Apply(d Dragging, h Hovering, mode Mode, source Instance, resolve Resolver) error {
	dest := Destination(h, mode)

	if d.BuilderID == h.BuilderID {
		if mode == ModeGroup {
			source.GroupRule(d.Path, dest, false)
		} else {
			source.MoveRule(d.Path, engine.To(dest), mode == ModeCopy)
		}
		return nil
	}

	var target Instance
	if resolve != nil {
		target, _ = resolve(h.BuilderID)
	}
	if target == nil {
		return fmt.Errorf("drop on builder %q: %w", h.BuilderID, ErrUnknownBuilder)
	}
	node := d.Node
	if node == nil {
		node = treepath.Find(source.Query(), d.Path)
	}
	if node == nil {
		return fmt.Errorf("drop from %s: %w", d.Path, &engine.RejectError{
			Code:    engine.ErrCodeInvalidPath,
			Op:      "drop",
			Message: "dragged path does not resolve",
			Path:    d.Path,
		})
	}

	if mode != ModeCopy {
		if err := source.CanRemove(d.Path); err != nil {
			return fmt.Errorf("drop from %s: %w", d.Path, err)
		}
	}

	next, err := insertInto(target.Query(), node, dest, mode)
	if err != nil {
		return fmt.Errorf("drop on builder %q: %w", h.BuilderID, err)
	}
	target.Dispatch(next)
	if mode != ModeCopy {
		source.OnRuleRemove(d.Path)
	}
	return nil
}

func insertInto(other *query.RuleGroup, node query.Node, dest treepath.Path, mode Mode) (*query.RuleGroup, error) {
	if mode != ModeGroup {
		return engine.Insert(other, node, dest, engine.InsertOptions{})
	}
	added, err := engine.Add(other, node, treepath.Root, engine.AddOptions{})
	if err != nil {
		return other, err
	}
	appended := treepath.Root.Child(len(added.Rules) - 1)
	return engine.Group(added, appended, dest, engine.GroupOptions{})
}
