package engine

import (
	"github.com/roach88/querybuilder/internal/query"
	"github.com/roach88/querybuilder/internal/treepath"
)

// GroupOptions configures Group.
type GroupOptions struct {
	// Clone wraps a deep copy of the source and leaves the original.
	Clone bool

	// Combinator joins the two wrapped nodes. Falls back to "and".
	Combinator query.Combinator

	IDGenerator query.IDGenerator
}

// Group wraps the nodes at source and target in a new group that takes
// the target's slot. The wrapper holds [source, target]; it uses
// independent combinators when the target's parent does. Unless Clone is
// set the source is then removed from its old slot.
//
// Source and target must be distinct non-root nodes, neither containing
// the other.
func Group(tree *query.RuleGroup, source, target treepath.Path, opts GroupOptions) (*query.RuleGroup, error) {
	src, rerr := resolveNode("group", tree, source)
	if rerr != nil {
		return tree, rerr
	}
	dst, rerr := resolveNode("group", tree, target)
	if rerr != nil {
		return tree, rerr
	}
	if rerr := checkUnrelated("group", source, target, true); rerr != nil {
		return tree, rerr
	}

	gen := opts.IDGenerator.Or()
	if opts.Clone {
		src = query.Clone(src, gen)
	}
	comb := orDefault(opts.Combinator, "")
	wrapper := &query.RuleGroup{ID: gen()}
	if treepath.FindGroup(tree, target.Parent()).IsIC() {
		wrapper.Rules = []query.Element{src, comb, dst}
	} else {
		wrapper.Combinator = comb
		wrapper.Rules = []query.Element{src, dst}
	}

	next, _ := replaceElement(tree, target, wrapper)
	if opts.Clone {
		return next, nil
	}
	// Replacing the target slot does not shift any index, so source still
	// addresses the original node.
	out, err := Remove(next, source)
	if err != nil {
		return tree, retag(err, "group")
	}
	return out, nil
}
