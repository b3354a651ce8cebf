package builder

import (
	"github.com/roach88/querybuilder/internal/engine"
	"github.com/roach88/querybuilder/internal/query"
	"github.com/roach88/querybuilder/internal/treepath"
)

type verdictKind int

const (
	verdictAllow verdictKind = iota
	verdictDeny
	verdictNode
	verdictQuery
)

// Verdict is a hook's answer to a proposed action.
type Verdict struct {
	kind verdictKind
	node query.Node
	tree *query.RuleGroup
}

var (
	// Allow lets the action proceed as proposed.
	Allow = Verdict{kind: verdictAllow}
	// Deny cancels the action.
	Deny = Verdict{kind: verdictDeny}
)

// Substitute proceeds with n in place of the proposed node. Only add
// hooks honor it; elsewhere it acts as Allow.
func Substitute(n query.Node) Verdict {
	if n == nil {
		return Allow
	}
	return Verdict{kind: verdictNode, node: n}
}

// SubstituteQuery proceeds with tree in place of the proposed next tree.
// Only move, group and prop-change hooks honor it; elsewhere it acts as
// Allow.
func SubstituteQuery(tree *query.RuleGroup) Verdict {
	if tree == nil {
		return Allow
	}
	return Verdict{kind: verdictQuery, tree: tree}
}

// Denied reports whether v cancels the action.
func (v Verdict) Denied() bool { return v.kind == verdictDeny }

// Hooks are consulted before an action commits. Any may be nil.
type Hooks struct {
	OnAddRule  func(rule *query.Rule, parentPath treepath.Path, tree *query.RuleGroup) Verdict
	OnAddGroup func(group *query.RuleGroup, parentPath treepath.Path, tree *query.RuleGroup) Verdict
	OnRemove   func(n query.Node, p treepath.Path, tree *query.RuleGroup) Verdict

	OnPropChange func(prop engine.Prop, value any, p treepath.Path, tree, next *query.RuleGroup) Verdict

	OnMoveRule   func(rule *query.Rule, from, to treepath.Path, tree, next *query.RuleGroup) Verdict
	OnMoveGroup  func(group *query.RuleGroup, from, to treepath.Path, tree, next *query.RuleGroup) Verdict
	OnGroupRule  func(rule *query.Rule, source, target treepath.Path, tree, next *query.RuleGroup) Verdict
	OnGroupGroup func(group *query.RuleGroup, source, target treepath.Path, tree, next *query.RuleGroup) Verdict
}

// nodeOr returns the substituted node, or n.
func (v Verdict) nodeOr(n query.Node) query.Node {
	if v.kind == verdictNode {
		return v.node
	}
	return n
}

// treeOr returns the substituted tree, or t.
func (v Verdict) treeOr(t *query.RuleGroup) *query.RuleGroup {
	if v.kind == verdictQuery {
		return v.tree
	}
	return t
}
