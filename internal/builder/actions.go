package builder

import (
	"errors"
	"fmt"

	"github.com/roach88/querybuilder/internal/engine"
	"github.com/roach88/querybuilder/internal/options"
	"github.com/roach88/querybuilder/internal/query"
	"github.com/roach88/querybuilder/internal/treepath"
)

// run applies op to the current tree and commits the result under e.
// Rejections are logged and leave the tree alone.
func (b *Builder) run(e LogEntry, op func(*query.RuleGroup) (*query.RuleGroup, error)) {
	next, err := op(b.tree)
	if err != nil {
		b.reject(e, err)
		return
	}
	b.commit(next, e)
}

func (b *Builder) reject(e LogEntry, err error) {
	e.Action, e.Type, e.Err = string(e.Type), LogRejected, err
	b.debug(e)
}

// active reports whether the builder still accepts actions.
func (b *Builder) active(action string) bool {
	if b.closed {
		b.logger.Debug("action on closed builder ignored", "builder", b.id, "action", action)
	}
	return !b.closed
}

func (b *Builder) addOptions() engine.AddOptions {
	return engine.AddOptions{
		DefaultCombinator: b.resolver.DefaultCombinator(),
		IDGenerator:       b.ids,
	}
}

// OnRuleAdd appends rule to the group at parentPath. A nil rule is
// replaced by NewRule().
func (b *Builder) OnRuleAdd(rule *query.Rule, parentPath treepath.Path) {
	if !b.active("addRule") {
		return
	}
	if rule == nil {
		rule = b.NewRule()
	}
	if b.pathDisabled(parentPath) {
		b.debug(LogEntry{Type: LogParentPathDisabled, Path: parentPath, Node: rule})
		return
	}
	var node query.Node = rule
	if h := b.hooks.OnAddRule; h != nil {
		v := h(rule, parentPath, b.tree)
		if v.Denied() {
			b.debug(LogEntry{Type: LogOnAddRuleFalse, Path: parentPath, Node: rule})
			return
		}
		node = v.nodeOr(node)
	}
	b.run(LogEntry{Type: LogAdd, Path: parentPath, Node: node}, func(t *query.RuleGroup) (*query.RuleGroup, error) {
		return engine.Add(t, node, parentPath, b.addOptions())
	})
}

// OnGroupAdd appends group to the group at parentPath. A nil group is
// replaced by NewGroup(). Adding below the configured nesting cap is
// refused.
func (b *Builder) OnGroupAdd(group *query.RuleGroup, parentPath treepath.Path) {
	if !b.active("addGroup") {
		return
	}
	if group == nil {
		group = b.NewGroup()
	}
	if limit := b.maxLevels(); limit > 0 && len(parentPath) >= limit {
		b.debug(LogEntry{Type: LogMaxLevelsExceeded, Path: parentPath, Node: group})
		return
	}
	if b.pathDisabled(parentPath) {
		b.debug(LogEntry{Type: LogParentPathDisabled, Path: parentPath, Node: group})
		return
	}
	var node query.Node = group
	if h := b.hooks.OnAddGroup; h != nil {
		v := h(group, parentPath, b.tree)
		if v.Denied() {
			b.debug(LogEntry{Type: LogOnAddGroupFalse, Path: parentPath, Node: group})
			return
		}
		node = v.nodeOr(node)
	}
	b.run(LogEntry{Type: LogAdd, Path: parentPath, Node: node}, func(t *query.RuleGroup) (*query.RuleGroup, error) {
		return engine.Add(t, node, parentPath, b.addOptions())
	})
}

// OnRuleRemove removes the rule at p.
func (b *Builder) OnRuleRemove(p treepath.Path) { b.remove(p) }

// OnGroupRemove removes the group at p.
func (b *Builder) OnGroupRemove(p treepath.Path) { b.remove(p) }

func (b *Builder) remove(p treepath.Path) {
	if !b.active("remove") {
		return
	}
	n := treepath.Find(b.tree, p)
	switch err := b.CanRemove(p); {
	case errors.Is(err, ErrPathDisabled):
		b.debug(LogEntry{Type: LogPathDisabled, Action: string(LogRemove), Path: p})
		return
	case errors.Is(err, ErrRemoveDenied):
		b.debug(LogEntry{Type: LogOnRemoveFalse, Path: p, Node: n})
		return
	}
	b.run(LogEntry{Type: LogRemove, Path: p, Node: n}, func(t *query.RuleGroup) (*query.RuleGroup, error) {
		return engine.Remove(t, p)
	})
}

// CanRemove reports why removing the element at p would be refused, or
// nil when it would go ahead. A cross-builder drop asks the source
// before the target changes.
func (b *Builder) CanRemove(p treepath.Path) error {
	if b.closed {
		return ErrClosed
	}
	if b.pathDisabled(p) {
		return fmt.Errorf("remove %s: %w", p, ErrPathDisabled)
	}
	n := treepath.Find(b.tree, p)
	if h := b.hooks.OnRemove; h != nil && n != nil && h(n, p, b.tree).Denied() {
		return fmt.Errorf("remove %s: %w", p, ErrRemoveDenied)
	}
	return nil
}

// OnPropChange sets prop to value on the element at p.
//
// A disabled path only accepts changes to PropDisabled and PropMuted, so
// a locked node can still be unlocked. When the whole builder is
// disabled nothing changes. A value equal to a placeholder sentinel is
// stored as "".
func (b *Builder) OnPropChange(prop engine.Prop, value any, p treepath.Path) {
	if !b.active("update") {
		return
	}
	unlocking := prop == engine.PropDisabled || prop == engine.PropMuted
	if b.flags.Disabled || (!unlocking && b.pathDisabled(p)) {
		b.debug(LogEntry{Type: LogPathDisabled, Action: string(LogUpdate), Path: p, Prop: prop, Value: value})
		return
	}
	if prop == engine.PropValue && isPlaceholderValue(value) {
		value = ""
	}

	e := LogEntry{Type: LogUpdate, Path: p, Prop: prop, Value: value}
	next, err := engine.Update(b.tree, prop, value, p, engine.UpdateOptions{
		ResetOnFieldChange:    b.flags.ResetOnFieldChange,
		ResetOnOperatorChange: b.flags.ResetOnOperatorChange,
		Defaults:              b.resolver,
	})
	if err != nil {
		b.reject(e, err)
		return
	}
	if next == b.tree {
		return
	}
	if h := b.hooks.OnPropChange; h != nil {
		v := h(prop, value, p, b.tree, next)
		if v.Denied() {
			b.debug(LogEntry{Type: LogOnPropChangeFalse, Path: p, Prop: prop, Value: value, Next: next})
			return
		}
		next = v.treeOr(next)
	}
	b.commit(next, e)
}

func isPlaceholderValue(v any) bool {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case query.String:
		s = string(x)
	default:
		return false
	}
	return options.IsPlaceholder(s)
}

// MoveRule moves the node at from to the target, or copies it when clone
// is set.
func (b *Builder) MoveRule(from treepath.Path, to engine.Target, clone bool) {
	if !b.active("move") {
		return
	}
	if b.pathDisabled(from) || (to.Dir == engine.DirNone && b.pathDisabled(to.Path.Parent())) {
		b.debug(LogEntry{Type: LogPathDisabled, Action: string(LogMove), Path: from, Dest: to.Path, Clone: clone})
		return
	}
	e := LogEntry{Type: LogMove, Path: from, Dest: to.Path, Clone: clone}
	n := treepath.Find(b.tree, from)
	e.Node = n
	next, err := engine.Move(b.tree, from, to, engine.MoveOptions{
		Clone:             clone,
		IDGenerator:       b.ids,
		DefaultCombinator: b.resolver.DefaultCombinator(),
	})
	if err != nil {
		b.reject(e, err)
		return
	}

	dest := to.Path
	if to.Dir != engine.DirNone {
		dest, _ = treepath.PathOfID(next, n.NodeID())
		e.Dest = dest
	}
	var v Verdict
	switch node := n.(type) {
	case *query.Rule:
		if h := b.hooks.OnMoveRule; h != nil {
			v = h(node, from, dest, b.tree, next)
			e.Type = pick(v.Denied(), LogOnMoveRuleFalse, LogMove)
		}
	case *query.RuleGroup:
		if h := b.hooks.OnMoveGroup; h != nil {
			v = h(node, from, dest, b.tree, next)
			e.Type = pick(v.Denied(), LogOnMoveGroupFalse, LogMove)
		}
	}
	if v.Denied() {
		e.Next = next
		b.debug(e)
		return
	}
	b.commit(v.treeOr(next), e)
}

// ShiftRule swaps the node at p with its previous or next sibling.
func (b *Builder) ShiftRule(p treepath.Path, dir engine.Direction) {
	b.MoveRule(p, engine.Target{Dir: dir}, false)
}

// CloneRule inserts a copy of the rule at p next to it.
func (b *Builder) CloneRule(p treepath.Path) { b.cloneAt(p) }

// CloneGroup inserts a copy of the group at p next to it.
func (b *Builder) CloneGroup(p treepath.Path) { b.cloneAt(p) }

func (b *Builder) cloneAt(p treepath.Path) {
	if p.IsRoot() {
		b.reject(LogEntry{Type: LogMove, Path: p, Clone: true},
			&engine.RejectError{Code: engine.ErrCodeRootPath, Op: "clone", Message: "cannot clone the root", Path: p})
		return
	}
	b.MoveRule(p, engine.To(p.Sibling(p.Last()+1)), true)
}

// GroupRule wraps the nodes at source and target in a new group at the
// target's slot, copying the source when clone is set.
func (b *Builder) GroupRule(source, target treepath.Path, clone bool) {
	if !b.active("group") {
		return
	}
	if b.pathDisabled(source) || b.pathDisabled(target) {
		b.debug(LogEntry{Type: LogPathDisabled, Action: string(LogGroup), Path: source, Dest: target, Clone: clone})
		return
	}
	e := LogEntry{Type: LogGroup, Path: source, Dest: target, Clone: clone}
	n := treepath.Find(b.tree, source)
	e.Node = n
	next, err := engine.Group(b.tree, source, target, engine.GroupOptions{
		Clone:       clone,
		Combinator:  b.resolver.DefaultCombinator(),
		IDGenerator: b.ids,
	})
	if err != nil {
		b.reject(e, err)
		return
	}

	var v Verdict
	switch node := n.(type) {
	case *query.Rule:
		if h := b.hooks.OnGroupRule; h != nil {
			v = h(node, source, target, b.tree, next)
			e.Type = pick(v.Denied(), LogOnGroupRuleFalse, LogGroup)
		}
	case *query.RuleGroup:
		if h := b.hooks.OnGroupGroup; h != nil {
			v = h(node, source, target, b.tree, next)
			e.Type = pick(v.Denied(), LogOnGroupGroupFalse, LogGroup)
		}
	}
	if v.Denied() {
		e.Next = next
		b.debug(e)
		return
	}
	b.commit(v.treeOr(next), e)
}

// Dispatch replaces the whole tree.
func (b *Builder) Dispatch(tree *query.RuleGroup) {
	if !b.active("dispatch") || tree == nil {
		return
	}
	b.commit(query.EnsureIDs(tree, b.ids).(*query.RuleGroup), LogEntry{Type: LogQueryUpdate})
}

// ConvertToIC switches the tree to independent combinators.
func (b *Builder) ConvertToIC() {
	if !b.active("convert") {
		return
	}
	b.setForm(true)
	b.commit(engine.ConvertToIC(b.tree), LogEntry{Type: LogQueryUpdate, Action: "convertToIC"})
}

// ConvertFromIC switches the tree to one combinator per group.
func (b *Builder) ConvertFromIC() {
	if !b.active("convert") {
		return
	}
	b.setForm(false)
	b.commit(b.convertFromIC(b.tree), LogEntry{Type: LogQueryUpdate, Action: "convertFromIC"})
}

// setForm keeps a configured combinator form in step with a conversion.
func (b *Builder) setForm(ic bool) {
	if b.flags.IndependentCombinators != nil {
		b.flags.IndependentCombinators = &ic
	}
}

func pick[T any](cond bool, yes, no T) T {
	if cond {
		return yes
	}
	return no
}
