package query

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces unique node ids.
type IDGenerator func() string

// NewID returns a time-ordered UUID (v7). If the random source fails it
// falls back to a timestamp plus random suffix.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("%x-%x", time.Now().UnixNano(), rand.Uint64())
	}
	return id.String()
}

// Or returns gen, or NewID when gen is nil.
func (gen IDGenerator) Or() IDGenerator {
	if gen == nil {
		return NewID
	}
	return gen
}

// Clone returns a deep copy of n with fresh ids for n and every node
// beneath it, sub-query values included.
func Clone(n Node, gen IDGenerator) Node {
	gen = gen.Or()
	switch node := n.(type) {
	case *Rule:
		c := node.Copy()
		c.ID = gen()
		if sub, ok := c.Value.(*RuleGroup); ok {
			c.Value = Clone(sub, gen).(*RuleGroup)
		}
		return c
	case *RuleGroup:
		c := node.Copy()
		c.ID = gen()
		for i, e := range c.Rules {
			if child, ok := e.(Node); ok {
				c.Rules[i] = Clone(child, gen)
			}
		}
		return c
	default:
		return n
	}
}

// EnsureIDs returns n with ids assigned to every node that lacks one.
// Nodes that already have ids, and subtrees that need no change, are
// returned as is.
func EnsureIDs(n Node, gen IDGenerator) Node {
	gen = gen.Or()
	switch node := n.(type) {
	case *Rule:
		sub, hasSub := node.Value.(*RuleGroup)
		var newSub *RuleGroup
		if hasSub {
			newSub = EnsureIDs(sub, gen).(*RuleGroup)
		}
		if node.ID != "" && newSub == sub {
			return node
		}
		c := node.Copy()
		if c.ID == "" {
			c.ID = gen()
		}
		if hasSub {
			c.Value = newSub
		}
		return c
	case *RuleGroup:
		var c *RuleGroup
		for i, e := range node.Rules {
			child, ok := e.(Node)
			if !ok {
				continue
			}
			if nc := EnsureIDs(child, gen); nc != child {
				if c == nil {
					c = node.Copy()
				}
				c.Rules[i] = nc
			}
		}
		if node.ID == "" {
			if c == nil {
				c = node.Copy()
			}
			c.ID = gen()
		}
		if c == nil {
			return node
		}
		return c
	default:
		return n
	}
}
