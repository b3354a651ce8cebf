// Package engine implements the query-tree mutation engine.
//
// Every operation takes a tree and returns a new tree. The input is never
// modified: groups on the path from the root to the mutation site are
// copied and every other subtree is shared by reference with the input.
//
// OPERATIONS:
//
//	Add      append a node to a group
//	Insert   place a node at an arbitrary path, optionally replacing
//	Remove   excise a node
//	Update   set one property of a rule, group or IC combinator
//	Move     relocate (or copy) a node to another path, or Up/Down
//	Group    wrap two nodes in a new group at the target's slot
//	ConvertToIC / ConvertFromIC  switch the combinator form of a tree
//
// FAILURE SEMANTICS:
//
// A rejected operation returns the original tree pointer together with a
// *RejectError. Callers that only care about the tree can ignore the
// error: the result is always a valid tree. Updates that would not change
// anything return the original tree and a nil error.
//
// INDEX POLICY:
//
// After a node is spliced out, any sibling index greater than the removed
// index decrements by one (by two in independent-combinator groups, where
// a combinator goes with it). Move and Group use this same rule, via
// treepath.ShiftAfterRemoval, to land the node in the slot the caller
// pointed at before the removal.
package engine
