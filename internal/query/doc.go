// Package query defines the rule/group tree edited by a query builder.
//
// This package contains the data model only. Every other internal package
// imports query; query imports nothing internal.
//
// A tree is a *RuleGroup whose Rules hold *Rule and *RuleGroup nodes. In
// independent-combinator (IC) form a group carries no Combinator and its
// Rules alternate node, Combinator, node, ... so len(Rules) is always odd
// (or zero). In standard form every element is a node and the group's
// Combinator applies between all siblings.
//
// Trees are treated as immutable values. Mutation helpers in other
// packages copy the groups along the path they touch and share every
// other subtree by reference, so a *RuleGroup handed out once is never
// modified afterwards.
//
// Key design constraints:
//   - Element and Value are sealed interfaces
//   - JSON is a direct structural dump with camelCase keys
//   - MarshalCanonical is the only encoding used for hashing and golden files
package query
