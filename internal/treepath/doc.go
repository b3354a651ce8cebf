// Package treepath addresses nodes in a query tree by integer index paths.
//
// A Path is a sequence of indices into successive RuleGroup.Rules slices:
// the empty path is the root, [i] is root.Rules[i], [i, j] is
// root.Rules[i].Rules[j] and so on. In independent-combinator groups the
// indices count combinator elements too, so nodes sit at even indices.
//
// Every function here is pure and total. Find is the only one that
// signals failure, and it does so by returning nil.
package treepath
