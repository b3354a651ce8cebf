// Package factory creates rules and groups and computes their defaults.
//
// A Resolver is built once per builder configuration. It prepares the
// field and combinator lists, then answers the questions the engine and
// the builder ask when a node is created or a rule's field changes: which
// operator, value source, value and match config a rule on a given field
// should start with. Resolver never fails; when nothing real can be
// selected it falls back to the placeholder sentinels.
package factory
