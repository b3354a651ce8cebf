// Package options normalizes field, operator, combinator and value lists.
//
// User-supplied lists arrive flat, grouped under labels, or keyed by name.
// Prepare turns any of these into a Result: the options in declared order
// (keyed lists are ordered by key), the label groups when there were any,
// a lookup by name and by value, and the default option chosen by the
// placeholder and auto-select settings.
package options
