package options

import (
	"slices"
	"sort"
)

// Group is a labelled group of options.
type Group[T any] struct {
	Label   string `json:"label" yaml:"label"`
	Options []T    `json:"options" yaml:"options"`
}

// List is a raw option list in one of three shapes. At most one of Flat,
// Groups and Keyed is expected to be set; if several are, they are read
// in that order and concatenated.
type List[T any] struct {
	Flat   []T          `json:"flat,omitempty" yaml:"flat,omitempty"`
	Groups []Group[T]   `json:"groups,omitempty" yaml:"groups,omitempty"`
	Keyed  map[string]T `json:"keyed,omitempty" yaml:"keyed,omitempty"`
}

// Flat builds a flat list.
func Flat[T any](items ...T) List[T] {
	return List[T]{Flat: items}
}

// Grouped builds a grouped list.
func Grouped[T any](groups ...Group[T]) List[T] {
	return List[T]{Groups: groups}
}

// Keyed builds a list keyed by option name.
func Keyed[T any](m map[string]T) List[T] {
	return List[T]{Keyed: m}
}

// IsEmpty reports whether the list has no entries in any shape.
func (l List[T]) IsEmpty() bool {
	if len(l.Flat) > 0 || len(l.Keyed) > 0 {
		return false
	}
	for _, g := range l.Groups {
		if len(g.Options) > 0 {
			return false
		}
	}
	return true
}

// IsGrouped reports whether the list arrived in grouped form.
func (l List[T]) IsGrouped() bool { return len(l.Groups) > 0 }

// items flattens the list in declared order. keyed entries are ordered by
// key and get their key as name when they have none.
func items[T any, PT interface {
	*T
	opt() *Option
}](l List[T]) []T {
	out := slices.Clone(l.Flat)
	for _, g := range l.Groups {
		out = append(out, g.Options...)
	}
	if len(l.Keyed) > 0 {
		keys := make([]string, 0, len(l.Keyed))
		for k := range l.Keyed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			item := l.Keyed[k]
			if o := PT(&item).opt(); o.Name == "" {
				o.Name = k
			}
			out = append(out, item)
		}
	}
	return out
}
