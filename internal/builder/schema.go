package builder

import (
	"github.com/roach88/querybuilder/internal/options"
	"github.com/roach88/querybuilder/internal/treepath"
	"github.com/roach88/querybuilder/internal/validation"
)

// Schema is the view a rendering layer draws from. It is recomputed
// exactly once per tree replacement.
type Schema struct {
	BuilderID string
	// Revision counts recomputations, starting at 1.
	Revision int

	Fields      options.Result[options.Field]
	Operators   options.Result[options.Option]
	Combinators options.Result[options.Option]

	Validation validation.Results

	IndependentCombinators bool
	// MaxLevels is the effective nesting cap; 0 means unlimited.
	MaxLevels     int
	QueryDisabled bool
	DisabledPaths []treepath.Path
}

// Schema returns the current schema.
func (b *Builder) Schema() Schema { return b.schema }

func (b *Builder) recompute() {
	b.schema = Schema{
		BuilderID:              b.id,
		Revision:               b.schema.Revision + 1,
		Fields:                 b.resolver.Fields(),
		Operators:              b.resolver.Operators(""),
		Combinators:            b.resolver.Combinators(),
		Validation:             validation.Run(b.tree, b.validator),
		IndependentCombinators: b.IndependentCombinators(),
		MaxLevels:              b.maxLevels(),
		QueryDisabled:          b.flags.Disabled,
		DisabledPaths:          b.disabledPaths,
	}
}

func (b *Builder) maxLevels() int {
	if b.flags.MaxLevels <= 0 {
		return 0
	}
	return max(1, b.flags.MaxLevels)
}

// pathDisabled reports whether actions at p are locked: the whole
// builder is disabled, a node on p has its disabled flag, or a
// configured disabled path covers p.
func (b *Builder) pathDisabled(p treepath.Path) bool {
	if b.flags.Disabled || treepath.IsDisabled(b.tree, p) {
		return true
	}
	for _, dp := range b.disabledPaths {
		if dp.Covers(p) {
			return true
		}
	}
	return false
}

// Children lists the elements of the group at p with their paths and
// effective disabled state, for rendering. It returns nil when p is not
// a group.
func (b *Builder) Children(p treepath.Path) []treepath.ChildInfo {
	infos := treepath.Children(treepath.FindGroup(b.tree, p), p, b.pathDisabled(p))
	for i := range infos {
		if !infos[i].Disabled && b.pathDisabled(infos[i].Path) {
			infos[i].Disabled = true
		}
	}
	return infos
}

// Operators returns the prepared operator list for a field.
func (b *Builder) Operators(field string) options.Result[options.Option] {
	return b.resolver.Operators(field)
}

// Values returns the prepared value list for a field and operator.
func (b *Builder) Values(field, operator string) options.Result[options.Option] {
	return b.resolver.Values(field, operator)
}
