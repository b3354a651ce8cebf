package builder

import (
	"context"
	"errors"
	"time"

	"github.com/roach88/querybuilder/internal/asyncopts"
	"github.com/roach88/querybuilder/internal/dnd"
	"github.com/roach88/querybuilder/internal/options"
	"github.com/roach88/querybuilder/internal/query"
)

var (
	// ErrClosed is returned by calls on a closed builder that report errors.
	ErrClosed = errors.New("builder closed")
	// ErrPathDisabled is returned when the addressed path is disabled.
	ErrPathDisabled = errors.New("path is disabled")
	// ErrRemoveDenied is returned when the OnRemove hook refuses a removal.
	ErrRemoveDenied = errors.New("removal denied by hook")
)

// LoadOptions returns the option list for n, fetched with load and cached
// in this builder's store under the key spec derives from n. Lists stay
// fresh for the configured optionCacheTTL.
func (b *Builder) LoadOptions(ctx context.Context, n query.Node, spec asyncopts.KeySpec, load asyncopts.Loader) (options.Result[options.Option], error) {
	if b.closed {
		return options.Result[options.Option]{}, ErrClosed
	}
	return b.OptionStore().Load(ctx, asyncopts.CacheKey(n, spec), b.optionTTL(), load)
}

// OptionStore returns this builder's async option store.
func (b *Builder) OptionStore() *asyncopts.Store { return b.stores.For(b.id) }

func (b *Builder) optionTTL() time.Duration { return b.flags.OptionCacheTTL }

// Drop applies a drag-and-drop gesture. It is called on the builder the
// item was dragged from; the target may be in this builder or, through
// the registry, in another one. Empty builder ids mean this builder.
//
// The drop is first checked with the builder's drop policy; a refused
// drop is logged and its reason returned.
func (b *Builder) Drop(d dnd.Dragging, h dnd.Hovering, mode dnd.Mode) error {
	if b.closed {
		return ErrClosed
	}
	if d.BuilderID == "" {
		d.BuilderID = b.id
	}
	if h.BuilderID == "" {
		h.BuilderID = b.id
	}
	if h.BuilderID == b.id && b.pathDisabled(h.Path) {
		h.Disabled = true
	}
	policy := b.dropPolicy
	policy.IndependentCombinators = b.IndependentCombinators()
	if err := dnd.Check(&d, h, mode, policy); err != nil {
		b.debug(LogEntry{Type: LogDropRefused, Action: string(mode), Path: d.Path, Dest: h.Path, Err: err})
		return err
	}
	var resolve dnd.Resolver
	if b.registry != nil {
		resolve = b.registry.Resolver()
	}
	if err := dnd.Apply(d, h, mode, b, resolve); err != nil {
		b.debug(LogEntry{Type: LogRejected, Action: "drop", Path: d.Path, Dest: h.Path, Err: err})
		return err
	}
	return nil
}
