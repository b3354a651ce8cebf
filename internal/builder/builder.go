// Package builder holds the state of one query builder and exposes the
// actions a rendering layer calls in response to user input.
//
// A Builder runs in one of two modes, fixed when it is created:
//
//	uncontrolled  the builder owns the tree and replaces it on each action
//	controlled    the caller owns the tree; actions only propose the next
//	              tree through OnChange and the caller feeds it back with
//	              SetQuery
//
// Every action is synchronous and either commits one new tree or leaves
// the current one in place. Rejections, disabled paths and hook vetoes
// are logged and never returned to the caller.
//
// A Builder is not safe for concurrent use. OnChange may call back into
// the builder (SetQuery in controlled mode is the usual case).
package builder

import (
	"log/slog"

	"github.com/roach88/querybuilder/internal/asyncopts"
	"github.com/roach88/querybuilder/internal/config"
	"github.com/roach88/querybuilder/internal/dnd"
	"github.com/roach88/querybuilder/internal/engine"
	"github.com/roach88/querybuilder/internal/factory"
	"github.com/roach88/querybuilder/internal/options"
	"github.com/roach88/querybuilder/internal/query"
	"github.com/roach88/querybuilder/internal/treepath"
	"github.com/roach88/querybuilder/internal/validation"
)

// Builder is one query builder instance.
type Builder struct {
	id     string
	logger *slog.Logger
	flags  config.Flags

	factoryCfg factory.Config
	resolver   *factory.Resolver
	ids        query.IDGenerator

	hooks     Hooks
	validator validation.Validator
	onChange  func(*query.RuleGroup)
	onLog     func(LogEntry)

	registry   *Registry
	stores     *asyncopts.Registry
	dropPolicy dnd.Policy

	// Construction inputs; see New.
	value        *query.RuleGroup
	defaultValue *query.RuleGroup

	controlled    bool
	tree          *query.RuleGroup
	disabledPaths []treepath.Path
	schema        Schema
	closed        bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithID sets the builder id. A random id is used otherwise.
func WithID(id string) Option {
	return func(b *Builder) { b.id = id }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithFlags replaces the behavior flags. Defaults to config.DefaultFlags().
func WithFlags(f config.Flags) Option {
	return func(b *Builder) { b.flags = f }
}

// WithFields sets the field list.
func WithFields(fields options.List[options.Field]) Option {
	return func(b *Builder) { b.factoryCfg.Fields = fields }
}

// WithOperators sets the global operator list.
func WithOperators(ops options.List[options.Option]) Option {
	return func(b *Builder) { b.factoryCfg.Operators = ops }
}

// WithCombinators sets the combinator list.
func WithCombinators(combinators options.List[options.Option]) Option {
	return func(b *Builder) { b.factoryCfg.Combinators = combinators }
}

// WithOverrides sets the default-selection overrides.
func WithOverrides(o factory.Overrides) Option {
	return func(b *Builder) { b.factoryCfg.Overrides = o }
}

// WithIDGenerator sets the generator for new node ids.
func WithIDGenerator(gen query.IDGenerator) Option {
	return func(b *Builder) { b.ids = gen }
}

// WithQuery makes the builder controlled, starting from tree.
func WithQuery(tree *query.RuleGroup) Option {
	return func(b *Builder) { b.value = tree }
}

// WithDefaultQuery makes the builder uncontrolled, starting from tree.
func WithDefaultQuery(tree *query.RuleGroup) Option {
	return func(b *Builder) { b.defaultValue = tree }
}

// WithOnChange sets the callback that receives every new tree.
func WithOnChange(fn func(*query.RuleGroup)) Option {
	return func(b *Builder) { b.onChange = fn }
}

// WithOnLog sets the callback that receives events in debug mode.
func WithOnLog(fn func(LogEntry)) Option {
	return func(b *Builder) { b.onLog = fn }
}

// WithHooks sets the pre-commit hooks.
func WithHooks(h Hooks) Option {
	return func(b *Builder) { b.hooks = h }
}

// WithValidator sets the validator run on every new tree.
func WithValidator(v validation.Validator) Option {
	return func(b *Builder) { b.validator = v }
}

// WithRegistry registers the builder in r until Close.
func WithRegistry(r *Registry) Option {
	return func(b *Builder) { b.registry = r }
}

// WithOptionStores shares async option stores with other builders. Each
// builder still gets its own store, keyed by its id.
func WithOptionStores(r *asyncopts.Registry) Option {
	return func(b *Builder) { b.stores = r }
}

// WithDropPolicy sets the drag-and-drop policy.
func WithDropPolicy(p dnd.Policy) Option {
	return func(b *Builder) { b.dropPolicy = p }
}

// New creates a builder.
//
// Passing both WithQuery and WithDefaultQuery is a usage error: it is
// logged and the builder is controlled. With neither, the builder is
// uncontrolled and starts from an empty group.
func New(opts ...Option) *Builder {
	b := &Builder{
		logger: slog.Default(),
		flags:  config.DefaultFlags(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.id == "" {
		b.id = query.NewID()
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.stores == nil {
		b.stores = asyncopts.NewRegistry()
	}
	b.ids = b.ids.Or()
	b.resolver = factory.New(b.resolverConfig())
	b.disabledPaths = make([]treepath.Path, len(b.flags.DisabledPaths))
	for i, p := range b.flags.DisabledPaths {
		b.disabledPaths[i] = treepath.Of(p...)
	}

	initial := b.defaultValue
	switch {
	case b.value != nil && b.defaultValue != nil:
		b.warn("both a query and a default query were supplied; the builder is controlled")
		b.controlled, initial = true, b.value
	case b.value != nil:
		b.controlled, initial = true, b.value
	}

	tree, converted := b.prepare(initial)
	b.tree = tree
	b.recompute()

	if b.registry != nil {
		if err := b.registry.Register(b); err != nil {
			b.warn("builder not registered", "error", err)
		}
	}
	if b.onChange != nil && (b.flags.EnableMountQueryChange || converted) {
		b.onChange(b.tree)
	}
	return b
}

func (b *Builder) resolverConfig() factory.Config {
	cfg := b.factoryCfg
	cfg.AutoSelectField = b.flags.AutoSelectField
	cfg.AutoSelectOperator = b.flags.AutoSelectOperator
	cfg.AutoSelectValue = b.flags.AutoSelectValue
	cfg.ListsAsArrays = b.flags.ListsAsArrays
	cfg.AddRuleToNewGroups = b.flags.AddRuleToNewGroups
	cfg.PlaceholderFieldLabel = b.flags.PlaceholderFieldLabel
	cfg.PlaceholderOperatorLabel = b.flags.PlaceholderOperatorLabel
	cfg.PlaceholderValueLabel = b.flags.PlaceholderValueLabel
	cfg.IDGenerator = b.ids
	return cfg
}

// prepare fills in missing ids and brings tree into the configured
// combinator form. converted reports whether the form changed.
func (b *Builder) prepare(tree *query.RuleGroup) (_ *query.RuleGroup, converted bool) {
	if tree == nil {
		tree = &query.RuleGroup{Rules: []query.Element{}}
		if ic := b.flags.IndependentCombinators; ic == nil || !*ic {
			tree.Combinator = b.resolver.DefaultCombinator()
		}
	}
	tree = query.EnsureIDs(tree, b.ids).(*query.RuleGroup)

	ic := b.flags.IndependentCombinators
	switch {
	case ic == nil:
	case *ic && !tree.IsIC():
		return engine.ConvertToIC(tree), true
	case !*ic && tree.IsIC():
		return b.convertFromIC(tree), true
	}
	return tree, false
}

func (b *Builder) convertFromIC(tree *query.RuleGroup) *query.RuleGroup {
	return engine.ConvertFromIC(tree, engine.ConvertOptions{
		DefaultCombinator: b.resolver.DefaultCombinator(),
		IDGenerator:       b.ids,
	})
}

// ID returns the builder id.
func (b *Builder) ID() string { return b.id }

// Query returns the current tree. Callers must not modify it.
func (b *Builder) Query() *query.RuleGroup { return b.tree }

// Controlled reports whether the caller owns the tree.
func (b *Builder) Controlled() bool { return b.controlled }

// Resolver returns the option and default resolver.
func (b *Builder) Resolver() *factory.Resolver { return b.resolver }

// IndependentCombinators reports the combinator form in use: the
// configured one, or the root's form when none is configured.
func (b *Builder) IndependentCombinators() bool {
	if ic := b.flags.IndependentCombinators; ic != nil {
		return *ic
	}
	return b.tree.IsIC()
}

// NewRule builds a rule with default field, operator and value.
func (b *Builder) NewRule() *query.Rule { return b.resolver.CreateRule() }

// NewGroup builds an empty group in the builder's combinator form.
func (b *Builder) NewGroup() *query.RuleGroup {
	return b.resolver.CreateRuleGroup(b.IndependentCombinators())
}

// SetQuery feeds a tree owned by the caller into a controlled builder.
//
// Calling it on an uncontrolled builder switches it to controlled, and
// passing nil to a controlled builder switches it back. Both switches
// are usage errors: they are logged and then honored.
func (b *Builder) SetQuery(tree *query.RuleGroup) {
	if tree == nil {
		if b.controlled {
			b.warn("builder switched from controlled to uncontrolled")
			b.controlled = false
		}
		return
	}
	if !b.controlled {
		b.warn("builder switched from uncontrolled to controlled")
		b.controlled = true
	}
	tree = query.EnsureIDs(tree, b.ids).(*query.RuleGroup)
	if tree == b.tree {
		return
	}
	b.replace(tree)
}

// Close deregisters the builder and drops its option cache. Actions on a
// closed builder are ignored.
func (b *Builder) Close() {
	if b.closed {
		return
	}
	b.closed = true
	if b.registry != nil {
		if cur, ok := b.registry.Lookup(b.id); ok && cur == b {
			b.registry.Remove(b.id)
		}
	}
	b.stores.Dispose(b.id)
}

// replace installs tree as the current tree.
func (b *Builder) replace(tree *query.RuleGroup) {
	b.tree = tree
	b.recompute()
}

// commit hands next to OnChange and, when uncontrolled, installs it.
func (b *Builder) commit(next *query.RuleGroup, e LogEntry) {
	e.Next = next
	b.debug(e)
	if !b.controlled {
		b.replace(next)
	}
	if b.onChange != nil {
		b.onChange(next)
	}
}
