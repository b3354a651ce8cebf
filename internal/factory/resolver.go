package factory

import (
	"github.com/roach88/querybuilder/internal/options"
	"github.com/roach88/querybuilder/internal/query"
)

// Overrides are caller-supplied functions consulted before the built-in
// default logic. Any of them may be nil.
type Overrides struct {
	GetDefaultField    func(fields options.Result[options.Field]) string
	GetDefaultOperator func(field string) string
	// GetDefaultValue returns nil to fall through to the built-in logic.
	GetDefaultValue    func(r *query.Rule, field options.Field) query.Value
	GetOperators       func(field string) (options.List[options.Option], bool)
	GetValueSources    func(field, operator string) []query.ValueSource
	GetValueEditorType func(field, operator string) string
	GetValues          func(field, operator string) options.List[options.Option]
	GetMatchModes      func(field string) []query.MatchMode
}

// Config configures a Resolver.
type Config struct {
	Fields      options.List[options.Field]
	Operators   options.List[options.Option]
	Combinators options.List[options.Option]

	BaseField      *options.Field
	BaseOperator   *options.Option
	BaseCombinator *options.Option

	AutoSelectField    bool
	AutoSelectOperator bool
	AutoSelectValue    bool
	ListsAsArrays      bool
	AddRuleToNewGroups bool

	PlaceholderFieldLabel    string
	PlaceholderOperatorLabel string
	PlaceholderValueLabel    string

	IDGenerator query.IDGenerator
	Overrides   Overrides
}

// Resolver answers default-selection questions for one configuration.
// It is immutable after New and safe for concurrent use.
type Resolver struct {
	cfg         Config
	fields      options.Result[options.Field]
	combinators options.Result[options.Option]
	newID       query.IDGenerator
}

// New prepares the field and combinator lists.
func New(cfg Config) *Resolver {
	if cfg.Operators.IsEmpty() {
		cfg.Operators = options.DefaultOperators()
	}
	if cfg.Combinators.IsEmpty() {
		cfg.Combinators = options.DefaultCombinators()
	}
	if cfg.PlaceholderFieldLabel == "" {
		cfg.PlaceholderFieldLabel = options.PlaceholderLabel
	}
	if cfg.PlaceholderOperatorLabel == "" {
		cfg.PlaceholderOperatorLabel = options.PlaceholderLabel
	}
	if cfg.PlaceholderValueLabel == "" {
		cfg.PlaceholderValueLabel = options.PlaceholderLabel
	}

	fieldCfg := options.Config[options.Field]{
		AutoSelect: cfg.AutoSelectField,
		Base:       cfg.BaseField,
	}
	if !cfg.AutoSelectField {
		fieldCfg.PlaceholderLabel = cfg.PlaceholderFieldLabel
	}

	return &Resolver{
		cfg:    cfg,
		fields: options.Prepare(cfg.Fields, fieldCfg),
		combinators: options.Prepare(cfg.Combinators, options.Config[options.Option]{
			AutoSelect: true,
			Base:       cfg.BaseCombinator,
		}),
		newID: cfg.IDGenerator.Or(),
	}
}

// Fields returns the prepared field list.
func (r *Resolver) Fields() options.Result[options.Field] { return r.fields }

// Combinators returns the prepared combinator list.
func (r *Resolver) Combinators() options.Result[options.Option] { return r.combinators }

// Field looks up a field by name.
func (r *Resolver) Field(name string) (options.Field, bool) {
	return r.fields.Get(name)
}

// Operators returns the prepared operator list for a field. Resolution
// order: the GetOperators override, the field's own list, the global list.
func (r *Resolver) Operators(field string) options.Result[options.Option] {
	list := r.cfg.Operators
	if r.cfg.Overrides.GetOperators != nil {
		if ops, ok := r.cfg.Overrides.GetOperators(field); ok {
			list = ops
		}
	} else if f, ok := r.Field(field); ok && !f.Operators.IsEmpty() {
		list = f.Operators
	}
	cfg := options.Config[options.Option]{
		AutoSelect: r.cfg.AutoSelectOperator,
		Base:       r.cfg.BaseOperator,
	}
	if !r.cfg.AutoSelectOperator {
		cfg.PlaceholderLabel = r.cfg.PlaceholderOperatorLabel
	}
	return options.Prepare(list, cfg)
}

// ValueEditorType returns the editor kind for a field and operator.
func (r *Resolver) ValueEditorType(field, operator string) string {
	if r.cfg.Overrides.GetValueEditorType != nil {
		if t := r.cfg.Overrides.GetValueEditorType(field, operator); t != "" {
			return t
		}
	}
	if f, ok := r.Field(field); ok && f.ValueEditorType != "" {
		return f.ValueEditorType
	}
	return options.EditorText
}

// ValueSources returns the value sources for a field and operator.
func (r *Resolver) ValueSources(field, operator string) []query.ValueSource {
	if r.cfg.Overrides.GetValueSources != nil {
		if vs := r.cfg.Overrides.GetValueSources(field, operator); len(vs) > 0 {
			return vs
		}
	}
	if f, ok := r.Field(field); ok && len(f.ValueSources) > 0 {
		return f.ValueSources
	}
	return []query.ValueSource{query.ValueSourceValue}
}

// Values returns the prepared value options for a field and operator.
func (r *Resolver) Values(field, operator string) options.Result[options.Option] {
	var list options.List[options.Option]
	if r.cfg.Overrides.GetValues != nil {
		list = r.cfg.Overrides.GetValues(field, operator)
	}
	if list.IsEmpty() {
		if f, ok := r.Field(field); ok {
			list = f.Values
		}
	}
	cfg := options.Config[options.Option]{AutoSelect: r.cfg.AutoSelectValue}
	if !r.cfg.AutoSelectValue && !list.IsEmpty() {
		cfg.PlaceholderLabel = r.cfg.PlaceholderValueLabel
		cfg.PlaceholderName = options.PlaceholderValuesName
	}
	return options.Prepare(list, cfg)
}

// MatchModes returns the match modes for a field.
func (r *Resolver) MatchModes(field string) []query.MatchMode {
	if r.cfg.Overrides.GetMatchModes != nil {
		if mm := r.cfg.Overrides.GetMatchModes(field); len(mm) > 0 {
			return mm
		}
	}
	if f, ok := r.Field(field); ok {
		return f.MatchModes
	}
	return nil
}

// ComparableFields lists the fields a field-valued rule on field may
// reference: every real field except field itself, narrowed by the
// field's Comparator attribute when set.
func (r *Resolver) ComparableFields(field string) []options.Field {
	self, _ := r.Field(field)
	var out []options.Field
	for _, f := range r.fields.Options {
		if f.Name == field || options.IsPlaceholder(f.Name) {
			continue
		}
		if self.Comparator != "" {
			want, ok := self.Extra[self.Comparator]
			if !ok || f.Extra[self.Comparator] != want {
				continue
			}
		}
		out = append(out, f)
	}
	return out
}
