package options

import "github.com/roach88/querybuilder/internal/query"

// Placeholder sentinels. They never collide with real option names.
const (
	PlaceholderName       = "~"
	PlaceholderLabel      = "------"
	PlaceholderValuesName = "------"
)

// IsPlaceholder reports whether name is a placeholder sentinel.
func IsPlaceholder(name string) bool {
	return name == PlaceholderName || name == PlaceholderValuesName
}

// Option is a selectable entry. Value defaults to Name once prepared.
type Option struct {
	Name     string         `json:"name" yaml:"name"`
	Value    string         `json:"value,omitempty" yaml:"value,omitempty"`
	Label    string         `json:"label" yaml:"label"`
	Disabled bool           `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Extra    map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

func (o *Option) opt() *Option { return o }

// Key returns Value, or Name when Value is unset.
func (o Option) Key() string {
	if o.Value != "" {
		return o.Value
	}
	return o.Name
}

// Value editor kinds.
const (
	EditorText        = "text"
	EditorSelect      = "select"
	EditorMultiSelect = "multiselect"
	EditorCheckbox    = "checkbox"
	EditorRadio       = "radio"
	EditorSwitch      = "switch"
	EditorTextarea    = "textarea"
)

// Field is a field option with the configuration that drives operator,
// value and match-mode defaults for rules on that field.
type Field struct {
	Option `yaml:",inline"`

	Operators       List[Option]        `json:"operators,omitempty" yaml:"operators,omitempty"`
	DefaultOperator string              `json:"defaultOperator,omitempty" yaml:"defaultOperator,omitempty"`
	DefaultValue    query.Value         `json:"-" yaml:"-"`
	Values          List[Option]        `json:"values,omitempty" yaml:"values,omitempty"`
	ValueEditorType string              `json:"valueEditorType,omitempty" yaml:"valueEditorType,omitempty"`
	ValueSources    []query.ValueSource `json:"valueSources,omitempty" yaml:"valueSources,omitempty"`
	InputType       string              `json:"inputType,omitempty" yaml:"inputType,omitempty"`
	Placeholder     string              `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	MatchModes      []query.MatchMode   `json:"matchModes,omitempty" yaml:"matchModes,omitempty"`

	// Comparator names an Extra attribute. When set, only fields with an
	// equal attribute value are offered as the source of a field-valued rule.
	Comparator string `json:"comparator,omitempty" yaml:"comparator,omitempty"`
}

// HasMatchModes reports whether rules on this field hold a sub-query.
func (f Field) HasMatchModes() bool { return len(f.MatchModes) > 0 }

// Opt is shorthand for an Option with the same name and label.
func Opt(name string) Option {
	return Option{Name: name, Label: name}
}

// Opts builds options from names.
func Opts(names ...string) []Option {
	out := make([]Option, len(names))
	for i, n := range names {
		out[i] = Opt(n)
	}
	return out
}
