package script

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/querybuilder/internal/config"
	"github.com/roach88/querybuilder/internal/query"
)

// Script is a replayable sequence of builder actions.
type Script struct {
	// Name identifies the script and names its golden file.
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Fields is a field catalog path (.cue or .json). Load resolves it
	// relative to the script file.
	Fields string `yaml:"fields,omitempty"`

	Builder Settings `yaml:"builder,omitempty"`

	// Query is the initial tree. Without it the builder starts empty.
	Query map[string]any `yaml:"query,omitempty"`

	Steps  []Step  `yaml:"steps"`
	Expect *Expect `yaml:"expect,omitempty"`
}

// Settings override the configured flags for one script.
type Settings struct {
	ID                     string  `yaml:"id,omitempty"`
	IndependentCombinators *bool   `yaml:"independentCombinators,omitempty"`
	MaxLevels              *int    `yaml:"maxLevels,omitempty"`
	DisabledPaths          [][]int `yaml:"disabledPaths,omitempty"`
	Disabled               bool    `yaml:"disabled,omitempty"`
}

// Step is one action.
type Step struct {
	Action string `yaml:"action"`
	Path   []int  `yaml:"path,omitempty"`

	// To is the destination of move and drop, and the target of group.
	To    []int `yaml:"to,omitempty"`
	Dir   string `yaml:"dir,omitempty"`
	Clone bool   `yaml:"clone,omitempty"`

	// Node is the rule or group for addRule, addGroup and dispatch.
	Node map[string]any `yaml:"node,omitempty"`

	Prop  string `yaml:"prop,omitempty"`
	Value any    `yaml:"value,omitempty"`

	// Kind and Mode describe a drop. They default to rule and move.
	Kind string `yaml:"kind,omitempty"`
	Mode string `yaml:"mode,omitempty"`

	// Form is the convert target: ic or standard.
	Form string `yaml:"form,omitempty"`

	Expect *StepExpect `yaml:"expect,omitempty"`
}

// StepExpect checks the outcome of one step.
type StepExpect struct {
	// Event is the last event the step logged, e.g. "move" or "rejected".
	Event string `yaml:"event,omitempty"`
	// Code is the rejection code, e.g. "INVALID_PATH".
	Code    string `yaml:"code,omitempty"`
	Changed *bool  `yaml:"changed,omitempty"`
}

// Expect checks the final tree.
type Expect struct {
	Valid *bool          `yaml:"valid,omitempty"`
	Query map[string]any `yaml:"query,omitempty"`
}

// Action names.
const (
	ActionAddRule  = "addRule"
	ActionAddGroup = "addGroup"
	ActionRemove   = "remove"
	ActionUpdate   = "update"
	ActionMove     = "move"
	ActionShift    = "shift"
	ActionClone    = "clone"
	ActionGroup    = "group"
	ActionDrop     = "drop"
	ActionDispatch = "dispatch"
	ActionConvert  = "convert"
)

var actions = []string{
	ActionAddRule, ActionAddGroup, ActionRemove, ActionUpdate, ActionMove, ActionShift,
	ActionClone, ActionGroup, ActionDrop, ActionDispatch, ActionConvert,
}

// Load reads and validates a script file. Unknown keys are errors.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if s.Fields != "" && !filepath.IsAbs(s.Fields) {
		s.Fields = filepath.Join(filepath.Dir(path), s.Fields)
	}
	return s, nil
}

// Parse decodes and validates a script.
func Parse(data []byte) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validate(&s); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	return &s, nil
}

func validate(s *Script) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.Builder.MaxLevels != nil && *s.Builder.MaxLevels < 0 {
		return fmt.Errorf("builder.maxLevels must be >= 0")
	}
	for i, st := range s.Steps {
		if err := validateStep(st); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(st Step) error {
	if st.Action == "" {
		return fmt.Errorf("action is required")
	}
	if !slices.Contains(actions, st.Action) {
		return fmt.Errorf("unknown action %q", st.Action)
	}
	switch st.Action {
	case ActionUpdate:
		if st.Prop == "" {
			return fmt.Errorf("prop is required for update")
		}
	case ActionMove, ActionGroup, ActionDrop:
		if st.To == nil {
			return fmt.Errorf("to is required for %s", st.Action)
		}
	case ActionShift:
		if st.Dir != "up" && st.Dir != "down" {
			return fmt.Errorf("dir must be up or down, got %q", st.Dir)
		}
	case ActionDispatch:
		if st.Node == nil {
			return fmt.Errorf("node is required for dispatch")
		}
	case ActionConvert:
		if st.Form != "ic" && st.Form != "standard" {
			return fmt.Errorf("form must be ic or standard, got %q", st.Form)
		}
	}
	return nil
}

// applyTo overlays the settings on base.
func (s Settings) applyTo(base config.Flags) config.Flags {
	f := base
	if s.IndependentCombinators != nil {
		f.IndependentCombinators = s.IndependentCombinators
	}
	if s.MaxLevels != nil {
		f.MaxLevels = *s.MaxLevels
	}
	if s.DisabledPaths != nil {
		f.DisabledPaths = s.DisabledPaths
	}
	if s.Disabled {
		f.Disabled = true
	}
	return f
}

// toNode decodes a YAML mapping into a rule, or a group when it has rules.
func toNode(m map[string]any) (query.Node, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	if _, ok := m["rules"]; ok {
		var g query.RuleGroup
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, err
		}
		return &g, nil
	}
	var r query.Rule
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func toTree(m map[string]any) (*query.RuleGroup, error) {
	n, err := toNode(m)
	if err != nil {
		return nil, err
	}
	g, ok := n.(*query.RuleGroup)
	if !ok {
		return nil, fmt.Errorf("query must be a group with rules")
	}
	return g, nil
}
