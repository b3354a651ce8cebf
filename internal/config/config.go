// Package config loads the query builder's behavior flags.
package config

import (
	"errors"
	"time"
)

// Flags is the configuration surface of a query builder.
// Field tags use mapstructure for viper unmarshalling.
type Flags struct {
	AutoSelectField    bool `mapstructure:"autoSelectField"`
	AutoSelectOperator bool `mapstructure:"autoSelectOperator"`
	AutoSelectValue    bool `mapstructure:"autoSelectValue"`

	ResetOnFieldChange    bool `mapstructure:"resetOnFieldChange"`
	ResetOnOperatorChange bool `mapstructure:"resetOnOperatorChange"`
	AddRuleToNewGroups    bool `mapstructure:"addRuleToNewGroups"`

	// IndependentCombinators is nil to infer the form from the tree.
	IndependentCombinators *bool `mapstructure:"independentCombinators"`

	// MaxLevels caps group nesting. Zero means unlimited.
	MaxLevels     int  `mapstructure:"maxLevels"`
	ListsAsArrays bool `mapstructure:"listsAsArrays"`

	// Disabled locks the whole tree; DisabledPaths locks subtrees.
	Disabled      bool    `mapstructure:"disabled"`
	DisabledPaths [][]int `mapstructure:"disabledPaths"`

	DebugMode              bool `mapstructure:"debugMode"`
	EnableMountQueryChange bool `mapstructure:"enableMountQueryChange"`

	OptionCacheTTL time.Duration `mapstructure:"optionCacheTTL"`

	PlaceholderFieldLabel    string `mapstructure:"placeholderFieldLabel"`
	PlaceholderOperatorLabel string `mapstructure:"placeholderOperatorLabel"`
	PlaceholderValueLabel    string `mapstructure:"placeholderValueLabel"`
}

// Default values.
const (
	DefaultOptionCacheTTL   = 30 * time.Minute
	DefaultPlaceholderLabel = "------"
)

// DefaultFlags returns the flags used when nothing is configured.
func DefaultFlags() Flags {
	return Flags{
		AutoSelectField:          true,
		AutoSelectOperator:       true,
		AutoSelectValue:          true,
		ResetOnFieldChange:       true,
		EnableMountQueryChange:   true,
		OptionCacheTTL:           DefaultOptionCacheTTL,
		PlaceholderFieldLabel:    DefaultPlaceholderLabel,
		PlaceholderOperatorLabel: DefaultPlaceholderLabel,
		PlaceholderValueLabel:    DefaultPlaceholderLabel,
	}
}

// Validate rejects out-of-range values.
func (f Flags) Validate() error {
	var errs []error
	if f.MaxLevels < 0 {
		errs = append(errs, errors.New("maxLevels must not be negative"))
	}
	if f.OptionCacheTTL < 0 {
		errs = append(errs, errors.New("optionCacheTTL must not be negative"))
	}
	for _, p := range f.DisabledPaths {
		for _, idx := range p {
			if idx < 0 {
				errs = append(errs, errors.New("disabledPaths entries must be non-negative"))
				break
			}
		}
		if len(p) == 0 {
			errs = append(errs, errors.New("disabledPaths entry is empty; use disabled instead"))
		}
	}
	return errors.Join(errs...)
}
