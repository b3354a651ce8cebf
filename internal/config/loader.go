package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix, as in QB_MAXLEVELS=3.
const envPrefix = "QB"

// Load reads flags from defaults, then the file at path (when non-empty),
// then QB_* environment variables. A missing file is an error only when
// path names one explicitly.
func Load(path string) (Flags, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Keys without a default are invisible to AutomaticEnv during Unmarshal.
	if err := v.BindEnv("independentCombinators"); err != nil {
		return Flags{}, fmt.Errorf("bind env: %w", err)
	}
	if err := v.BindEnv("disabledPaths"); err != nil {
		return Flags{}, fmt.Errorf("bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return Flags{}, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return Flags{}, fmt.Errorf("read config: %w", err)
		}
	}

	var f Flags
	if err := v.Unmarshal(&f); err != nil {
		return Flags{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := f.Validate(); err != nil {
		return Flags{}, fmt.Errorf("validate config: %w", err)
	}
	return f, nil
}

func applyDefaults(v *viper.Viper) {
	d := DefaultFlags()
	v.SetDefault("autoSelectField", d.AutoSelectField)
	v.SetDefault("autoSelectOperator", d.AutoSelectOperator)
	v.SetDefault("autoSelectValue", d.AutoSelectValue)
	v.SetDefault("resetOnFieldChange", d.ResetOnFieldChange)
	v.SetDefault("resetOnOperatorChange", d.ResetOnOperatorChange)
	v.SetDefault("addRuleToNewGroups", d.AddRuleToNewGroups)
	v.SetDefault("maxLevels", d.MaxLevels)
	v.SetDefault("listsAsArrays", d.ListsAsArrays)
	v.SetDefault("disabled", d.Disabled)
	v.SetDefault("debugMode", d.DebugMode)
	v.SetDefault("enableMountQueryChange", d.EnableMountQueryChange)
	v.SetDefault("optionCacheTTL", d.OptionCacheTTL)
	v.SetDefault("placeholderFieldLabel", d.PlaceholderFieldLabel)
	v.SetDefault("placeholderOperatorLabel", d.PlaceholderOperatorLabel)
	v.SetDefault("placeholderValueLabel", d.PlaceholderValueLabel)
}
