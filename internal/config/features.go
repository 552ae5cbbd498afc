package config

import (
	"fmt"
	"time"

	"github.com/xrplgo/goxrpld/internal/core/protocolfeature"
)

// FeatureOverride tunes the subjective restrictions a builtin protocol
// feature is cataloged with during catalog bootstrap. These settings
// never affect consensus rules directly: subjective restrictions gate a
// producer's willingness to propose activation, not validity, the same
// way AmendmentTable.Veto/UpVote only gate voting behavior, never
// validation.
type FeatureOverride struct {
	Enabled                       *bool  `toml:"enabled" mapstructure:"enabled"`
	EarliestAllowedActivationTime string `toml:"earliest_allowed_activation_time" mapstructure:"earliest_allowed_activation_time"`
}

// FeaturesConfig represents the [features] section: per-codename
// overrides of the compiled-in subjective restrictions.
type FeaturesConfig struct {
	Overrides map[string]FeatureOverride `toml:"overrides" mapstructure:"overrides"`
}

// Validate checks the shape of each override: a non-empty codename and a
// parseable timestamp. It deliberately does not reject codenames absent
// from the compiled-in builtin set; an override for a builtin this
// binary doesn't know yet is ignored at catalog build time, which lets
// one config file serve binaries of different versions.
func (f *FeaturesConfig) Validate() error {
	for name, override := range f.Overrides {
		if name == "" {
			return fmt.Errorf("features.overrides: empty codename is not valid")
		}
		if override.EarliestAllowedActivationTime != "" {
			if _, err := time.Parse(time.RFC3339, override.EarliestAllowedActivationTime); err != nil {
				return fmt.Errorf("features.overrides[%s].earliest_allowed_activation_time: %w", name, err)
			}
		}
	}
	return nil
}

// BuiltinOverrides converts the [features] section into the map
// protocolfeature.NewDefaultCatalogWithOverrides expects, resolving each
// configured timestamp once up front so catalog bootstrap never parses
// config strings itself.
func (f *FeaturesConfig) BuiltinOverrides() (map[string]protocolfeature.BuiltinOverride, error) {
	out := make(map[string]protocolfeature.BuiltinOverride, len(f.Overrides))
	for name, override := range f.Overrides {
		converted := protocolfeature.BuiltinOverride{Enabled: override.Enabled}
		if override.EarliestAllowedActivationTime != "" {
			t, err := time.Parse(time.RFC3339, override.EarliestAllowedActivationTime)
			if err != nil {
				return nil, fmt.Errorf("features.overrides[%s].earliest_allowed_activation_time: %w", name, err)
			}
			converted.EnabledAsOf = &t
		}
		out[name] = converted
	}
	return out, nil
}
