package config

import (
	"fmt"
	"maps"
	"os"
	"slices"

	agtproviders "github.com/JaimeStill/go-agents/pkg/providers"
)

// ProviderConfig connects a specification's model_config.provider value to
// a go-agents provider. The token is read from TokenEnv so secrets stay out
// of config files. An empty Models list accepts any model id.
type ProviderConfig struct {
	Kind     string         `toml:"kind"`
	BaseURL  string         `toml:"base_url"`
	TokenEnv string         `toml:"token_env"`
	Models   []string       `toml:"models"`
	Options  map[string]any `toml:"options"`
}

// Token returns the provider token from the environment.
func (c *ProviderConfig) Token() string {
	if c.TokenEnv == "" {
		return ""
	}
	return os.Getenv(c.TokenEnv)
}

// Finalize applies defaults and validates the provider named name.
func (c *ProviderConfig) Finalize(name string) error {
	if c.Kind == "" {
		c.Kind = name
	}
	if !slices.Contains(agtproviders.ListProviders(), c.Kind) {
		return fmt.Errorf("kind %q is not a supported provider (have %v)", c.Kind, slices.Sorted(slices.Values(agtproviders.ListProviders())))
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base_url required")
	}
	return nil
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *ProviderConfig) Merge(overlay *ProviderConfig) {
	if overlay.Kind != "" {
		c.Kind = overlay.Kind
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.TokenEnv != "" {
		c.TokenEnv = overlay.TokenEnv
	}
	if overlay.Models != nil {
		c.Models = overlay.Models
	}
	if overlay.Options != nil {
		if c.Options == nil {
			c.Options = make(map[string]any, len(overlay.Options))
		}
		maps.Copy(c.Options, overlay.Options)
	}
}
