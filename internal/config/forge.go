package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/JaimeStill/agent-forge/internal/compiler"
	"github.com/JaimeStill/agent-forge/internal/specs"
	"github.com/docker/go-units"
)

const (
	// EnvForgeAcceptanceThreshold overrides the minimum accepted score.
	EnvForgeAcceptanceThreshold = "FORGE_ACCEPTANCE_THRESHOLD"

	// EnvForgeMaxSpecSize overrides the largest accepted specification body.
	EnvForgeMaxSpecSize = "FORGE_MAX_SPEC_SIZE"
)

// ForgeConfig tunes specification validation and compilation.
type ForgeConfig struct {
	AcceptanceThreshold int            `toml:"acceptance_threshold"`
	MaxSpecSize         string         `toml:"max_spec_size"`
	Weights             specs.Weights  `toml:"weights"`
	Defaults            DefaultsConfig `toml:"defaults"`
	maxSpecSizeVal      int64
}

// DefaultsConfig overrides the compiler fallbacks. Unset fields keep the
// standard values.
type DefaultsConfig struct {
	MaxTokens   int      `toml:"max_tokens"`
	Temperature *float64 `toml:"temperature"`
	Memory      *bool    `toml:"memory"`
	Markdown    *bool    `toml:"markdown"`
}

// Compiler resolves the configured fallbacks over compiler.DefaultDefaults.
func (c *DefaultsConfig) Compiler() compiler.Defaults {
	d := compiler.DefaultDefaults()
	if c.MaxTokens > 0 {
		d.MaxTokens = c.MaxTokens
	}
	if c.Temperature != nil {
		d.Temperature = *c.Temperature
	}
	if c.Memory != nil {
		d.Memory = *c.Memory
	}
	if c.Markdown != nil {
		d.Markdown = *c.Markdown
	}
	return d
}

func (c *DefaultsConfig) merge(overlay *DefaultsConfig) {
	if overlay.MaxTokens != 0 {
		c.MaxTokens = overlay.MaxTokens
	}
	if overlay.Temperature != nil {
		c.Temperature = overlay.Temperature
	}
	if overlay.Memory != nil {
		c.Memory = overlay.Memory
	}
	if overlay.Markdown != nil {
		c.Markdown = overlay.Markdown
	}
}

// MaxSpecSizeBytes returns the parsed specification size limit.
func (c *ForgeConfig) MaxSpecSizeBytes() int64 {
	return c.maxSpecSizeVal
}

// Finalize applies defaults, loads environment overrides, and validates the forge configuration.
func (c *ForgeConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *ForgeConfig) Merge(overlay *ForgeConfig) {
	if overlay.AcceptanceThreshold != 0 {
		c.AcceptanceThreshold = overlay.AcceptanceThreshold
	}
	if size, err := units.FromHumanSize(overlay.MaxSpecSize); err == nil {
		c.MaxSpecSize = overlay.MaxSpecSize
		c.maxSpecSizeVal = size
	}
	if overlay.Weights.Error != 0 {
		c.Weights.Error = overlay.Weights.Error
	}
	if overlay.Weights.Warning != 0 {
		c.Weights.Warning = overlay.Weights.Warning
	}
	if overlay.Weights.Tool != 0 {
		c.Weights.Tool = overlay.Weights.Tool
	}
	c.Defaults.merge(&overlay.Defaults)
}

func (c *ForgeConfig) loadDefaults() {
	if c.AcceptanceThreshold == 0 {
		c.AcceptanceThreshold = specs.DefaultAcceptanceThreshold
	}
	if c.MaxSpecSize == "" {
		c.MaxSpecSize = "1MB"
	}

	w := specs.DefaultWeights()
	if c.Weights.Error == 0 {
		c.Weights.Error = w.Error
	}
	if c.Weights.Warning == 0 {
		c.Weights.Warning = w.Warning
	}
	if c.Weights.Tool == 0 {
		c.Weights.Tool = w.Tool
	}
}

func (c *ForgeConfig) loadEnv() {
	if v := os.Getenv(EnvForgeAcceptanceThreshold); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.AcceptanceThreshold = n
		}
	}
	if v := os.Getenv(EnvForgeMaxSpecSize); v != "" {
		c.MaxSpecSize = v
	}
}

func (c *ForgeConfig) validate() error {
	if c.AcceptanceThreshold < 1 || c.AcceptanceThreshold > 100 {
		return fmt.Errorf("acceptance_threshold must be between 1 and 100")
	}
	if c.Weights.Error < 0 || c.Weights.Warning < 0 || c.Weights.Tool < 0 {
		return fmt.Errorf("weights must be non-negative")
	}
	if t := c.Defaults.Temperature; t != nil && (*t < 0 || *t > 1) {
		return fmt.Errorf("defaults.temperature must be between 0 and 1")
	}

	size, err := units.FromHumanSize(c.MaxSpecSize)
	if err != nil {
		return fmt.Errorf("invalid max_spec_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_spec_size must be positive")
	}
	c.maxSpecSizeVal = size

	return nil
}
