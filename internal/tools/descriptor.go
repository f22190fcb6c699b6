// Package tools holds the catalog of tool descriptors that agent
// specifications may bind, and the per-kind strategies that turn a bound
// descriptor into a callable tool definition.
package tools

import (
	"fmt"
	"math"
	"slices"
)

// ParamType is the declared type of a tool configuration parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
	ParamArray   ParamType = "array"
	ParamObject  ParamType = "object"
)

// Accepts reports whether v, as produced by encoding/json or yaml.v3, fits the type.
func (t ParamType) Accepts(v any) bool {
	switch t {
	case ParamString:
		_, ok := v.(string)
		return ok
	case ParamInteger:
		switch n := v.(type) {
		case int, int64:
			return true
		case float64:
			return n == math.Trunc(n)
		}
		return false
	case ParamNumber:
		switch v.(type) {
		case int, int64, float64:
			return true
		}
		return false
	case ParamBoolean:
		_, ok := v.(bool)
		return ok
	case ParamArray:
		_, ok := v.([]any)
		return ok
	case ParamObject:
		_, ok := v.(map[string]any)
		return ok
	}
	return false
}

// Param describes one accepted configuration key of a tool.
type Param struct {
	Type        ParamType `yaml:"type" json:"type"`
	Default     any       `yaml:"default,omitempty" json:"default,omitempty"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
}

// Descriptor is the catalog entry for a tool. Descriptors are read-only once
// loaded; only IsActive changes, and only through Catalog.SetActive.
type Descriptor struct {
	Name               string           `yaml:"name" json:"name"`
	DisplayName        string           `yaml:"display_name" json:"display_name"`
	Description        string           `yaml:"description" json:"description"`
	Category           string           `yaml:"category" json:"category"`
	Kind               Kind             `yaml:"kind" json:"kind"`
	ConfigSchema       map[string]Param `yaml:"config_schema" json:"config_schema"`
	RequiredEnvVars    []string         `yaml:"required_env_vars" json:"required_env_vars"`
	CostPerCall        float64          `yaml:"cost_per_call" json:"cost_per_call"`
	RateLimitPerMinute int              `yaml:"rate_limit_per_minute" json:"rate_limit_per_minute"`
	IsActive           bool             `yaml:"is_active" json:"is_active"`
}

// Accepts reports whether key is declared in the config schema.
func (d Descriptor) Accepts(key string) bool {
	_, ok := d.ConfigSchema[key]
	return ok
}

// Defaults returns a fresh map of every schema parameter that declares a default.
func (d Descriptor) Defaults() map[string]any {
	out := make(map[string]any, len(d.ConfigSchema))
	for k, p := range d.ConfigSchema {
		if p.Default != nil {
			out[k] = p.Default
		}
	}
	return out
}

func (d *Descriptor) normalize() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name required", ErrInvalidDescriptor)
	}
	if !d.Kind.Valid() {
		return fmt.Errorf("%w: %s: kind %q", ErrUnknownKind, d.Name, d.Kind)
	}
	if d.DisplayName == "" {
		d.DisplayName = d.Name
	}
	if d.RateLimitPerMinute <= 0 {
		d.RateLimitPerMinute = 60
	}
	if d.ConfigSchema == nil {
		d.ConfigSchema = map[string]Param{}
	}
	for key, p := range d.ConfigSchema {
		if p.Default != nil && !p.Type.Accepts(p.Default) {
			return fmt.Errorf("%w: %s.%s default does not match type %s", ErrInvalidDescriptor, d.Name, key, p.Type)
		}
	}
	if d.RequiredEnvVars == nil {
		d.RequiredEnvVars = []string{}
	}
	slices.Sort(d.RequiredEnvVars)
	d.RequiredEnvVars = slices.Compact(d.RequiredEnvVars)
	return nil
}
