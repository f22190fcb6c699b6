// Package compiler turns an accepted specification into a deterministic,
// runnable agent configuration.
package compiler

import (
	"math"
	"os"
	"strings"

	"github.com/JaimeStill/agent-forge/internal/specs"
	"github.com/JaimeStill/agent-forge/internal/tools"
)

// Defaults fill model and feature values the specification leaves unset.
type Defaults struct {
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
	Memory      bool    `toml:"memory"`
	Markdown    bool    `toml:"markdown"`
}

// DefaultDefaults returns the standard fallbacks.
func DefaultDefaults() Defaults {
	return Defaults{
		MaxTokens:   2000,
		Temperature: 0.7,
		Memory:      true,
		Markdown:    true,
	}
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithDefaults replaces the standard fallbacks.
func WithDefaults(d Defaults) Option {
	return func(c *Compiler) { c.defaults = d }
}

// WithLookupEnv replaces os.LookupEnv for required variable checks.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(c *Compiler) { c.lookupEnv = fn }
}

// Compiler resolves validated specifications against the tool catalog.
// It is safe for concurrent use.
type Compiler struct {
	catalog   specs.Catalog
	defaults  Defaults
	lookupEnv func(string) (string, bool)
}

// New creates a Compiler.
func New(catalog specs.Catalog, opts ...Option) *Compiler {
	c := &Compiler{
		catalog:   catalog,
		defaults:  DefaultDefaults(),
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile maps v onto a Config. v must carry a valid result; compiling
// anything else fails with PreconditionFailed. Enabled tools are bound in
// order, the first entry winning when a name repeats.
func (c *Compiler) Compile(v specs.Validated) (*Config, error) {
	doc := v.Document
	switch {
	case !v.Result.Valid:
		return nil, &Error{Kind: PreconditionFailed, Reason: "specification is not valid"}
	case doc == nil || doc.AgentConfig == nil || doc.ModelConfig == nil || doc.Instructions == nil:
		return nil, &Error{Kind: PreconditionFailed, Reason: "specification is incomplete"}
	case v.Result.Slug == "":
		return nil, &Error{Kind: PreconditionFailed, Reason: "specification has no slug"}
	}

	bindings, err := c.bind(doc.ToolsConfig)
	if err != nil {
		return nil, err
	}

	ac := doc.AgentConfig
	return &Config{
		Name:           ac.Name,
		Slug:           v.Result.Slug,
		Description:    ac.Description,
		Role:           ac.Role,
		Specialization: ac.Specialization,
		Model:          c.model(doc.ModelConfig),
		Tools:          bindings,
		SystemPrompt:   Prompt(doc.Instructions),
		Examples:       append([]specs.Example(nil), doc.Instructions.Examples...),
		Features:       c.features(doc.Features),
	}, nil
}

func (c *Compiler) bind(entries []specs.ToolConfig) ([]Binding, error) {
	bindings := make([]Binding, 0, len(entries))
	seen := make(map[string]bool, len(entries))

	for _, t := range entries {
		if t.Name == "" || !t.Enabled || seen[t.Name] {
			continue
		}
		seen[t.Name] = true

		d, err := c.catalog.Lookup(t.Name)
		if err != nil {
			return nil, &Error{Kind: UnresolvedTool, Tool: t.Name, Reason: "not in catalog"}
		}
		if !d.IsActive {
			return nil, &Error{Kind: UnresolvedTool, Tool: t.Name, Reason: "inactive"}
		}

		for _, name := range d.RequiredEnvVars {
			if val, ok := c.lookupEnv(name); !ok || val == "" {
				return nil, &Error{Kind: MissingEnvVar, Tool: t.Name, Var: name}
			}
		}

		cfg := d.Defaults()
		for k, val := range t.Config {
			if p, ok := d.ConfigSchema[k]; ok && p.Type.Accepts(val) {
				cfg[k] = val
			}
		}

		def, err := tools.Define(d, cfg)
		if err != nil {
			return nil, &Error{Kind: UnresolvedTool, Tool: t.Name, Reason: err.Error()}
		}

		bindings = append(bindings, Binding{Descriptor: d, Config: cfg, Definition: def})
	}

	return bindings, nil
}

func (c *Compiler) model(mc *specs.ModelConfig) Model {
	m := Model{
		Provider:    mc.Provider,
		ModelID:     mc.ModelID,
		MaxTokens:   c.defaults.MaxTokens,
		Temperature: c.defaults.Temperature,
	}
	if mc.MaxTokens != nil && *mc.MaxTokens > 0 {
		m.MaxTokens = *mc.MaxTokens
	}
	if mc.Temperature != nil {
		m.Temperature = math.Max(*mc.Temperature, 0)
	}
	return m
}

func (c *Compiler) features(f *specs.Features) Features {
	out := Features{Memory: c.defaults.Memory, Markdown: c.defaults.Markdown}
	if f == nil {
		return out
	}
	out.Reasoning = flag(f.ReasoningEnabled, out.Reasoning)
	out.Memory = flag(f.MemoryEnabled, out.Memory)
	out.Knowledge = flag(f.KnowledgeEnabled, out.Knowledge)
	out.Markdown = flag(f.Markdown, out.Markdown)
	return out
}

func flag(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}

// Prompt assembles the system prompt: the system message, then a
// "Guidelines:" block with one bullet per guideline in the given order.
func Prompt(in *specs.Instructions) string {
	if in == nil {
		return ""
	}
	if len(in.Guidelines) == 0 {
		return in.SystemMessage
	}

	var b strings.Builder
	b.WriteString(in.SystemMessage)
	b.WriteString("\n\nGuidelines:")
	for _, g := range in.Guidelines {
		b.WriteString("\n- ")
		b.WriteString(g)
	}
	return b.String()
}
