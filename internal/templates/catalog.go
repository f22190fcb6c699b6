package templates

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/JaimeStill/agent-forge/internal/specs"
	"github.com/JaimeStill/agent-forge/pkg/decode"
)

// Customizations overrides parts of a template specification. Unset fields
// leave the template's value in place.
type Customizations struct {
	Specialization string         `json:"specialization,omitempty"`
	ModelConfig    map[string]any `json:"model_config,omitempty"`
	ToolsConfig    []any          `json:"tools_config,omitempty"`
	KnowledgeBase  []string       `json:"knowledge_base,omitempty"`
	Instructions   string         `json:"instructions,omitempty"`
}

func (c Customizations) requested() []Customization {
	var out []Customization
	if c.Specialization != "" {
		out = append(out, CustomSpecialization)
	}
	if c.ModelConfig != nil {
		out = append(out, CustomModelConfig)
	}
	if c.ToolsConfig != nil {
		out = append(out, CustomToolsConfig)
	}
	if c.KnowledgeBase != nil {
		out = append(out, CustomKnowledgeBase)
	}
	if c.Instructions != "" {
		out = append(out, CustomInstructions)
	}
	return out
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithSuffix replaces the generator for instantiated slug suffixes.
func WithSuffix(fn func() string) Option {
	return func(c *Catalog) {
		c.suffix = fn
	}
}

// Catalog serves a fixed set of templates. It is immutable after New and
// safe for concurrent use.
type Catalog struct {
	templates []Template
	bySlug    map[string]*Template
	suffix    func() string
}

// New creates a catalog over templates in the given order.
func New(templates []Template, opts ...Option) *Catalog {
	c := &Catalog{
		templates: templates,
		bySlug:    make(map[string]*Template, len(templates)),
		suffix:    specs.RandomSuffix,
	}
	for i := range c.templates {
		c.bySlug[c.templates[i].Slug] = &c.templates[i]
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns a summary of every template.
func (c *Catalog) List() []Summary {
	out := make([]Summary, len(c.templates))
	for i := range c.templates {
		out[i] = c.templates[i].summary()
	}
	return out
}

// Get returns a copy of the template with slug.
func (c *Catalog) Get(slug string) (Template, error) {
	t, ok := c.bySlug[slug]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}

	spec, err := decode.ToMap(t.Specification)
	if err != nil {
		return Template{}, err
	}

	out := *t
	out.Keywords = slices.Clone(t.Keywords)
	out.CustomizationOptions = slices.Clone(t.CustomizationOptions)
	out.Specification = spec
	return out, nil
}

// Instantiate returns a fresh specification from the template with slug,
// customizations applied and agent_config.slug suffixed so repeated
// instances do not collide.
func (c *Catalog) Instantiate(slug string, custom Customizations) (map[string]any, error) {
	t, err := c.Get(slug)
	if err != nil {
		return nil, err
	}

	for _, req := range custom.requested() {
		if !slices.Contains(t.CustomizationOptions, req) {
			return nil, fmt.Errorf("%w: %s does not allow %s", ErrUnsupportedCustomization, slug, req)
		}
	}

	spec := t.Specification
	agentConfig := section(spec, "agent_config")

	if custom.Specialization != "" {
		agentConfig["specialization"] = custom.Specialization
		agentConfig["description"] = t.Description + " - " + custom.Specialization
	}
	if custom.ModelConfig != nil {
		maps.Copy(section(spec, "model_config"), custom.ModelConfig)
	}
	if custom.ToolsConfig != nil {
		spec["tools_config"] = custom.ToolsConfig
	}
	if custom.KnowledgeBase != nil {
		section(spec, "knowledge_base")["sources"] = custom.KnowledgeBase
	}
	if custom.Instructions != "" {
		section(spec, "instructions")["system_message"] = custom.Instructions
	}

	agentConfig["slug"] = baseSlug(spec) + "_" + c.suffix()

	return decode.ToMap(spec)
}

// Recommend returns the first template, in catalog order, with a keyword
// found in description.
func (c *Catalog) Recommend(description string) (string, bool) {
	text := strings.ToLower(description)
	for _, t := range c.templates {
		for _, kw := range t.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				return t.Slug, true
			}
		}
	}
	return "", false
}

func section(spec map[string]any, key string) map[string]any {
	m, ok := spec[key].(map[string]any)
	if !ok {
		m = make(map[string]any)
		spec[key] = m
	}
	return m
}
