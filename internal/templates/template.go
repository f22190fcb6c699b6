// Package templates holds the built-in domain templates that seed agent
// specifications for common business areas.
package templates

import (
	_ "embed"
	"fmt"

	"github.com/JaimeStill/agent-forge/pkg/decode"
	"gopkg.in/yaml.v3"
)

// Customization names a part of a template specification that callers may
// override when instantiating it.
type Customization string

const (
	CustomSpecialization Customization = "specialization"
	CustomModelConfig    Customization = "model_config"
	CustomToolsConfig    Customization = "tools_config"
	CustomKnowledgeBase  Customization = "knowledge_base"
	CustomInstructions   Customization = "instructions"
)

// Template is a domain preset with a complete agent specification.
type Template struct {
	Slug                 string          `yaml:"slug" json:"slug"`
	Name                 string          `yaml:"name" json:"name"`
	Description          string          `yaml:"description" json:"description"`
	Keywords             []string        `yaml:"keywords" json:"keywords"`
	CustomizationOptions []Customization `yaml:"customization_options" json:"customization_options"`
	Specification        map[string]any  `yaml:"specification" json:"specification"`
}

// Summary is the listing view of a template.
type Summary struct {
	Slug                 string          `json:"slug"`
	Name                 string          `json:"name"`
	Description          string          `json:"description"`
	CustomizationOptions []Customization `json:"customization_options"`
	Tools                []string        `json:"tools"`
	KnowledgeSources     []string        `json:"knowledge_sources"`
}

//go:embed templates.yaml
var templatesYAML []byte

type templatesDocument struct {
	Templates []Template `yaml:"templates"`
}

// Builtin returns the embedded domain templates.
func Builtin() ([]Template, error) {
	return Parse(templatesYAML)
}

// Parse decodes a YAML document of the form {templates: [template...]}.
// Specifications are normalized to their JSON shape.
func Parse(data []byte) ([]Template, error) {
	var doc templatesDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	seen := make(map[string]bool, len(doc.Templates))
	for i := range doc.Templates {
		t := &doc.Templates[i]
		if t.Slug == "" {
			return nil, fmt.Errorf("%w: template %d has no slug", ErrInvalidTemplate, i)
		}
		if seen[t.Slug] {
			return nil, fmt.Errorf("%w: duplicate slug %q", ErrInvalidTemplate, t.Slug)
		}
		seen[t.Slug] = true

		if baseSlug(t.Specification) == "" {
			return nil, fmt.Errorf("%w: %s: specification needs agent_config.slug", ErrInvalidTemplate, t.Slug)
		}

		spec, err := decode.ToMap(t.Specification)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidTemplate, t.Slug, err)
		}
		t.Specification = spec
	}
	return doc.Templates, nil
}

func (t *Template) summary() Summary {
	s := Summary{
		Slug:                 t.Slug,
		Name:                 t.Name,
		Description:          t.Description,
		CustomizationOptions: t.CustomizationOptions,
		Tools:                []string{},
		KnowledgeSources:     []string{},
	}

	tools, _ := t.Specification["tools_config"].([]any)
	for _, item := range tools {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if enabled, ok := entry["enabled"].(bool); ok && !enabled {
			continue
		}
		if name, ok := entry["name"].(string); ok {
			s.Tools = append(s.Tools, name)
		}
	}

	if kb, ok := t.Specification["knowledge_base"].(map[string]any); ok {
		sources, _ := kb["sources"].([]any)
		for _, src := range sources {
			if v, ok := src.(string); ok {
				s.KnowledgeSources = append(s.KnowledgeSources, v)
			}
		}
	}
	return s
}

func baseSlug(spec map[string]any) string {
	ac, _ := spec["agent_config"].(map[string]any)
	slug, _ := ac["slug"].(string)
	return slug
}
