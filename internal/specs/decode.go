package specs

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode"
)

// Parse decodes raw JSON into a Document. It fails only when data is not a
// JSON object; wrong-typed fields are recorded and decoded as absent.
func Parse(data []byte) (*Document, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: specification must be a JSON object", ErrParse)
	}
	return Decode(m), nil
}

// Decode converts an untyped JSON object into a Document. Keys are matched in
// snake_case first, then camelCase.
func Decode(m map[string]any) *Document {
	d := &decoder{invalid: make(map[string]string)}
	doc := &Document{}

	if ac, ok := d.object(m, "agent_config", ""); ok {
		doc.AgentConfig = &AgentConfig{
			Name:           d.str(ac, "name", "agent_config"),
			Slug:           d.str(ac, "slug", "agent_config"),
			Description:    d.str(ac, "description", "agent_config"),
			Role:           d.str(ac, "role", "agent_config"),
			Specialization: d.str(ac, "specialization", "agent_config"),
		}
	}

	if mc, ok := d.object(m, "model_config", ""); ok {
		doc.ModelConfig = &ModelConfig{
			Provider:    d.str(mc, "provider", "model_config"),
			ModelID:     d.str(mc, "model_id", "model_config"),
			MaxTokens:   d.integer(mc, "max_tokens", "model_config"),
			Temperature: d.number(mc, "temperature", "model_config"),
		}
	}

	if items, ok := d.list(m, "tools_config", ""); ok {
		doc.ToolsConfig = make([]ToolConfig, 0, len(items))
		for i, item := range items {
			path := fmt.Sprintf("tools_config[%d]", i)
			entry, ok := item.(map[string]any)
			if !ok {
				d.invalid[path] = "object"
				continue
			}

			enabled := true
			if b := d.boolean(entry, "enabled", path); b != nil {
				enabled = *b
			}

			cfg, _ := d.object(entry, "config", path)
			doc.ToolsConfig = append(doc.ToolsConfig, ToolConfig{
				Name:    d.str(entry, "name", path),
				Enabled: enabled,
				Config:  cfg,
			})
		}
	}

	if in, ok := d.object(m, "instructions", ""); ok {
		doc.Instructions = &Instructions{
			SystemMessage: d.str(in, "system_message", "instructions"),
			Guidelines:    d.strings(in, "guidelines", "instructions"),
			Examples:      d.examples(in, "examples", "instructions"),
		}
	}

	if f, ok := d.object(m, "features", ""); ok {
		doc.Features = &Features{
			ReasoningEnabled: d.boolean(f, "reasoning_enabled", "features"),
			MemoryEnabled:    d.boolean(f, "memory_enabled", "features"),
			KnowledgeEnabled: d.boolean(f, "knowledge_enabled", "features"),
			Markdown:         d.boolean(f, "markdown", "features"),
		}
	}

	if kb, ok := d.object(m, "knowledge_base", ""); ok {
		doc.KnowledgeBase = &KnowledgeBase{
			Enabled: d.boolean(kb, "enabled", "knowledge_base"),
			Type:    d.str(kb, "type", "knowledge_base"),
			Sources: d.strings(kb, "sources", "knowledge_base"),
		}
	}

	if len(d.invalid) > 0 {
		doc.invalid = d.invalid
	}
	return doc
}

type decoder struct {
	invalid map[string]string
}

func join(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func lookup(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok && v != nil {
		return v, true
	}
	if v, ok := m[camel(key)]; ok && v != nil {
		return v, true
	}
	return nil, false
}

func camel(key string) string {
	var b strings.Builder
	upper := false
	for _, r := range key {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d *decoder) object(m map[string]any, key, parent string) (map[string]any, bool) {
	v, ok := lookup(m, key)
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		d.invalid[join(parent, key)] = "object"
		return nil, false
	}
	return obj, true
}

func (d *decoder) list(m map[string]any, key, parent string) ([]any, bool) {
	v, ok := lookup(m, key)
	if !ok {
		return nil, false
	}
	items, ok := v.([]any)
	if !ok {
		d.invalid[join(parent, key)] = "array"
		return nil, false
	}
	return items, true
}

func (d *decoder) str(m map[string]any, key, parent string) string {
	v, ok := lookup(m, key)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.invalid[join(parent, key)] = "string"
		return ""
	}
	return strings.TrimSpace(s)
}

func (d *decoder) integer(m map[string]any, key, parent string) *int {
	v, ok := lookup(m, key)
	if !ok {
		return nil
	}
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		d.invalid[join(parent, key)] = "integer"
		return nil
	}
	n := int(f)
	return &n
}

func (d *decoder) number(m map[string]any, key, parent string) *float64 {
	v, ok := lookup(m, key)
	if !ok {
		return nil
	}
	f, ok := v.(float64)
	if !ok {
		d.invalid[join(parent, key)] = "number"
		return nil
	}
	return &f
}

func (d *decoder) boolean(m map[string]any, key, parent string) *bool {
	v, ok := lookup(m, key)
	if !ok {
		return nil
	}
	b, ok := v.(bool)
	if !ok {
		d.invalid[join(parent, key)] = "boolean"
		return nil
	}
	return &b
}

func (d *decoder) strings(m map[string]any, key, parent string) []string {
	items, ok := d.list(m, key, parent)
	if !ok {
		return nil
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			d.invalid[join(parent, key)] = "array of strings"
			return nil
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (d *decoder) examples(m map[string]any, key, parent string) []Example {
	items, ok := d.list(m, key, parent)
	if !ok {
		return nil
	}

	out := make([]Example, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			d.invalid[join(parent, key)] = "array of objects"
			return nil
		}
		in, _ := obj["input"].(string)
		res, _ := obj["output"].(string)
		out = append(out, Example{Input: in, Output: res})
	}
	return out
}
