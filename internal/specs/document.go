// Package specs defines the agent specification document emitted by the
// meta-agent, decodes it tolerantly from untyped JSON, and scores it.
package specs

// Document is an agent specification. Every section and field is optional at
// the type level; required-ness is enforced by the Validator, not the decoder.
// Empty strings and nil pointers mean "absent".
type Document struct {
	AgentConfig   *AgentConfig   `json:"agent_config,omitempty"`
	ModelConfig   *ModelConfig   `json:"model_config,omitempty"`
	ToolsConfig   []ToolConfig   `json:"tools_config"`
	Instructions  *Instructions  `json:"instructions,omitempty"`
	Features      *Features      `json:"features,omitempty"`
	KnowledgeBase *KnowledgeBase `json:"knowledge_base,omitempty"`

	// invalid maps field paths that were present with the wrong type to the
	// expected type. Such fields decode as absent.
	invalid map[string]string
}

// AgentConfig identifies the agent.
type AgentConfig struct {
	Name           string `json:"name,omitempty"`
	Slug           string `json:"slug,omitempty"`
	Description    string `json:"description,omitempty"`
	Role           string `json:"role,omitempty"`
	Specialization string `json:"specialization,omitempty"`
}

// ModelConfig selects the LLM backing the agent.
type ModelConfig struct {
	Provider    string   `json:"provider,omitempty"`
	ModelID     string   `json:"model_id,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// ToolConfig binds a catalog tool by name.
type ToolConfig struct {
	Name    string         `json:"name"`
	Enabled bool           `json:"enabled"`
	Config  map[string]any `json:"config,omitempty"`
}

// Example is a sample exchange included in the instructions.
type Example struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Instructions shape the agent's system prompt.
type Instructions struct {
	SystemMessage string    `json:"system_message,omitempty"`
	Guidelines    []string  `json:"guidelines,omitempty"`
	Examples      []Example `json:"examples,omitempty"`
}

// Features toggles optional runtime behaviour.
type Features struct {
	ReasoningEnabled *bool `json:"reasoning_enabled,omitempty"`
	MemoryEnabled    *bool `json:"memory_enabled,omitempty"`
	KnowledgeEnabled *bool `json:"knowledge_enabled,omitempty"`
	Markdown         *bool `json:"markdown,omitempty"`
}

// KnowledgeBase declares the knowledge sources an agent draws on.
type KnowledgeBase struct {
	Enabled *bool    `json:"enabled,omitempty"`
	Type    string   `json:"type,omitempty"`
	Sources []string `json:"sources,omitempty"`
}

// InvalidFields returns the paths of fields that were present with the wrong
// type, mapped to the expected type.
func (d *Document) InvalidFields() map[string]string {
	out := make(map[string]string, len(d.invalid))
	for k, v := range d.invalid {
		out[k] = v
	}
	return out
}

func (d *Document) isInvalid(path string) bool {
	_, ok := d.invalid[path]
	return ok
}

// KnowledgeEnabled reports whether features.knowledge_enabled is set to true.
func (d *Document) KnowledgeEnabled() bool {
	return d.Features != nil && d.Features.KnowledgeEnabled != nil && *d.Features.KnowledgeEnabled
}

// HasKnowledgeSource reports whether the document declares at least one knowledge source.
func (d *Document) HasKnowledgeSource() bool {
	return d.KnowledgeBase != nil && len(d.KnowledgeBase.Sources) > 0
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	c := &Document{}

	if d.AgentConfig != nil {
		ac := *d.AgentConfig
		c.AgentConfig = &ac
	}
	if d.ModelConfig != nil {
		mc := *d.ModelConfig
		if mc.MaxTokens != nil {
			v := *mc.MaxTokens
			mc.MaxTokens = &v
		}
		if mc.Temperature != nil {
			v := *mc.Temperature
			mc.Temperature = &v
		}
		c.ModelConfig = &mc
	}
	if d.ToolsConfig != nil {
		c.ToolsConfig = make([]ToolConfig, len(d.ToolsConfig))
		for i, t := range d.ToolsConfig {
			c.ToolsConfig[i] = ToolConfig{Name: t.Name, Enabled: t.Enabled, Config: cloneMap(t.Config)}
		}
	}
	if d.Instructions != nil {
		in := *d.Instructions
		in.Guidelines = append([]string(nil), in.Guidelines...)
		in.Examples = append([]Example(nil), in.Examples...)
		c.Instructions = &in
	}
	if d.Features != nil {
		f := Features{
			ReasoningEnabled: cloneBool(d.Features.ReasoningEnabled),
			MemoryEnabled:    cloneBool(d.Features.MemoryEnabled),
			KnowledgeEnabled: cloneBool(d.Features.KnowledgeEnabled),
			Markdown:         cloneBool(d.Features.Markdown),
		}
		c.Features = &f
	}
	if d.KnowledgeBase != nil {
		kb := *d.KnowledgeBase
		kb.Enabled = cloneBool(kb.Enabled)
		kb.Sources = append([]string(nil), kb.Sources...)
		c.KnowledgeBase = &kb
	}
	if len(d.invalid) > 0 {
		c.invalid = d.InvalidFields()
	}
	return c
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
