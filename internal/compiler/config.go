package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/JaimeStill/agent-forge/internal/specs"
	"github.com/JaimeStill/agent-forge/internal/tools"
)

// Model is the resolved model binding.
type Model struct {
	Provider    string  `json:"provider"`
	ModelID     string  `json:"model_id"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// Binding is a resolved tool with its merged instance configuration.
type Binding struct {
	Descriptor tools.Descriptor `json:"descriptor"`
	Config     map[string]any   `json:"config"`
	Definition tools.Definition `json:"definition"`
}

// Features are the resolved feature flags.
type Features struct {
	Reasoning bool `json:"reasoning"`
	Memory    bool `json:"memory"`
	Knowledge bool `json:"knowledge"`
	Markdown  bool `json:"markdown"`
}

// Config is a compiled agent configuration. It is a plain value: it can be
// stored, serialized, and compared by Hash.
type Config struct {
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Description    string          `json:"description,omitempty"`
	Role           string          `json:"role,omitempty"`
	Specialization string          `json:"specialization,omitempty"`
	Model          Model           `json:"model"`
	Tools          []Binding       `json:"tools"`
	SystemPrompt   string          `json:"system_prompt"`
	Examples       []specs.Example `json:"examples,omitempty"`
	Features       Features        `json:"features"`
}

// Hash returns the hex SHA-256 of the config's JSON encoding. Map keys are
// encoded in sorted order, so equal configs hash equally.
func (c *Config) Hash() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ToolNames returns the bound tool names in order.
func (c *Config) ToolNames() []string {
	names := make([]string, len(c.Tools))
	for i, b := range c.Tools {
		names[i] = b.Descriptor.Name
	}
	return names
}
