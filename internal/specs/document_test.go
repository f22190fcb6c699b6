package specs_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/JaimeStill/agent-forge/internal/specs"
)

func TestParse_CamelCaseKeys(t *testing.T) {
	doc, err := specs.Parse([]byte(`{
		"agentConfig": {"name": " Analyst "},
		"modelConfig": {"provider": "openai", "modelId": "gpt-4o", "maxTokens": 1500, "temperature": 0.3},
		"instructions": {"systemMessage": "Be precise.", "guidelines": ["one", " ", "two"]},
		"features": {"memoryEnabled": false}
	}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if doc.AgentConfig.Name != "Analyst" {
		t.Errorf("Name = %q, want trimmed Analyst", doc.AgentConfig.Name)
	}
	if doc.ModelConfig.ModelID != "gpt-4o" {
		t.Errorf("ModelID = %q, want gpt-4o", doc.ModelConfig.ModelID)
	}
	if doc.ModelConfig.MaxTokens == nil || *doc.ModelConfig.MaxTokens != 1500 {
		t.Errorf("MaxTokens = %v, want 1500", doc.ModelConfig.MaxTokens)
	}
	if got := strings.Join(doc.Instructions.Guidelines, ","); got != "one,two" {
		t.Errorf("Guidelines = %q, want blanks dropped", got)
	}
	if doc.Features.MemoryEnabled == nil || *doc.Features.MemoryEnabled {
		t.Errorf("MemoryEnabled = %v, want explicit false", doc.Features.MemoryEnabled)
	}
	if doc.ToolsConfig != nil {
		t.Errorf("ToolsConfig = %v, want nil when absent", doc.ToolsConfig)
	}
}

func TestParse_ToolEntries(t *testing.T) {
	doc, err := specs.Parse([]byte(`{"tools_config": [
		{"name": "ReasoningTools"},
		{"name": "ChartTools", "enabled": false},
		"CalculatorTools",
		{"name": "YFinanceTools", "config": {"stock_price": true}}
	]}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(doc.ToolsConfig) != 3 {
		t.Fatalf("len(ToolsConfig) = %d, want 3", len(doc.ToolsConfig))
	}
	if !doc.ToolsConfig[0].Enabled {
		t.Error("enabled should default to true")
	}
	if doc.ToolsConfig[1].Enabled {
		t.Error("explicit enabled=false lost")
	}
	if doc.ToolsConfig[2].Config["stock_price"] != true {
		t.Errorf("Config = %v", doc.ToolsConfig[2].Config)
	}
	if got := doc.InvalidFields()["tools_config[2]"]; got != "object" {
		t.Errorf("InvalidFields()[tools_config[2]] = %q, want object", got)
	}
}

func TestParse_WrongTypes(t *testing.T) {
	doc, err := specs.Parse([]byte(`{
		"agent_config": "Analyst",
		"model_config": {"max_tokens": 10.5, "temperature": "warm"},
		"instructions": {"guidelines": "be nice"}
	}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := map[string]string{
		"agent_config":             "object",
		"model_config.max_tokens":  "integer",
		"model_config.temperature": "number",
		"instructions.guidelines":  "array",
	}
	got := doc.InvalidFields()
	for path, typ := range want {
		if got[path] != typ {
			t.Errorf("InvalidFields()[%s] = %q, want %q", path, got[path], typ)
		}
	}
	if doc.AgentConfig != nil {
		t.Error("wrong-typed section should decode as absent")
	}
}

func TestParse_NotObject(t *testing.T) {
	for _, raw := range []string{"", "null", `"text"`, "[]", "{bad"} {
		if _, err := specs.Parse([]byte(raw)); !errors.Is(err, specs.ErrParse) {
			t.Errorf("Parse(%q) error = %v, want ErrParse", raw, err)
		}
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"bare object", `  {"a": 1}  `, `{"a": 1}`},
		{"fenced json", "Sure!\n```json\n{\"a\": 1}\n```\nDone.", `{"a": 1}`},
		{"fenced without language", "```\n{\"a\": 2}\n```", `{"a": 2}`},
		{"skips non-json fence", "```bash\nls\n```\n```json\n{\"a\": 3}\n```", `{"a": 3}`},
		{"brace span", `Here it is {"a": 4} as requested.`, `{"a": 4}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := specs.Extract(tt.text)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtract_NoObject(t *testing.T) {
	if _, err := specs.Extract("What should the agent be called?"); !errors.Is(err, specs.ErrParse) {
		t.Errorf("Extract() error = %v, want ErrParse", err)
	}
}

func TestCanonical_SnakeCase(t *testing.T) {
	doc, err := specs.Parse([]byte(`{"agentConfig": {"name": "X"}, "modelConfig": {"modelId": "m"}}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	raw, err := specs.Canonical(doc)
	if err != nil {
		t.Fatalf("Canonical() error = %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal canonical: %v", err)
	}
	if _, ok := m["agent_config"]; !ok {
		t.Errorf("canonical = %s, want agent_config key", raw)
	}
	if mc, _ := m["model_config"].(map[string]any); mc["model_id"] != "m" {
		t.Errorf("canonical = %s, want model_config.model_id", raw)
	}
}

func TestDocument_Clone(t *testing.T) {
	doc, err := specs.Parse([]byte(minimalSpec))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	c := doc.Clone()
	c.AgentConfig.Name = "Y"
	c.Instructions.Guidelines = append(c.Instructions.Guidelines, "new")

	if doc.AgentConfig.Name != "X" || len(doc.Instructions.Guidelines) != 0 {
		t.Error("mutating clone changed original")
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Finance Expert", "finance_expert"},
		{"  --Finance__Expert!!  ", "finance_expert"},
		{"GPT-4o Helper v2", "gpt_4o_helper_v2"},
		{"Ünïcode Agent", "n_code_agent"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		if got := specs.Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDeriveSlug(t *testing.T) {
	if got := specs.DeriveSlug("Finance Expert", "a1b2c3"); got != "finance_expert_a1b2c3" {
		t.Errorf("DeriveSlug() = %q", got)
	}
	if got := specs.DeriveSlug("???", "a1b2c3"); got != "agent_a1b2c3" {
		t.Errorf("DeriveSlug() = %q, want agent fallback", got)
	}
	if s := specs.RandomSuffix(); len(s) != 6 {
		t.Errorf("RandomSuffix() = %q, want 6 characters", s)
	}
}
