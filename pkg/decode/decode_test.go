package decode_test

import (
	"encoding/json"
	"testing"

	"github.com/JaimeStill/agent-forge/pkg/decode"
)

type model struct {
	Name         string `json:"name"`
	Capabilities struct {
		Chat struct {
			MaxTokens   int     `json:"max_tokens"`
			Temperature float64 `json:"temperature"`
		} `json:"chat"`
	} `json:"capabilities"`
}

func TestFromMap(t *testing.T) {
	input := map[string]any{
		"name": "gpt-4o",
		"capabilities": map[string]any{
			"chat": map[string]any{"max_tokens": 1500, "temperature": 0.3},
		},
		"ignored": true,
	}

	got, err := decode.FromMap[model](input)
	if err != nil {
		t.Fatalf("FromMap() error = %v", err)
	}
	if got.Name != "gpt-4o" || got.Capabilities.Chat.MaxTokens != 1500 || got.Capabilities.Chat.Temperature != 0.3 {
		t.Errorf("FromMap() = %+v", got)
	}
}

func TestFromMap_TypeMismatch(t *testing.T) {
	if _, err := decode.FromMap[model](map[string]any{"name": 42}); err == nil {
		t.Error("FromMap() error = nil, want type error")
	}
}

func TestToMap(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		wantKey string
		wantErr bool
	}{
		{"struct", model{Name: "llama3"}, "capabilities", false},
		{"raw object", json.RawMessage(`{"agent_config": {"name": "x"}}`), "agent_config", false},
		{"array", []int{1, 2}, "", true},
		{"unencodable", make(chan int), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decode.ToMap(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("ToMap() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ToMap() error = %v", err)
			}
			if _, ok := got[tt.wantKey]; !ok {
				t.Errorf("ToMap() = %v, missing %s", got, tt.wantKey)
			}
		})
	}
}
