package templates_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/JaimeStill/agent-forge/internal/specs"
	"github.com/JaimeStill/agent-forge/internal/templates"
	"github.com/JaimeStill/agent-forge/internal/tools"
	"github.com/JaimeStill/agent-forge/pkg/logging"
)

func newValidator(t *testing.T) *specs.Validator {
	t.Helper()

	seed, err := tools.Seed()
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	catalog := tools.New(logging.Discard(), nil)
	catalog.Register(seed...)
	return specs.NewValidator(catalog, 70)
}

func newCatalog(t *testing.T) *templates.Catalog {
	t.Helper()

	builtin, err := templates.Builtin()
	if err != nil {
		t.Fatalf("Builtin() error = %v", err)
	}
	n := 0
	return templates.New(builtin, templates.WithSuffix(func() string {
		n++
		return fmt.Sprintf("%06d", n)
	}))
}

func agentConfig(spec map[string]any) map[string]any {
	ac, _ := spec["agent_config"].(map[string]any)
	return ac
}

func TestBuiltin(t *testing.T) {
	builtin, err := templates.Builtin()
	if err != nil {
		t.Fatalf("Builtin() error = %v", err)
	}

	var slugs []string
	for _, tmpl := range builtin {
		slugs = append(slugs, tmpl.Slug)
	}
	if want := []string{"finance", "marketing", "legal", "technology"}; !reflect.DeepEqual(slugs, want) {
		t.Fatalf("slugs = %v, want %v", slugs, want)
	}

	v := newValidator(t)
	for _, tmpl := range builtin {
		t.Run(tmpl.Slug, func(t *testing.T) {
			result := v.Validate(specs.Decode(tmpl.Specification))
			if !result.Valid || result.Score != 100 {
				t.Errorf("score = %d valid = %v, warnings = %+v errors = %+v", result.Score, result.Valid, result.Warnings, result.Errors)
			}
			if len(tmpl.CustomizationOptions) != 5 {
				t.Errorf("customization options = %v", tmpl.CustomizationOptions)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no slug", "templates:\n  - name: X\n    specification:\n      agent_config: {slug: x}\n"},
		{"duplicate slug", "templates:\n  - slug: a\n    specification:\n      agent_config: {slug: a}\n  - slug: a\n    specification:\n      agent_config: {slug: b}\n"},
		{"no base slug", "templates:\n  - slug: a\n    specification:\n      agent_config: {name: A}\n"},
		{"malformed", "templates: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := templates.Parse([]byte(tt.yaml)); err == nil {
				t.Error("Parse() error = nil")
			}
		})
	}
}

func TestCatalog_List(t *testing.T) {
	list := newCatalog(t).List()
	if len(list) != 4 {
		t.Fatalf("List() = %d templates, want 4", len(list))
	}

	finance := list[0]
	if finance.Slug != "finance" {
		t.Fatalf("first template = %s, want finance", finance.Slug)
	}
	if want := []string{"DuckDuckGoTools", "YFinanceTools", "ReasoningTools"}; !reflect.DeepEqual(finance.Tools, want) {
		t.Errorf("Tools = %v, want %v", finance.Tools, want)
	}
	if len(finance.KnowledgeSources) != 3 {
		t.Errorf("KnowledgeSources = %v, want 3 sources", finance.KnowledgeSources)
	}
}

func TestCatalog_Get(t *testing.T) {
	c := newCatalog(t)

	if _, err := c.Get("astrology"); !errors.Is(err, templates.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}

	tmpl, err := c.Get("legal")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	agentConfig(tmpl.Specification)["slug"] = "changed"

	again, _ := c.Get("legal")
	if got := agentConfig(again.Specification)["slug"]; got != "legal_agent" {
		t.Errorf("slug = %v, catalog was mutated", got)
	}
}

func TestCatalog_Instantiate(t *testing.T) {
	tests := []struct {
		name   string
		custom templates.Customizations
		check  func(t *testing.T, spec map[string]any)
	}{
		{
			name:   "defaults",
			custom: templates.Customizations{},
			check: func(t *testing.T, spec map[string]any) {
				if got := agentConfig(spec)["specialization"]; got != "Financial analysis and investing" {
					t.Errorf("specialization = %v", got)
				}
			},
		},
		{
			name:   "specialization",
			custom: templates.Customizations{Specialization: "Cryptocurrency"},
			check: func(t *testing.T, spec map[string]any) {
				ac := agentConfig(spec)
				if ac["specialization"] != "Cryptocurrency" {
					t.Errorf("specialization = %v", ac["specialization"])
				}
				if ac["description"] != "Financial analysis and investment guidance. - Cryptocurrency" {
					t.Errorf("description = %v", ac["description"])
				}
			},
		},
		{
			name:   "model config merged",
			custom: templates.Customizations{ModelConfig: map[string]any{"model_id": "gpt-4o", "temperature": 0.2}},
			check: func(t *testing.T, spec map[string]any) {
				mc := spec["model_config"].(map[string]any)
				want := map[string]any{"provider": "openai", "model_id": "gpt-4o", "max_tokens": float64(2000), "temperature": 0.2}
				if !reflect.DeepEqual(mc, want) {
					t.Errorf("model_config = %v, want %v", mc, want)
				}
			},
		},
		{
			name:   "tools replaced",
			custom: templates.Customizations{ToolsConfig: []any{map[string]any{"name": "CalculatorTools", "enabled": true}}},
			check: func(t *testing.T, spec map[string]any) {
				tc := spec["tools_config"].([]any)
				if len(tc) != 1 || tc[0].(map[string]any)["name"] != "CalculatorTools" {
					t.Errorf("tools_config = %v", tc)
				}
			},
		},
		{
			name:   "knowledge sources replaced",
			custom: templates.Customizations{KnowledgeBase: []string{"https://www.sec.gov"}},
			check: func(t *testing.T, spec map[string]any) {
				kb := spec["knowledge_base"].(map[string]any)
				if !reflect.DeepEqual(kb["sources"], []any{"https://www.sec.gov"}) {
					t.Errorf("sources = %v", kb["sources"])
				}
				if kb["type"] != "url" {
					t.Errorf("type = %v, want url", kb["type"])
				}
			},
		},
		{
			name:   "instructions replaced",
			custom: templates.Customizations{Instructions: "Only discuss bonds."},
			check: func(t *testing.T, spec map[string]any) {
				in := spec["instructions"].(map[string]any)
				if in["system_message"] != "Only discuss bonds." {
					t.Errorf("system_message = %v", in["system_message"])
				}
				if len(in["guidelines"].([]any)) != 5 {
					t.Errorf("guidelines = %v, want template guidelines kept", in["guidelines"])
				}
			},
		},
	}

	v := newValidator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCatalog(t)

			spec, err := c.Instantiate("finance", tt.custom)
			if err != nil {
				t.Fatalf("Instantiate() error = %v", err)
			}
			if got := agentConfig(spec)["slug"]; got != "finance_agent_000001" {
				t.Errorf("slug = %v, want finance_agent_000001", got)
			}
			tt.check(t, spec)

			if result := v.Validate(specs.Decode(spec)); !result.Valid {
				t.Errorf("instance invalid: %+v", result.Errors)
			}
		})
	}
}

func TestCatalog_Instantiate_Independent(t *testing.T) {
	c := newCatalog(t)

	first, err := c.Instantiate("technology", templates.Customizations{Instructions: "Go only."})
	if err != nil {
		t.Fatalf("Instantiate() error = %v", err)
	}
	second, err := c.Instantiate("technology", templates.Customizations{})
	if err != nil {
		t.Fatalf("Instantiate() error = %v", err)
	}

	if agentConfig(first)["slug"] == agentConfig(second)["slug"] {
		t.Errorf("instances share slug %v", agentConfig(first)["slug"])
	}
	if second["instructions"].(map[string]any)["system_message"] == "Go only." {
		t.Error("customization leaked into the template")
	}
}

func TestCatalog_Instantiate_Unsupported(t *testing.T) {
	parsed, err := templates.Parse([]byte(`templates:
  - slug: fixed
    name: Fixed
    customization_options: [specialization]
    specification:
      agent_config: {name: Fixed, slug: fixed_agent}
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	c := templates.New(parsed)

	if _, err := c.Instantiate("fixed", templates.Customizations{Specialization: "x"}); err != nil {
		t.Errorf("Instantiate(specialization) error = %v", err)
	}
	_, err = c.Instantiate("fixed", templates.Customizations{Instructions: "x"})
	if !errors.Is(err, templates.ErrUnsupportedCustomization) {
		t.Errorf("Instantiate(instructions) error = %v, want ErrUnsupportedCustomization", err)
	}
	if _, err := c.Instantiate("missing", templates.Customizations{}); !errors.Is(err, templates.ErrNotFound) {
		t.Errorf("Instantiate(missing) error = %v, want ErrNotFound", err)
	}
}

func TestCatalog_Recommend(t *testing.T) {
	c := newCatalog(t)

	tests := []struct {
		description string
		want        string
		wantOK      bool
	}{
		{"I need help picking STOCK investments", "finance", true},
		{"Promote our new brand", "marketing", true},
		{"Review this contract", "legal", true},
		{"Help me write code", "technology", true},
		{"A market for legal software", "finance", true},
		{"Plan my garden", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			got, ok := c.Recommend(tt.description)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Recommend() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
