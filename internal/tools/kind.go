package tools

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Kind selects the strategy that materializes a descriptor into a tool definition.
type Kind string

const (
	KindWebSearch  Kind = "web_search"
	KindFinance    Kind = "finance"
	KindReasoning  Kind = "reasoning"
	KindKnowledge  Kind = "knowledge"
	KindCalculator Kind = "calculator"
	KindChart      Kind = "chart"
)

// Definition is the function-calling description of a bound tool.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type strategy func(d Descriptor, cfg map[string]any) Definition

var strategies = map[Kind]strategy{
	KindWebSearch:  webSearch,
	KindFinance:    finance,
	KindReasoning:  reasoning,
	KindKnowledge:  knowledge,
	KindCalculator: calculator,
	KindChart:      chart,
}

// Valid reports whether k names a known strategy.
func (k Kind) Valid() bool {
	_, ok := strategies[k]
	return ok
}

// Kinds returns the known kinds in sorted order.
func Kinds() []Kind {
	return slices.Sorted(maps.Keys(strategies))
}

// Define materializes d with its resolved configuration.
func Define(d Descriptor, cfg map[string]any) (Definition, error) {
	s, ok := strategies[d.Kind]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s: kind %q", ErrUnknownKind, d.Name, d.Kind)
	}
	return s(d, cfg), nil
}

func object(required []string, props map[string]any) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func webSearch(d Descriptor, cfg map[string]any) Definition {
	desc := d.Description
	if n, ok := cfg["max_results"]; ok {
		desc = fmt.Sprintf("%s Returns at most %v results.", desc, n)
	}
	return Definition{
		Name:        d.Name,
		Description: desc,
		Parameters: object([]string{"query"}, map[string]any{
			"query": map[string]any{"type": "string", "description": "search terms"},
		}),
	}
}

func finance(d Descriptor, cfg map[string]any) Definition {
	var enabled []string
	for _, k := range slices.Sorted(maps.Keys(cfg)) {
		if on, ok := cfg[k].(bool); ok && on {
			enabled = append(enabled, k)
		}
	}

	desc := d.Description
	if len(enabled) > 0 {
		desc = fmt.Sprintf("%s Enabled: %s.", desc, strings.Join(enabled, ", "))
	}
	return Definition{
		Name:        d.Name,
		Description: desc,
		Parameters: object([]string{"symbol"}, map[string]any{
			"symbol": map[string]any{"type": "string", "description": "ticker symbol"},
		}),
	}
}

func reasoning(d Descriptor, _ map[string]any) Definition {
	return Definition{
		Name:        d.Name,
		Description: d.Description,
		Parameters: object([]string{"thought"}, map[string]any{
			"thought": map[string]any{"type": "string", "description": "the step to reason about"},
		}),
	}
}

func knowledge(d Descriptor, _ map[string]any) Definition {
	return Definition{
		Name:        d.Name,
		Description: d.Description,
		Parameters: object([]string{"query"}, map[string]any{
			"query": map[string]any{"type": "string", "description": "question for the knowledge base"},
		}),
	}
}

func calculator(d Descriptor, _ map[string]any) Definition {
	return Definition{
		Name:        d.Name,
		Description: d.Description,
		Parameters: object([]string{"expression"}, map[string]any{
			"expression": map[string]any{"type": "string", "description": "arithmetic expression"},
		}),
	}
}

func chart(d Descriptor, _ map[string]any) Definition {
	return Definition{
		Name:        d.Name,
		Description: d.Description,
		Parameters: object([]string{"chart_type", "data"}, map[string]any{
			"chart_type": map[string]any{"type": "string", "enum": []string{"line", "bar", "pie", "scatter"}},
			"data":       map[string]any{"type": "object"},
			"title":      map[string]any{"type": "string"},
		}),
	}
}
