package agents

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/JaimeStill/agent-forge/internal/compiler"
	"github.com/JaimeStill/agent-forge/pkg/decode"
	"github.com/JaimeStill/go-agents/pkg/agent"
	agtconfig "github.com/JaimeStill/go-agents/pkg/config"
	"github.com/JaimeStill/go-agents/pkg/response"
)

// Instance is a live agent ready to converse.
type Instance interface {
	Chat(ctx context.Context, prompt string, opts map[string]any) (string, error)
}

// InstanceFunc adapts a function to Instance.
type InstanceFunc func(ctx context.Context, prompt string, opts map[string]any) (string, error)

func (f InstanceFunc) Chat(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	return f(ctx, prompt, opts)
}

// Builder constructs live instances from compiled configurations.
type Builder interface {
	Build(ctx context.Context, cfg *compiler.Config) (Instance, error)
}

// Provider is the connection a specification's model_config.provider
// resolves to. Name is the go-agents provider implementation.
type Provider struct {
	Name    string
	BaseURL string
	Token   string
	Options map[string]any
}

// AgentFactory constructs a go-agents agent from its configuration.
type AgentFactory func(cfg *agtconfig.AgentConfig) (agent.Agent, error)

// BuilderOption configures an AgentBuilder.
type BuilderOption func(*AgentBuilder)

// WithAgentFactory replaces agent.New.
func WithAgentFactory(fn AgentFactory) BuilderOption {
	return func(b *AgentBuilder) { b.factory = fn }
}

// AgentBuilder builds go-agents instances.
type AgentBuilder struct {
	providers map[string]Provider
	factory   AgentFactory
}

// NewAgentBuilder creates a builder over the given providers, keyed by the
// provider name used in specifications.
func NewAgentBuilder(providers map[string]Provider, opts ...BuilderOption) *AgentBuilder {
	b := &AgentBuilder{
		providers: providers,
		factory:   agent.New,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AgentConfig maps cfg onto a go-agents configuration merged over its defaults.
func (b *AgentBuilder) AgentConfig(cfg *compiler.Config) (*agtconfig.AgentConfig, error) {
	p, ok := b.providers[cfg.Model.Provider]
	if !ok {
		return nil, fmt.Errorf("provider %q is not configured", cfg.Model.Provider)
	}

	options := maps.Clone(p.Options)
	if options == nil {
		options = map[string]any{}
	}
	if p.Token != "" {
		options["token"] = p.Token
		if _, ok := options["auth_type"]; !ok {
			options["auth_type"] = "bearer"
		}
	}

	name := p.Name
	if name == "" {
		name = cfg.Model.Provider
	}

	userCfg, err := decode.FromMap[agtconfig.AgentConfig](map[string]any{
		"name":          cfg.Slug,
		"system_prompt": cfg.SystemPrompt,
		"provider": map[string]any{
			"name":     name,
			"base_url": p.BaseURL,
			"options":  options,
		},
		"model": map[string]any{
			"name": cfg.Model.ModelID,
			"capabilities": map[string]any{
				"chat": map[string]any{
					"max_tokens":  cfg.Model.MaxTokens,
					"temperature": cfg.Model.Temperature,
				},
				"tools": map[string]any{
					"max_tokens":  cfg.Model.MaxTokens,
					"temperature": cfg.Model.Temperature,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("agent config: %w", err)
	}

	merged := agtconfig.DefaultAgentConfig()
	merged.Merge(&userCfg)
	return &merged, nil
}

// AgentTools returns the function definitions of cfg's bound tools.
func AgentTools(cfg *compiler.Config) []agent.Tool {
	out := make([]agent.Tool, 0, len(cfg.Tools))
	for _, b := range cfg.Tools {
		out = append(out, agent.Tool{
			Name:        b.Definition.Name,
			Description: b.Definition.Description,
			Parameters:  b.Definition.Parameters,
		})
	}
	return out
}

// Build constructs a go-agents agent for cfg. Agents with bound tools
// converse over the tools protocol.
func (b *AgentBuilder) Build(ctx context.Context, cfg *compiler.Config) (Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agtCfg, err := b.AgentConfig(cfg)
	if err != nil {
		return nil, err
	}

	a, err := b.factory(agtCfg)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	tools := AgentTools(cfg)
	if len(tools) == 0 {
		return InstanceFunc(func(ctx context.Context, prompt string, opts map[string]any) (string, error) {
			resp, err := a.Chat(ctx, prompt, opts)
			if err != nil {
				return "", err
			}
			return resp.Content(), nil
		}), nil
	}

	return InstanceFunc(func(ctx context.Context, prompt string, opts map[string]any) (string, error) {
		resp, err := a.Tools(ctx, prompt, tools, opts)
		if err != nil {
			return "", err
		}
		return toolsContent(resp), nil
	}), nil
}

// toolsContent renders the first choice: its text followed by one
// name(arguments) line per requested call.
func toolsContent(resp *response.ToolsResponse) string {
	if resp == nil || len(resp.Choices) == 0 {
		return ""
	}

	msg := resp.Choices[0].Message
	var b strings.Builder
	b.WriteString(msg.Content)
	for _, call := range msg.ToolCalls {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s(%s)", call.Function.Name, call.Function.Arguments)
	}
	return b.String()
}
