package api

import (
	"context"
	"fmt"

	"github.com/JaimeStill/agent-forge/internal/agents"
	"github.com/JaimeStill/agent-forge/internal/compiler"
	"github.com/JaimeStill/agent-forge/internal/config"
	"github.com/JaimeStill/agent-forge/internal/providers"
	"github.com/JaimeStill/agent-forge/internal/specs"
	"github.com/JaimeStill/agent-forge/internal/templates"
	"github.com/JaimeStill/agent-forge/internal/tools"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Tools     *tools.Catalog
	Providers *providers.Registry
	Validator *specs.Validator
	Compiler  *compiler.Compiler
	Agents    agents.System
	Templates *templates.Catalog
}

// NewDomain creates all domain systems from the API runtime. The tool
// catalog starts from the embedded seed; persisted activation state is
// applied by Start.
func NewDomain(runtime *Runtime, cfg *config.Config) (*Domain, error) {
	var (
		toolStore  tools.Store
		agentStore agents.Store
	)
	if runtime.Database != nil {
		conn := runtime.Database.Connection()
		toolStore = tools.NewRepository(conn, runtime.Logger)
		agentStore = agents.NewRepository(conn, runtime.Logger)
	} else {
		agentStore = agents.NewMemoryStore()
	}

	seed, err := tools.Seed()
	if err != nil {
		return nil, fmt.Errorf("load tool seed: %w", err)
	}
	catalog := tools.New(runtime.Logger, toolStore)
	catalog.Register(seed...)

	builtin, err := templates.Builtin()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	registry := providers.New(cfg.Providers)
	validator := specs.NewValidator(
		catalog,
		cfg.Forge.AcceptanceThreshold,
		specs.WithWeights(cfg.Forge.Weights),
		specs.WithProviders(registry),
	)
	comp := compiler.New(catalog, compiler.WithDefaults(cfg.Forge.Defaults.Compiler()))
	builder := agents.NewAgentBuilder(builderProviders(cfg))

	return &Domain{
		Tools:     catalog,
		Providers: registry,
		Validator: validator,
		Compiler:  comp,
		Agents: agents.New(
			agentStore,
			validator,
			comp,
			builder,
			runtime.Logger,
			agents.WithPagination(runtime.Pagination),
		),
		Templates: templates.New(builtin),
	}, nil
}

// Start loads the persisted tool catalog.
func (d *Domain) Start(ctx context.Context) error {
	return d.Tools.Load(ctx)
}

func builderProviders(cfg *config.Config) map[string]agents.Provider {
	out := make(map[string]agents.Provider, len(cfg.Providers))
	for name, p := range cfg.Providers {
		out[name] = agents.Provider{
			Name:    p.Kind,
			BaseURL: p.BaseURL,
			Token:   p.Token(),
			Options: p.Options,
		}
	}
	return out
}
