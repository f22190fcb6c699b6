// Package providers exposes the model providers configured for this service
// and the models each one offers.
package providers

import (
	"maps"
	"slices"

	"github.com/JaimeStill/agent-forge/internal/config"
)

// Provider is a configured model provider. Name is the value specifications
// use in model_config.provider; Kind is the go-agents implementation.
type Provider struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	BaseURL string   `json:"base_url"`
	Models  []string `json:"models"`
}

// Registry is a read-only view of the configured providers.
type Registry struct {
	providers map[string]Provider
}

// New creates a registry from finalized provider configuration.
func New(cfg map[string]config.ProviderConfig) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(cfg))}
	for name, p := range cfg {
		models := slices.Clone(p.Models)
		if models == nil {
			models = []string{}
		}
		r.providers[name] = Provider{
			Name:    name,
			Kind:    p.Kind,
			BaseURL: p.BaseURL,
			Models:  models,
		}
	}
	return r
}

// Models returns the models offered by name. An empty list means any model
// id is passed through to the provider.
func (r *Registry) Models(name string) ([]string, bool) {
	p, ok := r.providers[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(p.Models), true
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return Provider{}, ErrNotFound
	}
	p.Models = slices.Clone(p.Models)
	return p, nil
}

// List returns every provider sorted by name.
func (r *Registry) List() []Provider {
	out := make([]Provider, 0, len(r.providers))
	for _, name := range slices.Sorted(maps.Keys(r.providers)) {
		p := r.providers[name]
		p.Models = slices.Clone(p.Models)
		out = append(out, p)
	}
	return out
}
