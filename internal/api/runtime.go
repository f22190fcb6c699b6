package api

import (
	"github.com/JaimeStill/agent-forge/internal/config"
	"github.com/JaimeStill/agent-forge/internal/infrastructure"
	"github.com/JaimeStill/agent-forge/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination  pagination.Config
	MaxSpecSize int64
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
		},
		Pagination:  cfg.Pagination,
		MaxSpecSize: cfg.Forge.MaxSpecSizeBytes(),
	}
}
