// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (lifecycle, logging, database) that domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"

	"github.com/JaimeStill/agent-forge/internal/config"
	"github.com/JaimeStill/agent-forge/pkg/database"
	"github.com/JaimeStill/agent-forge/pkg/lifecycle"
	"github.com/JaimeStill/agent-forge/pkg/logging"
)

// Infrastructure holds the core systems required by all domain modules.
// Database is nil when the service runs on the in-memory store.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := logging.New(&cfg.Logging)

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
	}

	if cfg.Store == config.StorePostgres {
		db, err := database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
	}

	return infra, nil
}

// Start initializes all infrastructure systems and registers them with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.Database == nil {
		return nil
	}
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	return nil
}
