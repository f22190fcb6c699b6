package tools

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/agent-forge/pkg/query"
	"github.com/JaimeStill/agent-forge/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "available_tools", "t").
	Project("name", "Name").
	Project("display_name", "DisplayName").
	Project("description", "Description").
	Project("category", "Category").
	Project("kind", "Kind").
	Project("config_schema", "ConfigSchema").
	Project("required_env_vars", "RequiredEnvVars").
	Project("cost_per_call", "CostPerCall").
	Project("rate_limit_per_minute", "RateLimitPerMinute").
	Project("is_active", "IsActive")

func scanDescriptor(s repository.Scanner) (Descriptor, error) {
	var (
		d       Descriptor
		schema  []byte
		envVars []byte
	)

	err := s.Scan(
		&d.Name, &d.DisplayName, &d.Description, &d.Category, &d.Kind,
		&schema, &envVars, &d.CostPerCall, &d.RateLimitPerMinute, &d.IsActive,
	)
	if err != nil {
		return d, err
	}

	if err := json.Unmarshal(schema, &d.ConfigSchema); err != nil {
		return d, fmt.Errorf("decode config_schema of %s: %w", d.Name, err)
	}
	if err := json.Unmarshal(envVars, &d.RequiredEnvVars); err != nil {
		return d, fmt.Errorf("decode required_env_vars of %s: %w", d.Name, err)
	}
	return d, nil
}

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRepository creates a Store over the available_tools table.
func NewRepository(db *sql.DB, logger *slog.Logger) Store {
	return &repo{
		db:     db,
		logger: logger.With("system", "tools.repository"),
	}
}

func (r *repo) List(ctx context.Context) ([]Descriptor, error) {
	q := fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY %s",
		projection.Columns(), projection.Table(), projection.Column("Name"),
	)

	descs, err := repository.QueryMany(ctx, r.db, q, nil, scanDescriptor)
	if err != nil {
		return nil, fmt.Errorf("query tools: %w", err)
	}
	return descs, nil
}

func (r *repo) SetActive(ctx context.Context, name string, active bool) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		err := repository.ExecExpectOne(ctx, tx,
			"UPDATE available_tools SET is_active = $1, updated_at = NOW() WHERE name = $2",
			active, name,
		)
		return struct{}{}, err
	})
	return repository.MapError(err, ErrNotFound, ErrInvalidDescriptor)
}

// Save upserts d by name.
func Save(ctx context.Context, q repository.Querier, d Descriptor) error {
	if err := d.normalize(); err != nil {
		return err
	}

	schema, err := json.Marshal(d.ConfigSchema)
	if err != nil {
		return fmt.Errorf("encode config_schema: %w", err)
	}
	envVars, err := json.Marshal(d.RequiredEnvVars)
	if err != nil {
		return fmt.Errorf("encode required_env_vars: %w", err)
	}

	const stmt = `
		INSERT INTO available_tools (
			name, display_name, description, category, kind, config_schema,
			required_env_vars, cost_per_call, rate_limit_per_minute, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (name) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			kind = EXCLUDED.kind,
			config_schema = EXCLUDED.config_schema,
			required_env_vars = EXCLUDED.required_env_vars,
			cost_per_call = EXCLUDED.cost_per_call,
			rate_limit_per_minute = EXCLUDED.rate_limit_per_minute,
			updated_at = NOW()`

	_, err = q.ExecContext(ctx, stmt,
		d.Name, d.DisplayName, d.Description, d.Category, string(d.Kind), schema,
		envVars, d.CostPerCall, d.RateLimitPerMinute, d.IsActive,
	)
	return err
}
