package agents

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/agent-forge/pkg/pagination"
	"github.com/JaimeStill/agent-forge/pkg/query"
	"github.com/JaimeStill/agent-forge/pkg/repository"
	"github.com/google/uuid"
)

var projection = query.
	NewProjectionMap("public", "dynamic_agents", "a").
	Project("id", "ID").
	Project("name", "Name").
	Project("slug", "Slug").
	Project("status", "Status").
	Project("description", "Description").
	Project("role", "Role").
	Project("specialization", "Specialization").
	Project("model_config", "ModelConfig").
	Project("tools_config", "ToolsConfig").
	Project("instructions", "Instructions").
	Project("features", "Features").
	Project("knowledge_base", "KnowledgeBase").
	Project("config", "Config").
	Project("config_hash", "ConfigHash").
	Project("specification_id", "SpecificationID").
	Project("total_sessions", "TotalSessions").
	Project("total_runs", "TotalRuns").
	Project("successful_runs", "SuccessfulRuns").
	Project("avg_response_time_ms", "AvgResponseTimeMs").
	Project("success_rate", "SuccessRate").
	Project("last_used_at", "LastUsedAt").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

const defaultSort = "Name"

func scanAgent(s repository.Scanner) (Agent, error) {
	var (
		a        Agent
		docs     [6][]byte
		specID   uuid.NullUUID
		lastUsed sql.NullTime
	)

	err := s.Scan(
		&a.ID, &a.Name, &a.Slug, &a.Status, &a.Description, &a.Role, &a.Specialization,
		&docs[0], &docs[1], &docs[2], &docs[3], &docs[4], &docs[5], &a.ConfigHash, &specID,
		&a.TotalSessions, &a.TotalRuns, &a.SuccessfulRuns, &a.AvgResponseTimeMs, &a.SuccessRate,
		&lastUsed, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return a, err
	}

	targets := [6]any{&a.ModelConfig, &a.ToolsConfig, &a.Instructions, &a.Features, &a.KnowledgeBase, &a.Config}
	for i, data := range docs {
		if len(data) == 0 {
			continue
		}
		if err := json.Unmarshal(data, targets[i]); err != nil {
			return a, fmt.Errorf("decode agent %s: %w", a.ID, err)
		}
	}

	if specID.Valid {
		a.SpecificationID = &specID.UUID
	}
	if lastUsed.Valid {
		a.LastUsedAt = &lastUsed.Time
	}
	return a, nil
}

func encodeDocs(values ...any) ([][]byte, error) {
	out := make([][]byte, len(values))
	for i, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode agent: %w", err)
		}
		out[i] = data
	}
	return out, nil
}

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRepository creates a Store over the dynamic_agents and
// agent_specifications tables.
func NewRepository(db *sql.DB, logger *slog.Logger) Store {
	return &repo{
		db:     db,
		logger: logger.With("system", "agents.repository"),
	}
}

func (r *repo) selectOne(ctx context.Context, q repository.Querier, id uuid.UUID) (*Agent, error) {
	sqlStr, args := query.NewBuilder(projection, defaultSort).BuildSingle("ID", id)
	a, err := repository.QueryOne(ctx, q, sqlStr, args, scanAgent)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repo) Create(ctx context.Context, a *Agent, spec *Specification) (*Agent, error) {
	docs, err := encodeDocs(a.ModelConfig, a.ToolsConfig, a.Instructions, a.Features, a.KnowledgeBase, a.Config)
	if err != nil {
		return nil, err
	}

	const insertAgent = `
		INSERT INTO dynamic_agents (
			name, slug, status, description, role, specialization,
			model_config, tools_config, instructions, features, knowledge_base,
			config, config_hash
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`

	const insertSpec = `
		INSERT INTO agent_specifications (specification, status, score, warnings, created_agent_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	created, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Agent, error) {
		var id uuid.UUID
		err := tx.QueryRowContext(ctx, insertAgent,
			a.Name, a.Slug, string(a.Status), a.Description, a.Role, a.Specialization,
			docs[0], docs[1], docs[2], docs[3], docs[4], docs[5], a.ConfigHash,
		).Scan(&id)
		if err != nil {
			return nil, err
		}

		if spec != nil {
			warnings, err := json.Marshal(spec.Warnings)
			if err != nil {
				return nil, fmt.Errorf("encode warnings: %w", err)
			}

			var specID uuid.UUID
			err = tx.QueryRowContext(ctx, insertSpec,
				[]byte(spec.Specification), spec.Status, spec.Score, warnings, id,
			).Scan(&specID)
			if err != nil {
				return nil, err
			}

			err = repository.ExecExpectOne(ctx, tx,
				"UPDATE dynamic_agents SET specification_id = $1 WHERE id = $2", specID, id,
			)
			if err != nil {
				return nil, err
			}
		}

		return r.selectOne(ctx, tx, id)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateSlug)
	}
	return created, nil
}

func (r *repo) Get(ctx context.Context, id uuid.UUID) (*Agent, error) {
	a, err := r.selectOne(ctx, r.db, id)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateSlug)
	}
	return a, nil
}

func (r *repo) List(ctx context.Context, filters Filters, window pagination.Window) (*pagination.Result[Agent], error) {
	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count agents: %w", err)
	}

	windowSQL, windowArgs := qb.BuildWindow(window.Limit, window.Offset)
	agents, err := repository.QueryMany(ctx, r.db, windowSQL, windowArgs, scanAgent)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}

	result := pagination.NewResult(agents, total, window)
	return &result, nil
}

func (r *repo) Update(ctx context.Context, a *Agent) (*Agent, error) {
	docs, err := encodeDocs(a.ModelConfig, a.ToolsConfig, a.Instructions, a.Features, a.Config)
	if err != nil {
		return nil, err
	}

	const stmt = `
		UPDATE dynamic_agents SET
			description = $1, role = $2,
			model_config = $3, tools_config = $4, instructions = $5, features = $6,
			config = $7, config_hash = $8, status = $9,
			updated_at = NOW()
		WHERE id = $10`

	updated, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Agent, error) {
		err := repository.ExecExpectOne(ctx, tx, stmt,
			a.Description, a.Role, docs[0], docs[1], docs[2], docs[3],
			docs[4], a.ConfigHash, string(a.Status), a.ID,
		)
		if err != nil {
			return nil, err
		}
		return r.selectOne(ctx, tx, a.ID)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateSlug)
	}
	return updated, nil
}

func (r *repo) SetStatus(ctx context.Context, id uuid.UUID, status Status) (*Agent, error) {
	updated, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Agent, error) {
		err := repository.ExecExpectOne(ctx, tx,
			"UPDATE dynamic_agents SET status = $1, updated_at = NOW() WHERE id = $2",
			string(status), id,
		)
		if err != nil {
			return nil, err
		}
		return r.selectOne(ctx, tx, id)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateSlug)
	}
	return updated, nil
}

// RecordUsage folds u into the counters with a single statement, so
// concurrent reports against one row never lose updates.
func (r *repo) RecordUsage(ctx context.Context, id uuid.UUID, u Usage) (*Agent, error) {
	const stmt = `
		UPDATE dynamic_agents SET
			total_sessions = total_sessions + $2,
			total_runs = total_runs + 1,
			successful_runs = successful_runs + CASE WHEN $3::boolean THEN 1 ELSE 0 END,
			avg_response_time_ms = (avg_response_time_ms * total_runs + $4::double precision) / (total_runs + 1),
			success_rate = (successful_runs + CASE WHEN $3::boolean THEN 1 ELSE 0 END)::double precision / (total_runs + 1),
			last_used_at = NOW(),
			updated_at = NOW()
		WHERE id = $1`

	if err := repository.ExecExpectOne(ctx, r.db, stmt, id, u.SessionDelta, u.Success, u.LatencyMs); err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateSlug)
	}
	return r.Get(ctx, id)
}
