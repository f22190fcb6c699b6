package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/JaimeStill/agent-forge/internal/compiler"
	"github.com/JaimeStill/agent-forge/internal/specs"
	"github.com/JaimeStill/agent-forge/pkg/decode"
	"github.com/JaimeStill/agent-forge/pkg/pagination"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// System defines the dynamic agent registry.
type System interface {
	Create(ctx context.Context, v specs.Validated) (*Agent, error)
	Get(ctx context.Context, id uuid.UUID) (*Agent, error)
	List(ctx context.Context, filters Filters, window pagination.Window) (*pagination.Result[Agent], error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Agent, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	ResolveLiveInstance(ctx context.Context, id uuid.UUID) (*Handle, error)
	RecordUsage(ctx context.Context, id uuid.UUID, u Usage) (*Agent, error)
	Chat(ctx context.Context, id uuid.UUID, cmd ChatCommand) (*ChatResult, error)
	Evict(id uuid.UUID)
}

// Handle is a cached live instance and the config hash it was built from.
type Handle struct {
	AgentID  uuid.UUID
	Hash     string
	Config   *compiler.Config
	Instance Instance
	BuiltAt  time.Time
}

type registry struct {
	store     Store
	validator *specs.Validator
	compiler  *compiler.Compiler
	builder   Builder
	logger    *slog.Logger

	pagination pagination.Config

	locks  *keyedMutex
	builds singleflight.Group

	mu    sync.RWMutex
	cache map[uuid.UUID]*Handle
}

// errAbandoned marks a shared build whose initiating caller was cancelled.
var errAbandoned = errors.New("agent build abandoned")

// Option configures the registry.
type Option func(*registry)

// WithPagination sets the bounds applied to List windows.
func WithPagination(cfg pagination.Config) Option {
	return func(r *registry) { r.pagination = cfg }
}

// New creates the registry over store.
func New(store Store, validator *specs.Validator, comp *compiler.Compiler, builder Builder, logger *slog.Logger, opts ...Option) System {
	r := &registry{
		store:      store,
		validator:  validator,
		compiler:   comp,
		builder:    builder,
		logger:     logger.With("system", "agents"),
		pagination: pagination.DefaultConfig(),
		locks:      newKeyedMutex(),
		cache:      make(map[uuid.UUID]*Handle),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *registry) Create(ctx context.Context, v specs.Validated) (*Agent, error) {
	if !v.Result.Valid {
		return nil, &ValidationError{Result: v.Result}
	}

	cfg, err := r.compiler.Compile(v)
	if err != nil {
		return nil, err
	}
	hash, err := cfg.Hash()
	if err != nil {
		return nil, fmt.Errorf("hash config: %w", err)
	}

	raw, err := specs.Canonical(v.Document)
	if err != nil {
		return nil, err
	}

	doc := v.Document
	a := &Agent{
		Name:           cfg.Name,
		Slug:           cfg.Slug,
		Status:         StatusActive,
		Description:    cfg.Description,
		Role:           cfg.Role,
		Specialization: cfg.Specialization,
		ModelConfig:    doc.ModelConfig,
		ToolsConfig:    doc.ToolsConfig,
		Instructions:   doc.Instructions,
		Features:       doc.Features,
		KnowledgeBase:  doc.KnowledgeBase,
		Config:         cfg,
		ConfigHash:     hash,
	}
	if a.ToolsConfig == nil {
		a.ToolsConfig = []specs.ToolConfig{}
	}

	audit := &Specification{
		Specification: raw,
		Status:        "accepted",
		Score:         v.Result.Score,
		Warnings:      v.Result.Warnings,
	}

	created, err := r.store.Create(ctx, a, audit)
	if err != nil {
		return nil, err
	}

	r.logger.Info("agent created", "id", created.ID, "slug", created.Slug, "score", v.Result.Score)
	return created, nil
}

func (r *registry) Get(ctx context.Context, id uuid.UUID) (*Agent, error) {
	return r.store.Get(ctx, id)
}

func (r *registry) List(ctx context.Context, filters Filters, window pagination.Window) (*pagination.Result[Agent], error) {
	window.Normalize(r.pagination)
	return r.store.List(ctx, filters, window)
}

func (r *registry) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Agent, error) {
	if cmd.Status != nil && *cmd.Status != StatusActive && *cmd.Status != StatusInactive {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *cmd.Status)
	}

	unlock, err := r.locks.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	a, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if cmd.changesSpecification() {
		if err := r.revise(a, cmd); err != nil {
			return nil, err
		}
	}
	if cmd.Status != nil {
		a.Status = *cmd.Status
	}

	updated, err := r.store.Update(ctx, a)
	if err != nil {
		return nil, err
	}

	r.Evict(id)
	r.logger.Info("agent updated", "id", id, "status", updated.Status)
	return updated, nil
}

// revise applies the specification changes in cmd to a, re-validating and
// re-compiling the result. a is untouched on failure.
func (r *registry) revise(a *Agent, cmd UpdateCommand) error {
	raw, err := specs.Canonical(a.Document())
	if err != nil {
		return err
	}

	m, err := decode.ToMap(raw)
	if err != nil {
		return fmt.Errorf("stored specification: %w", err)
	}

	ac, _ := m["agent_config"].(map[string]any)
	if cmd.Description != nil {
		ac["description"] = *cmd.Description
	}
	if cmd.Role != nil {
		ac["role"] = *cmd.Role
	}

	sections := []struct {
		key string
		raw json.RawMessage
	}{
		{"model_config", cmd.ModelConfig},
		{"tools_config", cmd.ToolsConfig},
		{"instructions", cmd.Instructions},
		{"features", cmd.Features},
	}
	for _, s := range sections {
		if len(s.raw) == 0 {
			continue
		}
		var v any
		if err := json.Unmarshal(s.raw, &v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidSpecification, s.key, err)
		}
		m[s.key] = v
	}

	doc := specs.Decode(m)
	v := r.validator.Accept(doc)
	if !v.Result.Valid {
		return &ValidationError{Result: v.Result}
	}

	cfg, err := r.compiler.Compile(v)
	if err != nil {
		return err
	}
	hash, err := cfg.Hash()
	if err != nil {
		return fmt.Errorf("hash config: %w", err)
	}

	a.Description = doc.AgentConfig.Description
	a.Role = doc.AgentConfig.Role
	a.ModelConfig = doc.ModelConfig
	a.ToolsConfig = doc.ToolsConfig
	if a.ToolsConfig == nil {
		a.ToolsConfig = []specs.ToolConfig{}
	}
	a.Instructions = doc.Instructions
	a.Features = doc.Features
	a.Config = cfg
	a.ConfigHash = hash
	return nil
}

func (r *registry) SoftDelete(ctx context.Context, id uuid.UUID) error {
	unlock, err := r.locks.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := r.store.SetStatus(ctx, id, StatusInactive); err != nil {
		return err
	}

	r.Evict(id)
	r.logger.Info("agent deactivated", "id", id)
	return nil
}

func (r *registry) Evict(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, id)
}

func (r *registry) cached(id uuid.UUID, hash string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.cache[id]
	if !ok || h.Hash != hash {
		return nil, false
	}
	return h, true
}

// ResolveLiveInstance returns the cached instance for id when its hash
// matches the stored config, building a new one otherwise. Concurrent
// resolvers of the same id and hash share a single build.
func (r *registry) ResolveLiveInstance(ctx context.Context, id uuid.UUID) (*Handle, error) {
	for {
		a, err := r.snapshot(ctx, id)
		if err != nil {
			return nil, err
		}
		if a.Status == StatusInactive {
			return nil, fmt.Errorf("%w: %s", ErrInactive, id)
		}
		if h, ok := r.cached(id, a.ConfigHash); ok {
			return h, nil
		}

		ch := r.builds.DoChan(id.String()+":"+a.ConfigHash, func() (any, error) {
			if h, ok := r.cached(id, a.ConfigHash); ok {
				return h, nil
			}
			h, err := r.build(ctx, a)
			if err != nil && ctx.Err() != nil {
				return nil, errAbandoned
			}
			return h, err
		})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if errors.Is(res.Err, errAbandoned) {
				// the caller that started the flight went away; start another
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				continue
			}
			if res.Err != nil {
				return nil, res.Err
			}
			return res.Val.(*Handle), nil
		}
	}
}

func (r *registry) snapshot(ctx context.Context, id uuid.UUID) (*Agent, error) {
	unlock, err := r.locks.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return r.store.Get(ctx, id)
}

func (r *registry) build(ctx context.Context, a *Agent) (*Handle, error) {
	start := time.Now()
	inst, buildErr := r.builder.Build(ctx, a.Config)
	if buildErr != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	unlock, err := r.locks.Lock(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := r.store.Get(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	if buildErr != nil {
		if current.ConfigHash == a.ConfigHash && current.Status == StatusActive {
			if _, err := r.store.SetStatus(ctx, a.ID, StatusError); err != nil {
				r.logger.Error("mark agent error failed", "id", a.ID, "error", err)
			}
		}
		r.logger.Warn("agent build failed", "id", a.ID, "error", buildErr)
		return nil, fmt.Errorf("%w: %w", ErrBuild, buildErr)
	}

	h := &Handle{
		AgentID:  a.ID,
		Hash:     a.ConfigHash,
		Config:   a.Config,
		Instance: inst,
		BuiltAt:  time.Now(),
	}

	if current.ConfigHash != a.ConfigHash {
		// updated while building; serve this caller but do not cache
		return h, nil
	}

	if current.Status == StatusError {
		if _, err := r.store.SetStatus(ctx, a.ID, StatusActive); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	r.cache[a.ID] = h
	r.mu.Unlock()

	r.logger.Info("agent built", "id", a.ID, "slug", a.Slug, "duration", time.Since(start))
	return h, nil
}

func (r *registry) RecordUsage(ctx context.Context, id uuid.UUID, u Usage) (*Agent, error) {
	if u.SessionDelta < 0 || u.LatencyMs < 0 {
		return nil, fmt.Errorf("%w: session_delta and latency_ms must be non-negative", ErrInvalidUsage)
	}

	unlock, err := r.locks.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return r.store.RecordUsage(ctx, id, u)
}

func (r *registry) Chat(ctx context.Context, id uuid.UUID, cmd ChatCommand) (*ChatResult, error) {
	if strings.TrimSpace(cmd.Prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	h, err := r.ResolveLiveInstance(ctx, id)
	if err != nil {
		return nil, err
	}

	usage := Usage{}
	session := cmd.SessionID
	if session == "" {
		session = uuid.NewString()
		usage.SessionDelta = 1
	}

	start := time.Now()
	content, chatErr := h.Instance.Chat(ctx, cmd.Prompt, cmd.Options)
	latency := float64(time.Since(start).Microseconds()) / 1000

	usage.LatencyMs = latency
	usage.Success = chatErr == nil
	if _, err := r.RecordUsage(context.WithoutCancel(ctx), id, usage); err != nil {
		r.logger.Error("record usage failed", "id", id, "error", err)
	}

	if chatErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecution, chatErr)
	}

	return &ChatResult{
		AgentID:   id,
		SessionID: session,
		Content:   content,
		LatencyMs: latency,
	}, nil
}
