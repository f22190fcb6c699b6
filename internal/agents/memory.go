package agents

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/JaimeStill/agent-forge/pkg/pagination"
	"github.com/google/uuid"
)

type memoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Agent
	specs   map[uuid.UUID]*Specification
	now     func() time.Time
}

// NewMemoryStore returns a Store held in process memory.
func NewMemoryStore() Store {
	return &memoryStore{
		records: make(map[uuid.UUID]*Agent),
		specs:   make(map[uuid.UUID]*Specification),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// copyAgent deep-copies through JSON so callers never share state with the store.
func copyAgent(a *Agent) (*Agent, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("copy agent: %w", err)
	}
	var out Agent
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("copy agent: %w", err)
	}
	return &out, nil
}

func (s *memoryStore) slugTaken(slug string, except uuid.UUID) bool {
	for id, a := range s.records {
		if id != except && a.Slug == slug && a.Status != StatusInactive {
			return true
		}
	}
	return false
}

func (s *memoryStore) Create(ctx context.Context, a *Agent, spec *Specification) (*Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.slugTaken(a.Slug, uuid.Nil) {
		return nil, ErrDuplicateSlug
	}

	rec, err := copyAgent(a)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec.ID = uuid.New()
	rec.CreatedAt, rec.UpdatedAt = now, now

	if spec != nil {
		audit := *spec
		audit.ID = uuid.New()
		audit.CreatedAgentID = rec.ID
		audit.CreatedAt = now
		s.specs[audit.ID] = &audit
		rec.SpecificationID = &audit.ID
	}

	s.records[rec.ID] = rec
	return copyAgent(rec)
}

func (s *memoryStore) Get(ctx context.Context, id uuid.UUID) (*Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyAgent(rec)
}

func (s *memoryStore) List(ctx context.Context, filters Filters, window pagination.Window) (*pagination.Result[Agent], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*Agent, 0, len(s.records))
	for _, a := range s.records {
		if filters.Matches(a) {
			matched = append(matched, a)
		}
	}
	slices.SortFunc(matched, func(a, b *Agent) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID.String(), b.ID.String()))
	})

	start := min(window.Offset, len(matched))
	end := min(start+window.Limit, len(matched))

	data := make([]Agent, 0, end-start)
	for _, a := range matched[start:end] {
		c, err := copyAgent(a)
		if err != nil {
			return nil, err
		}
		data = append(data, *c)
	}

	result := pagination.NewResult(data, len(matched), window)
	return &result, nil
}

func (s *memoryStore) Update(ctx context.Context, a *Agent) (*Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[a.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if a.Status != StatusInactive && s.slugTaken(rec.Slug, rec.ID) {
		return nil, ErrDuplicateSlug
	}

	next, err := copyAgent(a)
	if err != nil {
		return nil, err
	}

	rec.Description = next.Description
	rec.Role = next.Role
	rec.ModelConfig = next.ModelConfig
	rec.ToolsConfig = next.ToolsConfig
	rec.Instructions = next.Instructions
	rec.Features = next.Features
	rec.Config = next.Config
	rec.ConfigHash = next.ConfigHash
	rec.Status = next.Status
	rec.UpdatedAt = s.now()

	return copyAgent(rec)
}

func (s *memoryStore) SetStatus(ctx context.Context, id uuid.UUID, status Status) (*Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	if status != StatusInactive && rec.Status == StatusInactive && s.slugTaken(rec.Slug, id) {
		return nil, ErrDuplicateSlug
	}

	rec.Status = status
	rec.UpdatedAt = s.now()
	return copyAgent(rec)
}

func (s *memoryStore) RecordUsage(ctx context.Context, id uuid.UUID, u Usage) (*Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}

	rec.Metrics.Apply(u, s.now())
	return copyAgent(rec)
}
