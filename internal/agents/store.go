package agents

import (
	"context"

	"github.com/JaimeStill/agent-forge/pkg/pagination"
	"github.com/google/uuid"
)

// Store persists agent records. Slug uniqueness among records that are not
// inactive is enforced by the store and reported as ErrDuplicateSlug.
type Store interface {
	// Create inserts a and its specification audit row atomically.
	Create(ctx context.Context, a *Agent, spec *Specification) (*Agent, error)
	Get(ctx context.Context, id uuid.UUID) (*Agent, error)
	List(ctx context.Context, filters Filters, window pagination.Window) (*pagination.Result[Agent], error)
	// Update writes the mutable fields, status, and compiled config of a.
	Update(ctx context.Context, a *Agent) (*Agent, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status) (*Agent, error)
	RecordUsage(ctx context.Context, id uuid.UUID, u Usage) (*Agent, error)
}
