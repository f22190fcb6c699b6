package agents

import (
	"net/url"
	"strings"

	"github.com/JaimeStill/agent-forge/pkg/query"
)

// Filters contains optional filtering criteria for agent queries.
type Filters struct {
	Specialization *string
	Status         *string
	Search         *string
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	return Filters{
		Specialization: param(values, "specialization"),
		Status:         param(values, "status"),
		Search:         param(values, "search"),
	}
}

func param(values url.Values, key string) *string {
	if v := values.Get(key); v != "" {
		return &v
	}
	return nil
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Specialization", f.Specialization).
		WhereEquals("Status", f.Status).
		WhereSearch(f.Search, "Name", "Description")
}

// Matches reports whether a satisfies every set filter.
func (f Filters) Matches(a *Agent) bool {
	if f.Specialization != nil && a.Specialization != *f.Specialization {
		return false
	}
	if f.Status != nil && string(a.Status) != *f.Status {
		return false
	}
	if f.Search != nil && *f.Search != "" {
		s := strings.ToLower(*f.Search)
		if !strings.Contains(strings.ToLower(a.Name), s) && !strings.Contains(strings.ToLower(a.Description), s) {
			return false
		}
	}
	return true
}
