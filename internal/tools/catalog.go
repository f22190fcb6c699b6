package tools

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Store persists descriptors and their activation state.
type Store interface {
	List(ctx context.Context) ([]Descriptor, error)
	SetActive(ctx context.Context, name string, active bool) error
}

// Catalog is the name-keyed set of tool descriptors. Lookups are safe for
// concurrent use and never block on each other.
type Catalog struct {
	mu     sync.RWMutex
	byName map[string]Descriptor
	store  Store
	logger *slog.Logger
}

// New creates an empty catalog. store may be nil, in which case activation
// changes are held in memory only.
func New(logger *slog.Logger, store Store) *Catalog {
	return &Catalog{
		byName: make(map[string]Descriptor),
		store:  store,
		logger: logger.With("system", "tools"),
	}
}

// Register adds or replaces descriptors by name. Invalid descriptors are
// logged and skipped. It returns the number registered.
func (c *Catalog) Register(descs ...Descriptor) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, d := range descs {
		if err := d.normalize(); err != nil {
			c.logger.Warn("tool descriptor skipped", "name", d.Name, "error", err)
			continue
		}
		c.byName[d.Name] = d
		n++
	}
	return n
}

// Load registers every descriptor held by the store, overriding seeded entries.
func (c *Catalog) Load(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	descs, err := c.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load tools: %w", err)
	}

	n := c.Register(descs...)
	c.logger.Info("tool catalog loaded", "persisted", n, "total", c.Len())
	return nil
}

// Lookup returns the descriptor registered under name.
func (c *Catalog) Lookup(name string) (Descriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.byName[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return d, nil
}

// ListActive returns active descriptors sorted by name.
func (c *Catalog) ListActive() []Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Descriptor, 0, len(c.byName))
	for _, d := range c.byName {
		if d.IsActive {
			out = append(out, d)
		}
	}

	slices.SortFunc(out, func(a, b Descriptor) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// Len returns the number of registered descriptors, active or not.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byName)
}

// SetActive toggles a descriptor's availability, persisting the change first
// when a store is configured.
func (c *Catalog) SetActive(ctx context.Context, name string, active bool) (Descriptor, error) {
	if _, err := c.Lookup(name); err != nil {
		return Descriptor{}, err
	}

	if c.store != nil {
		if err := c.store.SetActive(ctx, name, active); err != nil {
			return Descriptor{}, fmt.Errorf("persist tool %s: %w", name, err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	d := c.byName[name]
	d.IsActive = active
	c.byName[name] = d

	c.logger.Info("tool activation changed", "name", name, "active", active)
	return d, nil
}
