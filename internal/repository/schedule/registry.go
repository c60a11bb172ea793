// Package schedule tracks the yearly schedule partitions known to exist.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/kailas-cloud/mediadex/internal/db"
	"github.com/kailas-cloud/mediadex/internal/metrics"
	"github.com/kailas-cloud/mediadex/internal/schema"
)

// store is the consumer interface for partition management (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	ListIndexes(ctx context.Context) ([]string, error)
}

// Registry caches which partitions exist so each is created at most once
// per process. It is owned by the indexing pipeline and safe for
// concurrent use.
type Registry struct {
	store store
	names schema.ScheduleNames

	mu    sync.Mutex
	known map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry(s store, names schema.ScheduleNames) *Registry {
	return &Registry{store: s, names: names, known: map[string]struct{}{}}
}

// Load seeds the registry with the partitions the store already has and
// returns them sorted.
func (r *Registry) Load(ctx context.Context) ([]string, error) {
	all, err := r.store.ListIndexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	found := r.names.Filter(all)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range found {
		r.known[name] = struct{}{}
	}
	return found, nil
}

// Ensure creates every partition in names that is not yet known and returns
// the ones it created. A partition created concurrently by another process
// counts as known.
func (r *Registry) Ensure(ctx context.Context, names []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var created []string
	for _, name := range names {
		if _, ok := r.known[name]; ok {
			continue
		}
		err := r.store.CreateIndex(ctx, schema.Content(name))
		switch {
		case err == nil:
			created = append(created, name)
			metrics.PartitionsCreatedTotal.Inc()
		case errors.Is(err, db.ErrIndexExists):
		default:
			return created, fmt.Errorf("create partition %s: %w", name, err)
		}
		r.known[name] = struct{}{}
	}
	return created, nil
}

// Known returns the known partitions sorted.
func (r *Registry) Known() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.known))
	for name := range r.known {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
