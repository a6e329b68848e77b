// Package memory holds sticky filters in process memory. Filters survive page reloads but not a
// restart.
package memory

import (
	"context"
	"sync"

	"resultsdash/domain/core"
	"resultsdash/ports"
)

type FilterRepository struct {
	mu      sync.RWMutex
	filters map[core.SessionID]string
}

var _ ports.FilterRepository = (*FilterRepository)(nil)

func NewFilterRepository() *FilterRepository {
	return &FilterRepository{filters: make(map[core.SessionID]string)}
}

func (r *FilterRepository) LoadFilter(_ context.Context, sessionID core.SessionID) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	filter, ok := r.filters[sessionID]
	return filter, ok, nil
}

func (r *FilterRepository) SaveFilter(_ context.Context, sessionID core.SessionID, filter string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[sessionID] = filter
	return nil
}

func (r *FilterRepository) DeleteFilter(_ context.Context, sessionID core.SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.filters, sessionID)
	return nil
}

// Len reports how many sessions have a stored filter
func (r *FilterRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.filters)
}
