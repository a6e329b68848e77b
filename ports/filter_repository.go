package ports

import (
	"context"

	"resultsdash/domain/core"
)

// FilterRepository persists the sticky filter of a dashboard session
type FilterRepository interface {
	// LoadFilter returns the stored filter; ok is false when none is stored
	LoadFilter(ctx context.Context, sessionID core.SessionID) (filter string, ok bool, err error)

	// SaveFilter stores or replaces the session's filter
	SaveFilter(ctx context.Context, sessionID core.SessionID, filter string) error

	// DeleteFilter forgets the session's filter; deleting a missing filter is not an error
	DeleteFilter(ctx context.Context, sessionID core.SessionID) error
}
