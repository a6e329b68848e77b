package ui

import (
	"context"
	"sync"
	"time"

	"resultsdash/domain/core"
	"resultsdash/domain/tabs"
	"resultsdash/internal"
	"resultsdash/internal/api"
	"resultsdash/internal/navigation"
	"resultsdash/ports"
)

// SessionIdleTimeout is how long a session without requests is kept
const SessionIdleTimeout = 30 * time.Minute

// Registry owns the live dashboard sessions. Each session gets its own tab tree, controller and map
// and history bridges; the renderer, data source and filter store are shared.
type Registry struct {
	tabs     tabs.Config
	renderer ports.Renderer
	data     ports.DataSource
	filters  ports.FilterRepository
	hub      *api.SSEHub
	log      *internal.Logger

	mu       sync.Mutex
	sessions map[core.SessionID]*liveSession
}

type liveSession struct {
	*navigation.Session
	lastSeen time.Time
}

// NewRegistry creates an empty registry
func NewRegistry(tabCfg tabs.Config, renderer ports.Renderer, data ports.DataSource, filters ports.FilterRepository, hub *api.SSEHub, logger *internal.Logger) *Registry {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Registry{
		tabs:     tabCfg,
		renderer: renderer,
		data:     data,
		filters:  filters,
		hub:      hub,
		log:      logger.With("sessions"),
		sessions: make(map[core.SessionID]*liveSession),
	}
}

// Open returns the session for id, creating it when needed. created reports whether the session is
// new and still has to be started.
func (r *Registry) Open(id core.SessionID) (s *navigation.Session, created bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if live, ok := r.sessions[id]; ok {
		live.lastSeen = time.Now()
		return live.Session, false, nil
	}

	bridge := api.NewMapBridge(r.hub, id.String())
	session, err := navigation.NewSession(id, navigation.SessionDeps{
		Tabs:     r.tabs,
		Map:      bridge,
		Clicks:   bridge,
		History:  api.NewHistoryBridge(r.hub, id.String()),
		Renderer: r.renderer,
		Data:     r.data,
		Filters:  r.filters,
		Logger:   r.log,
		OnChange: func(id core.SessionID, snap navigation.Snapshot) {
			r.hub.PublishState(id.String(), snap)
		},
	})
	if err != nil {
		return nil, false, err
	}
	r.sessions[id] = &liveSession{Session: session, lastSeen: time.Now()}
	r.log.Debug("opened session %s (%d live)", id, len(r.sessions))
	return session, true, nil
}

// Get returns a live session
func (r *Registry) Get(id core.SessionID) (*navigation.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	live, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	live.lastSeen = time.Now()
	return live.Session, true
}

// Len reports the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than maxIdle that have no open event stream
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	var idle []*liveSession
	for id, live := range r.sessions {
		if live.lastSeen.Before(cutoff) && r.hub.GetClientCount(id.String()) == 0 {
			idle = append(idle, live)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, live := range idle {
		live.Close()
	}
	if len(idle) > 0 {
		r.log.Info("closed %d idle sessions", len(idle))
	}
	return len(idle)
}

// RunJanitor sweeps idle sessions every interval until ctx is done
func (r *Registry) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(SessionIdleTimeout)
		}
	}
}

// Close closes every session
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[core.SessionID]*liveSession)
	r.mu.Unlock()

	for _, live := range sessions {
		live.Close()
	}
}
