package navigation

import (
	"context"
	"sync"
	"time"

	"resultsdash/domain/core"
	"resultsdash/domain/tabs"
	"resultsdash/internal"
	"resultsdash/internal/errors"
	"resultsdash/ports"
)

const saveTimeout = 5 * time.Second

// SessionDeps are the per-process collaborators shared by every session, plus the per-session map
// and history endpoints.
type SessionDeps struct {
	Tabs     tabs.Config
	Map      ports.MapPort
	Clicks   ports.ClickSource
	History  ports.HistoryPort
	Renderer ports.Renderer
	Data     ports.DataSource
	Filters  ports.FilterRepository
	Logger   *internal.Logger

	// OnChange receives every snapshot after a completed transition. It runs on the session loop.
	OnChange func(id core.SessionID, snap Snapshot)
}

// Session is one browser's dashboard: its own tab tree and controller behind an event loop. Its
// methods may be called from any goroutine.
type Session struct {
	ID core.SessionID

	loop    *Loop
	ctrl    *Controller
	clicks  ports.ClickSource
	filters ports.FilterRepository
	log     *internal.Logger

	// saved is the last filter handed to persist. It is only touched on the loop.
	saved string

	// pending holds the newest unwritten filter; wake signals persist that it changed
	mu         sync.Mutex
	pending    string
	hasPending bool
	wake       chan struct{}

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewSession builds a fresh tree from the tab configuration and starts the session loop
func NewSession(id core.SessionID, d SessionDeps) (*Session, error) {
	tree, err := tabs.Build(d.Tabs)
	if err != nil {
		return nil, errors.Wrap(err, "building tab tree")
	}
	logger := d.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}

	loop := NewLoop(64)
	ctrl, err := NewController(Deps{
		Tree:      tree,
		Map:       d.Map,
		History:   d.History,
		Renderer:  d.Renderer,
		Data:      d.Data,
		Scheduler: loop,
		Logger:    logger,
	})
	if err != nil {
		loop.Close()
		return nil, err
	}

	s := &Session{
		ID:      id,
		loop:    loop,
		ctrl:    ctrl,
		clicks:  d.Clicks,
		filters: d.Filters,
		log:     logger.With("session"),
		wake:    make(chan struct{}, 1),
	}

	ctrl.SetListener(func(snap Snapshot) {
		if snap.Filter != s.saved {
			s.saved = snap.Filter
			s.queueSave(snap.Filter)
		}
		if d.OnChange != nil {
			d.OnChange(id, snap)
		}
	})
	if d.Clicks != nil {
		ctrl.Attach(d.Clicks)
	}

	s.wg.Add(1)
	go s.persist()
	return s, nil
}

// queueSave records filter as the one to persist next without waiting on the store. A filter still
// waiting to be written is replaced.
func (s *Session) queueSave(filter string) {
	s.mu.Lock()
	s.pending = filter
	s.hasPending = true
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Session) takeSave() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	filter, ok := s.pending, s.hasPending
	s.pending, s.hasPending = "", false
	return filter, ok
}

// persist writes the latest filter whenever it changes. A slow store only delays the write; the
// session loop never waits for it.
func (s *Session) persist() {
	defer s.wg.Done()
	for range s.wake {
		filter, ok := s.takeSave()
		if !ok || s.filters == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		var err error
		if filter == "" {
			err = s.filters.DeleteFilter(ctx, s.ID)
		} else {
			err = s.filters.SaveFilter(ctx, s.ID, filter)
		}
		cancel()
		if err != nil {
			s.log.Warn("persisting filter for %s: %v", s.ID, err)
		}
	}
}

// Start restores the session's persisted filter and applies the initial URL
func (s *Session) Start(ctx context.Context, initialURL string) (Snapshot, error) {
	persisted := ""
	if s.filters != nil {
		filter, ok, err := s.filters.LoadFilter(ctx, s.ID)
		if err != nil {
			s.log.Warn("loading filter for %s: %v", s.ID, err)
		} else if ok {
			persisted = filter
		}
	}
	return s.do(ctx, func(c *Controller) {
		s.saved = persisted
		c.Start(initialURL, persisted)
	})
}

// Navigate dispatches a URL change (including back/forward) as a fresh route event
func (s *Session) Navigate(ctx context.Context, url string) (Snapshot, bool, error) {
	matched := false
	snap, err := s.do(ctx, func(c *Controller) {
		matched = c.Navigate(url)
	})
	return snap, matched, err
}

// Click delivers a map feature click through the session's click source. Emit posts the click to
// the loop before the snapshot is requested, so the snapshot includes it. When the constituency list
// is still loading the selection lands later and arrives as a state event.
func (s *Session) Click(ctx context.Context, name string) (Snapshot, error) {
	if emitter, ok := s.clicks.(interface{ Emit(name string) }); ok {
		emitter.Emit(name)
		return s.State(ctx)
	}
	return s.do(ctx, func(c *Controller) { c.MapClick(name) })
}

// ClearFilter runs the clear filter action
func (s *Session) ClearFilter(ctx context.Context) (Snapshot, error) {
	return s.do(ctx, func(c *Controller) { c.ClearFilter() })
}

// SelectSubTab runs a party trends sub-tab click
func (s *Session) SelectSubTab(ctx context.Context, link string) (Snapshot, bool, error) {
	found := false
	snap, err := s.do(ctx, func(c *Controller) {
		found = c.SelectSubTab(link)
	})
	return snap, found, err
}

// State returns the current snapshot
func (s *Session) State(ctx context.Context) (Snapshot, error) {
	return s.do(ctx, func(*Controller) {})
}

func (s *Session) do(ctx context.Context, fn func(c *Controller)) (Snapshot, error) {
	var snap Snapshot
	err := s.loop.Do(ctx, func() {
		fn(s.ctrl)
		snap = s.ctrl.Snapshot()
	})
	if err != nil {
		return Snapshot{}, errors.Wrapf(err, "session %s", s.ID)
	}
	return snap, nil
}

// Close stops the loop and waits for pending filter writes
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.loop.Close()
		close(s.wake)
		s.wg.Wait()
	})
}
