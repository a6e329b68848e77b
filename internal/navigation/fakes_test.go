package navigation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"resultsdash/domain/results"
	"resultsdash/domain/tabs"
	"resultsdash/internal"
	"resultsdash/ports"

	"github.com/stretchr/testify/require"
)

// inlineScheduler runs blocking work and continuations immediately
type inlineScheduler struct{}

func (inlineScheduler) Go(task func()) { task() }
func (inlineScheduler) Post(fn func()) { fn() }

// queuedScheduler runs blocking work immediately but holds continuations until flush, so a test
// can navigate while a lookup is outstanding.
type queuedScheduler struct {
	pending []func()
}

func (s *queuedScheduler) Go(task func()) { task() }
func (s *queuedScheduler) Post(fn func()) { s.pending = append(s.pending, fn) }

// step runs only the continuations queued so far
func (s *queuedScheduler) step() {
	batch := s.pending
	s.pending = nil
	for _, fn := range batch {
		fn()
	}
}

func (s *queuedScheduler) flush() {
	for len(s.pending) > 0 {
		fn := s.pending[0]
		s.pending = s.pending[1:]
		fn()
	}
}

type fakeMap struct {
	mu    sync.Mutex
	calls []string
}

func (m *fakeMap) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *fakeMap) Reset()                         { m.record("reset") }
func (m *fakeMap) ResetColours()                  { m.record("resetColours") }
func (m *fakeMap) MapLeadingConstituencyResults() { m.record("mapLeadingConstituencyResults") }
func (m *fakeMap) MapStrengthOfParty(slug string) { m.record("mapStrengthOfParty:" + slug) }
func (m *fakeMap) SelectBySlug(slug string)       { m.record("selectBySlug:" + slug) }

func (m *fakeMap) count(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (m *fakeMap) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

type fakeHistory struct {
	mu     sync.Mutex
	pushed []string
	// onPush, when set, runs inside PushState
	onPush func(url string)
}

func (h *fakeHistory) PushState(url string) {
	h.mu.Lock()
	h.pushed = append(h.pushed, url)
	h.mu.Unlock()
	if h.onPush != nil {
		h.onPush(url)
	}
}

func (h *fakeHistory) last() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.pushed) == 0 {
		return ""
	}
	return h.pushed[len(h.pushed)-1]
}

type fakeClicks struct {
	callbacks []func(string)
}

func (f *fakeClicks) OnClick(cb func(string)) { f.callbacks = append(f.callbacks, cb) }

func (f *fakeClicks) Emit(name string) {
	for _, cb := range f.callbacks {
		cb(name)
	}
}

// textRenderer is a deterministic stand-in for the HTML renderer
type textRenderer struct{}

func (textRenderer) RenderNav(items []tabs.NavItem) (string, error) {
	return navText(items), nil
}

func (textRenderer) RenderSubNav(items []tabs.NavItem) (string, error) {
	return "sub[" + navText(items) + "]", nil
}

func navText(items []tabs.NavItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.Href
		if it.Selected {
			parts[i] += "*"
		}
	}
	return strings.Join(parts, " ")
}

func (textRenderer) RenderPartyList(parties []results.Party) (string, error) {
	var b strings.Builder
	for _, p := range parties {
		fmt.Fprintf(&b, "(%s %t)", p.Slug, p.Selected)
	}
	return b.String(), nil
}

func (textRenderer) RenderConstituencyList(list []results.Constituency, search string) (string, error) {
	return fmt.Sprintf("search=%q of %d", search, len(list)), nil
}

func (textRenderer) RenderIssues(issues []results.Issue) (string, error) {
	var b strings.Builder
	for _, is := range issues {
		fmt.Fprintf(&b, "[%s %d]", is.Slug, is.Total)
	}
	return b.String(), nil
}

func (textRenderer) RenderResults(view ports.ResultsView) (string, error) {
	return fmt.Sprintf("pie(%s:%d)", view.Slug, len(view.Slices)), nil
}

func (textRenderer) RenderCountryTabs(countries []results.Country) (string, error) {
	var b strings.Builder
	for _, c := range countries {
		fmt.Fprintf(&b, "(%s %t)", c.Slug, c.Selected)
	}
	return b.String(), nil
}

func (textRenderer) RenderPane(id string, visible bool, body string) (string, error) {
	if !visible {
		return fmt.Sprintf("<%s hidden>%s</%s>", id, body, id), nil
	}
	return fmt.Sprintf("<%s>%s</%s>", id, body, id), nil
}

// fakeData serves fixed payloads and counts requests
type fakeData struct {
	mu       sync.Mutex
	requests []string
	failing  map[string]bool
}

func (d *fakeData) hit(what string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests = append(d.requests, what)
	if d.failing[what] {
		return fmt.Errorf("%s: connection refused", what)
	}
	return nil
}

func (d *fakeData) count(what string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, r := range d.requests {
		if r == what {
			n++
		}
	}
	return n
}

func (d *fakeData) Constituencies(ctx context.Context) ([]results.Constituency, error) {
	if err := d.hit("constituencies"); err != nil {
		return nil, err
	}
	return []results.Constituency{
		{Name: "Aberdeen South", Slug: "aberdeen-south", Country: "scotland"},
		{Name: "Bristol West", Slug: "bristol-west", Country: "england"},
		{Name: "Cardiff Central", Slug: "cardiff-central", Country: "wales"},
	}, nil
}

func (d *fakeData) Parties(ctx context.Context) ([]results.Party, error) {
	if err := d.hit("parties"); err != nil {
		return nil, err
	}
	return []results.Party{
		{Name: "Conservative", Slug: "conservative"},
		{Name: "Labour", Slug: "labour"},
		{Name: "Green", Slug: "green"},
	}, nil
}

func (d *fakeData) Issues(ctx context.Context) ([]results.Issue, error) {
	if err := d.hit("issues"); err != nil {
		return nil, err
	}
	return []results.Issue{
		{Name: "Housing", Slug: "housing", Results: []results.PartyResult{{Party: "Labour", Slug: "labour", Votes: 40}}},
		{Name: "Economy", Slug: "economy", Results: []results.PartyResult{{Party: "Labour", Slug: "labour", Votes: 90}}},
	}, nil
}

func (d *fakeData) Countries(ctx context.Context) ([]results.Country, error) {
	if err := d.hit("countries"); err != nil {
		return nil, err
	}
	return []results.Country{
		{Name: "England", Slug: "england"},
		{Name: "Northern Ireland", Slug: "northern-ireland"},
		{Name: "Wales", Slug: "wales"},
	}, nil
}

func (d *fakeData) Results(ctx context.Context, resource, slug string) (*results.Results, error) {
	if err := d.hit(resource + "/" + slug); err != nil {
		return nil, err
	}
	return &results.Results{
		Name: slug,
		Slug: slug,
		Results: []results.PartyResult{
			{Party: "Labour", Slug: "labour", Votes: 300},
			{Party: "Green", Slug: "green", Votes: 100},
		},
	}, nil
}

type harness struct {
	ctrl    *Controller
	maps    *fakeMap
	history *fakeHistory
	data    *fakeData
	clicks  *fakeClicks
}

func newHarness(t *testing.T, sched Scheduler) *harness {
	t.Helper()
	tree, err := tabs.Build(tabs.DefaultConfig())
	require.NoError(t, err)

	h := &harness{
		maps:    &fakeMap{},
		history: &fakeHistory{},
		data:    &fakeData{failing: map[string]bool{}},
		clicks:  &fakeClicks{},
	}
	h.ctrl, err = NewController(Deps{
		Tree:      tree,
		Map:       h.maps,
		History:   h.history,
		Renderer:  textRenderer{},
		Data:      h.data,
		Scheduler: sched,
		Logger:    internal.NewLogger(internal.LogLevelError),
	})
	require.NoError(t, err)
	h.ctrl.Attach(h.clicks)
	return h
}

func (h *harness) trendsChildrenSelected() []string {
	var links []string
	for _, c := range h.ctrl.Tree().Top(tabs.KindPartyTrends).Children {
		if c.Selected {
			links = append(links, c.Link)
		}
	}
	return links
}

func (h *harness) selectedParties() []string {
	var slugs []string
	for _, p := range h.ctrl.Trends().Parties() {
		if p.Selected {
			slugs = append(slugs, p.Slug)
		}
	}
	return slugs
}
