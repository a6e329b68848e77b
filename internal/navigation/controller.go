// Package navigation owns the dashboard's selection state. A Controller applies navigation events
// (URL changes, map clicks, UI actions) to the tab tree, drives the map, pushes history entries and
// asks the renderer to redraw. All of its methods must run on the session's event loop.
package navigation

import (
	"context"
	"fmt"
	"strings"

	"resultsdash/domain/results"
	"resultsdash/domain/tabs"
	"resultsdash/internal"
	"resultsdash/internal/errors"
	"resultsdash/internal/route"
	"resultsdash/ports"
)

// Deps are the collaborators a Controller drives
type Deps struct {
	Tree      *tabs.Tree
	Map       ports.MapPort
	History   ports.HistoryPort
	Renderer  ports.Renderer
	Data      ports.DataSource
	Scheduler Scheduler
	Logger    *internal.Logger
}

// location identifies what is on screen. An async result is applied only while the location it
// was requested from is still current.
type location struct {
	path   string
	item   string
	filter string
}

func (l location) String() string {
	s := "#" + l.path
	if l.item != "" {
		s += "/" + l.item
	}
	if l.filter != "" {
		s += "?filter=" + l.filter
	}
	return s
}

// Snapshot is the rendered state of a controller
type Snapshot struct {
	Path    []string          `json:"path"`
	Item    string            `json:"item,omitempty"`
	Filter  string            `json:"filter,omitempty"`
	URL     string            `json:"url"`
	Active  string            `json:"active,omitempty"`
	Visible string            `json:"visible,omitempty"`
	Chrome  string            `json:"chrome"`
	Panes   map[string]string `json:"panes"`
}

// Controller is the navigation state machine of one dashboard session.
type Controller struct {
	tree           *tabs.Tree
	trendsNode     *tabs.Node
	constituencyNd *tabs.Node

	maps     ports.MapPort
	history  ports.HistoryPort
	renderer ports.Renderer
	data     ports.DataSource
	sched    Scheduler
	log      *internal.Logger
	matcher  *route.Matcher

	trends         *TrendsPane
	constituencies *ConstituencyPane
	countries      *CountryPane
	panes          []Pane

	active  *tabs.Node
	item    string
	filter  Filter
	pushing bool
	depth   int
	chrome  string

	constituencyList *Lookup[[]results.Constituency]
	partyList        *Lookup[[]results.Party]
	issueList        *Lookup[[]results.Issue]
	countryList      *Lookup[[]results.Country]

	listener func(Snapshot)
}

// NewController builds a controller over a validated tree. The tree must have a Party Trends and a
// Constituencies tab at the root; a Countries tab is optional. Every pane starts hidden.
func NewController(d Deps) (*Controller, error) {
	if d.Tree == nil || d.Map == nil || d.History == nil || d.Renderer == nil || d.Data == nil || d.Scheduler == nil {
		return nil, errors.ValidationError("navigation controller is missing a collaborator")
	}
	logger := d.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}

	c := &Controller{
		tree:     d.Tree,
		maps:     d.Map,
		history:  d.History,
		renderer: d.Renderer,
		data:     d.Data,
		sched:    d.Scheduler,
		log:      logger.With("navigation"),
	}

	c.trendsNode = d.Tree.Top(tabs.KindPartyTrends)
	c.constituencyNd = d.Tree.Top(tabs.KindConstituencies)
	if c.trendsNode == nil || c.constituencyNd == nil {
		return nil, errors.ValidationError("tab tree needs a party trends and a constituencies tab at the root")
	}

	c.trends = newTrendsPane(c.trendsNode, d.Renderer)
	c.constituencies = newConstituencyPane(d.Renderer)
	c.panes = []Pane{c.trends, c.constituencies}
	if d.Tree.Top(tabs.KindCountries) != nil {
		c.countries = newCountryPane(d.Renderer)
		c.panes = append(c.panes, c.countries)
	}

	c.constituencyList = NewLookup("constituencies", d.Scheduler, d.Data.Constituencies, c.log)
	c.partyList = NewLookup("parties", d.Scheduler, d.Data.Parties, c.log)
	c.issueList = NewLookup("issues", d.Scheduler, d.Data.Issues, c.log)
	c.countryList = NewLookup("countries", d.Scheduler, func(ctx context.Context) ([]results.Country, error) {
		list, err := d.Data.Countries(ctx)
		if err != nil {
			return nil, err
		}
		kept := make([]results.Country, 0, len(list))
		for _, country := range list {
			if country.Slug != "northern-ireland" {
				kept = append(kept, country)
			}
		}
		return kept, nil
	}, c.log)

	c.matcher = route.NewMatcher(logger)
	if err := c.registerRoutes(); err != nil {
		return nil, errors.Wrap(err, "registering navigation routes")
	}

	c.redraw()
	return c, nil
}

// registerRoutes installs the patterns most specific first. The matcher refuses a pattern an
// earlier one already covers, so the party filter must precede the general filter.
func (c *Controller) registerRoutes() error {
	if err := c.matcher.Handle(route.Query("filter="+FilterStrengthOfParties, "party"), c.handlePartyFilter); err != nil {
		return err
	}
	if err := c.matcher.Handle(route.Query("filter"), c.handleFilter); err != nil {
		return err
	}
	tab, err := route.Segments(":tabItem/:item?")
	if err != nil {
		return err
	}
	return c.matcher.Handle(tab, c.handleTab)
}

// SetListener registers fn to receive a Snapshot after every completed transition
func (c *Controller) SetListener(fn func(Snapshot)) {
	c.listener = fn
}

// Attach subscribes to map clicks. Clicks are posted to the event loop, never handled inline.
func (c *Controller) Attach(src ports.ClickSource) {
	src.OnClick(func(name string) {
		c.sched.Post(func() { c.MapClick(name) })
	})
}

// Routes lists the registered route patterns in dispatch order
func (c *Controller) Routes() []string {
	return c.matcher.Patterns()
}

// transition runs fn and, once the outermost transition finishes, redraws and notifies the listener
func (c *Controller) transition(fn func()) {
	c.depth++
	fn()
	c.depth--
	if c.depth == 0 {
		c.redraw()
		if c.listener != nil {
			c.listener(c.Snapshot())
		}
	}
}

func (c *Controller) here() location {
	return location{path: c.tree.Path().String(), item: c.item, filter: c.filter.String()}
}

// current reports whether the location captured as ticket is still in effect
func (c *Controller) current(ticket location, what string) bool {
	if c.here() == ticket {
		return true
	}
	c.log.Debug("dropping %s: %v", what, errors.StaleResult(ticket.String()))
	return false
}

// Navigate dispatches a URL as a fresh route event. It returns false when no route matched or when
// called while the controller is pushing its own history entry.
func (c *Controller) Navigate(raw string) bool {
	if c.pushing {
		c.log.Debug("ignoring navigation to %q during history push", raw)
		return false
	}
	matched := false
	c.transition(func() {
		matched = c.matcher.Dispatch(raw)
	})
	if !matched {
		c.log.Debug("%v", errors.UnknownRoute(raw))
	}
	return matched
}

// Start applies the session's initial URL. When that URL carries no filter and a persisted one
// exists, the persisted filter is applied too. A URL without a tab path opens the configured default
// tab (or the first tab) before its filter is applied.
func (c *Controller) Start(initialURL, persistedFilter string) {
	ev := route.Parse(initialURL)
	if ev.Query.Get("filter") == "" && persistedFilter != "" {
		initialURL = route.FormatURL(ev.Path, persistedFilter)
	}
	if len(ev.Path) == 0 {
		c.showDefault()
	}
	if initialURL != "" {
		c.Navigate(initialURL)
	}
	if c.active == nil {
		c.showDefault()
	}
}

func (c *Controller) showDefault() {
	fallback := c.tree.Root.SelectedChild()
	if fallback == nil && len(c.tree.Root.Children) > 0 {
		fallback = c.tree.Root.Children[0]
	}
	if fallback == nil {
		return
	}
	c.transition(func() {
		c.showTab(fallback.Link, "", true)
	})
}

func (c *Controller) handleTab(ev route.Event, p route.Params) {
	c.showTab(p["tabItem"], p["item"], true)
}

func (c *Controller) handleFilter(ev route.Event, p route.Params) {
	c.filter = NewFilter(route.Primary(p["filter"]))
	c.applyPath(ev)
	c.applyFilterFor(ev)
}

func (c *Controller) handlePartyFilter(ev route.Event, p route.Params) {
	c.filter = PartyFilter(p["party"])
	c.applyPath(ev)
	c.applyFilterFor(ev)
}

// applyFilterFor applies the filter unless the path already names a party trends sub-tab the
// filter does not resolve to. The path wins so a pushed URL restores the sub-tab it recorded.
func (c *Controller) applyFilterFor(ev route.Event) {
	if ev.Segment(0) == c.trendsNode.Link && !c.filterTargets(ev.Segment(1)) {
		return
	}
	c.applyFilter()
}

// applyPath applies the tab path carried alongside a filter, as on a reload of a filtered URL
func (c *Controller) applyPath(ev route.Event) {
	if len(ev.Path) == 0 || len(ev.Path) > 2 {
		return
	}
	c.showTab(ev.Segment(0), ev.Segment(1), false)
}

// showTab selects the root-level tab link, swaps the visible pane and opens item within it.
func (c *Controller) showTab(link, item string, applyFilter bool) {
	node := c.tree.Root.Child(link)
	if node == nil {
		c.log.Debug("%v", errors.UnknownEntity("tab", link))
		return
	}

	prev := c.active
	c.tree.Root.Select(link)
	if prev != node {
		if p := c.paneFor(prev); p != nil {
			p.Display(false)
		}
		c.maps.Reset()
	}
	c.item = ""
	if node.Kind == tabs.KindPartyTrends {
		node.ClearSelection()
	}
	c.active = node
	if p := c.paneFor(node); p != nil {
		p.Display(true)
	}
	c.prime(node)

	if item != "" {
		c.openItem(node, item)
	}
	if applyFilter && node.Kind == tabs.KindPartyTrends && c.filter.Active() && c.filterTargets(item) {
		c.applyFilter()
	}
}

func (c *Controller) paneFor(node *tabs.Node) Pane {
	if node == nil {
		return nil
	}
	for _, p := range c.panes {
		if p.Kind() == node.Kind {
			return p
		}
	}
	return nil
}

// filterTargets reports whether the active filter resolves to the party trends sub-tab item, or to
// any sub-tab when item is empty
func (c *Controller) filterTargets(item string) bool {
	if item == "" {
		return true
	}
	if c.filter.Token() == item {
		return true
	}
	child := c.trendsNode.Child(item)
	return child != nil && child.Kind == tabs.KindChloropleth && c.filter.Party() != ""
}

// prime loads the list a pane shows on entry
func (c *Controller) prime(node *tabs.Node) {
	switch node.Kind {
	case tabs.KindConstituencies:
		c.constituencyList.Then(func(list []results.Constituency, ok bool) {
			c.transition(func() {
				if ok {
					c.constituencies.list = list
				}
			})
		})
	case tabs.KindCountries:
		if c.countries == nil {
			return
		}
		c.countryList.Then(func(list []results.Country, ok bool) {
			c.transition(func() {
				if ok {
					c.countries.adopt(list)
				}
			})
		})
	}
}

func (c *Controller) openItem(node *tabs.Node, item string) {
	switch node.Kind {
	case tabs.KindPartyTrends:
		child := node.Child(item)
		if child == nil {
			c.log.Debug("%v", errors.UnknownEntity("party trends tab", item))
			return
		}
		c.selectTrend(child)
	case tabs.KindConstituencies:
		c.item = item
		c.openConstituency(item)
	case tabs.KindCountries:
		c.item = item
		c.openCountry(item)
	default:
		c.log.Debug("tab %q has no items, ignoring %q", node.Link, item)
	}
}

// selectTrend makes child the shown party trends sub-tab
func (c *Controller) selectTrend(child *tabs.Node) {
	c.maps.Reset()
	c.maps.ResetColours()
	c.trendsNode.Select(child.Link)
	if child.Kind == tabs.KindChloropleth {
		c.trends.clearParties()
	}
	c.loadTrendContent(child)
	if child.Kind == tabs.KindLeadingByConstituency {
		c.maps.MapLeadingConstituencyResults()
	}
}

func (c *Controller) loadTrendContent(child *tabs.Node) {
	ticket := c.here()
	switch child.Kind {
	case tabs.KindChloropleth:
		c.partyList.Then(func(list []results.Party, ok bool) {
			c.transition(func() {
				if ok && c.current(ticket, "party list") {
					c.trends.setParties(list)
				}
			})
		})
	case tabs.KindLeadingByIssue:
		c.issueList.Then(func(list []results.Issue, ok bool) {
			c.transition(func() {
				if ok && c.current(ticket, "issue results") && c.trends.issues == nil {
					c.trends.issues = results.FormatIssues(list)
				}
			})
		})
	}
}

// applyFilter resolves the stored filter against the party trends sub-tabs
func (c *Controller) applyFilter() {
	if !c.filter.Active() {
		return
	}
	token := c.filter.Token()
	if token == FilterStrengthOfParties && c.filter.Party() != "" {
		c.applyPartyFilter(c.filter.Party())
		return
	}

	child := c.trendsNode.Child(token)
	if child == nil {
		c.log.Debug("filter %q selects no sub-tab", token)
		return
	}
	if child.Selected && c.active == c.trendsNode {
		return
	}
	c.trendsNode.Select(token)
	c.loadTrendContent(child)
	if child.Kind == tabs.KindLeadingByConstituency {
		c.maps.MapLeadingConstituencyResults()
	}
}

// applyPartyFilter selects the chloropleth sub-tab with slug as its selected party. Nothing changes
// when the party list has no such slug.
func (c *Controller) applyPartyFilter(slug string) {
	chloro := c.trendsNode.ChildOfKind(tabs.KindChloropleth)
	if chloro == nil {
		return
	}
	ticket := c.here()
	c.partyList.Then(func(list []results.Party, ok bool) {
		c.transition(func() {
			if !ok || !c.current(ticket, "party filter") {
				return
			}
			c.trends.setParties(list)
			if !results.SelectParty(c.trends.parties, slug) {
				c.log.Debug("%v", errors.UnknownEntity("party", slug))
				return
			}
			c.trendsNode.Select(chloro.Link)
			c.maps.MapStrengthOfParty(slug)
		})
	})
}

func (c *Controller) openConstituency(slug string) {
	ticket := c.here()
	c.constituencyList.Then(func(list []results.Constituency, ok bool) {
		c.transition(func() {
			if !ok || !c.current(ticket, "constituency "+slug) {
				return
			}
			con, found := results.ConstituencyBySlug(list, slug)
			if !found {
				c.item = ""
				c.log.Debug("%v", errors.UnknownEntity("constituency", slug))
				return
			}
			c.selectConstituency(con)
		})
	})
}

func (c *Controller) selectConstituency(con results.Constituency) {
	c.item = con.Slug
	c.constituencies.search = con.Name
	c.maps.SelectBySlug(con.Slug)
	c.requestResults(ports.ResourceConstituencies, con.Slug, func(r *results.Results) {
		c.constituencies.results = r
	})
}

func (c *Controller) openCountry(slug string) {
	if c.countries == nil {
		return
	}
	ticket := c.here()
	c.countryList.Then(func(list []results.Country, ok bool) {
		c.transition(func() {
			if !ok || !c.current(ticket, "country "+slug) {
				return
			}
			c.countries.adopt(list)
			if !results.SelectCountry(c.countries.countries, slug) {
				c.item = ""
				c.log.Debug("%v", errors.UnknownEntity("country", slug))
				return
			}
			c.requestResults(ports.ResourceCountries, slug, func(r *results.Results) {
				c.countries.results = r
			})
		})
	})
}

// requestResults fetches a results payload off the loop and applies it if still current
func (c *Controller) requestResults(resource, slug string, apply func(*results.Results)) {
	ticket := c.here()
	c.sched.Go(func() {
		r, err := c.data.Results(context.Background(), resource, slug)
		c.sched.Post(func() {
			c.transition(func() {
				switch {
				case errors.Is(err, errors.CodeNotFound):
					c.log.Debug("%s/%s has no results", resource, slug)
					return
				case err != nil:
					c.log.Warn("fetching %s/%s results: %v", resource, slug, err)
					return
				}
				if c.current(ticket, resource+"/"+slug+" results") {
					apply(r)
				}
			})
		})
	})
}

// MapClick resolves a clicked feature name to a constituency and shows it, switching to the
// Constituencies tab first when another tab is displayed.
func (c *Controller) MapClick(name string) {
	ticket := c.here()
	c.constituencyList.Then(func(list []results.Constituency, ok bool) {
		c.transition(func() {
			if !ok || !c.current(ticket, "map click on "+name) {
				return
			}
			con, found := results.ConstituencyByName(list, name)
			if !found {
				c.log.Debug("%v", errors.UnknownEntity("constituency", name))
				return
			}
			c.constituencies.list = list

			if c.active != c.constituencyNd {
				if p := c.paneFor(c.active); p != nil {
					p.Display(false)
				}
				if c.active != nil {
					c.active.Selected = false
				}
				c.trendsNode.ClearSelection()
				c.tree.Root.Select(c.constituencyNd.Link)
				c.active = c.constituencyNd
				c.constituencies.Display(true)
			}
			c.selectConstituency(con)
			c.push()
		})
	})
}

// ClearFilter drops the sticky filter and every party trends selection
func (c *Controller) ClearFilter() {
	c.transition(func() {
		c.filter = Filter{}
		c.trendsNode.ClearSelection()
		c.trends.clearParties()
		c.maps.Reset()
		c.maps.ResetColours()
		c.push()
	})
}

// SelectSubTab shows the party trends sub-tab link and records it in history. It returns false
// for an unknown link.
func (c *Controller) SelectSubTab(link string) bool {
	if c.trendsNode.Child(link) == nil {
		c.log.Debug("%v", errors.UnknownEntity("party trends tab", link))
		return false
	}
	c.transition(func() {
		c.showTab(c.trendsNode.Link, link, true)
		c.push()
	})
	return true
}

// push records the current location in history without dispatching it
func (c *Controller) push() {
	c.pushing = true
	defer func() { c.pushing = false }()
	c.history.PushState(c.URL())
}

func (c *Controller) urlPath() []string {
	path := []string(c.tree.Path())
	if c.item != "" {
		path = append(path, c.item)
	}
	return path
}

// URL is the fragment URL describing the current state
func (c *Controller) URL() string {
	return route.FormatURL(c.urlPath(), c.filter.String())
}

func (c *Controller) redraw() {
	chrome, err := c.renderer.RenderNav(c.tree.Root.Items(""))
	if err != nil {
		c.log.Error("%v", errors.RenderFailure("navigation", err))
	} else {
		c.chrome = chrome
	}
	for _, p := range c.panes {
		if _, err := p.Render(); err != nil {
			c.log.Error("%v", err)
		}
	}
}

// Snapshot reports the current state and the last rendered markup
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		Path:   c.tree.Path(),
		Item:   c.item,
		Filter: c.filter.String(),
		URL:    c.URL(),
		Chrome: c.chrome,
		Panes:  make(map[string]string, len(c.panes)),
	}
	if c.active != nil {
		s.Active = c.active.Link
	}
	for _, p := range c.panes {
		s.Panes[p.ID()] = p.Markup()
		if p.Visible() {
			s.Visible = p.ID()
		}
	}
	return s
}

// Filter returns the sticky filter
func (c *Controller) Filter() Filter {
	return c.filter
}

// Item returns the open constituency or country slug
func (c *Controller) Item() string {
	return c.item
}

// Tree returns the tab tree
func (c *Controller) Tree() *tabs.Tree {
	return c.tree
}

// Trends returns the party trends pane
func (c *Controller) Trends() *TrendsPane {
	return c.trends
}

// Constituencies returns the constituencies pane
func (c *Controller) Constituencies() *ConstituencyPane {
	return c.constituencies
}

// Countries returns the countries pane, or nil when the tree has no Countries tab
func (c *Controller) Countries() *CountryPane {
	return c.countries
}

// VisiblePanes lists the IDs of the panes currently displayed
func (c *Controller) VisiblePanes() []string {
	var ids []string
	for _, p := range c.panes {
		if p.Visible() {
			ids = append(ids, p.ID())
		}
	}
	return ids
}

func (c *Controller) String() string {
	return fmt.Sprintf("controller{%s visible=%s}", c.here(), strings.Join(c.VisiblePanes(), ","))
}
