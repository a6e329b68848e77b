package navigation

import (
	"resultsdash/domain/results"
	"resultsdash/domain/tabs"
	"resultsdash/internal/errors"
	"resultsdash/ports"
)

// Pane is a displayable unit: the content shown under one root-level tab.
//
// Render policy: Render always draws from the pane's current data, visible or not, and marks a
// hidden pane with the hidden attribute. Calling it repeatedly without a state change yields the
// same markup.
type Pane interface {
	ID() string
	Kind() tabs.Kind

	// Display shows or hides the pane. Hiding clears transient view state so the next show
	// starts clean.
	Display(visible bool)
	Visible() bool

	// Render redraws from current data, stores and returns the markup
	Render() (string, error)

	// Markup returns the last rendered markup
	Markup() string
}

type paneBase struct {
	id       string
	kind     tabs.Kind
	visible  bool
	markup   string
	renderer ports.Renderer
}

func (p *paneBase) ID() string      { return p.id }
func (p *paneBase) Kind() tabs.Kind { return p.kind }
func (p *paneBase) Visible() bool   { return p.visible }
func (p *paneBase) Markup() string  { return p.markup }

func (p *paneBase) wrap(body string, err error) (string, error) {
	if err != nil {
		return p.markup, errors.RenderFailure(p.id, err)
	}
	out, err := p.renderer.RenderPane(p.id, p.visible, body)
	if err != nil {
		return p.markup, errors.RenderFailure(p.id, err)
	}
	p.markup = out
	return out, nil
}

// TrendsPane shows the Party Trends sub-navigation and the selected sub-tab's content.
type TrendsPane struct {
	paneBase
	node    *tabs.Node
	parties []results.Party
	issues  []results.Issue
}

func newTrendsPane(node *tabs.Node, r ports.Renderer) *TrendsPane {
	return &TrendsPane{
		paneBase: paneBase{id: "trends-tab-container", kind: tabs.KindPartyTrends, renderer: r},
		node:     node,
	}
}

// Display implements Pane. Party Trends keeps no transient input state.
func (p *TrendsPane) Display(visible bool) {
	p.visible = visible
}

// Parties returns the chloropleth party list
func (p *TrendsPane) Parties() []results.Party {
	return p.parties
}

// setParties adopts the loaded party list once; later loads keep the existing selection flags
func (p *TrendsPane) setParties(list []results.Party) {
	if p.parties != nil {
		return
	}
	p.parties = append([]results.Party(nil), list...)
}

func (p *TrendsPane) clearParties() {
	results.ClearParties(p.parties)
}

// Render implements Pane
func (p *TrendsPane) Render() (string, error) {
	subnav, err := p.renderer.RenderSubNav(p.node.Items(p.node.Link + "/"))
	if err != nil {
		return p.wrap("", err)
	}
	body := ""
	if selected := p.node.SelectedChild(); selected != nil {
		switch selected.Kind {
		case tabs.KindChloropleth:
			body, err = p.renderer.RenderPartyList(p.parties)
		case tabs.KindLeadingByIssue:
			body, err = p.renderer.RenderIssues(p.issues)
		}
	}
	return p.wrap(subnav+body, err)
}

// ConstituencyPane shows the constituency search list and the selected constituency's results.
type ConstituencyPane struct {
	paneBase
	list    []results.Constituency
	search  string
	results *results.Results
}

func newConstituencyPane(r ports.Renderer) *ConstituencyPane {
	return &ConstituencyPane{
		paneBase: paneBase{id: "constituency-tab-container", kind: tabs.KindConstituencies, renderer: r},
	}
}

// Display implements Pane. Hiding empties the search field and the pie chart.
func (p *ConstituencyPane) Display(visible bool) {
	p.visible = visible
	if !visible {
		p.search = ""
		p.results = nil
	}
}

// Search returns the search field's value
func (p *ConstituencyPane) Search() string {
	return p.search
}

// Results returns the results shown in the pie chart, or nil
func (p *ConstituencyPane) Results() *results.Results {
	return p.results
}

// Render implements Pane
func (p *ConstituencyPane) Render() (string, error) {
	list, err := p.renderer.RenderConstituencyList(p.list, p.search)
	if err != nil || p.results == nil {
		return p.wrap(list, err)
	}
	chart, err := p.renderer.RenderResults(ports.ResultsView{
		Name:   p.results.Name,
		Slug:   p.results.Slug,
		Slices: results.PieSlices(p.results),
	})
	return p.wrap(list+chart, err)
}

// CountryPane shows the country tab strip and the selected country's results.
type CountryPane struct {
	paneBase
	countries []results.Country
	results   *results.Results
}

func newCountryPane(r ports.Renderer) *CountryPane {
	return &CountryPane{
		paneBase: paneBase{id: "country-tab-container", kind: tabs.KindCountries, renderer: r},
	}
}

// Display implements Pane. Hiding drops the shown results and the country selection.
func (p *CountryPane) Display(visible bool) {
	p.visible = visible
	if !visible {
		p.results = nil
		for i := range p.countries {
			p.countries[i].Selected = false
		}
	}
}

// adopt takes the country list once so selection flags survive later loads
func (p *CountryPane) adopt(list []results.Country) {
	if p.countries != nil {
		return
	}
	p.countries = append([]results.Country(nil), list...)
}

// Countries returns the country list
func (p *CountryPane) Countries() []results.Country {
	return p.countries
}

// Results returns the selected country's results, or nil
func (p *CountryPane) Results() *results.Results {
	return p.results
}

// Render implements Pane
func (p *CountryPane) Render() (string, error) {
	strip, err := p.renderer.RenderCountryTabs(p.countries)
	if err != nil || p.results == nil {
		return p.wrap(strip, err)
	}
	chart, err := p.renderer.RenderResults(ports.ResultsView{
		Name:   p.results.Name,
		Slug:   p.results.Slug,
		Slices: results.PieSlices(p.results),
	})
	return p.wrap(strip+chart, err)
}
