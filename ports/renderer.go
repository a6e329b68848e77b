package ports

import (
	"resultsdash/domain/results"
	"resultsdash/domain/tabs"
)

// ResultsView is the data a constituency or country results panel renders from
type ResultsView struct {
	Name   string
	Slug   string
	Slices []results.Slice
}

// Renderer turns navigation state into markup. Every method is a pure function of its
// arguments: calling it twice with equal input yields byte-identical output.
type Renderer interface {
	RenderNav(items []tabs.NavItem) (string, error)
	RenderSubNav(items []tabs.NavItem) (string, error)
	RenderPartyList(parties []results.Party) (string, error)
	RenderConstituencyList(constituencies []results.Constituency, search string) (string, error)
	RenderIssues(issues []results.Issue) (string, error)
	RenderResults(view ResultsView) (string, error)
	RenderCountryTabs(countries []results.Country) (string, error)
	RenderPane(id string, visible bool, body string) (string, error)
}
