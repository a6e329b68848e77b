// Package render is the HTML renderer of the dashboard: each method executes one embedded
// template against its input and returns the markup.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"resultsdash/domain/results"
	"resultsdash/domain/tabs"
	"resultsdash/ports"
)

//go:embed templates/*.html
var templateFiles embed.FS

// HTMLRenderer implements ports.Renderer with html/template
type HTMLRenderer struct {
	templates *template.Template
}

var _ ports.Renderer = (*HTMLRenderer)(nil)

// New parses the embedded templates
func New() (*HTMLRenderer, error) {
	funcMap := template.FuncMap{
		"inc":        func(i int) int { return i + 1 },
		"round":      results.Round,
		"roundToInt": results.RoundToInt,
		"thousands":  thousands,
		"markdown":   Markdown,
		"leading":    leading,
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &HTMLRenderer{templates: templates}, nil
}

// thousands accepts the int and results.Votes counts templates hand it
func thousands(v interface{}) string {
	switch t := v.(type) {
	case int:
		return results.Thousands(t)
	case results.Votes:
		return results.Thousands(int(t))
	default:
		return fmt.Sprint(v)
	}
}

// leading returns the result with the largest share, or nil
func leading(rs []results.PartyResult) *results.PartyResult {
	var best *results.PartyResult
	for i := range rs {
		if best == nil || rs[i].Votes > best.Votes {
			best = &rs[i]
		}
	}
	return best
}

// Markdown renders a tab description. Raw HTML in the source is dropped.
func Markdown(source string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return template.HTML(bytes.TrimSpace(markdown.ToHTML([]byte(source), p, r)))
}

func (r *HTMLRenderer) execute(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

// RenderNav renders the root tab strip
func (r *HTMLRenderer) RenderNav(items []tabs.NavItem) (string, error) {
	return r.execute("nav", items)
}

// RenderSubNav renders the party trends sub-tabs with the selected tab's description
func (r *HTMLRenderer) RenderSubNav(items []tabs.NavItem) (string, error) {
	return r.execute("subnav", items)
}

// RenderPartyList renders the chloropleth party picker
func (r *HTMLRenderer) RenderPartyList(parties []results.Party) (string, error) {
	return r.execute("parties", parties)
}

// RenderConstituencyList renders the constituency search box and its suggestions
func (r *HTMLRenderer) RenderConstituencyList(constituencies []results.Constituency, search string) (string, error) {
	return r.execute("constituencies", struct {
		Constituencies []results.Constituency
		Search         string
	}{constituencies, search})
}

// RenderIssues renders formatted issue results
func (r *HTMLRenderer) RenderIssues(issues []results.Issue) (string, error) {
	return r.execute("issues", issues)
}

// RenderResults renders one pie chart's data
func (r *HTMLRenderer) RenderResults(view ports.ResultsView) (string, error) {
	return r.execute("results", view)
}

// RenderCountryTabs renders the country strip
func (r *HTMLRenderer) RenderCountryTabs(countries []results.Country) (string, error) {
	return r.execute("countries", countries)
}

// RenderPane wraps body, itself renderer output, in the pane's section
func (r *HTMLRenderer) RenderPane(id string, visible bool, body string) (string, error) {
	return r.execute("pane", struct {
		ID      string
		Visible bool
		Body    template.HTML
	}{id, visible, template.HTML(body)})
}
