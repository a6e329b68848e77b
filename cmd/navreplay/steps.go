package main

import (
	"context"
	"fmt"
	"strings"

	"resultsdash/domain/results"
	"resultsdash/internal/errors"
	"resultsdash/internal/navigation"
)

type stepKind int

const (
	stepNavigate stepKind = iota
	stepClick
	stepSubTab
	stepClear
)

type step struct {
	kind stepKind
	arg  string
}

func (s step) String() string {
	switch s.kind {
	case stepClick:
		return "click " + s.arg
	case stepSubTab:
		return "sub-tab " + s.arg
	case stepClear:
		return "clear filter"
	default:
		return "navigate " + s.arg
	}
}

func (s step) apply(c *navigation.Controller) {
	switch s.kind {
	case stepNavigate:
		c.Navigate(s.arg)
	case stepClick:
		c.MapClick(s.arg)
	case stepSubTab:
		c.SelectSubTab(s.arg)
	case stepClear:
		c.ClearFilter()
	}
}

func parseSteps(args []string) ([]step, error) {
	steps := make([]step, 0, len(args))
	for _, a := range args {
		switch {
		case strings.HasPrefix(a, "#"):
			steps = append(steps, step{stepNavigate, a})
		case strings.HasPrefix(a, "click:") && len(a) > len("click:"):
			steps = append(steps, step{stepClick, strings.TrimPrefix(a, "click:")})
		case strings.HasPrefix(a, "subtab:") && len(a) > len("subtab:"):
			steps = append(steps, step{stepSubTab, strings.TrimPrefix(a, "subtab:")})
		case a == "clear":
			steps = append(steps, step{stepClear, ""})
		default:
			return nil, errors.InvalidInput(fmt.Sprintf("unrecognised step %q", a))
		}
	}
	return steps, nil
}

// emptySource serves empty collections, for commands that only need the controller's structure
type emptySource struct{}

func (emptySource) Constituencies(context.Context) ([]results.Constituency, error) { return nil, nil }
func (emptySource) Parties(context.Context) ([]results.Party, error)               { return nil, nil }
func (emptySource) Issues(context.Context) ([]results.Issue, error)                { return nil, nil }
func (emptySource) Countries(context.Context) ([]results.Country, error)           { return nil, nil }
func (emptySource) Results(_ context.Context, resource, slug string) (*results.Results, error) {
	return nil, errors.NotFound(resource + "/" + slug)
}
