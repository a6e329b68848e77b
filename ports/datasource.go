package ports

import (
	"context"

	"resultsdash/domain/results"
)

// Resource names used in /{resource}/{slug}/results.json
const (
	ResourceConstituencies = "constituencies"
	ResourceCountries      = "countries"
)

// DataSource reads the results API. Payloads are never mutated by callers.
type DataSource interface {
	// Constituencies returns /constituencies.json
	Constituencies(ctx context.Context) ([]results.Constituency, error)

	// Parties returns /parties.json
	Parties(ctx context.Context) ([]results.Party, error)

	// Issues returns /issues.json
	Issues(ctx context.Context) ([]results.Issue, error)

	// Countries returns /countries.json
	Countries(ctx context.Context) ([]results.Country, error)

	// Results returns /{resource}/{slug}/results.json
	Results(ctx context.Context, resource, slug string) (*results.Results, error)
}
