// Package results holds the entities served by the results API and the pure
// formatting applied to them before rendering.
package results

import (
	"bytes"
	"fmt"
	"strconv"
)

// Votes is a vote count. The API sends it either as a number or as a numeric string.
type Votes int

// UnmarshalJSON accepts 123, "123" and null
func (v *Votes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = 0
		return nil
	}
	if data[0] == '"' {
		data = bytes.Trim(data, `"`)
		if len(data) == 0 {
			*v = 0
			return nil
		}
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("votes: %w", err)
	}
	*v = Votes(n)
	return nil
}

// Constituency is one entry of /constituencies.json
type Constituency struct {
	Name    string `json:"constituency_name"`
	Slug    string `json:"constituency_slug"`
	Country string `json:"country,omitempty"`
}

// Party is one entry of /parties.json. Selected is view state owned by the chloropleth tab.
type Party struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Colour   string `json:"colour,omitempty"`
	Selected bool   `json:"-"`
}

// Country is one entry of /countries.json
type Country struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Selected bool   `json:"-"`
}

// PartyResult is a party's vote count within a constituency, country or issue
type PartyResult struct {
	Party   string  `json:"party"`
	Slug    string  `json:"party_slug"`
	Votes   Votes   `json:"votes"`
	Percent float64 `json:"-"`
}

// Results is the payload of /{resource}/{slug}/results.json
type Results struct {
	Name    string        `json:"name"`
	Slug    string        `json:"slug"`
	Results []PartyResult `json:"results"`
}

// Issue is one entry of /issues.json
type Issue struct {
	Name    string        `json:"name"`
	Slug    string        `json:"slug"`
	Results []PartyResult `json:"results"`
	Total   int           `json:"-"`
}

// ConstituencyByName finds a constituency by its display name
func ConstituencyByName(list []Constituency, name string) (Constituency, bool) {
	for _, c := range list {
		if c.Name == name {
			return c, true
		}
	}
	return Constituency{}, false
}

// ConstituencyBySlug finds a constituency by slug
func ConstituencyBySlug(list []Constituency, slug string) (Constituency, bool) {
	for _, c := range list {
		if c.Slug == slug {
			return c, true
		}
	}
	return Constituency{}, false
}

// SelectParty marks the party with slug selected and every other party unselected. When no party
// has that slug the list is left as it was and false is returned.
func SelectParty(parties []Party, slug string) bool {
	idx := -1
	for i := range parties {
		if parties[i].Slug == slug {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	for i := range parties {
		parties[i].Selected = i == idx
	}
	return true
}

// ClearParties deselects every party
func ClearParties(parties []Party) {
	for i := range parties {
		parties[i].Selected = false
	}
}

// SelectCountry is SelectParty for countries
func SelectCountry(countries []Country, slug string) bool {
	idx := -1
	for i := range countries {
		if countries[i].Slug == slug {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	for i := range countries {
		countries[i].Selected = i == idx
	}
	return true
}
