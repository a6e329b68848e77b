package navigation

import (
	"strings"

	"resultsdash/internal/route"
)

// FilterStrengthOfParties is the filter token that, together with party=<slug>, colours the map
// by one party's strength.
const FilterStrengthOfParties = "strength-of-political-parties"

// Filter is the sticky filter carried in ?filter=. The zero value means no filter.
// Its raw form keeps any trailing "&party=<slug>" so it can be written back into a URL unchanged.
type Filter struct {
	raw string
}

// NewFilter wraps a raw filter value
func NewFilter(raw string) Filter {
	return Filter{raw: strings.TrimSpace(raw)}
}

// PartyFilter builds the filter for a party strength selection
func PartyFilter(partySlug string) Filter {
	return Filter{raw: FilterStrengthOfParties + "&party=" + partySlug}
}

// Active reports whether a filter is set
func (f Filter) Active() bool {
	return f.raw != ""
}

// Token is the primary filter token, the part before the first '&'
func (f Filter) Token() string {
	return route.Primary(f.raw)
}

// Party returns the party=<slug> value carried by the filter, if any
func (f Filter) Party() string {
	_, rest, ok := strings.Cut(f.raw, "&")
	if !ok {
		return ""
	}
	for _, pair := range strings.Split(rest, "&") {
		if k, v, ok := strings.Cut(pair, "="); ok && k == "party" {
			return v
		}
	}
	return ""
}

func (f Filter) String() string {
	return f.raw
}
