package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		path   []string
		filter string
		party  string
	}{
		{"hash with item", "#constituencies/aberdeen-south", []string{"constituencies", "aberdeen-south"}, "", ""},
		{"no hash", "party-trends/leading-party-by-issue", []string{"party-trends", "leading-party-by-issue"}, "", ""},
		{"trailing slash", "#party-trends/", []string{"party-trends"}, "", ""},
		{"query in fragment", "#constituencies/bristol-west?filter=leading-party-for-each-constituency",
			[]string{"constituencies", "bristol-west"}, "leading-party-for-each-constituency", ""},
		{"search before hash", "?filter=strength-of-political-parties&party=labour#party-trends",
			[]string{"party-trends"}, "strength-of-political-parties", "labour"},
		{"full url", "https://example.org/results?filter=x#countries/wales", []string{"countries", "wales"}, "x", ""},
		{"query only", "#?filter=leading-party-by-issue", nil, "leading-party-by-issue", ""},
		{"escaped embedded pair", "#?filter=strength-of-political-parties%26party%3Dgreen", nil,
			"strength-of-political-parties&party=green", "green"},
		{"empty", "", nil, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Parse(tt.raw)
			assert.Equal(t, tt.path, ev.Path)
			assert.Equal(t, tt.filter, ev.Query.Get("filter"))
			assert.Equal(t, tt.party, ev.Query.Get("party"))
		})
	}
}

func TestFormatURL(t *testing.T) {
	assert.Equal(t, "#constituencies/bristol-west", FormatURL([]string{"constituencies", "bristol-west"}, ""))
	assert.Equal(t, "#constituencies/bristol-west?filter=leading-party-for-each-constituency",
		FormatURL([]string{"constituencies", "bristol-west"}, "leading-party-for-each-constituency"))
	assert.Equal(t, "#party-trends?filter=strength-of-political-parties&party=labour",
		FormatURL([]string{"party-trends"}, "strength-of-political-parties&party=labour"))

	// What FormatURL writes, Parse reads back
	ev := Parse(FormatURL([]string{"constituencies", "ynys-môn"}, "strength-of-political-parties&party=plaid cymru"))
	assert.Equal(t, []string{"constituencies", "ynys-môn"}, ev.Path)
	assert.Equal(t, "plaid cymru", ev.Query.Get("party"))
}

func TestSegmentPattern(t *testing.T) {
	p, err := Segments(":tabItem/:item?")
	require.NoError(t, err)

	params, ok := p.Match(Parse("#constituencies"))
	require.True(t, ok)
	assert.Equal(t, Params{"tabItem": "constituencies"}, params)

	params, ok = p.Match(Parse("#constituencies/aberdeen-south"))
	require.True(t, ok)
	assert.Equal(t, "aberdeen-south", params["item"])

	_, ok = p.Match(Parse("#a/b/c"))
	assert.False(t, ok)
	_, ok = p.Match(Parse("#?filter=x"))
	assert.False(t, ok)

	literal, err := Segments("party-trends/:trendType")
	require.NoError(t, err)
	_, ok = literal.Match(Parse("#constituencies/x"))
	assert.False(t, ok)

	_, err = Segments(":a?/:b")
	assert.Error(t, err)
	_, err = Segments("a//b")
	assert.Error(t, err)
}

func TestQueryPattern(t *testing.T) {
	party := Query("filter=strength-of-political-parties", "party")
	filter := Query("filter")

	params, ok := party.Match(Parse("#?filter=strength-of-political-parties&party=labour"))
	require.True(t, ok)
	assert.Equal(t, "labour", params["party"])

	_, ok = party.Match(Parse("#?filter=strength-of-political-parties"))
	assert.False(t, ok, "party key is required")

	params, ok = filter.Match(Parse("#?filter=strength-of-political-parties&party=labour"))
	require.True(t, ok)
	assert.Equal(t, "strength-of-political-parties", params["filter"])

	assert.True(t, filter.Covers(party))
	assert.False(t, party.Covers(filter))
}

func TestMatcherFirstMatchWins(t *testing.T) {
	m := NewMatcher(nil)
	var hits []string

	require.NoError(t, m.Handle(Query("filter=strength-of-political-parties", "party"), func(ev Event, p Params) {
		hits = append(hits, "party:"+p["party"])
	}))
	require.NoError(t, m.Handle(Query("filter"), func(ev Event, p Params) {
		hits = append(hits, "filter:"+Primary(p["filter"]))
	}))
	seg, err := Segments(":tabItem/:item?")
	require.NoError(t, err)
	require.NoError(t, m.Handle(seg, func(ev Event, p Params) {
		hits = append(hits, "tab:"+p["tabItem"])
	}))

	assert.True(t, m.Dispatch("#party-trends?filter=strength-of-political-parties&party=labour"))
	assert.True(t, m.Dispatch("#constituencies?filter=leading-party-by-issue"))
	assert.True(t, m.Dispatch("#constituencies/bristol-west"))
	assert.False(t, m.Dispatch("#a/b/c"))
	assert.False(t, m.Dispatch(""))

	assert.Equal(t, []string{"party:labour", "filter:leading-party-by-issue", "tab:constituencies"}, hits)
	assert.Len(t, m.Patterns(), 3)
}

func TestMatcherRejectsShadowedPattern(t *testing.T) {
	m := NewMatcher(nil)
	noop := func(Event, Params) {}

	require.NoError(t, m.Handle(Query("filter"), noop))
	err := m.Handle(Query("filter=strength-of-political-parties", "party"), noop)
	assert.Error(t, err, "the general filter pattern would swallow the party pattern")

	general, _ := Segments(":tabItem/:item?")
	specific, _ := Segments("party-trends/:trendType")
	require.NoError(t, m.Handle(general, noop))
	assert.Error(t, m.Handle(specific, noop))
}
