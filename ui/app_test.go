package ui

import (
	"bytes"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"resultsdash/adapters/datasource"
	"resultsdash/adapters/memory"
	"resultsdash/adapters/render"
	"resultsdash/domain/tabs"
	"resultsdash/internal"
	"resultsdash/internal/api"
)

var fixtures = map[string]string{
	"/constituencies.json": `[{"constituency_name":"Bristol West","constituency_slug":"bristol-west"},{"constituency_name":"Cardiff Central","constituency_slug":"cardiff-central"}]`,
	"/parties.json":        `[{"name":"Labour","slug":"labour"},{"name":"Green","slug":"green"}]`,
	"/issues.json":         `[{"name":"Housing","slug":"housing","results":[{"party":"Labour","party_slug":"labour","votes":7000},{"party":"Green","party_slug":"green","votes":5000}]}]`,
	"/countries.json":      `[{"name":"England","slug":"england"},{"name":"Northern Ireland","slug":"northern-ireland"}]`,
	"/constituencies/bristol-west/results.json": `{"name":"Bristol West","slug":"bristol-west","results":[{"party":"Green","party_slug":"green","votes":24539}]}`,
}

type testServer struct {
	*httptest.Server
	client *http.Client
	reg    *Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := internal.NewLogger(internal.LogLevelError)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := fixtures[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(upstream.Close)

	renderer, err := render.New()
	require.NoError(t, err)
	data := datasource.NewClient(datasource.Config{BaseURL: upstream.URL, Timeout: 2 * time.Second}, logger)
	hub := api.NewSSEHub(logger)
	t.Cleanup(hub.Close)

	reg := NewRegistry(tabs.DefaultConfig(), renderer, data, memory.NewFilterRepository(), hub, logger)
	t.Cleanup(reg.Close)

	app, err := NewApp(Config{GinMode: "test", SessionCookie: "sid"}, reg, data, hub, logger)
	require.NoError(t, err)

	srv := httptest.NewServer(app)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testServer{Server: srv, client: &http.Client{Jar: jar}, reg: reg}
}

func (s *testServer) post(t *testing.T, path string, body interface{}) (*http.Response, sessionResponse) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := s.client.Post(s.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out sessionResponse
	if resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func (s *testServer) state(t *testing.T, id string) sessionResponse {
	t.Helper()
	resp, err := s.client.Get(s.URL + "/api/sessions/" + id + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out sessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestOpenSessionAppliesURL(t *testing.T) {
	s := newTestServer(t)

	resp, out := s.post(t, "/api/sessions", urlRequest{URL: "#party-trends?filter=leading-party-by-issue"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, out.SessionID)
	assert.Equal(t, "leading-party-by-issue", out.State.Filter)
	assert.Equal(t, tabs.LinkPartyTrends, out.State.Active)

	// a reload resumes the same session from the cookie
	resp, again := s.post(t, "/api/sessions", urlRequest{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, out.SessionID, again.SessionID)
	assert.Equal(t, 1, s.reg.Len())
}

func TestNavigate(t *testing.T) {
	s := newTestServer(t)
	_, out := s.post(t, "/api/sessions", urlRequest{URL: "#party-trends"})
	base := "/api/sessions/" + out.SessionID

	resp, nav := s.post(t, base+"/navigate", urlRequest{URL: "#constituencies/bristol-west"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, nav.Matched)
	assert.True(t, *nav.Matched)

	assert.Eventually(t, func() bool {
		st := s.state(t, out.SessionID).State
		return st.Active == tabs.LinkConstituencies && st.Item == "bristol-west"
	}, 2*time.Second, 10*time.Millisecond)

	_, nav = s.post(t, base+"/navigate", urlRequest{URL: "#nowhere/at/all/here"})
	require.NotNil(t, nav.Matched)
	assert.False(t, *nav.Matched)
	assert.Equal(t, tabs.LinkConstituencies, nav.State.Active)
}

func TestMapClickFromPartyTrends(t *testing.T) {
	s := newTestServer(t)
	_, out := s.post(t, "/api/sessions", urlRequest{URL: "#party-trends/leading-party-by-issue"})
	base := "/api/sessions/" + out.SessionID

	resp, _ := s.post(t, base+"/map-click", clickRequest{Name: "Bristol West"})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	assert.Eventually(t, func() bool {
		st := s.state(t, out.SessionID).State
		return st.Active == tabs.LinkConstituencies && st.URL == "#constituencies/bristol-west"
	}, 2*time.Second, 10*time.Millisecond)

	resp, _ = s.post(t, base+"/map-click", clickRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubTabsAndClearFilter(t *testing.T) {
	s := newTestServer(t)
	_, out := s.post(t, "/api/sessions", urlRequest{URL: "#party-trends?filter=leading-party-for-each-constituency"})
	base := "/api/sessions/" + out.SessionID

	resp, st := s.post(t, base+"/subtabs/"+tabs.LinkLeadingByIssue, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{tabs.LinkPartyTrends, tabs.LinkLeadingByIssue}, st.State.Path)

	resp, _ = s.post(t, base+"/subtabs/swingometer", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, st = s.post(t, base+"/filter/clear", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, st.State.Filter)
}

func TestUnknownSession(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.post(t, "/api/sessions/not-a-uuid/navigate", urlRequest{URL: "#countries"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.post(t, "/api/sessions/0190d6a5-1c2b-7d3e-8f4a-5b6c7d8e9f00/navigate", urlRequest{URL: "#countries"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIndexSetsCookie(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.client.Get(s.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var sid string
	for _, c := range resp.Cookies() {
		if c.Name == "sid" {
			sid = c.Value
		}
	}
	require.NotEmpty(t, sid)

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `data-session="`+sid+`"`)
}

func TestExportIssues(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.client.Get(s.URL + "/api/issues/export.xlsx")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Issues")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Housing", rows[1][1])
}

func TestEventsRequireSession(t *testing.T) {
	s := newTestServer(t)

	// no cookie and no query parameter
	resp, err := http.Get(s.URL + "/events")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = s.client.Get(s.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
