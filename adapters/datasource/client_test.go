package datasource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"resultsdash/internal"
	"resultsdash/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, dataPath string) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:  srv.URL + "/",
		Timeout:  2 * time.Second,
		DataPath: dataPath,
		APIKey:   "secret",
	}, internal.NewLogger(internal.LogLevelError))
}

func TestClientDecodesPayloads(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/constituencies.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		w.Write([]byte(`[{"constituency_name":"Bristol West","constituency_slug":"bristol-west","country":"england"}]`))
	})
	mux.HandleFunc("/constituencies/bristol-west/results.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Bristol West","slug":"bristol-west","results":[{"party":"Green","party_slug":"green","votes":"24539"},{"party":"Labour","party_slug":"labour","votes":14132}]}`))
	})
	c := newTestClient(t, mux, "")
	ctx := context.Background()

	list, err := c.Constituencies(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "bristol-west", list[0].Slug)
	assert.Equal(t, "Bristol West", list[0].Name)

	res, err := c.Results(ctx, "constituencies", "bristol-west")
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.EqualValues(t, 24539, res.Results[0].Votes)
	assert.EqualValues(t, 14132, res.Results[1].Votes)
}

func TestClientCachesByURL(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[{"name":"Labour","slug":"labour"}]`))
	}), "")
	ctx := context.Background()

	first, err := c.Parties(ctx)
	require.NoError(t, err)
	first[0].Selected = true

	second, err := c.Parties(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 1, hits.Load())
	assert.False(t, second[0].Selected, "callers get their own copy")
	assert.Equal(t, 1, c.Cached())
}

func TestClientSharesConcurrentFetches(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Write([]byte(`[{"name":"Wales","slug":"wales"}]`))
	}), "")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			list, err := c.Countries(context.Background())
			assert.NoError(t, err)
			assert.Len(t, list, 1)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, hits.Load(), int32(2))
}

func TestClientDoesNotCacheFailures(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[]`))
	}), "")
	ctx := context.Background()

	_, err := c.Issues(ctx)
	require.Error(t, err)
	assert.Equal(t, errors.CodeExternalService, errors.GetCode(err))

	list, err := c.Issues(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.EqualValues(t, 2, hits.Load())
}

func TestClientNotFound(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler(), "")

	_, err := c.Results(context.Background(), "countries", "atlantis")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	_, err = c.Results(context.Background(), "countries", "")
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))
}

func TestClientDataPath(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"meta":{"generated":"2024-07-05"},"data":{"items":[{"name":"England","slug":"england"}]}}`))
	}), "data.items")

	list, err := c.Countries(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "england", list[0].Slug)
}

func TestClientRejectsBadPayloads(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}), "")

	_, err := c.Parties(context.Background())
	require.Error(t, err)
	assert.Zero(t, c.Cached())

	missing := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"meta":{}}`))
	}), "data")
	_, err = missing.Parties(context.Background())
	assert.ErrorContains(t, err, "data path 'data' not found")
}
