package edhrec

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mightstone-backend/internal/components/telemetry"
	"mightstone-backend/lib/testutil"

	"github.com/stretchr/testify/require"
)

type mapCache struct {
	mu     sync.Mutex
	bodies map[string][]byte
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	body, ok := c.bodies[key]
	return body, ok
}

func (c *mapCache) Set(_ context.Context, key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bodies == nil {
		c.bodies = map[string][]byte{}
	}
	c.bodies[key] = body
}

func newTestServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/commanders/atraxa-praetors-voice", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("content-type", "text/html")
		w.Write([]byte(atraxaPage))
	})
	mux.HandleFunc("/pages/commanders/atraxa-praetors-voice.json", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("content-type", "application/json")
		w.Write([]byte(`{"header": "Atraxa", "container": {"json_dict": {"cardlists": []}}}`))
	})
	mux.HandleFunc("/pages/broken.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"header": `))
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server, opts ClientOptions) (*Client, *telemetry.MemoryAPI) {
	t.Helper()
	tel := telemetry.NewMemoryAPI()
	opts.BaseURL = server.URL
	opts.JSONBaseURL = server.URL + "/pages"
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = 1000
	}
	client, err := NewClient(opts, tel)
	require.NoError(t, err)
	return client, tel
}

func TestClientFetchPage(t *testing.T) {
	var hits atomic.Int64
	server := newTestServer(t, &hits)
	client, _ := newTestClient(t, server, ClientOptions{})

	page, err := client.FetchPage(context.Background(), "/commanders/atraxa-praetors-voice")
	require.NoError(t, err)
	require.Equal(t, server.URL+"/commanders/atraxa-praetors-voice", page.URL)
	require.Equal(t, http.StatusOK, page.Status)

	doc, err := page.Document()
	require.NoError(t, err)
	require.Equal(t, 3, doc.Find("a").Length())
	require.NoError(t, client.Probe(context.Background(), "/commanders/atraxa-praetors-voice"))
}

func TestClientNotFound(t *testing.T) {
	var hits atomic.Int64
	server := newTestServer(t, &hits)
	client, _ := newTestClient(t, server, ClientOptions{})

	_, err := client.FetchPage(context.Background(), "/commanders/nobody")
	require.True(t, errors.Is(err, ErrNotFound))
	require.Equal(t, "NOT_FOUND", AsError(err).Code)
	require.Equal(t, server.URL+"/commanders/nobody", AsError(err).URL)

	require.True(t, errors.Is(client.Probe(context.Background(), "/average-decks/nobody"), ErrNotFound))
}

func TestClientUpstreamStatus(t *testing.T) {
	var hits atomic.Int64
	server := newTestServer(t, &hits)
	client, _ := newTestClient(t, server, ClientOptions{})

	_, err := client.FetchPage(context.Background(), "/down")
	require.True(t, errors.Is(err, ErrUpstream))
	require.Equal(t, http.StatusServiceUnavailable, AsError(err).Status)
	require.EqualValues(t, 1, hits.Load())
}

func TestClientRetriesServerErrors(t *testing.T) {
	var hits atomic.Int64
	server := newTestServer(t, &hits)
	client, _ := newTestClient(t, server, ClientOptions{Retries: 2, RetryWait: time.Millisecond})

	_, err := client.FetchPage(context.Background(), "/down")
	require.True(t, errors.Is(err, ErrUpstream))
	require.EqualValues(t, 3, hits.Load())
}

func TestClientTimeout(t *testing.T) {
	var hits atomic.Int64
	server := newTestServer(t, &hits)
	client, _ := newTestClient(t, server, ClientOptions{Timeout: 50 * time.Millisecond})

	_, err := client.FetchPage(context.Background(), "/slow")
	require.True(t, errors.Is(err, ErrUpstream))
	require.True(t, strings.HasPrefix(AsError(err).Message, "Timeout fetching EDHREC page"))
	require.Zero(t, AsError(err).Status)
}

func TestClientCache(t *testing.T) {
	var hits atomic.Int64
	server := newTestServer(t, &hits)
	cache := &mapCache{}
	client, tel := newTestClient(t, server, ClientOptions{Cache: cache})

	for i := 0; i < 3; i++ {
		_, err := client.FetchPage(context.Background(), "/commanders/atraxa-praetors-voice")
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, hits.Load())
	require.True(t, tel.HasReport(telemetry.REPORT_COUNT, "client.cache-hit"))

	// failures are not cached
	for i := 0; i < 2; i++ {
		_, err := client.FetchPage(context.Background(), "/down")
		require.Error(t, err)
	}
	require.EqualValues(t, 3, hits.Load())
}

func TestClientFetchJSON(t *testing.T) {
	var hits atomic.Int64
	server := newTestServer(t, &hits)
	client, tel := newTestClient(t, server, ClientOptions{})

	root, page, err := client.FetchJSON(context.Background(), "/commanders/atraxa-praetors-voice.json")
	require.NoError(t, err)
	require.Equal(t, server.URL+"/pages/commanders/atraxa-praetors-voice.json", page.URL)
	require.Equal(t, "Atraxa", root.Get("header").Text())

	_, _, err = client.FetchJSON(context.Background(), "/broken.json")
	require.True(t, errors.Is(err, ErrUpstream))
	require.Equal(t, "Invalid JSON from EDHREC", AsError(err).Message)
	require.True(t, tel.HasReport(telemetry.REPORT_WARNING, "client.decode"))
}

func TestClientRedirectOffPathIsNotFound(t *testing.T) {
	upstream := testutil.NewUpstream(t, map[string]testutil.Route{
		"/average-decks/atraxa-praetors-voice":      testutil.HTML("ALL DECK"),
		"/average-decks/atraxa-praetors-voice/core": testutil.Redirect("/average-decks/atraxa-praetors-voice"),
	})
	cache := &mapCache{}
	client, tel := newTestClient(t, upstream.Server, ClientOptions{Cache: cache})

	err := client.Probe(context.Background(), "/average-decks/atraxa-praetors-voice/core")
	require.True(t, errors.Is(err, ErrNotFound))
	require.Contains(t, AsError(err).Message, "/average-decks/atraxa-praetors-voice")
	require.True(t, tel.HasReport(telemetry.REPORT_DEBUG, "client.redirect"))

	_, err = client.FetchPage(context.Background(), "/average-decks/atraxa-praetors-voice/core")
	require.True(t, errors.Is(err, ErrNotFound))
	require.Empty(t, cache.bodies)

	page, err := client.FetchPage(context.Background(), "/average-decks/atraxa-praetors-voice")
	require.NoError(t, err)
	require.Equal(t, "ALL DECK", string(page.Body))
}
