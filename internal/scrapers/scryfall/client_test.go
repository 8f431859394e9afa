package scryfall

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"mightstone-backend/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

const solRing = `{
	"object": "card",
	"id": "4cbc6901-6a4a-4d0a-83ea-7eefa3b35021",
	"name": "Sol Ring",
	"type_line": "Artifact",
	"cmc": 1,
	"color_identity": [],
	"image_uris": {"small": "https://cards.test/small/sol.jpg", "normal": "https://cards.test/normal/sol.jpg"}
}`

func newScryfallServer(t *testing.T) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/cards/named", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		switch r.URL.Query().Get("exact") {
		case "Sol Ring":
			w.Write([]byte(solRing))
		case "Broken":
			w.Write([]byte(`{"object": "card", "id": `))
		case "Overloaded":
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"object": "error", "code": "unavailable", "status": 503, "details": "try later"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"object": "error", "code": "not_found", "status": 404}`))
		}
	})
	mux.HandleFunc("/cards/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		q := r.URL.Query().Get("q")
		if q == "nothing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `{"data": [{"id": "c", "name": "Card C"}, {"id": "d", "name": "Card D"}], "has_more": false}`)
			return
		}
		fmt.Fprintf(w, `{"data": [{"id": "a", "name": "Card A"}, {"id": "b", "name": "Card B"}], "has_more": true, "next_page": "%s/cards/search?q=%s&page=2"}`, server.URL, q)
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(server *httptest.Server) (*Client, *telemetry.MemoryAPI) {
	tel := telemetry.NewMemoryAPI()
	return NewClient(ClientOptions{BaseURL: server.URL, RequestsPerSecond: 1000}, tel), tel
}

func TestNamed(t *testing.T) {
	client, _ := newTestClient(newScryfallServer(t))

	card, err := client.Named(context.Background(), "Sol Ring")
	require.NoError(t, err)
	require.Equal(t, "4cbc6901-6a4a-4d0a-83ea-7eefa3b35021", card.ID)
	require.Equal(t, "https://cards.test/small/sol.jpg", card.ImageURL(ImageSmall))
	require.Empty(t, card.ImageURL(ImageArtCrop))
}

func TestNamedFailures(t *testing.T) {
	client, tel := newTestClient(newScryfallServer(t))
	ctx := context.Background()

	_, err := client.Named(ctx, "Not A Card")
	require.True(t, errors.Is(err, ErrNotFound))

	_, err = client.Named(ctx, "Broken")
	require.True(t, errors.Is(err, ErrMalformed))

	_, err = client.Named(ctx, "Overloaded")
	var status *StatusError
	require.True(t, errors.As(err, &status))
	require.Equal(t, http.StatusServiceUnavailable, status.Status)
	require.Equal(t, "try later", status.Details)

	require.True(t, tel.HasReport(telemetry.REPORT_DEBUG, "client.named"))
}

func TestSearchFollowsPages(t *testing.T) {
	client, _ := newTestClient(newScryfallServer(t))

	cards, err := client.Search(context.Background(), "t:artifact", 3)
	require.NoError(t, err)
	var names []string
	for _, c := range cards {
		names = append(names, c.Name)
	}
	require.Equal(t, []string{"Card A", "Card B", "Card C"}, names)

	cards, err = client.Search(context.Background(), "t:artifact", 2)
	require.NoError(t, err)
	require.Len(t, cards, 2)
}

func TestSearchNoResults(t *testing.T) {
	client, _ := newTestClient(newScryfallServer(t))

	cards, err := client.Search(context.Background(), "nothing", 10)
	require.NoError(t, err)
	require.NotNil(t, cards)
	require.Empty(t, cards)
}
