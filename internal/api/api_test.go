package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mightstone-backend/internal/components/telemetry"
	"mightstone-backend/internal/scrapers/edhrec"
	"mightstone-backend/internal/scrapers/scryfall"
	"mightstone-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	err         error
	panics      bool
	deckReq     service.AverageDeckRequest
	themeReq    service.ThemeRequest
	searchLimit int
}

func (f *fakeService) SearchCards(_ context.Context, query string, limit int) ([]service.CardSummary, error) {
	f.searchLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []service.CardSummary{{Name: "Sol Ring", ID: "a", ColorIdentity: []string{}}}, nil
}

func (f *fakeService) CommanderSummary(_ context.Context, name, budget string) (service.CommanderSummary, error) {
	if f.panics {
		panic("summary exploded")
	}
	return service.CommanderSummary{Commander: name, Budget: budget}, f.err
}

func (f *fakeService) CommanderTags(_ context.Context, name string) (service.CommanderTags, error) {
	return service.CommanderTags{Commander: name, Tags: []string{"Counters"}}, f.err
}

func (f *fakeService) AverageDeck(_ context.Context, req service.AverageDeckRequest) (service.AverageDeck, error) {
	f.deckReq = req
	if f.err != nil {
		return service.AverageDeck{}, f.err
	}
	return service.AverageDeck{DeckListResult: edhrec.DeckListResult{
		Commander: req.Commander,
		Bracket:   "upgraded",
		Cards:     []edhrec.DeckCard{{Name: "Sol Ring", Qty: 1}},
	}}, nil
}

func (f *fakeService) Resolve(_ context.Context, commander, bracket string) (edhrec.Resolution, error) {
	return edhrec.Resolution{Commander: commander}, f.err
}

func (f *fakeService) Theme(_ context.Context, req service.ThemeRequest) (service.ThemePage, error) {
	f.themeReq = req
	return service.ThemePage{Tag: req.Tag}, f.err
}

func (f *fakeService) CommanderTheme(_ context.Context, req service.CommanderThemeRequest) (service.ThemePage, error) {
	return service.ThemePage{Tag: req.Tag, Commander: req.Commander}, f.err
}

func (f *fakeService) TagIndex(context.Context) ([]edhrec.TagIndexEntry, error) {
	return []edhrec.TagIndexEntry{{Name: "Counters", Slug: "counters"}}, f.err
}

func (f *fakeService) Brackets() []string {
	return []string{"all", "1"}
}

func newRouter(svc *fakeService) (*gin.Engine, *telemetry.MemoryAPI) {
	gin.SetMode(gin.TestMode)
	tel := telemetry.NewMemoryAPI()
	return NewRouter(NewHandler(svc, tel)), tel
}

func get(t *testing.T, r http.Handler, target string, headers ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestHealthAndRequestID(t *testing.T) {
	r, _ := newRouter(&fakeService{})

	rec, body := get(t, r, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["ok"])
	require.Len(t, rec.Header().Get(HeaderRequestID), 36)

	rec, _ = get(t, r, "/health", HeaderRequestID, "abc-123")
	require.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
}

func TestErrorStatuses(t *testing.T) {
	timeout := edhrec.NewUpstreamError("https://edhrec.test/x", 0, "Timeout fetching EDHREC page", context.DeadlineExceeded)

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", edhrec.NewValidationError("NAME_REQUIRED", "Commander name is required"), http.StatusBadRequest, "NAME_REQUIRED"},
		{"not found", edhrec.NewNotFoundError("https://edhrec.test/x", "missing"), http.StatusNotFound, "NOT_FOUND"},
		{"upstream", edhrec.NewUpstreamError("https://edhrec.test/x", 503, "down", nil), http.StatusBadGateway, "UPSTREAM_ERROR"},
		{"timeout", timeout, http.StatusGatewayTimeout, "UPSTREAM_ERROR"},
		{"foreign", errors.New("boom"), http.StatusBadGateway, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newRouter(&fakeService{err: tc.err})
			rec, body := get(t, r, "/commander/tags?name=Atraxa")
			require.Equal(t, tc.status, rec.Code)

			payload, ok := body["error"].(map[string]any)
			require.True(t, ok)
			if tc.code == "" {
				require.NotContains(t, payload, "code")
				return
			}
			require.Equal(t, tc.code, payload["code"])
		})
	}
}

func TestAverageDeckErrorKeepsDeckShape(t *testing.T) {
	e := edhrec.NewNotFoundError("https://edhrec.test/average-decks/atraxa-praetors-voice/core", "Bracket 'core' is not available")
	e.Code = "BRACKET_UNAVAILABLE"
	e.Available = []string{"all", "upgraded"}
	r, _ := newRouter(&fakeService{err: e})

	rec, body := get(t, r, "/edhrec/average-deck?name=Atraxa&bracket=2")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Atraxa", body["commander"])
	require.Equal(t, []any{}, body["cards"])

	payload := body["error"].(map[string]any)
	require.Equal(t, "BRACKET_UNAVAILABLE", payload["code"])
	require.Equal(t, []any{"all", "upgraded"}, payload["available_brackets"])
}

func TestAverageDeckQuery(t *testing.T) {
	svc := &fakeService{}
	r, _ := newRouter(svc)

	rec, body := get(t, r, "/edhrec/average-deck?name=Atraxa&bracket=3&hydrate=true&images=1&image_size=large")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "upgraded", body["bracket"])
	require.Equal(t, service.AverageDeckRequest{
		Commander: "Atraxa",
		Bracket:   "3",
		HydrateOptions: service.HydrateOptions{
			Hydrate:       true,
			IncludeImages: true,
			ImageSize:     scryfall.ImageLarge,
		},
	}, svc.deckReq)

	rec, body = get(t, r, "/edhrec/average-deck?name=Atraxa&image_size=huge")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "IMAGE_SIZE_UNSUPPORTED", body["error"].(map[string]any)["code"])
}

func TestThemeQuery(t *testing.T) {
	svc := &fakeService{}
	r, _ := newRouter(svc)

	rec, body := get(t, r, "/edhrec/theme?name=counters&identity=simic&hydrate=yes")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "counters", body["tag"])
	require.Equal(t, service.ThemeRequest{
		Tag:            "counters",
		Identity:       "simic",
		HydrateOptions: service.HydrateOptions{Hydrate: true},
	}, svc.themeReq)
}

func TestSearchLimit(t *testing.T) {
	svc := &fakeService{}
	r, _ := newRouter(svc)

	rec, body := get(t, r, "/cards/search?q=sol")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body["cards"], 1)
	require.Equal(t, service.DefaultSearchLimit, svc.searchLimit)

	get(t, r, "/cards/search?q=sol&limit=7")
	require.Equal(t, 7, svc.searchLimit)

	get(t, r, "/cards/search?q=sol&limit=lots")
	require.Equal(t, service.DefaultSearchLimit, svc.searchLimit)
}

func TestListings(t *testing.T) {
	r, _ := newRouter(&fakeService{})

	_, body := get(t, r, "/edhrec/brackets")
	require.Equal(t, []any{"all", "1"}, body["brackets"])

	_, body = get(t, r, "/edhrec/tags")
	require.Len(t, body["tags"], 1)

	_, body = get(t, r, "/edhrec/commander-theme?name=Atraxa&tag=counters")
	require.Equal(t, "Atraxa", body["commander"])
}

func TestRecovery(t *testing.T) {
	r, tel := newRouter(&fakeService{panics: true})

	rec, body := get(t, r, "/commander/summary?name=Atraxa")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "INTERNAL", body["error"].(map[string]any)["code"])
	require.True(t, tel.HasReport(telemetry.REPORT_BROKEN, report_request_panic))
}
