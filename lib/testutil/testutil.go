package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Route is a canned upstream answer.
type Route struct {
	Status      int
	ContentType string
	Body        string
	// Location is sent as the redirect target.
	Location string
}

func HTML(body string) Route {
	return Route{Status: http.StatusOK, ContentType: "text/html; charset=utf-8", Body: body}
}

func JSON(body string) Route {
	return Route{Status: http.StatusOK, ContentType: "application/json", Body: body}
}

func Status(code int) Route {
	return Route{Status: code}
}

// Redirect answers 302 pointing at location, which may be a bare path on
// the same upstream.
func Redirect(location string) Route {
	return Route{Status: http.StatusFound, Location: location}
}

// NextDataHTML wraps pageData in the __NEXT_DATA__ script of a Next.js page,
// under props.pageProps.data.
func NextDataHTML(pageData string) string {
	return `<html><head><title>EDHREC</title></head><body>` +
		`<script id="__NEXT_DATA__" type="application/json">` +
		`{"props": {"pageProps": {"data": ` + pageData + `}}, "buildId": "test"}` +
		`</script></body></html>`
}

// Upstream serves fixed routes, unknown paths answer 404. It counts hits per
// path.
type Upstream struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

func (u *Upstream) Hits(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

func NewUpstream(t testing.TB, routes map[string]Route) *Upstream {
	t.Helper()
	u := &Upstream{hits: map[string]int{}}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.hits[r.URL.Path]++
		u.mu.Unlock()

		route, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if route.Location != "" {
			w.Header().Set("location", route.Location)
		}
		if route.ContentType != "" {
			w.Header().Set("content-type", route.ContentType)
		}
		w.WriteHeader(route.Status)
		w.Write([]byte(route.Body))
	}))
	t.Cleanup(u.Close)
	return u
}
