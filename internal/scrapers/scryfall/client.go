package scryfall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mightstone-backend/internal/components/assert"
	"mightstone-backend/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_named  = "client.named"
	report_client_search = "client.search"
)

const (
	DefaultBaseURL   = "https://api.scryfall.com"
	DefaultUserAgent = "MightstoneBot/1.0"
	DefaultTimeout   = 10 * time.Second
	// Scryfall asks clients for 50-100ms between requests.
	DefaultRequestsPerSecond = 10
	DefaultSearchLimit       = 25
)

var (
	ErrNotFound  = errors.New("scryfall: not found")
	ErrMalformed = errors.New("scryfall: malformed response")
)

// StatusError is returned for non 2xx answers other than 404.
type StatusError struct {
	Status  int
	Code    string
	Details string
}

func (e *StatusError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("scryfall: status %d: %s", e.Status, e.Details)
	}
	return fmt.Sprintf("scryfall: status %d", e.Status)
}

type ClientOptions struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	Retries           int
	RequestsPerSecond float64
}

type Client struct {
	http *resty.Client
	tel  telemetry.API
}

func NewClient(opts ClientOptions, tel telemetry.API) *Client {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("scryfall", tel)

	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = DefaultRequestsPerSecond
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(strings.TrimRight(opts.BaseURL, "/"))
	httpClient.SetHeader("user-agent", opts.UserAgent)
	httpClient.SetHeader("accept", "application/json")
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetRetryCount(opts.Retries)
	httpClient.AddRetryCondition(func(res *resty.Response, err error) bool {
		return res != nil && (res.StatusCode() == http.StatusTooManyRequests || res.StatusCode() >= 500)
	})

	rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel)

	return &Client{http: httpClient, tel: tel}
}

func (c *Client) HTTP() *resty.Client {
	return c.http
}

func (c *Client) get(req *resty.Request, path string, out any) error {
	res, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("scryfall: get %s: %w", path, err)
	}
	if res.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	if !res.IsSuccess() {
		var body apiError
		_ = json.Unmarshal(res.Body(), &body)
		return &StatusError{Status: res.StatusCode(), Code: body.Code, Details: body.Details}
	}
	if err := json.Unmarshal(res.Body(), out); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformed, err.Error())
	}
	return nil
}

// Named looks up a card by its exact name.
func (c *Client) Named(ctx context.Context, name string) (Card, error) {
	var card Card
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("exact", name)
	err := c.get(req, "/cards/named", &card)
	if err != nil {
		c.tel.ReportDebug(report_client_named, name, err)
		return Card{}, err
	}
	if card.ID == "" {
		return Card{}, fmt.Errorf("%w: card '%s' has no id", ErrMalformed, name)
	}
	return card, nil
}

// Search runs a full text query and returns at most limit cards, following
// next_page links as needed. A query matching nothing is not an error.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Card, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	var cards []Card
	req := c.http.R().SetContext(ctx).SetQueryParam("q", query)
	path := "/cards/search"
	for {
		var page searchPage
		err := c.get(req, path, &page)
		if errors.Is(err, ErrNotFound) {
			break
		}
		if err != nil {
			c.tel.ReportWarning(report_client_search, query, err)
			return nil, err
		}

		cards = append(cards, page.Data...)
		if len(cards) >= limit || !page.HasMore || page.NextPage == "" {
			break
		}
		// next_page is absolute and already carries the query
		req = c.http.R().SetContext(ctx)
		path = page.NextPage
	}

	if len(cards) > limit {
		cards = cards[:limit]
	}
	if cards == nil {
		cards = []Card{}
	}
	return cards, nil
}
