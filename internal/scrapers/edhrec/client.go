package edhrec

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mightstone-backend/internal/components/assert"
	"mightstone-backend/internal/components/telemetry"
	"mightstone-backend/internal/tree"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_fetch     = "client.fetch"
	report_client_cache_hit = "client.cache-hit"
	report_client_decode    = "client.decode"
	report_client_redirect  = "client.redirect"
)

const (
	DefaultBaseURL     = "https://edhrec.com"
	DefaultJSONBaseURL = "https://json.edhrec.com"
	DefaultUserAgent   = "MightstoneBot/1.0"
	DefaultTimeout     = 12 * time.Second
)

// BodyCache stores raw upstream bodies keyed by URL.
type BodyCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
}

// PageFetcher is what the resolver needs from the network.
type PageFetcher interface {
	// FetchPage GETs a path on the site. A missing page is an *Error of
	// KindNotFound, any other failure one of KindUpstream.
	FetchPage(ctx context.Context, path string) (Page, error)
	// Probe checks that a path exists, with the same error contract. Both
	// treat a redirect to a different path as a missing page.
	Probe(ctx context.Context, path string) error
	URL(path string) string
}

type Page struct {
	URL    string
	Status int
	Body   []byte
}

func (p Page) Document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	if err != nil {
		return nil, NewUpstreamError(p.URL, p.Status, "Could not parse EDHREC HTML", err)
	}
	return doc, nil
}

type ClientOptions struct {
	BaseURL     string
	JSONBaseURL string
	UserAgent   string
	Timeout     time.Duration
	// Retries applies to 429 and 5xx answers only.
	Retries           int
	RetryWait         time.Duration
	RequestsPerSecond float64
	Cache             BodyCache
}

type Client struct {
	http        *resty.Client
	baseURL     string
	jsonBaseURL string
	timeout     time.Duration
	cache       BodyCache
	tel         telemetry.API
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("edhrec", tel)

	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.JSONBaseURL == "" {
		opts.JSONBaseURL = DefaultJSONBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 800 * time.Millisecond
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 4
	}
	for _, base := range []string{opts.BaseURL, opts.JSONBaseURL} {
		if _, err := url.Parse(base); err != nil {
			return nil, fmt.Errorf("edhrec: parse base url: %w", err)
		}
	}

	httpClient := resty.New()
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	httpClient.SetHeader("user-agent", opts.UserAgent)
	httpClient.SetHeader("accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	httpClient.SetTimeout(opts.Timeout)

	httpClient.SetRetryCount(opts.Retries)
	httpClient.SetRetryWaitTime(opts.RetryWait)
	httpClient.SetRetryMaxWaitTime(4 * opts.RetryWait)
	httpClient.AddRetryCondition(func(res *resty.Response, err error) bool {
		if res == nil {
			return false
		}
		status := res.StatusCode()
		return status == http.StatusTooManyRequests || status >= 500
	})

	// requests wait for a token, none are dropped
	rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 2)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel)

	return &Client{
		http:        httpClient,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		jsonBaseURL: strings.TrimRight(opts.JSONBaseURL, "/"),
		timeout:     opts.Timeout,
		cache:       opts.Cache,
		tel:         tel,
	}, nil
}

// HTTP exposes the underlying client for instrumentation.
func (c *Client) HTTP() *resty.Client {
	return c.http
}

func (c *Client) URL(path string) string {
	return c.baseURL + path
}

func (c *Client) JSONURL(path string) string {
	return c.jsonBaseURL + path
}

func (c *Client) FetchPage(ctx context.Context, path string) (Page, error) {
	return c.fetch(ctx, c.URL(path))
}

func (c *Client) Probe(ctx context.Context, path string) error {
	_, err := c.fetch(ctx, c.URL(path))
	return err
}

// FetchJSON GETs a path on the JSON API and decodes the body.
func (c *Client) FetchJSON(ctx context.Context, path string) (tree.Node, Page, error) {
	page, err := c.fetch(ctx, c.JSONURL(path))
	if err != nil {
		return tree.Node{}, page, err
	}
	root, err := tree.Parse(page.Body)
	if err != nil {
		c.tel.ReportWarning(report_client_decode, err, page.URL)
		return tree.Node{}, page, NewUpstreamError(page.URL, page.Status, "Invalid JSON from EDHREC", err)
	}
	return root, page, nil
}

func (c *Client) fetch(ctx context.Context, target string) (Page, error) {
	if c.cache != nil {
		if body, ok := c.cache.Get(ctx, target); ok {
			c.tel.ReportCount(report_client_cache_hit, 1)
			return Page{URL: target, Status: http.StatusOK, Body: body}, nil
		}
	}

	res, err := c.http.R().SetContext(ctx).Get(target)
	if err != nil {
		message := "Network error talking to EDHREC"
		if IsTimeout(err) {
			message = fmt.Sprintf("Timeout fetching EDHREC page after %s", c.timeout)
		}
		c.tel.ReportWarning(report_client_fetch, err, target)
		return Page{URL: target}, NewUpstreamError(target, 0, message, err)
	}

	page := Page{URL: target, Status: res.StatusCode(), Body: res.Body()}
	if landed, moved := redirectedAway(res, target); moved {
		// unpublished buckets redirect to the commander's "all" deck
		c.tel.ReportDebug(report_client_redirect, target, landed)
		return Page{URL: target, Status: http.StatusNotFound}, NewNotFoundError(target, "EDHREC redirected to "+landed)
	}
	switch {
	case page.Status == http.StatusNotFound:
		return page, NewNotFoundError(target, "Page not found on EDHREC")
	case !res.IsSuccess():
		return page, NewUpstreamError(target, page.Status, fmt.Sprintf("Unexpected response status %d", page.Status), nil)
	}

	if c.cache != nil {
		c.cache.Set(ctx, target, page.Body)
	}
	return page, nil
}

// redirectedAway reports whether the response was served for a different
// path than target, returning where it landed.
func redirectedAway(res *resty.Response, target string) (string, bool) {
	if res.RawResponse == nil || res.RawResponse.Request == nil || res.RawResponse.Request.URL == nil {
		return "", false
	}
	requested, err := url.Parse(target)
	if err != nil {
		return "", false
	}
	final := res.RawResponse.Request.URL
	if strings.TrimSuffix(final.Path, "/") == strings.TrimSuffix(requested.Path, "/") {
		return "", false
	}
	return final.String(), true
}
