// Package crossref looks up bibliographic metadata in the CrossRef REST API
// and compares it with local entries.
package crossref

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the CrossRef REST API base URL.
	BaseURL = "https://api.crossref.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	// RateLimit is the default number of requests per second.
	RateLimit = 10.0

	// DefaultRows is how many search results are compared per lookup.
	DefaultRows = 3

	// searchFields are the fields requested from search queries.
	searchFields = "title,author,published,issued,container-title,volume,issue,page,DOI,publisher,type,ISSN"

	userAgent = "bibcheck/1.0"
)

// Cache stores raw response bodies by request URL.
type Cache interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, body []byte) error
}

// Client is a rate-limited HTTP client for the CrossRef API. It is safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	mailto     string
	cache      Cache
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithMailto sets the contact address sent with every request, which places
// the client in CrossRef's polite pool.
func WithMailto(addr string) ClientOption {
	return func(c *Client) {
		c.mailto = addr
	}
}

// WithRate sets the request rate limit in requests per second.
func WithRate(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCache serves repeated requests from cache.
func WithCache(cache Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// NewClient creates a new CrossRef API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "crossref-client")
	return c
}

// GetWork retrieves the work registered under doi.
func (c *Client) GetWork(ctx context.Context, doi string) (*Work, error) {
	body, err := c.get(ctx, c.baseURL+"/works/"+url.PathEscape(doi))
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			apiErr.DOI = doi
		}
		return nil, err
	}

	var resp workResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parsing work: %v", ErrInvalidResponse, err)
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidResponse, resp.Status)
	}
	return &resp.Message, nil
}

// SearchWorks runs a bibliographic query and returns up to rows works.
func (c *Client) SearchWorks(ctx context.Context, query string, rows int) ([]Work, error) {
	if rows <= 0 {
		rows = DefaultRows
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("rows", strconv.Itoa(rows))
	params.Set("select", searchFields)

	body, err := c.get(ctx, c.baseURL+"/works?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parsing search results: %v", ErrInvalidResponse, err)
	}
	return resp.Message.Items, nil
}

// get fetches u, consulting the cache first. Only successful responses are
// cached.
func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	if c.cache != nil {
		body, ok, err := c.cache.Get(u)
		if err != nil {
			c.logger.Debug("cache read failed", "url", u, "error", err)
		} else if ok {
			return body, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	ua := userAgent
	if c.mailto != "" {
		ua += " (mailto:" + c.mailto + ")"
		q := req.URL.Query()
		q.Set("mailto", c.mailto)
		req.URL.RawQuery = q.Encode()
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
	}

	if c.cache != nil {
		if err := c.cache.Put(u, body); err != nil {
			c.logger.Debug("cache write failed", "url", u, "error", err)
		}
	}
	return body, nil
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", ErrNotFound, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 400:
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		}
	}
	return nil
}
