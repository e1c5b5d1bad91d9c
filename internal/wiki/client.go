// Package wiki is a read-only client for a Confluence-style REST API.
//
// It enumerates global spaces, the pages of a space (offset pagination
// terminated by the absence of a next link) and fetches storage-format page
// bodies. Requests are sequential, bounded by a per-request timeout and
// optionally rate limited. Every failure is an AppError in the transport
// category; nothing is retried.
package wiki

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/copetopi/wikisearch/internal/errors"
)

const (
	// DefaultSpaceLimit is the limit of the single space listing request.
	DefaultSpaceLimit = 100
	// DefaultPageLimit is the page size used for page enumeration.
	DefaultPageLimit = 50
	// DefaultTimeout bounds each request.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of a failed response is kept for the error.
	maxErrorBody = 512
)

// Config configures a Client.
type Config struct {
	// BaseURL is the REST API root, e.g. https://host/confluence/rest/api.
	BaseURL string
	// SpaceLimit is passed as limit to the space listing.
	SpaceLimit int
	// PageLimit is the offset step of page enumeration.
	PageLimit int
	// MaxPagesPerSpace fails enumeration of a space that yields more pages. 0 = unlimited.
	MaxPagesPerSpace int
	// Timeout bounds each request.
	Timeout time.Duration
	// RequestsPerSecond throttles requests. 0 = unlimited.
	RequestsPerSecond float64
	UserAgent         string

	// HTTPClient overrides the default client. Its Transport is used as is.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the wiki REST API.
type Client struct {
	base    string
	http    *http.Client
	limiter *rate.Limiter
	cfg     Config
	logger  *slog.Logger
}

// NewClient creates a client for cfg.BaseURL.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if u, err := url.Parse(base); err != nil || u.Host == "" {
		return nil, apperrors.ConfigError(fmt.Sprintf("invalid wiki base URL %q", cfg.BaseURL), err)
	}

	if cfg.SpaceLimit <= 0 {
		cfg.SpaceLimit = DefaultSpaceLimit
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = DefaultPageLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Timeouts are applied per request through the context
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     10 * time.Second,
			},
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		base:   base,
		http:   httpClient,
		cfg:    cfg,
		logger: logger,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// getJSON issues one GET for path with query and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	// path segments are escaped by the caller
	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return apperrors.InternalError("failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return c.classify(ctx, target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("wiki_request",
		slog.String("url", target),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return apperrors.TransportError(apperrors.ErrCodeHTTPStatus,
			fmt.Sprintf("GET %s returned status %d", target, resp.StatusCode), nil).
			WithDetail("url", target).
			WithDetail("status", fmt.Sprint(resp.StatusCode)).
			WithDetail("body", strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if reqCtx.Err() != nil {
			return c.classify(ctx, target, err)
		}
		return apperrors.TransportError(apperrors.ErrCodeMalformedResponse,
			fmt.Sprintf("GET %s returned an undecodable body", target), err).
			WithDetail("url", target)
	}

	return nil
}

// classify maps a failed round trip to a transport error.
// Cancellation of the caller's context is returned as is.
func (c *Client) classify(parent context.Context, target string, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("GET %s: %w", target, parent.Err())
	}

	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.TransportError(apperrors.ErrCodeNetworkTimeout,
			fmt.Sprintf("GET %s timed out after %s", target, c.cfg.Timeout), err).
			WithDetail("url", target).
			WithSuggestion("Raise source.request_timeout or check the wiki's availability")
	}

	return apperrors.TransportError(apperrors.ErrCodeNetworkUnavailable,
		fmt.Sprintf("GET %s failed", target), err).
		WithDetail("url", target).
		WithSuggestion("Check network access to source.base_url")
}
