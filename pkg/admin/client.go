// Package admin provides the management client for messaging namespaces:
// CRUD and paginated listing for queues, topics, subscriptions and rules over
// the Atom-based HTTP management API.
package admin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mqforge/busadmin/pkg/atom"
	"github.com/mqforge/busadmin/pkg/auth"
	"github.com/mqforge/busadmin/pkg/cache"
	"github.com/mqforge/busadmin/pkg/throttle"
)

// Prometheus metrics for management requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "busadmin_requests_total",
		Help: "Total management requests by resource kind and status",
	}, []string{"resource", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "busadmin_request_duration_seconds",
		Help:    "Management request duration in seconds by resource kind",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"resource"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "busadmin_errors_total",
		Help: "Total management errors by class",
	}, []string{"class"})

	pagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "busadmin_pages_fetched_total",
		Help: "List pages fetched by resource kind",
	}, []string{"resource"})

	entriesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "busadmin_entries_dropped_total",
		Help: "Feed entries dropped because the per-record decoder rejected them",
	}, []string{"resource"})
)

// DefaultAPIVersion is sent as the api-version query parameter.
const DefaultAPIVersion = "2021-05"

// DefaultPageSize is the $top hint used by listings when the caller gives none.
const DefaultPageSize = 100

// Doer executes a single HTTP round trip. It owns retries below this layer,
// TLS and proxy configuration; the client treats it as a black box.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the management client for one namespace.
type Client struct {
	endpoint   string
	httpClient Doer
	tokens     auth.TokenProvider
	throttle   *throttle.Tracker
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Endpoint is the namespace base URL, e.g. "https://ns.example.net".
	Endpoint string

	// TokenProvider signs outbound requests (SAS or bearer).
	TokenProvider auth.TokenProvider

	// HTTPClient overrides the transport (for testing or custom TLS/proxy).
	HTTPClient Doer

	// Redis enables the shared throttle window and the entity response
	// cache. Nil disables both; the client then neither gates nor caches.
	Redis *redis.Client

	// APIVersion sent with every request.
	APIVersion string

	// PageSize is the default $top hint for listings.
	PageSize int

	// UserAgent header value.
	UserAgent string

	// CacheTTL bounds how long entity reads are served from cache.
	CacheTTL time.Duration

	// Retry controls backoff for server/throttled/network failures.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration for a namespace endpoint.
func DefaultConfig(endpoint string, tokens auth.TokenProvider) Config {
	return Config{
		Endpoint:      endpoint,
		TokenProvider: tokens,
		APIVersion:    DefaultAPIVersion,
		PageSize:      DefaultPageSize,
		UserAgent:     "busadmin/0.1.0",
		CacheTTL:      5 * time.Minute,
		Retry:         DefaultRetryConfig(),
	}
}

// New creates a management client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("endpoint %q is not an absolute URL", cfg.Endpoint)
	}
	if cfg.TokenProvider == nil {
		return nil, fmt.Errorf("token provider is required")
	}

	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	logger := log.With().Str("component", "admin-client").Logger()

	client := &Client{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		httpClient: cfg.HTTPClient,
		tokens:     cfg.TokenProvider,
		config:     cfg,
		logger:     logger,
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Redis != nil {
		client.throttle = throttle.NewTracker(cfg.Redis, logger)
		client.cache = cache.NewManager(cfg.Redis, cfg.CacheTTL)
	}

	return client, nil
}

// NewFromConnectionString creates a client from a namespace connection string.
func NewFromConnectionString(cs string) (*Client, error) {
	provider, endpoint, err := auth.ParseConnectionString(cs)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	return New(DefaultConfig(endpoint, provider))
}

// buildURL joins the endpoint, entity path and query, always including the
// api-version parameter.
func (c *Client) buildURL(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", c.config.APIVersion)
	return c.endpoint + "/" + strings.Trim(path, "/") + "?" + query.Encode()
}

// do performs one management request with throttle gating, signing, retry and
// metrics. Responses with status >= 400 that are not retryable are returned
// to the caller for mapping; transport errors are returned unchanged.
func (c *Client) do(ctx context.Context, method, path, resource string, query url.Values, body []byte, header http.Header) (*http.Response, error) {
	target := c.buildURL(path, query)

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(resource).Observe(time.Since(startTime).Seconds())
	}()

	if c.throttle != nil {
		allowed, err := c.throttle.ShouldAllowRequest(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Throttle check failed, proceeding without gate")
		} else if !allowed {
			requestsTotal.WithLabelValues(resource, "throttle_blocked").Inc()
			return nil, &AdminError{
				StatusCode: http.StatusTooManyRequests,
				ErrorClass: ErrorClassThrottled,
				Message:    "request blocked: namespace throttle window active",
			}
		}
	}

	var resp *http.Response
	attempt := func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return &AdminError{ErrorClass: ErrorClassClient, Message: "build request", Err: err}
		}

		token, err := c.tokens.GetToken(ctx, c.endpoint+"/"+strings.Trim(path, "/"))
		if err != nil {
			return &AdminError{ErrorClass: ErrorClassClient, Message: "acquire token", Err: err}
		}
		req.Header.Set("Authorization", token)
		req.Header.Set("User-Agent", c.config.UserAgent)
		if body != nil {
			req.Header.Set("Content-Type", "application/atom+xml;type=entry;charset=utf-8")
		}
		for key, values := range header {
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}

		c.logger.Debug().
			Str("method", method).
			Str("path", path).
			Msg("Executing management request")

		r, reqErr := c.httpClient.Do(req)
		if reqErr != nil {
			c.logger.Error().Err(reqErr).Str("path", path).Msg("HTTP request failed")
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			requestsTotal.WithLabelValues(resource, "network_error").Inc()
			return reqErr
		}

		if c.throttle != nil {
			if err := c.throttle.UpdateFromResponse(ctx, r); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update throttle state")
			}
		}

		if r.StatusCode >= 400 {
			errClass := classifyStatus(r.StatusCode)
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			requestsTotal.WithLabelValues(resource, fmt.Sprintf("%d", r.StatusCode)).Inc()

			c.logger.Warn().
				Str("path", path).
				Int("status", r.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Management request error")

			if shouldRetry(errClass) {
				adminErr := statusError(r)
				r.Body.Close()
				return adminErr
			}

			// 4xx responses are handed to the caller for mapping.
			resp = r
			return nil
		}

		requestsTotal.WithLabelValues(resource, fmt.Sprintf("%d", r.StatusCode)).Inc()
		resp = r
		return nil
	}

	err := retryWithBackoff(ctx, c.config.Retry, classifyError, attempt)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// classifyError maps an attempt error to its class; anything that is not an
// AdminError came from the transport.
func classifyError(err error) ErrorClass {
	if adminErr, ok := err.(*AdminError); ok {
		return adminErr.ErrorClass
	}
	return ErrorClassNetwork
}

// statusError builds an AdminError from an error response, keeping a short
// body excerpt for diagnostics.
func statusError(resp *http.Response) *AdminError {
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	message := resp.Status
	if len(excerpt) > 0 {
		message = fmt.Sprintf("%s: %s", resp.Status, excerpt)
	}
	return &AdminError{
		StatusCode: resp.StatusCode,
		ErrorClass: classifyStatus(resp.StatusCode),
		Message:    message,
	}
}

// getEntity reads a single entity, serving revalidated responses from cache
// when Redis is configured. An empty response body or empty feed means the
// entity does not exist.
func (c *Client) getEntity(ctx context.Context, path, resource string) (*atom.Entry, error) {
	key := cache.Key{Path: path, APIVersion: c.config.APIVersion}
	header := http.Header{}

	var cached *cache.Entry
	if c.cache != nil {
		if entry, err := c.cache.Get(ctx, key); err == nil {
			cached = entry
			if cache.CanRevalidate(cached) {
				cache.AddConditionalHeaders(header, cached)
				cache.ConditionalRequestsSent.Inc()
			}
		} else if err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("path", path).Msg("Cache get error")
		}
	}

	resp, err := c.do(ctx, http.MethodGet, path, resource, nil, nil, header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		cache.NotModifiedResponses.Inc()
		if err := c.cache.Refresh(ctx, key); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to refresh cache entry")
		}
		c.logger.Debug().Str("path", path).Msg("304 Not Modified, serving cached entity")
		return atom.ParseEntry(cached.Data, http.StatusOK)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, notFound(path)
	}
	if resp.StatusCode >= 400 {
		return nil, statusError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	entry, err := atom.ParseEntry(body, resp.StatusCode)
	if err == atom.ErrNoEntry {
		return nil, notFound(path)
	}
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		entryToCache := &cache.Entry{
			Data:       body,
			ETag:       resp.Header.Get("ETag"),
			StatusCode: resp.StatusCode,
			Headers:    resp.Header.Clone(),
			CachedAt:   time.Now(),
		}
		if lastModStr := resp.Header.Get("Last-Modified"); lastModStr != "" {
			if lastMod, err := http.ParseTime(lastModStr); err == nil {
				entryToCache.LastModified = lastMod
			}
		}
		if err := c.cache.Set(ctx, key, entryToCache); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache entity response")
		}
	}

	return entry, nil
}

// putEntity creates or updates an entity from a kind-specific payload.
// Updates send If-Match: * so a concurrent delete fails loudly instead of
// recreating the entity.
func (c *Client) putEntity(ctx context.Context, path, resource string, payload []byte, update bool) (*atom.Entry, error) {
	body, err := atom.WrapContent(payload)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if update {
		header.Set("If-Match", "*")
	}

	resp, err := c.do(ctx, http.MethodPut, path, resource, nil, body, header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, notFound(path)
	}
	if resp.StatusCode >= 400 {
		return nil, statusError(resp)
	}

	c.invalidate(ctx, path)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	entry, err := atom.ParseEntry(respBody, resp.StatusCode)
	if err == atom.ErrNoEntry {
		// Some servers answer a bare 200/201; the caller falls back to its
		// own payload.
		return nil, nil
	}
	return entry, err
}

// deleteEntity removes an entity.
func (c *Client) deleteEntity(ctx context.Context, path, resource string) error {
	resp, err := c.do(ctx, http.MethodDelete, path, resource, nil, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return notFound(path)
	}
	if resp.StatusCode >= 400 {
		return statusError(resp)
	}

	c.invalidate(ctx, path)
	return nil
}

// invalidate drops the cached description after a mutation.
func (c *Client) invalidate(ctx context.Context, path string) {
	if c.cache == nil {
		return
	}
	key := cache.Key{Path: path, APIVersion: c.config.APIVersion}
	if err := c.cache.Delete(ctx, key); err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("Failed to invalidate cache entry")
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client Doer) {
	c.httpClient = client
}
