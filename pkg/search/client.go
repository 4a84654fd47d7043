// Package search manages search-service resources: indexers and synonym
// maps. The service speaks JSON instead of Atom but shares the skip-based
// listing protocol, so the pagination core is reused unchanged.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mqforge/busadmin/pkg/paging"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "busadmin_search_requests_total",
		Help: "Total search-service requests by resource kind and status",
	}, []string{"resource", "status"})

	pagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "busadmin_search_pages_fetched_total",
		Help: "Search listing pages fetched by resource kind",
	}, []string{"resource"})
)

// DefaultAPIVersion is sent as the api-version query parameter.
const DefaultAPIVersion = "2020-06-30"

// DefaultPageSize is the $top hint used by listings when the caller gives none.
const DefaultPageSize = 50

// Doer executes a single HTTP round trip.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the management client for one search service.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient Doer
	config     Config
	logger     zerolog.Logger
}

// Config holds the search client configuration.
type Config struct {
	// Endpoint is the service base URL, e.g. "https://svc.example.net".
	Endpoint string

	// APIKey authenticates requests via the api-key header.
	APIKey string

	// HTTPClient overrides the transport.
	HTTPClient Doer

	// APIVersion sent with every request.
	APIVersion string

	// PageSize is the default $top hint for listings.
	PageSize int
}

// New creates a search management client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("endpoint %q is not an absolute URL", cfg.Endpoint)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}

	client := &Client{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		httpClient: cfg.HTTPClient,
		config:     cfg,
		logger:     log.With().Str("component", "search-client").Logger(),
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return client, nil
}

// StatusError is a non-2xx search-service response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search service error (status %d): %s", e.StatusCode, e.Message)
}

func (c *Client) do(ctx context.Context, method, path, resource string, query url.Values, body any) (*http.Response, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", c.config.APIVersion)
	target := c.endpoint + "/" + strings.Trim(path, "/") + "?" + query.Encode()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Msg("Executing search request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(resource, "network_error").Inc()
		return nil, err
	}
	requestsTotal.WithLabelValues(resource, strconv.Itoa(resp.StatusCode)).Inc()
	return resp, nil
}

func statusError(resp *http.Response) *StatusError {
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	message := resp.Status
	if len(excerpt) > 0 {
		message = fmt.Sprintf("%s: %s", resp.Status, excerpt)
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: message}
}

// listResponse is the JSON envelope of a listing page.
type listResponse struct {
	Value    []json.RawMessage `json:"value"`
	NextLink string            `json:"@odata.nextLink"`
}

// listPager builds a page iterator for one JSON collection. Records that fail
// to decode are dropped, mirroring the management client's listing behavior.
func listPager[T any](c *Client, path, resource string, opts *ListOptions) (*paging.Pager[T], error) {
	pagingOpts := paging.Options{PageSize: c.config.PageSize}
	if opts != nil {
		if opts.MaxPageSize > 0 {
			pagingOpts.PageSize = opts.MaxPageSize
		}
		pagingOpts.ContinuationToken = opts.ContinuationToken
	}

	fetch := func(ctx context.Context, skip, top int) (paging.Page[T], error) {
		var zero paging.Page[T]

		query := url.Values{}
		if skip > 0 {
			query.Set("$skip", strconv.Itoa(skip))
		}
		if top > 0 {
			query.Set("$top", strconv.Itoa(top))
		}

		resp, err := c.do(ctx, http.MethodGet, path, resource, query, nil)
		if err != nil {
			return zero, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return zero, statusError(resp)
		}

		var envelope listResponse
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return zero, fmt.Errorf("decode listing page: %w", err)
		}

		page := paging.Page[T]{
			ContinuationToken: paging.TokenFromNextLink(envelope.NextLink),
		}
		for _, raw := range envelope.Value {
			var item T
			if err := json.Unmarshal(raw, &item); err != nil {
				c.logger.Warn().
					Err(err).
					Str("resource", resource).
					Msg("Dropping listing record that failed to decode")
				continue
			}
			page.Items = append(page.Items, item)
		}

		pagesFetched.WithLabelValues(resource).Inc()
		return page, nil
	}

	return paging.NewPager(fetch, pagingOpts)
}

// ListOptions controls a listing sequence.
type ListOptions struct {
	// MaxPageSize is the $top hint per fetch. 0 uses the client default.
	MaxPageSize int

	// ContinuationToken resumes a page-mode listing.
	ContinuationToken string
}
