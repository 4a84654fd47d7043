// Package testutil provides testing utilities for the management client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockEntity is one entity served by a mock collection: its name and the
// inner description XML placed in the entry content.
type MockEntity struct {
	Name    string
	Payload string
}

// MockAdmin is a configurable mock management server. Collections registered
// with AddCollection are served as Atom feeds with $skip/$top windowing and a
// rel="next" link while more entities remain.
type MockAdmin struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	ConditionalCount  int
	LastRequestHeader http.Header
}

// NewMockAdmin creates a new mock management server.
func NewMockAdmin() *MockAdmin {
	mock := &MockAdmin{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()

		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAdmin) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAdmin) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAdmin) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.LastRequestHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAdmin) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockAdmin) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// AddCollection serves a listing feed at path. Each request is windowed by
// the $skip and $top query parameters and a next link is emitted while
// entities remain past the window.
func (m *MockAdmin) AddCollection(path string, entities []MockEntity) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		skip, _ := strconv.Atoi(r.URL.Query().Get("$skip"))
		top, _ := strconv.Atoi(r.URL.Query().Get("$top"))
		if top <= 0 {
			top = 100
		}

		window := []MockEntity{}
		if skip < len(entities) {
			end := skip + top
			if end > len(entities) {
				end = len(entities)
			}
			window = entities[skip:end]
		}

		nextLink := ""
		if skip+len(window) < len(entities) {
			nextLink = fmt.Sprintf("%s%s?$skip=%d&$top=%d", m.server.URL, path, skip+len(window), top)
		}

		w.Header().Set("Content-Type", "application/atom+xml;type=feed;charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(RenderFeed(m.server.URL, window, nextLink)))
	})
}

// AddEntity serves a single-entity entry at path.
func (m *MockAdmin) AddEntity(path string, entity MockEntity) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusOK)
		case http.MethodPut:
			w.Header().Set("Content-Type", "application/atom+xml;type=entry;charset=utf-8")
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(RenderEntry(m.server.URL, entity)))
		default:
			w.Header().Set("Content-Type", "application/atom+xml;type=entry;charset=utf-8")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(RenderEntry(m.server.URL, entity)))
		}
	})
}

// defaultHandler answers unregistered paths with an empty feed for listing
// paths and 404 for everything else.
func (m *MockAdmin) defaultHandler(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.URL.Path, "$Resources") || strings.HasSuffix(r.URL.Path, "/Subscriptions") || strings.HasSuffix(r.URL.Path, "/Rules") {
		w.Header().Set("Content-Type", "application/atom+xml;type=feed;charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(RenderFeed(m.server.URL, nil, "")))
		return
	}
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`<Error><Code>404</Code><Detail>Entity not found</Detail></Error>`))
}

// RenderEntry renders one entity as a standalone Atom entry document.
func RenderEntry(baseURL string, entity MockEntity) string {
	return fmt.Sprintf(`<entry xmlns="http://www.w3.org/2005/Atom">`+
		`<id>%s/%s</id>`+
		`<title type="text">%s</title>`+
		`<content type="application/xml">%s</content>`+
		`</entry>`, baseURL, entity.Name, entity.Name, entity.Payload)
}

// RenderFeed renders a window of entities as an Atom feed, appending a
// rel="next" link when nextLink is non-empty.
func RenderFeed(baseURL string, entities []MockEntity, nextLink string) string {
	var b strings.Builder
	b.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom">`)
	b.WriteString(`<title type="text">Entities</title>`)
	if nextLink != "" {
		b.WriteString(fmt.Sprintf(`<link rel="next" href="%s"/>`, strings.ReplaceAll(nextLink, "&", "&amp;")))
	}
	for _, entity := range entities {
		b.WriteString(RenderEntry(baseURL, entity))
	}
	b.WriteString(`</feed>`)
	return b.String()
}

// QueuePayload builds a minimal queue description body for feed entries.
func QueuePayload(lockDuration string, maxDeliveryCount int) string {
	return fmt.Sprintf(`<QueueDescription xmlns="http://schemas.microsoft.com/netservices/2010/10/servicebus/connect">`+
		`<LockDuration>%s</LockDuration>`+
		`<MaxDeliveryCount>%d</MaxDeliveryCount>`+
		`<Status>Active</Status>`+
		`</QueueDescription>`, lockDuration, maxDeliveryCount)
}

// TopicPayload builds a minimal topic description body for feed entries.
func TopicPayload(maxSizeMB int) string {
	return fmt.Sprintf(`<TopicDescription xmlns="http://schemas.microsoft.com/netservices/2010/10/servicebus/connect">`+
		`<MaxSizeInMegabytes>%d</MaxSizeInMegabytes>`+
		`<Status>Active</Status>`+
		`</TopicDescription>`, maxSizeMB)
}

// NewThrottleResponse creates a 429 Too Many Requests response.
func NewThrottleResponse(retryAfterSeconds int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `<Error><Code>429</Code><Detail>Request rate limit exceeded</Detail></Error>`,
		Headers: map[string]string{
			"Retry-After":  strconv.Itoa(retryAfterSeconds),
			"Content-Type": "application/xml",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `<Error><Code>500</Code><Detail>Internal server error</Detail></Error>`,
		Headers: map[string]string{
			"Content-Type": "application/xml",
		},
	}
}

// NewConditionalHandler creates a handler that answers 304 when the request
// carries a matching If-None-Match, and the full entry otherwise.
func NewConditionalHandler(etag string, body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("ETag", etag)
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "application/atom+xml;type=entry;charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}
}
