package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/mqforge/busadmin/pkg/paging"
)

// newListServer serves /indexers with $skip/$top windowing and a nextLink
// while more records remain.
func newListServer(t *testing.T, total int) (*httptest.Server, *int) {
	t.Helper()
	requests := 0
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("api-key") != "test-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		skip, _ := strconv.Atoi(r.URL.Query().Get("$skip"))
		top, _ := strconv.Atoi(r.URL.Query().Get("$top"))
		if top <= 0 {
			top = 50
		}

		type envelope struct {
			Value    []Indexer `json:"value"`
			NextLink string    `json:"@odata.nextLink,omitempty"`
		}
		var resp envelope
		for i := skip; i < total && i < skip+top; i++ {
			resp.Value = append(resp.Value, Indexer{
				Name:            fmt.Sprintf("indexer-%02d", i),
				DataSourceName:  "ds",
				TargetIndexName: "idx",
			})
		}
		if skip+len(resp.Value) < total {
			resp.NextLink = fmt.Sprintf("%s/indexers?$skip=%d&$top=%d", server.URL, skip+len(resp.Value), top)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	return server, &requests
}

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	client, err := New(Config{Endpoint: endpoint, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{Endpoint: "https://svc.example.net", APIKey: "k"}, false},
		{"missing endpoint", Config{APIKey: "k"}, true},
		{"missing api key", Config{Endpoint: "https://svc.example.net"}, true},
		{"relative endpoint", Config{Endpoint: "svc.example.net", APIKey: "k"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestListIndexersByPage_WalksNextLinks(t *testing.T) {
	server, requests := newListServer(t, 5)
	defer server.Close()

	client := newTestClient(t, server.URL)
	pager, err := client.ListIndexersByPage(&ListOptions{MaxPageSize: 2})
	if err != nil {
		t.Fatalf("ListIndexersByPage() error = %v", err)
	}

	ctx := context.Background()
	var sizes []int
	var tokens []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			t.Fatalf("NextPage() error = %v", err)
		}
		sizes = append(sizes, len(page.Items))
		tokens = append(tokens, page.ContinuationToken)
	}

	wantSizes := []int{2, 2, 1}
	wantTokens := []string{"2", "4", ""}
	for i := range wantSizes {
		if sizes[i] != wantSizes[i] || tokens[i] != wantTokens[i] {
			t.Errorf("page %d = (%d, %q), want (%d, %q)", i, sizes[i], tokens[i], wantSizes[i], wantTokens[i])
		}
	}
	if *requests != 3 {
		t.Errorf("requests = %d, want 3", *requests)
	}
}

func TestListIndexers_ResumeFromToken(t *testing.T) {
	server, _ := newListServer(t, 5)
	defer server.Close()

	client := newTestClient(t, server.URL)
	items, err := client.ListIndexers(&ListOptions{MaxPageSize: 2, ContinuationToken: "2"})
	if err != nil {
		t.Fatalf("ListIndexers() error = %v", err)
	}
	got, err := items.All(context.Background())
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("items = %d, want 3", len(got))
	}
	if got[0].Name != "indexer-02" {
		t.Errorf("first item = %q, want indexer-02", got[0].Name)
	}
}

func TestListIndexers_InvalidTokenFailsBeforeRequest(t *testing.T) {
	server, requests := newListServer(t, 3)
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.ListIndexersByPage(&ListOptions{ContinuationToken: "abc"})
	if !errors.Is(err, paging.ErrInvalidContinuationToken) {
		t.Errorf("error = %v, want ErrInvalidContinuationToken", err)
	}
	if *requests != 0 {
		t.Errorf("requests = %d, want 0", *requests)
	}
}

func TestGetIndexer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/indexers/nightly" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Indexer{
			Name:            "nightly",
			DataSourceName:  "orders-db",
			TargetIndexName: "orders-index",
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	indexer, err := client.GetIndexer(context.Background(), "nightly")
	if err != nil {
		t.Fatalf("GetIndexer() error = %v", err)
	}
	if indexer.DataSourceName != "orders-db" {
		t.Errorf("DataSourceName = %q, want orders-db", indexer.DataSourceName)
	}

	_, err = client.GetIndexer(context.Background(), "missing")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", statusErr.StatusCode)
	}
}

func TestCreateAndDeleteIndexer(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		switch r.Method {
		case http.MethodPut:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			var indexer Indexer
			json.NewDecoder(r.Body).Decode(&indexer)
			json.NewEncoder(w).Encode(indexer)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	created, err := client.CreateIndexer(ctx, &Indexer{Name: "nightly", DataSourceName: "ds", TargetIndexName: "idx"})
	if err != nil {
		t.Fatalf("CreateIndexer() error = %v", err)
	}
	if created.Name != "nightly" {
		t.Errorf("Name = %q, want nightly", created.Name)
	}
	if gotMethod != http.MethodPut || gotPath != "/indexers/nightly" {
		t.Errorf("request = %s %s, want PUT /indexers/nightly", gotMethod, gotPath)
	}

	if err := client.DeleteIndexer(ctx, "nightly"); err != nil {
		t.Fatalf("DeleteIndexer() error = %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method = %s, want DELETE", gotMethod)
	}
}

func TestListSynonymMaps(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/synonymmaps" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value": [{"name": "colors", "format": "solr", "synonyms": "red, crimson"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	items, err := client.ListSynonymMaps(nil)
	if err != nil {
		t.Fatalf("ListSynonymMaps() error = %v", err)
	}
	got, err := items.All(context.Background())
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "colors" {
		t.Errorf("synonym maps = %+v, want one named colors", got)
	}
	if got[0].Synonyms != "red, crimson" {
		t.Errorf("Synonyms = %q, want rule list", got[0].Synonyms)
	}
}
