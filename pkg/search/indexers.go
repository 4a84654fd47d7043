package search

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mqforge/busadmin/pkg/paging"
)

const resourceIndexers = "indexers"

// Indexer describes a data-ingestion pipeline from a data source into an
// index.
type Indexer struct {
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	DataSourceName  string           `json:"dataSourceName"`
	TargetIndexName string           `json:"targetIndexName"`
	SkillsetName    string           `json:"skillsetName,omitempty"`
	Schedule        *IndexerSchedule `json:"schedule,omitempty"`
	Parameters      map[string]any   `json:"parameters,omitempty"`
	FieldMappings   []FieldMapping   `json:"fieldMappings,omitempty"`
	IsDisabled      bool             `json:"disabled,omitempty"`
	ETag            string           `json:"@odata.etag,omitempty"`
}

// IndexerSchedule is the recurrence of an indexer run.
type IndexerSchedule struct {
	Interval  string `json:"interval"`
	StartTime string `json:"startTime,omitempty"`
}

// FieldMapping maps a source field onto a target index field.
type FieldMapping struct {
	SourceFieldName string `json:"sourceFieldName"`
	TargetFieldName string `json:"targetFieldName,omitempty"`
}

// GetIndexer reads an indexer definition.
func (c *Client) GetIndexer(ctx context.Context, name string) (*Indexer, error) {
	resp, err := c.do(ctx, http.MethodGet, "/indexers/"+name, resourceIndexers, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, statusError(resp)
	}

	var indexer Indexer
	if err := json.NewDecoder(resp.Body).Decode(&indexer); err != nil {
		return nil, err
	}
	return &indexer, nil
}

// CreateIndexer creates or replaces an indexer definition.
func (c *Client) CreateIndexer(ctx context.Context, indexer *Indexer) (*Indexer, error) {
	resp, err := c.do(ctx, http.MethodPut, "/indexers/"+indexer.Name, resourceIndexers, nil, indexer)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, statusError(resp)
	}
	if resp.StatusCode == http.StatusNoContent {
		return indexer, nil
	}

	var created Indexer
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteIndexer removes an indexer definition.
func (c *Client) DeleteIndexer(ctx context.Context, name string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/indexers/"+name, resourceIndexers, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}
	return nil
}

// ListIndexers returns a flat iterator over all indexer definitions.
func (c *Client) ListIndexers(opts *ListOptions) (*paging.Items[Indexer], error) {
	pager, err := c.ListIndexersByPage(opts)
	if err != nil {
		return nil, err
	}
	return paging.NewItems(pager), nil
}

// ListIndexersByPage returns a page iterator over indexer definitions,
// resumable from a continuation token.
func (c *Client) ListIndexersByPage(opts *ListOptions) (*paging.Pager[Indexer], error) {
	return listPager[Indexer](c, "/indexers", resourceIndexers, opts)
}
