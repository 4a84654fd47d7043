package search

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mqforge/busadmin/pkg/paging"
)

const resourceSynonymMaps = "synonym_maps"

// SynonymMap is a named set of synonym rules applied at query time.
type SynonymMap struct {
	Name     string `json:"name"`
	Format   string `json:"format"`
	Synonyms string `json:"synonyms"`
	ETag     string `json:"@odata.etag,omitempty"`
}

// GetSynonymMap reads a synonym map definition.
func (c *Client) GetSynonymMap(ctx context.Context, name string) (*SynonymMap, error) {
	resp, err := c.do(ctx, http.MethodGet, "/synonymmaps/"+name, resourceSynonymMaps, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, statusError(resp)
	}

	var sm SynonymMap
	if err := json.NewDecoder(resp.Body).Decode(&sm); err != nil {
		return nil, err
	}
	return &sm, nil
}

// ListSynonymMaps returns a flat iterator over all synonym map definitions.
func (c *Client) ListSynonymMaps(opts *ListOptions) (*paging.Items[SynonymMap], error) {
	pager, err := c.ListSynonymMapsByPage(opts)
	if err != nil {
		return nil, err
	}
	return paging.NewItems(pager), nil
}

// ListSynonymMapsByPage returns a page iterator over synonym map definitions.
func (c *Client) ListSynonymMapsByPage(opts *ListOptions) (*paging.Pager[SynonymMap], error) {
	return listPager[SynonymMap](c, "/synonymmaps", resourceSynonymMaps, opts)
}
