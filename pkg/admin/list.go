package admin

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mqforge/busadmin/pkg/atom"
	"github.com/mqforge/busadmin/pkg/paging"
)

// ListOptions controls a listing sequence.
type ListOptions struct {
	// MaxPageSize is the $top hint per fetch; the server may cap it. 0 uses
	// the client default.
	MaxPageSize int

	// ContinuationToken resumes a page-mode listing from a previously
	// returned token. Invalid tokens fail before any request is made.
	ContinuationToken string
}

// listPager builds the page-mode iterator for one collection. decode maps a
// feed entry to the element type; entries it rejects are dropped so a single
// malformed record cannot break the whole listing.
func listPager[T any](c *Client, collectionPath, resource string, decode func(*atom.Entry) (T, bool), opts *ListOptions) (*paging.Pager[T], error) {
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

		resp, err := c.do(ctx, http.MethodGet, collectionPath, resource, query, nil, nil)
		if err != nil {
			return zero, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return zero, statusError(resp)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return zero, err
		}

		feed, err := atom.ParseFeed(body, resp.StatusCode)
		if err != nil {
			return zero, err
		}

		page := paging.Page[T]{
			ContinuationToken: paging.TokenFromNextLink(feed.NextLink()),
		}
		for i := range feed.Entries {
			item, ok := decode(&feed.Entries[i])
			if !ok {
				entriesDropped.WithLabelValues(resource).Inc()
				c.logger.Warn().
					Str("resource", resource).
					Str("entry", feed.Entries[i].Title).
					Msg("Dropping feed entry the decoder rejected")
				continue
			}
			page.Items = append(page.Items, item)
		}

		pagesFetched.WithLabelValues(resource).Inc()
		c.logger.Debug().
			Str("resource", resource).
			Int("skip", skip).
			Int("items", len(page.Items)).
			Str("token", page.ContinuationToken).
			Msg("Fetched list page")

		return page, nil
	}

	return paging.NewPager(fetch, pagingOpts)
}

// listItems builds the flat iterator for one collection by flattening its
// pager.
func listItems[T any](c *Client, collectionPath, resource string, decode func(*atom.Entry) (T, bool), opts *ListOptions) (*paging.Items[T], error) {
	pager, err := listPager(c, collectionPath, resource, decode, opts)
	if err != nil {
		return nil, err
	}
	return paging.NewItems(pager), nil
}
