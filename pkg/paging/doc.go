// Package paging implements the skip/top list-resource protocol used by the
// management API.
//
// List responses carry, when more results exist, a "next link" URL whose
// $skip query parameter encodes the offset of the following page. The client
// surfaces that offset as an opaque continuation token and threads it through
// repeated fetches.
//
// Two consumption modes share one cursor:
//
//	pager, _ := paging.NewPager(fetch, paging.Options{PageSize: 100})
//	for pager.More() {
//		page, err := pager.NextPage(ctx)
//		// page.Items, page.ContinuationToken
//	}
//
//	items := paging.NewItems(pager)
//	for items.Next(ctx) {
//		item := items.Item()
//	}
//
// Fetches are issued strictly sequentially with no prefetch; the next page is
// never requested before the previous one has been handed to the consumer.
// A Pager can be resumed from a previously captured continuation token. An
// Items iterator is a single forward pass and cannot be restarted.
package paging
