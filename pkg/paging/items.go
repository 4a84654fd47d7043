package paging

import "context"

// Items is the flat, element-at-a-time view over a Pager. It pulls pages
// lazily and re-yields their contents in order; the next page is requested
// only after the current page's items have been consumed.
//
//	for items.Next(ctx) {
//		handle(items.Item())
//	}
//	if err := items.Err(); err != nil {
//		return err
//	}
type Items[T any] struct {
	pager *Pager[T]
	buf   []T
	idx   int
	cur   T
	err   error
}

// NewItems builds a flat iterator by flattening pager. The iterator takes
// over the pager's cursor; a consumed Items cannot be restarted.
func NewItems[T any](pager *Pager[T]) *Items[T] {
	return &Items[T]{pager: pager}
}

// Next advances to the next element, fetching the next page when the current
// one is drained. It returns false at exhaustion or on error; check Err after
// the loop.
func (it *Items[T]) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}

	for it.idx >= len(it.buf) {
		if !it.pager.More() {
			return false
		}
		page, err := it.pager.NextPage(ctx)
		if err != nil {
			it.err = err
			return false
		}
		it.buf = page.Items
		it.idx = 0
	}

	it.cur = it.buf[it.idx]
	it.idx++
	return true
}

// Item returns the element produced by the last successful Next.
func (it *Items[T]) Item() T {
	return it.cur
}

// Err returns the error that terminated iteration, if any.
func (it *Items[T]) Err() error {
	return it.err
}

// All drains the iterator into a slice.
func (it *Items[T]) All(ctx context.Context) ([]T, error) {
	var out []T
	for it.Next(ctx) {
		out = append(out, it.Item())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
