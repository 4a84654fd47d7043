package paging

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Options configures a Pager.
type Options struct {
	// PageSize is the $top hint sent with each fetch. <= 0 leaves the page
	// size to the server.
	PageSize int

	// ContinuationToken resumes listing from a previously captured token.
	// Empty starts from the beginning.
	ContinuationToken string
}

// Pager iterates a listed collection one page at a time. Each Pager owns its
// cursor exclusively; independent Pagers over the same collection do not
// coordinate.
type Pager[T any] struct {
	fetch    FetchFunc[T]
	pageSize int
	skip     int
	done     bool
	fetched  int
}

// NewPager builds a page iterator over fetch. An invalid resume token is
// rejected here, before any network call.
func NewPager[T any](fetch FetchFunc[T], opts Options) (*Pager[T], error) {
	skip, err := ParseContinuationToken(opts.ContinuationToken)
	if err != nil {
		return nil, err
	}
	return &Pager[T]{
		fetch:    fetch,
		pageSize: opts.PageSize,
		skip:     skip,
	}, nil
}

// More reports whether NextPage can produce another page. It is true before
// the first fetch and becomes false once a page arrives without a
// continuation token.
func (p *Pager[T]) More() bool {
	return !p.done
}

// NextPage fetches the next window. The returned page's ContinuationToken can
// be handed to a fresh Pager to resume after this page. Once a page carries
// no token, the Pager is exhausted and further calls return an empty page.
func (p *Pager[T]) NextPage(ctx context.Context) (Page[T], error) {
	if p.done {
		return Page[T]{}, nil
	}

	page, err := p.fetch(ctx, p.skip, p.pageSize)
	if err != nil {
		// Stop on failure; no partial-page state survives past the last
		// successfully completed page's token.
		p.done = true
		return Page[T]{}, err
	}
	p.fetched++

	if page.ContinuationToken == "" {
		p.done = true
	} else {
		next, err := ParseContinuationToken(page.ContinuationToken)
		if err != nil {
			// A malformed server token would loop forever; treat it as the
			// last page.
			log.Warn().
				Str("token", page.ContinuationToken).
				Msg("Server returned malformed continuation token, stopping")
			p.done = true
		} else {
			p.skip = next
		}
	}

	return page, nil
}

// PagesFetched returns the number of completed fetches, for diagnostics.
func (p *Pager[T]) PagesFetched() int {
	return p.fetched
}
