package paging

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
)

// fakeBackend serves a fixed record slice through the skip/top window
// convention and counts fetches.
type fakeBackend struct {
	records     []string
	defaultTop  int
	fetchCount  int
	lastSkip    int
	failAtFetch int // 1-based; 0 disables
}

func (b *fakeBackend) fetch(_ context.Context, skip, top int) (Page[string], error) {
	b.fetchCount++
	b.lastSkip = skip

	if b.failAtFetch > 0 && b.fetchCount == b.failAtFetch {
		return Page[string]{}, errors.New("backend unavailable")
	}

	if top <= 0 {
		top = b.defaultTop
	}

	if skip >= len(b.records) {
		return Page[string]{}, nil
	}

	end := skip + top
	if end > len(b.records) {
		end = len(b.records)
	}

	page := Page[string]{Items: b.records[skip:end]}
	if end < len(b.records) {
		page.ContinuationToken = FormatContinuationToken(end)
	}
	return page, nil
}

func records(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("entity-%03d", i)
	}
	return out
}

func TestPager_Example(t *testing.T) {
	// Page size 2 over [A,B,C,D,E] yields [A,B]/"2", [C,D]/"4", [E]/"".
	backend := &fakeBackend{records: []string{"A", "B", "C", "D", "E"}, defaultTop: 100}
	pager, err := NewPager(backend.fetch, Options{PageSize: 2})
	if err != nil {
		t.Fatalf("NewPager: %v", err)
	}

	ctx := context.Background()
	wantPages := []Page[string]{
		{Items: []string{"A", "B"}, ContinuationToken: "2"},
		{Items: []string{"C", "D"}, ContinuationToken: "4"},
		{Items: []string{"E"}},
	}

	for i, want := range wantPages {
		if !pager.More() {
			t.Fatalf("More() = false before page %d", i)
		}
		got, err := pager.NextPage(ctx)
		if err != nil {
			t.Fatalf("NextPage %d: %v", i, err)
		}
		if !reflect.DeepEqual(got.Items, want.Items) {
			t.Errorf("page %d items = %v, want %v", i, got.Items, want.Items)
		}
		if got.ContinuationToken != want.ContinuationToken {
			t.Errorf("page %d token = %q, want %q", i, got.ContinuationToken, want.ContinuationToken)
		}
	}

	if pager.More() {
		t.Error("More() = true after final page")
	}
	if backend.fetchCount != 3 {
		t.Errorf("fetchCount = %d, want 3", backend.fetchCount)
	}
}

func TestPager_FlatEqualsPages(t *testing.T) {
	// Flat iteration must equal the in-order concatenation of page mode, with
	// no duplicates and no omissions, for a range of windows.
	for _, start := range []int{0, 5, 100} {
		for _, pageSize := range []int{1, 3, 7, 50} {
			name := fmt.Sprintf("skip=%d/top=%d", start, pageSize)
			t.Run(name, func(t *testing.T) {
				all := records(23)
				ctx := context.Background()

				token := ""
				if start > 0 {
					token = FormatContinuationToken(start)
				}

				pageBackend := &fakeBackend{records: all, defaultTop: 10}
				pager, err := NewPager(pageBackend.fetch, Options{PageSize: pageSize, ContinuationToken: token})
				if err != nil {
					t.Fatalf("NewPager: %v", err)
				}
				var fromPages []string
				for pager.More() {
					page, err := pager.NextPage(ctx)
					if err != nil {
						t.Fatalf("NextPage: %v", err)
					}
					fromPages = append(fromPages, page.Items...)
				}

				flatBackend := &fakeBackend{records: all, defaultTop: 10}
				flatPager, err := NewPager(flatBackend.fetch, Options{PageSize: pageSize, ContinuationToken: token})
				if err != nil {
					t.Fatalf("NewPager: %v", err)
				}
				fromFlat, err := NewItems(flatPager).All(ctx)
				if err != nil {
					t.Fatalf("All: %v", err)
				}

				var want []string
				if start < len(all) {
					want = all[start:]
				}
				if !reflect.DeepEqual(fromPages, want) {
					t.Errorf("page mode = %v, want %v", fromPages, want)
				}
				if !reflect.DeepEqual(fromFlat, want) {
					t.Errorf("flat mode = %v, want %v", fromFlat, want)
				}
			})
		}
	}
}

func TestPager_ResumeFromToken(t *testing.T) {
	// Resuming from a mid-sequence token reproduces exactly the remaining
	// elements of an uninterrupted run.
	all := records(11)
	ctx := context.Background()

	backend := &fakeBackend{records: all, defaultTop: 10}
	pager, err := NewPager(backend.fetch, Options{PageSize: 4})
	if err != nil {
		t.Fatalf("NewPager: %v", err)
	}

	first, err := pager.NextPage(ctx)
	if err != nil {
		t.Fatalf("NextPage: %v", err)
	}
	if first.ContinuationToken != "4" {
		t.Fatalf("first token = %q, want %q", first.ContinuationToken, "4")
	}

	resumed := &fakeBackend{records: all, defaultTop: 10}
	resumedPager, err := NewPager(resumed.fetch, Options{PageSize: 4, ContinuationToken: first.ContinuationToken})
	if err != nil {
		t.Fatalf("NewPager(resume): %v", err)
	}
	rest, err := NewItems(resumedPager).All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}

	if !reflect.DeepEqual(rest, all[4:]) {
		t.Errorf("resumed elements = %v, want %v", rest, all[4:])
	}
}

func TestNewPager_InvalidToken(t *testing.T) {
	backend := &fakeBackend{records: records(3), defaultTop: 10}

	for _, token := range []string{"-1", "abc", "1.5"} {
		t.Run(token, func(t *testing.T) {
			_, err := NewPager(backend.fetch, Options{ContinuationToken: token})
			if !errors.Is(err, ErrInvalidContinuationToken) {
				t.Fatalf("error = %v, want ErrInvalidContinuationToken", err)
			}
			if backend.fetchCount != 0 {
				t.Errorf("fetchCount = %d, want 0 (usage errors precede network calls)", backend.fetchCount)
			}
		})
	}
}

func TestPager_EmptyCollection(t *testing.T) {
	// An empty collection is a legitimate single last page, not an error.
	backend := &fakeBackend{defaultTop: 10}
	pager, err := NewPager(backend.fetch, Options{})
	if err != nil {
		t.Fatalf("NewPager: %v", err)
	}

	ctx := context.Background()
	page, err := pager.NextPage(ctx)
	if err != nil {
		t.Fatalf("NextPage: %v", err)
	}
	if len(page.Items) != 0 || page.ContinuationToken != "" {
		t.Errorf("page = %+v, want empty last page", page)
	}
	if pager.More() {
		t.Error("More() = true after empty last page")
	}
	if backend.fetchCount != 1 {
		t.Errorf("fetchCount = %d, want 1", backend.fetchCount)
	}
}

func TestPager_FetchErrorStopsSequence(t *testing.T) {
	backend := &fakeBackend{records: records(10), defaultTop: 10, failAtFetch: 2}
	pager, err := NewPager(backend.fetch, Options{PageSize: 3})
	if err != nil {
		t.Fatalf("NewPager: %v", err)
	}

	ctx := context.Background()
	if _, err := pager.NextPage(ctx); err != nil {
		t.Fatalf("first NextPage: %v", err)
	}
	if _, err := pager.NextPage(ctx); err == nil {
		t.Fatal("second NextPage: expected backend error")
	}
	if pager.More() {
		t.Error("More() = true after fetch error")
	}
}

func TestItems_ErrorSurfacesAfterLoop(t *testing.T) {
	backend := &fakeBackend{records: records(10), defaultTop: 10, failAtFetch: 2}
	pager, err := NewPager(backend.fetch, Options{PageSize: 4})
	if err != nil {
		t.Fatalf("NewPager: %v", err)
	}

	ctx := context.Background()
	items := NewItems(pager)
	var seen int
	for items.Next(ctx) {
		seen++
	}
	if seen != 4 {
		t.Errorf("consumed %d items before failure, want 4", seen)
	}
	if items.Err() == nil {
		t.Error("Err() = nil, want backend error")
	}
	// Iteration stays terminated.
	if items.Next(ctx) {
		t.Error("Next() = true after error")
	}
}

func TestPager_MalformedServerTokenStops(t *testing.T) {
	calls := 0
	fetch := func(_ context.Context, skip, top int) (Page[string], error) {
		calls++
		return Page[string]{Items: []string{"x"}, ContinuationToken: "bogus"}, nil
	}

	pager, err := NewPager(fetch, Options{})
	if err != nil {
		t.Fatalf("NewPager: %v", err)
	}
	if _, err := pager.NextPage(context.Background()); err != nil {
		t.Fatalf("NextPage: %v", err)
	}
	if pager.More() {
		t.Error("More() = true after malformed server token")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
