/*
Copyright 2025 The AlaudaDevops Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package changelog

import "fmt"

// pageFetcher fetches one page of items. Pages are 1-based. hasMore must
// reflect the host's own pagination cursor, not the returned item count: a
// page filtered after fetching (merged PRs out of closed ones) can come back
// short, or even empty, with pages still remaining.
type pageFetcher[T any] func(page, perPage int) (items []T, hasMore bool, err error)

// window is an append-only, page-fetched cache shared by the tag, release,
// commit and pull request lookups. The cursor advances by exactly one page
// per grow call; the list ends when the host reports no further pages.
type window[T any] struct {
	items     []T
	nextPage  int
	perPage   int
	maxPages  int
	exhausted bool
	fetch     pageFetcher[T]
}

func newWindow[T any](perPage, maxPages int, fetch pageFetcher[T]) *window[T] {
	return &window[T]{
		nextPage: 1,
		perPage:  perPage,
		maxPages: maxPages,
		fetch:    fetch,
	}
}

// grow fetches the next page and appends its items, returning the number of
// new items. Growing past the page cap returns ErrPaginationExhausted; growing
// an already-exhausted window is a no-op.
func (w *window[T]) grow() (int, error) {
	if w.exhausted {
		return 0, nil
	}
	if w.nextPage > w.maxPages {
		return 0, fmt.Errorf("page %d exceeds cap of %d: %w", w.nextPage, w.maxPages, ErrPaginationExhausted)
	}

	page, hasMore, err := w.fetch(w.nextPage, w.perPage)
	if err != nil {
		return 0, err
	}

	w.nextPage++
	w.items = append(w.items, page...)
	if !hasMore {
		w.exhausted = true
	}
	return len(page), nil
}

// done reports whether the underlying list has been fetched completely
func (w *window[T]) done() bool {
	return w.exhausted
}

// all returns the items fetched so far
func (w *window[T]) all() []T {
	return w.items
}
