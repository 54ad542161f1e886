package archive

import (
	"context"
	"fmt"

	"github.com/pders01/ficroll/internal/debuglog"
	"github.com/pders01/ficroll/internal/storage"
)

// RandomWork picks one work uniformly from a random results page. The first
// page is always fetched to learn the page count; if the random page then
// fails or comes back empty, the pick falls back to the first page's works.
func (a *Archive) RandomWork(ctx context.Context, q Query) (storage.Work, error) {
	first, err := a.searchPage(ctx, q, 1)
	if err != nil {
		return storage.Work{}, err
	}

	pages := PageCount(first)
	if pages == 0 {
		return storage.Work{}, ErrNoWorks
	}
	firstWorks := ParseWorks(first, a.baseURL)

	page := 1 + a.intn(min(pages, a.maxPage))
	works := firstWorks
	if page > 1 {
		doc, err := a.searchPage(ctx, q, page)
		if err != nil {
			if len(firstWorks) == 0 {
				return storage.Work{}, err
			}
			debuglog.Warnf("page %d failed, using page 1: %v", page, err)
		} else if pageWorks := ParseWorks(doc, a.baseURL); len(pageWorks) > 0 {
			works = pageWorks
		}
	}

	if len(works) == 0 {
		return storage.Work{}, &FetchError{Kind: KindParse, Err: fmt.Errorf("no work blurbs on page %d", page)}
	}
	return works[a.intn(len(works))], nil
}
