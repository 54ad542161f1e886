package archive

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/pders01/ficroll/internal/storage"
)

var (
	feedWordsRe  = regexp.MustCompile(`Words:\s*([0-9,]+)`)
	feedRatingRe = regexp.MustCompile(`Rating:\s*(?:<[^>]*>\s*)*([^<,]+)`)
)

// TagFeedURL is the Atom feed of recent works for a canonical tag.
func TagFeedURL(baseURL, tag string) string {
	return strings.TrimRight(baseURL, "/") + "/tags/" + url.PathEscape(strings.TrimSpace(tag)) + "/feed.atom"
}

// TagFeedWorks reads the tag's Atom feed. It is a lighter endpoint than the
// search form and serves as a last resort when search is unavailable.
func (a *Archive) TagFeedWorks(ctx context.Context, tag string) ([]storage.Work, error) {
	body, err := a.get(ctx, TagFeedURL(a.baseURL, tag), "application/atom+xml, application/xml")
	if err != nil {
		return nil, err
	}
	return ParseTagFeed(a.feeds, body)
}

// ParseTagFeed converts feed entries into works.
func ParseTagFeed(parser *gofeed.Parser, body []byte) ([]storage.Work, error) {
	feed, err := parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{Kind: KindParse, Err: fmt.Errorf("parsing feed: %w", err)}
	}

	works := make([]storage.Work, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" || item.Title == "" {
			continue
		}
		content := item.Content
		if content == "" {
			content = item.Description
		}

		var authors []string
		for _, p := range item.Authors {
			if p != nil && p.Name != "" {
				authors = append(authors, p.Name)
			}
		}
		author := "Anonymous"
		if len(authors) > 0 {
			author = strings.Join(authors, ", ")
		}

		words := "Unknown"
		if m := feedWordsRe.FindStringSubmatch(content); m != nil {
			words = strings.ReplaceAll(m[1], ",", "")
		}
		rating := "?"
		if m := feedRatingRe.FindStringSubmatch(content); m != nil {
			rating = strings.TrimSpace(m[1])
		}

		works = append(works, storage.Work{
			Title:     strings.TrimSpace(item.Title),
			Author:    author,
			Rating:    rating,
			WordCount: words,
			URL:       item.Link,
		})
	}
	return works, nil
}
