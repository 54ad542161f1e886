package archive

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pders01/ficroll/internal/storage"
)

var (
	totalWorksRe = regexp.MustCompile(`of\s+([0-9,]+)\s+Works`)
	zeroFoundRe  = regexp.MustCompile(`(^|\D)0\s+Found`)
	workIDRe     = regexp.MustCompile(`/works/([0-9]+)/?$`)
)

// PageCount reads the results heading. It returns 0 for an empty search and
// 1 when the heading has no total (a single page of results).
func PageCount(doc *goquery.Document) int {
	heading := doc.Find("h3.heading").First()
	if heading.Length() == 0 {
		return 1
	}
	text := strings.TrimSpace(heading.Text())
	if zeroFoundRe.MatchString(text) {
		return 0
	}
	if m := totalWorksRe.FindStringSubmatch(text); m != nil {
		total, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		if err == nil {
			if total == 0 {
				return 0
			}
			return (total + WorksPerPage - 1) / WorksPerPage
		}
	}
	return 1
}

// ParseWorks extracts the work blurbs on a search results page. Blurbs that
// link to something other than a work (series, users) are skipped.
func ParseWorks(doc *goquery.Document, baseURL string) []storage.Work {
	baseURL = strings.TrimRight(baseURL, "/")
	var works []storage.Work

	doc.Find("li.work.blurb").Each(func(_ int, blurb *goquery.Selection) {
		heading := blurb.Find("h4.heading").First()
		if heading.Length() == 0 {
			return
		}
		link := heading.Find("a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		m := workIDRe.FindStringSubmatch(href)
		if m == nil {
			return
		}
		workID := m[1]

		var authors []string
		heading.Find(`a[rel="author"]`).Each(func(_ int, a *goquery.Selection) {
			if name := strings.TrimSpace(a.Text()); name != "" {
				authors = append(authors, name)
			}
		})
		author := "Anonymous"
		if len(authors) > 0 {
			author = strings.Join(authors, ", ")
		}

		rating := "?"
		if span := blurb.Find("ul.required-tags span.rating").First(); span.Length() > 0 {
			if text := strings.TrimSpace(span.Text()); text != "" {
				rating = text
			} else if title, ok := span.Attr("title"); ok && title != "" {
				rating = title
			}
		}

		words := "Unknown"
		if dd := blurb.Find("dl.stats dd.words").First(); dd.Length() > 0 {
			if text := strings.ReplaceAll(strings.TrimSpace(dd.Text()), ",", ""); text != "" {
				words = text
			}
		}

		works = append(works, storage.Work{
			Title:     strings.TrimSpace(link.Text()),
			Author:    author,
			Rating:    rating,
			WordCount: words,
			URL:       baseURL + "/works/" + workID,
		})
	})

	return works
}
