package archive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/ficroll/internal/config"
)

func blurb(id, title, author, rating, words string) string {
	authorLink := ""
	if author != "" {
		authorLink = fmt.Sprintf(` by <a rel="author" href="/users/%s">%s</a>`, author, author)
	}
	wordsDD := ""
	if words != "" {
		wordsDD = fmt.Sprintf(`<dt class="words">Words:</dt><dd class="words">%s</dd>`, words)
	}
	return fmt.Sprintf(`
<li class="work blurb group" id="work_%s" role="article">
  <div class="header module">
    <h4 class="heading"><a href="/works/%s">%s</a>%s</h4>
    <ul class="required-tags">
      <li><a class="help symbol question modal"><span class="rating-general-audience rating" title="%s"><span class="text">%s</span></span></a></li>
    </ul>
  </div>
  <dl class="stats"><dt class="language">Language:</dt><dd class="language">English</dd>%s</dl>
</li>`, id, id, title, authorLink, rating, rating, wordsDD)
}

func resultsPage(heading string, blurbs ...string) string {
	return `<html><body><div id="main"><h3 class="heading">` + heading + `</h3><ol class="work index group">` +
		strings.Join(blurbs, "\n") + `</ol></div></body></html>`
}

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

func testArchive(baseURL string) *Archive {
	cfg := config.TestConfig().Archive
	cfg.BaseURL = baseURL
	return New(cfg)
}

func TestSearchURL(t *testing.T) {
	cats := MustCategories()
	raw := SearchURL("https://archiveofourown.org/", Query{
		Tags:       []string{"Fluff", "Angst", "Hurt/Comfort", "Slow Burn"},
		Categories: []string{"F/F", "Gen", "Nonsense"},
		Fandom:     `"Good Omens"`,
	}, 3, 3, cats)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/works/search", u.Path)

	q := u.Query()
	assert.Equal(t, "3", q.Get("page"))
	assert.Equal(t, "en", q.Get("work_search[language_id]"))
	assert.Equal(t, "Fluff,Angst,Hurt/Comfort", q.Get("work_search[other_tag_names]"))
	assert.Equal(t, `"Good Omens"`, q.Get("work_search[fandom_names]"))
	assert.Equal(t, []string{"116", "21"}, q["work_search[category_ids][]"])
}

func TestSearchURLOmitsEmptyFilters(t *testing.T) {
	raw := SearchURL("https://archiveofourown.org", Query{Categories: []string{"M/M"}}, 1, 3, MustCategories())
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	_, hasTags := q["work_search[other_tag_names]"]
	_, hasFandom := q["work_search[fandom_names]"]
	assert.False(t, hasTags)
	assert.False(t, hasFandom)
	assert.Equal(t, []string{"23"}, q["work_search[category_ids][]"])
}

func TestCategories(t *testing.T) {
	cats := MustCategories()
	all := cats.All()
	require.Len(t, all, 6)
	assert.Equal(t, "F/F", all[0].Name)
	assert.Equal(t, []string{"2246", "24"}, cats.IDs([]string{"Multi", "Other"}))
	assert.Empty(t, cats.IDs([]string{"unknown"}))
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		name    string
		heading string
		want    int
	}{
		{"zero found", "0 Found", 0},
		{"ten found single page", "10 Found", 1},
		{"exact pages", "1 - 20 of 40 Works in Good Omens", 2},
		{"rounded up", "1 - 20 of 1,234 Works in Fluff", 62},
		{"no totals", "Search Results", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PageCount(doc(t, resultsPage(tt.heading))))
		})
	}

	t.Run("no heading", func(t *testing.T) {
		assert.Equal(t, 1, PageCount(doc(t, "<html><body></body></html>")))
	})
}

func TestParseWorks(t *testing.T) {
	page := resultsPage("1 - 20 of 3 Works",
		blurb("101", "Tea and Sympathy", "crowley", "General Audiences", "12,345"),
		blurb("102", "Nameless", "", "Mature", ""),
		`<li class="work blurb group"><h4 class="heading"><a href="/series/9">A Series</a></h4></li>`,
	)

	works := ParseWorks(doc(t, page), "https://archiveofourown.org/")
	require.Len(t, works, 2)

	assert.Equal(t, "Tea and Sympathy", works[0].Title)
	assert.Equal(t, "crowley", works[0].Author)
	assert.Equal(t, "General Audiences", works[0].Rating)
	assert.Equal(t, "12345", works[0].WordCount)
	assert.Equal(t, "https://archiveofourown.org/works/101", works[0].URL)

	assert.Equal(t, "Anonymous", works[1].Author)
	assert.Equal(t, "Unknown", works[1].WordCount)
	assert.Equal(t, "Mature", works[1].Rating)
}

func TestParseWorksMultipleAuthors(t *testing.T) {
	page := resultsPage("1 Found", `
<li class="work blurb group">
  <h4 class="heading"><a href="/works/5">Joint</a> by <a rel="author" href="/users/a">a</a>, <a rel="author" href="/users/b">b</a></h4>
</li>`)
	works := ParseWorks(doc(t, page), "https://ao3.test")
	require.Len(t, works, 1)
	assert.Equal(t, "a, b", works[0].Author)
	assert.Equal(t, "?", works[0].Rating)
}

func TestRandomWork(t *testing.T) {
	var requestedPages []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ficroll-test/1.0", r.Header.Get("User-Agent"))
		page := r.URL.Query().Get("page")
		requestedPages = append(requestedPages, page)
		switch page {
		case "1":
			w.Write([]byte(resultsPage("1 - 20 of 60 Works", blurb("1", "First", "a", "Teen And Up Audiences", "100"))))
		case "3":
			w.Write([]byte(resultsPage("41 - 60 of 60 Works",
				blurb("41", "Forty-one", "b", "Explicit", "5000"),
				blurb("42", "Forty-two", "c", "Mature", "42000"))))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	a := testArchive(server.URL)
	picks := []int{2, 1} // page index 2 -> page 3, then second work
	a.intn = func(n int) int {
		v := picks[0]
		picks = picks[1:]
		require.Less(t, v, n)
		return v
	}

	work, err := a.RandomWork(context.Background(), Query{Fandom: "Good Omens"})
	require.NoError(t, err)
	assert.Equal(t, "Forty-two", work.Title)
	assert.Equal(t, server.URL+"/works/42", work.URL)
	assert.Equal(t, []string{"1", "3"}, requestedPages)
}

func TestRandomWorkCapsPageAtMaxPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(resultsPage("1 - 20 of 100,000 Works", blurb("1", "Only", "a", "Mature", "1"))))
	}))
	defer server.Close()

	a := testArchive(server.URL)
	var seen []int
	a.intn = func(n int) int {
		seen = append(seen, n)
		return 0
	}

	_, err := a.RandomWork(context.Background(), Query{Tags: []string{"fluff"}})
	require.NoError(t, err)
	assert.Equal(t, 100, seen[0])
}

func TestRandomWorkFallsBackToFirstPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			w.Write([]byte(resultsPage("1 - 20 of 40 Works", blurb("7", "Seven", "a", "Mature", "700"))))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	a := testArchive(server.URL)
	a.intn = func(n int) int { return n - 1 }

	work, err := a.RandomWork(context.Background(), Query{Fandom: "x"})
	require.NoError(t, err)
	assert.Equal(t, "Seven", work.Title)
}

func TestRandomWorkNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(resultsPage("0 Found")))
	}))
	defer server.Close()

	_, err := testArchive(server.URL).RandomWork(context.Background(), Query{Fandom: "nothing"})
	assert.ErrorIs(t, err, ErrNoWorks)
}

func TestRandomWorkEmptyPageIsParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(resultsPage("Search Results")))
	}))
	defer server.Close()

	_, err := testArchive(server.URL).RandomWork(context.Background(), Query{Fandom: "x"})
	require.Error(t, err)
	assert.Equal(t, "ao3_parse_error", ReasonOf(err))
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	a := testArchive(server.URL)
	got, err := a.FandomSuggestions(context.Background(), "harry")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := testArchive(server.URL).FandomSuggestions(context.Background(), "harry")
	require.Error(t, err)
	assert.Equal(t, "ao3_http_error", ReasonOf(err))

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusForbidden, fe.Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := testArchive(server.URL).RandomWork(context.Background(), Query{Fandom: "x"})
	assert.Equal(t, "ao3_empty_response", ReasonOf(err))
}

func TestGetTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	cfg := config.TestConfig().Archive
	cfg.BaseURL = server.URL
	cfg.HTTPTimeout = 20 * time.Millisecond
	cfg.MaxRetries = 0

	_, err := New(cfg).RandomWork(context.Background(), Query{Fandom: "x"})
	assert.Equal(t, "ao3_timeout", ReasonOf(err))
}

func TestFandomSuggestions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/autocomplete/fandom", r.URL.Path)
		assert.Equal(t, "good om", r.URL.Query().Get("term"))
		w.Write([]byte(`[{"id":"Good Omens (TV)","name":"Good Omens (TV)"}]`))
	}))
	defer server.Close()

	got, err := testArchive(server.URL).FandomSuggestions(context.Background(), "  good om ")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Good Omens (TV)", got[0].ID)
}

func TestFandomSuggestionsShortTerm(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	got, err := testArchive(server.URL).FandomSuggestions(context.Background(), " a ")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Zero(t, calls.Load())
}

const tagFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Good Omens works</title>
  <entry>
    <title>Angels and Ducks</title>
    <link rel="alternate" type="text/html" href="https://archiveofourown.org/works/900"/>
    <author><name>aziraphale</name></author>
    <content type="html">&lt;p&gt;Words: 3,210, Chapters: 1/1, Language: English&lt;/p&gt;&lt;ul&gt;&lt;li&gt;Rating: General Audiences&lt;/li&gt;&lt;/ul&gt;</content>
  </entry>
  <entry>
    <title>No Stats</title>
    <link rel="alternate" type="text/html" href="https://archiveofourown.org/works/901"/>
    <content type="html">&lt;p&gt;summary only&lt;/p&gt;</content>
  </entry>
</feed>`

func TestParseTagFeed(t *testing.T) {
	works, err := ParseTagFeed(gofeed.NewParser(), []byte(tagFeed))
	require.NoError(t, err)
	require.Len(t, works, 2)

	assert.Equal(t, "Angels and Ducks", works[0].Title)
	assert.Equal(t, "aziraphale", works[0].Author)
	assert.Equal(t, "3210", works[0].WordCount)
	assert.Equal(t, "General Audiences", works[0].Rating)
	assert.Equal(t, "https://archiveofourown.org/works/900", works[0].URL)

	assert.Equal(t, "Anonymous", works[1].Author)
	assert.Equal(t, "Unknown", works[1].WordCount)
	assert.Equal(t, "?", works[1].Rating)
}

func TestTagFeedWorks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tags/Good Omens (TV)/feed.atom", r.URL.Path)
		w.Write([]byte(tagFeed))
	}))
	defer server.Close()

	works, err := testArchive(server.URL).TagFeedWorks(context.Background(), "Good Omens (TV)")
	require.NoError(t, err)
	assert.Len(t, works, 2)
}

func TestParseTagFeedGarbage(t *testing.T) {
	_, err := ParseTagFeed(gofeed.NewParser(), []byte("not a feed"))
	assert.Equal(t, "ao3_parse_error", ReasonOf(err))
}
