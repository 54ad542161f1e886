// Package archive searches and scrapes the Archive of Our Own.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/pders01/ficroll/internal/config"
	"github.com/pders01/ficroll/internal/debuglog"
	"golang.org/x/time/rate"
)

// Archive is an AO3 client. It is safe for concurrent use.
type Archive struct {
	baseURL    string
	userAgent  string
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	maxPage    int
	maxTags    int
	categories *Categories
	feeds      *gofeed.Parser
	intn       func(n int) int
}

func New(cfg config.ArchiveConfig) *Archive {
	limit := rate.Inf
	if cfg.RequestDelay > 0 {
		limit = rate.Every(cfg.RequestDelay)
	}
	maxPage := cfg.MaxPage
	if maxPage <= 0 {
		maxPage = 100
	}
	return &Archive{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		client:     &http.Client{Timeout: cfg.HTTPTimeout},
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.BackoffBase,
		maxPage:    maxPage,
		maxTags:    cfg.MaxTags,
		categories: MustCategories(),
		feeds:      gofeed.NewParser(),
		intn:       rand.IntN,
	}
}

// Categories exposes the category table used to build searches.
func (a *Archive) Categories() *Categories {
	return a.categories
}

// get performs a GET with the outbound rate limit and retries network
// failures, 429 and 5xx with exponential backoff.
func (a *Archive) get(ctx context.Context, url string, accept string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			delay := a.backoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, classify(ctx.Err())
			case <-time.After(delay):
			}
		}

		body, retry, err := a.getOnce(ctx, url, accept)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry {
			break
		}
		debuglog.WithFields(map[string]any{"url": url, "attempt": attempt + 1}).Warnf("archive request failed: %v", err)
	}
	return nil, lastErr
}

func (a *Archive) getOnce(ctx context.Context, url string, accept string) ([]byte, bool, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, false, classify(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, &FetchError{Kind: KindNetwork, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, &FetchError{Kind: KindHTTP, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, classify(err)
	}
	if len(body) == 0 {
		return nil, false, &FetchError{Kind: KindEmptyResponse, Err: fmt.Errorf("empty body")}
	}
	return body, false, nil
}

func (a *Archive) searchPage(ctx context.Context, q Query, page int) (*goquery.Document, error) {
	u := SearchURL(a.baseURL, q, page, a.maxTags, a.categories)
	body, err := a.get(ctx, u, "text/html,application/xhtml+xml")
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{Kind: KindParse, Err: fmt.Errorf("parsing search page: %w", err)}
	}
	return doc, nil
}
