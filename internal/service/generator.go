// Package service picks a random work for a set of filters and falls back to
// cached or feed results when AO3 is unavailable.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/pders01/ficroll/internal/api"
	"github.com/pders01/ficroll/internal/archive"
	"github.com/pders01/ficroll/internal/debuglog"
	"github.com/pders01/ficroll/internal/metrics"
	"github.com/pders01/ficroll/internal/storage"
)

var (
	ErrEmptyCriteria = errors.New("no tags, fandom or categories given")
	ErrNoWorks       = archive.ErrNoWorks
	ErrUnavailable   = errors.New("archive unavailable")
)

const (
	SourceLive  = "live"
	SourceCache = "cache"
	SourceFeed  = "feed"
)

// maxCachedWorks bounds how many distinct live picks are kept per key.
const maxCachedWorks = 50

// Archive is the subset of the AO3 client the generator needs.
type Archive interface {
	RandomWork(ctx context.Context, q archive.Query) (storage.Work, error)
	TagFeedWorks(ctx context.Context, tag string) ([]storage.Work, error)
}

// Cache stores past live picks per filter set.
type Cache interface {
	SetCachedWorks(key string, works []storage.Work) error
	GetCachedWorks(key string, ttl time.Duration) (*storage.CachedWorks, error)
}

type Generator struct {
	archive      Archive
	cache        Cache
	ttl          time.Duration
	feedFallback bool
	metrics      *metrics.Metrics
	intn         func(n int) int
}

// NewGenerator wires the generator. cache and m may be nil.
func NewGenerator(a Archive, cache Cache, ttl time.Duration, feedFallback bool, m *metrics.Metrics) *Generator {
	return &Generator{
		archive:      a,
		cache:        cache,
		ttl:          ttl,
		feedFallback: feedFallback,
		metrics:      m,
		intn:         rand.IntN,
	}
}

// Normalize trims the criteria and drops empty tags and categories.
func Normalize(c api.Criteria) api.Criteria {
	out := api.Criteria{Fandom: strings.TrimSpace(c.Fandom)}
	for _, t := range c.Tags {
		if t = strings.TrimSpace(t); t != "" {
			out.Tags = append(out.Tags, t)
		}
	}
	for _, cat := range c.Categories {
		if cat = strings.TrimSpace(cat); cat != "" {
			out.Categories = append(out.Categories, cat)
		}
	}
	return out
}

// CacheKey identifies a filter set regardless of tag case or order.
func CacheKey(tags, categories []string, fandom string) string {
	normTags := make([]string, 0, len(tags))
	for _, t := range tags {
		normTags = append(normTags, strings.ToLower(strings.TrimSpace(t)))
	}
	slices.Sort(normTags)
	normCats := slices.Clone(categories)
	if normCats == nil {
		normCats = []string{}
	}
	slices.Sort(normCats)

	// field order matches a key-sorted JSON object
	payload, _ := json.Marshal(struct {
		Categories []string `json:"categories"`
		Fandom     string   `json:"fandom"`
		Tags       []string `json:"tags"`
	}{normCats, strings.ToLower(strings.TrimSpace(fandom)), normTags})

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])[:16]
}

// Generate returns one work matching c. The live search wins; when it fails
// the cached picks for the same filters are tried, then the fandom's tag
// feed. ErrNoWorks is returned as-is and never triggers a fallback.
func (g *Generator) Generate(ctx context.Context, c api.Criteria) (*api.Work, error) {
	start := time.Now()
	defer func() {
		if g.metrics != nil {
			g.metrics.GenerateSeconds.Observe(time.Since(start).Seconds())
		}
	}()

	c = Normalize(c)
	if c.Empty() {
		g.count("invalid")
		return nil, ErrEmptyCriteria
	}

	key := CacheKey(c.Tags, c.Categories, c.Fandom)
	log := debuglog.WithFields(map[string]any{"key": key, "fandom": c.Fandom, "tags": len(c.Tags)})

	work, err := g.archive.RandomWork(ctx, archive.Query{Tags: c.Tags, Categories: c.Categories, Fandom: c.Fandom})
	if err == nil {
		g.remember(key, work)
		g.count(SourceLive)
		return toAPI(work, SourceLive, false), nil
	}
	if errors.Is(err, archive.ErrNoWorks) {
		g.count("no_works")
		return nil, ErrNoWorks
	}

	reason := archive.ReasonOf(err)
	log.Warnf("live search failed (%s): %v", reason, err)
	if g.metrics != nil {
		g.metrics.Fallbacks.WithLabelValues(reason).Inc()
	}

	if w := g.fromCache(key); w != nil {
		log.Infof("serving cached work (stale=%t)", w.Stale)
		g.count(SourceCache)
		return w, nil
	}

	if g.feedFallback && c.Fandom != "" {
		works, ferr := g.archive.TagFeedWorks(ctx, c.Fandom)
		switch {
		case ferr != nil:
			log.Warnf("tag feed failed (%s): %v", archive.ReasonOf(ferr), ferr)
		case len(works) > 0:
			log.Infof("serving work from tag feed")
			g.count(SourceFeed)
			return toAPI(works[g.intn(len(works))], SourceFeed, false), nil
		}
	}

	g.count("unavailable")
	return nil, fmt.Errorf("%w: %s", ErrUnavailable, reason)
}

func (g *Generator) fromCache(key string) *api.Work {
	if g.cache == nil {
		return nil
	}
	cached, err := g.cache.GetCachedWorks(key, g.ttl)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			debuglog.Warnf("reading cache %s: %v", key, err)
		}
		return nil
	}
	if len(cached.Results) == 0 {
		return nil
	}
	return toAPI(cached.Results[g.intn(len(cached.Results))], SourceCache, cached.Stale)
}

// remember prepends work to the cached picks for key, deduplicated by URL.
func (g *Generator) remember(key string, work storage.Work) {
	if g.cache == nil {
		return
	}
	works := []storage.Work{work}
	if cached, err := g.cache.GetCachedWorks(key, g.ttl); err == nil {
		for _, w := range cached.Results {
			if w.URL != work.URL && len(works) < maxCachedWorks {
				works = append(works, w)
			}
		}
	}
	if err := g.cache.SetCachedWorks(key, works); err != nil {
		debuglog.Warnf("writing cache %s: %v", key, err)
	}
}

func (g *Generator) count(outcome string) {
	if g.metrics != nil {
		g.metrics.Generate.WithLabelValues(outcome).Inc()
	}
}

func toAPI(w storage.Work, source string, stale bool) *api.Work {
	return &api.Work{
		Title:     w.Title,
		Author:    w.Author,
		Rating:    w.Rating,
		WordCount: api.WordCount(w.WordCount),
		URL:       w.URL,
		Source:    source,
		Stale:     stale,
	}
}
