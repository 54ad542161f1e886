package storage

import (
	"time"
)

// Work is one AO3 work as scraped from a search results page.
type Work struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	Rating    string `json:"rating"`
	WordCount string `json:"word_count"`
	URL       string `json:"url"`
}

// CacheEntry is the stored value for one normalized search.
type CacheEntry struct {
	Results   []Work    `json:"results"`
	Timestamp time.Time `json:"timestamp"`
}

// CachedWorks is a cache lookup result. Stale entries are still returned.
type CachedWorks struct {
	Results []Work
	Stale   bool
	Age     time.Duration
}

// Fandom is a fandom suggestion remembered from the upstream autocomplete.
type Fandom struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	LastSeen time.Time `json:"last_seen"`
}
