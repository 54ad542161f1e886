package search

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/ficroll/internal/api"
	"github.com/pders01/ficroll/internal/debuglog"
)

// BleveEngine keeps fandom names in a bleve index so autocomplete can still
// answer when AO3 does not.
type BleveEngine struct {
	mu  sync.RWMutex
	idx bleve.Index
}

// NewBleveEngine creates or opens a Bleve index at indexPath and indexes the
// fandoms already in source. An empty indexPath keeps the index in memory.
func NewBleveEngine(source FandomSource, indexPath string) (*BleveEngine, error) {
	var idx bleve.Index
	var err error

	if indexPath == "" {
		idx, err = bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, err
		}
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(indexPath), 0o755); mkErr != nil {
			debuglog.Warnf("creating index directory: %v", mkErr)
		}
		idx, err = bleve.Open(indexPath)
		if err != nil {
			idx, err = bleve.New(indexPath, buildIndexMapping())
			if err != nil {
				return nil, err
			}
		}
	}

	be := &BleveEngine{idx: idx}
	if source != nil {
		if err := be.reindexAll(source); err != nil {
			_ = idx.Close()
			return nil, err
		}
	}
	return be, nil
}

// fandomAnalyzer lowercases words and keeps stop words, so "The" in
// "The Witcher" stays searchable.
const fandomAnalyzer = "fandom"

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	if err := im.AddCustomAnalyzer(fandomAnalyzer, map[string]any{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	}); err != nil {
		panic(err)
	}
	im.DefaultAnalyzer = fandomAnalyzer

	dm := bleve.NewDocumentMapping()

	name := bleve.NewTextFieldMapping()
	name.Analyzer = fandomAnalyzer
	name.Store = true
	name.IncludeTermVectors = true

	// exact lowercase name for sorting ties
	key := bleve.NewTextFieldMapping()
	key.Analyzer = keyword.Name
	key.Store = false
	key.DocValues = true

	dm.AddFieldMappingsAt("name", name)
	dm.AddFieldMappingsAt("key", key)

	im.DefaultMapping = dm
	return im
}

func (b *BleveEngine) reindexAll(source FandomSource) error {
	fandoms, err := source.AllFandoms()
	if err != nil {
		return err
	}

	suggestions := make([]api.Suggestion, 0, len(fandoms))
	for _, f := range fandoms {
		suggestions = append(suggestions, api.Suggestion{ID: f.ID, Name: f.Name})
	}
	return b.index(suggestions)
}

func (b *BleveEngine) index(fandoms []api.Suggestion) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.idx.NewBatch()
	for _, f := range fandoms {
		if f.ID == "" {
			continue
		}
		name := f.Name
		if name == "" {
			name = f.ID
		}
		if err := batch.Index(f.ID, map[string]any{
			"name": name,
			"key":  strings.ToLower(name),
		}); err != nil {
			return err
		}
	}
	return b.idx.Batch(batch)
}

// OnFandomsSeen indexes suggestions returned by AO3.
func (b *BleveEngine) OnFandomsSeen(fandoms []api.Suggestion) {
	if err := b.index(fandoms); err != nil {
		debuglog.Warnf("indexing %d fandoms: %v", len(fandoms), err)
	}
}

// Suggest requires every token of term to match a word of the fandom name,
// either exactly or as a prefix.
func (b *BleveEngine) Suggest(term string, limit int) ([]api.Suggestion, error) {
	if len([]rune(strings.TrimSpace(term))) < MinQueryLength {
		return []api.Suggestion{}, nil
	}
	tokens := tokenize(term)
	if len(tokens) == 0 {
		return []api.Suggestion{}, nil
	}

	var must []bleveQuery.Query
	for _, tok := range tokens {
		qm := bleve.NewMatchQuery(tok)
		qm.SetField("name")
		qm.SetBoost(2.0)
		qp := bleve.NewPrefixQuery(tok)
		qp.SetField("name")
		must = append(must, bleve.NewDisjunctionQuery(qm, qp))
	}

	if limit <= 0 {
		limit = 10
	}
	req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(must...), limit, 0, false)
	req.Fields = []string{"name"}
	req.SortBy([]string{"-_score", "key"})

	b.mu.RLock()
	res, err := b.idx.Search(req)
	b.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	out := make([]api.Suggestion, 0, len(res.Hits))
	for _, h := range res.Hits {
		s := api.Suggestion{ID: h.ID, Name: h.ID}
		if n, ok := h.Fields["name"].(string); ok && n != "" {
			s.Name = n
		}
		out = append(out, s)
	}
	return out, nil
}

// DocCount reports total documents in the index.
func (b *BleveEngine) DocCount() (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, err := b.idx.DocCount()
	return int(n), err
}

func (b *BleveEngine) Close() error {
	return b.idx.Close()
}
