package search

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/pders01/ficroll/internal/api"
)

// MinQueryLength is the shortest term either suggester answers.
const MinQueryLength = 2

// Engine scores fandom names in memory without an index. It backs
// autocomplete when the bleve index cannot be opened.
type Engine struct {
	source FandomSource
}

// NewEngine creates a new scan-based suggester
func NewEngine(source FandomSource) *Engine {
	return &Engine{source: source}
}

type scored struct {
	suggestion api.Suggestion
	score      float64
}

// Suggest ranks every known fandom against term. Every term token must
// match some word of the name.
func (e *Engine) Suggest(term string, limit int) ([]api.Suggestion, error) {
	if len([]rune(strings.TrimSpace(term))) < MinQueryLength {
		return []api.Suggestion{}, nil
	}

	terms := tokenize(term)
	if len(terms) == 0 {
		return []api.Suggestion{}, nil
	}

	fandoms, err := e.source.AllFandoms()
	if err != nil {
		return nil, err
	}

	var results []scored
	for _, f := range fandoms {
		if score := scoreName(f.Name, terms); score > 0 {
			results = append(results, scored{
				suggestion: api.Suggestion{ID: f.ID, Name: f.Name},
				score:      score,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return strings.ToLower(results[i].suggestion.Name) < strings.ToLower(results[j].suggestion.Name)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	out := make([]api.Suggestion, 0, len(results))
	for _, r := range results {
		out = append(out, r.suggestion)
	}
	return out, nil
}

// scoreName returns 0 unless every term matches a word of name.
func scoreName(name string, terms []string) float64 {
	words := tokenize(name)
	if len(words) == 0 {
		return 0
	}

	var score float64
	for _, term := range terms {
		best := 0.0
		for i, word := range words {
			var s float64
			switch {
			case word == term:
				s = 1.5
			case strings.HasPrefix(word, term):
				s = 1.0
			case strings.Contains(word, term):
				s = 0.5
			}
			// the leading word is what people usually type first
			if s > 0 && i == 0 {
				s += 0.5
			}
			best = math.Max(best, s)
		}
		if best == 0 {
			return 0
		}
		score += best
	}

	// shorter names are closer matches
	tf := float64(len(terms)) / float64(len(words))
	return score * (1.0 + math.Log(1.0+tf))
}

// tokenize breaks text into lowercase letter/number runs
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			terms = append(terms, current.String())
			current.Reset()
		}
	}

	if current.Len() > 0 {
		terms = append(terms, current.String())
	}

	return terms
}
