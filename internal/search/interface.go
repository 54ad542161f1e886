package search

import (
	"github.com/pders01/ficroll/internal/api"
	"github.com/pders01/ficroll/internal/storage"
)

// Suggester answers fandom autocomplete queries from local data.
type Suggester interface {
	Suggest(term string, limit int) ([]api.Suggestion, error)
}

// UpdateListener can be implemented by suggesters that maintain an external
// index and want to learn about fandoms seen upstream.
type UpdateListener interface {
	OnFandomsSeen(fandoms []api.Suggestion)
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}

// FandomSource lists every fandom the store has recorded.
type FandomSource interface {
	AllFandoms() ([]storage.Fandom, error)
}
