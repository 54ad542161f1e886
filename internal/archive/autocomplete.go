package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/pders01/ficroll/internal/api"
)

// MinTermLength is the shortest term forwarded upstream.
const MinTermLength = 2

// FandomSuggestions proxies AO3's fandom autocomplete. Short terms yield an
// empty list without a request.
func (a *Archive) FandomSuggestions(ctx context.Context, term string) ([]api.Suggestion, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < MinTermLength {
		return []api.Suggestion{}, nil
	}

	u := a.baseURL + "/autocomplete/fandom?" + url.Values{"term": {term}}.Encode()
	body, err := a.get(ctx, u, "application/json")
	if err != nil {
		return nil, err
	}

	var suggestions []api.Suggestion
	if err := json.Unmarshal(body, &suggestions); err != nil {
		return nil, &FetchError{Kind: KindParse, Err: fmt.Errorf("decoding suggestions: %w", err)}
	}
	if suggestions == nil {
		suggestions = []api.Suggestion{}
	}
	return suggestions, nil
}
