package archive

import (
	"net/url"
	"strconv"
	"strings"
)

// WorksPerPage is the size of an AO3 search results page.
const WorksPerPage = 20

// Query is a normalized works search.
type Query struct {
	Tags       []string
	Categories []string
	Fandom     string
}

// SearchURL builds the works search URL for page. Only the first maxTags
// tags are sent.
func SearchURL(baseURL string, q Query, page int, maxTags int, cats *Categories) string {
	v := url.Values{}
	v.Set("commit", "Search")
	v.Set("work_search[language_id]", "en")
	v.Set("page", strconv.Itoa(page))

	tags := q.Tags
	if maxTags > 0 && len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	if len(tags) > 0 {
		v.Set("work_search[other_tag_names]", strings.Join(tags, ","))
	}

	if fandom := strings.Trim(strings.TrimSpace(q.Fandom), `"`); fandom != "" {
		v.Set("work_search[fandom_names]", `"`+fandom+`"`)
	}

	for _, id := range cats.IDs(q.Categories) {
		v.Add("work_search[category_ids][]", id)
	}

	return strings.TrimRight(baseURL, "/") + "/works/search?" + v.Encode()
}
