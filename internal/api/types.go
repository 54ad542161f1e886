// Package api holds the JSON shapes exchanged between the UI and the
// backend, plus the HTTP client the UI uses to reach it.
package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	GeneratePath     = "/generate"
	AutocompletePath = "/autocomplete/fandom"
)

// Criteria is the body of POST /generate.
type Criteria struct {
	Tags       []string `json:"tags"`
	Categories []string `json:"categories"`
	Fandom     string   `json:"fandom"`
}

// Empty reports whether no filter at all was given.
func (c Criteria) Empty() bool {
	return len(c.Tags) == 0 && len(c.Categories) == 0 && c.Fandom == ""
}

// Work is the success body of POST /generate.
type Work struct {
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Rating    string    `json:"rating"`
	WordCount WordCount `json:"word_count,omitempty"`
	URL       string    `json:"url"`
	Source    string    `json:"source,omitempty"`
	Stale     bool      `json:"stale,omitempty"`
}

// Suggestion is one row of the fandom autocomplete response.
type Suggestion struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ErrorBody is the failure body of both endpoints.
type ErrorBody struct {
	Error string `json:"error,omitempty"`
}

// WordCount keeps the raw word_count value. The backend scrapes it as a
// string ("12345" or "Unknown") but older responses carry a number, null or
// nothing at all.
type WordCount string

func (w *WordCount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*w = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*w = WordCount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*w = WordCount(n.String())
	return nil
}

// Int returns the count when it is a positive integer.
func (w WordCount) Int() (int64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(string(w)), ",", "")
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, false
		}
		n = int64(f)
	}
	if n <= 0 {
		return 0, false
	}
	return n, true
}

// FormatWordCount groups thousands ("12,345"). Zero, empty, missing and
// non-numeric values all read "Unknown".
func FormatWordCount(w WordCount) string {
	n, ok := w.Int()
	if !ok {
		return "Unknown"
	}
	return humanize.Comma(n)
}
