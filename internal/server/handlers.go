package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/pders01/ficroll/internal/api"
	"github.com/pders01/ficroll/internal/debuglog"
	"github.com/pders01/ficroll/internal/search"
	"github.com/pders01/ficroll/internal/service"
	"github.com/pders01/ficroll/internal/storage"
)

var errEmptyBody = errors.New("empty request body")

const (
	MsgInvalidBody    = "Invalid request body"
	MsgEmptyCriteria  = "Please provide at least one tag, fandom, or category."
	MsgNoWorks        = "No works found matching the selected filters."
	MsgUnavailable    = "AO3 is currently slow or unavailable. Please try again in a few moments."
	MsgRateLimited    = "Rate limit exceeded. Please try again in a minute."
	maxSuggestions    = 15
	maxGenerateBodyKB = 64
)

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	criteria, err := decodeCriteria(http.MaxBytesReader(w, r.Body, maxGenerateBodyKB<<10))
	if err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidBody)
		return
	}
	if service.Normalize(criteria).Empty() {
		writeError(w, http.StatusBadRequest, MsgEmptyCriteria)
		return
	}

	work, err := s.deps.Generator.Generate(r.Context(), criteria)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, work)
	case errors.Is(err, service.ErrEmptyCriteria):
		writeError(w, http.StatusBadRequest, MsgEmptyCriteria)
	case errors.Is(err, service.ErrNoWorks):
		writeError(w, http.StatusNotFound, MsgNoWorks)
	default:
		debuglog.Errorf("generate failed: %v", err)
		writeError(w, http.StatusBadGateway, MsgUnavailable)
	}
}

// decodeCriteria rejects bodies that are not a JSON object with at least
// one field, so `{}` and `null` count as invalid rather than empty.
func decodeCriteria(body io.Reader) (api.Criteria, error) {
	var criteria api.Criteria
	var fields map[string]json.RawMessage
	raw, err := io.ReadAll(body)
	if err != nil {
		return criteria, err
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return criteria, err
	}
	if len(fields) == 0 {
		return criteria, errEmptyBody
	}
	if err := json.Unmarshal(raw, &criteria); err != nil {
		return criteria, err
	}
	return criteria, nil
}

// handleAutocomplete always answers 200 with a list. AO3 is asked first; on
// failure the local fandom index answers instead.
func (s *Server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("term"))
	if len([]rune(term)) < search.MinQueryLength {
		s.deps.Metrics.Autocomplete.WithLabelValues("empty").Inc()
		writeJSON(w, http.StatusOK, []api.Suggestion{})
		return
	}

	suggestions, err := s.deps.Upstream.FandomSuggestions(r.Context(), term)
	if err == nil {
		s.recordFandoms(suggestions)
		s.deps.Metrics.Autocomplete.WithLabelValues("upstream").Inc()
		writeJSON(w, http.StatusOK, suggestions)
		return
	}

	log := debuglog.WithFields(map[string]any{"term": term})
	log.Warnf("upstream autocomplete failed: %v", err)

	if s.deps.Suggester != nil {
		local, serr := s.deps.Suggester.Suggest(term, maxSuggestions)
		if serr == nil && len(local) > 0 {
			s.deps.Metrics.Autocomplete.WithLabelValues("index").Inc()
			writeJSON(w, http.StatusOK, local)
			return
		}
		if serr != nil {
			log.Warnf("local fandom index failed: %v", serr)
		}
	}

	s.deps.Metrics.Autocomplete.WithLabelValues("empty").Inc()
	writeJSON(w, http.StatusOK, []api.Suggestion{})
}

func (s *Server) recordFandoms(suggestions []api.Suggestion) {
	if len(suggestions) == 0 {
		return
	}
	if l, ok := s.deps.Suggester.(search.UpdateListener); ok {
		l.OnFandomsSeen(suggestions)
	}
	if s.deps.Recorder == nil {
		return
	}
	fandoms := make([]storage.Fandom, 0, len(suggestions))
	for _, sg := range suggestions {
		fandoms = append(fandoms, storage.Fandom{ID: sg.ID, Name: sg.Name})
	}
	if err := s.deps.Recorder.SaveFandoms(fandoms); err != nil {
		debuglog.Warnf("saving %d fandoms: %v", len(fandoms), err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if st, ok := s.deps.Suggester.(search.DebugStatser); ok {
		if n, err := st.DocCount(); err == nil {
			body["fandoms"] = n
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		debuglog.Warnf("writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorBody{Error: msg})
}
