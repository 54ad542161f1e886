package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/ficroll/internal/api"
	"github.com/pders01/ficroll/internal/debuglog"
)

const (
	DefaultDebounce = 300 * time.Millisecond
	DefaultMinChars = 2
)

// Suggester is the backend call behind the fandom dropdown.
type Suggester interface {
	AutocompleteFandom(ctx context.Context, term string) ([]api.Suggestion, error)
}

// AutocompleteController debounces fandom edits into suggestion queries and
// drives the dropdown, including its keyboard highlight.
type AutocompleteController struct {
	view     View
	client   Suggester
	debounce time.Duration
	minChars int
	timeout  time.Duration

	// debounceSeq invalidates pending timers; querySeq invalidates
	// responses to anything but the latest query.
	debounceSeq int
	querySeq    int
	suppressed  bool

	rows    []api.Suggestion
	active  int
	visible bool
}

func NewAutocompleteController(view View, client Suggester, debounce time.Duration, minChars int, timeout time.Duration) *AutocompleteController {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	return &AutocompleteController{
		view:     view,
		client:   client,
		debounce: debounce,
		minChars: minChars,
		timeout:  timeout,
		active:   -1,
	}
}

// OnInput reacts to an edit of the fandom field. Every edit cancels the
// pending timer; long enough input schedules a new one.
func (a *AutocompleteController) OnInput(value string) tea.Cmd {
	if a.suppressed {
		return nil
	}
	a.debounceSeq++

	term := strings.TrimSpace(value)
	if len([]rune(term)) < a.minChars {
		a.Hide()
		return nil
	}

	seq := a.debounceSeq
	return tea.Tick(a.debounce, func(time.Time) tea.Msg {
		return autocompleteDebounceMsg{seq: seq, term: term}
	})
}

// OnDebounce fires the query if no edit happened since the timer started.
func (a *AutocompleteController) OnDebounce(msg autocompleteDebounceMsg) tea.Cmd {
	if msg.seq != a.debounceSeq || a.suppressed {
		return nil
	}
	a.querySeq++
	return autocompleteCmd(a.client, a.querySeq, msg.term, a.timeout)
}

// OnResult renders the response to the latest query and drops the rest.
func (a *AutocompleteController) OnResult(msg autocompleteResultMsg) {
	if msg.seq != a.querySeq {
		debuglog.Debugf("dropping autocomplete response %d for %q (latest %d)", msg.seq, msg.term, a.querySeq)
		return
	}
	if a.suppressed {
		return
	}
	if msg.err != nil {
		debuglog.Warnf("autocomplete %q failed: %v", msg.term, msg.err)
		a.Hide()
		return
	}
	a.Render(msg.suggestions)
}

// Render rebuilds the rows in response order and resets the highlight.
// An empty list hides the dropdown.
func (a *AutocompleteController) Render(suggestions []api.Suggestion) {
	a.active = -1
	a.view.SetActiveRow(-1)
	if len(suggestions) == 0 {
		a.rows = nil
		a.Hide()
		return
	}
	a.rows = suggestions
	a.view.SetDropdownRows(suggestions)
	a.visible = true
	a.view.SetDropdownVisible(true)
}

func (a *AutocompleteController) Hide() {
	a.visible = false
	a.view.SetDropdownVisible(false)
}

// Suppress force-hides the dropdown and ignores edits, pending timers and
// responses until Unsuppress. Queries already in flight stay stale after
// Unsuppress.
func (a *AutocompleteController) Suppress() {
	a.suppressed = true
	a.debounceSeq++
	a.querySeq++
	a.Hide()
}

func (a *AutocompleteController) Unsuppress() {
	a.suppressed = false
}

func (a *AutocompleteController) Suppressed() bool { return a.suppressed }

func (a *AutocompleteController) Visible() bool { return a.visible }

func (a *AutocompleteController) Active() int { return a.active }

func (a *AutocompleteController) Rows() []api.Suggestion { return a.rows }

// MoveDown advances the highlight, wrapping from the last row to the first.
func (a *AutocompleteController) MoveDown() {
	if !a.visible || len(a.rows) == 0 {
		return
	}
	a.active = (a.active + 1) % len(a.rows)
	a.view.SetActiveRow(a.active)
}

// MoveUp retreats the highlight, wrapping from the first row (or none) to
// the last.
func (a *AutocompleteController) MoveUp() {
	if !a.visible || len(a.rows) == 0 {
		return
	}
	if a.active <= 0 {
		a.active = len(a.rows) - 1
	} else {
		a.active--
	}
	a.view.SetActiveRow(a.active)
}

// SelectActive picks the highlighted row. It reports false when no row is
// highlighted, so Enter can fall through to submitting the form.
func (a *AutocompleteController) SelectActive() bool {
	if !a.visible || a.active < 0 || a.active >= len(a.rows) {
		return false
	}
	a.Select(a.active)
	return true
}

// Select writes the row's id into the fandom field and closes the dropdown.
func (a *AutocompleteController) Select(index int) {
	if index < 0 || index >= len(a.rows) {
		return
	}
	a.view.SetFandomValue(a.rows[index].ID)
	a.Hide()
}

// Escape hides the dropdown. The highlight is left alone; the next render
// resets it.
func (a *AutocompleteController) Escape() {
	a.Hide()
}
