package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/ficroll/internal/api"
	"github.com/pders01/ficroll/internal/storage"
)

type fakeView struct {
	theme         Theme
	glyph         string
	tags          string
	fandom        string
	categories    []string
	submitEnabled bool
	loading       bool
	result        *api.Work
	errMsg        string
	rows          []api.Suggestion
	visible       bool
	active        int
}

func newFakeView() *fakeView {
	return &fakeView{submitEnabled: true, active: -1}
}

func (v *fakeView) SetThemeAttribute(t Theme) { v.theme = t }
func (v *fakeView) SetToggleGlyph(g string) { v.glyph = g }
func (v *fakeView) TagsValue() string { return v.tags }
func (v *fakeView) FandomValue() string { return v.fandom }
func (v *fakeView) SetFandomValue(s string) { v.fandom = s }
func (v *fakeView) SelectedCategories() []string { return v.categories }
func (v *fakeView) SetSubmitEnabled(b bool) { v.submitEnabled = b }
func (v *fakeView) SetLoading(b bool) { v.loading = b }
func (v *fakeView) ShowResult(w *api.Work) { v.result = w }
func (v *fakeView) HideResult() { v.result = nil }
func (v *fakeView) ShowError(m string) { v.errMsg = m }
func (v *fakeView) HideError() { v.errMsg = "" }
func (v *fakeView) SetDropdownRows(rows []api.Suggestion) { v.rows = rows }
func (v *fakeView) SetDropdownVisible(b bool) { v.visible = b }
func (v *fakeView) SetActiveRow(i int) { v.active = i }

type fakeBackend struct {
	mu          sync.Mutex
	work        *api.Work
	err         error
	criteria    []api.Criteria
	suggestions []api.Suggestion
	suggestErr  error
	terms       []string
}

func (b *fakeBackend) Generate(_ context.Context, c api.Criteria) (*api.Work, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.criteria = append(b.criteria, c)
	return b.work, b.err
}

func (b *fakeBackend) AutocompleteFandom(_ context.Context, term string) ([]api.Suggestion, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.terms = append(b.terms, term)
	return b.suggestions, b.suggestErr
}

type fakePrefs struct {
	values map[string]string
	err    error
}

func newFakePrefs() *fakePrefs { return &fakePrefs{values: map[string]string{}} }

func (p *fakePrefs) GetPreference(name string) (string, error) {
	v, ok := p.values[name]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (p *fakePrefs) SetPreference(name, value string) error {
	if p.err != nil {
		return p.err
	}
	p.values[name] = value
	return nil
}

type fakeOpener struct {
	urls []string
	err  error
}

func (o *fakeOpener) Open(url string) error {
	o.urls = append(o.urls, url)
	return o.err
}

// collect runs cmd and every command batched under it, returning the
// messages of the types the app itself produces.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	switch msg.(type) {
	case generateResultMsg, autocompleteDebounceMsg, autocompleteResultMsg, linkOpenedMsg:
		return []tea.Msg{msg}
	}
	return nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}
