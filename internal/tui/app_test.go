package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/ficroll/internal/api"
	"github.com/pders01/ficroll/internal/config"
)

type testApp struct {
	*App
	backend *fakeBackend
	prefs   *fakePrefs
	opener  *fakeOpener
}

func newTestApp(t *testing.T, dark bool) *testApp {
	t.Helper()
	cfg := config.TestConfig()
	cfg.Client.Debounce = time.Millisecond

	ta := &testApp{
		backend: &fakeBackend{},
		prefs:   newFakePrefs(),
		opener:  &fakeOpener{},
	}
	ta.App = NewApp(cfg, Options{
		Backend:     ta.backend,
		Prefs:       ta.prefs,
		Opener:      ta.opener,
		PrefersDark: func() bool { return dark },
	})
	// blinking cursors would make every command wait on a timer
	ta.tags.Cursor.SetMode(cursor.CursorStatic)
	ta.fandom.Cursor.SetMode(cursor.CursorStatic)
	ta.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return ta
}

func (ta *testApp) press(keys ...tea.KeyMsg) tea.Cmd {
	var cmds []tea.Cmd
	for _, k := range keys {
		_, cmd := ta.Update(k)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// settle feeds every message produced by cmd back into the app until
// nothing more comes out.
func (ta *testApp) settle(cmd tea.Cmd) {
	pending := collect(cmd)
	for len(pending) > 0 {
		msg := pending[0]
		pending = pending[1:]
		_, next := ta.Update(msg)
		pending = append(pending, collect(next)...)
	}
}

var (
	keyTab      = tea.KeyMsg{Type: tea.KeyTab}
	keyShiftTab = tea.KeyMsg{Type: tea.KeyShiftTab}
	keyEnter    = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc      = tea.KeyMsg{Type: tea.KeyEsc}
	keyDown     = tea.KeyMsg{Type: tea.KeyDown}
	keySpace    = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyCtrlT    = tea.KeyMsg{Type: tea.KeyCtrlT}
	keyCtrlO    = tea.KeyMsg{Type: tea.KeyCtrlO}
)

func TestAppThemeStartsFromTerminalAndToggles(t *testing.T) {
	ta := newTestApp(t, true)
	assert.Equal(t, ThemeDark, ta.themeAttr)
	assert.Equal(t, GlyphSun, ta.toggleGlyph)
	assert.Contains(t, ta.View(), GlyphSun)

	ta.press(keyCtrlT)
	assert.Equal(t, ThemeLight, ta.themeAttr)
	assert.Equal(t, GlyphMoon, ta.toggleGlyph)
	assert.Equal(t, "light", ta.prefs.values[themePreferenceKey])
	assert.Equal(t, MsgThemeSwitched(ThemeLight), ta.status.text)
}

func TestAppValidationError(t *testing.T) {
	ta := newTestApp(t, false)

	cmd := ta.press(keyEnter)
	ta.settle(cmd)

	assert.Equal(t, MsgValidation, ta.errMsg)
	assert.Empty(t, ta.backend.criteria)
	assert.Contains(t, ta.View(), MsgValidation)
}

func TestAppSubmitShowsResult(t *testing.T) {
	ta := newTestApp(t, false)
	ta.backend.work = &api.Work{
		Title: "Tea", Author: "anon", Rating: "Teen And Up Audiences",
		WordCount: "1234", URL: "https://archiveofourown.org/works/1", Source: "live",
	}

	cmd := ta.press(runes("fluff, angst"), keyEnter)
	assert.True(t, ta.loading)
	assert.False(t, ta.submitEnabled)
	assert.Equal(t, FormSubmitting, ta.form.State())

	ta.settle(cmd)

	require.Len(t, ta.backend.criteria, 1)
	assert.Equal(t, []string{"fluff", "angst"}, ta.backend.criteria[0].Tags)
	assert.Equal(t, FormResult, ta.form.State())
	assert.False(t, ta.loading)
	assert.True(t, ta.submitEnabled)
	require.NotNil(t, ta.result)
	assert.NotEmpty(t, ta.resultView)
	assert.Equal(t, StatusSuccess, ta.status.kind)

	// esc clears the card, the fields stay
	ta.press(keyEsc)
	assert.Empty(t, ta.resultView)
	assert.Equal(t, "fluff, angst", ta.tags.Value())
}

func TestAppSubmitFailureShowsBackendMessage(t *testing.T) {
	ta := newTestApp(t, false)
	ta.backend.err = &api.Error{Status: 404, Message: "No works found matching your criteria."}

	ta.settle(ta.press(runes("nonexistent tag"), keyEnter))

	assert.Equal(t, "No works found matching your criteria.", ta.errMsg)
	assert.Nil(t, ta.result)
	assert.True(t, ta.submitEnabled)
}

func TestAppFallbackResultSetsWarning(t *testing.T) {
	ta := newTestApp(t, false)
	ta.backend.work = &api.Work{Title: "Old", URL: "https://archiveofourown.org/works/2", Source: "cache", Stale: true}

	ta.settle(ta.press(runes("fluff"), keyEnter))

	assert.Equal(t, MsgStaleResult, ta.status.text)
	assert.Equal(t, StatusWarn, ta.status.kind)
}

func TestAppCategoryToggle(t *testing.T) {
	ta := newTestApp(t, false)
	require.NotEmpty(t, ta.categories)

	ta.press(keyTab, keyTab)
	assert.Equal(t, 0, ta.focus.category())

	ta.press(keySpace)
	assert.Equal(t, []string{ta.categories[0].Name}, ta.SelectedCategories())

	ta.press(keySpace)
	assert.Empty(t, ta.SelectedCategories())

	// q quits outside text fields
	_, cmd := ta.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestAppTypingQInTextFieldDoesNotQuit(t *testing.T) {
	ta := newTestApp(t, false)
	ta.press(runes("q"))
	assert.Equal(t, "q", ta.tags.Value())
}

func TestAppSpaceOnSubmitButtonSubmits(t *testing.T) {
	ta := newTestApp(t, false)
	ta.backend.work = &api.Work{Title: "x", URL: "https://archiveofourown.org/works/3"}
	ta.press(runes("fluff"), keyShiftTab)
	require.True(t, ta.focus.onSubmit())

	ta.settle(ta.press(keySpace))
	assert.Len(t, ta.backend.criteria, 1)
}

func (ta *testApp) typeFandom(t *testing.T, text string) {
	t.Helper()
	if ta.focus.current != focusFandom {
		ta.press(keyTab)
	}
	ta.settle(ta.press(runes(text)))
}

func TestAppFandomAutocomplete(t *testing.T) {
	ta := newTestApp(t, false)
	ta.backend.suggestions = []api.Suggestion{
		{ID: "Haikyuu!!", Name: "Haikyuu!!"},
		{ID: "Hamilton - Miranda", Name: "Hamilton - Miranda"},
	}

	ta.typeFandom(t, "ha")
	assert.Equal(t, []string{"ha"}, ta.backend.terms)
	require.True(t, ta.dropdownVisible)
	assert.Contains(t, ta.View(), "Haikyuu!!")

	ta.press(keyDown, keyDown)
	assert.Equal(t, 1, ta.activeRow)

	cmd := ta.press(keyEnter)
	ta.settle(cmd)
	assert.Equal(t, "Hamilton - Miranda", ta.fandom.Value())
	assert.False(t, ta.dropdownVisible)
	assert.Empty(t, ta.backend.criteria, "enter on a highlighted row does not submit")
}

func TestAppEnterWithoutHighlightSubmits(t *testing.T) {
	ta := newTestApp(t, false)
	ta.backend.suggestions = []api.Suggestion{{ID: "Haikyuu!!", Name: "Haikyuu!!"}}
	ta.backend.work = &api.Work{Title: "x", URL: "https://archiveofourown.org/works/3"}

	ta.typeFandom(t, "haikyuu")
	require.True(t, ta.dropdownVisible)

	ta.settle(ta.press(keyEnter))
	require.Len(t, ta.backend.criteria, 1)
	assert.Equal(t, "haikyuu", ta.backend.criteria[0].Fandom)
	assert.False(t, ta.dropdownVisible)
}

func TestAppEscAndFocusLossHideDropdown(t *testing.T) {
	ta := newTestApp(t, false)
	ta.backend.suggestions = []api.Suggestion{{ID: "Haikyuu!!", Name: "Haikyuu!!"}}

	ta.typeFandom(t, "ha")
	require.True(t, ta.dropdownVisible)
	ta.press(keyEsc)
	assert.False(t, ta.dropdownVisible)

	ta.typeFandom(t, "i")
	require.True(t, ta.dropdownVisible)
	ta.press(keyTab)
	assert.False(t, ta.dropdownVisible)
}

func TestAppMouseSelectsRowAndDismisses(t *testing.T) {
	ta := newTestApp(t, false)
	ta.backend.suggestions = []api.Suggestion{
		{ID: "Haikyuu!!", Name: "Haikyuu!!"},
		{ID: "Hamilton - Miranda", Name: "Hamilton - Miranda"},
	}
	ta.typeFandom(t, "ha")
	ta.View()
	require.GreaterOrEqual(t, ta.layout.dropdownTop, 0)

	ta.Update(tea.MouseMsg{X: 4, Y: ta.layout.dropdownTop + 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.Equal(t, "Hamilton - Miranda", ta.fandom.Value())
	assert.False(t, ta.dropdownVisible)

	ta.typeFandom(t, "x")
	require.True(t, ta.dropdownVisible)
	ta.View()
	ta.Update(tea.MouseMsg{X: 4, Y: ta.height - 3, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.False(t, ta.dropdownVisible)
}

func TestAppTypingDuringSubmitDoesNotQuery(t *testing.T) {
	ta := newTestApp(t, false)
	ta.backend.suggestions = []api.Suggestion{{ID: "Haikyuu!!", Name: "Haikyuu!!"}}
	ta.backend.work = &api.Work{Title: "x", URL: "https://archiveofourown.org/works/3"}

	ta.press(keyTab, runes("ha"))
	submit := ta.press(keyEnter)
	require.True(t, ta.autocomplete.Suppressed())

	ta.settle(ta.press(runes("ik")))
	assert.Empty(t, ta.backend.terms)
	assert.False(t, ta.dropdownVisible)

	ta.settle(submit)
	assert.False(t, ta.autocomplete.Suppressed())
}

func TestAppOpenResult(t *testing.T) {
	ta := newTestApp(t, false)

	ta.press(keyCtrlO)
	assert.Equal(t, MsgNothingOpen, ta.status.text)
	assert.Empty(t, ta.opener.urls)

	ta.Update(generateResultMsg{work: &api.Work{Title: "x", URL: "https://archiveofourown.org/works/9"}})
	ta.settle(ta.press(keyCtrlO))
	assert.Equal(t, []string{"https://archiveofourown.org/works/9"}, ta.opener.urls)

	ta.opener.err = errors.New("no browser")
	ta.settle(ta.press(keyCtrlO))
	assert.Equal(t, MsgOpenFailed, ta.status.text)
}

func TestAppStatusExpires(t *testing.T) {
	ta := newTestApp(t, false)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ta.now = func() time.Time { return base }
	ta.setStatus("hello there", StatusInfo)
	assert.Contains(t, ta.statusBar(), "hello there")

	ta.now = func() time.Time { return base.Add(statusTTL + time.Second) }
	assert.NotContains(t, ta.statusBar(), "hello there")
}

func TestResultMarkdown(t *testing.T) {
	md := resultMarkdown(&api.Work{
		Title: "Tea *and* Sympathy", Author: "anon", Rating: "Explicit",
		WordCount: "12345", URL: "https://archiveofourown.org/works/1",
	})
	assert.True(t, strings.HasPrefix(md, `## Tea \*and\* Sympathy`))
	assert.Contains(t, md, "**Words:** 12,345")
	assert.Contains(t, md, "<https://archiveofourown.org/works/1>")

	md = resultMarkdown(&api.Work{Title: "x", WordCount: "0"})
	assert.Contains(t, md, "**Words:** Unknown")
}

func TestAppNarrowTerminal(t *testing.T) {
	ta := newTestApp(t, false)
	ta.Update(tea.WindowSizeMsg{Width: 20, Height: 10})
	assert.Contains(t, ta.View(), "widen the terminal")
}
