package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/ficroll/internal/api"
	"github.com/pders01/ficroll/internal/archive"
	"github.com/pders01/ficroll/internal/config"
	"github.com/pders01/ficroll/internal/debuglog"
)

// Backend is the HTTP API the form talks to.
type Backend interface {
	Generator
	Suggester
}

// Options carries the App's collaborators. Prefs and Opener may be nil.
type Options struct {
	Backend     Backend
	Prefs       Preferences
	Opener      Opener
	PrefersDark func() bool
}

// layout records where interactive blocks were drawn so mouse clicks can
// be routed. Rows are zero-based screen lines.
type layout struct {
	tagsTop, tagsBottom     int
	fandomTop, fandomBottom int
	dropdownTop             int
	headerGlyphX            int
}

type App struct {
	config     *config.Config
	keyHandler *KeyHandler
	help       help.Model
	spinner    spinner.Model
	tags       textinput.Model
	fandom     textinput.Model
	categories []archive.Category
	checked    []bool
	focus      focusRing
	opener     Opener

	theme        *ThemeController
	form         *FormController
	autocomplete *AutocompleteController

	themeAttr       Theme
	toggleGlyph     string
	submitEnabled   bool
	loading         bool
	result          *api.Work
	resultView      string
	errMsg          string
	dropdownRows    []api.Suggestion
	dropdownVisible bool
	activeRow       int

	styles          Styles
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
	rendererTheme   Theme

	status status
	now    func() time.Time

	width  int
	height int
	layout layout
}

func NewApp(cfg *config.Config, opts Options) *App {
	tags := textinput.New()
	tags.Placeholder = "fluff, slow burn, hurt/comfort"
	tags.Prompt = ""
	tags.CharLimit = 500
	tags.Focus()

	fandom := textinput.New()
	fandom.Placeholder = "start typing a fandom…"
	fandom.Prompt = ""
	fandom.CharLimit = 200

	cats := archive.MustCategories().All()

	a := &App{
		config:        cfg,
		help:          help.New(),
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot)),
		tags:          tags,
		fandom:        fandom,
		categories:    cats,
		checked:       make([]bool, len(cats)),
		focus:         focusRing{current: focusTags, categories: len(cats)},
		opener:        orNoOpener(opts.Opener),
		submitEnabled: true,
		activeRow:     -1,
		now:           time.Now,
		width:         80,
	}

	a.autocomplete = NewAutocompleteController(a, opts.Backend, cfg.Client.Debounce, cfg.Client.MinChars, cfg.Client.HTTPTimeout)
	a.form = NewFormController(a, opts.Backend, a.autocomplete, cfg.Client.HTTPTimeout)
	a.theme = NewThemeController(a, opts.Prefs, opts.PrefersDark)
	a.keyHandler = NewKeyHandler(a)
	a.tags.Width = a.inputWidth()
	a.fandom.Width = a.inputWidth()

	a.theme.ResolveInitial()
	return a
}

type noOpener struct{}

func (noOpener) Open(string) error { return fmt.Errorf("no opener configured") }

func orNoOpener(o Opener) Opener {
	if o == nil {
		return noOpener{}
	}
	return o
}

func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		w := a.inputWidth()
		a.tags.Width = w
		a.fandom.Width = w
		if a.result != nil {
			a.resultView = a.renderResult(a.result)
		}
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case tea.MouseMsg:
		return a, a.handleMouse(msg)

	case spinner.TickMsg:
		if !a.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case autocompleteDebounceMsg:
		return a, a.autocomplete.OnDebounce(msg)

	case autocompleteResultMsg:
		a.autocomplete.OnResult(msg)
		return a, nil

	case generateResultMsg:
		a.form.HandleResult(msg)
		a.reportResult(msg)
		return a, nil

	case linkOpenedMsg:
		if msg.err != nil {
			debuglog.Warnf("opening %s: %v", msg.url, msg.err)
			a.setStatus(MsgOpenFailed, StatusError)
		}
		return a, nil
	}

	// cursor blink and friends go to the focused input
	var cmd tea.Cmd
	switch a.focus.current {
	case focusTags:
		a.tags, cmd = a.tags.Update(msg)
	case focusFandom:
		a.fandom, cmd = a.fandom.Update(msg)
	}
	return a, cmd
}

func (a *App) reportResult(msg generateResultMsg) {
	if msg.err != nil || msg.work == nil {
		return
	}
	switch {
	case msg.work.Source == "cache" && msg.work.Stale:
		a.setStatus(MsgStaleResult, StatusWarn)
	case msg.work.Source == "cache":
		a.setStatus(MsgCachedResult, StatusWarn)
	case msg.work.Source == "feed":
		a.setStatus(MsgFeedResult, StatusWarn)
	default:
		a.setStatus("ctrl+o opens "+truncateEnd(msg.work.Title, 40), StatusSuccess)
	}
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = status{text: text, kind: kind, expires: a.now().Add(statusTTL)}
}

func (a *App) setFocus(f focus) tea.Cmd {
	if a.focus.current == focusFandom && f != focusFandom {
		a.autocomplete.Hide()
	}
	a.focus.current = f
	a.tags.Blur()
	a.fandom.Blur()
	switch f {
	case focusTags:
		return a.tags.Focus()
	case focusFandom:
		return a.fandom.Focus()
	}
	return nil
}

func (a *App) toggleCategory(i int) {
	if i < 0 || i >= len(a.checked) {
		return
	}
	a.checked[i] = !a.checked[i]
	n := len(a.SelectedCategories())
	a.setStatus(MsgCategoriesSelected(n), StatusInfo)
}

func (a *App) submit() tea.Cmd {
	cmd := a.form.Submit()
	if cmd == nil {
		return nil
	}
	a.setStatus(MsgRolling, StatusInfo)
	return tea.Batch(cmd, a.spinner.Tick)
}

func (a *App) openResult() tea.Cmd {
	if a.result == nil || a.result.URL == "" {
		a.setStatus(MsgNothingOpen, StatusWarn)
		return nil
	}
	a.setStatus(MsgOpening+" "+truncateMiddle(a.result.URL, 48), StatusInfo)
	return openLinkCmd(a.opener, a.result.URL)
}

func (a *App) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return nil
	}
	y := msg.Y

	if a.dropdownVisible && a.layout.dropdownTop >= 0 {
		if row := y - a.layout.dropdownTop; row >= 0 && row < len(a.dropdownRows) {
			a.autocomplete.Select(row)
			return a.setFocus(focusFandom)
		}
	}

	switch {
	case y >= a.layout.fandomTop && y <= a.layout.fandomBottom:
		return a.setFocus(focusFandom)
	case y >= a.layout.tagsTop && y <= a.layout.tagsBottom:
		a.autocomplete.Hide()
		return a.setFocus(focusTags)
	case y == 0 && msg.X >= a.layout.headerGlyphX:
		a.autocomplete.Hide()
		a.setStatus(MsgThemeSwitched(a.theme.Toggle()), StatusInfo)
		return nil
	}

	// anywhere else dismisses the dropdown
	a.autocomplete.Hide()
	return nil
}

// View interface

func (a *App) SetThemeAttribute(theme Theme) {
	a.themeAttr = theme
	palette := a.config.UI.Light
	if theme == ThemeDark {
		palette = a.config.UI.Dark
	}
	a.styles = NewStyles(palette)
	a.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Primary))
	a.help.Styles.ShortKey = a.styles.LabelActive
	a.help.Styles.ShortDesc = a.styles.Muted
	a.help.Styles.ShortSeparator = a.styles.Muted
	if a.result != nil {
		a.resultView = a.renderResult(a.result)
	}
}

func (a *App) SetToggleGlyph(glyph string) { a.toggleGlyph = glyph }

func (a *App) TagsValue() string { return a.tags.Value() }

func (a *App) FandomValue() string { return a.fandom.Value() }

func (a *App) SetFandomValue(value string) {
	a.fandom.SetValue(value)
	a.fandom.CursorEnd()
}

func (a *App) SelectedCategories() []string {
	out := []string{}
	for i, c := range a.categories {
		if a.checked[i] {
			out = append(out, c.Name)
		}
	}
	return out
}

func (a *App) SetSubmitEnabled(enabled bool) { a.submitEnabled = enabled }

func (a *App) SetLoading(loading bool) { a.loading = loading }

func (a *App) ShowResult(work *api.Work) {
	a.result = work
	a.resultView = a.renderResult(work)
}

func (a *App) HideResult() {
	a.result = nil
	a.resultView = ""
}

func (a *App) ShowError(message string) { a.errMsg = message }

func (a *App) HideError() { a.errMsg = "" }

func (a *App) SetDropdownRows(rows []api.Suggestion) { a.dropdownRows = rows }

func (a *App) SetDropdownVisible(visible bool) { a.dropdownVisible = visible }

func (a *App) SetActiveRow(index int) { a.activeRow = index }

// rendering

func (a *App) contentWidth() int {
	w := a.width - 2
	if w > 100 {
		w = 100
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (a *App) inputWidth() int {
	return a.contentWidth() - 4
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	wrap := a.contentWidth() - 4
	if wrap < 20 {
		wrap = 20
	}

	if a.glamourRenderer == nil || a.rendererWidth != wrap || a.rendererTheme != a.themeAttr {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(string(a.themeAttr)),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wrap
		a.rendererTheme = a.themeAttr
	}
	return a.glamourRenderer, nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`, "`", "\\`", "#", `\#`, "<", `\<`,
)

func resultMarkdown(w *api.Work) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", markdownEscaper.Replace(w.Title))
	fmt.Fprintf(&b, "**Author:** %s  \n", markdownEscaper.Replace(w.Author))
	fmt.Fprintf(&b, "**Rating:** %s  \n", markdownEscaper.Replace(w.Rating))
	fmt.Fprintf(&b, "**Words:** %s\n\n", api.FormatWordCount(w.WordCount))
	fmt.Fprintf(&b, "Read on AO3: <%s>\n", w.URL)
	return b.String()
}

func (a *App) renderResult(w *api.Work) string {
	if w == nil {
		return ""
	}
	md := resultMarkdown(w)
	body := md
	if r, err := a.getRenderer(); err != nil {
		debuglog.Warnf("creating markdown renderer: %v", err)
	} else if out, err := r.Render(md); err != nil {
		debuglog.Warnf("rendering result: %v", err)
	} else {
		body = strings.Trim(out, "\n")
	}
	return a.styles.Card.Width(a.contentWidth()).Render(body)
}

func (a *App) renderHeader() string {
	left := a.styles.Logo.Render(CompactLogo) + " " + a.styles.Muted.Render("random fic picker")
	glyph := a.styles.LabelActive.Render(" " + a.toggleGlyph + " ")
	gap := a.contentWidth() - lipgloss.Width(left) - lipgloss.Width(glyph)
	if gap < 1 {
		gap = 1
	}
	a.layout.headerGlyphX = lipgloss.Width(left) + gap
	return left + strings.Repeat(" ", gap) + glyph
}

func (a *App) renderDropdown() string {
	w := a.contentWidth() - 4
	rows := make([]string, 0, len(a.dropdownRows))
	for i, s := range a.dropdownRows {
		name := truncateEnd(s.Name, w)
		if i == a.activeRow {
			rows = append(rows, a.styles.RowActive.Width(w+2).Render(name))
		} else {
			rows = append(rows, a.styles.Row.Width(w+2).Render(name))
		}
	}
	return lipgloss.NewStyle().PaddingLeft(1).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a *App) renderCategories() string {
	boxes := make([]string, 0, len(a.categories))
	focused := a.focus.category()
	for i, c := range a.categories {
		boxes = append(boxes, a.styles.renderCheckbox(c.Label, a.checked[i], i == focused))
	}
	return "  " + strings.Join(boxes, "  ")
}

func (a *App) renderSubmit() string {
	if a.loading {
		return "  " + a.spinner.View() + " " + a.styles.Muted.Render(MsgRolling)
	}
	label := "Roll a fic"
	switch {
	case !a.submitEnabled:
		return "  " + a.styles.ButtonDisabled.Render(label)
	case a.focus.onSubmit():
		return "  " + a.styles.ButtonFocused.Render(label)
	default:
		return "  " + a.styles.Button.Render(label)
	}
}

const minWidth = 30

func (a *App) View() string {
	if a.width < minWidth {
		return a.styles.GetCompactBanner("widen the terminal")
	}

	var blocks []string
	offset := 0
	add := func(s string) int {
		top := offset
		blocks = append(blocks, s)
		offset += lipgloss.Height(s)
		return top
	}

	add(a.renderHeader())
	add("")

	add(a.styles.renderLabel("Tags (comma separated)", a.focus.current == focusTags))
	a.layout.tagsTop = add(a.styles.renderInputFrame(a.tags.View(), a.focus.current == focusTags, a.inputWidth()))
	a.layout.tagsBottom = offset - 1

	add(a.styles.renderLabel("Fandom", a.focus.current == focusFandom))
	a.layout.fandomTop = add(a.styles.renderInputFrame(a.fandom.View(), a.focus.current == focusFandom, a.inputWidth()))
	a.layout.fandomBottom = offset - 1

	a.layout.dropdownTop = -1
	if a.dropdownVisible && len(a.dropdownRows) > 0 {
		a.layout.dropdownTop = add(a.renderDropdown())
	}

	add("")
	add(a.styles.renderLabel("Categories", a.focus.category() >= 0))
	add(a.renderCategories())
	add("")
	add(a.renderSubmit())
	add("")

	if a.errMsg != "" {
		add(a.styles.ErrorPanel.Width(a.contentWidth()).Render("✗ " + a.errMsg))
	}
	if a.resultView != "" {
		add(a.resultView)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, blocks...)
	if a.height > 2 {
		content = lipgloss.NewStyle().Height(a.height - 2).MaxHeight(a.height - 2).Render(content)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		content,
		a.styles.renderSeparator(a.width),
		a.statusBar(),
	)
}

func (a *App) statusBar() string {
	if a.status.text != "" && a.now().Before(a.status.expires) {
		return lipgloss.NewStyle().Padding(0, 1).Render(
			a.styles.statusStyle(a.status.kind).Render(truncateEnd(a.status.text, a.width-2)),
		)
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(a.help.ShortHelpView(a.keyHandler.bindings()))
}
