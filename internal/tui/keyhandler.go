package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type keyMap struct {
	Next      key.Binding
	Prev      key.Binding
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Submit    key.Binding
	Toggle    key.Binding
	Theme     key.Binding
	Open      key.Binding
	Dismiss   key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Next:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next")),
		Prev:      key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev")),
		Up:        key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:      key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		Left:      key.NewBinding(key.WithKeys("left"), key.WithHelp("←/→", "move")),
		Right:     key.NewBinding(key.WithKeys("right")),
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "roll")),
		Toggle:    key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "toggle")),
		Theme:     key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "theme")),
		Open:      key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "open")),
		Dismiss:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

type KeyHandler struct {
	app  *App
	keys keyMap
}

func NewKeyHandler(app *App) *KeyHandler {
	return &KeyHandler{app: app, keys: newKeyMap()}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	k := kh.keys

	if key.Matches(msg, k.ForceQuit) {
		return a, tea.Quit
	}

	if a.focus.current == focusFandom && a.autocomplete.Visible() {
		if handled := kh.handleDropdown(msg); handled {
			return a, nil
		}
	}

	switch {
	case key.Matches(msg, k.Theme):
		a.setStatus(MsgThemeSwitched(a.theme.Toggle()), StatusInfo)
		return a, nil
	case key.Matches(msg, k.Open):
		return a, a.openResult()
	case key.Matches(msg, k.Next):
		return a, kh.moveFocus(1)
	case key.Matches(msg, k.Prev):
		return a, kh.moveFocus(-1)
	case key.Matches(msg, k.Up):
		return a, kh.moveFocus(-1)
	case key.Matches(msg, k.Down):
		return a, kh.moveFocus(1)
	case key.Matches(msg, k.Submit):
		return a, a.submit()
	case key.Matches(msg, k.Dismiss):
		if s := a.form.State(); s == FormResult || s == FormError {
			a.form.Dismiss()
		}
		return a, nil
	}

	if a.focus.onText() {
		return kh.delegateToTextInput(msg)
	}

	switch {
	case key.Matches(msg, k.Toggle):
		if i := a.focus.category(); i >= 0 {
			a.toggleCategory(i)
			return a, nil
		}
		if a.focus.onSubmit() {
			return a, a.submit()
		}
	case key.Matches(msg, k.Left):
		return a, kh.moveFocus(-1)
	case key.Matches(msg, k.Right):
		return a, kh.moveFocus(1)
	case key.Matches(msg, k.Quit):
		return a, tea.Quit
	}
	return a, nil
}

// handleDropdown routes keys while the suggestion list is open. Enter with
// no highlighted row is left for the form.
func (kh *KeyHandler) handleDropdown(msg tea.KeyMsg) bool {
	ac := kh.app.autocomplete
	switch {
	case key.Matches(msg, kh.keys.Down):
		ac.MoveDown()
	case key.Matches(msg, kh.keys.Up):
		ac.MoveUp()
	case key.Matches(msg, kh.keys.Submit):
		return ac.SelectActive()
	case key.Matches(msg, kh.keys.Dismiss):
		ac.Escape()
	default:
		return false
	}
	return true
}

func (kh *KeyHandler) moveFocus(delta int) tea.Cmd {
	ring := kh.app.focus
	if delta > 0 {
		ring.next()
	} else {
		ring.prev()
	}
	return kh.app.setFocus(ring.current)
}

func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	var cmd tea.Cmd
	switch a.focus.current {
	case focusTags:
		a.tags, cmd = a.tags.Update(msg)
	case focusFandom:
		before := a.fandom.Value()
		a.fandom, cmd = a.fandom.Update(msg)
		if after := a.fandom.Value(); after != before {
			return a, tea.Batch(cmd, a.autocomplete.OnInput(after))
		}
	}
	return a, cmd
}

// bindings is the short help for the focused control.
func (kh *KeyHandler) bindings() []key.Binding {
	k := kh.keys
	a := kh.app
	switch {
	case a.focus.current == focusFandom && a.autocomplete.Visible():
		return []key.Binding{k.Up, k.Down, k.Submit, k.Dismiss}
	case a.focus.onText():
		out := []key.Binding{k.Next, k.Submit, k.Theme}
		if a.result != nil {
			out = append(out, k.Open)
		}
		return append(out, k.ForceQuit)
	default:
		out := []key.Binding{k.Toggle, k.Left, k.Submit, k.Theme}
		if a.result != nil {
			out = append(out, k.Open)
		}
		return append(out, k.Quit)
	}
}
