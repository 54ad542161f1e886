package tui

import (
	"errors"

	"github.com/pders01/ficroll/internal/debuglog"
	"github.com/pders01/ficroll/internal/storage"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

const (
	themePreferenceKey = "theme"

	// GlyphSun offers the switch back to light while dark is active.
	GlyphSun  = "☀"
	GlyphMoon = "☾"
)

// Preferences is the persisted client state.
type Preferences interface {
	GetPreference(name string) (string, error)
	SetPreference(name, value string) error
}

// ThemeController owns the light/dark choice.
type ThemeController struct {
	view        View
	prefs       Preferences
	prefersDark func() bool
	current     Theme
}

// NewThemeController builds a controller. prefs may be nil, in which case
// nothing is remembered between runs.
func NewThemeController(view View, prefs Preferences, prefersDark func() bool) *ThemeController {
	if prefersDark == nil {
		prefersDark = func() bool { return false }
	}
	return &ThemeController{view: view, prefs: prefs, prefersDark: prefersDark, current: ThemeLight}
}

// ResolveInitial applies the stored choice, then the terminal's dark
// preference, then light.
func (t *ThemeController) ResolveInitial() Theme {
	theme := ThemeLight
	if stored, ok := t.stored(); ok {
		theme = stored
	} else if t.prefersDark() {
		theme = ThemeDark
	}
	t.Apply(theme)
	return theme
}

func (t *ThemeController) stored() (Theme, bool) {
	if t.prefs == nil {
		return "", false
	}
	v, err := t.prefs.GetPreference(themePreferenceKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			debuglog.Warnf("reading theme preference: %v", err)
		}
		return "", false
	}
	switch Theme(v) {
	case ThemeLight, ThemeDark:
		return Theme(v), true
	default:
		return "", false
	}
}

func (t *ThemeController) Apply(theme Theme) {
	t.current = theme
	t.view.SetThemeAttribute(theme)
	t.view.SetToggleGlyph(ToggleGlyph(theme))
}

// Toggle flips, persists and applies the theme. A failed write is logged;
// the new theme still applies for this session.
func (t *ThemeController) Toggle() Theme {
	next := ThemeDark
	if t.current == ThemeDark {
		next = ThemeLight
	}
	if t.prefs != nil {
		if err := t.prefs.SetPreference(themePreferenceKey, string(next)); err != nil {
			debuglog.Warnf("saving theme preference: %v", err)
		}
	}
	t.Apply(next)
	return next
}

func (t *ThemeController) Current() Theme { return t.current }

func ToggleGlyph(theme Theme) string {
	if theme == ThemeDark {
		return GlyphSun
	}
	return GlyphMoon
}
