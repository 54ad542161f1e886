package tui

import "github.com/pders01/ficroll/internal/api"

// View is everything the controllers may read from or change on screen.
// App implements it; tests use a recording fake.
type View interface {
	SetThemeAttribute(theme Theme)
	SetToggleGlyph(glyph string)

	TagsValue() string
	FandomValue() string
	SetFandomValue(value string)
	SelectedCategories() []string

	SetSubmitEnabled(enabled bool)
	SetLoading(loading bool)
	ShowResult(work *api.Work)
	HideResult()
	ShowError(message string)
	HideError()

	// SetDropdownRows replaces the rows; visibility is set separately.
	SetDropdownRows(rows []api.Suggestion)
	SetDropdownVisible(visible bool)
	// SetActiveRow marks row index as active; -1 clears the marker.
	SetActiveRow(index int)
}
