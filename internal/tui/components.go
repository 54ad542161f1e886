package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderInputFrame draws a rounded bordered container around a rendered
// input view.
func (s Styles) renderInputFrame(inputView string, focused bool, contentWidth int) string {
	borderColor := lipgloss.Color(s.Palette.Muted)
	if focused {
		borderColor = lipgloss.Color(s.Palette.Accent)
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(contentWidth + 4).
		Render(inputView)
}

func (s Styles) renderLabel(text string, active bool) string {
	if active {
		return s.LabelActive.Render("› " + text)
	}
	return s.Label.Render("  " + text)
}

func (s Styles) renderCheckbox(label string, checked, focused bool) string {
	box := "[ ]"
	if checked {
		box = "[x]"
	}
	if focused {
		return s.CheckboxFocused.Render(box + " " + label)
	}
	return s.Checkbox.Render(box + " " + label)
}

func (s Styles) renderSeparator(width int) string {
	if width < 1 {
		width = 1
	}
	return s.Separator.Render(strings.Repeat("─", width))
}

func (s Styles) statusStyle(kind StatusKind) lipgloss.Style {
	switch kind {
	case StatusSuccess:
		return s.StatusSuccess
	case StatusWarn:
		return s.StatusWarn
	case StatusError:
		return s.StatusError
	default:
		return s.StatusInfo
	}
}
