package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/ficroll/internal/config"
)

const AppName = "ficroll"

var LogoLines = []string{
	"▄▀▀ ▀ ▄▀▀ █▀▄ ▄▀▄ █   █  ",
	"█▀  █ █   █▀▄ █ █ █   █  ",
	"▀   ▀  ▀▀ ▀ ▀  ▀  ▀▀▀ ▀▀▀",
}

const CompactLogo = `ficroll ›`

// Banner gradient colors
var BannerColors = []lipgloss.Color{
	lipgloss.Color("#FF6B6B"),
	lipgloss.Color("#FFA86B"),
	lipgloss.Color("#95E1D3"),
	lipgloss.Color("#4ECDC4"),
}

// Styles is the palette-bound style set. It is rebuilt whenever the theme
// changes.
type Styles struct {
	Palette config.Palette

	Logo        lipgloss.Style
	Title       lipgloss.Style
	Header      lipgloss.Style
	Label       lipgloss.Style
	LabelActive lipgloss.Style
	Muted       lipgloss.Style
	Help        lipgloss.Style
	Separator   lipgloss.Style

	Row       lipgloss.Style
	RowActive lipgloss.Style

	Checkbox        lipgloss.Style
	CheckboxFocused lipgloss.Style

	Button         lipgloss.Style
	ButtonFocused  lipgloss.Style
	ButtonDisabled lipgloss.Style

	ErrorPanel lipgloss.Style
	Card       lipgloss.Style

	StatusInfo    lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusWarn    lipgloss.Style
	StatusError   lipgloss.Style
}

func NewStyles(p config.Palette) Styles {
	primary := lipgloss.Color(p.Primary)
	secondary := lipgloss.Color(p.Secondary)
	accent := lipgloss.Color(p.Accent)
	background := lipgloss.Color(p.Background)
	surface := lipgloss.Color(p.Surface)
	text := lipgloss.Color(p.Text)
	muted := lipgloss.Color(p.Muted)
	errColor := lipgloss.Color(p.Error)
	success := lipgloss.Color(p.Success)

	return Styles{
		Palette: p,

		Logo: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true),

		Title: lipgloss.NewStyle().
			Foreground(text).
			Background(surface).
			Bold(true).
			Padding(0, 2),

		Header: lipgloss.NewStyle().
			Foreground(secondary).
			Bold(true),

		Label: lipgloss.NewStyle().
			Foreground(muted),

		LabelActive: lipgloss.NewStyle().
			Foreground(secondary).
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(muted),

		Help: lipgloss.NewStyle().
			Foreground(muted).
			Italic(true),

		Separator: lipgloss.NewStyle().
			Foreground(muted),

		Row: lipgloss.NewStyle().
			Foreground(text).
			Padding(0, 1),

		RowActive: lipgloss.NewStyle().
			Foreground(background).
			Background(accent).
			Bold(true).
			Padding(0, 1),

		Checkbox: lipgloss.NewStyle().
			Foreground(text),

		CheckboxFocused: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true).
			Underline(true),

		Button: lipgloss.NewStyle().
			Foreground(text).
			Background(surface).
			Padding(0, 3),

		ButtonFocused: lipgloss.NewStyle().
			Foreground(background).
			Background(primary).
			Bold(true).
			Padding(0, 3),

		ButtonDisabled: lipgloss.NewStyle().
			Foreground(muted).
			Background(surface).
			Faint(true).
			Padding(0, 3),

		ErrorPanel: lipgloss.NewStyle().
			Foreground(errColor).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(errColor).
			Padding(0, 1),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondary),

		StatusInfo: lipgloss.NewStyle().
			Foreground(muted),

		StatusSuccess: lipgloss.NewStyle().
			Foreground(success),

		StatusWarn: lipgloss.NewStyle().
			Foreground(accent),

		StatusError: lipgloss.NewStyle().
			Foreground(errColor).
			Bold(true),
	}
}

func (s Styles) logo() string {
	var colored []string
	for _, line := range LogoLines {
		colored = append(colored, s.Logo.Render(line))
	}
	return lipgloss.JoinVertical(lipgloss.Center, colored...)
}

// GetCompactBanner renders the logo above a muted message.
func (s Styles) GetCompactBanner(message string) string {
	return lipgloss.JoinVertical(
		lipgloss.Center,
		s.logo(),
		"",
		s.Help.Render(message),
	)
}

// ShowBanner prints the startup banner for the server.
func ShowBanner(w io.Writer, version, subtitle string) {
	lines := make([]string, len(LogoLines)+1)
	copy(lines, LogoLines)

	tagline := "    random fic picker for AO3"
	if version != "" && version != "dev" {
		if version[0] != 'v' && version[0] != 'V' {
			version = "v" + version
		}
		tagline += " " + version
	}
	lines = append(lines, tagline)
	if subtitle != "" {
		lines = append(lines, "    "+subtitle)
	}

	var colored []string
	for i, line := range lines {
		if line == "" {
			colored = append(colored, line)
			continue
		}
		style := lipgloss.NewStyle().
			Foreground(BannerColors[i%len(BannerColors)]).
			Bold(i < len(LogoLines))
		colored = append(colored, style.Render(line))
	}

	border := lipgloss.Border{
		Top:         "═",
		Bottom:      "═",
		Left:        "║",
		Right:       "║",
		TopLeft:     "╔",
		TopRight:    "╗",
		BottomLeft:  "╚",
		BottomRight: "╝",
	}

	out := lipgloss.NewStyle().
		Border(border).
		BorderForeground(lipgloss.Color("#4ECDC4")).
		Padding(1, 3).
		MarginTop(1).
		Render(lipgloss.JoinVertical(lipgloss.Center, colored...))

	fmt.Fprintln(w, lipgloss.NewStyle().
		Width(70).
		Align(lipgloss.Center).
		Render(out))
}
