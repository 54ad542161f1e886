package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/ficroll/internal/api"
)

type generateResultMsg struct {
	work *api.Work
	err  error
}

type autocompleteDebounceMsg struct {
	seq  int
	term string
}

type autocompleteResultMsg struct {
	seq         int
	term        string
	suggestions []api.Suggestion
	err         error
}

type linkOpenedMsg struct {
	url string
	err error
}

// Opener hands a URL to the platform browser.
type Opener interface {
	Open(url string) error
}

func withTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}

func generateCmd(client Generator, criteria api.Criteria, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		work, err := client.Generate(ctx, criteria)
		return generateResultMsg{work: work, err: err}
	}
}

func autocompleteCmd(client Suggester, seq int, term string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		suggestions, err := client.AutocompleteFandom(ctx, term)
		return autocompleteResultMsg{seq: seq, term: term, suggestions: suggestions, err: err}
	}
}

func openLinkCmd(opener Opener, url string) tea.Cmd {
	return func() tea.Msg {
		return linkOpenedMsg{url: url, err: opener.Open(url)}
	}
}
