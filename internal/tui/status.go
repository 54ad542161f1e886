package tui

import (
	"fmt"
	"time"
)

// StatusKind indicates severity for status bar messages.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

// Canonical short status messages used across the app.
const (
	MsgRolling      = "Rolling…"
	MsgOpening      = "Opening in browser…"
	MsgNothingOpen  = "Roll a fic first"
	MsgOpenFailed   = "Could not open link"
	MsgStaleResult  = "AO3 is slow; showing an older cached pick"
	MsgCachedResult = "AO3 is slow; showing a cached pick"
	MsgFeedResult   = "AO3 search is down; picked from the fandom's recent works"
)

const statusTTL = 4 * time.Second

type status struct {
	text    string
	kind    StatusKind
	expires time.Time
}

func MsgThemeSwitched(t Theme) string {
	return fmt.Sprintf("Theme: %s", t)
}

func MsgCategoriesSelected(n int) string {
	if n == 1 {
		return "1 category"
	}
	return fmt.Sprintf("%d categories", n)
}
