package tui

import "github.com/mattn/go-runewidth"

// truncateEnd fits s into limit terminal cells. Fandom and work titles are
// often CJK, so cells and runes differ.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	return runewidth.Truncate(s, limit, "…")
}

// truncateMiddle keeps both ends of s, which suits URLs.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	keep := limit - 1
	left := keep / 2
	right := keep - left

	head := runewidth.Truncate(s, left, "")
	r := []rune(s)
	tail := ""
	for i := len(r) - 1; i >= 0; i-- {
		candidate := string(r[i:])
		if runewidth.StringWidth(candidate) > right {
			break
		}
		tail = candidate
	}
	return head + "…" + tail
}
