package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// cell pads or truncates a (possibly styled) string to an exact display
// width. Truncation terminates ANSI styling so colors never bleed into the
// next column.
func cell(s string, width int) string {
	if width <= 0 {
		return ""
	}
	w := xansi.StringWidth(s)
	if w > width {
		if width > 1 {
			return xansi.Cut(s, 0, width-1) + "…" + "\x1b[0m"
		}
		return xansi.Cut(s, 0, width) + "\x1b[0m"
	}
	return s + strings.Repeat(" ", width-w)
}

// oneLine collapses newlines so multi-line values (memos) cannot break table
// rows.
func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
