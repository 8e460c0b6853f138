package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# regdesk console

## Browsing
- **↑/↓** move · **←/→** page · **/** search · **f** search field · **p** payment filter · **o** sort
- **space** select row · **a** select page · **A** clear page selection
- **enter**/**d** row details · **r** reset filters · **ctrl+r** force refresh

## Scope
- **E** pick the events every query is scoped to (at least one stays selected)

## Bulk edit
- **e** edit the selected rows (or the whole page when nothing is selected)
- **←/→** choose column · **enter** edit cell · **w** save all · **esc** discard
- Fee, course and organization come from the remote system and are read-only.

## Import
- **i** upload a registration sheet · **c** cancel the running import

**q** quit · **?** close this help
`

var (
	helpMu       sync.Mutex
	helpRendered string
	helpWidth    int
)

// renderHelp renders the help overlay with glamour, cached per width.
// Creating a renderer with WithAutoStyle can block probing the terminal, so
// we pick the style from the detected background instead.
func renderHelp(width int) string {
	if width < 20 {
		width = 20
	}
	helpMu.Lock()
	defer helpMu.Unlock()
	if helpRendered != "" && helpWidth == width {
		return helpRendered
	}

	style := "light"
	if darkBackground() {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	helpRendered = strings.TrimRight(out, "\n")
	helpWidth = width
	return helpRendered
}
