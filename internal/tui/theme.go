package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme/palette helpers.
//
// The console must remain readable on both light and dark terminal
// backgrounds. We use lipgloss.AdaptiveColor where possible and only apply
// "faint" styling on dark backgrounds (faint text on light terminals often
// becomes illegible).

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted lipgloss.TerminalColor = ac("240", "243")

	// Selection highlight for the registrations table.
	colorSelectedBg lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg lipgloss.TerminalColor = ac("235", "255")

	colorHeaderFg lipgloss.TerminalColor = ac("236", "252")
	colorBorder   lipgloss.TerminalColor = ac("250", "243")

	// Status colors for payment badges and notices.
	colorOK   lipgloss.TerminalColor = ac("28", "78")
	colorWarn lipgloss.TerminalColor = ac("130", "214")
	colorErr  lipgloss.TerminalColor = ac("124", "203")

	// Edit-mode markers: the scope highlight and the touched-field marker.
	colorEditFg lipgloss.TerminalColor = ac("26", "75")
)

func darkBackground() bool {
	return lipgloss.HasDarkBackground()
}

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

func styleHeader() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(colorHeaderFg)
}

func styleError() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorErr)
}

func styleEdit() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorEditFg)
}

// paymentStyle colors a payment-status label: settled states green, refund
// states orange, everything needing operator attention red-ish.
func paymentStyle(label string, settled, attention bool) string {
	st := lipgloss.NewStyle()
	switch {
	case settled:
		st = st.Foreground(colorOK)
	case attention:
		st = st.Foreground(colorErr)
	default:
		st = st.Foreground(colorWarn)
	}
	return st.Render(label)
}

// renderModalBox frames modal content in a bordered box sized to the
// terminal. Avoid background fills here: some terminals show artifacts when
// nesting styled components inside a filled modal.
func renderModalBox(width int, title, content string) string {
	bodyW := modalBodyWidth(width)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(bodyW)
	head := styleHeader().Render(title)
	return box.Render(head + "\n\n" + content)
}

func modalBodyWidth(width int) int {
	w := width - 8
	if w > 72 {
		w = 72
	}
	if w < 24 {
		w = 24
	}
	return w
}

// applyColorProfilePreference sets Lip Gloss's color profile for the TUI.
//
// Note: termenv.EnvColorProfile respects CLICOLOR/CLICOLOR_FORCE, which is
// useful for non-interactive CLI output but can accidentally disable colors
// in a TUI. Here we only honor NO_COLOR and otherwise follow the terminal's
// capabilities.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	profile := termenv.ColorProfile()

	// If TERM/COLORTERM indicate stronger support than the detector reports,
	// trust the env. Color probing under-reports in some terminals.
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	} else if strings.Contains(term, "256color") {
		if profile == termenv.Ascii || profile == termenv.ANSI {
			profile = termenv.ANSI256
		}
	}

	lipgloss.SetColorProfile(profile)
}

// applyThemePreference configures background detection. Some terminals don't
// reliably report their background, which can make AdaptiveColor pick the
// wrong variant.
//
// Priority: REGDESK_THEME=light|dark|auto, then the COLORFGBG heuristic.
func applyThemePreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("REGDESK_THEME"))) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		// Format like "15;0" = fg;bg. Low bg numbers are dark.
		parts := strings.Split(v, ";")
		bg := parts[len(parts)-1]
		switch bg {
		case "0", "1", "2", "3", "4", "5", "6", "8":
			lipgloss.SetHasDarkBackground(true)
		case "7", "15":
			lipgloss.SetHasDarkBackground(false)
		}
	}
}
