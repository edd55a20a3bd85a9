// Package goldmark renders markdown to ANSI-styled terminal output. It
// parses with goldmark and styles with lipgloss, mapping markdown
// structure onto the colors of a [flow.Theme].
package goldmark

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/ad-astra-video/flow"
)

// Render parses source as markdown and returns terminal output wrapped to
// width. Prose is word-wrapped; code blocks keep their original line
// breaks. A non-positive width falls back to 80 columns.
func Render(source string, width int, theme flow.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	return newRenderer(theme).render([]byte(source), width)
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
