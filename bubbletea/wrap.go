package bubbletea

import (
	"strings"

	rw "github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// wrapPlain word-wraps plain text to width using display cell widths, so
// wide runes and grapheme clusters count correctly. It is not ANSI-aware;
// callers style after wrapping.
func wrapPlain(s string, width int) []string {
	if width <= 0 {
		return []string{s}
	}

	var lines []string
	for _, input := range strings.Split(s, "\n") {
		var (
			line strings.Builder
			cols int
		)
		for _, word := range strings.Fields(input) {
			w := uniseg.StringWidth(word)
			switch {
			case cols == 0:
				// A word wider than the line gets hard-broken.
				for w > width {
					head, rest := splitAt(word, width)
					lines = append(lines, head)
					word = rest
					w = uniseg.StringWidth(word)
				}
				line.WriteString(word)
				cols = w
			case cols+1+w <= width:
				line.WriteByte(' ')
				line.WriteString(word)
				cols += 1 + w
			default:
				lines = append(lines, line.String())
				line.Reset()
				for w > width {
					head, rest := splitAt(word, width)
					lines = append(lines, head)
					word = rest
					w = uniseg.StringWidth(word)
				}
				line.WriteString(word)
				cols = w
			}
		}
		lines = append(lines, line.String())
	}
	return lines
}

// splitAt breaks s at the last rune boundary that fits within width cells.
func splitAt(s string, width int) (head, rest string) {
	cols := 0
	for i, r := range s {
		w := rw.RuneWidth(r)
		if cols+w > width && i > 0 {
			return s[:i], s[i:]
		}
		cols += w
	}
	return s, ""
}
