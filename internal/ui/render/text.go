// Package render holds width-aware text helpers shared by the panels.
package render

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const ellipsis = "..."

// clean drops control characters and invalid bytes from remote metadata.
// Titles and uploader names come straight from yt-dlp JSON.
func clean(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == unicode.ReplacementChar:
			return -1
		case r == ' ':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.ToValidUTF8(s, ""))
}

// Truncate cuts s to width cells, ending with "..." when it was cut.
func Truncate(s string, width int) string {
	return runewidth.Truncate(clean(s), width, ellipsis)
}

// Pad right-fills s with spaces to width cells.
func Pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// TruncateAndPad returns s in exactly width cells.
func TruncateAndPad(s string, width int) string {
	return Pad(Truncate(s, width), width)
}

// Row places left and right at the edges of width, at least one space apart.
func Row(left, right string, width int) string {
	gap := max(width-Width(left)-Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

// Separator is a horizontal rule.
func Separator(width int) string {
	return strings.Repeat("─", max(width, 0))
}

// EmptyLine is width spaces.
func EmptyLine(width int) string {
	return strings.Repeat(" ", max(width, 0))
}

// Width returns the display width of s, ignoring ANSI sequences.
func Width(s string) int {
	return lipgloss.Width(s)
}
