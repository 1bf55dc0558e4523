package progress

import (
	"fmt"
	"strings"
)

// DefaultBarWidth is the number of blocks in Bar when width is zero.
const DefaultBarWidth = 15

var (
	filledBlock = "▓"
	emptyBlock  = "░"
)

// FormatTime formats seconds as M:SS, or H:MM:SS from one hour up.
func FormatTime(seconds int) string {
	seconds = max(seconds, 0)
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// RenderBar renders a block bar for a 0-100 percentage.
func RenderBar(percent float64, width int) string {
	if width <= 0 {
		width = DefaultBarWidth
	}
	filled := min(max(int(percent/100*float64(width)), 0), width)
	return strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)
}

// Bar renders the current progress as a block bar.
func (t *Tracker) Bar(width int) string {
	return RenderBar(t.Percent(), width)
}

// Display renders "position / duration".
func (t *Tracker) Display() string {
	return FormatTime(t.Position()) + " / " + FormatTime(t.Duration())
}
