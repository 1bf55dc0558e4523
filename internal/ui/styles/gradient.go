package styles

import (
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

// Gradient renders text with a horizontal colour gradient, one colour per
// grapheme cluster.
func Gradient(text string, bold bool, from, to lipgloss.Color) string {
	var clusters []string
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		clusters = append(clusters, gr.Str())
	}
	return paint(clusters, bold, from, to)
}

// GradientBar renders a progress bar whose filled part blends from the
// primary to the secondary colour.
func GradientBar(width, filled int, fill, empty string) string {
	width = max(width, 0)
	filled = min(max(filled, 0), width)

	cells := make([]string, filled)
	for i := range cells {
		cells[i] = fill
	}
	bar := paint(cells, false, T().Primary, T().Secondary)
	return bar + T().S().Subtle.Render(strings.Repeat(empty, width-filled))
}

func paint(clusters []string, bold bool, from, to lipgloss.Color) string {
	if len(clusters) == 0 {
		return ""
	}

	colors := blend(len(clusters), from, to)
	var b strings.Builder
	for i, cluster := range clusters {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(toHex(colors[i])))
		if bold {
			style = style.Bold(true)
		}
		b.WriteString(style.Render(cluster))
	}
	return b.String()
}

// blend spreads size colours between from and to in HCL space.
func blend(size int, from, to lipgloss.Color) []color.Color {
	c1, _ := colorful.MakeColor(toColor(from))
	if size < 2 {
		return []color.Color{c1}
	}
	c2, _ := colorful.MakeColor(toColor(to))

	colors := make([]color.Color, size)
	for i := range size {
		colors[i] = c1.BlendHcl(c2, float64(i)/float64(size-1)).Clamped()
	}
	return colors
}

// toColor parses "#rrggbb"; ANSI colour numbers fall back to grey.
func toColor(c lipgloss.Color) color.Color {
	if hex := string(c); len(hex) == 7 && hex[0] == '#' {
		if col, err := colorful.Hex(hex); err == nil {
			return col
		}
	}
	return color.RGBA{R: 128, G: 128, B: 128, A: 255}
}

func toHex(c color.Color) string {
	if cf, ok := c.(colorful.Color); ok {
		return cf.Hex()
	}
	cf, _ := colorful.MakeColor(c)
	return cf.Hex()
}
