// Package helpbindings renders a scrollable panel listing the key bindings.
package helpbindings

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/wavecast/internal/keymap"
	"github.com/llehouerou/wavecast/internal/ui"
	"github.com/llehouerou/wavecast/internal/ui/render"
	"github.com/llehouerou/wavecast/internal/ui/styles"
)

// categoryOrder defines the display order of binding categories.
var categoryOrder = []string{
	keymap.ContextGlobal,
	keymap.ContextPlayback,
	keymap.ContextQueue,
	keymap.ContextInput,
}

// categoryLabels maps context names to display labels.
var categoryLabels = map[string]string{
	keymap.ContextGlobal:   "Global",
	keymap.ContextPlayback: "Playback",
	keymap.ContextQueue:    "Queue",
	keymap.ContextInput:    "URL input",
}

// Model holds the state for the help panel.
type Model struct {
	ui.Base
	lines        []line
	scrollOffset int
}

// line is one rendered row: a category header or a binding.
type line struct {
	header string
	keys   string
	desc   string
}

// New creates a help panel listing every binding.
func New() Model {
	var m Model
	for _, ctx := range categoryOrder {
		bindings := keymap.ByContext(ctx)
		if len(bindings) == 0 {
			continue
		}
		m.lines = append(m.lines, line{header: categoryLabels[ctx]})
		for _, b := range bindings {
			names := make([]string, len(b.Keys))
			for i, k := range b.Keys {
				names[i] = keymap.KeyName(k)
			}
			m.lines = append(m.lines, line{keys: strings.Join(names, ", "), desc: b.Description})
		}
	}
	return m
}

// Update scrolls the panel. It reports true when the panel should close.
func (m Model) Update(msg tea.KeyMsg) (Model, bool) {
	switch msg.String() {
	case "?", "esc", "q":
		return m, true
	case "j", "down":
		m.scrollOffset = min(m.scrollOffset+1, m.maxScroll())
	case "k", "up":
		m.scrollOffset = max(m.scrollOffset-1, 0)
	case "g":
		m.scrollOffset = 0
	case "G":
		m.scrollOffset = m.maxScroll()
	}
	return m, false
}

// ScrollOffset returns the index of the first visible line.
func (m Model) ScrollOffset() int {
	return m.scrollOffset
}

// View renders the panel.
func (m Model) View() string {
	if m.Width() == 0 || m.Height() == 0 {
		return ""
	}
	t := styles.T()
	s := t.S()
	innerWidth := m.Width() - ui.BorderHeight

	keyWidth := 0
	for _, l := range m.lines {
		keyWidth = max(keyWidth, render.Width(l.keys))
	}

	var rows []string
	end := min(m.scrollOffset+m.visibleHeight(), len(m.lines))
	for _, l := range m.lines[m.scrollOffset:end] {
		if l.header != "" {
			rows = append(rows, s.Title.Foreground(t.Secondary).Render(render.TruncateAndPad(l.header, innerWidth)))
			continue
		}
		keys := s.Playing.Render(render.Pad(l.keys, keyWidth))
		desc := s.Base.Render(render.TruncateAndPad(l.desc, max(innerWidth-keyWidth-2, 0)))
		rows = append(rows, keys+"  "+desc)
	}
	for len(rows) < m.visibleHeight() {
		rows = append(rows, render.EmptyLine(innerWidth))
	}

	header := render.Row(s.Title.Render("Help"), s.Muted.Render(m.footer()), innerWidth)
	content := header + "\n" + render.Separator(innerWidth) + "\n" + strings.Join(rows, "\n")

	return styles.PanelStyle(true).
		Width(innerWidth).
		Render(content)
}

func (m Model) footer() string {
	if len(m.lines) <= m.visibleHeight() {
		return "?/esc close"
	}
	return "j/k scroll · ?/esc close"
}

func (m Model) visibleHeight() int {
	return max(m.ListHeight(ui.PanelOverhead), 1)
}

func (m Model) maxScroll() int {
	return max(len(m.lines)-m.visibleHeight(), 0)
}
