package queuepanel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/wavecast/internal/icons"
	"github.com/llehouerou/wavecast/internal/playlist"
	"github.com/llehouerou/wavecast/internal/progress"
	"github.com/llehouerou/wavecast/internal/ui"
	"github.com/llehouerou/wavecast/internal/ui/render"
	"github.com/llehouerou/wavecast/internal/ui/styles"
)

// View renders the queue panel.
func (m Model) View() string {
	if m.Width() == 0 || m.Height() == 0 {
		return ""
	}
	m.clamp()

	innerWidth := m.Width() - ui.BorderHeight
	page := m.source.Page(m.Page(), m.perPage)

	content := m.renderHeader(page, innerWidth) + "\n" +
		render.Separator(innerWidth) + "\n" +
		m.renderSongs(page, innerWidth, m.ListHeight(ui.PanelOverhead))

	return styles.PanelStyle(m.IsFocused()).
		Width(innerWidth).
		Render(content)
}

// renderHeader shows "Queue (current/total)", the page and the loop flag.
func (m Model) renderHeader(page playlist.Page, width int) string {
	left := fmt.Sprintf("Queue (%d/%d)", page.CurrentIndex+1, page.TotalSongs)
	if page.TotalSongs == 0 {
		left = "Queue (empty)"
	}

	right := fmt.Sprintf("page %d/%d", page.CurrentPage, page.TotalPages)
	if m.source.Loop() {
		right = icons.Loop() + "  " + right
	}
	right += " "

	t := styles.T().S()
	left = render.TruncateAndPad(left, max(width-render.Width(right), 0))
	return t.Title.Render(left) + t.Muted.Render(right)
}

func (m Model) renderSongs(page playlist.Page, width, height int) string {
	lines := make([]string, 0, height)
	for i := range height {
		if i >= len(page.Songs) {
			lines = append(lines, render.EmptyLine(width))
			continue
		}
		idx := page.StartIndex + i
		lines = append(lines, m.renderSong(page.Songs[i], idx, page.CurrentIndex, width))
	}
	return strings.Join(lines, "\n")
}

// renderSong lays out: marker, position, title, requester, duration, cached dot.
func (m Model) renderSong(song playlist.Song, idx, playingIdx, width int) string {
	prefix := strings.Repeat(" ", render.Width(icons.Playing())+1)
	if idx == playingIdx {
		prefix = icons.Playing() + " "
	}
	position := fmt.Sprintf("%3d. ", idx+1)

	suffix := " " + progress.FormatTime(song.Duration)
	if song.IsCached() {
		suffix += " " + icons.Cached()
	} else {
		suffix += strings.Repeat(" ", 1+render.Width(icons.Cached()))
	}

	requester := ""
	if song.RequestedBy != "" {
		requester = "  @" + song.RequestedBy
	}

	titleWidth := max(width-render.Width(prefix)-len(position)-render.Width(suffix), 0)
	reqWidth := min(render.Width(requester), titleWidth/3)
	title := render.TruncateAndPad(song.Title, titleWidth-reqWidth)
	if reqWidth > 0 {
		title += render.TruncateAndPad(requester, reqWidth)
	}

	return m.songStyle(idx, playingIdx).Render(prefix + position + title + suffix)
}

func (m Model) songStyle(idx, playingIdx int) lipgloss.Style {
	t := styles.T().S()
	isCursor := idx == m.cursor && m.IsFocused()
	isPlaying := idx == playingIdx
	isPlayed := playingIdx >= 0 && idx < playingIdx

	switch {
	case isCursor && isPlaying:
		return t.Cursor.Inherit(t.Playing)
	case isCursor:
		return t.Cursor
	case isPlaying:
		return t.Playing
	case isPlayed:
		return t.Subtle
	default:
		return t.Base
	}
}
