// Package queuepanel renders the paginated queue listing.
package queuepanel

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/wavecast/internal/keymap"
	"github.com/llehouerou/wavecast/internal/playlist"
	"github.com/llehouerou/wavecast/internal/ui"
)

var keys = keymap.NewResolver(keymap.ByContext(keymap.ContextQueue))

// Source is the read side of the queue; playback.Service implements it.
type Source interface {
	Page(page, perPage int) playlist.Page
	QueueLen() int
	CurrentIndex() int
	Loop() bool
}

// JumpToSongMsg asks for playback to jump to a zero-based queue index.
type JumpToSongMsg struct {
	Index int
}

// RemoveSongMsg asks for the song at a 1-based position to be removed.
type RemoveSongMsg struct {
	Position int
}

// Model is the queue panel state. The cursor is a zero-based queue index;
// the visible page always contains it.
type Model struct {
	ui.Base
	source  Source
	perPage int
	cursor  int
}

// New creates a queue panel showing perPage songs per page.
func New(source Source, perPage int) Model {
	if perPage <= 0 {
		perPage = playlist.DefaultPerPage
	}
	return Model{source: source, perPage: perPage}
}

// PreferredHeight is the panel height that fits exactly one page.
func (m Model) PreferredHeight() int {
	return m.perPage + ui.PanelOverhead
}

// Cursor returns the zero-based queue index under the cursor.
func (m Model) Cursor() int {
	return m.cursor
}

// Page returns the 1-based page holding the cursor.
func (m Model) Page() int {
	return playlist.PageOf(m.cursor, m.perPage)
}

// SyncCursor moves the cursor to the current song.
func (m *Model) SyncCursor() {
	if idx := m.source.CurrentIndex(); idx >= 0 {
		m.cursor = idx
	}
	m.clamp()
}

// Update handles key messages when the panel is focused.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || !m.IsFocused() {
		return m, nil
	}

	switch keys.Resolve(keyMsg.String()) {
	case keymap.ActionMoveDown:
		m.move(1)
	case keymap.ActionMoveUp:
		m.move(-1)
	case keymap.ActionPageDown:
		m.move(m.perPage)
	case keymap.ActionPageUp:
		m.move(-m.perPage)
	case keymap.ActionJumpStart:
		m.cursor = 0
	case keymap.ActionJumpEnd:
		m.cursor = m.source.QueueLen() - 1
		m.clamp()
	case keymap.ActionJumpCurrent:
		m.SyncCursor()
	case keymap.ActionSelect:
		if m.source.QueueLen() > 0 {
			idx := m.cursor
			return m, func() tea.Msg { return JumpToSongMsg{Index: idx} }
		}
	case keymap.ActionDelete:
		if m.source.QueueLen() > 0 {
			pos := m.cursor + 1
			return m, func() tea.Msg { return RemoveSongMsg{Position: pos} }
		}
	}
	return m, nil
}

func (m *Model) move(delta int) {
	m.cursor += delta
	m.clamp()
}

// clamp keeps the cursor inside the queue after moves and removals.
func (m *Model) clamp() {
	m.cursor = min(m.cursor, m.source.QueueLen()-1)
	m.cursor = max(m.cursor, 0)
}
