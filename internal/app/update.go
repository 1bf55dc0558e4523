package app

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/llehouerou/wavecast/internal/errmsg"
	"github.com/llehouerou/wavecast/internal/keymap"
	"github.com/llehouerou/wavecast/internal/playback"
	"github.com/llehouerou/wavecast/internal/ui/queuepanel"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if m.inputing {
			return m.updateInput(msg)
		}
		if m.showHelp {
			var closed bool
			m.help, closed = m.help.Update(msg)
			m.showHelp = !closed
			return m, nil
		}
		return m.handleKey(msg)

	case TickMsg:
		return m, TickCmd()

	case ServiceStateChangedMsg, ServiceConnectionMsg, ServiceRefreshMsg:
		return m, m.WatchServiceEvents()

	case ServiceTrackChangedMsg:
		m.queue.SyncCursor()
		return m, m.WatchServiceEvents()

	case ServiceQueueChangedMsg:
		if msg.Op == playback.QueueCleared {
			m.queue.SyncCursor()
		}
		return m, m.WatchServiceEvents()

	case ServiceErrorMsg:
		m.setError(errorLine(msg.Subject, msg.Message))
		return m, m.WatchServiceEvents()

	case ServiceClosedMsg:
		return m, tea.Quit

	case EnqueuedMsg:
		return m.handleEnqueued(msg)

	case OpDoneMsg:
		if msg.Err != nil {
			log.Debug().Err(msg.Err).Str("op", msg.Op).Msg("operation failed")
			m.setError(errmsg.UserMessage(msg.Err))
		}
		return m, nil

	case queuepanel.JumpToSongMsg:
		idx := msg.Index
		return m, opCmd("jump", func(ctx context.Context) error { return m.svc.JumpTo(ctx, idx) })

	case queuepanel.RemoveSongMsg:
		if song := m.svc.RemoveAt(msg.Position); song != nil {
			m.setStatus("removed " + song.Title)
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	svc := m.svc
	switch m.keys.Resolve(msg.String()) {
	case keymap.ActionQuit:
		return m, tea.Quit
	case keymap.ActionHelp:
		m.showHelp = true
		return m, nil
	case keymap.ActionAddURL:
		m.inputing = true
		m.input.Reset()
		return m, m.input.Focus()
	case keymap.ActionPlayPause:
		return m, opCmd("toggle", svc.Toggle)
	case keymap.ActionNextTrack:
		return m, opCmd("next", svc.Next)
	case keymap.ActionPrevTrack:
		return m, opCmd("previous", svc.Previous)
	case keymap.ActionStop:
		return m, opCmd("stop", func(context.Context) error { return svc.Stop() })
	case keymap.ActionToggleLoop:
		if svc.ToggleLoop() {
			m.setStatus("loop on")
		} else {
			m.setStatus("loop off")
		}
		return m, nil
	case keymap.ActionClearQueue:
		n := svc.Clear()
		m.setStatus(fmt.Sprintf("cleared %d songs", n))
		m.queue.SyncCursor()
		return m, nil
	case keymap.ActionConnect:
		channel := m.channel
		return m, opCmd("connect", func(ctx context.Context) error { return svc.Connect(ctx, channel) })
	case keymap.ActionDisconnect:
		return m, opCmd("disconnect", svc.Disconnect)
	case keymap.ActionVolumeUp:
		m.changeVolume(volumeStep)
		return m, nil
	case keymap.ActionVolumeDown:
		m.changeVolume(-volumeStep)
		return m, nil
	case keymap.ActionToggleMute:
		if m.vol != nil {
			m.vol.SetMuted(!m.vol.Muted())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.queue, cmd = m.queue.Update(msg)
	return m, cmd
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch inputKeys.Resolve(msg.String()) {
	case keymap.ActionCancel:
		m.inputing = false
		m.input.Blur()
		return m, nil
	case keymap.ActionSubmit:
		url := strings.TrimSpace(m.input.Value())
		m.inputing = false
		m.input.Blur()
		if url == "" {
			return m, nil
		}
		m.setStatus("resolving " + url + "…")
		return m, m.enqueueCmd(url)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleEnqueued(msg EnqueuedMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Err != nil:
		m.setError(errorLine(msg.URL, errmsg.UserMessage(msg.Err)))
	case len(msg.Songs) == 1:
		m.setStatus("added " + msg.Songs[0].Title)
	default:
		m.setStatus(fmt.Sprintf("added %d songs", len(msg.Songs)))
	}
	return m, nil
}

func (m *Model) changeVolume(delta float64) {
	if m.vol == nil {
		return
	}
	level := min(max(m.vol.Volume()+delta, 0), 1)
	m.vol.SetVolume(level)
	m.setStatus(fmt.Sprintf("volume %d%%", int(level*100+0.5)))
}

func errorLine(subject, message string) string {
	if subject == "" {
		return message
	}
	return subject + ": " + message
}
