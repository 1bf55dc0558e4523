package app

import (
	"fmt"
	"strings"

	"github.com/llehouerou/wavecast/internal/keymap"
	"github.com/llehouerou/wavecast/internal/playback"
	"github.com/llehouerou/wavecast/internal/ui/playerbar"
	"github.com/llehouerou/wavecast/internal/ui/render"
	"github.com/llehouerou/wavecast/internal/ui/styles"
)

const (
	headerHeight = 1
	statusHeight = 1
	appTitle     = "wavecast"
)

var helpLine = keymap.Help(keymap.ByContext(keymap.ContextGlobal, keymap.ContextPlayback, keymap.ContextQueue))

// resize gives the queue panel whatever the fixed rows leave, up to one
// page. The help panel takes all of it.
func (m *Model) resize() {
	available := max(m.height-headerHeight-statusHeight-playerbar.Height, 0)
	m.queue.SetSize(m.width, min(available, m.queue.PreferredHeight()))
	m.help.SetSize(m.width, available)
	m.input.Width = max(m.width-len(m.input.Prompt)-1, 1)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	middle := m.queue.View()
	if m.showHelp {
		middle = m.help.View()
	}
	if middle != "" {
		b.WriteString(middle)
		b.WriteString("\n")
	}
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(playerbar.Render(playerbar.NewState(m.svc, m.playerVolume()), m.width))
	return b.String()
}

func (m Model) renderHeader() string {
	t := styles.T()
	title := styles.Gradient(appTitle, true, t.Primary, t.Secondary)

	var right []string
	right = append(right, m.connectionLabel())
	if m.cache != nil {
		st := m.cache.Stats()
		label := fmt.Sprintf("cache %d · %s", st.Count, st.HumanSize())
		if st.Preloads > 0 {
			label += fmt.Sprintf(" · %d prefetching", st.Preloads)
		}
		right = append(right, label)
	}

	return render.Row(" "+title, t.S().Muted.Render(strings.Join(right, "   "))+" ", m.width)
}

func (m Model) connectionLabel() string {
	switch {
	case m.svc.IsReconnecting():
		return "reconnecting"
	case m.svc.State() == playback.StateIdle:
		return "offline"
	case m.channel != "":
		return "on " + m.channel
	default:
		return "online"
	}
}

func (m Model) renderStatus() string {
	if m.inputing {
		return m.input.View()
	}
	t := styles.T().S()
	switch {
	case m.status == "":
		return t.Subtle.Render(render.Truncate(" "+helpLine, m.width))
	case m.statusErr:
		return t.Error.Render(render.Truncate(" "+m.status, m.width))
	default:
		return t.Base.Render(render.Truncate(" "+m.status, m.width))
	}
}

// playerVolume hides a nil Volume behind a nil interface.
func (m Model) playerVolume() playerbar.Volume {
	if m.vol == nil {
		return nil
	}
	return m.vol
}
