package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// WatchServiceEvents waits for the next service event. Every handler of a
// Service*Msg must return it again to keep listening.
func (m Model) WatchServiceEvents() tea.Cmd {
	if m.sub == nil {
		return nil
	}
	sub := m.sub
	return func() tea.Msg {
		select {
		case e := <-sub.StateChanged:
			return ServiceStateChangedMsg(e)
		case e := <-sub.TrackChanged:
			return ServiceTrackChangedMsg(e)
		case e := <-sub.QueueChanged:
			return ServiceQueueChangedMsg(e)
		case e := <-sub.ConnectionChanged:
			return ServiceConnectionMsg(e)
		case e := <-sub.Error:
			return ServiceErrorMsg(e)
		case <-sub.Refresh:
			return ServiceRefreshMsg{}
		case <-sub.Done:
			return ServiceClosedMsg{}
		}
	}
}

// TickCmd schedules the next TickMsg.
func TickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// enqueueCmd resolves url and starts playback when nothing is playing.
func (m Model) enqueueCmd(url string) tea.Cmd {
	svc, requester := m.svc, m.requester
	return func() tea.Msg {
		songs, err := svc.Start(context.Background(), url, requester)
		return EnqueuedMsg{URL: url, Songs: songs, Err: err}
	}
}

// opCmd runs a blocking service call off the UI goroutine.
func opCmd(op string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return OpDoneMsg{Op: op, Err: fn(context.Background())}
	}
}
