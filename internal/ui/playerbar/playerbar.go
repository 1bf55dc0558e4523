// Package playerbar renders the now-playing bar at the bottom of the TUI.
package playerbar

import (
	"fmt"
	"strings"

	"github.com/llehouerou/wavecast/internal/icons"
	"github.com/llehouerou/wavecast/internal/playback"
	"github.com/llehouerou/wavecast/internal/progress"
	"github.com/llehouerou/wavecast/internal/ui/render"
	"github.com/llehouerou/wavecast/internal/ui/styles"
)

const separator = "   "

// Height is the bar height: two content rows plus the border.
const Height = 4

// Volume reports the output level; *player.Speaker implements it.
type Volume interface {
	Volume() float64
	Muted() bool
}

// State holds everything needed to render the player bar.
type State struct {
	Status       playback.State
	Title        string
	Uploader     string
	RequestedBy  string
	Position     int // seconds
	Duration     int // seconds
	Loading      string
	Reconnecting bool
	AtEnd        bool
	Loop         bool
	Volume       float64
	Muted        bool
	HasVolume    bool
}

// NewState snapshots the service for rendering. vol may be nil.
func NewState(svc playback.Service, vol Volume) State {
	s := State{
		Status:       svc.State(),
		Reconnecting: svc.IsReconnecting(),
		AtEnd:        svc.AtEnd(),
		Loop:         svc.Loop(),
	}
	if song := svc.CurrentSong(); song != nil {
		s.Title = song.Title
		s.Uploader = song.Uploader
		s.RequestedBy = song.RequestedBy
		s.Position = svc.Progress().Position()
		s.Duration = svc.Progress().Duration()
	}
	if song := svc.Loading(); song != nil {
		s.Loading = song.Title
	}
	if vol != nil {
		s.HasVolume = true
		s.Volume = vol.Volume()
		s.Muted = vol.Muted()
	}
	return s
}

// Render returns the bar for the given total width.
func Render(s State, width int) string {
	inner := max(width-6, 0)
	top := render.TruncateAndPad(topLine(s), inner)
	if s.Title != "" && s.Loading == "" && !s.Reconnecting {
		top = styles.T().S().Title.Render(top)
	} else {
		top = styles.T().S().Muted.Render(top)
	}
	bottom := bottomLine(s, inner)
	return styles.PanelStyle(false).
		Padding(0, 2).
		Width(max(width-2, 0)).
		Render(top + "\n" + bottom)
}

func topLine(s State) string {
	switch {
	case s.Reconnecting:
		return "reconnecting to the audio output…"
	case s.Status == playback.StateIdle:
		return "not connected"
	case s.Loading != "":
		return "downloading " + s.Loading + "…"
	case s.Title == "" && s.AtEnd:
		return "end of queue"
	case s.Title == "":
		return "nothing playing"
	}

	parts := []string{s.Title}
	if s.Uploader != "" {
		parts = append(parts, s.Uploader)
	}
	if s.RequestedBy != "" {
		parts = append(parts, "@"+s.RequestedBy)
	}
	return strings.Join(parts, separator)
}

func bottomLine(s State, width int) string {
	status := icons.Stop()
	switch s.Status {
	case playback.StatePlaying:
		status = icons.Play()
	case playback.StatePaused:
		status = icons.Pause()
	}

	timeStr := fmt.Sprintf("%s / %s", progress.FormatTime(s.Position), progress.FormatTime(s.Duration))

	var right []string
	if s.Loop {
		right = append(right, icons.Loop())
	}
	if s.HasVolume {
		right = append(right, volumeLabel(s.Volume, s.Muted))
	}
	rightStr := strings.Join(right, "  ")

	fixed := render.Width(status) + 2 + len(separator) + render.Width(timeStr)
	if rightStr != "" {
		fixed += len(separator) + render.Width(rightStr)
	}
	barWidth := max(width-fixed, 0)

	var filled int
	if s.Duration > 0 {
		filled = min(barWidth*s.Position/s.Duration, barWidth)
	}

	muted := styles.T().S().Muted
	line := status + "  " + styles.GradientBar(barWidth, filled, "━", "─") +
		separator + muted.Render(timeStr)
	if rightStr != "" {
		line += separator + muted.Render(rightStr)
	}
	return line
}

func volumeLabel(volume float64, muted bool) string {
	if muted {
		return "mute"
	}
	return fmt.Sprintf("vol %3d%%", int(volume*100+0.5))
}
