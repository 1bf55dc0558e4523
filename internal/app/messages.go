// Package app is the terminal front end. It drives playback.Service from key
// presses and redraws on service events.
package app

import (
	"time"

	"github.com/llehouerou/wavecast/internal/playback"
	"github.com/llehouerou/wavecast/internal/playlist"
)

// TickMsg redraws the progress bar once per second.
type TickMsg time.Time

// ServiceStateChangedMsg wraps a playback state change.
type ServiceStateChangedMsg playback.StateChange

// ServiceTrackChangedMsg wraps a track change.
type ServiceTrackChangedMsg playback.TrackChange

// ServiceQueueChangedMsg wraps a queue edit.
type ServiceQueueChangedMsg playback.QueueChange

// ServiceConnectionMsg wraps a transport connection change.
type ServiceConnectionMsg playback.ConnectionChange

// ServiceErrorMsg wraps a user-facing failure.
type ServiceErrorMsg playback.ErrorEvent

// ServiceRefreshMsg asks for a redraw.
type ServiceRefreshMsg struct{}

// ServiceClosedMsg is sent once the service subscription is closed.
type ServiceClosedMsg struct{}

// EnqueuedMsg reports the result of resolving a URL.
type EnqueuedMsg struct {
	URL   string
	Songs []playlist.Song
	Err   error
}

// OpDoneMsg reports the result of a blocking service call.
type OpDoneMsg struct {
	Op  string
	Err error
}
