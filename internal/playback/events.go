// internal/playback/events.go
package playback

import (
	"github.com/llehouerou/wavecast/internal/errmsg"
	"github.com/llehouerou/wavecast/internal/playlist"
)

// StateChange is emitted when playback state changes.
// AtEnd is set when playback settled because the queue ran out.
type StateChange struct {
	Previous State
	Current  State
	AtEnd    bool
}

// TrackChange is emitted when the transport starts a song.
//
// Emitted by:
//   - Play and Toggle from a stopped state
//   - Next/Previous/JumpTo
//   - natural completion advancing the queue
//   - a successful reconnect replaying the current song
//
// NOT emitted by queue edits or Pause/Resume/Stop.
type TrackChange struct {
	Previous *playlist.Song
	Current  *playlist.Song
	Index    int
}

// QueueOp is the kind of queue edit.
type QueueOp int

const (
	QueueAdded QueueOp = iota
	QueueRemoved
	QueueCleared
)

// String returns the op name.
func (op QueueOp) String() string {
	switch op {
	case QueueAdded:
		return "added"
	case QueueRemoved:
		return "removed"
	case QueueCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// QueueChange is emitted when songs are added or removed.
// Songs holds the affected songs; it is empty for QueueCleared.
type QueueChange struct {
	Op      QueueOp
	Songs   []playlist.Song
	Removed int // count for QueueCleared
	Len     int
	Index   int
}

// ConnectionChange is emitted on transport drops and recoveries.
type ConnectionChange struct {
	Connected    bool
	Reconnecting bool
	Reconnected  bool
	Attempt      int
}

// RefreshEvent asks the presentation layer to redraw.
type RefreshEvent struct{}

// ErrorEvent carries a user-facing failure.
type ErrorEvent struct {
	Op      errmsg.Op
	Kind    errmsg.Kind
	Message string
	Subject string // song title or URL
	Err     error
}

func newErrorEvent(op errmsg.Op, subject string, err error) ErrorEvent {
	kind := errmsg.KindOf(err)
	return ErrorEvent{
		Op:      op,
		Kind:    kind,
		Message: errmsg.UserMessage(err),
		Subject: subject,
		Err:     err,
	}
}
