// internal/playback/state.go
package playback

// State represents the playback state.
// Reconnecting is tracked separately since it can overlay any connected state.
type State int

const (
	StateIdle State = iota // no transport attached
	StateStopped
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateStopped:
		return "Stopped"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if playback is active (playing or paused).
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// IsConnected returns true for every state that has a transport.
func (s State) IsConnected() bool {
	return s != StateIdle
}
