// internal/player/state.go
package player

// State is the transport's playback state.
//
//	┌──────────┐      play       ┌──────────┐
//	│  Stopped │ ───────────────▶│  Playing │◀─┐
//	└──────────┘                 └──────────┘  │
//	     ▲  ▲                   pause │        │ resume
//	     │  │ stop / end              ▼        │
//	     │  └──────────────────  ┌──────────┐  │
//	     └───────────────────────│  Paused  │──┘
//	              stop           └──────────┘
//
// Pause from Stopped or Paused and Resume from Stopped or Playing are no-ops.
// Play while active replaces the current file.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a file is loaded (Playing or Paused).
func (s State) IsActive() bool {
	return s == Playing || s == Paused
}

// CanPause returns true if the state allows pausing.
func (s State) CanPause() bool {
	return s == Playing
}

// CanResume returns true if the state allows resuming.
func (s State) CanResume() bool {
	return s == Paused
}
