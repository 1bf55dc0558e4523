// Package keymap defines key bindings and action dispatch for the application.
package keymap

// Action represents a user-triggerable action.
type Action string

const (
	// Global actions
	ActionQuit       Action = "quit"
	ActionHelp       Action = "help"
	ActionAddURL     Action = "add_url"
	ActionConnect    Action = "connect"
	ActionDisconnect Action = "disconnect"
	ActionClearQueue Action = "clear_queue"
	ActionVolumeUp   Action = "volume_up"
	ActionVolumeDown Action = "volume_down"
	ActionToggleMute Action = "toggle_mute"

	// Playback actions
	ActionPlayPause  Action = "play_pause"
	ActionStop       Action = "stop"
	ActionNextTrack  Action = "next_track"
	ActionPrevTrack  Action = "prev_track"
	ActionToggleLoop Action = "toggle_loop"

	// Queue navigation
	ActionMoveUp      Action = "move_up"
	ActionMoveDown    Action = "move_down"
	ActionPageUp      Action = "page_up"
	ActionPageDown    Action = "page_down"
	ActionJumpStart   Action = "jump_start"
	ActionJumpEnd     Action = "jump_end"
	ActionJumpCurrent Action = "jump_current"

	// Selection/activation actions
	ActionSelect Action = "select" // enter - play the song under the cursor
	ActionDelete Action = "delete" // d/delete - remove from the queue

	// URL input
	ActionSubmit Action = "submit"
	ActionCancel Action = "cancel"
)
