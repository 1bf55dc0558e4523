package keymap

import "strings"

// Contexts a binding can belong to.
const (
	ContextGlobal   = "global"
	ContextPlayback = "playback"
	ContextQueue    = "queue"
	ContextInput    = "input"
)

// Binding describes a single key binding.
type Binding struct {
	Action      Action
	Keys        []string
	Description string
	Context     string
	Short       string // footer label; empty keeps it out of the footer
}

// Bindings contains all key bindings, in footer order.
var Bindings = []Binding{
	{ActionAddURL, []string{"a", "o"}, "Add a URL or playlist", ContextGlobal, "add"},
	{ActionPlayPause, []string{" "}, "Play/pause", ContextPlayback, "play/pause"},
	{ActionNextTrack, []string{"n"}, "Next song", ContextPlayback, "next"},
	{ActionPrevTrack, []string{"p"}, "Previous song", ContextPlayback, "prev"},
	{ActionStop, []string{"s"}, "Stop", ContextPlayback, "stop"},
	{ActionToggleLoop, []string{"l"}, "Toggle queue loop", ContextPlayback, "loop"},
	{ActionDelete, []string{"d", "delete"}, "Remove song", ContextQueue, "remove"},
	{ActionClearQueue, []string{"c"}, "Clear queue", ContextGlobal, "clear"},
	{ActionHelp, []string{"?"}, "Show help", ContextGlobal, "help"},
	{ActionQuit, []string{"q", "ctrl+c"}, "Quit application", ContextGlobal, "quit"},

	{ActionConnect, []string{"r"}, "Connect to the channel", ContextGlobal, ""},
	{ActionDisconnect, []string{"x"}, "Disconnect", ContextGlobal, ""},
	{ActionVolumeUp, []string{"+", "="}, "Volume up", ContextGlobal, ""},
	{ActionVolumeDown, []string{"-"}, "Volume down", ContextGlobal, ""},
	{ActionToggleMute, []string{"m"}, "Mute", ContextGlobal, ""},

	{ActionMoveDown, []string{"j", "down"}, "Move down", ContextQueue, ""},
	{ActionMoveUp, []string{"k", "up"}, "Move up", ContextQueue, ""},
	{ActionPageDown, []string{"]", "right"}, "Next page", ContextQueue, ""},
	{ActionPageUp, []string{"[", "left"}, "Previous page", ContextQueue, ""},
	{ActionJumpStart, []string{"g"}, "First song", ContextQueue, ""},
	{ActionJumpEnd, []string{"G"}, "Last song", ContextQueue, ""},
	{ActionJumpCurrent, []string{"."}, "Playing song", ContextQueue, ""},
	{ActionSelect, []string{"enter"}, "Play song", ContextQueue, ""},

	{ActionSubmit, []string{"enter"}, "Resolve and enqueue", ContextInput, ""},
	{ActionCancel, []string{"esc"}, "Cancel", ContextInput, ""},
}

// ByContext returns key bindings belonging to any of the given contexts.
func ByContext(contexts ...string) []Binding {
	var result []Binding
	for _, kb := range Bindings {
		for _, c := range contexts {
			if kb.Context == c {
				result = append(result, kb)
				break
			}
		}
	}
	return result
}

// Help renders the footer line for bindings that carry a short label.
func Help(bindings []Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		if kb.Short == "" || len(kb.Keys) == 0 {
			continue
		}
		parts = append(parts, KeyName(kb.Keys[0])+" "+kb.Short)
	}
	return strings.Join(parts, "  ")
}

// KeyName returns the display name of a key string.
func KeyName(key string) string {
	if key == " " {
		return "space"
	}
	return key
}
