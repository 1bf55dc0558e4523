// Package icons holds the status symbols for the configured icon style.
package icons

// Style represents the icon style to use.
type Style string

const (
	StyleNerd    Style = "nerd"
	StyleUnicode Style = "unicode"
	StyleNone    Style = "none"
)

// Icons holds the icon characters for one style.
type Icons struct {
	Play    string
	Pause   string
	Stop    string
	Loop    string
	Cached  string // queued song with a local file
	Playing string // queue row marker for the current song
}

var (
	nerdIcons = Icons{
		Play:    "\uf04b",     // nf-fa-play
		Pause:   "\uf04c",     // nf-fa-pause
		Stop:    "\uf04d",     // nf-fa-stop
		Loop:    "\U000f0456", // nf-md-repeat
		Cached:  "\uf019",     // nf-fa-download
		Playing: "\uf001",     // nf-fa-music
	}

	unicodeIcons = Icons{
		Play:    "▶",
		Pause:   "⏸",
		Stop:    "■",
		Loop:    "⟳",
		Cached:  "●",
		Playing: "▶",
	}

	noneIcons = Icons{
		Play:    ">",
		Pause:   "||",
		Stop:    "[]",
		Loop:    "[L]",
		Cached:  "*",
		Playing: ">",
	}

	// current holds the active icon set
	current = unicodeIcons
)

// Init selects the icon set. Call it once at startup with the config value;
// unknown styles fall back to unicode.
func Init(style string) {
	switch Style(style) {
	case StyleNerd:
		current = nerdIcons
	case StyleNone:
		current = noneIcons
	default:
		current = unicodeIcons
	}
}

// Current returns the active icon set.
func Current() Icons {
	return current
}

// Play returns the playing-state symbol.
func Play() string {
	return current.Play
}

// Pause returns the paused-state symbol.
func Pause() string {
	return current.Pause
}

// Stop returns the stopped-state symbol.
func Stop() string {
	return current.Stop
}

// Loop returns the queue loop symbol.
func Loop() string {
	return current.Loop
}

// Cached returns the marker for songs with a local file.
func Cached() string {
	return current.Cached
}

// Playing returns the queue row marker for the current song.
func Playing() string {
	return current.Playing
}
