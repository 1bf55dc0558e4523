// internal/player/transport.go
package player

import (
	"context"
	"errors"
)

var (
	ErrNotConnected = errors.New("transport not connected")
	ErrNotPlaying   = errors.New("nothing is playing")
)

// Transport is an audio sink that plays one local file at a time.
//
// onDone passed to Play is called exactly once when that playback ends,
// whether it ran to the end, was replaced, was stopped, or failed.
// It may be called from any goroutine and must not block.
type Transport interface {
	Connect(ctx context.Context, channel string) error
	Disconnect(ctx context.Context) error
	IsConnected() bool

	Play(path string, onDone func(error)) error
	Pause() error
	Resume() error
	Stop() error

	IsPlaying() bool
	IsPaused() bool
}

// Verify implementations at compile time.
var (
	_ Transport = (*Speaker)(nil)
	_ Transport = (*Mock)(nil)
)
