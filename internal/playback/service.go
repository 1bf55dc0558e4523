// internal/playback/service.go
package playback

import (
	"context"
	"time"

	"github.com/llehouerou/wavecast/internal/cache"
	"github.com/llehouerou/wavecast/internal/downloader"
	"github.com/llehouerou/wavecast/internal/playlist"
	"github.com/llehouerou/wavecast/internal/progress"
)

// Service defines the playback service contract.
type Service interface {
	// Transport lifecycle
	Connect(ctx context.Context, channel string) error
	Disconnect(ctx context.Context) error

	// Playback control
	Play(ctx context.Context, song *playlist.Song) error
	PlayOrSkip(ctx context.Context, song *playlist.Song) error
	Pause() error
	Resume() error
	Toggle(ctx context.Context) error
	Stop() error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	JumpTo(ctx context.Context, index int) error

	// Resolving remote media
	Enqueue(ctx context.Context, url, requester string) ([]playlist.Song, error)
	Start(ctx context.Context, url, requester string) ([]playlist.Song, error)

	// Queue manipulation
	Add(song playlist.Song)
	AddMany(songs []playlist.Song)
	Remove(id string) *playlist.Song
	RemoveAt(position int) *playlist.Song
	Clear() int
	SetLoop(enabled bool)
	ToggleLoop() bool

	// State queries
	State() State
	IsReconnecting() bool
	AtEnd() bool
	Loading() *playlist.Song
	CurrentSong() *playlist.Song
	Progress() *progress.Tracker

	// Queue queries
	Songs() []playlist.Song
	CurrentIndex() int
	QueueLen() int
	Loop() bool
	Page(page, perPage int) playlist.Page
	Upcoming(n int) []playlist.Song

	// Event subscription
	Subscribe() *Subscription

	// Lifecycle
	Close() error
}

// Resolver extracts metadata and produces cached files.
// *downloader.Downloader implements it.
type Resolver interface {
	ExtractInfo(ctx context.Context, url string) (*downloader.Info, error)
	ExtractPlaylist(ctx context.Context, url string) ([]downloader.Info, error)
	Download(ctx context.Context, url, id string) (*downloader.Info, string, error)
	Fetch(ctx context.Context, url, id string) (string, error)
}

// Cache is the sliding-window cache. *cache.Manager implements it.
type Cache interface {
	Get(id string) (string, bool)
	Put(id, src string) (string, error)
	IsPreloading(id string) bool
	WaitForPreload(ctx context.Context, id string, timeout time.Duration) bool
	StopPreload(ctx context.Context, id string)
	OnSongChange(ctx context.Context, songs []playlist.Song, idx int, fetch cache.Fetcher)
	CancelAllPreloads() int
	SetOnCached(fn func(id, path string))
}

// Options configures the service.
type Options struct {
	Debounce             time.Duration // default 500ms
	ReconnectInterval    time.Duration // default 15s
	ReconnectMaxAttempts int           // default 5
	PreloadWait          time.Duration // default 30s
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = 500 * time.Millisecond
	}
	if o.ReconnectInterval <= 0 {
		o.ReconnectInterval = 15 * time.Second
	}
	if o.ReconnectMaxAttempts <= 0 {
		o.ReconnectMaxAttempts = 5
	}
	if o.PreloadWait <= 0 {
		o.PreloadWait = 30 * time.Second
	}
	return o
}

// Verify implementations at compile time.
var (
	_ Resolver = (*downloader.Downloader)(nil)
	_ Cache    = (*cache.Manager)(nil)
)
