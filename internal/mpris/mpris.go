//go:build linux

// Package mpris exposes the playback service on the session bus so media
// keys and desktop widgets can drive the queue.
package mpris

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/wavecast/internal/playback"
)

// ErrUnsupported is returned for MPRIS calls the queue cannot honour.
var ErrUnsupported = errors.New("mpris: not supported")

// callTimeout bounds service calls made on behalf of a D-Bus client.
const callTimeout = 3 * time.Minute

// Volume is the optional output level control; *player.Speaker implements it.
type Volume interface {
	Volume() float64
	SetVolume(level float64)
}

// Adapter connects the playback service to MPRIS over D-Bus.
type Adapter struct {
	server *server.Server
}

// New creates and starts a new MPRIS adapter. vol may be nil.
func New(service playback.Service, vol Volume) (*Adapter, error) {
	a := &Adapter{
		server: server.NewServer("wavecast", &rootAdapter{}, &playerAdapter{service: service, vol: vol}),
	}

	go func() {
		_ = a.server.Listen()
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil
}

func (r *rootAdapter) Quit() error {
	return nil // the TUI owns the process
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "Wavecast", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/ogg", "audio/opus"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and the loop
// status extension.
type playerAdapter struct {
	service playback.Service
	vol     Volume
}

func (p *playerAdapter) call(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return fn(ctx)
}

func (p *playerAdapter) Next() error {
	return p.call(p.service.Next)
}

func (p *playerAdapter) Previous() error {
	return p.call(p.service.Previous)
}

func (p *playerAdapter) Pause() error {
	return p.service.Pause()
}

func (p *playerAdapter) PlayPause() error {
	return p.call(p.service.Toggle)
}

func (p *playerAdapter) Stop() error {
	return p.service.Stop()
}

func (p *playerAdapter) Play() error {
	if p.service.State() == playback.StatePaused {
		return p.service.Resume()
	}
	if p.service.State().IsActive() {
		return nil
	}
	return p.call(func(ctx context.Context) error { return p.service.PlayOrSkip(ctx, nil) })
}

func (p *playerAdapter) Seek(_ types.Microseconds) error {
	return ErrUnsupported
}

func (p *playerAdapter) SetPosition(_ string, _ types.Microseconds) error {
	return ErrUnsupported
}

// OpenUri enqueues the URL and starts it when nothing is playing.
//
//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(uri string) error {
	return p.call(func(ctx context.Context) error {
		_, err := p.service.Start(ctx, uri, "mpris")
		return err
	})
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.service.State() {
	case playback.StatePlaying:
		return types.PlaybackStatusPlaying, nil
	case playback.StatePaused:
		return types.PlaybackStatusPaused, nil
	case playback.StateIdle, playback.StateStopped:
		return types.PlaybackStatusStopped, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	song := p.service.CurrentSong()
	if song == nil {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(song.ID)),
		Length:  types.Microseconds((time.Duration(song.Duration) * time.Second).Microseconds()),
		Title:   song.Title,
		ArtUrl:  song.Thumbnail,
		Url:     song.URL,
	}
	if song.Uploader != "" {
		meta.Artist = []string{song.Uploader}
	}
	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	if p.vol == nil {
		return 1.0, nil
	}
	return p.vol.Volume(), nil
}

func (p *playerAdapter) SetVolume(level float64) error {
	if p.vol == nil {
		return ErrUnsupported
	}
	p.vol.SetVolume(min(max(level, 0), 1))
	return nil
}

func (p *playerAdapter) Position() (int64, error) {
	elapsed := time.Duration(p.service.Progress().Position()) * time.Second
	return elapsed.Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	n := p.service.QueueLen()
	return n > 0 && (p.service.Loop() || p.service.CurrentIndex() < n-1), nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.service.CurrentIndex() > 0 || (p.service.Loop() && p.service.QueueLen() > 0), nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.service.QueueLen() > 0, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

// LoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	if p.service.Loop() {
		return types.LoopStatusPlaylist, nil
	}
	return types.LoopStatusNone, nil
}

// SetLoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
// Track repeat is not a queue mode; it is treated as playlist loop.
func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	p.service.SetLoop(status != types.LoopStatusNone)
	return nil
}

func formatTrackID(id string) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
