package notify

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/llehouerou/wavecast/internal/playback"
	"github.com/llehouerou/wavecast/internal/playlist"
	"github.com/llehouerou/wavecast/internal/progress"
)

const (
	nowPlayingTimeout = 5000
	errorTimeout      = 8000
)

// Relay turns playback events into desktop notifications.
// Now-playing notifications replace each other instead of piling up.
type Relay struct {
	n      Notifier
	lastID uint32
}

// NewRelay creates a relay sending through n.
func NewRelay(n Notifier) *Relay {
	return &Relay{n: n}
}

// Run consumes sub until it is closed.
func (r *Relay) Run(sub *playback.Subscription) {
	for {
		select {
		case <-sub.Done:
			return
		case e := <-sub.TrackChanged:
			r.track(e)
		case e := <-sub.Error:
			r.failure(e)
		}
	}
}

func (r *Relay) track(e playback.TrackChange) {
	if e.Current == nil {
		return
	}
	notif := NowPlaying(*e.Current)
	notif.ReplacesID = r.lastID
	id, err := r.n.Notify(notif)
	if err != nil {
		log.Debug().Err(err).Msg("now playing notification failed")
		return
	}
	r.lastID = id
}

func (r *Relay) failure(e playback.ErrorEvent) {
	if _, err := r.n.Notify(Failure(e)); err != nil {
		log.Debug().Err(err).Msg("error notification failed")
	}
}

// NowPlaying builds the notification for a song that just started.
func NowPlaying(song playlist.Song) Notification {
	body := song.Uploader
	if song.Duration > 0 {
		if body != "" {
			body += " · "
		}
		body += progress.FormatTime(song.Duration)
	}
	if song.RequestedBy != "" {
		body += fmt.Sprintf("\nrequested by %s", song.RequestedBy)
	}
	return Notification{
		Title:   song.Title,
		Body:    body,
		Icon:    "audio-x-generic",
		Timeout: nowPlayingTimeout,
		Urgency: UrgencyLow,
	}
}

// Failure builds the notification for a playback error event.
func Failure(e playback.ErrorEvent) Notification {
	body := e.Message
	if e.Subject != "" {
		body = e.Subject + "\n" + body
	}
	return Notification{
		Title:   appName,
		Body:    body,
		Icon:    "dialog-error",
		Timeout: errorTimeout,
		Urgency: UrgencyNormal,
	}
}
