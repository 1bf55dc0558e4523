package notify

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/llehouerou/wavecast/internal/errmsg"
	"github.com/llehouerou/wavecast/internal/playback"
	"github.com/llehouerou/wavecast/internal/playlist"
)

type recordingNotifier struct {
	mu     sync.Mutex
	sent   []Notification
	nextID uint32
	err    error
}

func (n *recordingNotifier) Notify(notif Notification) (uint32, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return 0, n.err
	}
	n.sent = append(n.sent, notif)
	if notif.ReplacesID != 0 {
		return notif.ReplacesID, nil
	}
	n.nextID++
	return n.nextID, nil
}

func (n *recordingNotifier) Close(uint32) error { return nil }

func TestNowPlaying(t *testing.T) {
	song := playlist.Song{Title: "夜に駆ける", Uploader: "YOASOBI", Duration: 261, RequestedBy: "alice"}

	got := NowPlaying(song)

	if got.Title != "夜に駆ける" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Body != "YOASOBI · 4:21\nrequested by alice" {
		t.Errorf("Body = %q", got.Body)
	}
	if got.Urgency != UrgencyLow {
		t.Errorf("Urgency = %d, want low", got.Urgency)
	}
}

func TestNowPlaying_MinimalSong(t *testing.T) {
	got := NowPlaying(playlist.Song{Title: "live"})
	if got.Body != "" {
		t.Errorf("Body = %q, want empty", got.Body)
	}
}

func TestFailure(t *testing.T) {
	e := playback.ErrorEvent{
		Op:      errmsg.OpDownload,
		Kind:    errmsg.KindSongUnavailable,
		Message: errmsg.ReasonPrivate.Message(),
		Subject: "secret video",
	}

	got := Failure(e)

	if got.Body != "secret video\n"+errmsg.ReasonPrivate.Message() {
		t.Errorf("Body = %q", got.Body)
	}
	if got.Urgency != UrgencyNormal {
		t.Errorf("Urgency = %d, want normal", got.Urgency)
	}
}

func TestRelay_TrackReplacesPrevious(t *testing.T) {
	rec := &recordingNotifier{}
	r := NewRelay(rec)

	r.track(playback.TrackChange{Current: &playlist.Song{Title: "a"}})
	r.track(playback.TrackChange{Current: &playlist.Song{Title: "b"}})
	r.track(playback.TrackChange{})

	if len(rec.sent) != 2 {
		t.Fatalf("sent %d notifications, want 2", len(rec.sent))
	}
	if rec.sent[0].ReplacesID != 0 || rec.sent[1].ReplacesID != 1 {
		t.Errorf("ReplacesID = %d, %d, want 0, 1", rec.sent[0].ReplacesID, rec.sent[1].ReplacesID)
	}
}

func TestRelay_NotifyErrorKeepsLastID(t *testing.T) {
	rec := &recordingNotifier{}
	r := NewRelay(rec)
	r.track(playback.TrackChange{Current: &playlist.Song{Title: "a"}})

	rec.err = errors.New("bus gone")
	r.track(playback.TrackChange{Current: &playlist.Song{Title: "b"}})
	r.failure(playback.ErrorEvent{Message: "x"})

	if r.lastID != 1 {
		t.Errorf("lastID = %d, want 1", r.lastID)
	}
}

func TestRelay_FailureIsSeparate(t *testing.T) {
	rec := &recordingNotifier{}
	r := NewRelay(rec)

	r.track(playback.TrackChange{Current: &playlist.Song{Title: "a"}})
	r.failure(playback.ErrorEvent{Kind: errmsg.KindDownload, Message: errmsg.KindDownload.Message()})

	if len(rec.sent) != 2 {
		t.Fatalf("sent %d notifications, want 2", len(rec.sent))
	}
	if rec.sent[1].ReplacesID != 0 {
		t.Error("error notification replaced now playing")
	}
	if !strings.Contains(rec.sent[1].Body, errmsg.KindDownload.Message()) {
		t.Errorf("Body = %q", rec.sent[1].Body)
	}
}
