//go:build linux

package mpris

import (
	"context"
	"errors"
	"testing"

	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/wavecast/internal/playback"
	"github.com/llehouerou/wavecast/internal/playlist"
	"github.com/llehouerou/wavecast/internal/progress"
)

// stubService records the calls the adapter makes.
type stubService struct {
	playback.Service

	state   playback.State
	current *playlist.Song
	index   int
	length  int
	loop    bool
	calls   []string
	started string
}

func (s *stubService) State() playback.State { return s.state }
func (s *stubService) CurrentSong() *playlist.Song { return s.current }
func (s *stubService) CurrentIndex() int { return s.index }
func (s *stubService) QueueLen() int { return s.length }
func (s *stubService) Loop() bool { return s.loop }
func (s *stubService) SetLoop(enabled bool) { s.loop = enabled }
func (s *stubService) Progress() *progress.Tracker { return progress.New() }

func (s *stubService) Pause() error {
	s.calls = append(s.calls, "pause")
	return nil
}

func (s *stubService) Resume() error {
	s.calls = append(s.calls, "resume")
	return nil
}

func (s *stubService) Stop() error {
	s.calls = append(s.calls, "stop")
	return nil
}

func (s *stubService) Next(context.Context) error {
	s.calls = append(s.calls, "next")
	return nil
}

func (s *stubService) Previous(context.Context) error {
	s.calls = append(s.calls, "previous")
	return nil
}

func (s *stubService) Toggle(context.Context) error {
	s.calls = append(s.calls, "toggle")
	return nil
}

func (s *stubService) PlayOrSkip(_ context.Context, _ *playlist.Song) error {
	s.calls = append(s.calls, "play")
	return nil
}

func (s *stubService) Start(_ context.Context, url, _ string) ([]playlist.Song, error) {
	s.started = url
	return nil, nil
}

type stubVolume struct{ level float64 }

func (v *stubVolume) Volume() float64 { return v.level }
func (v *stubVolume) SetVolume(l float64) { v.level = l }

func TestPlay_DependsOnState(t *testing.T) {
	tests := []struct {
		state playback.State
		want  []string
	}{
		{playback.StateStopped, []string{"play"}},
		{playback.StatePaused, []string{"resume"}},
		{playback.StatePlaying, nil},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			svc := &stubService{state: tt.state}
			p := &playerAdapter{service: svc}

			if err := p.Play(); err != nil {
				t.Fatalf("Play() error = %v", err)
			}
			if len(svc.calls) != len(tt.want) || (len(tt.want) > 0 && svc.calls[0] != tt.want[0]) {
				t.Errorf("calls = %v, want %v", svc.calls, tt.want)
			}
		})
	}
}

func TestControls_Delegate(t *testing.T) {
	svc := &stubService{}
	p := &playerAdapter{service: svc}

	_ = p.Next()
	_ = p.Previous()
	_ = p.PlayPause()
	_ = p.Pause()
	_ = p.Stop()

	want := []string{"next", "previous", "toggle", "pause", "stop"}
	if len(svc.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", svc.calls, want)
	}
	for i := range want {
		if svc.calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, svc.calls[i], want[i])
		}
	}
}

func TestPlaybackStatus(t *testing.T) {
	tests := []struct {
		state playback.State
		want  types.PlaybackStatus
	}{
		{playback.StateIdle, types.PlaybackStatusStopped},
		{playback.StateStopped, types.PlaybackStatusStopped},
		{playback.StatePlaying, types.PlaybackStatusPlaying},
		{playback.StatePaused, types.PlaybackStatusPaused},
	}
	for _, tt := range tests {
		p := &playerAdapter{service: &stubService{state: tt.state}}
		if got, _ := p.PlaybackStatus(); got != tt.want {
			t.Errorf("PlaybackStatus(%v) = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestMetadata(t *testing.T) {
	p := &playerAdapter{service: &stubService{}}
	if meta, _ := p.Metadata(); meta.Title != "" {
		t.Errorf("Metadata() with no song = %+v, want empty", meta)
	}

	p.service = &stubService{current: &playlist.Song{
		ID: "abc", Title: "Idol", Uploader: "YOASOBI", Duration: 213,
		URL: "https://www.youtube.com/watch?v=abc", Thumbnail: "https://i.ytimg.com/abc.jpg",
	}}
	meta, err := p.Metadata()
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if meta.Title != "Idol" || meta.ArtUrl != "https://i.ytimg.com/abc.jpg" {
		t.Errorf("Metadata() = %+v", meta)
	}
	if len(meta.Artist) != 1 || meta.Artist[0] != "YOASOBI" {
		t.Errorf("Artist = %v, want [YOASOBI]", meta.Artist)
	}
	if meta.Length != types.Microseconds(213_000_000) {
		t.Errorf("Length = %d, want 213000000", meta.Length)
	}
	if string(meta.TrackId) != formatTrackID("abc") {
		t.Errorf("TrackId = %q", meta.TrackId)
	}
}

func TestCanGoNextPrevious(t *testing.T) {
	tests := []struct {
		name             string
		index, length    int
		loop             bool
		wantNext, wantPr bool
	}{
		{"empty", -1, 0, false, false, false},
		{"first", 0, 3, false, true, false},
		{"middle", 1, 3, false, true, true},
		{"last", 2, 3, false, false, true},
		{"last loop", 2, 3, true, true, true},
		{"first loop", 0, 3, true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &playerAdapter{service: &stubService{index: tt.index, length: tt.length, loop: tt.loop}}
			if got, _ := p.CanGoNext(); got != tt.wantNext {
				t.Errorf("CanGoNext() = %v, want %v", got, tt.wantNext)
			}
			if got, _ := p.CanGoPrevious(); got != tt.wantPr {
				t.Errorf("CanGoPrevious() = %v, want %v", got, tt.wantPr)
			}
		})
	}
}

func TestLoopStatus(t *testing.T) {
	svc := &stubService{}
	p := &playerAdapter{service: svc}

	if got, _ := p.LoopStatus(); got != types.LoopStatusNone {
		t.Errorf("LoopStatus() = %v, want None", got)
	}
	_ = p.SetLoopStatus(types.LoopStatusTrack)
	if !svc.loop {
		t.Error("SetLoopStatus(Track) did not enable loop")
	}
	if got, _ := p.LoopStatus(); got != types.LoopStatusPlaylist {
		t.Errorf("LoopStatus() = %v, want Playlist", got)
	}
	_ = p.SetLoopStatus(types.LoopStatusNone)
	if svc.loop {
		t.Error("SetLoopStatus(None) did not disable loop")
	}
}

func TestVolume(t *testing.T) {
	p := &playerAdapter{service: &stubService{}}
	if err := p.SetVolume(0.5); !errors.Is(err, ErrUnsupported) {
		t.Errorf("SetVolume() without control error = %v, want ErrUnsupported", err)
	}

	vol := &stubVolume{level: 0.3}
	p.vol = vol
	if got, _ := p.Volume(); got != 0.3 {
		t.Errorf("Volume() = %v, want 0.3", got)
	}
	_ = p.SetVolume(1.7)
	if vol.level != 1 {
		t.Errorf("SetVolume(1.7) level = %v, want 1", vol.level)
	}
}

func TestOpenUri_Enqueues(t *testing.T) {
	svc := &stubService{}
	p := &playerAdapter{service: svc}

	if err := p.OpenUri("https://youtu.be/abc"); err != nil {
		t.Fatalf("OpenUri() error = %v", err)
	}
	if svc.started != "https://youtu.be/abc" {
		t.Errorf("started = %q", svc.started)
	}
}

func TestSeek_Unsupported(t *testing.T) {
	p := &playerAdapter{service: &stubService{}}
	if err := p.Seek(1000); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Seek() error = %v, want ErrUnsupported", err)
	}
	if can, _ := p.CanSeek(); can {
		t.Error("CanSeek() = true")
	}
}
