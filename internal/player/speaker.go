// internal/player/speaker.go
package player

import (
	"context"
	"math"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog/log"
)

const (
	speakerSampleRate = beep.SampleRate(opusSampleRate)
	resampleQuality   = 4
)

// Speaker is a Transport that plays Ogg files on the local audio device.
// The channel passed to Connect only labels the session.
type Speaker struct {
	mu sync.Mutex

	initialized bool
	connected   bool
	channel     string
	state       State

	ctrl   *beep.Ctrl
	volume *effects.Volume
	stream *oggStream
	onDone func(error)
	gen    uint64

	volumeLevel float64
	muted       bool

	// overridable in tests
	initSpeaker func(beep.SampleRate, int) error
}

// NewSpeaker creates a disconnected speaker at full volume.
func NewSpeaker() *Speaker {
	return &Speaker{
		state:       Stopped,
		volumeLevel: 1,
		initSpeaker: speaker.Init,
	}
}

func (s *Speaker) Connect(_ context.Context, channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		if err := s.initSpeaker(speakerSampleRate, speakerSampleRate.N(time.Second/10)); err != nil {
			return err
		}
		s.initialized = true
	}
	s.connected = true
	s.channel = channel
	log.Debug().Str("channel", channel).Msg("speaker connected")
	return nil
}

// Disconnect stops playback. The audio device stays open so a later
// Connect is cheap.
func (s *Speaker) Disconnect(_ context.Context) error {
	s.mu.Lock()
	done := s.stopLocked()
	s.connected = false
	s.mu.Unlock()

	if done != nil {
		go done(nil)
	}
	return nil
}

func (s *Speaker) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Channel returns the label passed to the last Connect.
func (s *Speaker) Channel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel
}

func (s *Speaker) Play(path string, onDone func(error)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	stream, format, err := decodeOgg(f)
	if err != nil {
		f.Close()
		return err
	}

	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		stream.Close()
		return ErrNotConnected
	}
	prev := s.stopLocked()

	var src beep.Streamer = stream
	if format.SampleRate != speakerSampleRate {
		src = beep.Resample(resampleQuality, format.SampleRate, speakerSampleRate, stream)
	}

	s.gen++
	gen := s.gen
	s.stream = stream
	s.onDone = onDone
	s.ctrl = &beep.Ctrl{Streamer: src}
	s.volume = &effects.Volume{
		Streamer: s.ctrl,
		Base:     2,
		Volume:   levelToVolume(s.volumeLevel),
		Silent:   s.muted,
	}
	s.state = Playing
	vol := s.volume
	s.mu.Unlock()

	if prev != nil {
		go prev(nil)
	}

	// The callback runs with the speaker lock held.
	speaker.Play(beep.Seq(vol, beep.Callback(func() {
		go s.finished(gen)
	})))
	return nil
}

// finished handles the natural end of the playback started as gen.
func (s *Speaker) finished(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.onDone == nil {
		s.mu.Unlock()
		return
	}
	err := s.stream.Err()
	s.stream.Close()
	done := s.onDone
	s.stream = nil
	s.onDone = nil
	s.ctrl = nil
	s.volume = nil
	s.state = Stopped
	s.mu.Unlock()

	done(err)
}

func (s *Speaker) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.CanPause() || s.ctrl == nil {
		return nil
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
	s.state = Paused
	return nil
}

func (s *Speaker) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.CanResume() || s.ctrl == nil {
		return nil
	}
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
	s.state = Playing
	return nil
}

func (s *Speaker) Stop() error {
	s.mu.Lock()
	done := s.stopLocked()
	s.mu.Unlock()

	if done != nil {
		go done(nil)
	}
	return nil
}

// stopLocked clears the device and returns the pending callback.
func (s *Speaker) stopLocked() func(error) {
	if !s.state.IsActive() {
		return nil
	}
	speaker.Clear()
	s.gen++
	if s.stream != nil {
		s.stream.Close()
	}
	done := s.onDone
	s.stream = nil
	s.onDone = nil
	s.ctrl = nil
	s.volume = nil
	s.state = Stopped
	return done
}

func (s *Speaker) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Playing
}

func (s *Speaker) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Paused
}

// State returns the current playback state.
func (s *Speaker) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetVolume sets the level in [0, 1]. While muted only the level is stored.
func (s *Speaker) SetVolume(level float64) {
	level = min(max(level, 0), 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.volumeLevel = level
	if !s.muted && s.volume != nil {
		speaker.Lock()
		s.volume.Volume = levelToVolume(level)
		speaker.Unlock()
	}
}

// Volume returns the current level in [0, 1].
func (s *Speaker) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volumeLevel
}

func (s *Speaker) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = muted
	if s.volume != nil {
		speaker.Lock()
		s.volume.Silent = muted
		speaker.Unlock()
	}
}

func (s *Speaker) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// levelToVolume maps a linear level onto beep's base-2 volume:
// 1 -> 0, 0.5 -> -1, 0.25 -> -2, 0 -> -10.
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}
