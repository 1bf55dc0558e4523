// Package progress tracks the playback position of the current song.
//
// Position is derived from wall-clock anchors on every call instead of being
// incremented by a ticker, so it stays correct while paused or when no tick
// runs under load.
package progress

import (
	"sync"
	"time"
)

// Tracker holds the time anchors for one song.
type Tracker struct {
	mu sync.RWMutex

	now func() time.Time

	playing     bool
	paused      bool
	startedAt   time.Time
	pausedAt    time.Time
	pausedTotal time.Duration
	duration    int // seconds
	songID      string

	lastManualOp time.Time
}

// New creates a Tracker using the wall clock.
func New() *Tracker {
	return &Tracker{now: time.Now}
}

// Start resets all anchors to now and marks the song as playing.
func (t *Tracker) Start(duration int, songID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.playing = true
	t.paused = false
	t.startedAt = now
	t.pausedAt = time.Time{}
	t.pausedTotal = 0
	t.duration = max(duration, 0)
	t.songID = songID
}

// Pause records the pause anchor. No-op unless playing and not paused.
func (t *Tracker) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.playing || t.paused {
		return
	}
	t.paused = true
	t.pausedAt = t.now()
}

// Resume adds the pause interval to the paused total. No-op unless paused.
func (t *Tracker) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.paused {
		return
	}
	t.pausedTotal += t.now().Sub(t.pausedAt)
	t.pausedAt = time.Time{}
	t.paused = false
}

// Stop returns the tracker to the not-playing state.
// The manual-operation stamp survives so the debounce still applies.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = false
	t.paused = false
	t.startedAt = time.Time{}
	t.pausedAt = time.Time{}
	t.pausedTotal = 0
	t.duration = 0
	t.songID = ""
}

// Reset clears everything including the manual-operation stamp.
func (t *Tracker) Reset() {
	t.Stop()
	t.mu.Lock()
	t.lastManualOp = time.Time{}
	t.mu.Unlock()
}

// Elapsed returns the played time, clamped to [0, duration].
// Returns 0 when not playing.
func (t *Tracker) Elapsed() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.elapsedLocked()
}

func (t *Tracker) elapsedLocked() time.Duration {
	if !t.playing {
		return 0
	}
	end := t.now()
	if t.paused {
		end = t.pausedAt
	}
	elapsed := end.Sub(t.startedAt) - t.pausedTotal
	limit := time.Duration(t.duration) * time.Second
	return min(max(elapsed, 0), limit)
}

// Position returns the played time in whole seconds.
func (t *Tracker) Position() int {
	return int(t.Elapsed() / time.Second)
}

// Remaining returns the seconds left in the song.
func (t *Tracker) Remaining() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return max(t.duration-int(t.elapsedLocked()/time.Second), 0)
}

// Percent returns progress in [0, 100]. Returns 0 for unknown durations.
func (t *Tracker) Percent() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.duration <= 0 {
		return 0
	}
	return min(t.elapsedLocked().Seconds()/float64(t.duration)*100, 100)
}

// IsFinished returns true once the position has reached the duration.
func (t *Tracker) IsFinished() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.playing || t.duration <= 0 {
		return false
	}
	return t.elapsedLocked() >= time.Duration(t.duration)*time.Second
}

// IsPlaying returns true between Start and Stop, paused or not.
func (t *Tracker) IsPlaying() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.playing
}

// IsPaused returns true while paused.
func (t *Tracker) IsPaused() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.paused
}

// Duration returns the song duration in seconds.
func (t *Tracker) Duration() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.duration
}

// SongID returns the id passed to Start.
func (t *Tracker) SongID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.songID
}

// MarkManualOperation stamps the time of a user-initiated transition.
func (t *Tracker) MarkManualOperation() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastManualOp = t.now()
}

// SinceManualOperation returns the time since the last manual operation.
// The second result is false if none was recorded.
func (t *Tracker) SinceManualOperation() (time.Duration, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.lastManualOp.IsZero() {
		return 0, false
	}
	return t.now().Sub(t.lastManualOp), true
}

// WithinDebounce reports whether a manual operation happened less than
// window ago.
func (t *Tracker) WithinDebounce(window time.Duration) bool {
	since, ok := t.SinceManualOperation()
	return ok && since < window
}
