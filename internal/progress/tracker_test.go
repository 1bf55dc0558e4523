package progress

import (
	"testing"
	"testing/synctest"
	"time"
)

func TestTracker_PauseResumeScenario(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		tr := New()
		tr.Start(180, "song")

		time.Sleep(45 * time.Second)
		if got := tr.Position(); got != 45 {
			t.Errorf("Position() after 45s = %d, want 45", got)
		}

		tr.Pause()
		time.Sleep(10 * time.Second)
		if got := tr.Position(); got != 45 {
			t.Errorf("Position() while paused = %d, want 45", got)
		}

		tr.Resume()
		time.Sleep(5 * time.Second)
		if got := tr.Position(); got != 50 {
			t.Errorf("Position() after resume = %d, want 50", got)
		}
		if got := tr.Remaining(); got != 130 {
			t.Errorf("Remaining() = %d, want 130", got)
		}
	})
}

func TestTracker_MonotonicAndClamped(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		tr := New()
		tr.Start(10, "song")

		last := time.Duration(0)
		for range 30 {
			time.Sleep(700 * time.Millisecond)
			e := tr.Elapsed()
			if e < last {
				t.Fatalf("Elapsed() decreased from %v to %v", last, e)
			}
			if e > 10*time.Second {
				t.Fatalf("Elapsed() = %v exceeds duration", e)
			}
			last = e
		}
		if !tr.IsFinished() {
			t.Error("IsFinished() = false after exceeding duration")
		}
		if got := tr.Percent(); got != 100 {
			t.Errorf("Percent() = %v, want 100", got)
		}
	})
}

func TestTracker_NotPlaying(t *testing.T) {
	tr := New()

	if tr.Position() != 0 || tr.Percent() != 0 || tr.IsFinished() {
		t.Error("idle tracker should report zero progress")
	}

	// Pause/Resume without Start are no-ops
	tr.Pause()
	if tr.IsPaused() {
		t.Error("Pause() without Start should be a no-op")
	}
	tr.Resume()
	if tr.IsPlaying() {
		t.Error("Resume() without Start should be a no-op")
	}
}

func TestTracker_DoublePauseKeepsFirstAnchor(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		tr := New()
		tr.Start(100, "song")
		time.Sleep(5 * time.Second)
		tr.Pause()
		time.Sleep(5 * time.Second)
		tr.Pause()
		time.Sleep(5 * time.Second)
		tr.Resume()

		if got := tr.Position(); got != 5 {
			t.Errorf("Position() = %d, want 5", got)
		}
	})
}

func TestTracker_StopResets(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		tr := New()
		tr.Start(100, "song")
		time.Sleep(20 * time.Second)
		tr.Stop()

		if tr.IsPlaying() || tr.Position() != 0 || tr.SongID() != "" {
			t.Errorf("after Stop: playing=%v position=%d id=%q", tr.IsPlaying(), tr.Position(), tr.SongID())
		}
	})
}

func TestTracker_Debounce(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		tr := New()
		window := 500 * time.Millisecond

		if tr.WithinDebounce(window) {
			t.Error("WithinDebounce() = true with no manual operation")
		}

		tr.MarkManualOperation()
		time.Sleep(100 * time.Millisecond)
		if !tr.WithinDebounce(window) {
			t.Error("WithinDebounce() = false 100ms after manual operation")
		}

		time.Sleep(500 * time.Millisecond)
		if tr.WithinDebounce(window) {
			t.Error("WithinDebounce() = true 600ms after manual operation")
		}

		tr.MarkManualOperation()
		tr.Stop()
		if !tr.WithinDebounce(window) {
			t.Error("Stop() should not clear the manual operation stamp")
		}
		tr.Reset()
		if tr.WithinDebounce(window) {
			t.Error("Reset() should clear the manual operation stamp")
		}
	})
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{5, "0:05"},
		{65, "1:05"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
		{-3, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatTime(tt.seconds); got != tt.want {
			t.Errorf("FormatTime(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		percent float64
		width   int
		want    string
	}{
		{0, 5, "░░░░░"},
		{50, 4, "▓▓░░"},
		{100, 3, "▓▓▓"},
		{150, 3, "▓▓▓"},
		{-10, 3, "░░░"},
	}
	for _, tt := range tests {
		if got := RenderBar(tt.percent, tt.width); got != tt.want {
			t.Errorf("RenderBar(%v, %d) = %q, want %q", tt.percent, tt.width, got, tt.want)
		}
	}

	if got := []rune(RenderBar(40, 0)); len(got) != DefaultBarWidth {
		t.Errorf("RenderBar default width = %d, want %d", len(got), DefaultBarWidth)
	}
}

func TestTracker_Display(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		tr := New()
		tr.Start(125, "song")
		time.Sleep(61 * time.Second)

		if got := tr.Display(); got != "1:01 / 2:05" {
			t.Errorf("Display() = %q, want %q", got, "1:01 / 2:05")
		}
	})
}
