// internal/cache/manager_test.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/wavecast/internal/playlist"
)

func makeSongs(n int) []playlist.Song {
	songs := make([]playlist.Song, n)
	for i := range songs {
		id := fmt.Sprintf("s%d", i)
		songs[i] = playlist.Song{ID: id, Title: "Song " + id, URL: "https://example.com/" + id}
	}
	return songs
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := New(Options{Dir: t.TempDir(), Extension: ".opus", Behind: 2, Ahead: 3})
	require.NoError(t, err)
	t.Cleanup(m.Cleanup)
	return m
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o600))
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names
}

// recordingFetcher writes the final file directly and records ids.
type recordingFetcher struct {
	mu  sync.Mutex
	dir string
	ids []string
	err error
}

func (f *recordingFetcher) fetch(ctx context.Context, url, id string) (string, error) {
	f.mu.Lock()
	f.ids = append(f.ids, id)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(f.dir, id+".opus")
	return path, os.WriteFile(path, []byte("audio"), 0o600)
}

func (f *recordingFetcher) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := slices.Clone(f.ids)
	slices.Sort(ids)
	return ids
}

// blockingFetch writes a partial file and waits for cancellation.
func blockingFetch(dir string) Fetcher {
	return func(ctx context.Context, url, id string) (string, error) {
		_ = os.WriteFile(filepath.Join(dir, id+".opus.part"), []byte("partial"), 0o600)
		<-ctx.Done()
		return "", ctx.Err()
	}
}

func TestOnSongChange_KeepsWindowAndEvicts(t *testing.T) {
	m := newTestManager(t)
	songs := makeSongs(10)
	for _, s := range songs {
		touch(t, m.PathFor(s.ID))
	}
	touch(t, filepath.Join(m.Dir(), "notes.txt"))

	m.OnSongChange(context.Background(), songs, 5, nil)

	assert.Equal(t, []string{"s3", "s4", "s5", "s6", "s7", "s8"}, m.KeepSet())
	assert.Equal(t,
		[]string{"notes.txt", "s3.opus", "s4.opus", "s5.opus", "s6.opus", "s7.opus", "s8.opus"},
		listDir(t, m.Dir()))
	assert.Equal(t, 6, m.Count())
}

func TestOnSongChange_WindowClampedAtEdges(t *testing.T) {
	tests := []struct {
		name string
		n    int
		idx  int
		want []string
	}{
		{"start", 10, 0, []string{"s0", "s1", "s2", "s3"}},
		{"end", 10, 9, []string{"s7", "s8", "s9"}},
		{"short queue", 2, 1, []string{"s0", "s1"}},
		{"empty queue", 0, -1, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t)
			m.OnSongChange(context.Background(), makeSongs(tt.n), tt.idx, nil)
			got := m.KeepSet()
			if got == nil {
				got = []string{}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOnSongChange_PrefetchesOnlyAhead(t *testing.T) {
	m := newTestManager(t)
	songs := makeSongs(10)
	touch(t, m.PathFor("s7"))

	f := &recordingFetcher{dir: m.Dir()}
	var hooked []string
	var hookMu sync.Mutex
	m.SetOnCached(func(id, path string) {
		hookMu.Lock()
		hooked = append(hooked, id)
		hookMu.Unlock()
	})

	m.OnSongChange(context.Background(), songs, 5, f.fetch)
	m.Cleanup()

	assert.Equal(t, []string{"s6", "s8"}, f.fetched(), "cached and behind songs are not fetched")
	for _, id := range []string{"s6", "s7", "s8"} {
		_, ok := m.Get(id)
		assert.True(t, ok, "%s should be cached", id)
	}
	hookMu.Lock()
	slices.Sort(hooked)
	assert.Equal(t, []string{"s6", "s8"}, hooked)
	hookMu.Unlock()
}

func TestOnSongChange_SkipsInFlight(t *testing.T) {
	m := newTestManager(t)
	songs := makeSongs(4)

	var mu sync.Mutex
	calls := map[string]int{}
	fetch := func(ctx context.Context, url, id string) (string, error) {
		mu.Lock()
		calls[id]++
		mu.Unlock()
		<-ctx.Done()
		return "", ctx.Err()
	}

	m.OnSongChange(context.Background(), songs, 0, fetch)
	m.OnSongChange(context.Background(), songs, 0, fetch)

	assert.True(t, m.IsPreloading("s1"))
	assert.Equal(t, 3, m.CancelAllPreloads())
	m.Cleanup()

	mu.Lock()
	defer mu.Unlock()
	for id, n := range calls {
		assert.Equal(t, 1, n, "%s fetched more than once", id)
	}
}

func TestOnSongChange_CancelsPrefetchLeavingWindow(t *testing.T) {
	m := newTestManager(t)
	songs := makeSongs(10)

	m.OnSongChange(context.Background(), songs, 0, blockingFetch(m.Dir()))
	require.True(t, m.IsPreloading("s1"))

	m.OnSongChange(context.Background(), songs, 9, nil)

	assert.False(t, m.IsPreloading("s1"))
	assert.False(t, m.IsPreloading("s3"))
	m.Cleanup()
	assert.Empty(t, listDir(t, m.Dir()), "partial files should be removed")
}

func TestOnSongChange_RestartWaitsForCancelledPrefetch(t *testing.T) {
	m := newTestManager(t)
	songs := makeSongs(10)

	exit := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	calls := map[string]int{}
	active := map[string]int{}
	peak := 0
	fetch := func(ctx context.Context, url, id string) (string, error) {
		mu.Lock()
		calls[id]++
		active[id]++
		peak = max(peak, active[id])
		mu.Unlock()
		defer func() {
			mu.Lock()
			active[id]--
			mu.Unlock()
		}()

		raw := filepath.Join(m.Dir(), id+".webm.raw")
		if err := os.WriteFile(raw, []byte("partial"), 0o600); err != nil {
			return "", err
		}
		select {
		case <-ctx.Done():
			<-exit
			_ = os.Remove(raw)
			return "", ctx.Err()
		case <-release:
		}
		final := m.PathFor(id)
		return final, os.Rename(raw, final)
	}
	callsFor := func(id string) int {
		mu.Lock()
		defer mu.Unlock()
		return calls[id]
	}

	m.OnSongChange(context.Background(), songs, 0, fetch)
	require.Eventually(t, func() bool { return callsFor("s1") == 1 }, time.Second, 5*time.Millisecond)

	m.OnSongChange(context.Background(), songs, 9, nil)
	m.OnSongChange(context.Background(), songs, 0, fetch)

	assert.True(t, m.IsPreloading("s1"))
	assert.Equal(t, 3, m.Stats().Preloads)
	assert.Equal(t, 1, callsFor("s1"), "restart must wait for the cancelled run")

	close(exit)
	require.Eventually(t, func() bool { return callsFor("s1") == 2 }, time.Second, 5*time.Millisecond)
	close(release)
	m.Cleanup()

	_, ok := m.Get("s1")
	assert.True(t, ok, "restarted prefetch should complete")
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, peak, "two fetches of one song overlapped")
}

func TestStopPreload_WaitsForExit(t *testing.T) {
	m := newTestManager(t)
	m.OnSongChange(context.Background(), makeSongs(2), 0, blockingFetch(m.Dir()))
	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(m.Dir(), "s1.opus.part"))
		return err == nil
	}, time.Second, 5*time.Millisecond)

	m.StopPreload(context.Background(), "s1")

	assert.False(t, m.IsPreloading("s1"))
	assert.Empty(t, listDir(t, m.Dir()), "scratch files are gone once StopPreload returns")

	m.StopPreload(context.Background(), "missing")
}

func TestMoveFile_SameFilesystem(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.tmp")
	dst := filepath.Join(dir, "a.opus")
	touch(t, src)

	require.NoError(t, moveFile(src, dst))

	assert.Equal(t, []string{"a.opus"}, listDir(t, dir))
}

func TestCopyAndRemove(t *testing.T) {
	srcDir, dstDir := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "a.tmp")
	require.NoError(t, os.WriteFile(src, []byte("opus data"), 0o600))
	dst := filepath.Join(dstDir, "a.opus")

	require.NoError(t, copyAndRemove(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "opus data", string(data))
	assert.Empty(t, listDir(t, srcDir), "source should be removed")
	assert.Equal(t, []string{"a.opus"}, listDir(t, dstDir), "no scratch file left behind")
}

func TestCopyAndRemove_MissingSource(t *testing.T) {
	dstDir := t.TempDir()
	err := copyAndRemove(filepath.Join(t.TempDir(), "missing"), filepath.Join(dstDir, "a.opus"))
	require.Error(t, err)
	assert.Empty(t, listDir(t, dstDir))
}

func TestCancelPreload_RemovesPartial(t *testing.T) {
	m := newTestManager(t)
	songs := makeSongs(2)

	m.OnSongChange(context.Background(), songs, 0, blockingFetch(m.Dir()))
	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(m.Dir(), "s1.opus.part"))
		return err == nil
	}, time.Second, 5*time.Millisecond)

	assert.True(t, m.CancelPreload("s1"))
	assert.False(t, m.CancelPreload("s1"), "second cancel is a no-op")
	m.Cleanup()

	assert.Empty(t, listDir(t, m.Dir()))
}

func TestPrefetchFailure_IsSilent(t *testing.T) {
	m := newTestManager(t)
	f := &recordingFetcher{dir: m.Dir(), err: errors.New("boom")}

	m.OnSongChange(context.Background(), makeSongs(3), 0, f.fetch)
	m.Cleanup()

	assert.Equal(t, []string{"s1", "s2"}, f.fetched())
	assert.False(t, m.IsPreloading("s1"))
	assert.Equal(t, 0, m.Count())
}

func TestPrefetch_MovesFileIntoPlace(t *testing.T) {
	m := newTestManager(t)
	elsewhere := t.TempDir()
	fetch := func(ctx context.Context, url, id string) (string, error) {
		p := filepath.Join(elsewhere, id+".tmp")
		return p, os.WriteFile(p, []byte("audio"), 0o600)
	}

	m.OnSongChange(context.Background(), makeSongs(2), 0, fetch)
	m.Cleanup()

	_, ok := m.Get("s1")
	assert.True(t, ok)
	assert.Empty(t, listDir(t, elsewhere))
}

func TestPut_Idempotent(t *testing.T) {
	m := newTestManager(t)
	src := filepath.Join(t.TempDir(), "a.opus")
	touch(t, src)

	p1, err := m.Put("a", src)
	require.NoError(t, err)
	assert.Equal(t, m.PathFor("a"), p1)

	again := filepath.Join(t.TempDir(), "a2.opus")
	touch(t, again)
	p2, err := m.Put("a", again)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
	_, statErr := os.Stat(again)
	assert.True(t, os.IsNotExist(statErr), "duplicate source should be discarded")

	p3, err := m.Put("a", p1)
	require.NoError(t, err)
	assert.Equal(t, p1, p3)
}

func TestWaitForPreload(t *testing.T) {
	t.Run("cached returns immediately", func(t *testing.T) {
		m := newTestManager(t)
		touch(t, m.PathFor("x"))
		assert.True(t, m.WaitForPreload(context.Background(), "x", time.Second))
	})

	t.Run("not in flight returns false", func(t *testing.T) {
		m := newTestManager(t)
		assert.False(t, m.WaitForPreload(context.Background(), "x", time.Second))
	})

	t.Run("waits for completion", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			m := newTestManager(t)
			release := make(chan struct{})
			fetch := func(ctx context.Context, url, id string) (string, error) {
				<-release
				p := m.PathFor(id)
				return p, os.WriteFile(p, []byte("audio"), 0o600)
			}
			m.OnSongChange(context.Background(), makeSongs(2), 0, fetch)

			go func() {
				time.Sleep(2 * time.Second)
				close(release)
			}()

			start := time.Now()
			assert.True(t, m.WaitForPreload(context.Background(), "s1", 30*time.Second))
			assert.Equal(t, 2*time.Second, time.Since(start))
			m.Cleanup()
		})
	})

	t.Run("times out", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			m := newTestManager(t)
			m.OnSongChange(context.Background(), makeSongs(2), 0, blockingFetch(m.Dir()))

			start := time.Now()
			assert.False(t, m.WaitForPreload(context.Background(), "s1", 5*time.Second))
			assert.Equal(t, 5*time.Second, time.Since(start))
			assert.True(t, m.IsPreloading("s1"), "timeout does not cancel the prefetch")
			m.Cleanup()
		})
	})
}

func TestClearAll(t *testing.T) {
	m := newTestManager(t)
	m.OnSongChange(context.Background(), makeSongs(3), 0, blockingFetch(m.Dir()))
	for _, name := range []string{
		"a.opus", "b.ogg", "c.webm", "d.m4a", "e.mp3", "f.mp4", "g.wav", "h.flac",
		"i.opus.part", "j.webm.raw", "keep.txt",
	} {
		touch(t, filepath.Join(m.Dir(), name))
	}

	n, err := m.ClearAll()
	require.NoError(t, err)

	assert.GreaterOrEqual(t, n, 10)
	assert.False(t, m.IsPreloading("s1"))
	m.Cleanup()
	assert.Equal(t, []string{"keep.txt"}, listDir(t, m.Dir()))
	assert.Empty(t, m.KeepSet())
}

func TestCleanup_KeepsFiles(t *testing.T) {
	m := newTestManager(t)
	touch(t, m.PathFor("s0"))
	m.OnSongChange(context.Background(), makeSongs(3), 0, blockingFetch(m.Dir()))

	m.Cleanup()

	assert.False(t, m.IsPreloading("s1"))
	_, ok := m.Get("s0")
	assert.True(t, ok)
}

func TestSizeAndStats(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, os.WriteFile(m.PathFor("a"), make([]byte, 1000), 0o600))
	require.NoError(t, os.WriteFile(m.PathFor("b"), make([]byte, 500), 0o600))
	touch(t, filepath.Join(m.Dir(), "c.webm.raw"))

	assert.Equal(t, int64(1500), m.Size())
	assert.Equal(t, 2, m.Count())

	st := m.Stats()
	assert.Equal(t, 2, st.Count)
	assert.Equal(t, "1.5 kB", st.HumanSize())
}
