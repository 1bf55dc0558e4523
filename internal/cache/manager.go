// Package cache keeps a sliding window of transcoded songs on disk around
// the queue cursor and prefetches the upcoming ones in the background.
package cache

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/llehouerou/wavecast/internal/errmsg"
	"github.com/llehouerou/wavecast/internal/playlist"
)

// Fetcher produces the cached file for a song and returns its path.
type Fetcher func(ctx context.Context, url, id string) (string, error)

// mediaExtensions are removed by ClearAll.
var mediaExtensions = map[string]bool{
	".opus": true,
	".ogg":  true,
	".webm": true,
	".m4a":  true,
	".mp3":  true,
	".mp4":  true,
	".wav":  true,
	".flac": true,
}

// scratchSuffixes mark in-progress downloads and transcodes.
var scratchSuffixes = []string{".part", ".raw", ".ytdl"}

// Options configures a Manager.
type Options struct {
	Dir       string
	Extension string // cached file extension, with dot
	Behind    int    // songs kept before the cursor
	Ahead     int    // songs kept and prefetched after the cursor

	// OnCached is called after a prefetch produces a file.
	OnCached func(id, path string)
}

// task is one prefetch goroutine. A cancelled task stays in the map until
// its goroutine exits so a restart for the same id can wait for it.
type task struct {
	cancel    context.CancelFunc
	done      chan struct{}
	cancelled bool
}

func (t *task) stop() {
	t.cancelled = true
	t.cancel()
}

// Manager owns the cache directory.
type Manager struct {
	dir      string
	ext      string
	behind   int
	ahead    int
	onCached func(id, path string)

	mu    sync.Mutex
	keep  []string
	tasks map[string]*task
	wg    sync.WaitGroup
}

// New creates a manager and ensures the directory exists.
func New(opts Options) (*Manager, error) {
	if opts.Extension == "" {
		opts.Extension = ".opus"
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, errmsg.New(errmsg.KindDownload, errmsg.OpInitialize, err)
	}
	return &Manager{
		dir:      opts.Dir,
		ext:      opts.Extension,
		behind:   max(opts.Behind, 0),
		ahead:    max(opts.Ahead, 0),
		onCached: opts.OnCached,
		tasks:    make(map[string]*task),
	}, nil
}

// SetOnCached replaces the prefetch hook.
func (m *Manager) SetOnCached(fn func(id, path string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCached = fn
}

// Dir returns the cache directory.
func (m *Manager) Dir() string { return m.dir }

// PathFor returns where id is cached.
func (m *Manager) PathFor(id string) string {
	return filepath.Join(m.dir, id+m.ext)
}

// Get returns the cached path for id if the file exists.
func (m *Manager) Get(id string) (string, bool) {
	path := m.PathFor(id)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

// Put moves src into the cache slot for id. It is idempotent: if the slot
// is already filled, src is discarded.
func (m *Manager) Put(id, src string) (string, error) {
	dst := m.PathFor(id)
	if src == dst {
		return dst, nil
	}
	if _, ok := m.Get(id); ok {
		if src != "" {
			_ = os.Remove(src)
		}
		return dst, nil
	}
	if err := moveFile(src, dst); err != nil {
		return "", errmsg.New(errmsg.KindDownload, errmsg.OpCachePut, err)
	}
	return dst, nil
}

// moveFile renames src to dst, falling back to copy and remove when they
// sit on different filesystems.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return err
	}
	return copyAndRemove(src, dst)
}

// copyAndRemove copies src next to dst, renames it into place and deletes src.
func copyAndRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".part"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	_ = in.Close()
	return os.Remove(src)
}

// window returns the keep range [lo, hi] for cursor idx.
func (m *Manager) window(n, idx int) (lo, hi int) {
	if n == 0 || idx < 0 {
		return 0, -1
	}
	idx = min(idx, n-1)
	return max(0, idx-m.behind), min(n-1, idx+m.ahead)
}

// OnSongChange recomputes the keep set around idx, evicts everything else,
// and starts prefetching the songs after idx.
func (m *Manager) OnSongChange(ctx context.Context, songs []playlist.Song, idx int, fetch Fetcher) {
	lo, hi := m.window(len(songs), idx)

	keep := make([]string, 0, hi-lo+1)
	keepSet := make(map[string]bool, hi-lo+1)
	for i := lo; i <= hi; i++ {
		keep = append(keep, songs[i].ID)
		keepSet[songs[i].ID] = true
	}

	m.mu.Lock()
	m.keep = keep
	for id, t := range m.tasks {
		if !keepSet[id] && !t.cancelled {
			t.stop()
			log.Debug().Str("id", id).Msg("cancelled prefetch outside window")
		}
	}
	m.mu.Unlock()

	m.evict(keepSet)

	if fetch == nil {
		return
	}
	for i := idx + 1; i <= hi; i++ {
		song := songs[i]
		if _, ok := m.Get(song.ID); ok {
			continue
		}
		m.startPrefetch(ctx, song, fetch)
	}
}

func (m *Manager) evict(keep map[string]bool) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", m.dir).Msg("cache dir unreadable")
		return
	}

	var removed int
	var freed int64
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, m.ext) {
			continue
		}
		if keep[strings.TrimSuffix(name, m.ext)] {
			continue
		}
		var size int64
		if info, err := e.Info(); err == nil {
			size = info.Size()
		}
		if err := os.Remove(filepath.Join(m.dir, name)); err != nil {
			log.Debug().Err(err).Str("file", name).Msg("evict failed")
			continue
		}
		removed++
		freed += size
	}

	if removed > 0 {
		log.Debug().
			Int("files", removed).
			Str("freed", humanize.Bytes(uint64(freed))).
			Msg("evicted songs outside window")
	}
}

func (m *Manager) startPrefetch(parent context.Context, song playlist.Song, fetch Fetcher) {
	m.mu.Lock()
	prev, busy := m.tasks[song.ID]
	if busy && !prev.cancelled {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(parent)
	t := &task{cancel: cancel, done: make(chan struct{})}
	m.tasks[song.ID] = t
	m.wg.Add(1)
	m.mu.Unlock()

	var after <-chan struct{}
	if busy {
		after = prev.done
	}
	go m.runPrefetch(ctx, t, song, fetch, after)
}

// runPrefetch fetches song once after has closed. after is the previous,
// cancelled task for the same id; both write the same scratch files.
func (m *Manager) runPrefetch(
	ctx context.Context,
	t *task,
	song playlist.Song,
	fetch Fetcher,
	after <-chan struct{},
) {
	defer m.wg.Done()
	defer close(t.done)
	defer func() {
		m.mu.Lock()
		if m.tasks[song.ID] == t {
			delete(m.tasks, song.ID)
		}
		m.mu.Unlock()
		t.cancel()
	}()

	if after != nil {
		// done must not close before the previous run has cleaned up.
		<-after
		if ctx.Err() != nil {
			return
		}
		if _, ok := m.Get(song.ID); ok {
			return
		}
	}

	log.Debug().Str("id", song.ID).Str("title", song.Title).Msg("prefetch started")

	path, err := fetch(ctx, song.URL, song.ID)
	if err != nil {
		if ctx.Err() != nil {
			m.removeScratch(song.ID)
			log.Debug().Str("id", song.ID).Msg("prefetch cancelled")
			return
		}
		log.Debug().Err(err).Str("id", song.ID).Msg(errmsg.Format(errmsg.OpPrefetch, err))
		return
	}

	path, err = m.Put(song.ID, path)
	if err != nil {
		log.Debug().Err(err).Str("id", song.ID).Msg("prefetch put failed")
		return
	}

	if ctx.Err() != nil && !m.inKeep(song.ID) {
		_ = os.Remove(path)
		log.Debug().Str("id", song.ID).Msg("prefetch finished outside window, discarded")
		return
	}

	m.mu.Lock()
	hook := m.onCached
	m.mu.Unlock()
	if hook != nil {
		hook(song.ID, path)
	}
	log.Debug().Str("id", song.ID).Msg("prefetch done")
}

func (m *Manager) inKeep(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range m.keep {
		if k == id {
			return true
		}
	}
	return false
}

// removeScratch deletes partial files belonging to id.
func (m *Manager) removeScratch(id string) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, id+".") && isScratch(name) {
			_ = os.Remove(filepath.Join(m.dir, name))
		}
	}
}

func isScratch(name string) bool {
	for _, s := range scratchSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// CancelPreload cancels the prefetch of id. It reports whether one was running.
func (m *Manager) CancelPreload(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.cancelled {
		return false
	}
	t.stop()
	return true
}

// StopPreload cancels the prefetch of id and waits until its goroutine has
// exited and removed its scratch files. It returns at once when nothing is
// running for id.
func (m *Manager) StopPreload(ctx context.Context, id string) {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if ok && !t.cancelled {
		t.stop()
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	select {
	case <-t.done:
	case <-ctx.Done():
	}
}

// CancelAllPreloads cancels every prefetch and returns how many there were.
func (m *Manager) CancelAllPreloads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if !t.cancelled {
			t.stop()
			n++
		}
	}
	if n > 0 {
		log.Debug().Int("count", n).Msg("cancelled all prefetches")
	}
	return n
}

// IsPreloading reports whether id is being prefetched.
func (m *Manager) IsPreloading(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	return ok && !t.cancelled
}

// livePreloads counts tasks that have not been cancelled. Callers hold mu.
func (m *Manager) livePreloads() int {
	n := 0
	for _, t := range m.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// WaitForPreload waits up to timeout for an in-flight prefetch of id and
// reports whether the file is cached afterwards. It returns false at once
// when id is neither cached nor being prefetched.
func (m *Manager) WaitForPreload(ctx context.Context, id string, timeout time.Duration) bool {
	if _, ok := m.Get(id); ok {
		return true
	}

	m.mu.Lock()
	t, ok := m.tasks[id]
	live := ok && !t.cancelled
	m.mu.Unlock()
	if !live {
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-t.done:
	case <-timer.C:
		log.Debug().Str("id", id).Dur("timeout", timeout).Msg("prefetch wait timed out")
	case <-ctx.Done():
	}

	_, ok = m.Get(id)
	return ok
}

// ClearAll cancels every prefetch and deletes all media and scratch files.
// It returns the number of files removed.
func (m *Manager) ClearAll() (int, error) {
	m.CancelAllPreloads()

	m.mu.Lock()
	m.keep = nil
	m.mu.Unlock()

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, errmsg.New(errmsg.KindDownload, errmsg.OpCacheClear, err)
	}

	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			continue
		}
		if !mediaExtensions[filepath.Ext(name)] && !isScratch(name) {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, name)); err == nil {
			removed++
		}
	}

	log.Info().Int("files", removed).Msg("cache cleared")
	return removed, nil
}

// Cleanup cancels prefetches and waits for them to exit. Files are kept.
func (m *Manager) Cleanup() {
	m.CancelAllPreloads()
	m.wg.Wait()
}

// Size returns the total bytes of cached songs.
func (m *Manager) Size() int64 {
	var total int64
	m.walkCached(func(info os.FileInfo) { total += info.Size() })
	return total
}

// Count returns the number of cached songs.
func (m *Manager) Count() int {
	n := 0
	m.walkCached(func(os.FileInfo) { n++ })
	return n
}

func (m *Manager) walkCached(fn func(os.FileInfo)) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), m.ext) {
			continue
		}
		if info, err := e.Info(); err == nil {
			fn(info)
		}
	}
}

// KeepSet returns the ids of the current window in queue order.
func (m *Manager) KeepSet() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.keep...)
}

// Stats is a snapshot for display.
type Stats struct {
	Count     int
	Size      int64
	Preloads  int
	KeepCount int
}

// Stats returns the current cache counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	preloads, keep := m.livePreloads(), len(m.keep)
	m.mu.Unlock()
	return Stats{Count: m.Count(), Size: m.Size(), Preloads: preloads, KeepCount: keep}
}

// HumanSize formats the cache size for display.
func (s Stats) HumanSize() string {
	return humanize.Bytes(uint64(s.Size))
}
