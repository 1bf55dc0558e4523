// internal/playback/fixture_test.go
package playback

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/llehouerou/wavecast/internal/cache"
	"github.com/llehouerou/wavecast/internal/downloader"
	"github.com/llehouerou/wavecast/internal/errmsg"
	"github.com/llehouerou/wavecast/internal/player"
	"github.com/llehouerou/wavecast/internal/playlist"
)

const testChannel = "general"

func songURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func makeSongs(ids ...string) []playlist.Song {
	songs := make([]playlist.Song, len(ids))
	for i, id := range ids {
		songs[i] = playlist.Song{ID: id, Title: "Song " + id, URL: songURL(id), Duration: 180}
	}
	return songs
}

// fakeResolver writes tiny files instead of running yt-dlp.
type fakeResolver struct {
	mu          sync.Mutex
	dir         string
	infos       map[string]downloader.Info
	playlists   map[string][]downloader.Info
	unavailable map[string]errmsg.Reason
	downloads   []string
	fetches     []string
	holdFetch   bool
	fetching    map[string]bool
	overlaps    []string
}

func newFakeResolver(dir string) *fakeResolver {
	return &fakeResolver{
		dir:         dir,
		infos:       map[string]downloader.Info{},
		playlists:   map[string][]downloader.Info{},
		unavailable: map[string]errmsg.Reason{},
		fetching:    map[string]bool{},
	}
}

// setHoldFetch makes Fetch block until its context is cancelled.
func (r *fakeResolver) setHoldFetch(hold bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.holdFetch = hold
}

// overlapping returns ids downloaded while a fetch of the same id ran.
func (r *fakeResolver) overlapping() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.overlaps)
}

func (r *fakeResolver) markUnavailable(id string, reason errmsg.Reason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unavailable[id] = reason
}

func (r *fakeResolver) ExtractInfo(_ context.Context, url string) (*downloader.Info, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.infos[url]
	if !ok {
		return nil, errmsg.Unavailable(errmsg.ReasonPrivate, url, errors.New("ERROR: Private video"))
	}
	return &info, nil
}

func (r *fakeResolver) ExtractPlaylist(_ context.Context, url string) ([]downloader.Info, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list, ok := r.playlists[url]
	if !ok {
		return nil, &errmsg.Error{Kind: errmsg.KindDownload, Op: errmsg.OpExtractPlaylist, Err: downloader.ErrEmptyPlaylist}
	}
	return list, nil
}

func (r *fakeResolver) produce(url, id string) (string, error) {
	r.mu.Lock()
	reason, bad := r.unavailable[id]
	r.mu.Unlock()
	if bad {
		return "", errmsg.Unavailable(reason, url, errors.New("ERROR: video unavailable"))
	}
	path := filepath.Join(r.dir, id+".opus")
	return path, os.WriteFile(path, []byte("OggS"), 0o600)
}

func (r *fakeResolver) Download(_ context.Context, url, id string) (*downloader.Info, string, error) {
	r.mu.Lock()
	r.downloads = append(r.downloads, id)
	if r.fetching[id] {
		r.overlaps = append(r.overlaps, id)
	}
	r.mu.Unlock()
	path, err := r.produce(url, id)
	if err != nil {
		return nil, "", err
	}
	return &downloader.Info{ID: id, URL: url}, path, nil
}

func (r *fakeResolver) Fetch(ctx context.Context, url, id string) (string, error) {
	r.mu.Lock()
	r.fetches = append(r.fetches, id)
	r.fetching[id] = true
	hold := r.holdFetch
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.fetching, id)
		r.mu.Unlock()
	}()

	if hold {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return r.produce(url, id)
}

func (r *fakeResolver) fetched() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := slices.Clone(r.fetches)
	slices.Sort(ids)
	return ids
}

type fixture struct {
	svc      Service
	mock     *player.Mock
	queue    *playlist.Queue
	cache    *cache.Manager
	resolver *fakeResolver
	sub      *Subscription
	dir      string
}

// newFixture builds a connected service with the given songs queued.
// Call close before the test returns.
func newFixture(t *testing.T, ids ...string) *fixture {
	t.Helper()
	dir := t.TempDir()
	c, err := cache.New(cache.Options{Dir: dir, Extension: ".opus", Behind: 2, Ahead: 3})
	if err != nil {
		t.Fatalf("cache.New() error = %v", err)
	}

	f := &fixture{
		mock:     player.NewMock(),
		queue:    playlist.NewQueue(),
		cache:    c,
		resolver: newFakeResolver(dir),
		dir:      dir,
	}
	f.svc = New(f.mock, f.queue, f.resolver, c, Options{})
	f.sub = f.svc.Subscribe()

	if err := f.svc.Connect(context.Background(), testChannel); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if len(ids) > 0 {
		f.svc.AddMany(makeSongs(ids...))
	}
	return f
}

func (f *fixture) close() {
	_ = f.svc.Close()
	f.cache.Cleanup()
}

func (f *fixture) path(id string) string {
	return filepath.Join(f.dir, id+".opus")
}

// played returns the song ids handed to the transport, in order.
func (f *fixture) played() []string {
	calls := f.mock.PlayCalls()
	ids := make([]string, len(calls))
	for i, p := range calls {
		ids[i] = filepath.Base(p[:len(p)-len(filepath.Ext(p))])
	}
	return ids
}

func drainErrors(sub *Subscription) []ErrorEvent {
	var out []ErrorEvent
	for {
		select {
		case e := <-sub.Error:
			out = append(out, e)
		default:
			return out
		}
	}
}

func drainStates(sub *Subscription) []StateChange {
	var out []StateChange
	for {
		select {
		case e := <-sub.StateChanged:
			out = append(out, e)
		default:
			return out
		}
	}
}

func drainTracks(sub *Subscription) []TrackChange {
	var out []TrackChange
	for {
		select {
		case e := <-sub.TrackChanged:
			out = append(out, e)
		default:
			return out
		}
	}
}

func drainConnections(sub *Subscription) []ConnectionChange {
	var out []ConnectionChange
	for {
		select {
		case e := <-sub.ConnectionChanged:
			out = append(out, e)
		default:
			return out
		}
	}
}
