// internal/playback/service_impl.go
package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/llehouerou/wavecast/internal/downloader"
	"github.com/llehouerou/wavecast/internal/errmsg"
	"github.com/llehouerou/wavecast/internal/player"
	"github.com/llehouerou/wavecast/internal/playlist"
	"github.com/llehouerou/wavecast/internal/progress"
)

// ErrClosed is returned by operations on a closed service.
var ErrClosed = errors.New("playback service closed")

// Verify serviceImpl implements Service at compile time.
var _ Service = (*serviceImpl)(nil)

type request struct {
	run   func() error
	reply chan error
}

// completion is posted by the transport when a playback ends.
type completion struct {
	epoch uint64
	err   error
}

type cacheUpdate struct {
	songs []playlist.Song
	idx   int
}

type serviceImpl struct {
	// mu guards the fields read by queries; only the loop writes them.
	mu           sync.RWMutex
	state        State
	reconnecting bool
	atEnd        bool
	loading      *playlist.Song
	current      *playlist.Song

	// Owned by the loop goroutine.
	epoch                uint64
	stopping             bool
	channel              string
	manualDisconnect     bool
	attempts             int
	resumeAfterReconnect bool

	transport player.Transport
	queue     *playlist.Queue
	resolver  Resolver
	cache     Cache
	tracker   *progress.Tracker
	opts      Options

	requests    chan request
	completions chan completion
	cacheCh     chan cacheUpdate
	kick        chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	subs   []*Subscription
	subsMu sync.RWMutex

	closeOnce sync.Once
	done      chan struct{}
}

// New creates a playback service and starts its event loop.
func New(t player.Transport, q *playlist.Queue, r Resolver, c Cache, opts Options) Service {
	ctx, cancel := context.WithCancel(context.Background())
	s := &serviceImpl{
		state:       StateIdle,
		transport:   t,
		queue:       q,
		resolver:    r,
		cache:       c,
		tracker:     progress.New(),
		opts:        opts.withDefaults(),
		requests:    make(chan request),
		completions: make(chan completion, eventBufferSize),
		cacheCh:     make(chan cacheUpdate, 1),
		kick:        make(chan struct{}, 1),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	if t.IsConnected() {
		s.state = StateStopped
	}
	c.SetOnCached(func(id, path string) { q.MarkCached(id, path) })

	s.wg.Add(2)
	go s.run()
	go s.cacheWorker()
	return s
}

// run is the event loop. Every transition happens here.
func (s *serviceImpl) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.opts.ReconnectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case req := <-s.requests:
			req.reply <- req.run()
		case c := <-s.completions:
			s.handleCompletion(c)
		case <-ticker.C:
			s.checkConnection()
		case <-s.kick:
			if s.State().IsActive() {
				s.updateCache()
			}
		}
	}
}

// cacheWorker applies window updates one at a time, latest first.
func (s *serviceImpl) cacheWorker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case u := <-s.cacheCh:
			s.cache.OnSongChange(s.ctx, u.songs, u.idx, s.resolver.Fetch)
		}
	}
}

// do runs fn on the event loop and waits for its result.
func (s *serviceImpl) do(ctx context.Context, fn func() error) error {
	req := request{run: fn, reply: make(chan error, 1)}
	select {
	case s.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
	select {
	case err := <-req.reply:
		return err
	case <-s.done:
		return ErrClosed
	}
}

// onDone builds the transport completion callback for one playback.
// It only posts a message and never blocks the audio thread.
func (s *serviceImpl) onDone(epoch uint64) func(error) {
	return func(err error) {
		c := completion{epoch: epoch, err: err}
		select {
		case s.completions <- c:
		case <-s.done:
		default:
			go func() {
				select {
				case s.completions <- c:
				case <-s.done:
				}
			}()
		}
	}
}

// Transport lifecycle

func (s *serviceImpl) Connect(ctx context.Context, channel string) error {
	return s.do(ctx, func() error {
		if err := s.transport.Connect(ctx, channel); err != nil {
			e := errmsg.New(errmsg.KindVoiceConnection, errmsg.OpConnect, err)
			s.emitError(newErrorEvent(errmsg.OpConnect, channel, e))
			return e
		}
		s.channel = channel
		s.manualDisconnect = false
		s.setReconnecting(false)
		if s.State() == StateIdle {
			s.setState(StateStopped, false)
		}
		log.Info().Str("channel", channel).Msg("connected")
		s.emitConnection(ConnectionChange{Connected: true})
		s.refresh()
		return nil
	})
}

func (s *serviceImpl) Disconnect(ctx context.Context) error {
	return s.do(ctx, func() error {
		s.manualDisconnect = true
		s.setReconnecting(false)
		s.stopTransport()
		s.tracker.Reset()
		s.cache.CancelAllPreloads()
		err := s.transport.Disconnect(ctx)
		s.setCurrent(nil)
		s.setState(StateIdle, false)
		s.emitConnection(ConnectionChange{})
		s.refresh()
		if err != nil {
			e := errmsg.New(errmsg.KindVoiceConnection, errmsg.OpDisconnect, err)
			s.emitError(newErrorEvent(errmsg.OpDisconnect, s.channel, e))
			return e
		}
		log.Info().Str("channel", s.channel).Msg("disconnected")
		return nil
	})
}

// Playback control

func (s *serviceImpl) Play(ctx context.Context, song *playlist.Song) error {
	return s.do(ctx, func() error {
		err := s.play(ctx, song)
		if err != nil {
			s.reportPlayError(song, err)
		}
		s.refresh()
		return err
	})
}

func (s *serviceImpl) PlayOrSkip(ctx context.Context, song *playlist.Song) error {
	return s.do(ctx, func() error {
		err := s.playOrSkip(ctx, song)
		s.refresh()
		return err
	})
}

func (s *serviceImpl) Pause() error {
	return s.do(context.Background(), func() error {
		if err := s.pause(); err != nil {
			return err
		}
		s.refresh()
		return nil
	})
}

func (s *serviceImpl) Resume() error {
	return s.do(context.Background(), func() error {
		if err := s.resume(); err != nil {
			return err
		}
		s.refresh()
		return nil
	})
}

func (s *serviceImpl) Toggle(ctx context.Context) error {
	return s.do(ctx, func() error {
		var err error
		switch {
		case s.transport.IsPlaying():
			err = s.pause()
		case s.transport.IsPaused():
			err = s.resume()
		default:
			err = s.playOrSkip(ctx, nil)
		}
		s.refresh()
		return err
	})
}

func (s *serviceImpl) Stop() error {
	return s.do(context.Background(), func() error {
		s.stopTransport()
		s.tracker.Reset()
		s.setCurrent(nil)
		if s.State() != StateIdle {
			s.setState(StateStopped, false)
		}
		s.refresh()
		return nil
	})
}

func (s *serviceImpl) Next(ctx context.Context) error {
	return s.do(ctx, func() error {
		return s.navigate(ctx, s.queue.Next)
	})
}

func (s *serviceImpl) Previous(ctx context.Context) error {
	return s.do(ctx, func() error {
		return s.navigate(ctx, s.queue.Previous)
	})
}

// JumpTo plays the song at the zero-based index.
// An out-of-range index is rejected before playback is touched.
func (s *serviceImpl) JumpTo(ctx context.Context, index int) error {
	return s.do(ctx, func() error {
		if index < 0 || index >= s.queue.Len() {
			return errmsg.New(errmsg.KindQueue, errmsg.OpQueueJump, nil)
		}
		return s.navigate(ctx, func() *playlist.Song { return s.queue.JumpTo(index) })
	})
}

// Resolving remote media

// Enqueue resolves a URL into songs and appends them. It runs outside the
// event loop so long extractions never delay transitions.
func (s *serviceImpl) Enqueue(ctx context.Context, url, requester string) ([]playlist.Song, error) {
	var (
		infos []downloader.Info
		op    = errmsg.OpExtractInfo
		err   error
	)
	if downloader.IsPlaylist(url) {
		op = errmsg.OpExtractPlaylist
		infos, err = s.resolver.ExtractPlaylist(ctx, url)
	} else {
		var info *downloader.Info
		info, err = s.resolver.ExtractInfo(ctx, url)
		if err == nil {
			infos = []downloader.Info{*info}
		}
	}
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg(errmsg.Format(op, err))
		s.emitError(newErrorEvent(op, url, err))
		return nil, err
	}

	songs := make([]playlist.Song, 0, len(infos))
	for _, info := range infos {
		songs = append(songs, info.Song(requester))
	}
	s.AddMany(songs)
	log.Info().Str("url", url).Int("songs", len(songs)).Str("requester", requester).Msg("enqueued")
	return songs, nil
}

// Start enqueues a URL and plays the first added song if nothing is playing.
func (s *serviceImpl) Start(ctx context.Context, url, requester string) ([]playlist.Song, error) {
	songs, err := s.Enqueue(ctx, url, requester)
	if err != nil || len(songs) == 0 {
		return songs, err
	}
	err = s.do(ctx, func() error {
		if s.State().IsActive() {
			return nil
		}
		first := songs[0]
		err := s.playOrSkip(ctx, &first)
		s.refresh()
		return err
	})
	return songs, err
}

// Queue manipulation

func (s *serviceImpl) Add(song playlist.Song) {
	s.AddMany([]playlist.Song{song})
}

func (s *serviceImpl) AddMany(songs []playlist.Song) {
	if len(songs) == 0 {
		return
	}
	s.queue.AddMany(songs)
	s.emitQueue(QueueChange{
		Op:    QueueAdded,
		Songs: songs,
		Len:   s.queue.Len(),
		Index: s.queue.CurrentIndex(),
	})
	s.refresh()

	// Let the loop extend the prefetch window to the new songs.
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *serviceImpl) Remove(id string) *playlist.Song {
	return s.removed(s.queue.Remove(id))
}

func (s *serviceImpl) RemoveAt(position int) *playlist.Song {
	return s.removed(s.queue.RemoveAt(position))
}

func (s *serviceImpl) removed(song *playlist.Song) *playlist.Song {
	if song == nil {
		return nil
	}
	s.emitQueue(QueueChange{
		Op:    QueueRemoved,
		Songs: []playlist.Song{*song},
		Len:   s.queue.Len(),
		Index: s.queue.CurrentIndex(),
	})
	s.refresh()
	return song
}

// Clear empties the queue and cancels every prefetch.
func (s *serviceImpl) Clear() int {
	n := s.queue.Clear()
	cancelled := s.cache.CancelAllPreloads()
	log.Debug().Int("songs", n).Int("preloads", cancelled).Msg("queue cleared")
	s.emitQueue(QueueChange{Op: QueueCleared, Removed: n, Index: -1})
	s.refresh()
	return n
}

func (s *serviceImpl) SetLoop(enabled bool) {
	s.queue.SetLoop(enabled)
	s.refresh()
}

func (s *serviceImpl) ToggleLoop() bool {
	enabled := s.queue.ToggleLoop()
	s.refresh()
	return enabled
}

// State queries

// State returns the current playback state.
func (s *serviceImpl) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsReconnecting reports whether the watchdog is trying to restore the
// transport.
func (s *serviceImpl) IsReconnecting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reconnecting
}

// AtEnd reports whether playback stopped because the queue ran out.
func (s *serviceImpl) AtEnd() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.atEnd
}

// Loading returns the song being downloaded synchronously, or nil.
func (s *serviceImpl) Loading() *playlist.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySong(s.loading)
}

// CurrentSong returns the song handed to the transport, or nil.
func (s *serviceImpl) CurrentSong() *playlist.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySong(s.current)
}

// Progress returns the position tracker of the current song.
func (s *serviceImpl) Progress() *progress.Tracker {
	return s.tracker
}

// Queue queries

func (s *serviceImpl) Songs() []playlist.Song               { return s.queue.Songs() }
func (s *serviceImpl) CurrentIndex() int                    { return s.queue.CurrentIndex() }
func (s *serviceImpl) QueueLen() int                        { return s.queue.Len() }
func (s *serviceImpl) Loop() bool                           { return s.queue.Loop() }
func (s *serviceImpl) Page(page, perPage int) playlist.Page { return s.queue.Page(page, perPage) }
func (s *serviceImpl) Upcoming(n int) []playlist.Song       { return s.queue.Upcoming(n) }

// Subscribe creates a new event subscription.
func (s *serviceImpl) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	s.subs = append(s.subs, sub)
	return sub
}

// Close stops the loop, the transport and every prefetch.
func (s *serviceImpl) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		close(s.done)
		s.wg.Wait()

		s.stopping = true
		if err := s.transport.Stop(); err != nil {
			log.Debug().Err(err).Msg("stop transport on close")
		}
		s.cache.CancelAllPreloads()

		s.subsMu.Lock()
		for _, sub := range s.subs {
			sub.close()
		}
		s.subs = nil
		s.subsMu.Unlock()
	})
	return nil
}

func copySong(song *playlist.Song) *playlist.Song {
	if song == nil {
		return nil
	}
	cp := *song
	return &cp
}
