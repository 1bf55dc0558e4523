// internal/playback/transitions.go
package playback

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/llehouerou/wavecast/internal/errmsg"
	"github.com/llehouerou/wavecast/internal/player"
	"github.com/llehouerou/wavecast/internal/playlist"
)

// Everything in this file runs on the event loop.

// play starts song, or the queue's current song when song is nil.
func (s *serviceImpl) play(ctx context.Context, song *playlist.Song) error {
	if song == nil {
		song = s.queue.Current()
	} else {
		s.moveTo(song.ID)
	}
	if song == nil {
		return errmsg.New(errmsg.KindQueueEmpty, errmsg.OpPlaybackStart, nil)
	}
	if !s.transport.IsConnected() {
		return errmsg.New(errmsg.KindVoiceConnection, errmsg.OpPlaybackStart, player.ErrNotConnected)
	}

	path, err := s.resolve(ctx, song)
	if err != nil {
		return err
	}
	s.queue.MarkCached(song.ID, path)

	s.stopTransport()
	s.epoch++
	epoch := s.epoch
	s.stopping = false
	s.tracker.Start(song.Duration, song.ID)

	if err := s.transport.Play(path, s.onDone(epoch)); err != nil {
		s.tracker.Stop()
		s.setCurrent(nil)
		s.setState(StateStopped, false)
		return errmsg.New(errmsg.KindPlayback, errmsg.OpPlaybackStart, err)
	}

	prev := s.setCurrent(song)
	s.setState(StatePlaying, false)
	s.updateCache()
	s.emitTrack(TrackChange{Previous: prev, Current: copySong(song), Index: s.queue.CurrentIndex()})
	log.Info().Str("id", song.ID).Str("title", song.Title).Msg("now playing")
	return nil
}

// resolve returns the local file for song: a cache hit, an in-flight
// prefetch, or a synchronous download.
func (s *serviceImpl) resolve(ctx context.Context, song *playlist.Song) (string, error) {
	if path, ok := s.cache.Get(song.ID); ok {
		return path, nil
	}
	if s.cache.IsPreloading(song.ID) && s.cache.WaitForPreload(ctx, song.ID, s.opts.PreloadWait) {
		if path, ok := s.cache.Get(song.ID); ok {
			return path, nil
		}
	}
	// A prefetch that is late or being cancelled writes the same scratch
	// files as the download below.
	s.cache.StopPreload(ctx, song.ID)
	if path, ok := s.cache.Get(song.ID); ok {
		return path, nil
	}

	s.setLoading(song)
	defer s.setLoading(nil)
	s.refresh()

	_, path, err := s.resolver.Download(ctx, song.URL, song.ID)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !errmsg.Is(err, errmsg.KindSongUnavailable) {
			err = &errmsg.Error{
				Kind:    errmsg.KindSongUnavailable,
				Op:      errmsg.OpDownload,
				Reason:  errmsg.ReasonUnknown,
				Subject: song.Title,
				Message: errmsg.UserMessage(err),
				Err:     err,
			}
		}
		return "", err
	}

	cached, err := s.cache.Put(song.ID, path)
	if err != nil {
		log.Warn().Err(err).Str("id", song.ID).Msg(errmsg.Format(errmsg.OpCachePut, err))
		return path, nil
	}
	return cached, nil
}

// playOrSkip plays song and, while songs turn out to be unavailable,
// removes them and moves on. A failed song is never retried.
func (s *serviceImpl) playOrSkip(ctx context.Context, song *playlist.Song) error {
	for {
		err := s.play(ctx, song)
		if err == nil {
			return nil
		}
		if !errmsg.Is(err, errmsg.KindSongUnavailable) {
			s.reportPlayError(song, err)
			return err
		}

		failed := song
		if failed == nil {
			failed = s.queue.Current()
		}
		s.reportPlayError(failed, err)
		if failed == nil {
			return err
		}

		song = s.skipUnavailable(failed, err)
		if song == nil {
			s.settleAtEnd()
			return err
		}
	}
}

// skipUnavailable removes failed from the queue and returns the song that
// took its place, or nil at the end of a non-loop queue.
func (s *serviceImpl) skipUnavailable(failed *playlist.Song, cause error) *playlist.Song {
	songs, _ := s.queue.Snapshot()
	pos := indexOf(songs, failed.ID)
	if pos < 0 {
		return nil
	}
	s.removed(s.queue.Remove(failed.ID))
	log.Info().Str("id", failed.ID).Str("reason", string(errmsg.ReasonOf(cause))).Msg("skipped unavailable song")

	n := s.queue.Len()
	switch {
	case n == 0:
		return nil
	case pos < n:
		return s.queue.JumpTo(pos)
	case s.queue.Loop():
		return s.queue.JumpTo(0)
	default:
		return nil
	}
}

func (s *serviceImpl) pause() error {
	if !s.transport.IsPlaying() {
		return nil
	}
	if err := s.transport.Pause(); err != nil {
		return errmsg.New(errmsg.KindPlayback, errmsg.OpPlaybackPause, err)
	}
	s.tracker.Pause()
	s.setState(StatePaused, false)
	return nil
}

func (s *serviceImpl) resume() error {
	if !s.transport.IsPaused() {
		return nil
	}
	if err := s.transport.Resume(); err != nil {
		return errmsg.New(errmsg.KindPlayback, errmsg.OpPlaybackResume, err)
	}
	s.tracker.Resume()
	s.setState(StatePlaying, false)
	return nil
}

// navigate stops, stamps the manual operation and plays whatever move
// selects.
func (s *serviceImpl) navigate(ctx context.Context, move func() *playlist.Song) error {
	s.stopTransport()
	s.tracker.Stop()
	s.tracker.MarkManualOperation()

	song := move()
	if song == nil {
		s.settleAtEnd()
		s.refresh()
		return nil
	}
	err := s.playOrSkip(ctx, song)
	s.refresh()
	return err
}

// stopTransport stops the current playback so its completion is ignored.
func (s *serviceImpl) stopTransport() {
	s.stopping = true
	s.epoch++
	if err := s.transport.Stop(); err != nil {
		log.Debug().Err(err).Msg(errmsg.Format(errmsg.OpPlaybackStop, err))
	}
}

// settleAtEnd leaves the player stopped after the last song.
func (s *serviceImpl) settleAtEnd() {
	s.stopTransport()
	s.tracker.Stop()
	s.setCurrent(nil)
	if s.State() != StateIdle {
		s.setState(StateStopped, true)
	}
	log.Info().Msg("end of queue")
}

// handleCompletion advances the queue after a natural end of playback.
func (s *serviceImpl) handleCompletion(c completion) {
	switch {
	case c.epoch != s.epoch:
		log.Debug().Uint64("epoch", c.epoch).Uint64("current", s.epoch).Msg("stale completion ignored")
		return
	case s.stopping:
		log.Debug().Msg("completion during stop ignored")
		return
	case s.tracker.WithinDebounce(s.opts.Debounce):
		log.Debug().Msg("completion within debounce window ignored")
		return
	}

	// A second completion for the same playback is now stale.
	s.epoch++
	if c.err != nil {
		e := errmsg.New(errmsg.KindPlayback, errmsg.OpPlaybackStart, c.err)
		log.Warn().Err(c.err).Msg("playback ended with error")
		s.emitError(newErrorEvent(errmsg.OpPlaybackStart, s.currentTitle(), e))
	}
	s.tracker.Stop()

	var next *playlist.Song
	if s.queue.Len() == 1 && s.queue.Loop() {
		next = s.queue.Current()
	} else {
		next = s.queue.Next()
	}
	if next == nil {
		s.settleAtEnd()
		s.refresh()
		return
	}
	_ = s.playOrSkip(s.ctx, next)
	s.refresh()
}

// updateCache hands the current window to the cache worker, replacing any
// update it has not started yet.
func (s *serviceImpl) updateCache() {
	songs, idx := s.queue.Snapshot()
	select {
	case <-s.cacheCh:
	default:
	}
	s.cacheCh <- cacheUpdate{songs: songs, idx: idx}
}

func (s *serviceImpl) reportPlayError(song *playlist.Song, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	subject := ""
	if song != nil {
		subject = song.Title
	}
	log.Warn().Err(err).Str("song", subject).Msg(errmsg.Format(errmsg.OpPlaybackStart, err))
	s.emitError(newErrorEvent(errmsg.OpPlaybackStart, subject, err))
}

// moveTo points the queue cursor at id if it is queued.
func (s *serviceImpl) moveTo(id string) {
	songs, idx := s.queue.Snapshot()
	if i := indexOf(songs, id); i >= 0 && i != idx {
		s.queue.JumpTo(i)
	}
}

func (s *serviceImpl) currentTitle() string {
	if song := s.CurrentSong(); song != nil {
		return song.Title
	}
	return ""
}

func indexOf(songs []playlist.Song, id string) int {
	for i := range songs {
		if songs[i].ID == id {
			return i
		}
	}
	return -1
}
