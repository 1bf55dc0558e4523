// internal/playback/emit.go
package playback

import "github.com/llehouerou/wavecast/internal/playlist"

// setState records the new state and emits StateChange when it differs.
func (s *serviceImpl) setState(next State, atEnd bool) {
	s.mu.Lock()
	prev := s.state
	changed := prev != next || s.atEnd != atEnd
	s.state = next
	s.atEnd = atEnd
	s.mu.Unlock()

	if changed {
		s.forEachSub(func(sub *Subscription) {
			sub.sendState(StateChange{Previous: prev, Current: next, AtEnd: atEnd})
		})
	}
}

func (s *serviceImpl) setReconnecting(v bool) {
	s.mu.Lock()
	s.reconnecting = v
	s.mu.Unlock()
}

func (s *serviceImpl) setLoading(song *playlist.Song) {
	s.mu.Lock()
	s.loading = copySong(song)
	s.mu.Unlock()
}

// setCurrent stores song and returns the previous one.
func (s *serviceImpl) setCurrent(song *playlist.Song) *playlist.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.current
	s.current = copySong(song)
	return prev
}

func (s *serviceImpl) forEachSub(fn func(*Subscription)) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		fn(sub)
	}
}

func (s *serviceImpl) emitTrack(e TrackChange) {
	s.forEachSub(func(sub *Subscription) { sub.sendTrack(e) })
}

func (s *serviceImpl) emitQueue(e QueueChange) {
	s.forEachSub(func(sub *Subscription) { sub.sendQueue(e) })
}

func (s *serviceImpl) emitConnection(e ConnectionChange) {
	s.forEachSub(func(sub *Subscription) { sub.sendConnection(e) })
}

func (s *serviceImpl) emitError(e ErrorEvent) {
	s.forEachSub(func(sub *Subscription) { sub.sendError(e) })
}

func (s *serviceImpl) refresh() {
	s.forEachSub(func(sub *Subscription) { sub.sendRefresh() })
}
