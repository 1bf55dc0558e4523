// internal/playback/subscription.go
package playback

const eventBufferSize = 16

// Subscription provides event channels for a subscriber.
type Subscription struct {
	StateChanged      <-chan StateChange
	TrackChanged      <-chan TrackChange
	QueueChanged      <-chan QueueChange
	ConnectionChanged <-chan ConnectionChange
	Refresh           <-chan RefreshEvent
	Error             <-chan ErrorEvent
	Done              <-chan struct{}

	stateCh   chan StateChange
	trackCh   chan TrackChange
	queueCh   chan QueueChange
	connCh    chan ConnectionChange
	refreshCh chan RefreshEvent
	errorCh   chan ErrorEvent
	doneCh    chan struct{}
}

// newSubscription creates a new subscription with buffered channels.
func newSubscription() *Subscription {
	s := &Subscription{
		stateCh:   make(chan StateChange, eventBufferSize),
		trackCh:   make(chan TrackChange, eventBufferSize),
		queueCh:   make(chan QueueChange, eventBufferSize),
		connCh:    make(chan ConnectionChange, eventBufferSize),
		refreshCh: make(chan RefreshEvent, 1),
		errorCh:   make(chan ErrorEvent, eventBufferSize),
		doneCh:    make(chan struct{}),
	}
	s.StateChanged = s.stateCh
	s.TrackChanged = s.trackCh
	s.QueueChanged = s.queueCh
	s.ConnectionChanged = s.connCh
	s.Refresh = s.refreshCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// Sends never block; events are dropped when a buffer is full.

func (s *Subscription) sendState(e StateChange) {
	select {
	case s.stateCh <- e:
	default:
	}
}

func (s *Subscription) sendTrack(e TrackChange) {
	select {
	case s.trackCh <- e:
	default:
	}
}

func (s *Subscription) sendQueue(e QueueChange) {
	select {
	case s.queueCh <- e:
	default:
	}
}

func (s *Subscription) sendConnection(e ConnectionChange) {
	select {
	case s.connCh <- e:
	default:
	}
}

// sendRefresh coalesces: one pending refresh is enough.
func (s *Subscription) sendRefresh() {
	select {
	case s.refreshCh <- RefreshEvent{}:
	default:
	}
}

func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
	}
}
