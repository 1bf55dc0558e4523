// internal/player/mock.go
package player

import (
	"context"
	"sync"
)

// Mock is a Transport test double. It never produces audio; completion is
// driven by SimulateFinished or SimulateError.
type Mock struct {
	mu sync.Mutex

	connected   bool
	channel     string
	state       State
	onDone      func(error)
	doneOnStop  bool
	playErr     error
	connectErrs []error

	playCalls    []string
	connectCalls int
	stopCalls    int
}

// NewMock creates a disconnected mock transport.
func NewMock() *Mock {
	return &Mock{state: Stopped}
}

func (m *Mock) Connect(_ context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectCalls++
	if len(m.connectErrs) > 0 {
		err := m.connectErrs[0]
		m.connectErrs = m.connectErrs[1:]
		if err != nil {
			return err
		}
	}
	m.connected = true
	m.channel = channel
	return nil
}

func (m *Mock) Disconnect(_ context.Context) error {
	done := m.stop()
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
	if done != nil {
		done(nil)
	}
	return nil
}

func (m *Mock) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *Mock) Play(path string, onDone func(error)) error {
	m.mu.Lock()
	m.playCalls = append(m.playCalls, path)
	if !m.connected {
		m.mu.Unlock()
		return ErrNotConnected
	}
	if m.playErr != nil {
		err := m.playErr
		m.mu.Unlock()
		return err
	}
	prev := m.takeDoneLocked(m.doneOnStop)
	m.state = Playing
	m.onDone = onDone
	m.mu.Unlock()

	if prev != nil {
		prev(nil)
	}
	return nil
}

func (m *Mock) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Playing {
		m.state = Paused
	}
	return nil
}

func (m *Mock) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Paused {
		m.state = Playing
	}
	return nil
}

func (m *Mock) Stop() error {
	if done := m.stop(); done != nil {
		done(nil)
	}
	return nil
}

func (m *Mock) stop() func(error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls++
	done := m.takeDoneLocked(m.doneOnStop)
	m.state = Stopped
	return done
}

// takeDoneLocked clears the pending callback and returns it if fire is set.
func (m *Mock) takeDoneLocked(fire bool) func(error) {
	done := m.onDone
	m.onDone = nil
	if !fire {
		return nil
	}
	return done
}

func (m *Mock) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Playing
}

func (m *Mock) IsPaused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Paused
}

// State returns the current playback state.
func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Test helpers

// SetConnected forces the connection flag, simulating a drop when false.
func (m *Mock) SetConnected(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = connected
}

// SetPlayError makes subsequent Play calls fail.
func (m *Mock) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

// SetConnectErrors queues results for the next Connect calls; nil succeeds.
func (m *Mock) SetConnectErrors(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectErrs = append([]error(nil), errs...)
}

// SetDoneOnStop makes Stop and replacing Play fire the pending callback,
// like transports that report every end of playback.
func (m *Mock) SetDoneOnStop(fire bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doneOnStop = fire
}

// PlayCalls returns the paths passed to Play.
func (m *Mock) PlayCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.playCalls...)
}

// ConnectCalls returns how many times Connect was called.
func (m *Mock) ConnectCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectCalls
}

// StopCalls returns how many times Stop was called.
func (m *Mock) StopCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalls
}

// Channel returns the last connected channel.
func (m *Mock) Channel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.channel
}

// SimulateFinished ends the current playback naturally.
func (m *Mock) SimulateFinished() bool {
	return m.finish(nil)
}

// SimulateError ends the current playback with an error.
func (m *Mock) SimulateError(err error) bool {
	return m.finish(err)
}

// PendingDone returns the callback of the current playback so tests can
// fire it late, after a newer playback has started.
func (m *Mock) PendingDone() func(error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.onDone
}

func (m *Mock) finish(err error) bool {
	m.mu.Lock()
	done := m.onDone
	m.onDone = nil
	if done != nil {
		m.state = Stopped
	}
	m.mu.Unlock()

	if done == nil {
		return false
	}
	done(err)
	return true
}
