// internal/playback/reconnect.go
package playback

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/llehouerou/wavecast/internal/errmsg"
)

// checkConnection is the reconnect watchdog, run on every tick of the loop.
//
//	connected ──drop──▶ Reconnecting ──Connect ok──▶ Stopped (+ replay)
//	                        │  ▲
//	                        └──┘ Connect failed, attempts < max
//	                        │
//	                        └──attempts == max──▶ Idle (+ error)
func (s *serviceImpl) checkConnection() {
	state := s.State()
	if state == StateIdle || s.manualDisconnect {
		return
	}

	if !s.IsReconnecting() {
		if s.transport.IsConnected() {
			return
		}
		log.Warn().Str("channel", s.channel).Msg("transport connection lost")
		s.resumeAfterReconnect = state.IsActive()
		s.stopTransport()
		s.tracker.Stop()
		s.attempts = 0
		s.setReconnecting(true)
		s.setState(StateStopped, false)
		s.emitConnection(ConnectionChange{Reconnecting: true})
	}

	s.attempts++
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.ReconnectInterval)
	err := s.transport.Connect(ctx, s.channel)
	cancel()

	if err == nil {
		log.Info().Str("channel", s.channel).Int("attempt", s.attempts).Msg("reconnected")
		s.setReconnecting(false)
		s.emitConnection(ConnectionChange{Connected: true, Reconnected: true, Attempt: s.attempts})
		if s.resumeAfterReconnect {
			s.resumeAfterReconnect = false
			_ = s.playOrSkip(s.ctx, nil)
		}
		s.refresh()
		return
	}

	log.Warn().Err(err).Int("attempt", s.attempts).Int("max", s.opts.ReconnectMaxAttempts).Msg("reconnect failed")
	s.emitConnection(ConnectionChange{Reconnecting: true, Attempt: s.attempts})
	if s.attempts < s.opts.ReconnectMaxAttempts {
		return
	}

	// Give up: release everything for this session.
	s.setReconnecting(false)
	s.resumeAfterReconnect = false
	s.tracker.Reset()
	s.cache.CancelAllPreloads()
	s.setCurrent(nil)
	s.setState(StateIdle, false)
	e := errmsg.New(errmsg.KindVoiceConnection, errmsg.OpReconnect, err)
	s.emitConnection(ConnectionChange{})
	s.emitError(newErrorEvent(errmsg.OpReconnect, s.channel, e))
	s.refresh()
}
