// internal/player/ogg.go
package player

import (
	"errors"
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
)

var errNoOggPackets = errors.New("ogg: stream has no packets")

// oggStream implements beep.StreamCloser over an Ogg Opus or Vorbis file.
type oggStream struct {
	packets  *oggPacketReader
	codec    oggCodec
	closer   io.Closer
	channels int

	pcm  []float32
	pos  int
	skip int // samples per channel still to drop
	err  error
}

// decodeOgg reads the stream headers and returns a streamer positioned at
// the first audio sample.
func decodeOgg(rc io.ReadCloser) (*oggStream, beep.Format, error) {
	packets := newOggPacketReader(rc)

	first, err := packets.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = errNoOggPackets
		}
		return nil, beep.Format{}, err
	}
	codec, err := detectOggCodec(first)
	if err != nil {
		return nil, beep.Format{}, err
	}
	for i := 1; i < codec.HeaderCount(); i++ {
		pkt, err := packets.Next()
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("ogg header %d: %w", i, err)
		}
		if err := codec.AddHeader(pkt); err != nil {
			return nil, beep.Format{}, err
		}
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(codec.SampleRate()),
		NumChannels: 2,
		Precision:   2,
	}
	return &oggStream{
		packets:  packets,
		codec:    codec,
		closer:   rc,
		channels: codec.Channels(),
		skip:     codec.PreSkip(),
	}, format, nil
}

// Stream fills samples, duplicating mono to both channels.
// Undecodable packets are skipped.
func (s *oggStream) Stream(samples [][2]float64) (n int, ok bool) {
	if s.err != nil {
		return 0, false
	}

	for n < len(samples) {
		if s.pos < len(s.pcm) {
			if s.channels == 2 {
				samples[n][0] = float64(s.pcm[s.pos])
				samples[n][1] = float64(s.pcm[s.pos+1])
			} else {
				samples[n][0] = float64(s.pcm[s.pos])
				samples[n][1] = samples[n][0]
			}
			s.pos += s.channels
			n++
			continue
		}

		pkt, err := s.packets.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.err = err
			}
			return n, n > 0
		}
		pcm, err := s.codec.Decode(pkt)
		if err != nil {
			continue
		}
		s.pcm = pcm
		s.pos = 0
		if s.skip > 0 {
			frames := len(pcm) / s.channels
			drop := min(s.skip, frames)
			s.pos = drop * s.channels
			s.skip -= drop
		}
	}
	return n, true
}

// Err returns the first read error encountered.
func (s *oggStream) Err() error {
	return s.err
}

// Close closes the underlying file.
func (s *oggStream) Close() error {
	return s.closer.Close()
}
