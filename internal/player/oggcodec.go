// internal/player/oggcodec.go
package player

import (
	"encoding/binary"
	"errors"

	"github.com/jfreymuth/vorbis"
	"github.com/jj11hh/opus"
)

const (
	opusSampleRate   = 48000
	opusMaxFrameSize = 5760 // 120 ms at 48 kHz
)

var (
	errUnknownOggCodec     = errors.New("ogg: unknown codec (not Opus or Vorbis)")
	errInvalidOpusHead     = errors.New("opus: invalid OpusHead packet")
	errUnsupportedOpus     = errors.New("opus: unsupported version or channel count")
	errMissingOpusTags     = errors.New("opus: expected OpusTags packet")
	errInvalidVorbisHeader = errors.New("vorbis: invalid identification header")
	errVorbisNotReady      = errors.New("vorbis: decoder not initialized (headers incomplete)")
)

// oggCodec decodes the packets of one Ogg logical stream into interleaved
// float32 PCM.
type oggCodec interface {
	SampleRate() int
	Channels() int
	// PreSkip is the number of samples per channel to drop at stream start.
	PreSkip() int
	// HeaderCount is the number of header packets, including the first.
	HeaderCount() int
	// AddHeader consumes header packets after the first.
	AddHeader(packet []byte) error
	// Decode returns interleaved samples. The slice is only valid until the
	// next call.
	Decode(packet []byte) ([]float32, error)
}

// detectOggCodec inspects the first packet of a stream.
func detectOggCodec(first []byte) (oggCodec, error) {
	switch {
	case len(first) >= 8 && string(first[:8]) == "OpusHead":
		return newOpusCodec(first)
	case len(first) >= 7 && first[0] == 0x01 && string(first[1:7]) == "vorbis":
		return newVorbisCodec(first)
	default:
		return nil, errUnknownOggCodec
	}
}

type opusCodec struct {
	decoder  *opus.Decoder
	channels int
	preSkip  int
	pcm      []float32
}

// newOpusCodec parses an OpusHead packet:
// magic[0:8] version[8] channels[9] preskip[10:12] rate[12:16] gain[16:18] mapping[18].
func newOpusCodec(head []byte) (*opusCodec, error) {
	if len(head) < 19 {
		return nil, errInvalidOpusHead
	}
	channels := int(head[9])
	if head[8] != 1 || channels < 1 || channels > 2 {
		return nil, errUnsupportedOpus
	}

	dec, err := opus.NewDecoder(opusSampleRate, channels)
	if err != nil {
		return nil, err
	}
	return &opusCodec{
		decoder:  dec,
		channels: channels,
		preSkip:  int(binary.LittleEndian.Uint16(head[10:12])),
		pcm:      make([]float32, opusMaxFrameSize*channels),
	}, nil
}

func (c *opusCodec) SampleRate() int  { return opusSampleRate }
func (c *opusCodec) Channels() int    { return c.channels }
func (c *opusCodec) PreSkip() int     { return c.preSkip }
func (c *opusCodec) HeaderCount() int { return 2 }

func (c *opusCodec) AddHeader(packet []byte) error {
	if len(packet) < 8 || string(packet[:8]) != "OpusTags" {
		return errMissingOpusTags
	}
	return nil
}

func (c *opusCodec) Decode(packet []byte) ([]float32, error) {
	n, err := c.decoder.DecodeFloat32(packet, c.pcm)
	if err != nil {
		return nil, err
	}
	return c.pcm[:n*c.channels], nil
}

type vorbisCodec struct {
	decoder  vorbis.Decoder
	channels int
	rate     int
	headers  int
}

// newVorbisCodec parses the identification header:
// type[0] "vorbis"[1:7] version[7:11] channels[11] rate[12:16].
func newVorbisCodec(ident []byte) (*vorbisCodec, error) {
	if len(ident) < 16 || binary.LittleEndian.Uint32(ident[7:11]) != 0 {
		return nil, errInvalidVorbisHeader
	}
	c := &vorbisCodec{
		channels: int(ident[11]),
		rate:     int(binary.LittleEndian.Uint32(ident[12:16])),
	}
	if c.channels < 1 || c.channels > 2 {
		return nil, errInvalidVorbisHeader
	}
	if err := c.decoder.ReadHeader(ident); err != nil {
		return nil, err
	}
	c.headers = 1
	return c, nil
}

func (c *vorbisCodec) SampleRate() int  { return c.rate }
func (c *vorbisCodec) Channels() int    { return c.channels }
func (c *vorbisCodec) PreSkip() int     { return 0 }
func (c *vorbisCodec) HeaderCount() int { return 3 }

func (c *vorbisCodec) AddHeader(packet []byte) error {
	if err := c.decoder.ReadHeader(packet); err != nil {
		return err
	}
	c.headers++
	return nil
}

func (c *vorbisCodec) Decode(packet []byte) ([]float32, error) {
	if c.headers < 3 {
		return nil, errVorbisNotReady
	}
	return c.decoder.Decode(packet)
}
