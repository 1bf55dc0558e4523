// internal/player/ogg_test.go
package player

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func opusHead(channels byte, preSkip uint16) []byte {
	head := make([]byte, 19)
	copy(head, "OpusHead")
	head[8] = 1
	head[9] = channels
	binary.LittleEndian.PutUint16(head[10:12], preSkip)
	binary.LittleEndian.PutUint32(head[12:16], 44100)
	return head
}

func opusTags() []byte {
	tags := []byte("OpusTags")
	tags = binary.LittleEndian.AppendUint32(tags, 0)
	tags = binary.LittleEndian.AppendUint32(tags, 0)
	return tags
}

func vorbisIdent(channels byte, rate uint32) []byte {
	id := make([]byte, 30)
	id[0] = 0x01
	copy(id[1:7], "vorbis")
	id[11] = channels
	binary.LittleEndian.PutUint32(id[12:16], rate)
	return id
}

func TestDetectOggCodec(t *testing.T) {
	tests := []struct {
		name        string
		packet      []byte
		wantErr     error
		wantRate    int
		wantCh      int
		wantPreSkip int
		wantHeaders int
	}{
		{"opus stereo", opusHead(2, 312), nil, 48000, 2, 312, 2},
		{"opus mono", opusHead(1, 0), nil, 48000, 1, 0, 2},
		{"opus surround", opusHead(6, 0), errUnsupportedOpus, 0, 0, 0, 0},
		{"opus short", []byte("OpusHead\x01"), errInvalidOpusHead, 0, 0, 0, 0},
		{"vorbis truncated", []byte("\x01vorbis\x00"), errInvalidVorbisHeader, 0, 0, 0, 0},
		{"unknown", []byte("fLaC\x00\x00\x00\x22"), errUnknownOggCodec, 0, 0, 0, 0},
		{"empty", nil, errUnknownOggCodec, 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, err := detectOggCodec(tt.packet)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("detectOggCodec() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("detectOggCodec() error = %v", err)
			}
			if codec.SampleRate() != tt.wantRate {
				t.Errorf("SampleRate() = %d, want %d", codec.SampleRate(), tt.wantRate)
			}
			if codec.Channels() != tt.wantCh {
				t.Errorf("Channels() = %d, want %d", codec.Channels(), tt.wantCh)
			}
			if codec.PreSkip() != tt.wantPreSkip {
				t.Errorf("PreSkip() = %d, want %d", codec.PreSkip(), tt.wantPreSkip)
			}
			if codec.HeaderCount() != tt.wantHeaders {
				t.Errorf("HeaderCount() = %d, want %d", codec.HeaderCount(), tt.wantHeaders)
			}
		})
	}
}

func TestVorbisCodec_RejectsBadVersion(t *testing.T) {
	id := vorbisIdent(2, 44100)
	id[7] = 1
	if _, err := detectOggCodec(id); !errors.Is(err, errInvalidVorbisHeader) {
		t.Errorf("detectOggCodec() error = %v, want %v", err, errInvalidVorbisHeader)
	}
}

func TestVorbisCodec_DecodeBeforeHeaders(t *testing.T) {
	c := &vorbisCodec{channels: 2, rate: 44100, headers: 1}
	if _, err := c.Decode([]byte{0}); !errors.Is(err, errVorbisNotReady) {
		t.Errorf("Decode() error = %v, want %v", err, errVorbisNotReady)
	}
}

func TestOpusCodec_AddHeader(t *testing.T) {
	c, err := newOpusCodec(opusHead(2, 0))
	if err != nil {
		t.Fatalf("newOpusCodec() error = %v", err)
	}
	if err := c.AddHeader(opusTags()); err != nil {
		t.Errorf("AddHeader(OpusTags) error = %v", err)
	}
	if err := c.AddHeader([]byte("garbage!")); !errors.Is(err, errMissingOpusTags) {
		t.Errorf("AddHeader(garbage) error = %v, want %v", err, errMissingOpusTags)
	}
}

type nopCloser struct{ io.Reader }

func (nopCloser) Close() error { return nil }

func TestDecodeOgg_HeadersOnly(t *testing.T) {
	var data []byte
	data = append(data, pageWith(1, oggFlagBOS, opusHead(2, 0))...)
	data = append(data, pageWith(1, oggFlagEOS, opusTags())...)

	stream, format, err := decodeOgg(nopCloser{bytes.NewReader(data)})
	if err != nil {
		t.Fatalf("decodeOgg() error = %v", err)
	}
	if format.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", format.SampleRate)
	}
	if format.NumChannels != 2 {
		t.Errorf("NumChannels = %d, want 2", format.NumChannels)
	}

	buf := make([][2]float64, 64)
	n, ok := stream.Stream(buf)
	if n != 0 || ok {
		t.Errorf("Stream() = (%d, %v), want (0, false)", n, ok)
	}
	if stream.Err() != nil {
		t.Errorf("Err() = %v, want nil", stream.Err())
	}
}

func TestDecodeOgg_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, errNoOggPackets},
		{"unknown codec", pageWith(1, oggFlagBOS, []byte("not audio")), errUnknownOggCodec},
		{"missing tags", pageWith(1, oggFlagBOS, opusHead(2, 0), []byte("NotTags!")), errMissingOpusTags},
		{"truncated headers", pageWith(1, oggFlagBOS, opusHead(2, 0)), io.EOF},
		{"not ogg", []byte("RIFF....WAVEfmt garbage that is long enough"), errInvalidOggMagic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := decodeOgg(nopCloser{bytes.NewReader(tt.data)})
			if !errors.Is(err, tt.want) {
				t.Errorf("decodeOgg() error = %v, want %v", err, tt.want)
			}
		})
	}
}

// fakeCodec returns canned PCM per packet; a packet "bad" fails to decode.
type fakeCodec struct {
	channels int
	frames   map[string][]float32
}

func (c *fakeCodec) SampleRate() int          { return 48000 }
func (c *fakeCodec) Channels() int            { return c.channels }
func (c *fakeCodec) PreSkip() int             { return 0 }
func (c *fakeCodec) HeaderCount() int         { return 1 }
func (c *fakeCodec) AddHeader(_ []byte) error { return nil }

func (c *fakeCodec) Decode(packet []byte) ([]float32, error) {
	pcm, ok := c.frames[string(packet)]
	if !ok {
		return nil, errors.New("corrupt packet")
	}
	return pcm, nil
}

func newFakeStream(channels, preSkip int, frames map[string][]float32, packets ...[]byte) *oggStream {
	return &oggStream{
		packets:  newOggPacketReader(bytes.NewReader(pageWith(1, 0, packets...))),
		codec:    &fakeCodec{channels: channels, frames: frames},
		closer:   io.NopCloser(nil),
		channels: channels,
		skip:     preSkip,
	}
}

func TestOggStream_PreSkipAndStereo(t *testing.T) {
	frames := map[string][]float32{
		"p1": {0.1, -0.1, 0.2, -0.2, 0.3, -0.3},
		"p2": {0.4, -0.4},
	}
	s := newFakeStream(2, 2, frames, []byte("p1"), []byte("p2"))

	buf := make([][2]float64, 8)
	n, ok := s.Stream(buf)
	if !ok || n != 2 {
		t.Fatalf("Stream() = (%d, %v), want (2, true)", n, ok)
	}
	want := [][2]float64{{0.3, -0.3}, {0.4, -0.4}}
	for i := range want {
		for ch := range 2 {
			if math.Abs(buf[i][ch]-want[i][ch]) > 1e-6 {
				t.Errorf("sample %d ch %d = %v, want %v", i, ch, buf[i][ch], want[i][ch])
			}
		}
	}
}

func TestOggStream_PreSkipSpansPackets(t *testing.T) {
	frames := map[string][]float32{
		"p1": {1, 1},
		"p2": {2, 2, 3, 3},
	}
	s := newFakeStream(2, 2, frames, []byte("p1"), []byte("p2"))

	buf := make([][2]float64, 4)
	n, _ := s.Stream(buf)
	if n != 1 || buf[0][0] != 3 {
		t.Errorf("Stream() n = %d first = %v, want 1 sample of 3", n, buf[0][0])
	}
}

func TestOggStream_MonoDuplicatedAndBadPacketsSkipped(t *testing.T) {
	frames := map[string][]float32{
		"a": {0.5, 0.25},
	}
	s := newFakeStream(1, 0, frames, []byte("bad"), []byte("a"))

	buf := make([][2]float64, 4)
	n, ok := s.Stream(buf)
	if !ok || n != 2 {
		t.Fatalf("Stream() = (%d, %v), want (2, true)", n, ok)
	}
	if buf[0] != [2]float64{0.5, 0.5} || buf[1] != [2]float64{0.25, 0.25} {
		t.Errorf("samples = %v, want mono duplicated", buf[:2])
	}
	if s.Err() != nil {
		t.Errorf("Err() = %v, want nil for skipped packets", s.Err())
	}
}

func TestDecodeOgg_RealFile(t *testing.T) {
	path := filepath.Join("testdata", "sample.opus")
	f, err := os.Open(path)
	if err != nil {
		t.Skip("testdata/sample.opus not present")
	}

	stream, _, err := decodeOgg(f)
	if err != nil {
		t.Fatalf("decodeOgg() error = %v", err)
	}
	defer stream.Close()

	buf := make([][2]float64, 4800)
	total := 0
	for {
		n, ok := stream.Stream(buf)
		total += n
		if !ok {
			break
		}
	}
	if total == 0 {
		t.Error("decoded no samples")
	}
	if stream.Err() != nil {
		t.Errorf("Err() = %v", stream.Err())
	}
}
