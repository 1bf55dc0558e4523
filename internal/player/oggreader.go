// internal/player/oggreader.go
package player

import (
	"encoding/binary"
	"errors"
	"io"
)

var (
	errInvalidOggMagic   = errors.New("ogg: invalid capture pattern")
	errInvalidOggVersion = errors.New("ogg: unsupported version")
)

// Page header type flags.
const (
	oggFlagContinued = 0x01
	oggFlagBOS       = 0x02
	oggFlagEOS       = 0x04
)

const oggHeaderSize = 27

// oggPageHeader represents the header of an Ogg page.
type oggPageHeader struct {
	Flags        uint8
	GranulePos   int64
	SerialNumber uint32
	SequenceNum  uint32
	SegmentTable []uint8
}

func (h *oggPageHeader) continued() bool { return h.Flags&oggFlagContinued != 0 }
func (h *oggPageHeader) eos() bool       { return h.Flags&oggFlagEOS != 0 }

// bodySize is the sum of the lacing values.
func (h *oggPageHeader) bodySize() int {
	n := 0
	for _, s := range h.SegmentTable {
		n += int(s)
	}
	return n
}

// parseOggPageHeader reads and parses an Ogg page header from the reader.
// The CRC is not verified.
func parseOggPageHeader(r io.Reader) (*oggPageHeader, error) {
	var buf [oggHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	if string(buf[0:4]) != "OggS" {
		return nil, errInvalidOggMagic
	}
	if buf[4] != 0 {
		return nil, errInvalidOggVersion
	}

	hdr := &oggPageHeader{
		Flags:        buf[5],
		GranulePos:   int64(binary.LittleEndian.Uint64(buf[6:14])),
		SerialNumber: binary.LittleEndian.Uint32(buf[14:18]),
		SequenceNum:  binary.LittleEndian.Uint32(buf[18:22]),
	}

	if n := int(buf[26]); n > 0 {
		hdr.SegmentTable = make([]uint8, n)
		if _, err := io.ReadFull(r, hdr.SegmentTable); err != nil {
			return nil, err
		}
	}
	return hdr, nil
}

// oggPacketReader reassembles logical packets from a sequence of Ogg pages.
// It follows the first logical stream it sees and ignores pages with other
// serial numbers.
type oggPacketReader struct {
	r       io.Reader
	serial  uint32
	started bool
	done    bool

	queue   [][]byte
	partial []byte
	body    []byte
}

func newOggPacketReader(r io.Reader) *oggPacketReader {
	return &oggPacketReader{r: r}
}

// Next returns the next complete packet or io.EOF after the last page.
func (p *oggPacketReader) Next() ([]byte, error) {
	for len(p.queue) == 0 {
		if p.done {
			return nil, io.EOF
		}
		if err := p.readPage(); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, io.EOF
			}
			return nil, err
		}
	}
	pkt := p.queue[0]
	p.queue = p.queue[1:]
	return pkt, nil
}

func (p *oggPacketReader) readPage() error {
	hdr, err := parseOggPageHeader(p.r)
	if err != nil {
		return err
	}

	size := hdr.bodySize()
	if cap(p.body) < size {
		p.body = make([]byte, size)
	}
	body := p.body[:size]
	if _, err := io.ReadFull(p.r, body); err != nil {
		return err
	}

	if !p.started {
		p.serial = hdr.SerialNumber
		p.started = true
	} else if hdr.SerialNumber != p.serial {
		return nil
	}

	// A partial packet only survives onto a page that continues it.
	if !hdr.continued() {
		p.partial = nil
	}

	pos := 0
	for _, lace := range hdr.SegmentTable {
		p.partial = append(p.partial, body[pos:pos+int(lace)]...)
		pos += int(lace)
		if lace < 255 {
			if len(p.partial) > 0 {
				p.queue = append(p.queue, p.partial)
			}
			p.partial = nil
		}
	}

	if hdr.eos() {
		p.done = true
		p.partial = nil
	}
	return nil
}
