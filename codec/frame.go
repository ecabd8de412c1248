package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// PrefixSize is the length of the big-endian frame header
	PrefixSize = 4
	// MaxFrameSize bounds a single payload. A larger header means the stream is out of sync.
	MaxFrameSize = 16 << 20
)

// ErrFrameTooLarge signals a corrupt length prefix. The connection must be reset.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// FrameDecoder reassembles length-prefixed frames from arbitrary read chunks.
// It is not safe for concurrent use.
type FrameDecoder struct {
	buf   []byte
	start int
}

// NewFrameDecoder creates an empty decoder
func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{buf: make([]byte, 0, 64*1024)}
}

// Feed appends bytes read from the stream
func (d *FrameDecoder) Feed(p []byte) {
	if d.start > 0 && d.start >= len(d.buf)/2 {
		n := copy(d.buf, d.buf[d.start:])
		d.buf = d.buf[:n]
		d.start = 0
	}
	d.buf = append(d.buf, p...)
}

// Buffered returns the number of bytes not yet returned as frames
func (d *FrameDecoder) Buffered() int {
	return len(d.buf) - d.start
}

// Next returns the next complete payload. ok is false when more bytes are
// needed, in which case nothing is consumed. The payload is a copy.
func (d *FrameDecoder) Next() (payload []byte, ok bool, err error) {
	pending := d.buf[d.start:]
	if len(pending) < PrefixSize {
		return nil, false, nil
	}
	size := binary.BigEndian.Uint32(pending[:PrefixSize])
	if size > MaxFrameSize {
		return nil, false, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}
	end := PrefixSize + int(size)
	if len(pending) < end {
		return nil, false, nil
	}
	payload = make([]byte, size)
	copy(payload, pending[PrefixSize:end])
	d.start += end
	if d.start == len(d.buf) {
		d.buf = d.buf[:0]
		d.start = 0
	}
	return payload, true, nil
}

// Reset drops any buffered bytes, used after a reconnect
func (d *FrameDecoder) Reset() {
	d.buf = d.buf[:0]
	d.start = 0
}

// AppendFrame appends payload to dst with its length prefix
func AppendFrame(dst, payload []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(payload)))
	return append(dst, payload...)
}
