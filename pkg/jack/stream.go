package jack

import (
	"bytes"
	"fmt"
	"strconv"
)

// maxPrefixDigits bounds how many bytes of non-'.' prefix a decoder will
// buffer before giving up on ever finding a terminator; 16 hex digits
// cover the full range of a 64-bit length, so anything longer is noise.
const maxPrefixDigits = 16

// WrapStream prepends the length-prefix a stream transport puts in
// front of every frame: the lowercase hex ASCII encoding of len(data),
// with no leading zeros, followed by '.'.
func WrapStream(data []byte) []byte {
	prefix := strconv.FormatUint(uint64(len(data)), 16)
	out := make([]byte, 0, len(prefix)+1+len(data))
	out = append(out, prefix...)
	out = append(out, '.')
	out = append(out, data...)
	return out
}

// StreamDecoder reassembles length-prefixed frames out of an arbitrarily
// chunked byte stream. It holds no socket of its own, so its behavior
// (including the "split the wrapped bytes at any index" property) is
// exercised directly in tests without any real transport.
type StreamDecoder struct {
	buf          []byte
	maxFrameSize int
	onFrame      func([]byte)
}

// NewStreamDecoder builds a decoder that calls onFrame once per
// reassembled frame. maxFrameSize of 0 means no ceiling.
func NewStreamDecoder(maxFrameSize int, onFrame func([]byte)) *StreamDecoder {
	return &StreamDecoder{maxFrameSize: maxFrameSize, onFrame: onFrame}
}

// Feed appends data to the decoder's buffer and delivers every frame
// that becomes complete as a result. It returns ErrFrameTooLarge if a
// parsed length exceeds the configured ceiling; the caller should treat
// that as fatal for the underlying connection.
func (d *StreamDecoder) Feed(data []byte) error {
	d.buf = append(d.buf, data...)
	for {
		idx := bytes.IndexByte(d.buf, '.')
		if idx < 0 {
			if len(d.buf) > maxPrefixDigits {
				// No terminator in sight after more than a length prefix
				// could ever be: treat the buffer itself as noise.
				d.buf = nil
			}
			return nil
		}

		prefix := d.buf[:idx]
		size, err := strconv.ParseUint(string(prefix), 16, 64)
		if err != nil {
			// Malformed prefix: discard up to and including this '.' and
			// try to resynchronize on whatever follows.
			d.buf = d.buf[idx+1:]
			continue
		}
		if d.maxFrameSize > 0 && size > uint64(d.maxFrameSize) {
			return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
		}

		avail := len(d.buf) - idx - 1
		if uint64(avail) < size {
			return nil // wait for more bytes
		}

		frameBytes := d.buf[idx+1 : idx+1+int(size)]
		out := make([]byte, len(frameBytes))
		copy(out, frameBytes)
		d.buf = d.buf[idx+1+int(size):]
		d.onFrame(out)
	}
}
