package frame

import (
	"bytes"
	"compress/bzip2"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/backkem/ejtp/pkg/identity"
)

// CompressedFrame's header is a single byte naming the compression
// scheme used on its body.
const (
	compressionZlib  = 'z'
	compressionBzip2 = 'b'
)

var compressionAliases = map[string]byte{
	"zlib":  compressionZlib,
	"gzip":  compressionZlib,
	"z":     compressionZlib,
	"bzip":  compressionBzip2,
	"bzip2": compressionBzip2,
	"bz2":   compressionBzip2,
	"b":     compressionBzip2,
}

// CompressedFrame wraps a compressed inner frame.
type CompressedFrame struct{ base }

func init() { Register('c', newCompressedFrame) }

func newCompressedFrame(content []byte, ancestors []Frame) (Frame, error) {
	b, err := newBase(content, ancestors)
	if err != nil {
		return nil, err
	}
	return &CompressedFrame{b}, nil
}

// MakeCompressed compresses inner under the named scheme and returns the
// on-wire bytes of a CompressedFrame. Only "zlib"/"gzip" compression is
// supported for construction: the standard library has no bzip2 writer,
// and nothing in the dependency pack this module draws from supplies one
// either, so "bzip2" frames can only be decoded, never built, here.
func MakeCompressed(kind string, inner []byte) ([]byte, error) {
	kindByte, ok := compressionAliases[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown compression kind %q", ErrCompressionError, kind)
	}
	if kindByte == compressionBzip2 {
		return nil, fmt.Errorf("%w: bzip2 compression is not supported, only decompression", ErrCompressionError)
	}

	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(inner); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompressionError, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompressionError, err)
	}

	content := make([]byte, 0, 3+buf.Len())
	content = append(content, 'c', kindByte, 0)
	content = append(content, buf.Bytes()...)
	return content, nil
}

// NewCompressed builds a ready-to-send CompressedFrame wrapping inner.
func NewCompressed(kind string, inner []byte) (*CompressedFrame, error) {
	content, err := MakeCompressed(kind, inner)
	if err != nil {
		return nil, err
	}
	f, err := newCompressedFrame(content, nil)
	if err != nil {
		return nil, err
	}
	return f.(*CompressedFrame), nil
}

func (f *CompressedFrame) Decode(cache *identity.Cache) (Decoded, error) {
	header := f.Header()
	if len(header) != 1 {
		return Decoded{}, fmt.Errorf("%w: compressed frame header must be one byte", ErrMalformedFrame)
	}
	switch header[0] {
	case compressionZlib:
		r, err := zlib.NewReader(bytes.NewReader(f.Body()))
		if err != nil {
			return Decoded{}, fmt.Errorf("%w: %v", ErrCompressionError, err)
		}
		defer r.Close()
		data, err := io.ReadAll(r)
		if err != nil {
			return Decoded{}, fmt.Errorf("%w: %v", ErrCompressionError, err)
		}
		return Decoded{Bytes: data}, nil
	case compressionBzip2:
		data, err := io.ReadAll(bzip2.NewReader(bytes.NewReader(f.Body())))
		if err != nil {
			return Decoded{}, fmt.Errorf("%w: %v", ErrCompressionError, err)
		}
		return Decoded{Bytes: data}, nil
	default:
		return Decoded{}, fmt.Errorf("%w: unknown compression kind %q", ErrCompressionError, header)
	}
}

func (f *CompressedFrame) Crop() Frame {
	c, _ := newCompressedFrame(cropBytes(f.content), nil)
	return c
}

func (f *CompressedFrame) Unpack(cache *identity.Cache) (interface{}, error) {
	return unpack(f, cache)
}
