package frame

import (
	"fmt"

	"github.com/backkem/ejtp/pkg/address"
	"github.com/backkem/ejtp/pkg/crypto"
	"github.com/backkem/ejtp/pkg/identity"
)

// maxSignatureLength is the ceiling imposed on SignedFrame's 16-bit
// big-endian signature-length field.
const maxSignatureLength = 65535

// SignedFrame is a SenderCategory frame: its header names the sender's
// address, and its body is a length-prefixed signature followed by the
// signed plaintext.
type SignedFrame struct{ base }

func init() { Register('s', newSignedFrame) }

func newSignedFrame(content []byte, ancestors []Frame) (Frame, error) {
	b, err := newBase(content, ancestors)
	if err != nil {
		return nil, err
	}
	return &SignedFrame{b}, nil
}

func (f *SignedFrame) isSender() {}

func (f *SignedFrame) CategoryAddress() address.Address {
	a, _ := address.Create(f.Header())
	return a
}

// MakeSigned returns the on-wire bytes of a SignedFrame attributing
// inner to sender. Fails if the resulting signature is 65536 bytes or longer.
func MakeSigned(sender *identity.Identity, inner []byte) ([]byte, error) {
	sig, err := sender.Sign(inner)
	if err != nil {
		return nil, err
	}
	if len(sig) > maxSignatureLength {
		return nil, fmt.Errorf("%w: signature length %d exceeds %d", crypto.ErrSignatureTooLarge, len(sig), maxSignatureLength)
	}
	header := sender.Location.String()
	siglen := len(sig)

	content := make([]byte, 0, 3+len(header)+siglen+len(inner))
	content = append(content, 's')
	content = append(content, header...)
	content = append(content, 0)
	content = append(content, byte(siglen>>8), byte(siglen&0xff))
	content = append(content, sig...)
	content = append(content, inner...)
	return content, nil
}

// NewSigned builds a ready-to-send SignedFrame attributing inner to sender.
func NewSigned(sender *identity.Identity, inner []byte) (*SignedFrame, error) {
	content, err := MakeSigned(sender, inner)
	if err != nil {
		return nil, err
	}
	f, err := newSignedFrame(content, nil)
	if err != nil {
		return nil, err
	}
	return f.(*SignedFrame), nil
}

func (f *SignedFrame) Decode(cache *identity.Cache) (Decoded, error) {
	if cache == nil {
		return Decoded{}, ErrNoIdentity
	}
	ident, ok := cache.Get(f.CategoryAddress())
	if !ok {
		return Decoded{}, ErrNoIdentity
	}
	body := f.Body()
	if len(body) < 2 {
		return Decoded{}, ErrMalformedFrame
	}
	siglen := int(body[0])*256 + int(body[1])
	if len(body) < 2+siglen {
		return Decoded{}, ErrMalformedFrame
	}
	sig := body[2 : 2+siglen]
	content := body[2+siglen:]

	verified, err := ident.VerifySignature(sig, content)
	if err != nil {
		return Decoded{}, err
	}
	if !verified {
		return Decoded{}, ErrBadSignature
	}
	return Decoded{Bytes: content}, nil
}

func (f *SignedFrame) Crop() Frame {
	c, _ := newSignedFrame(cropBytes(f.content), nil)
	return c
}

func (f *SignedFrame) Unpack(cache *identity.Cache) (interface{}, error) {
	return unpack(f, cache)
}
