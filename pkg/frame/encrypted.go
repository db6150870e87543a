package frame

import (
	"fmt"

	"github.com/backkem/ejtp/pkg/address"
	"github.com/backkem/ejtp/pkg/identity"
)

// EncryptedFrame is a ReceiverCategory frame: its header names the
// recipient's address, and its body is ciphertext of the inner frame's
// bytes under that recipient's Encryptor.
type EncryptedFrame struct{ base }

func init() { Register('r', newEncryptedFrame) }

func newEncryptedFrame(content []byte, ancestors []Frame) (Frame, error) {
	b, err := newBase(content, ancestors)
	if err != nil {
		return nil, err
	}
	return &EncryptedFrame{b}, nil
}

func (f *EncryptedFrame) isReceiver() {}

func (f *EncryptedFrame) CategoryAddress() address.Address {
	a, _ := address.Create(f.Header())
	return a
}

// MakeEncrypted returns the on-wire bytes of an EncryptedFrame addressed
// to recipient, wrapping inner.
func MakeEncrypted(recipient *identity.Identity, inner []byte) ([]byte, error) {
	header := recipient.Location.String()
	ciphertext, err := recipient.Encrypt(inner)
	if err != nil {
		return nil, err
	}
	content := make([]byte, 0, 2+len(header)+len(ciphertext))
	content = append(content, 'r')
	content = append(content, header...)
	content = append(content, 0)
	content = append(content, ciphertext...)
	return content, nil
}

// NewEncrypted builds a ready-to-send EncryptedFrame addressed to recipient.
func NewEncrypted(recipient *identity.Identity, inner []byte) (*EncryptedFrame, error) {
	content, err := MakeEncrypted(recipient, inner)
	if err != nil {
		return nil, err
	}
	f, err := newEncryptedFrame(content, nil)
	if err != nil {
		return nil, err
	}
	return f.(*EncryptedFrame), nil
}

func (f *EncryptedFrame) Decode(cache *identity.Cache) (Decoded, error) {
	if cache == nil {
		return Decoded{}, ErrNoIdentity
	}
	ident, ok := cache.Get(f.CategoryAddress())
	if !ok {
		return Decoded{}, ErrNoIdentity
	}
	plaintext, err := ident.Decrypt(f.Body())
	if err != nil {
		return Decoded{}, fmt.Errorf("%w: %v", ErrDecryptError, err)
	}
	return Decoded{Bytes: plaintext}, nil
}

func (f *EncryptedFrame) Crop() Frame {
	c, _ := newEncryptedFrame(cropBytes(f.content), nil)
	return c
}

func (f *EncryptedFrame) Unpack(cache *identity.Cache) (interface{}, error) {
	return unpack(f, cache)
}
