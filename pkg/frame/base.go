package frame

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/backkem/ejtp/pkg/address"
	"github.com/backkem/ejtp/pkg/identity"
)

// Decoded is the result of decoding a frame's body: either raw bytes
// meant to be re-parsed as another Frame, or canonical JSON text meant
// to be unmarshaled into a value.
type Decoded struct {
	Bytes  []byte
	Text   string
	IsText bool
}

// Frame is an immutable, self-delimiting byte container. Concrete kinds
// (JSONFrame, EncryptedFrame, SignedFrame, CompressedFrame) implement
// Decode with kind-specific semantics; Unpack and Crop are generic.
type Frame interface {
	// Content returns the full on-wire bytes.
	Content() []byte
	// Header returns the bytes between the type byte and the NUL terminator.
	Header() []byte
	// Body returns the bytes after the NUL terminator.
	Body() []byte
	// Ancestors lists the frames this one was cropped out of, outermost last.
	Ancestors() []Frame
	// Crop returns a header-only copy of this frame, used as an ancestor.
	Crop() Frame
	// Decode interprets the body according to this frame's kind.
	Decode(cache *identity.Cache) (Decoded, error)
	// Unpack decodes one layer: it returns the nested Frame re-parsed
	// from the decoded bytes, or a parsed JSON value once a JSONFrame is
	// reached.
	Unpack(cache *identity.Cache) (interface{}, error)
	// Sender returns the address of the last SenderCategory ancestor, if any.
	Sender() (address.Address, bool)
	// Receiver returns the address of the last ReceiverCategory ancestor, if any.
	Receiver() (address.Address, bool)
}

// AddressCategory is implemented by frame kinds whose header carries an address.
type AddressCategory interface {
	CategoryAddress() address.Address
}

// SenderCategory marks a frame kind as carrying sender-attribution, e.g. SignedFrame.
type SenderCategory interface {
	AddressCategory
	isSender()
}

// ReceiverCategory marks a frame kind as carrying receiver-addressing, e.g. EncryptedFrame.
type ReceiverCategory interface {
	AddressCategory
	isReceiver()
}

// base is embedded by every concrete Frame kind. It implements the
// content/header/body accessors and ancestor lookup generically; each
// kind supplies its own Decode, Crop and Unpack.
type base struct {
	content   []byte
	ancestors []Frame
}

func headerLength(content []byte) int {
	idx := bytes.IndexByte(content, 0)
	if idx <= 0 {
		return -1
	}
	return idx - 1
}

func newBase(content []byte, ancestors []Frame) (base, error) {
	if headerLength(content) < 0 {
		return base{}, ErrMalformedFrame
	}
	b := base{content: content}
	if len(ancestors) > 0 {
		b.ancestors = make([]Frame, 0, len(ancestors))
		for _, a := range ancestors {
			b.ancestors = append(b.ancestors, a.Crop())
		}
	}
	return b, nil
}

// cropBytes returns the type byte, header and terminator with the body dropped.
func cropBytes(content []byte) []byte {
	hl := headerLength(content)
	out := make([]byte, 0, hl+2)
	out = append(out, content[0])
	out = append(out, content[1:1+hl]...)
	out = append(out, 0)
	return out
}

func (b base) Content() []byte { return b.content }

func (b base) Header() []byte {
	hl := headerLength(b.content)
	return b.content[1 : 1+hl]
}

func (b base) Body() []byte {
	hl := headerLength(b.content)
	return b.content[hl+2:]
}

func (b base) Ancestors() []Frame { return b.ancestors }

func (b base) Sender() (address.Address, bool) {
	for _, a := range b.ancestors {
		if sc, ok := a.(SenderCategory); ok {
			return sc.CategoryAddress(), true
		}
	}
	return address.Address{}, false
}

func (b base) Receiver() (address.Address, bool) {
	for _, a := range b.ancestors {
		if rc, ok := a.(ReceiverCategory); ok {
			return rc.CategoryAddress(), true
		}
	}
	return address.Address{}, false
}

// unpack implements the one-layer unpack shared by every frame kind:
// re-parse decoded bytes as a nested Frame, or JSON-decode decoded text
// into a value.
func unpack(f Frame, cache *identity.Cache) (interface{}, error) {
	d, err := f.Decode(cache)
	if err != nil {
		return nil, err
	}
	if d.IsText {
		var v interface{}
		if err := json.Unmarshal([]byte(d.Text), &v); err != nil {
			return nil, fmt.Errorf("frame: %w: %v", ErrMalformedFrame, err)
		}
		return v, nil
	}
	ancestors := append([]Frame{f.Crop()}, f.Ancestors()...)
	return Create(d.Bytes, ancestors...)
}
