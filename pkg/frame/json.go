package frame

import (
	"github.com/backkem/ejtp/pkg/canon"
	"github.com/backkem/ejtp/pkg/identity"
)

// JSONFrame is the terminal frame kind: its body is canonical JSON text.
type JSONFrame struct{ base }

func init() { Register('j', newJSONFrame) }

func newJSONFrame(content []byte, ancestors []Frame) (Frame, error) {
	b, err := newBase(content, ancestors)
	if err != nil {
		return nil, err
	}
	return &JSONFrame{b}, nil
}

// MakeJSON returns the on-wire bytes of a JSONFrame carrying value.
func MakeJSON(value interface{}) ([]byte, error) {
	encoded, err := canon.Encode(value)
	if err != nil {
		return nil, err
	}
	content := make([]byte, 0, 2+len(encoded))
	content = append(content, 'j', 0)
	content = append(content, encoded...)
	return content, nil
}

// NewJSON builds a ready-to-send JSONFrame carrying value.
func NewJSON(value interface{}) (*JSONFrame, error) {
	content, err := MakeJSON(value)
	if err != nil {
		return nil, err
	}
	f, err := newJSONFrame(content, nil)
	if err != nil {
		return nil, err
	}
	return f.(*JSONFrame), nil
}

func (f *JSONFrame) Decode(cache *identity.Cache) (Decoded, error) {
	return Decoded{Text: string(f.Body()), IsText: true}, nil
}

func (f *JSONFrame) Crop() Frame {
	c, _ := newJSONFrame(cropBytes(f.content), nil)
	return c
}

func (f *JSONFrame) Unpack(cache *identity.Cache) (interface{}, error) {
	return unpack(f, cache)
}
