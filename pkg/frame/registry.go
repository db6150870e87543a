package frame

import (
	"fmt"
	"sync"
)

// Constructor builds a Frame from its on-wire content and any ancestor
// frames it was cropped out of.
type Constructor func(content []byte, ancestors []Frame) (Frame, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[byte]Constructor)
)

// Register associates a single type byte with a Frame constructor.
// Safe for concurrent use; registering an already-taken byte is a no-op
// rather than an error, so built-in kinds' init functions can't race
// each other at package load.
func Register(typeByte byte, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[typeByte]; !exists {
		registry[typeByte] = ctor
	}
}

// Create parses the leading type byte of data and builds the
// corresponding Frame, prepending the cropped form of each ancestor.
func Create(data []byte, ancestors ...Frame) (Frame, error) {
	if len(data) == 0 {
		return nil, ErrMalformedFrame
	}
	registryMu.RLock()
	ctor, ok := registry[data[0]]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrameKind, string(data[0]))
	}
	return ctor(data, ancestors)
}
