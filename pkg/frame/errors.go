// Package frame implements the typed, self-delimiting byte container
// exchanged on the wire: TYPE_BYTE ++ HEADER_BYTES ++ 0x00 ++ BODY_BYTES.
// A process-wide registry maps type bytes to concrete frame kinds
// (JSON, encrypted, signed, compressed), and frames may nest: decoding
// one frame's body can hand back another frame's bytes.
package frame

import "errors"

// Frame codec and decode errors.
var (
	// ErrMalformedFrame covers unparseable headers, a missing NUL
	// terminator, and bodies truncated below their declared length.
	ErrMalformedFrame = errors.New("frame: malformed frame")

	// ErrUnknownFrameKind is returned when a type byte has no registered constructor.
	ErrUnknownFrameKind = errors.New("frame: unknown frame kind")

	// ErrNoIdentity is returned when an encrypted or signed frame names
	// an address absent from the identity cache passed to Decode.
	ErrNoIdentity = errors.New("frame: no identity for address")

	// ErrBadSignature is returned when a SignedFrame's signature does not verify.
	ErrBadSignature = errors.New("frame: bad signature")

	// ErrDecryptError is returned when an EncryptedFrame's body rejects decryption.
	ErrDecryptError = errors.New("frame: decrypt error")

	// ErrCompressionError is returned when a CompressedFrame's body
	// can't be decompressed, or is constructed with an unsupported kind.
	ErrCompressionError = errors.New("frame: compression error")

	// ErrUnexpectedFrame is returned by callers that only know how to
	// handle specific frame kinds when handed anything else.
	ErrUnexpectedFrame = errors.New("frame: unexpected frame kind")
)
