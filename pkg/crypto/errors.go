package crypto

import "errors"

// Crypto errors.
var (
	// ErrUnsupportedKind is returned when Make encounters an unrecognized prototype kind.
	ErrUnsupportedKind = errors.New("crypto: unsupported encryptor kind")

	// ErrEmptyPrototype is returned when Make is given a prototype with no kind tag.
	ErrEmptyPrototype = errors.New("crypto: empty encryptor prototype")

	// ErrCannotEncrypt is returned when encrypt/sign is attempted on an encryptor
	// that lacks the key material to do so.
	ErrCannotEncrypt = errors.New("crypto: encryptor cannot encrypt")

	// ErrWrongSize is returned when ciphertext does not match the expected block size.
	ErrWrongSize = errors.New("crypto: wrong size for ciphertext")

	// ErrInvalidKey is returned when key material cannot be parsed.
	ErrInvalidKey = errors.New("crypto: invalid key material")

	// ErrSignatureTooLarge is returned when a signature exceeds the 16-bit length
	// prefix used by SignedFrame.
	ErrSignatureTooLarge = errors.New("crypto: signature too large for frame")
)
