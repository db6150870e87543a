package crypto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 iteration bounds for passphrase-wrapped identity cache files.
// identity.Cache's SaveToEncrypted and LoadFromEncrypted do not check
// iteration counts against them.
const (
	PBKDF2IterationsMin = 1000
	PBKDF2IterationsMax = 100000
)

// HKDFSHA256 derives length bytes of key material from inputKey via
// HKDF-SHA256 (RFC 5869), salted and bound to info. The aes and ecc
// encryptors both use it: aes to turn a shared secret into a fresh
// per-message subkey, ecc to turn an ECDH shared point into an AES key.
func HKDFSHA256(inputKey, salt, info []byte, length int) ([]byte, error) {
	reader := hkdf.New(sha256.New, inputKey, salt, info)
	result := make([]byte, length)
	if _, err := io.ReadFull(reader, result); err != nil {
		return nil, err
	}
	return result, nil
}

// PBKDF2SHA256 derives a keyLen-byte key from password via
// PBKDF2-HMAC-SHA256. The identity cache uses it to wrap cache files with a
// user-supplied passphrase.
func PBKDF2SHA256(password, salt []byte, iterations, keyLen int) []byte {
	return pbkdf2.Key(password, salt, iterations, keyLen, sha256.New)
}
