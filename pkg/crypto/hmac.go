package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
)

// HMACSHA256Slice computes the HMAC-SHA256 of message under key.
func HMACSHA256Slice(key, message []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(message)
	return h.Sum(nil)
}

// HMACEqual compares two MACs in constant time. AESEncryptor.SigVerify and
// DefaultSigVerify both use it instead of bytes.Equal to avoid leaking
// timing information about where a forged tag first diverges.
func HMACEqual(mac1, mac2 []byte) bool {
	return hmac.Equal(mac1, mac2)
}
