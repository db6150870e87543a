package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

const (
	aesSaltSize = 16
	aesKeySize  = 32
	aesSubkeyInfo = "ejtp-aes-subkey"
)

// AESEncryptor is a symmetric encryptor backed by AES-256-GCM. Unlike the
// legacy ECB-with-length-prefix scheme, every message derives a fresh
// subkey via HKDF-SHA256 from a random per-message salt, so no two
// ciphertexts of the same plaintext share key stream.
//
// Wire layout of a ciphertext: salt(16) || nonce(12) || sealed.
type AESEncryptor struct {
	Secret []byte
}

// NewAESEncryptor returns an AESEncryptor sharing the given secret.
func NewAESEncryptor(secret []byte) *AESEncryptor {
	return &AESEncryptor{Secret: secret}
}

func newAESFromProto(proto Prototype) (Encryptor, error) {
	if len(proto) != 2 {
		return nil, fmt.Errorf("crypto: aes prototype expects 1 argument, got %d", len(proto)-1)
	}
	str, ok := proto[1].(string)
	if !ok {
		return nil, fmt.Errorf("crypto: aes secret must be a hex string")
	}
	secret, err := hex.DecodeString(str)
	if err != nil {
		return nil, fmt.Errorf("crypto: aes secret: %w", err)
	}
	return NewAESEncryptor(secret), nil
}

func (a *AESEncryptor) subkey(salt []byte) ([]byte, error) {
	return HKDFSHA256(a.Secret, salt, []byte(aesSubkeyInfo), aesKeySize)
}

func (a *AESEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	salt := make([]byte, aesSaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	subkey, err := a.subkey(salt)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(subkey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	out := make([]byte, 0, aesSaltSize+len(nonce)+len(sealed))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

func (a *AESEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < aesSaltSize {
		return nil, ErrWrongSize
	}
	salt := ciphertext[:aesSaltSize]
	rest := ciphertext[aesSaltSize:]

	subkey, err := a.subkey(salt)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(subkey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(rest) < gcm.NonceSize() {
		return nil, ErrWrongSize
	}
	nonce := rest[:gcm.NonceSize()]
	sealed := rest[gcm.NonceSize():]
	return gcm.Open(nil, nonce, sealed, nil)
}

// Sign produces an HMAC-SHA256 tag over plaintext using a MAC-only subkey
// derived from the shared secret. AES-GCM ciphertext isn't a fixed-size
// blob a signature scheme can round-trip through Decrypt, so AES doesn't
// use DefaultSign the way Rotate does.
func (a *AESEncryptor) Sign(plaintext []byte) ([]byte, error) {
	macKey, err := HKDFSHA256(a.Secret, nil, []byte("ejtp-aes-mac"), aesKeySize)
	if err != nil {
		return nil, err
	}
	return HMACSHA256Slice(macKey, plaintext), nil
}

func (a *AESEncryptor) SigVerify(plaintext, sig []byte) bool {
	expected, err := a.Sign(plaintext)
	if err != nil {
		return false
	}
	return HMACEqual(expected, sig)
}

func (a *AESEncryptor) Proto() Prototype {
	return Prototype{"aes", hex.EncodeToString(a.Secret)}
}
func (a *AESEncryptor) Public() Prototype { return a.Proto() }
func (a *AESEncryptor) IsPublic() bool    { return true }
func (a *AESEncryptor) CanEncrypt() bool  { return len(a.Secret) > 0 }
