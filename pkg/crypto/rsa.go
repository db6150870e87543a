package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"sync"
)

const rsaDefaultBits = 2048

// RSAEncryptor is an asymmetric encryptor backed by PKCS1 RSA, using
// OAEP for encryption and PSS over SHA-256 for signing. A prototype of
// ["rsa", nil, bits] generates a fresh key pair in the background; the
// encryptor blocks callers on ready until generation completes, matching
// the readiness-gate behavior asymmetric key generation requires.
type RSAEncryptor struct {
	ready chan struct{}

	mu      sync.RWMutex
	private *rsa.PrivateKey
	public  *rsa.PublicKey
}

// NewRSAEncryptorFromPEM builds an RSAEncryptor from PEM-encoded key
// material. The PEM block may hold either a PKCS1 private key or a PKCS1
// public key; an encryptor built from a public key cannot decrypt or sign,
// and its CanEncrypt reports false.
func NewRSAEncryptorFromPEM(keyPEM []byte) (*RSAEncryptor, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, fmt.Errorf("crypto: rsa: %w", ErrInvalidKey)
	}
	e := &RSAEncryptor{ready: make(chan struct{})}
	defer close(e.ready)

	if priv, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		e.private = priv
		e.public = &priv.PublicKey
		return e, nil
	}
	pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("crypto: rsa: %w", ErrInvalidKey)
	}
	e.public = pub
	return e, nil
}

// GenerateRSAEncryptor starts generating a fresh RSA key pair of the given
// bit size in the background and returns immediately; Encrypt, Decrypt and
// Sign block until generation completes.
func GenerateRSAEncryptor(bits int) *RSAEncryptor {
	if bits <= 0 {
		bits = rsaDefaultBits
	}
	e := &RSAEncryptor{ready: make(chan struct{})}
	go func() {
		defer close(e.ready)
		priv, err := rsa.GenerateKey(rand.Reader, bits)
		if err != nil {
			// Leave private/public nil; CanEncrypt and operations will
			// fail cleanly once ready is observed closed.
			return
		}
		e.mu.Lock()
		e.private = priv
		e.public = &priv.PublicKey
		e.mu.Unlock()
	}()
	return e
}

func newRSAFromProto(proto Prototype) (Encryptor, error) {
	if len(proto) < 2 {
		return nil, fmt.Errorf("crypto: rsa prototype expects 1-2 arguments, got %d", len(proto)-1)
	}
	if proto[1] == nil {
		bits := rsaDefaultBits
		if len(proto) >= 3 {
			n, err := protoInt(proto[2])
			if err != nil {
				return nil, fmt.Errorf("crypto: rsa bits: %w", err)
			}
			bits = n
		}
		return GenerateRSAEncryptor(bits), nil
	}
	keystr, ok := proto[1].(string)
	if !ok {
		return nil, fmt.Errorf("crypto: rsa key material must be a PEM string")
	}
	return NewRSAEncryptorFromPEM([]byte(keystr))
}

func (r *RSAEncryptor) waitReady() {
	<-r.ready
}

func (r *RSAEncryptor) keySize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.public == nil {
		return 0
	}
	return r.public.Size()
}

// inputBlockSize is the maximum OAEP plaintext chunk for this key.
func (r *RSAEncryptor) inputBlockSize() int {
	k := r.keySize()
	hLen := sha256.Size
	return k - 2*hLen - 2
}

func (r *RSAEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	r.waitReady()
	r.mu.RLock()
	pub := r.public
	r.mu.RUnlock()
	if pub == nil {
		return nil, ErrCannotEncrypt
	}
	split := r.inputBlockSize()
	if split <= 0 {
		return nil, ErrInvalidKey
	}
	if len(plaintext) > split {
		head, err := r.Encrypt(plaintext[:split])
		if err != nil {
			return nil, err
		}
		tail, err := r.Encrypt(plaintext[split:])
		if err != nil {
			return nil, err
		}
		return append(head, tail...), nil
	}
	return rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, plaintext, nil)
}

func (r *RSAEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	r.waitReady()
	r.mu.RLock()
	priv := r.private
	r.mu.RUnlock()
	if priv == nil {
		return nil, ErrCannotEncrypt
	}
	split := r.keySize()
	length := len(ciphertext)
	switch {
	case length > split:
		head, err := r.Decrypt(ciphertext[:split])
		if err != nil {
			return nil, err
		}
		tail, err := r.Decrypt(ciphertext[split:])
		if err != nil {
			return nil, err
		}
		return append(head, tail...), nil
	case length == split:
		return rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, ciphertext, nil)
	default:
		return nil, fmt.Errorf("crypto: rsa: %w: expected %d and got %d", ErrWrongSize, split, length)
	}
}

// Sign uses PKCS1-PSS over a SHA-256 digest, overriding the default
// decrypt(sha256(plaintext)) scheme symmetric encryptors use.
func (r *RSAEncryptor) Sign(plaintext []byte) ([]byte, error) {
	r.waitReady()
	r.mu.RLock()
	priv := r.private
	r.mu.RUnlock()
	if priv == nil {
		return nil, fmt.Errorf("crypto: rsa: %w: cannot sign without private key", ErrCannotEncrypt)
	}
	h := sha256.Sum256(plaintext)
	return rsa.SignPSS(rand.Reader, priv, crypto.SHA256, h[:], nil)
}

func (r *RSAEncryptor) SigVerify(plaintext, sig []byte) bool {
	r.waitReady()
	r.mu.RLock()
	pub := r.public
	r.mu.RUnlock()
	if pub == nil {
		return false
	}
	h := sha256.Sum256(plaintext)
	return rsa.VerifyPSS(pub, crypto.SHA256, h[:], sig, nil) == nil
}

func (r *RSAEncryptor) Proto() Prototype {
	r.waitReady()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.private != nil {
		return Prototype{"rsa", string(pem.EncodeToMemory(&pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(r.private),
		}))}
	}
	return Prototype{"rsa", string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PUBLIC KEY",
		Bytes: x509.MarshalPKCS1PublicKey(r.public),
	}))}
}

func (r *RSAEncryptor) Public() Prototype {
	r.waitReady()
	r.mu.RLock()
	pub := r.public
	r.mu.RUnlock()
	return Prototype{"rsa", string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PUBLIC KEY",
		Bytes: x509.MarshalPKCS1PublicKey(pub),
	}))}
}

func (r *RSAEncryptor) IsPublic() bool {
	r.waitReady()
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.private == nil
}

func (r *RSAEncryptor) CanEncrypt() bool {
	r.waitReady()
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.private != nil
}
