package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"
)

const eccCurveName = "P-256"

// P-256 group and wire-format sizes the ecc encryptor works in.
const (
	eccGroupSizeBits                = 256
	eccGroupSizeBytes               = 32
	eccPublicKeySizeBytes           = 65 // 0x04 || X(32) || Y(32)
	eccCompressedPublicKeySizeBytes = 33 // 0x02/0x03 || X(32)
	eccSignatureSizeBytes           = 64 // r(32) || s(32)
)

// eccKeyPair holds a P-256 private scalar in both stdlib representations
// ECCEncryptor needs: ecdh.PrivateKey for ECIES key agreement and
// ecdsa.PrivateKey for signing.
type eccKeyPair struct {
	ecdhPrivate  *ecdh.PrivateKey
	ecdsaPrivate *ecdsa.PrivateKey
}

// publicKey returns the uncompressed public key: 0x04 || X(32) || Y(32).
func (kp *eccKeyPair) publicKey() []byte {
	return kp.ecdhPrivate.PublicKey().Bytes()
}

// publicKeyCompressed returns the compressed public key: 0x02/0x03 || X(32).
func (kp *eccKeyPair) publicKeyCompressed() []byte {
	pub := kp.ecdsaPrivate.PublicKey
	return elliptic.MarshalCompressed(elliptic.P256(), pub.X, pub.Y)
}

// privateKey returns the private scalar as 32 bytes.
func (kp *eccKeyPair) privateKey() []byte {
	return kp.ecdhPrivate.Bytes()
}

// eccGenerateKeyPair generates a fresh P-256 key pair.
func eccGenerateKeyPair() (*eccKeyPair, error) {
	ecdhPriv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("crypto: ecc: generate key: %w", err)
	}
	ecdsaPriv, err := eccToECDSA(ecdhPriv)
	if err != nil {
		return nil, fmt.Errorf("crypto: ecc: %w", err)
	}
	return &eccKeyPair{ecdhPrivate: ecdhPriv, ecdsaPrivate: ecdsaPriv}, nil
}

// eccKeyPairFromPrivateKey rebuilds a key pair from a 32-byte private scalar.
func eccKeyPairFromPrivateKey(privateKey []byte) (*eccKeyPair, error) {
	if len(privateKey) != eccGroupSizeBytes {
		return nil, fmt.Errorf("crypto: ecc: private key must be %d bytes, got %d", eccGroupSizeBytes, len(privateKey))
	}
	ecdhPriv, err := ecdh.P256().NewPrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("crypto: ecc: invalid private key: %w", err)
	}
	ecdsaPriv, err := eccToECDSA(ecdhPriv)
	if err != nil {
		return nil, fmt.Errorf("crypto: ecc: %w", err)
	}
	return &eccKeyPair{ecdhPrivate: ecdhPriv, ecdsaPrivate: ecdsaPriv}, nil
}

// eccToECDSA recovers an ecdsa.PrivateKey from an ecdh.PrivateKey so the
// same scalar can drive both ECDH and ECDSA.
func eccToECDSA(ecdhKey *ecdh.PrivateKey) (*ecdsa.PrivateKey, error) {
	pubBytes := ecdhKey.PublicKey().Bytes()
	if len(pubBytes) != eccPublicKeySizeBytes || pubBytes[0] != 0x04 {
		return nil, errors.New("unexpected public key format")
	}
	x := new(big.Int).SetBytes(pubBytes[1:33])
	y := new(big.Int).SetBytes(pubBytes[33:65])
	return &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y},
		D:         new(big.Int).SetBytes(ecdhKey.Bytes()),
	}, nil
}

// eccSign signs message with ECDSA over its SHA-256 digest, returning a
// 64-byte r||s signature with each component zero-padded to 32 bytes.
func eccSign(kp *eccKeyPair, message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)
	r, s, err := ecdsa.Sign(rand.Reader, kp.ecdsaPrivate, digest[:])
	if err != nil {
		return nil, fmt.Errorf("ECDSA sign failed: %w", err)
	}
	sig := make([]byte, eccSignatureSizeBytes)
	rBytes, sBytes := r.Bytes(), s.Bytes()
	copy(sig[eccGroupSizeBytes-len(rBytes):eccGroupSizeBytes], rBytes)
	copy(sig[eccSignatureSizeBytes-len(sBytes):], sBytes)
	return sig, nil
}

// eccVerify checks a 64-byte r||s ECDSA signature on message's SHA-256
// digest against an uncompressed P-256 public key.
func eccVerify(publicKey, message, signature []byte) (bool, error) {
	if len(publicKey) != eccPublicKeySizeBytes {
		return false, fmt.Errorf("public key must be %d bytes, got %d", eccPublicKeySizeBytes, len(publicKey))
	}
	if publicKey[0] != 0x04 {
		return false, errors.New("public key must be in uncompressed format (starting with 0x04)")
	}
	x := new(big.Int).SetBytes(publicKey[1:33])
	y := new(big.Int).SetBytes(publicKey[33:65])
	pub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
	if !pub.Curve.IsOnCurve(x, y) {
		return false, errors.New("public key point is not on the P-256 curve")
	}
	if len(signature) != eccSignatureSizeBytes {
		return false, fmt.Errorf("signature must be %d bytes, got %d", eccSignatureSizeBytes, len(signature))
	}
	r := new(big.Int).SetBytes(signature[:eccGroupSizeBytes])
	s := new(big.Int).SetBytes(signature[eccGroupSizeBytes:])
	digest := sha256.Sum256(message)
	return ecdsa.Verify(pub, digest[:], r, s), nil
}

// eccECDH computes the ECDH shared secret (the shared point's x-coordinate)
// between kp and an uncompressed peer public key.
func eccECDH(kp *eccKeyPair, peerPublicKey []byte) ([]byte, error) {
	if len(peerPublicKey) != eccPublicKeySizeBytes {
		return nil, fmt.Errorf("peer public key must be %d bytes, got %d", eccPublicKeySizeBytes, len(peerPublicKey))
	}
	peerPub, err := ecdh.P256().NewPublicKey(peerPublicKey)
	if err != nil {
		return nil, fmt.Errorf("invalid peer public key: %w", err)
	}
	secret, err := kp.ecdhPrivate.ECDH(peerPub)
	if err != nil {
		return nil, fmt.Errorf("ECDH computation failed: %w", err)
	}
	return secret, nil
}

// eccPublicKeyFromCompressed expands a 33-byte compressed key
// (0x02/0x03 || X) into its 65-byte uncompressed form (0x04 || X || Y).
func eccPublicKeyFromCompressed(compressed []byte) ([]byte, error) {
	if len(compressed) != eccCompressedPublicKeySizeBytes {
		return nil, fmt.Errorf("compressed key must be %d bytes, got %d", eccCompressedPublicKeySizeBytes, len(compressed))
	}
	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), compressed)
	if x == nil {
		return nil, errors.New("failed to decompress public key")
	}
	out := make([]byte, eccPublicKeySizeBytes)
	out[0] = 0x04
	xBytes, yBytes := x.Bytes(), y.Bytes()
	copy(out[1+eccGroupSizeBytes-len(xBytes):1+eccGroupSizeBytes], xBytes)
	copy(out[1+2*eccGroupSizeBytes-len(yBytes):], yBytes)
	return out, nil
}

// eccValidatePublicKey checks that publicKey is a well-formed, on-curve
// uncompressed P-256 point.
func eccValidatePublicKey(publicKey []byte) error {
	if len(publicKey) != eccPublicKeySizeBytes {
		return fmt.Errorf("public key must be %d bytes, got %d", eccPublicKeySizeBytes, len(publicKey))
	}
	if publicKey[0] != 0x04 {
		return errors.New("public key must be in uncompressed format (starting with 0x04)")
	}
	x := new(big.Int).SetBytes(publicKey[1:33])
	y := new(big.Int).SetBytes(publicKey[33:65])
	if !elliptic.P256().IsOnCurve(x, y) {
		return errors.New("public key point is not on the P-256 curve")
	}
	return nil
}

// ECCEncryptor is an asymmetric encryptor backed by ECIES over P-256:
// encryption generates an ephemeral key pair, derives a shared secret via
// ECDH with the recipient's public key, and uses it to key AES-GCM.
// Signing uses ECDSA over SHA-256.
type ECCEncryptor struct {
	public  []byte // 65-byte uncompressed P-256 public key, or nil
	private []byte // 32-byte P-256 private scalar, or nil
}

// NewECCEncryptor builds an ECCEncryptor from raw public/private key
// material. Either may be nil, but at least one is required: public-only
// encryptors can encrypt to and verify their owner; a private key is
// needed to decrypt and sign.
func NewECCEncryptor(public, private []byte) (*ECCEncryptor, error) {
	if public == nil && private != nil {
		kp, err := eccKeyPairFromPrivateKey(private)
		if err != nil {
			return nil, fmt.Errorf("crypto: ecc: %w", err)
		}
		public = kp.publicKey()
	}
	if public == nil {
		return nil, fmt.Errorf("crypto: ecc: %w: need at least a public key", ErrInvalidKey)
	}
	if err := eccValidatePublicKey(public); err != nil {
		return nil, fmt.Errorf("crypto: ecc: %w", err)
	}
	return &ECCEncryptor{public: public, private: private}, nil
}

func newECCFromProto(proto Prototype) (Encryptor, error) {
	if len(proto) != 4 {
		return nil, fmt.Errorf("crypto: ecc prototype expects 3 arguments, got %d", len(proto)-1)
	}
	public, err := hexOrNil(proto[1])
	if err != nil {
		return nil, fmt.Errorf("crypto: ecc public key: %w", err)
	}
	private, err := hexOrNil(proto[2])
	if err != nil {
		return nil, fmt.Errorf("crypto: ecc private key: %w", err)
	}
	if curve, ok := proto[3].(string); ok && curve != "" && curve != eccCurveName {
		return nil, fmt.Errorf("crypto: ecc: unsupported curve %q", curve)
	}
	return NewECCEncryptor(public, private)
}

func hexOrNil(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected hex string, got %T", v)
	}
	return hex.DecodeString(s)
}

func (e *ECCEncryptor) keyPair() (*eccKeyPair, error) {
	if e.private == nil {
		return nil, ErrCannotEncrypt
	}
	return eccKeyPairFromPrivateKey(e.private)
}

func (e *ECCEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	ephemeral, err := eccGenerateKeyPair()
	if err != nil {
		return nil, err
	}
	secret, err := eccECDH(ephemeral, e.public)
	if err != nil {
		return nil, fmt.Errorf("crypto: ecc: %w", err)
	}
	sealed, err := eciesSeal(secret, plaintext)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, eccPublicKeySizeBytes+len(sealed))
	out = append(out, ephemeral.publicKey()...)
	out = append(out, sealed...)
	return out, nil
}

func (e *ECCEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < eccPublicKeySizeBytes {
		return nil, ErrWrongSize
	}
	ephemeralPub := ciphertext[:eccPublicKeySizeBytes]
	sealed := ciphertext[eccPublicKeySizeBytes:]

	kp, err := e.keyPair()
	if err != nil {
		return nil, err
	}
	secret, err := eccECDH(kp, ephemeralPub)
	if err != nil {
		return nil, fmt.Errorf("crypto: ecc: %w", err)
	}
	return eciesOpen(secret, sealed)
}

// Sign overrides the default decrypt(sha256(plaintext)) scheme with
// ECDSA over SHA-256, since P-256 signing doesn't route through Decrypt.
func (e *ECCEncryptor) Sign(plaintext []byte) ([]byte, error) {
	kp, err := e.keyPair()
	if err != nil {
		return nil, err
	}
	return eccSign(kp, plaintext)
}

func (e *ECCEncryptor) SigVerify(plaintext, sig []byte) bool {
	ok, err := eccVerify(e.public, plaintext, sig)
	return err == nil && ok
}

func (e *ECCEncryptor) Proto() Prototype {
	return Prototype{"ecc", hex.EncodeToString(e.public), hexOrEmpty(e.private), eccCurveName}
}

func (e *ECCEncryptor) Public() Prototype {
	return Prototype{"ecc", hex.EncodeToString(e.public), nil, eccCurveName}
}

func (e *ECCEncryptor) IsPublic() bool { return e.private == nil }

// CanEncrypt reports whether this encryptor holds enough key material to
// produce a ciphertext a recipient could decrypt, i.e. a public key.
// Unlike the RSA encryptor's CanEncrypt (which gates on holding a private
// key, since RSA.can_encrypt tracks whether this encryptor is fit to be an
// owner's own identity rather than whether Encrypt itself would succeed),
// ECC's Encrypt only ever needs the recipient's public half.
func (e *ECCEncryptor) CanEncrypt() bool { return e.public != nil }

func hexOrEmpty(b []byte) interface{} {
	if b == nil {
		return nil
	}
	return hex.EncodeToString(b)
}

// eciesSeal derives an AES-256-GCM key from an ECDH shared secret via
// HKDF-SHA256 and seals plaintext under a random nonce.
func eciesSeal(secret, plaintext []byte) ([]byte, error) {
	key, err := HKDFSHA256(secret, nil, []byte("ejtp-ecies"), aesKeySize)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
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
	return append(nonce, sealed...), nil
}

func eciesOpen(secret, ciphertext []byte) ([]byte, error) {
	key, err := HKDFSHA256(secret, nil, []byte("ejtp-ecies"), aesKeySize)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, ErrWrongSize
	}
	nonce := ciphertext[:gcm.NonceSize()]
	sealed := ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, sealed, nil)
}
