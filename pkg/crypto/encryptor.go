package crypto

import "crypto/sha256"

// Prototype is the serialized form of an Encryptor: a length-1-or-more
// tagged list, [kind, ...args]. It round-trips through encoding/json as a
// JSON array and is the value stored in an Identity's encryptor field.
type Prototype []interface{}

// Kind returns the prototype's tag, or "" if the prototype is empty.
func (p Prototype) Kind() string {
	if len(p) == 0 {
		return ""
	}
	s, _ := p[0].(string)
	return s
}

// Encryptor is a polymorphic symmetric or asymmetric cryptographic primitive.
// Rotate, AES, RSA and ECC all implement it.
type Encryptor interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)

	// Sign produces a signature over plaintext. Symmetric encryptors use
	// DefaultSign; asymmetric ones override with an algorithm-native scheme.
	Sign(plaintext []byte) ([]byte, error)

	// SigVerify checks a signature produced by Sign.
	SigVerify(plaintext, sig []byte) bool

	// Proto returns the serialized prototype for this encryptor.
	Proto() Prototype

	// Public returns the prototype for the public half of this encryptor.
	// Symmetric encryptors return Proto(), since their key is shared secret.
	Public() Prototype

	// IsPublic reports whether Proto() equals Public().
	IsPublic() bool

	// CanEncrypt reports whether this encryptor holds the key material
	// required to encrypt or sign. An RSA encryptor built from only a
	// public key reports false; an ECC encryptor reports true whenever it
	// holds a public key.
	CanEncrypt() bool
}

// DefaultSign implements the default signing scheme shared by symmetric
// encryptors: decrypt(sha256(plaintext)). Asymmetric encryptors that hold
// a private key override Sign with an algorithm-native scheme instead.
func DefaultSign(e Encryptor, plaintext []byte) ([]byte, error) {
	h := sha256.Sum256(plaintext)
	return e.Decrypt(h[:])
}

// DefaultSigVerify implements the default verification scheme shared by
// symmetric encryptors: recompute DefaultSign and compare in constant time.
func DefaultSigVerify(e Encryptor, plaintext, sig []byte) bool {
	expected, err := DefaultSign(e, plaintext)
	if err != nil {
		return false
	}
	return HMACEqual(expected, sig)
}

// Flip swaps the encrypt and decrypt roles of a parent Encryptor. It is
// used to verify a signature made with the sign-is-decrypt convention: the
// signer's "decrypt" becomes the verifier's "encrypt" of the claimed hash.
type Flip struct {
	parent Encryptor
}

// NewFlip wraps parent so that Encrypt calls parent.Decrypt and vice versa.
func NewFlip(parent Encryptor) *Flip {
	return &Flip{parent: parent}
}

func (f *Flip) Encrypt(plaintext []byte) ([]byte, error) { return f.parent.Decrypt(plaintext) }
func (f *Flip) Decrypt(ciphertext []byte) ([]byte, error) { return f.parent.Encrypt(ciphertext) }
func (f *Flip) Sign(plaintext []byte) ([]byte, error)      { return f.parent.Sign(plaintext) }
func (f *Flip) SigVerify(plaintext, sig []byte) bool        { return f.parent.SigVerify(plaintext, sig) }
func (f *Flip) Proto() Prototype                            { return f.parent.Proto() }
func (f *Flip) Public() Prototype                           { return f.parent.Public() }
func (f *Flip) IsPublic() bool                              { return f.parent.IsPublic() }
func (f *Flip) CanEncrypt() bool                             { return f.parent.CanEncrypt() }

// Make constructs an Encryptor from its prototype. It dispatches on the
// prototype's kind tag: "rotate", "aes", "rsa" or "ecc".
func Make(proto Prototype) (Encryptor, error) {
	if len(proto) == 0 {
		return nil, ErrEmptyPrototype
	}
	switch proto.Kind() {
	case "rotate":
		return newRotateFromProto(proto)
	case "aes":
		return newAESFromProto(proto)
	case "rsa":
		return newRSAFromProto(proto)
	case "ecc":
		return newECCFromProto(proto)
	default:
		return nil, ErrUnsupportedKind
	}
}
