package crypto

import "fmt"

// RotateEncryptor is a byte-wise Caesar shift modulo 256. It holds no real
// secrecy and exists as a demonstration and test primitive: the prototype
// ["rotate", offset] is trivially invertible by anyone who knows the offset.
type RotateEncryptor struct {
	Offset int
}

// NewRotateEncryptor returns a RotateEncryptor with the given shift.
func NewRotateEncryptor(offset int) *RotateEncryptor {
	return &RotateEncryptor{Offset: offset}
}

func newRotateFromProto(proto Prototype) (Encryptor, error) {
	if len(proto) != 2 {
		return nil, fmt.Errorf("crypto: rotate prototype expects 1 argument, got %d", len(proto)-1)
	}
	offset, err := protoInt(proto[1])
	if err != nil {
		return nil, fmt.Errorf("crypto: rotate offset: %w", err)
	}
	return NewRotateEncryptor(offset), nil
}

func (r *RotateEncryptor) rotate(source []byte, offset int) []byte {
	result := make([]byte, len(source))
	for i, b := range source {
		result[i] = byte((int(b) + offset) % 256)
	}
	return result
}

func (r *RotateEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	return r.rotate(plaintext, r.Offset), nil
}

func (r *RotateEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	// Go's % can return a negative remainder for a negative dividend;
	// normalize into [0, 256) before rotating.
	offset := ((-r.Offset % 256) + 256) % 256
	return r.rotate(ciphertext, offset), nil
}

func (r *RotateEncryptor) Sign(plaintext []byte) ([]byte, error) {
	return DefaultSign(r, plaintext)
}

func (r *RotateEncryptor) SigVerify(plaintext, sig []byte) bool {
	return DefaultSigVerify(r, plaintext, sig)
}

func (r *RotateEncryptor) Proto() Prototype { return Prototype{"rotate", r.Offset} }
func (r *RotateEncryptor) Public() Prototype { return r.Proto() }
func (r *RotateEncryptor) IsPublic() bool    { return true }
func (r *RotateEncryptor) CanEncrypt() bool  { return true }

func protoInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected numeric argument, got %T", v)
	}
}
