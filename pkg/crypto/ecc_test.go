package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// eccP256ECDHVector pins the ecc encryptor's key agreement against the
// 256-bit ECP group from RFC 5903 §8.1, since Go's crypto/ecdh has no
// published vectors of its own to check the ECCEncryptor wiring against.
var eccP256ECDHVector = struct {
	privateKeyA  string
	publicKeyB   string
	sharedSecret string
}{
	privateKeyA: "c88f01f510d9ac3f70a292daa2316de544e9aab8afe84049c62a9c57862d1433",
	publicKeyB: "04" +
		"d12dfb5289c8d4f81208b70270398c342296970a0bccb74c736fc7554494bf63" +
		"56fbf3ca366cc23e8157854c13c58d6aac23f046ada30f8353e74f33039872ab",
	sharedSecret: "d6840f6b42f6edafd13116e0e12565202fef8e9ece7dce03812464d04b9442de",
}

func TestECCKeyPairRoundTrip(t *testing.T) {
	kp, err := eccGenerateKeyPair()
	if err != nil {
		t.Fatalf("eccGenerateKeyPair: %v", err)
	}
	restored, err := eccKeyPairFromPrivateKey(kp.privateKey())
	if err != nil {
		t.Fatalf("eccKeyPairFromPrivateKey: %v", err)
	}
	if !bytes.Equal(kp.publicKey(), restored.publicKey()) {
		t.Error("key pair rebuilt from its own private scalar has a different public key")
	}
	if err := eccValidatePublicKey(kp.publicKey()); err != nil {
		t.Errorf("freshly generated public key failed validation: %v", err)
	}
}

func TestECCPublicKeyCompressRoundTrip(t *testing.T) {
	kp, err := eccGenerateKeyPair()
	if err != nil {
		t.Fatalf("eccGenerateKeyPair: %v", err)
	}
	decompressed, err := eccPublicKeyFromCompressed(kp.publicKeyCompressed())
	if err != nil {
		t.Fatalf("eccPublicKeyFromCompressed: %v", err)
	}
	if !bytes.Equal(kp.publicKey(), decompressed) {
		t.Error("decompressed public key doesn't match the original uncompressed form")
	}
}

func TestECCValidatePublicKeyRejectsGarbage(t *testing.T) {
	if err := eccValidatePublicKey(make([]byte, 32)); err == nil {
		t.Error("accepted a key of the wrong length")
	}
	badPrefix := make([]byte, eccPublicKeySizeBytes)
	badPrefix[0] = 0x05
	if err := eccValidatePublicKey(badPrefix); err == nil {
		t.Error("accepted a key with a bad prefix byte")
	}
	offCurve := make([]byte, eccPublicKeySizeBytes)
	offCurve[0] = 0x04
	offCurve[1] = 0x01
	offCurve[33] = 0x01
	if err := eccValidatePublicKey(offCurve); err == nil {
		t.Error("accepted a point that isn't on the P-256 curve")
	}
}

func TestECCECDHKnownVector(t *testing.T) {
	priv, err := hex.DecodeString(eccP256ECDHVector.privateKeyA)
	if err != nil {
		t.Fatalf("decode private key: %v", err)
	}
	peerPub, err := hex.DecodeString(eccP256ECDHVector.publicKeyB)
	if err != nil {
		t.Fatalf("decode peer public key: %v", err)
	}
	want, err := hex.DecodeString(eccP256ECDHVector.sharedSecret)
	if err != nil {
		t.Fatalf("decode expected secret: %v", err)
	}

	kp, err := eccKeyPairFromPrivateKey(priv)
	if err != nil {
		t.Fatalf("eccKeyPairFromPrivateKey: %v", err)
	}
	got, err := eccECDH(kp, peerPub)
	if err != nil {
		t.Fatalf("eccECDH: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("shared secret = %x, want %x", got, want)
	}
}

func TestECCECDHSymmetric(t *testing.T) {
	a, err := eccGenerateKeyPair()
	if err != nil {
		t.Fatalf("eccGenerateKeyPair: %v", err)
	}
	b, err := eccGenerateKeyPair()
	if err != nil {
		t.Fatalf("eccGenerateKeyPair: %v", err)
	}
	secretAB, err := eccECDH(a, b.publicKey())
	if err != nil {
		t.Fatalf("eccECDH(a, pubB): %v", err)
	}
	secretBA, err := eccECDH(b, a.publicKey())
	if err != nil {
		t.Fatalf("eccECDH(b, pubA): %v", err)
	}
	if !bytes.Equal(secretAB, secretBA) {
		t.Errorf("ECDH isn't symmetric: a->b = %x, b->a = %x", secretAB, secretBA)
	}
}

func TestECCSignVerifyTamperDetection(t *testing.T) {
	kp, err := eccGenerateKeyPair()
	if err != nil {
		t.Fatalf("eccGenerateKeyPair: %v", err)
	}
	message := []byte("route through ejtp")
	sig, err := eccSign(kp, message)
	if err != nil {
		t.Fatalf("eccSign: %v", err)
	}
	if len(sig) != eccSignatureSizeBytes {
		t.Fatalf("signature length = %d, want %d", len(sig), eccSignatureSizeBytes)
	}
	ok, err := eccVerify(kp.publicKey(), message, sig)
	if err != nil || !ok {
		t.Fatalf("eccVerify rejected a valid signature: ok=%v err=%v", ok, err)
	}

	if ok, _ := eccVerify(kp.publicKey(), []byte("a different message"), sig); ok {
		t.Error("eccVerify accepted a signature over a different message")
	}

	tampered := append([]byte(nil), sig...)
	tampered[0] ^= 0x01
	if ok, _ := eccVerify(kp.publicKey(), message, tampered); ok {
		t.Error("eccVerify accepted a tampered signature")
	}
}
