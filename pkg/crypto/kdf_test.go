package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// hkdfSHA256TestVectors are RFC 5869's SHA-256 test cases (1-3).
// https://datatracker.ietf.org/doc/html/rfc5869#appendix-A
var hkdfSHA256TestVectors = []struct {
	name   string
	ikm    string
	salt   string
	info   string
	length int
	okm    string
}{
	{
		name:   "RFC5869_TC1",
		ikm:    "0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b",
		salt:   "000102030405060708090a0b0c",
		info:   "f0f1f2f3f4f5f6f7f8f9",
		length: 42,
		okm:    "3cb25f25faacd57a90434f64d0362f2a2d2d0a90cf1a5a4c5db02d56ecc4c5bf34007208d5b887185865",
	},
	{
		name:   "RFC5869_TC2_longer_inputs",
		ikm:    "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f202122232425262728292a2b2c2d2e2f303132333435363738393a3b3c3d3e3f404142434445464748494a4b4c4d4e4f",
		salt:   "606162636465666768696a6b6c6d6e6f707172737475767778797a7b7c7d7e7f808182838485868788898a8b8c8d8e8f909192939495969798999a9b9c9d9e9fa0a1a2a3a4a5a6a7a8a9aaabacadaeaf",
		info:   "b0b1b2b3b4b5b6b7b8b9babbbcbdbebfc0c1c2c3c4c5c6c7c8c9cacbcccdcecfd0d1d2d3d4d5d6d7d8d9dadbdcdddedfe0e1e2e3e4e5e6e7e8e9eaebecedeeeff0f1f2f3f4f5f6f7f8f9fafbfcfdfeff",
		length: 82,
		okm:    "b11e398dc80327a1c8e7f78c596a49344f012eda2d4efad8a050cc4c19afa97c59045a99cac7827271cb41c65e590e09da3275600c2f09b8367793a9aca3db71cc30c58179ec3e87c14c01d5c1f3434f1d87",
	},
	{
		name:   "RFC5869_TC3_zero_length_salt_and_info",
		ikm:    "0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b",
		salt:   "",
		info:   "",
		length: 42,
		okm:    "8da4e775a563c18f715f802a063c5a31b8a11f5c5ee1879ec3454e5f3c738d2d9d201395faa4b61a96c8",
	},
}

func TestHKDFSHA256(t *testing.T) {
	for _, tc := range hkdfSHA256TestVectors {
		t.Run(tc.name, func(t *testing.T) {
			ikm, err := hex.DecodeString(tc.ikm)
			if err != nil {
				t.Fatalf("decode ikm: %v", err)
			}
			var salt, info []byte
			if tc.salt != "" {
				salt, err = hex.DecodeString(tc.salt)
				if err != nil {
					t.Fatalf("decode salt: %v", err)
				}
			}
			if tc.info != "" {
				info, err = hex.DecodeString(tc.info)
				if err != nil {
					t.Fatalf("decode info: %v", err)
				}
			}
			want, err := hex.DecodeString(tc.okm)
			if err != nil {
				t.Fatalf("decode expected okm: %v", err)
			}

			got, err := HKDFSHA256(ikm, salt, info, tc.length)
			if err != nil {
				t.Fatalf("HKDFSHA256: %v", err)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("OKM = %x, want %x", got, want)
			}
		})
	}
}

func TestHKDFSHA256DerivesIndependentSubkeys(t *testing.T) {
	ikm := []byte("ecdh shared secret placeholder")
	salt := []byte("per-message salt")

	a, err := HKDFSHA256(ikm, salt, []byte("ejtp-aes-subkey"), 32)
	if err != nil {
		t.Fatalf("HKDFSHA256: %v", err)
	}
	b, err := HKDFSHA256(ikm, salt, []byte("ejtp-ecies"), 32)
	if err != nil {
		t.Fatalf("HKDFSHA256: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("subkeys derived for different info strings should not collide")
	}
}

// pbkdf2SHA256TestVectors are PBKDF2-HMAC-SHA256 vectors collected from the
// scrypt KDF draft and RFC 7914's appendix; RFC 6070 only covers SHA-1.
var pbkdf2SHA256TestVectors = []struct {
	name       string
	password   string
	salt       string
	saltIsHex  bool
	iterations int
	keyLen     int
	expected   string
}{
	{
		name:       "draft_josefsson_scrypt_kdf_00_TC1",
		password:   "passwd",
		salt:       "salt",
		iterations: 1,
		keyLen:     64,
		expected:   "55ac046e56e3089fec1691c22544b605f94185216dde0465e68b9d57c20dacbc49ca9cccf179b645991664b39d77ef317c71b845b1e30bd509112041d3a19783",
	},
	{
		name:       "draft_josefsson_scrypt_kdf_00_TC2",
		password:   "Password",
		salt:       "NaCl",
		iterations: 80000,
		keyLen:     64,
		expected:   "4ddcd8f60b98be21830cee5ef22701f9641a4418d04c0414aeff08876b34ab56a1d425a1225833549adb841b51c9b3176a272bdebba1d078478f62b397f33c8d",
	},
	{
		name:       "empty_password",
		password:   "",
		salt:       "salt",
		iterations: 1000,
		keyLen:     32,
		expected:   "94fb56af3ea22e5d3ed1b054085b136ca301b75d8b406c802c489479f27387c6",
	},
}

func TestPBKDF2SHA256(t *testing.T) {
	for _, tc := range pbkdf2SHA256TestVectors {
		t.Run(tc.name, func(t *testing.T) {
			var salt []byte
			if tc.saltIsHex {
				var err error
				salt, err = hex.DecodeString(tc.salt)
				if err != nil {
					t.Fatalf("decode salt: %v", err)
				}
			} else {
				salt = []byte(tc.salt)
			}
			want, err := hex.DecodeString(tc.expected)
			if err != nil {
				t.Fatalf("decode expected: %v", err)
			}

			got := PBKDF2SHA256([]byte(tc.password), salt, tc.iterations, tc.keyLen)
			if !bytes.Equal(got, want) {
				t.Errorf("derived key = %x, want %x", got, want)
			}
		})
	}
}

func TestPBKDF2SHA256IterationBounds(t *testing.T) {
	if PBKDF2IterationsMin != 1000 {
		t.Errorf("PBKDF2IterationsMin = %d, want 1000", PBKDF2IterationsMin)
	}
	if PBKDF2IterationsMax != 100000 {
		t.Errorf("PBKDF2IterationsMax = %d, want 100000", PBKDF2IterationsMax)
	}
}

// TestPBKDF2SHA256MatchesCacheUsage mirrors how identity.Cache derives its
// AES key from a passphrase, at PBKDF2IterationsMin.
func TestPBKDF2SHA256MatchesCacheUsage(t *testing.T) {
	salt := bytes.Repeat([]byte{0x42}, 16)
	key := PBKDF2SHA256([]byte("hunter2"), salt, PBKDF2IterationsMin, 32)
	if len(key) != 32 {
		t.Fatalf("derived key length = %d, want 32", len(key))
	}
	again := PBKDF2SHA256([]byte("hunter2"), salt, PBKDF2IterationsMin, 32)
	if !bytes.Equal(key, again) {
		t.Error("PBKDF2SHA256 is not deterministic for identical inputs")
	}
}
