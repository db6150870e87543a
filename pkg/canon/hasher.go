package canon

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// HashFunction names the digest used throughout the package: SHA-1. It is
// not a cryptographic integrity guarantee (addresses and frame headers
// aren't secret) — it's a short, stable fingerprint of canonical JSON.
const HashFunction = "sha1"

// Make returns the lowercase hex SHA-1 digest of s.
func Make(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Make6 returns the first 6 hex characters of Make(s).
func Make6(s string) string {
	return MakeN(s, 6)
}

// MakeN returns the first n hex characters of Make(s).
func MakeN(s string, n int) string {
	return Make(s)[:n]
}

// Checksum returns the hex SHA-1 digest of v's canonical JSON encoding.
func Checksum(v interface{}) (string, error) {
	encoded, err := Encode(v)
	if err != nil {
		return "", err
	}
	return Make(encoded), nil
}

// Strictify parses a JSON string and re-serializes it in canonical form.
// Numbers decode via json.Number so integral JSON numbers round-trip as
// integers rather than float64.
func Strictify(jsonString string) (string, error) {
	dec := json.NewDecoder(strings.NewReader(jsonString))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return "", ErrInvalidJSON
	}
	return Encode(normalizeNumbers(v))
}

// normalizeNumbers converts json.Number leaves (produced by a decoder with
// UseNumber) into int64 or float64 so Encode's reflection-based switch
// handles them without a special case for json.Number itself.
func normalizeNumbers(v interface{}) interface{} {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		f, _ := val.Float64()
		return f
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = normalizeNumbers(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, e := range val {
			out[k] = normalizeNumbers(e)
		}
		return out
	default:
		return v
	}
}
