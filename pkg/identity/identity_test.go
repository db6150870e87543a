package identity

import (
	"testing"

	"github.com/backkem/ejtp/pkg/address"
	"github.com/backkem/ejtp/pkg/crypto"
)

func TestIdentityEncryptorLazyConstruction(t *testing.T) {
	loc := address.New("local", nil, "alice")
	id := New("alice", crypto.Prototype{"rotate", int64(4)}, loc)

	ct, err := id.Encrypt([]byte("Aquaboogie"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	pt, err := id.Decrypt(ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(pt) != "Aquaboogie" {
		t.Errorf("round trip = %q, want Aquaboogie", pt)
	}
}

func TestIdentitySetEncryptorRefreshesProto(t *testing.T) {
	loc := address.New("local", nil, "bob")
	id := New("bob", crypto.Prototype{"rotate", int64(1)}, loc)

	e := crypto.NewRotateEncryptor(9)
	id.SetEncryptor(e)

	proto := id.Proto()
	if proto.Kind() != "rotate" {
		t.Fatalf("Proto().Kind() = %q, want rotate", proto.Kind())
	}
}

func TestIdentityPublicStripsPrivateMaterial(t *testing.T) {
	e := crypto.GenerateRSAEncryptor(1024)
	loc := address.New("local", nil, "carol")
	id := New("carol", e.Proto(), loc)

	pub, err := id.Public()
	if err != nil {
		t.Fatalf("Public: %v", err)
	}
	isPublic, err := pub.IsPublic()
	if err != nil {
		t.Fatalf("IsPublic: %v", err)
	}
	if !isPublic {
		t.Error("Public() identity is not public")
	}
	if _, err := pub.Decrypt([]byte("anything")); err == nil {
		t.Error("public identity should not be able to decrypt")
	}
}

func TestIdentitySerializeDeserializeRoundTrip(t *testing.T) {
	loc := address.New("udp4", []interface{}{"127.0.0.1", int64(555)}, "dave")
	id := New("dave", crypto.Prototype{"rotate", int64(7)}, loc)
	id.Extra = map[string]interface{}{"note": "test fixture"}

	obj, err := id.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if obj["name"] != "dave" {
		t.Errorf("name = %v, want dave", obj["name"])
	}
	if obj["note"] != "test fixture" {
		t.Errorf("note = %v, want test fixture", obj["note"])
	}

	round, err := Deserialize(obj)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if round.Name != id.Name {
		t.Errorf("Name = %q, want %q", round.Name, id.Name)
	}
	if round.Key() != id.Key() {
		t.Errorf("Key() = %q, want %q", round.Key(), id.Key())
	}
	if round.Extra["note"] != "test fixture" {
		t.Errorf("Extra[note] = %v, want test fixture", round.Extra["note"])
	}
}

func TestDeserializeRequiresFields(t *testing.T) {
	_, err := Deserialize(map[string]interface{}{"name": "eve"})
	if err == nil {
		t.Error("Deserialize accepted an object missing location/encryptor")
	}
}
