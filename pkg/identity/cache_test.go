package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/backkem/ejtp/pkg/address"
	"github.com/backkem/ejtp/pkg/crypto"
)

func makeTestIdentity(name, callsign string, offset int) *Identity {
	loc := address.New("local", nil, callsign)
	return New(name, crypto.Prototype{"rotate", int64(offset)}, loc)
}

func TestCachePutGetDelete(t *testing.T) {
	c := NewCache()
	id := makeTestIdentity("alice", "alice", 1)
	c.Put(id)

	got, ok := c.Get(id.Location)
	if !ok || got != id {
		t.Fatalf("Get did not return the identity just Put")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	c.Delete(id.Location)
	if _, ok := c.Get(id.Location); ok {
		t.Error("identity still present after Delete")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after Delete", c.Len())
	}
}

func TestCachePutAtRejectsMismatchedKey(t *testing.T) {
	c := NewCache()
	id := makeTestIdentity("bob", "bob", 1)
	if err := c.PutAt(`["local",null,"someone-else"]`, id); err == nil {
		t.Error("PutAt accepted a key that does not match the identity location")
	}
}

func TestCacheFindAndFilterByName(t *testing.T) {
	c := NewCache()
	a := makeTestIdentity("dup", "a", 1)
	b := makeTestIdentity("dup", "b", 2)
	other := makeTestIdentity("solo", "c", 3)
	c.Put(a)
	c.Put(b)
	c.Put(other)

	found, ok := c.FindByName("dup")
	if !ok || found != a {
		t.Fatalf("FindByName did not return the first match")
	}
	all := c.FilterByName("dup")
	if len(all) != 2 {
		t.Fatalf("FilterByName returned %d entries, want 2", len(all))
	}
	if _, ok := c.FindByName("nobody"); ok {
		t.Error("FindByName found an entry that was never added")
	}
}

func TestCacheEncryptCapable(t *testing.T) {
	c := NewCache()
	c.Put(makeTestIdentity("rot", "rot", 1))

	e, err := crypto.NewRSAEncryptorFromPEM(testRSAPublicPEM(t))
	if err != nil {
		t.Fatalf("NewRSAEncryptorFromPEM: %v", err)
	}
	pubOnly := New("pubonly", e.Proto(), address.New("local", nil, "pubonly"))
	c.Put(pubOnly)

	capable := c.EncryptCapable()
	if len(capable) != 1 || capable[0].Name != "rot" {
		t.Errorf("EncryptCapable() = %v, want only the rotate identity", capable)
	}
}

func testRSAPublicPEM(t *testing.T) []byte {
	t.Helper()
	priv := crypto.GenerateRSAEncryptor(1024)
	pub := priv.Public()
	e, err := crypto.Make(pub)
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	return []byte(e.Proto()[1].(string))
}

func TestCacheSerializeDeserializeRoundTrip(t *testing.T) {
	c := NewCache()
	c.Put(makeTestIdentity("alice", "alice", 4))
	c.Put(makeTestIdentity("bob", "bob", 9))

	obj, err := c.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	round := NewCache()
	if err := round.Deserialize(obj); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if round.Len() != c.Len() {
		t.Fatalf("round.Len() = %d, want %d", round.Len(), c.Len())
	}
	for _, id := range c.All() {
		got, ok := round.GetByKey(id.Key())
		if !ok {
			t.Fatalf("round trip missing identity %s", id.Key())
		}
		if got.Name != id.Name {
			t.Errorf("round trip Name = %q, want %q", got.Name, id.Name)
		}
	}
}

func TestCacheSaveLoadFile(t *testing.T) {
	c := NewCache()
	c.Put(makeTestIdentity("alice", "alice", 4))
	c.Put(makeTestIdentity("bob", "bob", 9))

	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	if err := c.SaveTo(path, 2); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("cache file was not written: %v", err)
	}

	round := NewCache()
	if err := round.LoadFrom(path); err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if round.Len() != c.Len() {
		t.Errorf("round.Len() = %d, want %d", round.Len(), c.Len())
	}
}

func TestCacheSaveLoadEncryptedFile(t *testing.T) {
	c := NewCache()
	c.Put(makeTestIdentity("alice", "alice", 1))
	c.Put(makeTestIdentity("bob", "bob", 2))

	dir := t.TempDir()
	path := filepath.Join(dir, "cache.enc")
	if err := c.SaveToEncrypted(path, "hunter2", crypto.PBKDF2IterationsMin); err != nil {
		t.Fatalf("SaveToEncrypted: %v", err)
	}

	round := NewCache()
	if err := round.LoadFromEncrypted(path, "hunter2"); err != nil {
		t.Fatalf("LoadFromEncrypted: %v", err)
	}
	if round.Len() != c.Len() {
		t.Errorf("round.Len() = %d, want %d", round.Len(), c.Len())
	}
	if _, ok := round.FindByName("alice"); !ok {
		t.Error("round trip lost alice")
	}

	wrong := NewCache()
	if err := wrong.LoadFromEncrypted(path, "wrong-passphrase"); err == nil {
		t.Error("LoadFromEncrypted accepted the wrong passphrase")
	}
}

func TestCacheSync(t *testing.T) {
	a := NewCache()
	b := NewCache()
	a.Put(makeTestIdentity("alice", "alice", 1))
	b.Put(makeTestIdentity("bob", "bob", 2))

	a.Sync(b)

	if a.Len() != 2 {
		t.Errorf("a.Len() = %d, want 2 after Sync", a.Len())
	}
	if b.Len() != 2 {
		t.Errorf("b.Len() = %d, want 2 after Sync", b.Len())
	}
	if _, ok := b.FindByName("alice"); !ok {
		t.Error("Sync did not propagate alice into b")
	}
	if _, ok := a.FindByName("bob"); !ok {
		t.Error("Sync did not propagate bob into a")
	}
}
