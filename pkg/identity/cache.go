package identity

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/backkem/ejtp/pkg/address"
	"github.com/backkem/ejtp/pkg/crypto"
)

// cacheFileSaltSize is the size of the PBKDF2 salt stored alongside a
// passphrase-wrapped cache file.
const cacheFileSaltSize = 16

// Cache is an ordered-by-insertion mapping from location-string to
// Identity. The zero value is not usable; build one with NewCache.
type Cache struct {
	mu    sync.RWMutex
	byKey map[string]*Identity
	order []string
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{byKey: make(map[string]*Identity)}
}

// Put upserts id, keyed by the string form of its own location.
func (c *Cache) Put(id *Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(id.Key(), id)
}

// PutAt upserts id under key, failing if key doesn't match id's own
// location. Deserialize uses this to catch cache files whose location
// key and identity location have drifted apart.
func (c *Cache) PutAt(key string, id *Identity) error {
	if id.Key() != key {
		return fmt.Errorf("%w: key %q, location %q", ErrMismatchedKey, key, id.Key())
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(key, id)
	return nil
}

func (c *Cache) putLocked(key string, id *Identity) {
	if _, exists := c.byKey[key]; !exists {
		c.order = append(c.order, key)
	}
	c.byKey[key] = id
}

// Get looks up an identity by location.
func (c *Cache) Get(loc address.Address) (*Identity, bool) {
	return c.GetByKey(loc.Key())
}

// GetByKey looks up an identity by its location's string form.
func (c *Cache) GetByKey(key string) (*Identity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byKey[key]
	return id, ok
}

// Delete removes the identity at loc, if any.
func (c *Cache) Delete(loc address.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := loc.Key()
	if _, ok := c.byKey[key]; !ok {
		return
	}
	delete(c.byKey, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// FindByName returns the first identity whose Name matches, in insertion order.
func (c *Cache) FindByName(name string) (*Identity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, key := range c.order {
		if id := c.byKey[key]; id.Name == name {
			return id, true
		}
	}
	return nil, false
}

// FilterByName returns every identity whose Name matches, in insertion order.
func (c *Cache) FilterByName(name string) []*Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*Identity
	for _, key := range c.order {
		if id := c.byKey[key]; id.Name == name {
			out = append(out, id)
		}
	}
	return out
}

// All returns every identity in insertion order.
func (c *Cache) All() []*Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Identity, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.byKey[key])
	}
	return out
}

// EncryptCapable returns every identity whose encryptor can encrypt.
func (c *Cache) EncryptCapable() []*Identity {
	var out []*Identity
	for _, id := range c.All() {
		if ok, err := id.CanEncrypt(); err == nil && ok {
			out = append(out, id)
		}
	}
	return out
}

// Len returns the number of identities currently cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byKey)
}

// Sync performs a key-wise union merge across c and others: every entry
// present in any of the caches ends up in all of them. On key collisions,
// the later cache in the argument list (with c implicitly first) wins.
//
// Sync assumes the caller serializes calls that touch overlapping cache
// sets; like the rest of a shared IdentityCache, concurrent Sync calls
// need external coordination.
func (c *Cache) Sync(others ...*Cache) {
	caches := append([]*Cache{c}, others...)
	merged := make(map[string]*Identity)
	var order []string
	for _, cc := range caches {
		cc.mu.RLock()
		for _, key := range cc.order {
			if _, exists := merged[key]; !exists {
				order = append(order, key)
			}
			merged[key] = cc.byKey[key]
		}
		cc.mu.RUnlock()
	}
	for _, cc := range caches {
		cc.mu.Lock()
		for _, key := range order {
			cc.putLocked(key, merged[key])
		}
		cc.mu.Unlock()
	}
}

// Serialize returns the cache's location-string-keyed JSON object form.
func (c *Cache) Serialize() (map[string]interface{}, error) {
	out := make(map[string]interface{})
	for _, id := range c.All() {
		entry, err := id.Serialize()
		if err != nil {
			return nil, fmt.Errorf("identity: serialize %s: %w", id.Key(), err)
		}
		out[id.Key()] = entry
	}
	return out, nil
}

// Deserialize populates the cache from a location-string-keyed JSON
// object, failing with ErrMismatchedKey if an entry's location doesn't
// match the key it's stored under.
func (c *Cache) Deserialize(obj map[string]interface{}) error {
	for key, raw := range obj {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			return fmt.Errorf("identity: cache entry %q is not an object", key)
		}
		id, err := Deserialize(entry)
		if err != nil {
			return fmt.Errorf("identity: cache entry %q: %w", key, err)
		}
		if err := c.PutAt(key, id); err != nil {
			return err
		}
	}
	return nil
}

// LoadFrom reads and deserializes a cache file from path.
func (c *Cache) LoadFrom(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.LoadFromReader(f)
}

// LoadFromReader deserializes a cache file from an already-open reader.
func (c *Cache) LoadFromReader(r io.Reader) error {
	var obj map[string]interface{}
	if err := json.NewDecoder(r).Decode(&obj); err != nil {
		return fmt.Errorf("identity: decode cache file: %w", err)
	}
	return c.Deserialize(obj)
}

// SaveTo serializes the cache and atomically overwrites path. indent, if
// greater than 0, is the number of spaces to pretty-print with.
func (c *Cache) SaveTo(path string, indent int) error {
	obj, err := c.Serialize()
	if err != nil {
		return err
	}
	var data []byte
	if indent > 0 {
		data, err = json.MarshalIndent(obj, "", spaces(indent))
	} else {
		data, err = json.Marshal(obj)
	}
	if err != nil {
		return fmt.Errorf("identity: encode cache file: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("identity: write cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("identity: replace cache file: %w", err)
	}
	return nil
}

// SaveToEncrypted serializes the cache, seals it with a key derived from
// passphrase via PBKDF2-HMAC-SHA256, and atomically overwrites path. The
// on-disk layout is salt(16) || iterations(4, big-endian) || AES-256-GCM
// ciphertext of the plain JSON form SaveTo would have written.
func (c *Cache) SaveToEncrypted(path, passphrase string, iterations int) error {
	obj, err := c.Serialize()
	if err != nil {
		return err
	}
	plain, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("identity: encode cache file: %w", err)
	}

	salt := make([]byte, cacheFileSaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("identity: generate salt: %w", err)
	}
	key := crypto.PBKDF2SHA256([]byte(passphrase), salt, iterations, 32)
	sealed, err := crypto.NewAESEncryptor(key).Encrypt(plain)
	if err != nil {
		return fmt.Errorf("identity: seal cache file: %w", err)
	}

	data := make([]byte, 0, cacheFileSaltSize+4+len(sealed))
	data = append(data, salt...)
	data = append(data, byte(iterations>>24), byte(iterations>>16), byte(iterations>>8), byte(iterations))
	data = append(data, sealed...)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("identity: write cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("identity: replace cache file: %w", err)
	}
	return nil
}

// LoadFromEncrypted reads and decrypts a cache file written by
// SaveToEncrypted, then deserializes it into c.
func (c *Cache) LoadFromEncrypted(path, passphrase string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(data) < cacheFileSaltSize+4 {
		return fmt.Errorf("identity: encrypted cache file too short")
	}
	salt := data[:cacheFileSaltSize]
	iterations := int(data[cacheFileSaltSize])<<24 | int(data[cacheFileSaltSize+1])<<16 |
		int(data[cacheFileSaltSize+2])<<8 | int(data[cacheFileSaltSize+3])
	sealed := data[cacheFileSaltSize+4:]

	key := crypto.PBKDF2SHA256([]byte(passphrase), salt, iterations, 32)
	plain, err := crypto.NewAESEncryptor(key).Decrypt(sealed)
	if err != nil {
		return fmt.Errorf("identity: unseal cache file: %w", err)
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(plain, &obj); err != nil {
		return fmt.Errorf("identity: decode cache file: %w", err)
	}
	return c.Deserialize(obj)
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
