package identity

import (
	"fmt"
	"sync"

	"github.com/backkem/ejtp/pkg/address"
	"github.com/backkem/ejtp/pkg/crypto"
)

// Identity is a name, a location and an encryptor prototype, plus any
// extension fields a cache file carried that this package doesn't
// interpret but preserves through Serialize/Deserialize.
type Identity struct {
	Name     string
	Location address.Address
	Extra    map[string]interface{}

	mu        sync.Mutex
	proto     crypto.Prototype
	encryptor crypto.Encryptor
}

// New builds an Identity from a name, an encryptor prototype and a
// location. The encryptor itself is constructed lazily on first use.
func New(name string, proto crypto.Prototype, location address.Address) *Identity {
	return &Identity{Name: name, Location: location, proto: proto}
}

// Key returns the identity's cache key: the string form of its location.
func (id *Identity) Key() string {
	return id.Location.Key()
}

// Proto returns the identity's encryptor prototype without forcing
// construction of a live Encryptor.
func (id *Identity) Proto() crypto.Prototype {
	id.mu.Lock()
	defer id.mu.Unlock()
	return id.proto
}

// Encryptor lazily constructs and caches the identity's Encryptor from
// its prototype.
func (id *Identity) Encryptor() (crypto.Encryptor, error) {
	id.mu.Lock()
	defer id.mu.Unlock()
	if id.encryptor == nil {
		e, err := crypto.Make(id.proto)
		if err != nil {
			return nil, fmt.Errorf("identity: %w", err)
		}
		id.encryptor = e
	}
	return id.encryptor, nil
}

// SetEncryptor installs a live Encryptor directly, refreshing the stored
// prototype from it.
func (id *Identity) SetEncryptor(e crypto.Encryptor) {
	id.mu.Lock()
	defer id.mu.Unlock()
	id.encryptor = e
	id.proto = e.Proto()
}

// Encrypt is a shortcut for Encryptor().Encrypt.
func (id *Identity) Encrypt(plaintext []byte) ([]byte, error) {
	e, err := id.Encryptor()
	if err != nil {
		return nil, err
	}
	return e.Encrypt(plaintext)
}

// Decrypt is a shortcut for Encryptor().Decrypt.
func (id *Identity) Decrypt(ciphertext []byte) ([]byte, error) {
	e, err := id.Encryptor()
	if err != nil {
		return nil, err
	}
	return e.Decrypt(ciphertext)
}

// Sign is a shortcut for Encryptor().Sign.
func (id *Identity) Sign(plaintext []byte) ([]byte, error) {
	e, err := id.Encryptor()
	if err != nil {
		return nil, err
	}
	return e.Sign(plaintext)
}

// VerifySignature is a shortcut for Encryptor().SigVerify.
func (id *Identity) VerifySignature(signature, plaintext []byte) (bool, error) {
	e, err := id.Encryptor()
	if err != nil {
		return false, err
	}
	return e.SigVerify(plaintext, signature), nil
}

// Public returns a copy of this identity carrying only the public half
// of its encryptor.
func (id *Identity) Public() (*Identity, error) {
	e, err := id.Encryptor()
	if err != nil {
		return nil, err
	}
	return New(id.Name, e.Public(), id.Location), nil
}

// IsPublic is a shortcut for Encryptor().IsPublic.
func (id *Identity) IsPublic() (bool, error) {
	e, err := id.Encryptor()
	if err != nil {
		return false, err
	}
	return e.IsPublic(), nil
}

// CanEncrypt is a shortcut for Encryptor().CanEncrypt.
func (id *Identity) CanEncrypt() (bool, error) {
	e, err := id.Encryptor()
	if err != nil {
		return false, err
	}
	return e.CanEncrypt(), nil
}

// Serialize returns the JSON-object form of this identity: name,
// location (structured form), encryptor (prototype), plus any extension
// fields. Constructing the encryptor first normalizes the stored
// prototype in case SetEncryptor was never called.
func (id *Identity) Serialize() (map[string]interface{}, error) {
	e, err := id.Encryptor()
	if err != nil {
		return nil, err
	}
	out := make(map[string]interface{}, len(id.Extra)+3)
	for k, v := range id.Extra {
		out[k] = v
	}
	out["name"] = id.Name
	out["location"] = id.Location.StructuredForm()
	out["encryptor"] = []interface{}(e.Proto())
	return out, nil
}

// Deserialize reconstructs an Identity from its JSON-object form. Fields
// other than name, location and encryptor are preserved verbatim in Extra.
func Deserialize(obj map[string]interface{}) (*Identity, error) {
	for _, field := range []string{"name", "location", "encryptor"} {
		if _, ok := obj[field]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingField, field)
		}
	}
	name, ok := obj["name"].(string)
	if !ok {
		return nil, fmt.Errorf("identity: %w: name must be a string", ErrMissingField)
	}
	loc, err := address.Create(obj["location"])
	if err != nil {
		return nil, fmt.Errorf("identity: location: %w", err)
	}
	protoList, ok := obj["encryptor"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("identity: %w: encryptor must be a list", ErrMissingField)
	}

	extra := make(map[string]interface{}, len(obj))
	for k, v := range obj {
		if k == "name" || k == "location" || k == "encryptor" {
			continue
		}
		extra[k] = v
	}

	id := New(name, crypto.Prototype(protoList), loc)
	id.Extra = extra
	return id, nil
}
