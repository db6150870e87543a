package address

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/backkem/ejtp/pkg/canon"
)

// Address is a 3-tuple (addrtype, addrdetails, callsign). addrtype is a
// short tag identifying a transport family ("udp", "udp4", "tcp", "tcp4",
// "local", ...); addrdetails is transport-specific (a [host, port] pair
// for udp4/tcp4, nil for local); callsign distinguishes multiple
// endpoints sharing the same host and transport.
//
// The zero value is not a valid Address; build one with New or Create.
type Address struct {
	AddrType    string
	AddrDetails interface{}
	Callsign    interface{}
}

// New builds an Address directly from its three fields. callsign may be nil.
func New(addrtype string, addrdetails, callsign interface{}) Address {
	return Address{AddrType: addrtype, AddrDetails: addrdetails, Callsign: callsign}
}

// Create builds an Address from a canonical JSON string or an already
// decoded structured form ([]interface{} of length 2 or 3, or an Address
// passed through unchanged). Unlike the address format this is grounded
// on, which over its history sometimes also accepted length-1 lists,
// Create requires 2 or 3 elements.
func Create(v interface{}) (Address, error) {
	switch val := v.(type) {
	case Address:
		return val, nil
	case string:
		return parseJSON(val)
	case []byte:
		return parseJSON(string(val))
	case []interface{}:
		return fromList(val)
	default:
		return Address{}, fmt.Errorf("%w: %T", ErrInvalidFormat, v)
	}
}

func parseJSON(s string) (Address, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var list []interface{}
	if err := dec.Decode(&list); err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return fromList(list)
}

func fromList(list []interface{}) (Address, error) {
	if len(list) < 2 || len(list) > 3 {
		return Address{}, ErrInvalidLength
	}
	addrtype, ok := list[0].(string)
	if !ok {
		return Address{}, fmt.Errorf("%w: addrtype must be a string", ErrInvalidFormat)
	}
	a := Address{
		AddrType:    addrtype,
		AddrDetails: normalizeNumber(list[1]),
	}
	if len(list) == 3 {
		a.Callsign = normalizeNumber(list[2])
	}
	return a, nil
}

// normalizeNumber recursively converts json.Number leaves (produced by a
// decoder configured with UseNumber) into int64, so an address's numeric
// fields (e.g. a UDP port) compare and re-encode as plain integers.
func normalizeNumber(v interface{}) interface{} {
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
			out[i] = normalizeNumber(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, e := range val {
			out[k] = normalizeNumber(e)
		}
		return out
	default:
		return v
	}
}

// StructuredForm returns the list form of the address: 2 elements if
// Callsign is nil, 3 otherwise.
func (a Address) StructuredForm() []interface{} {
	if a.Callsign == nil {
		return []interface{}{a.AddrType, a.AddrDetails}
	}
	return []interface{}{a.AddrType, a.AddrDetails, a.Callsign}
}

// Encode returns the canonical JSON string form of the address. This is
// the form routing tables key on, and the form that hashes the same on
// every platform.
func (a Address) Encode() (string, error) {
	return canon.Encode(a.StructuredForm())
}

// String returns the canonical JSON string form, or a placeholder if the
// address holds a value canon.Encode can't represent (which shouldn't
// happen for addresses built through Create or New with JSON-safe details).
func (a Address) String() string {
	s, err := a.Encode()
	if err != nil {
		return fmt.Sprintf("<invalid address: %v>", err)
	}
	return s
}

// Key returns the address's string form, for use as an IdentityCache or
// routing-table key. It's an alias for String kept distinct so call sites
// document intent.
func (a Address) Key() string {
	return a.String()
}

// Equal reports whether two addresses have the same string form.
func (a Address) Equal(b Address) bool {
	return a.String() == b.String()
}
