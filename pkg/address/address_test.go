package address

import "testing"

func TestCreateFromJSONString(t *testing.T) {
	a, err := Create(`["udp4",["127.0.0.1",555],"alice"]`)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.AddrType != "udp4" {
		t.Errorf("AddrType = %q, want udp4", a.AddrType)
	}
	if a.Callsign != "alice" {
		t.Errorf("Callsign = %v, want alice", a.Callsign)
	}
}

func TestCreateFromListWithoutCallsign(t *testing.T) {
	a, err := Create([]interface{}{"local", nil})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Callsign != nil {
		t.Errorf("Callsign = %v, want nil", a.Callsign)
	}
}

func TestCreateRejectsLengthOne(t *testing.T) {
	if _, err := Create([]interface{}{"udp"}); err == nil {
		t.Error("Create accepted a length-1 address")
	}
}

func TestCreateRejectsLengthFour(t *testing.T) {
	if _, err := Create([]interface{}{"udp", nil, "a", "extra"}); err == nil {
		t.Error("Create accepted a length-4 address")
	}
}

func TestStringFormIsCanonical(t *testing.T) {
	a := New("local", nil, "mitzi")
	got := a.String()
	want := `["local",null,"mitzi"]`
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestStringFormOmitsAbsentCallsign(t *testing.T) {
	a := New("udp4", []interface{}{"127.0.0.1", int64(555)}, nil)
	got := a.String()
	want := `["udp4",["127.0.0.1",555]]`
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestRoundTripStringToAddress(t *testing.T) {
	original := New("udp4", []interface{}{"127.0.0.1", int64(555)}, "alice")
	s := original.String()
	parsed, err := Create(s)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if parsed.String() != s {
		t.Errorf("round trip = %q, want %q", parsed.String(), s)
	}
}

func TestEqualComparesStringForm(t *testing.T) {
	a := New("udp4", []interface{}{"127.0.0.1", int64(555)}, "alice")
	b, err := Create(a.String())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !a.Equal(b) {
		t.Error("addresses built from the same string form are not Equal")
	}
}

func TestKeyMatchesString(t *testing.T) {
	a := New("local", nil, "c1")
	if a.Key() != a.String() {
		t.Errorf("Key() = %q, String() = %q, want equal", a.Key(), a.String())
	}
}
