package canon

import "testing"

func TestEncodeArray(t *testing.T) {
	got, err := Encode([]interface{}{"hello", "world"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `["hello","world"]`
	if got != want {
		t.Errorf("Encode = %q, want %q", got, want)
	}
}

func TestEncodeObjectSortsKeys(t *testing.T) {
	got, err := Encode(map[string]interface{}{"b": 1, "a": 2})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"a":2,"b":1}`
	if got != want {
		t.Errorf("Encode = %q, want %q", got, want)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	a, err := Encode(map[string]interface{}{"b": 1, "a": 2})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b, err := Encode(map[string]interface{}{"a": 2, "b": 1})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if a != b {
		t.Errorf("insertion-order-dependent output: %q != %q", a, b)
	}
}

func TestEncodeScalars(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
	}{
		{nil, "null"},
		{true, "true"},
		{false, "false"},
		{0, "0"},
		{-42, "-42"},
		{int64(1 << 40), "1099511627776"},
		{"hi", `"hi"`},
		{"with \"quotes\" and \\backslash", `"with \"quotes\" and \\backslash"`},
		{"tab\tnewline\n", `"tab\tnewline\n"`},
		{"café", "\"caf\\u00e9\""},
		{"\U0001F600", "\"\\ud83d\\ude00\""},
	}
	for _, c := range cases {
		got, err := Encode(c.in)
		if err != nil {
			t.Errorf("Encode(%#v): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("Encode(%#v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestEncodeRejectsFractionalFloat(t *testing.T) {
	if _, err := Encode(3.14); err == nil {
		t.Error("Encode accepted a non-integer float")
	}
}

func TestEncodeNestedStructure(t *testing.T) {
	v := map[string]interface{}{
		"addrtype": "udp4",
		"details":  []interface{}{"127.0.0.1", 555},
		"callsign": "alice",
	}
	got, err := Encode(v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"addrtype":"udp4","callsign":"alice","details":["127.0.0.1",555]}`
	if got != want {
		t.Errorf("Encode = %q, want %q", got, want)
	}
}

func TestMakeSHA1Vector(t *testing.T) {
	got := Make("Sample string")
	want := "e9a47e5417686cf0ac5c8ad9ee90ba2c1d08cc14"
	if got != want {
		t.Errorf("Make(%q) = %q, want %q", "Sample string", got, want)
	}
}

func TestMake6IsPrefixOfMake(t *testing.T) {
	full := Make("arbitrary text")
	if got := Make6("arbitrary text"); got != full[:6] {
		t.Errorf("Make6 = %q, want prefix %q", got, full[:6])
	}
}

func TestChecksumMatchesMakeOfEncode(t *testing.T) {
	v := []interface{}{"hello", "world"}
	encoded, err := Encode(v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := Make(encoded)
	got, err := Checksum(v)
	if err != nil {
		t.Fatalf("Checksum: %v", err)
	}
	if got != want {
		t.Errorf("Checksum = %q, want %q", got, want)
	}
}

func TestStrictifyNormalizesKeyOrder(t *testing.T) {
	got, err := Strictify(`{"b": 1, "a": 2}`)
	if err != nil {
		t.Fatalf("Strictify: %v", err)
	}
	want := `{"a":2,"b":1}`
	if got != want {
		t.Errorf("Strictify = %q, want %q", got, want)
	}
}

func TestStrictifyInvalidJSON(t *testing.T) {
	if _, err := Strictify("{not json"); err == nil {
		t.Error("Strictify accepted invalid JSON")
	}
}
