package core

import (
	"encoding/json"
	"testing"
)

func TestParseValueJSON(t *testing.T) {
	v := ParseValue(`{"id":42,"name":"Ann"}`)
	if !v.IsJSON {
		t.Fatal("expected JSON payload to parse")
	}
	decoded := v.Decoded.(map[string]any)
	if decoded["id"] != float64(42) || decoded["name"] != "Ann" {
		t.Fatalf("unexpected decoded value: %v", decoded)
	}
}

func TestParseValueScalar(t *testing.T) {
	v := ParseValue(`42`)
	if !v.IsJSON || v.Decoded != float64(42) {
		t.Fatalf("scalar JSON should parse, got %+v", v)
	}
}

func TestParseValueMalformedFallsBackToRaw(t *testing.T) {
	v := ParseValue("not json {")
	if v.IsJSON {
		t.Fatal("malformed input must not be treated as JSON")
	}
	if v.Raw != "not json {" {
		t.Fatalf("raw value must be preserved, got %q", v.Raw)
	}
}

func TestValueMarshalJSON(t *testing.T) {
	obj, err := json.Marshal(ParseValue(`{"a":1}`))
	if err != nil {
		t.Fatal(err)
	}
	if string(obj) != `{"a":1}` {
		t.Fatalf("JSON value should re-encode structurally, got %s", obj)
	}

	raw, err := json.Marshal(ParseValue("plain text"))
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `"plain text"` {
		t.Fatalf("raw value should encode as a string, got %s", raw)
	}
}
