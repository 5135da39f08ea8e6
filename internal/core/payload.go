package core

import "encoding/json"

// Value is a loosely typed payload: client-supplied auth channel_data and
// client-event payloads arrive as free-form text that is JSON more often
// than not. A Value holds the decoded form when the text parses, and the
// original raw text otherwise; malformed input degrades to the raw string
// instead of failing the operation.
type Value struct {
	Decoded any
	Raw     string
	IsJSON  bool
}

// ParseValue interprets raw as JSON when possible.
func ParseValue(raw string) Value {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return Value{Raw: raw}
	}
	return Value{Decoded: decoded, Raw: raw, IsJSON: true}
}

// MarshalJSON encodes the decoded form when present, the raw text otherwise.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsJSON {
		return json.Marshal(v.Decoded)
	}
	return json.Marshal(v.Raw)
}
