package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ID is an opaque backend identifier. The backend encodes ids as JSON numbers in
// some payloads and as strings in others, so both are accepted.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode id %s: %w", data, err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// Flag is a boolean that the backend sends either as true/false or as 1/0.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	switch v := strings.Trim(string(bytes.TrimSpace(data)), `"`); v {
	case "true", "1":
		*f = true
	case "false", "0", "", "null":
		*f = false
	default:
		return fmt.Errorf("decode flag: unexpected value %s", data)
	}
	return nil
}
