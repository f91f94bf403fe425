package blogsdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// UserID is the pending-login identifier returned by auth/login/. The API
// sends it as a JSON number, but it is treated as opaque and accepted as a
// string too.
type UserID string

// UnmarshalJSON accepts a JSON number or string.
func (id *UserID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("failed to decode user id: %w", err)
		}
		*id = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("failed to decode user id: %w", err)
	}
	*id = UserID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as numbers so the API sees what it sent.
func (id UserID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// String returns the id as text.
func (id UserID) String() string { return string(id) }
