package http

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Age is a profile age in request bodies. Older clients send it as a string,
// so both 25 and "25" are accepted. An empty string or null means zero.
type Age int

func (a *Age) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("age %q is not a number", s)
		}
		*a = Age(n)
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("age: %w", err)
	}
	*a = Age(n)
	return nil
}
