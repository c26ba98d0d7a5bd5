// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package validation

import (
	"encoding/json"
	"strings"
)

// Flag is a boolean that accepts the values HTML forms and loose JSON
// clients send: true, 1, on and yes (case-insensitive).
type Flag bool

// ParseFlag reports whether s is one of the accepted truthy values.
func ParseFlag(s string) Flag {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "on", "yes":
		return true
	}
	return false
}

// UnmarshalJSON accepts booleans, numbers and strings.
func (f *Flag) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch val := v.(type) {
	case bool:
		*f = Flag(val)
	case float64:
		*f = val == 1
	case string:
		*f = ParseFlag(val)
	default:
		*f = false
	}
	return nil
}

// UnmarshalParam is used by echo's binder for form and query values.
func (f *Flag) UnmarshalParam(param string) error {
	*f = ParseFlag(param)
	return nil
}
