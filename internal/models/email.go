// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"errors"
	"net/mail"
	"strings"
)

// ErrInvalidEmail is returned for addresses that fail validation.
var ErrInvalidEmail = errors.New("Ongeldig e-mailadres.")

// Email is a normalized, validated e-mail address.
type Email struct {
	value string
}

// NewEmail trims and lowercases raw and validates the result.
func NewEmail(raw string) (Email, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" || len(normalized) > 254 {
		return Email{}, ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return Email{}, ErrInvalidEmail
	}

	at := strings.LastIndex(normalized, "@")
	if at < 1 || !strings.Contains(normalized[at+1:], ".") {
		return Email{}, ErrInvalidEmail
	}

	return Email{value: normalized}, nil
}

func (e Email) String() string {
	return e.value
}

// Domain returns the part after the @.
func (e Email) Domain() string {
	return e.value[strings.LastIndex(e.value, "@")+1:]
}

// LocalPart returns the part before the @.
func (e Email) LocalPart() string {
	return e.value[:strings.LastIndex(e.value, "@")]
}

// Equals compares two addresses.
func (e Email) Equals(other Email) bool {
	return e.value == other.value
}
