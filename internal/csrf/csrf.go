// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package csrf issues and validates session-bound CSRF tokens.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/services/session"
)

// Names used to transport the token.
const (
	FieldName       = "csrf_token"
	HeaderName      = "X-CSRF-Token"
	AltHeaderName   = "X-XSRF-Token"
	CookieName      = "csrf_token"
	DefaultLifetime = 2 * time.Hour
	tokenBytes      = 32
)

// Protection manages the CSRF token stored in a session.
type Protection struct {
	lifetime time.Duration
	secure   bool
	now      func() time.Time
}

// New creates a Protection. secure controls the Secure flag of the mirror cookie.
func New(lifetime time.Duration, secure bool) *Protection {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	return &Protection{lifetime: lifetime, secure: secure, now: time.Now}
}

// WithClock returns a copy using now as time source.
func (p *Protection) WithClock(now func() time.Time) *Protection {
	cp := *p
	cp.now = now
	return &cp
}

// Token returns the session token, issuing a new one when none exists, the
// stored one expired, or refresh is set.
func (p *Protection) Token(s *session.Session, refresh bool) (string, error) {
	current, expiresAt := s.CSRF()
	if !refresh && current != "" && p.now().Before(expiresAt) {
		return current, nil
	}

	token, err := generate()
	if err != nil {
		return "", err
	}
	s.SetCSRF(token, p.now().Add(p.lifetime))
	return token, nil
}

// Validate compares candidate with the session token in constant time.
// It fails closed when the candidate is empty or the session token is
// missing or expired; an expired token is removed from the session.
func (p *Protection) Validate(s *session.Session, candidate string) bool {
	if candidate == "" {
		return false
	}

	current, expiresAt := s.CSRF()
	if current == "" {
		return false
	}
	if !p.now().Before(expiresAt) {
		s.ClearCSRF()
		return false
	}

	return subtle.ConstantTimeCompare([]byte(current), []byte(candidate)) == 1
}

// Invalidate removes the token from the session.
func (p *Protection) Invalidate(s *session.Session) {
	s.ClearCSRF()
}

// TokenFromRequest finds the submitted token. Order: parsed body field,
// X-CSRF-Token header, X-XSRF-Token header, query string, cookie.
func TokenFromRequest(r *http.Request, parsedBody map[string]any) string {
	if v, ok := parsedBody[FieldName].(string); ok && v != "" {
		return v
	}
	if v := r.Header.Get(HeaderName); v != "" {
		return v
	}
	if v := r.Header.Get(AltHeaderName); v != "" {
		return v
	}
	if v := r.URL.Query().Get(FieldName); v != "" {
		return v
	}
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}

// Cookie returns the mirror cookie for token. It is readable by scripts so
// they can echo it back in the header.
func (p *Protection) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(p.lifetime.Seconds()),
		HttpOnly: false,
		Secure:   p.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func generate() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
