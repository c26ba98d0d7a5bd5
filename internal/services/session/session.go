// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package session provides server-side sessions identified by a signed cookie.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/config"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

// Store persists session records.
type Store interface {
	GetSession(ctx context.Context, id string) (*models.SessionRecord, error)
	SaveSession(ctx context.Context, rec *models.SessionRecord) error
	DeleteSession(ctx context.Context, id string) error
}

// Data is the serialized session payload.
type Data struct {
	CSRFToken     string              `json:"csrf_token,omitempty"`
	CSRFExpiresAt time.Time           `json:"csrf_expires_at,omitzero"`
	Flash         map[string][]string `json:"flash,omitempty"`
	OldInput      map[string]string   `json:"old_input,omitempty"`
}

// Session is the per-request view of a browser session.
type Session struct {
	id       string
	data     Data
	isNew    bool
	modified bool
}

// New returns an empty, unsaved session.
func New() *Session {
	return &Session{id: uuid.NewString(), isNew: true}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// IsNew reports whether the session was created for this request.
func (s *Session) IsNew() bool { return s.isNew }

// Modified reports whether the session must be written back.
func (s *Session) Modified() bool { return s.modified }

// CSRF returns the stored CSRF token and its expiry.
func (s *Session) CSRF() (string, time.Time) {
	return s.data.CSRFToken, s.data.CSRFExpiresAt
}

// SetCSRF stores a CSRF token.
func (s *Session) SetCSRF(token string, expiresAt time.Time) {
	s.data.CSRFToken = token
	s.data.CSRFExpiresAt = expiresAt
	s.modified = true
}

// ClearCSRF removes the CSRF token.
func (s *Session) ClearCSRF() {
	if s.data.CSRFToken == "" && s.data.CSRFExpiresAt.IsZero() {
		return
	}
	s.data.CSRFToken = ""
	s.data.CSRFExpiresAt = time.Time{}
	s.modified = true
}

// AddFlash queues a message for the next request.
func (s *Session) AddFlash(key, message string) {
	if s.data.Flash == nil {
		s.data.Flash = map[string][]string{}
	}
	s.data.Flash[key] = append(s.data.Flash[key], message)
	s.modified = true
}

// Flashes returns and removes the queued messages for key.
func (s *Session) Flashes(key string) []string {
	messages, ok := s.data.Flash[key]
	if !ok {
		return nil
	}
	delete(s.data.Flash, key)
	s.modified = true
	return messages
}

// SetOldInput remembers submitted form values for re-rendering.
func (s *Session) SetOldInput(values map[string]string) {
	s.data.OldInput = values
	s.modified = true
}

// OldInput returns and removes the remembered form values.
func (s *Session) OldInput() map[string]string {
	values := s.data.OldInput
	if values == nil {
		return map[string]string{}
	}
	s.data.OldInput = nil
	s.modified = true
	return values
}

// Manager loads and saves sessions.
type Manager struct {
	codec      *securecookie.SecureCookie
	store      Store
	cookieName string
	maxAge     int
	secure     bool
	now        func() time.Time
}

// NewManager creates a session manager.
// If HashKey is empty, a random key is generated (development mode).
func NewManager(cfg *config.SessionConfig, secure bool, store Store) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}

	hashKey, err := decodeKey(cfg.HashKey, "hash")
	if err != nil {
		return nil, err
	}
	if hashKey == nil {
		hashKey = make([]byte, 32)
		if _, err := rand.Read(hashKey); err != nil {
			return nil, fmt.Errorf("generating session hash key: %w", err)
		}
		slog.Warn("session hash key not configured, generated a random one; sessions will not survive restarts")
	}

	blockKey, err := decodeKey(cfg.BlockKey, "block")
	if err != nil {
		return nil, err
	}

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 7200
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(maxAge)

	name := cfg.CookieName
	if name == "" {
		name = "smai_session"
	}

	return &Manager{
		codec:      codec,
		store:      store,
		cookieName: name,
		maxAge:     maxAge,
		secure:     secure,
		now:        time.Now,
	}, nil
}

func decodeKey(raw, kind string) ([]byte, error) {
	if raw == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid session %s key: %w", kind, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid session %s key: must be 32 bytes, got %d", kind, len(key))
	}
	return key, nil
}

// CookieName returns the session cookie name.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// Load returns the session referenced by the request cookie, or a fresh one
// when the cookie is missing, forged or points to an expired session.
func (m *Manager) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return New()
	}

	var id string
	if err := m.codec.Decode(m.cookieName, cookie.Value, &id); err != nil {
		slog.Debug("session_cookie_rejected", "error", err)
		return New()
	}

	rec, err := m.store.GetSession(r.Context(), id)
	if err != nil {
		return New()
	}

	s := &Session{id: rec.ID}
	if err := json.Unmarshal([]byte(rec.Data), &s.data); err != nil {
		slog.Warn("session_data_corrupt", "error", err)
		return New()
	}
	return s
}

// Save persists a modified session and sets the cookie on w.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if !s.modified {
		return nil
	}

	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	rec := &models.SessionRecord{
		ID:        s.id,
		Data:      string(raw),
		ExpiresAt: m.now().Add(time.Duration(m.maxAge) * time.Second),
	}
	if err := m.store.SaveSession(ctx, rec); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	cookie, err := m.cookie(s.id)
	if err != nil {
		return err
	}
	http.SetCookie(w, cookie)

	s.modified = false
	s.isNew = false
	return nil
}

// Destroy deletes the session and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	http.SetCookie(w, m.Clear())
	s.modified = false
	return m.store.DeleteSession(ctx, s.id)
}

func (m *Manager) cookie(id string) (*http.Cookie, error) {
	encoded, err := m.codec.Encode(m.cookieName, id)
	if err != nil {
		return nil, fmt.Errorf("encoding session cookie: %w", err)
	}

	return &http.Cookie{
		Name:     m.cookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   m.maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Clear returns a cookie that removes the session cookie.
func (m *Manager) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
