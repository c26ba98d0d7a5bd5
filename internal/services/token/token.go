// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package token issues and verifies HS256 signed access tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultExpiration is used when the service is created with a zero lifetime.
const DefaultExpiration = time.Hour

// ErrInvalidToken wraps every verification failure.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the access token payload.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Service signs and verifies access tokens with a shared secret.
type Service struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a token service. The secret must not be empty.
func NewService(secret string, expiration time.Duration, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if expiration <= 0 {
		expiration = DefaultExpiration
	}

	s := &Service{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Expiration returns the configured access token lifetime.
func (s *Service) Expiration() time.Duration {
	return s.expiration
}

// Generate signs claims. iat, nbf and jti are set when absent, exp is set to
// now plus the configured expiration when absent.
func (s *Service) Generate(claims Claims) (string, error) {
	now := s.now()

	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(now)
	}
	if claims.NotBefore == nil {
		claims.NotBefore = jwt.NewNumericDate(now)
	}
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.expiration))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks structure, signature, algorithm, exp and nbf. Any failure
// yields nil claims and an error wrapping ErrInvalidToken; callers treat it
// as unauthenticated.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
