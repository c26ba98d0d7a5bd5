// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package appcontext stores request scoped values on the Echo context.
package appcontext

import (
	"context"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/htmx"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/services/session"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/services/token"
	"github.com/labstack/echo/v4"
)

// Keys for values stored on echo.Context.
const (
	keySession    = "appcontext.session"
	keyClaims     = "appcontext.claims"
	keyParsedBody = "appcontext.parsed_body"
	keyHtmx       = "appcontext.htmx"
)

// Context keys for values templates read from context.Context.
type (
	// CSRFToken is the context key for the CSRF token.
	CSRFToken struct{}
	// Claims is the context key for the authenticated user's claims.
	Claims struct{}
)

// SetSession stores the request session.
func SetSession(c echo.Context, s *session.Session) {
	c.Set(keySession, s)
}

// Session returns the request session, or nil when the session
// middleware did not run.
func Session(c echo.Context) *session.Session {
	s, _ := c.Get(keySession).(*session.Session)
	return s
}

// SetClaims stores the verified JWT claims on both contexts.
func SetClaims(c echo.Context, claims *token.Claims) {
	c.Set(keyClaims, claims)
	req := c.Request()
	c.SetRequest(req.WithContext(context.WithValue(req.Context(), Claims{}, claims)))
}

// UserClaims returns the verified claims, or nil if not authenticated.
func UserClaims(c echo.Context) *token.Claims {
	claims, _ := c.Get(keyClaims).(*token.Claims)
	return claims
}

// IsAuthenticated reports whether the request carried a valid token.
func IsAuthenticated(c echo.Context) bool {
	return UserClaims(c) != nil
}

// SetParsedBody stores the decoded request body.
func SetParsedBody(c echo.Context, body map[string]any) {
	c.Set(keyParsedBody, body)
}

// ParsedBody returns the decoded request body, or nil for bodiless requests.
func ParsedBody(c echo.Context) map[string]any {
	body, _ := c.Get(keyParsedBody).(map[string]any)
	return body
}

// Htmx returns the parsed htmx headers, parsing them on first use.
func Htmx(c echo.Context) *htmx.Request {
	if h, ok := c.Get(keyHtmx).(*htmx.Request); ok {
		return h
	}
	h := htmx.ParseRequest(c.Request())
	c.Set(keyHtmx, h)
	return h
}

// SetCSRFToken makes token available to templates rendered for this request.
func SetCSRFToken(c echo.Context, token string) {
	req := c.Request()
	c.SetRequest(req.WithContext(context.WithValue(req.Context(), CSRFToken{}, token)))
}

// CSRFTokenFrom returns the CSRF token stored by SetCSRFToken.
func CSRFTokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(CSRFToken{}).(string)
	return token
}

// ClaimsFrom returns the claims stored by SetClaims.
func ClaimsFrom(ctx context.Context) *token.Claims {
	claims, _ := ctx.Value(Claims{}).(*token.Claims)
	return claims
}
