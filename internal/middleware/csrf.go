// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/appcontext"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/csrf"
	"github.com/labstack/echo/v4"
)

var errNoSession = errors.New("csrf: session middleware not installed")

// CSRF requires a valid token on mutating requests outside exclude.
// The token is rotated after every successful validation.
func CSRF(p *csrf.Protection, exclude []string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !isMutating(req.Method) || MatchPath(req.URL.Path, exclude) {
				return next(c)
			}

			s := appcontext.Session(c)
			candidate := csrf.TokenFromRequest(req, appcontext.ParsedBody(c))
			if s == nil || !p.Validate(s, candidate) {
				slog.Warn("csrf_validation_failed",
					"ip", ClientIP(req),
					"method", req.Method,
					"path", req.URL.Path,
					"token_present", candidate != "",
				)
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Invalid CSRF token"})
			}

			if _, err := EnsureCSRFToken(c, p, true); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// EnsureCSRFToken returns the session's CSRF token, issuing one when needed,
// and exposes it to templates and the mirror cookie.
func EnsureCSRFToken(c echo.Context, p *csrf.Protection, refresh bool) (string, error) {
	s := appcontext.Session(c)
	if s == nil {
		return "", errNoSession
	}

	token, err := p.Token(s, refresh)
	if err != nil {
		return "", err
	}

	appcontext.SetCSRFToken(c, token)
	c.SetCookie(p.Cookie(token))
	return token, nil
}
