// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"log/slog"
	"net/http"
	"regexp"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/appcontext"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/htmx"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/services/token"
	"github.com/labstack/echo/v4"
)

// AccessTokenCookie carries the access token for browser page loads.
const AccessTokenCookie = "access_token"

// Reasons reported with 401 responses.
const (
	ReasonMissingToken = "Bearer token ontbreekt"
	ReasonInvalidToken = "Ongeldig token"
)

var bearerPattern = regexp.MustCompile(`Bearer\s+(\S+)`)

// Authenticate requires a valid access token on every path outside public.
// The token comes from the Authorization header. Safe browser requests may
// carry it in the access token cookie instead. On public paths a valid
// token is still attached so pages can show the signed in state.
func Authenticate(tokens *token.Service, public []string, loginRoute string) echo.MiddlewareFunc {
	if loginRoute == "" {
		loginRoute = "/login"
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			raw := bearerToken(req)
			if MatchPath(req.URL.Path, public) {
				if raw != "" {
					if claims, err := tokens.Verify(raw); err == nil {
						appcontext.SetClaims(c, claims)
					}
				}
				return next(c)
			}

			if raw == "" {
				return unauthorized(c, ReasonMissingToken, loginRoute)
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				slog.Debug("token_rejected", "error", err, "path", req.URL.Path)
				return unauthorized(c, ReasonInvalidToken, loginRoute)
			}

			appcontext.SetClaims(c, claims)
			return next(c)
		}
	}
}

func bearerToken(r *http.Request) string {
	if m := bearerPattern.FindStringSubmatch(r.Header.Get(echo.HeaderAuthorization)); m != nil {
		return m[1]
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return ""
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func unauthorized(c echo.Context, reason, loginRoute string) error {
	req := c.Request()
	if acceptsJSON(req) || isAPIPath(req.URL.Path) {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error":  "Unauthorized",
			"reason": reason,
		})
	}

	htmx.Redirect(c.Response(), req, loginRoute)
	return nil
}
