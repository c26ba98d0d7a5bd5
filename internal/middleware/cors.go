// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"net/http"
	"strings"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/config"
	"github.com/labstack/echo/v4"
)

// CORS adds the configured CORS headers to every response and answers
// preflight requests with 204.
func CORS(cfg config.CORSConfig) echo.MiddlewareFunc {
	origin := cfg.AllowOrigin
	if origin == "" {
		origin = "*"
	}
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			h.Set(echo.HeaderAccessControlAllowMethods, methods)
			h.Set(echo.HeaderAccessControlAllowHeaders, headers)

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}
