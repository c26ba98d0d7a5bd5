// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"log/slog"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/appcontext"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/services/session"
	"github.com/labstack/echo/v4"
)

// Session loads the request session and saves it right before the
// response headers are written.
func Session(mgr *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := mgr.Load(c.Request())
			appcontext.SetSession(c, s)

			c.Response().Before(func() {
				if err := mgr.Save(c.Request().Context(), c.Response().Writer, s); err != nil {
					slog.Error("session_save_failed", "error", err)
				}
			})

			return next(c)
		}
	}
}
