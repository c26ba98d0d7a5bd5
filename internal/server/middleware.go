// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/handlers"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/middleware"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/validation"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const defaultMaxBodySize = 10 // MB

func setupMiddleware(e *echo.Echo, deps Deps) {
	cfg := deps.Config
	paths := cfg.Paths

	errs := middleware.NewErrorHandler(cfg.App.Debug, handlers.RenderError)
	e.HTTPErrorHandler = errs.Handle
	e.Validator = validation.New()

	maxBody := cfg.Server.MaxBodySize
	if maxBody <= 0 {
		maxBody = defaultMaxBodySize
	}

	e.Pre(middleware.StripTrailingSlash())

	e.Use(echomw.RequestID())
	e.Use(requestLogger())
	e.Use(echomw.Secure())
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dM", maxBody)))
	e.Use(staticCacheHeaders())
	e.Use(middleware.CORS(cfg.CORS))
	e.Use(middleware.BodyParsing())
	e.Use(errs.Middleware())
	e.Use(middleware.RateLimit(deps.Limiter, paths.RateLimitExempt))
	e.Use(middleware.Session(deps.Sessions))
	e.Use(middleware.Locale())
	e.Use(middleware.CSRF(deps.CSRF, paths.CSRFExclude))
	e.Use(middleware.Authenticate(deps.Tokens, paths.AuthPublic, paths.LoginRoute))
}

// requestLogger returns middleware that logs requests using slog.
func requestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("ip", v.RemoteIP),
				slog.String("request_id", v.RequestID),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				slog.LogAttrs(c.Request().Context(), slog.LevelError, "request", attrs...)
			} else {
				slog.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", attrs...)
			}

			return nil
		},
	})
}

// staticCacheHeaders adds cache headers for static assets. URLs carrying
// a content version never change and are cached for a year.
func staticCacheHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if strings.HasPrefix(req.URL.Path, "/static/") {
				if req.URL.Query().Get("v") != "" {
					c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
				} else {
					c.Response().Header().Set("Cache-Control", "no-cache")
				}
			}
			return next(c)
		}
	}
}
