// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/services/ratelimit"
	"github.com/labstack/echo/v4"
)

// Rate limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// RateLimit limits requests to /api/ paths per client IP. Paths matching
// exempt are never counted. Limiter failures let the request through.
func RateLimit(limiter ratelimit.Limiter, exempt []string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			if MatchPath(path, exempt) || !strings.HasPrefix(path, "/api/") {
				return next(c)
			}

			ip := ClientIP(req)
			res, err := limiter.Allow(req.Context(), ip)
			if err != nil {
				slog.Error("rate_limiter_unavailable", "error", err, "ip", ip)
				return next(c)
			}

			h := c.Response().Header()
			h.Set(HeaderRateLimitLimit, strconv.Itoa(res.Limit))
			h.Set(HeaderRateLimitRemaining, strconv.Itoa(res.Remaining))
			h.Set(HeaderRateLimitReset, strconv.FormatInt(res.Reset.Unix(), 10))

			if res.Allowed {
				return next(c)
			}

			retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
			h.Set(echo.HeaderRetryAfter, strconv.Itoa(retryAfter))
			slog.Warn("rate_limit_exceeded", "ip", ip, "path", path, "limit", res.Limit)

			return c.JSON(http.StatusTooManyRequests, map[string]any{
				"error":       "Rate limit exceeded",
				"message":     fmt.Sprintf("Maximaal %d verzoeken toegestaan. Probeer het over %d seconden opnieuw.", res.Limit, retryAfter),
				"retry_after": retryAfter,
				"reset_time":  res.Reset.Unix(),
			})
		}
	}
}
