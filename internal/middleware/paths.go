// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package middleware contains the echo middleware of the request pipeline.
package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// MatchPath reports whether path starts with one of prefixes.
// The root prefix "/" only matches the root itself.
func MatchPath(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix == "/" {
			if path == "/" {
				return true
			}
			continue
		}
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// WantsJSON reports whether the client expects a JSON response.
func WantsJSON(c echo.Context) bool {
	req := c.Request()
	return acceptsJSON(req) ||
		strings.Contains(strings.ToLower(req.Header.Get(echo.HeaderContentType)), "json") ||
		isAPIPath(req.URL.Path)
}

func acceptsJSON(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get(echo.HeaderAccept)), "json")
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api")
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// ClientIP returns the first X-Forwarded-For entry, X-Real-IP or the
// remote address, in that order.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get(echo.HeaderXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get(echo.HeaderXRealIP)); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
