// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/config"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestMatchPath(t *testing.T) {
	public := config.DefaultPaths().AuthPublic

	tests := []struct {
		path     string
		expected bool
	}{
		{"/", true},
		{"/dashboard", false},
		{"/login", true},
		{"/login-success", true},
		{"/auth/login", true},
		{"/auth/me", false},
		{"/api/health", true},
		{"/api/users/profile", false},
		{"/static/css/app.css", true},
		{"/stripe/checkout", false},
		{"/stripe/config", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, middleware.MatchPath(tt.path, public))
		})
	}
}

func TestMatchPath_EmptyPrefixIgnored(t *testing.T) {
	assert.False(t, middleware.MatchPath("/anything", []string{""}))
	assert.False(t, middleware.MatchPath("/anything", nil))
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{"forwarded for first entry", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.2:1234", "198.51.100.4"},
		{"forwarded wins over real ip", map[string]string{"X-Forwarded-For": "203.0.113.7", "X-Real-IP": "198.51.100.4"}, "10.0.0.2:1234", "203.0.113.7"},
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"remote addr without port", nil, "192.0.2.1", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, middleware.ClientIP(req))
		})
	}
}

func TestWantsJSON(t *testing.T) {
	e := echo.New()

	newCtx := func(path string, headers map[string]string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return e.NewContext(req, httptest.NewRecorder())
	}

	assert.True(t, middleware.WantsJSON(newCtx("/page", map[string]string{"Accept": "application/json"})))
	assert.True(t, middleware.WantsJSON(newCtx("/page", map[string]string{"Content-Type": "application/json"})))
	assert.True(t, middleware.WantsJSON(newCtx("/api/users/profile", nil)))
	assert.False(t, middleware.WantsJSON(newCtx("/page", map[string]string{"Accept": "text/html"})))
}
