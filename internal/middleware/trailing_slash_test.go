// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func newSlashEcho() *echo.Echo {
	e := echo.New()
	e.Pre(middleware.StripTrailingSlash())
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "root") })
	e.GET("/login", func(c echo.Context) error { return c.String(http.StatusOK, "login") })
	e.POST("/auth/login", func(c echo.Context) error { return c.String(http.StatusOK, "posted") })
	return e
}

func TestStripTrailingSlash(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		code     int
		location string
		body     string
	}{
		{"root untouched", http.MethodGet, "/", http.StatusOK, "", "root"},
		{"no slash untouched", http.MethodGet, "/login", http.StatusOK, "", "login"},
		{"redirects", http.MethodGet, "/login/", http.StatusMovedPermanently, "/login", ""},
		{"keeps query", http.MethodGet, "/login/?tab=register", http.StatusMovedPermanently, "/login?tab=register", ""},
		{"post rewritten in place", http.MethodPost, "/auth/login/", http.StatusOK, "", "posted"},
	}

	e := newSlashEcho()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}
