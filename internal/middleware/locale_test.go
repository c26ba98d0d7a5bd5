// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/i18n"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestLocale(t *testing.T) {
	e := echo.New()
	e.Use(middleware.Locale())
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, i18n.GetLocale(c.Request().Context())+"|"+i18n.T(c.Request().Context(), "nav_login"))
	})

	tests := []struct {
		acceptLanguage string
		expected       string
	}{
		{"", "nl|Inloggen"},
		{"nl-NL", "nl|Inloggen"},
		{"en-US,en;q=0.9", "en|Sign in"},
		{"fr", "nl|Inloggen"},
	}

	for _, tt := range tests {
		t.Run(tt.acceptLanguage, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Accept-Language", tt.acceptLanguage)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.expected, rec.Body.String())
		})
	}
}
