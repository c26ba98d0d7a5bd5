// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package htmx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/htmx"
	"github.com/stretchr/testify/assert"
)

func TestParseRequest_HtmxRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-Current-URL", "http://localhost:8080/login")
	req.Header.Set("HX-Target", "login-form")

	parsed := htmx.ParseRequest(req)

	assert.True(t, parsed.IsHtmx)
	assert.False(t, parsed.IsBoosted)
	assert.True(t, parsed.IsPartial())
	assert.Equal(t, "http://localhost:8080/login", parsed.CurrentURL)
	assert.Equal(t, "login-form", parsed.Target)
}

func TestParseRequest_NonHtmxRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	parsed := htmx.ParseRequest(req)

	assert.False(t, parsed.IsHtmx)
	assert.False(t, parsed.IsPartial())
}

func TestParseRequest_Boosted(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-Boosted", "true")

	parsed := htmx.ParseRequest(req)

	assert.True(t, parsed.IsBoosted)
	assert.False(t, parsed.IsPartial())
}

func TestParseRequest_FalseValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("HX-Request", "false")
	req.Header.Set("HX-Boosted", "false")

	parsed := htmx.ParseRequest(req)

	assert.False(t, parsed.IsHtmx)
	assert.False(t, parsed.IsBoosted)
}

func TestRedirect_Htmx(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()

	htmx.Redirect(rec, req, "/login")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("HX-Redirect"))
	assert.Empty(t, rec.Header().Get("Location"))
}

func TestRedirect_Browser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()

	htmx.Redirect(rec, req, "/login")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}
