// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/appcontext"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	parsed map[string]any
	raw    string
	bound  struct {
		Email string `json:"email" form:"email"`
	}
}

func newBodyEcho(got *capture) *echo.Echo {
	e := echo.New()
	e.Use(middleware.BodyParsing())
	handler := func(c echo.Context) error {
		got.parsed = appcontext.ParsedBody(c)
		if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
			raw, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return err
			}
			got.raw = string(raw)
			c.Request().Body = io.NopCloser(strings.NewReader(got.raw))
		}
		if err := c.Bind(&got.bound); err != nil {
			return err
		}
		return c.NoContent(http.StatusOK)
	}
	e.POST("/submit", handler)
	e.GET("/submit", handler)
	return e
}

func TestBodyParsing_JSON(t *testing.T) {
	var got capture
	e := newBodyEcho(&got)

	body := `{"email":"julia@example.com","remember":true}`
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, "application/json; charset=utf-8")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "julia@example.com", got.parsed["email"])
	assert.Equal(t, true, got.parsed["remember"])
	assert.Equal(t, body, got.raw, "body is rewound for the handler")
	assert.Equal(t, "julia@example.com", got.bound.Email)
}

func TestBodyParsing_InvalidJSON(t *testing.T) {
	var got capture
	e := newBodyEcho(&got)

	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(`{"email":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid JSON"}`, rec.Body.String())
	assert.Nil(t, got.parsed)
}

func TestBodyParsing_EmptyAndNonObjectJSON(t *testing.T) {
	for _, body := range []string{"", "[1,2,3]"} {
		var got capture
		e := newBodyEcho(&got)

		req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.NotNil(t, got.parsed, body)
		assert.Empty(t, got.parsed, body)
	}
}

func TestBodyParsing_Form(t *testing.T) {
	var got capture
	e := newBodyEcho(&got)

	form := url.Values{"email": {"julia@example.com"}, "tags": {"a", "b"}}
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "julia@example.com", got.parsed["email"])
	assert.Equal(t, []string{"a", "b"}, got.parsed["tags"])
	assert.Equal(t, "julia@example.com", got.bound.Email)
}

func TestBodyParsing_SafeMethodsSkipped(t *testing.T) {
	var got capture
	e := newBodyEcho(&got)

	req := httptest.NewRequest(http.MethodGet, "/submit", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, got.parsed)
}
