// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/apperror"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func newErrorEcho(debug bool) *echo.Echo {
	e := echo.New()
	h := middleware.NewErrorHandler(debug, func(c echo.Context, status int, message string) error {
		return c.HTML(status, fmt.Sprintf("<h1>%d</h1><p>%s</p>", status, message))
	})
	e.HTTPErrorHandler = h.Handle
	e.Use(h.Middleware())

	e.GET("/boom", func(echo.Context) error {
		panic("database exploded")
	})
	e.GET("/fail", func(echo.Context) error {
		return errors.New("connection refused")
	})
	e.GET("/denied", func(echo.Context) error {
		return apperror.Forbidden("Geen toegang")
	})
	e.POST("/validate", func(echo.Context) error {
		return apperror.Validation(map[string][]string{"email": {"Het veld 'email' is verplicht."}})
	})
	e.GET("/http-error", func(echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})
	return e
}

func serve(e *echo.Echo, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

var acceptJSON = map[string]string{"Accept": "application/json"}

func TestErrorHandler_PanicMasked(t *testing.T) {
	rec := serve(newErrorEcho(false), http.MethodGet, "/boom", acceptJSON)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Internal Server Error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "database exploded")
}

func TestErrorHandler_PanicDebug(t *testing.T) {
	rec := serve(newErrorEcho(true), http.MethodGet, "/boom", acceptJSON)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "database exploded")
}

func TestErrorHandler_PlainErrorHTML(t *testing.T) {
	rec := serve(newErrorEcho(false), http.MethodGet, "/fail", map[string]string{"Accept": "text/html"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
	assert.Contains(t, rec.Body.String(), "<h1>500</h1>")
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestErrorHandler_AppError(t *testing.T) {
	rec := serve(newErrorEcho(false), http.MethodGet, "/denied", acceptJSON)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Geen toegang"}`, rec.Body.String())
}

func TestErrorHandler_Validation(t *testing.T) {
	rec := serve(newErrorEcho(false), http.MethodPost, "/validate", map[string]string{"Content-Type": "application/json"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{
		"success": false,
		"error": "Validatiefout",
		"message": "Validatiefout",
		"errors": {"email": ["Het veld 'email' is verplicht."]}
	}`, rec.Body.String())
}

func TestErrorHandler_HTTPError(t *testing.T) {
	rec := serve(newErrorEcho(false), http.MethodGet, "/http-error", acceptJSON)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"short and stout"}`, rec.Body.String())
}

func TestErrorHandler_NotFoundAlwaysJSON(t *testing.T) {
	rec := serve(newErrorEcho(false), http.MethodGet, "/nope", map[string]string{"Accept": "text/html"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Endpoint niet gevonden"}`, rec.Body.String())
}

func TestErrorHandler_MethodNotAllowed(t *testing.T) {
	rec := serve(newErrorEcho(false), http.MethodDelete, "/denied", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Methode niet toegestaan"}`, rec.Body.String())
}

func TestErrorHandler_APIPathIsJSON(t *testing.T) {
	e := newErrorEcho(false)
	e.GET("/api/fail", func(echo.Context) error {
		return errors.New("nope")
	})

	rec := serve(e, http.MethodGet, "/api/fail", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "application/json")
}
