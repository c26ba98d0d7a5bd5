// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/appcontext"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/config"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/middleware"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/services/token"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-signing-32b"

func newAuthEcho(t *testing.T) (*echo.Echo, *token.Service) {
	t.Helper()
	tokens, err := token.NewService(testSecret, time.Hour)
	require.NoError(t, err)

	e := echo.New()
	e.Use(middleware.Authenticate(tokens, config.DefaultPaths().AuthPublic, "/login"))

	whoami := func(c echo.Context) error {
		claims := appcontext.UserClaims(c)
		if claims == nil {
			return c.String(http.StatusOK, "anonymous")
		}
		return c.String(http.StatusOK, claims.Email)
	}
	e.GET("/", whoami)
	e.GET("/dashboard", whoami)
	e.POST("/dashboard", whoami)
	e.GET("/api/users/profile", whoami)
	e.GET("/api/health", whoami)

	return e, tokens
}

func doAuth(e *echo.Echo, method, path string, headers map[string]string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate_PublicPaths(t *testing.T) {
	e, _ := newAuthEcho(t)

	assert.Equal(t, "anonymous", doAuth(e, http.MethodGet, "/", nil).Body.String())
	assert.Equal(t, http.StatusOK, doAuth(e, http.MethodGet, "/api/health", nil).Code)
}

func TestAuthenticate_BrowserRedirect(t *testing.T) {
	e, _ := newAuthEcho(t)

	rec := doAuth(e, http.MethodGet, "/dashboard", map[string]string{"Accept": "text/html"})

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestAuthenticate_HtmxRedirect(t *testing.T) {
	e, _ := newAuthEcho(t)

	rec := doAuth(e, http.MethodGet, "/dashboard", map[string]string{"HX-Request": "true"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("HX-Redirect"))
}

func TestAuthenticate_JSONClients(t *testing.T) {
	e, _ := newAuthEcho(t)

	rec := doAuth(e, http.MethodGet, "/dashboard", map[string]string{"Accept": "application/json"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized","reason":"Bearer token ontbreekt"}`, rec.Body.String())

	rec = doAuth(e, http.MethodGet, "/api/users/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized","reason":"Bearer token ontbreekt"}`, rec.Body.String())
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	e, _ := newAuthEcho(t)

	rec := doAuth(e, http.MethodGet, "/api/users/profile", map[string]string{"Authorization": "Bearer not.a.jwt"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized","reason":"Ongeldig token"}`, rec.Body.String())
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	e, tokens := newAuthEcho(t)
	jwt, err := tokens.Generate(token.Claims{UserID: 1, Email: "julia@example.com"})
	require.NoError(t, err)

	rec := doAuth(e, http.MethodGet, "/api/users/profile", map[string]string{"Authorization": "Token " + jwt})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bearer token ontbreekt")
}

func TestAuthenticate_ValidToken(t *testing.T) {
	e, tokens := newAuthEcho(t)
	jwt, err := tokens.Generate(token.Claims{UserID: 7, Email: "julia@example.com", Role: "user"})
	require.NoError(t, err)

	rec := doAuth(e, http.MethodGet, "/api/users/profile", map[string]string{"Authorization": "Bearer " + jwt})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "julia@example.com", rec.Body.String())
}

func TestAuthenticate_CookieOnlyForSafeMethods(t *testing.T) {
	e, tokens := newAuthEcho(t)
	jwt, err := tokens.Generate(token.Claims{UserID: 7, Email: "julia@example.com"})
	require.NoError(t, err)
	cookie := &http.Cookie{Name: middleware.AccessTokenCookie, Value: jwt}

	rec := doAuth(e, http.MethodGet, "/dashboard", nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "julia@example.com", rec.Body.String())

	rec = doAuth(e, http.MethodPost, "/dashboard", nil, cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
}
