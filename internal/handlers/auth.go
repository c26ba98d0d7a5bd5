// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/apperror"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/appcontext"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/htmx"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/i18n"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/middleware"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/models"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/services/auth"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/validation"
	"github.com/labstack/echo/v4"
)

// RefreshTokenCookie carries the refresh token. Scripts cannot read it.
const RefreshTokenCookie = "refresh_token"

// Redirect targets of the form based auth flow.
const (
	loginSuccessURL    = "/dashboard?login=success"
	registerSuccessURL = "/dashboard?register=success"
	loginFormURL       = "/login?tab=login"
	registerFormURL    = "/login?tab=register"
)

var bearerPattern = regexp.MustCompile(`Bearer\s+(\S+)`)

// AuthHandlers serves the /auth endpoints for JSON clients and HTML forms.
type AuthHandlers struct {
	auth   *auth.Service
	secure bool
}

// NewAuth creates a new AuthHandlers instance. secure sets the Secure flag
// on auth cookies.
func NewAuth(svc *auth.Service, secure bool) *AuthHandlers {
	return &AuthHandlers{auth: svc, secure: secure}
}

type loginRequest struct {
	Email      string          `json:"email" form:"email" validate:"required,email"`
	Password   string          `json:"password" form:"password" validate:"required,min=6"`
	RememberMe validation.Flag `json:"remember_me" form:"remember_me"`
}

type registerRequest struct {
	Name            string          `json:"name" form:"name" validate:"max=100"`
	Email           string          `json:"email" form:"email" validate:"required,email,max=255"`
	Password        string          `json:"password" form:"password" validate:"required,min=8"`
	PasswordConfirm string          `json:"password_confirm" form:"password_confirm" validate:"omitempty,eqfield=Password"`
	AgreeTerms      validation.Flag `json:"agree_terms" form:"agree_terms" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

// Login authenticates with email and password.
// JSON clients receive the access token; forms get cookies and a redirect.
func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()
	wantsJSON := middleware.WantsJSON(c)

	var req loginRequest
	if err := bind(c, &req); err != nil {
		if wantsJSON {
			return err
		}
		return redirectWithFlash(c, loginFormURL+"&error=validation", "error",
			i18n.T(ctx, "error_validation"), map[string]string{"email": req.Email})
	}

	result, err := h.auth.Login(ctx, auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		IP:       middleware.ClientIP(c.Request()),
	})
	if err != nil {
		appErr := authError(ctx, err, "password")
		if wantsJSON || isServerError(appErr) {
			return appErr
		}
		code := "credentials"
		if errors.Is(err, auth.ErrTooManyAttempts) {
			code = "too_many_attempts"
		}
		return redirectWithFlash(c, loginFormURL+"&error="+code, "error",
			appErr.Message, map[string]string{"email": req.Email})
	}

	c.SetCookie(h.refreshCookie(result.Tokens, bool(req.RememberMe)))

	if wantsJSON {
		return c.JSON(http.StatusOK, tokenBody(result))
	}

	c.SetCookie(h.accessCookie(result.Tokens))
	return redirectWithFlash(c, loginSuccessURL, "success", i18n.T(ctx, "login_success"), nil)
}

// Register creates an account. Form submissions are logged in right away.
func (h *AuthHandlers) Register(c echo.Context) error {
	ctx := c.Request().Context()
	wantsJSON := middleware.WantsJSON(c)

	var req registerRequest
	if err := bind(c, &req); err != nil {
		if wantsJSON {
			return err
		}
		return h.registerFailure(c, "validation", err, req)
	}

	user, err := h.auth.Register(ctx, auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		appErr := authError(ctx, err, "password")
		if wantsJSON || isServerError(appErr) {
			return appErr
		}
		code := "registration"
		if appErr.Status == http.StatusUnprocessableEntity {
			code = "validation"
		}
		return h.registerFailure(c, code, appErr, req)
	}

	if wantsJSON {
		return Success(c, http.StatusCreated, i18n.T(ctx, "register_success"),
			map[string]any{"user": user})
	}

	result, err := h.auth.Login(ctx, auth.LoginInput{
		Email:    user.Email,
		Password: req.Password,
		IP:       middleware.ClientIP(c.Request()),
	})
	if err != nil {
		slog.Error("login_after_register_failed", "user_id", user.ID, "error", err)
		return redirectWithFlash(c, loginFormURL, "success", i18n.T(ctx, "register_success"), nil)
	}
	c.SetCookie(h.refreshCookie(result.Tokens, false))
	c.SetCookie(h.accessCookie(result.Tokens))
	return redirectWithFlash(c, registerSuccessURL, "success", i18n.T(ctx, "register_success"), nil)
}

func (h *AuthHandlers) registerFailure(c echo.Context, code string, err error, req registerRequest) error {
	messages := []string{}
	if appErr, ok := apperror.As(err); ok {
		for _, field := range []string{"name", "email", "password", "password_confirm", "agree_terms"} {
			messages = append(messages, appErr.Fields[field]...)
		}
		if len(messages) == 0 {
			messages = append(messages, appErr.Message)
		}
	}

	if s := appcontext.Session(c); s != nil {
		for _, msg := range messages {
			s.AddFlash("error", msg)
		}
		s.SetOldInput(map[string]string{"name": req.Name, "email": req.Email})
	}
	htmx.Redirect(c.Response(), c.Request(), registerFormURL+"&error="+code)
	return nil
}

// Refresh rotates the refresh token. The token is read from the refresh
// token cookie, the body or the Authorization header, in that order. An
// access token in the header is ignored.
func (h *AuthHandlers) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	raw, fromCookie := refreshTokenFrom(c)
	if raw == "" {
		return apperror.Unauthorized(i18n.T(ctx, "refresh_token_missing"))
	}

	result, err := h.auth.Refresh(ctx, raw)
	if err != nil {
		if fromCookie && (errors.Is(err, auth.ErrInvalidRefreshToken) || errors.Is(err, auth.ErrUserNotFound)) {
			c.SetCookie(h.expiredCookie(RefreshTokenCookie, http.SameSiteStrictMode))
		}
		return authError(ctx, err, "password")
	}

	c.SetCookie(h.refreshCookie(result.Tokens, true))
	if _, err := c.Cookie(middleware.AccessTokenCookie); err == nil {
		c.SetCookie(h.accessCookie(result.Tokens))
	}
	return c.JSON(http.StatusOK, tokenBody(result))
}

// refreshTokenFrom returns the submitted refresh token and whether it came
// from the cookie.
func refreshTokenFrom(c echo.Context) (string, bool) {
	req := c.Request()
	if cookie, err := req.Cookie(RefreshTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	if v, ok := appcontext.ParsedBody(c)[RefreshTokenCookie].(string); ok && v != "" {
		return v, false
	}
	if m := bearerPattern.FindStringSubmatch(req.Header.Get(echo.HeaderAuthorization)); m != nil && !isJWT(m[1]) {
		return m[1], false
	}
	return "", false
}

// isJWT reports whether v has the three dot separated segments of a
// compact JWT. Refresh tokens are plain hex.
func isJWT(v string) bool {
	return strings.Count(v, ".") == 2
}

// Logout revokes the refresh token and clears the auth cookies.
func (h *AuthHandlers) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	var raw string
	if cookie, err := c.Cookie(RefreshTokenCookie); err == nil {
		raw = cookie.Value
	} else if v, ok := appcontext.ParsedBody(c)[RefreshTokenCookie].(string); ok {
		raw = v
	}
	if err := h.auth.Logout(ctx, raw); err != nil {
		slog.Error("logout_revoke_failed", "error", err)
	}

	c.SetCookie(h.expiredCookie(RefreshTokenCookie, http.SameSiteStrictMode))
	c.SetCookie(h.expiredCookie(middleware.AccessTokenCookie, http.SameSiteLaxMode))

	if middleware.WantsJSON(c) {
		return Success(c, http.StatusOK, i18n.T(ctx, "logout_success"), nil)
	}
	return redirectWithFlash(c, "/", "success", i18n.T(ctx, "logout_success"), nil)
}

// Me returns the authenticated user.
func (h *AuthHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := h.auth.CurrentUser(ctx, appcontext.UserClaims(c))
	if err != nil {
		return authError(ctx, err, "password")
	}
	return Success(c, http.StatusOK, "", map[string]any{"user": user})
}

// VerifyEmail consumes the token from a verification mail.
func (h *AuthHandlers) VerifyEmail(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.auth.VerifyEmail(ctx, c.QueryParam("token"))
	if err != nil {
		appErr := authError(ctx, err, "password")
		if middleware.WantsJSON(c) || isServerError(appErr) {
			return appErr
		}
		return redirectWithFlash(c, loginFormURL+"&error=verification", "error", appErr.Message, nil)
	}

	if middleware.WantsJSON(c) {
		return Success(c, http.StatusOK, i18n.T(ctx, "email_verified"), map[string]any{"user": user})
	}
	return redirectWithFlash(c, loginFormURL, "success", i18n.T(ctx, "email_verified"), nil)
}

func tokenBody(result *auth.LoginResult) map[string]any {
	return map[string]any{
		"success":      true,
		"access_token": result.Tokens.AccessToken,
		"token_type":   result.Tokens.TokenType,
		"expires_in":   result.Tokens.ExpiresIn,
		"user":         result.User,
	}
}

// refreshCookie returns the refresh token cookie. A non persistent cookie
// ends with the browser session.
func (h *AuthHandlers) refreshCookie(pair *auth.TokenPair, persistent bool) *http.Cookie {
	cookie := &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	}
	if persistent {
		cookie.Expires = pair.RefreshExpiresAt
		cookie.MaxAge = int(time.Until(pair.RefreshExpiresAt).Seconds())
	}
	return cookie
}

func (h *AuthHandlers) accessCookie(pair *auth.TokenPair) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   pair.ExpiresIn,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandlers) expiredCookie(name string, sameSite http.SameSite) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: sameSite,
	}
}

// authError maps auth service errors to HTTP errors. Password policy
// violations are reported on passwordField.
func authError(ctx context.Context, err error, passwordField string) *apperror.Error {
	var policy *auth.PasswordValidationError
	switch {
	case errors.As(err, &policy):
		appErr := apperror.Validation(map[string][]string{passwordField: policy.Messages()})
		appErr.Message = i18n.T(ctx, "validation_failed")
		return appErr
	case errors.Is(err, models.ErrInvalidEmail):
		return validationError(ctx, "email", "validation_email", nil)
	case errors.Is(err, auth.ErrInvalidCurrentPassword):
		appErr := apperror.Validation(map[string][]string{
			"current_password": {i18n.T(ctx, "invalid_current_password")},
		})
		appErr.Message = i18n.T(ctx, "invalid_current_password")
		return appErr
	case errors.Is(err, auth.ErrInvalidCredentials):
		return apperror.Unauthorized(i18n.T(ctx, "invalid_credentials"))
	case errors.Is(err, auth.ErrTooManyAttempts):
		return apperror.TooManyRequests(i18n.T(ctx, "too_many_attempts"))
	case errors.Is(err, auth.ErrUserExists):
		return apperror.Conflict(i18n.T(ctx, "user_exists"))
	case errors.Is(err, auth.ErrInvalidRefreshToken):
		return apperror.Unauthorized(i18n.T(ctx, "invalid_refresh_token"))
	case errors.Is(err, auth.ErrUserNotFound):
		return apperror.NotFound(i18n.T(ctx, "user_not_found"))
	case errors.Is(err, auth.ErrInvalidVerificationToken):
		return apperror.BadRequest(i18n.T(ctx, "invalid_verification_token"))
	}
	return apperror.Internal(i18n.T(ctx, "error_generic")).Wrap(err)
}
