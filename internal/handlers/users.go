// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/apperror"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/appcontext"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/i18n"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/services/auth"
	"github.com/labstack/echo/v4"
)

// UserHandlers serves the /api/users endpoints.
type UserHandlers struct {
	auth    *auth.Service
	cookies *AuthHandlers
}

// NewUsers creates a new UserHandlers instance.
func NewUsers(svc *auth.Service, secure bool) *UserHandlers {
	return &UserHandlers{auth: svc, cookies: NewAuth(svc, secure)}
}

type profileRequest struct {
	Name string `json:"name" form:"name" validate:"required,max=100"`
}

type passwordRequest struct {
	CurrentPassword    string `json:"current_password" form:"current_password" validate:"required"`
	NewPassword        string `json:"new_password" form:"new_password" validate:"required,min=8"`
	NewPasswordConfirm string `json:"new_password_confirm" form:"new_password_confirm" validate:"required,eqfield=NewPassword"`
}

// Profile returns the profile of the authenticated user.
func (h *UserHandlers) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := h.auth.CurrentUser(ctx, appcontext.UserClaims(c))
	if err != nil {
		return authError(ctx, err, "password")
	}
	return Success(c, http.StatusOK, "", map[string]any{"user": user})
}

// UpdateProfile changes the display name.
func (h *UserHandlers) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	claims := appcontext.UserClaims(c)
	if claims == nil {
		return apperror.Unauthorized("")
	}

	var req profileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.auth.UpdateProfile(ctx, claims.UserID, req.Name)
	if err != nil {
		return authError(ctx, err, "password")
	}
	return Success(c, http.StatusOK, i18n.T(ctx, "profile_updated"), map[string]any{"user": user})
}

// ChangePassword replaces the password. Every other session is signed out;
// the caller receives a fresh token pair.
func (h *UserHandlers) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	claims := appcontext.UserClaims(c)
	if claims == nil {
		return apperror.Unauthorized("")
	}

	var req passwordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	pair, err := h.auth.ChangePassword(ctx, claims.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return authError(ctx, err, "new_password")
	}

	c.SetCookie(h.cookies.refreshCookie(pair, true))
	return Success(c, http.StatusOK, i18n.T(ctx, "password_changed"), map[string]any{
		"access_token": pair.AccessToken,
		"token_type":   pair.TokenType,
		"expires_in":   pair.ExpiresIn,
	})
}
