// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers contains the HTTP handlers for pages and the JSON API.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/appcontext"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/csrf"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/htmx"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/i18n"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/middleware"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/repository"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/templates"
	"github.com/labstack/echo/v4"
)

// Error codes of the login page query string.
var loginErrorMessages = map[string]string{
	"validation":        "error_validation",
	"credentials":       "invalid_credentials",
	"too_many_attempts": "too_many_attempts",
	"registration":      "error_generic",
	"verification":      "invalid_verification_token",
}

// Handlers contains the page and health handlers.
type Handlers struct {
	repo *repository.Repository
	csrf *csrf.Protection
}

// New creates a new Handlers instance.
func New(repo *repository.Repository, protection *csrf.Protection) *Handlers {
	return &Handlers{repo: repo, csrf: protection}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// APIHealth reports whether the database answers.
func (h *Handlers) APIHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := h.repo.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":   "error",
			"database": "unavailable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":   "ok",
		"database": "ok",
	})
}

// CSRFToken hands out the session CSRF token for script clients.
func (h *Handlers) CSRFToken(c echo.Context) error {
	token, err := middleware.EnsureCSRFToken(c, h.csrf, false)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{
		csrf.FieldName: token,
	})
}

// Home renders the home page.
func (h *Handlers) Home(c echo.Context) error {
	if err := h.prepareForm(c); err != nil {
		return err
	}
	return Render(c, http.StatusOK, templates.Home())
}

// LoginPage renders the login and registration tabs with the flash
// messages of a previous submission.
func (h *Handlers) LoginPage(c echo.Context) error {
	if appcontext.IsAuthenticated(c) {
		htmx.Redirect(c.Response(), c.Request(), "/dashboard")
		return nil
	}
	if err := h.prepareForm(c); err != nil {
		return err
	}

	data := templates.AuthPageData{Tab: c.QueryParam("tab")}
	if s := appcontext.Session(c); s != nil {
		data.Errors = s.Flashes("error")
		data.Success = s.Flashes("success")
		data.OldInput = s.OldInput()
	}
	if len(data.Errors) == 0 {
		if id, ok := loginErrorMessages[c.QueryParam("error")]; ok {
			data.Errors = []string{i18n.T(c.Request().Context(), id)}
		}
	}

	return Render(c, http.StatusOK, templates.AuthPage(data))
}

// Dashboard renders the account overview of the authenticated user.
func (h *Handlers) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	claims := appcontext.UserClaims(c)
	if claims == nil {
		htmx.Redirect(c.Response(), c.Request(), "/login")
		return nil
	}
	if err := h.prepareForm(c); err != nil {
		return err
	}

	user, err := h.repo.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		htmx.Redirect(c.Response(), c.Request(), "/login")
		return nil
	}
	if err != nil {
		return err
	}

	payments, err := h.repo.ListStripeSessionsByUser(ctx, user.ID)
	if err != nil {
		return err
	}

	data := templates.DashboardData{User: user, Payments: payments}
	if s := appcontext.Session(c); s != nil {
		data.Success = s.Flashes("success")
	}
	return Render(c, http.StatusOK, templates.Dashboard(data))
}

// prepareForm makes the CSRF token available to forms on the page.
func (h *Handlers) prepareForm(c echo.Context) error {
	if h.csrf == nil || appcontext.Session(c) == nil {
		return nil
	}
	_, err := middleware.EnsureCSRFToken(c, h.csrf, false)
	return err
}
