// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/apperror"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/appcontext"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/htmx"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/i18n"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/validation"
	"github.com/labstack/echo/v4"
)

var validate = validation.New()

// Success writes the JSON success envelope. Empty message and nil data are
// left out.
func Success(c echo.Context, status int, message string, data any) error {
	body := map[string]any{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}

// Fail writes the JSON error envelope used by the error middleware.
func Fail(c echo.Context, status int, message string, fields map[string][]string) error {
	body := map[string]any{
		"success": false,
		"error":   message,
	}
	if len(fields) > 0 {
		body["message"] = message
		body["errors"] = fields
	}
	return c.JSON(status, body)
}

// bind decodes the request into dst and validates it. Messages are
// localized for the request locale.
func bind(c echo.Context, dst any) error {
	ctx := c.Request().Context()
	if err := c.Bind(dst); err != nil {
		return apperror.BadRequest(i18n.T(ctx, "invalid_request")).Wrap(err)
	}
	return validate.ValidateCtx(ctx, dst)
}

func validationError(ctx context.Context, field, messageID string, data map[string]any) *apperror.Error {
	if data == nil {
		data = map[string]any{}
	}
	data["Field"] = field
	appErr := apperror.Validation(map[string][]string{
		field: {i18n.TData(ctx, messageID, data)},
	})
	appErr.Message = i18n.T(ctx, "validation_failed")
	return appErr
}

// redirectWithFlash queues message under kind and redirects. Old input is
// kept so the form can be filled again.
func redirectWithFlash(c echo.Context, url, kind, message string, oldInput map[string]string) error {
	if s := appcontext.Session(c); s != nil {
		if message != "" {
			s.AddFlash(kind, message)
		}
		if oldInput != nil {
			s.SetOldInput(oldInput)
		}
	}
	htmx.Redirect(c.Response(), c.Request(), url)
	return nil
}

func isServerError(err error) bool {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr.Status >= http.StatusInternalServerError
	}
	return true
}
