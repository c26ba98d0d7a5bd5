// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"github.com/JuliaLoth/slimmermetai-sub004/internal/templates"
	"github.com/labstack/echo/v4"
)

// RenderError renders the HTML error page. It is used by the error
// middleware for browser clients.
func RenderError(c echo.Context, status int, message string) error {
	return Render(c, status, templates.ErrorPage(status, message))
}
