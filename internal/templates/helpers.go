// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package templates holds the HTML views as templ components.
package templates

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.977 generate

import (
	"context"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/appcontext"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/assets"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/i18n"
)

// CSRFToken returns the CSRF token from the context.
func CSRFToken(ctx context.Context) string {
	return appcontext.CSRFTokenFrom(ctx)
}

// T translates a message by ID.
func T(ctx context.Context, messageID string) string {
	return i18n.T(ctx, messageID)
}

// TData translates a message with template data.
func TData(ctx context.Context, messageID string, data map[string]any) string {
	return i18n.TData(ctx, messageID, data)
}

// Locale returns the current locale.
func Locale(ctx context.Context) string {
	return i18n.GetLocale(ctx)
}

// CSSPath returns the path to the versioned stylesheet.
func CSSPath(_ context.Context) string {
	return assets.CSSPath()
}

// IsAuthenticated reports whether the request carried a valid access token.
func IsAuthenticated(ctx context.Context) bool {
	return appcontext.ClaimsFrom(ctx) != nil
}

// pageTitle suffixes title with the application name.
func pageTitle(ctx context.Context, title string) string {
	if title == "" {
		return T(ctx, "app_name")
	}
	return title + " | " + T(ctx, "app_name")
}
