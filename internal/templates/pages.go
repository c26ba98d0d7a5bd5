// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package templates

import (
	"context"
	"fmt"
	"net/http"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/models"
	"github.com/a-h/templ"
)

// Tabs of the login page.
const (
	TabLogin    = "login"
	TabRegister = "register"
)

// AuthPageData is rendered by AuthPage.
type AuthPageData struct {
	Tab      string
	Errors   []string
	Success  []string
	OldInput map[string]string
}

// DashboardData is rendered by Dashboard.
type DashboardData struct {
	User     *models.User
	Payments []models.StripeSession
	Success  []string
}

// AuthPage renders the combined login and registration page. Unknown tabs
// fall back to the login form.
func AuthPage(data AuthPageData) templ.Component {
	if data.Tab != TabRegister {
		data.Tab = TabLogin
	}
	if data.OldInput == nil {
		data.OldInput = map[string]string{}
	}
	return authPage(data)
}

func authTitle(ctx context.Context, tab string) string {
	if tab == TabRegister {
		return T(ctx, "register_title")
	}
	return T(ctx, "login_title")
}

func errorText(ctx context.Context, status int, message string) string {
	switch status {
	case http.StatusForbidden:
		return T(ctx, "error_403")
	case http.StatusNotFound:
		return T(ctx, "error_404")
	}
	if message == "" || message == http.StatusText(http.StatusInternalServerError) {
		return T(ctx, "error_500")
	}
	return message
}

func formatAmount(amount float64, currency string) string {
	if currency == "" || currency == "eur" {
		return fmt.Sprintf("€ %.2f", amount)
	}
	return fmt.Sprintf("%.2f %s", amount, currency)
}
