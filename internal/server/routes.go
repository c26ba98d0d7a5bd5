// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"net/http"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/assets"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/handlers"
	"github.com/labstack/echo/v4"
)

// Route binds a method and path to a handler.
type Route struct {
	Method  string
	Path    string
	Handler echo.HandlerFunc
}

// routes returns the route table. Stripe endpoints are served under both
// /stripe and /api/stripe.
func routes(deps Deps) []Route {
	cfg := deps.Config
	secure := cfg.SecureCookies()

	h := handlers.New(deps.Repo, deps.CSRF)
	authH := handlers.NewAuth(deps.Auth, secure)
	users := handlers.NewUsers(deps.Auth, secure)
	stripeH := handlers.NewStripe(deps.Billing, cfg.Stripe)

	static := echo.WrapHandler(http.StripPrefix("/static/", assets.FileServer()))

	table := []Route{
		// Pages
		{http.MethodGet, "/", h.Home},
		{http.MethodGet, "/login", h.LoginPage},
		{http.MethodGet, "/dashboard", h.Dashboard},
		{http.MethodGet, "/static/*", static},

		// Health
		{http.MethodGet, "/health", h.Health},
		{http.MethodGet, "/api/health", h.APIHealth},
		{http.MethodGet, "/api/csrf-token", h.CSRFToken},

		// Auth
		{http.MethodPost, "/auth/login", authH.Login},
		{http.MethodPost, "/auth/register", authH.Register},
		{http.MethodPost, "/auth/refresh", authH.Refresh},
		{http.MethodPost, "/auth/logout", authH.Logout},
		{http.MethodGet, "/auth/me", authH.Me},
		{http.MethodGet, "/auth/verify-email", authH.VerifyEmail},

		// Users
		{http.MethodGet, "/api/users/profile", users.Profile},
		{http.MethodPut, "/api/users/profile", users.UpdateProfile},
		{http.MethodPut, "/api/users/password", users.ChangePassword},

		{http.MethodPost, "/api/stripe/payment-intent", stripeH.PaymentIntent},
	}

	for _, prefix := range []string{"/stripe", "/api/stripe"} {
		table = append(table,
			Route{http.MethodPost, prefix + "/checkout", stripeH.Checkout},
			Route{http.MethodGet, prefix + "/status/:id", stripeH.Status},
			Route{http.MethodPost, prefix + "/webhook", stripeH.Webhook},
			Route{http.MethodGet, prefix + "/config", stripeH.Config},
		)
	}

	return table
}
