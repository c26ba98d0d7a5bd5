// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"time"

	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

// DefaultPaths returns the path lists used when none are configured.
func DefaultPaths() PathPolicy {
	return PathPolicy{
		CSRFExclude: []string{
			"/api",
			"/stripe/webhook",
			"/stripe/checkout",
			"/auth/login",
			"/auth/register",
			"/auth/forgot-password",
		},
		AuthPublic: []string{
			"/",
			"/login",
			"/register",
			"/auth/login",
			"/auth/register",
			"/auth/refresh",
			"/auth/logout",
			"/auth/verify-email",
			"/auth/forgot-password",
			"/nieuws",
			"/over-mij",
			"/forgot-password",
			"/betaling-succes",
			"/betaling-voltooid",
			"/login-success",
			"/health",
			"/static",
			"/api/health",
			"/api/csrf-token",
			"/stripe/config",
			"/stripe/webhook",
			"/api/stripe/config",
			"/api/stripe/webhook",
		},
		RateLimitExempt: []string{
			"/api/stripe/webhook",
			"/api/health",
			"/api/status",
		},
		LoginRoute: "/login",
	}
}

func Flags() []cli.Flag {
	paths := DefaultPaths()

	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: cli.NewValueSourceChain(cli.EnvVar("HOST"), toml.TOML("server.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PORT"), toml.TOML("server.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Base URL for the application",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BASE_URL"), toml.TOML("server.base_url", configFile)),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   2,
			Usage:   "Maximum request body size in MB",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAX_BODY_SIZE"), toml.TOML("server.max_body_size", configFile)),
		},
		&cli.StringFlag{
			Name:    "app-env",
			Value:   "production",
			Usage:   "Application environment (production, staging, development, local)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("APP_ENV"), toml.TOML("app.env", configFile)),
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "Expose error details in responses",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DEBUG_MODE"), toml.TOML("app.debug", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_LEVEL"), toml.TOML("log.level", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_FORMAT"), toml.TOML("log.format", configFile)),
		},
		// Database flags
		&cli.StringFlag{
			Name:    "db-driver",
			Value:   "sqlite",
			Usage:   "Database driver (sqlite, mysql)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DB_DRIVER"), toml.TOML("database.driver", configFile)),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/slimmermetai.db",
			Usage:   "Database DSN (for mysql leave empty to build it from DB_HOST etc.)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_DSN"), toml.TOML("database.dsn", configFile)),
		},
		&cli.StringFlag{
			Name:    "db-host",
			Value:   "127.0.0.1",
			Usage:   "MySQL host",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DB_HOST"), toml.TOML("database.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "db-port",
			Value:   3306,
			Usage:   "MySQL port",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DB_PORT"), toml.TOML("database.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "db-name",
			Value:   "slimmermetai",
			Usage:   "MySQL database name",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DB_NAME"), toml.TOML("database.name", configFile)),
		},
		&cli.StringFlag{
			Name:    "db-user",
			Usage:   "MySQL user",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DB_USER"), toml.TOML("database.user", configFile)),
		},
		&cli.StringFlag{
			Name:    "db-pass",
			Usage:   "MySQL password",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DB_PASS"), toml.TOML("database.password", configFile)),
		},
		// JWT flags
		&cli.StringFlag{
			Name:    "jwt-secret",
			Usage:   "HMAC secret for access tokens (auto-generated if empty outside production)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("JWT_SECRET"), toml.TOML("jwt.secret", configFile)),
		},
		&cli.IntFlag{
			Name:    "jwt-expiration",
			Value:   3600,
			Usage:   "Access token lifetime in seconds",
			Sources: cli.NewValueSourceChain(cli.EnvVar("JWT_EXPIRATION"), toml.TOML("jwt.expiration", configFile)),
		},
		// Session flags
		&cli.StringFlag{
			Name:    "session-cookie-name",
			Value:   "smai_session",
			Usage:   "Session cookie name",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_COOKIE_NAME"), toml.TOML("session.cookie_name", configFile)),
		},
		&cli.IntFlag{
			Name:    "session-max-age",
			Value:   7200,
			Usage:   "Session max age in seconds",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_MAX_AGE"), toml.TOML("session.max_age", configFile)),
		},
		&cli.StringFlag{
			Name:    "session-hash-key",
			Usage:   "Session hash key (32-byte hex, auto-generated if empty in dev)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_HASH_KEY"), toml.TOML("session.hash_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "session-block-key",
			Usage:   "Session block key for encryption (32-byte hex, optional)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_BLOCK_KEY"), toml.TOML("session.block_key", configFile)),
		},
		&cli.DurationFlag{
			Name:    "csrf-lifetime",
			Value:   2 * time.Hour,
			Usage:   "Lifetime of a session CSRF token",
			Sources: cli.NewValueSourceChain(cli.EnvVar("CSRF_LIFETIME"), toml.TOML("csrf.lifetime", configFile)),
		},
		// Rate limiting flags
		&cli.IntFlag{
			Name:    "rate-limit-max-requests",
			Value:   100,
			Usage:   "Maximum API requests per client and window",
			Sources: cli.NewValueSourceChain(cli.EnvVar("RATE_LIMIT_MAX_REQUESTS"), toml.TOML("rate_limit.max_requests", configFile)),
		},
		&cli.IntFlag{
			Name:    "rate-limit-window-seconds",
			Value:   3600,
			Usage:   "Rate limit window in seconds",
			Sources: cli.NewValueSourceChain(cli.EnvVar("RATE_LIMIT_WINDOW_SECONDS"), toml.TOML("rate_limit.window_seconds", configFile)),
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL for shared rate limit counters (e.g. redis://localhost:6379/0)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("RATE_LIMIT_REDIS_URL"), cli.EnvVar("REDIS_URL"), toml.TOML("rate_limit.redis_url", configFile)),
		},
		&cli.StringSliceFlag{
			Name:    "rate-limit-exempt-paths",
			Value:   paths.RateLimitExempt,
			Usage:   "API paths that are never rate limited",
			Sources: cli.NewValueSourceChain(cli.EnvVar("RATE_LIMIT_EXEMPT_PATHS"), toml.TOML("paths.rate_limit_exempt", configFile)),
		},
		&cli.StringSliceFlag{
			Name:    "csrf-exclude-paths",
			Value:   paths.CSRFExclude,
			Usage:   "Path prefixes that skip CSRF validation",
			Sources: cli.NewValueSourceChain(cli.EnvVar("CSRF_EXCLUDE_PATHS"), toml.TOML("paths.csrf_exclude", configFile)),
		},
		&cli.StringSliceFlag{
			Name:    "auth-public-paths",
			Value:   paths.AuthPublic,
			Usage:   "Paths reachable without a bearer token (\"/\" matches exactly, others by prefix)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("AUTH_PUBLIC_PATHS"), toml.TOML("paths.auth_public", configFile)),
		},
		&cli.StringFlag{
			Name:    "login-route",
			Value:   paths.LoginRoute,
			Usage:   "Where unauthenticated browsers are redirected",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOGIN_ROUTE"), toml.TOML("paths.login_route", configFile)),
		},
		// CORS flags
		&cli.StringFlag{
			Name:    "cors-allow-origin",
			Value:   "*",
			Usage:   "Access-Control-Allow-Origin value",
			Sources: cli.NewValueSourceChain(cli.EnvVar("CORS_ALLOW_ORIGIN"), toml.TOML("cors.allow_origin", configFile)),
		},
		&cli.StringSliceFlag{
			Name:    "cors-allow-methods",
			Value:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			Usage:   "Access-Control-Allow-Methods values",
			Sources: cli.NewValueSourceChain(cli.EnvVar("CORS_ALLOW_METHODS"), toml.TOML("cors.allow_methods", configFile)),
		},
		&cli.StringSliceFlag{
			Name:    "cors-allow-headers",
			Value:   []string{"Content-Type", "Authorization", "X-CSRF-Token"},
			Usage:   "Access-Control-Allow-Headers values",
			Sources: cli.NewValueSourceChain(cli.EnvVar("CORS_ALLOW_HEADERS"), toml.TOML("cors.allow_headers", configFile)),
		},
		// Stripe flags
		&cli.StringFlag{
			Name:    "stripe-secret-key",
			Usage:   "Stripe secret API key",
			Sources: cli.NewValueSourceChain(cli.EnvVar("STRIPE_SECRET_KEY"), toml.TOML("stripe.secret_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "stripe-public-key",
			Usage:   "Stripe publishable key",
			Sources: cli.NewValueSourceChain(cli.EnvVar("STRIPE_PUBLIC_KEY"), toml.TOML("stripe.public_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "stripe-webhook-secret",
			Usage:   "Stripe webhook signing secret",
			Sources: cli.NewValueSourceChain(cli.EnvVar("STRIPE_WEBHOOK_SECRET"), toml.TOML("stripe.webhook_secret", configFile)),
		},
		&cli.StringFlag{
			Name:    "stripe-success-url",
			Usage:   "Default checkout success URL (defaults to <base-url>/betaling-succes)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("STRIPE_SUCCESS_URL"), toml.TOML("stripe.success_url", configFile)),
		},
		&cli.StringFlag{
			Name:    "stripe-cancel-url",
			Usage:   "Default checkout cancel URL (defaults to <base-url>/winkelwagen)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("STRIPE_CANCEL_URL"), toml.TOML("stripe.cancel_url", configFile)),
		},
		// SMTP flags
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP host (mail is disabled when empty)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_HOST"), toml.TOML("smtp.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP port",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PORT"), toml.TOML("smtp.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-user",
			Usage:   "SMTP username",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_USER"), toml.TOML("smtp.username", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-pass",
			Usage:   "SMTP password",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PASS"), toml.TOML("smtp.password", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Value:   "noreply@slimmermetai.com",
			Usage:   "Sender address",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM"), toml.TOML("smtp.from", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Value:   "SlimmerMetAI",
			Usage:   "Sender display name",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM_NAME"), toml.TOML("smtp.from_name", configFile)),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_TLS"), toml.TOML("smtp.tls", configFile)),
		},
	}
}
