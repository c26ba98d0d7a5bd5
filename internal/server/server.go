// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires configuration, services and the HTTP pipeline
// together and runs the application.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/config"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/csrf"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/database"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/i18n"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/repository"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/services/auth"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/services/billing"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/services/email"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/services/ratelimit"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/services/session"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/services/token"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
)

const (
	shutdownTimeout = 10 * time.Second
	janitorInterval = 15 * time.Minute
)

// Deps holds everything the HTTP layer needs.
type Deps struct {
	Config   *config.Config
	Repo     *repository.Repository
	Tokens   *token.Service
	Sessions *session.Manager
	CSRF     *csrf.Protection
	Auth     *auth.Service
	Billing  *billing.Service
	Limiter  ratelimit.Limiter
}

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return err
	}

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
		"env", cfg.App.Env,
	)

	// Database, migrations run on open
	driver, dsn := cfg.Database.DriverAndDSN()
	db, err := database.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	deps, cleanup, err := buildDeps(ctx, cfg, repository.New(db))
	if err != nil {
		return err
	}
	defer cleanup()

	e := New(deps)

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go runJanitor(janitorCtx, deps)

	return startWithGracefulShutdown(e, cfg)
}

// buildDeps creates the services. The returned cleanup releases
// external connections.
func buildDeps(ctx context.Context, cfg *config.Config, repo *repository.Repository) (Deps, func(), error) {
	secret := cfg.JWT.Secret
	if secret == "" {
		generated, err := randomSecret()
		if err != nil {
			return Deps{}, nil, err
		}
		secret = generated
		slog.Warn("JWT secret not configured, generated a random one; tokens will not survive restarts")
	}

	tokens, err := token.NewService(secret, cfg.JWT.Expiration)
	if err != nil {
		return Deps{}, nil, fmt.Errorf("failed to create token service: %w", err)
	}

	sessions, err := session.NewManager(&cfg.Session, cfg.SecureCookies(), repo)
	if err != nil {
		return Deps{}, nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	var authOpts []auth.Option
	if cfg.SMTP.Enabled() {
		mailer, mailErr := email.NewService(&cfg.SMTP, cfg.Server.BaseURL)
		if mailErr != nil {
			return Deps{}, nil, fmt.Errorf("failed to create email service: %w", mailErr)
		}
		authOpts = append(authOpts, auth.WithMailer(mailer))
	} else {
		slog.Info("smtp not configured, verification mails are disabled")
	}

	cleanup := func() {}
	limitCfg := ratelimit.Config{
		MaxRequests: cfg.RateLimit.MaxRequests,
		Window:      cfg.RateLimit.Window,
	}
	var limiter ratelimit.Limiter
	if cfg.RateLimit.RedisURL != "" {
		redisLimiter, redisErr := ratelimit.NewRedisFromURL(ctx, cfg.RateLimit.RedisURL, limitCfg)
		if redisErr != nil {
			return Deps{}, nil, fmt.Errorf("failed to connect to redis: %w", redisErr)
		}
		limiter = redisLimiter
		cleanup = func() {
			if closeErr := redisLimiter.Close(); closeErr != nil {
				slog.Error("failed to close redis", "error", closeErr)
			}
		}
	} else {
		limiter = ratelimit.NewMemory(limitCfg)
	}

	return Deps{
		Config:   cfg,
		Repo:     repo,
		Tokens:   tokens,
		Sessions: sessions,
		CSRF:     csrf.New(cfg.CSRF.Lifetime, cfg.SecureCookies()),
		Auth:     auth.NewService(repo, tokens, authOpts...),
		Billing:  billing.NewService(cfg.Stripe, cfg.App.Env, repo),
		Limiter:  limiter,
	}, cleanup, nil
}

// New builds the echo instance with middleware and routes.
func New(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e, deps)
	for _, r := range routes(deps) {
		e.Add(r.Method, r.Path, r.Handler)
	}
	return e
}

// runJanitor purges expired sessions, refresh tokens and idle rate
// limit counters until ctx is done.
func runJanitor(ctx context.Context, deps Deps) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep(ctx, deps)
		}
	}
}

func sweep(ctx context.Context, deps Deps) {
	if n, err := deps.Repo.DeleteExpiredSessions(ctx); err != nil {
		slog.Error("failed to delete expired sessions", "error", err)
	} else if n > 0 {
		slog.Debug("deleted expired sessions", "count", n)
	}

	if n, err := deps.Auth.CleanupExpired(ctx); err != nil {
		slog.Error("failed to delete expired refresh tokens", "error", err)
	} else if n > 0 {
		slog.Debug("deleted expired refresh tokens", "count", n)
	}

	if mem, ok := deps.Limiter.(*ratelimit.MemoryLimiter); ok {
		mem.Cleanup()
	}
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	// TLS terminates at the reverse proxy.
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
