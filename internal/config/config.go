// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server    ServerConfig
	App       AppConfig
	Log       LogConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Session   SessionConfig
	CSRF      CSRFConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Stripe    StripeConfig
	SMTP      SMTPConfig
	Paths     PathPolicy
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int // in MB
}

type AppConfig struct {
	Env   string // production, staging, development, local
	Debug bool
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Driver   string // sqlite, mysql
	DSN      string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type SessionConfig struct { //nolint:govet // fieldalignment not critical
	CookieName string // Session cookie name
	MaxAge     int    // Session max age in seconds
	HashKey    string // 32-byte hex string for HMAC signing
	BlockKey   string // 32-byte hex string for AES encryption (optional)
}

type CSRFConfig struct {
	Lifetime time.Duration
}

type RateLimitConfig struct { //nolint:govet // fieldalignment not critical
	MaxRequests int
	Window      time.Duration
	RedisURL    string // empty means in-process counters
}

type CORSConfig struct {
	AllowOrigin  string
	AllowMethods []string
	AllowHeaders []string
}

type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
	SuccessURL     string
	CancelURL      string
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

// Enabled reports whether outgoing mail is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

// PathPolicy holds every path list the middleware pipeline consults.
// The lists are independent but declared together so a new route is
// reviewed against all of them at once.
type PathPolicy struct {
	CSRFExclude     []string
	AuthPublic      []string
	RateLimitExempt []string
	LoginRoute      string
}

// IsProduction reports whether the app runs with production safeguards.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}

// IsLocalEnv reports whether the app runs in a local or development env.
func (c *Config) IsLocalEnv() bool {
	switch strings.ToLower(c.App.Env) {
	case "local", "development", "dev":
		return true
	}
	return false
}

// SecureCookies reports whether cookies should carry the Secure attribute.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.Server.BaseURL, "https://")
}

// DriverAndDSN returns the database driver name and DSN.
// For MySQL without an explicit DSN the DSN is assembled from the DB_* settings.
func (c DatabaseConfig) DriverAndDSN() (string, string) {
	driver := strings.ToLower(c.Driver)
	if driver == "" {
		driver = "sqlite"
	}
	if driver != "mysql" || c.DSN != "" {
		return driver, c.DSN
	}

	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = c.Host + ":" + strconv.Itoa(c.Port)
	mc.DBName = c.Name
	mc.ParseTime = true
	mc.ClientFoundRows = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return driver, mc.FormatDSN()
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		App: AppConfig{
			Env:   cmd.String("app-env"),
			Debug: cmd.Bool("debug"),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			Driver:   cmd.String("db-driver"),
			DSN:      cmd.String("database-dsn"),
			Host:     cmd.String("db-host"),
			Port:     int(cmd.Int("db-port")),
			Name:     cmd.String("db-name"),
			User:     cmd.String("db-user"),
			Password: cmd.String("db-pass"),
		},
		JWT: JWTConfig{
			Secret:     cmd.String("jwt-secret"),
			Expiration: time.Duration(cmd.Int("jwt-expiration")) * time.Second,
		},
		Session: SessionConfig{
			CookieName: cmd.String("session-cookie-name"),
			MaxAge:     int(cmd.Int("session-max-age")),
			HashKey:    cmd.String("session-hash-key"),
			BlockKey:   cmd.String("session-block-key"),
		},
		CSRF: CSRFConfig{
			Lifetime: cmd.Duration("csrf-lifetime"),
		},
		RateLimit: RateLimitConfig{
			MaxRequests: int(cmd.Int("rate-limit-max-requests")),
			Window:      time.Duration(cmd.Int("rate-limit-window-seconds")) * time.Second,
			RedisURL:    cmd.String("redis-url"),
		},
		CORS: CORSConfig{
			AllowOrigin:  cmd.String("cors-allow-origin"),
			AllowMethods: cmd.StringSlice("cors-allow-methods"),
			AllowHeaders: cmd.StringSlice("cors-allow-headers"),
		},
		Stripe: StripeConfig{
			SecretKey:      cmd.String("stripe-secret-key"),
			PublishableKey: cmd.String("stripe-public-key"),
			WebhookSecret:  cmd.String("stripe-webhook-secret"),
			SuccessURL:     cmd.String("stripe-success-url"),
			CancelURL:      cmd.String("stripe-cancel-url"),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-user"),
			Password: cmd.String("smtp-pass"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
		},
		Paths: PathPolicy{
			CSRFExclude:     cmd.StringSlice("csrf-exclude-paths"),
			AuthPublic:      cmd.StringSlice("auth-public-paths"),
			RateLimitExempt: cmd.StringSlice("rate-limit-exempt-paths"),
			LoginRoute:      cmd.String("login-route"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}
	applyStripeDefaults(cfg)

	return cfg
}

// Validate rejects configurations that must not reach production.
func (c *Config) Validate() error {
	if !c.IsProduction() {
		return nil
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.Session.HashKey == "" {
		return fmt.Errorf("SESSION_HASH_KEY is required in production")
	}
	return nil
}

func applyStripeDefaults(cfg *Config) {
	if cfg.Stripe.SuccessURL == "" {
		cfg.Stripe.SuccessURL = cfg.Server.BaseURL + "/betaling-succes"
	}
	if cfg.Stripe.CancelURL == "" {
		cfg.Stripe.CancelURL = cfg.Server.BaseURL + "/winkelwagen"
	}
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	port := cfg.Server.Port

	// TLS terminates at the reverse proxy in front of remote hosts.
	scheme := "https"
	if IsLocalhost(host) {
		scheme = "http"
	}

	if (scheme == "http" && port == 80) || scheme == "https" {
		return fmt.Sprintf("%s://%s", scheme, host)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}

// IsLocalhost checks if the host is a localhost address.
func IsLocalhost(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	// Check for *.localhost subdomains (e.g., app.localhost)
	return strings.HasSuffix(host, ".localhost")
}
