// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth implements account registration, login and token rotation.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/models"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/repository"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/services/email"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/services/token"
	"golang.org/x/crypto/bcrypt"
)

const (
	// MaxFailedAttempts is the number of failed logins allowed per email
	// within AttemptWindow.
	MaxFailedAttempts = 5
	AttemptWindow     = time.Hour
	// RefreshTokenTTL is the lifetime of a refresh token.
	RefreshTokenTTL = 30 * 24 * time.Hour
	// DefaultBcryptCost is used for new password hashes.
	DefaultBcryptCost = 12

	refreshTokenBytes = 32
)

var (
	ErrUserExists               = errors.New("user already exists")
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrTooManyAttempts          = errors.New("too many failed login attempts")
	ErrInvalidRefreshToken      = errors.New("invalid refresh token")
	ErrUserNotFound             = errors.New("user not found")
	ErrInvalidVerificationToken = errors.New("invalid verification token")
	ErrInvalidCurrentPassword   = errors.New("current password is incorrect")
	ErrWeakPassword             = errors.New("password does not meet requirements")
)

// dummyHash is used for constant-time login to prevent timing attacks
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

// Mailer delivers verification mails.
type Mailer interface {
	SendVerification(ctx context.Context, to, name, token string) error
}

// TokenPair is handed to a client after login, refresh or password change.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"-"`
	TokenType        string    `json:"token_type"`
	ExpiresIn        int       `json:"expires_in"`
	RefreshExpiresAt time.Time `json:"-"`
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	User   *models.User
	Tokens *TokenPair
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
	IP       string
}

type Service struct {
	repo       *repository.Repository
	tokens     *token.Service
	mailer     Mailer
	passwords  *PasswordValidator
	now        func() time.Time
	bcryptCost int
}

// Option configures a Service.
type Option func(*Service)

// WithMailer enables verification mails after registration.
func WithMailer(m Mailer) Option {
	return func(s *Service) {
		s.mailer = m
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithBcryptCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

func NewService(repo *repository.Repository, tokens *token.Service, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		tokens:     tokens,
		passwords:  DefaultPasswordValidator(),
		now:        time.Now,
		bcryptCost: DefaultBcryptCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PasswordValidator returns the password validator for use in handlers
func (s *Service) PasswordValidator() *PasswordValidator {
	return s.passwords
}

// Register creates a new user account and sends a verification mail when a
// mailer is configured.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	addr, err := models.NewEmail(in.Email)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)

	if err := s.passwords.Validate(ctx, in.Password, name, addr.String(), addr.LocalPart()); err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(ctx, addr.String())
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        addr.String(),
		PasswordHash: string(passwordHash),
		Role:         models.RoleUser,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("register_success", "user_id", user.ID, "email", user.Email)

	if s.mailer != nil {
		if err := s.sendVerification(ctx, user); err != nil {
			// The account exists; the user can request a new mail later.
			slog.Error("verification_mail_failed", "user_id", user.ID, "error", err)
		}
	}

	return user, nil
}

func (s *Service) sendVerification(ctx context.Context, user *models.User) error {
	plaintext, hash, _, err := email.GenerateToken()
	if err != nil {
		return err
	}
	if err := s.repo.CreateEmailVerificationToken(ctx, user.ID, hash, s.now().UTC().Add(email.TokenExpiry)); err != nil {
		return fmt.Errorf("storing verification token: %w", err)
	}
	return s.mailer.SendVerification(ctx, user.Email, user.Name, plaintext)
}

// Login authenticates a user and issues a token pair.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	addr, err := models.NewEmail(in.Email)
	if err != nil {
		// Same timing as an unknown account.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(in.Password))
		return nil, ErrInvalidCredentials
	}

	failures, err := s.repo.CountFailedLoginAttempts(ctx, addr.String(), s.now().UTC().Add(-AttemptWindow))
	if err != nil {
		return nil, fmt.Errorf("counting login attempts: %w", err)
	}
	if failures >= MaxFailedAttempts {
		slog.Warn("login_blocked", "email", addr.String(), "ip", in.IP, "failures", failures)
		return nil, ErrTooManyAttempts
	}

	user, err := s.repo.GetUserByEmail(ctx, addr.String())
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(in.Password))
		s.recordAttempt(ctx, addr.String(), in.IP, false)
		slog.Warn("login_failed", "email", addr.String(), "ip", in.IP, "reason", "user_not_found")
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		s.recordAttempt(ctx, addr.String(), in.IP, false)
		slog.Warn("login_failed", "email", addr.String(), "ip", in.IP, "reason", "invalid_password")
		return nil, ErrInvalidCredentials
	}

	s.recordAttempt(ctx, addr.String(), in.IP, true)

	loginAt := s.now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, loginAt); err != nil {
		return nil, fmt.Errorf("updating last login: %w", err)
	}
	user.LastLogin = &loginAt

	pair, err := s.issueTokens(ctx, s.repo, user)
	if err != nil {
		return nil, err
	}

	slog.Info("login_success", "user_id", user.ID, "ip", in.IP)

	return &LoginResult{User: user, Tokens: pair}, nil
}

func (s *Service) recordAttempt(ctx context.Context, email, ip string, success bool) {
	if err := s.repo.RecordLoginAttempt(ctx, email, ip, success, s.now()); err != nil {
		slog.Error("login_attempt_not_recorded", "email", email, "error", err)
	}
}

// Refresh exchanges a valid refresh token for a new pair. The presented
// token is revoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	var result *LoginResult
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		stored, err := tx.GetValidRefreshToken(ctx, refreshToken)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidRefreshToken
		}
		if err != nil {
			return err
		}

		user, err := tx.GetUserByID(ctx, stored.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidRefreshToken
		}
		if err != nil {
			return err
		}

		if err := tx.DeleteRefreshToken(ctx, refreshToken); err != nil {
			return err
		}

		pair, err := s.issueTokens(ctx, tx, user)
		if err != nil {
			return err
		}
		result = &LoginResult{User: user, Tokens: pair}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Logout revokes a refresh token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.repo.DeleteRefreshToken(ctx, refreshToken)
}

// CurrentUser loads the user an access token was issued for.
func (s *Service) CurrentUser(ctx context.Context, claims *token.Claims) (*models.User, error) {
	if claims == nil {
		return nil, ErrUserNotFound
	}
	return s.getUser(ctx, claims.UserID)
}

// UpdateProfile changes the display name.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, name string) (*models.User, error) {
	if err := s.repo.UpdateUserProfile(ctx, userID, strings.TrimSpace(name)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.getUser(ctx, userID)
}

// ChangePassword verifies the current password, stores the new hash,
// revokes every refresh token of the user and issues a fresh pair.
func (s *Service) ChangePassword(ctx context.Context, userID int64, current, next string) (*TokenPair, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return nil, ErrInvalidCurrentPassword
	}

	if err := s.passwords.Validate(ctx, next, user.Name, user.Email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var pair *TokenPair
	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.UpdateUserPassword(ctx, userID, string(hash)); err != nil {
			return err
		}
		if err := tx.DeleteUserRefreshTokens(ctx, userID); err != nil {
			return err
		}
		pair, err = s.issueTokens(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("password_changed", "user_id", userID)
	return pair, nil
}

// VerifyEmail consumes a verification token and marks the address verified.
func (s *Service) VerifyEmail(ctx context.Context, plaintext string) (*models.User, error) {
	if plaintext == "" {
		return nil, ErrInvalidVerificationToken
	}

	var user *models.User
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		stored, err := tx.GetEmailVerificationToken(ctx, email.HashToken(plaintext))
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidVerificationToken
		}
		if err != nil {
			return err
		}

		if !stored.ExpiresAt.After(s.now()) {
			_ = tx.DeleteEmailVerificationToken(ctx, stored.ID)
			return ErrInvalidVerificationToken
		}

		if err := tx.MarkEmailVerified(ctx, stored.UserID); err != nil {
			return err
		}
		if err := tx.DeleteUserEmailVerificationTokens(ctx, stored.UserID); err != nil {
			return err
		}

		user, err = tx.GetUserByID(ctx, stored.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("email_verified", "user_id", user.ID)
	return user, nil
}

// CleanupExpired removes expired refresh tokens.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredRefreshTokens(ctx)
}

func (s *Service) getUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *Service) issueTokens(ctx context.Context, repo *repository.Repository, user *models.User) (*TokenPair, error) {
	access, err := s.tokens.Generate(token.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("generating access token: %w", err)
	}

	refresh, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}

	stored, err := repo.CreateRefreshToken(ctx, user.ID, refresh, s.now().UTC().Add(RefreshTokenTTL))
	if err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "Bearer",
		ExpiresIn:        int(s.tokens.Expiration().Seconds()),
		RefreshExpiresAt: stored.ExpiresAt,
	}, nil
}

func generateRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
