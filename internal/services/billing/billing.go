// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package billing wraps Stripe checkout sessions, payment intents and
// webhook verification.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/config"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/models"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/repository"
	"github.com/stripe/stripe-go/v82"
)

const (
	DefaultCurrency    = "eur"
	DefaultDescription = "Betaling aan SlimmerMetAI"
	MockSessionPrefix  = "cs_test_mock_"
)

var (
	ErrNotConfigured        = errors.New("Stripe API key ontbreekt of is ongeldig")
	ErrWebhookNotConfigured = errors.New("Stripe webhook secret ontbreekt")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrNoLineItems          = errors.New("no line items")
	ErrInvalidAmount        = errors.New("amount must be positive")
)

var secretKeyPattern = regexp.MustCompile(`^sk_(test|live)_[a-zA-Z0-9]{24,}$`)

// IsValidSecretKey reports whether key looks like a real Stripe secret key.
func IsValidSecretKey(key string) bool {
	return secretKeyPattern.MatchString(key)
}

// LineItem is one product in a checkout. Amount is the unit price in euros.
type LineItem struct {
	Name        string  `json:"name" validate:"required,max=250"`
	Description string  `json:"description" validate:"max=500"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Quantity    int64   `json:"quantity" validate:"omitempty,min=1"`
}

// CheckoutOptions carries optional checkout session fields.
type CheckoutOptions struct {
	UserID            *int64
	CustomerEmail     string
	ClientReferenceID string
	Metadata          map[string]string
}

// CheckoutSession is what a client needs to redirect to Stripe.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PaymentStatus summarizes a checkout session. AmountTotal is in euros and
// nil when Stripe reports no amount.
type PaymentStatus struct {
	ID          string   `json:"id"`
	Status      string   `json:"status"`
	AmountTotal *float64 `json:"amount_total"`
	Currency    string   `json:"currency,omitempty"`
}

// PaymentIntent is the client-facing part of a Stripe payment intent.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
	Description  string `json:"description,omitempty"`
}

type Service struct {
	repo          *repository.Repository
	gateway       Gateway
	webhookSecret string
	mock          bool
}

// Option configures a Service.
type Option func(*Service)

// WithGateway replaces the Stripe backend.
func WithGateway(g Gateway) Option {
	return func(s *Service) {
		s.gateway = g
		s.mock = false
	}
}

// NewService selects the backend: the Stripe API for a valid secret key,
// a local simulation in development when no valid key is configured.
func NewService(cfg config.StripeConfig, appEnv string, repo *repository.Repository, opts ...Option) *Service {
	s := &Service{
		repo:          repo,
		webhookSecret: cfg.WebhookSecret,
	}

	switch {
	case IsValidSecretKey(cfg.SecretKey):
		s.gateway = NewStripeGateway(cfg.SecretKey)
		slog.Info("stripe_initialized")
	case isDevelopment(appEnv):
		s.gateway = newMockGateway()
		s.mock = true
		slog.Info("stripe_mock_mode", "reason", "no valid API key in development")
	default:
		slog.Warn("stripe_not_configured")
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsMock reports whether checkout sessions are simulated.
func (s *Service) IsMock() bool {
	return s.mock
}

// CreateCheckoutSession creates a payment mode checkout session for items
// and records it for reconciliation.
func (s *Service) CreateCheckoutSession(ctx context.Context, items []LineItem, successURL, cancelURL string, opts CheckoutOptions) (*CheckoutSession, error) {
	if s.gateway == nil {
		return nil, ErrNotConfigured
	}
	if len(items) == 0 {
		return nil, ErrNoLineItems
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		Locale:     stripe.String("nl"),
	}
	for _, item := range items {
		cents, err := toCents(item.Amount)
		if err != nil {
			return nil, err
		}
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.Description != "" {
			product.Description = stripe.String(item.Description)
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(DefaultCurrency),
				UnitAmount:  stripe.Int64(cents),
				ProductData: product,
			},
			Quantity: stripe.Int64(quantity),
		})
	}
	if opts.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(opts.CustomerEmail)
	}
	clientRef := opts.ClientReferenceID
	if clientRef == "" && opts.UserID != nil {
		clientRef = strconv.FormatInt(*opts.UserID, 10)
	}
	if clientRef != "" {
		params.ClientReferenceID = stripe.String(clientRef)
	}
	for k, v := range opts.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, params)
	if err != nil {
		slog.Error("stripe_checkout_failed", "error", err, "line_items", len(items))
		return nil, fmt.Errorf("creating checkout session: %w", err)
	}

	record := sessionRecord(sess)
	record.UserID = opts.UserID
	if err := s.repo.SaveStripeSession(ctx, record); err != nil {
		return nil, fmt.Errorf("saving checkout session: %w", err)
	}

	slog.Info("stripe_checkout_created", "session_id", sess.ID, "amount_total", sess.AmountTotal, "mock", s.mock)
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// GetPaymentStatus fetches the session from Stripe and stores its status.
func (s *Service) GetPaymentStatus(ctx context.Context, sessionID string) (*PaymentStatus, error) {
	if s.gateway == nil {
		return nil, ErrNotConfigured
	}

	sess, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		slog.Error("stripe_session_fetch_failed", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("fetching checkout session: %w", err)
	}

	status := &PaymentStatus{
		ID:       sess.ID,
		Status:   orDefault(string(sess.PaymentStatus), "unknown"),
		Currency: string(sess.Currency),
	}
	if sess.AmountTotal > 0 {
		amount := float64(sess.AmountTotal) / 100
		status.AmountTotal = &amount
	}

	if err := s.updateStatus(ctx, sess); err != nil {
		return nil, err
	}
	return status, nil
}

// CreatePaymentIntent creates a payment intent for amount euros.
// Currency defaults to eur and description to DefaultDescription.
func (s *Service) CreatePaymentIntent(ctx context.Context, amount float64, description string, metadata map[string]string, currency string) (*PaymentIntent, error) {
	if s.gateway == nil {
		return nil, ErrNotConfigured
	}

	cents, err := toCents(amount)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(cents),
		Currency:    stripe.String(strings.ToLower(orDefault(currency, DefaultCurrency))),
		Description: stripe.String(orDefault(description, DefaultDescription)),
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.gateway.CreatePaymentIntent(ctx, params)
	if err != nil {
		slog.Error("stripe_payment_intent_failed", "error", err)
		return nil, fmt.Errorf("creating payment intent: %w", err)
	}

	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Description:  pi.Description,
	}, nil
}

// ListUserSessions returns a user's recorded checkout sessions.
func (s *Service) ListUserSessions(ctx context.Context, userID int64) ([]models.StripeSession, error) {
	return s.repo.ListStripeSessionsByUser(ctx, userID)
}

// updateStatus stores the latest status, inserting the session when it
// was created outside this process.
func (s *Service) updateStatus(ctx context.Context, sess *stripe.CheckoutSession) error {
	err := s.repo.UpdateStripeSessionStatus(ctx, sess.ID,
		orDefault(string(sess.PaymentStatus), "unknown"),
		orDefault(string(sess.Status), "incomplete"))
	if errors.Is(err, repository.ErrNotFound) {
		record := sessionRecord(sess)
		if id, parseErr := strconv.ParseInt(sess.ClientReferenceID, 10, 64); parseErr == nil {
			record.UserID = &id
		}
		err = s.repo.SaveStripeSession(ctx, record)
	}
	if err != nil {
		return fmt.Errorf("updating checkout session: %w", err)
	}
	return nil
}

func sessionRecord(sess *stripe.CheckoutSession) *models.StripeSession {
	return &models.StripeSession{
		SessionID:     sess.ID,
		AmountTotal:   sess.AmountTotal,
		Currency:      orDefault(string(sess.Currency), DefaultCurrency),
		PaymentStatus: orDefault(string(sess.PaymentStatus), "unknown"),
		Status:        orDefault(string(sess.Status), "incomplete"),
		Metadata:      models.Metadata(sess.Metadata),
	}
}

func toCents(euros float64) (int64, error) {
	if euros <= 0 || math.IsNaN(euros) || math.IsInf(euros, 0) {
		return 0, ErrInvalidAmount
	}
	return int64(math.Round(euros * 100)), nil
}

func isDevelopment(env string) bool {
	switch strings.ToLower(env) {
	case "local", "development":
		return true
	}
	return false
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
