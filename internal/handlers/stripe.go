// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/apperror"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/appcontext"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/config"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/i18n"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/services/billing"
	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v82"
)

const webhookBodyLimit = 1024 * 1024 // 1MiB

// StripeHandlers serves checkout, payment intent and webhook endpoints.
type StripeHandlers struct {
	billing *billing.Service
	cfg     config.StripeConfig
	now     func() time.Time
}

// NewStripe creates a new StripeHandlers instance.
func NewStripe(svc *billing.Service, cfg config.StripeConfig) *StripeHandlers {
	return &StripeHandlers{billing: svc, cfg: cfg, now: time.Now}
}

type checkoutRequest struct {
	LineItems     []billing.LineItem `json:"line_items" validate:"required,gt=0,dive"`
	SuccessURL    string             `json:"success_url" validate:"omitempty,url"`
	CancelURL     string             `json:"cancel_url" validate:"omitempty,url"`
	CustomerEmail string             `json:"customer_email" validate:"omitempty,email"`
	Metadata      map[string]string  `json:"metadata"`
}

type paymentIntentRequest struct {
	Amount      any               `json:"amount"`
	Description string            `json:"description" validate:"max=500"`
	Currency    string            `json:"currency" validate:"omitempty,len=3"`
	Metadata    map[string]string `json:"metadata"`
}

// Checkout creates a Stripe Checkout Session for the authenticated user.
func (h *StripeHandlers) Checkout(c echo.Context) error {
	ctx := c.Request().Context()

	var req checkoutRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	opts := billing.CheckoutOptions{
		CustomerEmail: req.CustomerEmail,
		Metadata:      req.Metadata,
	}
	if claims := appcontext.UserClaims(c); claims != nil {
		userID := claims.UserID
		opts.UserID = &userID
		if opts.CustomerEmail == "" {
			opts.CustomerEmail = claims.Email
		}
	}

	session, err := h.billing.CreateCheckoutSession(ctx,
		req.LineItems,
		orDefault(req.SuccessURL, h.cfg.SuccessURL),
		orDefault(req.CancelURL, h.cfg.CancelURL),
		opts,
	)
	if err != nil {
		return billingError(ctx, err)
	}
	return Success(c, http.StatusOK, i18n.T(ctx, "checkout_created"), map[string]any{"session": session})
}

// Status returns the payment status of a checkout session.
func (h *StripeHandlers) Status(c echo.Context) error {
	ctx := c.Request().Context()

	status, err := h.billing.GetPaymentStatus(ctx, c.Param("id"))
	if err != nil {
		return billingError(ctx, err)
	}
	return Success(c, http.StatusOK, "", map[string]any{"status": status})
}

// Webhook verifies and applies a Stripe event. The signature covers the
// raw body, so the body is read as is.
func (h *StripeHandlers) Webhook(c echo.Context) error {
	ctx := c.Request().Context()
	req := c.Request()

	req.Body = http.MaxBytesReader(c.Response(), req.Body, webhookBodyLimit)
	payload, err := io.ReadAll(req.Body)
	if err != nil {
		return Fail(c, http.StatusBadRequest, i18n.T(ctx, "invalid_request"), nil)
	}

	eventType, err := h.billing.HandleWebhook(ctx, payload, req.Header.Get(billing.SignatureHeader))
	switch {
	case errors.Is(err, billing.ErrInvalidSignature):
		return Fail(c, http.StatusBadRequest, i18n.T(ctx, "webhook_invalid_signature"), nil)
	case errors.Is(err, billing.ErrWebhookNotConfigured):
		return Fail(c, http.StatusBadRequest, err.Error(), nil)
	case err != nil:
		// 5xx makes Stripe retry the delivery.
		slog.Error("stripe_webhook_failed", "error", err)
		return Fail(c, http.StatusInternalServerError, i18n.T(ctx, "webhook_failed"), nil)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"received": true,
		"event":    eventType,
	})
}

// Config returns the publishable key for Stripe.js.
func (h *StripeHandlers) Config(c echo.Context) error {
	ctx := c.Request().Context()
	if h.cfg.PublishableKey == "" {
		return Fail(c, http.StatusInternalServerError, i18n.T(ctx, "stripe_config_missing"), nil)
	}
	return Success(c, http.StatusOK, "", map[string]any{
		"publishableKey": h.cfg.PublishableKey,
		"currency":       "EUR",
		"locale":         "nl-NL",
	})
}

// PaymentIntent creates a payment intent. The amount is in euros and may
// be sent as a number or a numeric string.
func (h *StripeHandlers) PaymentIntent(c echo.Context) error {
	ctx := c.Request().Context()

	var req paymentIntentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	amount, err := parseAmount(ctx, req.Amount)
	if err != nil {
		return err
	}

	metadata := make(map[string]string, len(req.Metadata)+2)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata["source"] = "api"
	metadata["timestamp"] = h.now().Format(time.DateTime)
	if claims := appcontext.UserClaims(c); claims != nil {
		metadata["user_id"] = strconv.FormatInt(claims.UserID, 10)
	}

	intent, err := h.billing.CreatePaymentIntent(ctx, amount, req.Description, metadata, req.Currency)
	if err != nil {
		return billingError(ctx, err)
	}
	return Success(c, http.StatusCreated, i18n.T(ctx, "payment_intent_created"),
		map[string]any{"payment_intent": intent})
}

func parseAmount(ctx context.Context, raw any) (float64, error) {
	var amount float64
	switch v := raw.(type) {
	case nil:
		return 0, validationError(ctx, "amount", "validation_required", nil)
	case float64:
		amount = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, validationError(ctx, "amount", "validation_numeric", nil)
		}
		amount = parsed
	default:
		return 0, validationError(ctx, "amount", "validation_numeric", nil)
	}
	if amount <= 0 {
		return 0, validationError(ctx, "amount", "validation_gt", map[string]any{"Param": "0"})
	}
	return amount, nil
}

// billingError maps billing and Stripe API errors to HTTP errors.
func billingError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, billing.ErrNoLineItems):
		return validationError(ctx, "line_items", "validation_required", nil)
	case errors.Is(err, billing.ErrInvalidAmount):
		return validationError(ctx, "amount", "validation_gt", map[string]any{"Param": "0"})
	case errors.Is(err, billing.ErrNotConfigured):
		return apperror.Internal(billing.ErrNotConfigured.Error()).Wrap(err)
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.HTTPStatusCode == http.StatusNotFound:
			return apperror.NotFound(i18n.T(ctx, "checkout_session_not_found")).Wrap(err)
		case stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500:
			return apperror.BadRequest(stripeErr.Msg).Wrap(err)
		}
		return apperror.New(http.StatusBadGateway, i18n.T(ctx, "error_generic")).Wrap(err)
	}

	return apperror.Internal(i18n.T(ctx, "error_generic")).Wrap(err)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
