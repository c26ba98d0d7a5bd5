// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// SignatureHeader carries the webhook signature.
const SignatureHeader = "Stripe-Signature"

// HandleWebhook verifies the payload signature, applies checkout session
// updates and returns the event type.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) (string, error) {
	if s.webhookSecret == "" {
		return "", ErrWebhookNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		slog.Warn("stripe_webhook_rejected", "error", err)
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	slog.Info("stripe_webhook_received", "event_id", event.ID, "type", event.Type)

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return "", fmt.Errorf("decoding checkout session: %w", err)
		}
		if err := s.updateStatus(ctx, &sess); err != nil {
			return "", err
		}

	case stripe.EventTypePaymentIntentSucceeded, stripe.EventTypePaymentIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return "", fmt.Errorf("decoding payment intent: %w", err)
		}
		slog.Info("stripe_payment_intent_event", "type", event.Type, "intent_id", pi.ID, "status", pi.Status)
	}

	return string(event.Type), nil
}
