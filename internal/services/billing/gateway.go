// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package billing

import (
	"context"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// Gateway is the subset of the Stripe API the service needs.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error)
	CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type stripeGateway struct {
	api *client.API
}

// NewStripeGateway returns a Gateway backed by the Stripe API.
func NewStripeGateway(secretKey string) Gateway {
	return &stripeGateway{api: client.New(secretKey, nil)}
}

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	params.Context = ctx
	return g.api.CheckoutSessions.New(params)
}

func (g *stripeGateway) GetCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	return g.api.CheckoutSessions.Get(id, params)
}

func (g *stripeGateway) CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	params.Context = ctx
	return g.api.PaymentIntents.New(params)
}

// mockGateway simulates Stripe for local development without API keys.
// Every session it creates is reported as paid.
type mockGateway struct {
	mu       sync.Mutex
	sessions map[string]*stripe.CheckoutSession
}

func newMockGateway() *mockGateway {
	return &mockGateway{sessions: make(map[string]*stripe.CheckoutSession)}
}

func (g *mockGateway) CreateCheckoutSession(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	id := MockSessionPrefix + uuid.NewString()

	var total int64
	currency := DefaultCurrency
	for _, item := range params.LineItems {
		if item.PriceData == nil || item.PriceData.UnitAmount == nil {
			continue
		}
		quantity := int64(1)
		if item.Quantity != nil {
			quantity = *item.Quantity
		}
		total += *item.PriceData.UnitAmount * quantity
		if item.PriceData.Currency != nil {
			currency = *item.PriceData.Currency
		}
	}

	successURL := ""
	if params.SuccessURL != nil {
		successURL = *params.SuccessURL
	}

	sess := &stripe.CheckoutSession{
		ID:            id,
		URL:           mockSuccessURL(successURL, id),
		AmountTotal:   total,
		Currency:      stripe.Currency(currency),
		PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
		Status:        stripe.CheckoutSessionStatusOpen,
		Metadata:      params.Metadata,
	}
	if params.ClientReferenceID != nil {
		sess.ClientReferenceID = *params.ClientReferenceID
	}

	g.mu.Lock()
	g.sessions[id] = sess
	g.mu.Unlock()

	return sess, nil
}

func (g *mockGateway) GetCheckoutSession(_ context.Context, id string) (*stripe.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	sess, ok := g.sessions[id]
	if !ok {
		return nil, &stripe.Error{
			HTTPStatusCode: 404,
			Code:           stripe.ErrorCodeResourceMissing,
			Msg:            "No such checkout.session: " + id,
		}
	}

	paid := *sess
	paid.PaymentStatus = stripe.CheckoutSessionPaymentStatusPaid
	paid.Status = stripe.CheckoutSessionStatusComplete
	return &paid, nil
}

func (g *mockGateway) CreatePaymentIntent(_ context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	id := "pi_mock_" + uuid.NewString()
	pi := &stripe.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret_mock",
		Status:       stripe.PaymentIntentStatusRequiresPaymentMethod,
		Metadata:     params.Metadata,
	}
	if params.Amount != nil {
		pi.Amount = *params.Amount
	}
	if params.Currency != nil {
		pi.Currency = stripe.Currency(*params.Currency)
	}
	if params.Description != nil {
		pi.Description = *params.Description
	}
	return pi, nil
}

func mockSuccessURL(successURL, sessionID string) string {
	u, err := url.Parse(successURL)
	if err != nil {
		return successURL
	}
	q := u.Query()
	q.Set("mock", "true")
	q.Set("session_id", sessionID)
	u.RawQuery = q.Encode()
	return u.String()
}
