// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/config"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/handlers"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/services/billing"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func testStripeConfig() config.StripeConfig {
	return config.StripeConfig{
		PublishableKey: "pk_test_123",
		WebhookSecret:  testWebhookSecret,
		SuccessURL:     "http://localhost:8080/betaling-succes",
		CancelURL:      "http://localhost:8080/winkelwagen",
	}
}

func newStripeHandlers(t *testing.T, env *testEnv, cfg config.StripeConfig) (*handlers.StripeHandlers, *billing.Service) {
	t.Helper()
	svc := billing.NewService(cfg, "development", env.repo)
	require.True(t, svc.IsMock())
	return handlers.NewStripe(svc, cfg), svc
}

func TestCheckout(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewTestUser(t, env.repo, "julia@example.com")
	h, _ := newStripeHandlers(t, env, testStripeConfig())

	c, rec := env.context(jsonRequest(http.MethodPost, "/stripe/checkout",
		`{"line_items":[{"name":"AI Basiscursus","amount":49.95,"quantity":2}]}`))
	env.authenticate(t, c, user)
	require.NoError(t, h.Checkout(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	data, _ := decode(t, rec)["data"].(map[string]any)
	session, _ := data["session"].(map[string]any)
	id, _ := session["id"].(string)
	assert.True(t, strings.HasPrefix(id, billing.MockSessionPrefix))
	assert.Contains(t, session["url"], "http://localhost:8080/betaling-succes?")
	assert.Contains(t, session["url"], "mock=true")

	sessions, err := env.repo.ListStripeSessionsByUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(9990), sessions[0].AmountTotal)
}

func TestCheckout_Validation(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewTestUser(t, env.repo, "julia@example.com")
	h, _ := newStripeHandlers(t, env, testStripeConfig())

	c, _ := env.context(jsonRequest(http.MethodPost, "/stripe/checkout", `{"line_items":[]}`))
	env.authenticate(t, c, user)
	appErr := requireAppError(t, h.Checkout(c), http.StatusUnprocessableEntity)
	assert.Contains(t, appErr.Fields, "line_items")

	c, _ = env.context(jsonRequest(http.MethodPost, "/stripe/checkout", `{"line_items":[{"name":"","amount":0}]}`))
	env.authenticate(t, c, user)
	appErr = requireAppError(t, h.Checkout(c), http.StatusUnprocessableEntity)
	assert.Contains(t, appErr.Fields, "name")
	assert.Contains(t, appErr.Fields, "amount")
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)
	h, svc := newStripeHandlers(t, env, testStripeConfig())

	created, err := svc.CreateCheckoutSession(context.Background(),
		[]billing.LineItem{{Name: "Cursus", Amount: 10}}, "http://localhost/ok", "http://localhost/cancel", billing.CheckoutOptions{})
	require.NoError(t, err)

	c, rec := env.context(httptest.NewRequest(http.MethodGet, "/stripe/status/"+created.ID, nil))
	c.SetParamNames("id")
	c.SetParamValues(created.ID)
	require.NoError(t, h.Status(c))

	data, _ := decode(t, rec)["data"].(map[string]any)
	status, _ := data["status"].(map[string]any)
	assert.Equal(t, "paid", status["status"])
	assert.EqualValues(t, 10, status["amount_total"])
}

func TestStatus_UnknownSession(t *testing.T) {
	env := newTestEnv(t)
	h, _ := newStripeHandlers(t, env, testStripeConfig())

	c, _ := env.context(httptest.NewRequest(http.MethodGet, "/stripe/status/cs_onbekend", nil))
	c.SetParamNames("id")
	c.SetParamValues("cs_onbekend")
	appErr := requireAppError(t, h.Status(c), http.StatusNotFound)
	assert.Equal(t, "Checkout sessie niet gevonden", appErr.Message)
}

func TestWebhook_InvalidSignature(t *testing.T) {
	env := newTestEnv(t)
	h, _ := newStripeHandlers(t, env, testStripeConfig())

	req := jsonRequest(http.MethodPost, "/stripe/webhook", `{"id":"evt_1","type":"checkout.session.completed"}`)
	req.Header.Set(billing.SignatureHeader, "t=1,v1=ongeldig")
	c, rec := env.context(req)
	require.NoError(t, h.Webhook(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Ongeldige webhook signature", body["error"])
}

func TestWebhook_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	cfg := testStripeConfig()
	cfg.WebhookSecret = ""
	h, _ := newStripeHandlers(t, env, cfg)

	c, rec := env.context(jsonRequest(http.MethodPost, "/stripe/webhook", `{}`))
	require.NoError(t, h.Webhook(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_Valid(t *testing.T) {
	env := newTestEnv(t)
	h, _ := newStripeHandlers(t, env, testStripeConfig())

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(`{
			"id": "evt_1",
			"object": "event",
			"type": "checkout.session.completed",
			"data": {"object": {"id": "cs_test_hook", "object": "checkout.session", "payment_status": "paid", "status": "complete", "amount_total": 2500, "currency": "eur"}}
		}`),
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})

	req := httptest.NewRequest(http.MethodPost, "/stripe/webhook", bytes.NewReader(signed.Payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(billing.SignatureHeader, signed.Header)
	c, rec := env.context(req)
	require.NoError(t, h.Webhook(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true,"event":"checkout.session.completed"}`, rec.Body.String())

	stored, err := env.repo.GetStripeSession(context.Background(), "cs_test_hook")
	require.NoError(t, err)
	assert.True(t, stored.IsPaid())
}

func TestConfig(t *testing.T) {
	env := newTestEnv(t)
	h, _ := newStripeHandlers(t, env, testStripeConfig())

	c, rec := env.context(httptest.NewRequest(http.MethodGet, "/stripe/config", nil))
	require.NoError(t, h.Config(c))

	assert.JSONEq(t, `{"success":true,"data":{"publishableKey":"pk_test_123","currency":"EUR","locale":"nl-NL"}}`, rec.Body.String())
}

func TestConfig_Missing(t *testing.T) {
	env := newTestEnv(t)
	cfg := testStripeConfig()
	cfg.PublishableKey = ""
	h, _ := newStripeHandlers(t, env, cfg)

	c, rec := env.context(httptest.NewRequest(http.MethodGet, "/stripe/config", nil))
	require.NoError(t, h.Config(c))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Stripe configuratie ontbreekt", decode(t, rec)["error"])
}

func TestPaymentIntent(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewTestUser(t, env.repo, "julia@example.com")
	h, _ := newStripeHandlers(t, env, testStripeConfig())

	c, rec := env.context(jsonRequest(http.MethodPost, "/api/stripe/payment-intent",
		`{"amount":"12.50","description":"Workshop","metadata":{"order":"42"}}`))
	env.authenticate(t, c, user)
	require.NoError(t, h.PaymentIntent(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Payment Intent aangemaakt", body["message"])
	data, _ := body["data"].(map[string]any)
	intent, _ := data["payment_intent"].(map[string]any)
	assert.EqualValues(t, 1250, intent["amount"])
	assert.Equal(t, "eur", intent["currency"])
	assert.Equal(t, "Workshop", intent["description"])
	assert.NotEmpty(t, intent["client_secret"])
}

func TestPaymentIntent_InvalidAmount(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing", `{}`, "Het veld 'amount' is verplicht."},
		{"not numeric", `{"amount":"abc"}`, "Het veld 'amount' moet een getal zijn."},
		{"wrong type", `{"amount":true}`, "Het veld 'amount' moet een getal zijn."},
		{"negative", `{"amount":-5}`, "Het veld 'amount' moet groter zijn dan 0."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			h, _ := newStripeHandlers(t, env, testStripeConfig())

			c, _ := env.context(jsonRequest(http.MethodPost, "/api/stripe/payment-intent", tt.body))
			appErr := requireAppError(t, h.PaymentIntent(c), http.StatusUnprocessableEntity)
			assert.Equal(t, []string{tt.message}, appErr.Fields["amount"])
		})
	}
}
