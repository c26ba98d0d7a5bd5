// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email_test

import (
	"context"
	"testing"
	"time"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/config"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/i18n"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/services/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
	"golang.org/x/text/language"
)

func validSMTPConfig() *config.SMTPConfig {
	return &config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "testuser",
		Password: "testpass",
		From:     "noreply@slimmermetai.com",
		FromName: "SlimmerMetAI",
		TLS:      true,
	}
}

func TestNewService(t *testing.T) {
	svc, err := email.NewService(validSMTPConfig(), "https://slimmermetai.com")

	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestNewService_MissingHost(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.Host = ""

	_, err := email.NewService(cfg, "https://slimmermetai.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP host is required")
}

func TestNewService_MissingFrom(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.From = ""

	_, err := email.NewService(cfg, "https://slimmermetai.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP from address is required")
}

func TestVerificationURL(t *testing.T) {
	svc, err := email.NewService(validSMTPConfig(), "https://slimmermetai.com/")
	require.NoError(t, err)

	assert.Equal(t, "https://slimmermetai.com/auth/verify-email?token=abc123", svc.VerificationURL("abc123"))
}

func TestVerificationMessage_Dutch(t *testing.T) {
	svc, err := email.NewService(validSMTPConfig(), "https://slimmermetai.com")
	require.NoError(t, err)

	msg, err := svc.VerificationMessage(context.Background(), "julia@example.com", "Julia", "abc123")
	require.NoError(t, err)

	to := msg.GetToString()
	assert.Equal(t, []string{"<julia@example.com>"}, to)
	assert.Equal(t, []string{"Bevestig je e-mailadres"}, msg.GetGenHeader(mail.HeaderSubject))

	parts := msg.GetParts()
	require.Len(t, parts, 1)
	body, err := parts[0].GetContent()
	require.NoError(t, err)
	assert.Contains(t, string(body), "Hallo Julia")
	assert.Contains(t, string(body), "https://slimmermetai.com/auth/verify-email?token=abc123")
	assert.Contains(t, string(body), "24 uur")
}

func TestVerificationMessage_English(t *testing.T) {
	svc, err := email.NewService(validSMTPConfig(), "https://slimmermetai.com")
	require.NoError(t, err)
	ctx := i18n.WithLocale(context.Background(), language.English)

	msg, err := svc.VerificationMessage(ctx, "julia@example.com", "", "abc123")
	require.NoError(t, err)

	assert.Equal(t, []string{"Verify your email address"}, msg.GetGenHeader(mail.HeaderSubject))
	body, err := msg.GetParts()[0].GetContent()
	require.NoError(t, err)
	assert.Contains(t, string(body), "Hello julia@example.com")
}

func TestVerificationMessage_InvalidRecipient(t *testing.T) {
	svc, err := email.NewService(validSMTPConfig(), "https://slimmermetai.com")
	require.NoError(t, err)

	_, err = svc.VerificationMessage(context.Background(), "not an address", "Julia", "abc123")

	require.Error(t, err)
}

func TestGenerateToken(t *testing.T) {
	plaintext, hash, expiresAt, err := email.GenerateToken()

	require.NoError(t, err)
	assert.Len(t, plaintext, 64)
	assert.Len(t, hash, 64)
	assert.NotEqual(t, plaintext, hash)
	assert.Equal(t, email.HashToken(plaintext), hash)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)
}

func TestGenerateToken_Unique(t *testing.T) {
	tokens := make(map[string]bool)

	for range 10 {
		plaintext, _, _, err := email.GenerateToken()
		require.NoError(t, err)

		assert.False(t, tokens[plaintext], "duplicate token generated")
		tokens[plaintext] = true
	}
}

func TestHashToken(t *testing.T) {
	assert.Equal(t, email.HashToken("token1"), email.HashToken("token1"))
	assert.NotEqual(t, email.HashToken("token1"), email.HashToken("token2"))
	assert.Len(t, email.HashToken(""), 64)
}
