// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package validation_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/apperror"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/i18n"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Confirm  string `json:"password_confirm" validate:"eqfield=Password"`
	Amount   int    `json:"amount" validate:"omitempty,min=1"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

func fieldsOf(t *testing.T, err error) map[string][]string {
	t.Helper()
	appErr, ok := apperror.As(err)
	require.True(t, ok, "expected *apperror.Error, got %T", err)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	return appErr.Fields
}

func TestValidate_Valid(t *testing.T) {
	v := validation.New()

	err := v.Validate(&registerRequest{
		Name:     "Julia",
		Email:    "julia@example.com",
		Password: "Welkom123",
		Confirm:  "Welkom123",
	})

	require.NoError(t, err)
}

func TestValidate_DutchMessages(t *testing.T) {
	v := validation.New()

	err := v.Validate(&registerRequest{Email: "geen-email", Password: "kort", Confirm: "anders"})

	fields := fieldsOf(t, err)
	assert.Equal(t, []string{"Het veld 'name' is verplicht."}, fields["name"])
	assert.Equal(t, []string{"Het veld 'email' moet een geldig e-mailadres zijn."}, fields["email"])
	assert.Equal(t, []string{"Het veld 'password' moet minimaal 8 tekens bevatten."}, fields["password"])
	assert.Equal(t, []string{"Het veld 'password_confirm' moet overeenkomen met 'Password'."}, fields["password_confirm"])

	appErr, _ := apperror.As(err)
	assert.Equal(t, "Validatiefout", appErr.Message)
}

func TestValidateCtx_English(t *testing.T) {
	v := validation.New()
	ctx := i18n.WithLocale(context.Background(), language.English)

	err := v.ValidateCtx(ctx, &registerRequest{Email: "x@example.com", Password: "Welkom123", Confirm: "Welkom123"})

	fields := fieldsOf(t, err)
	assert.Equal(t, []string{"The field 'name' is required."}, fields["name"])
}

func TestValidate_NumberAndOneOf(t *testing.T) {
	v := validation.New()

	err := v.Validate(&registerRequest{
		Name:     "Julia",
		Email:    "julia@example.com",
		Password: "Welkom123",
		Confirm:  "Welkom123",
		Amount:   -5,
		Role:     "root",
	})

	fields := fieldsOf(t, err)
	assert.Equal(t, []string{"Het veld 'amount' moet minimaal 1 zijn."}, fields["amount"])
	assert.Equal(t, []string{"Het veld 'role' moet een van de volgende waarden hebben: user, admin."}, fields["role"])
}

func TestValidate_NotAStruct(t *testing.T) {
	v := validation.New()

	err := v.Validate("plain string")

	require.Error(t, err)
	_, ok := apperror.As(err)
	assert.False(t, ok)
}

func TestFlag_JSON(t *testing.T) {
	tests := []struct {
		input    string
		expected validation.Flag
	}{
		{`true`, true},
		{`false`, false},
		{`1`, true},
		{`0`, false},
		{`"on"`, true},
		{`"YES"`, true},
		{`"1"`, true},
		{`"off"`, false},
		{`null`, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var payload struct {
				Remember validation.Flag `json:"remember"`
			}
			require.NoError(t, json.Unmarshal([]byte(`{"remember":`+tt.input+`}`), &payload))
			assert.Equal(t, tt.expected, payload.Remember)
		})
	}
}

func TestFlag_UnmarshalParam(t *testing.T) {
	var f validation.Flag

	require.NoError(t, f.UnmarshalParam("on"))
	assert.True(t, bool(f))

	require.NoError(t, f.UnmarshalParam(""))
	assert.False(t, bool(f))
}
