// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package validation validates request payloads and produces per-field messages.
package validation

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/apperror"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/i18n"
	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator and satisfies echo.Validator.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator that reports fields by their json name.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	return &Validator{validate: v}
}

// Validate implements echo.Validator. Messages use the default language.
func (v *Validator) Validate(i any) error {
	return v.ValidateCtx(context.Background(), i)
}

// ValidateCtx validates i and localizes messages for the locale in ctx.
// Field errors are returned as a 422 *apperror.Error.
func (v *Validator) ValidateCtx(ctx context.Context, i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	fields := make(map[string][]string, len(validationErrors))
	for _, fe := range validationErrors {
		fields[fe.Field()] = append(fields[fe.Field()], message(ctx, fe))
	}

	appErr := apperror.Validation(fields)
	appErr.Message = i18n.T(ctx, "validation_failed")
	return appErr
}

func message(ctx context.Context, fe validator.FieldError) string {
	data := map[string]any{
		"Field": fe.Field(),
		"Param": fe.Param(),
	}

	id := "validation_invalid"
	switch fe.Tag() {
	case "required", "email", "gt", "eqfield", "url":
		id = "validation_" + fe.Tag()
	case "min", "max":
		id = "validation_" + fe.Tag()
		if isNumber(fe.Kind()) {
			id += "_number"
		}
	case "oneof":
		id = "validation_oneof"
		data["Param"] = strings.ReplaceAll(fe.Param(), " ", ", ")
	}

	return i18n.TData(ctx, id, data)
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
