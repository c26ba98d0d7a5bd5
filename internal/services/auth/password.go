// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"bufio"
	"context"
	"embed"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/i18n"
)

//go:embed common_passwords.txt
var commonPasswordsFS embed.FS

var commonPasswords map[string]struct{}

func init() {
	commonPasswords = make(map[string]struct{})
	file, err := commonPasswordsFS.Open("common_passwords.txt")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		password := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if password != "" && !strings.HasPrefix(password, "#") {
			commonPasswords[password] = struct{}{}
		}
	}
}

// minAttributeLength keeps short names from matching almost every password.
const minAttributeLength = 3

// PasswordValidator validates passwords against various criteria
type PasswordValidator struct {
	MinLength            int
	RequireUppercase     bool
	RequireLowercase     bool
	RequireDigit         bool
	CheckCommonPasswords bool
	CheckUserSimilarity  bool
}

// DefaultPasswordValidator returns the policy applied at registration and
// password change.
func DefaultPasswordValidator() *PasswordValidator {
	return &PasswordValidator{
		MinLength:            8,
		RequireUppercase:     true,
		RequireLowercase:     true,
		RequireDigit:         true,
		CheckCommonPasswords: true,
		CheckUserSimilarity:  true,
	}
}

// ValidationError represents a single password validation error
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// PasswordValidationError wraps multiple validation errors
type PasswordValidationError struct {
	Errors []ValidationError
}

func (e *PasswordValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "password validation failed"
	}
	return e.Errors[0].Message
}

// Is makes errors.Is(err, ErrWeakPassword) hold.
func (e *PasswordValidationError) Is(target error) bool {
	return target == ErrWeakPassword
}

// Messages returns all error messages
func (e *PasswordValidationError) Messages() []string {
	messages := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		messages[i] = err.Message
	}
	return messages
}

// Validate checks a password against all configured rules. Messages are
// localized with the locale carried by ctx. It returns nil for a valid
// password and a *PasswordValidationError otherwise.
func (v *PasswordValidator) Validate(ctx context.Context, password string, userAttributes ...string) error {
	var errs []ValidationError

	if utf8.RuneCountInString(password) < v.MinLength {
		errs = append(errs, ValidationError{
			Code:    "min_length",
			Message: i18n.TData(ctx, "password_too_short", map[string]any{"Min": v.MinLength}),
		})
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if v.RequireUppercase && !hasUpper {
		errs = append(errs, ValidationError{Code: "no_uppercase", Message: i18n.T(ctx, "password_needs_upper")})
	}
	if v.RequireLowercase && !hasLower {
		errs = append(errs, ValidationError{Code: "no_lowercase", Message: i18n.T(ctx, "password_needs_lower")})
	}
	if v.RequireDigit && !hasDigit {
		errs = append(errs, ValidationError{Code: "no_digit", Message: i18n.T(ctx, "password_needs_digit")})
	}

	if v.CheckCommonPasswords && isCommonPassword(password) {
		errs = append(errs, ValidationError{Code: "common_password", Message: i18n.T(ctx, "password_too_common")})
	}

	if v.CheckUserSimilarity && isSimilarToUserAttributes(password, userAttributes) {
		errs = append(errs, ValidationError{Code: "too_similar", Message: i18n.T(ctx, "password_too_similar")})
	}

	if len(errs) == 0 {
		return nil
	}
	return &PasswordValidationError{Errors: errs}
}

func isCommonPassword(password string) bool {
	_, exists := commonPasswords[strings.ToLower(password)]
	return exists
}

func isSimilarToUserAttributes(password string, attributes []string) bool {
	passwordLower := strings.ToLower(password)

	for _, attr := range attributes {
		attrLower := strings.ToLower(strings.TrimSpace(attr))
		if len(attrLower) < minAttributeLength {
			continue
		}

		if strings.Contains(passwordLower, attrLower) || strings.Contains(attrLower, passwordLower) {
			return true
		}

		if similarity(passwordLower, attrLower) > 0.7 {
			return true
		}
	}

	return false
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	lcs := longestCommonSubsequence(a, b)
	return float64(lcs) / float64(max(len(a), len(b)))
}

func longestCommonSubsequence(a, b string) int {
	m, n := len(a), len(b)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else {
				dp[i][j] = max(dp[i-1][j], dp[i][j-1])
			}
		}
	}

	return dp[m][n]
}
