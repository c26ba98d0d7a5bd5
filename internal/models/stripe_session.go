// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Metadata is a string map stored as a JSON column.
type Metadata map[string]string

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("metadata: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*m = Metadata{}
		return nil
	}
	out := Metadata{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// StripeSession mirrors a Stripe Checkout Session for reconciliation.
// AmountTotal is in the smallest currency unit (cents).
type StripeSession struct { //nolint:govet // fieldalignment: readability over optimization
	ID            int64     `db:"id" json:"-"`
	SessionID     string    `db:"session_id" json:"id"`
	UserID        *int64    `db:"user_id" json:"user_id,omitempty"`
	AmountTotal   int64     `db:"amount_total" json:"amount_total"`
	Currency      string    `db:"currency" json:"currency"`
	PaymentStatus string    `db:"payment_status" json:"payment_status"`
	Status        string    `db:"status" json:"status"`
	Metadata      Metadata  `db:"metadata" json:"metadata"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// IsPaid reports whether Stripe marked the session as paid.
func (s *StripeSession) IsPaid() bool {
	return s.PaymentStatus == "paid"
}

// AmountEuros returns the total in major units.
func (s *StripeSession) AmountEuros() float64 {
	return float64(s.AmountTotal) / 100
}
