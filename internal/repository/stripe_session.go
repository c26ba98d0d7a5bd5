// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/models"
)

const stripeSessionColumns = `id, session_id, user_id, amount_total, currency, payment_status, status, metadata, created_at, updated_at`

const (
	insertStripeSession = `INSERT INTO stripe_sessions (session_id, user_id, amount_total, currency, payment_status, status, metadata, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	upsertStripeSessionSQLite = insertStripeSession + ` ON CONFLICT(session_id) DO UPDATE SET
		user_id = COALESCE(excluded.user_id, stripe_sessions.user_id),
		amount_total = excluded.amount_total,
		currency = excluded.currency,
		payment_status = excluded.payment_status,
		status = excluded.status,
		metadata = excluded.metadata,
		updated_at = excluded.updated_at`

	upsertStripeSessionMySQL = insertStripeSession + ` ON DUPLICATE KEY UPDATE
		user_id = COALESCE(VALUES(user_id), user_id),
		amount_total = VALUES(amount_total),
		currency = VALUES(currency),
		payment_status = VALUES(payment_status),
		status = VALUES(status),
		metadata = VALUES(metadata),
		updated_at = VALUES(updated_at)`
)

// SaveStripeSession inserts the session or updates the existing row with the
// same Stripe session id in a single statement. A nil UserID keeps the stored
// owner. s is refreshed from the stored row.
func (r *Repository) SaveStripeSession(ctx context.Context, s *models.StripeSession) error {
	query := upsertStripeSessionSQLite
	if r.db.DriverName() == "mysql" {
		query = upsertStripeSessionMySQL
	}

	return r.WithTx(ctx, func(tx *Repository) error {
		ts := now()
		createdAt := s.CreatedAt.UTC()
		if s.CreatedAt.IsZero() {
			createdAt = ts
		}
		if _, err := tx.exec(ctx, query,
			s.SessionID, s.UserID, s.AmountTotal, s.Currency, s.PaymentStatus, s.Status, s.Metadata, createdAt, ts); err != nil {
			return err
		}

		stored, err := tx.GetStripeSession(ctx, s.SessionID)
		if err != nil {
			return err
		}
		*s = *stored
		return nil
	})
}

// GetStripeSession retrieves a session by its Stripe id.
func (r *Repository) GetStripeSession(ctx context.Context, sessionID string) (*models.StripeSession, error) {
	var s models.StripeSession
	if err := r.get(ctx, &s, `SELECT `+stripeSessionColumns+` FROM stripe_sessions WHERE session_id = ?`, sessionID); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateStripeSessionStatus records the latest payment and session status.
func (r *Repository) UpdateStripeSessionStatus(ctx context.Context, sessionID, paymentStatus, status string) error {
	res, err := r.exec(ctx,
		`UPDATE stripe_sessions SET payment_status = ?, status = ?, updated_at = ? WHERE session_id = ?`,
		paymentStatus, status, now(), sessionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListStripeSessionsByUser returns a user's sessions, newest first.
func (r *Repository) ListStripeSessionsByUser(ctx context.Context, userID int64) ([]models.StripeSession, error) {
	var sessions []models.StripeSession
	err := r.selectAll(ctx, &sessions,
		`SELECT `+stripeSessionColumns+` FROM stripe_sessions WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	return sessions, err
}
