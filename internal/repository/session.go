// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"errors"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/models"
)

// GetSession returns a non-expired session record.
func (r *Repository) GetSession(ctx context.Context, id string) (*models.SessionRecord, error) {
	var rec models.SessionRecord
	err := r.get(ctx, &rec,
		`SELECT id, data, expires_at, updated_at FROM sessions WHERE id = ? AND expires_at > ?`, id, now())
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveSession inserts or replaces a session record.
func (r *Repository) SaveSession(ctx context.Context, rec *models.SessionRecord) error {
	return r.WithTx(ctx, func(tx *Repository) error {
		var count int64
		if err := tx.get(ctx, &count, `SELECT COUNT(*) FROM sessions WHERE id = ?`, rec.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		rec.UpdatedAt = now()
		if count > 0 {
			_, err := tx.exec(ctx, `UPDATE sessions SET data = ?, expires_at = ?, updated_at = ? WHERE id = ?`,
				rec.Data, rec.ExpiresAt.UTC(), rec.UpdatedAt, rec.ID)
			return err
		}
		_, err := tx.exec(ctx, `INSERT INTO sessions (id, data, expires_at, updated_at) VALUES (?, ?, ?, ?)`,
			rec.ID, rec.Data, rec.ExpiresAt.UTC(), rec.UpdatedAt)
		return err
	})
}

// DeleteSession removes a session record.
func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.exec(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// DeleteExpiredSessions removes stale session records.
func (r *Repository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := r.exec(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
