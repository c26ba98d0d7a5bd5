// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/models"
)

// CreateRefreshToken stores a refresh token for a user.
func (r *Repository) CreateRefreshToken(ctx context.Context, userID int64, token string, expiresAt time.Time) (*models.RefreshToken, error) {
	ts := now()
	res, err := r.exec(ctx,
		`INSERT INTO refresh_tokens (user_id, token, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		userID, token, expiresAt.UTC(), ts)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.RefreshToken{
		ID:        id,
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: ts,
	}, nil
}

// GetValidRefreshToken returns the token if it exists and has not expired.
func (r *Repository) GetValidRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	err := r.get(ctx, &rt,
		`SELECT id, user_id, token, expires_at, created_at FROM refresh_tokens WHERE token = ? AND expires_at > ?`,
		token, now())
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// DeleteRefreshToken revokes a single token. Unknown tokens are ignored.
func (r *Repository) DeleteRefreshToken(ctx context.Context, token string) error {
	_, err := r.exec(ctx, `DELETE FROM refresh_tokens WHERE token = ?`, token)
	return err
}

// DeleteUserRefreshTokens revokes every token of a user.
func (r *Repository) DeleteUserRefreshTokens(ctx context.Context, userID int64) error {
	_, err := r.exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = ?`, userID)
	return err
}

// CountUserRefreshTokens returns the number of stored tokens for a user.
func (r *Repository) CountUserRefreshTokens(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.get(ctx, &count, `SELECT COUNT(*) FROM refresh_tokens WHERE user_id = ?`, userID)
	return count, err
}

// DeleteExpiredRefreshTokens removes tokens past their expiry.
func (r *Repository) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	res, err := r.exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= ?`, now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
