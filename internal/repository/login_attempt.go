// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"
)

// RecordLoginAttempt logs a login try made at the given time.
func (r *Repository) RecordLoginAttempt(ctx context.Context, email, ip string, success bool, at time.Time) error {
	_, err := r.exec(ctx,
		`INSERT INTO login_attempts (email, ip_address, success, created_at) VALUES (?, ?, ?, ?)`,
		email, ip, success, at.UTC().Truncate(time.Microsecond))
	return err
}

// CountFailedLoginAttempts counts failures for an email since the given time.
func (r *Repository) CountFailedLoginAttempts(ctx context.Context, email string, since time.Time) (int, error) {
	var count int
	err := r.get(ctx, &count,
		`SELECT COUNT(*) FROM login_attempts WHERE email = ? AND success = ? AND created_at > ?`,
		email, false, since.UTC())
	return count, err
}
