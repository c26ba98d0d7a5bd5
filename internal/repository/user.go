// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/models"
)

const userColumns = `id, name, email, password_hash, role, email_verified, created_at, updated_at, last_login`

// CreateUser inserts a user and fills in ID and timestamps.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	ts := now()
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	res, err := r.exec(ctx,
		`INSERT INTO users (name, email, password_hash, role, email_verified, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Name, user.Email, user.PasswordHash, user.Role, user.EmailVerified, ts, ts)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	user.ID = id
	user.CreatedAt = ts
	user.UpdatedAt = ts
	return nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.get(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by normalized email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.get(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email = ?`, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailExists reports whether an account uses the address.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.get(ctx, &count, `SELECT COUNT(*) FROM users WHERE email = ?`, email); err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateUserProfile changes the editable profile fields.
func (r *Repository) UpdateUserProfile(ctx context.Context, id int64, name string) error {
	return r.updateUser(ctx, `UPDATE users SET name = ?, updated_at = ? WHERE id = ?`, name, now(), id)
}

// UpdateUserPassword replaces the password hash.
func (r *Repository) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	return r.updateUser(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`, passwordHash, now(), id)
}

// UpdateLastLogin stamps the last successful login.
func (r *Repository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.updateUser(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, at.UTC(), id)
}

// MarkEmailVerified sets the email_verified flag.
func (r *Repository) MarkEmailVerified(ctx context.Context, id int64) error {
	return r.updateUser(ctx, `UPDATE users SET email_verified = ?, updated_at = ? WHERE id = ?`, true, now(), id)
}

func (r *Repository) updateUser(ctx context.Context, query string, args ...any) error {
	res, err := r.exec(ctx, query, args...)
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
