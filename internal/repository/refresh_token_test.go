// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/repository"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshToken_Lifecycle(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "rt@example.com")

	created, err := repo.CreateRefreshToken(ctx, user.ID, "tok-1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := repo.GetValidRefreshToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)

	require.NoError(t, repo.DeleteRefreshToken(ctx, "tok-1"))
	_, err = repo.GetValidRefreshToken(ctx, "tok-1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	// Deleting twice is fine.
	require.NoError(t, repo.DeleteRefreshToken(ctx, "tok-1"))
}

func TestRefreshToken_Expired(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "rt@example.com")

	_, err := repo.CreateRefreshToken(ctx, user.ID, "old", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = repo.GetValidRefreshToken(ctx, "old")
	require.ErrorIs(t, err, repository.ErrNotFound)

	n, err := repo.DeleteExpiredRefreshTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDeleteUserRefreshTokens(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "rt@example.com")
	other := testutil.NewTestUser(t, repo, "other@example.com")

	for _, tok := range []string{"a", "b"} {
		_, err := repo.CreateRefreshToken(ctx, user.ID, tok, time.Now().Add(time.Hour))
		require.NoError(t, err)
	}
	_, err := repo.CreateRefreshToken(ctx, other.ID, "c", time.Now().Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteUserRefreshTokens(ctx, user.ID))

	count, err := repo.CountUserRefreshTokens(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = repo.CountUserRefreshTokens(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestLoginAttempts(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.RecordLoginAttempt(ctx, "a@b.com", "10.0.0.1", false, at.Add(-2*time.Hour)))
	require.NoError(t, repo.RecordLoginAttempt(ctx, "a@b.com", "10.0.0.1", false, at))
	require.NoError(t, repo.RecordLoginAttempt(ctx, "a@b.com", "10.0.0.1", false, at))
	require.NoError(t, repo.RecordLoginAttempt(ctx, "a@b.com", "10.0.0.1", true, at))
	require.NoError(t, repo.RecordLoginAttempt(ctx, "c@d.com", "10.0.0.1", false, at))

	count, err := repo.CountFailedLoginAttempts(ctx, "a@b.com", at.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.CountFailedLoginAttempts(ctx, "a@b.com", at.Add(time.Minute))
	require.NoError(t, err)
	assert.Zero(t, count)
}
