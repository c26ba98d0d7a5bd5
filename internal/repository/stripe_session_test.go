// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/models"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/repository"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveStripeSession_InsertThenUpdate(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "buyer@example.com")

	s := &models.StripeSession{
		SessionID:     "cs_test_1",
		UserID:        &user.ID,
		AmountTotal:   4999,
		Currency:      "eur",
		PaymentStatus: "unpaid",
		Status:        "open",
		Metadata:      models.Metadata{"course": "prompt-basics"},
	}
	require.NoError(t, repo.SaveStripeSession(ctx, s))
	assert.NotZero(t, s.ID)

	// Webhook style update without a user keeps the owner.
	update := &models.StripeSession{
		SessionID:     "cs_test_1",
		AmountTotal:   4999,
		Currency:      "eur",
		PaymentStatus: "paid",
		Status:        "complete",
		Metadata:      models.Metadata{"course": "prompt-basics"},
	}
	require.NoError(t, repo.SaveStripeSession(ctx, update))
	assert.Equal(t, s.ID, update.ID)

	got, err := repo.GetStripeSession(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, "paid", got.PaymentStatus)
	assert.Equal(t, "complete", got.Status)
	require.NotNil(t, got.UserID)
	assert.Equal(t, user.ID, *got.UserID)
	assert.Equal(t, "prompt-basics", got.Metadata["course"])
}

func TestSaveStripeSession_SameIDConcurrently(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.SaveStripeSession(ctx, &models.StripeSession{
				SessionID:     "cs_test_race",
				AmountTotal:   int64(1000 + i),
				Currency:      "eur",
				PaymentStatus: "unpaid",
				Status:        "open",
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var count int
	require.NoError(t, repo.DB().Get(&count, `SELECT count(*) FROM stripe_sessions WHERE session_id = ?`, "cs_test_race"))
	assert.Equal(t, 1, count)
}

func TestSaveStripeSession_KeepsCreatedAt(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	first := &models.StripeSession{SessionID: "cs_test_2", AmountTotal: 100, Currency: "eur", PaymentStatus: "unpaid", Status: "open"}
	require.NoError(t, repo.SaveStripeSession(ctx, first))
	require.False(t, first.CreatedAt.IsZero())

	second := &models.StripeSession{SessionID: "cs_test_2", AmountTotal: 100, Currency: "eur", PaymentStatus: "paid", Status: "complete"}
	require.NoError(t, repo.SaveStripeSession(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	assert.Nil(t, second.UserID)
	assert.Equal(t, "paid", second.PaymentStatus)
}

func TestUpdateStripeSessionStatus(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveStripeSession(ctx, &models.StripeSession{
		SessionID: "cs_test_2", Currency: "eur", PaymentStatus: "unpaid", Status: "open",
	}))

	require.NoError(t, repo.UpdateStripeSessionStatus(ctx, "cs_test_2", "paid", "complete"))

	got, err := repo.GetStripeSession(ctx, "cs_test_2")
	require.NoError(t, err)
	assert.True(t, got.IsPaid())
	assert.Nil(t, got.UserID)
	assert.Empty(t, got.Metadata)

	err = repo.UpdateStripeSessionStatus(ctx, "cs_missing", "paid", "complete")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListStripeSessionsByUser(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "buyer@example.com")

	for i, id := range []string{"cs_a", "cs_b"} {
		require.NoError(t, repo.SaveStripeSession(ctx, &models.StripeSession{
			SessionID: id, UserID: &user.ID, Currency: "eur", PaymentStatus: "unpaid", Status: "open",
			CreatedAt: time.Now().Add(time.Duration(i) * time.Minute),
		}))
	}

	sessions, err := repo.ListStripeSessionsByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "cs_b", sessions[0].SessionID)
}

func TestSessions(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	rec := &models.SessionRecord{ID: "sess-1", Data: `{"csrf_token":"x"}`, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.SaveSession(ctx, rec))

	got, err := repo.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"csrf_token":"x"}`, got.Data)

	rec.Data = `{"csrf_token":"y"}`
	require.NoError(t, repo.SaveSession(ctx, rec))
	got, err = repo.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"csrf_token":"y"}`, got.Data)

	require.NoError(t, repo.DeleteSession(ctx, "sess-1"))
	_, err = repo.GetSession(ctx, "sess-1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessions_Expired(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveSession(ctx, &models.SessionRecord{ID: "old", Data: "{}", ExpiresAt: time.Now().Add(-time.Minute)}))

	_, err := repo.GetSession(ctx, "old")
	require.ErrorIs(t, err, repository.ErrNotFound)

	n, err := repo.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
