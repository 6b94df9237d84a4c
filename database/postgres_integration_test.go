//go:build integration

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/wanderlust/wanderlust/database/model"
)

func openPostgresTestStore(t *testing.T) Store {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("wanderlust"),
		postgres.WithUsername("wanderlust"),
		postgres.WithPassword("wanderlust"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := Open(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPostgresStore(t *testing.T) {
	store := openPostgresTestStore(t)
	ctx := context.Background()

	owner := &model.User{Username: "owner", Email: "owner@x.com", PasswordHash: "h"}
	require.NoError(t, store.CreateUser(ctx, owner))

	err := store.CreateUser(ctx, &model.User{Username: "other", Email: "owner@x.com", PasswordHash: "h"})
	var dup *DuplicateError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "email", dup.Field)

	listing := sampleListing(owner.Id)
	require.NoError(t, store.CreateListing(ctx, listing))
	require.NoError(t, store.AddReview(ctx, listing.Id, &model.Review{Comment: "first", Rating: 4}))
	require.NoError(t, store.AddReview(ctx, listing.Id, &model.Review{Comment: "second", Rating: 2}))

	detail, err := store.GetListingDetail(ctx, listing.Id)
	require.NoError(t, err)
	require.Len(t, detail.Reviews, 2)
	assert.Equal(t, "first", detail.Reviews[0].Comment)
	assert.Equal(t, "owner", detail.Owner.Username)

	deleted, err := store.DeleteListing(ctx, listing.Id)
	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = store.GetListing(ctx, listing.Id)
	assert.ErrorIs(t, err, ErrNotFound)

	now := time.Now()
	require.NoError(t, store.SaveSession(ctx, &model.Session{Id: "s1", Data: []byte("x"), ExpiresAt: now.Add(-time.Second)}))
	n, err := store.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
