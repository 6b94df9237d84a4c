package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderlust/wanderlust/database/model"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "wanderlust.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createUser(t *testing.T, store Store, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, Email: username + "@x.com", PasswordHash: "hash"}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func sampleListing(ownerId string) *model.Listing {
	return &model.Listing{
		Title:       "Cozy Cottage",
		Description: "Near the sea",
		Image:       model.Image{URL: "https://example.com/a.jpg", Filename: "a"},
		Price:       120,
		Location:    "Malibu",
		Country:     "United States",
		OwnerId:     ownerId,
	}
}

func TestUserUniqueness(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	user := createUser(t, store, "alice")
	assert.NotEmpty(t, user.Id)

	err := store.CreateUser(ctx, &model.User{Username: "alice", Email: "other@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicate)
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "username", dup.Field)

	err = store.CreateUser(ctx, &model.User{Username: "bob", Email: "alice@x.com", PasswordHash: "h"})
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "email", dup.Field)

	got, err := store.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.Id, got.Id)

	got, err = store.GetUserByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.Id, got.Id)

	_, err = store.GetUser(ctx, "missing")
	assert.True(t, IsNotFound(err))
}

func TestListingLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	owner := createUser(t, store, "owner")

	listing := sampleListing(owner.Id)
	require.NoError(t, store.CreateListing(ctx, listing))
	require.NotEmpty(t, listing.Id)

	got, err := store.GetListing(ctx, listing.Id)
	require.NoError(t, err)
	assert.Equal(t, "Cozy Cottage", got.Title)
	assert.Equal(t, model.Image{URL: "https://example.com/a.jpg", Filename: "a"}, got.Image)
	assert.Nil(t, got.Owner)

	got.Title = "Edited"
	got.Price = 0
	got.Image = model.Image{}
	require.NoError(t, store.UpdateListing(ctx, got))

	detail, err := store.GetListingDetail(ctx, listing.Id)
	require.NoError(t, err)
	assert.Equal(t, "Edited", detail.Title)
	assert.Equal(t, float64(0), detail.Price)
	assert.Equal(t, model.Image{}, detail.Image)
	require.NotNil(t, detail.Owner)
	assert.Equal(t, "owner", detail.Owner.Username)
	assert.Empty(t, detail.Reviews)

	all, err := store.ListListings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	err = store.UpdateListing(ctx, &model.Listing{Id: "missing", Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err := store.DeleteListing(ctx, listing.Id)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteListing(ctx, listing.Id)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = store.GetListingDetail(ctx, listing.Id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviewsKeepOrderAndCascade(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	owner := createUser(t, store, "owner")
	listing := sampleListing(owner.Id)
	require.NoError(t, store.CreateListing(ctx, listing))

	for i, comment := range []string{"first", "second", "third"} {
		review := &model.Review{Comment: comment, Rating: i + 1}
		require.NoError(t, store.AddReview(ctx, listing.Id, review))
		assert.Equal(t, i, review.Position)
		assert.Equal(t, listing.Id, review.ListingId)
	}

	detail, err := store.GetListingDetail(ctx, listing.Id)
	require.NoError(t, err)
	require.Len(t, detail.Reviews, 3)
	assert.Equal(t, "first", detail.Reviews[0].Comment)
	assert.Equal(t, "third", detail.Reviews[2].Comment)

	_, err = store.DeleteListing(ctx, listing.Id)
	require.NoError(t, err)

	var count int64
	require.NoError(t, store.(*SQLStore).DB().Model(&model.Review{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAddReviewToMissingListing(t *testing.T) {
	store := openTestStore(t)
	err := store.AddReview(context.Background(), "missing", &model.Review{Comment: "x", Rating: 3})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessions(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	live := &model.Session{Id: "live", Data: []byte("a"), ExpiresAt: now.Add(time.Hour)}
	stale := &model.Session{Id: "stale", Data: []byte("b"), ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, store.SaveSession(ctx, live))
	require.NoError(t, store.SaveSession(ctx, stale))

	live.Data = []byte("updated")
	require.NoError(t, store.SaveSession(ctx, live))

	got, err := store.GetSession(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, []byte("updated"), got.Data)
	assert.False(t, got.Expired(now))

	n, err := store.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.GetSession(ctx, "stale")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.DeleteSession(ctx, "live"))
	_, err = store.GetSession(ctx, "live")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeed(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	owner := createUser(t, store, "owner")
	require.NoError(t, store.CreateListing(ctx, sampleListing(owner.Id)))

	n, err := Seed(ctx, store, owner.Id)
	require.NoError(t, err)

	samples, err := SampleListings()
	require.NoError(t, err)
	assert.Equal(t, len(samples), n)

	all, err := store.ListListings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, n)
	for _, l := range all {
		assert.Equal(t, owner.Id, l.OwnerId)
	}

	_, err = Seed(ctx, store, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}
