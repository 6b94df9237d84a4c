// Package database holds the persistence layer: one Store interface with a
// gorm-backed implementation (SQLite, PostgreSQL) and a MongoDB one.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wanderlust/wanderlust/config"
	"github.com/wanderlust/wanderlust/database/model"
)

var (
	// ErrNotFound is returned when the addressed record does not exist,
	// including when the id is not in a format the backend could have issued.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique field is already taken.
	ErrDuplicate = errors.New("duplicate record")
)

// DuplicateError names the unique field that collided. It matches ErrDuplicate.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Field)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// IsNotFound reports whether err means the record is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

type ListingRepository interface {
	ListListings(ctx context.Context) ([]*model.Listing, error)
	// GetListing returns the listing without owner or reviews resolved.
	GetListing(ctx context.Context, id string) (*model.Listing, error)
	// GetListingDetail resolves the owner and the reviews in the order they were added.
	GetListingDetail(ctx context.Context, id string) (*model.Listing, error)
	CreateListing(ctx context.Context, listing *model.Listing) error
	UpdateListing(ctx context.Context, listing *model.Listing) error
	// DeleteListing removes the listing and its reviews. It reports whether
	// a listing was actually removed.
	DeleteListing(ctx context.Context, id string) (bool, error)
	DeleteAllListings(ctx context.Context) (int64, error)
}

type ReviewRepository interface {
	// AddReview persists review and appends it to the listing's reviews.
	AddReview(ctx context.Context, listingId string, review *model.Review) error
}

type SessionRepository interface {
	GetSession(ctx context.Context, id string) (*model.Session, error)
	SaveSession(ctx context.Context, session *model.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Store is the injected persistence handle.
type Store interface {
	UserRepository
	ListingRepository
	ReviewRepository
	SessionRepository

	// Migrate creates tables or collections and their indexes.
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the database named by rawURL and migrates it.
func Open(ctx context.Context, rawURL string) (Store, error) {
	cfg, err := config.ParseDatabaseURL(rawURL)
	if err != nil {
		return nil, err
	}

	var store Store
	switch cfg.Type {
	case config.DatabaseTypeMongoDB:
		store, err = OpenMongo(ctx, cfg)
	default:
		store, err = OpenSQL(cfg)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migrate %s: %w", cfg.Type, err)
	}
	return store, nil
}
