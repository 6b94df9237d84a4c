package database

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/wanderlust/wanderlust/database/model"
	"github.com/wanderlust/wanderlust/logger"
)

//go:embed seed/listings.json
var sampleListings []byte

// SampleListings decodes the bundled sample data.
func SampleListings() ([]*model.Listing, error) {
	var listings []*model.Listing
	if err := json.Unmarshal(sampleListings, &listings); err != nil {
		return nil, fmt.Errorf("decode sample listings: %w", err)
	}
	return listings, nil
}

// Seed wipes all listings and reviews and inserts the sample listings owned
// by ownerId. It returns the number of listings inserted.
func Seed(ctx context.Context, store Store, ownerId string) (int, error) {
	if _, err := store.GetUser(ctx, ownerId); err != nil {
		return 0, fmt.Errorf("seed owner %s: %w", ownerId, err)
	}

	listings, err := SampleListings()
	if err != nil {
		return 0, err
	}

	removed, err := store.DeleteAllListings(ctx)
	if err != nil {
		return 0, err
	}
	logger.Infof("seed removed %d listings", removed)

	for i, l := range listings {
		l.OwnerId = ownerId
		if err := store.CreateListing(ctx, l); err != nil {
			return i, fmt.Errorf("insert %q: %w", l.Title, err)
		}
	}
	return len(listings), nil
}
