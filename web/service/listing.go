package service

import (
	"context"
	"fmt"

	"github.com/wanderlust/wanderlust/database"
	"github.com/wanderlust/wanderlust/database/model"
	"github.com/wanderlust/wanderlust/logger"
	"github.com/wanderlust/wanderlust/util/common"
	"github.com/wanderlust/wanderlust/web/entity"
)

const (
	msgListingNotFound = "Listing not found"
	msgNotOwner        = "You are not the owner of this listing"
)

type ListingService struct {
	listings database.ListingRepository
}

func NewListingService(listings database.ListingRepository) *ListingService {
	return &ListingService{listings: listings}
}

func (s *ListingService) List(ctx context.Context) ([]*model.Listing, error) {
	listings, err := s.listings.ListListings(ctx)
	if err != nil {
		return nil, common.NewUnexpectedError(fmt.Errorf("list listings: %w", err))
	}
	return listings, nil
}

// Get returns the listing with its owner and reviews resolved.
func (s *ListingService) Get(ctx context.Context, id string) (*model.Listing, error) {
	listing, err := s.listings.GetListingDetail(ctx, id)
	if err != nil {
		return nil, s.lookupError(err)
	}
	return listing, nil
}

// GetOwned returns the listing when userId owns it. A missing listing is a
// NotFoundError and somebody else's a ForbiddenError.
func (s *ListingService) GetOwned(ctx context.Context, id, userId string) (*model.Listing, error) {
	listing, err := s.listings.GetListing(ctx, id)
	if err != nil {
		return nil, s.lookupError(err)
	}
	if !listing.IsOwnedBy(userId) {
		return nil, common.NewForbiddenError(msgNotOwner)
	}
	return listing, nil
}

func (s *ListingService) Create(ctx context.Context, ownerId string, form *entity.ListingForm) (*model.Listing, error) {
	if err := ValidateListing(form); err != nil {
		return nil, err
	}
	listing := &model.Listing{OwnerId: ownerId}
	form.Apply(listing)
	if err := s.listings.CreateListing(ctx, listing); err != nil {
		return nil, common.NewUnexpectedError(fmt.Errorf("create listing: %w", err))
	}
	logger.Infof("listing %s created by %s", listing.Id, ownerId)
	return listing, nil
}

// Update validates the payload before it looks the listing up, so a bad
// payload never touches the store.
func (s *ListingService) Update(ctx context.Context, id, userId string, form *entity.ListingForm) (*model.Listing, error) {
	if err := ValidateListing(form); err != nil {
		return nil, err
	}
	listing, err := s.GetOwned(ctx, id, userId)
	if err != nil {
		return nil, err
	}
	form.Apply(listing)
	if err := s.listings.UpdateListing(ctx, listing); err != nil {
		return nil, s.lookupError(err)
	}
	return listing, nil
}

// Delete removes the listing and its reviews. Deleting an id that does not
// exist succeeds without doing anything.
func (s *ListingService) Delete(ctx context.Context, id, userId string) error {
	listing, err := s.listings.GetListing(ctx, id)
	if database.IsNotFound(err) {
		return nil
	} else if err != nil {
		return common.NewUnexpectedError(err)
	}
	if !listing.IsOwnedBy(userId) {
		return common.NewForbiddenError(msgNotOwner)
	}
	if _, err := s.listings.DeleteListing(ctx, id); err != nil {
		return common.NewUnexpectedError(fmt.Errorf("delete listing: %w", err))
	}
	logger.Infof("listing %s deleted by %s", id, userId)
	return nil
}

func (s *ListingService) lookupError(err error) error {
	if database.IsNotFound(err) {
		return common.NewNotFoundError(msgListingNotFound)
	}
	return common.NewUnexpectedError(err)
}
