package service

import (
	"context"
	"fmt"

	"github.com/wanderlust/wanderlust/database"
	"github.com/wanderlust/wanderlust/database/model"
	"github.com/wanderlust/wanderlust/util/common"
	"github.com/wanderlust/wanderlust/web/entity"
)

type ReviewService struct {
	reviews database.ReviewRepository
}

func NewReviewService(reviews database.ReviewRepository) *ReviewService {
	return &ReviewService{reviews: reviews}
}

// Create validates the payload and attaches a new review to the listing.
func (s *ReviewService) Create(ctx context.Context, listingId string, form *entity.ReviewForm) (*model.Review, error) {
	if err := ValidateReview(form); err != nil {
		return nil, err
	}
	review := form.Review()
	if err := s.reviews.AddReview(ctx, listingId, review); err != nil {
		if database.IsNotFound(err) {
			return nil, common.NewNotFoundError(msgListingNotFound)
		}
		return nil, common.NewUnexpectedError(fmt.Errorf("add review: %w", err))
	}
	return review, nil
}
