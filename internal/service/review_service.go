package service

import (
	"context"
	"errors"

	"spotbnb/internal/database"
	"spotbnb/internal/domain"
	"spotbnb/internal/events"
	"spotbnb/internal/models"
	"spotbnb/internal/validation"

	"github.com/rs/zerolog"
)

type ReviewService struct {
	repo      domain.Repository
	validator *validation.Validator
	eventBus  domain.EventPublisher
	logger    *zerolog.Logger
}

func NewReviewService(repo domain.Repository, v *validation.Validator, eventBus domain.EventPublisher, logger *zerolog.Logger) *ReviewService {
	return &ReviewService{
		repo:      repo,
		validator: v,
		eventBus:  eventBus,
		logger:    logger,
	}
}

func (s *ReviewService) ListSpotReviews(ctx context.Context, spotID int64) ([]ReviewDetail, error) {
	if _, err := s.findSpot(ctx, spotID); err != nil {
		return nil, err
	}

	reviews, err := s.repo.ListReviewsBySpot(ctx, spotID)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, reviews, false)
}

// ListUserReviews returns the user's reviews, each with the reviewed spot.
func (s *ReviewService) ListUserReviews(ctx context.Context, userID int64) ([]ReviewDetail, error) {
	reviews, err := s.repo.ListReviewsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, reviews, true)
}

// CreateReview allows one review per user and spot.
func (s *ReviewService) CreateReview(ctx context.Context, userID, spotID int64, in ReviewInput) (*models.Review, error) {
	trimAll(&in.Review)
	if errs := s.validator.Struct(&in); errs != nil {
		return nil, validationError(errs)
	}

	if _, err := s.findSpot(ctx, spotID); err != nil {
		return nil, err
	}

	_, err := s.repo.FindReview(ctx, userID, spotID)
	switch {
	case err == nil:
		return nil, newError(ErrDuplicateReview, MsgDuplicateReview)
	case !errors.Is(err, database.ErrNotFound):
		return nil, err
	}

	review := &models.Review{UserID: userID, SpotID: spotID, Review: in.Review, Stars: *in.Stars}
	if err := s.repo.CreateReview(ctx, review); err != nil {
		if errors.Is(err, database.ErrUniqueViolation) {
			return nil, newError(ErrDuplicateReview, MsgDuplicateReview)
		}
		return nil, err
	}

	publishEvent(s.eventBus, s.logger, events.EventReviewCreated, events.ReviewEventPayload{
		ReviewID: review.ID, SpotID: spotID, UserID: userID, Stars: review.Stars,
	})
	return review, nil
}

func (s *ReviewService) UpdateReview(ctx context.Context, userID, reviewID int64, in ReviewInput) (*models.Review, error) {
	review, err := s.ownedReview(ctx, userID, reviewID)
	if err != nil {
		return nil, err
	}

	trimAll(&in.Review)
	if errs := s.validator.Struct(&in); errs != nil {
		return nil, validationError(errs)
	}

	review.Review = in.Review
	review.Stars = *in.Stars
	if err := s.repo.UpdateReview(ctx, review); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, newError(ErrNotFound, MsgReviewNotFound)
		}
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, userID, reviewID int64) error {
	review, err := s.ownedReview(ctx, userID, reviewID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteReview(ctx, reviewID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return newError(ErrNotFound, MsgReviewNotFound)
		}
		return err
	}

	publishEvent(s.eventBus, s.logger, events.EventReviewDeleted, events.ReviewEventPayload{
		ReviewID: reviewID, SpotID: review.SpotID, UserID: userID,
	})
	return nil
}

// AddReviewImage attaches an image, up to models.MaxReviewImages per review.
func (s *ReviewService) AddReviewImage(ctx context.Context, userID, reviewID int64, in ImageInput) (*ImageRef, error) {
	if _, err := s.ownedReview(ctx, userID, reviewID); err != nil {
		return nil, err
	}

	trimAll(&in.URL)
	if errs := s.validator.Struct(&in); errs != nil {
		return nil, validationError(errs)
	}

	img := &models.ReviewImage{ReviewID: reviewID, URL: in.URL}
	if err := s.repo.CreateReviewImage(ctx, img, models.MaxReviewImages); err != nil {
		if errors.Is(err, database.ErrLimitReached) {
			return nil, newError(ErrImageLimit, MsgImageLimit)
		}
		return nil, err
	}
	return &ImageRef{ID: img.ID, URL: img.URL}, nil
}

func (s *ReviewService) DeleteReviewImage(ctx context.Context, userID, imageID int64) error {
	img, err := s.repo.GetReviewImage(ctx, imageID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return newError(ErrNotFound, MsgReviewImageMissing)
		}
		return err
	}

	if _, err := s.ownedReview(ctx, userID, img.ReviewID); err != nil {
		return err
	}

	if err := s.repo.DeleteReviewImage(ctx, imageID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return newError(ErrNotFound, MsgReviewImageMissing)
		}
		return err
	}
	return nil
}

func (s *ReviewService) details(ctx context.Context, reviews []models.Review, withSpot bool) ([]ReviewDetail, error) {
	out := make([]ReviewDetail, 0, len(reviews))
	if len(reviews) == 0 {
		return out, nil
	}

	userIDs := make([]int64, 0, len(reviews))
	reviewIDs := make([]int64, 0, len(reviews))
	for _, r := range reviews {
		userIDs = append(userIDs, r.UserID)
		reviewIDs = append(reviewIDs, r.ID)
	}

	users, err := s.repo.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	images, err := s.repo.ListReviewImages(ctx, reviewIDs)
	if err != nil {
		return nil, err
	}

	spots := map[int64]*SpotPreview{}
	for _, r := range reviews {
		user := users[r.UserID]
		detail := ReviewDetail{
			Review:       r,
			User:         user.Summary(),
			ReviewImages: make([]ImageRef, 0, len(images[r.ID])),
		}
		for _, img := range images[r.ID] {
			detail.ReviewImages = append(detail.ReviewImages, ImageRef{ID: img.ID, URL: img.URL})
		}

		if withSpot {
			preview, ok := spots[r.SpotID]
			if !ok {
				if preview, err = loadSpotPreview(ctx, s.repo, r.SpotID); err != nil {
					return nil, err
				}
				spots[r.SpotID] = preview
			}
			detail.Spot = preview
		}
		out = append(out, detail)
	}
	return out, nil
}

func (s *ReviewService) findSpot(ctx context.Context, spotID int64) (*models.Spot, error) {
	spot, err := s.repo.GetSpot(ctx, spotID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, newError(ErrNotFound, MsgSpotNotFound)
		}
		return nil, err
	}
	return spot, nil
}

func (s *ReviewService) ownedReview(ctx context.Context, userID, reviewID int64) (*models.Review, error) {
	review, err := s.repo.GetReview(ctx, reviewID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, newError(ErrNotFound, MsgReviewNotFound)
		}
		return nil, err
	}
	if review.UserID != userID {
		return nil, forbidden()
	}
	return review, nil
}

func loadSpotPreview(ctx context.Context, repo domain.Repository, spotID int64) (*SpotPreview, error) {
	spot, err := repo.GetSpot(ctx, spotID)
	if err != nil {
		return nil, err
	}
	images, err := repo.ListSpotImages(ctx, spotID)
	if err != nil {
		return nil, err
	}
	return newSpotPreview(spot, images), nil
}
