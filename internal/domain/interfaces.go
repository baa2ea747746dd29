package domain

import (
	"context"
	"time"

	"spotbnb/internal/models"
)

// Repository is the persistence surface the services depend on.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByCredential(ctx context.Context, credential string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]models.User, error)

	CreateSpot(ctx context.Context, spot *models.Spot) error
	GetSpot(ctx context.Context, id int64) (*models.Spot, error)
	ListSpots(ctx context.Context, filter models.SpotFilter) ([]models.SpotSummary, error)
	GetSpotRating(ctx context.Context, spotID int64) (models.SpotRating, error)
	UpdateSpot(ctx context.Context, spot *models.Spot) error
	DeleteSpot(ctx context.Context, id int64) error

	CreateSpotImage(ctx context.Context, img *models.SpotImage) error
	GetSpotImage(ctx context.Context, id int64) (*models.SpotImage, error)
	ListSpotImages(ctx context.Context, spotID int64) ([]models.SpotImage, error)
	DeleteSpotImage(ctx context.Context, id int64) error

	CreateReview(ctx context.Context, review *models.Review) error
	GetReview(ctx context.Context, id int64) (*models.Review, error)
	FindReview(ctx context.Context, userID, spotID int64) (*models.Review, error)
	ListReviewsBySpot(ctx context.Context, spotID int64) ([]models.Review, error)
	ListReviewsByUser(ctx context.Context, userID int64) ([]models.Review, error)
	UpdateReview(ctx context.Context, review *models.Review) error
	DeleteReview(ctx context.Context, id int64) error

	CreateReviewImage(ctx context.Context, img *models.ReviewImage, limit int) error
	GetReviewImage(ctx context.Context, id int64) (*models.ReviewImage, error)
	ListReviewImages(ctx context.Context, reviewIDs []int64) (map[int64][]models.ReviewImage, error)
	DeleteReviewImage(ctx context.Context, id int64) error

	HasBookingConflict(ctx context.Context, spotID int64, start, end models.Date, excludeID int64, mode models.OverlapMode) (bool, error)
	CreateBooking(ctx context.Context, booking *models.Booking, mode models.OverlapMode) error
	UpdateBookingDates(ctx context.Context, booking *models.Booking, mode models.OverlapMode) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListBookingsBySpot(ctx context.Context, spotID int64) ([]models.Booking, error)
	ListBookingsByUser(ctx context.Context, userID int64) ([]models.Booking, error)
	DeleteBooking(ctx context.Context, id int64) error
}

// SessionStore keeps revoked session ids and login attempt counters.
type SessionStore interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	ResetRateLimit(ctx context.Context, key string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload any) error
}
