package service

import (
	"context"
	"io"
	"time"

	"spotbnb/internal/models"
	"spotbnb/internal/validation"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateUser(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockRepo) GetUserByCredential(ctx context.Context, c string) (*models.User, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockRepo) GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]models.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]models.User), args.Error(1)
}
func (m *mockRepo) CreateSpot(ctx context.Context, s *models.Spot) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockRepo) GetSpot(ctx context.Context, id int64) (*models.Spot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Spot), args.Error(1)
}
func (m *mockRepo) ListSpots(ctx context.Context, f models.SpotFilter) ([]models.SpotSummary, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SpotSummary), args.Error(1)
}
func (m *mockRepo) GetSpotRating(ctx context.Context, id int64) (models.SpotRating, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.SpotRating), args.Error(1)
}
func (m *mockRepo) UpdateSpot(ctx context.Context, s *models.Spot) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockRepo) DeleteSpot(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) CreateSpotImage(ctx context.Context, img *models.SpotImage) error {
	return m.Called(ctx, img).Error(0)
}
func (m *mockRepo) GetSpotImage(ctx context.Context, id int64) (*models.SpotImage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SpotImage), args.Error(1)
}
func (m *mockRepo) ListSpotImages(ctx context.Context, id int64) ([]models.SpotImage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SpotImage), args.Error(1)
}
func (m *mockRepo) DeleteSpotImage(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) CreateReview(ctx context.Context, r *models.Review) error {
	return m.Called(ctx, r).Error(0)
}
func (m *mockRepo) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}
func (m *mockRepo) FindReview(ctx context.Context, uid, sid int64) (*models.Review, error) {
	args := m.Called(ctx, uid, sid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}
func (m *mockRepo) ListReviewsBySpot(ctx context.Context, id int64) ([]models.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Review), args.Error(1)
}
func (m *mockRepo) ListReviewsByUser(ctx context.Context, id int64) ([]models.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Review), args.Error(1)
}
func (m *mockRepo) UpdateReview(ctx context.Context, r *models.Review) error {
	return m.Called(ctx, r).Error(0)
}
func (m *mockRepo) DeleteReview(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) CreateReviewImage(ctx context.Context, img *models.ReviewImage, limit int) error {
	return m.Called(ctx, img, limit).Error(0)
}
func (m *mockRepo) GetReviewImage(ctx context.Context, id int64) (*models.ReviewImage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewImage), args.Error(1)
}
func (m *mockRepo) ListReviewImages(ctx context.Context, ids []int64) (map[int64][]models.ReviewImage, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64][]models.ReviewImage), args.Error(1)
}
func (m *mockRepo) DeleteReviewImage(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) HasBookingConflict(ctx context.Context, sid int64, s, e models.Date, ex int64, mode models.OverlapMode) (bool, error) {
	args := m.Called(ctx, sid, s, e, ex, mode)
	return args.Bool(0), args.Error(1)
}
func (m *mockRepo) CreateBooking(ctx context.Context, b *models.Booking, mode models.OverlapMode) error {
	return m.Called(ctx, b, mode).Error(0)
}
func (m *mockRepo) UpdateBookingDates(ctx context.Context, b *models.Booking, mode models.OverlapMode) error {
	return m.Called(ctx, b, mode).Error(0)
}
func (m *mockRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) ListBookingsBySpot(ctx context.Context, id int64) ([]models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}
func (m *mockRepo) ListBookingsByUser(ctx context.Context, id int64) ([]models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}
func (m *mockRepo) DeleteBooking(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(et string, p any) error { return m.Called(et, p).Error(0) }

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) RevokeToken(ctx context.Context, id string, ttl time.Duration) error {
	return m.Called(ctx, id, ttl).Error(0)
}
func (m *mockSessions) IsRevoked(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
func (m *mockSessions) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}
func (m *mockSessions) ResetRateLimit(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func testLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

var testValidator = validation.New()

func mustDate(s string) models.Date {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func fptr(v float64) *float64 { return &v }
func sptr(v string) *string   { return &v }
func iptr(v int) *int         { return &v }
