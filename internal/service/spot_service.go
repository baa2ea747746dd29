package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"spotbnb/internal/database"
	"spotbnb/internal/domain"
	"spotbnb/internal/events"
	"spotbnb/internal/models"
	"spotbnb/internal/validation"

	"github.com/rs/zerolog"
)

type SpotService struct {
	repo      domain.Repository
	validator *validation.Validator
	eventBus  domain.EventPublisher
	logger    *zerolog.Logger
}

func NewSpotService(repo domain.Repository, v *validation.Validator, eventBus domain.EventPublisher, logger *zerolog.Logger) *SpotService {
	return &SpotService{
		repo:      repo,
		validator: v,
		eventBus:  eventBus,
		logger:    logger,
	}
}

// ListSpots validates the raw query bounds and lists the matching spots.
// Each bound that is present applies on its own.
func (s *SpotService) ListSpots(ctx context.Context, q SpotQuery) ([]models.SpotSummary, error) {
	if errs := s.validator.Struct(&q); errs != nil {
		return nil, validationError(errs)
	}

	filter := models.SpotFilter{
		MinLat:   parseBound(q.MinLat),
		MaxLat:   parseBound(q.MaxLat),
		MinLng:   parseBound(q.MinLng),
		MaxLng:   parseBound(q.MaxLng),
		MinPrice: parseBound(deref(q.MinPrice)),
		MaxPrice: parseBound(deref(q.MaxPrice)),
	}
	return s.repo.ListSpots(ctx, filter)
}

func (s *SpotService) ListOwnedSpots(ctx context.Context, ownerID int64) ([]models.SpotSummary, error) {
	return s.repo.ListSpots(ctx, models.SpotFilter{OwnerID: &ownerID})
}

func (s *SpotService) GetSpot(ctx context.Context, spotID int64) (*SpotDetail, error) {
	spot, err := s.findSpot(ctx, spotID)
	if err != nil {
		return nil, err
	}

	rating, err := s.repo.GetSpotRating(ctx, spotID)
	if err != nil {
		return nil, err
	}
	images, err := s.repo.ListSpotImages(ctx, spotID)
	if err != nil {
		return nil, err
	}
	owner, err := s.repo.GetUserByID(ctx, spot.OwnerID)
	if err != nil {
		return nil, err
	}

	detail := &SpotDetail{
		Spot:       *spot,
		NumReviews: rating.NumReviews,
		AvgRating:  rating.AvgRating,
		SpotImages: make([]SpotImageRef, 0, len(images)),
		Owner:      owner.Summary(),
	}
	for _, img := range images {
		detail.SpotImages = append(detail.SpotImages, SpotImageRef{ID: img.ID, URL: img.URL, Preview: img.Preview})
	}
	return detail, nil
}

func (s *SpotService) CreateSpot(ctx context.Context, ownerID int64, in SpotInput) (*models.Spot, error) {
	in.normalize()
	if errs := s.validator.Struct(&in); errs != nil {
		return nil, validationError(errs)
	}

	spot := &models.Spot{
		OwnerID:     ownerID,
		Address:     in.Address,
		City:        in.City,
		State:       in.State,
		Country:     in.Country,
		Lat:         *in.Lat,
		Lng:         *in.Lng,
		Name:        in.Name,
		Description: in.Description,
		Price:       *in.Price,
	}
	if err := s.repo.CreateSpot(ctx, spot); err != nil {
		return nil, err
	}

	s.publish(events.EventSpotCreated, events.SpotEventPayload{SpotID: spot.ID, OwnerID: ownerID, Name: spot.Name})
	return spot, nil
}

// UpdateSpot applies the patch only when every present field is valid.
func (s *SpotService) UpdateSpot(ctx context.Context, userID, spotID int64, patch SpotPatch) (*models.Spot, error) {
	spot, err := s.ownedSpot(ctx, userID, spotID)
	if err != nil {
		return nil, err
	}

	patch.normalize()
	if errs := s.validator.Struct(&patch); errs != nil {
		return nil, validationError(errs)
	}

	setString(&spot.Address, patch.Address)
	setString(&spot.City, patch.City)
	setString(&spot.State, patch.State)
	setString(&spot.Country, patch.Country)
	setString(&spot.Name, patch.Name)
	setString(&spot.Description, patch.Description)
	setFloat(&spot.Lat, patch.Lat)
	setFloat(&spot.Lng, patch.Lng)
	setFloat(&spot.Price, patch.Price)

	if err := s.repo.UpdateSpot(ctx, spot); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, newError(ErrNotFound, MsgSpotNotFound)
		}
		return nil, err
	}

	s.publish(events.EventSpotUpdated, events.SpotEventPayload{SpotID: spot.ID, OwnerID: spot.OwnerID, Name: spot.Name})
	return spot, nil
}

func (s *SpotService) DeleteSpot(ctx context.Context, userID, spotID int64) error {
	spot, err := s.ownedSpot(ctx, userID, spotID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteSpot(ctx, spotID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return newError(ErrNotFound, MsgSpotNotFound)
		}
		return err
	}

	s.publish(events.EventSpotDeleted, events.SpotEventPayload{SpotID: spotID, OwnerID: spot.OwnerID})
	return nil
}

func (s *SpotService) AddSpotImage(ctx context.Context, userID, spotID int64, in ImageInput) (*models.SpotImage, error) {
	if _, err := s.ownedSpot(ctx, userID, spotID); err != nil {
		return nil, err
	}

	trimAll(&in.URL)
	if errs := s.validator.Struct(&in); errs != nil {
		return nil, validationError(errs)
	}

	img := &models.SpotImage{SpotID: spotID, URL: in.URL, Preview: in.Preview}
	if err := s.repo.CreateSpotImage(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *SpotService) DeleteSpotImage(ctx context.Context, userID, imageID int64) error {
	img, err := s.repo.GetSpotImage(ctx, imageID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return newError(ErrNotFound, MsgSpotImageNotFound)
		}
		return err
	}

	if _, err := s.ownedSpot(ctx, userID, img.SpotID); err != nil {
		return err
	}

	if err := s.repo.DeleteSpotImage(ctx, imageID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return newError(ErrNotFound, MsgSpotImageNotFound)
		}
		return err
	}
	return nil
}

func (s *SpotService) findSpot(ctx context.Context, spotID int64) (*models.Spot, error) {
	spot, err := s.repo.GetSpot(ctx, spotID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, newError(ErrNotFound, MsgSpotNotFound)
		}
		return nil, err
	}
	return spot, nil
}

// ownedSpot loads the spot and checks userID owns it.
func (s *SpotService) ownedSpot(ctx context.Context, userID, spotID int64) (*models.Spot, error) {
	spot, err := s.findSpot(ctx, spotID)
	if err != nil {
		return nil, err
	}
	if spot.OwnerID != userID {
		return nil, forbidden()
	}
	return spot, nil
}

func (s *SpotService) publish(eventType string, payload any) {
	publishEvent(s.eventBus, s.logger, eventType, payload)
}

func parseBound(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
