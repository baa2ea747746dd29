package service

import (
	"context"
	"errors"
	"time"

	"spotbnb/internal/database"
	"spotbnb/internal/domain"
	"spotbnb/internal/events"
	"spotbnb/internal/metrics"
	"spotbnb/internal/models"
	"spotbnb/internal/validation"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo      domain.Repository
	validator *validation.Validator
	eventBus  domain.EventPublisher
	mode      models.OverlapMode
	now       func() time.Time
	logger    *zerolog.Logger
}

func NewBookingService(repo domain.Repository, v *validation.Validator, eventBus domain.EventPublisher, mode models.OverlapMode, logger *zerolog.Logger) *BookingService {
	if !mode.Valid() {
		mode = models.OverlapPartial
	}
	return &BookingService{
		repo:      repo,
		validator: v,
		eventBus:  eventBus,
		mode:      mode,
		now:       time.Now,
		logger:    logger,
	}
}

// Mode returns the overlap mode used for conflict checks.
func (s *BookingService) Mode() models.OverlapMode {
	return s.mode
}

// CreateBooking books the spot for userID. The date order is checked before
// any conflict lookup; the conflict check and the insert share a transaction.
func (s *BookingService) CreateBooking(ctx context.Context, userID, spotID int64, in BookingInput) (*models.Booking, error) {
	spot, err := s.findSpot(ctx, spotID)
	if err != nil {
		return nil, err
	}
	if spot.OwnerID == userID {
		return nil, newError(ErrForbidden, MsgOwnSpotBooking)
	}

	start, end, err := s.parseRange(in)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{SpotID: spotID, UserID: userID, StartDate: start, EndDate: end}
	if err := s.repo.CreateBooking(ctx, booking, s.mode); err != nil {
		return nil, s.translate(err, spotID)
	}

	s.publish(events.EventBookingCreated, booking, userID)
	return booking, nil
}

// ListSpotBookings returns the owner view when userID owns the spot and the
// public view otherwise.
func (s *BookingService) ListSpotBookings(ctx context.Context, userID, spotID int64) (SpotBookings, error) {
	spot, err := s.findSpot(ctx, spotID)
	if err != nil {
		return SpotBookings{}, err
	}

	bookings, err := s.repo.ListBookingsBySpot(ctx, spotID)
	if err != nil {
		return SpotBookings{}, err
	}

	if spot.OwnerID != userID {
		public := make([]PublicBooking, 0, len(bookings))
		for _, b := range bookings {
			public = append(public, PublicBooking{SpotID: b.SpotID, StartDate: b.StartDate, EndDate: b.EndDate})
		}
		return SpotBookings{Public: public}, nil
	}

	owner := make([]OwnerBooking, 0, len(bookings))
	if len(bookings) == 0 {
		return SpotBookings{Owner: owner}, nil
	}

	ids := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.UserID)
	}
	users, err := s.repo.GetUsersByIDs(ctx, ids)
	if err != nil {
		return SpotBookings{}, err
	}
	for _, b := range bookings {
		user := users[b.UserID]
		owner = append(owner, OwnerBooking{User: user.Summary(), Booking: b})
	}
	return SpotBookings{Owner: owner}, nil
}

func (s *BookingService) ListUserBookings(ctx context.Context, userID int64) ([]UserBooking, error) {
	bookings, err := s.repo.ListBookingsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]UserBooking, 0, len(bookings))
	spots := map[int64]*SpotPreview{}
	for _, b := range bookings {
		preview, ok := spots[b.SpotID]
		if !ok {
			if preview, err = loadSpotPreview(ctx, s.repo, b.SpotID); err != nil {
				return nil, err
			}
			spots[b.SpotID] = preview
		}
		out = append(out, UserBooking{Booking: b, Spot: preview})
	}
	return out, nil
}

// UpdateBooking moves a booking to new dates. Only the booker may do so, and
// only while the booking has not ended.
func (s *BookingService) UpdateBooking(ctx context.Context, userID, bookingID int64, in BookingInput) (*models.Booking, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, forbidden()
	}

	start, end, err := s.parseRange(in)
	if err != nil {
		return nil, err
	}
	if booking.EndDate.Before(today(s.now)) {
		return nil, newError(ErrForbidden, MsgPastBooking)
	}

	updated := *booking
	updated.StartDate = start
	updated.EndDate = end
	if err := s.repo.UpdateBookingDates(ctx, &updated, s.mode); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, newError(ErrNotFound, MsgBookingNotFound)
		}
		return nil, s.translate(err, booking.SpotID)
	}

	s.publish(events.EventBookingUpdated, &updated, userID)
	return &updated, nil
}

// DeleteBooking cancels a booking that has not started yet. The booker and
// the spot owner may cancel.
func (s *BookingService) DeleteBooking(ctx context.Context, userID, bookingID int64) error {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	if booking.UserID != userID {
		spot, err := s.repo.GetSpot(ctx, booking.SpotID)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			return err
		}
		if spot == nil || spot.OwnerID != userID {
			return forbidden()
		}
	}

	if !booking.StartDate.After(today(s.now)) {
		return newError(ErrForbidden, MsgStartedBooking)
	}

	if err := s.repo.DeleteBooking(ctx, bookingID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return newError(ErrNotFound, MsgBookingNotFound)
		}
		return err
	}

	s.publish(events.EventBookingDeleted, booking, userID)
	return nil
}

// GetOwnedSpotBookings returns the full booking rows of a spot owned by userID.
func (s *BookingService) GetOwnedSpotBookings(ctx context.Context, userID, spotID int64) (*models.Spot, []OwnerBooking, error) {
	spot, err := s.findSpot(ctx, spotID)
	if err != nil {
		return nil, nil, err
	}
	if spot.OwnerID != userID {
		return nil, nil, forbidden()
	}

	view, err := s.ListSpotBookings(ctx, userID, spotID)
	if err != nil {
		return nil, nil, err
	}
	return spot, view.Owner, nil
}

func (s *BookingService) parseRange(in BookingInput) (models.Date, models.Date, error) {
	trimAll(&in.StartDate, &in.EndDate)
	if errs := s.validator.Struct(&in); errs != nil {
		return models.Date{}, models.Date{}, validationError(errs)
	}

	start, err := models.ParseDate(in.StartDate)
	if err != nil {
		return models.Date{}, models.Date{}, validationError(map[string]string{"startDate": validation.FieldMessage(&in, "startDate")})
	}
	end, err := models.ParseDate(in.EndDate)
	if err != nil {
		return models.Date{}, models.Date{}, validationError(map[string]string{"endDate": validation.FieldMessage(&in, "endDate")})
	}

	if !end.After(start) {
		return models.Date{}, models.Date{}, invalidDateRange()
	}
	return start, end, nil
}

func (s *BookingService) translate(err error, spotID int64) error {
	if errors.Is(err, database.ErrBookingConflict) {
		metrics.IncBookingConflict()
		s.logger.Info().Int64("spot_id", spotID).Str("mode", string(s.mode)).Msg("Booking rejected: dates conflict")
		return bookingConflict()
	}
	if errors.Is(err, database.ErrNotFound) {
		return newError(ErrNotFound, MsgSpotNotFound)
	}
	return err
}

func (s *BookingService) findSpot(ctx context.Context, spotID int64) (*models.Spot, error) {
	spot, err := s.repo.GetSpot(ctx, spotID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, newError(ErrNotFound, MsgSpotNotFound)
		}
		return nil, err
	}
	return spot, nil
}

func (s *BookingService) findBooking(ctx context.Context, bookingID int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, newError(ErrNotFound, MsgBookingNotFound)
		}
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) publish(eventType string, b *models.Booking, actorID int64) {
	publishEvent(s.eventBus, s.logger, eventType, events.BookingEventPayload{
		BookingID: b.ID,
		SpotID:    b.SpotID,
		UserID:    b.UserID,
		StartDate: b.StartDate.String(),
		EndDate:   b.EndDate.String(),
		ActorID:   actorID,
	})
}
