package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"spotbnb/internal/database"
	"spotbnb/internal/events"
	"spotbnb/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newBookingService(mode models.OverlapMode) (*BookingService, *mockRepo, *mockEventBus) {
	repo := new(mockRepo)
	bus := new(mockEventBus)
	svc := NewBookingService(repo, testValidator, bus, mode, testLogger())
	svc.now = func() time.Time { return time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC) }
	return svc, repo, bus
}

func requireKind(t *testing.T, err error, kind error) *Error {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)
	svcErr, ok := AsError(err)
	require.True(t, ok, "expected *service.Error, got %T", err)
	return svcErr
}

func TestBookingService_Mode(t *testing.T) {
	full, _, _ := newBookingService(models.OverlapFull)
	assert.Equal(t, models.OverlapFull, full.Mode())

	unknown, _, _ := newBookingService(models.OverlapMode("strict"))
	assert.Equal(t, models.OverlapPartial, unknown.Mode())
}

func TestBookingService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, repo, bus := newBookingService(models.OverlapPartial)
		repo.On("GetSpot", ctx, int64(5)).Return(&models.Spot{ID: 5, OwnerID: 1}, nil).Once()
		repo.On("CreateBooking", ctx, mock.AnythingOfType("*models.Booking"), models.OverlapPartial).
			Run(func(args mock.Arguments) { args.Get(1).(*models.Booking).ID = 42 }).
			Return(nil).Once()
		bus.On("PublishJSON", events.EventBookingCreated, mock.Anything).Return(nil).Once()

		b, err := svc.CreateBooking(ctx, 2, 5, BookingInput{StartDate: "2024-06-10", EndDate: "2024-06-12"})
		require.NoError(t, err)
		assert.Equal(t, int64(42), b.ID)
		assert.Equal(t, int64(2), b.UserID)
		assert.Equal(t, "2024-06-10", b.StartDate.String())
		assert.Equal(t, "2024-06-12", b.EndDate.String())
		repo.AssertExpectations(t)
		bus.AssertExpectations(t)
	})

	t.Run("ConflictNamesBothDates", func(t *testing.T) {
		svc, repo, _ := newBookingService(models.OverlapPartial)
		repo.On("GetSpot", ctx, int64(5)).Return(&models.Spot{ID: 5, OwnerID: 1}, nil).Once()
		repo.On("CreateBooking", ctx, mock.AnythingOfType("*models.Booking"), models.OverlapPartial).
			Return(database.ErrBookingConflict).Once()

		_, err := svc.CreateBooking(ctx, 2, 5, BookingInput{StartDate: "2024-06-04", EndDate: "2024-06-10"})
		svcErr := requireKind(t, err, ErrBookingConflict)
		assert.Equal(t, MsgBookingConflict, svcErr.Message)
		assert.Equal(t, "Start date conflicts with an existing booking", svcErr.Fields["startDate"])
		assert.Equal(t, "End date conflicts with an existing booking", svcErr.Fields["endDate"])
	})

	t.Run("OwnerCannotBookOwnSpot", func(t *testing.T) {
		svc, repo, _ := newBookingService(models.OverlapPartial)
		repo.On("GetSpot", ctx, int64(7)).Return(&models.Spot{ID: 7, OwnerID: 3}, nil).Once()

		_, err := svc.CreateBooking(ctx, 3, 7, BookingInput{StartDate: "2024-06-10", EndDate: "2024-06-12"})
		svcErr := requireKind(t, err, ErrForbidden)
		assert.Equal(t, MsgOwnSpotBooking, svcErr.Message)
		repo.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("InvalidRangeBeforeConflictCheck", func(t *testing.T) {
		svc, repo, _ := newBookingService(models.OverlapPartial)
		repo.On("GetSpot", ctx, int64(5)).Return(&models.Spot{ID: 5, OwnerID: 1}, nil)

		for _, in := range []BookingInput{
			{StartDate: "2024-06-10", EndDate: "2024-06-10"},
			{StartDate: "2024-06-10", EndDate: "2024-06-01"},
		} {
			_, err := svc.CreateBooking(ctx, 2, 5, in)
			svcErr := requireKind(t, err, ErrInvalidDateRange)
			assert.Equal(t, "endDate cannot be on or before startDate", svcErr.Fields["endDate"])
		}
		repo.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "HasBookingConflict", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("MalformedDates", func(t *testing.T) {
		svc, repo, _ := newBookingService(models.OverlapPartial)
		repo.On("GetSpot", ctx, int64(5)).Return(&models.Spot{ID: 5, OwnerID: 1}, nil).Once()

		_, err := svc.CreateBooking(ctx, 2, 5, BookingInput{StartDate: "06/10/2024"})
		svcErr := requireKind(t, err, ErrValidation)
		assert.Contains(t, svcErr.Fields, "startDate")
		assert.Contains(t, svcErr.Fields, "endDate")
	})

	t.Run("SpotNotFound", func(t *testing.T) {
		svc, repo, _ := newBookingService(models.OverlapPartial)
		repo.On("GetSpot", ctx, int64(99)).Return(nil, database.ErrNotFound).Once()

		_, err := svc.CreateBooking(ctx, 2, 99, BookingInput{StartDate: "2024-06-10", EndDate: "2024-06-12"})
		svcErr := requireKind(t, err, ErrNotFound)
		assert.Equal(t, MsgSpotNotFound, svcErr.Message)
	})

	t.Run("FullModeIsPassedThrough", func(t *testing.T) {
		svc, repo, bus := newBookingService(models.OverlapFull)
		repo.On("GetSpot", ctx, int64(5)).Return(&models.Spot{ID: 5, OwnerID: 1}, nil).Once()
		repo.On("CreateBooking", ctx, mock.AnythingOfType("*models.Booking"), models.OverlapFull).Return(nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.CreateBooking(ctx, 2, 5, BookingInput{StartDate: "2024-06-10", EndDate: "2024-06-12"})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("EventFailureDoesNotFailBooking", func(t *testing.T) {
		svc, repo, bus := newBookingService(models.OverlapPartial)
		repo.On("GetSpot", ctx, int64(5)).Return(&models.Spot{ID: 5, OwnerID: 1}, nil).Once()
		repo.On("CreateBooking", ctx, mock.Anything, mock.Anything).Return(nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(errors.New("bus down")).Once()

		_, err := svc.CreateBooking(ctx, 2, 5, BookingInput{StartDate: "2024-06-10", EndDate: "2024-06-12"})
		assert.NoError(t, err)
	})
}

func TestBookingService_ListSpotBookings(t *testing.T) {
	ctx := context.Background()
	bookings := []models.Booking{
		{ID: 1, SpotID: 5, UserID: 2, StartDate: mustDate("2024-06-01"), EndDate: mustDate("2024-06-05")},
		{ID: 2, SpotID: 5, UserID: 3, StartDate: mustDate("2024-07-01"), EndDate: mustDate("2024-07-03")},
	}

	t.Run("NonOwnerSeesPublicFields", func(t *testing.T) {
		svc, repo, _ := newBookingService(models.OverlapPartial)
		repo.On("GetSpot", ctx, int64(5)).Return(&models.Spot{ID: 5, OwnerID: 1}, nil).Once()
		repo.On("ListBookingsBySpot", ctx, int64(5)).Return(bookings, nil).Once()

		view, err := svc.ListSpotBookings(ctx, 2, 5)
		require.NoError(t, err)
		assert.False(t, view.IsOwnerView())
		require.Len(t, view.Public, 2)
		assert.Equal(t, PublicBooking{SpotID: 5, StartDate: mustDate("2024-06-01"), EndDate: mustDate("2024-06-05")}, view.Public[0])
		repo.AssertNotCalled(t, "GetUsersByIDs", mock.Anything, mock.Anything)
	})

	t.Run("OwnerSeesBookers", func(t *testing.T) {
		svc, repo, _ := newBookingService(models.OverlapPartial)
		repo.On("GetSpot", ctx, int64(5)).Return(&models.Spot{ID: 5, OwnerID: 1}, nil).Once()
		repo.On("ListBookingsBySpot", ctx, int64(5)).Return(bookings, nil).Once()
		repo.On("GetUsersByIDs", ctx, []int64{2, 3}).Return(map[int64]models.User{
			2: {ID: 2, FirstName: "Demo", LastName: "User"},
			3: {ID: 3, FirstName: "Fake", LastName: "Guest"},
		}, nil).Once()

		view, err := svc.ListSpotBookings(ctx, 1, 5)
		require.NoError(t, err)
		assert.True(t, view.IsOwnerView())
		require.Len(t, view.Owner, 2)
		assert.Equal(t, models.UserSummary{ID: 2, FirstName: "Demo", LastName: "User"}, view.Owner[0].User)
		assert.Equal(t, int64(1), view.Owner[0].ID)
	})

	t.Run("OwnerWithNoBookings", func(t *testing.T) {
		svc, repo, _ := newBookingService(models.OverlapPartial)
		repo.On("GetSpot", ctx, int64(5)).Return(&models.Spot{ID: 5, OwnerID: 1}, nil).Once()
		repo.On("ListBookingsBySpot", ctx, int64(5)).Return([]models.Booking{}, nil).Once()

		view, err := svc.ListSpotBookings(ctx, 1, 5)
		require.NoError(t, err)
		assert.True(t, view.IsOwnerView())
		assert.Empty(t, view.Owner)
	})
}

func TestBookingService_Update(t *testing.T) {
	ctx := context.Background()
	future := &models.Booking{ID: 9, SpotID: 5, UserID: 2, StartDate: mustDate("2024-06-01"), EndDate: mustDate("2024-06-05")}

	t.Run("Success", func(t *testing.T) {
		svc, repo, bus := newBookingService(models.OverlapPartial)
		repo.On("GetBooking", ctx, int64(9)).Return(future, nil).Once()
		repo.On("UpdateBookingDates", ctx, mock.MatchedBy(func(b *models.Booking) bool {
			return b.ID == 9 && b.StartDate.String() == "2024-06-02" && b.EndDate.String() == "2024-06-08"
		}), models.OverlapPartial).Return(nil).Once()
		bus.On("PublishJSON", events.EventBookingUpdated, mock.Anything).Return(nil).Once()

		b, err := svc.UpdateBooking(ctx, 2, 9, BookingInput{StartDate: "2024-06-02", EndDate: "2024-06-08"})
		require.NoError(t, err)
		assert.Equal(t, "2024-06-08", b.EndDate.String())
		assert.Equal(t, "2024-06-05", future.EndDate.String(), "loaded booking must not be mutated")
		repo.AssertExpectations(t)
	})

	t.Run("NotBooker", func(t *testing.T) {
		svc, repo, _ := newBookingService(models.OverlapPartial)
		repo.On("GetBooking", ctx, int64(9)).Return(future, nil).Once()

		_, err := svc.UpdateBooking(ctx, 3, 9, BookingInput{StartDate: "2024-06-02", EndDate: "2024-06-08"})
		requireKind(t, err, ErrForbidden)
	})

	t.Run("PastBooking", func(t *testing.T) {
		svc, repo, _ := newBookingService(models.OverlapPartial)
		past := &models.Booking{ID: 8, SpotID: 5, UserID: 2, StartDate: mustDate("2024-05-01"), EndDate: mustDate("2024-05-03")}
		repo.On("GetBooking", ctx, int64(8)).Return(past, nil).Once()

		_, err := svc.UpdateBooking(ctx, 2, 8, BookingInput{StartDate: "2024-06-02", EndDate: "2024-06-08"})
		svcErr := requireKind(t, err, ErrForbidden)
		assert.Equal(t, MsgPastBooking, svcErr.Message)
	})

	t.Run("Conflict", func(t *testing.T) {
		svc, repo, _ := newBookingService(models.OverlapPartial)
		repo.On("GetBooking", ctx, int64(9)).Return(future, nil).Once()
		repo.On("UpdateBookingDates", ctx, mock.Anything, models.OverlapPartial).Return(database.ErrBookingConflict).Once()

		_, err := svc.UpdateBooking(ctx, 2, 9, BookingInput{StartDate: "2024-06-02", EndDate: "2024-06-08"})
		requireKind(t, err, ErrBookingConflict)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, repo, _ := newBookingService(models.OverlapPartial)
		repo.On("GetBooking", ctx, int64(404)).Return(nil, database.ErrNotFound).Once()

		_, err := svc.UpdateBooking(ctx, 2, 404, BookingInput{StartDate: "2024-06-02", EndDate: "2024-06-08"})
		svcErr := requireKind(t, err, ErrNotFound)
		assert.Equal(t, MsgBookingNotFound, svcErr.Message)
	})
}

func TestBookingService_Delete(t *testing.T) {
	ctx := context.Background()
	upcoming := &models.Booking{ID: 9, SpotID: 5, UserID: 2, StartDate: mustDate("2024-06-01"), EndDate: mustDate("2024-06-05")}

	t.Run("Booker", func(t *testing.T) {
		svc, repo, bus := newBookingService(models.OverlapPartial)
		repo.On("GetBooking", ctx, int64(9)).Return(upcoming, nil).Once()
		repo.On("DeleteBooking", ctx, int64(9)).Return(nil).Once()
		bus.On("PublishJSON", events.EventBookingDeleted, mock.Anything).Return(nil).Once()

		require.NoError(t, svc.DeleteBooking(ctx, 2, 9))
		repo.AssertExpectations(t)
	})

	t.Run("SpotOwner", func(t *testing.T) {
		svc, repo, bus := newBookingService(models.OverlapPartial)
		repo.On("GetBooking", ctx, int64(9)).Return(upcoming, nil).Once()
		repo.On("GetSpot", ctx, int64(5)).Return(&models.Spot{ID: 5, OwnerID: 1}, nil).Once()
		repo.On("DeleteBooking", ctx, int64(9)).Return(nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()

		require.NoError(t, svc.DeleteBooking(ctx, 1, 9))
	})

	t.Run("Stranger", func(t *testing.T) {
		svc, repo, _ := newBookingService(models.OverlapPartial)
		repo.On("GetBooking", ctx, int64(9)).Return(upcoming, nil).Once()
		repo.On("GetSpot", ctx, int64(5)).Return(&models.Spot{ID: 5, OwnerID: 1}, nil).Once()

		err := svc.DeleteBooking(ctx, 4, 9)
		requireKind(t, err, ErrForbidden)
		repo.AssertNotCalled(t, "DeleteBooking", mock.Anything, mock.Anything)
	})

	t.Run("Started", func(t *testing.T) {
		svc, repo, _ := newBookingService(models.OverlapPartial)
		started := &models.Booking{ID: 7, SpotID: 5, UserID: 2, StartDate: mustDate("2024-05-20"), EndDate: mustDate("2024-05-25")}
		repo.On("GetBooking", ctx, int64(7)).Return(started, nil).Once()

		err := svc.DeleteBooking(ctx, 2, 7)
		svcErr := requireKind(t, err, ErrForbidden)
		assert.Equal(t, MsgStartedBooking, svcErr.Message)
	})
}

func TestBookingService_ListUserBookings(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newBookingService(models.OverlapPartial)

	repo.On("ListBookingsByUser", ctx, int64(2)).Return([]models.Booking{
		{ID: 1, SpotID: 5, UserID: 2},
		{ID: 2, SpotID: 5, UserID: 2},
	}, nil).Once()
	repo.On("GetSpot", ctx, int64(5)).Return(&models.Spot{ID: 5, OwnerID: 1, Name: "Loft"}, nil).Once()
	repo.On("ListSpotImages", ctx, int64(5)).Return([]models.SpotImage{
		{ID: 1, URL: "a.jpg"},
		{ID: 2, URL: "b.jpg", Preview: true},
	}, nil).Once()

	out, err := svc.ListUserBookings(ctx, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.NotNil(t, out[0].Spot.PreviewImage)
	assert.Equal(t, "b.jpg", *out[0].Spot.PreviewImage)
	assert.Same(t, out[0].Spot, out[1].Spot)
	repo.AssertExpectations(t)
}
