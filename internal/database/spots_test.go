package database

import (
	"context"
	"testing"

	"spotbnb/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestSpots_CRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := seedUser(t, db, "owner")

	spot := seedSpot(t, db, owner.ID, 37.76, -122.47, 123)
	assert.NotZero(t, spot.ID)

	got, err := db.GetSpot(ctx, spot.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.InDelta(t, 37.76, got.Lat, 1e-9)
	assert.InDelta(t, 123.0, got.Price, 1e-9)

	got.Name = "Renamed"
	got.Price = 150
	require.NoError(t, db.UpdateSpot(ctx, got))

	reloaded, err := db.GetSpot(ctx, spot.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", reloaded.Name)
	assert.InDelta(t, 150.0, reloaded.Price, 1e-9)

	assert.ErrorIs(t, db.UpdateSpot(ctx, &models.Spot{ID: 999}), ErrNotFound)

	_, err = db.GetSpot(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSpots_ListFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := seedUser(t, db, "owner")
	other := seedUser(t, db, "other")

	cheap := seedSpot(t, db, owner.ID, 10, 10, 50)
	mid := seedSpot(t, db, owner.ID, 20, 20, 100)
	pricey := seedSpot(t, db, other.ID, 30, 30, 300)

	ids := func(spots []models.SpotSummary) []int64 {
		out := make([]int64, 0, len(spots))
		for _, s := range spots {
			out = append(out, s.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter models.SpotFilter
		want   []int64
	}{
		{name: "no filters", want: []int64{cheap.ID, mid.ID, pricey.ID}},
		{name: "min lat", filter: models.SpotFilter{MinLat: ptr(15.0)}, want: []int64{mid.ID, pricey.ID}},
		{name: "max lat only", filter: models.SpotFilter{MaxLat: ptr(15.0)}, want: []int64{cheap.ID}},
		{name: "lng window", filter: models.SpotFilter{MinLng: ptr(15.0), MaxLng: ptr(25.0)}, want: []int64{mid.ID}},
		{name: "max price", filter: models.SpotFilter{MaxPrice: ptr(100.0)}, want: []int64{cheap.ID, mid.ID}},
		{name: "min price", filter: models.SpotFilter{MinPrice: ptr(200.0)}, want: []int64{pricey.ID}},
		{name: "owner", filter: models.SpotFilter{OwnerID: ptr(other.ID)}, want: []int64{pricey.ID}},
		{name: "empty window", filter: models.SpotFilter{MinPrice: ptr(1000.0)}, want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spots, err := db.ListSpots(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(spots))
		})
	}
}

func TestSpots_ListAggregates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := seedUser(t, db, "owner")
	r1 := seedUser(t, db, "reviewer1")
	r2 := seedUser(t, db, "reviewer2")

	reviewed := seedSpot(t, db, owner.ID, 1, 1, 10)
	bare := seedSpot(t, db, owner.ID, 2, 2, 10)

	require.NoError(t, db.CreateSpotImage(ctx, &models.SpotImage{SpotID: reviewed.ID, URL: "not-preview.png"}))
	require.NoError(t, db.CreateSpotImage(ctx, &models.SpotImage{SpotID: reviewed.ID, URL: "preview.png", Preview: true}))
	require.NoError(t, db.CreateReview(ctx, &models.Review{UserID: r1.ID, SpotID: reviewed.ID, Review: "ok", Stars: 4}))
	require.NoError(t, db.CreateReview(ctx, &models.Review{UserID: r2.ID, SpotID: reviewed.ID, Review: "great", Stars: 5}))

	spots, err := db.ListSpots(ctx, models.SpotFilter{})
	require.NoError(t, err)
	require.Len(t, spots, 2)

	require.NotNil(t, spots[0].AvgRating)
	assert.InDelta(t, 4.5, *spots[0].AvgRating, 1e-9)
	require.NotNil(t, spots[0].PreviewImage)
	assert.Equal(t, "preview.png", *spots[0].PreviewImage)

	assert.Equal(t, bare.ID, spots[1].ID)
	assert.Nil(t, spots[1].AvgRating)
	assert.Nil(t, spots[1].PreviewImage)
}

func TestSpots_Rating(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := seedUser(t, db, "owner")
	spot := seedSpot(t, db, owner.ID, 1, 1, 10)

	rating, err := db.GetSpotRating(ctx, spot.ID)
	require.NoError(t, err)
	assert.Nil(t, rating.AvgRating)
	assert.Equal(t, 0, rating.NumReviews)

	stars := []int{5, 4, 2}
	for i, s := range stars {
		u := seedUser(t, db, "rater"+string(rune('a'+i)))
		require.NoError(t, db.CreateReview(ctx, &models.Review{UserID: u.ID, SpotID: spot.ID, Review: "r", Stars: s}))
	}

	rating, err = db.GetSpotRating(ctx, spot.ID)
	require.NoError(t, err)
	require.NotNil(t, rating.AvgRating)
	assert.InDelta(t, 11.0/3.0, *rating.AvgRating, 1e-9)
	assert.Equal(t, 3, rating.NumReviews)
}

func TestSpots_DeleteCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := seedUser(t, db, "owner")
	guest := seedUser(t, db, "guest")
	spot := seedSpot(t, db, owner.ID, 1, 1, 10)
	keep := seedSpot(t, db, owner.ID, 2, 2, 10)

	img := &models.SpotImage{SpotID: spot.ID, URL: "a.png", Preview: true}
	require.NoError(t, db.CreateSpotImage(ctx, img))
	review := &models.Review{UserID: guest.ID, SpotID: spot.ID, Review: "nice", Stars: 5}
	require.NoError(t, db.CreateReview(ctx, review))
	rimg := &models.ReviewImage{ReviewID: review.ID, URL: "r.png"}
	require.NoError(t, db.CreateReviewImage(ctx, rimg, models.MaxReviewImages))
	booking := &models.Booking{SpotID: spot.ID, UserID: guest.ID, StartDate: date(t, "2030-01-01"), EndDate: date(t, "2030-01-03")}
	require.NoError(t, db.CreateBooking(ctx, booking, models.OverlapPartial))
	kept := &models.Booking{SpotID: keep.ID, UserID: guest.ID, StartDate: date(t, "2030-01-01"), EndDate: date(t, "2030-01-03")}
	require.NoError(t, db.CreateBooking(ctx, kept, models.OverlapPartial))

	require.NoError(t, db.DeleteSpot(ctx, spot.ID))

	_, err := db.GetSpot(ctx, spot.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.GetSpotImage(ctx, img.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.GetReview(ctx, review.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.GetReviewImage(ctx, rimg.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.GetBooking(ctx, booking.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.GetBooking(ctx, kept.ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, db.DeleteSpot(ctx, spot.ID), ErrNotFound)
}
