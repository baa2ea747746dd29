package models

import "time"

type Spot struct {
	ID          int64     `db:"id" json:"id"`
	OwnerID     int64     `db:"owner_id" json:"ownerId"`
	Address     string    `db:"address" json:"address"`
	City        string    `db:"city" json:"city"`
	State       string    `db:"state" json:"state"`
	Country     string    `db:"country" json:"country"`
	Lat         float64   `db:"lat" json:"lat"`
	Lng         float64   `db:"lng" json:"lng"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Price       float64   `db:"price" json:"price"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

type SpotImage struct {
	ID        int64     `db:"id" json:"id"`
	SpotID    int64     `db:"spot_id" json:"spotId"`
	URL       string    `db:"url" json:"url"`
	Preview   bool      `db:"preview" json:"preview"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// SpotFilter bounds the spot listing. Nil fields are not applied.
type SpotFilter struct {
	MinLat   *float64
	MaxLat   *float64
	MinLng   *float64
	MaxLng   *float64
	MinPrice *float64
	MaxPrice *float64
	OwnerID  *int64
}

// SpotRating is the aggregate computed from a spot's reviews on every read.
// AvgRating is nil when the spot has no reviews.
type SpotRating struct {
	AvgRating  *float64
	NumReviews int
}

// SpotSummary is a spot row with the aggregates shown in list views.
type SpotSummary struct {
	Spot
	AvgRating    *float64 `db:"avg_rating" json:"avgRating"`
	PreviewImage *string  `db:"preview_image" json:"previewImage"`
}
