package models

import "time"

// MaxReviewImages caps the images attached to a single review.
const MaxReviewImages = 10

type Review struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"userId"`
	SpotID    int64     `db:"spot_id" json:"spotId"`
	Review    string    `db:"review" json:"review"`
	Stars     int       `db:"stars" json:"stars"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type ReviewImage struct {
	ID        int64     `db:"id" json:"id"`
	ReviewID  int64     `db:"review_id" json:"reviewId"`
	URL       string    `db:"url" json:"url"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
