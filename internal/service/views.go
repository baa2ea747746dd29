package service

import (
	"spotbnb/internal/models"
)

// ImageRef is an image as embedded in review listings.
type ImageRef struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// SpotImageRef is a spot image as embedded in spot details.
type SpotImageRef struct {
	ID      int64  `json:"id"`
	URL     string `json:"url"`
	Preview bool   `json:"preview"`
}

// SpotDetail is a single spot with its owner, images and rating.
type SpotDetail struct {
	models.Spot
	NumReviews int                `json:"numReviews"`
	AvgRating  *float64           `json:"avgRating"`
	SpotImages []SpotImageRef     `json:"SpotImages"`
	Owner      models.UserSummary `json:"Owner"`
}

// SpotPreview is a spot as embedded in review and booking listings.
type SpotPreview struct {
	ID           int64   `json:"id"`
	OwnerID      int64   `json:"ownerId"`
	Address      string  `json:"address"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	Country      string  `json:"country"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	PreviewImage *string `json:"previewImage"`
}

// ReviewDetail is a review with its author, images and, for the author's
// own listing, the reviewed spot.
type ReviewDetail struct {
	models.Review
	User         models.UserSummary `json:"User"`
	Spot         *SpotPreview       `json:"Spot,omitempty"`
	ReviewImages []ImageRef         `json:"ReviewImages"`
}

// PublicBooking is everything a non-owner may see of a spot's booking.
type PublicBooking struct {
	SpotID    int64       `json:"spotId"`
	StartDate models.Date `json:"startDate"`
	EndDate   models.Date `json:"endDate"`
}

// OwnerBooking is a spot's booking as shown to the spot owner.
type OwnerBooking struct {
	User models.UserSummary `json:"User"`
	models.Booking
}

// SpotBookings holds exactly one of the two views.
type SpotBookings struct {
	Owner  []OwnerBooking
	Public []PublicBooking
}

// IsOwnerView reports whether the caller owns the spot.
func (b SpotBookings) IsOwnerView() bool {
	return b.Owner != nil
}

// UserBooking is one of the current user's bookings with its spot.
type UserBooking struct {
	models.Booking
	Spot *SpotPreview `json:"Spot"`
}

func newSpotPreview(spot *models.Spot, images []models.SpotImage) *SpotPreview {
	p := &SpotPreview{
		ID:      spot.ID,
		OwnerID: spot.OwnerID,
		Address: spot.Address,
		City:    spot.City,
		State:   spot.State,
		Country: spot.Country,
		Lat:     spot.Lat,
		Lng:     spot.Lng,
		Name:    spot.Name,
		Price:   spot.Price,
	}
	for _, img := range images {
		if img.Preview {
			url := img.URL
			p.PreviewImage = &url
			break
		}
	}
	return p
}
