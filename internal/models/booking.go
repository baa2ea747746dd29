package models

import "time"

type Booking struct {
	ID        int64     `db:"id" json:"id"`
	SpotID    int64     `db:"spot_id" json:"spotId"`
	UserID    int64     `db:"user_id" json:"userId"`
	StartDate Date      `db:"start_date" json:"startDate"`
	EndDate   Date      `db:"end_date" json:"endDate"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// OverlapMode selects how a requested range is compared against existing bookings.
type OverlapMode string

const (
	// OverlapPartial flags a conflict only when an existing booking's start or
	// end date falls inside the requested range (inclusive). A requested range
	// strictly inside an existing booking is not detected.
	OverlapPartial OverlapMode = "partial"
	// OverlapFull flags any inclusive intersection of the two ranges.
	OverlapFull OverlapMode = "full"
)

func (m OverlapMode) Valid() bool {
	return m == OverlapPartial || m == OverlapFull
}
