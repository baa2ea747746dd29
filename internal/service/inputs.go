package service

import (
	"strings"

	"spotbnb/internal/validation"
)

type SignupInput struct {
	validation.Rejections `json:"-"`

	FirstName string `json:"firstName" validate:"required" msg:"First Name is required"`
	LastName  string `json:"lastName" validate:"required" msg:"Last Name is required"`
	Email     string `json:"email" validate:"required,email" msg:"Invalid email"`
	Username  string `json:"username" validate:"required,min=4,notemail" msg:"Please provide a username with at least 4 characters that is not an email"`
	Password  string `json:"password" validate:"required,min=6" msg:"Password must be 6 characters or more"`
}

func (in *SignupInput) normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
}

type LoginInput struct {
	validation.Rejections `json:"-"`

	Credential string `json:"credential" validate:"required" msg:"Email or username is required"`
	Password   string `json:"password" validate:"required" msg:"Password is required"`
}

// SpotInput is the body of a spot creation.
type SpotInput struct {
	validation.Rejections `json:"-"`

	Address     string   `json:"address" validate:"required" msg:"Street address is required"`
	City        string   `json:"city" validate:"required" msg:"City is required"`
	State       string   `json:"state" validate:"required" msg:"State is required"`
	Country     string   `json:"country" validate:"required" msg:"Country is required"`
	Lat         *float64 `json:"lat" validate:"required,min=-90,max=90" msg:"Latitude is not valid"`
	Lng         *float64 `json:"lng" validate:"required,min=-180,max=180" msg:"Longitude is not valid"`
	Name        string   `json:"name" validate:"required,min=1,max=50" msg:"Name must be between 1 and 50 characters"`
	Description string   `json:"description" validate:"required" msg:"Description is required"`
	Price       *float64 `json:"price" validate:"required,gt=0" msg:"Price per day is required"`
}

func (in *SpotInput) normalize() {
	trimAll(&in.Address, &in.City, &in.State, &in.Country, &in.Name, &in.Description)
}

// SpotPatch is the body of a spot edit. Nil fields are left unchanged;
// present fields obey the SpotInput rules.
type SpotPatch struct {
	validation.Rejections `json:"-"`

	Address     *string  `json:"address" validate:"omitnil,min=1" msg:"Street address is required"`
	City        *string  `json:"city" validate:"omitnil,min=1" msg:"City is required"`
	State       *string  `json:"state" validate:"omitnil,min=1" msg:"State is required"`
	Country     *string  `json:"country" validate:"omitnil,min=1" msg:"Country is required"`
	Lat         *float64 `json:"lat" validate:"omitnil,min=-90,max=90" msg:"Latitude is not valid"`
	Lng         *float64 `json:"lng" validate:"omitnil,min=-180,max=180" msg:"Longitude is not valid"`
	Name        *string  `json:"name" validate:"omitnil,min=1,max=50" msg:"Name must be between 1 and 50 characters"`
	Description *string  `json:"description" validate:"omitnil,min=1" msg:"Description is required"`
	Price       *float64 `json:"price" validate:"omitnil,gt=0" msg:"Price per day is required"`
}

func (in *SpotPatch) normalize() {
	for _, p := range []*string{in.Address, in.City, in.State, in.Country, in.Name, in.Description} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
}

// SpotQuery holds the raw list filters as received in the query string.
// Empty coordinate bounds are ignored; a price bound that is present must be
// a non-negative number even when empty.
type SpotQuery struct {
	MinLat   string  `json:"minLat" validate:"omitempty,float" msg:"Minimum latitude is invalid"`
	MaxLat   string  `json:"maxLat" validate:"omitempty,float" msg:"Maximum latitude is invalid"`
	MinLng   string  `json:"minLng" validate:"omitempty,float" msg:"Minimum longitude is invalid"`
	MaxLng   string  `json:"maxLng" validate:"omitempty,float" msg:"Maximum longitude is invalid"`
	MinPrice *string `json:"minPrice" validate:"omitnil,float,nonnegative" msg:"Minimum price must be greater than or equal to 0"`
	MaxPrice *string `json:"maxPrice" validate:"omitnil,float,nonnegative" msg:"Maximum price must be greater than or equal to 0"`
}

type ImageInput struct {
	validation.Rejections `json:"-"`

	URL     string `json:"url" validate:"required" msg:"Url is required"`
	Preview bool   `json:"preview"`
}

type ReviewInput struct {
	validation.Rejections `json:"-"`

	Review string `json:"review" validate:"required" msg:"Review text is required"`
	Stars  *int   `json:"stars" validate:"required,min=1,max=5" msg:"Stars must be an integer from 1 to 5"`
}

type BookingInput struct {
	validation.Rejections `json:"-"`

	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02" msg:"startDate must be a date in YYYY-MM-DD format"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02" msg:"endDate must be a date in YYYY-MM-DD format"`
}

func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
