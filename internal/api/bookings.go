package api

import (
	"net/http"

	"spotbnb/internal/service"
)

type bookingsBody[T any] struct {
	Bookings []T `json:"Bookings"`
}

// handleListSpotBookings serializes one of two distinct types, so booker
// identity can only reach the spot owner.
func (s *HTTPServer) handleListSpotBookings(w http.ResponseWriter, r *http.Request) {
	spotID, err := pathID(r, "spotId", service.MsgSpotNotFound)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	view, err := s.services.Bookings.ListSpotBookings(r.Context(), currentUser(r.Context()).ID, spotID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if view.IsOwnerView() {
		writeJSON(w, http.StatusOK, bookingsBody[service.OwnerBooking]{Bookings: view.Owner})
		return
	}
	writeJSON(w, http.StatusOK, bookingsBody[service.PublicBooking]{Bookings: nonNil(view.Public)})
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	spotID, err := pathID(r, "spotId", service.MsgSpotNotFound)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var in service.BookingInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	booking, err := s.services.Bookings.CreateBooking(r.Context(), currentUser(r.Context()).ID, spotID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleListUserBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.services.Bookings.ListUserBookings(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingsBody[service.UserBooking]{Bookings: nonNil(bookings)})
}

func (s *HTTPServer) handleUpdateBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := pathID(r, "bookingId", service.MsgBookingNotFound)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var in service.BookingInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	booking, err := s.services.Bookings.UpdateBooking(r.Context(), currentUser(r.Context()).ID, bookingID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := pathID(r, "bookingId", service.MsgBookingNotFound)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.services.Bookings.DeleteBooking(r.Context(), currentUser(r.Context()).ID, bookingID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Successfully deleted")
}
