package api

import (
	"net/http"

	"spotbnb/internal/service"
)

type reviewsBody struct {
	Reviews []service.ReviewDetail `json:"Reviews"`
}

func (s *HTTPServer) handleListSpotReviews(w http.ResponseWriter, r *http.Request) {
	spotID, err := pathID(r, "spotId", service.MsgSpotNotFound)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	reviews, err := s.services.Reviews.ListSpotReviews(r.Context(), spotID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewsBody{Reviews: nonNil(reviews)})
}

func (s *HTTPServer) handleListUserReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.services.Reviews.ListUserReviews(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewsBody{Reviews: nonNil(reviews)})
}

func (s *HTTPServer) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	spotID, err := pathID(r, "spotId", service.MsgSpotNotFound)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var in service.ReviewInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	review, err := s.services.Reviews.CreateReview(r.Context(), currentUser(r.Context()).ID, spotID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (s *HTTPServer) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	reviewID, err := pathID(r, "reviewId", service.MsgReviewNotFound)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var in service.ReviewInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	review, err := s.services.Reviews.UpdateReview(r.Context(), currentUser(r.Context()).ID, reviewID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (s *HTTPServer) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	reviewID, err := pathID(r, "reviewId", service.MsgReviewNotFound)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.services.Reviews.DeleteReview(r.Context(), currentUser(r.Context()).ID, reviewID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Successfully deleted")
}

func (s *HTTPServer) handleAddReviewImage(w http.ResponseWriter, r *http.Request) {
	reviewID, err := pathID(r, "reviewId", service.MsgReviewNotFound)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var in service.ImageInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	img, err := s.services.Reviews.AddReviewImage(r.Context(), currentUser(r.Context()).ID, reviewID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, img)
}

func (s *HTTPServer) handleDeleteReviewImage(w http.ResponseWriter, r *http.Request) {
	imageID, err := pathID(r, "imageId", service.MsgReviewImageMissing)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.services.Reviews.DeleteReviewImage(r.Context(), currentUser(r.Context()).ID, imageID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Successfully deleted")
}
