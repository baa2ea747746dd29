package api

import (
	"net/http"
	"net/url"

	"spotbnb/internal/models"
	"spotbnb/internal/service"
)

type spotsBody struct {
	Spots []models.SpotSummary `json:"Spots"`
}

func (s *HTTPServer) handleListSpots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spots, err := s.services.Spots.ListSpots(r.Context(), service.SpotQuery{
		MinLat:   q.Get("minLat"),
		MaxLat:   q.Get("maxLat"),
		MinLng:   q.Get("minLng"),
		MaxLng:   q.Get("maxLng"),
		MinPrice: queryParam(q, "minPrice"),
		MaxPrice: queryParam(q, "maxPrice"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, spotsBody{Spots: nonNil(spots)})
}

func (s *HTTPServer) handleListOwnedSpots(w http.ResponseWriter, r *http.Request) {
	spots, err := s.services.Spots.ListOwnedSpots(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, spotsBody{Spots: nonNil(spots)})
}

func (s *HTTPServer) handleGetSpot(w http.ResponseWriter, r *http.Request) {
	spotID, err := pathID(r, "spotId", service.MsgSpotNotFound)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	detail, err := s.services.Spots.GetSpot(r.Context(), spotID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *HTTPServer) handleCreateSpot(w http.ResponseWriter, r *http.Request) {
	var in service.SpotInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	spot, err := s.services.Spots.CreateSpot(r.Context(), currentUser(r.Context()).ID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, spot)
}

func (s *HTTPServer) handleUpdateSpot(w http.ResponseWriter, r *http.Request) {
	spotID, err := pathID(r, "spotId", service.MsgSpotNotFound)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var patch service.SpotPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}

	spot, err := s.services.Spots.UpdateSpot(r.Context(), currentUser(r.Context()).ID, spotID, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, spot)
}

func (s *HTTPServer) handleDeleteSpot(w http.ResponseWriter, r *http.Request) {
	spotID, err := pathID(r, "spotId", service.MsgSpotNotFound)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.services.Spots.DeleteSpot(r.Context(), currentUser(r.Context()).ID, spotID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Successfully deleted")
}

func (s *HTTPServer) handleAddSpotImage(w http.ResponseWriter, r *http.Request) {
	spotID, err := pathID(r, "spotId", service.MsgSpotNotFound)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var in service.ImageInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	img, err := s.services.Spots.AddSpotImage(r.Context(), currentUser(r.Context()).ID, spotID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, service.SpotImageRef{ID: img.ID, URL: img.URL, Preview: img.Preview})
}

func (s *HTTPServer) handleDeleteSpotImage(w http.ResponseWriter, r *http.Request) {
	imageID, err := pathID(r, "imageId", service.MsgSpotImageNotFound)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.services.Spots.DeleteSpotImage(r.Context(), currentUser(r.Context()).ID, imageID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Successfully deleted")
}

// nonNil keeps empty lists serialized as [] rather than null.
// queryParam returns nil when name is absent from q, so that "?minPrice="
// stays distinguishable from no bound at all.
func queryParam(q url.Values, name string) *string {
	if !q.Has(name) {
		return nil
	}
	v := q.Get(name)
	return &v
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
