package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"spotbnb/internal/logging"
	"spotbnb/internal/service"
	"spotbnb/internal/validation"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, messageBody{Message: message})
}

// writeError renders err as {message, errors?}. Anything that is not a
// *service.Error is logged and hidden behind a 500.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	svcErr, ok := service.AsError(err)
	if !ok {
		logging.FromContext(r.Context(), s.logger).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, s.statusFor(svcErr), errorBody{Message: svcErr.Message, Errors: svcErr.Fields})
}

func (s *HTTPServer) statusFor(err *service.Error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidDateRange):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrBookingConflict),
		errors.Is(err, service.ErrImageLimit):
		return http.StatusForbidden
	case errors.Is(err, service.ErrDuplicateReview):
		if s.cfg.Compat.LegacyDuplicateReviewStatus {
			return http.StatusInternalServerError
		}
		return http.StatusConflict
	case errors.Is(err, service.ErrDuplicateUser):
		return http.StatusConflict
	case errors.Is(err, service.ErrTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into dst. An empty body decodes as {} so
// that required-field rules report every missing field. Values of the wrong
// type are recorded on dst when it embeds validation.Rejections, leaving the
// field zero, so the service reports them together with its own rule failures.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return badBody()
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	err = json.Unmarshal(body, dst)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) || typeErr.Field == "" {
		return badBody()
	}

	rejecter, ok := dst.(validation.Rejecter)
	if !ok {
		return &service.Error{
			Kind:    service.ErrValidation,
			Message: service.MsgBadRequest,
			Fields:  map[string]string{typeErr.Field: validation.FieldMessage(dst, typeErr.Field)},
		}
	}
	rejectMistyped(body, dst, rejecter)
	return nil
}

// rejectMistyped decodes each top-level member of body on its own, since
// json.Unmarshal only reports the first type error of an object.
func rejectMistyped(body []byte, dst any, rejecter validation.Rejecter) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(body, &members); err != nil {
		return
	}

	t := reflect.TypeOf(dst).Elem()
	for name, value := range members {
		single, err := json.Marshal(map[string]json.RawMessage{name: value})
		if err != nil {
			continue
		}
		scratch := reflect.New(t).Interface()
		var typeErr *json.UnmarshalTypeError
		if err := json.Unmarshal(single, scratch); errors.As(err, &typeErr) && typeErr.Field != "" {
			rejecter.Reject(typeErr.Field, validation.FieldMessage(dst, typeErr.Field))
		}
	}
}

func badBody() *service.Error {
	return &service.Error{
		Kind:    service.ErrValidation,
		Message: service.MsgBadRequest,
		Fields:  map[string]string{"body": "Request body must be valid JSON"},
	}
}

// pathID parses a numeric path parameter. Ids that cannot name a row are
// reported as notFound.
func pathID(r *http.Request, name, notFound string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, &service.Error{Kind: service.ErrNotFound, Message: notFound}
	}
	return id, nil
}
