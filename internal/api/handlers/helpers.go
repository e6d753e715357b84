package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/platform/obs"
	"itinerary-planner-service/internal/services"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("encode failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// allowMethods writes a 405 and returns false unless r uses one of methods.
func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}

	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// decodeJSON reads exactly one JSON object from the body, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}

	return true
}

// writeServiceError maps manager errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrNegativeDuration):
		writeError(w, r, http.StatusBadRequest, domain.ErrNegativeDuration.Error())
	case errors.Is(err, domain.ErrInvalidEntry):
		writeError(w, r, http.StatusBadRequest, domain.ErrInvalidEntry.Error())
	case errors.Is(err, services.ErrInvalidPosition):
		writeError(w, r, http.StatusBadRequest, services.ErrInvalidPosition.Error())
	case errors.Is(err, services.ErrEntryNotFound),
		errors.Is(err, services.ErrMarkerNotFound),
		errors.Is(err, services.ErrIndexOutOfRange):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		log.Error().Err(err).
			Str("req_id", obs.RequestID(r.Context())).
			Str("op", op).
			Msg("request failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
