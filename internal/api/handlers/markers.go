package handlers

import (
	"itinerary-planner-service/internal/api/dto"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/services"
	"net/http"
)

type MarkerHandler struct {
	Manager *services.ItineraryManager
}

// Collection lists markers (GET) or records a map click (POST).
func (h *MarkerHandler) Collection(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	if r.Method == http.MethodGet {
		markers := h.Manager.Markers()
		res := dto.ListMarkerResponse{Markers: make([]dto.MarkerResponse, 0, len(markers))}
		for _, m := range markers {
			res.Markers = append(res.Markers, toMarkerResponse(m))
		}
		writeJSON(w, r, http.StatusOK, res)
		return
	}

	lat, lng, ok := decodePosition(w, r)
	if !ok {
		return
	}

	m, err := h.Manager.AddMarker(r.Context(), lat, lng)
	if err != nil {
		writeServiceError(w, r, "add marker", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toMarkerResponse(m))
}

// Item moves the marker named in the path (PUT /markers/{id}).
func (h *MarkerHandler) Item(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPut) {
		return
	}

	lat, lng, ok := decodePosition(w, r)
	if !ok {
		return
	}

	m, err := h.Manager.ReplaceMarker(r.Context(), r.PathValue("id"), lat, lng)
	if err != nil {
		writeServiceError(w, r, "replace marker", err)
		return
	}

	writeJSON(w, r, http.StatusOK, toMarkerResponse(m))
}

// Draft returns the current form prefill.
func (h *MarkerHandler) Draft(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	d := h.Manager.Draft()
	writeJSON(w, r, http.StatusOK, dto.DraftResponse{
		From:         d.From,
		To:           d.To,
		FromMarkerID: d.FromMarkerID,
		ToMarkerID:   d.ToMarkerID,
		Pending:      d.Pending,
	})
}

// ClearState removes every marker and itinerary entry (DELETE /state).
func (h *MarkerHandler) ClearState(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodDelete) {
		return
	}

	if err := h.Manager.ClearAll(r.Context()); err != nil {
		writeServiceError(w, r, "clear all", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func decodePosition(w http.ResponseWriter, r *http.Request) (lat, lng float64, ok bool) {
	var req dto.MarkerRequest
	if !decodeJSON(w, r, &req) {
		return 0, 0, false
	}
	if req.Lat == nil || req.Lng == nil {
		writeError(w, r, http.StatusBadRequest, "lat and lng are required")
		return 0, 0, false
	}
	return *req.Lat, *req.Lng, true
}

func toMarkerResponse(m domain.Marker) dto.MarkerResponse {
	return dto.MarkerResponse{
		ID:      m.ID,
		Lat:     m.Position.Lat,
		Lng:     m.Position.Lng,
		Label:   m.Label,
		Address: m.Address,
		Status:  string(m.Status),
	}
}
