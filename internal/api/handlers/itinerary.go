package handlers

import (
	"errors"
	"itinerary-planner-service/internal/api/dto"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/services"
	"net/http"
	"strconv"
	"strings"
)

type ItineraryHandler struct {
	Manager *services.ItineraryManager
}

// Collection lists entries (GET) or submits the itinerary form (POST).
// A POST with edit_index in range replaces that entry; otherwise it appends.
func (h *ItineraryHandler) Collection(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	if r.Method == http.MethodGet {
		entries := h.Manager.Entries()
		res := dto.ListEntryResponse{Entries: make([]dto.EntryResponse, 0, len(entries))}
		for _, e := range entries {
			res.Entries = append(res.Entries, toEntryResponse(e))
		}
		writeJSON(w, r, http.StatusOK, res)
		return
	}

	var req dto.EntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	e, replaced, err := h.Manager.AddOrUpdateEntry(r.Context(), toEntryFields(req), req.EditIndex)
	if err != nil {
		writeEntryError(w, r, "add itinerary entry", err)
		return
	}

	status := http.StatusCreated
	if replaced {
		status = http.StatusOK
	}
	writeJSON(w, r, status, toEntryResponse(e))
}

// Item updates (PUT) or deletes (DELETE) the entry named in the path.
func (h *ItineraryHandler) Item(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPut, http.MethodDelete) {
		return
	}

	id := r.PathValue("id")

	if r.Method == http.MethodDelete {
		if err := h.Manager.DeleteEntry(r.Context(), id); err != nil {
			writeServiceError(w, r, "delete itinerary entry", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var req dto.EntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.EditIndex != nil {
		writeError(w, r, http.StatusBadRequest, "edit_index is not accepted here")
		return
	}

	e, err := h.Manager.UpdateEntry(r.Context(), id, toEntryFields(req))
	if err != nil {
		writeEntryError(w, r, "update itinerary entry", err)
		return
	}

	writeJSON(w, r, http.StatusOK, toEntryResponse(e))
}

// At deletes the entry at a list position (DELETE /itinerary/at/{index}).
func (h *ItineraryHandler) At(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodDelete) {
		return
	}

	idx, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "index must be an integer")
		return
	}

	if err := h.Manager.DeleteEntryAt(r.Context(), idx); err != nil {
		writeServiceError(w, r, "delete itinerary entry", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Unknown marker ids in a submitted form are a client error, not a missing resource.
func writeEntryError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, services.ErrMarkerNotFound) {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeServiceError(w, r, op, err)
}

func toEntryFields(req dto.EntryRequest) domain.EntryFields {
	stops := req.Stops
	if len(stops) == 0 {
		for _, s := range []string{req.From, req.To} {
			if strings.TrimSpace(s) != "" {
				stops = append(stops, s)
			}
		}
	}

	return domain.EntryFields{
		Title:            req.Title,
		ArrivalDate:      req.ArrivalDate,
		StayDurationDays: req.StayDurationDays,
		Stops:            stops,
		MarkerIDs:        req.MarkerIDs,
	}
}

func toEntryResponse(e domain.ItineraryEntry) dto.EntryResponse {
	markerIDs := e.MarkerIDs
	if markerIDs == nil {
		markerIDs = []string{}
	}

	stops := e.Stops()
	if stops == nil {
		stops = []string{}
	}
	var from, to string
	if len(stops) > 0 {
		from = stops[0]
	}
	if len(stops) > 1 {
		to = stops[len(stops)-1]
	}

	return dto.EntryResponse{
		ID:               e.ID,
		Title:            e.Title,
		ArrivalDate:      e.ArrivalDate.String(),
		DepartureDate:    e.DepartureDate().String(),
		StayDurationDays: e.StayDurationDays,
		RouteDescription: e.RouteDescription,
		Stops:            stops,
		From:             from,
		To:               to,
		MarkerIDs:        markerIDs,
	}
}
