package handlers

import (
	"itinerary-planner-service/internal/api/dto"
	"itinerary-planner-service/internal/domain"
	"net/http"
)

const (
	DefaultZoom        = 13
	DefaultAttribution = "&copy; OpenStreetMap contributors"
)

// DefaultCenter is central Paris.
var DefaultCenter = domain.Coordinates{Lat: 48.8566, Lng: 2.3522}

type MapHandler struct {
	Center      domain.Coordinates
	Zoom        int
	MaxZoom     int
	TileURL     string
	Attribution string
}

// Config describes how a client should set up its map view.
func (h *MapHandler) Config(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	writeJSON(w, r, http.StatusOK, dto.MapConfigResponse{
		Center:      dto.LatLng{Lat: h.Center.Lat, Lng: h.Center.Lng},
		Zoom:        h.Zoom,
		MaxZoom:     h.MaxZoom,
		TileURL:     h.TileURL,
		Attribution: h.Attribution,
	})
}
