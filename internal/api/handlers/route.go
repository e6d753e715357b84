package handlers

import (
	"errors"
	"itinerary-planner-service/internal/api/dto"
	"itinerary-planner-service/internal/services"
	"net/http"
	"strconv"
)

type RouteHandler struct {
	Manager *services.ItineraryManager
}

// Route returns the line through all markers as GeoJSON. Markers are taken in
// list order unless ?order=nearest asks for a nearest-neighbor visiting order
// (optionally starting at ?start=<marker id>).
func (h *RouteHandler) Route(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	srid := 0
	if s := r.URL.Query().Get("srid"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "srid must be an integer")
			return
		}
		srid = v
	}

	route := h.Manager.Route()
	switch order := r.URL.Query().Get("order"); order {
	case "", "list":
	case "nearest":
		nn, err := services.NearestNeighborRoute(h.Manager.Markers(), r.URL.Query().Get("start"))
		switch {
		case errors.Is(err, services.ErrEmptyRoute):
			// Nothing to reorder; keep the empty list-order route.
		case errors.Is(err, services.ErrMarkerNotFound):
			writeError(w, r, http.StatusNotFound, err.Error())
			return
		case err != nil:
			writeServiceError(w, r, "order route", err)
			return
		default:
			route = nn
		}
	default:
		writeError(w, r, http.StatusBadRequest, "order must be list or nearest")
		return
	}

	g, err := services.BuildRouteGeometry(route, srid)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedSRID) {
			writeError(w, r, http.StatusBadRequest, "srid must be 4326 or 3857")
			return
		}
		writeServiceError(w, r, "build route", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.RouteResponse{
		SRID:           g.SRID,
		MarkerIDs:      route.MarkerIDs,
		DistanceMeters: g.Distance,
		Geometry:       g.GeoJSON,
		WKT:            g.WKT,
	})
}
