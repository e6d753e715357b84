package handlers

import (
	"itinerary-planner-service/internal/api/dto"
	"itinerary-planner-service/internal/services"
	"net/http"
	"strconv"
)

type GeocodeHandler struct {
	Resolver services.AddressResolver
}

// Reverse resolves ?lat=&lon= to an address. Lookup failures are not errors:
// the response carries an empty address and found=false.
func (h *GeocodeHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	if errLat != nil || errLon != nil {
		writeError(w, r, http.StatusBadRequest, "lat and lon query parameters must be numbers")
		return
	}

	var addr string
	if h.Resolver != nil {
		addr = h.Resolver.ReverseGeocode(r.Context(), lat, lon)
	}

	writeJSON(w, r, http.StatusOK, dto.ReverseGeocodeResponse{
		Lat:     lat,
		Lon:     lon,
		Address: addr,
		Found:   addr != "",
	})
}
