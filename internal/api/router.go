package api

import (
	"itinerary-planner-service/internal/adapters/tiles"
	"itinerary-planner-service/internal/api/handlers"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/ports"
	"itinerary-planner-service/internal/services"
	"net/http"
)

// Deps holds what the HTTP layer needs. Resolver and Tiles may be nil.
type Deps struct {
	Manager  *services.ItineraryManager
	Resolver services.AddressResolver
	Tiles    ports.TileSource
	// TileStats is optional; it backs GET /tiles/stats.
	TileStats func() tiles.Stats
	Map       MapOptions
}

// MapOptions configures GET /map/config. Zero values use the Paris defaults.
type MapOptions struct {
	Center      domain.Coordinates
	Zoom        int
	TileURL     string
	Attribution string
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	markerHandler := &handlers.MarkerHandler{Manager: d.Manager}
	itineraryHandler := &handlers.ItineraryHandler{Manager: d.Manager}
	geocodeHandler := &handlers.GeocodeHandler{Resolver: d.Resolver}
	routeHandler := &handlers.RouteHandler{Manager: d.Manager}
	mapHandler := newMapHandler(d.Map, d.Tiles != nil)

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/markers", markerHandler.Collection)
	mux.HandleFunc("/markers/{id}", markerHandler.Item)
	mux.HandleFunc("/draft", markerHandler.Draft)
	mux.HandleFunc("/state", markerHandler.ClearState)
	mux.HandleFunc("/itinerary", itineraryHandler.Collection)
	mux.HandleFunc("/itinerary/{id}", itineraryHandler.Item)
	mux.HandleFunc("/itinerary/at/{index}", itineraryHandler.At)
	mux.HandleFunc("/geocode/reverse", geocodeHandler.Reverse)
	mux.HandleFunc("/route", routeHandler.Route)
	mux.HandleFunc("/map/config", mapHandler.Config)

	if d.Tiles != nil {
		tileHandler := &handlers.TileHandler{Source: d.Tiles, Stats: d.TileStats}
		mux.HandleFunc("/tiles/{z}/{x}/{file}", tileHandler.Tile)
		mux.HandleFunc("/tiles/stats", tileHandler.TileStats)
	}

	return requestIDMiddleware(loggingMiddleware(mux))
}

func newMapHandler(o MapOptions, proxied bool) *handlers.MapHandler {
	h := &handlers.MapHandler{
		Center:      o.Center,
		Zoom:        o.Zoom,
		MaxZoom:     tiles.MaxZoom,
		TileURL:     o.TileURL,
		Attribution: o.Attribution,
	}

	if h.Center == (domain.Coordinates{}) {
		h.Center = handlers.DefaultCenter
	}
	if h.Zoom == 0 {
		h.Zoom = handlers.DefaultZoom
	}
	if h.TileURL == "" {
		h.TileURL = tiles.DefaultUpstream
		if proxied {
			h.TileURL = "/tiles/{z}/{x}/{y}.png"
		}
	}
	if h.Attribution == "" {
		h.Attribution = handlers.DefaultAttribution
	}

	return h
}
