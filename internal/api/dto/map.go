package dto

import "encoding/json"

type RouteResponse struct {
	SRID           int             `json:"srid"`
	MarkerIDs      []string        `json:"marker_ids"`
	DistanceMeters float64         `json:"distance_meters"`
	Geometry       json.RawMessage `json:"geometry"`
	WKT            string          `json:"wkt"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type MapConfigResponse struct {
	Center      LatLng `json:"center"`
	Zoom        int    `json:"zoom"`
	MaxZoom     int    `json:"max_zoom"`
	TileURL     string `json:"tile_url"`
	Attribution string `json:"attribution"`
}

type TileStatsResponse struct {
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Errors      uint64 `json:"errors"`
	Entries     int    `json:"entries"`
	BytesServed uint64 `json:"bytes_served"`
	Served      string `json:"served"`
}
