package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"itinerary-planner-service/internal/domain"

	"github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Supported output spatial references.
const (
	SRIDWGS84       = 4326
	SRIDWebMercator = 3857
)

var ErrUnsupportedSRID = errors.New("unsupported srid")

// RouteGeometry is the polyline through the markers, ready to be drawn.
type RouteGeometry struct {
	SRID     int
	GeoJSON  json.RawMessage
	WKT      string
	Distance float64
}

// BuildRouteGeometry renders a route as a LineString in the requested SRID
// (0 means 4326). Coordinates are in lng,lat (or x,y) order. A route with
// fewer than two distinct points gives an empty LineString.
func BuildRouteGeometry(route domain.Route, srid int) (RouteGeometry, error) {
	if srid == 0 {
		srid = SRIDWGS84
	}

	var project func(lng, lat float64) (float64, float64)
	switch srid {
	case SRIDWGS84:
		project = func(lng, lat float64) (float64, float64) { return lng, lat }
	case SRIDWebMercator:
		transform := wgs84.EPSG().Transform(SRIDWGS84, SRIDWebMercator)
		project = func(lng, lat float64) (float64, float64) {
			x, y, _ := transform(lng, lat, 0)
			return x, y
		}
	default:
		return RouteGeometry{}, fmt.Errorf("build route geometry: %w: %d", ErrUnsupportedSRID, srid)
	}

	line := geom.LineString{}
	if hasTwoDistinct(route.Points) {
		flat := make([]float64, 0, len(route.Points)*2)
		for _, p := range route.Points {
			x, y := project(p.Lng, p.Lat)
			flat = append(flat, x, y)
		}

		var err error
		line, err = geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
		if err != nil {
			return RouteGeometry{}, fmt.Errorf("build route geometry: %w", err)
		}
	}

	raw, err := json.Marshal(line)
	if err != nil {
		return RouteGeometry{}, fmt.Errorf("build route geometry: encode geojson: %w", err)
	}

	return RouteGeometry{
		SRID:     srid,
		GeoJSON:  raw,
		WKT:      line.AsText(),
		Distance: route.DistanceMeters,
	}, nil
}

// Repeated clicks on one spot would otherwise make a degenerate line.
func hasTwoDistinct(points []domain.Coordinates) bool {
	for _, p := range points[min(1, len(points)):] {
		if p != points[0] {
			return true
		}
	}
	return false
}
