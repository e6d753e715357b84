package domain

import (
	"math"
	"strconv"
)

const earthRadiusMeters = 6371000

// Immutable geographic coordinates in WGS84 degrees.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Return coordinates as [lon, lat] for GeoJSON compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lng, c.Lat} }

// String renders "lat, lng" using the shortest decimal form that round-trips.
func (c Coordinates) String() string {
	return formatDegrees(c.Lat) + ", " + formatDegrees(c.Lng)
}

// Round coordinates to a fixed number of decimal places.
// Five places is roughly one metre at the equator.
// IsFinite reports whether both components are real numbers (no NaN or Inf).
func (c Coordinates) IsFinite() bool {
	for _, v := range []float64{c.Lat, c.Lng} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (c Coordinates) Round(places int) Coordinates {
	p := math.Pow(10, float64(places))
	return Coordinates{
		Lat: math.Round(c.Lat*p) / p,
		Lng: math.Round(c.Lng*p) / p,
	}
}

// Great-circle distance in metres (haversine).
func (c Coordinates) DistanceTo(o Coordinates) float64 {
	φ1 := c.Lat * math.Pi / 180
	φ2 := o.Lat * math.Pi / 180
	Δφ := (o.Lat - c.Lat) * math.Pi / 180
	Δλ := (o.Lng - c.Lng) * math.Pi / 180

	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
