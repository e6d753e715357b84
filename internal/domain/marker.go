package domain

import "fmt"

// AddressStatus tracks reverse geocoding of a marker position.
type AddressStatus string

const (
	AddressPending  AddressStatus = "pending"
	AddressResolved AddressStatus = "resolved"
	AddressFailed   AddressStatus = "failed"
)

// Represents a user-placed point on the map.
// A Marker keeps its ID for its whole lifetime; Position and Label only change
// through an explicit replace, Address and Status through geocode resolution.
type Marker struct {
	ID       string
	Position Coordinates
	Label    string
	Address  string
	Status   AddressStatus
}

// Label given to a marker created by a map click.
func MarkerLabel(pos Coordinates) string {
	return fmt.Sprintf("New marker at %s", pos.String())
}
