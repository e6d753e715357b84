package ports

import "context"

// Map tile address in the slippy-map scheme.
type TileKey struct {
	Z, X, Y int
}

// Contract for fetching rendered PNG map tiles.
type TileSource interface {
	Tile(ctx context.Context, key TileKey) ([]byte, error)
}
