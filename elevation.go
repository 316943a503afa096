// Package terrainrgb reads elevations from Terrain-RGB encoded raster tiles.
package terrainrgb

import "context"

// A Coord is a global pixel coordinate at a fixed zoom level.
type Coord struct {
	X int
	Y int
}

// A Raster is a source of samples addressed by Coord.
type Raster interface {
	Samples(ctx context.Context, coords []Coord) ([]float64, error)
	Scale() (int, int)
}
