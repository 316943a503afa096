package terrainrgb

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// TileSize is the nominal width and height of a tile in pixels.
const TileSize = 256

// A TileAddress is a tile and a fractional pixel offset within it.
type TileAddress struct {
	Tile maptile.Tile
	I    float64 // Column within the tile, in [0, TileSize).
	J    float64 // Row within the tile, in [0, TileSize).
}

// LatLngToTile returns the fractional spherical Mercator tile coordinates of
// (lat, lng) at zoom z.
func LatLngToTile(lat, lng float64, z int) (float64, float64) {
	n := math.Exp2(float64(z))
	x := (lng/180 + 1) * n / 2
	latRad := lat * math.Pi / 180
	y := n * (1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2
	return x, y
}

// TileAddressOf returns the address of point at zoom z. It returns false if
// point lies outside the tile grid.
func TileAddressOf(point orb.Point, z int) (TileAddress, bool) {
	if z < 0 || z > int(maxZoom) {
		return TileAddress{}, false
	}
	x, y := LatLngToTile(point.Lat(), point.Lon(), z)
	n := math.Exp2(float64(z))
	// Written as negated comparisons so that NaNs are rejected.
	if !(0 <= x && x < n && 0 <= y && y < n) {
		return TileAddress{}, false
	}
	tileX, tileY := math.Floor(x), math.Floor(y)
	return TileAddress{
		Tile: maptile.New(uint32(tileX), uint32(tileY), maptile.Zoom(z)),
		I:    (x - tileX) * TileSize,
		J:    (y - tileY) * TileSize,
	}, true
}

// Coord returns the global pixel coordinate of a.
func (a TileAddress) Coord() Coord {
	return Coord{
		X: int(a.Tile.X)*TileSize + int(a.I),
		Y: int(a.Tile.Y)*TileSize + int(a.J),
	}
}

// maxZoom is the largest zoom whose global pixel coordinates fit in 32 bits.
const maxZoom maptile.Zoom = 22
