package terrainrgb

import (
	"context"
	"math"
)

// InterpolateBilinear returns the bilinear interpolation of raster at coords.
// Coordinates are in raster units; samples adjacent to a missing sample are
// NaN. Coordinates on a sample's row or column do not read the next row or
// column.
func InterpolateBilinear(ctx context.Context, raster Raster, coords [][]float64) ([]float64, error) {
	scaleX, scaleY := raster.Scale()
	rasterCoords := make([]Coord, 4*len(coords))
	for i, coord := range coords {
		x0 := scaleX * int(math.Floor(coord[0]/float64(scaleX)))
		y0 := scaleY * int(math.Floor(coord[1]/float64(scaleY)))
		x1, y1 := x0, y0
		if float64(x0) < coord[0] {
			x1 += scaleX
		}
		if float64(y0) < coord[1] {
			y1 += scaleY
		}
		rasterCoords[4*i+0] = Coord{X: x0, Y: y0}
		rasterCoords[4*i+1] = Coord{X: x1, Y: y0}
		rasterCoords[4*i+2] = Coord{X: x0, Y: y1}
		rasterCoords[4*i+3] = Coord{X: x1, Y: y1}
	}
	samples, err := raster.Samples(ctx, rasterCoords)
	if err != nil {
		return nil, err
	}
	result := make([]float64, len(coords))
	for i, coord := range coords {
		dx := (coord[0] - float64(rasterCoords[4*i].X)) / float64(scaleX)
		dy := (coord[1] - float64(rasterCoords[4*i].Y)) / float64(scaleY)
		result[i] = 0 +
			samples[4*i+0]*(1-dx)*(1-dy) +
			samples[4*i+1]*dx*(1-dy) +
			samples[4*i+2]*(1-dx)*dy +
			samples[4*i+3]*dx*dy
	}
	return result, nil
}
