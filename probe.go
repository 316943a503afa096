package terrainrgb

import (
	"context"
	"math"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-proj/v11"
)

// A Result is the result of a single elevation lookup.
type Result struct {
	Point     orb.Point
	Zoom      int
	Address   *TileAddress // Nil if the point is not in the tile set.
	Elevation float64      // NaN if unavailable.
}

// Available returns whether r has an elevation.
func (r *Result) Available() bool {
	return !math.IsNaN(r.Elevation)
}

// A Probe looks up elevations in a TileSet.
type Probe struct {
	tileSet   *TileSet
	bilinear  bool
	clampZoom bool
	pj        *proj.PJ
}

// A ProbeOption sets an option on a Probe.
type ProbeOption func(*Probe)

// NewProbe returns a new Probe that reads elevations from tileSet.
func NewProbe(tileSet *TileSet, options ...ProbeOption) (*Probe, error) {
	p := &Probe{
		tileSet: tileSet,
	}
	for _, option := range options {
		option(p)
	}
	pj, err := proj.NewCRSToCRS("epsg:3857", "epsg:4326", nil)
	if err != nil {
		return nil, err
	}
	p.pj = pj
	return p, nil
}

// WithBilinear sets whether batch lookups interpolate between pixels.
func WithBilinear(bilinear bool) ProbeOption {
	return func(p *Probe) {
		p.bilinear = bilinear
	}
}

// WithClampZoom sets whether zooms outside the tile set's zoom range are
// clamped into it. Otherwise, lookups outside the zoom range are unavailable.
func WithClampZoom(clampZoom bool) ProbeOption {
	return func(p *Probe) {
		p.clampZoom = clampZoom
	}
}

// TileSet returns p's tile set.
func (p *Probe) TileSet() *TileSet {
	return p.tileSet
}

// Lookup returns the elevation at point at map zoom level zoom. Fractional
// zooms are truncated.
func (p *Probe) Lookup(ctx context.Context, point orb.Point, zoom float64) (*Result, error) {
	z, ok := p.tileZoom(zoom)
	result := &Result{
		Point:     point,
		Zoom:      z,
		Elevation: math.NaN(),
	}
	if !ok {
		return result, nil
	}
	address, ok := TileAddressOf(point, z)
	if !ok {
		return result, nil
	}
	result.Address = &address
	elevation, err := p.tileSet.Sample(ctx, address)
	if err != nil {
		return nil, err
	}
	result.Elevation = elevation
	return result, nil
}

// Elevation returns the elevation at point at map zoom level zoom, or NaN if
// it is unavailable.
func (p *Probe) Elevation(ctx context.Context, point orb.Point, zoom float64) (float64, error) {
	result, err := p.Lookup(ctx, point, zoom)
	if err != nil {
		return 0, err
	}
	return result.Elevation, nil
}

// Elevations returns the elevations at points at map zoom level zoom. Each tile
// is fetched at most once.
func (p *Probe) Elevations(ctx context.Context, points []orb.Point, zoom float64) ([]float64, error) {
	elevations := make([]float64, len(points))
	z, ok := p.tileZoom(zoom)
	if !ok {
		for i := range elevations {
			elevations[i] = math.NaN()
		}
		return elevations, nil
	}

	// Points outside the tile grid are excluded from the raster lookup.
	var indexes []int
	var pixelCoords [][]float64
	for i, point := range points {
		if _, ok := TileAddressOf(point, z); !ok {
			elevations[i] = math.NaN()
			continue
		}
		x, y := LatLngToTile(point.Lat(), point.Lon(), z)
		indexes = append(indexes, i)
		pixelCoords = append(pixelCoords, []float64{x * TileSize, y * TileSize})
	}

	raster := p.tileSet.Raster(z)
	var samples []float64
	var err error
	if p.bilinear {
		// Pixel values are at pixel centres. Interpolation is clamped to the
		// centres of the edge pixels of the tile grid.
		maxPixel := float64(int(TileSize)<<z) - 1
		centreCoords := make([][]float64, len(pixelCoords))
		for i, pixelCoord := range pixelCoords {
			centreCoords[i] = []float64{
				min(max(pixelCoord[0]-0.5, 0), maxPixel),
				min(max(pixelCoord[1]-0.5, 0), maxPixel),
			}
		}
		samples, err = InterpolateBilinear(ctx, raster, centreCoords)
	} else {
		coords := make([]Coord, len(pixelCoords))
		for i, pixelCoord := range pixelCoords {
			coords[i] = Coord{
				X: int(math.Floor(pixelCoord[0])),
				Y: int(math.Floor(pixelCoord[1])),
			}
		}
		samples, err = raster.Samples(ctx, coords)
	}
	if err != nil {
		return nil, err
	}
	for i, index := range indexes {
		elevations[index] = samples[i]
	}
	return elevations, nil
}

// Elevation4326 returns the elevations at coords, given as [lng, lat] pairs.
func (p *Probe) Elevation4326(ctx context.Context, coords4326 [][]float64, zoom float64) ([]float64, error) {
	points := make([]orb.Point, len(coords4326))
	for i, coord := range coords4326 {
		points[i] = orb.Point{coord[0], coord[1]}
	}
	return p.Elevations(ctx, points, zoom)
}

// Elevation3857 returns the elevations at coords, given as [x, y] pairs in
// EPSG:3857.
func (p *Probe) Elevation3857(ctx context.Context, coords3857 [][]float64, zoom float64) ([]float64, error) {
	coords4326 := cloneCoords(coords3857)
	if err := p.pj.ForwardFloat64Slices(coords4326); err != nil {
		return nil, err
	}
	flipCoords(coords4326)
	return p.Elevation4326(ctx, coords4326, zoom)
}

// tileZoom returns the tile zoom for map zoom level zoom and whether it is in
// the tile set's zoom range.
func (p *Probe) tileZoom(zoom float64) (int, bool) {
	if math.IsNaN(zoom) {
		return 0, false
	}
	z := int(math.Trunc(min(max(zoom, -1), 64)))
	minZoom, maxZoom := p.tileSet.ZoomRange()
	switch {
	case p.clampZoom:
		return min(max(z, minZoom), maxZoom), true
	case z < minZoom || maxZoom < z:
		return z, false
	default:
		return z, true
	}
}

func cloneCoords(coords [][]float64) [][]float64 {
	clonedCoordsFlat := make([]float64, 2*len(coords))
	clonedCoords := make([][]float64, len(coords))
	for i, coord := range coords {
		copy(clonedCoordsFlat[2*i:2*i+2], coord)
		clonedCoords[i] = clonedCoordsFlat[2*i : 2*i+2]
	}
	return clonedCoords
}

func flipCoords(coords [][]float64) {
	for i, coord := range coords {
		coords[i][0], coords[i][1] = coord[1], coord[0]
	}
}
