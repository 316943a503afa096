package terrainrgb

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/maypok86/otter/v2"
	"github.com/paulmach/orb/maptile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	missingTileCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "terrainrgb_missing_tile_cache_hits_total",
		Help: "The total number of hits on the missing tile cache",
	})
	missingTileCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "terrainrgb_missing_tile_cache_misses_total",
		Help: "The total number of misses on the missing tile cache",
	})
	tileCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "terrainrgb_tile_cache_hits_total",
		Help: "The total number of hits on the tile cache",
	})
	tileCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "terrainrgb_tile_cache_misses_total",
		Help: "The total number of misses on the tile cache",
	})
	tileFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "terrainrgb_tile_fetch_errors_total",
		Help: "The total number of failed tile fetches",
	})
)

// A TileSet is a pyramid of Terrain-RGB tiles.
type TileSet struct {
	source               TileSource
	encoding             Encoding
	minZoom              int
	maxZoom              int
	cacheSize            int
	missingTileCacheSize int
	missingTilesAsNoData bool
	tileCache            *otter.Cache[maptile.Tile, image.Image]
	missingTiles         *lru.Cache[maptile.Tile, struct{}]
}

// A TileSetOption sets an option on a TileSet.
type TileSetOption func(*TileSet)

// NewTileSet returns a new TileSet with the given options.
func NewTileSet(options ...TileSetOption) (*TileSet, error) {
	s := &TileSet{
		encoding:             EncodingGSJ,
		maxZoom:              int(maxZoom),
		cacheSize:            64,
		missingTileCacheSize: 1024,
	}
	for _, option := range options {
		option(s)
	}

	switch {
	case s.source == nil:
		return nil, errors.New("no tile source")
	case s.minZoom < 0 || s.maxZoom > int(maxZoom) || s.minZoom > s.maxZoom:
		return nil, fmt.Errorf("%d-%d: invalid zoom range", s.minZoom, s.maxZoom)
	}

	var err error
	s.tileCache, err = otter.New(&otter.Options[maptile.Tile, image.Image]{
		MaximumSize: max(s.cacheSize, 1),
	})
	if err != nil {
		return nil, err
	}
	s.missingTiles, err = lru.New[maptile.Tile, struct{}](max(s.missingTileCacheSize, 1))
	if err != nil {
		return nil, err
	}
	return s, nil
}

func WithTileSource(source TileSource) TileSetOption {
	return func(s *TileSet) {
		s.source = source
	}
}

func WithEncoding(encoding Encoding) TileSetOption {
	return func(s *TileSet) {
		s.encoding = encoding
	}
}

func WithZoomRange(minZoom, maxZoom int) TileSetOption {
	return func(s *TileSet) {
		s.minZoom = minZoom
		s.maxZoom = maxZoom
	}
}

func WithCacheSize(cacheSize int) TileSetOption {
	return func(s *TileSet) {
		s.cacheSize = cacheSize
	}
}

// WithMissingTilesAsNoData sets whether tiles that do not exist are treated
// as tiles of no data. Otherwise, sampling a missing tile returns an error
// wrapping ErrTileNotFound.
func WithMissingTilesAsNoData(missingTilesAsNoData bool) TileSetOption {
	return func(s *TileSet) {
		s.missingTilesAsNoData = missingTilesAsNoData
	}
}

func WithMissingTileCacheSize(missingTileCacheSize int) TileSetOption {
	return func(s *TileSet) {
		s.missingTileCacheSize = missingTileCacheSize
	}
}

// Encoding returns s's encoding.
func (s *TileSet) Encoding() Encoding {
	return s.encoding
}

// ZoomRange returns s's minimum and maximum zoom.
func (s *TileSet) ZoomRange() (int, int) {
	return s.minZoom, s.maxZoom
}

// Sample returns the elevation at address. Missing samples are represented by
// NaNs. If the tile does not exist, Sample returns an error wrapping
// ErrTileNotFound unless missing tiles are treated as no data.
func (s *TileSet) Sample(ctx context.Context, address TileAddress) (float64, error) {
	if z := int(address.Tile.Z); z < s.minZoom || s.maxZoom < z {
		return math.NaN(), nil
	}
	tile, err := s.getTileCached(ctx, address.Tile)
	if err != nil {
		return 0, err
	}
	if tile == nil {
		return math.NaN(), nil
	}
	return s.tileSample(tile, int(address.I), int(address.J)), nil
}

// Raster returns a Raster of s's tiles at zoom z.
func (s *TileSet) Raster(z int) Raster {
	return &zoomRaster{
		tileSet: s,
		zoom:    z,
	}
}

// getTile fetches tile. If the tile does not exist, it returns
// otter.ErrNotFound.
func (s *TileSet) getTile(ctx context.Context, tile maptile.Tile) (image.Image, error) {
	switch img, err := s.source.Tile(ctx, tile); {
	case errors.Is(err, ErrTileNotFound):
		s.missingTiles.Add(tile, struct{}{})
		missingTileCacheMisses.Inc()
		return nil, otter.ErrNotFound
	case err != nil:
		tileFetchErrors.Inc()
		return nil, err
	default:
		return img, nil
	}
}

// getTileCached returns the tile at tile, using the caches if possible. If the
// tile does not exist, it returns nil or an error wrapping ErrTileNotFound.
func (s *TileSet) getTileCached(ctx context.Context, tile maptile.Tile) (image.Image, error) {
	if _, ok := s.missingTiles.Get(tile); ok {
		missingTileCacheHits.Inc()
		return nil, s.missingTileError(tile)
	}

	if img, ok := s.tileCache.GetIfPresent(tile); ok {
		tileCacheHits.Inc()
		return img, nil
	}
	tileCacheMisses.Inc()

	switch img, err := s.tileCache.Get(ctx, tile, otter.LoaderFunc[maptile.Tile, image.Image](s.getTile)); {
	case errors.Is(err, otter.ErrNotFound):
		return nil, s.missingTileError(tile)
	case err != nil:
		return nil, err
	default:
		return img, nil
	}
}

func (s *TileSet) missingTileError(tile maptile.Tile) error {
	if s.missingTilesAsNoData {
		return nil
	}
	return fmt.Errorf("%d/%d/%d: %w", tile.Z, tile.X, tile.Y, ErrTileNotFound)
}

// tileSample decodes the pixel at (i, j) in tile. i and j are in units of
// TileSize, so larger images (for example 512px tiles) are sampled
// proportionally.
func (s *TileSet) tileSample(tile image.Image, i, j int) float64 {
	bounds := tile.Bounds()
	x := bounds.Min.X + i*bounds.Dx()/TileSize
	y := bounds.Min.Y + j*bounds.Dy()/TileSize
	if !(image.Point{X: x, Y: y}).In(bounds) {
		return math.NaN()
	}
	pixel := imaging.Crop(tile, image.Rect(x, y, x+1, y+1))
	return s.encoding.Decode(color.NRGBA{
		R: pixel.Pix[0],
		G: pixel.Pix[1],
		B: pixel.Pix[2],
		A: pixel.Pix[3],
	})
}

// A zoomRaster is a Raster over the tiles of a TileSet at a single zoom level.
type zoomRaster struct {
	tileSet *TileSet
	zoom    int
}

// Samples returns the samples at coords, fetching each tile at most once.
// Missing samples are represented by NaNs.
func (r *zoomRaster) Samples(ctx context.Context, coords []Coord) ([]float64, error) {
	s := r.tileSet
	samples := make([]float64, len(coords))

	if r.zoom < s.minZoom || s.maxZoom < r.zoom {
		for index := range samples {
			samples[index] = math.NaN()
		}
		return samples, nil
	}

	// Group indexes by tile.
	n := 1 << r.zoom
	indexesByTile := make(map[maptile.Tile][]int)
	for index, coord := range coords {
		tileX, tileY := floorDiv(coord.X, TileSize), floorDiv(coord.Y, TileSize)
		if tileX < 0 || n <= tileX || tileY < 0 || n <= tileY {
			samples[index] = math.NaN()
			continue
		}
		tile := maptile.New(uint32(tileX), uint32(tileY), maptile.Zoom(r.zoom))
		indexesByTile[tile] = append(indexesByTile[tile], index)
	}

	// Populate samples one tile at a time.
	for tile, indexes := range indexesByTile {
		img, err := s.getTileCached(ctx, tile)
		if err != nil {
			return nil, err
		}
		for _, index := range indexes {
			if img == nil {
				samples[index] = math.NaN()
				continue
			}
			i := coords[index].X - int(tile.X)*TileSize
			j := coords[index].Y - int(tile.Y)*TileSize
			samples[index] = s.tileSample(img, i, j)
		}
	}

	return samples, nil
}

func (r *zoomRaster) Scale() (int, int) {
	return 1, 1
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
