package terrainrgb_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/alecthomas/assert/v2"
	"github.com/paulmach/orb/maptile"

	"github.com/terrainrgb/go-terrainrgb"
)

// gsjColor returns the color that encodes raw in the GSJ encoding.
func gsjColor(raw int32) color.NRGBA {
	return color.NRGBA{
		R: uint8(raw >> 16),
		G: uint8(raw >> 8),
		B: uint8(raw),
		A: 0xff,
	}
}

// patternRaw is the raw value of pixel (x, y) in pattern tiles.
func patternRaw(x, y int) int32 {
	return int32(1000*x + y)
}

// patternElevation is the GSJ elevation of pixel (x, y) in pattern tiles.
func patternElevation(x, y int) float64 {
	return float64(patternRaw(x, y)) * terrainrgb.EncodingGSJ.Factor
}

func encodePNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	buffer := &bytes.Buffer{}
	assert.NoError(t, png.Encode(buffer, img))
	return buffer.Bytes()
}

func newTileImage(size int, colorFunc func(x, y int) color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			img.SetNRGBA(x, y, colorFunc(x, y))
		}
	}
	return img
}

// newPatternTile returns a PNG tile whose pixel (x, y) encodes patternRaw(x,
// y).
func newPatternTile(t testing.TB) []byte {
	t.Helper()
	return encodePNG(t, newTileImage(terrainrgb.TileSize, func(x, y int) color.NRGBA {
		return gsjColor(patternRaw(x, y))
	}))
}

// newTestFS returns a filesystem with pattern tiles at tiles.
func newTestFS(t testing.TB, tiles ...maptile.Tile) fstest.MapFS {
	t.Helper()
	data := newPatternTile(t)
	fsys := make(fstest.MapFS)
	for _, tile := range tiles {
		fsys[terrainrgb.ExpandTemplate("{z}/{x}/{y}.png", tile)] = &fstest.MapFile{Data: data}
	}
	return fsys
}

// A countingTileSource counts the tiles fetched from an underlying TileSource.
type countingTileSource struct {
	mutex  sync.Mutex
	source terrainrgb.TileSource
	counts map[maptile.Tile]int
}

func newCountingTileSource(source terrainrgb.TileSource) *countingTileSource {
	return &countingTileSource{
		source: source,
		counts: make(map[maptile.Tile]int),
	}
}

func (s *countingTileSource) Tile(ctx context.Context, tile maptile.Tile) (image.Image, error) {
	s.mutex.Lock()
	s.counts[tile]++
	s.mutex.Unlock()
	return s.source.Tile(ctx, tile)
}

func (s *countingTileSource) count(tile maptile.Tile) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.counts[tile]
}

func (s *countingTileSource) total() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	total := 0
	for _, count := range s.counts {
		total += count
	}
	return total
}

// An errorTileSource fails every fetch.
type errorTileSource struct {
	err error
}

func (s errorTileSource) Tile(ctx context.Context, tile maptile.Tile) (image.Image, error) {
	return nil, s.err
}
