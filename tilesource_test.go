package terrainrgb_test

import (
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/paulmach/orb/maptile"

	"github.com/terrainrgb/go-terrainrgb"
)

func TestExpandTemplate(t *testing.T) {
	tile := maptile.New(28870, 13040, 15)
	for _, tc := range []struct {
		template string
		expected string
	}{
		{
			template: terrainrgb.GSJMixedURLTemplate,
			expected: "https://tiles.gsj.jp/tiles/elev/mixed/15/13040/28870.png",
		},
		{
			template: "https://example.com/{z}/{x}/{y}.webp",
			expected: "https://example.com/15/28870/13040.webp",
		},
		{
			template: "{z}-{z}",
			expected: "15-15",
		},
	} {
		assert.Equal(t, tc.expected, terrainrgb.ExpandTemplate(tc.template, tile))
	}
}

func newTileServer(t *testing.T) *httptest.Server {
	t.Helper()
	tile := newPatternTile(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/tiles/1/1/1.png", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "go-terrainrgb-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(tile)
	})
	mux.HandleFunc("/tiles/1/0/0.png", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/tiles/1/0/1.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not an image"))
	})
	mux.HandleFunc("/tiles/1/1/0.png", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestHTTPTileSource(t *testing.T) {
	server := newTileServer(t)
	source := terrainrgb.NewHTTPTileSource(server.URL+"/tiles/{z}/{x}/{y}.png",
		terrainrgb.WithHTTPClient(server.Client()),
		terrainrgb.WithTimeout(10*time.Second),
		terrainrgb.WithUserAgent("go-terrainrgb-test"),
	)

	assert.Equal(t, server.URL+"/tiles/1/1/1.png", source.URL(maptile.New(1, 1, 1)))

	img, err := source.Tile(t.Context(), maptile.New(1, 1, 1))
	assert.NoError(t, err)
	assert.Equal(t, terrainrgb.TileSize, img.Bounds().Dx())
	assert.Equal(t, gsjColor(patternRaw(3, 4)), color.NRGBAModel.Convert(img.At(3, 4)).(color.NRGBA))

	_, err = source.Tile(t.Context(), maptile.New(3, 3, 2))
	assert.True(t, errors.Is(err, terrainrgb.ErrTileNotFound))

	_, err = source.Tile(t.Context(), maptile.New(1, 0, 1))
	assert.True(t, errors.Is(err, terrainrgb.ErrTileNotFound))

	_, err = source.Tile(t.Context(), maptile.New(0, 0, 1))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, terrainrgb.ErrTileNotFound))
	assert.True(t, strings.Contains(err.Error(), "500"))

	_, err = source.Tile(t.Context(), maptile.New(0, 1, 1))
	assert.Error(t, err)
}

func TestHTTPTileSource_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	source := terrainrgb.NewHTTPTileSource(url + "/{z}/{x}/{y}.png")
	_, err := source.Tile(t.Context(), maptile.New(0, 0, 0))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, terrainrgb.ErrTileNotFound))
}

func TestFSTileSource(t *testing.T) {
	fsys := newTestFS(t, maptile.New(1, 1, 1))
	fsys["1/0/0.png"] = &fstest.MapFile{Data: []byte("not an image")}
	source := terrainrgb.NewFSTileSource(fsys, "{z}/{x}/{y}.png")

	img, err := source.Tile(t.Context(), maptile.New(1, 1, 1))
	assert.NoError(t, err)
	assert.Equal(t, gsjColor(patternRaw(255, 0)), color.NRGBAModel.Convert(img.At(255, 0)).(color.NRGBA))

	_, err = source.Tile(t.Context(), maptile.New(0, 1, 1))
	assert.True(t, errors.Is(err, terrainrgb.ErrTileNotFound))

	_, err = source.Tile(t.Context(), maptile.New(0, 0, 1))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, terrainrgb.ErrTileNotFound))
}
