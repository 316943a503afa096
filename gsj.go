package terrainrgb

import "slices"

// URL templates of the GSJ seamless elevation tiles.
const (
	GSJMixedURLTemplate = "https://tiles.gsj.jp/tiles/elev/mixed/{z}/{y}/{x}.png"
	GSJLandURLTemplate  = "https://tiles.gsj.jp/tiles/elev/land/{z}/{y}/{x}.png"
)

// GSJMaxZoom is the maximum zoom of the GSJ seamless elevation tiles.
const GSJMaxZoom = 15

// NewGSJ returns a TileSet of the GSJ integrated (land and sea) seamless
// elevation tiles.
func NewGSJ(options ...TileSetOption) (*TileSet, error) {
	return NewTileSet(slices.Concat(
		[]TileSetOption{
			WithTileSource(NewHTTPTileSource(GSJMixedURLTemplate)),
			WithEncoding(EncodingGSJ),
			WithZoomRange(0, GSJMaxZoom),
		},
		options,
	)...)
}

// NewGSJLand returns a TileSet of the GSJ land-only seamless elevation tiles.
func NewGSJLand(options ...TileSetOption) (*TileSet, error) {
	return NewGSJ(slices.Concat(
		[]TileSetOption{
			WithTileSource(NewHTTPTileSource(GSJLandURLTemplate)),
		},
		options,
	)...)
}
