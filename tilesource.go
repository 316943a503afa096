package terrainrgb

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb/maptile"
	_ "golang.org/x/image/webp"
)

// ErrTileNotFound is returned by a TileSource when a tile does not exist.
var ErrTileNotFound = errors.New("tile not found")

// A TileSource returns decoded tile images.
type TileSource interface {
	Tile(ctx context.Context, tile maptile.Tile) (image.Image, error)
}

// ExpandTemplate replaces the {z}, {x}, and {y} placeholders in template with
// the coordinates of tile.
func ExpandTemplate(template string, tile maptile.Tile) string {
	return strings.NewReplacer(
		"{z}", strconv.Itoa(int(tile.Z)),
		"{x}", strconv.FormatUint(uint64(tile.X), 10),
		"{y}", strconv.FormatUint(uint64(tile.Y), 10),
	).Replace(template)
}

// An HTTPTileSource fetches tiles over HTTP.
type HTTPTileSource struct {
	client      *http.Client
	urlTemplate string
	userAgent   string
}

// An HTTPTileSourceOption sets an option on an HTTPTileSource.
type HTTPTileSourceOption func(*HTTPTileSource)

// NewHTTPTileSource returns a new HTTPTileSource that fetches tiles from
// urlTemplate.
func NewHTTPTileSource(urlTemplate string, options ...HTTPTileSourceOption) *HTTPTileSource {
	s := &HTTPTileSource{
		client:      http.DefaultClient,
		urlTemplate: urlTemplate,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func WithHTTPClient(client *http.Client) HTTPTileSourceOption {
	return func(s *HTTPTileSource) {
		s.client = client
	}
}

func WithUserAgent(userAgent string) HTTPTileSourceOption {
	return func(s *HTTPTileSource) {
		s.userAgent = userAgent
	}
}

// WithTimeout sets the timeout of each tile request. It replaces the client
// with a copy, so it should be given after WithHTTPClient.
func WithTimeout(timeout time.Duration) HTTPTileSourceOption {
	return func(s *HTTPTileSource) {
		client := *s.client
		client.Timeout = timeout
		s.client = &client
	}
}

// URL returns the URL of tile.
func (s *HTTPTileSource) URL(tile maptile.Tile) string {
	return ExpandTemplate(s.urlTemplate, tile)
}

// Tile fetches and decodes tile.
func (s *HTTPTileSource) Tile(ctx context.Context, tile maptile.Tile) (image.Image, error) {
	url := s.URL(tile)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent:
		return nil, ErrTileNotFound
	case resp.StatusCode < 200 || 300 <= resp.StatusCode:
		return nil, fmt.Errorf("%s: %s", url, resp.Status)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	return img, nil
}

// An FSTileSource reads tiles from a filesystem.
type FSTileSource struct {
	fsys             fs.FS
	filenameTemplate string
}

// NewFSTileSource returns a new FSTileSource that reads tiles from
// filenameTemplate in fsys, for example "{z}/{x}/{y}.png".
func NewFSTileSource(fsys fs.FS, filenameTemplate string) *FSTileSource {
	return &FSTileSource{
		fsys:             fsys,
		filenameTemplate: filenameTemplate,
	}
}

// Tile reads and decodes tile.
func (s *FSTileSource) Tile(ctx context.Context, tile maptile.Tile) (image.Image, error) {
	filename := ExpandTemplate(s.filenameTemplate, tile)
	switch file, err := s.fsys.Open(filename); {
	case errors.Is(err, fs.ErrNotExist):
		return nil, ErrTileNotFound
	case err != nil:
		return nil, err
	default:
		defer file.Close()
		img, _, err := image.Decode(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		return img, nil
	}
}
