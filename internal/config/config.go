// Package config loads the configuration of the elevation probe binaries.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/terrainrgb/go-terrainrgb"
)

// Environment variables that override the configuration file.
const (
	EnvTileURL  = "ELEVATION_TILE_URL"
	EnvTileDir  = "ELEVATION_TILE_DIR"
	EnvEncoding = "ELEVATION_ENCODING"
	EnvMaxZoom  = "ELEVATION_MAX_ZOOM"
	EnvListen   = "ELEVATION_LISTEN"
)

// Config is the configuration of a probe and the server around it.
type Config struct {
	Listen    string        `yaml:"listen"`
	TileURL   string        `yaml:"tile_url"`
	TileDir   string        `yaml:"tile_dir"` // If set, TileURL is a filename template within TileDir.
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
	Encoding  string        `yaml:"encoding"`
	Factor    *float64      `yaml:"factor"`
	Offset    *float64      `yaml:"offset"`
	NoData    *int32        `yaml:"no_data"`
	MinZoom   int           `yaml:"min_zoom"`
	MaxZoom   int           `yaml:"max_zoom"`
	Zoom      float64       `yaml:"zoom"`
	ClampZoom bool          `yaml:"clamp_zoom"`
	Bilinear  bool          `yaml:"bilinear"`
	CacheSize int           `yaml:"cache_size"`

	MissingTileCacheSize int  `yaml:"missing_tile_cache_size"`
	MissingTilesAsNoData bool `yaml:"missing_tiles_as_no_data"`

	Language string `yaml:"language"` // Language of map links.
}

// Default returns the default configuration, which probes the GSJ integrated
// seamless elevation tiles.
func Default() *Config {
	return &Config{
		Listen:    ":8080",
		TileURL:   terrainrgb.GSJMixedURLTemplate,
		UserAgent: "go-terrainrgb",
		Timeout:   10 * time.Second,
		Encoding:  "gsj",
		MaxZoom:   terrainrgb.GSJMaxZoom,
		Zoom:      terrainrgb.GSJMaxZoom,
		CacheSize: 64,

		MissingTileCacheSize: 1024,
		Language:             "ja",
	}
}

// Load returns the default configuration overridden by the YAML file at path,
// if path is not empty, and then by the environment.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadDotEnv loads environment variables from filenames, or .env if none are
// given. Missing files are ignored.
func LoadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// ApplyEnv overrides c with the environment variables returned by lookupEnv.
func (c *Config) ApplyEnv(lookupEnv func(string) (string, bool)) error {
	if value, ok := lookupEnv(EnvTileURL); ok {
		c.TileURL = value
	}
	if value, ok := lookupEnv(EnvTileDir); ok {
		c.TileDir = value
	}
	if value, ok := lookupEnv(EnvEncoding); ok {
		c.Encoding = value
	}
	if value, ok := lookupEnv(EnvListen); ok {
		c.Listen = value
	}
	if value, ok := lookupEnv(EnvMaxZoom); ok {
		maxZoom, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxZoom, err)
		}
		c.MaxZoom = maxZoom
	}
	return nil
}

// EncodingValue returns c's encoding with any overrides applied.
func (c *Config) EncodingValue() (terrainrgb.Encoding, error) {
	encoding, err := terrainrgb.ParseEncoding(c.Encoding)
	if err != nil {
		return terrainrgb.Encoding{}, err
	}
	if c.Factor != nil {
		encoding.Factor = *c.Factor
	}
	if c.Offset != nil {
		encoding.Offset = *c.Offset
	}
	if c.NoData != nil {
		encoding.NoData = *c.NoData
		encoding.HasNoData = true
	}
	return encoding, nil
}

// TileSource returns c's tile source.
func (c *Config) TileSource() terrainrgb.TileSource {
	if c.TileDir != "" {
		return terrainrgb.NewFSTileSource(os.DirFS(c.TileDir), c.TileURL)
	}
	options := []terrainrgb.HTTPTileSourceOption{
		terrainrgb.WithUserAgent(c.UserAgent),
	}
	if c.Timeout > 0 {
		options = append(options, terrainrgb.WithTimeout(c.Timeout))
	}
	return terrainrgb.NewHTTPTileSource(c.TileURL, options...)
}

// NewProbe returns a new Probe configured by c.
func (c *Config) NewProbe() (*terrainrgb.Probe, error) {
	encoding, err := c.EncodingValue()
	if err != nil {
		return nil, err
	}
	tileSet, err := terrainrgb.NewTileSet(
		terrainrgb.WithTileSource(c.TileSource()),
		terrainrgb.WithEncoding(encoding),
		terrainrgb.WithZoomRange(c.MinZoom, c.MaxZoom),
		terrainrgb.WithCacheSize(c.CacheSize),
		terrainrgb.WithMissingTileCacheSize(c.MissingTileCacheSize),
		terrainrgb.WithMissingTilesAsNoData(c.MissingTilesAsNoData),
	)
	if err != nil {
		return nil, err
	}
	return terrainrgb.NewProbe(tileSet,
		terrainrgb.WithBilinear(c.Bilinear),
		terrainrgb.WithClampZoom(c.ClampZoom),
	)
}
