// Package server serves elevation lookups over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/terrainrgb/go-terrainrgb"
)

const version = "0.1.0"

// Server is the elevation HTTP server.
type Server struct {
	mux     *http.ServeMux
	humaAPI huma.API
	logger  *slog.Logger
}

// New returns a new Server that answers lookups with probe.
func New(probe *terrainrgb.Probe, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("Elevation probe API", version)
	humaConfig.Info.Description = "Elevation lookups decoded from Terrain-RGB raster tiles."
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaAPI := humago.New(mux, humaConfig)

	NewHandler(probe).RegisterRoutes(humaAPI)
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		mux:     mux,
		humaAPI: humaAPI,
		logger:  logger,
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(sw, r)
	s.logger.LogAttrs(r.Context(), levelForStatus(sw.status), "request",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", sw.status),
		slog.Duration("duration", time.Since(start)),
	)
}

// OpenAPI returns the OpenAPI document of s's API.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// Handler holds the elevation API handlers.
type Handler struct {
	probe *terrainrgb.Probe
}

func NewHandler(probe *terrainrgb.Probe) *Handler {
	return &Handler{probe: probe}
}

// RegisterRoutes registers h's routes on api.
func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
	huma.Get(api, "/api/v1/elevation", h.GetElevation, huma.OperationTags("elevation"))
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"0.1.0"`
	MinZoom int    `json:"min_zoom" doc:"Minimum tile zoom" example:"0"`
	MaxZoom int    `json:"max_zoom" doc:"Maximum tile zoom" example:"15"`
}

func (h *Handler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	minZoom, maxZoom := h.probe.TileSet().ZoomRange()
	return &struct{ Body HealthBody }{Body: HealthBody{
		Status:  "ok",
		Version: version,
		MinZoom: minZoom,
		MaxZoom: maxZoom,
	}}, nil
}

type ElevationInput struct {
	Lat  float64 `query:"lat" required:"true" minimum:"-90" maximum:"90" doc:"Latitude in degrees" example:"30.23973"`
	Lng  float64 `query:"lng" required:"true" minimum:"-180" maximum:"180" doc:"Longitude in degrees" example:"130.50264"`
	Zoom float64 `query:"zoom" minimum:"0" maximum:"24" default:"15" doc:"Map zoom level, truncated to a tile zoom" example:"11.99"`
	HL   string  `query:"hl" doc:"Language of the map links" example:"ja"`
}

type TileBody struct {
	Z int `json:"z" doc:"Tile zoom"`
	X int `json:"x" doc:"Tile column"`
	Y int `json:"y" doc:"Tile row"`
}

type PixelBody struct {
	I float64 `json:"i" doc:"Column within the tile"`
	J float64 `json:"j" doc:"Row within the tile"`
}

type ElevationBody struct {
	Lat           float64    `json:"lat" doc:"Latitude in degrees"`
	Lng           float64    `json:"lng" doc:"Longitude in degrees"`
	Zoom          int        `json:"zoom" doc:"Tile zoom used for the lookup"`
	Tile          *TileBody  `json:"tile,omitempty" doc:"Tile containing the point"`
	Pixel         *PixelBody `json:"pixel,omitempty" doc:"Pixel offset of the point within the tile"`
	Elevation     *float64   `json:"elevation" doc:"Elevation in meters, null if unavailable"`
	Available     bool       `json:"available" doc:"Whether an elevation is available"`
	GoogleMapsURL string     `json:"google_maps_url" doc:"Google Maps link"`
	StreetViewURL string     `json:"street_view_url" doc:"Google Street View link"`
}

type ElevationOutput struct {
	Body ElevationBody
}

func (h *Handler) GetElevation(ctx context.Context, input *ElevationInput) (*ElevationOutput, error) {
	point := orb.Point{input.Lng, input.Lat}
	result, err := h.probe.Lookup(ctx, point, input.Zoom)
	if err != nil {
		return nil, huma.Error502BadGateway("elevation tile unavailable", err)
	}

	body := ElevationBody{
		Lat:           input.Lat,
		Lng:           input.Lng,
		Zoom:          result.Zoom,
		Available:     result.Available(),
		GoogleMapsURL: terrainrgb.GoogleMapsURL(point, input.HL),
		StreetViewURL: terrainrgb.StreetViewURL(point, input.HL),
	}
	if address := result.Address; address != nil {
		body.Tile = &TileBody{
			Z: int(address.Tile.Z),
			X: int(address.Tile.X),
			Y: int(address.Tile.Y),
		}
		body.Pixel = &PixelBody{
			I: address.I,
			J: address.J,
		}
	}
	if result.Available() {
		elevation := result.Elevation
		body.Elevation = &elevation
	}
	return &ElevationOutput{Body: body}, nil
}
