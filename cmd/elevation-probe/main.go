package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/terrainrgb/go-terrainrgb"
	"github.com/terrainrgb/go-terrainrgb/internal/config"
	"github.com/terrainrgb/go-terrainrgb/internal/server"
)

type options struct {
	configPath string
	tileURL    string
	encoding   string
	maxZoom    int
}

// loadConfig returns the configuration with command line flags applied.
func (o *options) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	c, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("tile-url") {
		c.TileURL = o.tileURL
	}
	if flags.Changed("encoding") {
		c.Encoding = o.encoding
	}
	if flags.Changed("max-zoom") {
		c.MaxZoom = o.maxZoom
	}
	return c, nil
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	o := &options{}
	rootCmd := &cobra.Command{
		Use:           "elevation-probe",
		Short:         "Look up elevations in Terrain-RGB raster tiles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	persistentFlags := rootCmd.PersistentFlags()
	persistentFlags.StringVarP(&o.configPath, "config", "c", "", "path to YAML configuration file")
	persistentFlags.StringVar(&o.tileURL, "tile-url", "", "tile URL template with {z}, {x}, and {y} placeholders")
	persistentFlags.StringVar(&o.encoding, "encoding", "", "tile encoding (gsj, mapbox, or terrarium)")
	persistentFlags.IntVar(&o.maxZoom, "max-zoom", 0, "maximum tile zoom")

	rootCmd.AddCommand(
		newLookupCmd(o),
		newServeCmd(o),
		newSpecCmd(o),
	)
	return rootCmd
}

func newLookupCmd(o *options) *cobra.Command {
	var zoom float64
	lookupCmd := &cobra.Command{
		Use:   "lookup latitude longitude",
		Short: "Print the elevation at a point",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return err
			}
			lng, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return err
			}
			c, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("zoom") {
				zoom = c.Zoom
			}
			probe, err := c.NewProbe()
			if err != nil {
				return err
			}

			point := terrainrgb.RoundLatLng(orb.Point{lng, lat})
			result, err := probe.Lookup(cmd.Context(), point, zoom)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if result.Available() {
				fmt.Fprintf(w, "%.2fm\n", result.Elevation)
			} else {
				fmt.Fprintln(w, "unavailable")
			}
			fmt.Fprintln(w, terrainrgb.GoogleMapsURL(point, c.Language))
			fmt.Fprintln(w, terrainrgb.StreetViewURL(point, c.Language))
			return nil
		},
	}
	lookupCmd.Flags().Float64VarP(&zoom, "zoom", "z", 0, "map zoom level, truncated to a tile zoom")
	return lookupCmd
}

func newServeCmd(o *options) *cobra.Command {
	var listen string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve elevation lookups over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				c.Listen = listen
			}
			probe, err := c.NewProbe()
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			httpServer := &http.Server{
				Addr:              c.Listen,
				Handler:           server.New(probe, logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			go func() {
				<-ctx.Done()
				logger.Info("shutting down")
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				_ = httpServer.Shutdown(shutdownCtx)
			}()

			logger.Info("listening", slog.String("addr", c.Listen), slog.String("tile_url", c.TileURL))
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	serveCmd.Flags().StringVarP(&listen, "listen", "l", "", "address to listen on")
	return serveCmd
}

func newSpecCmd(o *options) *cobra.Command {
	var useYAML bool
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Print the OpenAPI document (JSON by default, --yaml for YAML)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			probe, err := c.NewProbe()
			if err != nil {
				return err
			}
			openAPI := server.New(probe, slog.New(slog.DiscardHandler)).OpenAPI()

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(openAPI)
			} else {
				output, err = json.MarshalIndent(openAPI, "", "  ")
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
			return err
		},
	}
	specCmd.Flags().BoolVarP(&useYAML, "yaml", "y", false, "output as YAML instead of JSON")
	return specCmd
}

func main() {
	if err := newRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
