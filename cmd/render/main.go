// Command render draws one ground-failure map from a render request JSON
// file, without Kafka. It prints the resulting map product as JSON.
//
// Usage:
//
//	go run ./cmd/render -in data/mock/napa_request.json -out maps
//	go run ./cmd/render -in request.json -out maps -width 1400 -geocode
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/couchcryptid/geohazard-map-service/internal/adapter/canvas"
	"github.com/couchcryptid/geohazard-map-service/internal/adapter/mapbox"
	"github.com/couchcryptid/geohazard-map-service/internal/composite"
	"github.com/couchcryptid/geohazard-map-service/internal/config"
	"github.com/couchcryptid/geohazard-map-service/internal/domain"
	"github.com/couchcryptid/geohazard-map-service/internal/hazardmap"
	"github.com/couchcryptid/geohazard-map-service/internal/observability"
	"github.com/couchcryptid/geohazard-map-service/internal/projection"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "path to a render request JSON file")
	out := flag.String("out", "maps", "output directory for the PNG")
	width := flag.Int("width", 1000, "image width in pixels")
	geocode := flag.Bool("geocode", false, "name the location with Mapbox (requires MAPBOX_TOKEN)")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -in")
	}

	logger := observability.NewLogger(&config.Config{LogLevel: *logLevel, LogFormat: "text"})
	metrics := observability.NewMetrics()

	data, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	info, err := os.Stat(*in)
	if err != nil {
		return fmt.Errorf("stat request: %w", err)
	}
	req, err := domain.ParseRenderRequest(domain.RawEvent{
		Key:       []byte(strings.TrimSuffix(filepath.Base(*in), filepath.Ext(*in))),
		Value:     data,
		Timestamp: info.ModTime().UTC(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var geocoder domain.Geocoder
	if *geocode {
		token := os.Getenv("MAPBOX_TOKEN")
		if token == "" {
			return fmt.Errorf("-geocode requires MAPBOX_TOKEN")
		}
		geocoder = mapbox.NewClient(token, 5*time.Second, logger, metrics)
	}
	req.Event = domain.ResolveLocation(ctx, req.Event, geocoder, logger)

	surface, err := canvas.New(*width, logger)
	if err != nil {
		return err
	}
	defer surface.Close()

	maker, err := hazardmap.New(surface, projection.NewFactory(0), composite.DefaultOptions(), *out, logger, metrics)
	if err != nil {
		return err
	}
	product, err := maker.Make(ctx, req)
	if err != nil {
		return fmt.Errorf("render %s (%s): %w", req.Event.ID, hazardmap.ErrorKind(err), err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(product)
}
