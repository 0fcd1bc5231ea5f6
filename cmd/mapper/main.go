package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/geohazard-map-service/internal/adapter/canvas"
	"github.com/couchcryptid/geohazard-map-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/geohazard-map-service/internal/adapter/kafka"
	"github.com/couchcryptid/geohazard-map-service/internal/adapter/mapbox"
	"github.com/couchcryptid/geohazard-map-service/internal/composite"
	"github.com/couchcryptid/geohazard-map-service/internal/config"
	"github.com/couchcryptid/geohazard-map-service/internal/domain"
	"github.com/couchcryptid/geohazard-map-service/internal/hazardmap"
	"github.com/couchcryptid/geohazard-map-service/internal/observability"
	"github.com/couchcryptid/geohazard-map-service/internal/pipeline"
	"github.com/couchcryptid/geohazard-map-service/internal/projection"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	surface, err := canvas.New(cfg.MapWidth, logger)
	if err != nil {
		logger.Error("failed to create canvas", "error", err)
		os.Exit(1)
	}
	defer surface.Close()

	opts := composite.Options{
		ThresholdPct: cfg.HazardThresholdPct,
		MaxPct:       cfg.HazardMaxPct,
		Alpha:        cfg.HazardAlpha,
	}
	maker, err := hazardmap.New(surface, projection.NewFactory(cfg.ProjectionCacheSize), opts, cfg.OutputDir, logger, metrics)
	if err != nil {
		logger.Error("failed to create map maker", "error", err)
		os.Exit(1)
	}

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	// Left as a nil interface when disabled so map titles fall back to
	// coordinates.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		cached, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		if err != nil {
			logger.Error("failed to create geocoder", "error", err)
			os.Exit(1)
		}
		geocoder = cached
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(maker, geocoder, logger, metrics)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize,
		pipeline.WithRenderWorkers(cfg.RenderWorkers))

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, cfg.OutputDir, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start render pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	logger.Info("geohazard mapper started",
		"source_topic", cfg.KafkaSourceTopic,
		"sink_topic", cfg.KafkaSinkTopic,
		"output_dir", cfg.OutputDir,
		"map_width", cfg.MapWidth,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
