// Package hazardmap assembles a ground-failure map from a render request:
// shaded relief, hazard overlays, gridlines, legends and title, drawn by a
// plot.Surface into <output dir>/<event id>.png.
package hazardmap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gogpu/gg"

	"github.com/couchcryptid/geohazard-map-service/internal/composite"
	"github.com/couchcryptid/geohazard-map-service/internal/domain"
	"github.com/couchcryptid/geohazard-map-service/internal/gridlines"
	"github.com/couchcryptid/geohazard-map-service/internal/observability"
	"github.com/couchcryptid/geohazard-map-service/internal/plot"
	"github.com/couchcryptid/geohazard-map-service/internal/projection"
	"github.com/couchcryptid/geohazard-map-service/internal/raster"
	"github.com/couchcryptid/geohazard-map-service/internal/relief"
)

// Colorbar titles.
const (
	LandslideTitle    = "Landslide\nProbability"
	LiquefactionTitle = "Liquefaction\nProbability"
)

// watermarkColor is red at 10% opacity.
var watermarkColor = gg.RGBA{R: 1, A: 0.10}

const watermarkAngle = 45

// ProjectorFactory returns the projector for a map's bounds.
type ProjectorFactory interface {
	ForBounds(b raster.Bounds) (projection.Projector, error)
}

// Maker renders maps. It is safe for concurrent use when its surface and
// projector factory are.
type Maker struct {
	surface   plot.Surface
	projector ProjectorFactory
	relief    *relief.Renderer
	opts      composite.Options
	outputDir string
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Maker writing into outputDir.
func New(surface plot.Surface, projector ProjectorFactory, opts composite.Options, outputDir string, logger *slog.Logger, metrics *observability.Metrics) (*Maker, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Maker{
		surface:   surface,
		projector: projector,
		relief:    relief.New(),
		opts:      opts,
		outputDir: outputDir,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

// Make renders req and returns a description of the written map. Any
// failure aborts the request and leaves no file behind.
func (m *Maker) Make(ctx context.Context, req domain.RenderRequest) (domain.MapProduct, error) {
	start := time.Now()
	product, err := m.make(ctx, req)
	if err != nil {
		m.metrics.RenderErrors.WithLabelValues(ErrorKind(err)).Inc()
		return domain.MapProduct{}, err
	}
	product.Duration = time.Since(start)
	m.metrics.RenderDuration.Observe(product.Duration.Seconds())
	m.logger.Info("map rendered",
		"event_id", product.EventID,
		"path", product.Path,
		"scenario", product.Scenario,
		"duration", product.Duration,
	)
	return product, nil
}

func (m *Maker) make(ctx context.Context, req domain.RenderRequest) (domain.MapProduct, error) {
	if err := req.Validate(); err != nil {
		return domain.MapProduct{}, err
	}
	topo := req.Topography

	proj, err := m.projector.ForBounds(topo.Bounds)
	if err != nil {
		return domain.MapProduct{}, err
	}
	comp, err := composite.New(m.opts, proj)
	if err != nil {
		return domain.MapProduct{}, err
	}

	stage := time.Now()
	reliefLayer, _, err := m.relief.Render(topo)
	if err != nil {
		return domain.MapProduct{}, fmt.Errorf("shaded relief: %w", err)
	}
	m.observeStage("relief", stage)

	stage = time.Now()
	layers, err := comp.Composite(ctx, reliefLayer, req.Liquefaction, req.Landslide, topo)
	if err != nil {
		return domain.MapProduct{}, fmt.Errorf("composite: %w", err)
	}
	m.observeStage("composite", stage)

	frame := layers[0].Extent
	xticks, yticks, err := Ticks(topo.Bounds, proj)
	if err != nil {
		return domain.MapProduct{}, fmt.Errorf("gridlines: %w", err)
	}

	title := domain.Title(req.Event)
	scene := plot.Scene{
		Frame:      frame,
		Background: relief.WaterColor,
		Layers:     layers,
		XTicks:     xticks,
		YTicks:     yticks,
		Title:      title,
		Colorbars:  m.colorbars(layers),
	}
	if req.Event.Scenario {
		scene.Watermark = &plot.Watermark{
			Text:  domain.ScenarioWatermark,
			X:     frame.XMin + frame.Width()/2,
			Y:     frame.YMin + frame.Height()/2,
			Angle: watermarkAngle,
			Color: watermarkColor,
		}
	}

	stage = time.Now()
	path, err := m.write(ctx, req.Event.ID, scene)
	if err != nil {
		return domain.MapProduct{}, err
	}
	m.observeStage("surface", stage)

	names := make([]string, len(layers))
	for i, l := range layers {
		names[i] = l.Name
	}
	return domain.MapProduct{
		EventID:    req.Event.ID,
		Path:       path,
		Title:      title,
		Scenario:   req.Event.Scenario,
		Layers:     names,
		Bounds:     topo.Bounds,
		RenderedAt: domain.Now().UTC(),
	}, nil
}

func (m *Maker) colorbars(layers []plot.Layer) []plot.Colorbar {
	var bars []plot.Colorbar
	for _, l := range layers {
		switch l.Name {
		case composite.Landslide:
			bars = append(bars, plot.Colorbar{Title: LandslideTitle, Ramp: l.Ramp, VMin: l.VMin, VMax: l.VMax, Left: true})
		case composite.Liquefaction:
			bars = append(bars, plot.Colorbar{Title: LiquefactionTitle, Ramp: l.Ramp, VMin: l.VMin, VMax: l.VMax})
		}
	}
	return bars
}

// write renders into a temporary file in the output directory and renames
// it to <event id>.png once the surface succeeds.
func (m *Maker) write(ctx context.Context, eventID string, scene plot.Scene) (string, error) {
	if err := os.MkdirAll(m.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.CreateTemp(m.outputDir, "."+eventID+"-*.png")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if tmp != "" {
			_ = os.Remove(tmp)
		}
	}()

	if err := m.surface.Render(ctx, scene, f); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("render surface: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	path := filepath.Join(m.outputDir, eventID+".png")
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("rename map: %w", err)
	}
	tmp = ""
	return path, nil
}

func (m *Maker) observeStage(name string, start time.Time) {
	m.metrics.LayerDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

// Ticks computes gridlines for b and places them on the plane: meridians
// are projected along the southern edge and parallels along the western edge.
func Ticks(b raster.Bounds, p projection.Projector) (xticks, yticks []plot.Tick, err error) {
	meridians, err := gridlines.Meridians(b.XMin, b.XMax)
	if err != nil {
		return nil, nil, err
	}
	parallels, err := gridlines.Parallels(b.YMin, b.YMax)
	if err != nil {
		return nil, nil, err
	}

	xticks = make([]plot.Tick, len(meridians))
	for i, t := range meridians {
		x, _, err := p.Project(t.Value, b.YMin)
		if err != nil {
			return nil, nil, err
		}
		xticks[i] = plot.Tick{Pos: x, Label: t.Label}
	}
	yticks = make([]plot.Tick, len(parallels))
	for i, t := range parallels {
		_, y, err := p.Project(b.XMin, t.Value)
		if err != nil {
			return nil, nil, err
		}
		yticks[i] = plot.Tick{Pos: y, Label: t.Label}
	}
	return xticks, yticks, nil
}

// ErrorKind classifies a render error for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, raster.ErrInvalidRaster):
		return "invalid_request"
	case errors.Is(err, relief.ErrUnsupportedLatitude):
		return "unsupported_latitude"
	case errors.Is(err, raster.ErrGridAlignment):
		return "grid_alignment"
	case errors.Is(err, projection.ErrProjection):
		return "projection"
	case errors.Is(err, gridlines.ErrInvalidRange):
		return "gridlines"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "render"
	}
}
