// Package composite turns hazard probability rasters into translucent
// layers stacked over a shaded-relief basemap.
package composite

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/geohazard-map-service/internal/colormap"
	"github.com/couchcryptid/geohazard-map-service/internal/plot"
	"github.com/couchcryptid/geohazard-map-service/internal/projection"
	"github.com/couchcryptid/geohazard-map-service/internal/raster"
)

// Layer names in draw order after the relief.
const (
	Liquefaction = "liquefaction"
	Landslide    = "landslide"
)

// ErrInvalidOptions is returned by New for unusable thresholds or alpha.
var ErrInvalidOptions = errors.New("invalid composite options")

// Options controls hazard masking and blending.
type Options struct {
	// ThresholdPct hides cells below this probability (percent).
	ThresholdPct float64
	// MaxPct is the probability at the top of each color ramp.
	MaxPct float64
	// Alpha is the blend alpha of both hazard layers.
	Alpha float64
}

// DefaultOptions returns a 2% threshold, a 20% ramp ceiling and alpha 0.7.
func DefaultOptions() Options {
	return Options{ThresholdPct: 2, MaxPct: 20, Alpha: 0.7}
}

// Validate reports whether the options can be used.
func (o Options) Validate() error {
	if math.IsNaN(o.ThresholdPct) || o.ThresholdPct < 0 {
		return fmt.Errorf("%w: threshold %v%%", ErrInvalidOptions, o.ThresholdPct)
	}
	if !(o.MaxPct > o.ThresholdPct) {
		return fmt.Errorf("%w: max %v%% must exceed threshold %v%%", ErrInvalidOptions, o.MaxPct, o.ThresholdPct)
	}
	if !(o.Alpha >= 0 && o.Alpha <= 1) {
		return fmt.Errorf("%w: alpha %v outside [0, 1]", ErrInvalidOptions, o.Alpha)
	}
	return nil
}

// Compositor builds the ordered layer stack for one map. It holds no state
// between calls beyond its options and projector.
type Compositor struct {
	opts      Options
	projector projection.Projector
}

// New creates a Compositor that places layers with p.
func New(opts Options, p projection.Projector) (*Compositor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Compositor{opts: opts, projector: p}, nil
}

// Composite returns relief, liquefaction and landslide layers in draw order,
// each with its planar extent. The relief is taken as rendered from elev.
// Hazard cells below the threshold, over water (elev < 0) or without a value
// are fully transparent; every other cell is drawn at the blend alpha.
func (c *Compositor) Composite(ctx context.Context, relief plot.Layer, lq, ls, elev *raster.Raster) ([]plot.Layer, error) {
	ext, err := projection.MapExtent(elev.Bounds, c.projector)
	if err != nil {
		return nil, fmt.Errorf("relief extent: %w", err)
	}
	relief.Extent = ext
	relief.Alpha = 1

	layers := make([]plot.Layer, 3)
	layers[0] = relief

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l, err := c.hazardLayer(ctx, Liquefaction, lq, elev, colormap.AutumnR())
		layers[1] = l
		return err
	})
	g.Go(func() error {
		l, err := c.hazardLayer(ctx, Landslide, ls, elev, colormap.Cool())
		layers[2] = l
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return layers, nil
}

func (c *Compositor) hazardLayer(ctx context.Context, name string, hz, elev *raster.Raster, ramp *colormap.Ramp) (plot.Layer, error) {
	if err := ctx.Err(); err != nil {
		return plot.Layer{}, err
	}
	water, err := raster.ResampleLike(elev, hz)
	if err != nil {
		return plot.Layer{}, fmt.Errorf("%s water mask: %w", name, err)
	}
	ext, err := projection.MapExtent(hz.Bounds, c.projector)
	if err != nil {
		return plot.Layer{}, fmt.Errorf("%s extent: %w", name, err)
	}

	layer := plot.NewLayer(name, hz.Rows, hz.Cols)
	for r := 0; r < hz.Rows; r++ {
		for col := 0; col < hz.Cols; col++ {
			pct := c.percent(hz.At(r, col), water.At(r, col))
			if pct == 0 {
				layer.Set(r, col, ramp.Masked())
				continue
			}
			px := ramp.At(colormap.Normalize(pct, c.opts.ThresholdPct, c.opts.MaxPct))
			px.A = 1
			layer.Set(r, col, px)
		}
	}

	layer.Extent = ext
	layer.Alpha = c.opts.Alpha
	layer.Origin = plot.OriginUpper
	layer.Ramp = ramp
	layer.VMin, layer.VMax = c.opts.ThresholdPct, c.opts.MaxPct
	return layer, nil
}

// percent converts a fractional probability to percent, zeroing cells below
// the threshold, over water, or without data. Elevation outside the
// topography's coverage (NaN) is not water.
func (c *Compositor) percent(prob, elev float64) float64 {
	pct := prob * 100
	if math.IsNaN(pct) || pct < c.opts.ThresholdPct || elev < 0 {
		return 0
	}
	return pct
}
