// Package projection maps geographic coordinates onto the drawing plane.
//
// The conic projection itself is delegated to github.com/ctessum/geom/proj;
// this package centers it on a map's bounds, moves the plane origin to the
// lower-left corner and computes planar extents for layers.
package projection

import (
	"errors"
	"fmt"

	"github.com/ctessum/geom/proj"

	"github.com/couchcryptid/geohazard-map-service/internal/plot"
	"github.com/couchcryptid/geohazard-map-service/internal/raster"
)

// ErrProjection wraps every failure reported by a projector.
var ErrProjection = errors.New("projection failed")

const geographic = "+proj=longlat +ellps=WGS84 +datum=WGS84 +no_defs"

// Projector maps longitude/latitude in degrees to plane coordinates.
type Projector interface {
	Project(lon, lat float64) (x, y float64, err error)
}

// Func adapts a plain function to the Projector interface.
type Func func(lon, lat float64) (x, y float64, err error)

// Project calls f.
func (f Func) Project(lon, lat float64) (x, y float64, err error) {
	return f(lon, lat)
}

// LambertConformal is a Lambert conformal conic projection with a single
// standard parallel at the center latitude of the map and the central
// meridian at its center longitude. Plane coordinates are meters measured
// from the projected lower-left corner.
type LambertConformal struct {
	forward proj.Transformer
	x0, y0  float64
}

// NewLambertConformal builds a projection centered on b.
func NewLambertConformal(b raster.Bounds) (*LambertConformal, error) {
	clat, clon := b.CenterLat(), b.CenterLon()
	def := fmt.Sprintf("+proj=lcc +lat_1=%g +lat_2=%g +lat_0=%g +lon_0=%g +x_0=0 +y_0=0 +ellps=WGS84 +units=m +no_defs",
		clat, clat, clat, clon)

	src, err := proj.Parse(geographic)
	if err != nil {
		return nil, fmt.Errorf("%w: parse geographic reference: %w", ErrProjection, err)
	}
	dst, err := proj.Parse(def)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %q: %w", ErrProjection, def, err)
	}
	forward, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("%w: build transform: %w", ErrProjection, err)
	}

	l := &LambertConformal{forward: forward}
	x0, y0, err := l.Project(b.XMin, b.YMin)
	if err != nil {
		return nil, err
	}
	l.x0, l.y0 = x0, y0
	return l, nil
}

// Project implements Projector.
func (l *LambertConformal) Project(lon, lat float64) (x, y float64, err error) {
	x, y, err = l.forward(lon, lat)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: (%g, %g): %w", ErrProjection, lon, lat, err)
	}
	return x - l.x0, y - l.y0, nil
}

// MapExtent projects the lower-left and upper-right corners of b and returns
// the planar rectangle they span.
func MapExtent(b raster.Bounds, p Projector) (plot.Extent, error) {
	x0, y0, err := p.Project(b.XMin, b.YMin)
	if err != nil {
		return plot.Extent{}, wrap(err)
	}
	x1, y1, err := p.Project(b.XMax, b.YMax)
	if err != nil {
		return plot.Extent{}, wrap(err)
	}
	return plot.Extent{XMin: x0, XMax: x1, YMin: y0, YMax: y1}, nil
}

func wrap(err error) error {
	if errors.Is(err, ErrProjection) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrProjection, err)
}
