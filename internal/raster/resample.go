package raster

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

// ErrGridAlignment is returned when one raster cannot be resampled onto
// another's grid.
var ErrGridAlignment = errors.New("grid alignment")

// edgeTolerance absorbs floating-point noise when a target cell center sits
// exactly on the source edge.
const edgeTolerance = 1e-9

// Resample bilinearly interpolates src onto the cell centers of a grid with
// the given shape and bounds. Target cells outside src's coverage are NaN.
func Resample(src *Raster, rows, cols int, target Bounds) (*Raster, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: empty target grid %dx%d", ErrGridAlignment, rows, cols)
	}
	if src.Rows < 2 || src.Cols < 2 {
		return nil, fmt.Errorf("%w: source grid %dx%d too small to interpolate", ErrGridAlignment, src.Rows, src.Cols)
	}
	if !toGeom(src.Bounds).Overlaps(toGeom(target)) {
		return nil, fmt.Errorf("%w: source %+v and target %+v do not overlap", ErrGridAlignment, src.Bounds, target)
	}

	out := New(rows, cols, target)
	dx, dy := src.DX(), src.DY()
	for r := 0; r < rows; r++ {
		fr := (src.Bounds.YMax - out.Y(r)) / dy
		for c := 0; c < cols; c++ {
			fc := (out.X(c) - src.Bounds.XMin) / dx
			out.Set(r, c, bilinear(src, fr, fc))
		}
	}
	return out, nil
}

// ResampleLike resamples src onto like's grid.
func ResampleLike(src, like *Raster) (*Raster, error) {
	return Resample(src, like.Rows, like.Cols, like.Bounds)
}

func bilinear(src *Raster, fr, fc float64) float64 {
	maxR, maxC := float64(src.Rows-1), float64(src.Cols-1)
	if fr < -edgeTolerance || fc < -edgeTolerance || fr > maxR+edgeTolerance || fc > maxC+edgeTolerance {
		return math.NaN()
	}
	fr = math.Min(math.Max(fr, 0), maxR)
	fc = math.Min(math.Max(fc, 0), maxC)

	r0, c0 := int(math.Floor(fr)), int(math.Floor(fc))
	r1, c1 := min(r0+1, src.Rows-1), min(c0+1, src.Cols-1)
	tr, tc := fr-float64(r0), fc-float64(c0)

	top := src.At(r0, c0)*(1-tc) + src.At(r0, c1)*tc
	bottom := src.At(r1, c0)*(1-tc) + src.At(r1, c1)*tc
	return top*(1-tr) + bottom*tr
}

func toGeom(b Bounds) *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: b.XMin, Y: b.YMin},
		Max: geom.Point{X: b.XMax, Y: b.YMax},
	}
}
