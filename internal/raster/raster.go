package raster

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrInvalidRaster is returned when a raster's shape or values cannot be used.
var ErrInvalidRaster = errors.New("invalid raster")

// Bounds is a geographic rectangle in degrees. Cell centers lie on the edges
// (gridline registration), so XMin/XMax are the first and last column centers.
type Bounds struct {
	XMin float64 `json:"xmin"`
	XMax float64 `json:"xmax"`
	YMin float64 `json:"ymin"`
	YMax float64 `json:"ymax"`
}

// CenterLat returns the latitude halfway between YMin and YMax.
func (b Bounds) CenterLat() float64 {
	return b.YMin + (b.YMax-b.YMin)/2
}

// CenterLon returns the longitude halfway between XMin and XMax.
func (b Bounds) CenterLon() float64 {
	return b.XMin + (b.XMax-b.XMin)/2
}

// Raster is a row-major grid of values. Row 0 is the northern edge (YMax),
// column 0 the western edge (XMin).
type Raster struct {
	Rows   int       `json:"rows"`
	Cols   int       `json:"cols"`
	Data   []float64 `json:"data"`
	Bounds Bounds    `json:"bounds"`
}

// New allocates a zero-filled raster.
func New(rows, cols int, b Bounds) *Raster {
	return &Raster{
		Rows:   rows,
		Cols:   cols,
		Data:   make([]float64, rows*cols),
		Bounds: b,
	}
}

// At returns the value at row r, column c.
func (g *Raster) At(r, c int) float64 {
	return g.Data[r*g.Cols+c]
}

// Set stores v at row r, column c.
func (g *Raster) Set(r, c int, v float64) {
	g.Data[r*g.Cols+c] = v
}

// Dims returns the number of columns and rows.
func (g *Raster) Dims() (c, r int) {
	return g.Cols, g.Rows
}

// Z is At with column-first arguments.
func (g *Raster) Z(c, r int) float64 {
	return g.At(r, c)
}

// X returns the longitude of column c.
func (g *Raster) X(c int) float64 {
	return g.Bounds.XMin + float64(c)*g.DX()
}

// Y returns the latitude of row r.
func (g *Raster) Y(r int) float64 {
	return g.Bounds.YMax - float64(r)*g.DY()
}

// DX is the column spacing in degrees. A single-column raster has no spacing.
func (g *Raster) DX() float64 {
	if g.Cols < 2 {
		return 0
	}
	return (g.Bounds.XMax - g.Bounds.XMin) / float64(g.Cols-1)
}

// DY is the row spacing in degrees.
func (g *Raster) DY() float64 {
	if g.Rows < 2 {
		return 0
	}
	return (g.Bounds.YMax - g.Bounds.YMin) / float64(g.Rows-1)
}

// Clone returns a deep copy.
func (g *Raster) Clone() *Raster {
	out := &Raster{Rows: g.Rows, Cols: g.Cols, Bounds: g.Bounds, Data: make([]float64, len(g.Data))}
	copy(out.Data, g.Data)
	return out
}

// Scaled returns a copy with every value multiplied by c.
func (g *Raster) Scaled(c float64) *Raster {
	out := g.Clone()
	floats.Scale(c, out.Data)
	return out
}

// Range returns the minimum and maximum value.
func (g *Raster) Range() (lo, hi float64) {
	return floats.Min(g.Data), floats.Max(g.Data)
}

// Validate reports whether the raster is non-empty, consistent with its
// bounds and free of non-finite values.
func (g *Raster) Validate() error {
	if g == nil {
		return fmt.Errorf("%w: nil raster", ErrInvalidRaster)
	}
	if g.Rows < 2 || g.Cols < 2 {
		return fmt.Errorf("%w: need at least 2x2 cells, got %dx%d", ErrInvalidRaster, g.Rows, g.Cols)
	}
	if len(g.Data) != g.Rows*g.Cols {
		return fmt.Errorf("%w: %d values for %dx%d grid", ErrInvalidRaster, len(g.Data), g.Rows, g.Cols)
	}
	b := g.Bounds
	if !(b.XMax > b.XMin) || !(b.YMax > b.YMin) {
		return fmt.Errorf("%w: degenerate bounds %+v", ErrInvalidRaster, b)
	}
	if b.YMin < -90 || b.YMax > 90 {
		return fmt.Errorf("%w: latitude outside [-90, 90]", ErrInvalidRaster)
	}
	for i, v := range g.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value at row %d col %d", ErrInvalidRaster, i/g.Cols, i%g.Cols)
		}
	}
	return nil
}
