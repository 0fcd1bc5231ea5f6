// Package plot defines the layers and scene handed to a rendering surface.
//
// Positions are in drawing-surface ("plane") units produced by a projector;
// pixel placement is the surface's concern.
package plot

import (
	"context"
	"io"

	"github.com/gogpu/gg"

	"github.com/couchcryptid/geohazard-map-service/internal/colormap"
)

// Extent is a rectangle in plane units.
type Extent struct {
	XMin float64
	XMax float64
	YMin float64
	YMax float64
}

// Width returns XMax - XMin.
func (e Extent) Width() float64 { return e.XMax - e.XMin }

// Height returns YMax - YMin.
func (e Extent) Height() float64 { return e.YMax - e.YMin }

// Origin tells the surface which extent edge row 0 of a layer belongs to.
type Origin int

const (
	// OriginUpper places row 0 at Extent.YMax.
	OriginUpper Origin = iota
	// OriginLower places row 0 at Extent.YMin.
	OriginLower
)

// Layer is an RGBA raster in [0, 1] with its placement and blend alpha.
// Pix holds Rows*Cols*4 values, row-major.
type Layer struct {
	Name   string
	Rows   int
	Cols   int
	Pix    []float64
	Extent Extent
	Alpha  float64
	Origin Origin

	// Ramp, VMin and VMax describe the value-to-color mapping for a legend.
	Ramp *colormap.Ramp
	VMin float64
	VMax float64
}

// NewLayer allocates a transparent layer.
func NewLayer(name string, rows, cols int) Layer {
	return Layer{
		Name:  name,
		Rows:  rows,
		Cols:  cols,
		Pix:   make([]float64, rows*cols*4),
		Alpha: 1,
	}
}

// At returns the pixel at row r, column c.
func (l *Layer) At(r, c int) gg.RGBA {
	i := (r*l.Cols + c) * 4
	return gg.RGBA{R: l.Pix[i], G: l.Pix[i+1], B: l.Pix[i+2], A: l.Pix[i+3]}
}

// Set stores a pixel at row r, column c.
func (l *Layer) Set(r, c int, col gg.RGBA) {
	i := (r*l.Cols + c) * 4
	l.Pix[i] = col.R
	l.Pix[i+1] = col.G
	l.Pix[i+2] = col.B
	l.Pix[i+3] = col.A
}

// EffectiveAlpha is the opacity a pixel is composited with: its own alpha
// times the layer's blend alpha.
func (l *Layer) EffectiveAlpha(r, c int) float64 {
	return l.Pix[(r*l.Cols+c)*4+3] * l.Alpha
}

// FlipRows reverses the row order in place.
func (l *Layer) FlipRows() {
	stride := l.Cols * 4
	tmp := make([]float64, stride)
	for top, bottom := 0, l.Rows-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := l.Pix[top*stride : (top+1)*stride]
		b := l.Pix[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}

// Tick is a gridline position in plane units with its label.
type Tick struct {
	Pos   float64
	Label string
}

// Colorbar is a legend for one layer's ramp.
type Colorbar struct {
	Title string
	Ramp  *colormap.Ramp
	VMin  float64
	VMax  float64
	// Left places the bar on the left edge of the map instead of the right.
	Left bool
}

// Watermark is large translucent text centered at a plane position and
// rotated counterclockwise by Angle degrees.
type Watermark struct {
	Text  string
	X     float64
	Y     float64
	Angle float64
	Color gg.RGBA
}

// Scene is everything a surface needs to draw one map.
type Scene struct {
	// Frame is the map's plane extent; layers and ticks are placed within it.
	Frame      Extent
	Background gg.RGBA
	Layers     []Layer
	XTicks     []Tick
	YTicks     []Tick
	Title      string
	Colorbars  []Colorbar
	Watermark  *Watermark
}

// Surface draws a scene and encodes the result to w.
type Surface interface {
	Render(ctx context.Context, scene Scene, w io.Writer) error
}
