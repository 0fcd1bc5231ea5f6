// Package colormap maps normalized scalar values to colors.
//
// A Ramp is a small value object: its stops, the color drawn for masked
// cells and that color's alpha. Constructors return a fresh Ramp on every
// call so two layers never share (or mutate) the same palette.
package colormap

import (
	"math"

	"github.com/gogpu/gg"
)

// Ramp is an ordered set of color stops over [0, 1] plus a designated
// color for masked ("bad") cells.
type Ramp struct {
	Name     string
	Stops    []gg.ColorStop
	Bad      gg.RGBA
	BadAlpha float64
}

// Transparent is the masked color used by hazard ramps.
var Transparent = gg.RGBA{}

// At returns the color at t. Values outside [0, 1] are clamped; NaN yields
// the bad color.
func (r *Ramp) At(t float64) gg.RGBA {
	if math.IsNaN(t) {
		return r.Masked()
	}
	t = math.Min(math.Max(t, 0), 1)
	stops := r.Stops
	if len(stops) == 0 {
		return r.Masked()
	}
	if t <= stops[0].Offset {
		return stops[0].Color
	}
	for i := 1; i < len(stops); i++ {
		hi := stops[i]
		if t > hi.Offset {
			continue
		}
		lo := stops[i-1]
		span := hi.Offset - lo.Offset
		if span <= 0 {
			return hi.Color
		}
		return lo.Color.Lerp(hi.Color, (t-lo.Offset)/span)
	}
	return stops[len(stops)-1].Color
}

// Masked returns the bad color with BadAlpha applied.
func (r *Ramp) Masked() gg.RGBA {
	c := r.Bad
	c.A = r.BadAlpha
	return c
}

// WithBad returns a copy of r whose masked cells use c at alpha a.
func (r *Ramp) WithBad(c gg.RGBA, a float64) *Ramp {
	cp := *r
	cp.Stops = append([]gg.ColorStop(nil), r.Stops...)
	cp.Bad = c
	cp.BadAlpha = a
	return &cp
}

// Normalize maps v linearly from [vmin, vmax] to [0, 1], clamping.
func Normalize(v, vmin, vmax float64) float64 {
	if vmax <= vmin {
		return 0
	}
	return math.Min(math.Max((v-vmin)/(vmax-vmin), 0), 1)
}

// Binary runs from white at 0 to black at 1.
func Binary() *Ramp {
	return &Ramp{
		Name: "binary",
		Stops: []gg.ColorStop{
			{Offset: 0, Color: gg.RGB(1, 1, 1)},
			{Offset: 1, Color: gg.RGB(0, 0, 0)},
		},
		Bad:      gg.RGB(0, 0, 0),
		BadAlpha: 0,
	}
}

// AutumnR runs from yellow at 0 to red at 1.
func AutumnR() *Ramp {
	return &Ramp{
		Name: "autumn_r",
		Stops: []gg.ColorStop{
			{Offset: 0, Color: gg.RGB(1, 1, 0)},
			{Offset: 1, Color: gg.RGB(1, 0, 0)},
		},
		Bad:      Transparent,
		BadAlpha: 0,
	}
}

// Cool runs from cyan at 0 to magenta at 1.
func Cool() *Ramp {
	return &Ramp{
		Name: "cool",
		Stops: []gg.ColorStop{
			{Offset: 0, Color: gg.RGB(0, 1, 1)},
			{Offset: 1, Color: gg.RGB(1, 0, 1)},
		},
		Bad:      Transparent,
		BadAlpha: 0,
	}
}
