// Package gridlines picks evenly spaced, round-numbered coordinate gridlines
// for an arbitrary degree range and formats them as hemisphere labels.
package gridlines

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRange is returned when dmax is not strictly greater than dmin.
var ErrInvalidRange = errors.New("invalid gridline range")

// nLines is the number of intervals the range is divided into before rounding.
const nLines = 4

// quotientSnap treats quotients this close to an integer as that integer, so
// 0.3/0.1 ceils to 3 rather than 4.
const quotientSnap = 1e-9

// relativeSnap covers the representation error of large coordinates relative
// to tiny spans.
const relativeSnap = 1e-12

// maxRefinements bounds the power-of-ten refinement for very narrow ranges.
const maxRefinements = 32

// Tick is one gridline value and its label.
type Tick struct {
	Value float64
	Label string
}

// Set is an ascending sequence of gridlines.
type Set []Tick

// Values returns the gridline values in order.
func (s Set) Values() []float64 {
	out := make([]float64, len(s))
	for i, t := range s {
		out[i] = t.Value
	}
	return out
}

// Labels returns the gridline labels in order.
func (s Set) Labels() []string {
	out := make([]string, len(s))
	for i, t := range s {
		out[i] = t.Label
	}
	return out
}

// Formatter renders a gridline value as a label.
type Formatter func(float64) string

// Generate computes gridlines for [dmin, dmax] and labels them with format.
func Generate(dmin, dmax float64, format Formatter) (Set, error) {
	vals, err := Values(dmin, dmax)
	if err != nil {
		return nil, err
	}
	set := make(Set, len(vals))
	for i, v := range vals {
		set[i] = Tick{Value: v, Label: format(v)}
	}
	return set, nil
}

// Meridians returns longitude gridlines labeled E/W.
func Meridians(xmin, xmax float64) (Set, error) {
	return Generate(xmin, xmax, LonLabel)
}

// Parallels returns latitude gridlines labeled N/S.
func Parallels(ymin, ymax float64) (Set, error) {
	return Generate(ymin, ymax, LatLabel)
}

// Values returns ascending gridline values inside [dmin, dmax].
//
// The range is split into four intervals and the interval is rounded
// (half to even) to a granularity of 1, 0.25 or 0.125 depending on the span;
// bounds shrink inward to that granularity. When the interval rounds to zero
// the granularity becomes the power of ten nearest the span, the interval is
// rounded up to it and the bounds expand outward. Values that then fall
// outside [dmin, dmax] are dropped, refining the power of ten until at least
// two gridlines remain.
func Values(dmin, dmax float64) ([]float64, error) {
	if !isFinite(dmin) || !isFinite(dmax) || !(dmax > dmin) {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrInvalidRange, dmin, dmax)
	}
	span := dmax - dmin
	raw := span / nLines
	near := granularity(span)

	if inc := roundTo(raw, near); inc > 0 {
		return sequence(ceilTo(dmin, near), floorTo(dmax, near), inc, dmin, dmax), nil
	}

	near = math.Pow(10, math.RoundToEven(math.Log10(span)))
	for range maxRefinements {
		inc := ceilTo(raw, near)
		if vals := sequence(floorTo(dmin, near), ceilTo(dmax, near), inc, dmin, dmax); len(vals) > 1 {
			return vals, nil
		}
		near /= 10
	}
	return []float64{dmin}, nil
}

func granularity(span float64) float64 {
	switch {
	case span > 4:
		return 1
	case span >= 0.5:
		return 0.25
	default:
		return 0.125
	}
}

// sequence steps from lo to hi by inc and keeps the values inside
// [dmin, dmax]; values within rounding noise of an edge snap onto it.
func sequence(lo, hi, inc, dmin, dmax float64) []float64 {
	tol := math.Max((dmax-dmin)*quotientSnap, relativeSnap*math.Max(math.Abs(dmin), math.Abs(dmax)))
	n := int(math.Floor((hi-lo)/inc + quotientSnap))
	vals := make([]float64, 0, n+1)
	for k := 0; k <= n; k++ {
		v := lo + float64(k)*inc
		switch {
		case v < dmin-tol || v > dmax+tol:
			continue
		case v < dmin:
			v = dmin
		case v > dmax:
			v = dmax
		}
		vals = append(vals, v)
	}
	return vals
}

func quotient(v, near float64) float64 {
	q := v / near
	if r := math.RoundToEven(q); math.Abs(q-r) < quotientSnap+relativeSnap*math.Abs(q) {
		return r
	}
	return q
}

func roundTo(v, near float64) float64 { return math.RoundToEven(quotient(v, near)) * near }

func ceilTo(v, near float64) float64 { return math.Ceil(quotient(v, near)) * near }

func floorTo(v, near float64) float64 { return math.Floor(quotient(v, near)) * near }

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// LatLabel formats a latitude as "12.35° S" or "12.35° N".
func LatLabel(v float64) string {
	return hemisphere(v, "S", "N")
}

// LonLabel formats a longitude as "122.50° W" or "122.50° E".
func LonLabel(v float64) string {
	return hemisphere(v, "W", "E")
}

func hemisphere(v float64, neg, pos string) string {
	suffix := pos
	if v < 0 {
		suffix = neg
	}
	return fmt.Sprintf("%.2f° %s", math.Abs(v), suffix)
}
