// Package mockdata builds synthetic render requests: a coastal terrain with
// a bay on its western edge, liquefaction probability concentrated on the
// low ground around the bay and landslide probability on the steep slopes.
// The output is deterministic for a given seed.
package mockdata

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/couchcryptid/geohazard-map-service/internal/domain"
	"github.com/couchcryptid/geohazard-map-service/internal/raster"
)

// NapaBounds covers the 2014 South Napa earthquake region.
var NapaBounds = raster.Bounds{XMin: -122.6, XMax: -121.3, YMin: 37.9, YMax: 38.6}

// Options controls the generated grids.
type Options struct {
	ID        string
	Bounds    raster.Bounds
	Rows      int // topography rows; hazard grids use half the resolution
	Cols      int
	Seed      uint64
	Scenario  bool
	Magnitude float64
	Time      time.Time
	Location  string
}

// DefaultOptions returns a 60x100 request for the Napa region.
func DefaultOptions() Options {
	return Options{
		ID:        "nc72282711",
		Bounds:    NapaBounds,
		Rows:      60,
		Cols:      100,
		Seed:      20140824,
		Magnitude: 6.0,
		Time:      time.Date(2014, time.August, 24, 10, 20, 44, 0, time.UTC),
		Location:  "South Napa, California",
	}
}

// Request generates a render request.
func Request(o Options) domain.RenderRequest {
	rng := rand.New(rand.NewPCG(o.Seed, o.Seed^0x9e3779b97f4a7c15))
	topo := Terrain(o.Rows, o.Cols, o.Bounds, rng)

	hr, hc := max(o.Rows/2, 2), max(o.Cols/2, 2)
	return domain.RenderRequest{
		Event: domain.EventMetadata{
			ID:        o.ID,
			Magnitude: o.Magnitude,
			Time:      o.Time,
			Location:  o.Location,
			Lat:       o.Bounds.CenterLat(),
			Lon:       o.Bounds.CenterLon(),
			Scenario:  o.Scenario,
		},
		Topography:   topo,
		Liquefaction: Liquefaction(topo, hr, hc, rng),
		Landslide:    Landslide(topo, hr, hc, rng),
	}
}

// Terrain returns elevations in meters rising from a bay (negative values
// in the western fifth) to ridges in the east, with some noise.
func Terrain(rows, cols int, b raster.Bounds, rng *rand.Rand) *raster.Raster {
	g := raster.New(rows, cols, b)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			u := float64(c) / float64(max(cols-1, 1))
			v := float64(r) / float64(max(rows-1, 1))
			z := 900*u*u + 180*math.Sin(6*math.Pi*v)*u + 40*rng.NormFloat64()*u
			if u < 0.2 {
				z = -30 * (1 - u/0.2)
			}
			g.Set(r, c, math.Round(z))
		}
	}
	return g
}

// Liquefaction returns probabilities that are highest on low, flat ground
// just above sea level.
func Liquefaction(topo *raster.Raster, rows, cols int, rng *rand.Rand) *raster.Raster {
	return hazard(topo, rows, cols, rng, func(z, _ float64) float64 {
		if z < 0 {
			return 0.3
		}
		return 0.25 * math.Exp(-z/80)
	})
}

// Landslide returns probabilities that grow with local slope.
func Landslide(topo *raster.Raster, rows, cols int, rng *rand.Rand) *raster.Raster {
	return hazard(topo, rows, cols, rng, func(_, slope float64) float64 {
		return math.Min(0.3, slope/1500)
	})
}

func hazard(topo *raster.Raster, rows, cols int, rng *rand.Rand, f func(z, slope float64) float64) *raster.Raster {
	g := raster.New(rows, cols, topo.Bounds)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			tr := r * (topo.Rows - 1) / max(rows-1, 1)
			tc := c * (topo.Cols - 1) / max(cols-1, 1)
			p := f(topo.At(tr, tc), slope(topo, tr, tc)) * (0.8 + 0.4*rng.Float64())
			g.Set(r, c, math.Min(1, math.Max(0, p)))
		}
	}
	return g
}

// slope is the largest elevation step to a 4-neighbour.
func slope(g *raster.Raster, r, c int) float64 {
	z := g.At(r, c)
	var s float64
	for _, d := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		rr, cc := r+d[0], c+d[1]
		if rr < 0 || rr >= g.Rows || cc < 0 || cc >= g.Cols {
			continue
		}
		s = math.Max(s, math.Abs(g.At(rr, cc)-z))
	}
	return s
}
