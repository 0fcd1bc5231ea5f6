package relief

import (
	"math"

	"github.com/gogpu/gg"

	"github.com/couchcryptid/geohazard-map-service/internal/raster"
)

// flatRange is the intensity spread below which a surface counts as flat and
// is not stretched.
const flatRange = 1e-6

// LightSource is a light at infinity. Azimuth is degrees clockwise from north,
// Altitude degrees above the horizon.
type LightSource struct {
	Azimuth  float64
	Altitude float64
}

func (ls LightSource) direction() (x, y, z float64) {
	az := (90 - ls.Azimuth) * math.Pi / 180
	alt := ls.Altitude * math.Pi / 180
	return math.Cos(az) * math.Cos(alt), math.Sin(az) * math.Cos(alt), math.Sin(alt)
}

// Hillshade returns per-cell illumination in [0, 1] for a height raster.
// Gradients use the raster's cell spacing; x grows east and y grows north.
// Intensities are stretched to the full [0, 1] range unless the surface is flat.
func (ls LightSource) Hillshade(z *raster.Raster) []float64 {
	lx, ly, lz := ls.direction()
	dx, dy := z.DX(), z.DY()
	out := make([]float64, len(z.Data))

	lo, hi := math.Inf(1), math.Inf(-1)
	for r := 0; r < z.Rows; r++ {
		for c := 0; c < z.Cols; c++ {
			gx := gradient(z, r, c, 0, 1) / dx
			// Row index grows southward.
			gy := -gradient(z, r, c, 1, 0) / dy
			nx, ny, nz := -gx, -gy, 1.0
			norm := math.Sqrt(nx*nx + ny*ny + nz*nz)
			v := (nx*lx + ny*ly + nz*lz) / norm
			out[r*z.Cols+c] = v
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}

	stretch := hi-lo > flatRange
	for i, v := range out {
		if stretch {
			v = (v - lo) / (hi - lo)
		}
		out[i] = math.Min(math.Max(v, 0), 1)
	}
	return out
}

// gradient is the per-index difference along (dr, dc): central in the
// interior, one-sided at the edges.
func gradient(z *raster.Raster, r, c, dr, dc int) float64 {
	n := z.Cols
	if dr != 0 {
		n = z.Rows
	}
	i := r*dr + c*dc
	switch {
	case n < 2:
		return 0
	case i == 0:
		return z.At(r+dr, c+dc) - z.At(r, c)
	case i == n-1:
		return z.At(r, c) - z.At(r-dr, c-dc)
	default:
		return (z.At(r+dr, c+dc) - z.At(r-dr, c-dc)) / 2
	}
}

// Blend lights a base color with an intensity in [0, 1] by moving its HSV
// value toward white (lit) or black (shaded) and its saturation toward
// grey (lit) or full (shaded). Alpha is preserved.
func (ls LightSource) Blend(base gg.RGBA, intensity float64) gg.RGBA {
	k := 2*intensity - 1
	h, s, v := rgbToHSV(base.R, base.G, base.B)

	const maxSat, minSat, maxVal, minVal = 0.0, 1.0, 1.0, 0.0
	switch {
	case k > 0:
		if math.Abs(s) > 1e-10 {
			s = (1-k)*s + k*maxSat
		}
		v = (1-k)*v + k*maxVal
	case k < 0:
		if math.Abs(s) > 1e-10 {
			s = (1+k)*s - k*minSat
		}
		v = (1+k)*v - k*minVal
	}
	s = math.Min(math.Max(s, 0), 1)
	v = math.Min(math.Max(v, 0), 1)

	r, g, b := hsvToRGB(h, s, v)
	return gg.RGBA{R: r, G: g, B: b, A: base.A}
}

func rgbToHSV(r, g, b float64) (h, s, v float64) {
	hi := math.Max(r, math.Max(g, b))
	lo := math.Min(r, math.Min(g, b))
	v = hi
	delta := hi - lo
	if hi > 0 {
		s = delta / hi
	}
	if delta == 0 {
		return 0, s, v
	}
	switch hi {
	case r:
		h = (g - b) / delta
	case g:
		h = 2 + (b-r)/delta
	default:
		h = 4 + (r-g)/delta
	}
	h /= 6
	if h < 0 {
		h++
	}
	return h, s, v
}

func hsvToRGB(h, s, v float64) (r, g, b float64) {
	if s == 0 {
		return v, v, v
	}
	h6 := h * 6
	i := math.Floor(h6)
	f := h6 - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}
