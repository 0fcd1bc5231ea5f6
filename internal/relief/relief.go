// Package relief renders an elevation raster as an illuminated shaded-relief
// basemap with water painted a flat color.
package relief

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/gogpu/gg"

	"github.com/couchcryptid/geohazard-map-service/internal/colormap"
	"github.com/couchcryptid/geohazard-map-service/internal/plot"
	"github.com/couchcryptid/geohazard-map-service/internal/raster"
)

// ErrUnsupportedLatitude is returned when a raster's center latitude has no
// calibrated exaggeration factor.
var ErrUnsupportedLatitude = errors.New("unsupported latitude")

// WaterColor is painted over every cell with negative elevation.
var WaterColor = gg.RGB(0.47, 0.60, 0.81)

// LayerName identifies relief layers.
const LayerName = "relief"

// bucket is one row of the exaggeration table: latitudes that round to Lat
// (in 10 degree steps, absolute value) use Factor.
type bucket struct {
	Lat    float64
	Factor float64
}

// exaggeration converts meters to degree-scaled heights. It grows toward the
// poles where a degree of longitude covers less ground.
var exaggeration = [...]bucket{
	{Lat: 0, Factor: 0.00000898},
	{Lat: 10, Factor: 0.00000912},
	{Lat: 20, Factor: 0.00000956},
	{Lat: 30, Factor: 0.00001036},
	{Lat: 40, Factor: 0.00001171},
	{Lat: 50, Factor: 0.00001395},
	{Lat: 60, Factor: 0.00001792},
	{Lat: 70, Factor: 0.00002619},
	{Lat: 80, Factor: 0.00005156},
}

// ExaggerationFactor returns the vertical exaggeration for a latitude.
// Latitudes are bucketed to the nearest 10 degrees (halves away from zero)
// and folded into the northern hemisphere; buckets beyond 80 are an error.
func ExaggerationFactor(lat float64) (float64, error) {
	if math.IsNaN(lat) {
		return 0, fmt.Errorf("%w: NaN", ErrUnsupportedLatitude)
	}
	key := math.Abs(math.Round(lat/10) * 10)
	i := sort.Search(len(exaggeration), func(i int) bool { return exaggeration[i].Lat >= key })
	if i == len(exaggeration) || exaggeration[i].Lat != key {
		return 0, fmt.Errorf("%w: %.4f rounds to %.0f, table covers 0-80", ErrUnsupportedLatitude, lat, key)
	}
	return exaggeration[i].Factor, nil
}

// Renderer shades elevation rasters.
type Renderer struct {
	Light LightSource
	Water gg.RGBA
}

// New returns a Renderer lit from the east (azimuth 90) at 20 degrees altitude.
func New() *Renderer {
	return &Renderer{
		Light: LightSource{Azimuth: 90, Altitude: 20},
		Water: WaterColor,
	}
}

// Render shades elev and returns the layer (rows flipped, OriginLower) and
// the ramp used for the land colors. The layer's extent is left for the
// caller to project.
func (r *Renderer) Render(elev *raster.Raster) (plot.Layer, *colormap.Ramp, error) {
	factor, err := ExaggerationFactor(elev.Bounds.CenterLat())
	if err != nil {
		return plot.Layer{}, nil, err
	}

	ramp := colormap.Binary()
	scaled := elev.Scaled(factor)
	intensity := r.Light.Hillshade(scaled)
	lo, hi := scaled.Range()

	layer := plot.NewLayer(LayerName, elev.Rows, elev.Cols)
	for row := 0; row < elev.Rows; row++ {
		for col := 0; col < elev.Cols; col++ {
			i := row*elev.Cols + col
			if elev.Data[i] < 0 {
				layer.Set(row, col, r.Water)
				continue
			}
			base := ramp.At(colormap.Normalize(scaled.Data[i], lo, hi))
			layer.Set(row, col, r.Light.Blend(base, intensity[i]))
		}
	}

	layer.FlipRows()
	layer.Origin = plot.OriginLower
	layer.Alpha = 1
	layer.Ramp = ramp
	layer.VMin, layer.VMax = lo/factor, hi/factor
	return layer, ramp, nil
}
