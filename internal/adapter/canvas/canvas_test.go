package canvas

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"testing"

	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geohazard-map-service/internal/colormap"
	"github.com/couchcryptid/geohazard-map-service/internal/plot"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSurface(t *testing.T) *Surface {
	t.Helper()
	s, err := New(600, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewLayout(t *testing.T) {
	lay, err := newLayout(600, plot.Extent{XMin: 0, XMax: 1000, YMin: 0, YMax: 500})
	require.NoError(t, err)

	assert.Equal(t, 320.0, lay.mapW)
	assert.Equal(t, 160.0, lay.mapH)
	assert.Equal(t, 600, lay.width)
	assert.Equal(t, 160+marginTop+marginBottom, lay.height)

	x, y := lay.toPixel(0, 500)
	assert.Equal(t, float64(marginSide), x)
	assert.Equal(t, float64(marginTop), y)

	x, y = lay.toPixel(1000, 0)
	assert.Equal(t, float64(marginSide)+320, x)
	assert.Equal(t, float64(marginTop)+160, y)
}

func TestNewLayout_DegenerateFrame(t *testing.T) {
	_, err := newLayout(600, plot.Extent{XMin: 1, XMax: 1, YMin: 0, YMax: 1})
	require.Error(t, err)
}

func TestNew_TooNarrow(t *testing.T) {
	_, err := New(100, discardLogger())
	require.Error(t, err)
}

func TestLayerImage_Origin(t *testing.T) {
	l := plot.NewLayer("test", 2, 1)
	l.Set(0, 0, gg.RGB(1, 0, 0))
	l.Set(1, 0, gg.RGB(0, 0, 1))

	upper := layerImage(l)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, upper.NRGBAAt(0, 0))

	l.Origin = plot.OriginLower
	lower := layerImage(l)
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, lower.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, lower.NRGBAAt(0, 1))
}

func TestRender_PNG(t *testing.T) {
	frame := plot.Extent{XMin: 0, XMax: 100, YMin: 0, YMax: 100}
	water := gg.RGB(0.47, 0.60, 0.81)

	// Opaque red layer over the western half only.
	red := plot.NewLayer("red", 2, 2)
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			red.Set(r, c, gg.RGB(1, 0, 0))
		}
	}
	red.Extent = plot.Extent{XMin: 0, XMax: 50, YMin: 0, YMax: 100}

	scene := plot.Scene{
		Frame:      frame,
		Background: water,
		Layers:     []plot.Layer{red},
		XTicks:     []plot.Tick{{Pos: 50, Label: "121.50° W"}},
		YTicks:     []plot.Tick{{Pos: 50, Label: "37.50° N"}},
		Title:      "M6.0 Aug 24 2014\n South Napa, California",
		Colorbars: []plot.Colorbar{
			{Title: "Landslide\nProbability", Ramp: colormap.Cool(), VMin: 2, VMax: 20, Left: true},
			{Title: "Liquefaction\nProbability", Ramp: colormap.AutumnR(), VMin: 2, VMax: 20},
		},
		Watermark: &plot.Watermark{Text: "SCENARIO", X: 50, Y: 50, Angle: 45, Color: gg.RGBA{R: 1, A: 0.1}},
	}

	var buf bytes.Buffer
	require.NoError(t, newSurface(t).Render(context.Background(), scene, &buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 600, img.Bounds().Dx())
	assert.Equal(t, 320+marginTop+marginBottom, img.Bounds().Dy())

	// Corner outside the map stays white.
	r, g, b, _ := img.At(2, 2).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, g, b})

	// A point in the eastern quarter, away from ticks and text, shows water.
	lay, err := newLayout(600, frame)
	require.NoError(t, err)
	px, py := lay.toPixel(90, 20)
	r, g, b, _ = img.At(int(px), int(py)).RGBA()
	assert.InDelta(t, 0.47, float64(r)/0xffff, 0.02)
	assert.InDelta(t, 0.60, float64(g)/0xffff, 0.02)
	assert.InDelta(t, 0.81, float64(b)/0xffff, 0.02)

	// The red layer covers the west.
	px, py = lay.toPixel(25, 80)
	r, g, b, _ = img.At(int(px), int(py)).RGBA()
	assert.Greater(t, r, uint32(0xf000))
	assert.Less(t, g, uint32(0x1000))
	assert.Less(t, b, uint32(0x1000))
}

func TestRender_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scene := plot.Scene{
		Frame:  plot.Extent{XMax: 1, YMax: 1},
		Layers: []plot.Layer{plot.NewLayer("x", 1, 1)},
	}
	err := newSurface(t).Render(ctx, scene, io.Discard)
	require.ErrorIs(t, err, context.Canceled)
}
