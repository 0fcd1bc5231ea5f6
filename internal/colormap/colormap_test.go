package colormap

import (
	"math"
	"testing"

	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
)

func assertColor(t *testing.T, want, got gg.RGBA) {
	t.Helper()
	assert.InDelta(t, want.R, got.R, 1e-9, "R")
	assert.InDelta(t, want.G, got.G, 1e-9, "G")
	assert.InDelta(t, want.B, got.B, 1e-9, "B")
	assert.InDelta(t, want.A, got.A, 1e-9, "A")
}

func TestRamp_At(t *testing.T) {
	tests := []struct {
		name string
		ramp *Ramp
		t    float64
		want gg.RGBA
	}{
		{"binary low", Binary(), 0, gg.RGB(1, 1, 1)},
		{"binary mid", Binary(), 0.5, gg.RGB(0.5, 0.5, 0.5)},
		{"binary high", Binary(), 1, gg.RGB(0, 0, 0)},
		{"autumn_r low", AutumnR(), 0, gg.RGB(1, 1, 0)},
		{"autumn_r high", AutumnR(), 1, gg.RGB(1, 0, 0)},
		{"cool mid", Cool(), 0.25, gg.RGB(0.25, 0.75, 1)},
		{"clamped below", Cool(), -3, gg.RGB(0, 1, 1)},
		{"clamped above", Cool(), 7, gg.RGB(1, 0, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertColor(t, tt.want, tt.ramp.At(tt.t))
		})
	}
}

func TestRamp_NaNIsMasked(t *testing.T) {
	got := AutumnR().At(math.NaN())
	assert.Equal(t, 0.0, got.A)
}

func TestRamp_ConstructorsAreIndependent(t *testing.T) {
	a := Cool()
	b := Cool()
	a.Stops[0].Color = gg.RGB(0, 0, 0)
	a.BadAlpha = 1

	assertColor(t, gg.RGB(0, 1, 1), b.At(0))
	assert.Equal(t, 0.0, b.BadAlpha)
}

func TestRamp_WithBadCopies(t *testing.T) {
	base := Binary()
	masked := base.WithBad(gg.RGB(0.47, 0.6, 0.81), 1)
	masked.Stops[0].Color = gg.RGB(0, 0, 0)

	assertColor(t, gg.RGB(1, 1, 1), base.At(0))
	assertColor(t, gg.RGB(0.47, 0.6, 0.81), masked.Masked())
	assert.Equal(t, 0.0, base.BadAlpha)
}

func TestNormalize(t *testing.T) {
	assert.InDelta(t, 0.0, Normalize(2, 2, 20), 1e-12)
	assert.InDelta(t, 0.5, Normalize(11, 2, 20), 1e-12)
	assert.InDelta(t, 1.0, Normalize(40, 2, 20), 1e-12)
	assert.InDelta(t, 0.0, Normalize(-1, 2, 20), 1e-12)
	assert.Equal(t, 0.0, Normalize(5, 3, 3))
}
