package plot

import (
	"testing"

	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
)

func TestLayer_SetAt(t *testing.T) {
	l := NewLayer("test", 2, 3)
	l.Set(1, 2, gg.RGBA{R: 0.1, G: 0.2, B: 0.3, A: 0.4})

	assert.Equal(t, gg.RGBA{R: 0.1, G: 0.2, B: 0.3, A: 0.4}, l.At(1, 2))
	assert.Equal(t, gg.RGBA{}, l.At(0, 0))
	assert.Len(t, l.Pix, 24)
}

func TestLayer_EffectiveAlpha(t *testing.T) {
	l := NewLayer("test", 1, 2)
	l.Alpha = 0.7
	l.Set(0, 0, gg.RGB(1, 0, 0))

	assert.InDelta(t, 0.7, l.EffectiveAlpha(0, 0), 1e-12)
	assert.Equal(t, 0.0, l.EffectiveAlpha(0, 1))
}

func TestLayer_FlipRows(t *testing.T) {
	l := NewLayer("test", 3, 1)
	l.Set(0, 0, gg.RGB(1, 0, 0))
	l.Set(1, 0, gg.RGB(0, 1, 0))
	l.Set(2, 0, gg.RGB(0, 0, 1))

	l.FlipRows()

	assert.Equal(t, gg.RGB(0, 0, 1), l.At(0, 0))
	assert.Equal(t, gg.RGB(0, 1, 0), l.At(1, 0))
	assert.Equal(t, gg.RGB(1, 0, 0), l.At(2, 0))
}

func TestExtent_Size(t *testing.T) {
	e := Extent{XMin: -5, XMax: 15, YMin: 2, YMax: 3}
	assert.Equal(t, 20.0, e.Width())
	assert.Equal(t, 1.0, e.Height())
}
