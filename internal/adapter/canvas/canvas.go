// Package canvas draws map scenes with github.com/gogpu/gg and encodes them
// as PNG.
package canvas

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/couchcryptid/geohazard-map-service/internal/gridlines"
	"github.com/couchcryptid/geohazard-map-service/internal/plot"
)

// Font sizes in points.
const (
	tickFontSize      = 9
	titleFontSize     = 16
	colorbarFontSize  = 10
	watermarkFontSize = 72
)

// Surface renders plot scenes to PNG. It implements plot.Surface and is
// safe for concurrent use; every Render call draws on its own context.
type Surface struct {
	width  int
	font   *text.FontSource
	logger *slog.Logger
}

// New creates a Surface producing images width pixels wide. The height
// follows the aspect ratio of each scene's frame.
func New(width int, logger *slog.Logger) (*Surface, error) {
	if width <= 2*(marginSide+colorbarGap) {
		return nil, fmt.Errorf("canvas width %d too small", width)
	}
	font, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	return &Surface{width: width, font: font, logger: logger}, nil
}

// Close releases the font.
func (s *Surface) Close() error {
	return s.font.Close()
}

// Render draws scene and writes the PNG to w.
func (s *Surface) Render(ctx context.Context, scene plot.Scene, w io.Writer) error {
	lay, err := newLayout(s.width, scene.Frame)
	if err != nil {
		return err
	}

	dc := gg.NewContext(lay.width, lay.height)
	defer dc.Close()

	dc.ClearWithColor(gg.RGB(1, 1, 1))
	if err := s.fillRect(dc, lay.left, lay.top, lay.mapW, lay.mapH, scene.Background); err != nil {
		return err
	}

	dc.ClipRect(lay.left, lay.top, lay.mapW, lay.mapH)
	for _, l := range scene.Layers {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.drawLayer(dc, lay, l)
	}
	dc.ResetClip()

	if err := s.drawTicks(dc, lay, scene.XTicks, scene.YTicks); err != nil {
		return err
	}
	for _, cb := range scene.Colorbars {
		if err := s.drawColorbar(dc, lay, cb); err != nil {
			return err
		}
	}
	s.drawTitle(dc, lay, scene.Title)
	if scene.Watermark != nil {
		s.drawWatermark(dc, lay, *scene.Watermark)
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	s.logger.Debug("scene rendered", "width", lay.width, "height", lay.height, "layers", len(scene.Layers))
	return nil
}

func (s *Surface) drawLayer(dc *gg.Context, lay layout, l plot.Layer) {
	if l.Alpha <= 0 || l.Rows == 0 || l.Cols == 0 {
		return
	}
	x0, y0 := lay.toPixel(l.Extent.XMin, l.Extent.YMax)
	x1, y1 := lay.toPixel(l.Extent.XMax, l.Extent.YMin)

	dc.DrawImageEx(gg.ImageBufFromImage(layerImage(l)), gg.DrawImageOptions{
		X:             x0,
		Y:             y0,
		DstWidth:      x1 - x0,
		DstHeight:     y1 - y0,
		Interpolation: gg.InterpBilinear,
		Opacity:       l.Alpha,
		BlendMode:     gg.BlendNormal,
	})
}

// layerImage converts a layer to an image with row 0 at the top.
func layerImage(l plot.Layer) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, l.Cols, l.Rows))
	for r := 0; r < l.Rows; r++ {
		y := r
		if l.Origin == plot.OriginLower {
			y = l.Rows - 1 - r
		}
		for c := 0; c < l.Cols; c++ {
			img.SetNRGBA(c, y, l.At(r, c).Color().(color.NRGBA))
		}
	}
	return img
}

func (s *Surface) drawTicks(dc *gg.Context, lay layout, xticks, yticks []plot.Tick) error {
	const tickLen = 6
	dc.SetFont(s.font.Face(tickFontSize))
	dc.SetRGB(1, 1, 1)
	dc.SetLineWidth(1)

	bottom, right := lay.top+lay.mapH, lay.left+lay.mapW
	for _, t := range xticks {
		x, _ := lay.toPixel(t.Pos, lay.frame.YMin)
		if x < lay.left || x > right {
			continue
		}
		dc.DrawLine(x, bottom, x, bottom-tickLen)
		dc.DrawLine(x, lay.top, x, lay.top+tickLen)
		dc.DrawStringAnchored(t.Label, x, bottom-tickLen-2, 0.5, 0)
	}
	for _, t := range yticks {
		_, y := lay.toPixel(lay.frame.XMin, t.Pos)
		if y < lay.top || y > bottom {
			continue
		}
		dc.DrawLine(lay.left, y, lay.left+tickLen, y)
		dc.DrawLine(right, y, right-tickLen, y)
		dc.DrawStringAnchored(t.Label, lay.left+tickLen+2, y, 0, 0.5)
	}
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("stroke ticks: %w", err)
	}
	return nil
}

func (s *Surface) drawColorbar(dc *gg.Context, lay layout, cb plot.Colorbar) error {
	if cb.Ramp == nil {
		return nil
	}
	x := lay.left + lay.mapW + colorbarGap
	labelX, anchor := x+colorbarWidth+4, 0.0
	if cb.Left {
		x = lay.left - colorbarGap - colorbarWidth
		labelX, anchor = x-4, 1.0
	}
	top, bottom := lay.top, lay.top+lay.mapH

	brush := gg.NewLinearGradientBrush(x, bottom, x, top)
	for _, stop := range cb.Ramp.Stops {
		brush.AddColorStop(stop.Offset, stop.Color)
	}
	dc.SetFillBrush(brush)
	dc.DrawRectangle(x, top, colorbarWidth, lay.mapH)
	if err := dc.Fill(); err != nil {
		return fmt.Errorf("fill colorbar: %w", err)
	}

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x, top, colorbarWidth, lay.mapH)
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("stroke colorbar: %w", err)
	}

	dc.SetFont(s.font.Face(colorbarFontSize))
	if vals, err := gridlines.Values(cb.VMin, cb.VMax); err == nil {
		for _, v := range vals {
			y := bottom - (v-cb.VMin)/(cb.VMax-cb.VMin)*lay.mapH
			dc.DrawStringAnchored(fmt.Sprintf("%g%%", v), labelX, y, anchor, 0.5)
		}
	}

	lines := strings.Split(cb.Title, "\n")
	_, lh := dc.MeasureString("M")
	for i, line := range lines {
		y := top - float64(len(lines)-i)*lh
		dc.DrawStringAnchored(line, x+colorbarWidth/2, y, 0.5, 0)
	}
	return nil
}

func (s *Surface) drawTitle(dc *gg.Context, lay layout, title string) {
	if title == "" {
		return
	}
	dc.SetFont(s.font.Face(titleFontSize))
	dc.SetRGB(0, 0, 0)
	lines := strings.Split(title, "\n")
	_, lh := dc.MeasureString("M")
	cx := lay.left + lay.mapW/2
	for i, line := range lines {
		y := lay.top - colorbarTitleSpace - float64(len(lines)-1-i)*lh
		dc.DrawStringAnchored(strings.TrimSpace(line), cx, y, 0.5, 0)
	}
}

// drawWatermark centers the rotated text on the watermark position.
func (s *Surface) drawWatermark(dc *gg.Context, lay layout, wm plot.Watermark) {
	dc.SetFont(s.font.Face(watermarkFontSize))
	dc.SetRGBA(wm.Color.R, wm.Color.G, wm.Color.B, wm.Color.A)
	x, y := lay.toPixel(wm.X, wm.Y)
	dc.Push()
	defer dc.Pop()
	// Pixel rows grow downward, so a counterclockwise turn is a negative angle.
	dc.RotateAbout(-wm.Angle*math.Pi/180, x, y)
	dc.DrawStringAnchored(wm.Text, x, y, 0.5, 0.5)
}

func (s *Surface) fillRect(dc *gg.Context, x, y, w, h float64, c gg.RGBA) error {
	dc.SetRGBA(c.R, c.G, c.B, c.A)
	dc.DrawRectangle(x, y, w, h)
	if err := dc.Fill(); err != nil {
		return fmt.Errorf("fill rectangle: %w", err)
	}
	return nil
}

// Layout in pixels.
const (
	marginSide         = 140
	marginBottom       = 30
	colorbarTitleSpace = 44
	marginTop          = colorbarTitleSpace + 60
	colorbarGap        = 55
	colorbarWidth      = 22
)

// layout maps plane coordinates to pixels for one frame.
type layout struct {
	frame         plot.Extent
	width, height int
	left, top     float64
	mapW, mapH    float64
}

func newLayout(width int, frame plot.Extent) (layout, error) {
	if !(frame.Width() > 0) || !(frame.Height() > 0) {
		return layout{}, fmt.Errorf("degenerate frame %+v", frame)
	}
	mapW := float64(width - 2*marginSide)
	mapH := math.Round(mapW * frame.Height() / frame.Width())
	if mapH < 1 {
		mapH = 1
	}
	return layout{
		frame:  frame,
		width:  width,
		height: int(mapH) + marginTop + marginBottom,
		left:   marginSide,
		top:    marginTop,
		mapW:   mapW,
		mapH:   mapH,
	}, nil
}

func (l layout) toPixel(x, y float64) (px, py float64) {
	px = l.left + (x-l.frame.XMin)/l.frame.Width()*l.mapW
	py = l.top + (l.frame.YMax-y)/l.frame.Height()*l.mapH
	return px, py
}
