// Package chart draws forecast series as PNG line charts.
package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/i474232898/forecast-analytics/internal/weather"
)

// Chart palette. Max and min lines follow the usual warm/cool convention.
var (
	ColorBackground = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	ColorGrid       = color.RGBA{R: 0xe3, G: 0xe3, B: 0xe3, A: 0xff}
	ColorAxis       = color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
	ColorText       = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
	ColorMax        = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	ColorMin        = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	ColorBand       = color.NRGBA{R: 0x94, G: 0x67, B: 0xbd, A: 0x48}
)

const (
	marginLeft   = 64
	marginRight  = 24
	marginTop    = 44
	marginBottom = 48

	lineWidth  = 3
	markerSize = 7

	maxTicks = 32
)

// Renderer draws the max and min temperature of each day against its date,
// with the band between the two lines shaded.
type Renderer struct {
	Width  int
	Height int
	Title  string
}

// NewRenderer returns a 960x540 renderer. An empty title falls back to a generic one.
func NewRenderer(title string) *Renderer {
	return &Renderer{Width: 960, Height: 540, Title: title}
}

// Render writes the chart as a PNG file at destination, replacing any existing file.
// The image goes to a temporary file in the same directory first and is then
// renamed over destination, so readers never see a partial PNG.
func (r *Renderer) Render(series weather.ForecastSeries, destination string) error {
	var buf bytes.Buffer
	if err := r.RenderTo(&buf, series); err != nil {
		return err
	}

	dir := filepath.Dir(destination)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: mkdir %s: %w", weather.ErrRender, dir, err)
		}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(destination)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", weather.ErrRender, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", weather.ErrRender, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", weather.ErrRender, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", weather.ErrRender, err)
	}
	if err := os.Rename(tmpName, destination); err != nil {
		return fmt.Errorf("%w: %w", weather.ErrRender, err)
	}
	return nil
}

// RenderTo encodes the chart as PNG into w.
func (r *Renderer) RenderTo(w io.Writer, series weather.ForecastSeries) error {
	img, err := r.Draw(series)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("%w: encode png: %w", weather.ErrRender, err)
	}
	return nil
}

// Draw rasterizes the chart.
func (r *Renderer) Draw(series weather.ForecastSeries) (*image.RGBA, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: %w", weather.ErrRender, weather.ErrEmptySeries)
	}
	if err := weather.ValidateSeries(series); err != nil {
		return nil, fmt.Errorf("%w: %w", weather.ErrRender, err)
	}

	w, h := r.Width, r.Height
	if w < marginLeft+marginRight+32 || h < marginTop+marginBottom+32 {
		return nil, fmt.Errorf("%w: canvas %dx%d is too small", weather.ErrRender, w, h)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(ColorBackground), image.Point{}, draw.Src)

	plot := image.Rect(marginLeft, marginTop, w-marginRight, h-marginBottom)
	sc, err := newScale(series, plot)
	if err != nil {
		return nil, err
	}

	r.drawGrid(img, plot, sc)

	maxPts := make([]point, len(series))
	minPts := make([]point, len(series))
	for i, d := range series {
		x := sc.x(i)
		maxPts[i] = point{x, sc.y(d.TemperatureMax)}
		minPts[i] = point{x, sc.y(d.TemperatureMin)}
	}

	fillBand(img, maxPts, minPts, ColorBand)
	strokePolyline(img, maxPts, lineWidth, ColorMax)
	strokePolyline(img, minPts, lineWidth, ColorMin)
	drawMarkers(img, maxPts, ColorMax)
	drawMarkers(img, minPts, ColorMin)

	r.drawDateLabels(img, plot, series, sc)
	r.drawTitleAndLegend(img, plot)

	return img, nil
}

type point struct{ X, Y float32 }

// scale maps day indexes and temperatures to pixel coordinates inside plot.
type scale struct {
	plot   image.Rectangle
	n      int
	lo, hi float64
	step   float64
}

// newScale fails when the temperature range cannot be resolved into distinct
// ticks, which happens at magnitudes where the padding is lost to rounding.
func newScale(series weather.ForecastSeries, plot image.Rectangle) (scale, error) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, d := range series {
		lo = math.Min(lo, math.Min(d.TemperatureMin, d.TemperatureMax))
		hi = math.Max(hi, math.Max(d.TemperatureMin, d.TemperatureMax))
	}

	pad := math.Max((hi-lo)*0.1, 1)
	lo, hi = lo-pad, hi+pad
	span := hi - lo
	if !(span > 0) || math.IsInf(span, 0) {
		return scale{}, fmt.Errorf("%w: temperature range [%g, %g] cannot be plotted", weather.ErrRender, lo, hi)
	}

	step := niceStep(span / 5)
	if lo+step == lo || hi+step == hi {
		return scale{}, fmt.Errorf("%w: temperature range [%g, %g] is too narrow for its magnitude", weather.ErrRender, lo, hi)
	}

	return scale{plot: plot, n: len(series), lo: lo, hi: hi, step: step}, nil
}

func (s scale) x(i int) float32 {
	left, width := float64(s.plot.Min.X), float64(s.plot.Dx())
	if s.n == 1 {
		return float32(left + width/2)
	}
	inset := width * 0.04
	return float32(left + inset + float64(i)*(width-2*inset)/float64(s.n-1))
}

func (s scale) y(v float64) float32 {
	frac := (v - s.lo) / (s.hi - s.lo)
	return float32(float64(s.plot.Max.Y) - frac*float64(s.plot.Dy()))
}

// niceStep rounds raw up to 1, 2 or 5 times a power of ten.
func niceStep(raw float64) float64 {
	if raw <= 0 {
		return 1
	}
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 5, 10} {
		if raw <= m*mag {
			return m * mag
		}
	}
	return 10 * mag
}

func (r *Renderer) drawGrid(img *image.RGBA, plot image.Rectangle, sc scale) {
	face := basicfont.Face7x13

	start := math.Ceil(sc.lo/sc.step) * sc.step
	for i := 0; i < maxTicks; i++ {
		v := start + float64(i)*sc.step
		if v > sc.hi {
			break
		}
		y := int(math.Round(float64(sc.y(v))))
		hline(img, plot.Min.X, plot.Max.X, y, ColorGrid)

		label := formatTick(v, sc.step)
		width := font.MeasureString(face, label).Ceil()
		drawText(img, label, plot.Min.X-8-width, y+face.Ascent/2-1, ColorText)
	}

	hline(img, plot.Min.X, plot.Max.X, plot.Max.Y, ColorAxis)
	vline(img, plot.Min.X, plot.Min.Y, plot.Max.Y, ColorAxis)
	drawText(img, "T (C)", 8, plot.Min.Y-8, ColorText)
}

func (r *Renderer) drawDateLabels(img *image.RGBA, plot image.Rectangle, series weather.ForecastSeries, sc scale) {
	face := basicfont.Face7x13

	// Skip labels when they would overlap.
	every := 1
	if sc.n > 1 {
		slot := float64(sc.x(1) - sc.x(0))
		labelW := float64(font.MeasureString(face, "Jan 02").Ceil() + 8)
		every = int(math.Ceil(labelW / slot))
	}

	for i, d := range series {
		x := int(sc.x(i))
		vline(img, x, plot.Max.Y, plot.Max.Y+4, ColorAxis)
		if i%every != 0 {
			continue
		}
		label := d.Date.Format("Jan 02")
		width := font.MeasureString(face, label).Ceil()
		drawText(img, label, x-width/2, plot.Max.Y+20, ColorText)
	}
}

func (r *Renderer) drawTitleAndLegend(img *image.RGBA, plot image.Rectangle) {
	title := "Daily temperatures"
	if r.Title != "" {
		title = "Daily temperatures, " + r.Title
	}
	drawText(img, title, plot.Min.X, 24, ColorText)

	face := basicfont.Face7x13
	x := plot.Max.X
	for _, item := range []struct {
		label string
		c     color.Color
	}{
		{label: "min", c: ColorMin},
		{label: "max", c: ColorMax},
	} {
		width := font.MeasureString(face, item.label).Ceil()
		x -= width
		drawText(img, item.label, x, 24, ColorText)
		x -= 18
		draw.Draw(img, image.Rect(x, 15, x+12, 23), image.NewUniform(item.c), image.Point{}, draw.Src)
		x -= 16
	}
}

func formatTick(v, step float64) string {
	if step >= 1 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func drawText(img *image.RGBA, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func hline(img *image.RGBA, x0, x1, y int, c color.Color) {
	draw.Draw(img, image.Rect(x0, y, x1+1, y+1), image.NewUniform(c), image.Point{}, draw.Src)
}

func vline(img *image.RGBA, x, y0, y1 int, c color.Color) {
	draw.Draw(img, image.Rect(x, y0, x+1, y1+1), image.NewUniform(c), image.Point{}, draw.Src)
}

func drawMarkers(img *image.RGBA, pts []point, c color.Color) {
	half := markerSize / 2
	src := image.NewUniform(c)
	for _, p := range pts {
		x, y := int(math.Round(float64(p.X))), int(math.Round(float64(p.Y)))
		draw.Draw(img, image.Rect(x-half, y-half, x+half+1, y+half+1), src, image.Point{}, draw.Over)
	}
}

// fillBand shades the polygon running along upper and back along lower.
func fillBand(img *image.RGBA, upper, lower []point, c color.Color) {
	if len(upper) < 2 {
		return
	}
	b := img.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over

	z.MoveTo(upper[0].X, upper[0].Y)
	for _, p := range upper[1:] {
		z.LineTo(p.X, p.Y)
	}
	for i := len(lower) - 1; i >= 0; i-- {
		z.LineTo(lower[i].X, lower[i].Y)
	}
	z.ClosePath()
	z.Draw(img, b, image.NewUniform(c), image.Point{})
}

// strokePolyline draws each segment as a filled quad of the given width.
func strokePolyline(img *image.RGBA, pts []point, width float32, c color.Color) {
	if len(pts) < 2 {
		return
	}
	b := img.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over

	half := width / 2
	for i := 1; i < len(pts); i++ {
		p, q := pts[i-1], pts[i]
		dx, dy := q.X-p.X, q.Y-p.Y
		length := float32(math.Hypot(float64(dx), float64(dy)))
		if length == 0 {
			continue
		}
		nx, ny := -dy/length*half, dx/length*half

		z.MoveTo(p.X+nx, p.Y+ny)
		z.LineTo(q.X+nx, q.Y+ny)
		z.LineTo(q.X-nx, q.Y-ny)
		z.LineTo(p.X-nx, p.Y-ny)
		z.ClosePath()
	}
	z.Draw(img, b, image.NewUniform(c), image.Point{})
}
