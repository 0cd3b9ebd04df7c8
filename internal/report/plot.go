package report

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/neuroline/eeg-quality/internal/quality"
)

const (
	plotWidth  = 1200
	plotHeight = 420

	plotDPI      = 96.0
	plotFontSize = 11.0

	tickLength     = 5
	pixelsPerLabel = 150

	// Border sizes in pixels around the trace area
	topBorder    = 36
	leftBorder   = 90
	bottomBorder = 48
	rightBorder  = 24
)

var (
	traceColor = color.RGBA{R: 0x1f, G: 0x4e, B: 0xb8, A: 0xff}
	driftColor = color.RGBA{R: 0xe8, G: 0x85, B: 0x04, A: 0xff}
	limitColor = color.RGBA{R: 0xc4, G: 0x2b, B: 0x2b, A: 0xff}
	bandColor  = color.RGBA{R: 0x2e, G: 0x8b, B: 0x4a, A: 0xff}
	gridColor  = color.RGBA{R: 0xd8, G: 0xd8, B: 0xd8, A: 0xff}
)

// plotter renders annotated line plots in a fixed-size image. One plotter is
// created per plot; it owns the freetype context used for labels.
type plotter struct {
	img      *image.RGBA
	area     image.Rectangle
	context  *freetype.Context
	fontFace font.Face
}

func newPlotter() (*plotter, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, plotWidth, plotHeight))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	ctx := freetype.NewContext()
	ctx.SetDPI(plotDPI)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(plotFontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)

	return &plotter{
		img:     img,
		area:    image.Rect(leftBorder, topBorder, plotWidth-rightBorder, plotHeight-bottomBorder),
		context: ctx,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    plotFontSize,
			DPI:     plotDPI,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (p *plotter) Close() error {
	if p.fontFace != nil {
		return p.fontFace.Close()
	}
	return nil
}

// renderTimeSeries draws the conditioned channel trace with its DC drift
// overlay and, when they fall inside the value range, the saturation rails.
func renderTimeSeries(result quality.ChannelResult, sampleRate, saturationVolts float64) (*image.RGBA, error) {
	p, err := newPlotter()
	if err != nil {
		return nil, err
	}
	defer p.Close()

	series := result.Series
	lo, hi := seriesRange(series)
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	pad := (hi - lo) * 0.05
	lo, hi = lo-pad, hi+pad

	duration := float64(len(series)) / sampleRate

	p.drawFrame()
	if err := p.drawXScaleSeconds(duration); err != nil {
		return nil, fmt.Errorf("drawing time scale: %w", err)
	}
	if err := p.drawYScaleLinear(lo, hi, "V"); err != nil {
		return nil, fmt.Errorf("drawing amplitude scale: %w", err)
	}

	for _, rail := range []float64{saturationVolts, -saturationVolts} {
		if rail > lo && rail < hi {
			p.drawHorizontalDashed(p.valueToY(rail, lo, hi), limitColor)
		}
	}

	p.drawSeries(series, lo, hi, traceColor)
	if len(result.Drift) == len(series) {
		p.drawSeries(result.Drift, lo, hi, driftColor)
	}

	info := fmt.Sprintf("%s  -  time domain; robust pk-pk %s, DC drift %s",
		result.Name, formatVolts(result.Amplitude.RobustPeakToPeak), formatVolts(result.Amplitude.DCDriftRange))
	if err := p.drawInfo(info); err != nil {
		return nil, fmt.Errorf("drawing info: %w", err)
	}
	return p.img, nil
}

// renderSpectrum draws the Welch PSD on a log10 power axis with the band of
// interest marked by vertical guides. The frequency axis is capped at the
// EEG-relevant range.
func renderSpectrum(result quality.ChannelResult, band quality.Band, sampleRate float64) (*image.RGBA, error) {
	p, err := newPlotter()
	if err != nil {
		return nil, err
	}
	defer p.Close()

	maxFreq := math.Min(sampleRate/2, 100)
	_, psd := clipSpectrum(result.Spectral.Frequencies, result.Spectral.PSD, maxFreq)
	logPSD := make([]float64, len(psd))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, v := range psd {
		logPSD[i] = math.Log10(math.Max(v, 1e-18))
		lo = math.Min(lo, logPSD[i])
		hi = math.Max(hi, logPSD[i])
	}
	if !isFinite(lo) || !isFinite(hi) || lo == hi {
		lo, hi = -18, 0
	}
	pad := (hi - lo) * 0.05
	lo, hi = lo-pad, hi+pad

	p.drawFrame()
	if err := p.drawXScaleHertz(maxFreq); err != nil {
		return nil, fmt.Errorf("drawing frequency scale: %w", err)
	}
	if err := p.drawYScaleLog(lo, hi); err != nil {
		return nil, fmt.Errorf("drawing power scale: %w", err)
	}

	for _, edge := range []float64{band.Low, band.High} {
		if edge > 0 && edge < maxFreq {
			p.drawVerticalDashed(p.area.Min.X+int(edge/maxFreq*float64(p.area.Dx())), bandColor)
		}
	}

	p.drawSeries(logPSD, lo, hi, limitColor)

	info := fmt.Sprintf("%s  -  Welch PSD; dominant %s, band power %.1f%%, band SNR %.1f",
		result.Name, formatHertz(result.Spectral.DominantFrequency),
		result.Spectral.BandPowerFraction*100, result.Spectral.BandSNR)
	if err := p.drawInfo(info); err != nil {
		return nil, fmt.Errorf("drawing info: %w", err)
	}
	return p.img, nil
}

func (p *plotter) drawFrame() {
	for x := p.area.Min.X; x <= p.area.Max.X; x++ {
		p.img.Set(x, p.area.Max.Y, color.Black)
		p.img.Set(x, p.area.Min.Y, gridColor)
	}
	for y := p.area.Min.Y; y <= p.area.Max.Y; y++ {
		p.img.Set(p.area.Min.X, y, color.Black)
		p.img.Set(p.area.Max.X, y, gridColor)
	}
}

// drawSeries maps the series onto the trace area and connects consecutive
// samples with line segments.
func (p *plotter) drawSeries(series []float64, lo, hi float64, c color.Color) {
	if len(series) < 2 {
		return
	}
	width := p.area.Dx()
	prevSet := false
	var prevX, prevY int
	for i, v := range series {
		if !isFinite(v) {
			prevSet = false
			continue
		}
		x := p.area.Min.X + int(float64(i)/float64(len(series)-1)*float64(width))
		y := p.valueToY(v, lo, hi)
		if prevSet {
			p.drawLine(prevX, prevY, x, y, c)
		}
		prevX, prevY = x, y
		prevSet = true
	}
}

func (p *plotter) valueToY(v, lo, hi float64) int {
	ratio := (v - lo) / (hi - lo)
	return p.area.Max.Y - int(ratio*float64(p.area.Dy()))
}

// drawLine draws a straight segment between two pixels (Bresenham).
func (p *plotter) drawLine(x0, y0, x1, y1 int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		p.img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (p *plotter) drawHorizontalDashed(y int, c color.Color) {
	for x := p.area.Min.X; x < p.area.Max.X; x += 6 {
		for i := 0; i < 3 && x+i < p.area.Max.X; i++ {
			p.img.Set(x+i, y, c)
		}
	}
}

func (p *plotter) drawVerticalDashed(x int, c color.Color) {
	for y := p.area.Min.Y; y < p.area.Max.Y; y += 6 {
		for i := 0; i < 3 && y+i < p.area.Max.Y; i++ {
			p.img.Set(x, y+i, c)
		}
	}
}

func (p *plotter) drawXScaleSeconds(duration float64) error {
	step := niceStep(duration, p.area.Dx()/pixelsPerLabel)
	for t := 0.0; t <= duration; t += step {
		x := p.area.Min.X + int(t/duration*float64(p.area.Dx()))
		p.drawXTick(x)
		if err := p.drawXLabel(x, formatSeconds(t)); err != nil {
			return err
		}
	}
	return nil
}

func (p *plotter) drawXScaleHertz(maxFreq float64) error {
	step := niceStep(maxFreq, p.area.Dx()/pixelsPerLabel)
	for f := 0.0; f <= maxFreq; f += step {
		x := p.area.Min.X + int(f/maxFreq*float64(p.area.Dx()))
		p.drawXTick(x)
		if err := p.drawXLabel(x, formatHertz(f)); err != nil {
			return err
		}
	}
	return nil
}

func (p *plotter) drawYScaleLinear(lo, hi float64, unit string) error {
	step := niceStep(hi-lo, 6)
	start := math.Ceil(lo/step) * step
	for v := start; v <= hi; v += step {
		y := p.valueToY(v, lo, hi)
		p.drawYTick(y)
		fract, suffix := humanize.ComputeSI(v)
		if err := p.drawYLabel(y, fmt.Sprintf("%0.1f %s%s", fract, suffix, unit)); err != nil {
			return err
		}
	}
	return nil
}

func (p *plotter) drawYScaleLog(lo, hi float64) error {
	step := math.Max(1, math.Round((hi-lo)/6))
	start := math.Ceil(lo)
	for v := start; v <= hi; v += step {
		y := p.valueToY(v, lo, hi)
		p.drawYTick(y)
		if err := p.drawYLabel(y, fmt.Sprintf("1e%d", int(v))); err != nil {
			return err
		}
	}
	return nil
}

func (p *plotter) drawXTick(x int) {
	for y := p.area.Max.Y; y < p.area.Max.Y+tickLength; y++ {
		p.img.Set(x, y, color.Black)
	}
}

func (p *plotter) drawYTick(y int) {
	for x := p.area.Min.X - tickLength; x < p.area.Min.X; x++ {
		p.img.Set(x, y, color.Black)
	}
	for x := p.area.Min.X + 1; x < p.area.Max.X; x++ {
		p.img.Set(x, y, gridColor)
	}
}

func (p *plotter) drawXLabel(x int, label string) error {
	width := font.MeasureString(p.fontFace, label)
	pt := freetype.Pt(x-width.Round()/2, p.area.Max.Y+tickLength+p.fontHeight())
	_, err := p.context.DrawString(label, pt)
	return err
}

func (p *plotter) drawYLabel(y int, label string) error {
	width := font.MeasureString(p.fontFace, label)
	pt := freetype.Pt(p.area.Min.X-tickLength-4-width.Round(), y+p.fontHeight()/2-2)
	_, err := p.context.DrawString(label, pt)
	return err
}

func (p *plotter) drawInfo(info string) error {
	pt := freetype.Pt(p.area.Min.X, p.fontHeight()+8)
	_, err := p.context.DrawString(info, pt)
	return err
}

func (p *plotter) fontHeight() int {
	metrics := p.fontFace.Metrics()
	return (metrics.Ascent + metrics.Descent).Round()
}

// niceStep picks a 1/2/5 decade step that yields roughly targetTicks labels.
func niceStep(valueRange float64, targetTicks int) float64 {
	if targetTicks < 2 {
		targetTicks = 2
	}
	rough := valueRange / float64(targetTicks)
	magnitude := math.Pow(10, math.Floor(math.Log10(math.Max(rough, 1e-12))))
	for _, m := range []float64{1, 2, 5, 10} {
		if step := m * magnitude; step >= rough {
			return step
		}
	}
	return 10 * magnitude
}

func clipSpectrum(freqs, psd []float64, maxFreq float64) ([]float64, []float64) {
	n := len(freqs)
	for i, f := range freqs {
		if f > maxFreq {
			n = i
			break
		}
	}
	return freqs[:n], psd[:n]
}

func seriesRange(series []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range series {
		if !isFinite(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if !isFinite(lo) || !isFinite(hi) {
		return 0, 0
	}
	return lo, hi
}

func formatVolts(v float64) string {
	fract, suffix := humanize.ComputeSI(v)
	return fmt.Sprintf("%0.2f %sV", fract, suffix)
}

func formatHertz(f float64) string {
	fract, suffix := humanize.ComputeSI(f)
	return fmt.Sprintf("%0.1f %sHz", fract, suffix)
}

func formatSeconds(t float64) string {
	if t >= 60 {
		return fmt.Sprintf("%d:%04.1f", int(t)/60, math.Mod(t, 60))
	}
	return fmt.Sprintf("%0.1fs", t)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
