package report

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-pdf/fpdf"

	"github.com/neuroline/eeg-quality/internal/quality"
)

const (
	pageMargin  = 12.0 // mm
	imageWidth  = 186.0
	imageHeight = imageWidth * plotHeight / plotWidth
)

// PDFRenderer writes a Summary as a PDF document: a title/summary page with
// the per-channel status table, then one page per channel with the
// time-domain trace and the PSD plot.
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render writes the report to the given path.
func (r *PDFRenderer) Render(path string, summary *Summary) error {
	if len(summary.Channels) == 0 {
		return &EmptyReportError{}
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("EEG Channel Quality Report", false)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)

	r.summaryPage(pdf, summary)
	for i := range summary.Channels {
		if err := r.channelPage(pdf, summary, &summary.Channels[i]); err != nil {
			return fmt.Errorf("rendering page for channel %s: %w", summary.Channels[i].Name, err)
		}
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("writing PDF '%s': %w", path, err)
	}
	return nil
}

func (r *PDFRenderer) summaryPage(pdf *fpdf.Fpdf, summary *Summary) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "EEG Channel Quality Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	rate, rateSuffix := humanize.ComputeSI(summary.SampleRate)
	lines := []string{
		fmt.Sprintf("Source: %s", summary.SourceFile),
		fmt.Sprintf("Generated: %s", summary.GeneratedAt.Format(time.DateTime)),
		fmt.Sprintf("Sample rate: %0.1f %sHz    Duration: %s    Samples per channel: %s",
			rate, rateSuffix, summary.Duration.Round(time.Second), humanize.Comma(int64(summary.SampleCount))),
		fmt.Sprintf("Channels: %d    Passed: %d    Flagged: %d    Unanalyzable: %d",
			len(summary.Channels), summary.Passed, summary.Flagged, summary.Unanalyzable),
	}
	for _, line := range lines {
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	r.channelTable(pdf, summary)
	pdf.Ln(4)

	t := summary.Thresholds
	pdf.SetFont("Helvetica", "I", 8)
	notes := []string{
		fmt.Sprintf("Saturation: |v| >= %.3f V; channel flagged above %.1f%% saturated samples.", t.SaturationVolts, t.MaxSaturatedRatio*100),
		fmt.Sprintf("Peak-to-peak flagged below %s (flat) or above %s.", formatVolts(t.MinPeakToPeak), formatVolts(t.MaxPeakToPeak)),
		fmt.Sprintf("Band of interest %.0f-%.0f Hz; flagged above %.0f%% out-of-band power. Noise floor band %.0f-%.0f Hz.",
			t.Band.Low, t.Band.High, t.MaxOutOfBandRatio*100, t.NoiseBand.Low, t.NoiseBand.High),
	}
	for _, note := range notes {
		pdf.CellFormat(0, 4, note, "", 1, "L", false, 0, "")
	}
}

func (r *PDFRenderer) channelTable(pdf *fpdf.Fpdf, summary *Summary) {
	headers := []string{"#", "Channel", "Status", "Pk-Pk", "Robust", "Drift", "Sat %", "Dominant", "Band SNR"}
	widths := []float64{10, 38, 24, 20, 20, 20, 16, 22, 16}

	pdf.SetFont("Helvetica", "B", 8)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, c := range summary.Channels {
		cells := tableRow(c)
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 5, cell, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func tableRow(c quality.ChannelResult) []string {
	if c.Unanalyzable {
		return []string{
			fmt.Sprintf("%d", c.Index+1), c.Name, "UNANALYZABLE",
			"-", "-", "-", "-", "-", "-",
		}
	}

	status := "PASS"
	if len(c.Flags) > 0 {
		status = "FLAGGED"
	}
	return []string{
		fmt.Sprintf("%d", c.Index+1),
		c.Name,
		status,
		formatVolts(c.Amplitude.PeakToPeak),
		formatVolts(c.Amplitude.RobustPeakToPeak),
		formatVolts(c.Amplitude.DCDriftRange),
		fmt.Sprintf("%.1f", c.Saturation.Fraction*100),
		formatHertz(c.Spectral.DominantFrequency),
		fmt.Sprintf("%.1f", c.Spectral.BandSNR),
	}
}

func (r *PDFRenderer) channelPage(pdf *fpdf.Fpdf, summary *Summary, c *quality.ChannelResult) error {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, fmt.Sprintf("%d. %s", c.Index+1, c.Name), "", 1, "L", false, 0, "")

	if c.Unanalyzable {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("Channel could not be analyzed: %s", c.Reason), "", 1, "L", false, 0, "")
		return nil
	}

	timePlot, err := renderTimeSeries(*c, summary.SampleRate, summary.Thresholds.SaturationVolts)
	if err != nil {
		return fmt.Errorf("time-domain plot: %w", err)
	}
	if err := embedImage(pdf, fmt.Sprintf("ch%d-time", c.Index), timePlot); err != nil {
		return err
	}

	psdPlot, err := renderSpectrum(*c, summary.Thresholds.Band, summary.SampleRate)
	if err != nil {
		return fmt.Errorf("spectrum plot: %w", err)
	}
	if err := embedImage(pdf, fmt.Sprintf("ch%d-psd", c.Index), psdPlot); err != nil {
		return err
	}

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 9)
	details := []string{
		fmt.Sprintf("Amplitude: min %s, max %s, pk-pk %s (robust %s), DC drift %s",
			formatVolts(c.Amplitude.Min), formatVolts(c.Amplitude.Max), formatVolts(c.Amplitude.PeakToPeak),
			formatVolts(c.Amplitude.RobustPeakToPeak), formatVolts(c.Amplitude.DCDriftRange)),
		fmt.Sprintf("Saturation: %d samples (%.2f%%), longest run %d",
			c.Saturation.Count, c.Saturation.Fraction*100, c.Saturation.LongestRun),
		fmt.Sprintf("Spectrum: dominant %s, band power %.1f%%, band peak %s, band SNR %.1f",
			formatHertz(c.Spectral.DominantFrequency), c.Spectral.BandPowerFraction*100,
			formatHertz(c.Spectral.BandPeakFrequency), c.Spectral.BandSNR),
	}
	if len(c.Flags) > 0 {
		details = append(details, fmt.Sprintf("Flags: %s", flagList(c.Flags)))
	}
	for _, line := range details {
		pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
	}
	return nil
}

func embedImage(pdf *fpdf.Fpdf, name string, img *image.RGBA) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encoding plot image: %w", err)
	}
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, &buf)
	pdf.ImageOptions(name, pageMargin, pdf.GetY(), imageWidth, imageHeight, true, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	return nil
}

func flagList(flags []quality.Flag) string {
	out := ""
	for i, f := range flags {
		if i > 0 {
			out += ", "
		}
		out += string(f)
	}
	return out
}
