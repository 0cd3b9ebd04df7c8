package quality

import (
	"math"
	"testing"
)

func TestWelch_DominantFrequency(t *testing.T) {
	const (
		fs   = 500.0
		freq = 10.0
	)

	m := analyzeSpectrum(sinusoid(freq, fs, 4096), fs, DefaultThresholds())

	if math.Abs(m.DominantFrequency-freq) > m.BinWidth {
		t.Errorf("Expected dominant frequency within one bin of %.1fHz, got %.3fHz (bin width %.3fHz)",
			freq, m.DominantFrequency, m.BinWidth)
	}
	if m.BandPeakFrequency < 8 || m.BandPeakFrequency > 12 {
		t.Errorf("Expected band peak inside 8-12Hz, got %.3fHz", m.BandPeakFrequency)
	}
}

func TestWelch_BandPowerFraction(t *testing.T) {
	const fs = 500.0
	cfg := DefaultThresholds()

	inBand := analyzeSpectrum(sinusoid(10, fs, 8192), fs, cfg)
	if inBand.BandPowerFraction < 0.9 {
		t.Errorf("Expected most power inside the band for a 10Hz tone, got %.3f", inBand.BandPowerFraction)
	}

	outOfBand := analyzeSpectrum(sinusoid(60, fs, 8192), fs, cfg)
	if outOfBand.BandPowerFraction > 0.1 {
		t.Errorf("Expected little in-band power for a 60Hz tone, got %.3f", outOfBand.BandPowerFraction)
	}
}

func TestWelch_BandSNR(t *testing.T) {
	const fs = 500.0

	// Alpha tone plus a faint wideband component in the noise floor band.
	series := sinusoid(10, fs, 8192)
	noise := sinusoid(90, fs, 8192)
	for i := range series {
		series[i] += 0.01 * noise[i]
	}

	m := analyzeSpectrum(series, fs, DefaultThresholds())
	if m.BandSNR < 10 {
		t.Errorf("Expected a strong band SNR for a dominant alpha tone, got %.1f", m.BandSNR)
	}
}

func TestWelch_ConstantSeries(t *testing.T) {
	series := make([]float64, 2048)
	for i := range series {
		series[i] = 1.5
	}

	m := analyzeSpectrum(series, 500, DefaultThresholds())
	if m.TotalPower > 1e-12 {
		t.Errorf("Expected no spectral power for a constant series, got %g", m.TotalPower)
	}
}

func TestWelch_ShortSeries(t *testing.T) {
	// Shorter than the minimum segment length: falls back to one segment.
	m := analyzeSpectrum(sinusoid(10, 100, 200), 100, DefaultThresholds())

	if len(m.Frequencies) == 0 || len(m.Frequencies) != len(m.PSD) {
		t.Fatalf("Malformed spectrum: %d frequencies, %d PSD bins", len(m.Frequencies), len(m.PSD))
	}
	if math.Abs(m.DominantFrequency-10) > 2*m.BinWidth {
		t.Errorf("Expected dominant frequency near 10Hz, got %.3fHz", m.DominantFrequency)
	}
}

func TestDetrendLinear(t *testing.T) {
	src := make([]float64, 100)
	for i := range src {
		src[i] = 3 + 0.5*float64(i)
	}

	dst := make([]float64, len(src))
	detrendLinear(dst, src)

	for i, v := range dst {
		if math.Abs(v) > 1e-9 {
			t.Fatalf("Expected pure trend to detrend to zero, got %g at index %d", v, i)
		}
	}
}
