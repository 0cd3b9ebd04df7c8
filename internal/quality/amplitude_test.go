package quality

import (
	"math"
	"testing"
)

func TestAnalyzeAmplitude_Sinusoid(t *testing.T) {
	const fs = 500.0
	series := sinusoid(10, fs, 5000) // 10 seconds

	m, drift := analyzeAmplitude(series, series, fs)

	if math.Abs(m.Min+1) > 0.01 || math.Abs(m.Max-1) > 0.01 {
		t.Errorf("Expected min/max near -1/1, got %f/%f", m.Min, m.Max)
	}
	if math.Abs(m.PeakToPeak-2) > 0.02 {
		t.Errorf("Expected peak-to-peak near 2, got %f", m.PeakToPeak)
	}
	if m.RobustPeakToPeak < 1.8 || m.RobustPeakToPeak > 2.05 {
		t.Errorf("Expected robust peak-to-peak near 2, got %f", m.RobustPeakToPeak)
	}
	if len(drift) != len(series) {
		t.Errorf("Expected drift series of length %d, got %d", len(series), len(drift))
	}
	// A pure tone has no slow drift component to speak of.
	if m.DCDriftRange > 0.2 {
		t.Errorf("Expected negligible DC drift, got %f", m.DCDriftRange)
	}
}

func TestAnalyzeAmplitude_RobustIgnoresSpikes(t *testing.T) {
	const fs = 500.0
	series := sinusoid(10, fs, 10000) // 20 seconds
	series[2500] = 100                // single artifact spike

	m, _ := analyzeAmplitude(series, series, fs)

	if m.PeakToPeak < 100 {
		t.Errorf("Expected raw peak-to-peak to see the spike, got %f", m.PeakToPeak)
	}
	if m.RobustPeakToPeak > 3 {
		t.Errorf("Expected robust peak-to-peak to ignore the spike, got %f", m.RobustPeakToPeak)
	}
}

func TestAnalyzeAmplitude_IgnoresNonFinite(t *testing.T) {
	raw := []float64{0.5, math.NaN(), -0.5, math.Inf(1), 0.25}
	filled := fillMissing(raw)

	m, _ := analyzeAmplitude(raw, filled, 500)

	if m.Min != -0.5 || m.Max != 0.5 {
		t.Errorf("Expected min/max -0.5/0.5 over finite samples, got %f/%f", m.Min, m.Max)
	}
	if m.PeakToPeak != 1.0 {
		t.Errorf("Expected peak-to-peak 1.0, got %f", m.PeakToPeak)
	}
}

func TestFillMissing(t *testing.T) {
	series := []float64{math.NaN(), 1, math.Inf(-1), 2, math.NaN()}
	filled := fillMissing(series)

	expected := []float64{1, 1, 1, 2, 2}
	for i, want := range expected {
		if filled[i] != want {
			t.Errorf("Index %d: expected %f, got %f", i, want, filled[i])
		}
	}
}
