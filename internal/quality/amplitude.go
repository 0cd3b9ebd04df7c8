package quality

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const (
	robustHighpassHz    = 0.5
	robustHighpassOrder = 4
	robustWindowSeconds = 5.0
	robustUpperQuantile = 0.995
	robustLowerQuantile = 0.005

	driftLowpassHz    = 0.1
	driftLowpassOrder = 2
)

// analyzeAmplitude computes the amplitude metrics for a channel. Raw
// min/max/peak-to-peak come from the finite samples of the raw series; the
// robust peak-to-peak and DC drift are derived from the gap-filled series so
// the filters see contiguous data. The returned drift series is kept for the
// report's time-domain plot.
func analyzeAmplitude(raw, filled []float64, fs float64) (AmplitudeMetrics, []float64) {
	m := AmplitudeMetrics{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range raw {
		if !isFinite(v) {
			continue
		}
		m.Min = math.Min(m.Min, v)
		m.Max = math.Max(m.Max, v)
	}
	m.PeakToPeak = m.Max - m.Min

	m.RobustPeakToPeak = robustPeakToPeak(filled, fs)

	drift := dcDrift(filled, fs)
	if len(drift) > 0 {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range drift {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		m.DCDriftRange = hi - lo
	}
	return m, drift
}

// robustPeakToPeak measures the typical signal amplitude while ignoring
// extreme spikes and slow drift: high-pass the series, split it into 5s
// windows, take the 99.5th-0.5th percentile spread per window and the median
// across windows. Short recordings use a single spread over the whole series.
func robustPeakToPeak(series []float64, fs float64) float64 {
	filtered, err := highpass(series, fs, robustHighpassHz, robustHighpassOrder)
	if err != nil {
		// Cutoff does not fit the sample rate; measure the raw spread.
		filtered = series
	}

	windowSize := int(robustWindowSeconds * fs)
	if windowSize < 2 {
		windowSize = 2
	}
	if len(filtered) <= windowSize {
		return quantileSpread(filtered)
	}

	var spreads []float64
	for start := 0; start+windowSize <= len(filtered); start += windowSize {
		spreads = append(spreads, quantileSpread(filtered[start:start+windowSize]))
	}
	sort.Float64s(spreads)
	return stat.Quantile(0.5, stat.Empirical, spreads, nil)
}

// quantileSpread returns the 99.5th-0.5th percentile spread of the window.
func quantileSpread(window []float64) float64 {
	sorted := make([]float64, len(window))
	copy(sorted, window)
	sort.Float64s(sorted)
	upper := stat.Quantile(robustUpperQuantile, stat.Empirical, sorted, nil)
	lower := stat.Quantile(robustLowerQuantile, stat.Empirical, sorted, nil)
	return upper - lower
}

// dcDrift extracts the slow drift component with a gentle 0.1Hz low-pass.
func dcDrift(series []float64, fs float64) []float64 {
	drift, err := lowpass(series, fs, driftLowpassHz, driftLowpassOrder)
	if err != nil {
		return nil
	}
	return drift
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
