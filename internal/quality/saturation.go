package quality

import "math"

// maxSaturationLocations caps how many saturated sample indices are kept on
// the result; the count and runs are always exact.
const maxSaturationLocations = 32

// analyzeSaturation detects clipped samples on the raw series. A sample is
// saturated when its absolute value meets or exceeds the threshold.
// Non-finite samples neither count as saturated nor extend a run.
func analyzeSaturation(raw []float64, threshold float64) SaturationMetrics {
	var m SaturationMetrics
	var run, finite int
	for i, v := range raw {
		if !isFinite(v) {
			run = 0
			continue
		}
		finite++
		if math.Abs(v) < threshold {
			run = 0
			continue
		}

		m.Count++
		run++
		if run > m.LongestRun {
			m.LongestRun = run
		}
		if len(m.Locations) < maxSaturationLocations {
			m.Locations = append(m.Locations, i)
		}
	}
	if finite > 0 {
		m.Fraction = float64(m.Count) / float64(finite)
	}
	return m
}
