package quality

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

const (
	minSegmentLength = 1024
	maxSegmentLength = 8192
)

// spectrum holds a one-sided Welch power spectral density estimate.
type spectrum struct {
	frequencies []float64 // bin centers in Hz
	psd         []float64 // V²/Hz
	binWidth    float64
}

// welch estimates the power spectral density of the series using Welch's
// method: Hann-windowed segments with 50% overlap, per-segment linear
// detrend, twofold zero padding, density scaling. Segment length scales with
// the series length, clamped so resolution stays stable across short and
// long recordings.
func welch(series []float64, fs float64) spectrum {
	n := len(series)

	nperseg := n / 8
	if nperseg < minSegmentLength {
		nperseg = minSegmentLength
	}
	if nperseg > maxSegmentLength {
		nperseg = maxSegmentLength
	}
	if nperseg > n {
		nperseg = n
	}

	step := nperseg - nperseg/2
	nfft := nperseg * 2
	bins := nfft/2 + 1

	win := window.Hann(nperseg)
	var winPower float64
	for _, w := range win {
		winPower += w * w
	}
	if winPower == 0 {
		// Hann is zero-valued for very short segments; fall back to a
		// rectangular window rather than divide by zero.
		for i := range win {
			win[i] = 1
		}
		winPower = float64(nperseg)
	}
	scale := 1 / (fs * winPower)

	acc := make([]float64, bins)
	segment := make([]float64, nfft)
	var segments int
	for start := 0; start+nperseg <= n; start += step {
		detrendLinear(segment[:nperseg], series[start:start+nperseg])
		for i := 0; i < nperseg; i++ {
			segment[i] *= win[i]
		}
		for i := nperseg; i < nfft; i++ {
			segment[i] = 0
		}

		spec := fft.FFTReal(segment)
		for i := 0; i < bins; i++ {
			m := cmplx.Abs(spec[i])
			p := m * m * scale
			if i != 0 && i != nfft/2 {
				p *= 2 // fold the negative frequencies into the one-sided estimate
			}
			acc[i] += p
		}
		segments++
	}

	binWidth := fs / float64(nfft)
	frequencies := make([]float64, bins)
	for i := range frequencies {
		frequencies[i] = float64(i) * binWidth
	}
	if segments > 1 {
		for i := range acc {
			acc[i] /= float64(segments)
		}
	}

	return spectrum{frequencies: frequencies, psd: acc, binWidth: binWidth}
}

// detrendLinear writes src minus its least-squares line fit into dst.
func detrendLinear(dst, src []float64) {
	n := float64(len(src))
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range src {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	var slope, intercept float64
	if denom != 0 {
		slope = (n*sumXY - sumX*sumY) / denom
		intercept = (sumY - slope*sumX) / n
	} else {
		intercept = sumY / n
	}
	for i, v := range src {
		dst[i] = v - (intercept + slope*float64(i))
	}
}

// analyzeSpectrum derives the spectral metrics from a Welch estimate.
func analyzeSpectrum(series []float64, fs float64, cfg ThresholdConfig) SpectralMetrics {
	sp := welch(series, fs)

	m := SpectralMetrics{
		Frequencies: sp.frequencies,
		PSD:         sp.psd,
		BinWidth:    sp.binWidth,
	}

	var total, inBand, noiseSum float64
	var noiseBins int
	var maxPSD, bandMaxPSD float64
	for i, f := range sp.frequencies {
		p := sp.psd[i]
		total += p
		if p > maxPSD {
			maxPSD = p
			m.DominantFrequency = f
		}
		if cfg.Band.Contains(f) {
			inBand += p
			if p > bandMaxPSD {
				bandMaxPSD = p
				m.BandPeakFrequency = f
			}
		}
		if cfg.NoiseBand.Contains(f) {
			noiseSum += p
			noiseBins++
		}
	}

	m.TotalPower = total * sp.binWidth
	if total > 0 {
		m.BandPowerFraction = inBand / total
	}
	if noiseBins > 0 {
		if noiseFloor := noiseSum / float64(noiseBins); noiseFloor > 0 {
			m.BandSNR = bandMaxPSD / noiseFloor
		}
	}
	return m
}
