package quality

import (
	"fmt"
	"math"
)

// biquad is a single second-order IIR section with a0 normalized to 1.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// filter runs the section over x in place (direct form II transposed).
func (f biquad) filter(x []float64) {
	var z1, z2 float64
	for i, v := range x {
		y := f.b0*v + z1
		z1 = f.b1*v - f.a1*y + z2
		z2 = f.b2*v - f.a2*y
		x[i] = y
	}
}

func newBiquad(b0, b1, b2, a0, a1, a2 float64) biquad {
	return biquad{b0 / a0, b1 / a0, b2 / a0, a1 / a0, a2 / a0}
}

func lowpassBiquad(fc, fs, q float64) biquad {
	w0 := 2 * math.Pi * fc / fs
	cosw, sinw := math.Cos(w0), math.Sin(w0)
	alpha := sinw / (2 * q)
	return newBiquad((1-cosw)/2, 1-cosw, (1-cosw)/2, 1+alpha, -2*cosw, 1-alpha)
}

func highpassBiquad(fc, fs, q float64) biquad {
	w0 := 2 * math.Pi * fc / fs
	cosw, sinw := math.Cos(w0), math.Sin(w0)
	alpha := sinw / (2 * q)
	return newBiquad((1+cosw)/2, -(1 + cosw), (1+cosw)/2, 1+alpha, -2*cosw, 1-alpha)
}

func notchBiquad(fc, fs, q float64) biquad {
	w0 := 2 * math.Pi * fc / fs
	cosw, sinw := math.Cos(w0), math.Sin(w0)
	alpha := sinw / (2 * q)
	return newBiquad(1, -2*cosw, 1, 1+alpha, -2*cosw, 1-alpha)
}

// butterworthQ returns the Q of each second-order section of an even-order
// Butterworth filter: Qk = 1 / (2 cos((2k+1)π / 2N)).
func butterworthQ(order int) ([]float64, error) {
	if order < 2 || order%2 != 0 {
		return nil, fmt.Errorf("unsupported filter order %d: must be even and >= 2", order)
	}
	qs := make([]float64, order/2)
	for k := range qs {
		qs[k] = 1 / (2 * math.Cos(math.Pi*float64(2*k+1)/float64(2*order)))
	}
	return qs, nil
}

// lowpass applies a zero-phase Butterworth low-pass filter and returns the
// filtered copy of the series.
func lowpass(series []float64, fs, cutoff float64, order int) ([]float64, error) {
	qs, err := butterworthQ(order)
	if err != nil {
		return nil, err
	}
	if cutoff <= 0 || cutoff >= fs/2 {
		return nil, fmt.Errorf("low-pass cutoff %.2fHz outside (0, %.2f)", cutoff, fs/2)
	}
	sections := make([]biquad, len(qs))
	for i, q := range qs {
		sections[i] = lowpassBiquad(cutoff, fs, q)
	}
	return filtfilt(sections, series), nil
}

// highpass applies a zero-phase Butterworth high-pass filter and returns the
// filtered copy of the series.
func highpass(series []float64, fs, cutoff float64, order int) ([]float64, error) {
	qs, err := butterworthQ(order)
	if err != nil {
		return nil, err
	}
	if cutoff <= 0 || cutoff >= fs/2 {
		return nil, fmt.Errorf("high-pass cutoff %.2fHz outside (0, %.2f)", cutoff, fs/2)
	}
	sections := make([]biquad, len(qs))
	for i, q := range qs {
		sections[i] = highpassBiquad(cutoff, fs, q)
	}
	return filtfilt(sections, series), nil
}

// notch applies a zero-phase notch filter centered on freq and returns the
// filtered copy of the series.
func notch(series []float64, fs, freq, q float64) ([]float64, error) {
	if freq <= 0 || freq >= fs/2 {
		return nil, fmt.Errorf("notch frequency %.2fHz outside (0, %.2f)", freq, fs/2)
	}
	return filtfilt([]biquad{notchBiquad(freq, fs, q)}, series), nil
}

// filtfilt runs the section cascade forward and backward for zero phase
// shift. The series is extended at both ends with an odd reflection so the
// filter state settles before the real samples, then the extension is
// stripped.
func filtfilt(sections []biquad, series []float64) []float64 {
	n := len(series)
	padlen := 3 * 2 * (len(sections) + 1)
	if padlen >= n {
		padlen = n - 1
	}
	if padlen < 0 {
		padlen = 0
	}

	ext := make([]float64, padlen+n+padlen)
	for i := 0; i < padlen; i++ {
		ext[i] = 2*series[0] - series[padlen-i]
		ext[padlen+n+i] = 2*series[n-1] - series[n-2-i]
	}
	copy(ext[padlen:], series)

	run := func(x []float64) {
		for _, s := range sections {
			s.filter(x)
		}
	}

	run(ext)
	reverse(ext)
	run(ext)
	reverse(ext)

	out := make([]float64, n)
	copy(out, ext[padlen:padlen+n])
	return out
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
