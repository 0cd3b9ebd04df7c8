package recording

import (
	"fmt"
	"time"
)

// Recording represents a multi-channel EEG recording sampled at a constant
// rate. The per-channel series are stored column-major, so a single channel
// can be handed to the analysis engine without copying. A Recording is
// immutable once loaded.
type Recording struct {
	sampleRate float64
	series     [][]float64
	source     string
}

// New creates a Recording from column-major channel series. Every channel
// must have the same number of samples and the sample rate must be positive.
func New(source string, sampleRate float64, series [][]float64) (*Recording, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %f", sampleRate)
	}
	for i := 1; i < len(series); i++ {
		if len(series[i]) != len(series[0]) {
			return nil, fmt.Errorf("channel %d has %d samples, expected %d", i+1, len(series[i]), len(series[0]))
		}
	}
	return &Recording{
		sampleRate: sampleRate,
		series:     series,
		source:     source,
	}, nil
}

// Source returns the path or identifier the recording was loaded from.
func (r *Recording) Source() string {
	return r.source
}

// SampleRate returns the sampling rate in Hz.
func (r *Recording) SampleRate() float64 {
	return r.sampleRate
}

// ChannelCount returns the number of channels in the recording.
func (r *Recording) ChannelCount() int {
	return len(r.series)
}

// SampleCount returns the number of samples per channel.
func (r *Recording) SampleCount() int {
	if len(r.series) == 0 {
		return 0
	}
	return len(r.series[0])
}

// Duration returns the wall-clock length of the recording.
func (r *Recording) Duration() time.Duration {
	return time.Duration(float64(r.SampleCount()) / r.sampleRate * float64(time.Second))
}

// Series returns the sample series for channel index i. The returned slice
// is shared with the Recording and must not be modified.
func (r *Recording) Series(i int) []float64 {
	return r.series[i]
}
