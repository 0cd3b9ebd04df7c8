package quality

// Band represents an inclusive frequency range in Hz.
type Band struct {
	Low  float64
	High float64
}

// Contains reports whether frequency f falls inside the band.
func (b Band) Contains(f float64) bool {
	return f >= b.Low && f <= b.High
}

// FilterConfig controls the optional signal conditioning applied to each
// channel before analysis. Both filters are zero-phase (forward-backward).
type FilterConfig struct {
	LowpassEnabled bool
	LowpassHz      float64
	LowpassOrder   int
	NotchEnabled   bool
	NotchHz        float64
	NotchQ         float64
}

// ThresholdConfig holds the numeric bounds the engine flags channels
// against. It is supplied once per run and read-only during analysis.
type ThresholdConfig struct {
	// SaturationVolts is the absolute sample value at or beyond which a
	// sample counts as saturated (clipped).
	SaturationVolts float64

	// MaxSaturatedRatio is the saturated fraction of finite samples above
	// which the channel is flagged.
	MaxSaturatedRatio float64

	// MinPeakToPeak and MaxPeakToPeak bound the plausible peak-to-peak
	// amplitude in volts. Below the minimum the channel is flagged as
	// flat (dead), above the maximum as excessive.
	MinPeakToPeak float64
	MaxPeakToPeak float64

	// Band is the frequency band of interest, e.g. the EEG alpha band.
	Band Band

	// NoiseBand is the band used to estimate the spectral noise floor.
	NoiseBand Band

	// MaxOutOfBandRatio is the fraction of total spectral power outside
	// Band above which the channel is flagged as noise-dominated.
	MaxOutOfBandRatio float64

	Filters FilterConfig
}

// DefaultThresholds returns the stock thresholds for a 3.3V front-end:
// alpha band of interest, 80-100Hz noise floor, conditioning filters off.
func DefaultThresholds() ThresholdConfig {
	return ThresholdConfig{
		SaturationVolts:   3.2,
		MaxSaturatedRatio: 0.05,
		MinPeakToPeak:     0.0005,
		MaxPeakToPeak:     6.0,
		Band:              Band{Low: 8, High: 12},
		NoiseBand:         Band{Low: 80, High: 100},
		MaxOutOfBandRatio: 0.95,
		Filters: FilterConfig{
			LowpassHz:    40,
			LowpassOrder: 4,
			NotchHz:      60,
			NotchQ:       30,
		},
	}
}
