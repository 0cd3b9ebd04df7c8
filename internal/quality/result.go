package quality

// Flag marks a quality threshold breached by a channel.
type Flag string

const (
	// FlagFlat marks a dead channel with peak-to-peak amplitude below the
	// configured minimum.
	FlagFlat Flag = "flat"

	// FlagExcessiveAmplitude marks a peak-to-peak amplitude above the
	// configured maximum.
	FlagExcessiveAmplitude Flag = "excessive-amplitude"

	// FlagSaturated marks a saturated-sample fraction above the
	// configured ratio.
	FlagSaturated Flag = "saturated"

	// FlagOutOfBandNoise marks a channel whose spectral power is
	// dominated by frequencies outside the band of interest.
	FlagOutOfBandNoise Flag = "out-of-band-noise"
)

// AmplitudeMetrics summarizes the time-domain amplitude of a channel.
// All values are in volts.
type AmplitudeMetrics struct {
	Min              float64
	Max              float64
	PeakToPeak       float64
	RobustPeakToPeak float64 // windowed 99.5/0.5 percentile spread after 0.5Hz high-pass
	DCDriftRange     float64 // range of the 0.1Hz low-pass drift component
}

// SaturationMetrics summarizes clipping detected on a channel.
type SaturationMetrics struct {
	Count      int
	LongestRun int
	Fraction   float64 // saturated count over finite sample count
	Locations  []int   // sample indices of the first saturated samples
}

// SpectralMetrics summarizes the frequency-domain content of a channel.
type SpectralMetrics struct {
	Frequencies       []float64 // Welch PSD frequency bins in Hz
	PSD               []float64 // power spectral density in V²/Hz
	BinWidth          float64
	TotalPower        float64 // integrated PSD over all bins
	DominantFrequency float64
	BandPowerFraction float64 // fraction of total power inside the band of interest
	BandPeakFrequency float64 // frequency of the PSD peak inside the band
	BandSNR           float64 // band peak over the noise-band mean
}

// ChannelResult is the per-channel output of the quality engine. It is
// created once and never mutated afterwards.
type ChannelResult struct {
	Index       int
	Name        string
	SampleCount int
	FiniteCount int

	// Unanalyzable is set when the channel lacked usable samples; Reason
	// carries the cause. The metric fields are zero in that case.
	Unanalyzable bool
	Reason       string

	Amplitude  AmplitudeMetrics
	Saturation SaturationMetrics
	Spectral   SpectralMetrics

	// Series is the conditioned series the metrics were computed on and
	// Drift its DC drift component, kept for report plotting.
	Series []float64
	Drift  []float64

	Flags []Flag
}

// Passed reports whether the channel was analyzed and breached no threshold.
func (r ChannelResult) Passed() bool {
	return !r.Unanalyzable && len(r.Flags) == 0
}

// Has reports whether the result carries the given flag.
func (r ChannelResult) Has(f Flag) bool {
	for _, flag := range r.Flags {
		if flag == f {
			return true
		}
	}
	return false
}
