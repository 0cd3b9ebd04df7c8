package quality

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/neuroline/eeg-quality/internal/recording"
)

// WithWorkers sets the number of channels analyzed concurrently.
func WithWorkers(n int) func(*Engine) {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// Engine computes quality metrics per channel. Channel analysis is a pure
// function of (series, sample rate, thresholds), so channels are fanned out
// across a bounded worker pool with no shared mutable state.
type Engine struct {
	cfg     ThresholdConfig
	workers int
}

// NewEngine creates an Engine with the given thresholds.
func NewEngine(cfg ThresholdConfig, options ...func(*Engine)) *Engine {
	e := Engine{
		cfg:     cfg,
		workers: runtime.NumCPU(),
	}
	for _, option := range options {
		option(&e)
	}
	return &e
}

// Analyze produces exactly one ChannelResult per channel, in channel order.
// A channel without usable samples yields an unanalyzable result; only
// context cancellation aborts the whole pass.
func (e *Engine) Analyze(ctx context.Context, rec *recording.Recording, names []string) ([]ChannelResult, error) {
	count := rec.ChannelCount()
	results := make([]ChannelResult, count)

	workers := e.workers
	if workers > count {
		workers = count
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = e.analyzeChannel(i, channelName(names, i), rec.Series(i), rec.SampleRate())
			}
		}()
	}

	var err error
feed:
	for i := 0; i < count; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return results, nil
}

// AnalyzeChannel runs the full metric set over a single series. It returns
// an InsufficientDataError when fewer than two finite samples exist.
func (e *Engine) AnalyzeChannel(index int, name string, series []float64, fs float64) (ChannelResult, error) {
	result := ChannelResult{
		Index:       index,
		Name:        name,
		SampleCount: len(series),
	}

	for _, v := range series {
		if isFinite(v) {
			result.FiniteCount++
		}
	}
	if result.FiniteCount < 2 {
		return result, NewInsufficientDataError(name, fmt.Sprintf("%d finite samples of %d", result.FiniteCount, len(series)))
	}

	// Saturation is detected on the raw samples: clipping happens at the
	// sensor, before any conditioning.
	result.Saturation = analyzeSaturation(series, e.cfg.SaturationVolts)

	filled := fillMissing(series)
	conditioned, err := e.condition(filled, fs)
	if err != nil {
		return result, NewInsufficientDataError(name, err.Error())
	}
	result.Series = conditioned

	result.Amplitude, result.Drift = analyzeAmplitude(series, conditioned, fs)
	result.Spectral = analyzeSpectrum(conditioned, fs, e.cfg)

	result.Flags = e.flags(result)
	return result, nil
}

func (e *Engine) analyzeChannel(index int, name string, series []float64, fs float64) ChannelResult {
	result, err := e.AnalyzeChannel(index, name, series, fs)
	if err == nil {
		return result
	}

	var insufficient *InsufficientDataError
	if errors.As(err, &insufficient) {
		result.Unanalyzable = true
		result.Reason = insufficient.Reason
		return result
	}

	result.Unanalyzable = true
	result.Reason = err.Error()
	return result
}

// condition applies the configured zero-phase filters to the gap-filled
// series. With both filters disabled the series passes through untouched.
func (e *Engine) condition(series []float64, fs float64) ([]float64, error) {
	f := e.cfg.Filters
	out := series
	var err error
	if f.LowpassEnabled {
		if out, err = lowpass(out, fs, f.LowpassHz, f.LowpassOrder); err != nil {
			return nil, fmt.Errorf("low-pass filter: %w", err)
		}
	}
	if f.NotchEnabled {
		if out, err = notch(out, fs, f.NotchHz, f.NotchQ); err != nil {
			return nil, fmt.Errorf("notch filter: %w", err)
		}
	}
	return out, nil
}

func (e *Engine) flags(r ChannelResult) []Flag {
	var flags []Flag
	if r.Amplitude.PeakToPeak < e.cfg.MinPeakToPeak {
		flags = append(flags, FlagFlat)
	}
	if r.Amplitude.PeakToPeak > e.cfg.MaxPeakToPeak {
		flags = append(flags, FlagExcessiveAmplitude)
	}
	if r.Saturation.Fraction > e.cfg.MaxSaturatedRatio {
		flags = append(flags, FlagSaturated)
	}
	// A flat channel has no spectral power to attribute anywhere; the
	// flat flag already covers it.
	if outOfBand := 1 - r.Spectral.BandPowerFraction; r.Amplitude.PeakToPeak >= e.cfg.MinPeakToPeak && outOfBand > e.cfg.MaxOutOfBandRatio {
		flags = append(flags, FlagOutOfBandNoise)
	}
	return flags
}

// fillMissing replaces non-finite samples with the nearest preceding finite
// value so the filters and the FFT see contiguous data. Leading gaps take
// the first finite value.
func fillMissing(series []float64) []float64 {
	out := make([]float64, len(series))
	first := math.NaN()
	for _, v := range series {
		if isFinite(v) {
			first = v
			break
		}
	}
	last := first
	for i, v := range series {
		if isFinite(v) {
			last = v
		}
		out[i] = last
	}
	return out
}

func channelName(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("Channel %d", i+1)
}
