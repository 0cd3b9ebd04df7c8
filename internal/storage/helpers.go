package storage

import (
	"database/sql"
	"strings"

	"github.com/neuroline/eeg-quality/internal/quality"
	"github.com/neuroline/eeg-quality/internal/report"
)

// RunFromSummary converts a report summary into the archive rows for one
// run. Metric columns stay NULL for unanalyzable channels.
func RunFromSummary(summary *report.Summary, reportFile string) (RunData, []ChannelResultData) {
	run := RunData{
		SourceFile:        summary.SourceFile,
		ReportFile:        reportFile,
		SampleRate:        summary.SampleRate,
		DurationSeconds:   summary.Duration.Seconds(),
		ChannelCount:      int64(len(summary.Channels)),
		FlaggedCount:      int64(summary.Flagged),
		UnanalyzableCount: int64(summary.Unanalyzable),
	}

	channels := make([]ChannelResultData, len(summary.Channels))
	for i, c := range summary.Channels {
		channels[i] = toChannelResultData(c)
	}
	return run, channels
}

func toChannelResultData(c quality.ChannelResult) ChannelResultData {
	data := ChannelResultData{
		ChannelIndex: int64(c.Index),
		Name:         c.Name,
		Passed:       c.Passed(),
		Unanalyzable: c.Unanalyzable,
		Reason: sql.NullString{
			String: c.Reason,
			Valid:  c.Reason != "",
		},
	}
	if c.Unanalyzable {
		return data
	}

	data.MinVolts = validFloat(c.Amplitude.Min)
	data.MaxVolts = validFloat(c.Amplitude.Max)
	data.PeakToPeak = validFloat(c.Amplitude.PeakToPeak)
	data.RobustPeakToPeak = validFloat(c.Amplitude.RobustPeakToPeak)
	data.DCDrift = validFloat(c.Amplitude.DCDriftRange)
	data.SaturatedCount = sql.NullInt64{Int64: int64(c.Saturation.Count), Valid: true}
	data.SaturatedRun = sql.NullInt64{Int64: int64(c.Saturation.LongestRun), Valid: true}
	data.SaturatedFraction = validFloat(c.Saturation.Fraction)
	data.DominantFreq = validFloat(c.Spectral.DominantFrequency)
	data.BandPowerFraction = validFloat(c.Spectral.BandPowerFraction)
	data.BandSNR = validFloat(c.Spectral.BandSNR)

	if len(c.Flags) > 0 {
		flags := make([]string, len(c.Flags))
		for i, f := range c.Flags {
			flags[i] = string(f)
		}
		data.Flags = sql.NullString{String: strings.Join(flags, ","), Valid: true}
	}
	return data
}

func validFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}
