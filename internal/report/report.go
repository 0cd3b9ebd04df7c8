package report

import (
	"time"

	"github.com/neuroline/eeg-quality/internal/quality"
)

// EmptyReportError indicates that no channel results were supplied; a
// zero-page report is invalid output, so the run aborts.
type EmptyReportError struct{}

func (e *EmptyReportError) Error() string {
	return "no channel results to report"
}

// Metadata carries the recording-level facts shown on the summary page.
type Metadata struct {
	SourceFile  string
	SampleRate  float64 // Hz
	SampleCount int
	Duration    time.Duration
	GeneratedAt time.Time
}

// Summary aggregates the ordered per-channel results with recording
// metadata. It is the terminal artifact handed to the PDF renderer and is
// never mutated after construction.
type Summary struct {
	Metadata

	Thresholds quality.ThresholdConfig
	Channels   []quality.ChannelResult

	Passed       int
	Flagged      int
	Unanalyzable int
}

// BuildSummary assembles a Summary from the ordered channel results. It is
// pure aggregation: metrics are never recomputed and channel ordering is
// preserved. An empty result sequence returns an EmptyReportError.
func BuildSummary(meta Metadata, thresholds quality.ThresholdConfig, results []quality.ChannelResult) (*Summary, error) {
	if len(results) == 0 {
		return nil, &EmptyReportError{}
	}

	s := Summary{
		Metadata:   meta,
		Thresholds: thresholds,
		Channels:   results,
	}
	for _, r := range results {
		switch {
		case r.Unanalyzable:
			s.Unanalyzable++
		case len(r.Flags) > 0:
			s.Flagged++
		default:
			s.Passed++
		}
	}
	return &s, nil
}
