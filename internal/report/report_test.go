package report

import (
	"errors"
	"testing"
	"time"

	"github.com/neuroline/eeg-quality/internal/quality"
)

func testMetadata() Metadata {
	return Metadata{
		SourceFile:  "session.csv",
		SampleRate:  500,
		SampleCount: 5000,
		Duration:    10 * time.Second,
		GeneratedAt: time.Date(2025, 11, 3, 14, 30, 0, 0, time.UTC),
	}
}

func TestBuildSummary_Counts(t *testing.T) {
	results := []quality.ChannelResult{
		{Index: 0, Name: "Fp1"},
		{Index: 1, Name: "Fp2", Flags: []quality.Flag{quality.FlagFlat}},
		{Index: 2, Name: "Cz", Unanalyzable: true, Reason: "0 finite samples of 5000"},
		{Index: 3, Name: "Pz"},
	}

	s, err := BuildSummary(testMetadata(), quality.DefaultThresholds(), results)
	if err != nil {
		t.Fatalf("Failed to build summary: %v", err)
	}

	if s.Passed != 2 || s.Flagged != 1 || s.Unanalyzable != 1 {
		t.Errorf("Expected counts 2/1/1, got %d/%d/%d", s.Passed, s.Flagged, s.Unanalyzable)
	}
	if len(s.Channels) != len(results) {
		t.Fatalf("Expected %d channels, got %d", len(results), len(s.Channels))
	}
	for i, r := range s.Channels {
		if r.Index != results[i].Index {
			t.Errorf("Channel %d: expected index %d, got %d", i, results[i].Index, r.Index)
		}
	}
}

func TestBuildSummary_Empty(t *testing.T) {
	_, err := BuildSummary(testMetadata(), quality.DefaultThresholds(), nil)
	if err == nil {
		t.Fatal("Expected error for empty results")
	}

	var emptyErr *EmptyReportError
	if !errors.As(err, &emptyErr) {
		t.Errorf("Expected EmptyReportError, got %T", err)
	}
}
