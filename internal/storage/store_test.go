package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/neuroline/eeg-quality/internal/quality"
	"github.com/neuroline/eeg-quality/internal/report"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "runs.db"))
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})
	return s
}

func testRun() (RunData, []ChannelResultData) {
	run := RunData{
		SourceFile:        "session.csv",
		ReportFile:        "session_report.pdf",
		SampleRate:        500,
		DurationSeconds:   10,
		ChannelCount:      2,
		FlaggedCount:      1,
		UnanalyzableCount: 1,
	}
	channels := []ChannelResultData{
		{
			ChannelIndex:      0,
			Name:              "Fp1",
			PeakToPeak:        sql.NullFloat64{Float64: 0.002, Valid: true},
			DominantFreq:      sql.NullFloat64{Float64: 10.25, Valid: true},
			BandPowerFraction: sql.NullFloat64{Float64: 0.91, Valid: true},
			Flags:             sql.NullString{String: "saturated", Valid: true},
		},
		{
			ChannelIndex: 1,
			Name:         "Fp2",
			Unanalyzable: true,
			Reason:       sql.NullString{String: "0 finite samples of 5000", Valid: true},
		},
	}
	return run, channels
}

func TestStore_CreateAndListRuns(t *testing.T) {
	s := testStore(t)

	run, channels := testRun()
	runID, err := s.CreateRun(run, channels)
	if err != nil {
		t.Fatalf("Failed to create run: %v", err)
	}
	if runID == 0 {
		t.Error("Expected a non-zero run ID")
	}

	runs, err := s.Runs()
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(runs))
	}

	got := runs[0]
	if got.ID != runID {
		t.Errorf("Expected run ID %d, got %d", runID, got.ID)
	}
	if got.SourceFile != run.SourceFile || got.ReportFile != run.ReportFile {
		t.Errorf("Unexpected run files: %q / %q", got.SourceFile, got.ReportFile)
	}
	if got.ChannelCount != 2 || got.FlaggedCount != 1 || got.UnanalyzableCount != 1 {
		t.Errorf("Unexpected run counts: %d/%d/%d", got.ChannelCount, got.FlaggedCount, got.UnanalyzableCount)
	}
	if got.CreatedAt.IsZero() {
		t.Error("Expected a creation timestamp")
	}
}

func TestStore_ChannelResults(t *testing.T) {
	s := testStore(t)

	run, channels := testRun()
	runID, err := s.CreateRun(run, channels)
	if err != nil {
		t.Fatalf("Failed to create run: %v", err)
	}

	results, err := s.ChannelResults(runID)
	if err != nil {
		t.Fatalf("Failed to list channel results: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 channel results, got %d", len(results))
	}

	first := results[0]
	if first.Name != "Fp1" || first.ChannelIndex != 0 {
		t.Errorf("Unexpected first channel: %q index %d", first.Name, first.ChannelIndex)
	}
	if !first.PeakToPeak.Valid || first.PeakToPeak.Float64 != 0.002 {
		t.Errorf("Unexpected peak-to-peak: %+v", first.PeakToPeak)
	}
	if first.Flags.String != "saturated" {
		t.Errorf("Unexpected flags: %q", first.Flags.String)
	}

	second := results[1]
	if !second.Unanalyzable {
		t.Error("Expected the second channel to be unanalyzable")
	}
	if second.MinVolts.Valid {
		t.Error("Expected NULL metrics for an unanalyzable channel")
	}
	if second.Reason.String != "0 finite samples of 5000" {
		t.Errorf("Unexpected reason: %q", second.Reason.String)
	}
}

func TestStore_ChannelResults_UnknownRun(t *testing.T) {
	s := testStore(t)

	run, channels := testRun()
	if _, err := s.CreateRun(run, channels); err != nil {
		t.Fatalf("Failed to create run: %v", err)
	}

	results, err := s.ChannelResults(9999)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no results for an unknown run, got %d", len(results))
	}
}

func TestRunFromSummary(t *testing.T) {
	summary := &report.Summary{
		Metadata: report.Metadata{
			SourceFile:  "session.csv",
			SampleRate:  500,
			SampleCount: 5000,
			Duration:    10 * time.Second,
		},
		Channels: []quality.ChannelResult{
			{
				Index: 0,
				Name:  "Fp1",
				Amplitude: quality.AmplitudeMetrics{
					Min:        -0.001,
					Max:        0.001,
					PeakToPeak: 0.002,
				},
				Spectral: quality.SpectralMetrics{DominantFrequency: 10.25},
				Flags:    []quality.Flag{quality.FlagSaturated, quality.FlagFlat},
			},
			{
				Index:        1,
				Name:         "Fp2",
				Unanalyzable: true,
				Reason:       "no usable samples",
			},
		},
		Flagged:      1,
		Unanalyzable: 1,
	}

	run, channels := RunFromSummary(summary, "session_report.pdf")

	if run.SourceFile != "session.csv" || run.ReportFile != "session_report.pdf" {
		t.Errorf("Unexpected run files: %q / %q", run.SourceFile, run.ReportFile)
	}
	if run.DurationSeconds != 10 {
		t.Errorf("Expected duration 10s, got %f", run.DurationSeconds)
	}
	if run.ChannelCount != 2 || run.FlaggedCount != 1 || run.UnanalyzableCount != 1 {
		t.Errorf("Unexpected counts: %d/%d/%d", run.ChannelCount, run.FlaggedCount, run.UnanalyzableCount)
	}

	if channels[0].Flags.String != "saturated,flat" {
		t.Errorf("Unexpected flags: %q", channels[0].Flags.String)
	}
	if channels[0].Passed {
		t.Error("Expected a flagged channel to be marked failed")
	}
	if channels[1].PeakToPeak.Valid {
		t.Error("Expected NULL metrics for an unanalyzable channel")
	}
	if !channels[1].Reason.Valid || channels[1].Reason.String != "no usable samples" {
		t.Errorf("Unexpected reason: %+v", channels[1].Reason)
	}
}
