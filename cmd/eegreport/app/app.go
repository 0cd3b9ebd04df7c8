package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/neuroline/eeg-quality/internal/quality"
	"github.com/neuroline/eeg-quality/internal/recording"
	"github.com/neuroline/eeg-quality/internal/report"
	"github.com/neuroline/eeg-quality/internal/storage"
)

// Run executes the full pipeline: load the recording, resolve channel
// names, analyze every channel, assemble the summary, render the PDF and
// archive the run. Per-channel failures degrade into unanalyzable report
// entries; only structural failures return an error.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	rec, header, err := loadRecording(config)
	if err != nil {
		return err
	}

	rate, rateSuffix := humanize.ComputeSI(rec.SampleRate())
	logger.Info("recording loaded",
		slog.String("source", rec.Source()),
		slog.Int("channels", rec.ChannelCount()),
		slog.String("samples", humanize.Comma(int64(rec.SampleCount()))),
		slog.String("sampleRate", fmt.Sprintf("%0.1f %sHz", rate, rateSuffix)),
		slog.Duration("duration", rec.Duration()),
	)

	names, err := resolveNames(rec, header, config.MappingFile)
	if err != nil {
		return err
	}

	thresholds := config.Settings.Thresholds()
	engine := quality.NewEngine(thresholds, quality.WithWorkers(config.Workers))

	started := time.Now()
	results, err := engine.Analyze(ctx, rec, names)
	if err != nil {
		return fmt.Errorf("analyzing channels: %w", err)
	}
	logger.Debug("analysis finished", slog.Duration("elapsed", time.Since(started)))

	for _, r := range results {
		if r.Unanalyzable {
			logger.Warn("channel could not be analyzed",
				slog.String("channel", r.Name),
				slog.String("reason", r.Reason))
		}
	}

	summary, err := report.BuildSummary(report.Metadata{
		SourceFile:  rec.Source(),
		SampleRate:  rec.SampleRate(),
		SampleCount: rec.SampleCount(),
		Duration:    rec.Duration(),
		GeneratedAt: time.Now(),
	}, thresholds, results)
	if err != nil {
		return fmt.Errorf("assembling report: %w", err)
	}

	if err := report.NewPDFRenderer().Render(config.OutputFile, summary); err != nil {
		return err
	}
	logger.Info("report written",
		slog.String("destination", config.OutputFile),
		slog.Int("passed", summary.Passed),
		slog.Int("flagged", summary.Flagged),
		slog.Int("unanalyzable", summary.Unanalyzable),
	)

	if config.ArchivePath != "" {
		if err := archiveRun(config.ArchivePath, summary, config.OutputFile); err != nil {
			return err
		}
		logger.Debug("run archived", slog.String("database", config.ArchivePath))
	}

	if err := SaveSettings(config.SettingsPath, config.Settings); err != nil {
		// Losing the persisted settings should not fail a finished run.
		logger.Warn(err.Error())
	}
	return nil
}

func loadRecording(config *Config) (*recording.Recording, []string, error) {
	switch strings.ToLower(filepath.Ext(config.InputFile)) {
	case ".edf":
		rec, err := recording.LoadEDF(config.InputFile, config.Settings.SampleRate)
		return rec, nil, err
	default:
		return recording.LoadCSV(config.InputFile, config.Settings.SampleRate)
	}
}

// resolveNames prefers an explicit mapping file over the CSV header row;
// both fall back to "Channel N" for unmapped indices.
func resolveNames(rec *recording.Recording, header []string, mappingFile string) ([]string, error) {
	mapped := header
	if mappingFile != "" {
		var err error
		if mapped, err = recording.LoadChannelMap(mappingFile); err != nil {
			return nil, err
		}
	}
	return recording.ResolveChannelNames(rec.ChannelCount(), mapped), nil
}

func archiveRun(dbPath string, summary *report.Summary, reportFile string) error {
	store := storage.New(dbPath)
	defer store.Close()

	run, channels := storage.RunFromSummary(summary, reportFile)
	if _, err := store.CreateRun(run, channels); err != nil {
		return fmt.Errorf("archiving run: %w", err)
	}
	return nil
}
