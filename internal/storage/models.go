package storage

import (
	"database/sql"
	"time"
)

// RunData represents one archived analysis run.
type RunData struct {
	ID                int64
	CreatedAt         time.Time
	SourceFile        string
	ReportFile        string
	SampleRate        float64
	DurationSeconds   float64
	ChannelCount      int64
	FlaggedCount      int64
	UnanalyzableCount int64
}

// ChannelResultData represents one channel's archived metrics within a run.
type ChannelResultData struct {
	ID           int64
	RunID        int64
	ChannelIndex int64
	Name         string
	Passed       bool
	Unanalyzable bool
	Reason       sql.NullString

	MinVolts          sql.NullFloat64
	MaxVolts          sql.NullFloat64
	PeakToPeak        sql.NullFloat64
	RobustPeakToPeak  sql.NullFloat64
	DCDrift           sql.NullFloat64
	SaturatedCount    sql.NullInt64
	SaturatedRun      sql.NullInt64
	SaturatedFraction sql.NullFloat64
	DominantFreq      sql.NullFloat64
	BandPowerFraction sql.NullFloat64
	BandSNR           sql.NullFloat64
	Flags             sql.NullString
}
