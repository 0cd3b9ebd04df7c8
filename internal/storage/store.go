package storage

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store archives analysis runs and their per-channel results in SQLite.
// Connections are opened lazily: a writable one for archiving, a read-only
// one for listing, each created at most once.
type Store struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// New creates a store backed by the database file at dbPath. The schema is
// initialized on first write.
func New(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(schemaSQL)
	return err
}

func (s *Store) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", s.dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
		if err != nil {
			s.writeDBErr = err
			return
		}

		if err = initSchema(db); err != nil {
			_ = db.Close()
			s.writeDBErr = err
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *Store) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", s.dbPath+"?mode=ro")
		if err != nil {
			s.readDBErr = err
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

const insertRunSQL = `
INSERT INTO runs (created_at,
                  source_file,
                  report_file,
                  sample_rate,
                  duration_seconds,
                  channel_count,
                  flagged_count,
                  unanalyzable_count)
VALUES (CURRENT_TIMESTAMP, ?, ?, ?, ?, ?, ?, ?)`

const insertChannelResultSQL = `
INSERT INTO channel_results (run_id,
                             channel_index,
                             name,
                             passed,
                             unanalyzable,
                             reason,
                             min_volts,
                             max_volts,
                             peak_to_peak,
                             robust_peak_to_peak,
                             dc_drift,
                             saturated_count,
                             saturated_run,
                             saturated_fraction,
                             dominant_freq,
                             band_power_fraction,
                             band_snr,
                             flags)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// CreateRun stores a run and its channel results in a single transaction
// and returns the new run ID.
func (s *Store) CreateRun(run RunData, channels []ChannelResultData) (runID int64, err error) {
	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	tx, err := db.Begin()
	if err != nil {
		err = fmt.Errorf("beginning transaction: %w", err)
		return
	}
	defer func() {
		if err != nil {
			rollbackWithError(tx, &err)
		}
	}()

	result, err := tx.Exec(insertRunSQL,
		run.SourceFile,
		run.ReportFile,
		run.SampleRate,
		run.DurationSeconds,
		run.ChannelCount,
		run.FlaggedCount,
		run.UnanalyzableCount)
	if err != nil {
		err = fmt.Errorf("inserting run: %w", err)
		return
	}

	if runID, err = result.LastInsertId(); err != nil {
		err = fmt.Errorf("reading run id: %w", err)
		return
	}

	stmt, err := tx.Prepare(insertChannelResultSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	for _, c := range channels {
		if _, err = stmt.Exec(
			runID,
			c.ChannelIndex,
			c.Name,
			c.Passed,
			c.Unanalyzable,
			c.Reason,
			c.MinVolts,
			c.MaxVolts,
			c.PeakToPeak,
			c.RobustPeakToPeak,
			c.DCDrift,
			c.SaturatedCount,
			c.SaturatedRun,
			c.SaturatedFraction,
			c.DominantFreq,
			c.BandPowerFraction,
			c.BandSNR,
			c.Flags,
		); err != nil {
			err = fmt.Errorf("inserting channel result: %w", err)
			return
		}
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("committing run: %w", err)
	}
	return
}

const selectRunsSQL = `
SELECT
    id,
    created_at,
    source_file,
    report_file,
    sample_rate,
    duration_seconds,
    channel_count,
    flagged_count,
    unanalyzable_count
FROM runs
ORDER BY created_at`

// Runs returns all archived runs ordered by creation time.
func (s *Store) Runs() (runs []RunData, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.Query(selectRunsSQL)
	if err != nil {
		err = fmt.Errorf("querying runs: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var r RunData
		if err = rows.Scan(
			&r.ID,
			&r.CreatedAt,
			&r.SourceFile,
			&r.ReportFile,
			&r.SampleRate,
			&r.DurationSeconds,
			&r.ChannelCount,
			&r.FlaggedCount,
			&r.UnanalyzableCount,
		); err != nil {
			err = fmt.Errorf("scanning run: %w", err)
			return
		}
		runs = append(runs, r)
	}
	err = rows.Err()
	return
}

const selectChannelResultsSQL = `
SELECT
    id,
    run_id,
    channel_index,
    name,
    passed,
    unanalyzable,
    reason,
    min_volts,
    max_volts,
    peak_to_peak,
    robust_peak_to_peak,
    dc_drift,
    saturated_count,
    saturated_run,
    saturated_fraction,
    dominant_freq,
    band_power_fraction,
    band_snr,
    flags
FROM channel_results
WHERE
    run_id = ?
ORDER BY channel_index`

// ChannelResults returns the archived channel results of a run in channel
// order.
func (s *Store) ChannelResults(runID int64) (results []ChannelResultData, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.Query(selectChannelResultsSQL, runID)
	if err != nil {
		err = fmt.Errorf("querying channel results: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var c ChannelResultData
		if err = rows.Scan(
			&c.ID,
			&c.RunID,
			&c.ChannelIndex,
			&c.Name,
			&c.Passed,
			&c.Unanalyzable,
			&c.Reason,
			&c.MinVolts,
			&c.MaxVolts,
			&c.PeakToPeak,
			&c.RobustPeakToPeak,
			&c.DCDrift,
			&c.SaturatedCount,
			&c.SaturatedRun,
			&c.SaturatedFraction,
			&c.DominantFreq,
			&c.BandPowerFraction,
			&c.BandSNR,
			&c.Flags,
		); err != nil {
			err = fmt.Errorf("scanning channel result: %w", err)
			return
		}
		results = append(results, c)
	}
	err = rows.Err()
	return
}

// Close releases the database connections. It is safe to call multiple
// times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.writeDB != nil {
			errs = append(errs, s.writeDB.Close())
		}
		if s.readDB != nil {
			errs = append(errs, s.readDB.Close())
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && *err == nil {
		*err = cErr
	}
}
