package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/neuroline/eeg-quality/internal/storage"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var dbPath string
	var runID int64
	flag.StringVar(&dbPath, "db", "", "Path to the run archive database")
	flag.Int64Var(&runID, "r", 0, "Show channel results for a single run")
	flag.Parse()

	if dbPath == "" {
		flag.Usage()
		logger.Error("db path is required")
		os.Exit(1)
	}

	if err := run(dbPath, runID); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(dbPath string, runID int64) error {
	if _, err := os.Stat(dbPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", dbPath, err)
	}

	store := storage.New(dbPath)
	defer store.Close()

	if runID > 0 {
		return listChannels(store, runID)
	}
	return listRuns(store)
}

func listRuns(store *storage.Store) error {
	runs, err := store.Runs()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return errors.New("no archived runs found")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tSOURCE\tCHANNELS\tFLAGGED\tUNANALYZABLE\tREPORT")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID,
			r.CreatedAt.Local().Format(time.DateTime),
			r.SourceFile,
			r.ChannelCount,
			r.FlaggedCount,
			r.UnanalyzableCount,
			r.ReportFile,
		)
	}
	return w.Flush()
}

func listChannels(store *storage.Store, runID int64) error {
	results, err := store.ChannelResults(runID)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no channel results for run %d", runID)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tCHANNEL\tSTATUS\tPK-PK (V)\tSAT %\tDOMINANT (Hz)\tFLAGS")
	for _, c := range results {
		status := "PASS"
		switch {
		case c.Unanalyzable:
			status = "UNANALYZABLE"
		case !c.Passed:
			status = "FLAGGED"
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ChannelIndex+1,
			c.Name,
			status,
			nullFloat(c.PeakToPeak, "%.4f"),
			nullFloat(c.SaturatedFraction, "%.1f", 100),
			nullFloat(c.DominantFreq, "%.1f"),
			c.Flags.String,
		)
	}
	return w.Flush()
}

func nullFloat(v sql.NullFloat64, format string, scale ...float64) string {
	if !v.Valid {
		return "-"
	}
	f := v.Float64
	if len(scale) > 0 {
		f *= scale[0]
	}
	return fmt.Sprintf(format, f)
}
