package recording

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// LoadCSV reads a recording from a CSV file where each row is one time
// sample and each column is one channel. An optional single header row with
// channel names is detected and skipped; the names it carries are returned
// so they can seed channel naming when no mapping file is supplied.
//
// Fields that do not parse as numbers become NaN and are treated as missing
// by the analysis engine. Rows with a different column count than the first
// row are a load error.
func LoadCSV(path string, sampleRate float64) (*Recording, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening recording: %w", err)
	}
	defer f.Close()

	rec, header, err := readCSV(f, path, sampleRate)
	if err != nil {
		return nil, nil, fmt.Errorf("reading recording '%s': %w", path, err)
	}
	return rec, header, nil
}

func readCSV(r io.Reader, source string, sampleRate float64) (*Recording, []string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	first, err := cr.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, nil, err
	}

	var header []string
	series := make([][]float64, len(first))
	if isHeaderRow(first) {
		header = make([]string, len(first))
		for i, name := range first {
			header[i] = strings.TrimSpace(name)
		}
	} else {
		appendSample(series, first)
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if len(row) != len(series) {
			return nil, nil, fmt.Errorf("row has %d fields, expected %d", len(row), len(series))
		}
		appendSample(series, row)
	}

	rec, err := New(source, sampleRate, series)
	if err != nil {
		return nil, nil, err
	}
	return rec, header, nil
}

// isHeaderRow reports whether no field of the row parses as a number, which
// is how a channel-name header is told apart from the first sample.
func isHeaderRow(row []string) bool {
	for _, field := range row {
		if _, err := strconv.ParseFloat(strings.TrimSpace(field), 64); err == nil {
			return false
		}
	}
	return true
}

func appendSample(series [][]float64, row []string) {
	for i, field := range row {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			v = math.NaN()
		}
		series[i] = append(series[i], v)
	}
}
