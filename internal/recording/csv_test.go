package recording

import (
	"math"
	"strings"
	"testing"
)

func TestReadCSV_HeaderDetection(t *testing.T) {
	input := "Fp1,Fp2,Cz\n0.1,0.2,0.3\n0.4,0.5,0.6\n"
	rec, header, err := readCSV(strings.NewReader(input), "test.csv", 500)
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}

	if len(header) != 3 {
		t.Fatalf("Expected 3 header names, got %d", len(header))
	}
	if header[0] != "Fp1" || header[2] != "Cz" {
		t.Errorf("Unexpected header names: %v", header)
	}
	if rec.ChannelCount() != 3 {
		t.Errorf("Expected 3 channels, got %d", rec.ChannelCount())
	}
	if rec.SampleCount() != 2 {
		t.Errorf("Expected 2 samples, got %d", rec.SampleCount())
	}
	if got := rec.Series(1)[1]; got != 0.5 {
		t.Errorf("Expected sample 0.5, got %f", got)
	}
}

func TestReadCSV_NoHeader(t *testing.T) {
	input := "0.1,0.2\n0.3,0.4\n"
	rec, header, err := readCSV(strings.NewReader(input), "test.csv", 500)
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}

	if header != nil {
		t.Errorf("Expected no header, got %v", header)
	}
	if rec.SampleCount() != 2 {
		t.Errorf("Expected 2 samples, got %d", rec.SampleCount())
	}
}

func TestReadCSV_UnparsableFieldsBecomeNaN(t *testing.T) {
	input := "0.1,bad\n0.2,0.4\n"
	rec, _, err := readCSV(strings.NewReader(input), "test.csv", 500)
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}

	if got := rec.Series(1)[0]; !math.IsNaN(got) {
		t.Errorf("Expected NaN for unparsable field, got %f", got)
	}
	if got := rec.Series(1)[1]; got != 0.4 {
		t.Errorf("Expected 0.4, got %f", got)
	}
}

func TestReadCSV_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"empty file", ""},
		{"ragged rows", "0.1,0.2\n0.3\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := readCSV(strings.NewReader(tc.input), "test.csv", 500); err == nil {
				t.Error("Expected error for malformed input")
			}
		})
	}
}

func TestRecording_Duration(t *testing.T) {
	rec, err := New("test", 500, [][]float64{make([]float64, 1500)})
	if err != nil {
		t.Fatalf("Failed to create recording: %v", err)
	}
	if got, want := rec.Duration().Seconds(), 3.0; got != want {
		t.Errorf("Expected duration %.1fs, got %.1fs", want, got)
	}
}

func TestNew_Invalid(t *testing.T) {
	if _, err := New("test", 0, nil); err == nil {
		t.Error("Expected error for zero sample rate")
	}
	if _, err := New("test", 500, [][]float64{{1, 2}, {1}}); err == nil {
		t.Error("Expected error for mismatched channel lengths")
	}
}
