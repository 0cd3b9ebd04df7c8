package app

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadSettings_MissingFileYieldsDefaults(t *testing.T) {
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}
	if !reflect.DeepEqual(settings, DefaultSettings()) {
		t.Errorf("Expected defaults, got %+v", settings)
	}
}

func TestSettings_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	settings := DefaultSettings()
	settings.SampleRate = 256
	settings.SaturationVolts = 2.5
	settings.Filtering.NotchEnabled = true
	settings.Filtering.NotchHz = 50

	if err := SaveSettings(path, settings); err != nil {
		t.Fatalf("Failed to save settings: %v", err)
	}

	loaded, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}
	if !reflect.DeepEqual(loaded, settings) {
		t.Errorf("Expected %+v, got %+v", settings, loaded)
	}
}

func TestLoadSettings_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("sampleRate: 256\n"), 0o644); err != nil {
		t.Fatalf("Failed to write settings file: %v", err)
	}

	loaded, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if loaded.SampleRate != 256 {
		t.Errorf("Expected sample rate 256, got %f", loaded.SampleRate)
	}
	defaults := DefaultSettings()
	if loaded.SaturationVolts != defaults.SaturationVolts {
		t.Errorf("Expected default saturation threshold, got %f", loaded.SaturationVolts)
	}
}

func TestLoadSettings_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("sampleRtae: 256\n"), 0o644); err != nil {
		t.Fatalf("Failed to write settings file: %v", err)
	}

	if _, err := LoadSettings(path); err == nil {
		t.Error("Expected error for an unknown field")
	}
}

func TestSettings_Thresholds(t *testing.T) {
	settings := DefaultSettings()
	settings.BandLow = 4
	settings.BandHigh = 8
	settings.Filtering.LowpassEnabled = true

	cfg := settings.Thresholds()
	if cfg.Band.Low != 4 || cfg.Band.High != 8 {
		t.Errorf("Unexpected band: %+v", cfg.Band)
	}
	if !cfg.Filters.LowpassEnabled {
		t.Error("Expected the low-pass filter to be enabled")
	}
	if cfg.SaturationVolts != settings.SaturationVolts {
		t.Errorf("Expected saturation threshold %f, got %f", settings.SaturationVolts, cfg.SaturationVolts)
	}
}
