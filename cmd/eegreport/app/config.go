package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/neuroline/eeg-quality/internal/quality"
)

const defaultSettingsFile = ".eegreport.yaml"

// Settings are the analysis parameters persisted between runs. They are
// loaded before analysis and saved back afterwards, so threshold tweaks
// survive to the next invocation.
type Settings struct {
	SampleRate float64 `yaml:"sampleRate"` // Hz

	SaturationVolts   float64 `yaml:"saturationVolts"`
	MaxSaturatedRatio float64 `yaml:"maxSaturatedRatio"`
	MinPeakToPeak     float64 `yaml:"minPeakToPeak"`
	MaxPeakToPeak     float64 `yaml:"maxPeakToPeak"`

	BandLow           float64 `yaml:"bandLow"`
	BandHigh          float64 `yaml:"bandHigh"`
	NoiseBandLow      float64 `yaml:"noiseBandLow"`
	NoiseBandHigh     float64 `yaml:"noiseBandHigh"`
	MaxOutOfBandRatio float64 `yaml:"maxOutOfBandRatio"`

	Filtering FilterSettings `yaml:"filtering"`
}

// FilterSettings control the optional signal conditioning.
type FilterSettings struct {
	LowpassEnabled bool    `yaml:"lowpassEnabled"`
	LowpassHz      float64 `yaml:"lowpassHz"`
	LowpassOrder   int     `yaml:"lowpassOrder"`
	NotchEnabled   bool    `yaml:"notchEnabled"`
	NotchHz        float64 `yaml:"notchHz"`
	NotchQ         float64 `yaml:"notchQ"`
}

// DefaultSettings returns the stock analysis parameters.
func DefaultSettings() Settings {
	t := quality.DefaultThresholds()
	return Settings{
		SampleRate:        500,
		SaturationVolts:   t.SaturationVolts,
		MaxSaturatedRatio: t.MaxSaturatedRatio,
		MinPeakToPeak:     t.MinPeakToPeak,
		MaxPeakToPeak:     t.MaxPeakToPeak,
		BandLow:           t.Band.Low,
		BandHigh:          t.Band.High,
		NoiseBandLow:      t.NoiseBand.Low,
		NoiseBandHigh:     t.NoiseBand.High,
		MaxOutOfBandRatio: t.MaxOutOfBandRatio,
		Filtering: FilterSettings{
			LowpassEnabled: t.Filters.LowpassEnabled,
			LowpassHz:      t.Filters.LowpassHz,
			LowpassOrder:   t.Filters.LowpassOrder,
			NotchEnabled:   t.Filters.NotchEnabled,
			NotchHz:        t.Filters.NotchHz,
			NotchQ:         t.Filters.NotchQ,
		},
	}
}

// Thresholds converts the settings into the engine's threshold config.
func (s Settings) Thresholds() quality.ThresholdConfig {
	return quality.ThresholdConfig{
		SaturationVolts:   s.SaturationVolts,
		MaxSaturatedRatio: s.MaxSaturatedRatio,
		MinPeakToPeak:     s.MinPeakToPeak,
		MaxPeakToPeak:     s.MaxPeakToPeak,
		Band:              quality.Band{Low: s.BandLow, High: s.BandHigh},
		NoiseBand:         quality.Band{Low: s.NoiseBandLow, High: s.NoiseBandHigh},
		MaxOutOfBandRatio: s.MaxOutOfBandRatio,
		Filters: quality.FilterConfig{
			LowpassEnabled: s.Filtering.LowpassEnabled,
			LowpassHz:      s.Filtering.LowpassHz,
			LowpassOrder:   s.Filtering.LowpassOrder,
			NotchEnabled:   s.Filtering.NotchEnabled,
			NotchHz:        s.Filtering.NotchHz,
			NotchQ:         s.Filtering.NotchQ,
		},
	}
}

// LoadSettings reads persisted settings; a missing file yields the
// defaults. Unknown fields are a hard error so typos do not silently fall
// back.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("reading settings '%s': %w", path, err)
	}

	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&settings); err != nil {
		return settings, fmt.Errorf("parsing settings '%s': %w", path, err)
	}
	return settings, nil
}

// SaveSettings writes the settings back for the next run.
func SaveSettings(path string, settings Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings '%s': %w", path, err)
	}
	return nil
}

// Config holds one run's validated inputs.
type Config struct {
	InputFile    string
	MappingFile  string
	OutputFile   string
	SettingsPath string
	ArchivePath  string
	Workers      int
	Verbose      bool

	Settings Settings
}

// NewConfigFromCLI builds the run configuration from flags and the
// persisted settings file. Flags that were set explicitly override the
// persisted values.
func NewConfigFromCLI() (*Config, error) {
	var c Config

	var sampleRate, saturation float64
	var filtering bool
	flag.StringVar(&c.InputFile, "i", "", "Path to the recording (.csv or .edf)")
	flag.StringVar(&c.MappingFile, "map", "", "Path to the channel name mapping file")
	flag.StringVar(&c.OutputFile, "o", "", "Path to the output PDF (default: <input>_report.pdf)")
	flag.StringVar(&c.SettingsPath, "settings", defaultSettingsFile, "Path to the persisted settings file")
	flag.StringVar(&c.ArchivePath, "archive", "", "Path to the run archive database (disabled when empty)")
	flag.IntVar(&c.Workers, "workers", 0, "Number of channels analyzed concurrently (0 = number of CPUs)")
	flag.Float64Var(&sampleRate, "rate", 0, "Sample rate in Hz (overrides the persisted setting)")
	flag.Float64Var(&saturation, "saturation", 0, "Saturation threshold in volts (overrides the persisted setting)")
	flag.BoolVar(&filtering, "filter", false, "Enable low-pass and notch conditioning before analysis")
	flag.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	flag.Parse()

	if c.InputFile == "" {
		flag.Usage()
		return nil, errors.New("input file is required")
	}

	settings, err := LoadSettings(c.SettingsPath)
	if err != nil {
		return nil, err
	}
	c.Settings = settings

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rate":
			c.Settings.SampleRate = sampleRate
		case "saturation":
			c.Settings.SaturationVolts = saturation
		case "filter":
			c.Settings.Filtering.LowpassEnabled = filtering
			c.Settings.Filtering.NotchEnabled = filtering
		}
	})

	if c.Settings.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %f", c.Settings.SampleRate)
	}

	if c.OutputFile == "" {
		ext := filepath.Ext(c.InputFile)
		c.OutputFile = strings.TrimSuffix(c.InputFile, ext) + "_report.pdf"
	}
	return &c, nil
}
