package app

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Sample rate limits supported by the hardware. Preferred rates are 8, 10,
// 12.5, 16 and 20 MHz due to less jitter; anything in range works.
const (
	MinSampleRate = 2_000_000
	MaxSampleRate = 20_000_000
)

// RxConfig configures a capture run. The gain fields are pointers so that an
// absent value means "leave the device default alone" while an explicit zero
// still configures 0 dB.
type RxConfig struct {
	Frequency       uint64 `yaml:"frequency"`       // Center frequency in Hz
	SampleRate      uint32 `yaml:"sampleRate"`      // Sample rate in Hz
	FilterBandwidth uint32 `yaml:"filterBandwidth"` // 0 selects 75% of the sample rate
	LNAGain         *int   `yaml:"lnaGain"`         // 0-40 dB, 8 dB steps
	VGAGain         *int   `yaml:"vgaGain"`         // 0-62 dB, 2 dB steps
	EnableAmp       bool   `yaml:"enableAmp"`       // RX RF amplifier
	AntennaPower    bool   `yaml:"antennaPower"`    // Antenna port power
	Serial          string `yaml:"serial"`          // Board serial number, empty for any

	Output OutputConfig `yaml:"output"`
}

// OutputConfig selects where samples go. At least one destination is
// required; both may be set.
type OutputConfig struct {
	Database string `yaml:"database"` // capture database path
	RawFile  string `yaml:"rawFile"`  // raw iq8 file path
}

func (c *RxConfig) Validate() error {
	if c.Frequency == 0 {
		return errors.New("app.RxConfig: frequency is required")
	}
	if c.SampleRate < MinSampleRate || c.SampleRate > MaxSampleRate {
		return fmt.Errorf("app.RxConfig: sample rate must be between %d and %d Hz: %d given",
			MinSampleRate, MaxSampleRate, c.SampleRate)
	}
	if c.Output.Database == "" && c.Output.RawFile == "" {
		return errors.New("app.RxConfig: at least one output (database or raw file) is required")
	}
	return nil
}

// LoadRxConfig reads and validates a YAML capture configuration.
func LoadRxConfig(path string) (*RxConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration file: %w", err)
	}

	var config RxConfig
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing configuration file: %w", err)
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// WaterfallConfig configures rendering of a recorded session.
type WaterfallConfig struct {
	Database  string
	SessionID int64
	Output    string
	FFTSize   int
	FontPath  string
}

func (c *WaterfallConfig) Validate() error {
	if c.Database == "" {
		return errors.New("app.WaterfallConfig: capture database is required")
	}
	if c.FFTSize < 2 || c.FFTSize&(c.FFTSize-1) != 0 {
		return fmt.Errorf("app.WaterfallConfig: FFT size must be a power of two: %d given", c.FFTSize)
	}
	return nil
}
