package sim

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jeongseonghan/qamlink/internal/stats"
)

// ErrInvalidConfig reports a configuration that fails validation.
var ErrInvalidConfig = errors.New("invalid simulation configuration")

// Config holds every knob of a link simulation run.
type Config struct {
	// SamplesPerSymbol is the oversampling factor of the pulse shaper.
	SamplesPerSymbol int `yaml:"samples_per_symbol"`

	// NoiseVariance is the total complex noise variance of the AWGN
	// channel. Ignored when SNRdB is set.
	NoiseVariance float64 `yaml:"noise_variance"`

	// SNRdB, when non-nil, derives the noise variance from the
	// measured transmitted signal power instead of NoiseVariance.
	SNRdB *float64 `yaml:"snr_db,omitempty"`

	// Attenuation is the linear channel gain applied before noise.
	// Zero means no attenuation.
	Attenuation float64 `yaml:"attenuation"`

	// Seed seeds the channel noise source. Zero means a fresh random
	// seed per run.
	Seed int64 `yaml:"seed"`

	// LagMin and LagMax bound the autocorrelation lag range,
	// inclusive.
	LagMin int `yaml:"lag_min"`
	LagMax int `yaml:"lag_max"`

	// Trials is the number of repeated channel realizations per noise
	// level in a sweep.
	Trials int `yaml:"trials"`
}

// DefaultConfig returns the parameters used when nothing is specified.
func DefaultConfig() Config {
	return Config{
		SamplesPerSymbol: 8,
		NoiseVariance:    0.01,
		LagMin:           -50,
		LagMax:           50,
		Trials:           10,
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration before a run.
func (c Config) Validate() error {
	if c.SamplesPerSymbol <= 0 {
		return fmt.Errorf("%w: samples_per_symbol %d", ErrInvalidConfig, c.SamplesPerSymbol)
	}
	if c.NoiseVariance < 0 {
		return fmt.Errorf("%w: noise_variance %v", ErrInvalidConfig, c.NoiseVariance)
	}
	if c.Attenuation < 0 {
		return fmt.Errorf("%w: attenuation %v", ErrInvalidConfig, c.Attenuation)
	}
	if c.LagMax < c.LagMin {
		return fmt.Errorf("%w: lag range [%d, %d]", ErrInvalidConfig, c.LagMin, c.LagMax)
	}
	if c.Trials <= 0 {
		return fmt.Errorf("%w: trials %d", ErrInvalidConfig, c.Trials)
	}
	return nil
}

// Lags expands the configured lag range.
func (c Config) Lags() []int {
	return stats.LagRange(c.LagMin, c.LagMax)
}
