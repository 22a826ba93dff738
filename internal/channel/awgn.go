// Package channel simulates the transmission medium: optional linear
// attenuation followed by additive white Gaussian noise on a complex
// baseband waveform.
package channel

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrInvalidConfig reports a negative noise variance or attenuation.
var ErrInvalidConfig = errors.New("invalid channel configuration")

// NoiseSource produces one complex noise value per call. Implementations
// must be zero-mean; the channel adds the samples as-is.
type NoiseSource interface {
	Sample() complex128
}

// GaussianSource draws circularly symmetric complex Gaussian noise:
// real and imaginary parts are independent, each N(0, variance/2), so
// the total complex variance equals the configured value.
type GaussianSource struct {
	rng   *rand.Rand
	sigma float64 // per-component standard deviation
}

// NewGaussianSource creates a seeded Gaussian noise source with the
// given total complex variance.
func NewGaussianSource(seed int64, variance float64) *GaussianSource {
	return &GaussianSource{
		rng:   rand.New(rand.NewSource(seed)),
		sigma: math.Sqrt(variance / 2),
	}
}

// Sample returns one complex noise draw.
func (g *GaussianSource) Sample() complex128 {
	return complex(g.rng.NormFloat64()*g.sigma, g.rng.NormFloat64()*g.sigma)
}

// Silent is a NoiseSource that adds nothing. Useful for deterministic
// round-trip tests.
type Silent struct{}

// Sample returns zero.
func (Silent) Sample() complex128 { return 0 }

// Config holds the channel parameters.
type Config struct {
	// NoiseVariance is the total variance of the injected complex
	// noise (split evenly between the real and imaginary parts).
	NoiseVariance float64

	// Attenuation is a linear scale applied to the transmitted
	// waveform before noise. Zero means no attenuation (gain 1).
	Attenuation float64

	// Seed seeds the noise source. Zero selects a random seed, so
	// each run differs.
	Seed int64
}

// Channel adds noise (and optional attenuation) to a waveform.
type Channel struct {
	attenuation float64
	src         NoiseSource
}

// New creates a channel from a configuration, with a Gaussian noise
// source.
func New(cfg Config) (*Channel, error) {
	if cfg.NoiseVariance < 0 {
		return nil, fmt.Errorf("%w: noise variance %v", ErrInvalidConfig, cfg.NoiseVariance)
	}
	if cfg.Attenuation < 0 {
		return nil, fmt.Errorf("%w: attenuation %v", ErrInvalidConfig, cfg.Attenuation)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	return NewWithSource(cfg.Attenuation, NewGaussianSource(seed, cfg.NoiseVariance)), nil
}

// NewWithSource creates a channel with an injected noise source.
// attenuation <= 0 is treated as gain 1.
func NewWithSource(attenuation float64, src NoiseSource) *Channel {
	if attenuation <= 0 {
		attenuation = 1
	}
	return &Channel{attenuation: attenuation, src: src}
}

// Transmit passes a waveform through the channel and returns the
// received waveform. The input is never mutated.
func (c *Channel) Transmit(tx []complex128) []complex128 {
	rx := make([]complex128, len(tx))
	att := complex(c.attenuation, 0)
	for i, s := range tx {
		rx[i] = s*att + c.src.Sample()
	}
	return rx
}

// SignalPower returns the average power of a waveform.
func SignalPower(x []complex128) float64 {
	if len(x) == 0 {
		return 0
	}
	var p float64
	for _, s := range x {
		p += real(s)*real(s) + imag(s)*imag(s)
	}
	return p / float64(len(x))
}

// VarianceForSNR converts a target signal-to-noise ratio in dB into
// the noise variance needed for the given waveform:
// Pn = Pm / 10^(SNR/10).
func VarianceForSNR(signal []complex128, snrDB float64) float64 {
	return SignalPower(signal) / math.Pow(10, snrDB/10)
}
