// Package modem implements the 16-QAM baseband modulation core:
// bit-to-symbol mapping, rectangular pulse shaping, and the inverse
// decimation and nearest-neighbor detection path.
package modem

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLength reports a bitstream whose length is not a
	// multiple of BitsPerSymbol.
	ErrInvalidLength = errors.New("bit count not a multiple of 4")

	// ErrMisalignedSamples reports a waveform whose length is not a
	// multiple of the samples-per-symbol factor.
	ErrMisalignedSamples = errors.New("sample count not a multiple of samples per symbol")

	// ErrInvalidConfig reports a non-positive samples-per-symbol value.
	ErrInvalidConfig = errors.New("samples per symbol must be positive")
)

// Modulator converts a bitstream into an oversampled complex baseband
// waveform. The constellation is shared by reference with the matching
// Demodulator and never mutated after construction.
type Modulator struct {
	constellation    *Constellation
	samplesPerSymbol int
}

// NewModulator creates a 16-QAM modulator with the given oversampling
// factor.
func NewModulator(samplesPerSymbol int) (*Modulator, error) {
	if samplesPerSymbol <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidConfig, samplesPerSymbol)
	}
	return &Modulator{
		constellation:    NewConstellation(),
		samplesPerSymbol: samplesPerSymbol,
	}, nil
}

// Constellation returns the modulator's constellation.
func (m *Modulator) Constellation() *Constellation {
	return m.constellation
}

// SamplesPerSymbol returns the oversampling factor.
func (m *Modulator) SamplesPerSymbol() int {
	return m.samplesPerSymbol
}

// MapSymbols maps bits (0/1 bytes, MSB first within each group of 4)
// to constellation symbols.
func (m *Modulator) MapSymbols(bits []byte) ([]complex128, error) {
	if len(bits)%BitsPerSymbol != 0 {
		return nil, fmt.Errorf("%w: got %d bits", ErrInvalidLength, len(bits))
	}
	return m.constellation.MapBits(bits), nil
}

// Modulate converts bits into the transmitted waveform:
// map to symbols, then hold each symbol for SamplesPerSymbol samples.
// The output length is len(bits)/4 * SamplesPerSymbol.
func (m *Modulator) Modulate(bits []byte) ([]complex128, error) {
	symbols, err := m.MapSymbols(bits)
	if err != nil {
		return nil, err
	}
	return Expand(symbols, m.samplesPerSymbol)
}

// Demodulator recovers a bitstream from a received waveform.
type Demodulator struct {
	constellation    *Constellation
	samplesPerSymbol int
}

// NewDemodulator creates a 16-QAM demodulator. samplesPerSymbol must
// match the value used on the transmit side.
func NewDemodulator(samplesPerSymbol int) (*Demodulator, error) {
	if samplesPerSymbol <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidConfig, samplesPerSymbol)
	}
	return &Demodulator{
		constellation:    NewConstellation(),
		samplesPerSymbol: samplesPerSymbol,
	}, nil
}

// Demodulate converts a received waveform back into bits. Each symbol
// period is averaged down to one decision value, which is then matched
// against the nearest constellation point. It returns the recovered
// bits and the decision values (one per symbol) for diagnostics.
func (d *Demodulator) Demodulate(samples []complex128) ([]byte, []complex128, error) {
	decisions, err := Decimate(samples, d.samplesPerSymbol)
	if err != nil {
		return nil, nil, fmt.Errorf("demodulate %d samples: %w", len(samples), err)
	}
	bits := d.constellation.DemapSymbols(decisions)
	return bits, decisions, nil
}
