package channel

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsNegativeVariance(t *testing.T) {
	_, err := New(Config{NoiseVariance: -1})
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(Config{NoiseVariance: 1, Attenuation: -0.5})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestTransmit_ZeroNoisePassthrough(t *testing.T) {
	ch := NewWithSource(0, Silent{})

	tx := []complex128{1 + 1i, -1 - 1i, 3 - 3i}
	rx := ch.Transmit(tx)

	assert.Equal(t, tx, rx)
}

func TestTransmit_DoesNotMutateInput(t *testing.T) {
	ch, err := New(Config{NoiseVariance: 1, Seed: 42})
	require.NoError(t, err)

	tx := []complex128{1 + 1i, -1 - 1i}
	orig := append([]complex128(nil), tx...)
	_ = ch.Transmit(tx)

	assert.Equal(t, orig, tx)
}

func TestTransmit_Attenuation(t *testing.T) {
	ch := NewWithSource(0.5, Silent{})

	rx := ch.Transmit([]complex128{2 + 4i})
	assert.InDelta(t, 1, real(rx[0]), 1e-12)
	assert.InDelta(t, 2, imag(rx[0]), 1e-12)
}

func TestTransmit_SeededReproducibility(t *testing.T) {
	tx := make([]complex128, 64)
	for i := range tx {
		tx[i] = complex(float64(i%4), float64(-i%3))
	}

	ch1, err := New(Config{NoiseVariance: 0.3, Seed: 99})
	require.NoError(t, err)
	ch2, err := New(Config{NoiseVariance: 0.3, Seed: 99})
	require.NoError(t, err)

	assert.Equal(t, ch1.Transmit(tx), ch2.Transmit(tx))
}

func TestGaussianSource_Statistics(t *testing.T) {
	const n = 200000
	const variance = 2.0
	src := NewGaussianSource(1, variance)

	var sum complex128
	var power float64
	for i := 0; i < n; i++ {
		s := src.Sample()
		sum += s
		power += real(s)*real(s) + imag(s)*imag(s)
	}

	mean := sum / complex(n, 0)
	assert.Less(t, cmplx.Abs(mean), 0.02, "noise mean should be near zero")
	assert.InDelta(t, variance, power/n, 0.05, "noise power should match configured variance")
}

func TestVarianceForSNR(t *testing.T) {
	// Unit-power signal at 10 dB SNR needs variance 0.1.
	signal := []complex128{1, 1i, -1, -1i}
	v := VarianceForSNR(signal, 10)
	assert.InDelta(t, 0.1, v, 1e-12)

	// 0 dB means noise power equals signal power.
	assert.InDelta(t, 1.0, VarianceForSNR(signal, 0), 1e-12)
}

func TestSignalPower(t *testing.T) {
	assert.Equal(t, 0.0, SignalPower(nil))
	assert.InDelta(t, 2.0, SignalPower([]complex128{1 + 1i, -1 - 1i}), 1e-12)
	assert.InDelta(t, math.Pow(3, 2), SignalPower([]complex128{3}), 1e-12)
}
