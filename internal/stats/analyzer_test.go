package stats

import (
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeongseonghan/qamlink/internal/modem"
)

func randomWaveform(t *testing.T, numSymbols, fs int, seed int64) []complex128 {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	bits := make([]byte, numSymbols*modem.BitsPerSymbol)
	for i := range bits {
		bits[i] = byte(rng.Intn(2))
	}

	m, err := modem.NewModulator(fs)
	require.NoError(t, err)
	wave, err := m.Modulate(bits)
	require.NoError(t, err)
	return wave
}

func TestMean_Empty(t *testing.T) {
	assert.Equal(t, complex128(0), Mean(nil))
}

func TestMean_ConvergesToZero(t *testing.T) {
	// Equiprobable symbols on a zero-mean constellation: the time
	// average of a long waveform approaches zero.
	wave := randomWaveform(t, 10000, 8, 1)
	m := Mean(wave)
	assert.Less(t, cmplx.Abs(m), 0.05, "long-run mean should be near zero")
}

func TestAutocorrelation_EmptyLags(t *testing.T) {
	_, err := Autocorrelation([]complex128{1, 2}, nil)
	require.ErrorIs(t, err, ErrEmptyLags)
}

func TestAutocorrelation_LagOutOfRange(t *testing.T) {
	_, err := Autocorrelation([]complex128{1, 2}, []int{5})
	require.ErrorIs(t, err, ErrLagOutOfRange)
}

func TestAutocorrelation_ZeroLagIsPower(t *testing.T) {
	x := []complex128{1 + 1i, 1 - 1i, -1 + 1i}
	table, err := Autocorrelation(x, []int{0})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, real(table[0]), 1e-12)
	assert.InDelta(t, 0.0, imag(table[0]), 1e-12)
}

func TestAutocorrelation_ConjugateSymmetry(t *testing.T) {
	// R(-tau) = conj(R(tau)) for the biased estimator used here.
	wave := randomWaveform(t, 500, 4, 2)
	lags := LagRange(-16, 16)
	table, err := Autocorrelation(wave, lags)
	require.NoError(t, err)

	for tau := 1; tau <= 16; tau++ {
		diff := table[-tau] - cmplx.Conj(table[tau])
		assert.Less(t, cmplx.Abs(diff), 1e-9, "lag %d", tau)
	}
}

func TestAutocorrelation_DecaysPastSymbolPeriod(t *testing.T) {
	// Zero-order hold over fs samples correlates samples within a
	// symbol; independent symbols decorrelate beyond fs.
	const fs = 8
	wave := randomWaveform(t, 5000, fs, 3)

	table, err := Autocorrelation(wave, []int{0, fs / 2, fs, 2 * fs})
	require.NoError(t, err)

	r0 := cmplx.Abs(table[0])
	assert.Greater(t, cmplx.Abs(table[fs/2]), 0.3*r0, "intra-symbol lag should stay correlated")
	assert.Less(t, cmplx.Abs(table[2*fs]), 0.1*r0, "lags past the symbol period should decorrelate")
}

func TestClampLags(t *testing.T) {
	lags := LagRange(-3, 3)

	assert.Equal(t, []int{-1, 0, 1}, ClampLags(lags, 2))
	assert.Equal(t, lags, ClampLags(lags, 4), "long signals keep the full set")
	assert.Empty(t, ClampLags(lags, 0))

	// Clamped sets always pass Autocorrelation.
	x := []complex128{1 + 1i, 1 - 1i}
	table, err := Autocorrelation(x, ClampLags(lags, len(x)))
	require.NoError(t, err)
	assert.Len(t, table, 3)
}

func TestLagRange(t *testing.T) {
	assert.Equal(t, []int{-2, -1, 0, 1, 2}, LagRange(-2, 2))
	assert.Equal(t, []int{3}, LagRange(3, 3))
	assert.Equal(t, []int{1, 2}, LagRange(2, 1), "reversed bounds are normalized")
}

func TestOriginSensitivity_Stationarity(t *testing.T) {
	// Estimates of R(tau) from different time origins must agree to
	// within sampling error for a stationary waveform.
	wave := randomWaveform(t, 20000, 4, 4)

	dev, err := OriginSensitivity(wave, 2, 4)
	require.NoError(t, err)
	assert.Less(t, dev, 0.1, "windowed estimates should match the full-signal estimate")
}

func TestOriginSensitivity_Validation(t *testing.T) {
	wave := randomWaveform(t, 100, 4, 5)

	_, err := OriginSensitivity(wave, 2, 1)
	require.Error(t, err)

	_, err = OriginSensitivity(wave, 250, 2)
	require.ErrorIs(t, err, ErrLagOutOfRange)
}

func TestBitErrorRate(t *testing.T) {
	sent := []byte{0, 1, 1, 0}
	recv := []byte{0, 1, 0, 1}

	ber, err := BitErrorRate(sent, recv)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, ber, 1e-12)

	_, err = BitErrorRate(sent, recv[:3])
	require.ErrorIs(t, err, ErrLengthMismatch)

	ber, err = BitErrorRate(nil, nil)
	require.NoError(t, err)
	assert.Zero(t, ber)
}

func TestPeriodogram_ParsevalEnergy(t *testing.T) {
	x := []complex128{1, 1i, -1, -1i, 1, 1i, -1, -1i}
	psd := Periodogram(x)
	require.Len(t, psd, 8)

	var specEnergy, timeEnergy float64
	for _, p := range psd {
		specEnergy += p
	}
	for _, s := range x {
		timeEnergy += real(s)*real(s) + imag(s)*imag(s)
	}
	assert.InDelta(t, timeEnergy, specEnergy, 1e-9)
}

func TestPeriodogram_PadsToPowerOfTwo(t *testing.T) {
	assert.Nil(t, Periodogram(nil))
	assert.Len(t, Periodogram(make([]complex128, 5)), 8)
}
