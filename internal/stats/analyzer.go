// Package stats provides the statistical characterization of the
// transmitted waveform: time-averaged mean, autocorrelation across
// lags, a stationarity probe, bit-error accounting, and a periodogram.
package stats

import (
	"errors"
	"fmt"
	"math/cmplx"
)

var (
	// ErrEmptyLags reports an empty lag set.
	ErrEmptyLags = errors.New("lag set is empty")

	// ErrLagOutOfRange reports a lag with no valid sample pairs.
	ErrLagOutOfRange = errors.New("lag exceeds signal length")

	// ErrLengthMismatch reports bitstreams of different lengths.
	ErrLengthMismatch = errors.New("bitstream lengths differ")
)

// Mean returns the time-averaged sample mean of a waveform.
func Mean(x []complex128) complex128 {
	if len(x) == 0 {
		return 0
	}
	var sum complex128
	for _, s := range x {
		sum += s
	}
	return sum / complex(float64(len(x)), 0)
}

// Autocorrelation estimates R(tau) = E[x(t) * conj(x(t+tau))] for each
// requested lag, averaging over all indices t where t+tau stays in
// bounds. No wraparound is applied. Lags may be negative.
func Autocorrelation(x []complex128, lags []int) (map[int]complex128, error) {
	if len(lags) == 0 {
		return nil, ErrEmptyLags
	}

	table := make(map[int]complex128, len(lags))
	for _, lag := range lags {
		r, err := lagEstimate(x, lag)
		if err != nil {
			return nil, fmt.Errorf("lag %d: %w", lag, err)
		}
		table[lag] = r
	}
	return table, nil
}

func lagEstimate(x []complex128, lag int) (complex128, error) {
	n := len(x)
	shift := lag
	if shift < 0 {
		shift = -shift
	}
	if shift >= n {
		return 0, ErrLagOutOfRange
	}

	var sum complex128
	count := n - shift
	for t := 0; t < count; t++ {
		if lag >= 0 {
			sum += x[t] * cmplx.Conj(x[t+lag])
		} else {
			sum += x[t+shift] * cmplx.Conj(x[t])
		}
	}
	return sum / complex(float64(count), 0), nil
}

// ClampLags drops lags that have no valid sample pairs for a signal
// of n samples, so a short waveform can still be analyzed over the
// lags it supports.
func ClampLags(lags []int, n int) []int {
	out := make([]int, 0, len(lags))
	for _, lag := range lags {
		shift := lag
		if shift < 0 {
			shift = -shift
		}
		if shift < n {
			out = append(out, lag)
		}
	}
	return out
}

// LagRange builds the inclusive lag set [min, max].
func LagRange(min, max int) []int {
	if max < min {
		min, max = max, min
	}
	lags := make([]int, 0, max-min+1)
	for l := min; l <= max; l++ {
		lags = append(lags, l)
	}
	return lags
}

// OriginSensitivity measures how much the autocorrelation estimate for
// a single lag depends on the time origin. The signal is cut into the
// given number of equal sub-windows, R(lag) is estimated within each,
// and the maximum absolute deviation from the full-signal estimate is
// returned. A value small relative to |R(lag)| supports wide-sense
// stationarity.
func OriginSensitivity(x []complex128, lag, windows int) (float64, error) {
	if windows < 2 {
		return 0, fmt.Errorf("need at least 2 windows, got %d", windows)
	}
	full, err := lagEstimate(x, lag)
	if err != nil {
		return 0, err
	}

	winLen := len(x) / windows
	shift := lag
	if shift < 0 {
		shift = -shift
	}
	if winLen <= shift {
		return 0, fmt.Errorf("window of %d samples too short for lag %d: %w", winLen, lag, ErrLagOutOfRange)
	}

	var maxDev float64
	for w := 0; w < windows; w++ {
		sub := x[w*winLen : (w+1)*winLen]
		r, err := lagEstimate(sub, lag)
		if err != nil {
			return 0, err
		}
		if dev := cmplx.Abs(r - full); dev > maxDev {
			maxDev = dev
		}
	}
	return maxDev, nil
}

// BitErrors counts positions where the two bitstreams disagree.
func BitErrors(sent, received []byte) (int, error) {
	if len(sent) != len(received) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(sent), len(received))
	}
	errs := 0
	for i := range sent {
		if sent[i]&1 != received[i]&1 {
			errs++
		}
	}
	return errs, nil
}

// BitErrorRate returns the fraction of differing bits.
func BitErrorRate(sent, received []byte) (float64, error) {
	errs, err := BitErrors(sent, received)
	if err != nil {
		return 0, err
	}
	if len(sent) == 0 {
		return 0, nil
	}
	return float64(errs) / float64(len(sent)), nil
}
