package stats

import (
	"math"
	"math/cmplx"
)

// Periodogram estimates the power spectral density of a waveform as
// |FFT(x)|^2 / N, zero-padding to the next power of two. The result is
// a diagnostic for external plotting.
func Periodogram(x []complex128) []float64 {
	n := nextPow2(len(x))
	if n == 0 {
		return nil
	}
	padded := make([]complex128, n)
	copy(padded, x)

	spectrum := fft(padded)
	psd := make([]float64, n)
	for i, v := range spectrum {
		a := cmplx.Abs(v)
		psd[i] = a * a / float64(n)
	}
	return psd
}

func nextPow2(n int) int {
	if n <= 0 {
		return 0
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// fft computes the DFT with an iterative Cooley-Tukey radix-2. The
// input length must be a power of two; the input is consumed.
func fft(x []complex128) []complex128 {
	n := len(x)
	if n <= 1 {
		return x
	}

	bitReverse(x)
	for size := 2; size <= n; size <<= 1 {
		halfSize := size >> 1
		wn := cmplx.Exp(complex(0, -2*math.Pi/float64(size)))
		for start := 0; start < n; start += size {
			w := complex(1, 0)
			for j := 0; j < halfSize; j++ {
				u := x[start+j]
				v := w * x[start+j+halfSize]
				x[start+j] = u + v
				x[start+j+halfSize] = u - v
				w *= wn
			}
		}
	}
	return x
}

func bitReverse(x []complex128) {
	n := len(x)
	bits := 0
	for tmp := n; tmp > 1; tmp >>= 1 {
		bits++
	}
	for i := 0; i < n; i++ {
		j := reverseBits(i, bits)
		if i < j {
			x[i], x[j] = x[j], x[i]
		}
	}
}

func reverseBits(x, bits int) int {
	result := 0
	for i := 0; i < bits; i++ {
		result = (result << 1) | (x & 1)
		x >>= 1
	}
	return result
}
