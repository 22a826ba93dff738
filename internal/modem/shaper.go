package modem

// Expand applies rectangular (zero-order hold) pulse shaping: each
// symbol is repeated samplesPerSymbol times. No interpolation filter
// is applied.
func Expand(symbols []complex128, samplesPerSymbol int) ([]complex128, error) {
	if samplesPerSymbol <= 0 {
		return nil, ErrInvalidConfig
	}

	samples := make([]complex128, 0, len(symbols)*samplesPerSymbol)
	for _, s := range symbols {
		for j := 0; j < samplesPerSymbol; j++ {
			samples = append(samples, s)
		}
	}
	return samples, nil
}

// Decimate reduces a waveform back to symbol rate by averaging each
// block of samplesPerSymbol samples. Averaging over the symbol period
// cuts the noise variance on the decision value by that factor,
// compared to picking a single sample.
func Decimate(samples []complex128, samplesPerSymbol int) ([]complex128, error) {
	if samplesPerSymbol <= 0 {
		return nil, ErrInvalidConfig
	}
	if len(samples)%samplesPerSymbol != 0 {
		return nil, ErrMisalignedSamples
	}

	numSymbols := len(samples) / samplesPerSymbol
	out := make([]complex128, numSymbols)
	inv := complex(1.0/float64(samplesPerSymbol), 0)

	for i := 0; i < numSymbols; i++ {
		var sum complex128
		for _, s := range samples[i*samplesPerSymbol : (i+1)*samplesPerSymbol] {
			sum += s
		}
		out[i] = sum * inv
	}
	return out, nil
}
