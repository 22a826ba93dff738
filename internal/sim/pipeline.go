// Package sim wires the link stages together: bits go through the
// mapper, pulse shaper, AWGN channel and demodulator, while the
// statistical analyzer characterizes the transmitted waveform.
package sim

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/jeongseonghan/qamlink/internal/channel"
	"github.com/jeongseonghan/qamlink/internal/modem"
	"github.com/jeongseonghan/qamlink/internal/stats"
)

// stationarityWindows is the number of time-shifted sub-windows the
// stationarity probe compares against the full-signal estimate.
const stationarityWindows = 4

// Result collects everything one end-to-end run produces: the
// recovered bits, the diagnostic signals for external plotting, and
// the waveform statistics.
type Result struct {
	// BitSignal renders the input bits as a held square wave, roughly
	// time-aligned with the transmitted waveform.
	BitSignal []float64

	// Tx is the transmitted baseband waveform.
	Tx []complex128

	// Rx is the waveform after the channel.
	Rx []complex128

	// Decisions holds the downsampled decision values, one per symbol.
	Decisions []complex128

	// RecoveredBits is the demodulated bitstream, same length as the
	// input.
	RecoveredBits []byte

	// Mean is the time-averaged sample mean of Tx.
	Mean complex128

	// Autocorr maps lag to the autocorrelation estimate of Tx. Lags
	// from the configured range that exceed the waveform length are
	// dropped rather than failing the run.
	Autocorr map[int]complex128

	// StationarityDev is the maximum deviation of the R(StationarityLag)
	// estimate across time-shifted sub-windows of Tx from the
	// full-signal estimate. Small values relative to the signal power
	// support wide-sense stationarity. Zero when Tx is too short to
	// window.
	StationarityDev float64

	// StationarityLag is the lag the deviation was measured at.
	StationarityLag int

	// Spectrum is the periodogram of Tx.
	Spectrum []float64

	// NoiseVariance is the variance actually injected (resolved from
	// SNR when configured that way).
	NoiseVariance float64

	// BitErrors and BER compare the recovered bits to the input.
	BitErrors int
	BER       float64
}

// Run executes the full pipeline on a bitstream.
func Run(cfg Config, bits []byte) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mod, err := modem.NewModulator(cfg.SamplesPerSymbol)
	if err != nil {
		return nil, err
	}
	demod, err := modem.NewDemodulator(cfg.SamplesPerSymbol)
	if err != nil {
		return nil, err
	}

	tx, err := mod.Modulate(bits)
	if err != nil {
		return nil, fmt.Errorf("modulate: %w", err)
	}

	variance := cfg.NoiseVariance
	if cfg.SNRdB != nil {
		variance = channel.VarianceForSNR(tx, *cfg.SNRdB)
	}
	ch, err := channel.New(channel.Config{
		NoiseVariance: variance,
		Attenuation:   cfg.Attenuation,
		Seed:          cfg.Seed,
	})
	if err != nil {
		return nil, err
	}
	rx := ch.Transmit(tx)

	recovered, decisions, err := demod.Demodulate(rx)
	if err != nil {
		return nil, err
	}

	mean := stats.Mean(tx)
	autocorr := map[int]complex128{}
	if lags := stats.ClampLags(cfg.Lags(), len(tx)); len(lags) > 0 {
		autocorr, err = stats.Autocorrelation(tx, lags)
		if err != nil {
			return nil, fmt.Errorf("autocorrelation: %w", err)
		}
	}

	statLag := cfg.SamplesPerSymbol / 2
	if statLag < 1 {
		statLag = 1
	}
	var statDev float64
	if len(tx)/stationarityWindows > statLag {
		statDev, err = stats.OriginSensitivity(tx, statLag, stationarityWindows)
		if err != nil {
			return nil, fmt.Errorf("stationarity probe: %w", err)
		}
	}

	errCount, err := stats.BitErrors(bits, recovered)
	if err != nil {
		return nil, err
	}
	ber := 0.0
	if len(bits) > 0 {
		ber = float64(errCount) / float64(len(bits))
	}

	return &Result{
		BitSignal:       bitSignal(bits, cfg.SamplesPerSymbol),
		Tx:              tx,
		Rx:              rx,
		Decisions:       decisions,
		RecoveredBits:   recovered,
		Mean:            mean,
		Autocorr:        autocorr,
		StationarityDev: statDev,
		StationarityLag: statLag,
		Spectrum:        stats.Periodogram(tx),
		NoiseVariance:   variance,
		BitErrors:       errCount,
		BER:             ber,
	}, nil
}

// bitSignal holds each bit's value over a quarter symbol period so the
// trace lines up with the waveform when samples per symbol is a
// multiple of four, and over one sample per bit otherwise.
func bitSignal(bits []byte, samplesPerSymbol int) []float64 {
	step := samplesPerSymbol / modem.BitsPerSymbol
	if step < 1 || samplesPerSymbol%modem.BitsPerSymbol != 0 {
		step = 1
	}
	signal := make([]float64, 0, len(bits)*step)
	for _, b := range bits {
		for j := 0; j < step; j++ {
			signal = append(signal, float64(b&1))
		}
	}
	return signal
}

// SweepPoint is one measured point of a BER-vs-noise curve.
type SweepPoint struct {
	NoiseVariance float64 `json:"noiseVariance"`
	BER           float64 `json:"ber"`
}

// Sweep measures the bit-error rate across noise variances, averaging
// cfg.Trials independent channel realizations per level. Runs are
// independent, so the levels execute in parallel; with a non-zero
// cfg.Seed each realization still gets a distinct deterministic seed.
func Sweep(ctx context.Context, cfg Config, bits []byte, variances []float64) ([]SweepPoint, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, v := range variances {
		if v < 0 {
			return nil, fmt.Errorf("%w: sweep variance %v", ErrInvalidConfig, v)
		}
	}

	mod, err := modem.NewModulator(cfg.SamplesPerSymbol)
	if err != nil {
		return nil, err
	}
	tx, err := mod.Modulate(bits)
	if err != nil {
		return nil, fmt.Errorf("modulate: %w", err)
	}

	points := make([]SweepPoint, len(variances))
	g, ctx := errgroup.WithContext(ctx)

	for i, variance := range variances {
		i, variance := i, variance
		g.Go(func() error {
			totalErrs := 0
			demod, err := modem.NewDemodulator(cfg.SamplesPerSymbol)
			if err != nil {
				return err
			}
			for trial := 0; trial < cfg.Trials; trial++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				seed := cfg.Seed
				if seed != 0 {
					seed += int64(i*cfg.Trials + trial + 1)
				}
				ch, err := channel.New(channel.Config{
					NoiseVariance: variance,
					Attenuation:   cfg.Attenuation,
					Seed:          seed,
				})
				if err != nil {
					return err
				}
				recovered, _, err := demod.Demodulate(ch.Transmit(tx))
				if err != nil {
					return err
				}
				errs, err := stats.BitErrors(bits, recovered)
				if err != nil {
					return err
				}
				totalErrs += errs
			}
			ber := 0.0
			if len(bits) > 0 {
				ber = float64(totalErrs) / float64(len(bits)*cfg.Trials)
			}
			points[i] = SweepPoint{NoiseVariance: variance, BER: ber}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(points, func(a, b int) bool {
		return points[a].NoiseVariance < points[b].NoiseVariance
	})
	return points, nil
}
