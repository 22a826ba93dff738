// qamlink pushes an image through a simulated 16-QAM baseband link:
// image bits are mapped to symbols, pulse shaped, passed through an
// AWGN channel, demodulated, and reassembled into an image, with the
// waveform statistics and the bit-error rate reported along the way.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/jeongseonghan/qamlink/internal/imaging"
	"github.com/jeongseonghan/qamlink/internal/server"
	"github.com/jeongseonghan/qamlink/internal/sim"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "YAML configuration file")
	imagePath := pflag.StringP("image", "i", "", "Image to transmit")
	outPath := pflag.StringP("out", "o", "received.png", "Path for the recovered image")
	fs := pflag.Int("samples-per-symbol", 0, "Override samples per symbol")
	noiseVar := pflag.Float64("noise-var", -1, "Override channel noise variance")
	snrDB := pflag.Float64("snr", 0, "Target SNR in dB (overrides noise variance)")
	snrSet := pflag.Bool("use-snr", false, "Derive noise variance from --snr")
	seed := pflag.Int64("seed", 0, "Noise seed (0 = random each run)")
	sweepVars := pflag.Float64Slice("sweep", nil, "Noise variances for a BER sweep instead of a single run")
	serveAddr := pflag.String("serve", "", "Run the diagnostics HTTP server on this address")
	verbose := pflag.BoolP("verbose", "v", false, "Debug logging")
	pflag.Parse()

	logger := log.New(os.Stderr)
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	cfg := sim.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = sim.LoadConfig(*configPath)
		if err != nil {
			logger.Fatal("load config", "err", err)
		}
	}
	if *fs > 0 {
		cfg.SamplesPerSymbol = *fs
	}
	if *noiseVar >= 0 {
		cfg.NoiseVariance = *noiseVar
		cfg.SNRdB = nil
	}
	if *snrSet {
		cfg.SNRdB = snrDB
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}

	if *serveAddr != "" {
		handlers := server.NewHandlers(cfg, logger)
		srv := server.NewServer(*serveAddr, handlers, logger)
		if err := srv.Start(); err != nil {
			logger.Fatal("server", "err", err)
		}
		return
	}

	if *imagePath == "" {
		pflag.Usage()
		logger.Fatal("an --image is required unless --serve is given")
	}

	bits, shape, err := imaging.LoadBits(*imagePath)
	if err != nil {
		logger.Fatal("load image", "err", err)
	}
	logger.Info("image loaded", "path", *imagePath,
		"size", fmt.Sprintf("%dx%d", shape.Width, shape.Height), "bits", len(bits))

	if len(*sweepVars) > 0 {
		runSweep(logger, cfg, bits, *sweepVars)
		return
	}

	start := time.Now()
	res, err := sim.Run(cfg, bits)
	if err != nil {
		logger.Fatal("simulation", "err", err)
	}
	logger.Info("simulation complete", "duration", time.Since(start),
		"noiseVariance", res.NoiseVariance)
	logger.Info("waveform statistics",
		"mean", fmt.Sprintf("%.4f%+.4fi", real(res.Mean), imag(res.Mean)),
		"power", real(res.Autocorr[0]))
	logger.Info("bit errors", "errors", res.BitErrors, "ber", fmt.Sprintf("%.4f", res.BER))

	img, err := imaging.BitsToImage(res.RecoveredBits, shape)
	if err != nil {
		logger.Fatal("rebuild image", "err", err)
	}
	if err := imaging.SaveImage(img, *outPath); err != nil {
		logger.Fatal("save image", "err", err)
	}
	logger.Info("recovered image written", "path", *outPath)
}

func runSweep(logger *log.Logger, cfg sim.Config, bits []byte, variances []float64) {
	start := time.Now()
	points, err := sim.Sweep(context.Background(), cfg, bits, variances)
	if err != nil {
		logger.Fatal("sweep", "err", err)
	}
	logger.Info("sweep complete", "levels", len(points), "trials", cfg.Trials,
		"duration", time.Since(start))
	for _, p := range points {
		fmt.Printf("noise_variance=%g\tber=%.6f\n", p.NoiseVariance, p.BER)
	}
}
