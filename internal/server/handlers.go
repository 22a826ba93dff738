package server

import (
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/jeongseonghan/qamlink/internal/sim"
)

// maxTracePoints caps the waveform samples returned per diagnostic
// trace; plots only need the leading stretch of the signal.
const maxTracePoints = 2048

// Handlers serves simulation runs to external plotting clients.
type Handlers struct {
	cfg    sim.Config
	hub    *WSHub
	logger *log.Logger
}

// NewHandlers creates handlers around a base configuration. Requests
// may override individual knobs per run.
func NewHandlers(cfg sim.Config, logger *log.Logger) *Handlers {
	return &Handlers{
		cfg:    cfg,
		hub:    NewWSHub(logger),
		logger: logger,
	}
}

// RunRequest selects the run parameters. Zero values fall back to the
// server's base configuration.
type RunRequest struct {
	NumBits          int      `json:"numBits"`
	SamplesPerSymbol int      `json:"samplesPerSymbol"`
	NoiseVariance    *float64 `json:"noiseVariance"`
	SNRdB            *float64 `json:"snrDb"`
	Seed             int64    `json:"seed"`
}

// RunResponse carries the diagnostic outputs of a single run.
type RunResponse struct {
	BitSignal       []float64  `json:"bitSignal"`
	TxI             []float64  `json:"txI"`
	TxQ             []float64  `json:"txQ"`
	RxI             []float64  `json:"rxI"`
	RxQ             []float64  `json:"rxQ"`
	DecisionsI      []float64  `json:"decisionsI"`
	DecisionsQ      []float64  `json:"decisionsQ"`
	Spectrum        []float64  `json:"spectrum"`
	Autocorr        []LagValue `json:"autocorr"`
	MeanI           float64    `json:"meanI"`
	MeanQ           float64    `json:"meanQ"`
	StationarityDev float64    `json:"stationarityDev"`
	StationarityLag int        `json:"stationarityLag"`
	NoiseVariance   float64    `json:"noiseVariance"`
	BitErrors       int        `json:"bitErrors"`
	BER             float64    `json:"ber"`
}

// LagValue is one autocorrelation table entry, ordered by lag.
type LagValue struct {
	Lag int     `json:"lag"`
	Re  float64 `json:"re"`
	Im  float64 `json:"im"`
}

// HandleRun runs one simulation on random bits and returns the
// diagnostics as JSON.
func (h *Handlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	cfg := h.cfg
	if req.SamplesPerSymbol > 0 {
		cfg.SamplesPerSymbol = req.SamplesPerSymbol
	}
	if req.NoiseVariance != nil {
		cfg.NoiseVariance = *req.NoiseVariance
		cfg.SNRdB = nil
	}
	if req.SNRdB != nil {
		cfg.SNRdB = req.SNRdB
	}
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}

	numBits := req.NumBits
	if numBits <= 0 {
		numBits = 4000
	}
	numBits -= numBits % 4

	res, err := sim.Run(cfg, randomBits(numBits, cfg.Seed))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, sim.ErrInvalidConfig) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	h.logger.Info("run complete", "bits", numBits, "errors", res.BitErrors, "ber", res.BER)
	h.hub.Broadcast(WSMessage{Type: "run", Payload: map[string]interface{}{
		"bits": numBits, "ber": res.BER,
	}})
	writeJSON(w, toResponse(res))
}

// SweepRequest selects the BER sweep grid.
type SweepRequest struct {
	NumBits   int       `json:"numBits"`
	Variances []float64 `json:"variances"`
	Trials    int       `json:"trials"`
}

// HandleSweep measures BER across noise levels and returns the curve.
func (h *Handlers) HandleSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var req SweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Variances) == 0 {
		http.Error(w, "variances required", http.StatusBadRequest)
		return
	}

	cfg := h.cfg
	if req.Trials > 0 {
		cfg.Trials = req.Trials
	}
	numBits := req.NumBits
	if numBits <= 0 {
		numBits = 8000
	}
	numBits -= numBits % 4

	h.hub.BroadcastProgress("sweep", 0, len(req.Variances))
	points, err := sim.Sweep(r.Context(), cfg, randomBits(numBits, cfg.Seed), req.Variances)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, sim.ErrInvalidConfig) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	h.hub.BroadcastProgress("sweep", len(points), len(points))

	h.logger.Info("sweep complete", "levels", len(points), "trials", cfg.Trials)
	writeJSON(w, points)
}

// HandleWebSocket upgrades a plotting client onto the hub.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade", "err", err)
		return
	}
	h.hub.AddClient(conn)

	// Drain the connection; clients only listen.
	go func() {
		defer h.hub.RemoveClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func toResponse(res *sim.Result) RunResponse {
	out := RunResponse{
		BitSignal:       truncate(res.BitSignal),
		Spectrum:        truncate(res.Spectrum),
		MeanI:           real(res.Mean),
		MeanQ:           imag(res.Mean),
		StationarityDev: res.StationarityDev,
		StationarityLag: res.StationarityLag,
		NoiseVariance:   res.NoiseVariance,
		BitErrors:       res.BitErrors,
		BER:             res.BER,
	}
	out.TxI, out.TxQ = splitIQ(res.Tx)
	out.RxI, out.RxQ = splitIQ(res.Rx)
	out.DecisionsI, out.DecisionsQ = splitIQ(res.Decisions)

	lags := make([]int, 0, len(res.Autocorr))
	for lag := range res.Autocorr {
		lags = append(lags, lag)
	}
	sort.Ints(lags)
	for _, lag := range lags {
		v := res.Autocorr[lag]
		out.Autocorr = append(out.Autocorr, LagValue{Lag: lag, Re: real(v), Im: imag(v)})
	}
	return out
}

func splitIQ(x []complex128) ([]float64, []float64) {
	n := len(x)
	if n > maxTracePoints {
		n = maxTracePoints
	}
	i := make([]float64, n)
	q := make([]float64, n)
	for k := 0; k < n; k++ {
		i[k] = real(x[k])
		q[k] = imag(x[k])
	}
	return i, q
}

func truncate(x []float64) []float64 {
	if len(x) > maxTracePoints {
		return x[:maxTracePoints]
	}
	return x
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func randomBits(n int, seed int64) []byte {
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))
	bits := make([]byte, n)
	for i := range bits {
		bits[i] = byte(rng.Intn(2))
	}
	return bits
}
