// Package picker turns three-component waveforms into P and S picks with a
// PhaseNet-style ONNX model.
package picker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"gonum.org/v1/gonum/stat"

	"github.com/jamesainslie/go-pickeval"
	"github.com/jamesainslie/go-pickeval/inference"
)

// Picker detects phase arrivals. It is safe for concurrent use.
type Picker struct {
	pool   *inference.Pool
	cfg    config
	logger *slog.Logger
}

// New creates a Picker for the model at modelPath.
func New(modelPath string, opts ...Option) (*Picker, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, err := os.Stat(modelPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
		}
		return nil, fmt.Errorf("checking model file: %w", err)
	}

	pool, err := inference.NewPool(modelPath, cfg.names, cfg.poolSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}

	return &Picker{pool: pool, cfg: cfg, logger: cfg.logger}, nil
}

// Pick returns the picks found in a sample-major three-component waveform
// (samples[i*3+c]) recorded with sample period dt. Picks carry the peak
// probability as score and are ordered by phase, then index.
func (p *Picker) Pick(ctx context.Context, samples []float32, dt float64) ([]pickeval.Pick, error) {
	if len(samples) == 0 {
		return nil, nil
	}
	if len(samples)%inference.Channels != 0 {
		return nil, fmt.Errorf("%w: %d values is not a multiple of %d channels",
			ErrInvalidWaveform, len(samples), inference.Channels)
	}
	if dt <= 0 || math.IsNaN(dt) {
		return nil, fmt.Errorf("%w: sample period %v", pickeval.ErrConfiguration, dt)
	}

	probs, err := p.Probabilities(ctx, samples)
	if err != nil {
		return nil, err
	}

	var picks []pickeval.Pick
	for _, ph := range pickeval.Phases() {
		curve := probs[ph]
		peaks := DetectPeaks(curve, p.cfg.minProb[ph], p.cfg.minDistance)
		for _, pk := range peaks {
			picks = append(picks, pickeval.NewScoredPick(ph, pk.Index, pk.Height))
		}
		p.logger.Debug("phase picks", "phase", ph.String(), "count", len(peaks))
	}
	return picks, nil
}

// Probabilities returns the per-sample P and S probability curves, indexed
// by pickeval.Phase.
func (p *Picker) Probabilities(ctx context.Context, samples []float32) ([pickeval.NumPhases][]float64, error) {
	var out [pickeval.NumPhases][]float64

	x := standardize(samples)
	n := len(x) / inference.Channels

	sums := make([]float64, len(x))
	counts := make([]int, n)

	err := p.pool.Do(ctx, func(session *inference.Session) error {
		for _, start := range windowStarts(n, p.cfg.window, p.cfg.overlap) {
			end := min(start+p.cfg.window, n)

			chunk := x[start*inference.Channels : end*inference.Channels]
			if end-start < p.cfg.window {
				// Zero-pad traces shorter than one window.
				padded := make([]float32, p.cfg.window*inference.Channels)
				copy(padded, chunk)
				chunk = padded
			}

			probs, err := session.Infer(ctx, chunk)
			if err != nil {
				return err
			}

			// Accumulate for averaging in overlap regions
			for i := 0; i < (end-start)*inference.Channels; i++ {
				sums[start*inference.Channels+i] += float64(probs[i])
			}
			for i := start; i < end; i++ {
				counts[i]++
			}
		}
		return nil
	})
	if err != nil {
		return out, err
	}

	// Output class 0 is noise; P and S follow.
	for _, ph := range pickeval.Phases() {
		class := int(ph) + 1
		curve := make([]float64, n)
		for i := range curve {
			curve[i] = sums[i*inference.Channels+class] / float64(counts[i])
		}
		out[ph] = curve
	}
	return out, nil
}

// Close releases all resources.
func (p *Picker) Close() error {
	if p.pool == nil {
		return nil
	}
	return p.pool.Close()
}

// windowStarts returns the first sample of each inference window. Windows
// advance by window-overlap and the last one is aligned to the end of the
// trace, so every window but a lone short one is full length.
func windowStarts(n, window, overlap int) []int {
	if n <= window {
		return []int{0}
	}
	stride := window - overlap
	var starts []int
	for start := 0; start+window < n; start += stride {
		starts = append(starts, start)
	}
	return append(starts, n-window)
}

// standardize removes the mean of each channel and scales it to unit
// standard deviation. Dead channels are only demeaned.
func standardize(samples []float32) []float32 {
	n := len(samples) / inference.Channels
	out := make([]float32, len(samples))
	channel := make([]float64, n)

	for c := 0; c < inference.Channels; c++ {
		for i := 0; i < n; i++ {
			channel[i] = float64(samples[i*inference.Channels+c])
		}
		mean, std := stat.MeanStdDev(channel, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		for i := 0; i < n; i++ {
			out[i*inference.Channels+c] = float32((channel[i] - mean) / std)
		}
	}
	return out
}
