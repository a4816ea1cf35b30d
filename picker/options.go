package picker

import (
	"log/slog"
	"runtime"

	"github.com/jamesainslie/go-pickeval"
	"github.com/jamesainslie/go-pickeval/inference"
)

// Option configures a Picker.
type Option func(*config)

type config struct {
	minProb     [pickeval.NumPhases]float64
	minDistance int
	window      int
	overlap     int
	names       inference.IONames
	poolSize    int
	logger      *slog.Logger
}

func defaultConfig() config {
	return config{
		minProb:     [pickeval.NumPhases]float64{0.3, 0.3},
		minDistance: 50,
		window:      3000,
		overlap:     500,
		names:       inference.DefaultIONames,
		poolSize:    runtime.NumCPU(),
		logger:      slog.Default(),
	}
}

// WithMinProb sets the probability a peak must reach to become a pick of
// phase p (default: 0.3).
func WithMinProb(p pickeval.Phase, prob float32) Option {
	return func(c *config) {
		if p.Valid() {
			c.minProb[p] = float64(prob)
		}
	}
}

// WithMinPeakDistance sets the minimum distance in samples between two
// picks of the same phase (default: 50).
func WithMinPeakDistance(samples int) Option {
	return func(c *config) {
		if samples >= 0 {
			c.minDistance = samples
		}
	}
}

// WithWindow sets the inference window and the overlap between windows in
// samples (default: 3000 and 500).
func WithWindow(samples, overlap int) Option {
	return func(c *config) {
		if samples > 0 && overlap >= 0 && overlap < samples {
			c.window = samples
			c.overlap = overlap
		}
	}
}

// WithIONames sets the model's input and output tensor names.
func WithIONames(names inference.IONames) Option {
	return func(c *config) {
		if names.Input != "" && names.Output != "" {
			c.names = names
		}
	}
}

// WithPoolSize sets the ONNX session pool size (default: runtime.NumCPU()).
func WithPoolSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
