package pickeval

import (
	"log/slog"
	"runtime"
)

// Option configures an Evaluator.
type Option func(*options)

type options struct {
	cfg     Config
	workers int
	logger  *slog.Logger
}

func defaultOptions() options {
	return options{
		cfg:     DefaultConfig(),
		workers: runtime.NumCPU(),
		logger:  slog.Default(),
	}
}

// WithTolerance sets the matching tolerance in seconds (default: 0.1).
func WithTolerance(seconds float64) Option {
	return func(o *options) {
		o.cfg.Tolerance = seconds
	}
}

// WithMode sets the evaluation mode (default: ModeMultiPick).
func WithMode(m Mode) Option {
	return func(o *options) {
		o.cfg.Mode = m
	}
}

// WithAssigner sets the matching policy (default: Greedy).
func WithAssigner(a Assigner) Option {
	return func(o *options) {
		if a != nil {
			o.cfg.Assigner = a
		}
	}
}

// WithMinScore drops scored picks of phase p below min (default: 0).
func WithMinScore(p Phase, min float64) Option {
	return func(o *options) {
		if p.Valid() {
			o.cfg.MinScore[p] = min
		}
	}
}

// WithWorkers sets how many files are evaluated concurrently (default:
// runtime.NumCPU()).
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
