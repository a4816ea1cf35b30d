package bench

import "github.com/jamesainslie/go-pickeval"

// Config holds benchmark parameters.
type Config struct {
	Tolerance       float64 // seconds
	PrecisionWeight float64
	RecallWeight    float64
}

// DefaultConfig returns default benchmark configuration.
func DefaultConfig() Config {
	return Config{
		Tolerance:       0.1,
		PrecisionWeight: 1.0,
		RecallWeight:    1.0,
	}
}

// Metrics holds detection counts and the ratios derived from them.
type Metrics struct {
	TruePositives  int
	FalsePositives int
	FalseNegatives int
	Precision      float64
	Recall         float64
	F1             float64
	WeightedScore  float64
}

// Score derives metrics from pooled counts. The weighted score blends
// precision and recall with the configured weights.
func Score(c pickeval.Counts, cfg Config) Metrics {
	m := Metrics{
		TruePositives:  c.TP,
		FalsePositives: c.FP,
		FalseNegatives: c.FN,
		Precision:      c.Precision(),
		Recall:         c.Recall(),
		F1:             c.F1(),
	}

	wp := cfg.PrecisionWeight
	wr := cfg.RecallWeight
	if wp+wr > 0 {
		m.WeightedScore = (wp*m.Precision + wr*m.Recall) / (wp + wr)
	}

	return m
}
