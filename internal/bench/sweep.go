package bench

import (
	"context"
	"slices"
	"sort"

	"github.com/jamesainslie/go-pickeval"
)

// SweepResult holds metrics for one threshold and tolerance pair.
type SweepResult struct {
	Threshold float64
	Tolerance float64
	Phases    [pickeval.NumPhases]Metrics
	Metrics   Metrics // both phases pooled
}

// SweepThresholds generates threshold values from min up to, but excluding,
// max with the given step.
func SweepThresholds(min, max, step float64) []float64 {
	if step <= 0 {
		return nil
	}
	var thresholds []float64
	for i := 0; ; i++ {
		t := min + float64(i)*step
		if t >= max {
			break
		}
		thresholds = append(thresholds, t)
	}
	return thresholds
}

// Sweep evaluates every combination of score threshold and tolerance and
// returns results sorted by weighted score, best first. The threshold is
// applied to both phases. An empty tolerances list uses cfg.Tolerance. opts
// are applied before the swept values, so they cannot override them.
func Sweep(ctx context.Context, files []pickeval.FileInput, cfg Config, thresholds, tolerances []float64, opts ...pickeval.Option) ([]SweepResult, error) {
	if len(tolerances) == 0 {
		tolerances = []float64{cfg.Tolerance}
	}

	var results []SweepResult
	for _, tol := range tolerances {
		for _, threshold := range thresholds {
			evOpts := append(slices.Clone(opts),
				pickeval.WithTolerance(tol),
				pickeval.WithMinScore(pickeval.PhaseP, threshold),
				pickeval.WithMinScore(pickeval.PhaseS, threshold),
			)
			ev, err := pickeval.New(evOpts...)
			if err != nil {
				return nil, err
			}

			report, err := ev.Run(ctx, files)
			if err != nil {
				return nil, err
			}

			res := SweepResult{Threshold: threshold, Tolerance: tol}
			var pooled pickeval.Counts
			for _, ph := range pickeval.Phases() {
				c := report.Summary.Phase(ph).Counts
				res.Phases[ph] = Score(c, cfg)
				pooled = pooled.Add(c)
			}
			res.Metrics = Score(pooled, cfg)
			results = append(results, res)
		}
	}

	// Sort by weighted score descending
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Metrics.WeightedScore > results[j].Metrics.WeightedScore
	})

	return results, nil
}
