package pickeval

import (
	"fmt"
	"math"

	"github.com/jamesainslie/go-pickeval/internal/assign"
)

// toleranceSlack is the relative rounding allowance on distance*dt, so that a
// pick exactly one tolerance away (e.g. 10 samples at 0.01 s against 0.1 s)
// still matches. A zero tolerance gets no slack.
const toleranceSlack = 1e-9

// Pair is one matched label and pick. Label and Pick are positions in the
// slices passed to the matcher, not sample indices.
type Pair struct {
	Label    int
	Pick     int
	Residual float64 // (pick.Index - label.Index) * dt, signed seconds
}

// MatchResult is the outcome of matching one phase of one file. Every label
// position and every pick position appears exactly once across Matches,
// FalseNegatives and FalsePositives.
type MatchResult struct {
	Matches        []Pair
	FalsePositives []int // unassigned pick positions, ascending
	FalseNegatives []int // unassigned label positions, ascending
}

// Counts returns the TP/FP/FN counts of the result.
func (r MatchResult) Counts() Counts {
	return Counts{
		TP: len(r.Matches),
		FP: len(r.FalsePositives),
		FN: len(r.FalseNegatives),
	}
}

// Residuals returns the signed residuals of the matched pairs in label order.
func (r MatchResult) Residuals() []float64 {
	if len(r.Matches) == 0 {
		return nil
	}
	out := make([]float64, len(r.Matches))
	for i, m := range r.Matches {
		out[i] = m.Residual
	}
	return out
}

// Assigner is a matching policy. Implementations receive labels and picks of
// a single phase, a validated dt > 0 and tolerance ≥ 0, and must return a
// one-to-one assignment.
type Assigner interface {
	Assign(labels []Label, picks []Pick, dt, tolerance float64) MatchResult
}

// Match validates dt and tolerance and matches labels to picks with the
// Greedy policy.
func Match(labels []Label, picks []Pick, dt, tolerance float64) (MatchResult, error) {
	return MatchWith(Greedy{}, labels, picks, dt, tolerance)
}

// MatchWith is Match with an explicit policy. A nil policy means Greedy.
func MatchWith(a Assigner, labels []Label, picks []Pick, dt, tolerance float64) (MatchResult, error) {
	if err := validateDT(dt); err != nil {
		return MatchResult{}, err
	}
	if err := validateTolerance(tolerance); err != nil {
		return MatchResult{}, err
	}
	if a == nil {
		a = Greedy{}
	}
	return a.Assign(labels, picks, dt, tolerance), nil
}

func validateDT(dt float64) error {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt <= 0 {
		return fmt.Errorf("%w: sample period %v must be > 0", ErrConfiguration, dt)
	}
	return nil
}

func validateTolerance(tolerance float64) error {
	if math.IsNaN(tolerance) || math.IsInf(tolerance, 0) || tolerance < 0 {
		return fmt.Errorf("%w: tolerance %v must be >= 0", ErrConfiguration, tolerance)
	}
	return nil
}

func withinTolerance(distance int, dt, tolerance float64) bool {
	if tolerance == 0 {
		return distance == 0
	}
	return float64(distance)*dt <= tolerance*(1+toleranceSlack)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// unmatched returns the short-circuit result for an empty side.
func unmatched(nLabels, nPicks int) MatchResult {
	r := MatchResult{}
	for i := 0; i < nPicks; i++ {
		r.FalsePositives = append(r.FalsePositives, i)
	}
	for i := 0; i < nLabels; i++ {
		r.FalseNegatives = append(r.FalseNegatives, i)
	}
	return r
}

// Greedy matches labels in input order, each to the nearest pick not yet
// taken. Ties go to the pick with the smaller sample index, then to the
// earlier pick position. A label whose nearest free pick lies outside the
// tolerance stays unmatched and the pick stays free.
//
// Greedy is not optimal: an earlier label may take a pick that a later,
// closer label needed. Use Optimal when that matters.
type Greedy struct{}

// Assign implements Assigner.
func (Greedy) Assign(labels []Label, picks []Pick, dt, tolerance float64) MatchResult {
	if len(labels) == 0 || len(picks) == 0 {
		return unmatched(len(labels), len(picks))
	}

	taken := make([]bool, len(picks))
	var r MatchResult

	for li, l := range labels {
		best := -1
		bestDist := 0
		for pi, p := range picks {
			if taken[pi] {
				continue
			}
			d := absInt(p.Index - l.Index)
			if best < 0 || d < bestDist || (d == bestDist && p.Index < picks[best].Index) {
				best = pi
				bestDist = d
			}
		}
		if best < 0 || !withinTolerance(bestDist, dt, tolerance) {
			r.FalseNegatives = append(r.FalseNegatives, li)
			continue
		}
		taken[best] = true
		r.Matches = append(r.Matches, Pair{
			Label:    li,
			Pick:     best,
			Residual: float64(picks[best].Index-l.Index) * dt,
		})
	}

	for pi, ok := range taken {
		if !ok {
			r.FalsePositives = append(r.FalsePositives, pi)
		}
	}
	return r
}

// Optimal computes a minimum-cost one-to-one assignment: it maximises the
// number of label-pick pairs within tolerance, then minimises their summed
// sample distance.
type Optimal struct{}

// Assign implements Assigner.
func (Optimal) Assign(labels []Label, picks []Pick, dt, tolerance float64) MatchResult {
	if len(labels) == 0 || len(picks) == 0 {
		return unmatched(len(labels), len(picks))
	}

	cost := make([][]float64, len(labels))
	for li, l := range labels {
		row := make([]float64, len(picks))
		for pi, p := range picks {
			d := absInt(p.Index - l.Index)
			if withinTolerance(d, dt, tolerance) {
				row[pi] = float64(d)
			} else {
				row[pi] = assign.Forbidden
			}
		}
		cost[li] = row
	}

	rows := assign.Hungarian(cost)

	taken := make([]bool, len(picks))
	var r MatchResult
	for li, pi := range rows {
		if pi < 0 {
			r.FalseNegatives = append(r.FalseNegatives, li)
			continue
		}
		taken[pi] = true
		r.Matches = append(r.Matches, Pair{
			Label:    li,
			Pick:     pi,
			Residual: float64(picks[pi].Index-labels[li].Index) * dt,
		})
	}
	for pi, ok := range taken {
		if !ok {
			r.FalsePositives = append(r.FalsePositives, pi)
		}
	}
	return r
}

// ParseAssigner returns the policy named "greedy" or "optimal".
func ParseAssigner(name string) (Assigner, error) {
	switch name {
	case "", "greedy":
		return Greedy{}, nil
	case "optimal":
		return Optimal{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown assigner %q", ErrConfiguration, name)
	}
}
