package pickeval

import (
	"fmt"
	"math"
)

// Mode selects how a file's picks are reduced before matching.
type Mode uint8

const (
	// ModeMultiPick matches every candidate pick. Use it for trigger
	// detectors that emit many unranked candidates per file.
	ModeMultiPick Mode = iota

	// ModeBestPick keeps only the highest-score pick per phase and also
	// records whether the detector fired at all.
	ModeBestPick
)

func (m Mode) String() string {
	switch m {
	case ModeMultiPick:
		return "multi-pick"
	case ModeBestPick:
		return "best-pick"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode parses "multi-pick" or "best-pick".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "multi-pick", "multi":
		return ModeMultiPick, nil
	case "best-pick", "best":
		return ModeBestPick, nil
	default:
		return 0, fmt.Errorf("%w: unknown mode %q", ErrConfiguration, s)
	}
}

// Config holds the parameters applied uniformly across a corpus run.
type Config struct {
	Tolerance float64 // seconds, ≥ 0
	Mode      Mode
	Assigner  Assigner // nil means Greedy

	// MinScore drops scored picks below the per-phase threshold before
	// matching. Unscored picks are never dropped.
	MinScore [NumPhases]float64
}

// DefaultConfig returns a 0.1 s tolerance, multi-pick, greedy configuration.
func DefaultConfig() Config {
	return Config{
		Tolerance: 0.1,
		Mode:      ModeMultiPick,
		Assigner:  Greedy{},
	}
}

// Validate reports configuration errors that invalidate a whole run.
func (c Config) Validate() error {
	if err := validateTolerance(c.Tolerance); err != nil {
		return err
	}
	if c.Mode != ModeMultiPick && c.Mode != ModeBestPick {
		return fmt.Errorf("%w: unknown mode %d", ErrConfiguration, c.Mode)
	}
	for _, ph := range Phases() {
		s := c.MinScore[ph]
		if math.IsNaN(s) || s < 0 || s > 1 {
			return fmt.Errorf("%w: min score %v for %s outside [0,1]", ErrConfiguration, s, ph)
		}
	}
	return nil
}

func (c Config) assigner() Assigner {
	if c.Assigner == nil {
		return Greedy{}
	}
	return c.Assigner
}

// Presence is the timing-independent outcome of one phase in best-pick mode.
type Presence struct {
	Evaluated bool // false in multi-pick mode
	Truth     bool // the file has at least one label for the phase
	Predicted bool // the detector produced a representative pick
}

// PhaseResult is the outcome of one phase of one file.
type PhaseResult struct {
	Counts
	Residuals []float64 // signed seconds, matched pairs only
	Presence  Presence

	// Best is the representative pick index in best-pick mode.
	Best OptionalIndex
}

// FileResult is the outcome of one file. Derived ratios are not stored; use
// the Counts methods.
type FileResult struct {
	FileID string
	Mode   Mode
	Phases [NumPhases]PhaseResult
}

// Phase returns the result for p.
func (r FileResult) Phase(p Phase) PhaseResult {
	return r.Phases[p]
}

// EvaluateFile matches one file's picks against its labels for every phase.
// It returns ErrConfiguration for an invalid sample period or configuration
// and ErrMalformedFile when labels or picks are out of shape.
func EvaluateFile(in FileInput, cfg Config) (FileResult, error) {
	if err := cfg.Validate(); err != nil {
		return FileResult{}, err
	}
	if err := validateDT(in.DT); err != nil {
		return FileResult{}, fmt.Errorf("file %s: %w", in.ID, err)
	}
	if err := validateInput(in); err != nil {
		return FileResult{}, err
	}

	res := FileResult{FileID: in.ID, Mode: cfg.Mode}
	for _, ph := range Phases() {
		labels := in.labelsFor(ph)
		picks := filterByScore(in.picksFor(ph), cfg.MinScore[ph])

		var pr PhaseResult
		if cfg.Mode == ModeBestPick {
			best, ok := bestPick(picks)
			picks = nil
			if ok {
				picks = []Pick{best}
				pr.Best = SomeIndex(best.Index)
			}
			pr.Presence = Presence{
				Evaluated: true,
				Truth:     len(labels) > 0,
				Predicted: ok,
			}
		}

		mr := cfg.assigner().Assign(labels, picks, in.DT, cfg.Tolerance)
		pr.Counts = mr.Counts()
		pr.Residuals = mr.Residuals()
		res.Phases[ph] = pr
	}
	return res, nil
}

func validateInput(in FileInput) error {
	for i, l := range in.Labels {
		if !l.Phase.Valid() {
			return fmt.Errorf("%w: file %s: label %d has unknown phase %d", ErrMalformedFile, in.ID, i, l.Phase)
		}
		if l.Index < 0 {
			return fmt.Errorf("%w: file %s: label %d has negative index %d", ErrMalformedFile, in.ID, i, l.Index)
		}
	}
	for i, p := range in.Picks {
		if !p.Phase.Valid() {
			return fmt.Errorf("%w: file %s: pick %d has unknown phase %d", ErrMalformedFile, in.ID, i, p.Phase)
		}
		if p.Index < 0 {
			return fmt.Errorf("%w: file %s: pick %d has negative index %d", ErrMalformedFile, in.ID, i, p.Index)
		}
		if p.HasScore && (math.IsNaN(p.Score) || p.Score < 0 || p.Score > 1) {
			return fmt.Errorf("%w: file %s: pick %d has score %v outside [0,1]", ErrMalformedFile, in.ID, i, p.Score)
		}
	}
	return nil
}

func filterByScore(picks []Pick, min float64) []Pick {
	if min <= 0 {
		return picks
	}
	out := picks[:0:0]
	for _, p := range picks {
		if p.HasScore && p.Score < min {
			continue
		}
		out = append(out, p)
	}
	return out
}

// bestPick returns the highest-score pick. Scored picks outrank unscored
// ones; ties go to the smaller index, then the earlier position.
func bestPick(picks []Pick) (Pick, bool) {
	if len(picks) == 0 {
		return Pick{}, false
	}
	best := picks[0]
	for _, p := range picks[1:] {
		switch {
		case p.HasScore != best.HasScore:
			if p.HasScore {
				best = p
			}
		case p.HasScore && p.Score != best.Score:
			if p.Score > best.Score {
				best = p
			}
		case p.Index < best.Index:
			best = p
		}
	}
	return best, true
}
