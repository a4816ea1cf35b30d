package pickeval

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

// SkippedFile records a file that contributed nothing to the summary.
type SkippedFile struct {
	FileID string
	Reason string
}

// PhaseSummary holds corpus-wide statistics for one phase. MAE and MAD are
// only meaningful when Matched > 0.
type PhaseSummary struct {
	Counts
	Precision float64
	Recall    float64
	F1        float64

	Matched int // number of residuals pooled
	MAE     float64
	MAD     float64

	// Presence is populated in best-pick mode only.
	Presence          PresenceCounts
	PresencePrecision float64
	PresenceRecall    float64
	PresenceF1        float64
}

// Summary is the corpus-wide evaluation result.
type Summary struct {
	Mode    Mode
	Files   int
	Phases  [NumPhases]PhaseSummary
	Skipped []SkippedFile
}

// Phase returns the summary for p.
func (s Summary) Phase(p Phase) PhaseSummary {
	return s.Phases[p]
}

// Aggregator combines per-file results. It is safe for concurrent use and
// is the only mutable state shared by a corpus run.
type Aggregator struct {
	mode Mode

	mu        sync.Mutex
	seen      map[string]struct{}
	files     int
	counts    [NumPhases]Counts
	presence  [NumPhases]PresenceCounts
	residuals [NumPhases][]float64
	skipped   []SkippedFile
	summary   *Summary
}

// NewAggregator returns an empty Aggregator for results produced in mode.
func NewAggregator(mode Mode) *Aggregator {
	return &Aggregator{
		mode: mode,
		seen: make(map[string]struct{}),
	}
}

// Add folds one file result into the totals. A file id seen before (added
// or skipped) yields ErrDuplicateFile; a call after Finalize yields
// ErrFinalized. Neither mutates state.
func (a *Aggregator) Add(r FileResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.admit(r.FileID); err != nil {
		return err
	}
	if r.Mode != a.mode {
		return fmt.Errorf("%w: file %s evaluated in %s mode, aggregator expects %s",
			ErrConfiguration, r.FileID, r.Mode, a.mode)
	}

	a.seen[r.FileID] = struct{}{}
	a.files++
	for _, ph := range Phases() {
		pr := r.Phases[ph]
		a.counts[ph] = a.counts[ph].Add(pr.Counts)
		a.residuals[ph] = append(a.residuals[ph], pr.Residuals...)
		if pr.Presence.Evaluated {
			a.presence[ph].Observe(pr.Presence)
		}
	}
	return nil
}

// Skip records a file that could not be evaluated. It follows the same
// duplicate and finalize rules as Add.
func (a *Aggregator) Skip(fileID string, reason error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.admit(fileID); err != nil {
		return err
	}
	a.seen[fileID] = struct{}{}
	msg := ""
	if reason != nil {
		msg = reason.Error()
	}
	a.skipped = append(a.skipped, SkippedFile{FileID: fileID, Reason: msg})
	return nil
}

func (a *Aggregator) admit(fileID string) error {
	if a.summary != nil {
		return fmt.Errorf("%w: file %s", ErrFinalized, fileID)
	}
	if _, ok := a.seen[fileID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateFile, fileID)
	}
	return nil
}

// Finalize computes the corpus summary. It is terminal: later calls return
// the same cached summary.
func (a *Aggregator) Finalize() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.summary != nil {
		return *a.summary
	}

	s := Summary{
		Mode:    a.mode,
		Files:   a.files,
		Skipped: slices.Clone(a.skipped),
	}
	slices.SortFunc(s.Skipped, func(x, y SkippedFile) int { return cmp.Compare(x.FileID, y.FileID) })

	for _, ph := range Phases() {
		c := a.counts[ph]
		ps := PhaseSummary{
			Counts:    c,
			Precision: c.Precision(),
			Recall:    c.Recall(),
			F1:        c.F1(),
			Matched:   len(a.residuals[ph]),
		}
		if mae, mad, ok := ResidualStats(a.residuals[ph]); ok {
			ps.MAE = mae
			ps.MAD = mad
		}
		if a.mode == ModeBestPick {
			pc := a.presence[ph]
			ps.Presence = pc
			ps.PresencePrecision = pc.Precision()
			ps.PresenceRecall = pc.Recall()
			ps.PresenceF1 = pc.F1()
		}
		s.Phases[ph] = ps
	}

	a.summary = &s
	a.residuals = [NumPhases][]float64{}
	return s
}
