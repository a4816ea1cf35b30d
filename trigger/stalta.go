// Package trigger implements the classic STA/LTA energy trigger, a
// phase-blind baseline detector for the evaluation engine.
package trigger

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/jamesainslie/go-pickeval"
)

// ErrInvalidWindow is returned for STA/LTA windows that cannot be applied.
var ErrInvalidWindow = errors.New("trigger: invalid window")

// Onset is one trigger interval [On, Off] in samples.
type Onset struct {
	On  int
	Off int
}

// Config holds the trigger parameters. Window lengths are in samples.
type Config struct {
	STA          int
	LTA          int
	ThresholdOn  float64
	ThresholdOff float64
}

// DefaultConfig returns a 1 s / 10 s trigger at 100 Hz switching on at 2.5
// and off at 1.0.
func DefaultConfig() Config {
	return Config{STA: 100, LTA: 1000, ThresholdOn: 2.5, ThresholdOff: 1.0}
}

// ConfigForRate converts window lengths in seconds to samples for sample
// period dt.
func ConfigForRate(staSec, ltaSec, dt, on, off float64) Config {
	return Config{
		STA:          int(math.Round(staSec / dt)),
		LTA:          int(math.Round(ltaSec / dt)),
		ThresholdOn:  on,
		ThresholdOff: off,
	}
}

// Validate reports whether c can be applied.
func (c Config) Validate() error {
	if c.STA <= 0 || c.LTA <= c.STA {
		return fmt.Errorf("%w: sta=%d lta=%d", ErrInvalidWindow, c.STA, c.LTA)
	}
	if c.ThresholdOff > c.ThresholdOn {
		return fmt.Errorf("%w: off threshold %v above on threshold %v",
			ErrInvalidWindow, c.ThresholdOff, c.ThresholdOn)
	}
	return nil
}

// ClassicSTALTA returns the ratio of short-term to long-term average energy
// for every sample of trace. The first lta-1 samples are zero.
func ClassicSTALTA(trace []float64, sta, lta int) ([]float64, error) {
	if sta <= 0 || lta <= sta {
		return nil, fmt.Errorf("%w: sta=%d lta=%d", ErrInvalidWindow, sta, lta)
	}
	n := len(trace)
	if n < lta {
		return make([]float64, n), nil
	}

	energy := make([]float64, n)
	floats.MulTo(energy, trace, trace)
	cum := floats.CumSum(make([]float64, n), energy)

	cft := make([]float64, n)
	for i := lta - 1; i < n; i++ {
		s := windowSum(cum, i, sta) / float64(sta)
		l := windowSum(cum, i, lta) / float64(lta)
		if l < math.SmallestNonzeroFloat64 {
			continue
		}
		cft[i] = s / l
	}
	return cft, nil
}

// windowSum is the sum of the w samples ending at i.
func windowSum(cum []float64, i, w int) float64 {
	if i-w < 0 {
		return cum[i]
	}
	return cum[i] - cum[i-w]
}

// Onsets scans a characteristic function and returns the intervals during
// which it rose above on until it fell below off. An interval still open at
// the end of cft closes on its last sample.
func Onsets(cft []float64, on, off float64) []Onset {
	var onsets []Onset
	active := false
	start := 0
	for i, v := range cft {
		switch {
		case !active && v > on:
			active = true
			start = i
		case active && v < off:
			onsets = append(onsets, Onset{On: start, Off: i})
			active = false
		}
	}
	if active {
		onsets = append(onsets, Onset{On: start, Off: len(cft) - 1})
	}
	return onsets
}

// Detect runs the trigger over trace and returns its onsets.
func Detect(trace []float64, cfg Config) ([]Onset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cft, err := ClassicSTALTA(trace, cfg.STA, cfg.LTA)
	if err != nil {
		return nil, err
	}
	return Onsets(cft, cfg.ThresholdOn, cfg.ThresholdOff), nil
}

// Picks turns onsets into unscored picks. The trigger cannot tell P from S,
// so every onset is offered once to each requested phase.
func Picks(onsets []Onset, phases ...pickeval.Phase) []pickeval.Pick {
	picks := make([]pickeval.Pick, 0, len(onsets)*len(phases))
	for _, ph := range phases {
		for _, o := range onsets {
			picks = append(picks, pickeval.NewPick(ph, o.On))
		}
	}
	return picks
}
