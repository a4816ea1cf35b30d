package picker

import (
	"cmp"
	"slices"
)

// Peak is a local maximum of a probability curve.
type Peak struct {
	Index  int
	Height float64
}

// DetectPeaks returns local maxima of x with height ≥ minHeight, keeping
// only the highest peak inside any window of minDistance samples. Flat tops
// report their first sample. Peaks are returned in index order.
func DetectPeaks(x []float64, minHeight float64, minDistance int) []Peak {
	if len(x) < 3 {
		return nil
	}

	var peaks []Peak
	for i := 1; i < len(x)-1; i++ {
		if x[i] < minHeight || x[i] <= x[i-1] {
			continue
		}
		// Walk across a plateau to see whether it falls off on the right.
		j := i
		for j+1 < len(x) && x[j+1] == x[i] {
			j++
		}
		if j+1 < len(x) && x[j+1] < x[i] {
			peaks = append(peaks, Peak{Index: i, Height: x[i]})
		}
		i = j
	}

	if minDistance <= 1 || len(peaks) < 2 {
		return peaks
	}

	// Highest first; equal heights keep the earlier peak.
	order := slices.Clone(peaks)
	slices.SortStableFunc(order, func(a, b Peak) int { return cmp.Compare(b.Height, a.Height) })

	kept := make([]Peak, 0, len(order))
	for _, p := range order {
		suppressed := false
		for _, k := range kept {
			d := p.Index - k.Index
			if d < 0 {
				d = -d
			}
			if d < minDistance {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, p)
		}
	}

	slices.SortFunc(kept, func(a, b Peak) int { return cmp.Compare(a.Index, b.Index) })
	return kept
}
