package pickeval

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Counts holds timing-based matching outcomes.
type Counts struct {
	TP int
	FP int
	FN int
}

// Add returns the element-wise sum of c and o.
func (c Counts) Add(o Counts) Counts {
	return Counts{TP: c.TP + o.TP, FP: c.FP + o.FP, FN: c.FN + o.FN}
}

// Precision is TP/(TP+FP), or 0 when nothing was predicted.
func (c Counts) Precision() float64 {
	return safeDivide(c.TP, c.TP+c.FP)
}

// Recall is TP/(TP+FN), or 0 when there was nothing to find.
func (c Counts) Recall() float64 {
	return safeDivide(c.TP, c.TP+c.FN)
}

// F1 is the harmonic mean of precision and recall, or 0 when both are 0.
func (c Counts) F1() float64 {
	return f1(c.Precision(), c.Recall())
}

// PresenceCounts is the binary confusion of "did the detector fire at all"
// against "is there a label at all", independent of timing.
type PresenceCounts struct {
	TP int
	FP int
	FN int
	TN int
}

// Observe adds one file's presence outcome.
func (c *PresenceCounts) Observe(p Presence) {
	switch {
	case p.Truth && p.Predicted:
		c.TP++
	case !p.Truth && p.Predicted:
		c.FP++
	case p.Truth && !p.Predicted:
		c.FN++
	default:
		c.TN++
	}
}

// Precision is TP/(TP+FP), or 0 when nothing was predicted.
func (c PresenceCounts) Precision() float64 {
	return safeDivide(c.TP, c.TP+c.FP)
}

// Recall is TP/(TP+FN), or 0 when there was nothing to find.
func (c PresenceCounts) Recall() float64 {
	return safeDivide(c.TP, c.TP+c.FN)
}

// F1 is the harmonic mean of precision and recall, or 0 when both are 0.
func (c PresenceCounts) F1() float64 {
	return f1(c.Precision(), c.Recall())
}

func safeDivide(num, den int) float64 {
	if den == 0 {
		return 0.0
	}
	return float64(num) / float64(den)
}

func f1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0.0
	}
	return 2 * precision * recall / (precision + recall)
}

// ResidualStats reduces signed residuals to the mean and median of their
// absolute values. Absolute values are sorted before reduction so the result
// does not depend on the order residuals were collected in. ok is false when
// residuals is empty.
func ResidualStats(residuals []float64) (mae, mad float64, ok bool) {
	if len(residuals) == 0 {
		return 0, 0, false
	}
	abs := make([]float64, len(residuals))
	for i, r := range residuals {
		if r < 0 {
			r = -r
		}
		abs[i] = r
	}
	slices.Sort(abs)

	mae = stat.Mean(abs, nil)

	n := len(abs)
	if n%2 == 1 {
		mad = abs[n/2]
	} else {
		mad = (abs[n/2-1] + abs[n/2]) / 2
	}
	return mae, mad, true
}
