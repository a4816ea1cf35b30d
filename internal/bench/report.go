package bench

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jamesainslie/go-pickeval"
)

// WriteSummary writes a corpus summary as "key: value" lines.
func WriteSummary(w io.Writer, s pickeval.Summary) error {
	ew := &errWriter{w: w}

	ew.printf("Mode: %s\n", s.Mode)
	ew.printf("Files: %d\n", s.Files)
	ew.printf("Skipped: %d\n", len(s.Skipped))

	for _, ph := range pickeval.Phases() {
		p := s.Phase(ph)
		ew.printf("%s_Total_TP: %d\n", ph, p.TP)
		ew.printf("%s_Total_FP: %d\n", ph, p.FP)
		ew.printf("%s_Total_FN: %d\n", ph, p.FN)
		ew.printf("%s_Precision: %.4f\n", ph, p.Precision)
		ew.printf("%s_Recall: %.4f\n", ph, p.Recall)
		ew.printf("%s_F1: %.4f\n", ph, p.F1)
		ew.printf("%s_Matched: %d\n", ph, p.Matched)
		if p.Matched > 0 {
			ew.printf("%s_MAE: %.4f\n", ph, p.MAE)
			ew.printf("%s_MAD: %.4f\n", ph, p.MAD)
		} else {
			ew.printf("%s_MAE: n/a\n", ph)
			ew.printf("%s_MAD: n/a\n", ph)
		}

		if s.Mode == pickeval.ModeBestPick {
			pc := p.Presence
			ew.printf("%s_Presence_TP: %d\n", ph, pc.TP)
			ew.printf("%s_Presence_FP: %d\n", ph, pc.FP)
			ew.printf("%s_Presence_FN: %d\n", ph, pc.FN)
			ew.printf("%s_Presence_TN: %d\n", ph, pc.TN)
			ew.printf("%s_Presence_Precision: %.4f\n", ph, p.PresencePrecision)
			ew.printf("%s_Presence_Recall: %.4f\n", ph, p.PresenceRecall)
			ew.printf("%s_Presence_F1: %.4f\n", ph, p.PresenceF1)
		}
	}

	for _, sk := range s.Skipped {
		ew.printf("Skipped_File: %s (%s)\n", sk.FileID, sk.Reason)
	}
	return ew.err
}

// fileResultColumns lists the per-phase CSV columns after "file".
var fileResultColumns = []string{"TP", "FP", "FN", "Precision", "Recall", "F1", "MAE", "MAD"}

// WriteFileResults writes one CSV row per file with per-phase counts,
// ratios and residual statistics. MAE and MAD are empty when a phase has no
// match in that file.
func WriteFileResults(w io.Writer, results []pickeval.FileResult) error {
	cw := csv.NewWriter(w)

	header := []string{"file"}
	for _, ph := range pickeval.Phases() {
		for _, col := range fileResultColumns {
			header = append(header, ph.String()+"_"+col)
		}
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range results {
		row := make([]string, 0, len(header))
		row = append(row, r.FileID)
		for _, ph := range pickeval.Phases() {
			p := r.Phase(ph)
			row = append(row,
				strconv.Itoa(p.TP),
				strconv.Itoa(p.FP),
				strconv.Itoa(p.FN),
				formatRatio(p.Precision()),
				formatRatio(p.Recall()),
				formatRatio(p.F1()),
			)
			if mae, mad, ok := pickeval.ResidualStats(p.Residuals); ok {
				row = append(row, formatRatio(mae), formatRatio(mad))
			} else {
				row = append(row, "", "")
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", r.FileID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSweep writes sweep results as an aligned table in threshold order.
func WriteSweep(w io.Writer, results []SweepResult, cfg Config) error {
	ew := &errWriter{w: w}

	ew.printf("Threshold Sweep Results (wp=%.1f, wr=%.1f)\n", cfg.PrecisionWeight, cfg.RecallWeight)
	ew.printf("%s\n", rule(58))
	ew.printf("%-8s %-8s %-8s %-8s %-8s %-8s\n", "Thresh", "Tol", "Prec", "Rec", "F1", "Weighted")

	ordered := append([]SweepResult(nil), results...)
	sortByThreshold(ordered)
	for _, r := range ordered {
		ew.printf("%-8.3f %-8.3f %-8.2f %-8.2f %-8.2f %-8.2f\n",
			r.Threshold, r.Tolerance, r.Metrics.Precision, r.Metrics.Recall, r.Metrics.F1, r.Metrics.WeightedScore)
	}

	ew.printf("%s\n", rule(58))
	if len(results) > 0 {
		best := results[0]
		ew.printf("Optimal: threshold %.3f tolerance %.3f (Weighted: %.2f)\n",
			best.Threshold, best.Tolerance, best.Metrics.WeightedScore)
	}
	return ew.err
}

func sortByThreshold(results []SweepResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Tolerance != results[j].Tolerance {
			return results[i].Tolerance < results[j].Tolerance
		}
		return results[i].Threshold < results[j].Threshold
	})
}

func rule(n int) string {
	return strings.Repeat("-", n)
}

func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// errWriter keeps the first write error so report code can print freely.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
