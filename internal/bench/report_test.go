package bench

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/jamesainslie/go-pickeval"
)

func TestWriteSummary(t *testing.T) {
	s := pickeval.Summary{
		Mode:  pickeval.ModeBestPick,
		Files: 3,
		Phases: [pickeval.NumPhases]pickeval.PhaseSummary{
			{Counts: pickeval.Counts{TP: 2, FP: 1}, Precision: 2.0 / 3.0, Recall: 1, F1: 0.8, Matched: 2, MAE: 0.025, MAD: 0.02},
			{Counts: pickeval.Counts{FN: 1}, Presence: pickeval.PresenceCounts{FN: 1, TN: 2}},
		},
		Skipped: []pickeval.SkippedFile{{FileID: "bad.npz", Reason: "malformed"}},
	}

	var b strings.Builder
	if err := WriteSummary(&b, s); err != nil {
		t.Fatalf("WriteSummary() failed: %v", err)
	}
	out := b.String()

	for _, want := range []string{
		"Mode: best-pick\n",
		"Files: 3\n",
		"P_Total_TP: 2\n",
		"P_Precision: 0.6667\n",
		"P_MAE: 0.0250\n",
		"S_MAE: n/a\n",
		"S_Presence_TN: 2\n",
		"Skipped_File: bad.npz (malformed)\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestWriteFileResults(t *testing.T) {
	results := []pickeval.FileResult{
		{
			FileID: "evt-1.npz",
			Phases: [pickeval.NumPhases]pickeval.PhaseResult{
				{Counts: pickeval.Counts{TP: 1, FP: 1}, Residuals: []float64{-0.03}},
				{Counts: pickeval.Counts{FN: 1}},
			},
		},
	}

	var b strings.Builder
	if err := WriteFileResults(&b, results); err != nil {
		t.Fatalf("WriteFileResults() failed: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(b.String())).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if got := len(records[0]); got != 1+2*len(fileResultColumns) {
		t.Errorf("header has %d columns", got)
	}

	want := []string{"evt-1.npz", "1", "1", "0", "0.5000", "1.0000", "0.6667", "0.0300", "0.0300",
		"0", "0", "1", "0.0000", "0.0000", "0.0000", "", ""}
	for i := range want {
		if records[1][i] != want[i] {
			t.Errorf("column %s = %q, want %q", records[0][i], records[1][i], want[i])
		}
	}
}

func TestWriteSweep(t *testing.T) {
	results := []SweepResult{
		{Threshold: 0.5, Tolerance: 0.1, Metrics: Metrics{WeightedScore: 0.9}},
		{Threshold: 0.3, Tolerance: 0.1, Metrics: Metrics{WeightedScore: 0.7}},
	}

	var b strings.Builder
	if err := WriteSweep(&b, results, DefaultConfig()); err != nil {
		t.Fatalf("WriteSweep() failed: %v", err)
	}
	out := b.String()

	if strings.Index(out, "0.300") > strings.Index(out, "0.500 ") {
		t.Errorf("rows not in threshold order:\n%s", out)
	}
	if !strings.Contains(out, "Optimal: threshold 0.500 tolerance 0.100 (Weighted: 0.90)") {
		t.Errorf("missing optimal line:\n%s", out)
	}
}
