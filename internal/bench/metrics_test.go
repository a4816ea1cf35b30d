package bench

import (
	"math"
	"testing"

	"github.com/jamesainslie/go-pickeval"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		counts pickeval.Counts
		cfg    Config
		want   Metrics
	}{
		{
			name:   "perfect",
			counts: pickeval.Counts{TP: 3},
			cfg:    DefaultConfig(),
			want:   Metrics{TruePositives: 3, Precision: 1, Recall: 1, F1: 1, WeightedScore: 1},
		},
		{
			name:   "empty",
			counts: pickeval.Counts{},
			cfg:    DefaultConfig(),
			want:   Metrics{},
		},
		{
			name:   "precision weighted",
			counts: pickeval.Counts{TP: 1, FP: 1},
			cfg:    Config{PrecisionWeight: 3, RecallWeight: 1},
			want: Metrics{
				TruePositives:  1,
				FalsePositives: 1,
				Precision:      0.5,
				Recall:         1,
				F1:             2.0 / 3.0,
				WeightedScore:  (3*0.5 + 1) / 4,
			},
		},
		{
			name:   "zero weights",
			counts: pickeval.Counts{TP: 1, FN: 1},
			cfg:    Config{},
			want:   Metrics{TruePositives: 1, FalseNegatives: 1, Precision: 1, Recall: 0.5, F1: 2.0 / 3.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.counts, tt.cfg)
			if got.TruePositives != tt.want.TruePositives ||
				got.FalsePositives != tt.want.FalsePositives ||
				got.FalseNegatives != tt.want.FalseNegatives {
				t.Errorf("counts = %+v, want %+v", got, tt.want)
			}
			for _, f := range []struct {
				name      string
				got, want float64
			}{
				{"precision", got.Precision, tt.want.Precision},
				{"recall", got.Recall, tt.want.Recall},
				{"f1", got.F1, tt.want.F1},
				{"weighted", got.WeightedScore, tt.want.WeightedScore},
			} {
				if math.Abs(f.got-f.want) > 1e-12 {
					t.Errorf("%s = %v, want %v", f.name, f.got, f.want)
				}
			}
		})
	}
}
