package trigger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/go-pickeval"
)

func TestClassicSTALTA_Constant(t *testing.T) {
	t.Parallel()

	trace := make([]float64, 50)
	for i := range trace {
		trace[i] = 2
	}
	cft, err := ClassicSTALTA(trace, 5, 20)
	require.NoError(t, err)
	require.Len(t, cft, 50)

	for i := 0; i < 19; i++ {
		assert.Zero(t, cft[i], "sample %d", i)
	}
	for i := 19; i < 50; i++ {
		assert.InDelta(t, 1.0, cft[i], 1e-12, "sample %d", i)
	}
}

func TestClassicSTALTA_ShortTrace(t *testing.T) {
	t.Parallel()

	cft, err := ClassicSTALTA([]float64{1, 2, 3}, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, cft)
}

func TestClassicSTALTA_InvalidWindow(t *testing.T) {
	t.Parallel()

	_, err := ClassicSTALTA(make([]float64, 10), 5, 5)
	assert.ErrorIs(t, err, ErrInvalidWindow)
	_, err = ClassicSTALTA(make([]float64, 10), 0, 5)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestOnsets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cft  []float64
		want []Onset
	}{
		{name: "quiet", cft: []float64{0, 1, 1.2, 0.9}},
		{name: "single", cft: []float64{0, 3, 2, 0.5, 0.2}, want: []Onset{{On: 1, Off: 3}}},
		{name: "hysteresis holds", cft: []float64{3, 1.5, 2.6, 0.8, 3, 0}, want: []Onset{{On: 0, Off: 3}, {On: 4, Off: 5}}},
		{name: "open at end", cft: []float64{0, 0, 4, 4}, want: []Onset{{On: 2, Off: 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Onsets(tt.cft, 2.5, 1.0))
		})
	}
}

func TestDetect_Burst(t *testing.T) {
	t.Parallel()

	trace := make([]float64, 3000)
	for i := range trace {
		trace[i] = 0.01 * math.Sin(float64(i))
	}
	for i := 2000; i < 2100; i++ {
		trace[i] = math.Sin(float64(i) / 3)
	}

	onsets, err := Detect(trace, DefaultConfig())
	require.NoError(t, err)
	require.NotEmpty(t, onsets)
	assert.InDelta(t, 2000, onsets[0].On, 10)
}

func TestConfig(t *testing.T) {
	t.Parallel()

	cfg := ConfigForRate(1, 10, 0.01, 2.5, 1.0)
	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())

	cfg.ThresholdOff = 3
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidWindow)
}

func TestPicks(t *testing.T) {
	t.Parallel()

	onsets := []Onset{{On: 10, Off: 20}, {On: 40, Off: 45}}
	got := Picks(onsets, pickeval.PhaseP, pickeval.PhaseS)
	want := []pickeval.Pick{
		pickeval.NewPick(pickeval.PhaseP, 10),
		pickeval.NewPick(pickeval.PhaseP, 40),
		pickeval.NewPick(pickeval.PhaseS, 10),
		pickeval.NewPick(pickeval.PhaseS, 40),
	}
	assert.Equal(t, want, got)
	assert.Empty(t, Picks(onsets))
}
