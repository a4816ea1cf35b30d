package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/go-pickeval"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testReport(t *testing.T) *pickeval.Report {
	t.Helper()

	ev, err := pickeval.New(pickeval.WithMode(pickeval.ModeBestPick),
		pickeval.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	report, err := ev.Run(context.Background(), []pickeval.FileInput{
		{
			ID: "evt-1", DT: 0.01,
			Labels: []pickeval.Label{{Index: 100, Phase: pickeval.PhaseP}},
			Picks:  []pickeval.Pick{pickeval.NewScoredPick(pickeval.PhaseP, 103, 0.9)},
		},
		{
			ID: "evt-2", DT: 0.01,
			Picks: []pickeval.Pick{pickeval.NewScoredPick(pickeval.PhaseS, 40, 0.6)},
		},
		{ID: "evt-3", DT: 0.01, Labels: []pickeval.Label{{Index: -2, Phase: pickeval.PhaseP}}},
	})
	require.NoError(t, err)
	return report
}

func TestOpen_MigratesToLatest(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)
}

func TestSaveRun_RoundTrip(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	report := testReport(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runID, err := s.SaveRun(ctx, RunMeta{
		Tolerance:  0.1,
		Assigner:   "greedy",
		LabelsPath: "labels.csv",
		PicksPath:  "picks.pb",
		CreatedAt:  created,
	}, report)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	got, err := s.PhaseSummaries(ctx, runID)
	require.NoError(t, err)
	if diff := cmp.Diff(report.Summary.Phases, got); diff != "" {
		t.Errorf("phase summaries mismatch (-want +got):\n%s", diff)
	}

	counts, err := s.FileCounts(ctx, runID, pickeval.PhaseS)
	require.NoError(t, err)
	assert.Equal(t, map[string]pickeval.Counts{
		"evt-1": {},
		"evt-2": {FP: 1},
	}, counts)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, pickeval.ModeBestPick, runs[0].Mode)
	assert.Equal(t, 2, runs[0].Files)
	assert.Equal(t, 1, runs[0].Skipped)
	assert.True(t, created.Equal(runs[0].CreatedAt))
	assert.Equal(t, "picks.pb", runs[0].PicksPath)
}

func TestSaveRun_DistinctIDs(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	report := testReport(t)
	ctx := context.Background()

	a, err := s.SaveRun(ctx, RunMeta{Assigner: "greedy"}, report)
	require.NoError(t, err)
	b, err := s.SaveRun(ctx, RunMeta{Assigner: "optimal"}, report)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestPhaseSummaries_UnknownRun(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	_, err := s.PhaseSummaries(context.Background(), "no-such-run")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestMigrateTo_Down(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	require.NoError(t, s.MigrateTo(1))

	version, _, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	_, err = s.SaveRun(context.Background(), RunMeta{}, testReport(t))
	assert.Error(t, err, "file_results table should be gone")

	require.NoError(t, s.MigrateUp())
}
