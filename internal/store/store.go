// Package store persists evaluation runs in a SQLite database so results
// from different detectors and configurations can be compared later.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jamesainslie/go-pickeval"
)

// ErrRunNotFound is returned when a run id has no stored results.
var ErrRunNotFound = errors.New("store: run not found")

// Store is a handle to a results database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open opens or creates the database at path and brings its schema up to
// date.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := s.MigrateUp(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunMeta describes how a run was produced.
type RunMeta struct {
	Tolerance  float64
	Assigner   string
	LabelsPath string
	PicksPath  string
	CreatedAt  time.Time // zero means now
}

// Run is a stored run header.
type Run struct {
	ID   string
	Mode pickeval.Mode
	RunMeta
	Files   int
	Skipped int
}

// SaveRun stores a report and returns the new run id.
func (s *Store) SaveRun(ctx context.Context, meta RunMeta, report *pickeval.Report) (string, error) {
	if report == nil {
		return "", errors.New("store: nil report")
	}

	runID := uuid.New().String()
	created := meta.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	sum := report.Summary

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after Commit

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, created_at, mode, assigner, tolerance, labels_path, picks_path, files, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, created.UTC().Format(time.RFC3339Nano), sum.Mode.String(), meta.Assigner, meta.Tolerance,
		meta.LabelsPath, meta.PicksPath, sum.Files, len(sum.Skipped),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, ph := range pickeval.Phases() {
		p := sum.Phase(ph)
		var mae, mad sql.NullFloat64
		if p.Matched > 0 {
			mae = sql.NullFloat64{Float64: p.MAE, Valid: true}
			mad = sql.NullFloat64{Float64: p.MAD, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO phase_summaries (run_id, phase, tp, fp, fn, precision, recall, f1, matched, mae, mad,
				presence_tp, presence_fp, presence_fn, presence_tn, presence_precision, presence_recall, presence_f1)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, ph.String(), p.TP, p.FP, p.FN, p.Precision, p.Recall, p.F1, p.Matched, mae, mad,
			p.Presence.TP, p.Presence.FP, p.Presence.FN, p.Presence.TN,
			p.PresencePrecision, p.PresenceRecall, p.PresenceF1,
		); err != nil {
			return "", fmt.Errorf("insert %s summary: %w", ph, err)
		}
	}

	fileStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO file_results (run_id, file_id, phase, tp, fp, fn) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare file results: %w", err)
	}
	defer func() { _ = fileStmt.Close() }()

	for _, fr := range report.Files {
		for _, ph := range pickeval.Phases() {
			c := fr.Phase(ph).Counts
			if _, err := fileStmt.ExecContext(ctx, runID, fr.FileID, ph.String(), c.TP, c.FP, c.FN); err != nil {
				return "", fmt.Errorf("insert result %s/%s: %w", fr.FileID, ph, err)
			}
		}
	}

	for _, sk := range sum.Skipped {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO skipped_files (run_id, file_id, reason) VALUES (?, ?, ?)`,
			runID, sk.FileID, sk.Reason,
		); err != nil {
			return "", fmt.Errorf("insert skipped %s: %w", sk.FileID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("run saved", "run", runID, "files", sum.Files, "skipped", len(sum.Skipped))
	return runID, nil
}

// PhaseSummaries returns the per-phase summaries stored for a run.
func (s *Store) PhaseSummaries(ctx context.Context, runID string) ([pickeval.NumPhases]pickeval.PhaseSummary, error) {
	var out [pickeval.NumPhases]pickeval.PhaseSummary

	rows, err := s.db.QueryContext(ctx, `
		SELECT phase, tp, fp, fn, precision, recall, f1, matched, mae, mad,
			presence_tp, presence_fp, presence_fn, presence_tn, presence_precision, presence_recall, presence_f1
		FROM phase_summaries WHERE run_id = ?`, runID)
	if err != nil {
		return out, fmt.Errorf("query summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	found := 0
	for rows.Next() {
		var (
			phase    string
			p        pickeval.PhaseSummary
			mae, mad sql.NullFloat64
		)
		if err := rows.Scan(&phase, &p.TP, &p.FP, &p.FN, &p.Precision, &p.Recall, &p.F1, &p.Matched, &mae, &mad,
			&p.Presence.TP, &p.Presence.FP, &p.Presence.FN, &p.Presence.TN,
			&p.PresencePrecision, &p.PresenceRecall, &p.PresenceF1); err != nil {
			return out, fmt.Errorf("scan summary: %w", err)
		}
		ph, err := pickeval.ParsePhase(phase)
		if err != nil {
			return out, fmt.Errorf("stored phase: %w", err)
		}
		p.MAE = mae.Float64
		p.MAD = mad.Float64
		out[ph] = p
		found++
	}
	if err := rows.Err(); err != nil {
		return out, err
	}
	if found == 0 {
		return out, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return out, nil
}

// FileCounts returns the stored per-file counts of one phase of a run,
// keyed by file id.
func (s *Store) FileCounts(ctx context.Context, runID string, phase pickeval.Phase) (map[string]pickeval.Counts, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_id, tp, fp, fn FROM file_results WHERE run_id = ? AND phase = ?`, runID, phase.String())
	if err != nil {
		return nil, fmt.Errorf("query file results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]pickeval.Counts)
	for rows.Next() {
		var id string
		var c pickeval.Counts
		if err := rows.Scan(&id, &c.TP, &c.FP, &c.FN); err != nil {
			return nil, fmt.Errorf("scan file result: %w", err)
		}
		out[id] = c
	}
	return out, rows.Err()
}

// Runs lists stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, created_at, mode, assigner, tolerance, labels_path, picks_path, files, skipped
		FROM runs ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			r             Run
			created, mode string
		)
		if err := rows.Scan(&r.ID, &created, &mode, &r.Assigner, &r.Tolerance,
			&r.LabelsPath, &r.PicksPath, &r.Files, &r.Skipped); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("run %s created_at: %w", r.ID, err)
		}
		if r.Mode, err = pickeval.ParseMode(mode); err != nil {
			return nil, fmt.Errorf("run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
