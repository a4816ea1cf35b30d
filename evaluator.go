package pickeval

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Evaluator scores a corpus of files against one configuration.
// It is safe for concurrent use; each Run owns its own Aggregator.
type Evaluator struct {
	cfg     Config
	workers int
	logger  *slog.Logger
}

// Report is the outcome of a corpus run.
type Report struct {
	Summary Summary
	Files   []FileResult // sorted by FileID, skipped files excluded
}

// New creates an Evaluator. It returns ErrConfiguration when the options
// describe an invalid run.
func New(opts ...Option) (*Evaluator, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{
		cfg:     o.cfg,
		workers: o.workers,
		logger:  o.logger,
	}, nil
}

// Config returns the run configuration.
func (e *Evaluator) Config() Config {
	return e.cfg
}

// Run evaluates every file and aggregates the results.
//
// Sample periods are checked for every file before any is evaluated; an
// invalid one aborts the run with ErrConfiguration. Files carrying a loader
// error or failing with ErrMalformedFile are logged and listed in
// Summary.Skipped. A repeated file id is evaluated once; later copies are
// logged and dropped. The summary does not depend on file order or on the
// number of workers.
func (e *Evaluator) Run(ctx context.Context, files []FileInput) (*Report, error) {
	unique := make([]FileInput, 0, len(files))
	seen := make(map[string]struct{}, len(files))
	for _, in := range files {
		if _, dup := seen[in.ID]; dup {
			e.logger.Warn("dropping duplicate file", "file", in.ID)
			continue
		}
		seen[in.ID] = struct{}{}
		if in.Err == nil {
			if err := validateDT(in.DT); err != nil {
				return nil, fmt.Errorf("file %s: %w", in.ID, err)
			}
		}
		unique = append(unique, in)
	}

	agg := NewAggregator(e.cfg.Mode)
	results := make([]*FileResult, len(unique))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, in := range unique {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if in.Err != nil {
				e.logger.Warn("skipping unreadable file", "file", in.ID, "err", in.Err)
				return agg.Skip(in.ID, in.Err)
			}

			res, err := EvaluateFile(in, e.cfg)
			if errors.Is(err, ErrMalformedFile) {
				e.logger.Warn("skipping malformed file", "file", in.ID, "err", err)
				return agg.Skip(in.ID, err)
			}
			if err != nil {
				return err
			}
			if err := agg.Add(res); err != nil {
				return err
			}
			results[i] = &res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := agg.Finalize()
	e.logger.Debug("corpus evaluated",
		"mode", e.cfg.Mode.String(),
		"files", summary.Files,
		"skipped", len(summary.Skipped),
	)

	out := make([]FileResult, 0, summary.Files)
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	slices.SortFunc(out, func(a, b FileResult) int { return cmp.Compare(a.FileID, b.FileID) })

	return &Report{Summary: summary, Files: out}, nil
}

// EvaluateFile evaluates one file with the Evaluator's configuration.
func (e *Evaluator) EvaluateFile(in FileInput) (FileResult, error) {
	return EvaluateFile(in, e.cfg)
}
