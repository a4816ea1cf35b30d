package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"

	"github.com/jamesainslie/go-pickeval"
	"github.com/jamesainslie/go-pickeval/internal/bench"
	"github.com/jamesainslie/go-pickeval/internal/store"
)

func main() {
	var (
		labelsPath = flag.String("labels", "", "Labels CSV: file_name,dt,p_idx,s_idx (required)")
		picksPath  = flag.String("picks", "", "Picks CSV or pickwire .pb file (required)")
		tolerance  = flag.Float64("tolerance", 0.1, "Matching tolerance in seconds")
		mode       = flag.String("mode", "multi-pick", "Evaluation mode: multi-pick or best-pick")
		assigner   = flag.String("assigner", "greedy", "Matching policy: greedy or optimal")
		minP       = flag.Float64("min-p", 0, "Minimum P pick score")
		minS       = flag.Float64("min-s", 0, "Minimum S pick score")
		workers    = flag.Int("workers", runtime.NumCPU(), "Files evaluated concurrently")
		wp         = flag.Float64("wp", 1.0, "Precision weight")
		wr         = flag.Float64("wr", 1.0, "Recall weight")
		sweep      = flag.Bool("sweep", false, "Run score threshold sweep")
		sweepMin   = flag.Float64("sweep-min", 0.1, "Sweep minimum threshold")
		sweepMax   = flag.Float64("sweep-max", 1.0, "Sweep maximum threshold")
		sweepStep  = flag.Float64("sweep-step", 0.1, "Sweep step size")
		sweepTol   = flag.String("sweep-tol", "", "Comma-separated tolerances to sweep (default: -tolerance)")
		dbPath     = flag.String("db", "", "SQLite database to record the run in")
		csvPath    = flag.String("csv", "", "Write per-file results to this CSV")
		verbose    = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *labelsPath == "" || *picksPath == "" {
		fmt.Fprintln(os.Stderr, "error: -labels and -picks required")
		flag.Usage()
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	m, err := pickeval.ParseMode(*mode)
	if err != nil {
		fatal(err)
	}
	a, err := pickeval.ParseAssigner(*assigner)
	if err != nil {
		fatal(err)
	}

	files, err := bench.LoadCorpus(*labelsPath, *picksPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading corpus: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d files from %s\n\n", len(files), *labelsPath)

	opts := []pickeval.Option{
		pickeval.WithMode(m),
		pickeval.WithAssigner(a),
		pickeval.WithWorkers(*workers),
		pickeval.WithLogger(logger),
	}
	cfg := bench.Config{
		Tolerance:       *tolerance,
		PrecisionWeight: *wp,
		RecallWeight:    *wr,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *sweep {
		tolerances, err := parseFloats(*sweepTol)
		if err != nil {
			fatal(err)
		}
		runSweep(ctx, files, cfg, opts, *sweepMin, *sweepMax, *sweepStep, tolerances)
		return
	}

	opts = append(opts,
		pickeval.WithTolerance(*tolerance),
		pickeval.WithMinScore(pickeval.PhaseP, *minP),
		pickeval.WithMinScore(pickeval.PhaseS, *minS),
	)
	report := runSingle(ctx, files, opts)

	if *csvPath != "" {
		if err := writeFileResults(*csvPath, report.Files); err != nil {
			fatal(err)
		}
	}

	if *dbPath != "" {
		runID, err := saveRun(ctx, *dbPath, logger, store.RunMeta{
			Tolerance:  *tolerance,
			Assigner:   *assigner,
			LabelsPath: *labelsPath,
			PicksPath:  *picksPath,
		}, report)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("\nRun ID: %s\n", runID)
	}
}

func runSingle(ctx context.Context, files []pickeval.FileInput, opts []pickeval.Option) *pickeval.Report {
	ev, err := pickeval.New(opts...)
	if err != nil {
		fatal(err)
	}

	report, err := ev.Run(ctx, files)
	if err != nil {
		fatal(err)
	}

	if err := bench.WriteSummary(os.Stdout, report.Summary); err != nil {
		fatal(err)
	}
	return report
}

func runSweep(ctx context.Context, files []pickeval.FileInput, cfg bench.Config, opts []pickeval.Option, min, max, step float64, tolerances []float64) {
	thresholds := bench.SweepThresholds(min, max, step)

	results, err := bench.Sweep(ctx, files, cfg, thresholds, tolerances, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error during sweep: %v\n", err)
		os.Exit(1)
	}

	if err := bench.WriteSweep(os.Stdout, results, cfg); err != nil {
		fatal(err)
	}
}

func writeFileResults(path string, results []pickeval.FileResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := bench.WriteFileResults(f, results); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func saveRun(ctx context.Context, path string, logger *slog.Logger, meta store.RunMeta, report *pickeval.Report) (string, error) {
	s, err := store.Open(path, store.WithLogger(logger))
	if err != nil {
		return "", err
	}
	defer func() { _ = s.Close() }()

	return s.SaveRun(ctx, meta, report)
}

func parseFloats(list string) ([]float64, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	var out []float64
	for _, part := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: tolerance %q", pickeval.ErrConfiguration, part)
		}
		out = append(out, v)
	}
	return out, nil
}

func fatal(err error) {
	if errors.Is(err, pickeval.ErrConfiguration) {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}
