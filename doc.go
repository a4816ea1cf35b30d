// Package pickeval scores seismic phase pickers against hand-labelled
// arrivals.
//
// # Quick Start
//
//	ev, err := pickeval.New(
//	    pickeval.WithTolerance(0.1),
//	    pickeval.WithMode(pickeval.ModeBestPick),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	report, err := ev.Run(ctx, files)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	p := report.Summary.Phase(pickeval.PhaseP)
//	fmt.Printf("P: precision %.4f recall %.4f F1 %.4f MAE %.3fs\n",
//	    p.Precision, p.Recall, p.F1, p.MAE)
//
// # Matching
//
// For each file and phase, labels are paired one-to-one with picks whose
// offset is within the tolerance window. Greedy (the default) visits labels
// in input order and takes the nearest free pick; Optimal solves the
// minimum-cost assignment. Unpaired picks are false positives and unpaired
// labels are false negatives.
//
// # Modes
//
// ModeMultiPick matches every candidate, which suits trigger detectors.
// ModeBestPick keeps each phase's highest-score pick and additionally reports
// a presence classification (did the detector fire at all) next to the
// timing-based counts.
//
// # Aggregation
//
// Counts are summed across files before precision, recall and F1 are
// computed. Residuals of matched pairs are pooled and reduced once, so the
// summary is independent of file order and of parallelism.
package pickeval
