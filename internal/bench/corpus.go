// Package bench loads pick-evaluation corpora and reports benchmark results.
package bench

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/jamesainslie/go-pickeval"
	"github.com/jamesainslie/go-pickeval/internal/pickwire"
)

// Label CSV columns.
const (
	colFileName = "file_name"
	colDT       = "dt"
	colPIndex   = "p_idx"
	colSIndex   = "s_idx"
)

var labelColumns = [pickeval.NumPhases]string{colPIndex, colSIndex}

// Pick CSV columns, as written by PhaseNet.
const (
	colPhaseIndex = "phase_index"
	colPhaseScore = "phase_score"
	colPhaseType  = "phase_type"
)

// LabelRow is one file's ground truth.
type LabelRow struct {
	FileID  string
	DT      float64
	Indices [pickeval.NumPhases]pickeval.IndexSet
	Err     error
}

// ParseIndexCell parses a label cell. An empty cell means no arrival and
// several arrivals are separated by ';'. Surrounding brackets are ignored.
func ParseIndexCell(cell string) (pickeval.IndexSet, error) {
	cell = strings.TrimSpace(cell)
	cell = strings.TrimSuffix(strings.TrimPrefix(cell, "["), "]")
	if strings.TrimSpace(cell) == "" {
		return pickeval.NoIndices(), nil
	}

	parts := strings.Split(cell, ";")
	indices := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		i, err := strconv.Atoi(part)
		if err != nil {
			return pickeval.IndexSet{}, fmt.Errorf("%w: index %q", pickeval.ErrMalformedFile, part)
		}
		if i < 0 {
			return pickeval.IndexSet{}, fmt.Errorf("%w: negative index %d", pickeval.ErrMalformedFile, i)
		}
		indices = append(indices, i)
	}
	if len(indices) == 1 {
		return pickeval.SingleIndex(indices[0]), nil
	}
	return pickeval.MultiIndex(indices...), nil
}

// ReadLabels reads a labels CSV with columns file_name, dt, p_idx, s_idx.
// Rows that cannot be parsed carry their error in LabelRow.Err.
func ReadLabels(r io.Reader) ([]LabelRow, error) {
	records, cols, err := readTable(r, colFileName, colDT, colPIndex, colSIndex)
	if err != nil {
		return nil, err
	}

	rows := make([]LabelRow, 0, len(records))
	for line, rec := range records {
		row := LabelRow{FileID: strings.TrimSpace(rec[cols[colFileName]])}
		if row.FileID == "" {
			return nil, fmt.Errorf("%w: labels line %d: empty file name", pickeval.ErrMalformedFile, line+2)
		}

		dt, err := strconv.ParseFloat(strings.TrimSpace(rec[cols[colDT]]), 64)
		if err != nil {
			row.Err = fmt.Errorf("%w: dt %q", pickeval.ErrMalformedFile, rec[cols[colDT]])
			rows = append(rows, row)
			continue
		}
		row.DT = dt

		for _, ph := range pickeval.Phases() {
			col := labelColumns[ph]
			set, err := ParseIndexCell(rec[cols[col]])
			if err != nil {
				row.Err = fmt.Errorf("%s: %w", col, err)
				break
			}
			row.Indices[ph] = set
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// PickRow is one pick, or a row that could not be parsed.
type PickRow struct {
	FileID string
	Pick   pickeval.Pick
	Err    error
}

// ReadPicksCSV reads a picks CSV with columns file_name, phase_index,
// phase_score and phase_type. An empty score makes an unscored pick.
func ReadPicksCSV(r io.Reader) ([]PickRow, error) {
	records, cols, err := readTable(r, colFileName, colPhaseIndex, colPhaseScore, colPhaseType)
	if err != nil {
		return nil, err
	}

	rows := make([]PickRow, 0, len(records))
	for line, rec := range records {
		row := PickRow{FileID: strings.TrimSpace(rec[cols[colFileName]])}
		if row.FileID == "" {
			return nil, fmt.Errorf("%w: picks line %d: empty file name", pickeval.ErrMalformedFile, line+2)
		}
		row.Pick, row.Err = parsePick(rec[cols[colPhaseIndex]], rec[cols[colPhaseScore]], rec[cols[colPhaseType]])
		rows = append(rows, row)
	}
	return rows, nil
}

func parsePick(index, score, phase string) (pickeval.Pick, error) {
	ph, err := pickeval.ParsePhase(phase)
	if err != nil {
		return pickeval.Pick{}, err
	}
	i, err := strconv.Atoi(strings.TrimSpace(index))
	if err != nil || i < 0 {
		return pickeval.Pick{}, fmt.Errorf("%w: phase_index %q", pickeval.ErrMalformedFile, index)
	}
	score = strings.TrimSpace(score)
	if score == "" {
		return pickeval.NewPick(ph, i), nil
	}
	s, err := strconv.ParseFloat(score, 64)
	if err != nil {
		return pickeval.Pick{}, fmt.Errorf("%w: phase_score %q", pickeval.ErrMalformedFile, score)
	}
	return pickeval.NewScoredPick(ph, i, s), nil
}

// readTable reads a CSV with a header row and returns the data records and
// the position of each required column.
func readTable(r io.Reader, required ...string) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: empty csv", pickeval.ErrMalformedFile)
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("%w: missing column %q", pickeval.ErrMalformedFile, name)
		}
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", pickeval.ErrMalformedFile, err)
	}
	return records, cols, nil
}

// LoadPicks reads picks from a CSV file, or from a pickwire stream when the
// path ends in .pb.
func LoadPicks(path string) ([]PickRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open picks: %w", err)
	}
	defer func() { _ = f.Close() }()

	if filepath.Ext(path) != ".pb" {
		return ReadPicksCSV(f)
	}

	records, err := pickwire.ReadAll(f)
	if err != nil {
		return nil, err
	}
	rows := make([]PickRow, len(records))
	for i, rec := range records {
		rows[i] = PickRow{FileID: rec.File, Pick: rec.Pick}
	}
	return rows, nil
}

// LoadCorpus joins a labels file with a picks file into evaluation inputs.
// Files appear in label order, followed by picked files that have no label
// row; the latter carry an error and are skipped by the evaluator.
func LoadCorpus(labelsPath, picksPath string) ([]pickeval.FileInput, error) {
	lf, err := os.Open(labelsPath)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer func() { _ = lf.Close() }()

	labels, err := ReadLabels(lf)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", filepath.Base(labelsPath), err)
	}

	picks, err := LoadPicks(picksPath)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", filepath.Base(picksPath), err)
	}

	return Join(labels, picks), nil
}

// Join builds one FileInput per file from label and pick rows.
func Join(labels []LabelRow, picks []PickRow) []pickeval.FileInput {
	files := make([]pickeval.FileInput, 0, len(labels))
	byID := make(map[string]int, len(labels))

	for _, row := range labels {
		if i, ok := byID[row.FileID]; ok {
			if files[i].Err == nil {
				files[i].Err = fmt.Errorf("%w: duplicate label row", pickeval.ErrMalformedFile)
			}
			continue
		}
		in := pickeval.FileInput{ID: row.FileID, DT: row.DT, Err: row.Err}
		for _, ph := range pickeval.Phases() {
			in.Labels = append(in.Labels, row.Indices[ph].Labels(ph)...)
		}
		byID[row.FileID] = len(files)
		files = append(files, in)
	}

	var orphans []string
	for _, row := range picks {
		i, ok := byID[row.FileID]
		if !ok {
			byID[row.FileID] = len(files)
			files = append(files, pickeval.FileInput{
				ID:  row.FileID,
				Err: errors.New("no label row"),
			})
			orphans = append(orphans, row.FileID)
			continue
		}
		if row.Err != nil {
			if files[i].Err == nil {
				files[i].Err = row.Err
			}
			continue
		}
		files[i].Picks = append(files[i].Picks, row.Pick)
	}

	if len(orphans) > 1 {
		tail := files[len(files)-len(orphans):]
		slices.SortFunc(tail, func(a, b pickeval.FileInput) int { return strings.Compare(a.ID, b.ID) })
	}
	return files
}

// WritePicksCSV writes picks of one file in the format ReadPicksCSV reads.
// When header is true the column row is written first.
func WritePicksCSV(w io.Writer, fileID string, picks []pickeval.Pick, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write([]string{colFileName, colPhaseIndex, colPhaseScore, colPhaseType}); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, p := range picks {
		score := ""
		if p.HasScore {
			score = strconv.FormatFloat(p.Score, 'f', -1, 64)
		}
		if err := cw.Write([]string{fileID, strconv.Itoa(p.Index), score, p.Phase.String()}); err != nil {
			return fmt.Errorf("write pick: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
