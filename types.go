package pickeval

import (
	"fmt"
	"strings"
)

// Phase is a seismic phase class.
type Phase uint8

const (
	PhaseP Phase = iota
	PhaseS
)

// NumPhases is the number of phase classes evaluated per file.
const NumPhases = 2

// Phases returns all phase classes in evaluation order.
func Phases() []Phase {
	return []Phase{PhaseP, PhaseS}
}

func (p Phase) String() string {
	switch p {
	case PhaseP:
		return "P"
	case PhaseS:
		return "S"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	return p < NumPhases
}

// ParsePhase parses "P" or "S" (case-insensitive).
func ParsePhase(s string) (Phase, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "P":
		return PhaseP, nil
	case "S":
		return PhaseS, nil
	default:
		return 0, fmt.Errorf("%w: unknown phase %q", ErrMalformedFile, s)
	}
}

// Pick is one candidate arrival emitted by a detector.
type Pick struct {
	Index    int // sample offset within the record
	Score    float64
	HasScore bool // false for trigger detectors, which carry no confidence
	Phase    Phase
}

// NewPick returns an unscored pick.
func NewPick(phase Phase, index int) Pick {
	return Pick{Index: index, Phase: phase}
}

// NewScoredPick returns a pick carrying a detector confidence.
func NewScoredPick(phase Phase, index int, score float64) Pick {
	return Pick{Index: index, Score: score, HasScore: true, Phase: phase}
}

// Time returns the pick time in seconds for sample period dt.
func (p Pick) Time(dt float64) float64 {
	return float64(p.Index) * dt
}

// Label is one ground-truth arrival annotation.
type Label struct {
	Index int
	Phase Phase
}

// Time returns the label time in seconds for sample period dt.
func (l Label) Time(dt float64) float64 {
	return float64(l.Index) * dt
}

// OptionalIndex is a sample index that may be absent.
type OptionalIndex struct {
	index int
	ok    bool
}

// SomeIndex returns a present index.
func SomeIndex(i int) OptionalIndex {
	return OptionalIndex{index: i, ok: true}
}

// NoIndex returns an absent index.
func NoIndex() OptionalIndex {
	return OptionalIndex{}
}

// Get returns the index and whether it is present.
func (o OptionalIndex) Get() (int, bool) {
	return o.index, o.ok
}

// Present reports whether the index is set.
func (o OptionalIndex) Present() bool {
	return o.ok
}

func (o OptionalIndex) String() string {
	if !o.ok {
		return "none"
	}
	return fmt.Sprintf("%d", o.index)
}

type indexSetKind uint8

const (
	indexSetNone indexSetKind = iota
	indexSetSingle
	indexSetMulti
)

// IndexSet holds the sample indices an archive stores for one phase of one
// file. Archives store nothing, a scalar, or an array; IndexSet keeps that
// distinction until Labels or Picks converts it to the canonical slice form.
type IndexSet struct {
	kind    indexSetKind
	indices []int
}

// NoIndices returns an empty set.
func NoIndices() IndexSet {
	return IndexSet{kind: indexSetNone}
}

// SingleIndex returns a set holding one index.
func SingleIndex(i int) IndexSet {
	return IndexSet{kind: indexSetSingle, indices: []int{i}}
}

// MultiIndex returns a set holding every given index. An empty argument list
// yields the same set as NoIndices.
func MultiIndex(indices ...int) IndexSet {
	if len(indices) == 0 {
		return NoIndices()
	}
	return IndexSet{kind: indexSetMulti, indices: append([]int(nil), indices...)}
}

// FromOptional converts an optional index into a set of zero or one index.
func FromOptional(o OptionalIndex) IndexSet {
	if i, ok := o.Get(); ok {
		return SingleIndex(i)
	}
	return NoIndices()
}

// Len returns the number of indices in the set.
func (s IndexSet) Len() int {
	return len(s.indices)
}

// Indices returns a copy of the indices.
func (s IndexSet) Indices() []int {
	if s.kind == indexSetNone {
		return nil
	}
	return append([]int(nil), s.indices...)
}

// Labels converts the set into labels of the given phase.
func (s IndexSet) Labels(phase Phase) []Label {
	if s.kind == indexSetNone {
		return nil
	}
	labels := make([]Label, len(s.indices))
	for i, idx := range s.indices {
		labels[i] = Label{Index: idx, Phase: phase}
	}
	return labels
}

// Picks converts the set into unscored picks of the given phase.
func (s IndexSet) Picks(phase Phase) []Pick {
	if s.kind == indexSetNone {
		return nil
	}
	picks := make([]Pick, len(s.indices))
	for i, idx := range s.indices {
		picks[i] = NewPick(phase, idx)
	}
	return picks
}

// FileInput is one record handed to the engine by a loader.
type FileInput struct {
	ID     string
	DT     float64 // sample period in seconds
	Labels []Label
	Picks  []Pick

	// Err is set by the loader when the record could not be read, e.g. a
	// missing waveform or unreadable labels. Such a file is skipped.
	Err error
}

func (in FileInput) labelsFor(phase Phase) []Label {
	var out []Label
	for _, l := range in.Labels {
		if l.Phase == phase {
			out = append(out, l)
		}
	}
	return out
}

func (in FileInput) picksFor(phase Phase) []Pick {
	var out []Pick
	for _, p := range in.Picks {
		if p.Phase == phase {
			out = append(out, p)
		}
	}
	return out
}
