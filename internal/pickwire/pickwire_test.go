package pickwire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/jamesainslie/go-pickeval"
)

func TestWriterReadAll(t *testing.T) {
	t.Parallel()

	records := []Record{
		{File: "evt-0001.npz", Pick: pickeval.NewScoredPick(pickeval.PhaseP, 1203, 0.91)},
		{File: "evt-0001.npz", Pick: pickeval.NewScoredPick(pickeval.PhaseS, 0, 0.42)},
		{File: "evt-0002.npz", Pick: pickeval.NewPick(pickeval.PhaseP, 77)},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, r := range records {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Flush())

	got, err := ReadAll(&buf)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestReadAll_Empty(t *testing.T) {
	t.Parallel()

	got, err := ReadAll(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadAll_Truncated(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(Record{File: "a", Pick: pickeval.NewPick(pickeval.PhaseS, 5)}))
	require.NoError(t, w.Flush())

	data := buf.Bytes()
	_, err := ReadAll(bytes.NewReader(data[:len(data)-2]))
	assert.ErrorIs(t, err, pickeval.ErrMalformedFile)
}

func TestUnmarshal_SkipsUnknownFields(t *testing.T) {
	t.Parallel()

	b := Marshal(Record{File: "x", Pick: pickeval.NewPick(pickeval.PhaseP, 9)})
	b = protowire.AppendTag(b, 15, protowire.BytesType)
	b = protowire.AppendString(b, "station=ABC")

	r, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, Record{File: "x", Pick: pickeval.NewPick(pickeval.PhaseP, 9)}, r)
}

func TestUnmarshal_Invalid(t *testing.T) {
	t.Parallel()

	noFile := Marshal(Record{Pick: pickeval.NewPick(pickeval.PhaseP, 1)})
	badPhase := Marshal(Record{File: "x", Pick: pickeval.Pick{Index: 1, Phase: pickeval.Phase(4)}})

	var noIndex []byte
	noIndex = protowire.AppendTag(noIndex, fieldFile, protowire.BytesType)
	noIndex = protowire.AppendString(noIndex, "x")
	noIndex = protowire.AppendTag(noIndex, fieldPhase, protowire.VarintType)
	noIndex = protowire.AppendVarint(noIndex, 1)

	for name, b := range map[string][]byte{
		"no file":   noFile,
		"bad phase": badPhase,
		"no index":  noIndex,
		"garbage":   {0xff, 0xff, 0xff},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Unmarshal(b)
			assert.ErrorIs(t, err, pickeval.ErrMalformedFile)
		})
	}
}
