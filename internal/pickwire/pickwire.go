// Package pickwire encodes picks as a stream of length-delimited protobuf
// records, so large pick sets can be written incrementally by a producer and
// read back by the benchmark.
//
// Each record is a varint byte length followed by a message with fields
//
//	1: file name (string)
//	2: phase (varint, 0 = P, 1 = S)
//	3: sample index (varint)
//	4: score (fixed64 IEEE-754, absent for unscored picks)
package pickwire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/jamesainslie/go-pickeval"
)

const (
	fieldFile  protowire.Number = 1
	fieldPhase protowire.Number = 2
	fieldIndex protowire.Number = 3
	fieldScore protowire.Number = 4
)

// maxRecordSize bounds a single record so a corrupt length prefix cannot
// trigger a huge allocation.
const maxRecordSize = 1 << 20

// Record is one pick belonging to one file.
type Record struct {
	File string
	Pick pickeval.Pick
}

// Writer appends records to an underlying stream.
type Writer struct {
	w   *bufio.Writer
	buf []byte
}

// NewWriter returns a Writer on w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write encodes one record.
func (w *Writer) Write(r Record) error {
	msg := Marshal(r)
	w.buf = protowire.AppendVarint(w.buf[:0], uint64(len(msg)))
	w.buf = append(w.buf, msg...)
	if _, err := w.w.Write(w.buf); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}

// Flush writes any buffered data.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Marshal encodes a record body without its length prefix.
func Marshal(r Record) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldFile, protowire.BytesType)
	b = protowire.AppendString(b, r.File)
	b = protowire.AppendTag(b, fieldPhase, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Pick.Phase))
	b = protowire.AppendTag(b, fieldIndex, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Pick.Index))
	if r.Pick.HasScore {
		b = protowire.AppendTag(b, fieldScore, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(r.Pick.Score))
	}
	return b
}

// Unmarshal decodes a record body. Unknown fields are skipped.
func Unmarshal(b []byte) (Record, error) {
	var r Record
	var havePhase, haveIndex bool

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Record{}, malformed(protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldFile && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return Record{}, malformed(protowire.ParseError(n))
			}
			r.File = s
			b = b[n:]
		case num == fieldPhase && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Record{}, malformed(protowire.ParseError(n))
			}
			r.Pick.Phase = pickeval.Phase(v)
			havePhase = true
			b = b[n:]
		case num == fieldIndex && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Record{}, malformed(protowire.ParseError(n))
			}
			if v > math.MaxInt32 {
				return Record{}, malformed(fmt.Errorf("index %d out of range", v))
			}
			r.Pick.Index = int(v)
			haveIndex = true
			b = b[n:]
		case num == fieldScore && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return Record{}, malformed(protowire.ParseError(n))
			}
			r.Pick.Score = math.Float64frombits(v)
			r.Pick.HasScore = true
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Record{}, malformed(protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	switch {
	case r.File == "":
		return Record{}, malformed(fmt.Errorf("missing file name"))
	case !havePhase || !r.Pick.Phase.Valid():
		return Record{}, malformed(fmt.Errorf("file %s: missing or unknown phase", r.File))
	case !haveIndex:
		return Record{}, malformed(fmt.Errorf("file %s: missing index", r.File))
	}
	return r, nil
}

// ReadAll decodes every record in r.
func ReadAll(r io.Reader) ([]Record, error) {
	br := bufio.NewReader(r)
	var records []Record
	var buf []byte

	for {
		size, err := readVarint(br)
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		if size > maxRecordSize {
			return nil, malformed(fmt.Errorf("record %d: length %d exceeds limit", len(records), size))
		}

		if cap(buf) < int(size) {
			buf = make([]byte, size)
		}
		buf = buf[:size]
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, malformed(fmt.Errorf("record %d: %w", len(records), err))
		}

		rec, err := Unmarshal(buf)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
}

// readVarint reads a length prefix. It returns io.EOF only at a clean record
// boundary.
func readVarint(br *bufio.Reader) (uint64, error) {
	var prefix []byte
	for {
		c, err := br.ReadByte()
		if err == io.EOF && len(prefix) == 0 {
			return 0, io.EOF
		}
		if err != nil {
			return 0, malformed(fmt.Errorf("truncated length prefix: %w", err))
		}
		prefix = append(prefix, c)
		if c < 0x80 {
			break
		}
		if len(prefix) >= binary.MaxVarintLen64 {
			return 0, malformed(fmt.Errorf("length prefix too long"))
		}
	}
	v, n := protowire.ConsumeVarint(prefix)
	if n < 0 {
		return 0, malformed(protowire.ParseError(n))
	}
	return v, nil
}

func malformed(err error) error {
	return fmt.Errorf("%w: pickwire: %w", pickeval.ErrMalformedFile, err)
}
