package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/go-pickeval"
	"github.com/jamesainslie/go-pickeval/inference"
	"github.com/jamesainslie/go-pickeval/internal/bench"
	"github.com/jamesainslie/go-pickeval/internal/pickwire"
	"github.com/jamesainslie/go-pickeval/picker"
	"github.com/jamesainslie/go-pickeval/trigger"
)

func main() {
	modelPath := flag.String("model", "", "Path to ONNX model file (onnx mode)")
	mode := flag.String("mode", "onnx", "Mode: onnx or stalta")
	dt := flag.Float64("dt", 0.01, "Sample period in seconds")
	format := flag.String("format", "csv", "Output format: csv or pb")
	out := flag.String("out", "", "Output file (default: stdout)")
	fileName := flag.String("file-name", "", "File name written with each pick (default: input base name)")
	minP := flag.Float64("min-p", 0.3, "Minimum P probability (onnx mode)")
	minS := flag.Float64("min-s", 0.3, "Minimum S probability (onnx mode)")
	sta := flag.Float64("sta", 1.0, "STA window in seconds (stalta mode)")
	lta := flag.Float64("lta", 10.0, "LTA window in seconds (stalta mode)")
	on := flag.Float64("on", 2.5, "Trigger on threshold (stalta mode)")
	off := flag.Float64("off", 1.0, "Trigger off threshold (stalta mode)")
	channel := flag.Int("channel", 2, "Component used by the trigger (stalta mode)")
	header := flag.Bool("header", true, "Write the CSV header row")

	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: pick-cli [OPTIONS] WAVEFORM")
		fmt.Fprintln(os.Stderr, "WAVEFORM is raw little-endian float32 samples, 3 components interleaved.")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	path := flag.Arg(0)
	samples, err := readWaveform(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading waveform: %v\n", err)
		os.Exit(1)
	}
	id := *fileName
	if id == "" {
		id = filepath.Base(path)
	}

	ctx := context.Background()

	var picks []pickeval.Pick
	switch *mode {
	case "onnx":
		if *modelPath == "" {
			fmt.Fprintln(os.Stderr, "Error: -model required in onnx mode")
			os.Exit(1)
		}
		p, err := picker.New(*modelPath,
			picker.WithMinProb(pickeval.PhaseP, float32(*minP)),
			picker.WithMinProb(pickeval.PhaseS, float32(*minS)),
			picker.WithPoolSize(1),
			picker.WithLogger(logger),
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating picker: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = p.Close() }() // Cleanup error ignored in CLI

		picks, err = p.Pick(ctx, samples, *dt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "stalta":
		if *channel < 0 || *channel >= inference.Channels {
			fmt.Fprintf(os.Stderr, "Error: channel %d out of range\n", *channel)
			os.Exit(1)
		}
		trace := component(samples, *channel)
		onsets, err := trigger.Detect(trace, trigger.ConfigForRate(*sta, *lta, *dt, *on, *off))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		picks = trigger.Picks(onsets, pickeval.Phases()...)
		logger.Info("trigger", "file", id, "onsets", len(onsets))

	default:
		fmt.Fprintf(os.Stderr, "Unknown mode: %s\n", *mode)
		os.Exit(1)
	}

	w := io.Writer(os.Stdout)
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	if err := writePicks(w, *format, id, picks, *header); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing picks: %v\n", err)
		os.Exit(1)
	}
}

// readWaveform reads interleaved little-endian float32 samples.
func readWaveform(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size()%4 != 0 || (info.Size()/4)%inference.Channels != 0 {
		return nil, fmt.Errorf("%s: size %d is not a whole number of %d-component float32 samples",
			path, info.Size(), inference.Channels)
	}

	samples := make([]float32, info.Size()/4)
	if err := binary.Read(f, binary.LittleEndian, samples); err != nil {
		return nil, err
	}
	return samples, nil
}

func component(samples []float32, c int) []float64 {
	n := len(samples) / inference.Channels
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(samples[i*inference.Channels+c])
	}
	return out
}

func writePicks(w io.Writer, format, id string, picks []pickeval.Pick, header bool) error {
	switch strings.ToLower(format) {
	case "csv":
		return bench.WritePicksCSV(w, id, picks, header)
	case "pb":
		pw := pickwire.NewWriter(w)
		for _, p := range picks {
			if err := pw.Write(pickwire.Record{File: id, Pick: p}); err != nil {
				return err
			}
		}
		return pw.Flush()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
