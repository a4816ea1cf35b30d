package picker

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jamesainslie/go-pickeval"
)

const testModelPath = "../testdata/phasenet.onnx"

// skipIfNoModel skips the test if the ONNX model is not available.
func skipIfNoModel(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(testModelPath); err != nil {
		t.Skipf("Skipping: ONNX model not available at %s", testModelPath)
	}
}

func newTestPicker(t *testing.T, opts ...Option) *Picker {
	t.Helper()
	skipIfNoModel(t)

	p, err := New(testModelPath, append([]Option{WithPoolSize(1)}, opts...)...)
	if err != nil {
		t.Skipf("Skipping: ONNX runtime unavailable: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestNew_ModelNotFound(t *testing.T) {
	_, err := New("nonexistent/phasenet.onnx")
	if err == nil {
		t.Fatal("expected error for nonexistent model")
	}
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("expected ErrModelNotFound, got: %v", err)
	}
}

func TestNew_InvalidModel(t *testing.T) {
	tmp, err := os.CreateTemp("", "fake_model_*.onnx")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	_, _ = tmp.WriteString("not a model")
	_ = tmp.Close()

	_, err = New(tmp.Name(), WithPoolSize(1))
	if err == nil {
		t.Fatal("expected error for garbage model")
	}
	if !errors.Is(err, ErrInvalidModel) {
		t.Errorf("expected ErrInvalidModel, got: %v", err)
	}
}

func TestPick_InvalidWaveform(t *testing.T) {
	p := &Picker{cfg: defaultConfig()}

	_, err := p.Pick(context.Background(), make([]float32, 10), 0.01)
	if !errors.Is(err, ErrInvalidWaveform) {
		t.Errorf("expected ErrInvalidWaveform, got: %v", err)
	}

	_, err = p.Pick(context.Background(), make([]float32, 9), 0)
	if !errors.Is(err, pickeval.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got: %v", err)
	}

	picks, err := p.Pick(context.Background(), nil, 0.01)
	if err != nil || picks != nil {
		t.Errorf("empty waveform: picks=%v err=%v", picks, err)
	}
}

func TestPick_Model(t *testing.T) {
	p := newTestPicker(t)

	const n = 4000
	samples := make([]float32, n*3)
	for i := 1200; i < 1400; i++ {
		v := float32(1)
		if i%2 == 0 {
			v = -1
		}
		for c := 0; c < 3; c++ {
			samples[i*3+c] = v * 50
		}
	}

	picks, err := p.Pick(context.Background(), samples, 0.01)
	if err != nil {
		t.Fatalf("Pick() failed: %v", err)
	}
	for _, pk := range picks {
		if pk.Index < 0 || pk.Index >= n {
			t.Errorf("pick index %d out of range", pk.Index)
		}
		if !pk.HasScore || pk.Score < 0.3 || pk.Score > 1 {
			t.Errorf("pick score %v outside [0.3, 1]", pk.Score)
		}
	}

	probs, err := p.Probabilities(context.Background(), samples)
	if err != nil {
		t.Fatalf("Probabilities() failed: %v", err)
	}
	for _, ph := range pickeval.Phases() {
		if len(probs[ph]) != n {
			t.Errorf("%s curve has %d samples, want %d", ph, len(probs[ph]), n)
		}
	}
}

func TestPick_ContextCancelled(t *testing.T) {
	p := newTestPicker(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Pick(ctx, make([]float32, 300), 0.01)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
}
