package inference

import (
	"os"
	"strings"
	"testing"
)

const testModelPath = "../testdata/phasenet.onnx"

// requireModel skips the test when the model file is absent.
func requireModel(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(testModelPath); err != nil {
		t.Skipf("Skipping: model not available at %s", testModelPath)
	}
}

// skipIfORTUnavailable skips the test when err comes from a missing ONNX
// Runtime shared library.
func skipIfORTUnavailable(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		return
	}
	msg := err.Error()
	for _, s := range []string{"onnxruntime", "shared library", "dylib", ".so", ".dll", "cannot open", "initializing ONNX runtime"} {
		if strings.Contains(msg, s) {
			t.Skipf("Skipping: ONNX runtime not available: %v", err)
		}
	}
}

func openPool(t *testing.T, size int) *Pool {
	t.Helper()
	requireModel(t)
	pool, err := NewPool(testModelPath, DefaultIONames, size)
	skipIfORTUnavailable(t, err)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

// impulse returns a three-component waveform of n samples with a spike on
// every channel at sample at.
func impulse(n, at int) []float32 {
	w := make([]float32, n*Channels)
	for c := 0; c < Channels; c++ {
		w[at*Channels+c] = 1
	}
	return w
}
