package inference

import (
	"context"
	"errors"
	"os"
	"testing"
)

func TestNewSession_FileNotFound(t *testing.T) {
	_, err := NewSession("../testdata/nonexistent.onnx", DefaultIONames)
	if err == nil {
		t.Fatal("expected error for non-existent file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got: %v", err)
	}
}

func openSession(t *testing.T) *Session {
	t.Helper()
	requireModel(t)
	session, err := NewSession(testModelPath, DefaultIONames)
	skipIfORTUnavailable(t, err)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestSession_Infer(t *testing.T) {
	session := openSession(t)

	const n = 3000
	probs, err := session.Infer(context.Background(), impulse(n, 1200))
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}
	if len(probs) != n*Channels {
		t.Fatalf("expected %d probabilities, got %d", n*Channels, len(probs))
	}
	for i := 0; i < n; i++ {
		var sum float32
		for c := 0; c < Channels; c++ {
			sum += probs[i*Channels+c]
		}
		if sum < 0.99 || sum > 1.01 {
			t.Fatalf("sample %d: class probabilities sum to %f", i, sum)
		}
	}
}

func TestSession_Infer_BadLength(t *testing.T) {
	session := openSession(t)

	if _, err := session.Infer(context.Background(), make([]float32, 7)); err == nil {
		t.Error("expected error for waveform not divisible by channel count")
	}
	if _, err := session.Infer(context.Background(), nil); err == nil {
		t.Error("expected error for empty waveform")
	}
}

func TestSession_Infer_ContextCancelled(t *testing.T) {
	session := openSession(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := session.Infer(ctx, impulse(3000, 10))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSession_Close_Idempotent(t *testing.T) {
	session := openSession(t)

	if err := session.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if _, err := session.Infer(context.Background(), impulse(3000, 10)); err == nil {
		t.Error("expected error inferring on closed session")
	}
}
