// Package inference provides ONNX Runtime integration for phase-picking
// model inference.
package inference

import (
	"context"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Channels is the number of waveform components (E, N, Z) and of output
// classes (noise, P, S) the model works with.
const Channels = 3

var (
	ortEnvOnce sync.Once
	ortEnvErr  error
)

// initORT initializes ONNX Runtime environment once.
func initORT() error {
	ortEnvOnce.Do(func() {
		ortEnvErr = ort.InitializeEnvironment()
	})
	return ortEnvErr
}

// IONames are the model's input and output tensor names.
type IONames struct {
	Input  string
	Output string
}

// DefaultIONames matches the PhaseNet ONNX export.
var DefaultIONames = IONames{Input: "X", Output: "prob"}

// Session wraps an ONNX Runtime session for picker inference.
type Session struct {
	session *ort.DynamicAdvancedSession
	mu      sync.Mutex
	closed  bool
}

// NewSession creates a new ONNX session from a model file.
func NewSession(modelPath string, names IONames) (*Session, error) {
	// Check file exists
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}

	if err := initORT(); err != nil {
		return nil, fmt.Errorf("initializing ONNX runtime: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("creating session options: %w", err)
	}
	defer func() { _ = options.Destroy() }() // Cleanup error doesn't affect success

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{names.Input},
		[]string{names.Output},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	return &Session{session: session}, nil
}

// Infer runs the model on a sample-major waveform (samples[i*Channels+c])
// and returns per-sample class probabilities in the same layout.
func (s *Session) Infer(ctx context.Context, samples []float32) ([]float32, error) {
	// Check context before expensive operation
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if len(samples) == 0 || len(samples)%Channels != 0 {
		return nil, fmt.Errorf("waveform length %d is not a positive multiple of %d", len(samples), Channels)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("session is closed")
	}

	n := int64(len(samples) / Channels)

	// [batch, samples, 1, channels]
	input, err := ort.NewTensor(ort.NewShape(1, n, 1, Channels), samples)
	if err != nil {
		return nil, fmt.Errorf("creating waveform tensor: %w", err)
	}
	defer func() { _ = input.Destroy() }()

	// nil entries are allocated by Run
	outputs := []ort.Value{nil}

	if err := s.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("running inference: %w", err)
	}

	if outputs[0] == nil {
		return nil, fmt.Errorf("no output produced")
	}
	defer func() { _ = outputs[0].Destroy() }()

	probTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type")
	}

	data := probTensor.GetData()
	if len(data) < len(samples) {
		return nil, fmt.Errorf("output has %d values, want %d", len(data), len(samples))
	}
	probs := make([]float32, len(samples))
	copy(probs, data[:len(samples)])

	return probs, nil
}

// Close releases ONNX resources.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	if s.session != nil {
		return s.session.Destroy()
	}
	return nil
}
