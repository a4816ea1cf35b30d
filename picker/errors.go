package picker

import "errors"

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrModelNotFound indicates the model file does not exist.
	ErrModelNotFound = errors.New("picker: model file not found")

	// ErrInvalidModel indicates the model file exists but could not be loaded.
	ErrInvalidModel = errors.New("picker: invalid model format")

	// ErrInvalidWaveform indicates a waveform with the wrong shape.
	ErrInvalidWaveform = errors.New("picker: invalid waveform")
)
