package tempo

import (
	"errors"

	"github.com/tphakala/go-audio-tempo/internal/stretch"
)

// Engine is a streaming variable-tempo processor working on interleaved
// float32 frames normalized to [-1, 1].
//
// Counts passed to and returned from PutSamples, NumSamples and
// ReceiveSamples are per-channel frames, not samples.
type Engine interface {
	// SetSampleRate sets the input sample rate in Hz.
	SetSampleRate(rate int)

	// SetChannels sets the interleaved channel count.
	SetChannels(channels int)

	// SetTempo sets the tempo multiplier (1.0 = unchanged).
	SetTempo(tempo float64)

	// PutSamples appends frames frames of interleaved samples.
	PutSamples(samples []float32, frames int)

	// NumSamples returns the number of frames ready to be received.
	NumSamples() int

	// ReceiveSamples moves up to maxFrames ready frames into dst and
	// returns the number of frames written.
	ReceiveSamples(dst []float32, maxFrames int) int

	// Flush pushes out buffered input at the end of a stream.
	Flush()

	// Clear discards all buffered audio.
	Clear()
}

// EngineFactory creates a fresh Engine for a new session.
type EngineFactory func() (Engine, error)

// NewStretchEngine returns the built-in WSOLA engine.
func NewStretchEngine() (Engine, error) {
	return stretch.New(defaultEngineRate, 1), nil
}

// Params describes one processing call.
type Params struct {
	// Speed is the speed level, clamped to [MinSpeed, MaxSpeed].
	Speed int

	// Rate is the sample rate of the input in Hz.
	Rate int

	// Channels is the interleaved channel count. Zero is treated as one;
	// Process rejects counts above MaxChannels.
	Channels int

	// Tempo optionally overrides the multiplier derived from Speed.
	// Zero or negative means no override.
	Tempo float64
}

// Common errors returned by the package.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid tempo configuration")

	// ErrEngineCreate indicates that session processing state could not be
	// created. The frame should be played without tempo processing.
	ErrEngineCreate = errors.New("cannot create tempo engine")

	// ErrSessionNotFound indicates that a session identity did not resolve.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed indicates that the session has already hung up.
	ErrSessionClosed = errors.New("session closed")

	// ErrSessionExists indicates a duplicate session identity.
	ErrSessionExists = errors.New("session already exists")

	// ErrUsage indicates malformed administrative arguments.
	ErrUsage = errors.New("usage")

	// ErrUnknownCommand indicates an unrecognized administrative subcommand.
	ErrUnknownCommand = errors.New("unknown command")
)

// ClampSpeed limits a speed level to [MinSpeed, MaxSpeed].
func ClampSpeed(level int) int {
	return max(MinSpeed, min(MaxSpeed, level))
}

// Multiplier converts a speed level to an engine tempo multiplier:
// 1.0 + 0.25*level after clamping, so -2..+2 maps to 0.5..1.5.
func Multiplier(level int) float64 {
	return unityTempo + tempoPerSpeedStep*float64(ClampSpeed(level))
}

// normalizeChannels bounds the channel count to [1, MaxChannels].
func normalizeChannels(channels int) int {
	return max(1, min(MaxChannels, channels))
}
