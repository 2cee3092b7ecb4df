package tempo

import (
	"fmt"
	"io"
	"sync"
)

// State is the per-session processing state: one engine plus the stream
// parameters that were last pushed into it.
//
// The rate, channel and speed fields always equal what the engine was last
// configured with. Zero rate and channels mean the engine has not been
// configured yet.
type State struct {
	// mu serializes engine access between the playback path and an
	// administrative release running on another goroutine.
	mu sync.Mutex

	engine   Engine
	speed    int
	rate     int
	channels int

	// tempo is the applied override; zero when the speed level is used.
	tempo float64

	// pending holds a trailing partial frame carried to the next call.
	pending []int16

	reconfigurations int
}

// newState creates unconfigured state around a fresh engine.
func newState(factory EngineFactory) (*State, error) {
	if factory == nil {
		factory = NewStretchEngine
	}
	engine, err := factory()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineCreate, err)
	}
	if engine == nil {
		return nil, fmt.Errorf("%w: factory returned no engine", ErrEngineCreate)
	}
	return &State{engine: engine}, nil
}

// EnsureConfigured pushes rate, channels and speed into the engine if any
// of them differs from what was last applied, and reports whether it did.
// The tempo override is the fourth gating value: Process applies it from
// Params.Tempo, and a call here clears a previously applied override,
// which also counts as a change. Channels are bounded to [1, MaxChannels]
// and speed is clamped to [MinSpeed, MaxSpeed].
func (s *State) EnsureConfigured(rate, channels, speed int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensure(Params{Speed: speed, Rate: rate, Channels: channels})
}

// ensure is EnsureConfigured with an optional tempo override. The caller
// holds s.mu.
func (s *State) ensure(p Params) bool {
	if s.engine == nil {
		return false
	}

	channels := normalizeChannels(p.Channels)
	speed := ClampSpeed(p.Speed)
	override := 0.0
	if p.Tempo > 0 {
		override = p.Tempo
	}

	if s.rate == p.Rate && s.channels == channels && s.speed == speed && s.tempo == override {
		return false
	}

	if s.channels != channels {
		s.pending = s.pending[:0]
	}

	s.engine.SetSampleRate(p.Rate)
	s.engine.SetChannels(channels)
	s.engine.SetTempo(effectiveTempo(speed, override))

	s.rate = p.Rate
	s.channels = channels
	s.speed = speed
	s.tempo = override
	s.reconfigurations++
	return true
}

// effectiveTempo returns the override when set, otherwise the multiplier
// for the speed level.
func effectiveTempo(speed int, override float64) float64 {
	if override > 0 {
		return override
	}
	return Multiplier(speed)
}

// Speed returns the last applied speed level.
func (s *State) Speed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

// Rate returns the last applied sample rate, or 0 if unconfigured.
func (s *State) Rate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// Channels returns the last applied channel count, or 0 if unconfigured.
func (s *State) Channels() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels
}

// Tempo returns the tempo multiplier currently applied to the engine.
func (s *State) Tempo() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return effectiveTempo(s.speed, s.tempo)
}

// Reconfigurations returns how many times the engine has been reconfigured.
func (s *State) Reconfigurations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconfigurations
}

// Pending returns the number of samples held back as a partial frame.
func (s *State) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Closed reports whether the engine has been released.
func (s *State) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine == nil
}

// Close releases the engine. It is safe to call more than once; only the
// first call reaches the engine.
//
// If the engine implements io.Closer, its Close result is returned.
func (s *State) Close() error {
	s.mu.Lock()
	engine := s.engine
	s.engine = nil
	s.pending = nil
	s.mu.Unlock()

	if engine == nil {
		return nil
	}
	engine.Clear()
	if closer, ok := engine.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
