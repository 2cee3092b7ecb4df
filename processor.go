package tempo

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

var errStateReleased = errors.New("processing state released")

// ProcessorConfig configures a Processor.
type ProcessorConfig struct {
	// NewEngine creates the engine for each new session.
	// Nil uses NewStretchEngine.
	NewEngine EngineFactory

	// Logger receives diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// Processor is the per-call streaming entry point. One Processor serves any
// number of sessions; calls for one session must not overlap.
type Processor struct {
	newEngine EngineFactory
	logger    *slog.Logger
	buffers   sync.Pool
}

// transferBuffers are the bounded intermediate chunks used by one call.
type transferBuffers struct {
	floats [BufferSamples]float32
	ints   [BufferSamples]int16
	bytes  [BufferSamples * bytesPerInt16]byte
}

// NewProcessor creates a Processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	p := &Processor{
		newEngine: cfg.NewEngine,
		logger:    cfg.Logger,
	}
	if p.newEngine == nil {
		p.newEngine = NewStretchEngine
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.buffers.New = func() any { return new(transferBuffers) }
	return p
}

// Process pushes input through the session's engine and writes every
// sample that is ready afterwards to out as little-endian int16.
//
// State is created on the first call for a session. The engine is
// reconfigured only when rate, channels, speed or tempo override differ
// from the previous call. A trailing partial frame is held back and
// completed by the next call.
//
// An error wrapping ErrEngineCreate, ErrSessionClosed or ErrInvalidConfig
// means the input was not processed; the caller should play it unmodified.
func (p *Processor) Process(sess *Session, input []int16, out io.Writer, params Params) error {
	if params.Channels > MaxChannels {
		return fmt.Errorf("%w: %d channels exceeds %d", ErrInvalidConfig, params.Channels, MaxChannels)
	}

	st, err := acquireState(sess, p.newEngine)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.engine == nil {
		return fmt.Errorf("%w: %w", ErrSessionClosed, errStateReleased)
	}

	if st.ensure(params) {
		p.logger.Debug("tempo engine configured",
			"session", sess.ID(),
			"rate", st.rate,
			"channels", st.channels,
			"tempo", effectiveTempo(st.speed, st.tempo))
	}

	bufs := p.buffers.Get().(*transferBuffers)
	defer p.buffers.Put(bufs)

	p.ingest(st, input, bufs)
	return p.drain(st, out, bufs)
}

// Flush pushes the engine's buffered tail out to out. Use it at the end of
// a finite stream; a held back partial frame is discarded. Sessions
// without state have nothing to flush.
func (p *Processor) Flush(sess *Session, out io.Writer) error {
	st := sess.State()
	if st == nil {
		return nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.engine == nil || st.channels == 0 {
		return nil
	}

	st.pending = st.pending[:0]
	st.engine.Flush()

	bufs := p.buffers.Get().(*transferBuffers)
	defer p.buffers.Put(bufs)
	return p.drain(st, out, bufs)
}

// ingest converts input to float in whole-frame chunks of at most
// BufferSamples samples and feeds the engine. The caller holds st.mu.
func (p *Processor) ingest(st *State, input []int16, bufs *transferBuffers) {
	ch := st.channels

	// Complete the partial frame left by the previous call.
	if len(st.pending) > 0 {
		need := ch - len(st.pending)
		if len(input) < need {
			st.pending = append(st.pending, input...)
			return
		}
		st.pending = append(st.pending, input[:need]...)
		n := ToFloats(bufs.floats[:], st.pending)
		st.engine.PutSamples(bufs.floats[:n], 1)
		st.pending = st.pending[:0]
		input = input[need:]
	}

	whole := len(input) - len(input)%ch
	chunk := BufferSamples - BufferSamples%ch
	for done := 0; done < whole; {
		batch := min(chunk, whole-done)
		n := ToFloats(bufs.floats[:batch], input[done:done+batch])
		st.engine.PutSamples(bufs.floats[:n], n/ch)
		done += batch
	}

	if whole < len(input) {
		st.pending = append(st.pending, input[whole:]...)
	}
}

// drain moves all ready output to out, at most BufferSamples samples at a
// time. The caller holds st.mu.
func (p *Processor) drain(st *State, out io.Writer, bufs *transferBuffers) error {
	ch := st.channels
	maxFrames := BufferSamples / ch

	for {
		avail := st.engine.NumSamples()
		if avail == 0 {
			return nil
		}
		got := st.engine.ReceiveSamples(bufs.floats[:], min(avail, maxFrames))
		if got == 0 {
			return nil
		}

		total := got * ch
		FromFloats(bufs.ints[:total], bufs.floats[:total])
		n := PutInt16LE(bufs.bytes[:], bufs.ints[:total])
		if _, err := out.Write(bufs.bytes[:n]); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
}
