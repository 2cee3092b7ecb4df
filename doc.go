// Package tempo provides per-session, pitch-preserving tempo stretching of
// streaming 16-bit PCM audio in pure Go.
//
// A media session plays interleaved int16 frames at a declared sample
// rate, channel count and speed level. Each frame is converted to float,
// pushed through a WSOLA time stretcher owned by the session, and every
// sample that is ready afterwards is appended to a caller-owned output
// buffer. The stretcher keeps its history between calls, so output is
// continuous across frames.
//
// # Features
//
//   - Speed levels -2..+2 mapped to tempo 0.5x..1.5x in 0.25 steps
//   - Per-session tempo overrides set through an administrative command
//   - Lazy per-session engine creation, released exactly once on hangup
//     or disable
//   - Engine reconfiguration only when rate, channels or tempo change
//   - Bounded transfer chunks of [BufferSamples] samples for ingest and drain
//   - Optional SIMD acceleration of the overlap search via
//     github.com/tphakala/simd
//   - Pure Go implementation with no CGO dependencies
//
// # Quick Start
//
// Process frames for one session and flush at end of stream:
//
//	reg := tempo.NewRegistry(nil)
//	proc := tempo.NewProcessor(tempo.ProcessorConfig{})
//
//	sess := reg.Create()
//	defer reg.Hangup(sess.ID())
//
//	var out bytes.Buffer
//	for frame := range frames {
//	    params := tempo.Params{Speed: 1, Rate: 8000, Channels: 1}
//	    if err := proc.Process(sess, frame, &out, params); err != nil {
//	        // play frame unmodified
//	    }
//	}
//	_ = proc.Flush(sess, &out)
//
// For playback driven by session variables, use [Player]; it reads
// [VarEnabled] and [VarTempo] and falls back to pass-through when an
// engine cannot be created.
//
// # Administration
//
// [Controller] implements three text commands against a [Locator]:
//
//	enable <uuid>
//	disable <uuid>
//	tempo <uuid> <value>
//
// Responses are single lines starting with +OK, -ERR or -USAGE. Disable
// also releases the session's engine at once instead of waiting for
// hangup. Tempo values are clamped to the [Config] bounds.
//
// # Thread Safety
//
// [Registry], [Session] variables and [Controller] are safe for concurrent
// use. Calls to [Processor.Process] and [Processor.Flush] for one session
// must be serialized; different sessions may be processed concurrently.
package tempo
