// Package stretch implements a streaming, pitch-preserving time stretcher.
//
// The algorithm is WSOLA (waveform similarity overlap-add) in the form used
// by SoundTouch's TDStretch: input is cut into sequences, each new sequence
// is placed where it best matches the tail of the previous one within a
// seek window, and the two are crossfaded over a short overlap. Skipping
// input faster than output is written speeds playback up; skipping slower
// slows it down. Sample values are never resampled, so pitch is unchanged.
//
// Samples are interleaved float32 frames normalized to [-1, 1].
//
// A Stretcher is not safe for concurrent use.
package stretch

import (
	"math"

	"github.com/tphakala/go-audio-tempo/internal/fifo"
	"github.com/tphakala/go-audio-tempo/internal/simdops"
)

// Stretcher is a streaming WSOLA tempo changer.
//
// Feed samples with PutSamples, then read whatever is ready with
// NumSamples and ReceiveSamples. Output lags input by up to one
// sequence plus the seek window; Flush pushes the tail out.
type Stretcher struct {
	sampleRate int
	channels   int
	tempo      float64

	sequenceMs float64
	seekMs     float64
	overlapMs  float64

	seekWindowLength int // frames per sequence, overlap included
	seekLength       int // candidate offsets searched
	overlapLength    int // crossfade length in frames
	sampleReq        int // input frames required to emit one sequence

	nominalSkip float64
	skipFract   float64

	midBuffer []float32 // tail of the previous sequence, interleaved
	mixBuffer []float32 // crossfade scratch, interleaved
	fadeIn    []float32 // per frame
	fadeOut   []float32 // per frame

	input  *fifo.Buffer
	output *fifo.Buffer

	isBeginning bool

	// Bookkeeping for Flush.
	expectedOut float64
	produced    int64
}

// New creates a stretcher at unity tempo.
func New(sampleRate, channels int) *Stretcher {
	if sampleRate < 1 {
		sampleRate = defaultSampleRate
	}
	if channels < 1 {
		channels = 1
	}

	s := &Stretcher{
		sampleRate:  sampleRate,
		channels:    channels,
		tempo:       1.0,
		overlapMs:   defaultOverlapMs,
		input:       fifo.New(channels, 0),
		output:      fifo.New(channels, 0),
		isBeginning: true,
	}
	s.recalc()
	return s
}

// SampleRate returns the configured sample rate in Hz.
func (s *Stretcher) SampleRate() int { return s.sampleRate }

// Channels returns the configured channel count.
func (s *Stretcher) Channels() int { return s.channels }

// Tempo returns the configured tempo multiplier.
func (s *Stretcher) Tempo() float64 { return s.tempo }

// Parameters returns the derived sequence, seek and overlap lengths in
// frames.
func (s *Stretcher) Parameters() (sequence, seek, overlap int) {
	return s.seekWindowLength, s.seekLength, s.overlapLength
}

// SetSampleRate updates the sample rate and recalculates window lengths.
// Buffered audio is kept. Non-positive rates are ignored.
func (s *Stretcher) SetSampleRate(rate int) {
	if rate < 1 || rate == s.sampleRate {
		return
	}
	s.sampleRate = rate
	s.recalc()
}

// SetChannels changes the channel count. A change discards all buffered
// audio because frame alignment is lost.
func (s *Stretcher) SetChannels(channels int) {
	if channels < 1 {
		channels = 1
	}
	if channels == s.channels {
		return
	}
	s.channels = channels
	s.input.SetChannels(channels)
	s.output.SetChannels(channels)
	s.midBuffer = nil
	s.recalc()
	s.Clear()
}

// SetTempo sets the tempo multiplier. 1.0 is unchanged, 2.0 plays twice as
// fast, 0.5 half as fast. Values are clamped to [0.1, 10]; NaN is ignored.
func (s *Stretcher) SetTempo(tempo float64) {
	if math.IsNaN(tempo) {
		return
	}
	tempo = max(minTempo, min(maxTempo, tempo))
	if tempo == s.tempo {
		return
	}
	s.tempo = tempo
	s.recalc()
}

// PutSamples appends frames frames of interleaved samples and processes as
// many complete sequences as the buffered input allows.
func (s *Stretcher) PutSamples(samples []float32, frames int) {
	frames = min(frames, len(samples)/s.channels)
	if frames <= 0 {
		return
	}
	s.input.Put(samples, frames)
	s.expectedOut += float64(frames) / s.tempo
	s.process()
}

// NumSamples returns the number of frames ready to be received.
func (s *Stretcher) NumSamples() int {
	return s.output.Frames()
}

// ReceiveSamples moves up to maxFrames ready frames into dst and returns the
// number of frames written.
func (s *Stretcher) ReceiveSamples(dst []float32, maxFrames int) int {
	return s.output.Receive(dst, maxFrames)
}

// Flush processes the buffered input tail by padding it with silence, then
// trims the output to the length the input implies at the current tempo.
// The stretcher is ready for a new stream afterwards; frames already in the
// output remain available.
func (s *Stretcher) Flush() {
	for range maxFlushRounds {
		if float64(s.produced) >= s.expectedOut {
			break
		}
		s.input.PutZeros(flushChunkFrames)
		s.process()
	}

	if excess := s.produced - int64(math.Round(s.expectedOut)); excess > 0 {
		s.output.DropTail(int(excess))
	}

	s.input.Clear()
	s.resetStream()
}

// Clear drops all buffered input and output.
func (s *Stretcher) Clear() {
	s.input.Clear()
	s.output.Clear()
	s.resetStream()
}

func (s *Stretcher) resetStream() {
	clear(s.midBuffer)
	s.skipFract = 0
	s.isBeginning = true
	s.expectedOut = 0
	s.produced = 0
}

// recalc derives frame lengths from the sample rate and tempo.
func (s *Stretcher) recalc() {
	s.sequenceMs, s.seekMs = autoParameters(s.tempo)

	overlap := int(float64(s.sampleRate) * s.overlapMs / msPerSecond)
	overlap = max(overlap, minOverlapFrames)
	overlap -= overlap % overlapAlignment

	s.seekWindowLength = max(int(float64(s.sampleRate)*s.sequenceMs/msPerSecond), 2*overlap)
	s.seekLength = max(int(float64(s.sampleRate)*s.seekMs/msPerSecond), minSeekFrames)

	s.nominalSkip = s.tempo * float64(s.seekWindowLength-overlap)
	intSkip := int(s.nominalSkip + 0.5)
	s.sampleReq = max(intSkip+overlap, s.seekWindowLength) + s.seekLength

	if overlap != s.overlapLength || len(s.midBuffer) != overlap*s.channels {
		s.resizeOverlap(overlap)
	}
}

// resizeOverlap rebuilds the crossfade windows. The previous sequence tail
// is kept, truncated or zero padded to the new length.
func (s *Stretcher) resizeOverlap(overlap int) {
	mid := make([]float32, overlap*s.channels)
	copy(mid, s.midBuffer)
	s.midBuffer = mid
	s.mixBuffer = make([]float32, overlap*s.channels)
	s.overlapLength = overlap

	s.fadeIn = make([]float32, overlap)
	s.fadeOut = make([]float32, overlap)
	if overlap == 1 {
		s.fadeIn[0] = 1
		return
	}
	for i := range overlap {
		t := float64(i) / float64(overlap-1)
		in := 0.5 - 0.5*math.Cos(math.Pi*t)
		s.fadeIn[i] = float32(in)
		s.fadeOut[i] = float32(1 - in)
	}
}

// autoParameters maps tempo to sequence and seek lengths in milliseconds by
// linear interpolation between the low and high tempo settings.
func autoParameters(tempo float64) (sequenceMs, seekMs float64) {
	t := max(autoTempoLow, min(autoTempoHigh, tempo))
	frac := (t - autoTempoLow) / (autoTempoHigh - autoTempoLow)

	sequenceMs = autoSequenceAtMinMs + frac*(autoSequenceAtMaxMs-autoSequenceAtMinMs)
	seekMs = autoSeekAtMinMs + frac*(autoSeekAtMaxMs-autoSeekAtMinMs)
	return sequenceMs, seekMs
}

// process emits sequences while enough input is buffered.
func (s *Stretcher) process() {
	ch := s.channels
	body := s.seekWindowLength - 2*s.overlapLength

	for s.input.Frames() >= s.sampleReq {
		offset := 0
		if s.isBeginning {
			s.isBeginning = false
		} else {
			offset = s.bestOverlapOffset()
			s.crossfade(offset)
			offset += s.overlapLength
		}

		src := s.input.Samples()
		if len(src) < (offset+body+s.overlapLength)*ch {
			break
		}

		s.output.Put(src[offset*ch:], body)
		s.produced += int64(body)

		tail := (offset + body) * ch
		copy(s.midBuffer, src[tail:tail+s.overlapLength*ch])

		s.skipFract += s.nominalSkip
		skip := int(s.skipFract)
		s.skipFract -= float64(skip)
		s.input.Skip(skip)
	}
}

// bestOverlapOffset returns the offset within the seek window whose
// overlap region correlates best with the previous sequence tail.
func (s *Stretcher) bestOverlapOffset() int {
	ch := s.channels
	n := s.overlapLength * ch
	src := s.input.Samples()

	best := 0
	bestScore := math.Inf(-1)
	for i := range s.seekLength {
		cand := src[i*ch : i*ch+n]
		dot := float64(simdops.Dot(s.midBuffer, cand))
		energy := max(float64(simdops.Energy(cand)), energyFloor)
		corr := dot / math.Sqrt(energy)

		w := float64(2*i-s.seekLength) / float64(s.seekLength)
		score := (corr + correlationBias) * (1 - centreWeight*w*w)
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	return best
}

// crossfade mixes the previous sequence tail into the input at offset and
// appends the result to the output.
func (s *Stretcher) crossfade(offset int) {
	ch := s.channels
	src := s.input.Samples()[offset*ch:]

	for i := range s.overlapLength {
		fi, fo := s.fadeIn[i], s.fadeOut[i]
		base := i * ch
		for c := range ch {
			s.mixBuffer[base+c] = src[base+c]*fi + s.midBuffer[base+c]*fo
		}
	}
	s.output.Put(s.mixBuffer, s.overlapLength)
	s.produced += int64(s.overlapLength)
}
