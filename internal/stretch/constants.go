package stretch

// Automatic sequence/seek scaling. Slow tempos get long sequences for
// smoother music, fast tempos short ones so transients are not repeated.
const (
	autoTempoLow  = 0.5 // Tempo where the "at min" values apply
	autoTempoHigh = 2.0 // Tempo where the "at max" values apply

	autoSequenceAtMinMs = 90.0
	autoSequenceAtMaxMs = 40.0
	autoSeekAtMinMs     = 20.0
	autoSeekAtMaxMs     = 15.0

	defaultOverlapMs = 8.0
)

// Frame length limits derived from the millisecond parameters.
const (
	minOverlapFrames  = 16 // Shortest usable crossfade
	overlapAlignment  = 8  // Overlap is rounded down to a multiple of this
	minSeekFrames     = 1
	msPerSecond       = 1000.0
	defaultSampleRate = 8000
)

// Tempo limits accepted by SetTempo.
const (
	minTempo = 0.1
	maxTempo = 10.0
)

// Overlap search weighting.
const (
	// Added to the normalized correlation before weighting so that weak
	// negative correlations do not flip sign under the window.
	correlationBias = 0.1

	// Strength of the parabolic window that prefers offsets near the centre
	// of the seek range.
	centreWeight = 0.25

	// Floor for candidate energy to avoid division by zero on silence.
	energyFloor = 1e-9
)

// Flush parameters.
const (
	flushChunkFrames = 128 // Silence appended per flush round
	maxFlushRounds   = 256 // Upper bound on silence rounds per flush
)
