package tempo

// Speed level limits. A speed level is an integer step mapped linearly onto
// the engine tempo multiplier.
const (
	MinSpeed = -2 // Slowest speed level (0.5x)
	MaxSpeed = 2  // Fastest speed level (1.5x)

	// tempoPerSpeedStep is the multiplier change per speed level.
	tempoPerSpeedStep = 0.25
	unityTempo        = 1.0
)

// BufferSamples bounds the intermediate transfer chunk, in samples across
// all channels, used for both ingest and drain.
const BufferSamples = 8192

// MaxChannels is the largest channel count a session accepts; one frame
// must fit in a single transfer chunk.
const MaxChannels = BufferSamples

// Sample conversion constants
const (
	int16Scale    = 32768.0 // Full-scale divisor for int16 to float
	int16Max      = 32767.0
	int16Min      = -32768.0
	bytesPerInt16 = 2
)

// Administrative tempo defaults.
const (
	DefaultMinTempo = 0.5
	DefaultMaxTempo = 2.0
)

// Session variable names read by Player and written by Controller.
const (
	// VarEnabled holds "true"/"false" and selects tempo processing.
	VarEnabled = "use_timestretch"

	// VarTempo holds a tempo override formatted with three decimals.
	VarTempo = "timestretch_tempo"
)

// defaultEngineRate is the rate a fresh engine is created with; the first
// EnsureConfigured call always replaces it.
const defaultEngineRate = 8000
