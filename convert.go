package tempo

import (
	"encoding/binary"
	"math"

	"github.com/tphakala/go-audio-tempo/internal/simdops"
)

// ToFloat converts a 16-bit sample to a normalized float in [-1, 1).
func ToFloat(s int16) float32 {
	return float32(s) / int16Scale
}

// ToInt16 converts a normalized float to a 16-bit sample. Values outside
// the representable range saturate at -32768 or 32767 instead of wrapping;
// the fractional part is truncated toward zero.
func ToInt16(f float32) int16 {
	s := float64(f) * int16Scale
	switch {
	case s > int16Max:
		return int16Max
	case s < int16Min:
		return int16Min
	case math.IsNaN(s):
		return 0
	}
	return int16(s)
}

// ToFloats converts src into dst for their common length and returns the
// number of samples converted.
func ToFloats(dst []float32, src []int16) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = float32(src[i])
	}
	simdops.Scale(dst[:n], dst[:n], 1/int16Scale)
	return n
}

// FromFloats converts src into dst with saturation for their common length
// and returns the number of samples converted.
func FromFloats(dst []int16, src []float32) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = ToInt16(src[i])
	}
	return n
}

// PutInt16LE encodes src as little-endian bytes into dst and returns the
// number of bytes written. dst must hold 2*len(src) bytes.
func PutInt16LE(dst []byte, src []int16) int {
	for i, s := range src {
		binary.LittleEndian.PutUint16(dst[i*bytesPerInt16:], uint16(s))
	}
	return len(src) * bytesPerInt16
}

// Int16sFromLE decodes little-endian 16-bit samples. A trailing odd byte
// is ignored.
func Int16sFromLE(b []byte) []int16 {
	out := make([]int16, len(b)/bytesPerInt16)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*bytesPerInt16:]))
	}
	return out
}
