// Package testutil provides reusable test helpers for the tempo stretcher tests.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance = 1e-6
	// FrequencyTolerance is the relative error accepted when comparing
	// dominant frequencies before and after stretching.
	FrequencyTolerance = 0.02
)

const int16Scale = 32767.0

// SineInt16 returns frames frames of an interleaved sine at freq Hz with
// the same signal on every channel. amplitude is relative to full scale.
func SineInt16(freq, amplitude float64, sampleRate, channels, frames int) []int16 {
	out := make([]int16, frames*channels)
	for i := range frames {
		v := int16(amplitude * int16Scale * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
		for c := range channels {
			out[i*channels+c] = v
		}
	}
	return out
}

// SineFloat32 returns frames frames of an interleaved float32 sine at freq
// Hz with the same signal on every channel.
func SineFloat32(freq, amplitude float64, sampleRate, channels, frames int) []float32 {
	out := make([]float32, frames*channels)
	for i := range frames {
		v := float32(amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
		for c := range channels {
			out[i*channels+c] = v
		}
	}
	return out
}

// Channel extracts one channel from interleaved samples as float64.
func Channel[S int16 | float32](interleaved []S, channels, channel int) []float64 {
	frames := len(interleaved) / channels
	out := make([]float64, frames)
	for i := range frames {
		out[i] = float64(interleaved[i*channels+channel])
	}
	return out
}

// RMS returns the root mean square of s.
func RMS(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(s)))
}

// DominantFrequency returns the frequency in Hz of the largest non-DC bin
// of the real FFT of s.
func DominantFrequency(s []float64, sampleRate int) float64 {
	if len(s) < 2 {
		return 0
	}
	fft := fourier.NewFFT(len(s))
	coeffs := fft.Coefficients(nil, s)

	best := 1
	bestMag := 0.0
	for i := 1; i < len(coeffs); i++ {
		c := coeffs[i]
		mag := real(c)*real(c) + imag(c)*imag(c)
		if mag > bestMag {
			bestMag = mag
			best = i
		}
	}
	return fft.Freq(best) * float64(sampleRate)
}

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float32, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		f := float64(v)
		if math.IsNaN(f) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(f, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertRelativeError verifies that the relative error between actual and expected is within tolerance.
func AssertRelativeError(t *testing.T, expected, actual, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if expected == 0 {
		return assert.InDelta(t, expected, actual, tolerance, msgAndArgs...)
	}
	relError := math.Abs(actual-expected) / math.Abs(expected)
	return assert.LessOrEqual(t, relError, tolerance,
		"relative error %e exceeds tolerance %e (expected=%f, actual=%f)",
		relError, tolerance, expected, actual)
}

// AssertInRange verifies that a value is within [min, max].
func AssertInRange(t *testing.T, value, minVal, maxVal float64, msgAndArgs ...any) bool {
	t.Helper()
	if value < minVal || value > maxVal {
		return assert.Fail(t, "value out of range",
			"value %f is outside range [%f, %f]", value, minVal, maxVal)
	}
	return true
}
