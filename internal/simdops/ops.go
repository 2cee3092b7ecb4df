// Package simdops wraps the float32 SIMD kernels used by the tempo engine and
// the sample converter.
//
// The stretcher works on interleaved float32 frames, so only the f32 kernels
// are exposed. Each helper degrades to the scalar implementation inside
// github.com/tphakala/simd when no vector unit is available.
package simdops

import (
	"github.com/tphakala/simd/f32"
)

// Ops groups the kernels behind function pointers.
type Ops struct {
	// DotProductUnsafe computes the dot product without bounds checking.
	// Use only when slices are guaranteed to have equal length.
	DotProductUnsafe func(a, b []float32) float32

	// Scale multiplies each element by scalar s: dst[i] = a[i] * s
	Scale func(dst, a []float32, s float32)
}

var ops32 = Ops{
	DotProductUnsafe: f32.DotProductUnsafe,
	Scale:            f32.Scale,
}

// float32Ops returns the float32 SIMD operations.
func float32Ops() *Ops {
	return &ops32
}

// Dot returns the dot product of a and b over their common length.
func Dot(a, b []float32) float32 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	return ops32.DotProductUnsafe(a[:n], b[:n])
}

// Energy returns the sum of squares of a.
func Energy(a []float32) float32 {
	if len(a) == 0 {
		return 0
	}
	return ops32.DotProductUnsafe(a, a)
}

// Scale writes a[i]*s into dst for the common length of dst and a.
func Scale(dst, a []float32, s float32) {
	n := min(len(dst), len(a))
	if n == 0 {
		return
	}
	ops32.Scale(dst[:n], a[:n], s)
}
