package embedding

import "math"

// Normalize scales v to unit length in place. Zero vectors are left unchanged.
// Providers normalize every vector they return so that inner product equals
// cosine similarity downstream.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}
