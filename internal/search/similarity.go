package search

// similarityFromDistance converts a vector distance into a relevancy score
// in (0, 1]. Distance 0 maps to 1.0 and the score decays as distance grows.
// Backends can report marginally negative distances for near-identical
// vectors due to floating point error; those are clamped to a perfect score.
func similarityFromDistance(d float64) float64 {
	if d < 0 {
		return 1.0
	}
	return 1.0 / (1.0 + d)
}

// dotProduct returns the dot product of two vectors in float64 precision.
// Mismatched lengths score zero rather than erroring; the linear-scan
// fallback treats such chunks as irrelevant.
func dotProduct(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
