package features

// Vector is a sparse feature vector. Indices are strictly increasing
// and Values holds the weight at each index; all other dimensions are
// zero. Dim is the full (fixed) dimensionality of the fitted pipeline.
type Vector struct {
	Indices []int
	Values  []float64
	Dim     int
}

// Dot computes the dot product against a dense weight slice. Weights
// must have at least Dim entries.
func (v Vector) Dot(w []float64) float64 {
	var sum float64
	for i, idx := range v.Indices {
		sum += v.Values[i] * w[idx]
	}
	return sum
}

// Dense expands the vector into a dense slice, mainly for tests.
func (v Vector) Dense() []float64 {
	out := make([]float64, v.Dim)
	for i, idx := range v.Indices {
		out[idx] = v.Values[i]
	}
	return out
}
