package projdbscan

import "math"

// directedDistance evaluates sqrt((p−q)ᵀ M (p−q)) where p is point i, q is
// point j, and M is point i's similarity matrix. Deviation along i's weak
// axes is inflated by kappa, so q must lie close to i's local subspace to
// count as near.
func (s *subspaceIndex) directedDistance(i, j int) float64 {
	dims := s.dims
	p := s.data[i*dims : (i+1)*dims]
	q := s.data[j*dims : (j+1)*dims]
	m := s.weights[i*dims*dims : (i+1)*dims*dims]

	var sum float64
	for r := 0; r < dims; r++ {
		dr := p[r] - q[r]
		// Diagonal term once, off-diagonal terms doubled by symmetry.
		sum += m[r*dims+r] * dr * dr
		for c := r + 1; c < dims; c++ {
			sum += 2 * m[r*dims+c] * dr * (p[c] - q[c])
		}
	}
	if sum < 0 {
		// Rounding can push a near-zero quadratic form slightly negative.
		sum = 0
	}
	return math.Sqrt(sum)
}
