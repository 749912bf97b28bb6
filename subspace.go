package projdbscan

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// undefinedDimension marks a point whose local subspace analysis failed:
// too few neighbors, or a covariance that could not be factorized.
const undefinedDimension = -1

// subspaceIndex holds the precomputed local subspace analysis of an
// in-memory dataset: per-point correlation dimensions and the similarity
// matrices of the locally weighted distance. It serves as both the
// SubspaceOracle and the RangeOracle of the built-in pipeline.
type subspaceIndex struct {
	data []float64 // flat row-major point data (n * dims)
	n    int
	dims int

	// corrDim[i] is point i's correlation dimension (undefinedDimension if
	// the analysis failed).
	corrDim []int
	// weights holds n row-major dims×dims similarity matrices; the
	// directed distance from point i weights differences with matrix i.
	// Points with an undefined dimension carry the identity matrix.
	weights []float64
}

// buildSubspaceIndex analyzes the local subspace of every point: a PCA of
// the K-nearest-neighborhood under the inner metric yields the correlation
// dimension (number of strong eigenvalues) and the similarity matrix that
// penalizes deviation along weak axes by Kappa.
func buildSubspaceIndex(data []float64, n, dims int, cfg Config) (*subspaceIndex, error) {
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("projdbscan: data contains non-finite values")
		}
	}

	k := cfg.K
	if k == 0 {
		k = 3 * dims
	}
	if k > n {
		k = n
	}

	idx := &subspaceIndex{
		data:    data,
		n:       n,
		dims:    dims,
		corrDim: make([]int, n),
		weights: make([]float64, n*dims*dims),
	}

	var tree *KDTree
	if KDTreeValidMetric(cfg.Metric) {
		tree = NewKDTree(data, n, dims, cfg.Metric, cfg.LeafSize)
	}

	numWorkers := cfg.Workers
	if numWorkers < 1 {
		numWorkers = 1
	}

	// Each worker analyzes a contiguous range of points. Writes never
	// overlap, so no synchronization is needed beyond the WaitGroup.
	var wg sync.WaitGroup
	rowsPerWorker := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		startRow := w * rowsPerWorker
		endRow := startRow + rowsPerWorker
		if endRow > n {
			endRow = n
		}
		if startRow >= n {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			an := newSubspaceAnalyzer(idx, cfg, k, tree)
			for i := start; i < end; i++ {
				an.analyze(i)
			}
		}(startRow, endRow)
	}

	wg.Wait()
	return idx, nil
}

// subspaceAnalyzer computes one point's local PCA. Scratch buffers are
// reused across points within a worker.
type subspaceAnalyzer struct {
	idx    *subspaceIndex
	metric DistanceMetric
	delta  float64
	kappa  float64
	k      int
	tree   *KDTree // nil means brute-force neighbor search

	mean []float64
	cov  *mat.SymDense
	vecs mat.Dense
}

func newSubspaceAnalyzer(idx *subspaceIndex, cfg Config, k int, tree *KDTree) *subspaceAnalyzer {
	return &subspaceAnalyzer{
		idx:    idx,
		metric: cfg.Metric,
		delta:  cfg.Delta,
		kappa:  cfg.Kappa,
		k:      k,
		tree:   tree,
		mean:   make([]float64, idx.dims),
		cov:    mat.NewSymDense(idx.dims, nil),
	}
}

// analyze computes point i's correlation dimension and similarity matrix.
// Failures are not errors: the point gets an undefined dimension and an
// identity matrix, and the clustering pass rejects it on dimensionality.
func (a *subspaceAnalyzer) analyze(i int) {
	idx := a.idx
	dims := idx.dims
	query := idx.data[i*dims : (i+1)*dims]

	var neighbors []int
	if a.tree != nil {
		neighbors, _ = a.tree.QueryKNN(query, a.k)
	} else {
		neighbors = bruteKNN(idx.data, idx.n, dims, a.metric, query, a.k)
	}

	if len(neighbors) < 2 {
		a.setUndefined(i)
		return
	}

	a.computeCovariance(neighbors)

	var es mat.EigenSym
	if !es.Factorize(a.cov, true) {
		a.setUndefined(i)
		return
	}

	values := es.Values(nil) // ascending
	largest := values[len(values)-1]
	if math.IsNaN(largest) || math.IsInf(largest, 0) {
		a.setUndefined(i)
		return
	}

	// An axis is strong when its eigenvalue reaches delta times the
	// largest. A fully degenerate neighborhood (all eigenvalues zero) has
	// dimension zero: every axis is weak.
	strong := 0
	if largest > 0 {
		for _, v := range values {
			if v >= a.delta*largest {
				strong++
			}
		}
	}
	idx.corrDim[i] = strong

	// Similarity matrix M = V diag(e) Vᵀ with e = 1 on strong axes and
	// kappa on weak axes. Eigenvalues are ascending, so the strong axes
	// are the trailing columns of V.
	es.VectorsTo(&a.vecs)
	w := idx.weights[i*dims*dims : (i+1)*dims*dims]
	for r := 0; r < dims; r++ {
		for c := r; c < dims; c++ {
			var sum float64
			for j := 0; j < dims; j++ {
				e := a.kappa
				if j >= dims-strong {
					e = 1
				}
				sum += e * a.vecs.At(r, j) * a.vecs.At(c, j)
			}
			w[r*dims+c] = sum
			w[c*dims+r] = sum
		}
	}
}

// computeCovariance fills a.cov with the covariance of the neighborhood.
func (a *subspaceAnalyzer) computeCovariance(neighbors []int) {
	idx := a.idx
	dims := idx.dims

	for d := range a.mean {
		a.mean[d] = 0
	}
	for _, nb := range neighbors {
		pt := idx.data[nb*dims : (nb+1)*dims]
		for d, v := range pt {
			a.mean[d] += v
		}
	}
	inv := 1.0 / float64(len(neighbors))
	for d := range a.mean {
		a.mean[d] *= inv
	}

	for r := 0; r < dims; r++ {
		for c := r; c < dims; c++ {
			var sum float64
			for _, nb := range neighbors {
				pt := idx.data[nb*dims : (nb+1)*dims]
				sum += (pt[r] - a.mean[r]) * (pt[c] - a.mean[c])
			}
			a.cov.SetSym(r, c, sum*inv)
		}
	}
}

// setUndefined records a failed analysis: undefined dimension, identity
// similarity matrix (so distances from this point degrade to the plain
// inner metric).
func (a *subspaceAnalyzer) setUndefined(i int) {
	dims := a.idx.dims
	a.idx.corrDim[i] = undefinedDimension
	w := a.idx.weights[i*dims*dims : (i+1)*dims*dims]
	for r := 0; r < dims; r++ {
		w[r*dims+r] = 1
	}
}

// bruteKNN returns the indices of the k nearest points to query by full
// scan, sorted by ascending distance (ties by index).
func bruteKNN(data []float64, n, dims int, metric DistanceMetric, query []float64, k int) []int {
	type cand struct {
		index int
		dist  float64
	}
	cands := make([]cand, n)
	for j := 0; j < n; j++ {
		cands[j] = cand{j, metric.Distance(query, data[j*dims:(j+1)*dims])}
	}
	sort.Slice(cands, func(a, b int) bool {
		if cands[a].dist != cands[b].dist {
			return cands[a].dist < cands[b].dist
		}
		return cands[a].index < cands[b].index
	})
	if k > n {
		k = n
	}
	out := make([]int, k)
	for j := 0; j < k; j++ {
		out[j] = cands[j].index
	}
	return out
}

// --- SubspaceOracle ---

func (s *subspaceIndex) CorrelationDimension(i int) (int, bool) {
	d := s.corrDim[i]
	if d == undefinedDimension {
		return 0, false
	}
	return d, true
}

// LocalDistance is the symmetric locally weighted distance: the maximum of
// the two directed weighted distances, so two points are within epsilon of
// each other only when each lies within the other's weighted neighborhood.
func (s *subspaceIndex) LocalDistance(i, j int) float64 {
	di := s.directedDistance(i, j)
	dj := s.directedDistance(j, i)
	return math.Max(di, dj)
}

// --- RangeOracle ---

// RangeQuery scans all points under the locally weighted distance. The
// per-point weighting makes this a different metric for every query point,
// so no global spatial index applies; the scan returns neighbors in index
// order, query point included (at distance 0).
func (s *subspaceIndex) RangeQuery(i int, radius float64) ([]Neighbor, error) {
	var out []Neighbor
	for j := 0; j < s.n; j++ {
		if d := s.LocalDistance(i, j); d <= radius {
			out = append(out, Neighbor{Index: j, Distance: d})
		}
	}
	return out, nil
}
