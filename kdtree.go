package projdbscan

import (
	"container/heap"
	"math"
	"sort"
)

// NodeData describes a single node in the KD-tree.
type NodeData struct {
	IdxStart, IdxEnd int
	IsLeaf           bool
}

// KDTree is a KD-tree spatial index for the neighborhood queries of the
// local subspace analysis. Points are stored in a flat row-major array and
// reordered internally via an index permutation array.
//
// The tree is stored as a complete binary tree in array form:
//   - node i has children at 2*i+1 and 2*i+2
//   - node bounds are stored as min/max per dimension per node
//
// Only metrics that decompose along coordinate axes are valid here; see
// KDTreeValidMetric.
type KDTree struct {
	data     []float64 // flat row-major point data (n * dims)
	n        int       // number of points
	dims     int       // dimensionality
	leafSize int
	metric   DistanceMetric
	idxArray []int      // permutation: tree-order position → original index
	nodes    []NodeData // one entry per tree node
	// nodeBoundsMin[node*dims + j] = min value of feature j in node
	nodeBoundsMin []float64
	// nodeBoundsMax[node*dims + j] = max value of feature j in node
	nodeBoundsMax []float64
}

// NewKDTree builds a KD-tree from flat row-major data with n points of
// dimensionality dims. leafSize controls the max points per leaf node.
func NewKDTree(data []float64, n, dims int, metric DistanceMetric, leafSize int) *KDTree {
	if leafSize < 1 {
		leafSize = 1
	}

	// Copy data and build identity index array.
	dataCopy := make([]float64, len(data))
	copy(dataCopy, data)
	idxArray := make([]int, n)
	for i := range idxArray {
		idxArray[i] = i
	}

	// Pre-allocate tree arrays. A complete binary tree with n leaves of
	// size leafSize needs at most 2*ceil(n/leafSize) nodes, but we use a
	// generous upper bound since the median split may not be perfectly
	// balanced.
	maxNodes := kdMaxNodes(n, leafSize)

	t := &KDTree{
		data:          dataCopy,
		n:             n,
		dims:          dims,
		leafSize:      leafSize,
		metric:        metric,
		idxArray:      idxArray,
		nodes:         make([]NodeData, maxNodes),
		nodeBoundsMin: make([]float64, maxNodes*dims),
		nodeBoundsMax: make([]float64, maxNodes*dims),
	}

	if n > 0 {
		t.buildNode(0, 0, n)
	}

	return t
}

// kdMaxNodes returns an upper bound on the number of nodes needed for a
// binary tree with n points and the given leaf size.
func kdMaxNodes(n, leafSize int) int {
	if n == 0 {
		return 1
	}
	leaves := (n + leafSize - 1) / leafSize
	depth := 0
	v := 1
	for v < leaves {
		v *= 2
		depth++
	}
	return (1 << (depth + 1)) - 1 + 2 // +2 for safety margin
}

// buildNode recursively builds the tree for points in idxArray[start:end].
func (t *KDTree) buildNode(nodeID, start, end int) {
	// Grow arrays if needed (shouldn't happen with good upper bound).
	for nodeID >= len(t.nodes) {
		t.nodes = append(t.nodes, NodeData{})
		t.nodeBoundsMin = append(t.nodeBoundsMin, make([]float64, t.dims)...)
		t.nodeBoundsMax = append(t.nodeBoundsMax, make([]float64, t.dims)...)
	}

	t.computeNodeBounds(nodeID, start, end)

	count := end - start
	if count <= t.leafSize {
		t.nodes[nodeID] = NodeData{IdxStart: start, IdxEnd: end, IsLeaf: true}
		return
	}

	// Find dimension with greatest spread.
	splitDim := 0
	maxSpread := -1.0
	for d := 0; d < t.dims; d++ {
		spread := t.nodeBoundsMax[nodeID*t.dims+d] - t.nodeBoundsMin[nodeID*t.dims+d]
		if spread > maxSpread {
			maxSpread = spread
			splitDim = d
		}
	}

	// Sort by the split dimension and split at the median.
	t.sortByDimension(start, end, splitDim)
	mid := start + count/2

	t.nodes[nodeID] = NodeData{IdxStart: start, IdxEnd: end, IsLeaf: false}

	t.buildNode(2*nodeID+1, start, mid)
	t.buildNode(2*nodeID+2, mid, end)
}

// computeNodeBounds computes min/max per dimension for points idxArray[start:end].
func (t *KDTree) computeNodeBounds(nodeID, start, end int) {
	base := nodeID * t.dims
	for d := 0; d < t.dims; d++ {
		t.nodeBoundsMin[base+d] = math.Inf(1)
		t.nodeBoundsMax[base+d] = math.Inf(-1)
	}
	for i := start; i < end; i++ {
		ptIdx := t.idxArray[i]
		for d := 0; d < t.dims; d++ {
			v := t.data[ptIdx*t.dims+d]
			if v < t.nodeBoundsMin[base+d] {
				t.nodeBoundsMin[base+d] = v
			}
			if v > t.nodeBoundsMax[base+d] {
				t.nodeBoundsMax[base+d] = v
			}
		}
	}
}

// sortByDimension sorts idxArray[start:end] by the given dimension.
func (t *KDTree) sortByDimension(start, end, dim int) {
	sub := t.idxArray[start:end]
	dims := t.dims
	data := t.data
	sort.Slice(sub, func(i, j int) bool {
		return data[sub[i]*dims+dim] < data[sub[j]*dims+dim]
	})
}

// NumPoints returns the number of points in the tree.
func (t *KDTree) NumPoints() int { return t.n }

// QueryKNN finds the k nearest neighbors of query, sorted by ascending
// distance. If query coincides with an indexed point, that point is part of
// the result (at distance 0).
func (t *KDTree) QueryKNN(query []float64, k int) (indices []int, distances []float64) {
	h := &knnHeap{}
	heap.Init(h)
	t.knnSearch(0, query, k, h)

	nResults := h.Len()
	indices = make([]int, nResults)
	distances = make([]float64, nResults)
	for i := nResults - 1; i >= 0; i-- {
		item := heap.Pop(h).(knnItem)
		indices[i] = item.index
		distances[i] = item.dist
	}
	return indices, distances
}

// knnSearch performs a single-tree KNN traversal using a max-heap of size k.
func (t *KDTree) knnSearch(nodeID int, query []float64, k int, h *knnHeap) {
	if nodeID >= len(t.nodes) {
		return
	}
	node := t.nodes[nodeID]
	if node.IdxStart == node.IdxEnd && nodeID != 0 {
		return // uninitialized node
	}

	if node.IsLeaf {
		for i := node.IdxStart; i < node.IdxEnd; i++ {
			ptIdx := t.idxArray[i]
			pt := t.data[ptIdx*t.dims : (ptIdx+1)*t.dims]
			d := t.metric.Distance(query, pt)
			if h.Len() < k {
				heap.Push(h, knnItem{index: ptIdx, dist: d})
			} else if d < (*h)[0].dist {
				(*h)[0] = knnItem{index: ptIdx, dist: d}
				heap.Fix(h, 0)
			}
		}
		return
	}

	// Visit the nearer child first.
	left := 2*nodeID + 1
	right := 2*nodeID + 2

	leftRdist := t.minRdistPoint(left, query)
	rightRdist := t.minRdistPoint(right, query)

	nearChild, farChild := left, right
	farRdist := rightRdist
	if rightRdist < leftRdist {
		nearChild, farChild = right, left
		farRdist = leftRdist
	}

	t.knnSearch(nearChild, query, k, h)

	// Prune the far child if its lower bound exceeds the current k-th distance.
	if h.Len() < k || t.metric.DistToRdist((*h)[0].dist) > farRdist {
		t.knnSearch(farChild, query, k, h)
	}
}

// QueryRadius returns every indexed point within radius of query, sorted by
// ascending distance (ties broken by index). Points exactly at the radius
// are included.
func (t *KDTree) QueryRadius(query []float64, radius float64) []Neighbor {
	var out []Neighbor
	if t.n > 0 {
		out = t.radiusSearch(0, query, radius, t.metric.DistToRdist(radius), out)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// radiusSearch traverses the tree collecting points within the radius,
// pruning nodes whose bounding box lies entirely outside it.
func (t *KDTree) radiusSearch(nodeID int, query []float64, radius, rRadius float64, out []Neighbor) []Neighbor {
	if nodeID >= len(t.nodes) {
		return out
	}
	node := t.nodes[nodeID]
	if node.IdxStart == node.IdxEnd && nodeID != 0 {
		return out // uninitialized node
	}

	if t.minRdistPoint(nodeID, query) > rRadius {
		return out
	}

	if node.IsLeaf {
		for i := node.IdxStart; i < node.IdxEnd; i++ {
			ptIdx := t.idxArray[i]
			pt := t.data[ptIdx*t.dims : (ptIdx+1)*t.dims]
			if d := t.metric.Distance(query, pt); d <= radius {
				out = append(out, Neighbor{Index: ptIdx, Distance: d})
			}
		}
		return out
	}

	out = t.radiusSearch(2*nodeID+1, query, radius, rRadius, out)
	out = t.radiusSearch(2*nodeID+2, query, radius, rRadius, out)
	return out
}

// minRdistPoint returns a lower bound in reduced-distance space on the
// distance between a point and any point in the given node.
func (t *KDTree) minRdistPoint(node int, point []float64) float64 {
	if node >= len(t.nodes) {
		return math.Inf(1)
	}
	dims := t.dims
	base := node * dims

	switch m := t.metric.(type) {
	case ChebyshevMetric:
		var rdist float64
		for j := 0; j < dims; j++ {
			d := boundGap(point[j], t.nodeBoundsMin[base+j], t.nodeBoundsMax[base+j])
			if d > rdist {
				rdist = d
			}
		}
		return rdist

	case MinkowskiMetric:
		var rdist float64
		for j := 0; j < dims; j++ {
			d := boundGap(point[j], t.nodeBoundsMin[base+j], t.nodeBoundsMax[base+j])
			rdist += math.Pow(d, m.P)
		}
		return rdist

	default:
		// Euclidean, Manhattan, and others that decompose along axes.
		var rdist float64
		p := metricP(t.metric)
		for j := 0; j < dims; j++ {
			d := boundGap(point[j], t.nodeBoundsMin[base+j], t.nodeBoundsMax[base+j])
			rdist += math.Pow(d, p)
		}
		return rdist
	}
}

// boundGap returns the distance from v to the interval [lo, hi], or 0 if v
// lies inside it.
func boundGap(v, lo, hi float64) float64 {
	if v < lo {
		return lo - v
	}
	if v > hi {
		return v - hi
	}
	return 0
}

// --- max-heap for KNN queries ---

type knnItem struct {
	index int
	dist  float64
}

// knnHeap is a max-heap of knnItem (largest distance on top) used as a
// bounded priority queue for KNN queries.
type knnHeap []knnItem

func (h knnHeap) Len() int            { return len(h) }
func (h knnHeap) Less(i, j int) bool  { return h[i].dist > h[j].dist } // max-heap
func (h knnHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *knnHeap) Push(x interface{}) { *h = append(*h, x.(knnItem)) }
func (h *knnHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
