package projdbscan

// Neighbor is one entry of a range-query result: a point index and its
// distance from the query point.
type Neighbor struct {
	Index    int
	Distance float64
}

// SubspaceOracle exposes precomputed per-point subspace information.
// Implementations must be deterministic: repeated calls with the same
// argument return the same answer for the duration of a clustering run.
type SubspaceOracle interface {
	// CorrelationDimension returns the local correlation dimension of point
	// i, or ok=false if it could not be determined. A point with an
	// undefined dimension can never seed or join a cluster.
	CorrelationDimension(i int) (dim int, ok bool)

	// LocalDistance returns the locally weighted distance between points
	// i and j, consistent with the radius semantics of the RangeOracle
	// paired with this oracle.
	LocalDistance(i, j int) float64
}

// RangeOracle answers epsilon-range queries under the subspace-weighted
// distance. The result contains exactly the points within the radius; it may
// or may not include the query point itself. Neighbor counts are used by the
// clustering thresholds unfiltered, so an oracle that returns the query point
// contributes it to the density count. A self-inclusive oracle and a
// self-exclusive one are both valid but produce different clusterings for
// the same MinPts.
type RangeOracle interface {
	// RangeQuery returns all points within radius of point i, each with its
	// distance. The returned set must be the same for equal inputs; the
	// order of neighbors within it is part of the reproducibility contract
	// and must also be stable.
	RangeQuery(i int, radius float64) ([]Neighbor, error)
}

// ProgressFunc observes clustering progress. It receives the number of
// processed points and the number of committed clusters at unspecified
// intervals throughout a run. It must not be used for correctness: the
// callback sees transient counts and is not invoked on a fixed schedule.
type ProgressFunc func(processed, clusters int)

func (f ProgressFunc) report(processed, clusters int) {
	if f != nil {
		f(processed, clusters)
	}
}
