package projdbscan

import "errors"

// ErrInconsistentDimension reports that a seed point failed the correlation
// dimension re-check during worklist expansion. Every insertion into the
// worklist filters on dimension <= lambda, so a failure here means the
// subspace oracle returned different answers for the same point within one
// run. The run aborts instead of skipping the seed: a non-deterministic
// oracle invalidates every admission decision already made.
var ErrInconsistentDimension = errors.New("projdbscan: seed point failed correlation dimension re-check; subspace oracle is inconsistent")

// expander grows clusters one at a time, mutating the shared classification.
// It is single-threaded: every classification mutation happens before the
// next oracle query that could observe it.
type expander struct {
	cls      *classification
	sub      SubspaceOracle
	rng      RangeOracle
	epsilon  float64
	minPts   int
	lambda   int
	progress ProgressFunc
}

// expand grows one cluster from an unprocessed start point, or classifies it
// as noise. The two density thresholds are intentionally asymmetric and must
// stay distinct: the start point is rejected when it has strictly fewer than
// minPts neighbors, while a worklist point expands further only when it has
// strictly more than minPts neighbors. The first is the initial density
// admission, the second the reachability test of the underlying definition.
func (e *expander) expand(start int) error {
	dim, ok := e.sub.CorrelationDimension(start)

	// Projected-dimensionality rejection: a point whose neighborhood does
	// not collapse to a subspace of dimension <= lambda cannot seed a
	// cluster.
	if !ok || dim > e.lambda {
		e.cls.markNoise(start)
		e.progress.report(e.cls.processed, len(e.cls.clusters))
		return nil
	}

	neighbors, err := e.rng.RangeQuery(start, e.epsilon)
	if err != nil {
		return err
	}
	if len(neighbors) < e.minPts {
		e.cls.markNoise(start)
		e.progress.report(e.cls.processed, len(e.cls.clusters))
		return nil
	}

	// current accumulates the provisional cluster in admission order; seeds
	// is the worklist of points still awaiting their own reachability test.
	// A FIFO queue, though any drain order that visits each seed exactly
	// once yields a valid clustering.
	current := make([]int, 0, len(neighbors))
	seeds := make([]int, 0, len(neighbors))

	for _, q := range neighbors {
		qdim, qok := e.sub.CorrelationDimension(q.Index)
		if !qok || qdim > e.lambda {
			// q is not reachable from the start point. It stays
			// unprocessed and may be visited later as its own start.
			continue
		}
		switch e.cls.class[q.Index] {
		case classUnprocessed:
			e.cls.admit(q.Index)
			current = append(current, q.Index)
			seeds = append(seeds, q.Index)
		case classNoise:
			// Border reclaim. The point already ran its own failed
			// expansion, so it is not re-seeded.
			e.cls.reclaim(q.Index)
			current = append(current, q.Index)
		}
		// Members of committed clusters stay untouched: no merging.
	}

	for len(seeds) > 0 {
		q := seeds[0]
		seeds = seeds[1:]

		qdim, qok := e.sub.CorrelationDimension(q)
		if !qok || qdim > e.lambda {
			return ErrInconsistentDimension
		}

		reachable, err := e.rng.RangeQuery(q, e.epsilon)
		if err != nil {
			return err
		}
		if len(reachable) <= e.minPts {
			// q stays in the cluster as a border point but reaches
			// nothing further.
			continue
		}

		for _, r := range reachable {
			rdim, rok := e.sub.CorrelationDimension(r.Index)
			if !rok || rdim > e.lambda {
				continue
			}
			switch e.cls.class[r.Index] {
			case classUnprocessed:
				e.cls.admit(r.Index)
				current = append(current, r.Index)
				seeds = append(seeds, r.Index)
			case classNoise:
				e.cls.reclaim(r.Index)
				current = append(current, r.Index)
			default:
				continue
			}
			// While a cluster is still provisional, report it only
			// once it has outgrown the minimum size.
			provisional := len(e.cls.clusters)
			if len(current) > e.minPts {
				provisional++
			}
			e.progress.report(e.cls.processed, provisional)
		}
	}

	// A range oracle that omits the query point from its own neighborhood
	// leaves the start unclassified at this point. It passed both
	// admission tests, so on commit it belongs to the cluster it seeded;
	// on dissolve it goes to noise with the rest.
	if len(current) >= e.minPts {
		if e.cls.class[start] == classUnprocessed {
			e.cls.admit(start)
			current = append(current, start)
		}
		e.cls.commit(current)
	} else {
		// The provisional cluster never reached the minimum size; it
		// dissolves into noise as a whole.
		e.cls.dissolve(current)
		if e.cls.class[start] == classUnprocessed {
			e.cls.markNoise(start)
		}
	}

	e.progress.report(e.cls.processed, len(e.cls.clusters))
	return nil
}
