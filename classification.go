package projdbscan

// pointClass is the classification of a single point. Every point holds
// exactly one class at any time; keeping the class as one tagged value per
// point (rather than separate processed/noise/member sets) makes the
// partition invariants structural: a point cannot be noise and a cluster
// member at once, and processed is derivable as "anything not unprocessed".
type pointClass int8

const (
	// classUnprocessed is the initial class of every point.
	classUnprocessed pointClass = iota
	// classNoise marks a point that failed density or dimensionality
	// admission, or belonged to a dissolved provisional cluster.
	classNoise
	// classPending marks a point admitted to the cluster currently under
	// construction. Pending points count as processed but belong to no
	// committed cluster until the expansion commits or dissolves.
	classPending
	// classMember marks a point committed to a finished cluster.
	classMember
)

// classification is the mutable partition state of one clustering run:
// per-point classes plus the ordered list of committed clusters. It is
// created empty, mutated only by the expansion engine and the orchestrator,
// and read once at the end to assemble the Result.
type classification struct {
	class     []pointClass
	clusterOf []int   // committed cluster index; valid only for classMember
	clusters  [][]int // committed clusters in commit order

	processed int // count of points with class != classUnprocessed
	noise     int // count of points with class == classNoise
}

func newClassification(n int) *classification {
	return &classification{
		class:     make([]pointClass, n),
		clusterOf: make([]int, n),
	}
}

func (c *classification) size() int { return len(c.class) }

// allProcessedNoNoise reports whether every point is classified and none is
// noise. Once true, no unprocessed seed remains and no noise point can be
// reclaimed, so further expansion attempts are no-ops.
func (c *classification) allProcessedNoNoise() bool {
	return c.processed == len(c.class) && c.noise == 0
}

// markNoise classifies an unprocessed point as noise.
func (c *classification) markNoise(i int) {
	c.class[i] = classNoise
	c.processed++
	c.noise++
}

// admit moves an unprocessed point into the pending cluster, marking it
// processed.
func (c *classification) admit(i int) {
	c.class[i] = classPending
	c.processed++
}

// reclaim moves a noise point into the pending cluster. Reclaim happens at
// most once per point: a pending point either commits to a cluster (final)
// or dissolves back to noise, and a committed member is never reclassified.
func (c *classification) reclaim(i int) {
	c.class[i] = classPending
	c.noise--
}

// commit appends the accumulated points as a new cluster and finalizes
// their membership.
func (c *classification) commit(members []int) {
	idx := len(c.clusters)
	c.clusters = append(c.clusters, members)
	for _, i := range members {
		c.class[i] = classMember
		c.clusterOf[i] = idx
	}
}

// dissolve reclassifies every accumulated point as noise; used when a
// provisional cluster never reached the minimum size.
func (c *classification) dissolve(members []int) {
	for _, i := range members {
		c.class[i] = classNoise
		c.noise++
	}
}

// noisePoints returns the indices of all noise points in index order.
func (c *classification) noisePoints() []int {
	out := make([]int, 0, c.noise)
	for i, cl := range c.class {
		if cl == classNoise {
			out = append(out, i)
		}
	}
	return out
}

// labels renders the classification as per-point labels: the committed
// cluster index for members, -1 for noise.
func (c *classification) labels() []int {
	out := make([]int, len(c.class))
	for i, cl := range c.class {
		if cl == classMember {
			out[i] = c.clusterOf[i]
		} else {
			out[i] = -1
		}
	}
	return out
}
