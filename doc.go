// Package projdbscan implements projected (subspace-aware) density-based
// clustering.
//
// Projected DBSCAN generalizes DBSCAN with a second admission criterion: a
// point joins a cluster only if it is density-reachable under a locally
// weighted distance AND its local correlation dimension (the intrinsic
// dimensionality of the data manifold around it) does not exceed a limit
// lambda. Points spread through a low-dimensional subspace cluster together
// even when the full-dimensional density alone would not separate them from
// the background.
//
// Basic usage:
//
//	cfg := projdbscan.DefaultConfig()
//	cfg.Epsilon = 0.5
//	cfg.MinPts = 8
//	cfg.Lambda = 2
//	result, err := projdbscan.Cluster(data, cfg)
//	// result.Labels[i] is the cluster ID for point i (-1 = noise)
//	// result.Clusters holds each cluster's member indices in commit order
//	// result.Noise holds the indices of all noise points
//
// Cluster runs the full pipeline: it analyzes each point's neighborhood with
// a local PCA to estimate correlation dimensions, derives per-point weighted
// distances from the eigenstructure, and then clusters. Callers with their
// own dimensionality analysis or neighbor search plug in at the oracle level
// instead:
//
//	result, err := projdbscan.ClusterOracles(n, subspace, ranger, cfg)
//
// The oracle-level entry point is the algorithmic core: given a correlation
// dimension per point and an epsilon-range neighbor search, it produces an
// ordered list of clusters plus one noise group covering every point exactly
// once. Results are deterministic for a fixed point order and deterministic
// oracles.
package projdbscan
